package domain

import "time"

// User is a registered account. PasswordHash never leaves the process.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// Public returns the outward projection of u.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

// PublicUser is the identity shape returned by login, carried in tokens and
// stored in the session payload.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Cat is a catalog entry. Tag, Descreption and Img are nullable columns; the
// misspelled json name is part of the public wire contract.
type Cat struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Tag         *string `json:"tag"`
	Descreption *string `json:"descreption"`
	Img         *string `json:"img"`
}

// CatFields are the four replaceable fields of a Cat.
type CatFields struct {
	Name        string  `json:"name"`
	Tag         *string `json:"tag"`
	Descreption *string `json:"descreption"`
	Img         *string `json:"img"`
}

// CatFilter narrows a catalog listing. Empty fields are ignored; both set
// means both must match.
type CatFilter struct {
	// Search is a case-insensitive substring of the name.
	Search string
	// Tag must equal the cat's tag exactly.
	Tag string
}

// Adoption links a user to a cat.
type Adoption struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	CatID     int64     `json:"catId"`
	AdoptedAt time.Time `json:"adoptedAt"`
}

// Session is a server-side browser session. UserID stays nil until login
// links the session to an account.
type Session struct {
	ID      string
	UserID  *int64
	Expires time.Time
	Data    SessionData
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.Expires)
}

// SessionData is the serialized session payload.
type SessionData struct {
	Cookie          SessionCookie `json:"cookie"`
	IsAuthenticated bool          `json:"isAuthenticated,omitempty"`
	UserID          int64         `json:"userId,omitempty"`
	Username        string        `json:"username,omitempty"`
	Email           string        `json:"email,omitempty"`
}

// User returns the identity stored in the payload, if authenticated.
func (d SessionData) User() (PublicUser, bool) {
	if !d.IsAuthenticated {
		return PublicUser{}, false
	}
	return PublicUser{ID: d.UserID, Username: d.Username, Email: d.Email}, true
}

// SessionCookie mirrors the cookie attributes recorded alongside the payload.
type SessionCookie struct {
	OriginalMaxAge int64     `json:"originalMaxAge"`
	Expires        time.Time `json:"expires"`
	Secure         bool      `json:"secure"`
	HTTPOnly       bool      `json:"httpOnly"`
	Path           string    `json:"path"`
}
