package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catgallery/internal/util"
	"catgallery/pkg/auth"
	"catgallery/pkg/domain"
	"catgallery/pkg/store"
)

// LoginResult is what a successful login hands back to the transport.
type LoginResult struct {
	User         domain.PublicUser
	Token        string
	TokenExpires time.Time
	Session      domain.Session
}

// SessionStatus is the server-side view of a browser session.
type SessionStatus struct {
	IsAuthenticated bool               `json:"isAuthenticated"`
	User            *domain.PublicUser `json:"user,omitempty"`
}

// Register creates an account. Username and email must both be unused.
func (a *App) Register(ctx context.Context, username, email, password string) error {
	if blank(username) || blank(email) || blank(password) {
		return ErrFieldsRequired
	}
	exists, err := a.store.UserExists(ctx, username, email)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if exists {
		return ErrUserExists
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = a.store.CreateUser(ctx, domain.User{Username: username, Email: email, PasswordHash: hash})
	if errors.Is(err, store.ErrDuplicate) {
		// lost a race with a concurrent registration
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Login verifies credentials, issues a token and establishes a fresh
// session. current is the session the request arrived with, if any; it is
// replaced so a pre-login session id never becomes authenticated.
func (a *App) Login(ctx context.Context, email, password string, current *domain.Session) (LoginResult, error) {
	if blank(email) || blank(password) {
		return LoginResult{}, ErrFieldsRequired
	}
	user, ok, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		auth.BurnPasswordCheck(password)
		return LoginResult{}, ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	public := user.Public()
	token, expires, err := a.tokens.Issue(public)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	logger := util.LoggerFromContext(ctx)
	if current != nil {
		if err := a.sessions.Destroy(ctx, current.ID); err != nil {
			logger.Warn("destroy previous session failed", "err", err)
		}
	}
	sess := a.newSession(public)
	if err := a.sessions.Save(ctx, sess); err != nil {
		logger.Error("session save failed", "user_id", public.ID, "err", err)
		return LoginResult{}, ErrSessionSave
	}
	// The payload already marks the session authenticated; the FK link is
	// a separate statement and its failure must not fail the login.
	if err := a.sessions.LinkUser(ctx, sess.ID, public.ID); err != nil {
		logger.Warn("link session to user failed", "user_id", public.ID, "err", err)
	} else {
		uid := public.ID
		sess.UserID = &uid
	}

	return LoginResult{User: public, Token: token, TokenExpires: expires, Session: sess}, nil
}

// Logout destroys sess. It reports false when there was nothing to destroy.
func (a *App) Logout(ctx context.Context, sess *domain.Session) (bool, error) {
	if sess == nil {
		return false, nil
	}
	if err := a.sessions.Destroy(ctx, sess.ID); err != nil {
		return true, fmt.Errorf("destroy session: %w", err)
	}
	return true, nil
}

// Status reflects only the server-side session, never the token.
func (a *App) Status(sess *domain.Session) SessionStatus {
	if sess == nil {
		return SessionStatus{}
	}
	user, ok := sess.Data.User()
	if !ok {
		return SessionStatus{}
	}
	return SessionStatus{IsAuthenticated: true, User: &user}
}

// LoadSession returns the live session for sid, or nil. Expired sessions are
// deleted on sight; live ones get their expiry slid forward. Both writes are
// best-effort.
func (a *App) LoadSession(ctx context.Context, sid string) (*domain.Session, error) {
	if sid == "" {
		return nil, nil
	}
	sess, ok, err := a.sessions.Get(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	logger := util.LoggerFromContext(ctx)
	now := a.now()
	if sess.Expired(now) {
		if err := a.sessions.Destroy(ctx, sid); err != nil {
			logger.Warn("drop expired session failed", "err", err)
		}
		return nil, nil
	}
	expires := now.Add(a.sessionTTL)
	if err := a.sessions.Touch(ctx, sid, expires); err != nil {
		logger.Warn("touch session failed", "err", err)
	} else {
		sess.Expires = expires
	}
	return &sess, nil
}

// CleanupSessions removes every session linked to userID.
func (a *App) CleanupSessions(ctx context.Context, userID int64) (int64, error) {
	n, err := a.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	return n, nil
}

// PruneExpiredSessions deletes sessions past their expiry.
func (a *App) PruneExpiredSessions(ctx context.Context) (int64, error) {
	return a.sessions.DeleteExpired(ctx, a.now())
}

func (a *App) newSession(user domain.PublicUser) domain.Session {
	now := a.now()
	expires := now.Add(a.sessionTTL)
	return domain.Session{
		ID:      a.sessions.NewID(),
		Expires: expires,
		Data: domain.SessionData{
			Cookie: domain.SessionCookie{
				OriginalMaxAge: a.sessionTTL.Milliseconds(),
				Expires:        expires.UTC(),
				Secure:         a.secureCookies,
				HTTPOnly:       true,
				Path:           "/",
			},
			IsAuthenticated: true,
			UserID:          user.ID,
			Username:        user.Username,
			Email:           user.Email,
		},
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
