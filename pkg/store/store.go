package store

import (
	"context"
	"time"

	"catgallery/pkg/domain"
)

// Store defines persistence for users, the cat catalog and adoptions.
type Store interface {
	// users
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error)

	// cats
	ListCats(ctx context.Context, filter domain.CatFilter) ([]domain.Cat, error)
	GetCat(ctx context.Context, id int64) (domain.Cat, bool, error)
	CreateCat(ctx context.Context, fields domain.CatFields) (domain.Cat, error)
	UpdateCat(ctx context.Context, id int64, fields domain.CatFields) (domain.Cat, bool, error)
	DeleteCat(ctx context.Context, id int64) error
	ListTags(ctx context.Context) ([]string, error)

	// adoptions
	Adopt(ctx context.Context, userID, catID int64) error
	Unadopt(ctx context.Context, userID, catID int64) error
	ListAdoptedCats(ctx context.Context, userID int64) ([]domain.Cat, error)
	CountAdoptions(ctx context.Context, userID int64) (int, error)

	Ping(ctx context.Context) error
}

// SessionStore persists server-side sessions keyed by an opaque id it
// generates itself.
type SessionStore interface {
	NewID() string
	Save(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, sid string) (domain.Session, bool, error)
	Touch(ctx context.Context, sid string, expires time.Time) error
	LinkUser(ctx context.Context, sid string, userID int64) error
	Destroy(ctx context.Context, sid string) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

var (
	_ Store        = (*GormStore)(nil)
	_ Store        = (*MemoryStore)(nil)
	_ SessionStore = (*GormSessionStore)(nil)
	_ SessionStore = (*MemorySessionStore)(nil)
)
