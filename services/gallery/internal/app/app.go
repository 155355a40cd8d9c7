package app

import (
	"context"
	"errors"
	"time"

	"catgallery/pkg/auth"
	"catgallery/pkg/store"
)

// DefaultSessionTTL is the server-side session lifetime.
const DefaultSessionTTL = 24 * time.Hour

// Config holds runtime configuration for the core application.
type Config struct {
	Store      store.Store
	Sessions   store.SessionStore
	Tokens     *auth.TokenService
	SessionTTL time.Duration
	// SecureCookies is recorded in the session payload; it mirrors the
	// cookie's Secure attribute.
	SecureCookies bool
}

// App is the core application service wiring together storage and auth logic.
type App struct {
	store         store.Store
	sessions      store.SessionStore
	tokens        *auth.TokenService
	sessionTTL    time.Duration
	secureCookies bool
	now           func() time.Time
}

// New constructs the application from already opened dependencies.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token service required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	return &App{
		store:         cfg.Store,
		sessions:      cfg.Sessions,
		tokens:        cfg.Tokens,
		sessionTTL:    cfg.SessionTTL,
		secureCookies: cfg.SecureCookies,
		now:           time.Now,
	}, nil
}

// SessionTTL returns the configured session lifetime.
func (a *App) SessionTTL() time.Duration { return a.sessionTTL }

// TokenTTL returns the token lifetime.
func (a *App) TokenTTL() time.Duration { return a.tokens.TTL() }

// Ready reports whether the backing store answers.
func (a *App) Ready(ctx context.Context) error {
	return a.store.Ping(ctx)
}
