package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"gorm.io/gorm"

	"catgallery/pkg/auth"
	"catgallery/pkg/store"
	"catgallery/services/gallery/internal/app"
	"catgallery/services/gallery/internal/config"
)

// deps holds everything opened for a run; close releases it.
type deps struct {
	app      *app.App
	tokens   *auth.TokenService
	redis    *redis.Client
	closeFns []func()
}

func (d *deps) close() {
	for i := len(d.closeFns) - 1; i >= 0; i-- {
		d.closeFns[i]()
	}
}

// openDB connects and migrates when a database URL is configured.
func openDB(ctx context.Context, cfg config.FileConfig) (*gorm.DB, func(), error) {
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := store.Migrate(ctx, db); err != nil {
		closeFn()
		return nil, nil, oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return db, closeFn, nil
}

func loadDeps(ctx context.Context, logger *slog.Logger, cfg config.FileConfig) (*deps, error) {
	d := &deps{}

	tokenTTL, err := config.ParseTokenTTL(cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	d.tokens, err = auth.NewTokenService(cfg.JWTSecret, tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token service: %w", err)
	}

	var (
		st       store.Store
		sessions store.SessionStore
	)
	if cfg.DatabaseURL == "" {
		logger.Warn("no database configured, using in-memory stores")
		st = store.NewMemoryStore()
		sessions = store.NewMemorySessionStore()
	} else {
		db, closeFn, err := openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		d.closeFns = append(d.closeFns, closeFn)
		st = store.NewGormStore(db)
		sessions = store.NewGormSessionStore(db)
	}

	if cfg.RedisAddr != "" {
		d.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := d.redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// limiters fail closed, so keep going and let them reject
			logger.Warn("redis unreachable", "addr", cfg.RedisAddr, "err", err)
		}
		client := d.redis
		d.closeFns = append(d.closeFns, func() { _ = client.Close() })
	}

	d.app, err = app.New(app.Config{
		Store:         st,
		Sessions:      sessions,
		Tokens:        d.tokens,
		SessionTTL:    sessionTTL,
		SecureCookies: cfg.Production,
	})
	if err != nil {
		d.close()
		return nil, fmt.Errorf("init app: %w", err)
	}
	return d, nil
}
