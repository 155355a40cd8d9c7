package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"catgallery/internal/metrics"
	"catgallery/internal/util"
	"catgallery/pkg/auth"
	"catgallery/pkg/store"
	"catgallery/services/gallery/internal/config"
	"catgallery/services/gallery/internal/server"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := loadDeps(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	signer, err := auth.NewCookieSigner(cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("init cookie signer: %w", err)
	}
	proxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parse trusted proxies: %w", err)
	}
	var revoker store.TokenRevoker
	if cfg.RevokeTokensOnLogout {
		if d.redis != nil {
			revoker = store.NewRedisTokenRevoker(d.redis, "catgallery:revoked")
		} else {
			revoker = store.NewMemoryTokenRevoker()
		}
	}
	httpServer, err := server.New(server.Config{
		App:                        d.app,
		Tokens:                     d.tokens,
		CookieSigner:               signer,
		Metrics:                    metrics.New(),
		Revoker:                    revoker,
		Redis:                      d.redis,
		RegisterRateLimitPerMinute: cfg.RegisterRateLimitPerMinute,
		LoginRateLimitPerMinute:    cfg.LoginRateLimitPerMinute,
		SecureCookies:              cfg.Production,
		ProtectCatalog:             cfg.ProtectCatalog,
		PublicDir:                  cfg.PublicDir,
		TrustedOrigins:             cfg.TrustedOrigins,
		TrustedProxies:             proxies,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpServer.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "production", cfg.Production)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
