package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"catgallery/internal/metrics"
	"catgallery/internal/ratelimit"
	"catgallery/internal/util"
	"catgallery/pkg/auth"
	"catgallery/pkg/store"
	"catgallery/services/gallery/internal/app"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App          *app.App
	Tokens       *auth.TokenService
	CookieSigner *auth.CookieSigner
	Metrics      *metrics.Metrics
	// Revoker, when set, invalidates the caller's token on logout.
	Revoker store.TokenRevoker
	// Redis backs the rate limiters when set; otherwise they are in-process.
	Redis                      *redis.Client
	RegisterRateLimitPerMinute int
	LoginRateLimitPerMinute    int
	SecureCookies              bool
	ProtectCatalog             bool
	PublicDir                  string
	TrustedOrigins             []string
	TrustedProxies             *util.TrustedProxies
}

// Server exposes the gallery HTTP API.
type Server struct {
	app             *app.App
	tokens          *auth.TokenService
	signer          *auth.CookieSigner
	metrics         *metrics.Metrics
	revoker         store.TokenRevoker
	mux             *http.ServeMux
	registerLimiter ratelimit.Limiter
	loginLimiter    ratelimit.Limiter
	secureCookies   bool
	protectCatalog  bool
	publicDir       string
	trustedOrigins  []string
	trustedProxies  *util.TrustedProxies
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil || cfg.Tokens == nil || cfg.CookieSigner == nil {
		return nil, errors.New("server: app, token service and cookie signer are required")
	}
	newLimiter := func(name string, limit int) (ratelimit.Limiter, error) {
		if limit <= 0 {
			return nil, nil
		}
		if cfg.Redis != nil {
			l, err := ratelimit.NewRedisFixedWindowLimiter(cfg.Redis, "catgallery:ratelimit:"+name, limit, time.Minute)
			if err != nil {
				return nil, fmt.Errorf("init %s limiter: %w", name, err)
			}
			return l, nil
		}
		l, err := ratelimit.NewLocalLimiter(limit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return l, nil
	}
	registerLimiter, err := newLimiter("register", cfg.RegisterRateLimitPerMinute)
	if err != nil {
		return nil, err
	}
	loginLimiter, err := newLimiter("login", cfg.LoginRateLimitPerMinute)
	if err != nil {
		return nil, err
	}

	s := &Server{
		app:             cfg.App,
		tokens:          cfg.Tokens,
		signer:          cfg.CookieSigner,
		metrics:         cfg.Metrics,
		revoker:         cfg.Revoker,
		mux:             http.NewServeMux(),
		registerLimiter: registerLimiter,
		loginLimiter:    loginLimiter,
		secureCookies:   cfg.SecureCookies,
		protectCatalog:  cfg.ProtectCatalog,
		publicDir:       cfg.PublicDir,
		trustedOrigins:  cfg.TrustedOrigins,
		trustedProxies:  cfg.TrustedProxies,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	var h http.Handler = s.mux
	h = s.withSession(h)
	h = util.WithBodyLimit(maxBodyBytes, h)
	h = s.metrics.Instrument(routeLabel, h)
	h = util.WithCORS(s.trustedOrigins, h)
	h = util.WithSecurityHeaders(h)
	h = util.WithRequestLog("gallery", h)
	return util.WithRequestID(h)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/readyz", s.handleReady)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}

	// auth
	s.mux.HandleFunc("/register", s.handleRegister)
	s.mux.HandleFunc("/login", s.handleLogin)
	s.mux.HandleFunc("/logout", s.handleLogout)
	s.mux.HandleFunc("/session", s.handleSession)
	s.mux.Handle("/cleanup-sessions", s.authenticated(s.handleCleanupSessions))

	// catalog
	s.mux.HandleFunc("/cats", s.handleCats)
	s.mux.HandleFunc("/cats/", s.handleCatByID)
	s.mux.HandleFunc("/tags", s.handleTags)

	// adoptions (token required)
	s.mux.Handle("/adopt/", s.authenticated(s.handleAdopt))
	s.mux.Handle("/adoptions", s.authenticated(s.handleAdoptions))
	s.mux.Handle("/adoptions/count", s.authenticated(s.handleAdoptionCount))

	s.mux.Handle("/", s.staticHandler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Ready(r.Context()); err != nil {
		util.LoggerFromContext(r.Context()).Warn("readiness check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// staticHandler serves publicDir for GET and HEAD; "/" resolves to index.html.
func (s *Server) staticHandler() http.Handler {
	dir := strings.TrimSpace(s.publicDir)
	if dir == "" {
		return http.NotFoundHandler()
	}
	files := http.FileServerFS(os.DirFS(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// internalError logs err against the request and writes an opaque 500.
func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	util.LoggerFromContext(r.Context()).Error(msg, "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, msg)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trustedProxies),
	}
	logAttrs = append(logAttrs, attrs...)
	s.metrics.SecurityEvent(event, outcome)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter ratelimit.Limiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if limiter.Allow(r.Context(), key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

var knownRoutes = map[string]struct{}{
	"/healthz": {}, "/readyz": {}, "/metrics": {},
	"/register": {}, "/login": {}, "/logout": {}, "/session": {}, "/cleanup-sessions": {},
	"/cats": {}, "/tags": {}, "/adoptions": {}, "/adoptions/count": {}, "/": {},
}

// routeLabel maps a request path to a bounded metrics label.
func routeLabel(r *http.Request) string {
	p := r.URL.Path
	if _, ok := knownRoutes[p]; ok {
		return p
	}
	switch {
	case strings.HasPrefix(p, "/cats/"):
		return "/cats/:id"
	case strings.HasPrefix(p, "/adopt/"):
		return "/adopt/:catId"
	default:
		return "static"
	}
}
