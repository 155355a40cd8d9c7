package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"catgallery/pkg/auth"
	"catgallery/pkg/domain"
	"catgallery/pkg/store"
)

type flakySessions struct {
	*store.MemorySessionStore
	saveErr error
	linkErr error
}

func (f *flakySessions) Save(ctx context.Context, s domain.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemorySessionStore.Save(ctx, s)
}

func (f *flakySessions) LinkUser(ctx context.Context, sid string, userID int64) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	return f.MemorySessionStore.LinkUser(ctx, sid, userID)
}

type testEnv struct {
	app      *App
	store    *store.MemoryStore
	sessions *flakySessions
	tokens   *auth.TokenService
}

func newTestApp(t *testing.T) testEnv {
	t.Helper()
	tokens, err := auth.NewTokenService("test-jwt-secret", time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	env := testEnv{
		store:    store.NewMemoryStore(),
		sessions: &flakySessions{MemorySessionStore: store.NewMemorySessionStore()},
		tokens:   tokens,
	}
	env.app, err = New(Config{Store: env.store, Sessions: env.sessions, Tokens: tokens})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return env
}

func mustRegister(t *testing.T, a *App, username, email, password string) {
	t.Helper()
	if err := a.Register(context.Background(), username, email, password); err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without store")
	}
	if _, err := New(Config{Store: store.NewMemoryStore()}); err == nil {
		t.Fatal("expected error without session store")
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	cases := [][3]string{
		{"", "a@example.com", "pw"},
		{"a", "", "pw"},
		{"a", "a@example.com", "  "},
	}
	for _, c := range cases {
		if err := env.app.Register(ctx, c[0], c[1], c[2]); !errors.Is(err, ErrFieldsRequired) {
			t.Fatalf("register(%q,%q,%q): got %v", c[0], c[1], c[2], err)
		}
	}
}

func TestRegisterRejectsDuplicateEmailOrUsername(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	mustRegister(t, env.app, "tom", "tom@example.com", "pw")

	if err := env.app.Register(ctx, "thomas", "tom@example.com", "pw"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate email: got %v", err)
	}
	if err := env.app.Register(ctx, "tom", "other@example.com", "pw"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate username: got %v", err)
	}
}

func TestRegisterStoresBcryptHash(t *testing.T) {
	env := newTestApp(t)
	mustRegister(t, env.app, "tom", "tom@example.com", "pw")
	u, ok, _ := env.store.GetUserByEmail(context.Background(), "tom@example.com")
	if !ok || u.PasswordHash == "pw" || !auth.CheckPassword("pw", u.PasswordHash) {
		t.Fatalf("expected hashed password, got %+v", u)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	mustRegister(t, env.app, "tom", "tom@example.com", "pw")

	_, wrongPassword := env.app.Login(ctx, "tom@example.com", "nope", nil)
	_, unknownEmail := env.app.Login(ctx, "ghost@example.com", "pw", nil)
	if !errors.Is(wrongPassword, ErrInvalidCredentials) || !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v / %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPassword, unknownEmail)
	}
	if _, err := env.app.Login(ctx, "", "pw", nil); !errors.Is(err, ErrFieldsRequired) {
		t.Fatalf("missing email: got %v", err)
	}
}

func TestLoginIssuesTokenAndLinksSession(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	mustRegister(t, env.app, "tom", "tom@example.com", "pw")

	res, err := env.app.Login(ctx, "tom@example.com", "pw", nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.Username != "tom" || res.User.ID == 0 {
		t.Fatalf("unexpected user %+v", res.User)
	}
	ident, err := env.tokens.Verify(res.Token)
	if err != nil || ident != res.User {
		t.Fatalf("token identity %+v err=%v", ident, err)
	}

	stored, ok, _ := env.sessions.Get(ctx, res.Session.ID)
	if !ok || stored.UserID == nil || *stored.UserID != res.User.ID {
		t.Fatalf("expected linked session, got %+v", stored)
	}
	status := env.app.Status(&stored)
	if !status.IsAuthenticated || status.User == nil || *status.User != res.User {
		t.Fatalf("status = %+v", status)
	}
	if stored.Data.Cookie.OriginalMaxAge != DefaultSessionTTL.Milliseconds() {
		t.Fatalf("cookie max age = %d", stored.Data.Cookie.OriginalMaxAge)
	}
}

func TestLoginToleratesLinkFailure(t *testing.T) {
	env := newTestApp(t)
	env.sessions.linkErr = errors.New("db hiccup")
	mustRegister(t, env.app, "tom", "tom@example.com", "pw")

	res, err := env.app.Login(context.Background(), "tom@example.com", "pw", nil)
	if err != nil {
		t.Fatalf("login should survive link failure: %v", err)
	}
	if res.Session.UserID != nil {
		t.Fatalf("session should be unlinked, got %v", *res.Session.UserID)
	}
	if !env.app.Status(&res.Session).IsAuthenticated {
		t.Fatal("payload should still mark session authenticated")
	}
}

func TestLoginFailsWhenSessionCannotBeSaved(t *testing.T) {
	env := newTestApp(t)
	env.sessions.saveErr = errors.New("db down")
	mustRegister(t, env.app, "tom", "tom@example.com", "pw")

	if _, err := env.app.Login(context.Background(), "tom@example.com", "pw", nil); !errors.Is(err, ErrSessionSave) {
		t.Fatalf("expected ErrSessionSave, got %v", err)
	}
}

func TestLoginReplacesPreviousSession(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	mustRegister(t, env.app, "tom", "tom@example.com", "pw")

	first, err := env.app.Login(ctx, "tom@example.com", "pw", nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	second, err := env.app.Login(ctx, "tom@example.com", "pw", &first.Session)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.Session.ID == second.Session.ID {
		t.Fatal("expected a new session id")
	}
	if _, ok, _ := env.sessions.Get(ctx, first.Session.ID); ok {
		t.Fatal("previous session should be destroyed")
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	mustRegister(t, env.app, "tom", "tom@example.com", "pw")

	had, err := env.app.Logout(ctx, nil)
	if err != nil || had {
		t.Fatalf("logout without session: had=%v err=%v", had, err)
	}

	res, _ := env.app.Login(ctx, "tom@example.com", "pw", nil)
	sess, err := env.app.LoadSession(ctx, res.Session.ID)
	if err != nil || sess == nil {
		t.Fatalf("load session: %v %v", sess, err)
	}
	had, err = env.app.Logout(ctx, sess)
	if err != nil || !had {
		t.Fatalf("logout: had=%v err=%v", had, err)
	}
	sess, _ = env.app.LoadSession(ctx, res.Session.ID)
	if env.app.Status(sess).IsAuthenticated {
		t.Fatal("expected unauthenticated after logout")
	}
	// the token is not revoked by logout
	if _, err := env.tokens.Verify(res.Token); err != nil {
		t.Fatalf("token should remain valid until expiry: %v", err)
	}
}

func TestLoadSessionExpiresAndTouches(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	env.app.now = func() time.Time { return now }
	mustRegister(t, env.app, "tom", "tom@example.com", "pw")

	res, err := env.app.Login(ctx, "tom@example.com", "pw", nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	now = now.Add(12 * time.Hour)
	sess, err := env.app.LoadSession(ctx, res.Session.ID)
	if err != nil || sess == nil {
		t.Fatalf("load: %v %v", sess, err)
	}
	if want := now.Add(DefaultSessionTTL); !sess.Expires.Equal(want) {
		t.Fatalf("expected touched expiry %v, got %v", want, sess.Expires)
	}

	now = now.Add(DefaultSessionTTL)
	sess, err = env.app.LoadSession(ctx, res.Session.ID)
	if err != nil || sess != nil {
		t.Fatalf("expected expired session to vanish, got %v %v", sess, err)
	}
	if _, ok, _ := env.sessions.Get(ctx, res.Session.ID); ok {
		t.Fatal("expired session should be deleted")
	}
}

func TestCleanupSessions(t *testing.T) {
	env := newTestApp(t)
	ctx := context.Background()
	mustRegister(t, env.app, "tom", "tom@example.com", "pw")
	a, _ := env.app.Login(ctx, "tom@example.com", "pw", nil)
	_, _ = env.app.Login(ctx, "tom@example.com", "pw", nil)

	n, err := env.app.CleanupSessions(ctx, a.User.ID)
	if err != nil || n != 2 {
		t.Fatalf("cleanup removed %d err=%v", n, err)
	}
}
