package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"catgallery/internal/util"
	"catgallery/pkg/auth"
	"catgallery/pkg/domain"
)

const (
	tokenCookieName   = "token"
	sessionCookieName = "connect.sid"

	msgTokenRequired = "Access token required"
	msgTokenInvalid  = "Invalid or expired token"
)

type authHandler func(http.ResponseWriter, *http.Request, domain.PublicUser)

// authenticated is the request authenticator: it admits a request only with
// a valid token and never looks at the server-side session.
func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(w, r)
		if !ok {
			return
		}
		next(w, r.WithContext(auth.ContextWithIdentity(r.Context(), user)), user)
	})
}

// authorize writes 401 when no token is present and 403 when it fails
// verification.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) (domain.PublicUser, bool) {
	token := requestToken(r)
	if token == "" {
		s.audit(r, "gallery.authorize", "fail", "reason", "missing_token")
		writeError(w, http.StatusUnauthorized, msgTokenRequired)
		return domain.PublicUser{}, false
	}
	claims, err := s.tokens.Parse(token)
	if err == nil && s.revoker != nil {
		revoked, rerr := s.revoker.IsRevoked(r.Context(), claims.ID)
		if rerr != nil {
			util.LoggerFromContext(r.Context()).Error("token revocation check failed", "err", rerr)
		}
		// an unreachable revocation store fails closed
		if revoked || rerr != nil {
			err = auth.ErrInvalidToken
		}
	}
	if err != nil {
		s.audit(r, "gallery.authorize", "fail", "reason", "invalid_token")
		writeError(w, http.StatusForbidden, msgTokenInvalid)
		return domain.PublicUser{}, false
	}
	user := claims.User()
	s.audit(r, "gallery.authorize", "success", "user_id", user.ID)
	return user, true
}

// revokeRequestToken blocks the caller's token for the rest of its
// lifetime. No-op without a revoker or a valid token.
func (s *Server) revokeRequestToken(r *http.Request) {
	if s.revoker == nil {
		return
	}
	claims, err := s.tokens.Parse(requestToken(r))
	if err != nil {
		return
	}
	if err := s.revoker.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		util.LoggerFromContext(r.Context()).Warn("token revoke failed", "user_id", claims.UserID, "err", err)
	}
}

// requestToken takes the token cookie first, then the second word of the
// Authorization header ("Bearer <token>").
func requestToken(r *http.Request) string {
	if c, err := r.Cookie(tokenCookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}

type sessionContextKey struct{}

// withSession resolves the signed session cookie into a live session and
// stores it in the request context. Bad signatures and unknown or expired
// ids simply leave the request without a session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		sid, err := s.signer.Unsign(c.Value)
		if err != nil {
			util.LoggerFromContext(r.Context()).Debug("ignoring session cookie", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		sess, err := s.app.LoadSession(r.Context(), sid)
		if err != nil {
			util.LoggerFromContext(r.Context()).Warn("load session failed", "err", err)
		}
		if sess != nil {
			r = r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, sess))
		}
		next.ServeHTTP(w, r)
	})
}

func sessionFromRequest(r *http.Request) *domain.Session {
	sess, _ := r.Context().Value(sessionContextKey{}).(*domain.Session)
	return sess
}

func (s *Server) setTokenCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.signer.Sign(sess.ID),
		Path:     "/",
		Expires:  sess.Expires,
		MaxAge:   int(s.app.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookies(w http.ResponseWriter) {
	for _, name := range []string{sessionCookieName, tokenCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
