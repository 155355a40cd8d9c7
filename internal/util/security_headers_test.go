package util

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithSecurityHeaders(t *testing.T) {
	h := WithSecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))

	tests := []struct {
		name      string
		forwarded string
		tls       bool
		wantHSTS  bool
	}{
		{name: "plain http", wantHSTS: false},
		{name: "forwarded https is case-insensitive", forwarded: " HTTPS ", wantHSTS: true},
		{name: "forwarded http", forwarded: "http", wantHSTS: false},
		{name: "direct tls", tls: true, wantHSTS: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cats", nil)
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-Proto", tc.forwarded)
			}
			if tc.tls {
				req.TLS = &tls.ConnectionState{}
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			want := map[string]string{
				"X-Content-Type-Options":  "nosniff",
				"X-Frame-Options":         "DENY",
				"Referrer-Policy":         "same-origin",
				"Content-Security-Policy": contentSecurityPolicy,
			}
			for k, v := range want {
				if got := rec.Header().Get(k); got != v {
					t.Fatalf("%s = %q, want %q", k, got, v)
				}
			}
			if hsts := rec.Header().Get("Strict-Transport-Security"); (hsts != "") != tc.wantHSTS {
				t.Fatalf("HSTS = %q, want present=%v", hsts, tc.wantHSTS)
			}
			if rec.Body.String() != "[]" {
				t.Fatalf("body not passed through: %q", rec.Body.String())
			}
		})
	}
}
