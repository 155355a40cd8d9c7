package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

// ErrBadSignature is returned when a signed cookie value does not verify.
var ErrBadSignature = errors.New("bad cookie signature")

const signedPrefix = "s:"

// CookieSigner produces and checks "s:<value>.<mac>" cookie values, where mac
// is unpadded base64 HMAC-SHA256 of value.
type CookieSigner struct {
	secret []byte
}

// NewCookieSigner returns a signer keyed by secret.
func NewCookieSigner(secret string) (*CookieSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("cookie secret required")
	}
	return &CookieSigner{secret: []byte(secret)}, nil
}

// Sign returns the url-escaped signed form of value.
func (s *CookieSigner) Sign(value string) string {
	return url.QueryEscape(signedPrefix + value + "." + s.mac(value))
}

// Unsign verifies raw (as read from the Cookie header) and returns the value.
func (s *CookieSigner) Unsign(raw string) (string, error) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return "", ErrBadSignature
	}
	if !strings.HasPrefix(decoded, signedPrefix) {
		return "", ErrBadSignature
	}
	decoded = strings.TrimPrefix(decoded, signedPrefix)
	dot := strings.LastIndexByte(decoded, '.')
	if dot <= 0 {
		return "", ErrBadSignature
	}
	value, mac := decoded[:dot], decoded[dot+1:]
	if !hmac.Equal([]byte(mac), []byte(s.mac(value))) {
		return "", ErrBadSignature
	}
	return value, nil
}

func (s *CookieSigner) mac(value string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(value))
	return base64.RawStdEncoding.EncodeToString(h.Sum(nil))
}
