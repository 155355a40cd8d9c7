package auth

import (
	"context"

	"catgallery/pkg/domain"
)

type identityContextKey struct{}

// ContextWithIdentity attaches a verified token identity to ctx.
func ContextWithIdentity(ctx context.Context, user domain.PublicUser) context.Context {
	return context.WithValue(ctx, identityContextKey{}, user)
}

// IdentityFromContext returns the identity attached by ContextWithIdentity.
func IdentityFromContext(ctx context.Context) (domain.PublicUser, bool) {
	user, ok := ctx.Value(identityContextKey{}).(domain.PublicUser)
	return user, ok
}
