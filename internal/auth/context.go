package auth

import (
	"context"

	"github.com/campushq/campus-events/internal/model"
)

type contextKey struct{}

var identityKey contextKey

// WithIdentity attaches the caller's identity to the context.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller's identity, if one was attached.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok
}
