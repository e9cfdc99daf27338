package auth

import (
	"context"
)

type ctxKey string

const (
	principalKey ctxKey = "principal"
)

// Principal is the authenticated caller as supplied by the hosting layer.
type Principal struct {
	Identity string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func FromContext(ctx context.Context) Principal {
	if v, ok := ctx.Value(principalKey).(Principal); ok {
		return v
	}
	return Principal{}
}

func Identity(ctx context.Context) string {
	return FromContext(ctx).Identity
}
