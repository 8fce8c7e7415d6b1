package auth

import "context"

type contextKey struct {
	name string
}

var principalCtxKey = &contextKey{"principal"}

// WithPrincipal binds p to ctx. The binding lives exactly as long as ctx,
// which for HTTP handlers is one request.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// PrincipalFrom returns the principal bound to ctx, if any
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(*Principal)
	return p, ok && p != nil
}
