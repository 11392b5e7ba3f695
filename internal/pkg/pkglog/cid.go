package pkglog

import "context"

type correlationKey struct{}

// SetCorrelationID returns a copy of ctx carrying cid.
func SetCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationKey{}, cid)
}

// GetCorrelationID returns the correlation ID of ctx, or "" when there is none.
func GetCorrelationID(ctx context.Context) string {
	cid, _ := ctx.Value(correlationKey{}).(string)
	return cid
}

// DetachContext keeps the correlation ID of ctx on a fresh background
// context, for work that outlives the request that started it.
func DetachContext(parent, ctx context.Context) context.Context {
	if cid := GetCorrelationID(ctx); cid != "" {
		return SetCorrelationID(parent, cid)
	}
	return parent
}
