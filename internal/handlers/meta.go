package handlers

import "context"

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata captured by middleware: client
// details for the ledger, the Host header for custom-domain routing, and
// the caller account for ownership checks.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
	Host      string
	AccountID string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}
