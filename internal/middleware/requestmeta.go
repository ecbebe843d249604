package middleware

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quickqr/engine/internal/handlers"
)

// AccountHeader carries the caller account resolved by the out-of-scope
// auth collaborator in front of this service.
const AccountHeader = "X-Account-Id"

// RequestMeta is a middleware that captures client IP, user agent,
// referrer, the Host header, and the caller account into the request
// context. The resolver uses Host for custom-domain routing; the
// management handlers use the account for ownership checks.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:  extractClientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
			Host:      ctx.Host(),
			AccountID: ctx.Header(AccountHeader),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

func extractClientIP(ctx huma.Context) string {
	// X-Forwarded-For may contain multiple IPs; the first is the client.
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	host := ctx.Host()
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		return host[:idx]
	}

	return host
}
