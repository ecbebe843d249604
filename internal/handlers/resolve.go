package handlers

import (
	"context"
	"net"
	"net/http"

	"github.com/quickqr/engine/internal/analytics"
	"github.com/quickqr/engine/internal/resolver"
)

// ResolveHandler serves the public resolve endpoint.
type ResolveHandler struct {
	resolver *resolver.Service
}

// NewResolveHandler creates a new resolve handler.
func NewResolveHandler(service *resolver.Service) *ResolveHandler {
	return &ResolveHandler{resolver: service}
}

// Resolve redirects a scanner to the code's target, or blocks with the
// appropriate status. The Host header decides whether the path is a bare
// short code or a custom-domain slug; unregistered hosts fall through to
// bare resolution.
func (h *ResolveHandler) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	meta := RequestMetaFromContext(ctx)

	resolution, err := h.resolver.ResolveHost(ctx, stripPort(meta.Host), req.Code, analytics.ClientMeta{
		IP:        meta.ClientIP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	})
	if err != nil {
		return nil, resolveError(err)
	}

	resp := &ResolveResponse{
		Status: http.StatusFound,
	}
	resp.Headers.Location = resolution.TargetURL

	return resp, nil
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}

	return host
}
