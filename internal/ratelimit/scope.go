package ratelimit

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Scope categorizes a request for rate limiting purposes.
type Scope string

const (
	// ScopeGlobal applies to all requests regardless of type.
	ScopeGlobal Scope = "global"
	// ScopeResolve applies to public resolve traffic.
	ScopeResolve Scope = "resolve"
	// ScopeManage applies to management API calls.
	ScopeManage Scope = "manage"
)

// MetadataKey is the key used to store rate limit config in operation metadata.
const MetadataKey = "rateLimit"

// EndpointConfig defines per-endpoint rate limit configuration, attached to
// Huma operations via the Metadata field.
//
// When Limits is non-empty the middleware applies those limits directly and
// ignores Scope; when Limits is empty the policy limits for the resolved
// scopes apply. Disabled skips rate limiting for the endpoint entirely.
type EndpointConfig struct {
	Scope    Scope
	Limits   []LimitConfig
	Disabled bool
}

// ScopeResolver determines which scopes apply to a given request.
type ScopeResolver interface {
	Resolve(ctx huma.Context) []Scope
}

// PathScopeResolver classifies requests by route shape: management API
// paths are manage traffic, everything else is resolve traffic.
type PathScopeResolver struct{}

// NewPathScopeResolver creates a new path-based scope resolver.
func NewPathScopeResolver() *PathScopeResolver {
	return &PathScopeResolver{}
}

// Resolve returns the scopes that apply to the request based on its path.
func (r *PathScopeResolver) Resolve(ctx huma.Context) []Scope {
	scopes := []Scope{ScopeGlobal}

	path := ctx.URL().Path
	if op := ctx.Operation(); op != nil {
		path = op.Path
	}

	if strings.HasPrefix(path, "/api/") {
		return append(scopes, ScopeManage)
	}

	return append(scopes, ScopeResolve)
}

// OperationScopeResolver resolves scopes by checking operation metadata
// first, then falling back to path-based detection.
type OperationScopeResolver struct {
	fallback *PathScopeResolver
}

// NewOperationScopeResolver creates a new operation-aware scope resolver.
func NewOperationScopeResolver() *OperationScopeResolver {
	return &OperationScopeResolver{
		fallback: NewPathScopeResolver(),
	}
}

// Resolve returns the scopes for a request, checking operation metadata first.
func (r *OperationScopeResolver) Resolve(ctx huma.Context) []Scope {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return r.fallback.Resolve(ctx)
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return r.fallback.Resolve(ctx)
	}

	if cfg.Scope != "" {
		return []Scope{ScopeGlobal, cfg.Scope}
	}

	return r.fallback.Resolve(ctx)
}

// GetEndpointConfig extracts the EndpointConfig from operation metadata, if present.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
