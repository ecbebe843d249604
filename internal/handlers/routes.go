package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quickqr/engine/internal/ratelimit"
)

// RegisterRoutes registers the resolve endpoint and the management API with
// per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, resolve *ResolveHandler, codes *CodeHandler, domains *DomainHandler) {
	// Management limits are strict; resolve traffic is the product and
	// gets a high ceiling.
	manageLimits := ratelimit.EndpointConfig{
		Limits: []ratelimit.LimitConfig{
			{Window: time.Minute, Max: 30},
			{Window: time.Hour, Max: 300},
		},
	}

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/api/codes",
		Summary:     "Register a code",
		Description: "Registers a static or dynamic QR code with its resolution policy.",
		Tags:        []string{"Codes"},
		Metadata:    map[string]any{ratelimit.MetadataKey: manageLimits},
	}, codes.CreateCode)

	huma.Register(api, huma.Operation{
		Method:   http.MethodGet,
		Path:     "/api/codes/{code}",
		Summary:  "Get a code",
		Tags:     []string{"Codes"},
		Metadata: map[string]any{ratelimit.MetadataKey: manageLimits},
	}, codes.GetCode)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPatch,
		Path:        "/api/codes/{code}",
		Summary:     "Update a code's policy",
		Description: "Changes target, expiry, scan limit, disabled flag, or style handle. Owner only.",
		Tags:        []string{"Codes"},
		Metadata:    map[string]any{ratelimit.MetadataKey: manageLimits},
	}, codes.UpdateCode)

	huma.Register(api, huma.Operation{
		Method:      http.MethodDelete,
		Path:        "/api/codes/{code}",
		Summary:     "Delete a code",
		Description: "Soft-deletes a code; scan history remains queryable.",
		Tags:        []string{"Codes"},
		Metadata:    map[string]any{ratelimit.MetadataKey: manageLimits},
	}, codes.DeleteCode)

	huma.Register(api, huma.Operation{
		Method:   http.MethodGet,
		Path:     "/api/codes/{code}/stats",
		Summary:  "Get scan and download analytics",
		Tags:     []string{"Analytics"},
		Metadata: map[string]any{ratelimit.MetadataKey: manageLimits},
	}, codes.GetStats)

	huma.Register(api, huma.Operation{
		Method:   http.MethodPost,
		Path:     "/api/codes/{code}/downloads",
		Summary:  "Record an image download",
		Tags:     []string{"Analytics"},
		Metadata: map[string]any{ratelimit.MetadataKey: manageLimits},
	}, codes.RecordDownload)

	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/api/domains",
		Summary:     "Register a custom domain",
		Description: "Registers a domain in the unverified state.",
		Tags:        []string{"Domains"},
		Metadata:    map[string]any{ratelimit.MetadataKey: manageLimits},
	}, domains.CreateDomain)

	huma.Register(api, huma.Operation{
		Method:   http.MethodPost,
		Path:     "/api/domains/{domain}/verify",
		Summary:  "Mark a domain verified",
		Tags:     []string{"Domains"},
		Metadata: map[string]any{ratelimit.MetadataKey: manageLimits},
	}, domains.VerifyDomain)

	huma.Register(api, huma.Operation{
		Method:      http.MethodDelete,
		Path:        "/api/domains/{domain}",
		Summary:     "Delete a custom domain",
		Description: "Deletes the domain and detaches bound codes without deleting them.",
		Tags:        []string{"Domains"},
		Metadata:    map[string]any{ratelimit.MetadataKey: manageLimits},
	}, domains.DeleteDomain)

	huma.Register(api, huma.Operation{
		Method:   http.MethodPost,
		Path:     "/api/domains/{domain}/bindings",
		Summary:  "Bind a code to a domain path",
		Tags:     []string{"Domains"},
		Metadata: map[string]any{ratelimit.MetadataKey: manageLimits},
	}, domains.BindCode)

	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Resolve a code",
		Description: "Redirects to the target URL when the code is still valid.",
		Tags:        []string{"Resolve"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, resolve.Resolve)
}
