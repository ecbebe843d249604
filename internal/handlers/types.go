package handlers

import (
	"time"

	"github.com/quickqr/engine/internal/analytics"
)

// CodeBody is the API representation of a code record.
type CodeBody struct {
	Code      string     `doc:"The short code"                                example:"abc123"              json:"code"`
	ShortURL  string     `doc:"The resolvable short URL"                      example:"http://localhost:8080/abc123" json:"shortUrl"`
	TargetURL string     `doc:"The URL the code redirects to"                 example:"https://example.com" json:"targetUrl"`
	Dynamic   bool       `doc:"Whether the code carries mutable policy"       json:"dynamic"`
	ExpiresAt *time.Time `doc:"Expiry timestamp, UTC"                         json:"expiresAt,omitempty"`
	ScanLimit *int64     `doc:"Maximum allowed scans"                         json:"scanLimit,omitempty"`
	ScanCount int64      `doc:"Scans counted so far"                          json:"scanCount"`
	Status    string     `doc:"Derived status"                                enum:"active,expired,exhausted,disabled" json:"status"`
	Disabled  bool       `doc:"Owner kill switch"                             json:"disabled"`
	Domain    string     `doc:"Bound custom domain, if any"                   json:"domain,omitempty"`
	Slug      string     `doc:"Path slug on the bound domain"                 json:"slug,omitempty"`
	StyleRef  string     `doc:"Opaque style handle for the renderer"          json:"styleRef,omitempty"`
	CreatedAt time.Time  `doc:"Creation timestamp"                            json:"createdAt"`
	UpdatedAt time.Time  `doc:"Last mutation timestamp"                       json:"updatedAt"`
}

// CreateCodeRequest is the request for registering a code.
type CreateCodeRequest struct {
	Body struct {
		Code      string     `doc:"Optional custom short code; generated when empty" json:"code,omitempty"      required:"false"`
		TargetURL string     `doc:"Absolute URL the code redirects to"               example:"https://example.com/landing" json:"targetUrl"`
		Dynamic   bool       `doc:"Create a dynamic code with mutable policy"        json:"dynamic,omitempty"   required:"false"`
		ExpiresAt *time.Time `doc:"Expiry timestamp, dynamic codes only"             json:"expiresAt,omitempty" required:"false"`
		ScanLimit *int64     `doc:"Scan limit, dynamic codes only"                   json:"scanLimit,omitempty" required:"false"`
		StyleRef  string     `doc:"Opaque style handle for the renderer"             json:"styleRef,omitempty"  required:"false"`
	}
}

// CodeResponse wraps a single code record.
type CodeResponse struct {
	Body CodeBody
}

// GetCodeRequest is the request for fetching a code record.
type GetCodeRequest struct {
	Code string `doc:"The short code" example:"abc123" path:"code"`
}

// UpdateCodeRequest is the request for patching a code's policy.
type UpdateCodeRequest struct {
	Code string `doc:"The short code" path:"code"`
	Body struct {
		TargetURL   *string    `doc:"New target URL"                      json:"targetUrl,omitempty"   required:"false"`
		ExpiresAt   *time.Time `doc:"New expiry timestamp"                json:"expiresAt,omitempty"   required:"false"`
		ClearExpiry bool       `doc:"Remove the expiry"                   json:"clearExpiry,omitempty" required:"false"`
		ScanLimit   *int64     `doc:"New scan limit"                      json:"scanLimit,omitempty"   required:"false"`
		ClearLimit  bool       `doc:"Remove the scan limit"               json:"clearLimit,omitempty"  required:"false"`
		Disabled    *bool      `doc:"Disable or re-enable the code"       json:"disabled,omitempty"    required:"false"`
		StyleRef    *string    `doc:"New style handle"                    json:"styleRef,omitempty"    required:"false"`
	}
}

// DeleteCodeRequest is the request for soft-deleting a code.
type DeleteCodeRequest struct {
	Code string `doc:"The short code" path:"code"`
}

// ResolveRequest is the request for resolving a short code or
// custom-domain path.
type ResolveRequest struct {
	Code string `doc:"The short code or domain path" example:"abc123" path:"code"`
}

// ResolveResponse redirects the scanner to the target URL.
type ResolveResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"The target URL" header:"Location"`
	}
}

// CreateDomainRequest is the request for registering a custom domain.
type CreateDomainRequest struct {
	Body struct {
		Domain string `doc:"Domain name" example:"shop.example.com" json:"domain"`
	}
}

// DomainBody is the API representation of a custom domain.
type DomainBody struct {
	Domain    string    `doc:"Domain name, lowercased"         json:"domain"`
	Verified  bool      `doc:"Whether DNS verification passed" json:"verified"`
	CreatedAt time.Time `doc:"Registration timestamp"          json:"createdAt"`
}

// DomainResponse wraps a single custom domain.
type DomainResponse struct {
	Body DomainBody
}

// VerifyDomainRequest marks a domain verified after the out-of-band check.
type VerifyDomainRequest struct {
	Domain string `doc:"Domain name" path:"domain"`
}

// DeleteDomainRequest removes a domain, detaching bound codes.
type DeleteDomainRequest struct {
	Domain string `doc:"Domain name" path:"domain"`
}

// BindDomainRequest binds a code to a path slug on a domain.
type BindDomainRequest struct {
	Domain string `doc:"Domain name" path:"domain"`
	Body   struct {
		Code string `doc:"The short code to bind"     json:"code"`
		Slug string `doc:"Path slug on the domain"    example:"promo" json:"slug"`
	}
}

// StatsRequest queries a code's analytics over a time range.
type StatsRequest struct {
	Code string    `doc:"The short code"                  path:"code"`
	From time.Time `doc:"Range start, inclusive"          query:"from" required:"false"`
	To   time.Time `doc:"Range end, exclusive"            query:"to"   required:"false"`
}

// StatsResponse is the aggregate analytics view of a code.
type StatsResponse struct {
	Body struct {
		Code string `json:"code"`
		analytics.Summary
	}
}

// RecordDownloadRequest records a rendered-image download for analytics.
type RecordDownloadRequest struct {
	Code string `doc:"The short code" path:"code"`
	Body struct {
		Format string `doc:"Image format" enum:"png,svg" json:"format"`
	}
}

// RecordDownloadResponse acknowledges a recorded download.
type RecordDownloadResponse struct {
	Body struct {
		EventID string `doc:"Idempotency key of the recorded event" json:"eventId"`
	}
}
