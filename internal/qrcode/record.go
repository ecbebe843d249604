package qrcode

import "time"

// Code is the unique short token identifying a QR code.
type Code string

// AccountID identifies the owning account of a record or domain.
type AccountID string

// Status is the resolve-time state of a code, derived from its policy
// fields rather than stored.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusExhausted Status = "exhausted"
	StatusDisabled  Status = "disabled"
)

// Record is a registered QR code and its resolution policy.
type Record struct {
	Code      Code
	TargetURL string
	OwnerID   AccountID

	// Dynamic codes carry expiry and scan-limit policy; static codes
	// always resolve and never count scans against a limit.
	Dynamic   bool
	ExpiresAt *time.Time
	ScanLimit *int64
	ScanCount int64
	Disabled  bool

	// Domain and Slug are set when the code is bound to a verified
	// custom domain; both empty otherwise.
	Domain string
	Slug   string

	// StyleRef is an opaque handle consumed by the rendering service.
	StyleRef string

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Status derives the resolve-time state from the record's policy fields.
// The disabled flag masks everything else; expiry takes precedence over
// exhaustion when both hold.
func (r *Record) Status(now time.Time) Status {
	if r.Disabled {
		return StatusDisabled
	}

	if !r.Dynamic {
		return StatusActive
	}

	if r.ExpiresAt != nil && !now.Before(*r.ExpiresAt) {
		return StatusExpired
	}

	if r.ScanLimit != nil && r.ScanCount >= *r.ScanLimit {
		return StatusExhausted
	}

	return StatusActive
}

// Expired reports whether the record's expiry has passed.
func (r *Record) Expired(now time.Time) bool {
	return r.Dynamic && r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}
