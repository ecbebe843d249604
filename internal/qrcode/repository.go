package qrcode

import (
	"context"
	"time"
)

// Repository defines storage operations for code records.
//
// IncrementScanCount is the commit point for scan accounting and must be
// atomic with respect to concurrent callers: implementations back it with a
// guarded UPDATE or an equivalent compare-and-swap, never a read-then-write.
type Repository interface {
	Save(ctx context.Context, record *Record) error

	// GetByCode returns the record for a code, or ErrNotFound if absent or
	// soft-deleted.
	GetByCode(ctx context.Context, code Code) (*Record, error)

	// GetByDomainSlug returns the record bound to (domain, slug), or
	// ErrNotFound when no binding exists.
	GetByDomainSlug(ctx context.Context, domain, slug string) (*Record, error)

	// Update persists mutated policy fields of an existing record.
	Update(ctx context.Context, record *Record) error

	// SoftDelete marks the record deleted, hiding it from lookups while
	// preserving ledger history.
	SoftDelete(ctx context.Context, code Code, at time.Time) error

	// IncrementScanCount atomically increments the scan counter of a code.
	// When the code carries a scan limit the increment applies only if the
	// pre-increment count is strictly below the limit; ok reports whether
	// the increment was applied. Under K concurrent callers with limit N,
	// exactly min(K, N) observe ok == true.
	IncrementScanCount(ctx context.Context, code Code) (count int64, ok bool, err error)

	// DetachDomain clears the domain binding of every record bound to the
	// given domain. The records themselves survive.
	DetachDomain(ctx context.Context, domain string) error
}

// DomainRepository defines storage operations for custom domains.
type DomainRepository interface {
	SaveDomain(ctx context.Context, domain *CustomDomain) error

	// GetDomain looks a domain up by its lowercased name.
	GetDomain(ctx context.Context, name string) (*CustomDomain, error)

	UpdateDomain(ctx context.Context, domain *CustomDomain) error

	DeleteDomain(ctx context.Context, name string) error
}
