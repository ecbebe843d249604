package store

import (
	"context"
	"sync"
	"time"

	"github.com/quickqr/engine/internal/qrcode"
)

// MemoryStore is an in-memory implementation of qrcode.Repository and
// qrcode.DomainRepository. All operations, including the conditional scan
// increment, run under a single mutex, which gives the same linearizable
// counter semantics as the guarded UPDATE in the Postgres store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[qrcode.Code]*qrcode.Record
	domains map[string]*qrcode.CustomDomain
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[qrcode.Code]*qrcode.Record),
		domains: make(map[string]*qrcode.CustomDomain),
	}
}

func (m *MemoryStore) Save(_ context.Context, record *qrcode.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *record
	m.records[record.Code] = &copied

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code qrcode.Code) (*qrcode.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.getLocked(code)
}

func (m *MemoryStore) getLocked(code qrcode.Code) (*qrcode.Record, error) {
	record, ok := m.records[code]
	if !ok || record.DeletedAt != nil {
		return nil, qrcode.ErrNotFound
	}

	copied := *record

	return &copied, nil
}

func (m *MemoryStore) GetByDomainSlug(_ context.Context, domain, slug string) (*qrcode.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.DeletedAt == nil && record.Domain == domain && record.Slug == slug {
			copied := *record

			return &copied, nil
		}
	}

	return nil, qrcode.ErrNotFound
}

func (m *MemoryStore) Update(_ context.Context, record *qrcode.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.records[record.Code]
	if !ok || existing.DeletedAt != nil {
		return qrcode.ErrNotFound
	}

	copied := *record
	// The counter is owned by IncrementScanCount; policy updates must not
	// overwrite increments that landed after the caller's read.
	copied.ScanCount = existing.ScanCount
	m.records[record.Code] = &copied

	return nil
}

func (m *MemoryStore) SoftDelete(_ context.Context, code qrcode.Code, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[code]
	if !ok || record.DeletedAt != nil {
		return qrcode.ErrNotFound
	}

	deleted := at
	record.DeletedAt = &deleted
	record.UpdatedAt = at

	return nil
}

func (m *MemoryStore) IncrementScanCount(_ context.Context, code qrcode.Code) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[code]
	if !ok || record.DeletedAt != nil {
		return 0, false, qrcode.ErrNotFound
	}

	if record.ScanLimit != nil && record.ScanCount >= *record.ScanLimit {
		return record.ScanCount, false, nil
	}

	record.ScanCount++

	return record.ScanCount, true, nil
}

func (m *MemoryStore) DetachDomain(_ context.Context, domain string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.Domain == domain {
			record.Domain = ""
			record.Slug = ""
		}
	}

	return nil
}

func (m *MemoryStore) SaveDomain(_ context.Context, domain *qrcode.CustomDomain) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *domain
	m.domains[domain.Domain] = &copied

	return nil
}

func (m *MemoryStore) GetDomain(_ context.Context, name string) (*qrcode.CustomDomain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	domain, ok := m.domains[name]
	if !ok {
		return nil, qrcode.ErrNotFound
	}

	copied := *domain

	return &copied, nil
}

func (m *MemoryStore) UpdateDomain(_ context.Context, domain *qrcode.CustomDomain) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.domains[domain.Domain]; !ok {
		return qrcode.ErrNotFound
	}

	copied := *domain
	m.domains[domain.Domain] = &copied

	return nil
}

func (m *MemoryStore) DeleteDomain(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.domains[name]; !ok {
		return qrcode.ErrNotFound
	}

	delete(m.domains, name)

	return nil
}

// Compile-time checks.
var (
	_ qrcode.Repository       = (*MemoryStore)(nil)
	_ qrcode.DomainRepository = (*MemoryStore)(nil)
)
