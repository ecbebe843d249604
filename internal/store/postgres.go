package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quickqr/engine/internal/qrcode"
)

// PostgresStore is a PostgreSQL implementation of qrcode.Repository and
// qrcode.DomainRepository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Save(ctx context.Context, record *qrcode.Record) error {
	query := `
		INSERT INTO code_records
			(code, target_url, owner_id, dynamic, expires_at, scan_limit, scan_count,
			 disabled, domain, slug, style_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := p.pool.Exec(ctx, query,
		string(record.Code),
		record.TargetURL,
		string(record.OwnerID),
		record.Dynamic,
		record.ExpiresAt,
		record.ScanLimit,
		record.ScanCount,
		record.Disabled,
		nullableString(record.Domain),
		nullableString(record.Slug),
		nullableString(record.StyleRef),
		record.CreatedAt,
		record.UpdatedAt,
	)

	return err
}

const recordColumns = `
	code, target_url, owner_id, dynamic, expires_at, scan_limit, scan_count,
	disabled, domain, slug, style_ref, created_at, updated_at, deleted_at
`

func (p *PostgresStore) GetByCode(ctx context.Context, code qrcode.Code) (*qrcode.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM code_records
		WHERE code = $1 AND deleted_at IS NULL
	`

	return p.scanRecord(p.pool.QueryRow(ctx, query, string(code)))
}

func (p *PostgresStore) GetByDomainSlug(ctx context.Context, domain, slug string) (*qrcode.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM code_records
		WHERE domain = $1 AND slug = $2 AND deleted_at IS NULL
	`

	return p.scanRecord(p.pool.QueryRow(ctx, query, domain, slug))
}

func (p *PostgresStore) scanRecord(row pgx.Row) (*qrcode.Record, error) {
	var (
		record                 qrcode.Record
		domain, slug, styleRef *string
	)

	err := row.Scan(
		&record.Code,
		&record.TargetURL,
		&record.OwnerID,
		&record.Dynamic,
		&record.ExpiresAt,
		&record.ScanLimit,
		&record.ScanCount,
		&record.Disabled,
		&domain,
		&slug,
		&styleRef,
		&record.CreatedAt,
		&record.UpdatedAt,
		&record.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, qrcode.ErrNotFound
		}

		return nil, err
	}

	if domain != nil {
		record.Domain = *domain
	}

	if slug != nil {
		record.Slug = *slug
	}

	if styleRef != nil {
		record.StyleRef = *styleRef
	}

	return &record, nil
}

func (p *PostgresStore) Update(ctx context.Context, record *qrcode.Record) error {
	// scan_count is deliberately absent: the counter is owned by
	// IncrementScanCount and must not be overwritten by a stale read.
	query := `
		UPDATE code_records
		SET target_url = $2, expires_at = $3, scan_limit = $4, disabled = $5,
		    domain = $6, slug = $7, style_ref = $8, updated_at = $9
		WHERE code = $1 AND deleted_at IS NULL
	`

	tag, err := p.pool.Exec(ctx, query,
		string(record.Code),
		record.TargetURL,
		record.ExpiresAt,
		record.ScanLimit,
		record.Disabled,
		nullableString(record.Domain),
		nullableString(record.Slug),
		nullableString(record.StyleRef),
		record.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return qrcode.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) SoftDelete(ctx context.Context, code qrcode.Code, at time.Time) error {
	query := `
		UPDATE code_records
		SET deleted_at = $2, updated_at = $2
		WHERE code = $1 AND deleted_at IS NULL
	`

	tag, err := p.pool.Exec(ctx, query, string(code), at)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return qrcode.ErrNotFound
	}

	return nil
}

// IncrementScanCount performs the conditional increment as a single guarded
// UPDATE. The WHERE clause is the commit point: concurrent callers race on
// the row, and postgres serializes them so at most scan_limit increments
// ever apply.
func (p *PostgresStore) IncrementScanCount(ctx context.Context, code qrcode.Code) (int64, bool, error) {
	query := `
		UPDATE code_records
		SET scan_count = scan_count + 1
		WHERE code = $1 AND deleted_at IS NULL
		  AND (scan_limit IS NULL OR scan_count < scan_limit)
		RETURNING scan_count
	`

	var count int64

	err := p.pool.QueryRow(ctx, query, string(code)).Scan(&count)
	if err == nil {
		return count, true, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}

	// No row updated: either the limit is reached or the code is gone.
	fallback := `
		SELECT scan_count
		FROM code_records
		WHERE code = $1 AND deleted_at IS NULL
	`

	err = p.pool.QueryRow(ctx, fallback, string(code)).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, qrcode.ErrNotFound
		}

		return 0, false, err
	}

	return count, false, nil
}

func (p *PostgresStore) DetachDomain(ctx context.Context, domain string) error {
	query := `
		UPDATE code_records
		SET domain = NULL, slug = NULL, updated_at = now()
		WHERE domain = $1
	`

	_, err := p.pool.Exec(ctx, query, domain)

	return err
}

func (p *PostgresStore) SaveDomain(ctx context.Context, domain *qrcode.CustomDomain) error {
	query := `
		INSERT INTO custom_domains (domain, owner_id, verified, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := p.pool.Exec(ctx, query,
		domain.Domain,
		string(domain.OwnerID),
		domain.Verified,
		domain.CreatedAt,
	)

	return err
}

func (p *PostgresStore) GetDomain(ctx context.Context, name string) (*qrcode.CustomDomain, error) {
	query := `
		SELECT domain, owner_id, verified, created_at
		FROM custom_domains
		WHERE domain = $1
	`

	var domain qrcode.CustomDomain

	err := p.pool.QueryRow(ctx, query, name).Scan(
		&domain.Domain,
		&domain.OwnerID,
		&domain.Verified,
		&domain.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, qrcode.ErrNotFound
		}

		return nil, err
	}

	return &domain, nil
}

func (p *PostgresStore) UpdateDomain(ctx context.Context, domain *qrcode.CustomDomain) error {
	query := `
		UPDATE custom_domains
		SET verified = $2
		WHERE domain = $1
	`

	tag, err := p.pool.Exec(ctx, query, domain.Domain, domain.Verified)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return qrcode.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) DeleteDomain(ctx context.Context, name string) error {
	query := `
		DELETE FROM custom_domains
		WHERE domain = $1
	`

	tag, err := p.pool.Exec(ctx, query, name)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return qrcode.ErrNotFound
	}

	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

// Compile-time checks.
var (
	_ qrcode.Repository       = (*PostgresStore)(nil)
	_ qrcode.DomainRepository = (*PostgresStore)(nil)
)
