package store

import (
	"context"
	"strconv"
	"time"

	"github.com/quickqr/engine/internal/qrcode"
	"github.com/redis/go-redis/v9"
)

// StaticCacheRepository wraps a qrcode.Repository with a Redis read cache
// for static records only. Dynamic records are never cached: their resolve
// outcome depends on scan_count, and serving a stale counter would break
// the exactness guarantee of the conditional increment. A static record's
// outcome depends only on fields that are invalidated here on every
// mutation, so caching it is safe.
type StaticCacheRepository struct {
	inner  qrcode.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStaticCacheRepository creates a new cache decorator.
func NewStaticCacheRepository(
	inner qrcode.Repository, client *redis.Client, ttl time.Duration,
) *StaticCacheRepository {
	return &StaticCacheRepository{
		inner:  inner,
		client: client,
		prefix: "code:",
		ttl:    ttl,
	}
}

func (r *StaticCacheRepository) Save(ctx context.Context, record *qrcode.Record) error {
	if err := r.inner.Save(ctx, record); err != nil {
		return err
	}

	if !record.Dynamic {
		r.cacheRecord(ctx, record)
	}

	return nil
}

func (r *StaticCacheRepository) GetByCode(ctx context.Context, code qrcode.Code) (*qrcode.Record, error) {
	if record, err := r.getFromCache(ctx, code); err == nil {
		return record, nil
	}

	record, err := r.inner.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !record.Dynamic {
		r.cacheRecord(ctx, record)
	}

	return record, nil
}

func (r *StaticCacheRepository) GetByDomainSlug(ctx context.Context, domain, slug string) (*qrcode.Record, error) {
	return r.inner.GetByDomainSlug(ctx, domain, slug)
}

func (r *StaticCacheRepository) Update(ctx context.Context, record *qrcode.Record) error {
	if err := r.inner.Update(ctx, record); err != nil {
		return err
	}

	r.invalidate(ctx, record.Code)

	return nil
}

func (r *StaticCacheRepository) SoftDelete(ctx context.Context, code qrcode.Code, at time.Time) error {
	if err := r.inner.SoftDelete(ctx, code, at); err != nil {
		return err
	}

	r.invalidate(ctx, code)

	return nil
}

func (r *StaticCacheRepository) IncrementScanCount(ctx context.Context, code qrcode.Code) (int64, bool, error) {
	return r.inner.IncrementScanCount(ctx, code)
}

func (r *StaticCacheRepository) DetachDomain(ctx context.Context, domain string) error {
	// Cached static records may keep a stale Domain field after a detach.
	// Bare-code resolution never reads it, and domain-path resolution goes
	// through GetByDomainSlug, which bypasses the cache.
	return r.inner.DetachDomain(ctx, domain)
}

func (r *StaticCacheRepository) getFromCache(ctx context.Context, code qrcode.Code) (*qrcode.Record, error) {
	result, err := r.client.HGetAll(ctx, r.prefix+string(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, qrcode.ErrNotFound
	}

	record := &qrcode.Record{
		Code:      qrcode.Code(result["code"]),
		TargetURL: result["target_url"],
		OwnerID:   qrcode.AccountID(result["owner_id"]),
		Dynamic:   false,
		Disabled:  result["disabled"] == "1",
		Domain:    result["domain"],
		Slug:      result["slug"],
		StyleRef:  result["style_ref"],
	}

	if nanos, err := strconv.ParseInt(result["created_at"], 10, 64); err == nil {
		record.CreatedAt = time.Unix(0, nanos)
	}

	if nanos, err := strconv.ParseInt(result["updated_at"], 10, 64); err == nil {
		record.UpdatedAt = time.Unix(0, nanos)
	}

	return record, nil
}

func (r *StaticCacheRepository) cacheRecord(ctx context.Context, record *qrcode.Record) {
	disabled := "0"
	if record.Disabled {
		disabled = "1"
	}

	key := r.prefix + string(record.Code)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"code":       string(record.Code),
		"target_url": record.TargetURL,
		"owner_id":   string(record.OwnerID),
		"disabled":   disabled,
		"domain":     record.Domain,
		"slug":       record.Slug,
		"style_ref":  record.StyleRef,
		"created_at": record.CreatedAt.UnixNano(),
		"updated_at": record.UpdatedAt.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}

func (r *StaticCacheRepository) invalidate(ctx context.Context, code qrcode.Code) {
	_ = r.client.Del(ctx, r.prefix+string(code)).Err()
}

// Compile-time check.
var _ qrcode.Repository = (*StaticCacheRepository)(nil)
