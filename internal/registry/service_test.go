package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/quickqr/engine/internal/qrcode"
	"github.com/quickqr/engine/internal/registry"
	"github.com/quickqr/engine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ptrTime(t time.Time) *time.Time { return &t }

func ptrInt64(v int64) *int64 { return &v }

func ptrString(s string) *string { return &s }

func ptrBool(b bool) *bool { return &b }

func newService() (*registry.Service, *store.MemoryStore) {
	mem := store.NewMemoryStore()
	seq := 0
	generator := func() string {
		seq++

		return "gen" + string(rune('a'+seq))
	}

	return registry.NewService(mem, generator, zap.NewNop()), mem
}

func createDynamic(t *testing.T, svc *registry.Service, owner string, limit *int64, expiresAt *time.Time) *qrcode.Record {
	t.Helper()

	record, err := svc.Create(context.Background(), registry.CreateParams{
		TargetURL: "https://example.com",
		OwnerID:   qrcode.AccountID(owner),
		Dynamic:   true,
		ScanLimit: limit,
		ExpiresAt: expiresAt,
	})
	require.NoError(t, err)

	return record
}

func TestCreate(t *testing.T) {
	t.Run("creates dynamic code with generated short code", func(t *testing.T) {
		svc, _ := newService()

		record := createDynamic(t, svc, "acct-1", ptrInt64(3), nil)

		assert.NotEmpty(t, record.Code)
		assert.Equal(t, qrcode.StatusActive, record.Status(time.Now()))
		assert.Equal(t, int64(0), record.ScanCount)
	})

	t.Run("accepts a custom code", func(t *testing.T) {
		svc, _ := newService()

		record, err := svc.Create(context.Background(), registry.CreateParams{
			Code:      "spring26",
			TargetURL: "https://example.com",
			OwnerID:   "acct-1",
		})

		require.NoError(t, err)
		assert.Equal(t, qrcode.Code("spring26"), record.Code)
	})

	t.Run("rejects duplicate custom code", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.Create(context.Background(), registry.CreateParams{
			Code: "spring26", TargetURL: "https://example.com",
		})
		require.NoError(t, err)

		_, err = svc.Create(context.Background(), registry.CreateParams{
			Code: "spring26", TargetURL: "https://other.example",
		})

		assert.ErrorIs(t, err, qrcode.ErrInvalidConfig)
	})

	t.Run("rejects malformed target url", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.Create(context.Background(), registry.CreateParams{
			TargetURL: "not a url",
		})

		assert.ErrorIs(t, err, qrcode.ErrInvalidConfig)
	})

	t.Run("rejects non-positive scan limit", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.Create(context.Background(), registry.CreateParams{
			TargetURL: "https://example.com",
			Dynamic:   true,
			ScanLimit: ptrInt64(0),
		})

		assert.ErrorIs(t, err, qrcode.ErrInvalidConfig)
	})

	t.Run("rejects expiry at or before creation", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.Create(context.Background(), registry.CreateParams{
			TargetURL: "https://example.com",
			Dynamic:   true,
			ExpiresAt: ptrTime(time.Now().Add(-time.Second)),
		})

		assert.ErrorIs(t, err, qrcode.ErrInvalidConfig)
	})

	t.Run("rejects policy on static codes", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.Create(context.Background(), registry.CreateParams{
			TargetURL: "https://example.com",
			Dynamic:   false,
			ScanLimit: ptrInt64(5),
		})

		assert.ErrorIs(t, err, qrcode.ErrInvalidConfig)
	})
}

func TestUpdate(t *testing.T) {
	t.Run("owner can change target", func(t *testing.T) {
		svc, _ := newService()
		record := createDynamic(t, svc, "acct-1", nil, nil)

		updated, err := svc.Update(context.Background(), "acct-1", record.Code, registry.Patch{
			TargetURL: ptrString("https://new.example"),
		})

		require.NoError(t, err)
		assert.Equal(t, "https://new.example", updated.TargetURL)
		assert.False(t, updated.UpdatedAt.Before(record.UpdatedAt))
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		svc, _ := newService()
		record := createDynamic(t, svc, "acct-1", nil, nil)

		_, err := svc.Update(context.Background(), "acct-2", record.Code, registry.Patch{
			TargetURL: ptrString("https://new.example"),
		})

		assert.ErrorIs(t, err, qrcode.ErrForbidden)
	})

	t.Run("lowering limit below count reads exhausted", func(t *testing.T) {
		svc, mem := newService()
		record := createDynamic(t, svc, "acct-1", ptrInt64(10), nil)

		for i := 0; i < 5; i++ {
			_, ok, err := mem.IncrementScanCount(context.Background(), record.Code)
			require.NoError(t, err)
			require.True(t, ok)
		}

		updated, err := svc.Update(context.Background(), "acct-1", record.Code, registry.Patch{
			ScanLimit: ptrInt64(3),
		})

		require.NoError(t, err)
		assert.Equal(t, qrcode.StatusExhausted, updated.Status(time.Now()))
	})

	t.Run("extending expiry revives an expired code", func(t *testing.T) {
		svc, mem := newService()
		record := createDynamic(t, svc, "acct-1", nil, ptrTime(time.Now().Add(time.Minute)))

		// Simulate the expiry passing.
		past := time.Now().Add(-time.Hour)
		stored, err := mem.GetByCode(context.Background(), record.Code)
		require.NoError(t, err)
		stored.ExpiresAt = &past
		require.NoError(t, mem.Update(context.Background(), stored))

		updated, err := svc.Update(context.Background(), "acct-1", record.Code, registry.Patch{
			ExpiresAt: ptrTime(time.Now().Add(time.Hour)),
		})

		require.NoError(t, err)
		assert.Equal(t, qrcode.StatusActive, updated.Status(time.Now()))
	})

	t.Run("clearing limit removes exhaustion", func(t *testing.T) {
		svc, mem := newService()
		record := createDynamic(t, svc, "acct-1", ptrInt64(1), nil)

		_, ok, err := mem.IncrementScanCount(context.Background(), record.Code)
		require.NoError(t, err)
		require.True(t, ok)

		updated, err := svc.Update(context.Background(), "acct-1", record.Code, registry.Patch{
			ClearLimit: true,
		})

		require.NoError(t, err)
		assert.Nil(t, updated.ScanLimit)
		assert.Equal(t, qrcode.StatusActive, updated.Status(time.Now()))
	})

	t.Run("disable and re-enable", func(t *testing.T) {
		svc, _ := newService()
		record := createDynamic(t, svc, "acct-1", nil, nil)

		disabled, err := svc.Update(context.Background(), "acct-1", record.Code, registry.Patch{
			Disabled: ptrBool(true),
		})
		require.NoError(t, err)
		assert.Equal(t, qrcode.StatusDisabled, disabled.Status(time.Now()))

		enabled, err := svc.Update(context.Background(), "acct-1", record.Code, registry.Patch{
			Disabled: ptrBool(false),
		})
		require.NoError(t, err)
		assert.Equal(t, qrcode.StatusActive, enabled.Status(time.Now()))
	})

	t.Run("rejects past expiry in patch", func(t *testing.T) {
		svc, _ := newService()
		record := createDynamic(t, svc, "acct-1", nil, nil)

		_, err := svc.Update(context.Background(), "acct-1", record.Code, registry.Patch{
			ExpiresAt: ptrTime(time.Now().Add(-time.Minute)),
		})

		assert.ErrorIs(t, err, qrcode.ErrInvalidConfig)
	})
}

func TestDelete(t *testing.T) {
	t.Run("soft delete hides the record", func(t *testing.T) {
		svc, _ := newService()
		record := createDynamic(t, svc, "acct-1", nil, nil)

		require.NoError(t, svc.Delete(context.Background(), "acct-1", record.Code))

		_, err := svc.Get(context.Background(), record.Code)
		assert.ErrorIs(t, err, qrcode.ErrNotFound)
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		svc, _ := newService()
		record := createDynamic(t, svc, "acct-1", nil, nil)

		err := svc.Delete(context.Background(), "acct-2", record.Code)

		assert.ErrorIs(t, err, qrcode.ErrForbidden)
	})
}
