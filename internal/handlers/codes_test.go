package handlers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/quickqr/engine/internal/analytics"
	analyticsstore "github.com/quickqr/engine/internal/analytics/store"
	"github.com/quickqr/engine/internal/handlers"
	"github.com/quickqr/engine/internal/messaging"
	"github.com/quickqr/engine/internal/registry"
	"github.com/quickqr/engine/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// noopPublish returns a publish function that always succeeds.
func noopPublish[T any]() messaging.Publish[T] {
	return func(_ *T) error { return nil }
}

// errorPublish returns a publish function that always fails.
func errorPublish[T any](err error) messaging.Publish[T] {
	return func(_ *T) error { return err }
}

func newCodeHandler(mem *store.MemoryStore, stats analytics.Store) *handlers.CodeHandler {
	gen, _ := nanoid.Standard(8)
	reg := registry.NewService(mem, gen, zap.NewNop())

	return handlers.NewCodeHandler(
		reg,
		stats,
		noopPublish[analytics.DownloadEvent](),
		"http://localhost:8080",
		zap.NewNop(),
	)
}

func callerCtx(account string) context.Context {
	return handlers.ContextWithRequestMeta(context.Background(), handlers.RequestMeta{
		ClientIP:  "192.168.1.1",
		UserAgent: "TestAgent/1.0",
		AccountID: account,
	})
}

func TestCreateCode(t *testing.T) {
	t.Run("creates a dynamic code", func(t *testing.T) {
		handler := newCodeHandler(store.NewMemoryStore(), analyticsstore.NewMemory())

		req := &handlers.CreateCodeRequest{}
		req.Body.TargetURL = "https://example.com/landing"
		req.Body.Dynamic = true

		resp, err := handler.CreateCode(callerCtx("acct-1"), req)

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Body.Code)
		assert.Equal(t, "https://example.com/landing", resp.Body.TargetURL)
		assert.Contains(t, resp.Body.ShortURL, resp.Body.Code)
		assert.True(t, resp.Body.Dynamic)
		assert.Equal(t, "active", resp.Body.Status)
	})

	t.Run("honors a custom code", func(t *testing.T) {
		handler := newCodeHandler(store.NewMemoryStore(), analyticsstore.NewMemory())

		req := &handlers.CreateCodeRequest{}
		req.Body.Code = "spring-sale"
		req.Body.TargetURL = "https://example.com"

		resp, err := handler.CreateCode(callerCtx("acct-1"), req)

		require.NoError(t, err)
		assert.Equal(t, "spring-sale", resp.Body.Code)
	})

	t.Run("rejects an invalid target url", func(t *testing.T) {
		handler := newCodeHandler(store.NewMemoryStore(), analyticsstore.NewMemory())

		req := &handlers.CreateCodeRequest{}
		req.Body.TargetURL = "not a url"

		resp, err := handler.CreateCode(callerCtx("acct-1"), req)

		assert.Nil(t, resp)
		assert.Error(t, err)
	})

	t.Run("rejects policy on a static code", func(t *testing.T) {
		handler := newCodeHandler(store.NewMemoryStore(), analyticsstore.NewMemory())

		req := &handlers.CreateCodeRequest{}
		req.Body.TargetURL = "https://example.com"
		limit := int64(5)
		req.Body.ScanLimit = &limit

		resp, err := handler.CreateCode(callerCtx("acct-1"), req)

		assert.Nil(t, resp)
		assert.Error(t, err)
	})
}

func TestGetCode(t *testing.T) {
	t.Run("returns the record", func(t *testing.T) {
		mem := store.NewMemoryStore()
		handler := newCodeHandler(mem, analyticsstore.NewMemory())

		create := &handlers.CreateCodeRequest{}
		create.Body.Code = "abc123"
		create.Body.TargetURL = "https://example.com"
		_, err := handler.CreateCode(callerCtx("acct-1"), create)
		require.NoError(t, err)

		resp, err := handler.GetCode(context.Background(), &handlers.GetCodeRequest{Code: "abc123"})

		require.NoError(t, err)
		assert.Equal(t, "abc123", resp.Body.Code)
	})

	t.Run("returns 404 for unknown code", func(t *testing.T) {
		handler := newCodeHandler(store.NewMemoryStore(), analyticsstore.NewMemory())

		resp, err := handler.GetCode(context.Background(), &handlers.GetCodeRequest{Code: "missing"})

		assert.Nil(t, resp)
		assert.Error(t, err)
	})
}

func TestUpdateCode(t *testing.T) {
	t.Run("owner retargets a dynamic code", func(t *testing.T) {
		handler := newCodeHandler(store.NewMemoryStore(), analyticsstore.NewMemory())

		create := &handlers.CreateCodeRequest{}
		create.Body.Code = "abc123"
		create.Body.TargetURL = "https://example.com/old"
		create.Body.Dynamic = true
		_, err := handler.CreateCode(callerCtx("acct-1"), create)
		require.NoError(t, err)

		update := &handlers.UpdateCodeRequest{Code: "abc123"}
		target := "https://example.com/new"
		update.Body.TargetURL = &target

		resp, err := handler.UpdateCode(callerCtx("acct-1"), update)

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/new", resp.Body.TargetURL)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		handler := newCodeHandler(store.NewMemoryStore(), analyticsstore.NewMemory())

		create := &handlers.CreateCodeRequest{}
		create.Body.Code = "abc123"
		create.Body.TargetURL = "https://example.com"
		create.Body.Dynamic = true
		_, err := handler.CreateCode(callerCtx("acct-1"), create)
		require.NoError(t, err)

		update := &handlers.UpdateCodeRequest{Code: "abc123"}
		target := "https://evil.example.com"
		update.Body.TargetURL = &target

		resp, err := handler.UpdateCode(callerCtx("acct-2"), update)

		assert.Nil(t, resp)
		assert.Error(t, err)
	})

	t.Run("disable then re-enable", func(t *testing.T) {
		handler := newCodeHandler(store.NewMemoryStore(), analyticsstore.NewMemory())

		create := &handlers.CreateCodeRequest{}
		create.Body.Code = "abc123"
		create.Body.TargetURL = "https://example.com"
		create.Body.Dynamic = true
		_, err := handler.CreateCode(callerCtx("acct-1"), create)
		require.NoError(t, err)

		disable := &handlers.UpdateCodeRequest{Code: "abc123"}
		on := true
		disable.Body.Disabled = &on

		resp, err := handler.UpdateCode(callerCtx("acct-1"), disable)
		require.NoError(t, err)
		assert.Equal(t, "disabled", resp.Body.Status)

		enable := &handlers.UpdateCodeRequest{Code: "abc123"}
		off := false
		enable.Body.Disabled = &off

		resp, err = handler.UpdateCode(callerCtx("acct-1"), enable)
		require.NoError(t, err)
		assert.Equal(t, "active", resp.Body.Status)
	})
}

func TestDeleteCode(t *testing.T) {
	t.Run("deleted code stops being readable", func(t *testing.T) {
		handler := newCodeHandler(store.NewMemoryStore(), analyticsstore.NewMemory())

		create := &handlers.CreateCodeRequest{}
		create.Body.Code = "abc123"
		create.Body.TargetURL = "https://example.com"
		_, err := handler.CreateCode(callerCtx("acct-1"), create)
		require.NoError(t, err)

		_, err = handler.DeleteCode(callerCtx("acct-1"), &handlers.DeleteCodeRequest{Code: "abc123"})
		require.NoError(t, err)

		resp, err := handler.GetCode(context.Background(), &handlers.GetCodeRequest{Code: "abc123"})

		assert.Nil(t, resp)
		assert.Error(t, err)
	})
}

func TestGetStats(t *testing.T) {
	t.Run("reads aggregates from the analytics store", func(t *testing.T) {
		stats := analyticsstore.NewMemory()
		handler := newCodeHandler(store.NewMemoryStore(), stats)

		ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, stats.SaveScan(context.Background(), &analytics.ScanEvent{
			EventID:   "e1",
			Code:      "abc123",
			Timestamp: ts,
			Outcome:   analytics.OutcomeAllowed,
		}))

		resp, err := handler.GetStats(context.Background(), &handlers.StatsRequest{Code: "abc123"})

		require.NoError(t, err)
		assert.Equal(t, "abc123", resp.Body.Code)
		assert.Equal(t, int64(1), resp.Body.Scans)
	})

	t.Run("stats survive deleting the code", func(t *testing.T) {
		stats := analyticsstore.NewMemory()
		handler := newCodeHandler(store.NewMemoryStore(), stats)

		create := &handlers.CreateCodeRequest{}
		create.Body.Code = "abc123"
		create.Body.TargetURL = "https://example.com"
		_, err := handler.CreateCode(callerCtx("acct-1"), create)
		require.NoError(t, err)

		require.NoError(t, stats.SaveScan(context.Background(), &analytics.ScanEvent{
			EventID:   "e1",
			Code:      "abc123",
			Timestamp: time.Now().UTC(),
			Outcome:   analytics.OutcomeAllowed,
		}))

		_, err = handler.DeleteCode(callerCtx("acct-1"), &handlers.DeleteCodeRequest{Code: "abc123"})
		require.NoError(t, err)

		resp, err := handler.GetStats(context.Background(), &handlers.StatsRequest{Code: "abc123"})

		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Body.Scans)
	})
}

func TestRecordDownload(t *testing.T) {
	t.Run("publishes and returns an event id", func(t *testing.T) {
		handler := newCodeHandler(store.NewMemoryStore(), analyticsstore.NewMemory())

		create := &handlers.CreateCodeRequest{}
		create.Body.Code = "abc123"
		create.Body.TargetURL = "https://example.com"
		_, err := handler.CreateCode(callerCtx("acct-1"), create)
		require.NoError(t, err)

		req := &handlers.RecordDownloadRequest{Code: "abc123"}
		req.Body.Format = "png"

		resp, err := handler.RecordDownload(context.Background(), req)

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Body.EventID)
	})

	t.Run("returns 404 for unknown code", func(t *testing.T) {
		handler := newCodeHandler(store.NewMemoryStore(), analyticsstore.NewMemory())

		req := &handlers.RecordDownloadRequest{Code: "missing"}
		req.Body.Format = "png"

		resp, err := handler.RecordDownload(context.Background(), req)

		assert.Nil(t, resp)
		assert.Error(t, err)
	})

	t.Run("succeeds even when publish fails", func(t *testing.T) {
		mem := store.NewMemoryStore()
		gen, _ := nanoid.Standard(8)
		reg := registry.NewService(mem, gen, zap.NewNop())
		handler := handlers.NewCodeHandler(
			reg,
			analyticsstore.NewMemory(),
			errorPublish[analytics.DownloadEvent](errors.New("publish error")),
			"http://localhost:8080",
			zap.NewNop(),
		)

		create := &handlers.CreateCodeRequest{}
		create.Body.Code = "abc123"
		create.Body.TargetURL = "https://example.com"
		_, err := handler.CreateCode(callerCtx("acct-1"), create)
		require.NoError(t, err)

		req := &handlers.RecordDownloadRequest{Code: "abc123"}
		req.Body.Format = "svg"

		resp, err := handler.RecordDownload(context.Background(), req)

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Body.EventID)
	})
}
