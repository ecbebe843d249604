package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quickqr/engine/internal/analytics"
	"github.com/quickqr/engine/internal/messaging"
	"github.com/quickqr/engine/internal/qrcode"
	"github.com/quickqr/engine/internal/registry"
	"go.uber.org/zap"
)

// CodeHandler serves the management API for code records.
type CodeHandler struct {
	registry        *registry.Service
	stats           analytics.Store
	publishDownload messaging.Publish[analytics.DownloadEvent]
	baseURL         string
	logger          *zap.Logger
}

// NewCodeHandler creates a new code management handler.
func NewCodeHandler(
	reg *registry.Service,
	stats analytics.Store,
	publishDownload messaging.Publish[analytics.DownloadEvent],
	baseURL string,
	logger *zap.Logger,
) *CodeHandler {
	return &CodeHandler{
		registry:        reg,
		stats:           stats,
		publishDownload: publishDownload,
		baseURL:         baseURL,
		logger:          logger,
	}
}

func (h *CodeHandler) CreateCode(ctx context.Context, req *CreateCodeRequest) (*CodeResponse, error) {
	meta := RequestMetaFromContext(ctx)

	record, err := h.registry.Create(ctx, registry.CreateParams{
		Code:      req.Body.Code,
		TargetURL: req.Body.TargetURL,
		OwnerID:   qrcode.AccountID(meta.AccountID),
		Dynamic:   req.Body.Dynamic,
		ExpiresAt: req.Body.ExpiresAt,
		ScanLimit: req.Body.ScanLimit,
		StyleRef:  req.Body.StyleRef,
	})
	if err != nil {
		return nil, manageError(err)
	}

	return &CodeResponse{Body: h.codeBody(record)}, nil
}

func (h *CodeHandler) GetCode(ctx context.Context, req *GetCodeRequest) (*CodeResponse, error) {
	record, err := h.registry.Get(ctx, qrcode.Code(req.Code))
	if err != nil {
		return nil, manageError(err)
	}

	return &CodeResponse{Body: h.codeBody(record)}, nil
}

func (h *CodeHandler) UpdateCode(ctx context.Context, req *UpdateCodeRequest) (*CodeResponse, error) {
	meta := RequestMetaFromContext(ctx)

	record, err := h.registry.Update(ctx, qrcode.AccountID(meta.AccountID), qrcode.Code(req.Code), registry.Patch{
		TargetURL:   req.Body.TargetURL,
		ExpiresAt:   req.Body.ExpiresAt,
		ClearExpiry: req.Body.ClearExpiry,
		ScanLimit:   req.Body.ScanLimit,
		ClearLimit:  req.Body.ClearLimit,
		Disabled:    req.Body.Disabled,
		StyleRef:    req.Body.StyleRef,
	})
	if err != nil {
		return nil, manageError(err)
	}

	return &CodeResponse{Body: h.codeBody(record)}, nil
}

func (h *CodeHandler) DeleteCode(ctx context.Context, req *DeleteCodeRequest) (*struct{}, error) {
	meta := RequestMetaFromContext(ctx)

	if err := h.registry.Delete(ctx, qrcode.AccountID(meta.AccountID), qrcode.Code(req.Code)); err != nil {
		return nil, manageError(err)
	}

	return &struct{}{}, nil
}

// GetStats serves the aggregate analytics for a code. It queries the
// analytics store directly, so history of soft-deleted codes stays
// reachable.
func (h *CodeHandler) GetStats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	summary, err := h.stats.CountsFor(ctx, req.Code, req.From, req.To)
	if err != nil {
		return nil, manageError(err)
	}

	resp := &StatsResponse{}
	resp.Body.Code = req.Code
	resp.Body.Summary = *summary

	return resp, nil
}

// RecordDownload appends a download event for a code. The event is
// delivered asynchronously; a transient broker failure is retried in the
// background rather than surfaced.
func (h *CodeHandler) RecordDownload(ctx context.Context, req *RecordDownloadRequest) (*RecordDownloadResponse, error) {
	if _, err := h.registry.Get(ctx, qrcode.Code(req.Code)); err != nil {
		return nil, manageError(err)
	}

	event := &analytics.DownloadEvent{
		EventID:   uuid.NewString(),
		Code:      req.Code,
		Format:    req.Body.Format,
		Timestamp: time.Now().UTC(),
	}

	if err := h.publishDownload(event); err != nil {
		h.logger.Error("failed to publish download event",
			zap.String("code", req.Code),
			zap.Error(err),
		)
	}

	resp := &RecordDownloadResponse{}
	resp.Body.EventID = event.EventID

	return resp, nil
}

func (h *CodeHandler) codeBody(record *qrcode.Record) CodeBody {
	return CodeBody{
		Code:      string(record.Code),
		ShortURL:  fmt.Sprintf("%s/%s", h.baseURL, record.Code),
		TargetURL: record.TargetURL,
		Dynamic:   record.Dynamic,
		ExpiresAt: record.ExpiresAt,
		ScanLimit: record.ScanLimit,
		ScanCount: record.ScanCount,
		Status:    string(record.Status(time.Now())),
		Disabled:  record.Disabled,
		Domain:    record.Domain,
		Slug:      record.Slug,
		StyleRef:  record.StyleRef,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
