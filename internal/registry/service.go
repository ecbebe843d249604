// Package registry owns the lifecycle of code records: creation,
// policy updates, and soft deletion. Scan accounting lives in the
// resolver; the registry never touches the counter.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quickqr/engine/internal/qrcode"
	"go.uber.org/zap"
)

// CodeGenerator generates unique short codes.
type CodeGenerator func() string

// CreateParams describes a new code record. Code is optional; a nanoid is
// generated when it is empty.
type CreateParams struct {
	Code      string
	TargetURL string
	OwnerID   qrcode.AccountID
	Dynamic   bool
	ExpiresAt *time.Time
	ScanLimit *int64
	StyleRef  string
}

// Patch describes a partial update. Nil fields are left untouched;
// ClearExpiry and ClearLimit remove the respective policy.
type Patch struct {
	TargetURL   *string
	ExpiresAt   *time.Time
	ClearExpiry bool
	ScanLimit   *int64
	ClearLimit  bool
	Disabled    *bool
	StyleRef    *string
}

// Service implements the code registry.
type Service struct {
	codes    qrcode.Repository
	generate CodeGenerator
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new registry service.
func NewService(codes qrcode.Repository, generator CodeGenerator, logger *zap.Logger) *Service {
	return &Service{
		codes:    codes,
		generate: generator,
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates and stores a new code record.
func (s *Service) Create(ctx context.Context, params CreateParams) (*qrcode.Record, error) {
	now := s.now()

	if err := qrcode.ValidateTargetURL(params.TargetURL); err != nil {
		return nil, err
	}

	if err := validatePolicy(params.Dynamic, params.ExpiresAt, params.ScanLimit, now); err != nil {
		return nil, err
	}

	code := params.Code
	if code == "" {
		code = s.generate()
	} else if _, err := s.codes.GetByCode(ctx, qrcode.Code(code)); err == nil {
		return nil, fmt.Errorf("%w: code %q already exists", qrcode.ErrInvalidConfig, code)
	} else if !errors.Is(err, qrcode.ErrNotFound) {
		return nil, err
	}

	record := &qrcode.Record{
		Code:      qrcode.Code(code),
		TargetURL: params.TargetURL,
		OwnerID:   params.OwnerID,
		Dynamic:   params.Dynamic,
		ExpiresAt: params.ExpiresAt,
		ScanLimit: params.ScanLimit,
		StyleRef:  params.StyleRef,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.codes.Save(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("code created",
		zap.String("code", code),
		zap.String("owner", string(params.OwnerID)),
		zap.Bool("dynamic", params.Dynamic),
	)

	return record, nil
}

// Get returns a record by code.
func (s *Service) Get(ctx context.Context, code qrcode.Code) (*qrcode.Record, error) {
	return s.codes.GetByCode(ctx, code)
}

// Update applies a patch to a record owned by caller.
//
// Lowering the scan limit below the current count is accepted; the record
// simply reads as exhausted from then on.
func (s *Service) Update(ctx context.Context, caller qrcode.AccountID, code qrcode.Code, patch Patch) (*qrcode.Record, error) {
	record, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if record.OwnerID != caller {
		return nil, qrcode.ErrForbidden
	}

	now := s.now()

	if patch.TargetURL != nil {
		if err := qrcode.ValidateTargetURL(*patch.TargetURL); err != nil {
			return nil, err
		}

		record.TargetURL = *patch.TargetURL
	}

	expiresAt := record.ExpiresAt
	if patch.ClearExpiry {
		expiresAt = nil
	} else if patch.ExpiresAt != nil {
		expiresAt = patch.ExpiresAt
	}

	scanLimit := record.ScanLimit
	if patch.ClearLimit {
		scanLimit = nil
	} else if patch.ScanLimit != nil {
		scanLimit = patch.ScanLimit
	}

	// A newly set expiry must be in the future; an expiry already on the
	// record may stay in the past (that is what "expired" means).
	if patch.ExpiresAt != nil || patch.ScanLimit != nil {
		if err := validatePolicy(record.Dynamic, patchedExpiry(patch, expiresAt), scanLimit, now); err != nil {
			return nil, err
		}
	}

	record.ExpiresAt = expiresAt
	record.ScanLimit = scanLimit

	if patch.Disabled != nil {
		record.Disabled = *patch.Disabled
	}

	if patch.StyleRef != nil {
		record.StyleRef = *patch.StyleRef
	}

	record.UpdatedAt = now

	if err := s.codes.Update(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("code updated", zap.String("code", string(code)))

	return s.codes.GetByCode(ctx, code)
}

// Delete soft-deletes a record owned by caller, preserving ledger history.
func (s *Service) Delete(ctx context.Context, caller qrcode.AccountID, code qrcode.Code) error {
	record, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	if record.OwnerID != caller {
		return qrcode.ErrForbidden
	}

	if err := s.codes.SoftDelete(ctx, code, s.now()); err != nil {
		return err
	}

	s.logger.Info("code deleted", zap.String("code", string(code)))

	return nil
}

func validatePolicy(dynamic bool, expiresAt *time.Time, scanLimit *int64, now time.Time) error {
	if !dynamic && (expiresAt != nil || scanLimit != nil) {
		return fmt.Errorf("%w: static codes cannot carry expiry or scan limit", qrcode.ErrInvalidConfig)
	}

	if scanLimit != nil && *scanLimit <= 0 {
		return fmt.Errorf("%w: scan limit must be positive", qrcode.ErrInvalidConfig)
	}

	if expiresAt != nil && !expiresAt.After(now) {
		return fmt.Errorf("%w: expiry must be in the future", qrcode.ErrInvalidConfig)
	}

	return nil
}

// patchedExpiry returns the expiry to validate: only a value set by this
// patch, never one already stored.
func patchedExpiry(patch Patch, merged *time.Time) *time.Time {
	if patch.ExpiresAt != nil {
		return merged
	}

	return nil
}
