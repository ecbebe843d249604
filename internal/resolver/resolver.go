// Package resolver implements the hot path: deciding whether a scanned
// code still resolves, accounting the scan against any configured limit,
// and recording the attempt in the ledger.
package resolver

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quickqr/engine/internal/analytics"
	"github.com/quickqr/engine/internal/messaging"
	"github.com/quickqr/engine/internal/qrcode"
	"go.uber.org/zap"
)

// Router resolves an inbound (domain, path) pair to a short code.
type Router interface {
	Route(ctx context.Context, domain, path string) (qrcode.Code, error)
}

// Resolution is a successful resolve: the code and the target captured at
// resolution time (the owner may edit the target later).
type Resolution struct {
	Code      qrcode.Code
	TargetURL string
}

// Service orchestrates a single resolve request.
type Service struct {
	codes       qrcode.Repository
	router      Router
	publishScan messaging.Publish[analytics.ScanEvent]
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new resolution service.
func NewService(
	codes qrcode.Repository,
	router Router,
	publishScan messaging.Publish[analytics.ScanEvent],
	logger *zap.Logger,
) *Service {
	return &Service{
		codes:       codes,
		router:      router,
		publishScan: publishScan,
		logger:      logger,
		now:         time.Now,
	}
}

// ResolveHost routes a request arriving on a custom domain, then resolves
// the routed code. Hosts without a registered domain fall through to bare
// short-code resolution.
func (s *Service) ResolveHost(ctx context.Context, host, path string, meta analytics.ClientMeta) (*Resolution, error) {
	code, err := s.router.Route(ctx, host, path)
	if err != nil {
		return nil, err
	}

	return s.Resolve(ctx, code, meta)
}

// Resolve decides the outcome for one scan of a code.
//
// Order of checks: existence, disabled flag, static short-circuit, expiry,
// then the conditional increment. Expiry is checked before the limit: it
// needs no ledger access, and when both conditions hold the code reports
// expired. Every outcome appends a ledger event; the append is best-effort
// and never changes the outcome already decided.
func (s *Service) Resolve(ctx context.Context, code qrcode.Code, meta analytics.ClientMeta) (*Resolution, error) {
	record, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if record.Disabled {
		s.appendEvent(record, analytics.OutcomeBlockedDisabled, "", meta)

		return nil, qrcode.ErrDisabled
	}

	if !record.Dynamic {
		s.appendEvent(record, analytics.OutcomeAllowed, record.TargetURL, meta)

		return &Resolution{Code: record.Code, TargetURL: record.TargetURL}, nil
	}

	if record.Expired(s.now()) {
		s.appendEvent(record, analytics.OutcomeBlockedExpired, "", meta)

		return nil, qrcode.ErrExpired
	}

	// The increment is the commit point; a caller cancelled before it has
	// changed no state.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, allowed, err := s.codes.IncrementScanCount(ctx, code)
	if err != nil {
		return nil, err
	}

	if !allowed {
		s.appendEvent(record, analytics.OutcomeBlockedExhausted, "", meta)

		return nil, qrcode.ErrExhausted
	}

	s.appendEvent(record, analytics.OutcomeAllowed, record.TargetURL, meta)

	return &Resolution{Code: record.Code, TargetURL: record.TargetURL}, nil
}

func (s *Service) appendEvent(record *qrcode.Record, outcome analytics.Outcome, target string, meta analytics.ClientMeta) {
	event := &analytics.ScanEvent{
		EventID:   uuid.NewString(),
		Code:      string(record.Code),
		Timestamp: s.now().UTC(),
		TargetURL: target,
		Outcome:   outcome,
		Client:    meta,
	}

	if err := s.publishScan(event); err != nil {
		s.logger.Error("failed to publish scan event",
			zap.String("code", event.Code),
			zap.String("outcome", string(outcome)),
			zap.Error(err),
		)
	}
}
