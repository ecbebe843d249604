// Package domains manages custom domains and routes (domain, path) pairs
// onto the short-code namespace.
package domains

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quickqr/engine/internal/qrcode"
	"go.uber.org/zap"
)

// Service implements custom domain registration and routing.
type Service struct {
	domains qrcode.DomainRepository
	codes   qrcode.Repository
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new domain service.
func NewService(domains qrcode.DomainRepository, codes qrcode.Repository, logger *zap.Logger) *Service {
	return &Service{
		domains: domains,
		codes:   codes,
		logger:  logger,
		now:     time.Now,
	}
}

// Create registers a domain in the unverified state. Verification happens
// out of band (DNS TXT check by a collaborator) and is reported via Verify.
func (s *Service) Create(ctx context.Context, caller qrcode.AccountID, name string) (*qrcode.CustomDomain, error) {
	name = qrcode.NormalizeDomain(name)
	if name == "" || !strings.Contains(name, ".") {
		return nil, fmt.Errorf("%w: invalid domain name %q", qrcode.ErrInvalidConfig, name)
	}

	if _, err := s.domains.GetDomain(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: domain %q already registered", qrcode.ErrInvalidConfig, name)
	} else if !errors.Is(err, qrcode.ErrNotFound) {
		return nil, err
	}

	domain := &qrcode.CustomDomain{
		Domain:    name,
		OwnerID:   caller,
		Verified:  false,
		CreatedAt: s.now(),
	}

	if err := s.domains.SaveDomain(ctx, domain); err != nil {
		return nil, err
	}

	s.logger.Info("domain registered",
		zap.String("domain", name),
		zap.String("owner", string(caller)),
	)

	return domain, nil
}

// Verify marks a domain verified after the out-of-band check succeeded.
func (s *Service) Verify(ctx context.Context, caller qrcode.AccountID, name string) (*qrcode.CustomDomain, error) {
	name = qrcode.NormalizeDomain(name)

	domain, err := s.domains.GetDomain(ctx, name)
	if err != nil {
		return nil, err
	}

	if domain.OwnerID != caller {
		return nil, qrcode.ErrForbidden
	}

	domain.Verified = true

	if err := s.domains.UpdateDomain(ctx, domain); err != nil {
		return nil, err
	}

	s.logger.Info("domain verified", zap.String("domain", name))

	return domain, nil
}

// Delete removes a domain and detaches every code bound to it. The codes
// survive and stay resolvable through their bare short code.
func (s *Service) Delete(ctx context.Context, caller qrcode.AccountID, name string) error {
	name = qrcode.NormalizeDomain(name)

	domain, err := s.domains.GetDomain(ctx, name)
	if err != nil {
		return err
	}

	if domain.OwnerID != caller {
		return qrcode.ErrForbidden
	}

	if err := s.domains.DeleteDomain(ctx, name); err != nil {
		return err
	}

	if err := s.codes.DetachDomain(ctx, name); err != nil {
		return err
	}

	s.logger.Info("domain deleted", zap.String("domain", name))

	return nil
}

// Bind attaches a code to a (domain, slug) pair. A domain binds at most one
// code per distinct slug; a second binding on the same pair is rejected.
// Binding is allowed before verification; routing stays blocked until the
// domain verifies.
func (s *Service) Bind(ctx context.Context, caller qrcode.AccountID, name, slug string, code qrcode.Code) (*qrcode.Record, error) {
	name = qrcode.NormalizeDomain(name)
	slug = strings.ToLower(slug)

	if err := qrcode.ValidateSlug(slug); err != nil {
		return nil, err
	}

	domain, err := s.domains.GetDomain(ctx, name)
	if err != nil {
		return nil, err
	}

	if domain.OwnerID != caller {
		return nil, qrcode.ErrForbidden
	}

	record, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if record.OwnerID != caller {
		return nil, qrcode.ErrForbidden
	}

	if _, err := s.codes.GetByDomainSlug(ctx, name, slug); err == nil {
		return nil, fmt.Errorf("%w: %s/%s is already bound", qrcode.ErrInvalidConfig, name, slug)
	} else if !errors.Is(err, qrcode.ErrNotFound) {
		return nil, err
	}

	record.Domain = name
	record.Slug = slug
	record.UpdatedAt = s.now()

	if err := s.codes.Update(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("code bound to domain",
		zap.String("code", string(code)),
		zap.String("domain", name),
		zap.String("slug", slug),
	)

	return record, nil
}

// Route resolves an inbound (domain, path) pair to a short code.
//
// An unregistered domain falls through to bare short-code resolution with
// the path as the code. A registered but unverified domain blocks with
// ErrDomainPending, never serving a target.
func (s *Service) Route(ctx context.Context, name, path string) (qrcode.Code, error) {
	name = qrcode.NormalizeDomain(name)

	domain, err := s.domains.GetDomain(ctx, name)
	if err != nil {
		if errors.Is(err, qrcode.ErrNotFound) {
			return qrcode.Code(path), nil
		}

		return "", err
	}

	if !domain.Verified {
		return "", qrcode.ErrDomainPending
	}

	record, err := s.codes.GetByDomainSlug(ctx, name, strings.ToLower(path))
	if err != nil {
		return "", err
	}

	return record.Code, nil
}
