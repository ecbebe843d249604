package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/quickqr/engine/internal/domains"
	"github.com/quickqr/engine/internal/qrcode"
)

// DomainHandler serves the management API for custom domains.
type DomainHandler struct {
	domains *domains.Service
	baseURL string
}

// NewDomainHandler creates a new domain management handler.
func NewDomainHandler(service *domains.Service, baseURL string) *DomainHandler {
	return &DomainHandler{domains: service, baseURL: baseURL}
}

func (h *DomainHandler) CreateDomain(ctx context.Context, req *CreateDomainRequest) (*DomainResponse, error) {
	meta := RequestMetaFromContext(ctx)

	domain, err := h.domains.Create(ctx, qrcode.AccountID(meta.AccountID), req.Body.Domain)
	if err != nil {
		return nil, manageError(err)
	}

	return &DomainResponse{Body: domainBody(domain)}, nil
}

// VerifyDomain marks a domain verified. The DNS check itself runs in an
// external collaborator; this endpoint records its positive result.
func (h *DomainHandler) VerifyDomain(ctx context.Context, req *VerifyDomainRequest) (*DomainResponse, error) {
	meta := RequestMetaFromContext(ctx)

	domain, err := h.domains.Verify(ctx, qrcode.AccountID(meta.AccountID), req.Domain)
	if err != nil {
		return nil, manageError(err)
	}

	return &DomainResponse{Body: domainBody(domain)}, nil
}

func (h *DomainHandler) DeleteDomain(ctx context.Context, req *DeleteDomainRequest) (*struct{}, error) {
	meta := RequestMetaFromContext(ctx)

	if err := h.domains.Delete(ctx, qrcode.AccountID(meta.AccountID), req.Domain); err != nil {
		return nil, manageError(err)
	}

	return &struct{}{}, nil
}

func (h *DomainHandler) BindCode(ctx context.Context, req *BindDomainRequest) (*CodeResponse, error) {
	meta := RequestMetaFromContext(ctx)

	record, err := h.domains.Bind(ctx,
		qrcode.AccountID(meta.AccountID),
		req.Domain,
		req.Body.Slug,
		qrcode.Code(req.Body.Code),
	)
	if err != nil {
		return nil, manageError(err)
	}

	return &CodeResponse{Body: CodeBody{
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
	}}, nil
}

func domainBody(domain *qrcode.CustomDomain) DomainBody {
	return DomainBody{
		Domain:    domain.Domain,
		Verified:  domain.Verified,
		CreatedAt: domain.CreatedAt,
	}
}
