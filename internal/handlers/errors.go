package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quickqr/engine/internal/qrcode"
)

// resolveError maps a resolve failure to a plain HTTP status. Internal
// error kinds are not leaked to scanners beyond the status code itself.
func resolveError(err error) error {
	switch {
	case errors.Is(err, qrcode.ErrNotFound):
		return huma.Error404NotFound("not found")
	case errors.Is(err, qrcode.ErrExpired), errors.Is(err, qrcode.ErrExhausted):
		return huma.Error410Gone("gone")
	case errors.Is(err, qrcode.ErrDisabled), errors.Is(err, qrcode.ErrDomainPending):
		return huma.Error403Forbidden("forbidden")
	default:
		return huma.Error500InternalServerError("failed to resolve code")
	}
}

// manageError maps a management API failure to a structured huma error.
func manageError(err error) error {
	switch {
	case errors.Is(err, qrcode.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, qrcode.ErrInvalidConfig):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, qrcode.ErrForbidden):
		return huma.Error403Forbidden("caller does not own this resource")
	default:
		return huma.Error500InternalServerError("internal error")
	}
}
