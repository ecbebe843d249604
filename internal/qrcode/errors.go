package qrcode

import "errors"

var (
	// ErrNotFound indicates the code or domain does not exist or was deleted.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates a create or update request that violates
	// validation rules.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrForbidden indicates a mutation attempted by a non-owner.
	ErrForbidden = errors.New("forbidden")

	// ErrExpired indicates a resolve against a code whose expiry has passed.
	ErrExpired = errors.New("code expired")

	// ErrExhausted indicates a resolve against a code whose scan limit is
	// reached.
	ErrExhausted = errors.New("scan limit reached")

	// ErrDisabled indicates a resolve against a code its owner disabled.
	ErrDisabled = errors.New("code disabled")

	// ErrDomainPending indicates a resolve through a custom domain that has
	// not completed verification.
	ErrDomainPending = errors.New("domain pending verification")
)
