package shared

import (
	"errors"

	"github.com/Chambu-Digital/javic-collection-sub001/internal/platform/httpx"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = httpx.ErrNotFound
	// ErrForbidden indicates the actor may not perform the operation.
	ErrForbidden = httpx.ErrForbidden
	// ErrValidation indicates malformed input.
	ErrValidation = httpx.ErrValidation
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
