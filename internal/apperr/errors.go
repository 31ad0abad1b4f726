// Package apperr defines the domain error taxonomy shared by every feature.
// Repositories translate raw storage errors into these sentinels so callers can
// branch with errors.Is instead of inspecting driver codes.
package apperr

import (
	"errors"
	"net/http"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a referenced lot, order, export, SKU or
	// warehouse does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateLot is returned when a lot with the same warehouse, SKU and
	// lot name already exists.
	ErrDuplicateLot = errors.New("lot already exists for warehouse, sku and lot name")

	// ErrInsufficientStock is returned when a requested allocation exceeds a
	// lot's remaining quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrAllocationMismatch is returned when the allocations of an order
	// export do not sum to the order's requested quantities.
	ErrAllocationMismatch = errors.New("allocations do not match requested quantities")

	// ErrIllegalTransition is returned when an order state machine
	// precondition is violated.
	ErrIllegalTransition = errors.New("illegal order state transition")

	// ErrUnauthorized is returned when no caller identity is present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller's role does not permit the
	// operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvariantViolation signals an internal consistency failure, such as a
	// compensation that would push remaining quantity past imported quantity.
	// It indicates a bug upstream, not a user error.
	ErrInvariantViolation = errors.New("inventory invariant violation")

	// ErrValidation is returned for malformed input before any state is read.
	ErrValidation = errors.New("validation failed")
)

// Postgres error codes of interest.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return false
}

// UniqueConstraint returns the name of the violated unique constraint, or ""
// when err is not a unique violation. Used where one table carries several
// unique constraints that map to different domain errors.
func UniqueConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return pqErr.Constraint
	}
	return ""
}

func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgForeignKeyViolation
	}
	return false
}

// HTTPStatus maps a taxonomy member to the status code the transport layer
// should answer with. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateLot):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, ErrAllocationMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvariantViolation):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
