package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist (or is soft-deleted).
	ErrNotFound = errors.New("not found")
	// ErrDuplicate maps a unique-constraint violation.
	ErrDuplicate = errors.New("duplicate")
	// ErrConstraint maps a CHECK or foreign-key violation.
	ErrConstraint = errors.New("constraint violation")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)
