package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrAlreadyExists is returned when a unique or primary key constraint rejects a write.
	ErrAlreadyExists = errors.New("persistence: already exists")
	// ErrConflict is returned when an optimistic version check or a single-use guard fails.
	ErrConflict = errors.New("persistence: conflict")
	// ErrReferenceNotFound is returned when a foreign key points at a missing row.
	ErrReferenceNotFound = errors.New("persistence: referenced record not found")
	// ErrConstraintViolation is returned when a check or not-null constraint rejects a write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrUnavailable is returned when the database is busy, locked or the context expired.
	ErrUnavailable = errors.New("persistence: unavailable")
)
