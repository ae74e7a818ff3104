package application

import "errors"

var (
	// ErrUnauthenticated is returned when the caller identity is missing or no longer valid.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a uniqueness constraint would be violated.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrConflict is returned when a concurrent writer changed the same record first.
	ErrConflict = errors.New("application: concurrent modification")
	// ErrStorageUnavailable is returned when the store is unreachable, busy or timed out.
	ErrStorageUnavailable = errors.New("application: storage unavailable")

	// ErrInvalidDuration marks a duration that is non-finite, not positive or above the per-session cap.
	ErrInvalidDuration = errors.New("application: invalid duration")
	// ErrInvalidSessionKind marks a session kind outside focus/break.
	ErrInvalidSessionKind = errors.New("application: invalid session kind")

	ErrInvalidCredentials = errors.New("application: invalid credentials")
	ErrCodeAlreadyUsed    = errors.New("application: login code already used")
	ErrCodeExpired        = errors.New("application: login code expired")
	ErrSessionExpired     = errors.New("application: session expired")
	ErrSessionRevoked     = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string

	causes []error
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// Unwrap exposes the sentinel causes recorded alongside field messages so that
// errors.Is(err, ErrInvalidDuration) works through the aggregate.
func (v *ValidationError) Unwrap() []error {
	if v == nil {
		return nil
	}
	return v.causes
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// addCause records a field error together with the sentinel it stems from.
func (v *ValidationError) addCause(field, message string, cause error) {
	v.add(field, message)
	if cause != nil {
		v.causes = append(v.causes, cause)
	}
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
	v.causes = append(v.causes, other.causes...)
}

func fieldError(field, message string, cause error) *ValidationError {
	vErr := &ValidationError{}
	vErr.addCause(field, message, cause)
	return vErr
}
