package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/focus-ledger/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// serviceLogger prefers the request-scoped logger carried by ctx over base.
func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(base)
	}

	logger = logger.With("service", serviceName)
	if operation != "" {
		logger = logger.With("operation", operation)
	}
	if len(attrs) > 0 {
		logger = logger.With(attrs...)
	}
	return logger
}

// errorKinds is checked in order; the first match labels the error.
var errorKinds = []struct {
	target error
	kind   string
}{
	{ErrUnauthenticated, "unauthenticated"},
	{ErrUnauthorized, "unauthorized"},
	{ErrNotFound, "not_found"},
	{ErrAlreadyExists, "already_exists"},
	{ErrConflict, "conflict"},
	{ErrStorageUnavailable, "storage_unavailable"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrCodeAlreadyUsed, "code_used"},
	{ErrCodeExpired, "code_expired"},
	{ErrSessionExpired, "session_expired"},
	{ErrSessionRevoked, "session_revoked"},
	{context.DeadlineExceeded, "timeout"},
	{context.Canceled, "timeout"},
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}
	return "unexpected"
}
