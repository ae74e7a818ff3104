package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserLookup resolves users referenced by codes and sessions.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// AuthSessionRepository captures the persistence interactions for issued bearer tokens.
type AuthSessionRepository interface {
	CreateSession(ctx context.Context, session AuthSession) (AuthSession, error)
	GetSession(ctx context.Context, token string) (AuthSession, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (AuthSession, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// LoginCodeRepository stores single-use login codes.
type LoginCodeRepository interface {
	CreateLoginCode(ctx context.Context, code LoginCode) error
	GetLoginCode(ctx context.Context, id string) (LoginCode, error)
	// MarkLoginCodeUsed sets UsedAt when it is still empty and returns
	// ErrConflict when another exchange consumed the code first.
	MarkLoginCodeUsed(ctx context.Context, id string, usedAt time.Time) error
}

// AuthSettings tunes token lifetimes and secret hashing.
type AuthSettings struct {
	SessionTTL   time.Duration
	LoginCodeTTL time.Duration
	Argon2       Argon2idParams
}

// AuthService redeems login codes for bearer sessions and validates them.
type AuthService struct {
	tx             Transactor
	users          UserLookup
	sessions       AuthSessionRepository
	codes          LoginCodeRepository
	policy         *AdminPolicy
	tokenGenerator func() string
	now            func() time.Time
	settings       AuthSettings
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(tx Transactor, users UserLookup, sessions AuthSessionRepository, codes LoginCodeRepository, policy *AdminPolicy, tokenGenerator func() string, now func() time.Time, settings AuthSettings) *AuthService {
	return NewAuthServiceWithLogger(tx, users, sessions, codes, policy, tokenGenerator, now, settings, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(tx Transactor, users UserLookup, sessions AuthSessionRepository, codes LoginCodeRepository, policy *AdminPolicy, tokenGenerator func() string, now func() time.Time, settings AuthSettings, logger *slog.Logger) *AuthService {
	if tx == nil {
		tx = inlineTransactor{}
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }
	}
	if now == nil {
		now = time.Now
	}
	if settings.SessionTTL <= 0 {
		settings.SessionTTL = 7 * 24 * time.Hour
	}
	if settings.LoginCodeTTL <= 0 {
		settings.LoginCodeTTL = 10 * time.Minute
	}
	settings.Argon2 = settings.Argon2.orDefault()
	if policy == nil {
		policy = NewAdminPolicy(nil, nil)
	}
	return &AuthService{
		tx:             tx,
		users:          users,
		sessions:       sessions,
		codes:          codes,
		policy:         policy,
		tokenGenerator: tokenGenerator,
		now:            now,
		settings:       settings,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// IssueLoginCode creates a single-use code for userID. The returned string is
// "<id>.<secret>"; only a hash of the secret is stored.
func (s *AuthService) IssueLoginCode(ctx context.Context, userID string) (code string, record LoginCode, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.codes == nil || s.users == nil {
		err = fmt.Errorf("login code stores not configured")
		return
	}

	logger := s.loggerWith(ctx, "IssueLoginCode", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login code not issued", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "login code issued", "code_id", record.ID, "expires_at", record.ExpiresAt)
	}()

	if _, err = s.users.GetUser(ctx, userID); err != nil {
		return
	}

	secret := s.tokenGenerator()
	if secret == "" {
		err = fmt.Errorf("token generator returned an empty secret")
		return
	}

	var hash string
	hash, err = CreateSecretHash(secret, s.settings.Argon2)
	if err != nil {
		return
	}

	now := s.now().UTC()
	record = LoginCode{
		ID:         uuid.NewString(),
		UserID:     userID,
		SecretHash: hash,
		ExpiresAt:  now.Add(s.settings.LoginCodeTTL),
		CreatedAt:  now,
	}
	if err = s.codes.CreateLoginCode(ctx, record); err != nil {
		record = LoginCode{}
		return
	}

	code = record.ID + "." + secret
	return
}

// ExchangeLoginCode redeems a code and issues a bearer session.
func (s *AuthService) ExchangeLoginCode(ctx context.Context, code string) (result ExchangeResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.codes == nil || s.sessions == nil || s.users == nil {
		err = fmt.Errorf("auth stores not configured")
		return
	}

	id, secret, _ := strings.Cut(strings.TrimSpace(code), ".")
	logger := s.loggerWith(ctx, "ExchangeLoginCode", "code_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login code exchange failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID, "session_id", result.Session.ID).InfoContext(ctx, "login code exchanged")
	}()

	if id == "" || secret == "" {
		err = ErrInvalidCredentials
		return
	}

	now := s.now().UTC()
	var out ExchangeResult
	err = s.tx.Within(ctx, func(ctx context.Context) error {
		record, err := s.codes.GetLoginCode(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrInvalidCredentials
			}
			return err
		}
		if VerifySecret(record.SecretHash, secret) != nil {
			return ErrInvalidCredentials
		}
		if record.UsedAt != nil {
			return ErrCodeAlreadyUsed
		}
		if !record.ExpiresAt.After(now) {
			return ErrCodeExpired
		}
		if err := s.codes.MarkLoginCodeUsed(ctx, record.ID, now); err != nil {
			if errors.Is(err, ErrConflict) {
				return ErrCodeAlreadyUsed
			}
			return err
		}

		user, err := s.users.GetUser(ctx, record.UserID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrInvalidCredentials
			}
			return err
		}

		if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
			return err
		}
		session, err := s.sessions.CreateSession(ctx, AuthSession{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			Token:     s.tokenGenerator(),
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(s.settings.SessionTTL),
		})
		if err != nil {
			return err
		}
		out = ExchangeResult{User: user, Session: session}
		return nil
	})
	if err != nil {
		return
	}

	result = out
	return
}

// RevokeSession invalidates an existing session token.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrUnauthenticated
	}

	logger := s.loggerWith(ctx, "RevokeSession", "token_provided", true)

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now().UTC()); err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthenticated
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now().UTC()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession verifies that the provided token corresponds to an active session and returns its principal.
// Every rejection wraps ErrUnauthenticated.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.sessions == nil || s.users == nil {
		err = fmt.Errorf("auth stores not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("principal_id", principal.UserID).DebugContext(ctx, "session validated")
	}()

	if trimmed == "" {
		err = ErrUnauthenticated
		return
	}

	var session AuthSession
	session, err = s.sessions.GetSession(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthenticated
		}
		return
	}

	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		err = fmt.Errorf("%w: %w", ErrUnauthenticated, ErrSessionRevoked)
		return
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		err = fmt.Errorf("%w: %w", ErrUnauthenticated, ErrSessionExpired)
		return
	}

	var user User
	user, err = s.users.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthenticated
		}
		return
	}

	principal = s.policy.PrincipalFor(user)
	return
}
