package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultDisplayName = "Google User"

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByProviderID(ctx context.Context, providerID string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
}

// IdentityInput is the verified profile handed over by the identity provider.
type IdentityInput struct {
	ProviderID string
	Email      string
	Name       string
	PhotoURL   string
}

// Profile is the caller's own view of their account.
type Profile struct {
	User     User
	Streak   StreakState
	Presence PresenceState
	Status   PresenceStatus
}

// UserService orchestrates validation and persistence for users.
type UserService struct {
	tx          Transactor
	users       UserRepository
	activity    ActivityStore
	windows     PresenceWindows
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(tx Transactor, users UserRepository, activity ActivityStore, windows PresenceWindows, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(tx, users, activity, windows, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies and a base logger.
func NewUserServiceWithLogger(tx Transactor, users UserRepository, activity ActivityStore, windows PresenceWindows, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if tx == nil {
		tx = inlineTransactor{}
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		tx:          tx,
		users:       users,
		activity:    activity,
		windows:     windows,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// UpsertIdentity creates the user for a provider profile or refreshes the
// stored name, email and photo of an existing one.
func (s *UserService) UpsertIdentity(ctx context.Context, input IdentityInput) (user User, created bool, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	normalized := normalizeIdentity(input)
	logger := s.loggerWith(ctx, "UpsertIdentity", "email", normalized.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "identity upsert failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "identity upserted", "user_id", user.ID, "created", created)
	}()

	if vErr := validateIdentity(normalized); vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.tx.Within(ctx, func(ctx context.Context) error {
		now := s.now().UTC()
		existing, err := s.users.GetUserByProviderID(ctx, normalized.ProviderID)
		switch {
		case err == nil:
			existing.Email = normalized.Email
			existing.Name = normalized.Name
			existing.PhotoURL = normalized.PhotoURL
			existing.UpdatedAt = now
			user, err = s.users.UpdateUser(ctx, existing)
			return err
		case !errors.Is(err, ErrNotFound):
			return err
		}

		user, err = s.users.CreateUser(ctx, User{
			ID:         s.idGenerator(),
			ProviderID: normalized.ProviderID,
			Email:      normalized.Email,
			Name:       normalized.Name,
			PhotoURL:   normalized.PhotoURL,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		created = err == nil
		return err
	})
	if err != nil {
		user, created = User{}, false
	}
	return
}

// FindByEmail looks up a user by email address.
func (s *UserService) FindByEmail(ctx context.Context, email string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return User{}, fieldError("email", "email is required", nil)
	}
	return s.users.GetUserByEmail(ctx, email)
}

// Profile returns the caller's account together with streak and presence.
func (s *UserService) Profile(ctx context.Context, principal Principal) (Profile, error) {
	if s == nil {
		return Profile{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil || s.activity == nil {
		return Profile{}, fmt.Errorf("user stores not configured")
	}
	if principal.UserID == "" {
		return Profile{}, ErrUnauthenticated
	}

	user, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		s.loggerWith(ctx, "Profile", "user_id", principal.UserID).ErrorContext(ctx, "failed to load user", "error", err, "error_kind", ErrorKind(err))
		return Profile{}, err
	}
	activity, err := s.activity.GetActivity(ctx, principal.UserID)
	if err != nil {
		s.loggerWith(ctx, "Profile", "user_id", principal.UserID).ErrorContext(ctx, "failed to load activity", "error", err, "error_kind", ErrorKind(err))
		return Profile{}, err
	}

	return Profile{
		User:     user,
		Streak:   activity.Streak,
		Presence: activity.Presence,
		Status:   ClassifyPresence(activity.Presence, s.now(), s.windows),
	}, nil
}

func normalizeIdentity(input IdentityInput) IdentityInput {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = defaultDisplayName
	}
	return IdentityInput{
		ProviderID: strings.TrimSpace(input.ProviderID),
		Email:      strings.ToLower(strings.TrimSpace(input.Email)),
		Name:       name,
		PhotoURL:   strings.TrimSpace(input.PhotoURL),
	}
}

func validateIdentity(input IdentityInput) *ValidationError {
	vErr := &ValidationError{}

	if input.ProviderID == "" {
		vErr.add("provider_id", "provider id is required")
	}
	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	return vErr
}
