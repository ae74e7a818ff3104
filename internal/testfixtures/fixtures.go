package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/focus-ledger/internal/application"
	"github.com/example/focus-ledger/internal/persistence"
)

var (
	userCounter    uint64
	sessionCounter uint64
)

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID         string
	ProviderID string
	Email      string
	Name       string
	PhotoURL   string
	CreatedAt  time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:         id,
		ProviderID: fmt.Sprintf("google-%03d", idx),
		Email:      fmt.Sprintf("%s@example.com", id),
		Name:       fmt.Sprintf("User %03d", idx),
		CreatedAt:  ReferenceTime().Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// WithUserCreatedAt overrides the creation instant.
func WithUserCreatedAt(t time.Time) UserOption {
	return func(f *UserFixture) { f.CreatedAt = t }
}

// Application converts the fixture into an application user.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:         f.ID,
		ProviderID: f.ProviderID,
		Email:      f.Email,
		Name:       f.Name,
		PhotoURL:   f.PhotoURL,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.CreatedAt,
	}
}

// Persistence converts the fixture into a persistence user.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:         f.ID,
		ProviderID: f.ProviderID,
		Email:      f.Email,
		Name:       f.Name,
		PhotoURL:   f.PhotoURL,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.CreatedAt,
	}
}

// Identity returns the identity provider profile of the fixture.
func (f UserFixture) Identity() application.IdentityInput {
	return application.IdentityInput{
		ProviderID: f.ProviderID,
		Email:      f.Email,
		Name:       f.Name,
		PhotoURL:   f.PhotoURL,
	}
}

// Principal returns a non-admin principal for the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Email: f.Email}
}

// FocusSessionFixture describes a ledger row with precomputed local coordinates.
type FocusSessionFixture struct {
	ID              string
	UserID          string
	Kind            string
	DurationSeconds int64
	CompletedAt     time.Time
	Day             string
	Hour            int
	Weekday         time.Weekday
}

// NewFocusSessionFixture returns a 25 minute focus session completed at the
// reference time, which is 10:00 on Monday 2026-03-02 in the default zone.
func NewFocusSessionFixture(userID string, opts ...func(*FocusSessionFixture)) FocusSessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := FocusSessionFixture{
		ID:              fmt.Sprintf("session-%03d", idx),
		UserID:          userID,
		Kind:            string(application.SessionKindFocus),
		DurationSeconds: 1500,
		CompletedAt:     ReferenceTime(),
		Day:             "2026-03-02",
		Hour:            10,
		Weekday:         time.Monday,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// Persistence converts the fixture into a persistence ledger row.
func (f FocusSessionFixture) Persistence() persistence.FocusSession {
	return persistence.FocusSession{
		ID:              f.ID,
		UserID:          f.UserID,
		Kind:            f.Kind,
		DurationSeconds: f.DurationSeconds,
		CompletedAt:     f.CompletedAt,
		Day:             f.Day,
		Hour:            f.Hour,
		Weekday:         int(f.Weekday),
	}
}
