package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/focus-ledger/internal/application"
	"github.com/example/focus-ledger/internal/calendar"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers, clocks and the default day bucketer.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Bucketer    calendar.Bucketer
	Windows     application.PresenceWindows
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Bucketer:    calendar.NewBucketer(calendar.DefaultOffsetMinutes),
		Windows:     application.DefaultPresenceWindows,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithBucketer overrides the day bucketer used by the factory.
func WithBucketer(bucketer calendar.Bucketer) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Bucketer = bucketer
	}
}

// SessionServiceDeps captures dependencies for constructing a session service.
type SessionServiceDeps struct {
	Tx       application.Transactor
	Ledger   application.SessionLedger
	Totals   application.DailyTotalStore
	Activity application.ActivityStore
	Logger   *slog.Logger
}

// NewSessionService builds a session service using the supplied stores
// combined with the factory defaults.
func (f *ServiceFactory) NewSessionService(deps SessionServiceDeps) *application.SessionService {
	return application.NewSessionServiceWithLogger(
		deps.Tx,
		deps.Ledger,
		deps.Totals,
		deps.Activity,
		f.Bucketer,
		f.IDGenerator.NextUUID,
		f.Clock.NowFunc(),
		deps.Logger,
	)
}

// NewDashboardService builds a dashboard service over the supplied totals.
func (f *ServiceFactory) NewDashboardService(totals application.DailyTotalStore, logger *slog.Logger) *application.DashboardService {
	return application.NewDashboardServiceWithLogger(totals, f.Bucketer, f.Clock.NowFunc(), logger)
}

// NewPresenceService builds a presence service over the supplied store.
func (f *ServiceFactory) NewPresenceService(activity application.ActivityStore, logger *slog.Logger) *application.PresenceService {
	return application.NewPresenceServiceWithLogger(activity, f.Bucketer, f.Windows, f.Clock.NowFunc(), logger)
}

// UserServiceDeps captures dependencies for constructing a user service.
type UserServiceDeps struct {
	Tx       application.Transactor
	Users    application.UserRepository
	Activity application.ActivityStore
	Logger   *slog.Logger
}

// NewUserService builds a user service using the supplied dependencies.
func (f *ServiceFactory) NewUserService(deps UserServiceDeps) *application.UserService {
	return application.NewUserServiceWithLogger(
		deps.Tx,
		deps.Users,
		deps.Activity,
		f.Windows,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		deps.Logger,
	)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Tx       application.Transactor
	Users    application.UserLookup
	Sessions application.AuthSessionRepository
	Codes    application.LoginCodeRepository
	Policy   *application.AdminPolicy
	Settings application.AuthSettings
	Logger   *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
// Argon2 parameters default to a cheap profile suitable for tests.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	settings := deps.Settings
	if settings.Argon2 == (application.Argon2idParams{}) {
		settings.Argon2 = application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	}
	return application.NewAuthServiceWithLogger(
		deps.Tx,
		deps.Users,
		deps.Sessions,
		deps.Codes,
		deps.Policy,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		settings,
		deps.Logger,
	)
}
