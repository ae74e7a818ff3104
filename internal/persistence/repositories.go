package persistence

import (
	"context"
	"time"
)

// Transactor runs fn in one database transaction. Repository calls made with
// the context passed to fn join it; a nested call reuses the outer one.
type Transactor interface {
	Within(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByProviderID(ctx context.Context, providerID string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// ActivityRepository reads and writes the streak and presence columns.
type ActivityRepository interface {
	GetActivity(ctx context.Context, userID string) (Activity, error)
	// SaveStreak writes the streak columns when version still equals
	// expectedVersion, increments version, and returns ErrConflict otherwise.
	SaveStreak(ctx context.Context, userID string, current, longest int, day string, expectedVersion int64, at time.Time) error
	RecordPresence(ctx context.Context, userID string, event PresenceEvent, at time.Time, day string) (Activity, error)
}

// FocusSessionRepository appends to and reads the session ledger.
type FocusSessionRepository interface {
	AppendSession(ctx context.Context, session FocusSession) error
	ListRecentSessions(ctx context.Context, userID string, limit int) ([]FocusSession, error)
}

// DailyStatRepository maintains per-day focus totals.
type DailyStatRepository interface {
	// AddFocusSeconds atomically creates or increments the row and returns the new total.
	AddFocusSeconds(ctx context.Context, userID, day string, seconds int64) (int64, error)
	// ListDailyStats returns rows in ascending day order. Empty bounds are open.
	ListDailyStats(ctx context.Context, userID, fromDay, toDay string) ([]DailyStat, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// LoginCodeRepository stores single-use login codes.
type LoginCodeRepository interface {
	CreateLoginCode(ctx context.Context, code LoginCode) error
	GetLoginCode(ctx context.Context, id string) (LoginCode, error)
	// MarkLoginCodeUsed returns ErrConflict when the code was already used.
	MarkLoginCodeUsed(ctx context.Context, id string, usedAt time.Time) error
}

// BrowseStatRepository counts domain visits.
type BrowseStatRepository interface {
	RecordVisit(ctx context.Context, userID, domain string, visitedAt time.Time) (BrowseStat, error)
	// TopDomains orders by visit count, then by most recent visit.
	TopDomains(ctx context.Context, userID string, limit int) ([]BrowseStat, error)
	LastDomain(ctx context.Context, userID string) (BrowseStat, error)
}

// AdminQueries answers the read-model queries of the admin dashboard.
type AdminQueries interface {
	CountUsers(ctx context.Context) (int64, error)
	CountUsersActiveSince(ctx context.Context, day string) (int64, error)
	CountUsersCreatedSince(ctx context.Context, since time.Time) (int64, error)
	ListUsersCreatedSince(ctx context.Context, since time.Time) ([]User, error)
	SessionTotals(ctx context.Context) (SessionTotals, error)
	SessionsByHour(ctx context.Context) ([]HourCount, error)
	SessionsByWeekday(ctx context.Context) ([]WeekdayCount, error)
	KindDistribution(ctx context.Context) ([]KindCount, error)
	SessionsPerDay(ctx context.Context, fromDay string) ([]DayCount, error)
	UserSummaries(ctx context.Context) ([]UserSummary, error)
	UserSummary(ctx context.Context, userID string) (UserSummary, error)
}
