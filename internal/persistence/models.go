package persistence

import "time"

// User represents an account created from an identity provider profile.
type User struct {
	ID         string
	ProviderID string
	Email      string
	Name       string
	PhotoURL   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Activity holds the mutable streak and presence columns of a user row.
// StreakDay is the last day counted by the streak; LastActiveDay is the last
// day any presence event or session was seen.
type Activity struct {
	UserID        string
	CurrentStreak int
	LongestStreak int
	StreakDay     string
	Running       bool
	StartedAt     *time.Time
	LastPingAt    *time.Time
	LastActiveDay string
	Version       int64
}

// PresenceEvent identifies a timer liveness transition.
type PresenceEvent string

const (
	PresenceStart     PresenceEvent = "start"
	PresenceHeartbeat PresenceEvent = "heartbeat"
	PresenceStop      PresenceEvent = "stop"
)

// FocusSession represents an immutable ledger row.
type FocusSession struct {
	ID              string
	UserID          string
	Kind            string
	DurationSeconds int64
	CompletedAt     time.Time
	Day             string
	Hour            int
	Weekday         int
}

// DailyStat represents the focus total of a user on one local day.
type DailyStat struct {
	UserID       string
	Day          string
	FocusSeconds int64
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// LoginCode represents a single-use login credential.
type LoginCode struct {
	ID         string
	UserID     string
	SecretHash string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UsedAt     *time.Time
}

// BrowseStat counts visits of one user to one domain.
type BrowseStat struct {
	UserID        string
	Domain        string
	VisitCount    int64
	FirstSeenAt   time.Time
	LastVisitedAt time.Time
}

// SessionTotals aggregates the whole ledger.
type SessionTotals struct {
	Sessions        int64
	FocusSeconds    int64
	BreakSeconds    int64
	AvgFocusSeconds float64
}

// UserSummary joins a user row with its ledger and aggregate counts.
type UserSummary struct {
	User            User
	Activity        Activity
	Sessions        int64
	FocusSeconds    int64
	BreakSeconds    int64
	AvgFocusSeconds float64
	ActiveDays      int64
	FirstSessionAt  *time.Time
	LastSessionAt   *time.Time
}

// DayCount is a per local day tally of the ledger.
type DayCount struct {
	Day          string
	Count        int64
	TotalSeconds int64
}

// HourCount is a per local hour tally of the ledger.
type HourCount struct {
	Hour  int
	Count int64
}

// WeekdayCount is a per local weekday tally of the ledger. Weekday 0 is Sunday.
type WeekdayCount struct {
	Weekday    int
	Count      int64
	AvgSeconds float64
}

// KindCount is a per session kind tally of the ledger.
type KindCount struct {
	Kind         string
	Count        int64
	TotalSeconds int64
}
