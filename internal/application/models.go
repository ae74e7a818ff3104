package application

import (
	"context"
	"strings"
	"time"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	Email   string
	IsAdmin bool
}

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

// SessionKind distinguishes focus intervals from breaks.
type SessionKind string

const (
	SessionKindFocus SessionKind = "focus"
	SessionKindBreak SessionKind = "break"
)

// ParseSessionKind normalizes a client supplied kind.
func ParseSessionKind(raw string) (SessionKind, bool) {
	switch SessionKind(strings.ToLower(strings.TrimSpace(raw))) {
	case SessionKindFocus:
		return SessionKindFocus, true
	case SessionKindBreak:
		return SessionKindBreak, true
	default:
		return "", false
	}
}

// FocusSession is an immutable ledger entry for one completed interval.
// Day, Hour and Weekday are the local calendar coordinates of CompletedAt.
type FocusSession struct {
	ID              string
	UserID          string
	Kind            SessionKind
	DurationSeconds int64
	CompletedAt     time.Time
	Day             string
	Hour            int
	Weekday         time.Weekday
}

// DailyTotal is one aggregate row: focused seconds for a user on a local day.
type DailyTotal struct {
	Day          string
	FocusSeconds int64
}

// StreakState is the consecutive-day counter for a user. LastDay is the local
// day of the most recent focus session that was counted.
type StreakState struct {
	Current int
	Longest int
	LastDay string
}

// PresenceState holds the timer liveness fields of a user.
type PresenceState struct {
	Running       bool
	StartedAt     *time.Time
	LastPingAt    *time.Time
	LastActiveDay string
}

// Activity is the mutable per-user state read and written by the streak and
// presence trackers. Version increments on every streak write.
type Activity struct {
	UserID   string
	Streak   StreakState
	Presence PresenceState
	Version  int64
}

// PresenceEvent identifies a timer liveness transition.
type PresenceEvent string

const (
	PresenceStart     PresenceEvent = "start"
	PresenceHeartbeat PresenceEvent = "heartbeat"
	PresenceStop      PresenceEvent = "stop"
)

// PresenceStatus is derived at read time and never stored.
type PresenceStatus string

const (
	StatusActive         PresenceStatus = "Active"
	StatusRecentlyActive PresenceStatus = "Recently Active"
	StatusInactive       PresenceStatus = "Inactive"
	StatusDormant        PresenceStatus = "Dormant"
)

// RecordSessionParams carries a client reported completion. Duration is nil
// when the field was omitted and NaN when it was present but not numeric.
type RecordSessionParams struct {
	Principal Principal
	Kind      string
	Duration  *float64
}

// RecordSessionResult is the outcome of a save. DailyTotal is nil for breaks.
type RecordSessionResult struct {
	Session           FocusSession
	NormalizedSeconds int64
	DailyTotal        *DailyTotal
	Streak            StreakState
	StreakAdvanced    bool
}

// AuthSession represents a bearer token issued to a user.
type AuthSession struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// LoginCode is a single-use credential exchanged for an AuthSession.
type LoginCode struct {
	ID         string
	UserID     string
	SecretHash string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UsedAt     *time.Time
}

// ExchangeResult is returned after a login code was redeemed.
type ExchangeResult struct {
	User    User
	Session AuthSession
}

// Bucket is one labeled slot of a rollup. Nil values mean no data or zero.
type Bucket struct {
	Label   string
	Seconds *float64
	Hours   *float64
}

// Aggregation names how a rollup combines daily rows.
type Aggregation string

const (
	AggregationSum      Aggregation = "sum"
	AggregationDailyAvg Aggregation = "average_per_day"
)

// RollupView is a read-side projection over daily aggregates.
type RollupView struct {
	Period      string
	Title       string
	RangeStart  string
	RangeEnd    string
	Aggregation Aggregation
	Buckets     []Bucket
}

// BrowseStat counts visits to one domain by one user.
type BrowseStat struct {
	UserID        string
	Domain        string
	VisitCount    int64
	FirstSeenAt   time.Time
	LastVisitedAt time.Time
}

// Transactor runs fn inside a single storage transaction. Repository calls
// made with the context handed to fn join that transaction.
type Transactor interface {
	Within(ctx context.Context, fn func(ctx context.Context) error) error
}

type inlineTransactor struct{}

func (inlineTransactor) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
