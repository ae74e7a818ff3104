package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/focus-ledger/internal/calendar"
)

// SessionLedger appends completed intervals. Entries are never mutated.
type SessionLedger interface {
	AppendSession(ctx context.Context, session FocusSession) error
}

// DailyTotalStore maintains one focus total per (user, local day).
type DailyTotalStore interface {
	// AddFocusSeconds atomically creates or increments the row and returns the new total.
	AddFocusSeconds(ctx context.Context, userID, day string, seconds int64) (int64, error)
	// FocusRange returns rows with fromDay <= day <= toDay in ascending order.
	FocusRange(ctx context.Context, userID, fromDay, toDay string) ([]DailyTotal, error)
	// FocusDays returns every row of the user in ascending order.
	FocusDays(ctx context.Context, userID string) ([]DailyTotal, error)
}

// ActivityStore reads and writes the per-user streak and presence fields.
type ActivityStore interface {
	GetActivity(ctx context.Context, userID string) (Activity, error)
	// SaveStreak stores the state when the stored version still equals
	// expectedVersion and returns ErrConflict otherwise.
	SaveStreak(ctx context.Context, userID string, streak StreakState, expectedVersion int64, at time.Time) error
	RecordPresence(ctx context.Context, userID string, event PresenceEvent, at time.Time, day string) (PresenceState, error)
}

// SessionService records completed focus and break intervals.
type SessionService struct {
	tx          Transactor
	ledger      SessionLedger
	totals      DailyTotalStore
	activity    ActivityStore
	bucketer    calendar.Bucketer
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSessionService wires dependencies for the session service.
func NewSessionService(tx Transactor, ledger SessionLedger, totals DailyTotalStore, activity ActivityStore, bucketer calendar.Bucketer, idGenerator func() string, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(tx, ledger, totals, activity, bucketer, idGenerator, now, nil)
}

// NewSessionServiceWithLogger wires dependencies and a base logger.
func NewSessionServiceWithLogger(tx Transactor, ledger SessionLedger, totals DailyTotalStore, activity ActivityStore, bucketer calendar.Bucketer, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SessionService {
	if tx == nil {
		tx = inlineTransactor{}
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		tx:          tx,
		ledger:      ledger,
		totals:      totals,
		activity:    activity,
		bucketer:    bucketer,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// RecordSession validates a completion and stores it. The ledger entry, the
// daily total, the streak transition and the presence reset commit together
// or not at all. CompletedAt is taken from the server clock.
func (s *SessionService) RecordSession(ctx context.Context, params RecordSessionParams) (result RecordSessionResult, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.ledger == nil || s.totals == nil || s.activity == nil {
		err = fmt.Errorf("session stores not configured")
		return
	}

	userID := params.Principal.UserID
	logger := s.loggerWith(ctx, "RecordSession", "user_id", userID, "kind", params.Kind)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session not recorded", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"session_id", result.Session.ID,
			"duration_seconds", result.NormalizedSeconds,
			"day", result.Session.Day,
			"streak_current", result.Streak.Current,
		).InfoContext(ctx, "session recorded")
	}()

	if userID == "" {
		err = ErrUnauthenticated
		return
	}

	kind, seconds, vErr := validateSessionInput(params)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now().UTC()
	session := FocusSession{
		ID:              s.idGenerator(),
		UserID:          userID,
		Kind:            kind,
		DurationSeconds: seconds,
		CompletedAt:     now,
		Day:             s.bucketer.Day(now),
		Hour:            s.bucketer.Hour(now),
		Weekday:         s.bucketer.Weekday(now),
	}

	var out RecordSessionResult
	err = s.tx.Within(ctx, func(ctx context.Context) error {
		activity, err := s.activity.GetActivity(ctx, userID)
		if err != nil {
			return err
		}

		if err := s.ledger.AppendSession(ctx, session); err != nil {
			return err
		}
		out = RecordSessionResult{Session: session, NormalizedSeconds: seconds, Streak: activity.Streak}

		if kind == SessionKindFocus {
			total, err := s.totals.AddFocusSeconds(ctx, userID, session.Day, seconds)
			if err != nil {
				return err
			}
			out.DailyTotal = &DailyTotal{Day: session.Day, FocusSeconds: total}

			next, changed := AdvanceStreak(activity.Streak, session.Day)
			if changed {
				if err := s.activity.SaveStreak(ctx, userID, next, activity.Version, now); err != nil {
					return err
				}
			}
			out.Streak = next
			out.StreakAdvanced = changed
		}

		_, err = s.activity.RecordPresence(ctx, userID, PresenceStop, now, session.Day)
		return err
	})
	if err != nil {
		return
	}

	result = out
	return
}

func validateSessionInput(params RecordSessionParams) (SessionKind, int64, *ValidationError) {
	vErr := &ValidationError{}

	kind, ok := ParseSessionKind(params.Kind)
	switch {
	case params.Kind == "":
		vErr.addCause("type", "type is required", ErrInvalidSessionKind)
	case !ok:
		vErr.addCause("type", "type must be focus or break", ErrInvalidSessionKind)
	}

	var seconds int64
	if params.Duration == nil {
		vErr.addCause("duration", "duration is required", ErrInvalidDuration)
	} else {
		raw := *params.Duration
		normalized, err := NormalizeDuration(raw)
		if err != nil {
			vErr.addCause("duration", durationMessage(raw), err)
		}
		seconds = normalized
	}

	return kind, seconds, vErr
}
