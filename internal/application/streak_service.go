package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StreakService exposes the stored streak and rebuilds it from daily aggregates.
type StreakService struct {
	tx       Transactor
	totals   DailyTotalStore
	activity ActivityStore
	now      func() time.Time
	logger   *slog.Logger
}

// NewStreakService wires dependencies for the streak service.
func NewStreakService(tx Transactor, totals DailyTotalStore, activity ActivityStore, now func() time.Time) *StreakService {
	return NewStreakServiceWithLogger(tx, totals, activity, now, nil)
}

// NewStreakServiceWithLogger wires dependencies and a base logger.
func NewStreakServiceWithLogger(tx Transactor, totals DailyTotalStore, activity ActivityStore, now func() time.Time, logger *slog.Logger) *StreakService {
	if tx == nil {
		tx = inlineTransactor{}
	}
	if now == nil {
		now = time.Now
	}
	return &StreakService{tx: tx, totals: totals, activity: activity, now: now, logger: defaultLogger(logger)}
}

func (s *StreakService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StreakService", operation, attrs...)
}

// GetStreak returns the stored streak of the calling user.
func (s *StreakService) GetStreak(ctx context.Context, principal Principal) (StreakState, error) {
	if s == nil {
		return StreakState{}, fmt.Errorf("StreakService is nil")
	}
	if s.activity == nil {
		return StreakState{}, fmt.Errorf("activity store not configured")
	}
	if principal.UserID == "" {
		return StreakState{}, ErrUnauthenticated
	}

	activity, err := s.activity.GetActivity(ctx, principal.UserID)
	if err != nil {
		s.loggerWith(ctx, "GetStreak", "user_id", principal.UserID).ErrorContext(ctx, "failed to load streak", "error", err, "error_kind", ErrorKind(err))
		return StreakState{}, err
	}
	return activity.Streak, nil
}

// Rebuild recomputes the streak of userID from its daily aggregate rows and
// stores the result. It is the repair path for state that drifted from the
// aggregates.
func (s *StreakService) Rebuild(ctx context.Context, userID string) (state StreakState, err error) {
	if s == nil {
		err = fmt.Errorf("StreakService is nil")
		return
	}
	if s.activity == nil || s.totals == nil {
		err = fmt.Errorf("streak stores not configured")
		return
	}

	logger := s.loggerWith(ctx, "Rebuild", "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "streak rebuild failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "streak rebuilt", "current", state.Current, "longest", state.Longest, "last_day", state.LastDay)
	}()

	err = s.tx.Within(ctx, func(ctx context.Context) error {
		activity, err := s.activity.GetActivity(ctx, userID)
		if err != nil {
			return err
		}
		rows, err := s.totals.FocusDays(ctx, userID)
		if err != nil {
			return err
		}
		days := make([]string, 0, len(rows))
		for _, row := range rows {
			if row.FocusSeconds > 0 {
				days = append(days, row.Day)
			}
		}
		state = DeriveStreak(days)
		return s.activity.SaveStreak(ctx, userID, state, activity.Version, s.now().UTC())
	})
	if err != nil {
		state = StreakState{}
	}
	return
}
