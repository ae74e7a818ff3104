package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/focus-ledger/internal/persistence"
)

const activityColumns = `id, current_streak, longest_streak, streak_day, pomodoro_running,
	pomodoro_started_at, last_pomodoro_at, last_active_day, version`

// ActivityRepository reads and writes the streak and presence columns of users.
type ActivityRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewActivityRepository creates a new SQLite activity repository
func NewActivityRepository(pool *ConnectionPool) *ActivityRepository {
	return &ActivityRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// GetActivity returns the activity columns of a user.
func (r *ActivityRepository) GetActivity(ctx context.Context, userID string) (persistence.Activity, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+activityColumns+` FROM users WHERE id = ?`, userID)
	activity, err := scanActivity(row)
	if err != nil {
		return persistence.Activity{}, r.mapper.MapError(err)
	}
	return activity, nil
}

// SaveStreak writes the streak columns guarded by the version column.
func (r *ActivityRepository) SaveStreak(ctx context.Context, userID string, current, longest int, day string, expectedVersion int64, at time.Time) error {
	result, err := r.helper.Exec(ctx, `
		UPDATE users
		SET current_streak = ?, longest_streak = ?, streak_day = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, current, longest, day, formatTime(at), userID, expectedVersion)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	var exists int
	if err := r.helper.QueryRow(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists); err != nil {
		return r.mapper.MapError(err)
	}
	return persistence.ErrConflict
}

// RecordPresence applies a presence transition in one statement and returns
// the resulting row.
func (r *ActivityRepository) RecordPresence(ctx context.Context, userID string, event persistence.PresenceEvent, at time.Time, day string) (persistence.Activity, error) {
	var query string
	var args []any
	stamp := formatTime(at)

	switch event {
	case persistence.PresenceStart:
		query = `UPDATE users SET pomodoro_running = 1, pomodoro_started_at = ?, last_pomodoro_at = ?, last_active_day = ?
			WHERE id = ? RETURNING ` + activityColumns
		args = []any{stamp, stamp, day, userID}
	case persistence.PresenceHeartbeat:
		query = `UPDATE users SET pomodoro_running = 1, last_pomodoro_at = ?, last_active_day = ?
			WHERE id = ? RETURNING ` + activityColumns
		args = []any{stamp, day, userID}
	case persistence.PresenceStop:
		query = `UPDATE users SET pomodoro_running = 0, pomodoro_started_at = NULL, last_pomodoro_at = ?, last_active_day = ?
			WHERE id = ? RETURNING ` + activityColumns
		args = []any{stamp, day, userID}
	default:
		return persistence.Activity{}, fmt.Errorf("%w: unknown presence event %q", persistence.ErrConstraintViolation, event)
	}

	activity, err := scanActivity(r.helper.QueryRow(ctx, query, args...))
	if err != nil {
		return persistence.Activity{}, r.mapper.MapError(err)
	}
	return activity, nil
}

func scanActivity(row rowScanner) (persistence.Activity, error) {
	var activity persistence.Activity
	var running int
	var startedAt, lastPingAt sql.NullString
	if err := row.Scan(
		&activity.UserID,
		&activity.CurrentStreak,
		&activity.LongestStreak,
		&activity.StreakDay,
		&running,
		&startedAt,
		&lastPingAt,
		&activity.LastActiveDay,
		&activity.Version,
	); err != nil {
		return persistence.Activity{}, err
	}

	activity.Running = running != 0
	var err error
	if activity.StartedAt, err = parseNullableTime(startedAt); err != nil {
		return persistence.Activity{}, err
	}
	if activity.LastPingAt, err = parseNullableTime(lastPingAt); err != nil {
		return persistence.Activity{}, err
	}
	return activity, nil
}
