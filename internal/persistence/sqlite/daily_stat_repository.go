package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/example/focus-ledger/internal/persistence"
)

// DailyStatRepository maintains per-day focus totals.
type DailyStatRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
	now    func() time.Time
}

// NewDailyStatRepository creates a new SQLite aggregate repository
func NewDailyStatRepository(pool *ConnectionPool) *DailyStatRepository {
	return &DailyStatRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// AddFocusSeconds creates or increments the (user, day) row in one statement.
func (r *DailyStatRepository) AddFocusSeconds(ctx context.Context, userID, day string, seconds int64) (int64, error) {
	if seconds <= 0 {
		return 0, persistence.ErrConstraintViolation
	}

	var total int64
	err := r.helper.QueryRow(ctx, `
		INSERT INTO daily_stats (user_id, day, focus_seconds, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE
		SET focus_seconds = daily_stats.focus_seconds + excluded.focus_seconds,
		    updated_at = excluded.updated_at
		RETURNING focus_seconds
	`, userID, day, seconds, formatTime(r.now())).Scan(&total)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return total, nil
}

// ListDailyStats returns rows within [fromDay, toDay] in ascending day order.
// An empty bound leaves that side open.
func (r *DailyStatRepository) ListDailyStats(ctx context.Context, userID, fromDay, toDay string) ([]persistence.DailyStat, error) {
	var query strings.Builder
	query.WriteString(`SELECT user_id, day, focus_seconds, updated_at FROM daily_stats WHERE user_id = ?`)
	args := []any{userID}
	if fromDay != "" {
		query.WriteString(` AND day >= ?`)
		args = append(args, fromDay)
	}
	if toDay != "" {
		query.WriteString(` AND day <= ?`)
		args = append(args, toDay)
	}
	query.WriteString(` ORDER BY day`)

	rows, err := r.helper.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var stats []persistence.DailyStat
	for rows.Next() {
		var stat persistence.DailyStat
		var updatedAt string
		if err := rows.Scan(&stat.UserID, &stat.Day, &stat.FocusSeconds, &updatedAt); err != nil {
			return nil, err
		}
		if stat.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return stats, nil
}
