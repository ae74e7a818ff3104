package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/focus-ledger/internal/persistence"
)

const userSummaryQuery = `
	SELECT u.id, u.provider_id, u.email, u.name, u.photo_url, u.created_at, u.updated_at,
	       u.current_streak, u.longest_streak, u.streak_day, u.pomodoro_running,
	       u.pomodoro_started_at, u.last_pomodoro_at, u.last_active_day, u.version,
	       COALESCE(s.sessions, 0), COALESCE(s.focus_seconds, 0), COALESCE(s.break_seconds, 0),
	       COALESCE(s.avg_focus, 0.0), COALESCE(d.active_days, 0), s.first_at, s.last_at
	FROM users u
	LEFT JOIN (
		SELECT user_id,
		       COUNT(*) AS sessions,
		       SUM(CASE WHEN kind = 'focus' THEN duration_seconds ELSE 0 END) AS focus_seconds,
		       SUM(CASE WHEN kind = 'break' THEN duration_seconds ELSE 0 END) AS break_seconds,
		       AVG(CASE WHEN kind = 'focus' THEN duration_seconds END) AS avg_focus,
		       MIN(completed_at) AS first_at,
		       MAX(completed_at) AS last_at
		FROM focus_sessions
		GROUP BY user_id
	) s ON s.user_id = u.id
	LEFT JOIN (
		SELECT user_id, COUNT(*) AS active_days FROM daily_stats GROUP BY user_id
	) d ON d.user_id = u.id
`

// AdminRepository answers the aggregate queries of the admin dashboard.
type AdminRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAdminRepository creates a new SQLite admin query repository
func NewAdminRepository(pool *ConnectionPool) *AdminRepository {
	return &AdminRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CountUsers returns the number of registered users.
func (r *AdminRepository) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`)
}

// CountUsersActiveSince counts users whose last active day is on or after day.
func (r *AdminRepository) CountUsersActiveSince(ctx context.Context, day string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users WHERE last_active_day != '' AND last_active_day >= ?`, day)
}

// CountUsersCreatedSince counts users created at or after since.
func (r *AdminRepository) CountUsersCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users WHERE created_at >= ?`, formatTime(since))
}

// SessionTotals aggregates the whole ledger.
func (r *AdminRepository) SessionTotals(ctx context.Context) (persistence.SessionTotals, error) {
	var totals persistence.SessionTotals
	err := r.helper.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN kind = 'focus' THEN duration_seconds ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN kind = 'break' THEN duration_seconds ELSE 0 END), 0),
		       COALESCE(AVG(CASE WHEN kind = 'focus' THEN duration_seconds END), 0.0)
		FROM focus_sessions
	`).Scan(&totals.Sessions, &totals.FocusSeconds, &totals.BreakSeconds, &totals.AvgFocusSeconds)
	if err != nil {
		return persistence.SessionTotals{}, r.mapper.MapError(err)
	}
	return totals, nil
}

// SessionsByHour counts sessions per local hour. Hours without sessions are absent.
func (r *AdminRepository) SessionsByHour(ctx context.Context) ([]persistence.HourCount, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT completed_hour, COUNT(*) FROM focus_sessions GROUP BY completed_hour ORDER BY completed_hour
	`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var counts []persistence.HourCount
	for rows.Next() {
		var c persistence.HourCount
		if err := rows.Scan(&c.Hour, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, r.mapper.MapError(rows.Err())
}

// SessionsByWeekday counts sessions per local weekday with their average length.
func (r *AdminRepository) SessionsByWeekday(ctx context.Context) ([]persistence.WeekdayCount, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT completed_weekday, COUNT(*), AVG(duration_seconds)
		FROM focus_sessions
		GROUP BY completed_weekday
		ORDER BY completed_weekday
	`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var counts []persistence.WeekdayCount
	for rows.Next() {
		var c persistence.WeekdayCount
		if err := rows.Scan(&c.Weekday, &c.Count, &c.AvgSeconds); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, r.mapper.MapError(rows.Err())
}

// KindDistribution tallies sessions per kind.
func (r *AdminRepository) KindDistribution(ctx context.Context) ([]persistence.KindCount, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT kind, COUNT(*), SUM(duration_seconds) FROM focus_sessions GROUP BY kind ORDER BY kind
	`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var counts []persistence.KindCount
	for rows.Next() {
		var c persistence.KindCount
		if err := rows.Scan(&c.Kind, &c.Count, &c.TotalSeconds); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, r.mapper.MapError(rows.Err())
}

// SessionsPerDay tallies every session per local day from fromDay on.
func (r *AdminRepository) SessionsPerDay(ctx context.Context, fromDay string) ([]persistence.DayCount, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT completed_day, COUNT(*), SUM(duration_seconds)
		FROM focus_sessions
		WHERE completed_day >= ?
		GROUP BY completed_day
		ORDER BY completed_day
	`, fromDay)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var counts []persistence.DayCount
	for rows.Next() {
		var c persistence.DayCount
		if err := rows.Scan(&c.Day, &c.Count, &c.TotalSeconds); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, r.mapper.MapError(rows.Err())
}

// UserSummaries joins every user with its ledger and aggregate counts.
func (r *AdminRepository) UserSummaries(ctx context.Context) ([]persistence.UserSummary, error) {
	rows, err := r.helper.Query(ctx, userSummaryQuery+` ORDER BY u.email`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var summaries []persistence.UserSummary
	for rows.Next() {
		summary, err := scanUserSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, r.mapper.MapError(rows.Err())
}

// UserSummary returns the summary of one user.
func (r *AdminRepository) UserSummary(ctx context.Context, userID string) (persistence.UserSummary, error) {
	summary, err := scanUserSummary(r.helper.QueryRow(ctx, userSummaryQuery+` WHERE u.id = ?`, userID))
	if err != nil {
		return persistence.UserSummary{}, r.mapper.MapError(err)
	}
	return summary, nil
}

func (r *AdminRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.helper.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, r.mapper.MapError(err)
	}
	return n, nil
}

func scanUserSummary(row rowScanner) (persistence.UserSummary, error) {
	var s persistence.UserSummary
	var createdAt, updatedAt string
	var running int
	var startedAt, lastPingAt, firstAt, lastAt sql.NullString
	if err := row.Scan(
		&s.User.ID, &s.User.ProviderID, &s.User.Email, &s.User.Name, &s.User.PhotoURL, &createdAt, &updatedAt,
		&s.Activity.CurrentStreak, &s.Activity.LongestStreak, &s.Activity.StreakDay, &running,
		&startedAt, &lastPingAt, &s.Activity.LastActiveDay, &s.Activity.Version,
		&s.Sessions, &s.FocusSeconds, &s.BreakSeconds, &s.AvgFocusSeconds, &s.ActiveDays, &firstAt, &lastAt,
	); err != nil {
		return persistence.UserSummary{}, err
	}

	s.Activity.UserID = s.User.ID
	s.Activity.Running = running != 0

	var err error
	if s.User.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.UserSummary{}, err
	}
	if s.User.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.UserSummary{}, err
	}
	for _, field := range []struct {
		dst **time.Time
		raw sql.NullString
	}{
		{&s.Activity.StartedAt, startedAt},
		{&s.Activity.LastPingAt, lastPingAt},
		{&s.FirstSessionAt, firstAt},
		{&s.LastSessionAt, lastAt},
	} {
		if *field.dst, err = parseNullableTime(field.raw); err != nil {
			return persistence.UserSummary{}, err
		}
	}
	return s, nil
}
