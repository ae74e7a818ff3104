package sqlite

import (
	"context"

	"github.com/example/focus-ledger/internal/persistence"
)

// FocusSessionRepository appends to and reads the session ledger.
type FocusSessionRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewFocusSessionRepository creates a new SQLite ledger repository
func NewFocusSessionRepository(pool *ConnectionPool) *FocusSessionRepository {
	return &FocusSessionRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// AppendSession inserts one immutable ledger row.
func (r *FocusSessionRepository) AppendSession(ctx context.Context, session persistence.FocusSession) error {
	if session.ID == "" || session.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO focus_sessions (id, user_id, kind, duration_seconds, completed_at, completed_day, completed_hour, completed_weekday)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID,
		session.UserID,
		session.Kind,
		session.DurationSeconds,
		formatTime(session.CompletedAt),
		session.Day,
		session.Hour,
		session.Weekday,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// ListRecentSessions returns the newest sessions of a user first.
func (r *FocusSessionRepository) ListRecentSessions(ctx context.Context, userID string, limit int) ([]persistence.FocusSession, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.helper.Query(ctx, `
		SELECT id, user_id, kind, duration_seconds, completed_at, completed_day, completed_hour, completed_weekday
		FROM focus_sessions
		WHERE user_id = ?
		ORDER BY completed_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var sessions []persistence.FocusSession
	for rows.Next() {
		var s persistence.FocusSession
		var completedAt string
		if err := rows.Scan(&s.ID, &s.UserID, &s.Kind, &s.DurationSeconds, &completedAt, &s.Day, &s.Hour, &s.Weekday); err != nil {
			return nil, err
		}
		if s.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return sessions, nil
}
