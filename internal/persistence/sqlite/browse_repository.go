package sqlite

import (
	"context"
	"time"

	"github.com/example/focus-ledger/internal/persistence"
)

const browseColumns = `user_id, domain, visit_count, first_seen_at, last_visited_at`

// BrowseStatRepository counts domain visits per user.
type BrowseStatRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBrowseStatRepository creates a new SQLite browse repository
func NewBrowseStatRepository(pool *ConnectionPool) *BrowseStatRepository {
	return &BrowseStatRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// RecordVisit creates or increments the (user, domain) counter in one statement.
// A late ping never moves last_visited_at backwards.
func (r *BrowseStatRepository) RecordVisit(ctx context.Context, userID, domain string, visitedAt time.Time) (persistence.BrowseStat, error) {
	if userID == "" || domain == "" {
		return persistence.BrowseStat{}, persistence.ErrConstraintViolation
	}

	stamp := formatTime(visitedAt)
	stat, err := scanBrowseStat(r.helper.QueryRow(ctx, `
		INSERT INTO browse_stats (user_id, domain, visit_count, first_seen_at, last_visited_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(user_id, domain) DO UPDATE
		SET visit_count = browse_stats.visit_count + 1,
		    last_visited_at = MAX(browse_stats.last_visited_at, excluded.last_visited_at)
		RETURNING `+browseColumns, userID, domain, stamp, stamp))
	if err != nil {
		return persistence.BrowseStat{}, r.mapper.MapError(err)
	}
	return stat, nil
}

// TopDomains orders by visit count, then by most recent visit.
func (r *BrowseStatRepository) TopDomains(ctx context.Context, userID string, limit int) ([]persistence.BrowseStat, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.helper.Query(ctx, `
		SELECT `+browseColumns+`
		FROM browse_stats
		WHERE user_id = ?
		ORDER BY visit_count DESC, last_visited_at DESC, domain
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var stats []persistence.BrowseStat
	for rows.Next() {
		stat, err := scanBrowseStat(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return stats, nil
}

// LastDomain returns the most recently visited domain of a user.
func (r *BrowseStatRepository) LastDomain(ctx context.Context, userID string) (persistence.BrowseStat, error) {
	stat, err := scanBrowseStat(r.helper.QueryRow(ctx, `
		SELECT `+browseColumns+`
		FROM browse_stats
		WHERE user_id = ?
		ORDER BY last_visited_at DESC, domain
		LIMIT 1
	`, userID))
	if err != nil {
		return persistence.BrowseStat{}, r.mapper.MapError(err)
	}
	return stat, nil
}

func scanBrowseStat(row rowScanner) (persistence.BrowseStat, error) {
	var stat persistence.BrowseStat
	var firstSeen, lastVisited string
	if err := row.Scan(&stat.UserID, &stat.Domain, &stat.VisitCount, &firstSeen, &lastVisited); err != nil {
		return persistence.BrowseStat{}, err
	}

	var err error
	if stat.FirstSeenAt, err = parseTime(firstSeen); err != nil {
		return persistence.BrowseStat{}, err
	}
	if stat.LastVisitedAt, err = parseTime(lastVisited); err != nil {
		return persistence.BrowseStat{}, err
	}
	return stat, nil
}
