package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const maxDomainLength = 253

// BrowseRepository counts domain visits per user.
type BrowseRepository interface {
	// RecordVisit atomically creates or increments the (user, domain) counter.
	RecordVisit(ctx context.Context, userID, domain string, visitedAt time.Time) (BrowseStat, error)
}

// BrowseService records browsing pings sent by the companion extension.
type BrowseService struct {
	visits BrowseRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewBrowseService wires dependencies for the browse service.
func NewBrowseService(visits BrowseRepository, now func() time.Time, logger *slog.Logger) *BrowseService {
	if now == nil {
		now = time.Now
	}
	return &BrowseService{visits: visits, now: now, logger: defaultLogger(logger)}
}

// RecordPing counts one visit to domain. A nil visitedAt means now.
func (s *BrowseService) RecordPing(ctx context.Context, principal Principal, domain string, visitedAt *time.Time) (stat BrowseStat, err error) {
	if s == nil {
		err = fmt.Errorf("BrowseService is nil")
		return
	}
	if s.visits == nil {
		err = fmt.Errorf("browse repository not configured")
		return
	}
	if principal.UserID == "" {
		err = ErrUnauthenticated
		return
	}

	domain = normalizeDomain(domain)
	logger := serviceLogger(ctx, s.logger, "BrowseService", "RecordPing", "user_id", principal.UserID, "domain", domain)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "browse ping not recorded", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	switch {
	case domain == "":
		err = fieldError("domain", "domain is required", nil)
		return
	case len(domain) > maxDomainLength || strings.ContainsAny(domain, " /\\"):
		err = fieldError("domain", "domain is invalid", nil)
		return
	}

	at := s.now().UTC()
	if visitedAt != nil && !visitedAt.IsZero() {
		at = visitedAt.UTC()
	}

	stat, err = s.visits.RecordVisit(ctx, principal.UserID, domain, at)
	return
}

func normalizeDomain(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
