package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/focus-ledger/internal/application"
	"github.com/example/focus-ledger/internal/persistence"
)

// translateError maps persistence sentinels onto the application taxonomy.
// Errors that already carry an application sentinel pass through unchanged.
func translateError(err error) error {
	if err == nil || isApplicationError(err) {
		return err
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound), errors.Is(err, persistence.ErrReferenceNotFound):
		return fmt.Errorf("%w: %w", application.ErrNotFound, err)
	case errors.Is(err, persistence.ErrAlreadyExists):
		return fmt.Errorf("%w: %w", application.ErrAlreadyExists, err)
	case errors.Is(err, persistence.ErrConflict):
		return fmt.Errorf("%w: %w", application.ErrConflict, err)
	case errors.Is(err, persistence.ErrUnavailable):
		return fmt.Errorf("%w: %w", application.ErrStorageUnavailable, err)
	}
	return err
}

func isApplicationError(err error) bool {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return true
	}
	for _, sentinel := range []error{
		application.ErrNotFound,
		application.ErrAlreadyExists,
		application.ErrConflict,
		application.ErrStorageUnavailable,
		application.ErrUnauthenticated,
		application.ErrUnauthorized,
		application.ErrCodeAlreadyUsed,
		application.ErrCodeExpired,
		application.ErrInvalidCredentials,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

type transactorAdapter struct {
	tx persistence.Transactor
}

func (a transactorAdapter) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	return translateError(a.tx.Within(ctx, fn))
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.User{}, translateError(err)
	}
	return a.GetUser(ctx, user.ID)
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.User{}, translateError(err)
	}
	return a.GetUser(ctx, user.ID)
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, translateError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByEmail(ctx context.Context, email string) (application.User, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, translateError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByProviderID(ctx context.Context, providerID string) (application.User, error) {
	stored, err := a.repo.GetUserByProviderID(ctx, providerID)
	if err != nil {
		return application.User{}, translateError(err)
	}
	return toApplicationUser(stored), nil
}

type ledgerAdapter struct {
	repo persistence.FocusSessionRepository
}

func (a ledgerAdapter) AppendSession(ctx context.Context, session application.FocusSession) error {
	return translateError(a.repo.AppendSession(ctx, toPersistenceSession(session)))
}

type dailyTotalAdapter struct {
	repo persistence.DailyStatRepository
}

func (a dailyTotalAdapter) AddFocusSeconds(ctx context.Context, userID, day string, seconds int64) (int64, error) {
	total, err := a.repo.AddFocusSeconds(ctx, userID, day, seconds)
	return total, translateError(err)
}

func (a dailyTotalAdapter) FocusRange(ctx context.Context, userID, fromDay, toDay string) ([]application.DailyTotal, error) {
	return a.list(ctx, userID, fromDay, toDay)
}

func (a dailyTotalAdapter) FocusDays(ctx context.Context, userID string) ([]application.DailyTotal, error) {
	return a.list(ctx, userID, "", "")
}

func (a dailyTotalAdapter) list(ctx context.Context, userID, fromDay, toDay string) ([]application.DailyTotal, error) {
	stats, err := a.repo.ListDailyStats(ctx, userID, fromDay, toDay)
	if err != nil {
		return nil, translateError(err)
	}
	totals := make([]application.DailyTotal, 0, len(stats))
	for _, stat := range stats {
		totals = append(totals, application.DailyTotal{Day: stat.Day, FocusSeconds: stat.FocusSeconds})
	}
	return totals, nil
}

type activityAdapter struct {
	repo persistence.ActivityRepository
}

func (a activityAdapter) GetActivity(ctx context.Context, userID string) (application.Activity, error) {
	stored, err := a.repo.GetActivity(ctx, userID)
	if err != nil {
		return application.Activity{}, translateError(err)
	}
	return toApplicationActivity(stored), nil
}

func (a activityAdapter) SaveStreak(ctx context.Context, userID string, streak application.StreakState, expectedVersion int64, at time.Time) error {
	return translateError(a.repo.SaveStreak(ctx, userID, streak.Current, streak.Longest, streak.LastDay, expectedVersion, at))
}

func (a activityAdapter) RecordPresence(ctx context.Context, userID string, event application.PresenceEvent, at time.Time, day string) (application.PresenceState, error) {
	stored, err := a.repo.RecordPresence(ctx, userID, persistence.PresenceEvent(event), at, day)
	if err != nil {
		return application.PresenceState{}, translateError(err)
	}
	return toApplicationActivity(stored).Presence, nil
}

type authSessionAdapter struct {
	repo persistence.SessionRepository
}

func (a authSessionAdapter) CreateSession(ctx context.Context, session application.AuthSession) (application.AuthSession, error) {
	stored, err := a.repo.CreateSession(ctx, persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	})
	if err != nil {
		return application.AuthSession{}, translateError(err)
	}
	return toApplicationAuthSession(stored), nil
}

func (a authSessionAdapter) GetSession(ctx context.Context, token string) (application.AuthSession, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.AuthSession{}, translateError(err)
	}
	return toApplicationAuthSession(stored), nil
}

func (a authSessionAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.AuthSession, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.AuthSession{}, translateError(err)
	}
	return toApplicationAuthSession(stored), nil
}

func (a authSessionAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return translateError(a.repo.DeleteExpiredSessions(ctx, reference))
}

type loginCodeAdapter struct {
	repo persistence.LoginCodeRepository
}

func (a loginCodeAdapter) CreateLoginCode(ctx context.Context, code application.LoginCode) error {
	return translateError(a.repo.CreateLoginCode(ctx, persistence.LoginCode{
		ID:         code.ID,
		UserID:     code.UserID,
		SecretHash: code.SecretHash,
		ExpiresAt:  code.ExpiresAt,
		CreatedAt:  code.CreatedAt,
		UsedAt:     cloneTime(code.UsedAt),
	}))
}

func (a loginCodeAdapter) GetLoginCode(ctx context.Context, id string) (application.LoginCode, error) {
	stored, err := a.repo.GetLoginCode(ctx, id)
	if err != nil {
		return application.LoginCode{}, translateError(err)
	}
	return application.LoginCode{
		ID:         stored.ID,
		UserID:     stored.UserID,
		SecretHash: stored.SecretHash,
		ExpiresAt:  stored.ExpiresAt,
		CreatedAt:  stored.CreatedAt,
		UsedAt:     cloneTime(stored.UsedAt),
	}, nil
}

func (a loginCodeAdapter) MarkLoginCodeUsed(ctx context.Context, id string, usedAt time.Time) error {
	return translateError(a.repo.MarkLoginCodeUsed(ctx, id, usedAt))
}

type browseAdapter struct {
	repo persistence.BrowseStatRepository
}

func (a browseAdapter) RecordVisit(ctx context.Context, userID, domain string, visitedAt time.Time) (application.BrowseStat, error) {
	stored, err := a.repo.RecordVisit(ctx, userID, domain, visitedAt)
	if err != nil {
		return application.BrowseStat{}, translateError(err)
	}
	return application.BrowseStat(stored), nil
}

// adminStoreAdapter combines the admin read model with the per-user ledger
// and browse queries used by the drill-down.
type adminStoreAdapter struct {
	queries persistence.AdminQueries
	ledger  persistence.FocusSessionRepository
	browse  persistence.BrowseStatRepository
}

func (a adminStoreAdapter) CountUsers(ctx context.Context) (int64, error) {
	n, err := a.queries.CountUsers(ctx)
	return n, translateError(err)
}

func (a adminStoreAdapter) CountUsersActiveSince(ctx context.Context, day string) (int64, error) {
	n, err := a.queries.CountUsersActiveSince(ctx, day)
	return n, translateError(err)
}

func (a adminStoreAdapter) CountUsersCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	n, err := a.queries.CountUsersCreatedSince(ctx, since)
	return n, translateError(err)
}

func (a adminStoreAdapter) UsersCreatedSince(ctx context.Context, since time.Time) ([]application.User, error) {
	stored, err := a.queries.ListUsersCreatedSince(ctx, since)
	if err != nil {
		return nil, translateError(err)
	}
	users := make([]application.User, 0, len(stored))
	for _, user := range stored {
		users = append(users, toApplicationUser(user))
	}
	return users, nil
}

func (a adminStoreAdapter) SessionTotals(ctx context.Context) (application.SessionTotals, error) {
	totals, err := a.queries.SessionTotals(ctx)
	if err != nil {
		return application.SessionTotals{}, translateError(err)
	}
	return application.SessionTotals(totals), nil
}

func (a adminStoreAdapter) SessionsByHour(ctx context.Context) ([]application.HourCount, error) {
	stored, err := a.queries.SessionsByHour(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]application.HourCount, 0, len(stored))
	for _, c := range stored {
		out = append(out, application.HourCount(c))
	}
	return out, nil
}

func (a adminStoreAdapter) SessionsByWeekday(ctx context.Context) ([]application.WeekdayCount, error) {
	stored, err := a.queries.SessionsByWeekday(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]application.WeekdayCount, 0, len(stored))
	for _, c := range stored {
		out = append(out, application.WeekdayCount{Weekday: time.Weekday(c.Weekday), Count: c.Count, AvgSeconds: c.AvgSeconds})
	}
	return out, nil
}

func (a adminStoreAdapter) KindDistribution(ctx context.Context) ([]application.KindCount, error) {
	stored, err := a.queries.KindDistribution(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]application.KindCount, 0, len(stored))
	for _, c := range stored {
		out = append(out, application.KindCount{Kind: application.SessionKind(c.Kind), Count: c.Count, TotalSeconds: c.TotalSeconds})
	}
	return out, nil
}

func (a adminStoreAdapter) SessionsPerDay(ctx context.Context, fromDay string) ([]application.DayCount, error) {
	stored, err := a.queries.SessionsPerDay(ctx, fromDay)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]application.DayCount, 0, len(stored))
	for _, c := range stored {
		out = append(out, application.DayCount(c))
	}
	return out, nil
}

func (a adminStoreAdapter) UserSummaries(ctx context.Context) ([]application.UserSummary, error) {
	stored, err := a.queries.UserSummaries(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]application.UserSummary, 0, len(stored))
	for _, s := range stored {
		out = append(out, toApplicationSummary(s))
	}
	return out, nil
}

func (a adminStoreAdapter) UserSummary(ctx context.Context, userID string) (application.UserSummary, error) {
	stored, err := a.queries.UserSummary(ctx, userID)
	if err != nil {
		return application.UserSummary{}, translateError(err)
	}
	return toApplicationSummary(stored), nil
}

func (a adminStoreAdapter) RecentSessions(ctx context.Context, userID string, limit int) ([]application.FocusSession, error) {
	stored, err := a.ledger.ListRecentSessions(ctx, userID, limit)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]application.FocusSession, 0, len(stored))
	for _, s := range stored {
		out = append(out, toApplicationSession(s))
	}
	return out, nil
}

func (a adminStoreAdapter) TopDomains(ctx context.Context, userID string, limit int) ([]application.BrowseStat, error) {
	stored, err := a.browse.TopDomains(ctx, userID, limit)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]application.BrowseStat, 0, len(stored))
	for _, s := range stored {
		out = append(out, application.BrowseStat(s))
	}
	return out, nil
}

func (a adminStoreAdapter) LastDomain(ctx context.Context, userID string) (application.BrowseStat, error) {
	stored, err := a.browse.LastDomain(ctx, userID)
	if err != nil {
		return application.BrowseStat{}, translateError(err)
	}
	return application.BrowseStat(stored), nil
}

func toApplicationUser(model persistence.User) application.User {
	return application.User(model)
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User(user)
}

func toApplicationActivity(model persistence.Activity) application.Activity {
	return application.Activity{
		UserID: model.UserID,
		Streak: application.StreakState{
			Current: model.CurrentStreak,
			Longest: model.LongestStreak,
			LastDay: model.StreakDay,
		},
		Presence: application.PresenceState{
			Running:       model.Running,
			StartedAt:     cloneTime(model.StartedAt),
			LastPingAt:    cloneTime(model.LastPingAt),
			LastActiveDay: model.LastActiveDay,
		},
		Version: model.Version,
	}
}

func toApplicationSession(model persistence.FocusSession) application.FocusSession {
	return application.FocusSession{
		ID:              model.ID,
		UserID:          model.UserID,
		Kind:            application.SessionKind(model.Kind),
		DurationSeconds: model.DurationSeconds,
		CompletedAt:     model.CompletedAt,
		Day:             model.Day,
		Hour:            model.Hour,
		Weekday:         time.Weekday(model.Weekday),
	}
}

func toPersistenceSession(session application.FocusSession) persistence.FocusSession {
	return persistence.FocusSession{
		ID:              session.ID,
		UserID:          session.UserID,
		Kind:            string(session.Kind),
		DurationSeconds: session.DurationSeconds,
		CompletedAt:     session.CompletedAt,
		Day:             session.Day,
		Hour:            session.Hour,
		Weekday:         int(session.Weekday),
	}
}

func toApplicationAuthSession(model persistence.Session) application.AuthSession {
	return application.AuthSession{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toApplicationSummary(model persistence.UserSummary) application.UserSummary {
	return application.UserSummary{
		User:            toApplicationUser(model.User),
		Activity:        toApplicationActivity(model.Activity),
		Sessions:        model.Sessions,
		FocusSeconds:    model.FocusSeconds,
		BreakSeconds:    model.BreakSeconds,
		AvgFocusSeconds: model.AvgFocusSeconds,
		ActiveDays:      model.ActiveDays,
		FirstSessionAt:  cloneTime(model.FirstSessionAt),
		LastSessionAt:   cloneTime(model.LastSessionAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
