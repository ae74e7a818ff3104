package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/focus-ledger/internal/calendar"
)

// PresenceWindows bounds the Recently Active and Inactive classifications.
type PresenceWindows struct {
	Recent   time.Duration
	Inactive time.Duration
}

// DefaultPresenceWindows are five minutes and thirty days.
var DefaultPresenceWindows = PresenceWindows{
	Recent:   5 * time.Minute,
	Inactive: 30 * 24 * time.Hour,
}

// ClassifyPresence derives the liveness status from stored presence fields.
// Boundaries are inclusive: exactly Recent elapsed is still Recently Active.
func ClassifyPresence(state PresenceState, now time.Time, windows PresenceWindows) PresenceStatus {
	if windows.Recent <= 0 {
		windows.Recent = DefaultPresenceWindows.Recent
	}
	if windows.Inactive <= 0 {
		windows.Inactive = DefaultPresenceWindows.Inactive
	}

	if state.Running {
		return StatusActive
	}
	if state.LastPingAt == nil || state.LastPingAt.IsZero() {
		return StatusDormant
	}

	elapsed := now.Sub(*state.LastPingAt)
	switch {
	case elapsed <= windows.Recent:
		return StatusRecentlyActive
	case elapsed <= windows.Inactive:
		return StatusInactive
	default:
		return StatusDormant
	}
}

// PresenceService records timer start, heartbeat and stop events.
type PresenceService struct {
	activity ActivityStore
	bucketer calendar.Bucketer
	windows  PresenceWindows
	now      func() time.Time
	logger   *slog.Logger
}

// NewPresenceService wires dependencies for the presence service.
func NewPresenceService(activity ActivityStore, bucketer calendar.Bucketer, windows PresenceWindows, now func() time.Time) *PresenceService {
	return NewPresenceServiceWithLogger(activity, bucketer, windows, now, nil)
}

// NewPresenceServiceWithLogger wires dependencies and a base logger.
func NewPresenceServiceWithLogger(activity ActivityStore, bucketer calendar.Bucketer, windows PresenceWindows, now func() time.Time, logger *slog.Logger) *PresenceService {
	if now == nil {
		now = time.Now
	}
	return &PresenceService{activity: activity, bucketer: bucketer, windows: windows, now: now, logger: defaultLogger(logger)}
}

// Start marks the timer as running.
func (s *PresenceService) Start(ctx context.Context, principal Principal) (PresenceState, error) {
	return s.record(ctx, principal, PresenceStart)
}

// Heartbeat refreshes the liveness timestamp of a running timer.
func (s *PresenceService) Heartbeat(ctx context.Context, principal Principal) (PresenceState, error) {
	return s.record(ctx, principal, PresenceHeartbeat)
}

// Stop marks the timer as stopped.
func (s *PresenceService) Stop(ctx context.Context, principal Principal) (PresenceState, error) {
	return s.record(ctx, principal, PresenceStop)
}

// Status classifies a presence state against the service clock.
func (s *PresenceService) Status(state PresenceState) PresenceStatus {
	return ClassifyPresence(state, s.now(), s.windows)
}

func (s *PresenceService) record(ctx context.Context, principal Principal, event PresenceEvent) (state PresenceState, err error) {
	if s == nil {
		err = fmt.Errorf("PresenceService is nil")
		return
	}
	if s.activity == nil {
		err = fmt.Errorf("activity store not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "PresenceService", string(event), "user_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "presence update failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "presence updated", "running", state.Running)
	}()

	if principal.UserID == "" {
		err = ErrUnauthenticated
		return
	}

	now := s.now().UTC()
	state, err = s.activity.RecordPresence(ctx, principal.UserID, event, now, s.bucketer.Day(now))
	return
}
