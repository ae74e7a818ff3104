package application

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"
)

// memStore backs the ledger, aggregate and activity interfaces in memory.
// Within serializes callers and restores a snapshot when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	sessions []FocusSession
	totals   map[string]map[string]int64
	activity map[string]Activity

	appendErr   error
	addErr      error
	saveErr     error
	presenceErr error
	getErr      error
}

func newMemStore() *memStore {
	return &memStore{
		totals:   make(map[string]map[string]int64),
		activity: make(map[string]Activity),
	}
}

func (m *memStore) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	sessions := append([]FocusSession(nil), m.sessions...)
	totals := make(map[string]map[string]int64, len(m.totals))
	for user, days := range m.totals {
		copied := make(map[string]int64, len(days))
		for day, v := range days {
			copied[day] = v
		}
		totals[user] = copied
	}
	activity := make(map[string]Activity, len(m.activity))
	for k, v := range m.activity {
		activity[k] = v
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.sessions, m.totals, m.activity = sessions, totals, activity
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) AppendSession(ctx context.Context, session FocusSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.sessions = append(m.sessions, session)
	return nil
}

func (m *memStore) AddFocusSeconds(ctx context.Context, userID, day string, seconds int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return 0, m.addErr
	}
	if m.totals[userID] == nil {
		m.totals[userID] = make(map[string]int64)
	}
	m.totals[userID][day] += seconds
	return m.totals[userID][day], nil
}

func (m *memStore) FocusRange(ctx context.Context, userID, fromDay, toDay string) ([]DailyTotal, error) {
	rows, _ := m.FocusDays(ctx, userID)
	out := rows[:0]
	for _, row := range rows {
		if row.Day >= fromDay && row.Day <= toDay {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memStore) FocusDays(ctx context.Context, userID string) ([]DailyTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DailyTotal
	for day, v := range m.totals[userID] {
		out = append(out, DailyTotal{Day: day, FocusSeconds: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (m *memStore) GetActivity(ctx context.Context, userID string) (Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return Activity{}, m.getErr
	}
	a, ok := m.activity[userID]
	if !ok {
		return Activity{}, ErrNotFound
	}
	return a, nil
}

func (m *memStore) SaveStreak(ctx context.Context, userID string, streak StreakState, expectedVersion int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	a, ok := m.activity[userID]
	if !ok {
		return ErrNotFound
	}
	if a.Version != expectedVersion {
		return ErrConflict
	}
	a.Streak = streak
	a.Version++
	m.activity[userID] = a
	return nil
}

func (m *memStore) RecordPresence(ctx context.Context, userID string, event PresenceEvent, at time.Time, day string) (PresenceState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.presenceErr != nil {
		return PresenceState{}, m.presenceErr
	}
	a, ok := m.activity[userID]
	if !ok {
		return PresenceState{}, ErrNotFound
	}
	ts := at
	switch event {
	case PresenceStart:
		a.Presence.Running = true
		a.Presence.StartedAt = &ts
	case PresenceStop:
		a.Presence.Running = false
		a.Presence.StartedAt = nil
	}
	a.Presence.LastPingAt = &ts
	a.Presence.LastActiveDay = day
	m.activity[userID] = a
	return a.Presence, nil
}

func (m *memStore) addUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity[id] = Activity{UserID: id}
}

func (m *memStore) setTotal(userID, day string, seconds int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.totals[userID] == nil {
		m.totals[userID] = make(map[string]int64)
	}
	m.totals[userID][day] = seconds
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}
