package application

import (
	"sort"

	"github.com/example/focus-ledger/internal/calendar"
)

// AdvanceStreak applies one qualifying day to the streak state. The boolean
// reports whether the state changed; a second session on the same day is a
// no-op. Days are YYYY-MM-DD labels; a malformed LastDay is treated as a gap.
func AdvanceStreak(state StreakState, today string) (StreakState, bool) {
	if state.LastDay == today {
		return state, false
	}

	next := state
	next.LastDay = today

	if state.LastDay != "" {
		if gap, err := calendar.DaysBetween(state.LastDay, today); err == nil && gap == 1 {
			next.Current = state.Current + 1
			if next.Longest < next.Current {
				next.Longest = next.Current
			}
			return next, true
		}
	}

	next.Current = 1
	if next.Longest < 1 {
		next.Longest = 1
	}
	return next, true
}

// DeriveStreak recomputes the streak from the set of days that hold a daily
// aggregate. It agrees with the incremental state as long as every aggregate
// day was fed to AdvanceStreak in order.
func DeriveStreak(days []string) StreakState {
	sorted := append([]string(nil), days...)
	sort.Strings(sorted)

	var state StreakState
	for _, day := range sorted {
		state, _ = AdvanceStreak(state, day)
	}
	return state
}
