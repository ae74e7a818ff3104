package application

import "math"

// MaxSessionSeconds caps a single ledger entry at twelve hours.
const MaxSessionSeconds = 12 * 60 * 60

// NormalizeDuration converts a client reported duration, always in seconds,
// into whole seconds. The value is rounded before the bounds check, so
// 43200.4 is accepted as 43200 while 0.4 is rejected.
func NormalizeDuration(raw float64) (int64, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, ErrInvalidDuration
	}
	rounded := math.Round(raw)
	if rounded <= 0 || rounded > MaxSessionSeconds {
		return 0, ErrInvalidDuration
	}
	return int64(rounded), nil
}

func durationMessage(raw float64) string {
	switch {
	case math.IsNaN(raw) || math.IsInf(raw, 0):
		return "duration must be a finite number of seconds"
	case math.Round(raw) <= 0:
		return "duration must be positive"
	default:
		return "duration must not exceed 43200 seconds"
	}
}
