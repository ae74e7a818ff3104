// Package calendar maps instants onto local calendar-day labels and performs
// arithmetic on those labels.
//
// Every bucketing decision in the service goes through this package so that a
// session, its daily aggregate and the streak evaluation agree on which day an
// instant belongs to. The zone is a fixed UTC offset; no tz database lookup is
// involved.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// DayLayout is the canonical day label format.
const DayLayout = "2006-01-02"

// DefaultOffsetMinutes is UTC+05:30.
const DefaultOffsetMinutes = 330

// ErrInvalidDay indicates a label that does not parse as YYYY-MM-DD.
var ErrInvalidDay = errors.New("calendar: invalid day label")

var ist = time.FixedZone("IST", DefaultOffsetMinutes*60)

// Zone returns a fixed zone for the given offset. The default offset reuses a
// shared location value.
func Zone(offsetMinutes int) *time.Location {
	if offsetMinutes == DefaultOffsetMinutes {
		return ist
	}
	sign := "+"
	abs := offsetMinutes
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, abs/60, abs%60), offsetMinutes*60)
}

// DayOf returns the local calendar day label for instant after shifting it by
// offsetMinutes.
func DayOf(instant time.Time, offsetMinutes int) string {
	return instant.In(Zone(offsetMinutes)).Format(DayLayout)
}

// Bucketer assigns instants to local days, hours and weekdays for one zone.
type Bucketer struct {
	location *time.Location
	offset   int
}

// NewBucketer constructs a Bucketer for the given offset in minutes.
func NewBucketer(offsetMinutes int) Bucketer {
	return Bucketer{location: Zone(offsetMinutes), offset: offsetMinutes}
}

// Default returns the UTC+05:30 bucketer.
func Default() Bucketer {
	return NewBucketer(DefaultOffsetMinutes)
}

func (b Bucketer) loc() *time.Location {
	if b.location == nil {
		return ist
	}
	return b.location
}

// Location exposes the fixed zone used by the bucketer.
func (b Bucketer) Location() *time.Location {
	return b.loc()
}

// OffsetMinutes reports the configured offset.
func (b Bucketer) OffsetMinutes() int {
	if b.location == nil {
		return DefaultOffsetMinutes
	}
	return b.offset
}

// Day returns the local day label containing t.
func (b Bucketer) Day(t time.Time) string {
	return t.In(b.loc()).Format(DayLayout)
}

// Hour returns the local hour of day (0-23) for t.
func (b Bucketer) Hour(t time.Time) int {
	return t.In(b.loc()).Hour()
}

// Weekday returns the local weekday for t.
func (b Bucketer) Weekday(t time.Time) time.Weekday {
	return t.In(b.loc()).Weekday()
}

// Year returns the local calendar year for t.
func (b Bucketer) Year(t time.Time) int {
	return t.In(b.loc()).Year()
}

// StartOfDay returns the instant at which the local day label begins.
func (b Bucketer) StartOfDay(day string) (time.Time, error) {
	d, err := ParseDay(day)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, b.loc()), nil
}

// ParseDay parses a label into midnight UTC of that date. The result is only
// meaningful as a date; it carries no zone semantics.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}
	return t, nil
}

// ValidDay reports whether day is a well formed label.
func ValidDay(day string) bool {
	_, err := ParseDay(day)
	return err == nil
}

// AddDays shifts a label by n calendar days.
func AddDays(day string, n int) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DayLayout), nil
}

// DaysBetween returns to minus from in whole calendar days.
func DaysBetween(from, to string) (int, error) {
	a, err := ParseDay(from)
	if err != nil {
		return 0, err
	}
	b, err := ParseDay(to)
	if err != nil {
		return 0, err
	}
	return int(b.Sub(a).Hours() / 24), nil
}

// ISOWeek returns the ISO-8601 year and week number of the label.
func ISOWeek(day string) (year, week int, err error) {
	t, err := ParseDay(day)
	if err != nil {
		return 0, 0, err
	}
	year, week = t.ISOWeek()
	return year, week, nil
}

// WeekStart returns the Monday of the ISO week containing day.
func WeekStart(day string) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	back := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -back).Format(DayLayout), nil
}

// WeekLabel renders an ISO week as YYYY-Www.
func WeekLabel(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthBounds returns the first and last day labels of a month.
func MonthBounds(year int, month time.Month) (first, last string) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start.Format(DayLayout), end.Format(DayLayout)
}
