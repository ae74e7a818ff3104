package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/example/focus-ledger/internal/calendar"
)

const (
	dayViewLength  = 7
	weekViewLength = 4
)

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// DashboardService projects daily aggregates into day, week and month views.
// It never writes and never reads the raw ledger.
type DashboardService struct {
	totals   DailyTotalStore
	bucketer calendar.Bucketer
	now      func() time.Time
	logger   *slog.Logger
}

// NewDashboardService wires dependencies for the dashboard service.
func NewDashboardService(totals DailyTotalStore, bucketer calendar.Bucketer, now func() time.Time) *DashboardService {
	return NewDashboardServiceWithLogger(totals, bucketer, now, nil)
}

// NewDashboardServiceWithLogger wires dependencies and a base logger.
func NewDashboardServiceWithLogger(totals DailyTotalStore, bucketer calendar.Bucketer, now func() time.Time, logger *slog.Logger) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{totals: totals, bucketer: bucketer, now: now, logger: defaultLogger(logger)}
}

func (s *DashboardService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DashboardService", operation, attrs...)
}

// DayView returns the seven local days ending at anchor, each holding that
// day's focus total. An empty anchor means today.
func (s *DashboardService) DayView(ctx context.Context, principal Principal, anchor string) (view RollupView, err error) {
	defer s.logOutcome(ctx, "DayView", principal, &err)

	anchor, err = s.resolveAnchor(principal, anchor)
	if err != nil {
		return
	}

	first, _ := calendar.AddDays(anchor, -(dayViewLength - 1))
	byDay, err := s.load(ctx, principal.UserID, first, anchor)
	if err != nil {
		return
	}

	view = RollupView{
		Period:      "day",
		Title:       "Last 7 days",
		RangeStart:  first,
		RangeEnd:    anchor,
		Aggregation: AggregationSum,
		Buckets:     make([]Bucket, 0, dayViewLength),
	}
	for i := 0; i < dayViewLength; i++ {
		day, _ := calendar.AddDays(first, i)
		view.Buckets = append(view.Buckets, newBucket(day, float64(byDay[day])))
	}
	return
}

// WeekView returns the ISO week containing anchor and the three weeks before
// it, oldest first. Each bucket is the average focus total over the days of
// that week that have a row.
func (s *DashboardService) WeekView(ctx context.Context, principal Principal, anchor string) (view RollupView, err error) {
	defer s.logOutcome(ctx, "WeekView", principal, &err)

	anchor, err = s.resolveAnchor(principal, anchor)
	if err != nil {
		return
	}

	monday, _ := calendar.WeekStart(anchor)
	first, _ := calendar.AddDays(monday, -7*(weekViewLength-1))
	last, _ := calendar.AddDays(monday, 6)
	byDay, err := s.load(ctx, principal.UserID, first, last)
	if err != nil {
		return
	}

	view = RollupView{
		Period:      "week",
		Title:       "Last 4 weeks",
		RangeStart:  first,
		RangeEnd:    last,
		Aggregation: AggregationDailyAvg,
		Buckets:     make([]Bucket, 0, weekViewLength),
	}
	for w := 0; w < weekViewLength; w++ {
		start, _ := calendar.AddDays(first, 7*w)
		end, _ := calendar.AddDays(start, 6)
		year, week, _ := calendar.ISOWeek(start)
		view.Buckets = append(view.Buckets, newBucket(calendar.WeekLabel(year, week), averagePerDay(byDay, start, end)))
	}
	return
}

// MonthView returns Jan..Dec of year, each the average focus total over the
// logged days of the month. An empty year means the current local year.
func (s *DashboardService) MonthView(ctx context.Context, principal Principal, year string) (view RollupView, err error) {
	defer s.logOutcome(ctx, "MonthView", principal, &err)

	if principal.UserID == "" {
		err = ErrUnauthenticated
		return
	}

	y, err := s.resolveYear(year)
	if err != nil {
		return
	}

	first, _ := calendar.MonthBounds(y, time.January)
	_, last := calendar.MonthBounds(y, time.December)
	byDay, err := s.load(ctx, principal.UserID, first, last)
	if err != nil {
		return
	}

	view = RollupView{
		Period:      "month",
		Title:       strconv.Itoa(y),
		RangeStart:  first,
		RangeEnd:    last,
		Aggregation: AggregationDailyAvg,
		Buckets:     make([]Bucket, 0, len(monthLabels)),
	}
	for m := time.January; m <= time.December; m++ {
		start, end := calendar.MonthBounds(y, m)
		view.Buckets = append(view.Buckets, newBucket(monthLabels[m-1], averagePerDay(byDay, start, end)))
	}
	return
}

func (s *DashboardService) resolveAnchor(principal Principal, anchor string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("DashboardService is nil")
	}
	if principal.UserID == "" {
		return "", ErrUnauthenticated
	}
	anchor = strings.TrimSpace(anchor)
	if anchor == "" {
		return s.bucketer.Day(s.now()), nil
	}
	if !calendar.ValidDay(anchor) {
		return "", fieldError("date", "date must be formatted as YYYY-MM-DD", nil)
	}
	return anchor, nil
}

func (s *DashboardService) resolveYear(raw string) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("DashboardService is nil")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.bucketer.Year(s.now()), nil
	}
	y, err := strconv.Atoi(raw)
	if err != nil || y < 1970 || y > 9999 {
		return 0, fieldError("year", "year must be a four digit number", nil)
	}
	return y, nil
}

func (s *DashboardService) load(ctx context.Context, userID, from, to string) (map[string]int64, error) {
	if s.totals == nil {
		return nil, fmt.Errorf("daily total store not configured")
	}
	rows, err := s.totals.FocusRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]int64, len(rows))
	for _, row := range rows {
		byDay[row.Day] += row.FocusSeconds
	}
	return byDay, nil
}

func (s *DashboardService) logOutcome(ctx context.Context, operation string, principal Principal, err *error) {
	if s == nil || err == nil || *err == nil {
		return
	}
	s.loggerWith(ctx, operation, "user_id", principal.UserID).ErrorContext(ctx, "rollup failed", "error", *err, "error_kind", ErrorKind(*err))
}

// averagePerDay averages totals over days in [start, end] that hold a
// non-zero row. It returns 0 when there are none.
func averagePerDay(byDay map[string]int64, start, end string) float64 {
	var sum int64
	var logged int
	for day, total := range byDay {
		if day < start || day > end || total <= 0 {
			continue
		}
		sum += total
		logged++
	}
	if logged == 0 {
		return 0
	}
	return float64(sum) / float64(logged)
}

func newBucket(label string, seconds float64) Bucket {
	b := Bucket{Label: label}
	if seconds <= 0 {
		return b
	}
	sec := round2(seconds)
	hours := round2(seconds / 3600)
	b.Seconds = &sec
	b.Hours = &hours
	return b
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
