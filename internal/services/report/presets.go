package report

import (
	"fmt"
	"time"

	apperrors "gymledger/internal/errors"
)

// Named date ranges. Weeks start on Monday.
const (
	PresetToday       = "today"
	PresetYesterday   = "yesterday"
	PresetThisWeek    = "this_week"
	PresetLastWeek    = "last_week"
	PresetThisMonth   = "this_month"
	PresetLastMonth   = "last_month"
	PresetThisQuarter = "this_quarter"
	PresetLastQuarter = "last_quarter"
	PresetThisYear    = "this_year"
	PresetLastYear    = "last_year"
	PresetLast7Days   = "last_7_days"
	PresetLast30Days  = "last_30_days"
)

// Presets lists every preset name ResolvePreset accepts.
var Presets = []string{
	PresetToday, PresetYesterday,
	PresetThisWeek, PresetLastWeek,
	PresetThisMonth, PresetLastMonth,
	PresetThisQuarter, PresetLastQuarter,
	PresetThisYear, PresetLastYear,
	PresetLast7Days, PresetLast30Days,
}

// DateRange is an inclusive range of calendar days. From and To are
// midnights in the report's location.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewDateRange truncates both ends to their calendar day and checks order.
func NewDateRange(from, to time.Time) (DateRange, error) {
	r := DateRange{From: midnight(from), To: midnight(to)}
	if r.To.Before(r.From) {
		return DateRange{}, apperrors.Validation("end", "must not be before start")
	}
	return r, nil
}

// Bounds returns the half-open instant interval [start, end) the range covers.
func (r DateRange) Bounds() (time.Time, time.Time) {
	return r.From, r.To.AddDate(0, 0, 1)
}

// Days is the number of calendar days in the range.
func (r DateRange) Days() int {
	n := 0
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.From.Format(dayLayout), r.To.Format(dayLayout))
}

// ResolvePreset computes a named range relative to now, in now's location.
// It is pure: the same name and instant always give the same range.
func ResolvePreset(name string, now time.Time) (DateRange, error) {
	today := midnight(now)
	y, m, _ := today.Date()
	loc := today.Location()

	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	quarterStart := time.Date(y, time.Month((int(m)-1)/3*3+1), 1, 0, 0, 0, 0, loc)
	yearStart := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)

	switch name {
	case PresetToday:
		return DateRange{From: today, To: today}, nil
	case PresetYesterday:
		d := today.AddDate(0, 0, -1)
		return DateRange{From: d, To: d}, nil
	case PresetThisWeek:
		return DateRange{From: weekStart, To: weekStart.AddDate(0, 0, 6)}, nil
	case PresetLastWeek:
		return DateRange{From: weekStart.AddDate(0, 0, -7), To: weekStart.AddDate(0, 0, -1)}, nil
	case PresetThisMonth:
		return DateRange{From: monthStart, To: monthStart.AddDate(0, 1, -1)}, nil
	case PresetLastMonth:
		return DateRange{From: monthStart.AddDate(0, -1, 0), To: monthStart.AddDate(0, 0, -1)}, nil
	case PresetThisQuarter:
		return DateRange{From: quarterStart, To: quarterStart.AddDate(0, 3, -1)}, nil
	case PresetLastQuarter:
		return DateRange{From: quarterStart.AddDate(0, -3, 0), To: quarterStart.AddDate(0, 0, -1)}, nil
	case PresetThisYear:
		return DateRange{From: yearStart, To: time.Date(y, time.December, 31, 0, 0, 0, 0, loc)}, nil
	case PresetLastYear:
		return DateRange{From: yearStart.AddDate(-1, 0, 0), To: yearStart.AddDate(0, 0, -1)}, nil
	case PresetLast7Days:
		return DateRange{From: today.AddDate(0, 0, -6), To: today}, nil
	case PresetLast30Days:
		return DateRange{From: today.AddDate(0, 0, -29), To: today}, nil
	}
	return DateRange{}, apperrors.Validation("preset", fmt.Sprintf("unknown preset %q", name))
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
