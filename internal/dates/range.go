package dates

import (
	"fmt"
	"strings"
	"time"
)

// Filter names a date-range preset used by the transaction views.
type Filter string

const (
	FilterToday     Filter = "today"
	FilterYesterday Filter = "yesterday"
	FilterThisWeek  Filter = "this_week"
	FilterLastWeek  Filter = "last_week"
	FilterThisMonth Filter = "this_month"
	FilterLastMonth Filter = "last_month"
	FilterCustom    Filter = "custom"
)

// customLayout is the calendar-date format accepted for custom bounds.
const customLayout = "2006-01-02"

func ParseFilter(raw string) (Filter, error) {
	switch f := Filter(strings.TrimSpace(raw)); f {
	case FilterToday, FilterYesterday, FilterThisWeek, FilterLastWeek,
		FilterThisMonth, FilterLastMonth, FilterCustom:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter: %q", raw)
}

// Range is a closed [Start, End] instant range.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Resolve maps a filter to a concrete range relative to now, in now's
// location. Named presets always resolve. Custom resolves only when both
// bounds are supplied and parse as calendar dates; otherwise ok is false
// and callers must treat the selection as matching nothing.
//
// Week arithmetic uses ISO weekday numbering (Monday = 1, Sunday = 7).
// The "this week" and "this month" presets end at the end of the current
// day, not the end of the period: they mean week-to-date and
// month-to-date.
func Resolve(filter Filter, now time.Time, customStart, customEnd string) (Range, bool) {
	switch filter {
	case FilterToday:
		return Range{startOfDay(now), endOfDay(now)}, true

	case FilterYesterday:
		y := now.AddDate(0, 0, -1)
		return Range{startOfDay(y), endOfDay(y)}, true

	case FilterThisWeek:
		monday := now.AddDate(0, 0, -(isoWeekday(now) - 1))
		return Range{startOfDay(monday), endOfDay(now)}, true

	case FilterLastWeek:
		monday := now.AddDate(0, 0, -(isoWeekday(now)-1)-7)
		sunday := monday.AddDate(0, 0, 6)
		return Range{startOfDay(monday), endOfDay(sunday)}, true

	case FilterThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Range{first, endOfDay(now)}, true

	case FilterLastMonth:
		firstOfCurrent := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		first := firstOfCurrent.AddDate(0, -1, 0)
		last := firstOfCurrent.AddDate(0, 0, -1)
		return Range{first, endOfDay(last)}, true

	case FilterCustom:
		start, err := parseCustomBound(customStart, now.Location())
		if err != nil {
			return Range{}, false
		}
		end, err := parseCustomBound(customEnd, now.Location())
		if err != nil {
			return Range{}, false
		}
		return Range{startOfDay(start), endOfDay(end)}, true
	}
	return Range{}, false
}

func parseCustomBound(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("bound is empty")
	}
	return time.ParseInLocation(customLayout, value, loc)
}

// isoWeekday returns the weekday with Monday = 1 and Sunday = 7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
