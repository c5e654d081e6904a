package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, jakarta)
}

func day(year int, month time.Month, dayOfMonth int) (start, end time.Time) {
	start = time.Date(year, month, dayOfMonth, 0, 0, 0, 0, jakarta)
	end = time.Date(year, month, dayOfMonth, 23, 59, 59, int(999*time.Millisecond), jakarta)
	return start, end
}

func TestResolveToday(t *testing.T) {
	now := at(2024, time.March, 15, 14, 30)
	rng, ok := Resolve(FilterToday, now, "", "")
	require.True(t, ok)

	wantStart, wantEnd := day(2024, time.March, 15)
	require.True(t, rng.Start.Equal(wantStart), "start %v", rng.Start)
	require.True(t, rng.End.Equal(wantEnd), "end %v", rng.End)
}

func TestResolveYesterdayAcrossMonthBoundary(t *testing.T) {
	now := at(2024, time.March, 1, 9, 0)
	rng, ok := Resolve(FilterYesterday, now, "", "")
	require.True(t, ok)

	wantStart, wantEnd := day(2024, time.February, 29)
	require.True(t, rng.Start.Equal(wantStart))
	require.True(t, rng.End.Equal(wantEnd))
}

func TestResolveThisWeek(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{"wednesday", at(2024, time.March, 13, 10, 0), at(2024, time.March, 11, 0, 0)},
		{"monday", at(2024, time.March, 11, 8, 0), at(2024, time.March, 11, 0, 0)},
		{"sunday counts as day seven", at(2024, time.March, 17, 20, 0), at(2024, time.March, 11, 0, 0)},
		{"monday after new year", at(2024, time.January, 3, 12, 0), at(2024, time.January, 1, 0, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rng, ok := Resolve(FilterThisWeek, tc.now, "", "")
			require.True(t, ok)
			require.True(t, rng.Start.Equal(tc.wantStart), "start %v", rng.Start)
			// Week-to-date: the range ends at the end of today, not the
			// end of the week.
			_, wantEnd := day(tc.now.Year(), tc.now.Month(), tc.now.Day())
			require.True(t, rng.End.Equal(wantEnd), "end %v", rng.End)
		})
	}
}

func TestResolveLastWeek(t *testing.T) {
	// Wednesday 2024-03-13: last week is Monday 03-04 through Sunday
	// 03-10, never touching the current week.
	now := at(2024, time.March, 13, 10, 0)
	rng, ok := Resolve(FilterLastWeek, now, "", "")
	require.True(t, ok)

	require.True(t, rng.Start.Equal(at(2024, time.March, 4, 0, 0)))
	_, wantEnd := day(2024, time.March, 10)
	require.True(t, rng.End.Equal(wantEnd))

	thisWeekMonday := at(2024, time.March, 11, 0, 0)
	require.True(t, rng.End.Before(thisWeekMonday))
}

func TestResolveLastWeekAcrossYearBoundary(t *testing.T) {
	// Wednesday 2025-01-01: last week is Monday 2024-12-23 through
	// Sunday 2024-12-29.
	now := at(2025, time.January, 1, 10, 0)
	rng, ok := Resolve(FilterLastWeek, now, "", "")
	require.True(t, ok)
	require.True(t, rng.Start.Equal(at(2024, time.December, 23, 0, 0)))
	_, wantEnd := day(2024, time.December, 29)
	require.True(t, rng.End.Equal(wantEnd))
}

func TestResolveThisMonth(t *testing.T) {
	now := at(2024, time.March, 15, 14, 30)
	rng, ok := Resolve(FilterThisMonth, now, "", "")
	require.True(t, ok)
	require.True(t, rng.Start.Equal(at(2024, time.March, 1, 0, 0)))
	_, wantEnd := day(2024, time.March, 15)
	require.True(t, rng.End.Equal(wantEnd))
}

func TestResolveLastMonth(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
		wantEndD  time.Time
	}{
		{"mid year", at(2024, time.March, 15, 12, 0), at(2024, time.February, 1, 0, 0), at(2024, time.February, 29, 0, 0)},
		{"january rolls to previous year", at(2024, time.January, 10, 12, 0), at(2023, time.December, 1, 0, 0), at(2023, time.December, 31, 0, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rng, ok := Resolve(FilterLastMonth, tc.now, "", "")
			require.True(t, ok)
			require.True(t, rng.Start.Equal(tc.wantStart), "start %v", rng.Start)
			_, wantEnd := day(tc.wantEndD.Year(), tc.wantEndD.Month(), tc.wantEndD.Day())
			require.True(t, rng.End.Equal(wantEnd), "end %v", rng.End)
		})
	}
}

func TestResolveCustom(t *testing.T) {
	now := at(2024, time.March, 15, 14, 30)

	rng, ok := Resolve(FilterCustom, now, "2024-03-01", "2024-03-10")
	require.True(t, ok)
	require.True(t, rng.Start.Equal(at(2024, time.March, 1, 0, 0)))
	_, wantEnd := day(2024, time.March, 10)
	require.True(t, rng.End.Equal(wantEnd))

	_, ok = Resolve(FilterCustom, now, "", "2024-03-01")
	require.False(t, ok, "missing start must not resolve")

	_, ok = Resolve(FilterCustom, now, "2024-03-01", "")
	require.False(t, ok, "missing end must not resolve")

	_, ok = Resolve(FilterCustom, now, "03/01/2024", "2024-03-10")
	require.False(t, ok, "unparsable bound must not resolve")
}

func TestResolveIsPure(t *testing.T) {
	now := at(2024, time.March, 13, 10, 0)
	first, ok1 := Resolve(FilterLastWeek, now, "", "")
	second, ok2 := Resolve(FilterLastWeek, now, "", "")
	require.Equal(t, ok1, ok2)
	require.Equal(t, first, second)
}

func TestRangeContainsBoundsInclusive(t *testing.T) {
	now := at(2024, time.March, 15, 14, 30)
	rng, ok := Resolve(FilterToday, now, "", "")
	require.True(t, ok)
	require.True(t, rng.Contains(rng.Start))
	require.True(t, rng.Contains(rng.End))
	require.False(t, rng.Contains(rng.Start.Add(-time.Millisecond)))
	require.False(t, rng.Contains(rng.End.Add(time.Millisecond)))
}

func TestParseFilter(t *testing.T) {
	for _, valid := range []string{"today", "yesterday", "this_week", "last_week", "this_month", "last_month", "custom"} {
		f, err := ParseFilter(valid)
		require.NoError(t, err)
		require.Equal(t, Filter(valid), f)
	}
	_, err := ParseFilter("fortnight")
	require.Error(t, err)
}
