package chrono

import (
	"errors"
	"testing"
	"time"
	"zendocs-backend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func TestMatchTooFewFields(t *testing.T) {
	instants := []time.Time{
		at(2026, time.October, 14, 0, 0),
		at(2026, time.October, 14, 14, 30),
		at(2026, time.January, 1, 23, 59),
	}
	schedules := []string{"", "0", "0 30 14", "0 30 14 * *", "   "}

	for _, schedule := range schedules {
		for _, now := range instants {
			ok, err := Match(schedule, now)
			require.False(t, ok, schedule)
			require.ErrorIs(t, err, ErrScheduleParse)
		}
	}
}

func TestMatchDaily(t *testing.T) {
	testCases := []struct {
		now      time.Time
		expected bool
	}{
		{now: at(2026, time.October, 14, 14, 30), expected: true},
		{now: at(2026, time.March, 1, 14, 30), expected: true},
		{now: at(2027, time.December, 31, 14, 30), expected: true},
		{now: at(2026, time.October, 14, 14, 31), expected: false},
		{now: at(2026, time.October, 14, 13, 30), expected: false},
		{now: at(2026, time.October, 14, 2, 30), expected: false},
	}

	for _, test := range testCases {
		ok, err := Match("0 30 14 * * *", test.now)
		require.NoError(t, err)
		require.Equal(t, test.expected, ok, test.now.String())
	}
}

func TestMatchDayOfMonth(t *testing.T) {
	schedule := "0 0 0 15 * *"

	for month := time.January; month <= time.December; month++ {
		ok, err := Match(schedule, at(2026, month, 15, 0, 0))
		require.NoError(t, err)
		require.True(t, ok, month.String())
	}

	for _, now := range []time.Time{
		at(2026, time.October, 14, 0, 0),
		at(2026, time.October, 16, 0, 0),
		at(2026, time.October, 15, 0, 1),
		at(2026, time.October, 15, 1, 0),
	} {
		ok, err := Match(schedule, now)
		require.NoError(t, err)
		require.False(t, ok, now.String())
	}
}

func TestMatchMonth(t *testing.T) {
	ok, err := Match("0 0 9 * 7 *", at(2026, time.July, 15, 9, 0))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Match("0 0 9 * 7 *", at(2026, time.August, 15, 9, 0))
	require.NoError(t, err)
	require.False(t, ok)
}

// The "Weekly" preset writes weekday 0 and is described as Sunday, so 0 must be Sunday.
func TestMatchWeekdayZeroIsSunday(t *testing.T) {
	sunday := at(2026, time.October, 18, 9, 0)
	monday := at(2026, time.October, 19, 9, 0)
	require.Equal(t, time.Sunday, sunday.Weekday())

	ok, err := Match("0 0 9 * * 0", sunday)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Match("0 0 9 * * 0", monday)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = Match("0 0 9 * * 1", monday)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMatchWildcardMinuteIsRejected(t *testing.T) {
	ok, err := Match("0 * 14 * * *", at(2026, time.October, 14, 14, 30))
	require.False(t, ok)

	var scheduleErr *ScheduleError
	require.True(t, errors.As(err, &scheduleErr))
	require.Equal(t, "minute", scheduleErr.Field)
}

func TestMatchShortCircuits(t *testing.T) {
	// the malformed weekday is never read because the hour does not match
	ok, err := Match("0 30 14 * * x", at(2026, time.October, 14, 15, 30))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = Match("0 30 14 * * x", at(2026, time.October, 14, 14, 30))
	require.False(t, ok)
	require.ErrorIs(t, err, ErrScheduleParse)
}

func TestMatchIgnoresSeconds(t *testing.T) {
	ok, err := Match("whatever 30 14 * * *", at(2026, time.October, 14, 14, 30))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMatcherReportsMalformedSchedules(t *testing.T) {
	rec := &telemetry.Recorder{}
	matcher := NewMatcher(rec)

	require.False(t, matcher.Matches("0 ab 14 * * *", at(2026, time.October, 14, 14, 30)))
	require.Len(t, rec.Find(telemetry.KindWarning, report_matcher_matches), 1)

	require.True(t, matcher.Matches("0 30 14 * * *", at(2026, time.October, 14, 14, 30)))
	require.Len(t, rec.Find(telemetry.KindWarning, report_matcher_matches), 1)
}
