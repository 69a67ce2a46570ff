package chrono

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"zendocs-backend/internal/components/telemetry"
)

const (
	report_matcher_matches = "matcher.matches"
)

// schedules are `{seconds minute hour day month weekday}`, seconds is accepted but never read.
const scheduleFieldCount = 6

var ErrScheduleParse = errors.New("malformed schedule")

var errTooFewFields = fmt.Errorf("expected %d whitespace separated fields", scheduleFieldCount)

type ScheduleError struct {
	Schedule string
	// Field is empty when the schedule as a whole is malformed.
	Field string
	Value string
	Err   error
}

func (e *ScheduleError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schedule %q: %s", e.Schedule, e.Err.Error())
	}
	return fmt.Sprintf("schedule %q: %s %q: %s", e.Schedule, e.Field, e.Value, e.Err.Error())
}

func (e *ScheduleError) Unwrap() error {
	return e.Err
}

func (e *ScheduleError) Is(target error) bool {
	return target == ErrScheduleParse
}

func exactField(schedule, name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ScheduleError{Schedule: schedule, Field: name, Value: value, Err: err}
	}
	return n, nil
}

func wildcardField(schedule, name, value string, actual int) (bool, error) {
	if value == "*" {
		return true, nil
	}
	n, err := exactField(schedule, name, value)
	if err != nil {
		return false, err
	}
	return n == actual, nil
}

// Match reports whether `now` falls on the minute described by schedule.
//
// The minute and hour fields only accept exact integers, the day, month and weekday
// fields accept either `*` or an exact integer. Weekdays count from Sunday = 0.
// Fields are evaluated in order and the first mismatch short-circuits, so a malformed
// weekday is only reported once the minute, hour, day and month have all matched.
func Match(schedule string, now time.Time) (bool, error) {
	fields := strings.Fields(schedule)
	if len(fields) < scheduleFieldCount {
		return false, &ScheduleError{Schedule: schedule, Err: errTooFewFields}
	}

	minute, err := exactField(schedule, "minute", fields[1])
	if err != nil {
		return false, err
	}
	hour, err := exactField(schedule, "hour", fields[2])
	if err != nil {
		return false, err
	}
	if now.Minute() != minute || now.Hour() != hour {
		return false, nil
	}

	rest := []struct {
		name   string
		value  string
		actual int
	}{
		{name: "day", value: fields[3], actual: now.Day()},
		{name: "month", value: fields[4], actual: int(now.Month())},
		{name: "weekday", value: fields[5], actual: int(now.Weekday())},
	}
	for _, f := range rest {
		ok, err := wildcardField(schedule, f.name, f.value, f.actual)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Matcher wraps Match so that malformed schedules are reported instead of returned.
type Matcher struct {
	tel telemetry.API
}

func NewMatcher(tel telemetry.API) Matcher {
	return Matcher{tel: tel}
}

// Matches never fails, a malformed schedule is reported as a warning and never matches.
func (m Matcher) Matches(schedule string, now time.Time) bool {
	ok, err := Match(schedule, now)
	if err != nil {
		m.tel.ReportWarning(report_matcher_matches, err, schedule)
		return false
	}
	return ok
}
