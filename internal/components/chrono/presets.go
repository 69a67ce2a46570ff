package chrono

import (
	"fmt"
	"strconv"
	"strings"
)

type Frequency string

const (
	Daily   Frequency = "Daily"
	Weekly  Frequency = "Weekly"
	Monthly Frequency = "Monthly"
	Custom  Frequency = "Custom"
)

// Schedule is a fully validated schedule string.
type Schedule struct {
	Minute int
	Hour   int
	// Day, Month and Weekday are -1 for `*`.
	Day     int
	Month   int
	Weekday int
}

func (s Schedule) String() string {
	wildcard := func(n int) string {
		if n < 0 {
			return "*"
		}
		return strconv.Itoa(n)
	}
	return fmt.Sprintf(
		"0 %d %d %s %s %s",
		s.Minute, s.Hour,
		wildcard(s.Day), wildcard(s.Month), wildcard(s.Weekday),
	)
}

func rangedField(schedule, name, value string, min, max int, allowWildcard bool) (int, error) {
	if allowWildcard && value == "*" {
		return -1, nil
	}
	n, err := exactField(schedule, name, value)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, &ScheduleError{
			Schedule: schedule,
			Field:    name,
			Value:    value,
			Err:      fmt.Errorf("out of range [%d, %d]", min, max),
		}
	}
	return n, nil
}

// ParseSchedule validates every field of a schedule, unlike Match it does not
// short-circuit and it rejects values that could never match.
func ParseSchedule(schedule string) (Schedule, error) {
	fields := strings.Fields(schedule)
	if len(fields) < scheduleFieldCount {
		return Schedule{}, &ScheduleError{Schedule: schedule, Err: errTooFewFields}
	}
	_, err := cronParser.Parse(strings.Join(fields[:scheduleFieldCount], " "))
	if err != nil {
		return Schedule{}, &ScheduleError{Schedule: schedule, Err: err}
	}

	var out Schedule
	if out.Minute, err = rangedField(schedule, "minute", fields[1], 0, 59, false); err != nil {
		return Schedule{}, err
	}
	if out.Hour, err = rangedField(schedule, "hour", fields[2], 0, 23, false); err != nil {
		return Schedule{}, err
	}
	if out.Day, err = rangedField(schedule, "day", fields[3], 1, 31, true); err != nil {
		return Schedule{}, err
	}
	if out.Month, err = rangedField(schedule, "month", fields[4], 1, 12, true); err != nil {
		return Schedule{}, err
	}
	if out.Weekday, err = rangedField(schedule, "weekday", fields[5], 0, 6, true); err != nil {
		return Schedule{}, err
	}
	return out, nil
}

// parseClock parses "HH:MM".
func parseClock(clock string) (hour, minute int, err error) {
	hourStr, minuteStr, ok := strings.Cut(strings.TrimSpace(clock), ":")
	if !ok {
		return 0, 0, fmt.Errorf("time %q: expected HH:MM", clock)
	}
	hour, err = strconv.Atoi(hourStr)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time %q: invalid hour", clock)
	}
	minute, err = strconv.Atoi(minuteStr)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q: invalid minute", clock)
	}
	return hour, minute, nil
}

// ParseFrequency accepts a frequency name in any case.
func ParseFrequency(value string) (Frequency, error) {
	for _, freq := range []Frequency{Daily, Weekly, Monthly, Custom} {
		if strings.EqualFold(strings.TrimSpace(value), string(freq)) {
			return freq, nil
		}
	}
	return "", fmt.Errorf("unknown frequency %q", value)
}

// BuildSchedule turns a preset frequency and a "HH:MM" time into a schedule string.
// For Custom, clock is ignored and the custom expression is validated and returned trimmed.
func BuildSchedule(freq Frequency, clock, custom string) (string, error) {
	if freq == Custom {
		custom = strings.TrimSpace(custom)
		if custom == "" {
			return "", fmt.Errorf("a custom schedule expression is required")
		}
		if _, err := ParseSchedule(custom); err != nil {
			return "", err
		}
		return custom, nil
	}

	hour, minute, err := parseClock(clock)
	if err != nil {
		return "", err
	}
	s := Schedule{Minute: minute, Hour: hour, Day: -1, Month: -1, Weekday: -1}
	switch freq {
	case Daily:
	case Weekly:
		s.Weekday = 0
	case Monthly:
		s.Day = 1
	default:
		return "", fmt.Errorf("unknown frequency %q", freq)
	}
	return s.String(), nil
}

func zeroPad(field string) string {
	if len(field) < 2 {
		return strings.Repeat("0", 2-len(field)) + field
	}
	return field
}

// ClassifySchedule returns the preset a schedule string corresponds to and its "HH:MM" time.
func ClassifySchedule(schedule string) (Frequency, string, bool) {
	fields := strings.Fields(schedule)
	if len(fields) < scheduleFieldCount {
		return "", "", false
	}
	clock := fmt.Sprintf("%s:%s", zeroPad(fields[2]), zeroPad(fields[1]))
	day, month, weekday := fields[3], fields[4], fields[5]
	switch {
	case day == "*" && month == "*" && weekday == "*":
		return Daily, clock, true
	case day == "*" && month == "*" && weekday == "0":
		return Weekly, clock, true
	case day == "1" && month == "*" && weekday == "*":
		return Monthly, clock, true
	}
	return Custom, clock, true
}

// DescribeSchedule renders a schedule for humans.
func DescribeSchedule(schedule string) string {
	if schedule == "" {
		return "Not scheduled"
	}
	freq, clock, ok := ClassifySchedule(schedule)
	if !ok {
		return schedule
	}
	switch freq {
	case Daily:
		return fmt.Sprintf("Daily at %s", clock)
	case Weekly:
		return fmt.Sprintf("Weekly on Sunday at %s", clock)
	case Monthly:
		return fmt.Sprintf("Monthly on 1st at %s", clock)
	}
	return fmt.Sprintf("Custom: %s", schedule)
}
