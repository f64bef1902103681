package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CronSchedule implements Schedule from a standard 5-field cron expression:
// minute hour day-of-month month day-of-week. It exists for jobs that must
// run at fixed wall-clock times, such as a nightly full qualification pass,
// where IntervalSchedule would drift with process restarts.
//
// Examples:
//   - "*/5 * * * *"  - every 5 minutes
//   - "0 3 * * *"    - every day at 03:00
//   - "0 0 * * 0"    - every Sunday at midnight
type CronSchedule struct {
	raw      string
	minutes  []int // 0-59
	hours    []int // 0-23
	days     []int // 1-31
	months   []int // 1-12
	weekdays []int // 0-6 (0 = Sunday)
}

// ParseCronSchedule parses a cron expression.
// Supports: *, */n, n, n-m, n,m,o per field.
func ParseCronSchedule(expr string) (*CronSchedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid cron expression: expected 5 fields, got %d", len(fields))
	}

	cs := &CronSchedule{raw: expr}
	var err error

	cs.minutes, err = parseCronField(fields[0], 0, 59)
	if err != nil {
		return nil, fmt.Errorf("invalid minute field: %w", err)
	}

	cs.hours, err = parseCronField(fields[1], 0, 23)
	if err != nil {
		return nil, fmt.Errorf("invalid hour field: %w", err)
	}

	cs.days, err = parseCronField(fields[2], 1, 31)
	if err != nil {
		return nil, fmt.Errorf("invalid day field: %w", err)
	}

	cs.months, err = parseCronField(fields[3], 1, 12)
	if err != nil {
		return nil, fmt.Errorf("invalid month field: %w", err)
	}

	cs.weekdays, err = parseCronField(fields[4], 0, 6)
	if err != nil {
		return nil, fmt.Errorf("invalid weekday field: %w", err)
	}

	return cs, nil
}

// MustParseCronSchedule parses a cron expression or panics. For statically
// known expressions only.
func MustParseCronSchedule(expr string) *CronSchedule {
	cs, err := ParseCronSchedule(expr)
	if err != nil {
		panic(err)
	}
	return cs
}

// parseCronField parses a single cron field into the set of matching values.
func parseCronField(field string, min, max int) ([]int, error) {
	var result []int

	if field == "*" {
		for i := min; i <= max; i++ {
			result = append(result, i)
		}
		return result, nil
	}

	// Step values (*/n or n-m/s)
	if strings.Contains(field, "/") {
		parts := strings.Split(field, "/")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid step format: %s", field)
		}

		step, err := strconv.Atoi(parts[1])
		if err != nil || step <= 0 {
			return nil, fmt.Errorf("invalid step value: %s", parts[1])
		}

		var start, end int
		if parts[0] == "*" {
			start, end = min, max
		} else if strings.Contains(parts[0], "-") {
			rangeParts := strings.Split(parts[0], "-")
			start, _ = strconv.Atoi(rangeParts[0])
			end, _ = strconv.Atoi(rangeParts[1])
		} else {
			start, _ = strconv.Atoi(parts[0])
			end = max
		}

		for i := start; i <= end; i += step {
			if i >= min && i <= max {
				result = append(result, i)
			}
		}
		return result, nil
	}

	// Ranges (n-m)
	if strings.Contains(field, "-") {
		parts := strings.Split(field, "-")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", field)
		}

		start, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid range start: %s", parts[0])
		}

		end, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid range end: %s", parts[1])
		}

		for i := start; i <= end; i++ {
			if i >= min && i <= max {
				result = append(result, i)
			}
		}
		return result, nil
	}

	// Lists (n,m,o)
	if strings.Contains(field, ",") {
		parts := strings.Split(field, ",")
		for _, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("invalid list value: %s", p)
			}
			if v >= min && v <= max {
				result = append(result, v)
			}
		}
		sort.Ints(result)
		return result, nil
	}

	// Single value
	v, err := strconv.Atoi(field)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %s", field)
	}
	if v < min || v > max {
		return nil, fmt.Errorf("value out of range [%d-%d]: %d", min, max, v)
	}
	return []int{v}, nil
}

// String implements Schedule.
func (cs *CronSchedule) String() string {
	return cs.raw
}

// Next implements Schedule: the next matching minute strictly after t.
func (cs *CronSchedule) Next(after time.Time) time.Time {
	t := after.Add(time.Minute).Truncate(time.Minute)

	// Bounded scan: one year of minutes covers every satisfiable expression.
	const maxIterations = 366 * 24 * 60

	for i := 0; i < maxIterations; i++ {
		if cs.matches(t) {
			return t
		}
		t = t.Add(time.Minute)
	}

	return time.Time{}
}

func (cs *CronSchedule) matches(t time.Time) bool {
	return containsInt(cs.minutes, t.Minute()) &&
		containsInt(cs.hours, t.Hour()) &&
		containsInt(cs.days, t.Day()) &&
		containsInt(cs.months, int(t.Month())) &&
		containsInt(cs.weekdays, int(t.Weekday()))
}

func containsInt(slice []int, val int) bool {
	for _, v := range slice {
		if v == val {
			return true
		}
	}
	return false
}
