// Package recurrence expands a chore's schedule into concrete due dates.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Pattern is a chore's frequencyPattern.
type Pattern string

const (
	Once    Pattern = "once"
	Daily   Pattern = "daily"
	Weekly  Pattern = "weekly"
	Monthly Pattern = "monthly"
)

var (
	// ErrRangeReversed is returned when the range end is before its start.
	ErrRangeReversed = errors.New("end date is before start date")
	// ErrTooMany is returned when a range would produce more occurrences
	// than the caller allows.
	ErrTooMany = errors.New("date range produces too many occurrences")
	// ErrInvalidDays is returned for frequencyDays outside the pattern's domain.
	ErrInvalidDays = errors.New("invalid frequencyDays")
)

// ParsePattern normalizes s. ok is false for anything but the four known
// patterns.
func ParsePattern(s string) (p Pattern, ok bool) {
	switch Pattern(strings.ToLower(strings.TrimSpace(s))) {
	case Once:
		return Once, true
	case Daily:
		return Daily, true
	case Weekly:
		return Weekly, true
	case Monthly:
		return Monthly, true
	}
	return "", false
}

// Rule is a chore schedule.
//
// For Weekly, Days are weekdays with 0 = Monday through 6 = Sunday. For
// Monthly, Days are days of the month (1-31); months without that day are
// skipped. An empty Days list falls back to the weekday or day-of-month of
// Start. Start is also the first date an occurrence may fall on.
type Rule struct {
	Pattern Pattern
	Days    []int
	Start   time.Time
}

var weekdays = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// Expand returns the occurrences of rule within [from, to], both inclusive,
// as dates at midnight UTC. An unknown pattern yields no occurrences. When
// limit > 0 and the range would produce more than limit occurrences,
// ErrTooMany is returned.
func Expand(rule Rule, from, to time.Time, limit int) ([]time.Time, error) {
	from, to = day(from), day(to)
	if to.Before(from) {
		return nil, ErrRangeReversed
	}
	start := from
	if !rule.Start.IsZero() {
		if s := day(rule.Start); s.After(start) {
			start = s
		}
	}

	var out []time.Time
	switch rule.Pattern {
	case Once:
		if rule.Start.IsZero() {
			return nil, nil
		}
		if d := day(rule.Start); !d.Before(from) && !d.After(to) {
			out = []time.Time{d}
		}
		return out, nil

	case Daily, Weekly, Monthly:
		if start.After(to) {
			return nil, nil
		}
		opt, err := options(rule, start, to)
		if err != nil {
			return nil, err
		}
		if limit > 0 {
			opt.Count = limit + 1
		}
		r, err := rrule.NewRRule(opt)
		if err != nil {
			return nil, fmt.Errorf("build rule: %w", err)
		}
		out = r.All()

	default:
		return nil, nil
	}

	if limit > 0 && len(out) > limit {
		return nil, ErrTooMany
	}
	for i := range out {
		out[i] = day(out[i])
	}
	return out, nil
}

func options(rule Rule, start, until time.Time) (rrule.ROption, error) {
	opt := rrule.ROption{Dtstart: start, Until: until}
	anchor := start
	if !rule.Start.IsZero() {
		anchor = day(rule.Start)
	}

	switch rule.Pattern {
	case Daily:
		opt.Freq = rrule.DAILY

	case Weekly:
		opt.Freq = rrule.WEEKLY
		days := rule.Days
		if len(days) == 0 {
			// time.Weekday counts from Sunday; ours from Monday.
			days = []int{(int(anchor.Weekday()) + 6) % 7}
		}
		for _, d := range days {
			if d < 0 || d > 6 {
				return opt, fmt.Errorf("%w: weekday %d is not in 0-6", ErrInvalidDays, d)
			}
			opt.Byweekday = append(opt.Byweekday, weekdays[d])
		}

	case Monthly:
		opt.Freq = rrule.MONTHLY
		days := rule.Days
		if len(days) == 0 {
			days = []int{anchor.Day()}
		}
		for _, d := range days {
			if d < 1 || d > 31 {
				return opt, fmt.Errorf("%w: day of month %d is not in 1-31", ErrInvalidDays, d)
			}
		}
		opt.Bymonthday = append([]int(nil), days...)
	}
	return opt, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Assignee picks the assignee for the i-th occurrence, rotating through
// assignees in order. It returns "" when there are none.
func Assignee(assignees []string, i int) string {
	if len(assignees) == 0 {
		return ""
	}
	return assignees[i%len(assignees)]
}
