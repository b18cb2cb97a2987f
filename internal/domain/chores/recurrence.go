package chores

import (
	"fmt"
	"time"
)

// NextOccurrence adds interval units to scheduled in loc and returns the end
// of the resulting calendar day. Monthly steps that overshoot the target
// month land on its last day.
func NextOccurrence(scheduled time.Time, unit RecurrenceUnit, interval int, loc *time.Location) (time.Time, error) {
	if interval < 1 {
		return time.Time{}, fmt.Errorf("%w: interval must be at least 1", ErrInvalidRecurrence)
	}
	if loc == nil {
		loc = time.UTC
	}

	year, month, day := scheduled.In(loc).Date()
	switch unit {
	case RecurrenceDaily:
		day += interval
	case RecurrenceWeekly:
		day += 7 * interval
	case RecurrenceMonthly:
		month += time.Month(interval)
		if last := daysIn(year, month, loc); day > last {
			day = last
		}
	default:
		return time.Time{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidRecurrence, unit)
	}

	return EndOfDay(time.Date(year, month, day, 0, 0, 0, 0, loc), loc), nil
}

// EndOfDay returns 23:59:59.999 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 23, 59, 59, int(999*time.Millisecond), loc)
}

// DueDateFor picks the due date of a chore created now for a template whose
// previous chore was created at lastCreated.
func DueDateFor(now time.Time, lastCreated *time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc)
	if lastCreated != nil && sameDay(lastCreated.In(loc), today) {
		year, month, day := today.Date()
		return EndOfDay(time.Date(year, month, day+1, 12, 0, 0, 0, loc), loc)
	}
	return EndOfDay(today, loc)
}

// IsDue reports whether the template's scheduled day has arrived in loc.
func IsDue(template RecurringTemplate, now time.Time, loc *time.Location) bool {
	return template.IsActive && !template.NextCreationDate.After(EndOfDay(now, loc))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// daysIn normalizes month overflow and returns the number of days in it.
func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
