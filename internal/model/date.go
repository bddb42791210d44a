package model

import (
	"fmt"
	"time"
)

// Date is a plain calendar date with no time-of-day and no zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a "YYYY-MM-DD" scalar.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time places the date at midnight UTC. The UTC placement is arbitrary; it
// only serves calendar arithmetic, never wall-clock conversion.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// WeekOfMonth is the ordinal of this date's weekday within its month:
// 1 for the first Monday (say) of the month, 2 for the second, and so on.
func (d Date) WeekOfMonth() int {
	return (d.Day-1)/7 + 1
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) After(o Date) bool {
	return o.Before(d)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Span is the source location of a value within its document, used for
// diagnostics only.
type Span struct {
	Line   int
	Column int
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// SpannedDate pairs a date with where it was written.
type SpannedDate struct {
	Date Date
	Span Span
}

// DateSet is either a blanket "all dates" / "no dates" answer or an explicit
// list of dates. Events use one for confirmations and one for cancellations.
type DateSet struct {
	// Explicit marks the list form. When false, All alone decides membership.
	Explicit bool
	All      bool
	Dates    []SpannedDate
}

// DateSetAll matches every date.
func DateSetAll() DateSet {
	return DateSet{All: true}
}

// DateSetNone matches no date.
func DateSetNone() DateSet {
	return DateSet{}
}

// DateSetOf builds the explicit-list form.
func DateSetOf(dates []SpannedDate) DateSet {
	return DateSet{Explicit: true, Dates: dates}
}

// Contains reports whether d is in the set. Duplicate entries in an
// explicit list are harmless; membership is all that matters.
func (s DateSet) Contains(d Date) bool {
	if !s.Explicit {
		return s.All
	}
	for _, sd := range s.Dates {
		if sd.Date == d {
			return true
		}
	}
	return false
}
