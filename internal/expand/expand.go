// Package expand turns an event's recurrence pattern and exception date
// sets into the ordered list of concrete occurrence dates.
package expand

import (
	"github.com/teambition/rrule-go"

	"github.com/nil-vr/WeeklyCalendar/internal/model"
)

// Config is the render horizon the consumer is interested in. Events with
// open-ended date ranges are clipped to it.
type Config struct {
	RangeStart model.Date
	RangeEnd   model.Date
}

// Params are the resolved scheduling parameters of one event (or of one
// weekday of an event, when weekday overrides change the weeks filter).
type Params struct {
	StartDate *model.Date
	EndDate   *model.Date

	// Days is the enabled-weekday set, indexed by time.Weekday.
	Days [7]bool

	// Weeks, when non-empty, keeps only dates whose weekday ordinal
	// within the month (first=1) is listed.
	Weeks []int

	Confirmed model.DateSet
	Canceled  model.DateSet
}

// DateInfo is one candidate occurrence date with its exception flags.
type DateInfo struct {
	Date model.Date

	// Canceled dates do not occur but are still surfaced so a display
	// layer can strike them through.
	Canceled bool

	// ConfirmedExplicit marks dates that reached the schedule through an
	// explicit confirmed list rather than the bare weekly pattern.
	ConfirmedExplicit bool
}

var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// Expand produces every date in the pattern, ascending, with cancellation
// flags applied. Most callers want Dates, which drops canceled entries.
//
// The steps are strictly ordered: weekday pattern, weeks filter, confirmed
// intersection, canceled marking. An explicit confirmed list narrows the
// pattern (a confirmed date outside the enabled weekdays or the date range
// never occurs), and canceled always wins, even over explicit confirmation.
func Expand(cfg Config, p Params) ([]DateInfo, error) {
	lo := cfg.RangeStart
	if p.StartDate != nil && lo.Before(*p.StartDate) {
		lo = *p.StartDate
	}
	hi := cfg.RangeEnd
	if p.EndDate != nil && p.EndDate.Before(hi) {
		hi = *p.EndDate
	}
	if hi.Before(lo) {
		return nil, nil
	}

	// confirmed=false with no explicit list means nothing ever occurs.
	if !p.Confirmed.Explicit && !p.Confirmed.All {
		return nil, nil
	}

	byDay := patternWeekdays(p)
	if len(byDay) == 0 {
		return nil, nil
	}

	freq := rrule.WEEKLY
	if len(p.Weeks) > 0 {
		// The weeks filter is a per-month ordinal, so the rule switches
		// to a monthly Nth-weekday form (BYDAY=1MO,2MO,...).
		freq = rrule.MONTHLY
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      freq,
		Byweekday: byDay,
		Dtstart:   lo.Time(),
	})
	if err != nil {
		return nil, err
	}

	var out []DateInfo
	for _, t := range r.Between(lo.Time(), hi.Time(), true) {
		d := model.DateOf(t)
		info := DateInfo{Date: d}
		if p.Confirmed.Explicit {
			if !p.Confirmed.Contains(d) {
				continue
			}
			info.ConfirmedExplicit = true
		}
		if p.Canceled.Contains(d) {
			info.Canceled = true
		}
		out = append(out, info)
	}
	return out, nil
}

// Dates runs Expand and keeps only the dates on which the event actually
// occurs.
func Dates(cfg Config, p Params) ([]model.Date, error) {
	infos, err := Expand(cfg, p)
	if err != nil {
		return nil, err
	}
	out := make([]model.Date, 0, len(infos))
	for _, info := range infos {
		if !info.Canceled {
			out = append(out, info.Date)
		}
	}
	return out, nil
}

func patternWeekdays(p Params) []rrule.Weekday {
	weeks := dedupWeeks(p.Weeks)
	var out []rrule.Weekday
	for wd, enabled := range p.Days {
		if !enabled {
			continue
		}
		if len(weeks) == 0 {
			out = append(out, rruleWeekdays[wd])
			continue
		}
		for _, n := range weeks {
			out = append(out, rruleWeekdays[wd].Nth(n))
		}
	}
	return out
}

func dedupWeeks(weeks []int) []int {
	if len(weeks) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(weeks))
	out := make([]int, 0, len(weeks))
	for _, n := range weeks {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
