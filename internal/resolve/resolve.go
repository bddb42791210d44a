// Package resolve merges the layered override hierarchy of an event into
// the concrete info and schedule for one (weekday, language) pair.
//
// Each field is resolved independently; the highest layer that defines it
// wins outright. The layers, highest first:
//
//  1. the language's override for the weekday
//  2. the language's event-wide override
//  3. the event's override for the weekday
//  4. the event-wide defaults
//
// Composite fields (co-host list, weeks filter) are replaced wholesale by
// the winning layer. Start time and duration only consult layers 3 and 4:
// languages localize text, they never move the event.
package resolve

import (
	"time"

	"github.com/nil-vr/WeeklyCalendar/internal/model"
	"github.com/nil-vr/WeeklyCalendar/internal/times"
)

// Resolved is the fully merged view for one weekday and language.
type Resolved struct {
	// Enabled reports whether the event occurs on this weekday at all.
	// Only the event-level weekday slots decide this; language overrides
	// carry text, not scheduling.
	Enabled bool

	Info     model.EventInfo
	Start    times.Minutes
	Duration times.Minutes
}

// Resolve computes the merged view. lang may be empty for the default
// language; an unknown tag resolves identically to the default. Resolution
// is a pure function of the immutable event, so equal inputs always yield
// equal outputs.
func Resolve(ev *model.Event, day time.Weekday, lang string) Resolved {
	layers := make([]*model.EventInfo, 0, 4)

	if lang != "" {
		if l := ev.Languages[lang]; l != nil {
			if d := l.Days[day]; d != nil {
				layers = append(layers, &d.Info)
			}
			layers = append(layers, &l.Info)
		}
	}
	eventDay := ev.Days[day]
	if eventDay != nil {
		layers = append(layers, &eventDay.Info)
	}
	layers = append(layers, &ev.Info)

	r := Resolved{
		Enabled:  eventDay != nil,
		Info:     mergeInfo(layers),
		Start:    ev.Start,
		Duration: ev.Duration,
	}
	if eventDay != nil {
		if eventDay.Start != nil {
			r.Start = *eventDay.Start
		}
		if eventDay.Duration != nil {
			r.Duration = *eventDay.Duration
		}
	}
	return r
}

// Schedule resolves only the start and duration for a weekday, which never
// depend on language.
func Schedule(ev *model.Event, day time.Weekday) (start, duration times.Minutes) {
	r := Resolve(ev, day, "")
	return r.Start, r.Duration
}

func mergeInfo(layers []*model.EventInfo) model.EventInfo {
	var out model.EventInfo
	for _, l := range layers {
		if out.Name == nil {
			out.Name = l.Name
		}
		if out.Description == nil {
			out.Description = l.Description
		}
		if out.Web == nil {
			out.Web = l.Web
		}
		if out.Poster == nil {
			out.Poster = l.Poster
		}
		if out.Hashtag == nil {
			out.Hashtag = l.Hashtag
		}
		if out.Twitter == nil {
			out.Twitter = l.Twitter
		}
		if out.Group == nil {
			out.Group = l.Group
		}
		if out.Discord == nil {
			out.Discord = l.Discord
		}
		if out.Join == nil {
			out.Join = l.Join
		}
		if out.World == nil {
			out.World = l.World
		}
		if out.Weeks == nil {
			out.Weeks = l.Weeks
		}
	}
	return out
}
