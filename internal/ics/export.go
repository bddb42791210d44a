// Package ics publishes compiled occurrences as an iCalendar feed so the
// schedule can be subscribed to from ordinary calendar clients.
package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/nil-vr/WeeklyCalendar/internal/emit"
	"github.com/nil-vr/WeeklyCalendar/internal/model"
)

const prodID = "-//WeeklyCalendar//compiler//EN"

// Export renders the default-language occurrences into an ICS document.
// Canceled occurrences are included with STATUS:CANCELLED. Times are
// written as floating local times; wall-clock conversion belongs to the
// consumer, not this feed.
func Export(meta *model.Meta, occs []emit.Occurrence) []byte {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetName(meta.Title)
	if meta.Description != nil {
		cal.SetDescription(*meta.Description)
	}

	for _, occ := range occs {
		if occ.Lang != "" {
			continue
		}

		start := occ.Date.Time().Add(time.Duration(occ.Start) * time.Minute)
		end := start.Add(time.Duration(occ.Duration) * time.Minute)

		uid := fmt.Sprintf("%d-%s@weeklycalendar", occ.ID, occ.Date)
		ev := cal.AddEvent(uid)
		ev.SetProperty(ical.ComponentPropertyDtStart, floating(start))
		ev.SetProperty(ical.ComponentPropertyDtEnd, floating(end))
		ev.SetSummary(occ.Name)
		if occ.Info.Description != nil {
			ev.SetDescription(*occ.Info.Description)
		}
		if occ.Info.Web != nil {
			ev.SetProperty(ical.ComponentPropertyUrl, *occ.Info.Web)
		}
		if occ.Canceled {
			ev.SetStatus(ical.ObjectStatusCancelled)
		}
	}

	return []byte(cal.Serialize())
}

// floating formats a wall-clock time with no zone designator.
func floating(t time.Time) string {
	return t.Format("20060102T150405")
}
