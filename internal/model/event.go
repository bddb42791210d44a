// Package model holds the parsed form of event and metadata documents.
// Values are immutable once loaded; the resolver and expander only ever
// produce derived views of them.
package model

import (
	"sort"

	"github.com/nil-vr/WeeklyCalendar/internal/times"
)

// Platform is a client platform an event supports.
type Platform string

const (
	PlatformPC    Platform = "pc"
	PlatformQuest Platform = "quest"
)

// Named is a {name, id} pair: a co-host identity or a linked virtual world.
type Named struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// EventInfo is one layer of descriptive fields. A nil pointer (or nil slice)
// means the layer does not define that field and resolution falls through to
// the next layer; composite fields are replaced wholesale, never merged.
type EventInfo struct {
	Name        *string
	Description *string
	Web         *string
	Poster      *string
	Hashtag     *string
	Twitter     *string
	Group       *string
	Discord     *string
	Join        []Named
	World       *Named
	// Weeks restricts a weekly pattern to the Nth occurrences of the
	// weekday within each month.
	Weeks []int
}

// EventDay is one weekday slot. A present slot enables the weekday even
// when it overrides nothing.
type EventDay struct {
	Info     EventInfo
	Start    *times.Minutes
	Duration *times.Minutes
}

// EventDays holds the seven weekday slots, indexed by time.Weekday.
// A nil slot at the event level disables that weekday; a nil slot in a
// language override simply defers to the layer below.
type EventDays [7]*EventDay

// EventLanguage scopes an info override plus weekday overrides to one
// language tag. Languages never override scheduling, only text.
type EventLanguage struct {
	Info EventInfo
	Days EventDays
}

// Event is one parsed schedule definition.
type Event struct {
	Info EventInfo

	StartDate *Date
	EndDate   *Date

	Timezone     string
	TimezoneSpan Span

	Start    times.Minutes
	Duration times.Minutes

	Platforms []Platform

	Days      EventDays
	Languages map[string]*EventLanguage

	Confirmed DateSet
	Canceled  DateSet
}

// LanguageTags returns the event's language tags in sorted order so that
// emission is deterministic.
func (e *Event) LanguageTags() []string {
	if len(e.Languages) == 0 {
		return nil
	}
	tags := make([]string, 0, len(e.Languages))
	for tag := range e.Languages {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Meta is the site-wide metadata document.
type Meta struct {
	Title       string
	Description *string
	Link        *string
	Languages   map[string]MetaLanguage
}

// MetaLanguage is the localized variant of the metadata fields.
type MetaLanguage struct {
	Title       *string
	Description *string
	Link        *string
}
