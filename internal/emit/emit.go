// Package emit assembles resolved, expanded events into the serialized
// timetable artifact consumed by the display layer.
//
// The artifact's field names and weekday numbering are a published contract
// and must not change: slots are {time, days}, occurrences use camelCase
// keys, and day integers follow 0=Sunday through 6=Saturday.
package emit

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/nil-vr/WeeklyCalendar/internal/expand"
	"github.com/nil-vr/WeeklyCalendar/internal/model"
	"github.com/nil-vr/WeeklyCalendar/internal/resolve"
	"github.com/nil-vr/WeeklyCalendar/internal/times"
)

// Occurrence is one scheduled instance: a concrete date joined with the
// resolved info for its weekday and language. It is self-contained and
// keeps no reference to the source event.
type Occurrence struct {
	ID   int
	Date model.Date
	Day  time.Weekday
	Lang string

	Name     string
	BaseName string
	Start    times.Minutes
	Duration times.Minutes

	Info      model.EventInfo
	Platforms []model.Platform

	Canceled          bool
	ConfirmedExplicit bool
}

// EventOccurrences resolves and expands one event into occurrences for
// every language it defines plus the default. The numeric id groups the
// occurrences of one event for the display layer.
func EventOccurrences(id int, ev *model.Event, cfg expand.Config) ([]Occurrence, error) {
	var out []Occurrence

	langs := append([]string{""}, ev.LanguageTags()...)

	for wd := time.Weekday(0); wd < 7; wd++ {
		base := resolve.Resolve(ev, wd, "")
		if !base.Enabled {
			continue
		}

		// The weeks filter can differ per weekday through day-level
		// overrides, so expansion runs per enabled weekday. Language
		// overrides never influence scheduling.
		var days [7]bool
		days[wd] = true
		infos, err := expand.Expand(cfg, expand.Params{
			StartDate: ev.StartDate,
			EndDate:   ev.EndDate,
			Days:      days,
			Weeks:     base.Info.Weeks,
			Confirmed: ev.Confirmed,
			Canceled:  ev.Canceled,
		})
		if err != nil {
			return nil, err
		}

		for _, info := range infos {
			for _, lang := range langs {
				r := resolve.Resolve(ev, wd, lang)
				occ := Occurrence{
					ID:                id,
					Date:              info.Date,
					Day:               wd,
					Lang:              lang,
					BaseName:          deref(ev.Info.Name),
					Name:              deref(r.Info.Name),
					Start:             r.Start,
					Duration:          r.Duration,
					Info:              r.Info,
					Platforms:         ev.Platforms,
					Canceled:          info.Canceled,
					ConfirmedExplicit: info.ConfirmedExplicit,
				}
				if occ.Name == "" {
					occ.Name = occ.BaseName
				}
				out = append(out, occ)
			}
		}
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// WireOccurrence is the serialized occurrence shape.
type WireOccurrence struct {
	ID       int           `json:"id"`
	Name     string        `json:"name"`
	BaseName string        `json:"baseName"`
	Duration times.Minutes `json:"duration"`

	Description *string          `json:"description,omitempty"`
	Web         *string          `json:"web,omitempty"`
	Poster      *string          `json:"poster,omitempty"`
	Hashtag     *string          `json:"hashtag,omitempty"`
	Twitter     *string          `json:"twitter,omitempty"`
	Group       *string          `json:"group,omitempty"`
	Discord     *string          `json:"discord,omitempty"`
	Join        []model.Named    `json:"join,omitempty"`
	World       *model.Named     `json:"world,omitempty"`
	Weeks       []int            `json:"weeks,omitempty"`
	Platforms   []model.Platform `json:"platforms"`

	Canceled bool `json:"canceled,omitempty"`
	// Confirmed defaults to true; it is written explicitly only when the
	// date came from an explicit confirmed list.
	Confirmed *bool `json:"confirmed,omitempty"`

	Lang string `json:"lang,omitempty"`
	Day  int    `json:"day"`
}

// TimeSlot groups every occurrence sharing one start minute, split per
// weekday. All seven weekday keys are always present.
type TimeSlot struct {
	Time times.Minutes                `json:"time"`
	Days map[string][]WireOccurrence `json:"days"`
}

// MetaLang is the localized metadata block.
type MetaLang struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Link        *string `json:"link,omitempty"`
}

// MetaBlock is the date-independent metadata of the artifact.
type MetaBlock struct {
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	Link        *string             `json:"link,omitempty"`
	Lang        map[string]MetaLang `json:"lang,omitempty"`
}

// Artifact is the complete serialized document.
type Artifact struct {
	Meta  MetaBlock  `json:"meta"`
	Slots []TimeSlot `json:"slots"`
}

// BuildArtifact groups occurrences into ascending time slots and attaches
// the metadata block. One occurrence per (event, weekday, language) is kept
// per slot; with horizons longer than a week the earliest date wins.
func BuildArtifact(meta *model.Meta, occs []Occurrence) *Artifact {
	a := &Artifact{Meta: metaBlock(meta)}

	type slotKey struct {
		id   int
		day  time.Weekday
		lang string
	}
	slots := make(map[times.Minutes]*TimeSlot)
	seen := make(map[times.Minutes]map[slotKey]bool)

	for _, occ := range occs {
		slot := slots[occ.Start]
		if slot == nil {
			slot = &TimeSlot{Time: occ.Start, Days: emptyDays()}
			slots[occ.Start] = slot
			seen[occ.Start] = make(map[slotKey]bool)
		}
		key := slotKey{id: occ.ID, day: occ.Day, lang: occ.Lang}
		if seen[occ.Start][key] {
			continue
		}
		seen[occ.Start][key] = true

		dayName := model.WeekdayName(occ.Day)
		slot.Days[dayName] = append(slot.Days[dayName], wire(occ))
	}

	a.Slots = make([]TimeSlot, 0, len(slots))
	for _, slot := range slots {
		a.Slots = append(a.Slots, *slot)
	}
	sort.Slice(a.Slots, func(i, j int) bool { return a.Slots[i].Time < a.Slots[j].Time })
	return a
}

// Render serializes the artifact.
func Render(a *Artifact) ([]byte, error) {
	return json.Marshal(a)
}

func emptyDays() map[string][]WireOccurrence {
	days := make(map[string][]WireOccurrence, 7)
	for _, name := range model.WeekdayNames() {
		days[name] = []WireOccurrence{}
	}
	return days
}

func wire(occ Occurrence) WireOccurrence {
	w := WireOccurrence{
		ID:          occ.ID,
		Name:        occ.Name,
		BaseName:    occ.BaseName,
		Duration:    occ.Duration,
		Description: occ.Info.Description,
		Web:         occ.Info.Web,
		Poster:      occ.Info.Poster,
		Hashtag:     occ.Info.Hashtag,
		Twitter:     occ.Info.Twitter,
		Group:       occ.Info.Group,
		Discord:     occ.Info.Discord,
		Join:        occ.Info.Join,
		World:       occ.Info.World,
		Weeks:       occ.Info.Weeks,
		Platforms:   occ.Platforms,
		Canceled:    occ.Canceled,
		Lang:        occ.Lang,
		Day:         int(occ.Day),
	}
	if occ.ConfirmedExplicit {
		confirmed := true
		w.Confirmed = &confirmed
	}
	return w
}

func metaBlock(meta *model.Meta) MetaBlock {
	b := MetaBlock{
		Title:       meta.Title,
		Description: meta.Description,
		Link:        meta.Link,
	}
	if len(meta.Languages) > 0 {
		b.Lang = make(map[string]MetaLang, len(meta.Languages))
		for tag, l := range meta.Languages {
			b.Lang[tag] = MetaLang{Title: l.Title, Description: l.Description, Link: l.Link}
		}
	}
	return b
}
