package resolve

import (
	"reflect"
	"testing"
	"time"

	"github.com/nil-vr/WeeklyCalendar/internal/model"
	"github.com/nil-vr/WeeklyCalendar/internal/times"
)

func strp(s string) *string { return &s }

func minp(m times.Minutes) *times.Minutes { return &m }

func allDays() model.EventDays {
	var days model.EventDays
	for i := range days {
		days[i] = &model.EventDay{}
	}
	return days
}

func baseEvent() *model.Event {
	return &model.Event{
		Info: model.EventInfo{
			Name:        strp("Movie Night"),
			Description: strp("Weekly movies"),
			Join:        []model.Named{{Name: "Alice", ID: "usr_1"}},
		},
		Timezone: "America/New_York",
		Start:    1140,
		Duration: 90,
		Days:     allDays(),
	}
}

func TestResolveDefaultsAreUniform(t *testing.T) {
	ev := baseEvent()

	want := Resolve(ev, time.Sunday, "")
	for wd := time.Weekday(0); wd < 7; wd++ {
		for _, lang := range []string{"", "ja", "nosuch"} {
			got := Resolve(ev, wd, lang)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("Resolve(%v, %q) = %+v, want %+v", wd, lang, got, want)
			}
		}
	}
	if !want.Enabled {
		t.Fatal("default weekdays should be enabled")
	}
	if *want.Info.Name != "Movie Night" || want.Start != 1140 || want.Duration != 90 {
		t.Fatalf("resolved defaults = %+v", want)
	}
}

func TestResolvePrecedence(t *testing.T) {
	ev := baseEvent()
	ev.Days[time.Friday].Info.Name = strp("Friday Special")
	ev.Languages = map[string]*model.EventLanguage{
		"ja": {
			Info: model.EventInfo{Name: strp("映画の夜")},
		},
	}
	ev.Languages["ja"].Days[time.Friday] = &model.EventDay{
		Info: model.EventInfo{Name: strp("金曜スペシャル")},
	}

	cases := []struct {
		day  time.Weekday
		lang string
		want string
	}{
		{time.Friday, "ja", "金曜スペシャル"}, // language day
		{time.Monday, "ja", "映画の夜"},      // language event-wide
		{time.Friday, "", "Friday Special"}, // weekday
		{time.Monday, "", "Movie Night"},    // event-wide
	}
	for _, c := range cases {
		got := Resolve(ev, c.day, c.lang)
		if *got.Info.Name != c.want {
			t.Errorf("Resolve(%v, %q).Name = %q, want %q", c.day, c.lang, *got.Info.Name, c.want)
		}
	}
}

func TestResolveFieldsAreIndependent(t *testing.T) {
	ev := baseEvent()
	ev.Days[time.Friday].Info.Name = strp("Friday Special")

	got := Resolve(ev, time.Friday, "")
	if *got.Info.Name != "Friday Special" {
		t.Fatalf("Name = %q", *got.Info.Name)
	}
	// Description is not overridden on friday, so it falls through.
	if got.Info.Description == nil || *got.Info.Description != "Weekly movies" {
		t.Fatalf("Description = %v", got.Info.Description)
	}
}

func TestResolveCompositeReplacedWholesale(t *testing.T) {
	ev := baseEvent()
	ev.Days[time.Friday].Info.Join = []model.Named{{Name: "Carol", ID: "usr_3"}}

	got := Resolve(ev, time.Friday, "")
	if len(got.Info.Join) != 1 || got.Info.Join[0].Name != "Carol" {
		t.Fatalf("Join = %v, want replacement, not union", got.Info.Join)
	}

	// An explicitly empty list still overrides.
	ev.Days[time.Monday].Info.Join = []model.Named{}
	got = Resolve(ev, time.Monday, "")
	if got.Info.Join == nil || len(got.Info.Join) != 0 {
		t.Fatalf("Join = %v, want defined-empty", got.Info.Join)
	}
}

func TestResolveSchedule(t *testing.T) {
	ev := baseEvent()
	ev.Days[time.Friday].Start = minp(1200)
	ev.Days[time.Friday].Duration = minp(120)
	// Language day slots cannot carry scheduling by construction; make
	// sure a language override doesn't disturb it either way.
	ev.Languages = map[string]*model.EventLanguage{
		"ja": {Info: model.EventInfo{Name: strp("映画の夜")}},
	}

	for _, lang := range []string{"", "ja"} {
		got := Resolve(ev, time.Friday, lang)
		if got.Start != 1200 || got.Duration != 120 {
			t.Fatalf("friday %q start/duration = %d/%d", lang, got.Start, got.Duration)
		}
		got = Resolve(ev, time.Monday, lang)
		if got.Start != 1140 || got.Duration != 90 {
			t.Fatalf("monday %q start/duration = %d/%d", lang, got.Start, got.Duration)
		}
	}
}

func TestResolveDisabledWeekday(t *testing.T) {
	ev := baseEvent()
	ev.Days[time.Tuesday] = nil

	got := Resolve(ev, time.Tuesday, "")
	if got.Enabled {
		t.Fatal("tuesday should be disabled")
	}
	// Info still resolves from the event layer for metadata use.
	if *got.Info.Name != "Movie Night" {
		t.Fatalf("Name = %q", *got.Info.Name)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	ev := baseEvent()
	ev.Languages = map[string]*model.EventLanguage{
		"ja": {Info: model.EventInfo{Name: strp("映画の夜")}},
	}

	a := Resolve(ev, time.Friday, "ja")
	b := Resolve(ev, time.Friday, "ja")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("resolution is not idempotent: %+v vs %+v", a, b)
	}
}
