package schema

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nil-vr/WeeklyCalendar/internal/model"
	"github.com/nil-vr/WeeklyCalendar/internal/times"
)

const minimalEvent = `
name: Movie Night
timezone: America/New_York
start: "19:00"
duration: 90
`

func TestLoadEventDefaults(t *testing.T) {
	ev, err := LoadEvent([]byte(minimalEvent))
	if err != nil {
		t.Fatalf("LoadEvent: %v", err)
	}

	if ev.Info.Name == nil || *ev.Info.Name != "Movie Night" {
		t.Fatalf("Name = %v", ev.Info.Name)
	}
	if ev.Timezone != "America/New_York" {
		t.Fatalf("Timezone = %q", ev.Timezone)
	}
	if ev.Start != 1140 || ev.Duration != 90 {
		t.Fatalf("Start/Duration = %d/%d", ev.Start, ev.Duration)
	}

	// Documented defaults: every weekday enabled, single pc platform,
	// confirmed=all, canceled=none.
	for wd := time.Weekday(0); wd < 7; wd++ {
		if ev.Days[wd] == nil {
			t.Fatalf("weekday %v not enabled by default", wd)
		}
	}
	if len(ev.Platforms) != 1 || ev.Platforms[0] != model.PlatformPC {
		t.Fatalf("Platforms = %v", ev.Platforms)
	}
	if !ev.Confirmed.All || ev.Confirmed.Explicit {
		t.Fatalf("Confirmed = %+v", ev.Confirmed)
	}
	if ev.Canceled.All || ev.Canceled.Explicit {
		t.Fatalf("Canceled = %+v", ev.Canceled)
	}
}

func TestLoadEventFull(t *testing.T) {
	doc := `
name: Movie Night
description: Weekly movies
web: https://example.com
start_date: 2024-01-01
end_date: 2024-01-31
timezone: America/New_York
start: "19:00"
duration: "1:30"
platforms: [pc, quest]
join:
  - {name: Alice, id: usr_1}
  - {name: Bob, id: usr_2}
world: {name: Cinema, id: wrld_1}
weeks: [1, 3]
days:
  monday:
  friday:
    start: "20:00"
    name: Friday Special
languages:
  ja:
    name: 映画の夜
    friday:
      name: 金曜スペシャル
confirmed:
  - 2024-01-05
canceled:
  - 2024-01-08
`
	ev, err := LoadEvent([]byte(doc))
	if err != nil {
		t.Fatalf("LoadEvent: %v", err)
	}

	if ev.StartDate == nil || ev.StartDate.String() != "2024-01-01" {
		t.Fatalf("StartDate = %v", ev.StartDate)
	}
	if ev.EndDate == nil || ev.EndDate.String() != "2024-01-31" {
		t.Fatalf("EndDate = %v", ev.EndDate)
	}
	if ev.Duration != 90 {
		t.Fatalf("Duration = %d", ev.Duration)
	}
	if len(ev.Platforms) != 2 || ev.Platforms[1] != model.PlatformQuest {
		t.Fatalf("Platforms = %v", ev.Platforms)
	}
	if len(ev.Info.Join) != 2 || ev.Info.Join[1].ID != "usr_2" {
		t.Fatalf("Join = %v", ev.Info.Join)
	}
	if ev.Info.World == nil || ev.Info.World.Name != "Cinema" {
		t.Fatalf("World = %v", ev.Info.World)
	}
	if len(ev.Info.Weeks) != 2 || ev.Info.Weeks[1] != 3 {
		t.Fatalf("Weeks = %v", ev.Info.Weeks)
	}

	// Only the listed weekdays are enabled when days is present.
	if ev.Days[time.Monday] == nil || ev.Days[time.Friday] == nil {
		t.Fatal("monday and friday should be enabled")
	}
	if ev.Days[time.Tuesday] != nil {
		t.Fatal("tuesday should be disabled")
	}
	// A bare weekday key still enables the day with no overrides.
	if ev.Days[time.Monday].Start != nil || ev.Days[time.Monday].Info.Name != nil {
		t.Fatalf("monday should carry no overrides: %+v", ev.Days[time.Monday])
	}
	if ev.Days[time.Friday].Start == nil || *ev.Days[time.Friday].Start != times.Minutes(1200) {
		t.Fatalf("friday start override = %v", ev.Days[time.Friday].Start)
	}

	ja := ev.Languages["ja"]
	if ja == nil || ja.Info.Name == nil || *ja.Info.Name != "映画の夜" {
		t.Fatalf("languages.ja = %+v", ja)
	}
	if ja.Days[time.Friday] == nil || *ja.Days[time.Friday].Info.Name != "金曜スペシャル" {
		t.Fatalf("languages.ja.friday = %+v", ja.Days[time.Friday])
	}

	if !ev.Confirmed.Explicit || len(ev.Confirmed.Dates) != 1 {
		t.Fatalf("Confirmed = %+v", ev.Confirmed)
	}
	if ev.Confirmed.Dates[0].Span.Line == 0 {
		t.Fatal("confirmed date should carry a source span")
	}
	if !ev.Canceled.Contains(model.Date{Year: 2024, Month: time.January, Day: 8}) {
		t.Fatalf("Canceled = %+v", ev.Canceled)
	}
}

func TestLoadEventUnknownField(t *testing.T) {
	docs := map[string]string{
		"top level": minimalEvent + "colour: red\n",
		"day level": minimalEvent + "days:\n  monday:\n    platfroms: [pc]\n",
		"language":  minimalEvent + "languages:\n  ja:\n    timezone: Asia/Tokyo\n",
		"world":     minimalEvent + "world: {name: x, id: y, size: big}\n",
	}
	wantKeys := map[string]string{
		"top level": "colour",
		"day level": "platfroms",
		"language":  "timezone",
		"world":     "size",
	}
	for name, doc := range docs {
		_, err := LoadEvent([]byte(doc))
		var se *SchemaError
		if !errors.As(err, &se) {
			t.Errorf("%s: error %v is not a SchemaError", name, err)
			continue
		}
		if se.Key != wantKeys[name] {
			t.Errorf("%s: SchemaError.Key = %q, want %q", name, se.Key, wantKeys[name])
		}
		if se.Span.Line == 0 {
			t.Errorf("%s: SchemaError has no source location", name)
		}
	}
}

func TestLoadEventMissingRequired(t *testing.T) {
	for _, missing := range []string{"timezone", "start", "duration"} {
		var doc strings.Builder
		for _, line := range strings.Split(strings.TrimSpace(minimalEvent), "\n") {
			if !strings.HasPrefix(line, missing+":") {
				doc.WriteString(line + "\n")
			}
		}
		_, err := LoadEvent([]byte(doc.String()))
		var se *SchemaError
		if !errors.As(err, &se) {
			t.Errorf("without %s: error %v is not a SchemaError", missing, err)
			continue
		}
		if se.Key != missing {
			t.Errorf("without %s: SchemaError.Key = %q", missing, se.Key)
		}
	}
}

func TestLoadEventStartWrap(t *testing.T) {
	doc := strings.Replace(minimalEvent, `"19:00"`, `"25:00"`, 1)
	_, err := LoadEvent([]byte(doc))
	if err == nil {
		t.Fatal("expected error for 25:00 start")
	}
	var fe *times.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error %v is not a times.FormatError", err)
	}
	if !strings.Contains(err.Error(), "Time must be less than 24:00") {
		t.Fatalf("error %v lacks wrap message", err)
	}

	// The same value is fine as a duration.
	doc = strings.Replace(minimalEvent, "duration: 90", `duration: "25:00"`, 1)
	if _, err := LoadEvent([]byte(doc)); err != nil {
		t.Fatalf("25:00 duration should load: %v", err)
	}
}

func TestLoadEventDateOrder(t *testing.T) {
	doc := minimalEvent + "start_date: 2024-02-01\nend_date: 2024-01-01\n"
	_, err := LoadEvent([]byte(doc))
	var oe *DateOrderError
	if !errors.As(err, &oe) {
		t.Fatalf("error %v is not a DateOrderError", err)
	}
}

func TestLoadEventDateSetForms(t *testing.T) {
	ev, err := LoadEvent([]byte(minimalEvent + "canceled: true\nconfirmed: false\n"))
	if err != nil {
		t.Fatalf("LoadEvent: %v", err)
	}
	if !ev.Canceled.All {
		t.Fatalf("canceled=true should match all dates: %+v", ev.Canceled)
	}
	if ev.Confirmed.All || ev.Confirmed.Explicit {
		t.Fatalf("confirmed=false should match nothing: %+v", ev.Confirmed)
	}

	_, err = LoadEvent([]byte(minimalEvent + "canceled: sometimes\n"))
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("error %v is not a SchemaError", err)
	}
	if !strings.Contains(se.Msg, "true/false or an array of dates") {
		t.Fatalf("SchemaError.Msg = %q", se.Msg)
	}
}

func TestLoadMeta(t *testing.T) {
	doc := `
title: Community Events
description: What's on this week
link: https://example.com
languages:
  ja:
    title: コミュニティイベント
`
	meta, err := LoadMeta([]byte(doc))
	if err != nil {
		t.Fatalf("LoadMeta: %v", err)
	}
	if meta.Title != "Community Events" {
		t.Fatalf("Title = %q", meta.Title)
	}
	ja, ok := meta.Languages["ja"]
	if !ok || ja.Title == nil || *ja.Title != "コミュニティイベント" {
		t.Fatalf("languages.ja = %+v", ja)
	}
	if ja.Link != nil {
		t.Fatal("unset language link should be nil")
	}

	if _, err := LoadMeta([]byte("description: no title\n")); err == nil {
		t.Fatal("missing title should fail")
	}
	if _, err := LoadMeta([]byte(doc + "footer: x\n")); err == nil {
		t.Fatal("unknown meta field should fail")
	}
}
