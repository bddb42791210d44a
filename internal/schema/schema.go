// Package schema parses event and metadata documents into model types.
//
// The schema is closed: every mapping level carries an explicit set of known
// keys, and any key outside that set fails the document. The dataset is
// maintained by many non-programmer contributors, so a typoed field name
// must never be silently ignored.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nil-vr/WeeklyCalendar/internal/model"
	"github.com/nil-vr/WeeklyCalendar/internal/times"
)

var infoKeys = []string{
	"name", "description", "web", "poster", "hashtag", "twitter",
	"group", "discord", "join", "world", "weeks",
}

var eventOnlyKeys = []string{
	"start_date", "end_date", "timezone", "start", "duration",
	"platforms", "days", "languages", "confirmed", "canceled",
}

func keySet(groups ...[]string) map[string]bool {
	set := make(map[string]bool)
	for _, g := range groups {
		for _, k := range g {
			set[k] = true
		}
	}
	return set
}

var (
	weekdayKeys  = model.WeekdayNames()
	eventKeys    = keySet(infoKeys, eventOnlyKeys)
	dayKeys      = keySet(infoKeys, []string{"start", "duration"})
	languageKeys = keySet(infoKeys, weekdayKeys[:])
	namedKeys    = keySet([]string{"name", "id"})
	metaKeys     = keySet([]string{"title", "description", "link", "languages"})
	metaLangKeys = keySet([]string{"title", "description", "link"})
)

func spanOf(n *yaml.Node) model.Span {
	return model.Span{Line: n.Line, Column: n.Column}
}

func schemaErr(n *yaml.Node, key, msg string) error {
	return &SchemaError{Key: key, Span: spanOf(n), Msg: msg}
}

// deref follows YAML aliases so anchors behave like inline values.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// root unwraps the document node and requires a mapping underneath.
func root(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &SchemaError{Msg: "document is empty"}
	}
	m := deref(doc.Content[0])
	if m.Kind != yaml.MappingNode {
		return nil, schemaErr(m, "", "document must be a mapping")
	}
	return m, nil
}

// eachKey walks a mapping's key/value pairs, failing on the first key
// outside known. The unknown-key check is a deliberate set difference, not
// parser leniency.
func eachKey(m *yaml.Node, known map[string]bool, fn func(key string, keyNode, value *yaml.Node) error) error {
	seen := make(map[string]bool, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		keyNode := m.Content[i]
		value := deref(m.Content[i+1])
		key := keyNode.Value
		if !known[key] {
			return schemaErr(keyNode, key, "unknown field")
		}
		if seen[key] {
			return schemaErr(keyNode, key, "duplicate field")
		}
		seen[key] = true
		if err := fn(key, keyNode, value); err != nil {
			return err
		}
	}
	return nil
}

func scalar(n *yaml.Node, key string) (*yaml.Node, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, schemaErr(n, key, "expected a scalar value")
	}
	return n, nil
}

func str(n *yaml.Node, key string) (string, error) {
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return "", schemaErr(n, key, "expected a string")
	}
	return n.Value, nil
}

func strPtr(n *yaml.Node, key string) (*string, error) {
	s, err := str(n, key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func intVal(n *yaml.Node, key string) (int, error) {
	if n.Kind != yaml.ScalarNode || n.Tag != "!!int" {
		return 0, schemaErr(n, key, "expected an integer")
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, schemaErr(n, key, "expected an integer")
	}
	return v, nil
}

func date(n *yaml.Node, key string) (model.Date, error) {
	s, err := str(n, key)
	if err != nil {
		return model.Date{}, err
	}
	d, err := model.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return model.Date{}, schemaErr(n, key, "expected a date (YYYY-MM-DD)")
	}
	return d, nil
}

func timeOfDay(n *yaml.Node, key string) (times.Minutes, error) {
	sn, err := scalar(n, key)
	if err != nil {
		return 0, err
	}
	m, err := times.ParseTimeOfDay(sn.Value)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", spanOf(n), key, err)
	}
	return m, nil
}

func duration(n *yaml.Node, key string) (times.Minutes, error) {
	sn, err := scalar(n, key)
	if err != nil {
		return 0, err
	}
	m, err := times.ParseDuration(sn.Value)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", spanOf(n), key, err)
	}
	return m, nil
}

// LoadEvent parses one event document.
func LoadEvent(data []byte) (*model.Event, error) {
	m, err := root(data)
	if err != nil {
		return nil, err
	}

	ev := &model.Event{
		Platforms: []model.Platform{model.PlatformPC},
		Confirmed: model.DateSetAll(),
		Canceled:  model.DateSetNone(),
	}
	var (
		haveTimezone bool
		haveStart    bool
		haveDuration bool
		haveDays     bool
	)

	err = eachKey(m, eventKeys, func(key string, keyNode, value *yaml.Node) error {
		switch key {
		case "start_date":
			d, err := date(value, key)
			if err != nil {
				return err
			}
			ev.StartDate = &d
		case "end_date":
			d, err := date(value, key)
			if err != nil {
				return err
			}
			ev.EndDate = &d
		case "timezone":
			tz, err := str(value, key)
			if err != nil {
				return err
			}
			ev.Timezone = tz
			ev.TimezoneSpan = spanOf(value)
			haveTimezone = true
		case "start":
			v, err := timeOfDay(value, key)
			if err != nil {
				return err
			}
			ev.Start = v
			haveStart = true
		case "duration":
			v, err := duration(value, key)
			if err != nil {
				return err
			}
			ev.Duration = v
			haveDuration = true
		case "platforms":
			ps, err := parsePlatforms(value)
			if err != nil {
				return err
			}
			ev.Platforms = ps
		case "days":
			days, err := parseDays(value)
			if err != nil {
				return err
			}
			ev.Days = days
			haveDays = true
		case "languages":
			langs, err := parseLanguages(value)
			if err != nil {
				return err
			}
			ev.Languages = langs
		case "confirmed":
			set, err := parseDateSet(value, key)
			if err != nil {
				return err
			}
			ev.Confirmed = set
		case "canceled":
			set, err := parseDateSet(value, key)
			if err != nil {
				return err
			}
			ev.Canceled = set
		default:
			return applyInfoKey(&ev.Info, key, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case !haveTimezone:
		return nil, schemaErr(m, "timezone", "missing required field")
	case !haveStart:
		return nil, schemaErr(m, "start", "missing required field")
	case !haveDuration:
		return nil, schemaErr(m, "duration", "missing required field")
	}

	if ev.StartDate != nil && ev.EndDate != nil && ev.EndDate.Before(*ev.StartDate) {
		return nil, &DateOrderError{Start: *ev.StartDate, End: *ev.EndDate}
	}

	// An absent days mapping means every weekday is enabled with no
	// overrides, not that the event never occurs.
	if !haveDays {
		for i := range ev.Days {
			ev.Days[i] = &model.EventDay{}
		}
	}

	return ev, nil
}

// applyInfoKey fills one descriptive field. Event, day, and language
// mappings all flatten these same keys into their own level.
func applyInfoKey(info *model.EventInfo, key string, value *yaml.Node) error {
	switch key {
	case "name":
		v, err := strPtr(value, key)
		if err != nil {
			return err
		}
		info.Name = v
	case "description":
		v, err := strPtr(value, key)
		if err != nil {
			return err
		}
		info.Description = v
	case "web":
		v, err := strPtr(value, key)
		if err != nil {
			return err
		}
		info.Web = v
	case "poster":
		v, err := strPtr(value, key)
		if err != nil {
			return err
		}
		info.Poster = v
	case "hashtag":
		v, err := strPtr(value, key)
		if err != nil {
			return err
		}
		info.Hashtag = v
	case "twitter":
		v, err := strPtr(value, key)
		if err != nil {
			return err
		}
		info.Twitter = v
	case "group":
		v, err := strPtr(value, key)
		if err != nil {
			return err
		}
		info.Group = v
	case "discord":
		v, err := strPtr(value, key)
		if err != nil {
			return err
		}
		info.Discord = v
	case "join":
		users, err := parseNamedList(value, key)
		if err != nil {
			return err
		}
		info.Join = users
	case "world":
		w, err := parseNamed(value, key)
		if err != nil {
			return err
		}
		info.World = w
	case "weeks":
		weeks, err := parseWeeks(value)
		if err != nil {
			return err
		}
		info.Weeks = weeks
	default:
		return schemaErr(value, key, "unknown field")
	}
	return nil
}

func parsePlatforms(n *yaml.Node) ([]model.Platform, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, schemaErr(n, "platforms", "expected a list of platforms")
	}
	out := make([]model.Platform, 0, len(n.Content))
	for _, item := range n.Content {
		item = deref(item)
		s, err := str(item, "platforms")
		if err != nil {
			return nil, err
		}
		switch model.Platform(s) {
		case model.PlatformPC, model.PlatformQuest:
			out = append(out, model.Platform(s))
		default:
			return nil, schemaErr(item, "platforms", fmt.Sprintf("unknown platform %q", s))
		}
	}
	if len(out) == 0 {
		return nil, schemaErr(n, "platforms", "platform list must not be empty")
	}
	return out, nil
}

func parseDays(n *yaml.Node) (model.EventDays, error) {
	var days model.EventDays
	if n.Kind != yaml.MappingNode {
		return days, schemaErr(n, "days", "expected a mapping of weekdays")
	}
	known := keySet(weekdayKeys[:])
	err := eachKey(n, known, func(key string, keyNode, value *yaml.Node) error {
		day, err := parseDay(value, key)
		if err != nil {
			return err
		}
		for i, name := range weekdayKeys {
			if name == key {
				days[i] = day
			}
		}
		return nil
	})
	return days, err
}

func parseDay(n *yaml.Node, key string) (*model.EventDay, error) {
	// A bare weekday key with no body still enables the weekday.
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return &model.EventDay{}, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, schemaErr(n, key, "expected a weekday override mapping")
	}
	day := &model.EventDay{}
	err := eachKey(n, dayKeys, func(key string, keyNode, value *yaml.Node) error {
		switch key {
		case "start":
			v, err := timeOfDay(value, key)
			if err != nil {
				return err
			}
			day.Start = &v
		case "duration":
			v, err := duration(value, key)
			if err != nil {
				return err
			}
			day.Duration = &v
		default:
			return applyInfoKey(&day.Info, key, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return day, nil
}

func parseLanguages(n *yaml.Node) (map[string]*model.EventLanguage, error) {
	if n.Kind != yaml.MappingNode {
		return nil, schemaErr(n, "languages", "expected a mapping of language tags")
	}
	out := make(map[string]*model.EventLanguage, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode := n.Content[i]
		tag := keyNode.Value
		if _, dup := out[tag]; dup {
			return nil, schemaErr(keyNode, tag, "duplicate language")
		}
		lang, err := parseLanguage(deref(n.Content[i+1]), tag)
		if err != nil {
			return nil, err
		}
		out[tag] = lang
	}
	return out, nil
}

// parseLanguage reads a language override. Weekday overrides are flattened
// into the same mapping as the info fields.
func parseLanguage(n *yaml.Node, tag string) (*model.EventLanguage, error) {
	if n.Kind != yaml.MappingNode {
		return nil, schemaErr(n, tag, "expected a language override mapping")
	}
	lang := &model.EventLanguage{}
	err := eachKey(n, languageKeys, func(key string, keyNode, value *yaml.Node) error {
		for i, name := range weekdayKeys {
			if name == key {
				day, err := parseDay(value, key)
				if err != nil {
					return err
				}
				lang.Days[i] = day
				return nil
			}
		}
		return applyInfoKey(&lang.Info, key, value)
	})
	if err != nil {
		return nil, err
	}
	return lang, nil
}

func parseNamedList(n *yaml.Node, key string) ([]model.Named, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, schemaErr(n, key, "expected a list")
	}
	out := make([]model.Named, 0, len(n.Content))
	for _, item := range n.Content {
		named, err := parseNamed(deref(item), key)
		if err != nil {
			return nil, err
		}
		out = append(out, *named)
	}
	return out, nil
}

func parseNamed(n *yaml.Node, key string) (*model.Named, error) {
	if n.Kind != yaml.MappingNode {
		return nil, schemaErr(n, key, "expected a {name, id} mapping")
	}
	var named model.Named
	var haveName, haveID bool
	err := eachKey(n, namedKeys, func(key string, keyNode, value *yaml.Node) error {
		s, err := str(value, key)
		if err != nil {
			return err
		}
		if key == "name" {
			named.Name = s
			haveName = true
		} else {
			named.ID = s
			haveID = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveName || !haveID {
		return nil, schemaErr(n, key, "both name and id are required")
	}
	return &named, nil
}

func parseWeeks(n *yaml.Node) ([]int, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, schemaErr(n, "weeks", "expected a list of week ordinals")
	}
	out := make([]int, 0, len(n.Content))
	for _, item := range n.Content {
		item = deref(item)
		v, err := intVal(item, "weeks")
		if err != nil {
			return nil, err
		}
		if v < 1 {
			return nil, schemaErr(item, "weeks", "week ordinals start at 1")
		}
		out = append(out, v)
	}
	return out, nil
}

// parseDateSet accepts either a boolean or a list of dates.
func parseDateSet(n *yaml.Node, key string) (model.DateSet, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!bool" {
			switch n.Value {
			case "true":
				return model.DateSetAll(), nil
			case "false":
				return model.DateSetNone(), nil
			}
		}
	case yaml.SequenceNode:
		dates := make([]model.SpannedDate, 0, len(n.Content))
		for _, item := range n.Content {
			item = deref(item)
			d, err := date(item, key)
			if err != nil {
				return model.DateSet{}, err
			}
			dates = append(dates, model.SpannedDate{Date: d, Span: spanOf(item)})
		}
		return model.DateSetOf(dates), nil
	}
	return model.DateSet{}, schemaErr(n, key, "expected true/false or an array of dates")
}

// LoadMeta parses the site metadata document.
func LoadMeta(data []byte) (*model.Meta, error) {
	m, err := root(data)
	if err != nil {
		return nil, err
	}

	meta := &model.Meta{}
	var haveTitle bool
	err = eachKey(m, metaKeys, func(key string, keyNode, value *yaml.Node) error {
		switch key {
		case "title":
			v, err := str(value, key)
			if err != nil {
				return err
			}
			meta.Title = v
			haveTitle = true
		case "description":
			v, err := strPtr(value, key)
			if err != nil {
				return err
			}
			meta.Description = v
		case "link":
			v, err := strPtr(value, key)
			if err != nil {
				return err
			}
			meta.Link = v
		case "languages":
			langs, err := parseMetaLanguages(value)
			if err != nil {
				return err
			}
			meta.Languages = langs
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveTitle {
		return nil, schemaErr(m, "title", "missing required field")
	}
	return meta, nil
}

func parseMetaLanguages(n *yaml.Node) (map[string]model.MetaLanguage, error) {
	if n.Kind != yaml.MappingNode {
		return nil, schemaErr(n, "languages", "expected a mapping of language tags")
	}
	out := make(map[string]model.MetaLanguage, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode := n.Content[i]
		tag := keyNode.Value
		if _, dup := out[tag]; dup {
			return nil, schemaErr(keyNode, tag, "duplicate language")
		}
		value := deref(n.Content[i+1])
		if value.Kind != yaml.MappingNode {
			return nil, schemaErr(value, tag, "expected a mapping")
		}
		var lang model.MetaLanguage
		err := eachKey(value, metaLangKeys, func(key string, keyNode, value *yaml.Node) error {
			v, err := strPtr(value, key)
			if err != nil {
				return err
			}
			switch key {
			case "title":
				lang.Title = v
			case "description":
				lang.Description = v
			case "link":
				lang.Link = v
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		out[tag] = lang
	}
	return out, nil
}
