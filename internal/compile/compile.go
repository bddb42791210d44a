// Package compile runs the full pipeline over a directory of event
// documents: load, normalize, resolve, expand, emit.
//
// Documents are independent: a failing document is reported and skipped,
// and every other document still contributes to the artifact.
package compile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nil-vr/WeeklyCalendar/internal/emit"
	"github.com/nil-vr/WeeklyCalendar/internal/expand"
	applog "github.com/nil-vr/WeeklyCalendar/internal/log"
	"github.com/nil-vr/WeeklyCalendar/internal/model"
	"github.com/nil-vr/WeeklyCalendar/internal/schema"
)

// Options configure one compile run.
type Options struct {
	// EventsDir holds one YAML document per event.
	EventsDir string
	// MetaPath is the site metadata document.
	MetaPath string
	// Horizon is the date window expansion is clipped to.
	Horizon expand.Config
}

// Diagnostic ties a validation failure to its document.
type Diagnostic struct {
	Doc string
	Err error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %v", d.Doc, d.Err)
}

// Result is the outcome of a compile run. Failed counts documents that
// contributed nothing; Diagnostics has one entry per failure.
type Result struct {
	Meta        *model.Meta
	Artifact    *emit.Artifact
	Occurrences []emit.Occurrence
	Diagnostics []Diagnostic
	Compiled    int
	Failed      int
}

// Ok reports whether every document compiled.
func (r *Result) Ok() bool {
	return r.Failed == 0
}

// Run compiles every event document under opts.EventsDir. Only an
// unreadable events directory or metadata document fails the run as a
// whole; per-document errors are isolated into Diagnostics.
func Run(opts Options) (*Result, error) {
	metaData, err := os.ReadFile(opts.MetaPath)
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	meta, err := schema.LoadMeta(metaData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.MetaPath, err)
	}

	entries, err := os.ReadDir(opts.EventsDir)
	if err != nil {
		return nil, fmt.Errorf("read events dir: %w", err)
	}

	// Sorted filename order keeps occurrence ids stable between runs.
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	res := &Result{Meta: meta}
	for id, name := range names {
		path := filepath.Join(opts.EventsDir, name)
		occs, err := compileOne(id, path, opts.Horizon)
		if err != nil {
			res.Failed++
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Doc: path, Err: err})
			applog.Error("event failed to compile", err, "doc", path)
			continue
		}
		res.Compiled++
		res.Occurrences = append(res.Occurrences, occs...)
	}

	res.Artifact = emit.BuildArtifact(meta, res.Occurrences)
	applog.Info("compile finished",
		"events", res.Compiled,
		"failed", res.Failed,
		"occurrences", len(res.Occurrences),
		"slots", len(res.Artifact.Slots),
	)
	return res, nil
}

func compileOne(id int, path string, horizon expand.Config) ([]emit.Occurrence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ev, err := schema.LoadEvent(data)
	if err != nil {
		return nil, err
	}
	return emit.EventOccurrences(id, ev, horizon)
}
