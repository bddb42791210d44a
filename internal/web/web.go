// Package web serves the compiled artifact over HTTP in serve mode.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/nil-vr/WeeklyCalendar/internal/compile"
	"github.com/nil-vr/WeeklyCalendar/internal/config"
	"github.com/nil-vr/WeeklyCalendar/internal/emit"
	"github.com/nil-vr/WeeklyCalendar/internal/ics"
	applog "github.com/nil-vr/WeeklyCalendar/internal/log"
	"github.com/nil-vr/WeeklyCalendar/internal/model"
)

// Server exposes /health, /api/schedule, and /api/schedule.ics. The current
// compile result is cached in memory and swapped wholesale on recompile.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	mu       sync.RWMutex
	artifact *emit.Artifact
	rendered []byte
	feed     []byte
	etag     string
}

// NewServer constructs a Server. Call SetResult before serving requests.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/schedule", s.handleSchedule)
	s.mux.HandleFunc("/api/schedule.ics", s.handleFeed)
	return s
}

// SetResult swaps in a freshly compiled result. Each swap gets a new ETag
// so clients revalidate cheaply.
func (s *Server) SetResult(res *compile.Result) error {
	rendered, err := emit.Render(res.Artifact)
	if err != nil {
		return err
	}
	feed := ics.Export(res.Meta, res.Occurrences)

	s.mu.Lock()
	s.artifact = res.Artifact
	s.rendered = rendered
	s.feed = feed
	s.etag = `"` + uuid.NewString() + `"`
	s.mu.Unlock()
	return nil
}

// Handler returns the HTTP handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		applog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="WeeklyCalendar", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	artifact := s.artifact
	rendered := s.rendered
	etag := s.etag
	s.mu.RUnlock()

	if artifact == nil {
		http.Error(w, "no compiled schedule", http.StatusServiceUnavailable)
		return
	}

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")

	if dayParam := r.URL.Query().Get("day"); dayParam != "" {
		n, err := strconv.Atoi(dayParam)
		if err != nil {
			http.Error(w, "day must be an integer", http.StatusBadRequest)
			return
		}
		day, err := model.WeekdayFromInt(n)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := json.NewEncoder(w).Encode(filterDay(artifact, model.WeekdayName(day))); err != nil {
			applog.Error("schedule response write failed", err)
		}
		return
	}

	w.Write(rendered)
}

// filterDay keeps only one weekday's occurrence lists, dropping slots that
// end up empty.
func filterDay(a *emit.Artifact, dayName string) *emit.Artifact {
	out := &emit.Artifact{Meta: a.Meta}
	for _, slot := range a.Slots {
		occs := slot.Days[dayName]
		if len(occs) == 0 {
			continue
		}
		out.Slots = append(out.Slots, emit.TimeSlot{
			Time: slot.Time,
			Days: map[string][]emit.WireOccurrence{dayName: occs},
		})
	}
	if out.Slots == nil {
		out.Slots = []emit.TimeSlot{}
	}
	return out
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	feed := s.feed
	etag := s.etag
	s.mu.RUnlock()

	if feed == nil {
		http.Error(w, "no compiled schedule", http.StatusServiceUnavailable)
		return
	}
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Write(feed)
}
