// Package api exposes the assessment snapshots and the override/audit
// surface over HTTP. The server never calls into the pipeline: the host
// tick loop pushes fresh snapshots in and drains queued override
// commands out, so the core keeps its single-writer guarantee.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rescue-lens/triage.report/internal/eventlog"
	"github.com/rescue-lens/triage.report/internal/monitoring"
	"github.com/rescue-lens/triage.report/internal/triage"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// OverrideCommand is a queued override mutation awaiting application by
// the tick loop.
type OverrideCommand struct {
	Clear   bool
	TrackID triage.TrackID
	Record  triage.OverrideRecord
}

// Server publishes snapshots and accepts overrides.
type Server struct {
	store *eventlog.Store

	mu         sync.RWMutex
	snapshot   triage.Snapshot
	persistent []triage.PersistentPatient
	pending    []OverrideCommand
}

// NewServer creates a server backed by the given event store. The store
// may be nil, in which case the events endpoints report an empty log as
// unavailable.
func NewServer(store *eventlog.Store) *Server {
	return &Server{store: store}
}

// UpdateSnapshot replaces the published snapshot. Called by the tick
// loop after every pipeline tick; the arguments are values/copies, never
// aliases of pipeline internals.
func (s *Server) UpdateSnapshot(snap triage.Snapshot, persistent []triage.PersistentPatient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	s.persistent = persistent
}

// DrainOverrides removes and returns all queued override commands, in
// arrival order. Called by the tick loop before each tick.
func (s *Server) DrainOverrides() []OverrideCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.pending
	s.pending = nil
	return pending
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/patients", s.handlePatients)
	mux.HandleFunc("/api/override", s.handleOverride)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/events/export", s.handleExport)
	mux.HandleFunc("/api/stats", s.handleStats)
	return mux
}

// patientsResponse is the wire shape of the snapshot endpoint.
type patientsResponse struct {
	Patients   []triage.Patient           `json:"patients"`
	Persistent []triage.PersistentPatient `json:"persistent"`
	TS         time.Time                  `json:"ts"`
}

func (s *Server) handlePatients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	resp := patientsResponse{
		Patients:   s.snapshot.Patients,
		Persistent: s.persistent,
		TS:         s.snapshot.TS,
	}
	s.mu.RUnlock()

	if resp.Patients == nil {
		resp.Patients = []triage.Patient{}
	}
	if resp.Persistent == nil {
		resp.Persistent = []triage.PersistentPatient{}
	}
	writeJSON(w, resp)
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var rec triage.OverrideRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, fmt.Sprintf("invalid override body: %v", err), http.StatusBadRequest)
			return
		}
		if !triage.ValidCategory(rec.Category) {
			http.Error(w, fmt.Sprintf("invalid override category %q", rec.Category), http.StatusBadRequest)
			return
		}
		if rec.TS.IsZero() {
			rec.TS = time.Now()
		}

		s.mu.Lock()
		s.pending = append(s.pending, OverrideCommand{TrackID: rec.TrackID, Record: rec})
		s.mu.Unlock()

		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]string{"status": "queued"})

	case http.MethodDelete:
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "missing or invalid id parameter", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		s.pending = append(s.pending, OverrideCommand{Clear: true, TrackID: triage.TrackID(id)})
		s.mu.Unlock()

		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]string{"status": "queued"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "event log not configured", http.StatusServiceUnavailable)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := s.store.Events(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []eventlog.Entry{}
	}
	writeJSON(w, entries)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "event log not configured", http.StatusServiceUnavailable)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="triage_events.json"`)
		if err := s.store.ExportJSON(w); err != nil {
			monitoring.Logf("api: JSON export failed: %v", err)
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="triage_events.csv"`)
		if err := s.store.ExportCSV(w); err != nil {
			monitoring.Logf("api: CSV export failed: %v", err)
		}
	default:
		http.Error(w, fmt.Sprintf("unsupported export format %q", format), http.StatusBadRequest)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "event log not configured", http.StatusServiceUnavailable)
		return
	}

	stats, err := s.store.GetStats()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("api: failed to encode response: %v", err)
	}
}
