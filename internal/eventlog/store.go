// Package eventlog persists the triage audit trail: every AI decision,
// every human override and every override clearance, as rows in a sqlite
// database. The log is append-only; nothing in the pipeline reads it
// back, it exists for after-action review and export.
package eventlog

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rescue-lens/triage.report/internal/monitoring"
	"github.com/rescue-lens/triage.report/internal/timeutil"
	"github.com/rescue-lens/triage.report/internal/triage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Source states who produced an event.
type Source string

const (
	SourceAI            Source = "ai"
	SourceOverride      Source = "override"
	SourceOverrideClear Source = "override_clear"
)

// Entry is one row of the audit trail.
type Entry struct {
	EventID    string          `json:"event_id"`
	TS         time.Time       `json:"ts"`
	RecordedAt time.Time       `json:"recorded_at"`
	Source     Source          `json:"source"`
	TrackID    triage.TrackID  `json:"track_id"`
	Category   triage.Category `json:"category"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason"`
	DoctorName string          `json:"doctor_name,omitempty"`
}

// Stats summarises the audit trail.
type Stats struct {
	TotalEvents   int                     `json:"total_events"`
	AIDecisions   int                     `json:"ai_decisions"`
	Overrides     int                     `json:"overrides"`
	Categories    map[triage.Category]int `json:"categories"`
	AvgConfidence float64                 `json:"avg_confidence"`
}

// Store is a sqlite-backed event log.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the event log database at path and
// applies pending schema migrations.
func Open(path string, clock timeutil.Clock) (*Store, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event log database: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, clock: clock}, nil
}

// migrateUp applies the embedded migrations.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	driver, err := msqlite.WithInstance(db, &msqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply event log migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LogDecision records an AI triage decision.
func (s *Store) LogDecision(d triage.TriageDecision) error {
	return s.insert(Entry{
		TS:         d.TS,
		Source:     SourceAI,
		TrackID:    d.ID,
		Category:   d.Category,
		Confidence: d.Confidence,
		Reason:     d.Reason,
	})
}

// LogOverride records a human override. Human decisions carry full
// confidence.
func (s *Store) LogOverride(rec triage.OverrideRecord) error {
	return s.insert(Entry{
		TS:         rec.TS,
		Source:     SourceOverride,
		TrackID:    rec.TrackID,
		Category:   rec.Category,
		Confidence: 1.0,
		Reason:     rec.Reason,
		DoctorName: rec.DoctorName,
	})
}

// LogOverrideCleared records that the override for a track was removed,
// returning authority to the rule engine.
func (s *Store) LogOverrideCleared(id triage.TrackID, ts time.Time) error {
	return s.insert(Entry{
		TS:         ts,
		Source:     SourceOverrideClear,
		TrackID:    id,
		Category:   triage.CategoryUnknown,
		Confidence: 1.0,
		Reason:     "Override cleared",
	})
}

func (s *Store) insert(e Entry) error {
	e.EventID = uuid.NewString()
	e.RecordedAt = s.clock.Now()

	_, err := s.db.Exec(`
		INSERT INTO triage_events (
			event_id, ts_unix_ms, recorded_unix_ms, source,
			track_id, category, confidence, reason, doctor_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EventID,
		e.TS.UnixMilli(),
		e.RecordedAt.UnixMilli(),
		string(e.Source),
		int64(e.TrackID),
		string(e.Category),
		e.Confidence,
		e.Reason,
		e.DoctorName,
	)
	if err != nil {
		return fmt.Errorf("insert %s event for track %d: %w", e.Source, e.TrackID, err)
	}

	monitoring.Logf("eventlog: %s track=%d category=%s", e.Source, e.TrackID, e.Category)
	return nil
}

// Events returns log entries newest first. A limit of 0 returns
// everything.
func (s *Store) Events(limit int) ([]Entry, error) {
	query := `
		SELECT event_id, ts_unix_ms, recorded_unix_ms, source,
		       track_id, category, confidence, reason, doctor_name
		FROM triage_events
		ORDER BY ts_unix_ms DESC, event_id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			tsMS       int64
			recordedMS int64
			source     string
			trackID    int64
			category   string
			doctor     sql.NullString
		)
		if err := rows.Scan(&e.EventID, &tsMS, &recordedMS, &source, &trackID, &category, &e.Confidence, &e.Reason, &doctor); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		e.TS = time.UnixMilli(tsMS).UTC()
		e.RecordedAt = time.UnixMilli(recordedMS).UTC()
		e.Source = Source(source)
		e.TrackID = triage.TrackID(trackID)
		e.Category = triage.Category(category)
		e.DoctorName = doctor.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return entries, nil
}

// GetStats aggregates the audit trail: totals, source split, per-category
// counts and mean confidence.
func (s *Store) GetStats() (Stats, error) {
	stats := Stats{Categories: make(map[triage.Category]int)}

	row := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN source = 'ai' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN source = 'override' THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(confidence), 0)
		FROM triage_events`)
	if err := row.Scan(&stats.TotalEvents, &stats.AIDecisions, &stats.Overrides, &stats.AvgConfidence); err != nil {
		return Stats{}, fmt.Errorf("aggregate event stats: %w", err)
	}

	rows, err := s.db.Query(`SELECT category, COUNT(*) FROM triage_events GROUP BY category`)
	if err != nil {
		return Stats{}, fmt.Errorf("query category counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return Stats{}, fmt.Errorf("scan category count: %w", err)
		}
		stats.Categories[triage.Category(category)] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate category counts: %w", err)
	}

	return stats, nil
}
