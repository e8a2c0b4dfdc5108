package eventlog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ExportJSON writes the full audit trail to w as an indented JSON array,
// newest first.
func (s *Store) ExportJSON(w io.Writer) error {
	entries, err := s.Events(0)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []Entry{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode events JSON: %w", err)
	}
	return nil
}

// ExportCSV writes the full audit trail to w as CSV with a header row,
// newest first.
func (s *Store) ExportCSV(w io.Writer) error {
	entries, err := s.Events(0)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"event_id", "ts", "recorded_at", "source", "track_id", "category", "confidence", "reason", "doctor_name"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.EventID,
			e.TS.Format(time.RFC3339Nano),
			e.RecordedAt.Format(time.RFC3339Nano),
			string(e.Source),
			strconv.FormatInt(int64(e.TrackID), 10),
			string(e.Category),
			strconv.FormatFloat(e.Confidence, 'f', -1, 64),
			e.Reason,
			e.DoctorName,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}
	return nil
}
