// Package store persists fused snapshots and notable events to SQLite.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rafaelq/floodwatch/internal/flood"
)

// DefaultHistoryLimit bounds History reads when the caller does not
// say how many rows it wants.
const DefaultHistoryLimit = 100

// DefaultEventsLimit bounds event reads the same way.
const DefaultEventsLimit = 50

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// InsertSnapshot records one fused history entry under the given
// snapshot id. Skipped cycles never reach the store.
func (s *Store) InsertSnapshot(ctx context.Context, id string, e flood.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, captured_at, waze_count, affected_areas, alerts_in_areas, avg_rain, max_rain, active_stations, severity, severity_label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, e.CapturedAt.UTC(), e.WazeFloodCount, e.AffectedAreaCount, e.AlertsInAreasCount,
		e.AvgRain, e.MaxRain, e.ActiveStations, e.Severity, flood.LabelFor(e.Severity))
	return err
}

// History returns up to limit persisted entries ordered oldest first.
// The window is always the most recent rows: with 300 rows stored and
// limit 100, the caller sees rows 201-300 in capture order.
func (s *Store) History(ctx context.Context, limit int) ([]flood.Entry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT captured_at, waze_count, affected_areas, alerts_in_areas, avg_rain, max_rain, active_stations, severity
		FROM snapshots
		ORDER BY captured_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []flood.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// LatestEntry returns the newest persisted entry, or nil when the
// store is empty.
func (s *Store) LatestEntry(ctx context.Context) (*flood.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT captured_at, waze_count, affected_areas, alerts_in_areas, avg_rain, max_rain, active_stations, severity
		FROM snapshots
		ORDER BY captured_at DESC
		LIMIT 1
	`)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// InsertEvents records the notable events detected for one snapshot.
func (s *Store) InsertEvents(ctx context.Context, snapshotID string, events []flood.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, ev := range events {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (snapshot_id, occurred_at, tag, message)
			VALUES (?, ?, ?, ?)
		`, snapshotID, ev.OccurredAt.UTC(), ev.Tag, ev.Message); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecentEvents returns up to limit notable events, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]flood.Event, error) {
	if limit <= 0 {
		limit = DefaultEventsLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT occurred_at, tag, message
		FROM events
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []flood.Event
	for rows.Next() {
		var ev flood.Event
		var occurred time.Time
		if err := rows.Scan(&occurred, &ev.Tag, &ev.Message); err != nil {
			return nil, err
		}
		ev.OccurredAt = occurred.UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (flood.Entry, error) {
	var e flood.Entry
	var captured time.Time
	err := row.Scan(&captured, &e.WazeFloodCount, &e.AffectedAreaCount, &e.AlertsInAreasCount,
		&e.AvgRain, &e.MaxRain, &e.ActiveStations, &e.Severity)
	if err != nil {
		return flood.Entry{}, err
	}
	e.CapturedAt = captured.UTC()
	return e, nil
}
