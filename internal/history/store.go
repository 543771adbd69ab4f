// Package history is the telemetry history store: a bounded, insertion-ordered
// time series per device, backed by Postgres.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrStoreUnavailable is returned when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("history store unavailable")

// Entry is one retained reading: the producer-assigned timestamp and the
// opaque payload. Value is valid JSON (non-JSON payloads are stored verbatim
// and returned as a JSON string).
type Entry struct {
	Timestamp time.Time       `json:"timestamp"`
	Value     json.RawMessage `json:"value"`
}

// Store is the history contract used by the ingestion bridge and the query surface.
type Store interface {
	// Append records a reading. The payload is opaque; Append never fails on
	// malformed payloads, only on store errors (ErrStoreUnavailable).
	Append(ctx context.Context, deviceID string, ts time.Time, payload []byte) error
	// Query returns the full retained range for a device in insertion order.
	// A device with no history yields an empty slice, not an error.
	Query(ctx context.Context, deviceID string) ([]Entry, error)
}

// PostgresStore implements Store on the device_readings table. Retention is
// enforced on append: entries with a producer timestamp older than the
// retention window are pruned, so retrieval never grows unbounded.
type PostgresStore struct {
	db        *sql.DB
	retention time.Duration
}

// NewPostgresStore returns a history store with the given retention window.
// retention <= 0 disables pruning.
func NewPostgresStore(db *sql.DB, retention time.Duration) *PostgresStore {
	return &PostgresStore{db: db, retention: retention}
}

// Append inserts the reading and prunes entries outside the retention window.
// The prune is best-effort: a failed prune does not fail the append.
func (s *PostgresStore) Append(ctx context.Context, deviceID string, ts time.Time, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO device_readings (device_id, ts, payload) VALUES ($1, $2, $3)`,
		deviceID, ts.UTC(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if s.retention > 0 {
		cutoff := time.Now().UTC().Add(-s.retention)
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM device_readings WHERE device_id = $1 AND ts < $2`,
			deviceID, cutoff,
		); err != nil {
			// Stale rows linger until the next successful append; the data itself is safe.
			return nil
		}
	}
	return nil
}

// Query returns all retained entries for the device in insertion order.
func (s *PostgresStore) Query(ctx context.Context, deviceID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, payload FROM device_readings WHERE device_id = $1 ORDER BY id ASC`,
		deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var ts time.Time
		var payload string
		if err := rows.Scan(&ts, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		entries = append(entries, Entry{Timestamp: ts, Value: NormalizeValue([]byte(payload))})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return entries, nil
}

// NormalizeValue returns the payload as JSON: valid JSON passes through
// unchanged, anything else is wrapped as a JSON string.
func NormalizeValue(payload []byte) json.RawMessage {
	if json.Valid(payload) {
		return json.RawMessage(payload)
	}
	quoted, err := json.Marshal(string(payload))
	if err != nil {
		return json.RawMessage(`""`)
	}
	return json.RawMessage(quoted)
}
