package observation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the append-only backing store for the observation
// sink, the same CREATE TABLE IF NOT EXISTS / WAL-mode / pure-Go-driver
// schema pendingchange.SQLiteStore uses, adapted here to an
// insert-only table (no ON CONFLICT upsert: every Observation gets its
// own row, never overwritten) since query and teach events are facts
// about a point in time rather than a record with a current state.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the sqlite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("observation: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("observation: open db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("observation: init schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS observations (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			query TEXT NOT NULL,
			retrieved_json TEXT NOT NULL,
			success INTEGER NOT NULL,
			teach_node_json TEXT,
			teach_delta REAL NOT NULL,
			teach_note TEXT NOT NULL,
			recorded_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_observations_recorded_at
			ON observations(recorded_at);
	`)
	return err
}

// Append inserts obs as a new row.
func (s *SQLiteStore) Append(ctx context.Context, obs Observation) error {
	retrievedJSON, err := json.Marshal(obs.Retrieved)
	if err != nil {
		return fmt.Errorf("observation: marshal retrieved nodes: %w", err)
	}
	var teachNodeJSON []byte
	if obs.TeachNode != nil {
		teachNodeJSON, err = json.Marshal(obs.TeachNode)
		if err != nil {
			return fmt.Errorf("observation: marshal teach node: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO observations
			(id, kind, query, retrieved_json, success, teach_node_json,
			 teach_delta, teach_note, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, obs.ID, obs.Kind, obs.Query, retrievedJSON, obs.Success, nullString(teachNodeJSON),
		obs.TeachDelta, obs.TeachNote, obs.RecordedAt)
	if err != nil {
		return fmt.Errorf("observation: insert: %w", err)
	}
	return nil
}

// List returns every observation recorded at or after since.
func (s *SQLiteStore) List(ctx context.Context, since time.Time) ([]Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, query, retrieved_json, success, teach_node_json,
			teach_delta, teach_note, recorded_at
		FROM observations
		WHERE recorded_at >= ?
		ORDER BY recorded_at ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("observation: query: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var obs Observation
		var kind string
		var retrievedJSON string
		var teachNodeJSON sql.NullString
		if err := rows.Scan(&obs.ID, &kind, &obs.Query, &retrievedJSON, &obs.Success,
			&teachNodeJSON, &obs.TeachDelta, &obs.TeachNote, &obs.RecordedAt); err != nil {
			return nil, fmt.Errorf("observation: scan: %w", err)
		}
		obs.Kind = Kind(kind)
		if err := json.Unmarshal([]byte(retrievedJSON), &obs.Retrieved); err != nil {
			return nil, fmt.Errorf("observation: unmarshal retrieved nodes: %w", err)
		}
		if teachNodeJSON.Valid {
			var ref NodeRef
			if err := json.Unmarshal([]byte(teachNodeJSON.String), &ref); err != nil {
				return nil, fmt.Errorf("observation: unmarshal teach node: %w", err)
			}
			obs.TeachNode = &ref
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

var _ Store = (*SQLiteStore)(nil)
