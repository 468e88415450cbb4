package pendingchange

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the local FallbackStore the submitter writes to when
// the review service is unreachable, generalized from the append-only
// schema/persist pattern used elsewhere in the pack for an embedded
// sqlite-backed store (CREATE TABLE IF NOT EXISTS, JSON-encoded nested
// fields, WAL mode for a single-writer/many-reader process) to this
// package's PendingChange shape, using the pure-Go modernc.org/sqlite
// driver rather than a cgo one so the engine stays cgo-free.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the sqlite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("pendingchange: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("pendingchange: open db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pendingchange: init schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS pending_changes (
			id TEXT PRIMARY KEY,
			change_type TEXT NOT NULL,
			org TEXT NOT NULL,
			team TEXT NOT NULL,
			proposed_value_json TEXT NOT NULL,
			previous_value_json TEXT NOT NULL,
			requested_by TEXT NOT NULL,
			reason TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_pending_changes_created_at
			ON pending_changes(created_at);
	`)
	return err
}

// Save inserts pc, or overwrites it in place if the same stable id was
// already stored (a retried submission of the same flag_review outcome
// must not accumulate duplicate rows).
func (s *SQLiteStore) Save(ctx context.Context, pc PendingChange) error {
	proposedJSON, err := json.Marshal(pc.ProposedValue)
	if err != nil {
		return fmt.Errorf("pendingchange: marshal proposed value: %w", err)
	}
	previousJSON, err := json.Marshal(pc.PreviousValue)
	if err != nil {
		return fmt.Errorf("pendingchange: marshal previous value: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_changes
			(id, change_type, org, team, proposed_value_json, previous_value_json,
			 requested_by, reason, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			change_type = excluded.change_type,
			org = excluded.org,
			team = excluded.team,
			proposed_value_json = excluded.proposed_value_json,
			previous_value_json = excluded.previous_value_json,
			requested_by = excluded.requested_by,
			reason = excluded.reason,
			status = excluded.status
	`, pc.ID, pc.ChangeType, pc.Org, pc.Team, proposedJSON, previousJSON,
		pc.RequestedBy, pc.Reason, pc.Status, pc.CreatedAt)
	if err != nil {
		return fmt.Errorf("pendingchange: insert: %w", err)
	}
	return nil
}

// List returns every stored PendingChange ordered by creation time.
func (s *SQLiteStore) List(ctx context.Context) ([]PendingChange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, change_type, org, team, proposed_value_json, previous_value_json,
			requested_by, reason, status, created_at
		FROM pending_changes
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("pendingchange: query: %w", err)
	}
	defer rows.Close()

	var out []PendingChange
	for rows.Next() {
		var pc PendingChange
		var proposedJSON, previousJSON string
		var status string
		if err := rows.Scan(&pc.ID, &pc.ChangeType, &pc.Org, &pc.Team, &proposedJSON,
			&previousJSON, &pc.RequestedBy, &pc.Reason, &status, &pc.CreatedAt); err != nil {
			return nil, fmt.Errorf("pendingchange: scan: %w", err)
		}
		pc.Status = Status(status)
		if err := json.Unmarshal([]byte(proposedJSON), &pc.ProposedValue); err != nil {
			return nil, fmt.Errorf("pendingchange: unmarshal proposed value: %w", err)
		}
		if err := json.Unmarshal([]byte(previousJSON), &pc.PreviousValue); err != nil {
			return nil, fmt.Errorf("pendingchange: unmarshal previous value: %w", err)
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ FallbackStore = (*SQLiteStore)(nil)
