// Copyright 2026 The Baton Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package history provides a SQLite-backed archive of settled workflow
// executions. The in-memory execution store is the source of truth for
// live executions; the archive only ever sees terminal snapshots.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/batonflow/baton/pkg/errors"
	"github.com/batonflow/baton/pkg/workflow"
)

// Archive stores terminal execution snapshots in SQLite.
// It implements workflow.HistorySink.
type Archive struct {
	db *sql.DB
}

// Config contains archive configuration.
type Config struct {
	// Path is the filesystem path to the SQLite database file.
	// Special value ":memory:" creates an in-memory database.
	Path string

	// MaxOpenConns sets the maximum number of open connections.
	MaxOpenConns int
}

// Open opens (or creates) the archive database and runs migrations.
func Open(cfg Config) (*Archive, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// WAL mode for concurrent readers alongside the writer
	connStr := cfg.Path
	if cfg.Path != ":memory:" {
		connStr += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := cfg.MaxOpenConns
	if maxConns == 0 {
		maxConns = 5
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &Archive{db: db}
	if err := a.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return a, nil
}

// migrate creates the database schema.
func (a *Archive) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			state TEXT NOT NULL,
			error TEXT,
			inputs TEXT,
			steps TEXT,
			created_at INTEGER NOT NULL,
			started_at INTEGER,
			completed_at INTEGER,
			archived_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_workflow ON executions(workflow_id)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_state ON executions(state)`,
		`CREATE INDEX IF NOT EXISTS idx_executions_created_at ON executions(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := a.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Record archives a terminal execution snapshot. Re-recording the same
// execution id overwrites the previous row.
func (a *Archive) Record(ctx context.Context, exec *workflow.Execution) error {
	if exec == nil {
		return fmt.Errorf("execution is nil")
	}

	inputsJSON, err := json.Marshal(exec.Inputs)
	if err != nil {
		return fmt.Errorf("failed to marshal inputs: %w", err)
	}
	stepsJSON, err := json.Marshal(exec.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	query := `
		INSERT INTO executions (id, workflow_id, state, error, inputs, steps,
			created_at, started_at, completed_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			error = excluded.error,
			steps = excluded.steps,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			archived_at = excluded.archived_at
	`

	_, err = a.db.ExecContext(ctx, query,
		exec.ID, exec.WorkflowID, string(exec.State), exec.Error,
		inputsJSON, stepsJSON,
		exec.CreatedAt.UnixNano(), nanoOrNil(exec.StartedAt), nanoOrNil(exec.CompletedAt),
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to archive execution: %w", err)
	}
	return nil
}

// Filter narrows List results.
type Filter struct {
	// WorkflowID filters by workflow template id.
	WorkflowID string

	// State filters by terminal execution state.
	State *workflow.ExecutionState

	// Since filters executions created after this time.
	Since *time.Time

	// Limit caps the number of results when positive.
	Limit int
}

// List returns archived executions matching the filter, newest first.
func (a *Archive) List(ctx context.Context, filter Filter) ([]*workflow.Execution, error) {
	query := `SELECT id, workflow_id, state, error, inputs, steps,
		created_at, started_at, completed_at FROM executions WHERE 1=1`
	args := []any{}

	if filter.WorkflowID != "" {
		query += " AND workflow_id = ?"
		args = append(args, filter.WorkflowID)
	}
	if filter.State != nil {
		query += " AND state = ?"
		args = append(args, string(*filter.State))
	}
	if filter.Since != nil {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.UnixNano())
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var out []*workflow.Execution
	for rows.Next() {
		exec, err := scanExecution(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, exec)
	}
	return out, rows.Err()
}

// Get returns one archived execution. Returns NotFoundError for unknown
// ids.
func (a *Archive) Get(ctx context.Context, id string) (*workflow.Execution, error) {
	query := `SELECT id, workflow_id, state, error, inputs, steps,
		created_at, started_at, completed_at FROM executions WHERE id = ?`

	row := a.db.QueryRowContext(ctx, query, id)
	exec, err := scanExecution(row.Scan)
	if err == sql.ErrNoRows {
		return nil, &errors.NotFoundError{Resource: "execution", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return exec, nil
}

// Prune deletes archived executions created before the given time.
// Returns the number of rows deleted.
func (a *Archive) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := a.db.ExecContext(ctx,
		"DELETE FROM executions WHERE created_at < ?",
		before.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune executions: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

func scanExecution(scan func(dest ...any) error) (*workflow.Execution, error) {
	var exec workflow.Execution
	var state string
	var errText sql.NullString
	var inputsJSON, stepsJSON []byte
	var createdAt int64
	var startedAt, completedAt sql.NullInt64

	err := scan(&exec.ID, &exec.WorkflowID, &state, &errText,
		&inputsJSON, &stepsJSON, &createdAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	exec.State = workflow.ExecutionState(state)
	if errText.Valid {
		exec.Error = errText.String
	}
	if len(inputsJSON) > 0 {
		if err := json.Unmarshal(inputsJSON, &exec.Inputs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal inputs: %w", err)
		}
	}
	if len(stepsJSON) > 0 {
		if err := json.Unmarshal(stepsJSON, &exec.Steps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
		}
	}
	exec.CreatedAt = time.Unix(0, createdAt)
	if startedAt.Valid {
		t := time.Unix(0, startedAt.Int64)
		exec.StartedAt = &t
	}
	if completedAt.Valid {
		t := time.Unix(0, completedAt.Int64)
		exec.CompletedAt = &t
	}
	return &exec, nil
}

func nanoOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}
