package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultLimit is the number of runs listed when no limit is given.
const DefaultLimit = 20

// Store persists runs in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the ledger at dbPath. Use ":memory:" for an
// in-memory ledger.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		build_status TEXT NOT NULL,
		failed_stage TEXT,
		source_revision TEXT,
		files TEXT,
		published INTEGER NOT NULL DEFAULT 0,
		publish_state TEXT,
		commit_hash TEXT,
		unchanged INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_build_id ON runs(build_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends a run and returns its id.
func (s *Store) Record(ctx context.Context, r Run) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := json.Marshal(r.Files)
	if err != nil {
		return 0, fmt.Errorf("marshal files: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (build_id, started_at, duration_ms, build_status, failed_stage,
			source_revision, files, published, publish_state, commit_hash, unchanged, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BuildID, r.StartedAt.UnixMilli(), r.Duration.Milliseconds(), r.BuildStatus, r.FailedStage,
		r.SourceRevision, string(files), r.Published, r.PublishState, r.Commit, r.Unchanged, r.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read run id: %w", err)
	}
	return id, nil
}

const selectRuns = `SELECT id, build_id, started_at, duration_ms, build_status, failed_stage,
	source_revision, files, published, publish_state, commit_hash, unchanged, error FROM runs`

// List returns the most recent runs, newest first. A limit of zero or less
// means DefaultLimit.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+" ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRuns(rows)
}

// GetByBuildID returns the runs recorded for a build id, oldest first.
func (s *Store) GetByBuildID(ctx context.Context, buildID string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectRuns+" WHERE build_id = ? ORDER BY id", buildID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRuns(rows)
}

// LastPublished returns the newest run that committed to the publish branch.
func (s *Store) LastPublished(ctx context.Context) (Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectRuns+" WHERE commit_hash <> '' ORDER BY id DESC LIMIT 1")
	if err != nil {
		return Run{}, false, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	runs, err := scanRuns(rows)
	if err != nil || len(runs) == 0 {
		return Run{}, false, err
	}
	return runs[0], true, nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			r                                   Run
			startedMS, durationMS               int64
			failedStage, revision, files, state sql.NullString
			commit, errText                     sql.NullString
		)
		err := rows.Scan(&r.ID, &r.BuildID, &startedMS, &durationMS, &r.BuildStatus, &failedStage,
			&revision, &files, &r.Published, &state, &commit, &r.Unchanged, &errText)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(startedMS)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.FailedStage = failedStage.String
		r.SourceRevision = revision.String
		r.PublishState = state.String
		r.Commit = commit.String
		r.Error = errText.String
		if files.Valid && files.String != "" && files.String != "null" {
			if err := json.Unmarshal([]byte(files.String), &r.Files); err != nil {
				return nil, fmt.Errorf("unmarshal files: %w", err)
			}
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
