// Package history persists runs and their per-generation statistics in a
// SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/wildfunctions/genetic_poly/pkg/engine"
	"github.com/wildfunctions/genetic_poly/pkg/poly"
)

// ErrNoRun is returned by OnGeneration bookkeeping when StartRun was not called.
var ErrNoRun = errors.New("history: no active run")

// Run is one recorded engine run.
type Run struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Seed      int64         `json:"seed"`
	Config    engine.Config `json:"config"`
}

// GenerationRecord is one stored generation.
type GenerationRecord struct {
	Attempt int         `json:"attempt"`
	Index   int         `json:"index"`
	Best    float64     `json:"best"`
	Mean    float64     `json:"mean"`
	StdDev  float64     `json:"stddev"`
	Elite   poly.Genome `json:"elite"`
}

// Recorder is an engine.Observer writing every generation it sees to SQLite.
// Write errors cannot be returned through OnGeneration; the first one is kept
// and reported by Err and Close.
type Recorder struct {
	path   string
	logger *zap.Logger

	mu    sync.RWMutex
	db    *sql.DB
	runID string
	err   error
}

// NewRecorder returns a Recorder for the database at path. Call Init first.
func NewRecorder(path string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{path: path, logger: logger}
}

// Init opens the database and creates the schema.
func (r *Recorder) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path == "" {
		return errors.New("history: sqlite path is required")
	}
	if r.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	r.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			config TEXT NOT NULL,
			seed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL REFERENCES runs(id),
			attempt INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			best REAL NOT NULL,
			mean REAL NOT NULL,
			stddev REAL NOT NULL,
			elite TEXT NOT NULL,
			PRIMARY KEY (run_id, attempt, idx)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("history: create tables: %w", err)
		}
	}
	return nil
}

func (r *Recorder) getDB() (*sql.DB, error) {
	if r.db == nil {
		return nil, errors.New("history: recorder is not initialized")
	}
	return r.db, nil
}

// StartRun inserts a run row and makes it the target of later generations.
func (r *Recorder) StartRun(ctx context.Context, cfg engine.Config, seed int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	db, err := r.getDB()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, config, seed) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano), string(payload), seed)
	if err != nil {
		return "", err
	}
	r.runID = id
	r.logger.Debug("history run started", zap.String("run_id", id))
	return id, nil
}

// RunID returns the active run, or "" before StartRun.
func (r *Recorder) RunID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runID
}

// OnGeneration stores the statistics of the generation gen was bred from.
// Rows are keyed by attempt and index; a repeated key is overwritten.
func (r *Recorder) OnGeneration(gen engine.Generation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	if err := r.insertGeneration(gen); err != nil {
		r.err = err
		r.logger.Warn("history write failed", zap.Int("generation", gen.Index), zap.Error(err))
	}
}

func (r *Recorder) insertGeneration(gen engine.Generation) error {
	db, err := r.getDB()
	if err != nil {
		return err
	}
	if r.runID == "" {
		return ErrNoRun
	}
	elite, err := json.Marshal(gen.Elite)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(context.Background(), `
		INSERT INTO generations (run_id, attempt, idx, best, mean, stddev, elite)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, attempt, idx) DO UPDATE SET
			best = excluded.best,
			mean = excluded.mean,
			stddev = excluded.stddev,
			elite = excluded.elite
	`, r.runID, gen.Attempt, gen.Index-1, gen.Stats.Best, gen.Stats.Mean, gen.Stats.StdDev, string(elite))
	return err
}

// Runs lists recorded runs, newest first.
func (r *Recorder) Runs(ctx context.Context) ([]Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	db, err := r.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, started_at, config, seed FROM runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run             Run
			started, rawCfg string
		)
		if err := rows.Scan(&run.ID, &started, &rawCfg, &run.Seed); err != nil {
			return nil, err
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", run.ID, err)
		}
		if err := json.Unmarshal([]byte(rawCfg), &run.Config); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Generations returns the stored generations of run id ordered by attempt,
// then index.
func (r *Recorder) Generations(ctx context.Context, id string) ([]GenerationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	db, err := r.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT attempt, idx, best, mean, stddev, elite FROM generations
		WHERE run_id = ? ORDER BY attempt, idx
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenerationRecord
	for rows.Next() {
		var (
			rec   GenerationRecord
			elite string
		)
		if err := rows.Scan(&rec.Attempt, &rec.Index, &rec.Best, &rec.Mean, &rec.StdDev, &elite); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(elite), &rec.Elite); err != nil {
			return nil, fmt.Errorf("decode generation %d/%d: %w", rec.Attempt, rec.Index, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Err returns the first write error seen by OnGeneration.
func (r *Recorder) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Close closes the database and returns any pending write error.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return r.err
	}
	err := r.db.Close()
	r.db = nil
	return errors.Join(r.err, err)
}
