// Package benchdb persists compression benchmark runs so rate/error numbers
// can be compared across corpora and encoder settings over time. One run
// groups the results of a single tool invocation; each result row records
// one file at one bit-depth setting.
package benchdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the benchmark database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			label TEXT,
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS results (
			result_id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			file TEXT NOT NULL,
			points INTEGER NOT NULL,
			position_bits INTEGER NOT NULL,
			input_bytes INTEGER NOT NULL,
			encoded_bytes INTEGER NOT NULL,
			max_error DOUBLE NOT NULL,
			mean_error DOUBLE NOT NULL,
			encode_ns INTEGER NOT NULL,
			decode_ns INTEGER NOT NULL,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
		CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create benchmark schema: %w", err)
	}

	return &DB{db}, nil
}

// Result is one file at one encoder setting.
type Result struct {
	File         string
	Points       int
	PositionBits int
	InputBytes   int
	EncodedBytes int
	MaxError     float64
	MeanError    float64
	EncodeTime   time.Duration
	DecodeTime   time.Duration
}

// Run is a recorded tool invocation.
type Run struct {
	ID        string
	Label     string
	StartedAt time.Time
}

// BeginRun registers a new run and returns its id.
func (db *DB) BeginRun(label string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec("INSERT INTO runs (run_id, label) VALUES (?, ?)", id, label)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// RecordResult attaches one result row to a run.
func (db *DB) RecordResult(runID string, r Result) error {
	_, err := db.Exec(`
		INSERT INTO results
			(run_id, file, points, position_bits, input_bytes, encoded_bytes,
			 max_error, mean_error, encode_ns, decode_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.File, r.Points, r.PositionBits, r.InputBytes, r.EncodedBytes,
		r.MaxError, r.MeanError, r.EncodeTime.Nanoseconds(), r.DecodeTime.Nanoseconds())
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

// ListRuns returns runs newest first.
func (db *DB) ListRuns() ([]Run, error) {
	rows, err := db.Query("SELECT run_id, label, started_at FROM runs ORDER BY started_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Label, &r.StartedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Results returns the result rows of one run in insertion order.
func (db *DB) Results(runID string) ([]Result, error) {
	rows, err := db.Query(`
		SELECT file, points, position_bits, input_bytes, encoded_bytes,
		       max_error, mean_error, encode_ns, decode_ns
		FROM results WHERE run_id = ? ORDER BY result_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var encodeNs, decodeNs int64
		if err := rows.Scan(&r.File, &r.Points, &r.PositionBits, &r.InputBytes,
			&r.EncodedBytes, &r.MaxError, &r.MeanError, &encodeNs, &decodeNs); err != nil {
			return nil, err
		}
		r.EncodeTime = time.Duration(encodeNs)
		r.DecodeTime = time.Duration(decodeNs)
		results = append(results, r)
	}
	return results, rows.Err()
}
