// Package benchlog records benchmark throughput samples to a local SQLite
// file across `go test -bench` runs, for regression tracking across
// commits. It is test/benchmark-only infrastructure, never imported by
// the library's public API.
//
// Grounded on the teacher repository's own use of go-sqlite3 + database/sql
// to persist harvested reserve state (see main.go's sql.Open("sqlite3",
// dbPath) and syncharvester.go's use of the same driver): benchlog applies
// the identical open-a-local-file/create-table-if-missing/insert pattern
// to benchmark samples instead of blockchain reserves.
package benchlog

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS bench_samples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at INTEGER NOT NULL,
	name TEXT NOT NULL,
	ops_per_sec REAL NOT NULL,
	steals INTEGER NOT NULL
)`

// Log is a handle to the benchmark SQLite database at path. The zero
// value is not usable; construct with Open.
type Log struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite file at path and ensures the
// sample table exists.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}
	return &Log{db: db}, nil
}

// Close closes the underlying database handle.
func (l *Log) Close() error { return l.db.Close() }

// Record inserts one throughput sample for a named benchmark.
func (l *Log) Record(name string, opsPerSec float64, steals int64) error {
	_, err := l.db.Exec(
		`INSERT INTO bench_samples (recorded_at, name, ops_per_sec, steals) VALUES (?, ?, ?, ?)`,
		time.Now().Unix(), name, opsPerSec, steals,
	)
	return err
}

// Recent returns the n most recent ops/sec samples recorded for name, most
// recent first — used by benchmarks that want to flag a regression against
// their own history.
func (l *Log) Recent(name string, n int) ([]float64, error) {
	rows, err := l.db.Query(
		`SELECT ops_per_sec FROM bench_samples WHERE name = ? ORDER BY recorded_at DESC, id DESC LIMIT ?`,
		name, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
