package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ExperimentLog records one row per build/benchmark run (§6.1 "--do-build",
// "--do-benchmark" should leave an auditable trail). Grounded on the
// teacher's SQLiteBackend: same driver, same "one table, PRAGMA WAL" setup,
// repurposed from a key/value store into an append-only run ledger.
type ExperimentLog struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenExperimentLog opens (creating if needed) the SQLite-backed run log.
func OpenExperimentLog(path string) (*ExperimentLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("experiment log: open: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id      TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			dataset     TEXT NOT NULL,
			drafters    TEXT NOT NULL,
			index_builder TEXT NOT NULL,
			num_layers  INTEGER,
			build_ms    INTEGER,
			p50_ns      INTEGER,
			p99_ns      INTEGER,
			notes       TEXT
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("experiment log: init table: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA synchronous = NORMAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("experiment log: pragma: %w", err)
	}

	return &ExperimentLog{db: db}, nil
}

// RunRecord is one experiment's bookkeeping row.
type RunRecord struct {
	RunID        string
	StartedAt    time.Time
	Dataset      string
	Drafters     string
	IndexBuilder string
	NumLayers    int
	BuildMs      int64
	P50ns        int64
	P99ns        int64
	Notes        string
}

func (l *ExperimentLog) Record(r RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.db.Exec(`
		INSERT OR REPLACE INTO runs
			(run_id, started_at, dataset, drafters, index_builder, num_layers, build_ms, p50_ns, p99_ns, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.StartedAt.UnixNano(), r.Dataset, r.Drafters, r.IndexBuilder, r.NumLayers, r.BuildMs, r.P50ns, r.P99ns, r.Notes,
	)
	return err
}

func (l *ExperimentLog) Recent(limit int) ([]RunRecord, error) {
	rows, err := l.db.Query(`
		SELECT run_id, started_at, dataset, drafters, index_builder, num_layers, build_ms, p50_ns, p99_ns, notes
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var startedAtNS int64
		if err := rows.Scan(&r.RunID, &startedAtNS, &r.Dataset, &r.Drafters, &r.IndexBuilder, &r.NumLayers, &r.BuildMs, &r.P50ns, &r.P99ns, &r.Notes); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(0, startedAtNS)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (l *ExperimentLog) Close() error {
	return l.db.Close()
}
