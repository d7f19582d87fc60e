package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"outpost.sim/internal/sim/colony"
	"outpost.sim/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary index over the tick and job streams.
// Writes go through a single goroutine; the sim loop never blocks on sqlite.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTick reqKind = iota + 1
	reqJob
)

type req struct {
	kind reqKind

	tick colony.TickLogEntry
	job  colony.JobRecord
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Generous buffer: autonomy sweeps can retire many jobs in one tick.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			pending INTEGER NOT NULL,
			active INTEGER NOT NULL,
			jobs_created INTEGER NOT NULL,
			events INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			done_at INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_kind_done ON jobs(kind, done_at);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry colony.TickLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
	}
	return nil
}

func (s *SQLiteIndex) WriteJob(rec colony.JobRecord) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqJob, job: rec}:
	default:
	}
	return nil
}

// UpsertRunMeta records the immutable parameters of this run: seed, colony
// id and the tuning values actually applied (canonical JSON plus digest).
func (s *SQLiteIndex) UpsertRunMeta(colonyID string, seed int64, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows := [][2]string{
		{"schema_version", "1"},
		{"colony_id", colonyID},
		{"seed", fmt.Sprintf("%d", seed)},
		{"tuning", string(b)},
		{"tuning_digest", hex.EncodeToString(sum[:])},
		{"started_at", time.Now().UTC().Format(time.RFC3339Nano)},
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r[0], r[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LatestTick returns the highest indexed tick, or ok=false on an empty index.
func (s *SQLiteIndex) LatestTick() (tick uint64, digest string, ok bool, err error) {
	row := s.db.QueryRow(`SELECT tick, digest FROM ticks ORDER BY tick DESC LIMIT 1`)
	var t int64
	switch err = row.Scan(&t, &digest); err {
	case nil:
		return uint64(t), digest, true, nil
	case sql.ErrNoRows:
		return 0, "", false, nil
	default:
		return 0, "", false, err
	}
}

func (s *SQLiteIndex) TickDigest(tick uint64) (string, error) {
	var digest string
	err := s.db.QueryRow(`SELECT digest FROM ticks WHERE tick=?`, int64(tick)).Scan(&digest)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return digest, err
}

// JobCountsByKind aggregates retired jobs, split by terminal status.
func (s *SQLiteIndex) JobCountsByKind() (completed, cancelled map[string]int, err error) {
	rows, err := s.db.Query(`SELECT kind, status, COUNT(*) FROM jobs GROUP BY kind, status`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	completed = map[string]int{}
	cancelled = map[string]int{}
	for rows.Next() {
		var kind, status string
		var n int
		if err := rows.Scan(&kind, &status, &n); err != nil {
			return nil, nil, err
		}
		switch status {
		case "COMPLETED":
			completed[kind] = n
		case "CANCELLED":
			cancelled[kind] = n
		}
	}
	return completed, cancelled, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,pending,active,jobs_created,events,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertJob, _ := s.db.Prepare(`INSERT OR REPLACE INTO jobs(id,kind,status,x,y,created_at,done_at,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertTick != nil {
			_ = insertTick.Close()
		}
		if insertJob != nil {
			_ = insertJob.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			b, _ := json.Marshal(r.tick)
			if insertTick != nil {
				if _, err := tx.Stmt(insertTick).Exec(
					int64(r.tick.Tick),
					r.tick.Digest,
					r.tick.Pending,
					r.tick.Active,
					r.tick.JobsCreated,
					r.tick.Events,
					string(b),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqJob:
			j := r.job
			b, _ := json.Marshal(j)
			if insertJob != nil {
				if _, err := tx.Stmt(insertJob).Exec(
					j.ID,
					j.Kind,
					j.Status,
					j.X,
					j.Y,
					int64(j.CreatedAt),
					int64(j.DoneAt),
					string(b),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
