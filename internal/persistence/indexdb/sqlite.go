package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary copy of audit and generation records. Writes are
// queued and applied by one goroutine; the JSONL logs remain the source of truth.
type SQLiteIndex struct {
	db     *sql.DB
	shipID string

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropAudit      atomic.Uint64
	dropGeneration atomic.Uint64
}

type reqKind int

const (
	reqAudit reqKind = iota + 1
	reqGeneration
)

type req struct {
	kind reqKind

	audit      ship.AuditEntry
	generation generationRow
}

type generationRow struct {
	RunID      string
	Report     ship.Report
	RecordedAt string
}

type Stats struct {
	QueueDepth          int    `json:"queue_depth"`
	QueueCapacity       int    `json:"queue_capacity"`
	DropAuditTotal      uint64 `json:"drop_audit_total"`
	DropGenerationTotal uint64 `json:"drop_generation_total"`
}

// OpenSQLite opens (creating if needed) the index at path. shipID tags every audit row so
// several runs can share one database.
func OpenSQLite(path, shipID string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if shipID == "" {
		return nil, fmt.Errorf("empty ship id")
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
		db:     db,
		shipID: shipID,
		ch:     make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
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
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS generations (
			ship_id TEXT PRIMARY KEY,
			run_id TEXT,
			seed INTEGER NOT NULL,
			middle_length INTEGER NOT NULL,
			fill REAL NOT NULL,
			space INTEGER NOT NULL,
			target INTEGER NOT NULL,
			cargo_modules INTEGER NOT NULL,
			digest TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			ship_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			action TEXT NOT NULL,
			section INTEGER NOT NULL,
			slot INTEGER NOT NULL,
			from_type TEXT,
			to_type TEXT,
			units INTEGER NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (ship_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_loc ON audits(ship_id, section, slot, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_reason ON audits(ship_id, reason);`,
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

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:          len(s.ch),
		QueueCapacity:       cap(s.ch),
		DropAuditTotal:      s.dropAudit.Load(),
		DropGenerationTotal: s.dropGeneration.Load(),
	}
}

// WriteAudit implements ship.AuditSink. It never blocks; entries are dropped when the
// writer falls behind.
func (s *SQLiteIndex) WriteAudit(entry ship.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
		s.dropAudit.Add(1)
	}
	return nil
}

// RecordGeneration stores the report of a generated ship. runID tells apart repeated runs of
// one seed; it may be empty.
func (s *SQLiteIndex) RecordGeneration(runID string, rep ship.Report) {
	if s == nil || s.closed.Load() {
		return
	}
	r := generationRow{RunID: runID, Report: rep, RecordedAt: time.Now().UTC().Format(time.RFC3339Nano)}
	select {
	case s.ch <- req{kind: reqGeneration, generation: r}:
	default:
		s.dropGeneration.Add(1)
	}
}

// UpsertCatalogs stores the catalog and the tuning actually applied, keyed by digest.
func (s *SQLiteIndex) UpsertCatalogs(cat *catalogs.Catalog, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	{
		sections := make([]catalogs.SectionDef, 0, len(cat.SectionOrder))
		for _, t := range cat.SectionOrder {
			sections = append(sections, cat.Sections[t])
		}
		modules := make([]catalogs.ModuleDef, 0, len(cat.ModuleOrder))
		for _, t := range cat.ModuleOrder {
			modules = append(modules, cat.Modules[t])
		}
		b, err := json.Marshal(map[string]any{"sections": sections, "modules": modules})
		if err != nil {
			return err
		}
		rows = append(rows, kv{name: "catalog", digest: cat.Digest, json: b})
	}
	{
		b, _ := json.Marshal(tune)
		rows = append(rows, kv{name: "tuning", digest: tune.Digest(), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(ship_id,seq,action,section,slot,from_type,to_type,units,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertGeneration, _ := s.db.Prepare(`INSERT OR REPLACE INTO generations(ship_id,run_id,seed,middle_length,fill,space,target,cargo_modules,digest,recorded_at) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertAudit != nil {
			_ = insertAudit.Close()
		}
		if insertGeneration != nil {
			_ = insertGeneration.Close()
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
		// An idle queue commits so UpsertCatalogs never waits on an open batch.
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqAudit:
			a := r.audit
			raw, _ := json.Marshal(a)
			if insertAudit != nil {
				if _, err := tx.Stmt(insertAudit).Exec(
					s.shipID,
					int64(a.Seq),
					a.Action,
					a.Loc.Section, a.Loc.Slot,
					a.From,
					a.To,
					a.Units,
					a.Reason,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqGeneration:
			g := r.generation
			if insertGeneration != nil {
				if _, err := tx.Stmt(insertGeneration).Exec(
					s.shipID,
					g.RunID,
					g.Report.Seed,
					g.Report.MiddleLength,
					g.Report.Fill,
					g.Report.Space,
					g.Report.Target,
					g.Report.CargoModules,
					g.Report.Digest,
					g.RecordedAt,
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
