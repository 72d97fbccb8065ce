package main

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"homeship.ai/internal/persistence/indexdb"
	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/mathx"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/tuning"
)

func TestDBQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ship.sqlite")
	idx, err := indexdb.OpenSQLite(path, "seed-9")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	tune := tuning.Defaults()
	if err := idx.UpsertCatalogs(catalogs.Default(), tune); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	s, rep, err := ship.Generate(nil, tune, ship.Deps{Audit: idx}, mathx.NewRand(9), 3, 0.5)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	idx.RecordGeneration("run-9", rep)
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	gens, err := queryGenerations(db, 5)
	if err != nil || len(gens) != 1 {
		t.Fatalf("generations: %v %v", gens, err)
	}
	if g := gens[0].(generationRow); g.Seed != 9 || g.RunID != "run-9" || g.Digest != s.Digest() {
		t.Fatalf("generation row: %+v", g)
	}

	audits, err := queryAudits(db, "seed-9", "generate", 1, 100)
	if err != nil {
		t.Fatalf("audits: %v", err)
	}
	// Section 1: destroy the stripped frame's slots and frame, build WHEEL, then two habitats
	// each replacing an empty slot.
	if len(audits) != 6+1+1+2*2 {
		t.Fatalf("section 1 audits=%d", len(audits))
	}
	if first := audits[0].(auditRow); first.Seq != 12 || first.Action != ship.ActionBuildModule || first.To != "HABITAT" {
		t.Fatalf("newest first: %+v", first)
	}

	cats, err := queryCatalogs(db)
	if err != nil || len(cats) != 2 {
		t.Fatalf("catalogs: %v %v", cats, err)
	}
	if c := cats[1].(catalogRow); c.Name != "tuning" || c.Digest != tune.Digest() {
		t.Fatalf("tuning row: %+v", c)
	}
}
