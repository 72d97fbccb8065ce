package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"homeship.ai/internal/persistence/indexdb"
	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/tuning"
)

type runtimeIndex interface {
	ship.AuditSink
	Close() error
	UpsertCatalogs(cat *catalogs.Catalog, tune tuning.Tuning) error
	RecordGeneration(runID string, rep ship.Report)
	Stats() indexdb.Stats
}

func openRuntimeIndex(shipDir, shipID string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("HS_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(shipDir, "index", "ship.sqlite")
		return indexdb.OpenSQLite(dbPath, shipID)
	default:
		return nil, fmt.Errorf("unsupported HS_INDEX_BACKEND: %s", backend)
	}
}
