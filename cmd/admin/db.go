package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	shipID := fs.String("ship", "", "ship id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	reason := fs.String("reason", "", "reason filter (audits)")
	section := fs.Int("section", -1, "section filter (audits)")
	_ = fs.Parse(args)

	q := "generations"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*shipID) == "" {
			fmt.Fprintln(os.Stderr, "missing -ship or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "ships", *shipID, "index", "ship.sqlite")
	}
	if *limit <= 0 {
		*limit = 20
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	var rows []any
	switch q {
	case "generations":
		rows, err = queryGenerations(db, *limit)
	case "audits":
		rows, err = queryAudits(db, *shipID, *reason, *section, *limit)
	case "catalogs":
		rows, err = queryCatalogs(db)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(generations|audits|catalogs)")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

type generationRow struct {
	ShipID       string  `json:"ship_id"`
	RunID        string  `json:"run_id,omitempty"`
	Seed         int64   `json:"seed"`
	MiddleLength int     `json:"middle_length"`
	Fill         float64 `json:"fill"`
	Target       int     `json:"target"`
	CargoModules int     `json:"cargo_modules"`
	Digest       string  `json:"digest"`
	RecordedAt   string  `json:"recorded_at"`
}

func queryGenerations(db *sql.DB, limit int) ([]any, error) {
	rows, err := db.Query(`SELECT ship_id,COALESCE(run_id,''),seed,middle_length,fill,target,cargo_modules,digest,recorded_at FROM generations ORDER BY recorded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r generationRow
		if err := rows.Scan(&r.ShipID, &r.RunID, &r.Seed, &r.MiddleLength, &r.Fill, &r.Target, &r.CargoModules, &r.Digest, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type auditRow struct {
	ShipID  string `json:"ship_id"`
	Seq     int64  `json:"seq"`
	Action  string `json:"action"`
	Section int    `json:"section"`
	Slot    int    `json:"slot"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Units   int    `json:"units,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func queryAudits(db *sql.DB, shipID, reason string, section, limit int) ([]any, error) {
	where := []string{"1=1"}
	var params []any
	if shipID != "" {
		where = append(where, "ship_id=?")
		params = append(params, shipID)
	}
	if reason != "" {
		where = append(where, "reason=?")
		params = append(params, reason)
	}
	if section >= 0 {
		where = append(where, "section=?")
		params = append(params, section)
	}
	params = append(params, limit)
	rows, err := db.Query(`SELECT ship_id,seq,action,section,slot,COALESCE(from_type,''),COALESCE(to_type,''),units,COALESCE(reason,'') FROM audits WHERE `+
		strings.Join(where, " AND ")+` ORDER BY seq DESC LIMIT ?`, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r auditRow
		if err := rows.Scan(&r.ShipID, &r.Seq, &r.Action, &r.Section, &r.Slot, &r.From, &r.To, &r.Units, &r.Reason); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type catalogRow struct {
	Name      string `json:"name"`
	Digest    string `json:"digest"`
	UpdatedAt string `json:"updated_at"`
}

func queryCatalogs(db *sql.DB) ([]any, error) {
	rows, err := db.Query(`SELECT name,digest,updated_at FROM catalogs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r catalogRow
		if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
