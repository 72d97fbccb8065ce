package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	persistlog "homeship.ai/internal/persistence/log"
	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/tuning"
)

func main() {
	var (
		shipDir    = flag.String("ship", "", "ship data dir containing generations/ and audit/ (e.g. ./data/ships/seed-1337)")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		noAudit    = flag.Bool("no_audit", false, "skip comparing the audit log")
	)
	flag.Parse()

	if *shipDir == "" {
		fmt.Fprintln(os.Stderr, "missing -ship")
		os.Exit(2)
	}

	cat, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalog:", err)
		os.Exit(1)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}

	gens, err := persistlog.ReadGenerations(filepath.Join(*shipDir, "generations"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read generations:", err)
		os.Exit(1)
	}
	if len(gens) == 0 {
		fmt.Fprintln(os.Stderr, "no generation entries found in", *shipDir)
		os.Exit(1)
	}

	var audit []auditLine
	if !*noAudit {
		entries, err := persistlog.ReadAudit(filepath.Join(*shipDir, "audit"))
		if err != nil && !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "read audit:", err)
			os.Exit(1)
		}
		audit = generationAudit(entries)
	}

	for i, g := range gens {
		res, err := verify(g, cat, tune)
		if err != nil {
			fmt.Fprintf(os.Stderr, "generation %d (seed=%d): %v\n", i, g.Report.Seed, err)
			os.Exit(1)
		}
		// The audit log only lines up with a ship generated once per directory.
		if audit != nil && len(gens) == 1 {
			if err := compareAudit(res.audit, audit); err != nil {
				fmt.Fprintf(os.Stderr, "generation %d (seed=%d): audit: %v\n", i, g.Report.Seed, err)
				os.Exit(1)
			}
		}
		fmt.Printf("seed=%d middle=%d target=%d cargo=%d digest=%s ok\n",
			g.Report.Seed, g.Report.MiddleLength, g.Report.Target, g.Report.CargoModules, g.Report.Digest)
	}
	fmt.Printf("replay ok: checked=%d generations\n", len(gens))
}
