package main

import (
	"fmt"

	persistlog "homeship.ai/internal/persistence/log"
	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/mathx"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/tuning"
)

// auditLine is the part of an audit entry that generation determines.
type auditLine struct {
	Seq    uint64
	Action string
	Loc    [2]int
	From   string
	To     string
	Units  int
}

func lineOf(e ship.AuditEntry) auditLine {
	return auditLine{Seq: e.Seq, Action: e.Action, Loc: [2]int{e.Loc.Section, e.Loc.Slot}, From: e.From, To: e.To, Units: e.Units}
}

type auditRecorder []auditLine

func (r *auditRecorder) WriteAudit(e ship.AuditEntry) error {
	*r = append(*r, lineOf(e))
	return nil
}

// generationAudit keeps the entries emitted while the ship was generated.
func generationAudit(entries []ship.AuditEntry) []auditLine {
	out := []auditLine{}
	for _, e := range entries {
		if e.Reason == "generate" {
			out = append(out, lineOf(e))
		}
	}
	return out
}

type verified struct {
	report ship.Report
	audit  []auditLine
}

// verify regenerates the ship described by g and compares its report and digest.
func verify(g persistlog.GenerationEntry, cat *catalogs.Catalog, tune tuning.Tuning) (verified, error) {
	if g.CatalogDigest != "" && g.CatalogDigest != cat.Digest {
		return verified{}, fmt.Errorf("catalog digest mismatch: log=%s configs=%s", g.CatalogDigest, cat.Digest)
	}
	if g.TuningDigest != "" && g.TuningDigest != tune.Digest() {
		return verified{}, fmt.Errorf("tuning digest mismatch: log=%s configs=%s", g.TuningDigest, tune.Digest())
	}

	var rec auditRecorder
	deps := ship.Deps{Audit: &rec}
	rng := mathx.NewRand(g.Report.Seed)
	var (
		rep ship.Report
		err error
	)
	if g.Ranged {
		_, rep, err = ship.GenerateRange(cat, tune, deps, rng)
	} else {
		_, rep, err = ship.Generate(cat, tune, deps, rng, g.Report.MiddleLength, g.Report.Fill)
	}
	if err != nil {
		return verified{}, err
	}
	if rep != g.Report {
		return verified{}, fmt.Errorf("report mismatch:\n got=%+v\nwant=%+v", rep, g.Report)
	}
	return verified{report: rep, audit: rec}, nil
}

func compareAudit(got, logged []auditLine) error {
	if len(got) != len(logged) {
		return fmt.Errorf("entries: regenerated=%d logged=%d", len(got), len(logged))
	}
	for i := range got {
		if got[i] != logged[i] {
			return fmt.Errorf("entry %d differs:\n got=%+v\nwant=%+v", i, got[i], logged[i])
		}
	}
	return nil
}
