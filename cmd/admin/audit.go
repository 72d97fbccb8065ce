package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	persistlog "homeship.ai/internal/persistence/log"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/shiploc"
)

type auditFilter struct {
	Action  string
	Reason  string
	Section int // -1: any
	Slot    int // -1: any
	Limit   int
}

func (f auditFilter) match(e ship.AuditEntry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Reason != "" && e.Reason != f.Reason {
		return false
	}
	if f.Section >= 0 && e.Loc.Section != f.Section {
		return false
	}
	if f.Slot >= 0 && e.Loc.Slot != f.Slot {
		return false
	}
	return true
}

// filterAudit keeps matching entries; with a limit it keeps the newest ones.
func filterAudit(entries []ship.AuditEntry, f auditFilter) []ship.AuditEntry {
	var out []ship.AuditEntry
	for _, e := range entries {
		if f.match(e) {
			out = append(out, e)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

type auditSummary struct {
	Entries      int            `json:"entries"`
	FirstSeq     uint64         `json:"first_seq"`
	LastSeq      uint64         `json:"last_seq"`
	Gaps         int            `json:"gaps"`
	Actions      map[string]int `json:"actions"`
	Reasons      map[string]int `json:"reasons"`
	UnitsEjected int            `json:"units_ejected"`
}

func summarize(entries []ship.AuditEntry) auditSummary {
	s := auditSummary{Actions: map[string]int{}, Reasons: map[string]int{}}
	for i, e := range entries {
		s.Entries++
		if i == 0 {
			s.FirstSeq = e.Seq
		} else if e.Seq != entries[i-1].Seq+1 {
			s.Gaps++
		}
		s.LastSeq = e.Seq
		s.Actions[e.Action]++
		reason := e.Reason
		if reason == "" {
			reason = "-"
		}
		s.Reasons[reason]++
		s.UnitsEjected += e.Units
	}
	return s
}

// parseLoc accepts "section" or "section,slot".
func parseLoc(v string) (shiploc.Loc, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return shiploc.Loc{}, false, nil
	}
	parts := strings.Split(v, ",")
	if len(parts) > 2 {
		return shiploc.Loc{}, false, fmt.Errorf("bad location %q", v)
	}
	sec, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return shiploc.Loc{}, false, fmt.Errorf("bad section in %q", v)
	}
	loc := shiploc.Loc{Section: sec, Slot: -1}
	if len(parts) == 2 {
		slot, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return shiploc.Loc{}, false, fmt.Errorf("bad slot in %q", v)
		}
		loc.Slot = slot
	}
	return loc, true, nil
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	shipDir := shipDirFlags(fs)
	action := fs.String("action", "", "action filter, e.g. DESTROY_MODULE")
	reason := fs.String("reason", "", "reason filter: a task id or generate")
	at := fs.String("loc", "", "location filter: section or section,slot")
	limit := fs.Int("limit", 0, "keep only the newest N matches")
	summary := fs.Bool("summary", false, "print counts instead of entries")
	_ = fs.Parse(args)

	f := auditFilter{Action: strings.ToUpper(*action), Reason: *reason, Section: -1, Slot: -1, Limit: *limit}
	loc, ok, err := parseLoc(*at)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if ok {
		f.Section, f.Slot = loc.Section, loc.Slot
	}

	entries, err := persistlog.ReadAudit(filepath.Join(shipDir(), "audit"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	matched := filterAudit(entries, f)

	if *summary {
		printJSON(summarize(matched))
		return
	}
	for _, e := range matched {
		printJSON(e)
	}
}
