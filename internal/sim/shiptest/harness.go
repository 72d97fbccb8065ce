package shiptest

import (
	"testing"

	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/crew"
	"homeship.ai/internal/sim/hold"
	"homeship.ai/internal/sim/mathx"
	"homeship.ai/internal/sim/refit"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/shiploc"
	"homeship.ai/internal/sim/tasks"
	"homeship.ai/internal/sim/tuning"
)

// Harness wires a ship to the reference crew roster and hold and drives refits through the
// public validator and task chain, the same path a game loop takes:
// - Plan* validates and enqueues, failing the test on rejection
// - Reject* asserts a rejection code
// - Finish completes a queued task and pays its cost
//
// Every audit entry is recorded in Audits.
type Harness struct {
	T *testing.T

	Ship      *ship.Ship
	Chain     *tasks.Chain
	Validator *refit.Validator
	Hold      *hold.Hold
	Roster    *crew.Roster
	Tune      tuning.Tuning

	Audits []ship.AuditEntry
}

type recorder struct{ h *Harness }

func (r recorder) WriteAudit(e ship.AuditEntry) error {
	r.h.Audits = append(r.h.Audits, e)
	return nil
}

func newHarness(t *testing.T, holdCapacity int) *Harness {
	h := &Harness{
		T:      t,
		Hold:   hold.New(holdCapacity),
		Roster: crew.NewRoster(),
		Tune:   tuning.Defaults(),
	}
	return h
}

func (h *Harness) deps() ship.Deps {
	return ship.Deps{Jobs: h.Roster, Housing: h.Roster, Cargo: h.Hold, Audit: recorder{h: h}}
}

func (h *Harness) attach(s *ship.Ship) {
	h.Ship = s
	h.Chain = tasks.NewChain(s)
	h.Validator = refit.New(s, h.Chain, h.Tune, h.Hold)
}

// NewNaked returns a harness around a naked ship with the given middle length.
// holdCapacity <= 0 means an unbounded hold.
func NewNaked(t *testing.T, middleLength, holdCapacity int) *Harness {
	t.Helper()
	h := newHarness(t, holdCapacity)
	h.attach(ship.New(shiploc.NewLayout(middleLength, h.Tune.ModulesPerSection), nil, h.deps()))
	return h
}

// NewGenerated returns a harness around a generated ship.
func NewGenerated(t *testing.T, seed int64, middleLength int, fill float64, holdCapacity int) (*Harness, ship.Report) {
	t.Helper()
	h := newHarness(t, holdCapacity)
	s, rep, err := ship.Generate(nil, h.Tune, h.deps(), mathx.NewRand(seed), middleLength, fill)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	h.attach(s)
	return h, rep
}

// Fund puts items in the hold.
func (h *Harness) Fund(item string, units int) {
	h.Hold.Store([]catalogs.Stack{{Item: item, Units: units}})
}

func (h *Harness) enqueue(task *tasks.Task, c refit.Check, what string) string {
	h.T.Helper()
	if !c.OK {
		h.T.Fatalf("%s rejected: %s", what, c)
	}
	id, err := h.Chain.Enqueue(task)
	if err != nil {
		h.T.Fatalf("%s enqueue: %v", what, err)
	}
	return id
}

func (h *Harness) PlanBuildSection(section int, t catalogs.SectionType) string {
	h.T.Helper()
	task, c := h.Validator.PlanBuildSection(shiploc.Loc{Section: section}, t)
	return h.enqueue(task, c, "build section")
}

func (h *Harness) PlanRemoveSection(section int) string {
	h.T.Helper()
	task, c := h.Validator.PlanRemoveSection(shiploc.Loc{Section: section})
	return h.enqueue(task, c, "remove section")
}

func (h *Harness) PlanBuildModule(loc shiploc.Loc, t catalogs.ModuleType) string {
	h.T.Helper()
	task, c := h.Validator.PlanBuildModule(loc, t)
	return h.enqueue(task, c, "build module")
}

func (h *Harness) PlanRemoveModule(loc shiploc.Loc) string {
	h.T.Helper()
	task, c := h.Validator.PlanRemoveModule(loc)
	return h.enqueue(task, c, "remove module")
}

// Reject asserts that c failed with code.
func (h *Harness) Reject(c refit.Check, code string) {
	h.T.Helper()
	if c.OK {
		h.T.Fatalf("expected %s, got ok", code)
	}
	if c.Code != code {
		h.T.Fatalf("expected %s, got %s", code, c)
	}
}

// Finish rechecks, pays for and completes a queued task.
func (h *Harness) Finish(id string) {
	h.T.Helper()
	task, ok := h.Chain.Get(id)
	if !ok {
		h.T.Fatalf("unknown task %s", id)
	}
	if c := h.Validator.Recheck(task); !c.OK {
		h.T.Fatalf("task %s went stale: %s", id, c)
	}
	if err := h.Hold.Pay(task.Cost); err != nil {
		h.T.Fatalf("pay %s: %v", id, err)
	}
	if err := h.Chain.Finish(id); err != nil {
		h.T.Fatalf("finish %s: %v", id, err)
	}
}

// AuditsFor returns the recorded entries attributed to reason.
func (h *Harness) AuditsFor(reason string) []ship.AuditEntry {
	var out []ship.AuditEntry
	for _, e := range h.Audits {
		if e.Reason == reason {
			out = append(out, e)
		}
	}
	return out
}

func (h *Harness) Module(loc shiploc.Loc) *ship.Module {
	h.T.Helper()
	m, ok := h.Ship.ModuleAt(loc)
	if !ok {
		h.T.Fatalf("no module slot at %s", loc)
	}
	return m
}

func (h *Harness) Section(section int) *ship.Section {
	h.T.Helper()
	s, ok := h.Ship.SectionAt(shiploc.Loc{Section: section})
	if !ok {
		h.T.Fatalf("no section %d", section)
	}
	return s
}
