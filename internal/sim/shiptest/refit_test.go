package shiptest

import (
	"testing"

	"homeship.ai/internal/protocol"
	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/shiploc"
)

func habitatAt(section, slot int) shiploc.Loc { return shiploc.Loc{Section: section, Slot: slot} }

func fitWheel(h *Harness) {
	h.T.Helper()
	h.Fund("ALLOY", 500)
	h.Fund("MACHINERY", 100)
	h.Finish(h.PlanBuildSection(1, catalogs.SectionWheel))
}

func TestRefit_HabitatRemovalNeedsHousingElsewhere(t *testing.T) {
	h := NewNaked(t, 3, 0)
	fitWheel(h)
	h.Finish(h.PlanBuildModule(habitatAt(1, 2), catalogs.ModuleHabitat))
	if got := h.Roster.Board(5); got != 5 {
		t.Fatalf("boarded %d", got)
	}

	h.Reject(h.Validator.CanRemoveModule(habitatAt(1, 2)), protocol.ErrNoResource)
	h.Reject(h.Validator.CanRemoveSection(shiploc.Loc{Section: 1}), protocol.ErrNoResource)

	h.Finish(h.PlanBuildModule(habitatAt(1, 3), catalogs.ModuleHabitat))
	id := h.PlanRemoveModule(habitatAt(1, 2))
	h.Finish(id)

	if h.Roster.Homeless() != 0 || h.Roster.Crew() != 5 {
		t.Fatalf("crew homeless=%d total=%d", h.Roster.Homeless(), h.Roster.Crew())
	}
	qs := h.Roster.Quarters()
	if len(qs) != 1 || qs[0].Loc != habitatAt(1, 3) || qs[0].Occupants != 5 {
		t.Fatalf("quarters: %+v", qs)
	}
	if !h.Module(habitatAt(1, 2)).IsEmpty() {
		t.Fatalf("habitat not removed")
	}
	if got := h.AuditsFor(id); len(got) != 2 || got[0].Action != ship.ActionDestroyModule || got[1].Action != ship.ActionBuildModule {
		t.Fatalf("audits for %s: %+v", id, got)
	}
}

func TestRefit_QueuedRemovalExcludedFromRehousing(t *testing.T) {
	h := NewNaked(t, 2, 0)
	fitWheel(h)
	h.Finish(h.PlanBuildModule(habitatAt(1, 2), catalogs.ModuleHabitat))
	h.Finish(h.PlanBuildModule(habitatAt(1, 3), catalogs.ModuleHabitat))
	h.Roster.Board(3)
	if h.Roster.Occupants(h.Module(habitatAt(1, 2)).Housing.Key) != 3 {
		t.Fatalf("crew did not settle into the first habitat")
	}

	if c := h.Validator.CanRemoveModule(habitatAt(1, 2)); !c.OK {
		t.Fatalf("empty second habitat should absorb crew: %s", c)
	}
	h.PlanRemoveModule(habitatAt(1, 3))
	h.Reject(h.Validator.CanRemoveModule(habitatAt(1, 2)), protocol.ErrNoResource)

	if n := h.Chain.CancelAll(); n != 1 {
		t.Fatalf("cancelled %d", n)
	}
	if c := h.Validator.CanRemoveModule(habitatAt(1, 2)); !c.OK {
		t.Fatalf("after cancel: %s", c)
	}
}

func TestRefit_SectionTaskLocksItsSlots(t *testing.T) {
	h := NewNaked(t, 3, 0)
	h.Fund("ALLOY", 500)
	h.PlanBuildSection(2, catalogs.SectionNormal)

	h.Reject(h.Validator.CanBuildModule(shiploc.Loc{Section: 2, Slot: 1}, catalogs.ModuleCargo), protocol.ErrConflict)
	h.Reject(h.Validator.CanBuildSection(shiploc.Loc{Section: 2}, catalogs.SectionWheel), protocol.ErrConflict)
	if c := h.Validator.CanBuildSection(shiploc.Loc{Section: 3}, catalogs.SectionNormal); !c.OK {
		t.Fatalf("unrelated section: %s", c)
	}

	h.Chain.CancelAll()
	h.Reject(h.Validator.CanBuildModule(shiploc.Loc{Section: 2, Slot: 1}, catalogs.ModuleCargo), protocol.ErrBlocked)
}

func TestRefit_SectionRemovalEjectsCargoIntoHold(t *testing.T) {
	h, rep := NewGenerated(t, 1, 3, 1, 300)
	if rep.CargoModules != 12 {
		t.Fatalf("report: %+v", rep)
	}
	h.Reject(h.Validator.CanRemoveSection(shiploc.Loc{Section: 2}), protocol.ErrNoResource)

	h, _ = NewGenerated(t, 1, 3, 1, 0)
	id := h.PlanRemoveSection(2)
	h.Finish(id)
	if h.Hold.Count("SUPPLIES") != 300 || h.Hold.Count("ALLOY") != 6*5+20 {
		t.Fatalf("hold: %+v", h.Hold.Inventory())
	}
	if !h.Section(2).Stripped() {
		t.Fatalf("section 2 is %s", h.Section(2).Type)
	}
	got := h.AuditsFor(id)
	if len(got) != 8 || got[6].Action != ship.ActionDestroySection || got[7].Action != ship.ActionBuildSection {
		t.Fatalf("audits: %+v", got)
	}
	if h.Ship.CountModules(catalogs.ModuleCargo) != 6 {
		t.Fatalf("cargo modules left=%d", h.Ship.CountModules(catalogs.ModuleCargo))
	}
}

func TestRefit_ReplacingSectionChecksRemovalFirst(t *testing.T) {
	h, _ := NewGenerated(t, 4, 2, 0, 0)
	h.Roster.Board(10)
	h.Fund("ALLOY", 500)
	h.Reject(h.Validator.CanBuildSection(shiploc.Loc{Section: 1}, catalogs.SectionNormal), protocol.ErrNoResource)

	h2, _ := NewGenerated(t, 4, 2, 0, 0)
	h2.Fund("ALLOY", 500)
	h2.Fund("EXOTICS", 10)
	h2.Finish(h2.PlanBuildSection(1, catalogs.SectionGravityPlated))
	if len(h2.Roster.Quarters()) != 0 {
		t.Fatalf("replacing the frame should drop the habitats: %+v", h2.Roster.Quarters())
	}
	if h2.Hold.Count("MACHINERY") != 10 || h2.Hold.Count("ALLOY") != 500-40+30 {
		t.Fatalf("hold: %+v", h2.Hold.Inventory())
	}
}

func TestGenerate_SameSeedSameAudit(t *testing.T) {
	a, ra := NewGenerated(t, 77, 6, 0.4, 0)
	b, rb := NewGenerated(t, 77, 6, 0.4, 0)
	if ra != rb || a.Ship.Digest() != b.Ship.Digest() {
		t.Fatalf("reports differ: %+v %+v", ra, rb)
	}
	if len(a.Audits) != len(b.Audits) {
		t.Fatalf("audit length %d vs %d", len(a.Audits), len(b.Audits))
	}
	for i := range a.Audits {
		x, y := a.Audits[i], b.Audits[i]
		if x.Seq != y.Seq || x.Action != y.Action || x.Loc != y.Loc || x.To != y.To {
			t.Fatalf("audit %d differs: %+v vs %+v", i, x, y)
		}
	}
}
