package tasks

import (
	"errors"
	"testing"

	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/shiploc"
)

func newShip(t *testing.T) *ship.Ship {
	t.Helper()
	s := ship.New(shiploc.NewLayout(3, 6), nil, ship.Deps{})
	s.ForceBuildSection(1, catalogs.SectionWheel)
	return s
}

func sectionTask(s *ship.Ship, kind Kind, index int, st catalogs.SectionType) *Task {
	frame := shiploc.Loc{Section: index}
	return &Task{
		Kind:        kind,
		Scope:       ScopeSection,
		Anchor:      frame,
		Targets:     s.Layout().SectionLocs(index),
		SectionType: st,
		Labour:      1000,
	}
}

func moduleTask(kind Kind, loc shiploc.Loc, mt catalogs.ModuleType) *Task {
	return &Task{Kind: kind, Scope: ScopeModule, Anchor: loc, Targets: []shiploc.Loc{loc}, ModuleType: mt, Labour: 400}
}

func TestChain_LocksAppearOnEnqueue(t *testing.T) {
	s := newShip(t)
	c := NewChain(s)
	slot := shiploc.Loc{Section: 1, Slot: 3}
	if c.IsLocked(slot) {
		t.Fatalf("fresh chain locks %s", slot)
	}
	id, err := c.Enqueue(moduleTask(KindBuild, slot, catalogs.ModuleHabitat))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if id != "R1" {
		t.Fatalf("id=%q", id)
	}
	if !c.IsLocked(slot) || !c.Locked().Has(slot) {
		t.Fatalf("slot not locked after enqueue")
	}
	if c.IsLocked(shiploc.Loc{Section: 1}) {
		t.Fatalf("module task locked the frame")
	}
}

func TestChain_RefusesOverlap(t *testing.T) {
	s := newShip(t)
	c := NewChain(s)
	if _, err := c.Enqueue(moduleTask(KindBuild, shiploc.Loc{Section: 2, Slot: 4}, catalogs.ModuleCargo)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	_, err := c.Enqueue(sectionTask(s, KindBuild, 2, catalogs.SectionNormal))
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("rejected task was queued")
	}
	if _, err := c.Enqueue(&Task{Kind: KindBuild}); err == nil {
		t.Fatalf("task without targets accepted")
	}
}

func TestChain_CancelAllReleasesEverything(t *testing.T) {
	s := newShip(t)
	c := NewChain(s)
	if _, err := c.Enqueue(sectionTask(s, KindBuild, 2, catalogs.SectionNormal)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Enqueue(moduleTask(KindBuild, shiploc.Loc{Section: 1, Slot: 1}, catalogs.ModuleHabitat)); err != nil {
		t.Fatal(err)
	}
	if got := len(c.Locked()); got != 8 {
		t.Fatalf("locked=%d want 8", got)
	}
	if n := c.CancelAll(); n != 2 {
		t.Fatalf("cancelled %d", n)
	}
	if len(c.Locked()) != 0 || c.Len() != 0 {
		t.Fatalf("locks survived cancel: %v", c.Locked().Sorted())
	}
}

func TestChain_FinishAppliesAndReleases(t *testing.T) {
	s := newShip(t)
	c := NewChain(s)
	before := s.Digest()

	secID, _ := c.Enqueue(sectionTask(s, KindBuild, 2, catalogs.SectionNormal))
	slot := shiploc.Loc{Section: 1, Slot: 2}
	modID, _ := c.Enqueue(moduleTask(KindBuild, slot, catalogs.ModuleHabitat))
	if s.Digest() != before {
		t.Fatalf("enqueue mutated the ship")
	}

	if err := c.Finish(secID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if sec, _ := s.SectionAt(shiploc.Loc{Section: 2}); sec.Type != catalogs.SectionNormal {
		t.Fatalf("section 2 is %s", sec.Type)
	}
	if c.IsLocked(shiploc.Loc{Section: 2}) {
		t.Fatalf("finished task still locks")
	}
	if err := c.Finish(modID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if m, _ := s.ModuleAt(slot); m.Type != catalogs.ModuleHabitat {
		t.Fatalf("slot is %s", m.Type)
	}
	if err := c.Finish(modID); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("double finish: %v", err)
	}
}

func TestChain_FinishRemovals(t *testing.T) {
	s := newShip(t)
	slot := shiploc.Loc{Section: 1, Slot: 6}
	s.ForceBuildModule(slot, catalogs.ModuleCargo)
	c := NewChain(s)

	modID, _ := c.Enqueue(moduleTask(KindRemove, slot, ""))
	if err := c.Finish(modID); err != nil {
		t.Fatal(err)
	}
	if m, _ := s.ModuleAt(slot); !m.IsEmpty() {
		t.Fatalf("slot not emptied: %s", m.Type)
	}

	secID, _ := c.Enqueue(sectionTask(s, KindRemove, 1, ""))
	if err := c.Finish(secID); err != nil {
		t.Fatal(err)
	}
	if sec, _ := s.SectionAt(shiploc.Loc{Section: 1}); !sec.Stripped() {
		t.Fatalf("section not stripped: %s", sec.Type)
	}
}

func TestChain_RemoveDiscardsWithoutApplying(t *testing.T) {
	s := newShip(t)
	c := NewChain(s)
	before := s.Digest()
	id, _ := c.Enqueue(sectionTask(s, KindBuild, 3, catalogs.SectionNormal))
	other, _ := c.Enqueue(moduleTask(KindBuild, shiploc.Loc{Section: 1, Slot: 1}, catalogs.ModuleCargo))
	if other != "R2" {
		t.Fatalf("second id=%q", other)
	}

	if err := c.Remove(id); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.Digest() != before {
		t.Fatalf("remove touched the ship")
	}
	if _, ok := c.Get(id); ok {
		t.Fatalf("task still queued")
	}
	if got := c.Tasks(); len(got) != 1 || got[0].ID != other {
		t.Fatalf("tasks=%+v", got)
	}
	if !errors.Is(c.Remove(id), ErrUnknownTask) {
		t.Fatalf("second remove should fail")
	}
	if ex := c.LockedExcept(other); len(ex) != 0 {
		t.Fatalf("locked except=%v", ex.Sorted())
	}
}
