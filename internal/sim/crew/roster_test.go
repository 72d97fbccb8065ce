package crew

import (
	"testing"

	"homeship.ai/internal/sim/shiploc"
)

func TestRoster_BoardFillsQuartersInKeyOrder(t *testing.T) {
	r := NewRoster()
	a, b := r.YieldHousingKey(), r.YieldHousingKey()
	if a == b {
		t.Fatalf("keys not unique")
	}
	r.AddHousing(a, 5, shiploc.Loc{Section: 1, Slot: 2})
	r.AddHousing(b, 5, shiploc.Loc{Section: 1, Slot: 5})

	if got := r.Board(7); got != 7 {
		t.Fatalf("housed=%d", got)
	}
	if r.Occupants(a) != 5 || r.Occupants(b) != 2 || r.Homeless() != 0 {
		t.Fatalf("occupants a=%d b=%d homeless=%d", r.Occupants(a), r.Occupants(b), r.Homeless())
	}
	if got := r.Board(4); got != 3 || r.Homeless() != 1 {
		t.Fatalf("housed=%d homeless=%d", got, r.Homeless())
	}
	if r.Crew() != 11 {
		t.Fatalf("crew=%d", r.Crew())
	}
}

func TestRoster_CanRehouseExcludesLocations(t *testing.T) {
	r := NewRoster()
	hab := shiploc.Loc{Section: 1, Slot: 2}
	r.AddHousing(r.YieldHousingKey(), 5, hab)
	r.Board(3)

	if r.CanRehouse(3, shiploc.NewSet(hab)) {
		t.Fatalf("no alternate housing exists")
	}
	if !r.CanRehouse(2, shiploc.NewSet()) {
		t.Fatalf("two free beds remain")
	}
	if !r.CanRehouse(0, shiploc.NewSet(hab)) {
		t.Fatalf("zero crew always fits")
	}

	r.AddHousing(r.YieldHousingKey(), 5, shiploc.Loc{Section: 2, Slot: 1})
	if !r.CanRehouse(3, shiploc.NewSet(hab)) {
		t.Fatalf("second habitat should absorb three")
	}
}

func TestRoster_RemoveHousingMovesOccupants(t *testing.T) {
	r := NewRoster()
	a := r.YieldHousingKey()
	r.AddHousing(a, 4, shiploc.Loc{Section: 1, Slot: 1})
	b := r.YieldHousingKey()
	r.AddHousing(b, 2, shiploc.Loc{Section: 1, Slot: 2})
	r.Board(5)

	r.RemoveHousing(a)
	if r.Occupants(b) != 2 || r.Homeless() != 3 {
		t.Fatalf("b=%d homeless=%d", r.Occupants(b), r.Homeless())
	}
	c := r.YieldHousingKey()
	r.AddHousing(c, 5, shiploc.Loc{Section: 2, Slot: 1})
	if r.Homeless() != 0 || r.Occupants(c) != 3 {
		t.Fatalf("new quarters should take the homeless: c=%d homeless=%d", r.Occupants(c), r.Homeless())
	}
	if len(r.Quarters()) != 2 {
		t.Fatalf("quarters=%v", r.Quarters())
	}
}

func TestRoster_Jobs(t *testing.T) {
	r := NewRoster()
	r.AddJobs(101, 100, 200)
	r.RemoveJobs([]int{100, 101})
	if got := r.Jobs(); len(got) != 1 || got[0] != 200 {
		t.Fatalf("jobs=%v", got)
	}
	if r.HasJob(100) {
		t.Fatalf("job 100 still open")
	}
}
