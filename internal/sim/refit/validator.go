package refit

import (
	"homeship.ai/internal/protocol"
	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/shiploc"
	"homeship.ai/internal/sim/tasks"
	"homeship.ai/internal/sim/tuning"
)

// Validator answers whether refit work is currently possible. It never mutates the ship or
// the chain; a passing Check is not a reservation.
type Validator struct {
	ship  *ship.Ship
	chain *tasks.Chain
	tune  tuning.Refit
	cost  CostOracle
}

func New(s *ship.Ship, chain *tasks.Chain, tune tuning.Tuning, cost CostOracle) *Validator {
	if cost == nil {
		cost = Unpriced
	}
	return &Validator{ship: s, chain: chain, tune: tune.Refit, cost: cost}
}

// query carries the locations excluded from capacity checks while one request is evaluated:
// those claimed by queued tasks and those this request would free.
type query struct {
	v        *Validator
	locked   shiploc.Set
	reserved shiploc.Set
}

func (v *Validator) newQuery(exceptTask string) *query {
	locked := shiploc.NewSet()
	if v.chain != nil {
		locked = v.chain.LockedExcept(exceptTask)
	}
	return &query{v: v, locked: locked, reserved: shiploc.NewSet()}
}

func (q *query) excluded() shiploc.Set {
	out := q.locked.Clone()
	for l := range q.reserved {
		out.Add(l)
	}
	return out
}

func (q *query) anyLocked(locs []shiploc.Loc) (shiploc.Loc, bool) {
	for _, l := range locs {
		if q.locked.Has(l) {
			return l, true
		}
	}
	return shiploc.Loc{}, false
}

func (v *Validator) CanBuildSection(loc shiploc.Loc, t catalogs.SectionType) Check {
	return v.newQuery("").canBuildSection(loc, t)
}

func (v *Validator) CanBuildModule(loc shiploc.Loc, t catalogs.ModuleType) Check {
	return v.newQuery("").canBuildModule(loc, t)
}

func (v *Validator) CanRemoveSection(loc shiploc.Loc) Check {
	return v.newQuery("").canRemoveSection(loc)
}

func (v *Validator) CanRemoveModule(loc shiploc.Loc) Check {
	return v.newQuery("").canRemoveModule(loc)
}

func (q *query) canBuildSection(loc shiploc.Loc, t catalogs.SectionType) Check {
	s := q.v.ship
	layout := s.Layout()
	if !layout.IsValidSection(loc) {
		return fail(protocol.ErrInvalidTarget, "%s is not a section frame", loc)
	}
	if layout.IsSpecialSection(loc.Section) {
		return fail(protocol.ErrNoPermission, "section %d is special/protected", loc.Section)
	}
	if l, ok := q.anyLocked(layout.SectionLocs(loc.Section)); ok {
		return fail(protocol.ErrConflict, "%s is claimed by a queued task", l)
	}
	def, ok := s.Catalog().Section(t)
	if !ok || def.Special {
		return fail(protocol.ErrBadRequest, "cannot build section type %q", t)
	}
	cur, _ := s.SectionAt(loc)
	if cur.Type == t {
		return fail(protocol.ErrBadRequest, "section %d is already %s", loc.Section, t)
	}
	if !cur.Stripped() {
		if c := q.canRemoveSection(loc); !c.OK {
			return c
		}
	}
	if !q.v.cost.CanAfford(def.Cost) {
		return fail(protocol.ErrNoResource, "cannot afford %s section", t)
	}
	return pass()
}

func (q *query) canBuildModule(loc shiploc.Loc, t catalogs.ModuleType) Check {
	s := q.v.ship
	layout := s.Layout()
	if !layout.IsValidModule(loc) {
		return fail(protocol.ErrInvalidTarget, "%s is not a module slot", loc)
	}
	if layout.IsSpecialSection(loc.Section) {
		return fail(protocol.ErrNoPermission, "section %d is special/protected", loc.Section)
	}
	if q.locked.Has(loc) {
		return fail(protocol.ErrConflict, "%s is claimed by a queued task", loc)
	}
	mdef, ok := s.Catalog().Module(t)
	if !ok || mdef.Special {
		return fail(protocol.ErrBadRequest, "cannot build module type %q", t)
	}
	sec, _ := s.SectionAt(loc)
	if !s.Catalog().Hosts(sec.Type, t) {
		return fail(protocol.ErrBlocked, "%s frame cannot host %s", sec.Type, t)
	}
	cur, _ := s.ModuleAt(loc)
	if cur.Type == t {
		return fail(protocol.ErrBadRequest, "%s already holds %s", loc, t)
	}
	if !cur.IsEmpty() {
		if c := q.canRemoveModule(loc); !c.OK {
			return c
		}
	}
	sdef, _ := s.Catalog().Section(sec.Type)
	if !catalogs.GravityCompatible(sdef, mdef) {
		return fail(protocol.ErrBlocked, "%s requires gravity; %s frame provides none", t, sec.Type)
	}
	if !q.v.cost.CanAfford(mdef.Cost) {
		return fail(protocol.ErrNoResource, "cannot afford %s module", t)
	}
	return pass()
}

func (q *query) canRemoveModule(loc shiploc.Loc) Check {
	s := q.v.ship
	layout := s.Layout()
	if !layout.IsValidModule(loc) {
		return fail(protocol.ErrInvalidTarget, "%s is not a module slot", loc)
	}
	m, _ := s.ModuleAt(loc)
	if layout.IsSpecialSection(loc.Section) || m.Special {
		return fail(protocol.ErrNoPermission, "%s at %s is special/protected", m.Type, loc)
	}
	if q.locked.Has(loc) {
		return fail(protocol.ErrConflict, "%s is claimed by a queued task", loc)
	}
	if m.IsEmpty() {
		return fail(protocol.ErrBadRequest, "%s holds no module", loc)
	}

	q.reserved.Add(loc)
	crew := 0
	if m.Housing != nil {
		crew = s.Housing().Occupants(m.Housing.Key)
	}
	return q.capacity(catalogs.Units(m.CargoOnDestruction()), crew)
}

func (q *query) canRemoveSection(loc shiploc.Loc) Check {
	s := q.v.ship
	layout := s.Layout()
	if !layout.IsValidSection(loc) {
		return fail(protocol.ErrInvalidTarget, "%s is not a section frame", loc)
	}
	sec, _ := s.SectionAt(loc)
	if layout.IsSpecialSection(loc.Section) || sec.Special {
		return fail(protocol.ErrNoPermission, "section %d is special/protected", loc.Section)
	}
	if sec.Stripped() {
		return fail(protocol.ErrBadRequest, "section %d is already stripped", loc.Section)
	}
	locs := layout.SectionLocs(loc.Section)
	if l, ok := q.anyLocked(locs); ok {
		return fail(protocol.ErrConflict, "%s is claimed by a queued task", l)
	}

	units := catalogs.Units(sec.SalvageOnDestruction())
	crew := 0
	for _, m := range s.ModulesIn(loc.Section) {
		units += catalogs.Units(m.CargoOnDestruction())
		if m.Housing != nil {
			crew += s.Housing().Occupants(m.Housing.Key)
		}
	}
	q.reserved.Add(locs...)
	return q.capacity(units, crew)
}

// capacity checks that ejected cargo and displaced crew fit outside every excluded location.
func (q *query) capacity(units, crew int) Check {
	s := q.v.ship
	excl := q.excluded()
	if units > 0 && !s.Cargo().CanStore(units, excl) {
		return fail(protocol.ErrNoResource, "no room to store %d units of cargo", units)
	}
	if crew > 0 && !s.Housing().CanRehouse(crew, excl) {
		return fail(protocol.ErrNoResource, "no housing for %d displaced crew", crew)
	}
	return pass()
}
