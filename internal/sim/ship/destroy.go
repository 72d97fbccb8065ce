package ship

import (
	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/shiploc"
)

// destroyModule tears a module down: component salvage goes to the cargo system, workplace
// jobs are dropped, then the module's own cargo is ejected and its housing released.
// Special and missing modules are left alone.
func (s *Ship) destroyModule(m *Module) {
	if m == nil || m.Special {
		return
	}
	salvage := componentSalvage(m.Components)
	if len(salvage) > 0 {
		s.deps.Cargo.Store(salvage)
	}

	if m.Workplace != nil && len(m.Workplace.Jobs) > 0 {
		jobs := append([]int(nil), m.Workplace.Jobs...)
		s.deps.Jobs.RemoveJobs(jobs)
		s.audit(AuditEntry{Action: ActionRemoveJobs, Loc: m.Loc, From: string(m.Type), Jobs: jobs})
	}

	held := m.Cargo
	m.Cargo = nil
	if len(held) > 0 {
		s.deps.Cargo.Store(held)
	}
	if m.Housing != nil {
		s.deps.Housing.RemoveHousing(m.Housing.Key)
	}
	s.audit(AuditEntry{Action: ActionDestroyModule, Loc: m.Loc, From: string(m.Type), Units: catalogs.Units(salvage) + catalogs.Units(held)})
}

// destroySection destroys every module of the section in slot order, then the frame.
func (s *Ship) destroySection(index int) {
	if index < 0 || index >= len(s.sections) {
		return
	}
	sec := s.sections[index]
	if sec == nil || sec.Special {
		return
	}
	for _, loc := range s.layout.ModuleSlots(shiploc.Loc{Section: index}) {
		s.destroyModule(s.modules[loc])
	}
	salvage := sec.SalvageOnDestruction()
	if len(salvage) > 0 {
		s.deps.Cargo.Store(salvage)
	}
	s.audit(AuditEntry{Action: ActionDestroySection, Loc: sec.Loc, From: string(sec.Type), Units: catalogs.Units(salvage)})
}
