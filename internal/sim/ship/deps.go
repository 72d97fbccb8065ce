package ship

import (
	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/shiploc"
)

// JobSystem drops jobs whose workplace has been destroyed.
type JobSystem interface {
	RemoveJobs(keys []int)
}

// HousingSystem tracks living quarters provided by modules.
type HousingSystem interface {
	YieldHousingKey() int
	AddHousing(key, capacity int, at shiploc.Loc)
	RemoveHousing(key int)
	Occupants(key int) int
	// CanRehouse reports whether crew people fit into housing outside the excluded locations.
	CanRehouse(crew int, excluding shiploc.Set) bool
}

// CargoSystem stores cargo ejected by destroyed parts.
type CargoSystem interface {
	// CanStore reports whether units fit into storage outside the excluded locations.
	CanStore(units int, excluding shiploc.Set) bool
	Store(cargo []catalogs.Stack)
}

type AuditSink interface {
	WriteAudit(AuditEntry) error
}

// Deps are the collaborators a ship notifies while it mutates. Nil fields get inert
// defaults.
type Deps struct {
	Jobs    JobSystem
	Housing HousingSystem
	Cargo   CargoSystem
	Audit   AuditSink
}

func (d Deps) withDefaults() Deps {
	if d.Jobs == nil {
		d.Jobs = nopJobs{}
	}
	if d.Housing == nil {
		d.Housing = &nopHousing{}
	}
	if d.Cargo == nil {
		d.Cargo = nopCargo{}
	}
	return d
}

// TeeAudit fans every entry out to all sinks and returns the first error.
func TeeAudit(sinks ...AuditSink) AuditSink { return teeAudit(sinks) }

type teeAudit []AuditSink

func (t teeAudit) WriteAudit(e AuditEntry) error {
	var first error
	for _, s := range t {
		if s == nil {
			continue
		}
		if err := s.WriteAudit(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type nopJobs struct{}

func (nopJobs) RemoveJobs([]int) {}

type nopHousing struct{ next int }

func (h *nopHousing) YieldHousingKey() int {
	h.next++
	return h.next
}
func (*nopHousing) AddHousing(int, int, shiploc.Loc) {}
func (*nopHousing) RemoveHousing(int)                {}
func (*nopHousing) Occupants(int) int                { return 0 }
func (*nopHousing) CanRehouse(int, shiploc.Set) bool { return true }

type nopCargo struct{}

func (nopCargo) CanStore(int, shiploc.Set) bool { return true }
func (nopCargo) Store([]catalogs.Stack)         {}
