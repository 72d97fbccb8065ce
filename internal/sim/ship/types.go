package ship

import (
	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/shiploc"
)

type Component struct {
	ID      string
	Salvage []catalogs.Stack
}

// Section is the frame occupying slot 0 of a section index.
type Section struct {
	Loc         shiploc.Loc
	Type        catalogs.SectionType
	Name        string
	UsesGravity bool
	Special     bool
	Hosts       []catalogs.ModuleType
	Components  []Component
}

func (s *Section) Stripped() bool { return s != nil && s.Type == catalogs.SectionStripped }

// SalvageOnDestruction is the cargo the frame yields when dismantled.
func (s *Section) SalvageOnDestruction() []catalogs.Stack {
	if s == nil || s.Special {
		return nil
	}
	return componentSalvage(s.Components)
}

type Workplace struct {
	Jobs []int
}

type Housing struct {
	Key      int
	Capacity int
}

// Module occupies one module slot. Head and tail modules are shared by every slot of
// their section and carry the location of the first slot.
type Module struct {
	Loc             shiploc.Loc
	Type            catalogs.ModuleType
	Name            string
	RequiresGravity bool
	Special         bool
	Components      []Component
	Cargo           []catalogs.Stack

	Workplace *Workplace
	Housing   *Housing
}

func (m *Module) IsEmpty() bool { return m == nil || m.Type == catalogs.ModuleEmpty }

// CargoOnDestruction is everything the module ejects when destroyed: its held cargo plus
// the salvage of its components.
func (m *Module) CargoOnDestruction() []catalogs.Stack {
	if m == nil || m.Special {
		return nil
	}
	out := append([]catalogs.Stack(nil), m.Cargo...)
	return append(out, componentSalvage(m.Components)...)
}

// Part is the occupant of a location: a section frame or a module.
type Part struct {
	Loc     shiploc.Loc
	Section *Section
	Module  *Module
}

func (p Part) IsSection() bool { return p.Section != nil }

func (p Part) TypeName() string {
	if p.Section != nil {
		return string(p.Section.Type)
	}
	if p.Module != nil {
		return string(p.Module.Type)
	}
	return ""
}

func (p Part) Special() bool {
	if p.Section != nil {
		return p.Section.Special
	}
	return p.Module != nil && p.Module.Special
}

const (
	ActionBuildSection   = "BUILD_SECTION"
	ActionBuildModule    = "BUILD_MODULE"
	ActionDestroySection = "DESTROY_SECTION"
	ActionDestroyModule  = "DESTROY_MODULE"
	ActionRemoveJobs     = "REMOVE_JOBS"
)

type AuditEntry struct {
	Seq    uint64      `json:"seq"`
	Action string      `json:"action"`
	Loc    shiploc.Loc `json:"loc"`
	From   string      `json:"from,omitempty"`
	To     string      `json:"to,omitempty"`
	Units  int         `json:"units,omitempty"`
	Jobs   []int       `json:"jobs,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

func componentsFrom(defs []catalogs.ComponentDef) []Component {
	if len(defs) == 0 {
		return nil
	}
	out := make([]Component, 0, len(defs))
	for _, d := range defs {
		out = append(out, Component{ID: d.ID, Salvage: append([]catalogs.Stack(nil), d.Salvage...)})
	}
	return out
}

func componentSalvage(cs []Component) []catalogs.Stack {
	var out []catalogs.Stack
	for _, c := range cs {
		out = append(out, c.Salvage...)
	}
	return out
}
