package refit

import (
	"homeship.ai/internal/protocol"
	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/shiploc"
	"homeship.ai/internal/sim/tasks"
)

// PlanBuildSection returns a task ready for Chain.Enqueue, or nil with the failing check.
func (v *Validator) PlanBuildSection(loc shiploc.Loc, t catalogs.SectionType) (*tasks.Task, Check) {
	c := v.CanBuildSection(loc, t)
	if !c.OK {
		return nil, c
	}
	def, _ := v.ship.Catalog().Section(t)
	return &tasks.Task{
		Kind:        tasks.KindBuild,
		Scope:       tasks.ScopeSection,
		Anchor:      loc,
		Targets:     v.ship.Layout().SectionLocs(loc.Section),
		SectionType: t,
		Labour:      v.tune.BuildSectionLabour,
		Cost:        append([]catalogs.Stack(nil), def.Cost...),
		Description: tasks.Describe(tasks.KindBuild, tasks.ScopeSection, loc, string(t)),
	}, c
}

func (v *Validator) PlanRemoveSection(loc shiploc.Loc) (*tasks.Task, Check) {
	c := v.CanRemoveSection(loc)
	if !c.OK {
		return nil, c
	}
	sec, _ := v.ship.SectionAt(loc)
	return &tasks.Task{
		Kind:        tasks.KindRemove,
		Scope:       tasks.ScopeSection,
		Anchor:      loc,
		Targets:     v.ship.Layout().SectionLocs(loc.Section),
		Labour:      v.tune.RemoveSectionLabour,
		Description: tasks.Describe(tasks.KindRemove, tasks.ScopeSection, loc, string(sec.Type)),
	}, c
}

func (v *Validator) PlanBuildModule(loc shiploc.Loc, t catalogs.ModuleType) (*tasks.Task, Check) {
	c := v.CanBuildModule(loc, t)
	if !c.OK {
		return nil, c
	}
	def, _ := v.ship.Catalog().Module(t)
	return &tasks.Task{
		Kind:        tasks.KindBuild,
		Scope:       tasks.ScopeModule,
		Anchor:      loc,
		Targets:     []shiploc.Loc{loc},
		ModuleType:  t,
		Labour:      v.tune.BuildModuleLabour,
		Cost:        append([]catalogs.Stack(nil), def.Cost...),
		Description: tasks.Describe(tasks.KindBuild, tasks.ScopeModule, loc, string(t)),
	}, c
}

func (v *Validator) PlanRemoveModule(loc shiploc.Loc) (*tasks.Task, Check) {
	c := v.CanRemoveModule(loc)
	if !c.OK {
		return nil, c
	}
	m, _ := v.ship.ModuleAt(loc)
	return &tasks.Task{
		Kind:        tasks.KindRemove,
		Scope:       tasks.ScopeModule,
		Anchor:      loc,
		Targets:     []shiploc.Loc{loc},
		Labour:      v.tune.RemoveModuleLabour,
		Description: tasks.Describe(tasks.KindRemove, tasks.ScopeModule, loc, string(m.Type)),
	}, c
}

// Recheck evaluates a queued task again, ignoring the locations that task itself claims.
// Callers use it before starting or finishing work that may have gone stale.
func (v *Validator) Recheck(t tasks.Task) Check {
	q := v.newQuery(t.ID)
	switch {
	case t.Scope == tasks.ScopeSection && t.Kind == tasks.KindBuild:
		return q.canBuildSection(t.Anchor, t.SectionType)
	case t.Scope == tasks.ScopeSection && t.Kind == tasks.KindRemove:
		return q.canRemoveSection(t.Anchor)
	case t.Scope == tasks.ScopeModule && t.Kind == tasks.KindBuild:
		return q.canBuildModule(t.Anchor, t.ModuleType)
	case t.Scope == tasks.ScopeModule && t.Kind == tasks.KindRemove:
		return q.canRemoveModule(t.Anchor)
	}
	return fail(protocol.ErrBadRequest, "unknown task %s/%s", t.Kind, t.Scope)
}
