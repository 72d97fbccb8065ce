package main

import (
	"fmt"

	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/hold"
	"homeship.ai/internal/sim/refit"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/shiploc"
	"homeship.ai/internal/sim/tasks"
)

var starterStock = []catalogs.Stack{
	{Item: "ALLOY", Units: 400},
	{Item: "MACHINERY", Units: 60},
	{Item: "EXOTICS", Units: 20},
}

type demoStep struct {
	TaskID string
	What   string
	Check  refit.Check
}

func (s demoStep) String() string {
	id := s.TaskID
	if id == "" {
		id = "-"
	}
	return fmt.Sprintf("%-4s %-40s %s", id, s.What, s.Check)
}

// runDemo refits the last middle section into a gravity-plated habitat ring, then probes a
// lock conflict and a rehousing failure. Every task goes through plan, recheck, pay and
// finish; publish runs after each completed task.
func runDemo(s *ship.Ship, chain *tasks.Chain, v *refit.Validator, h *hold.Hold, publish func()) []demoStep {
	h.Store(starterStock)

	var steps []demoStep
	record := func(id, what string, c refit.Check) {
		steps = append(steps, demoStep{TaskID: id, What: what, Check: c})
	}
	complete := func(what string, task *tasks.Task, c refit.Check) bool {
		if !c.OK {
			record("", what, c)
			return false
		}
		id, err := chain.Enqueue(task)
		if err != nil {
			record("", what, refit.Check{Code: "E_CONFLICT", Message: err.Error()})
			return false
		}
		queued, _ := chain.Get(id)
		if c := v.Recheck(queued); !c.OK {
			_ = chain.Remove(id)
			record(id, what, c)
			return false
		}
		if err := h.Pay(queued.Cost); err != nil {
			_ = chain.Remove(id)
			record(id, what, refit.Check{Code: "E_NO_RESOURCE", Message: err.Error()})
			return false
		}
		_ = chain.Finish(id)
		record(id, what, c)
		publish()
		return true
	}

	last := s.MiddleLength()
	frame := shiploc.Loc{Section: last}
	if sec, _ := s.SectionAt(frame); !sec.Stripped() {
		task, c := v.PlanRemoveSection(frame)
		if !complete(fmt.Sprintf("strip section %d", last), task, c) {
			return steps
		}
	}

	task, c := v.PlanBuildSection(frame, catalogs.SectionGravityPlated)
	if !complete(fmt.Sprintf("build GRAVITY_PLATED at section %d", last), task, c) {
		return steps
	}
	habitat := shiploc.Loc{Section: last, Slot: 1}
	task, c = v.PlanBuildModule(habitat, catalogs.ModuleHabitat)
	if !complete(fmt.Sprintf("build HABITAT at %s", habitat), task, c) {
		return steps
	}

	bay := shiploc.Loc{Section: last, Slot: 2}
	task, c = v.PlanBuildModule(bay, catalogs.ModuleCargo)
	if !c.OK {
		record("", fmt.Sprintf("build CARGO at %s", bay), c)
		return steps
	}
	id, err := chain.Enqueue(task)
	if err != nil {
		return steps
	}
	record(id, fmt.Sprintf("queue CARGO at %s", bay), c)
	record("", fmt.Sprintf("strip section %d while queued", last), v.CanRemoveSection(frame))
	if queued, ok := chain.Get(id); ok && h.Pay(queued.Cost) == nil {
		_ = chain.Finish(id)
		publish()
	} else {
		_ = chain.Remove(id)
	}

	record("", "strip section 1", v.CanRemoveSection(shiploc.Loc{Section: 1}))
	return steps
}
