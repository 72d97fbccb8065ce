package tasks

import (
	"fmt"

	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/shiploc"
)

type Kind string

const (
	KindBuild  Kind = "BUILD"
	KindRemove Kind = "REMOVE"
)

type Scope string

const (
	ScopeSection Scope = "SECTION"
	ScopeModule  Scope = "MODULE"
)

// Task is one queued refit order. Targets are the locations it claims while queued:
// the frame plus every slot for section work, the single slot for module work.
type Task struct {
	ID    string
	Kind  Kind
	Scope Scope

	Anchor  shiploc.Loc
	Targets []shiploc.Loc

	// Set for BUILD tasks only, matching Scope.
	SectionType catalogs.SectionType
	ModuleType  catalogs.ModuleType

	Labour      int
	Cost        []catalogs.Stack
	Description string
}

func (t *Task) clone() *Task {
	c := *t
	c.Targets = append([]shiploc.Loc(nil), t.Targets...)
	c.Cost = append([]catalogs.Stack(nil), t.Cost...)
	return &c
}

// Describe renders a one-line human summary, e.g. "Build CARGO at (3,2)".
func Describe(kind Kind, scope Scope, anchor shiploc.Loc, what string) string {
	verb := "Build"
	if kind == KindRemove {
		verb = "Remove"
	}
	if scope == ScopeSection {
		return fmt.Sprintf("%s %s section %d", verb, what, anchor.Section)
	}
	return fmt.Sprintf("%s %s at %s", verb, what, anchor)
}
