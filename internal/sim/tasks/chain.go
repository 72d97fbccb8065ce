package tasks

import (
	"errors"
	"fmt"

	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/ship"
	"homeship.ai/internal/sim/shiploc"
)

var (
	ErrLocked      = errors.New("tasks: location already claimed by a queued task")
	ErrUnknownTask = errors.New("tasks: unknown task")
)

// Chain is the ordered queue of refit tasks for one ship. Locked locations are derived from
// the queued tasks on every query and never cached.
type Chain struct {
	ship    *ship.Ship
	tasks   []*Task
	nextNum uint64
}

func NewChain(s *ship.Ship) *Chain {
	return &Chain{ship: s}
}

func (c *Chain) newTaskID() string {
	c.nextNum++
	return fmt.Sprintf("R%d", c.nextNum)
}

// Enqueue assigns the task an ID and appends it. It refuses tasks that overlap locations
// already claimed.
func (c *Chain) Enqueue(t *Task) (string, error) {
	if t == nil || len(t.Targets) == 0 {
		return "", fmt.Errorf("tasks: enqueue without targets")
	}
	locked := c.Locked()
	for _, loc := range t.Targets {
		if locked.Has(loc) {
			return "", fmt.Errorf("%w: %s", ErrLocked, loc)
		}
	}
	t.ID = c.newTaskID()
	c.tasks = append(c.tasks, t.clone())
	return t.ID, nil
}

func (c *Chain) Locked() shiploc.Set { return c.LockedExcept("") }

// LockedExcept is Locked without the claims of task id.
func (c *Chain) LockedExcept(id string) shiploc.Set {
	out := shiploc.NewSet()
	for _, t := range c.tasks {
		if id != "" && t.ID == id {
			continue
		}
		out.Add(t.Targets...)
	}
	return out
}

func (c *Chain) IsLocked(loc shiploc.Loc) bool {
	for _, t := range c.tasks {
		for _, l := range t.Targets {
			if l == loc {
				return true
			}
		}
	}
	return false
}

func (c *Chain) Len() int { return len(c.tasks) }

// Tasks returns copies of the queued tasks in order.
func (c *Chain) Tasks() []Task {
	out := make([]Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		out = append(out, *t.clone())
	}
	return out
}

func (c *Chain) Get(id string) (Task, bool) {
	if i := c.index(id); i >= 0 {
		return *c.tasks[i].clone(), true
	}
	return Task{}, false
}

// CancelAll drops every queued task and returns how many there were.
func (c *Chain) CancelAll() int {
	n := len(c.tasks)
	c.tasks = nil
	return n
}

// Remove discards a task without touching the ship.
func (c *Chain) Remove(id string) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
	return nil
}

// Finish applies a completed task to the ship and removes it from the chain. Builds
// install the target type, removals leave a stripped frame or an empty slot.
func (c *Chain) Finish(id string) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	t := c.tasks[i]
	c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)

	c.ship.Attribute(t.ID, func() {
		switch {
		case t.Scope == ScopeSection && t.Kind == KindBuild:
			c.ship.ForceBuildSection(t.Anchor.Section, t.SectionType)
		case t.Scope == ScopeSection:
			c.ship.ForceBuildSection(t.Anchor.Section, catalogs.SectionStripped)
		case t.Kind == KindBuild:
			c.ship.ForceBuildModule(t.Anchor, t.ModuleType)
		default:
			c.ship.ForceBuildModule(t.Anchor, catalogs.ModuleEmpty)
		}
	})
	return nil
}

func (c *Chain) index(id string) int {
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
