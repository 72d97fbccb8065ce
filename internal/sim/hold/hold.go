package hold

import (
	"fmt"
	"sort"

	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/shiploc"
)

// Hold is the ship's general stockpile. It receives salvage and ejected cargo and pays for
// refit work. Its storage is not tied to any ship location, so exclusions never shrink it.
type Hold struct {
	capacity  int
	inventory map[string]int
}

// New returns a hold with room for capacity units; capacity <= 0 means unbounded.
func New(capacity int) *Hold {
	return &Hold{capacity: capacity, inventory: map[string]int{}}
}

func (h *Hold) Capacity() int { return h.capacity }

func (h *Hold) Units() int {
	n := 0
	for _, c := range h.inventory {
		n += c
	}
	return n
}

func (h *Hold) Free() int {
	if h.capacity <= 0 {
		return int(^uint(0) >> 1)
	}
	if f := h.capacity - h.Units(); f > 0 {
		return f
	}
	return 0
}

func (h *Hold) Count(item string) int { return h.inventory[item] }

func (h *Hold) CanStore(units int, _ shiploc.Set) bool {
	return units <= 0 || units <= h.Free()
}

// Store adds cargo. Units beyond capacity are lost overboard; callers check CanStore first.
func (h *Hold) Store(cargo []catalogs.Stack) {
	for _, st := range cargo {
		if st.Units <= 0 || st.Item == "" {
			continue
		}
		n := st.Units
		if f := h.Free(); n > f {
			n = f
		}
		if n == 0 {
			return
		}
		h.inventory[st.Item] += n
	}
}

func (h *Hold) CanAfford(cost []catalogs.Stack) bool {
	need := map[string]int{}
	for _, st := range cost {
		need[st.Item] += st.Units
	}
	for item, n := range need {
		if h.inventory[item] < n {
			return false
		}
	}
	return true
}

// Pay removes cost from the hold, or nothing when it cannot be afforded.
func (h *Hold) Pay(cost []catalogs.Stack) error {
	if !h.CanAfford(cost) {
		return fmt.Errorf("hold: cannot afford %v", cost)
	}
	for _, st := range cost {
		if st.Units <= 0 {
			continue
		}
		h.inventory[st.Item] -= st.Units
		if h.inventory[st.Item] == 0 {
			delete(h.inventory, st.Item)
		}
	}
	return nil
}

// Inventory lists held stacks sorted by item.
func (h *Hold) Inventory() []catalogs.Stack {
	out := make([]catalogs.Stack, 0, len(h.inventory))
	for item, n := range h.inventory {
		if n <= 0 {
			continue
		}
		out = append(out, catalogs.Stack{Item: item, Units: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item < out[j].Item })
	return out
}
