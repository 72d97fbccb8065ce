package shiploc

import (
	"fmt"
	"sort"
)

// DefaultModulesPerSection is the number of module slots on every section.
const DefaultModulesPerSection = 6

// Loc addresses a section frame (Slot == 0) or one of its module slots (1..K).
type Loc struct {
	Section int `json:"section"`
	Slot    int `json:"slot"`
}

func (l Loc) String() string { return fmt.Sprintf("(%d,%d)", l.Section, l.Slot) }

// IsFrame reports whether l points at a section frame rather than a module slot.
func (l Loc) IsFrame() bool { return l.Slot == 0 }

// Frame returns the frame location of the section l belongs to.
func (l Loc) Frame() Loc { return Loc{Section: l.Section} }

// Layout describes the addressable space of a ship: head at 0, MiddleLength regular
// sections, tail right after them.
type Layout struct {
	MiddleLength      int
	ModulesPerSection int
}

func NewLayout(middleLength, modulesPerSection int) Layout {
	if modulesPerSection <= 0 {
		modulesPerSection = DefaultModulesPerSection
	}
	if middleLength < 0 {
		middleLength = 0
	}
	return Layout{MiddleLength: middleLength, ModulesPerSection: modulesPerSection}
}

func (l Layout) Head() int { return 0 }
func (l Layout) Tail() int { return l.MiddleLength + 1 }

// NumSections counts head, middle and tail sections.
func (l Layout) NumSections() int { return l.MiddleLength + 2 }

func (l Layout) inRange(section int) bool { return section >= 0 && section <= l.Tail() }

func (l Layout) IsMiddle(section int) bool { return section >= 1 && section <= l.MiddleLength }

func (l Layout) IsSpecialSection(section int) bool {
	return section == l.Head() || section == l.Tail()
}

func (l Layout) IsValidSection(loc Loc) bool {
	return loc.Slot == 0 && l.inRange(loc.Section)
}

func (l Layout) IsValidModule(loc Loc) bool {
	return l.inRange(loc.Section) && loc.Slot >= 1 && loc.Slot <= l.ModulesPerSection
}

// IsValid reports whether loc is either a valid frame or a valid module slot.
func (l Layout) IsValid(loc Loc) bool {
	return l.IsValidSection(loc) || l.IsValidModule(loc)
}

// Section returns the frame location hosting loc.
func (l Layout) Section(loc Loc) (Loc, bool) {
	if !l.IsValid(loc) {
		return Loc{}, false
	}
	return loc.Frame(), true
}

// Module returns loc when it addresses a module slot.
func (l Layout) Module(loc Loc) (Loc, bool) {
	if !l.IsValidModule(loc) {
		return Loc{}, false
	}
	return loc, true
}

// ModuleSlots lists the module slots of the section at sectionLoc in ascending order.
// Any slot of the section is accepted; nil means the section does not exist.
func (l Layout) ModuleSlots(sectionLoc Loc) []Loc {
	if !l.IsValid(sectionLoc) {
		return nil
	}
	out := make([]Loc, 0, l.ModulesPerSection)
	for slot := 1; slot <= l.ModulesPerSection; slot++ {
		out = append(out, Loc{Section: sectionLoc.Section, Slot: slot})
	}
	return out
}

// SectionLocs lists the frame followed by every module slot of the section.
func (l Layout) SectionLocs(section int) []Loc {
	frame := Loc{Section: section}
	if !l.IsValidSection(frame) {
		return nil
	}
	return append([]Loc{frame}, l.ModuleSlots(frame)...)
}

// All lists every location of the ship, section by section, frame first.
func (l Layout) All() []Loc {
	out := make([]Loc, 0, l.NumSections()*(l.ModulesPerSection+1))
	for s := 0; s <= l.Tail(); s++ {
		out = append(out, l.SectionLocs(s)...)
	}
	return out
}

// Set is an unordered collection of locations.
type Set map[Loc]struct{}

func NewSet(locs ...Loc) Set {
	s := make(Set, len(locs))
	for _, l := range locs {
		s[l] = struct{}{}
	}
	return s
}

func (s Set) Add(locs ...Loc) {
	for _, l := range locs {
		s[l] = struct{}{}
	}
}

func (s Set) Has(l Loc) bool {
	_, ok := s[l]
	return ok
}

// HasSection reports whether any location of the given section is in the set.
func (s Set) HasSection(section int) bool {
	for l := range s {
		if l.Section == section {
			return true
		}
	}
	return false
}

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for l := range s {
		out[l] = struct{}{}
	}
	return out
}

// Sorted returns the locations ordered by section, then slot.
func (s Set) Sorted() []Loc {
	out := make([]Loc, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

func Less(a, b Loc) bool {
	if a.Section != b.Section {
		return a.Section < b.Section
	}
	return a.Slot < b.Slot
}
