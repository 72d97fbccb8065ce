package ship

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/shiploc"
)

// Ship is the authoritative layout of one vessel. It is not safe for concurrent use.
//
// Every valid location always has an occupant: a frame at slot 0, a module (possibly EMPTY)
// at every module slot.
type Ship struct {
	layout  shiploc.Layout
	catalog *catalogs.Catalog
	deps    Deps

	sections []*Section
	modules  map[shiploc.Loc]*Module

	auditSeq uint64
	reason   string
}

// New builds a naked ship: head and tail in place, every middle section stripped and every
// middle slot empty. All head slots share one bridge module, all tail slots one engineering
// module.
func New(layout shiploc.Layout, cat *catalogs.Catalog, deps Deps) *Ship {
	if cat == nil {
		cat = catalogs.Default()
	}
	s := &Ship{
		layout:   layout,
		catalog:  cat,
		deps:     deps.withDefaults(),
		sections: make([]*Section, layout.NumSections()),
		modules:  make(map[shiploc.Loc]*Module, layout.NumSections()*layout.ModulesPerSection),
	}

	s.sections[layout.Head()] = s.newSection(layout.Head(), s.mustSection(catalogs.SectionHead))
	s.sections[layout.Tail()] = s.newSection(layout.Tail(), s.mustSection(catalogs.SectionTail))
	s.share(layout.Head(), s.mustModule(catalogs.ModuleBridge))
	s.share(layout.Tail(), s.mustModule(catalogs.ModuleEngineering))

	stripped := s.mustSection(catalogs.SectionStripped)
	empty := s.mustModule(catalogs.ModuleEmpty)
	for i := 1; i <= layout.MiddleLength; i++ {
		s.sections[i] = s.newSection(i, stripped)
		for _, loc := range layout.ModuleSlots(shiploc.Loc{Section: i}) {
			s.modules[loc] = s.newModule(loc, empty)
		}
	}
	return s
}

func (s *Ship) share(section int, def catalogs.ModuleDef) {
	slots := s.layout.ModuleSlots(shiploc.Loc{Section: section})
	if len(slots) == 0 {
		return
	}
	m := s.newModule(slots[0], def)
	for _, loc := range slots {
		s.modules[loc] = m
	}
}

func (s *Ship) mustSection(t catalogs.SectionType) catalogs.SectionDef {
	d, ok := s.catalog.Section(t)
	if !ok {
		panic(fmt.Sprintf("ship: catalog has no section %s", t))
	}
	return d
}

func (s *Ship) mustModule(t catalogs.ModuleType) catalogs.ModuleDef {
	d, ok := s.catalog.Module(t)
	if !ok {
		panic(fmt.Sprintf("ship: catalog has no module %s", t))
	}
	return d
}

func (s *Ship) newSection(index int, def catalogs.SectionDef) *Section {
	return &Section{
		Loc:         shiploc.Loc{Section: index},
		Type:        def.Type,
		Name:        def.Name,
		UsesGravity: def.UsesGravity,
		Special:     def.Special,
		Hosts:       append([]catalogs.ModuleType(nil), def.Hosts...),
		Components:  componentsFrom(def.Components),
	}
}

// newModule instantiates def at loc. Housing modules register a fresh housing key.
func (s *Ship) newModule(loc shiploc.Loc, def catalogs.ModuleDef) *Module {
	m := &Module{
		Loc:             loc,
		Type:            def.Type,
		Name:            def.Name,
		RequiresGravity: def.RequiresGravity,
		Special:         def.Special,
		Components:      componentsFrom(def.Components),
	}
	if def.Workplace != nil {
		m.Workplace = &Workplace{Jobs: append([]int(nil), def.Workplace.Jobs...)}
	}
	if def.Housing != nil {
		key := s.deps.Housing.YieldHousingKey()
		m.Housing = &Housing{Key: key, Capacity: def.Housing.Capacity}
		s.deps.Housing.AddHousing(key, def.Housing.Capacity, loc)
	}
	return m
}

func (s *Ship) Layout() shiploc.Layout     { return s.layout }
func (s *Ship) Catalog() *catalogs.Catalog { return s.catalog }
func (s *Ship) Cargo() CargoSystem         { return s.deps.Cargo }
func (s *Ship) Housing() HousingSystem     { return s.deps.Housing }
func (s *Ship) SetAuditSink(a AuditSink)   { s.deps.Audit = a }
func (s *Ship) AuditSeq() uint64           { return s.auditSeq }
func (s *Ship) MiddleLength() int          { return s.layout.MiddleLength }
func (s *Ship) ModulesPerSection() int     { return s.layout.ModulesPerSection }
func (s *Ship) Sections() []*Section       { return append([]*Section(nil), s.sections...) }

// SectionAt returns the frame of the section containing loc.
func (s *Ship) SectionAt(loc shiploc.Loc) (*Section, bool) {
	if !s.layout.IsValid(loc) {
		return nil, false
	}
	return s.sections[loc.Section], true
}

func (s *Ship) ModuleAt(loc shiploc.Loc) (*Module, bool) {
	if !s.layout.IsValidModule(loc) {
		return nil, false
	}
	return s.modules[loc], true
}

// PartAt returns the occupant of loc: the frame at slot 0, the module otherwise.
func (s *Ship) PartAt(loc shiploc.Loc) (Part, bool) {
	switch {
	case s.layout.IsValidSection(loc):
		return Part{Loc: loc, Section: s.sections[loc.Section]}, true
	case s.layout.IsValidModule(loc):
		return Part{Loc: loc, Module: s.modules[loc]}, true
	}
	return Part{}, false
}

// ModulesIn lists the occupants of the section's slots in slot order. Shared modules
// appear once per slot.
func (s *Ship) ModulesIn(section int) []*Module {
	slots := s.layout.ModuleSlots(shiploc.Loc{Section: section})
	out := make([]*Module, 0, len(slots))
	for _, loc := range slots {
		out = append(out, s.modules[loc])
	}
	return out
}

// CountModules counts middle slots holding a module of type t.
func (s *Ship) CountModules(t catalogs.ModuleType) int {
	n := 0
	for i := 1; i <= s.layout.MiddleLength; i++ {
		for _, m := range s.ModulesIn(i) {
			if m != nil && m.Type == t {
				n++
			}
		}
	}
	return n
}

// Attribute runs fn with reason attached to every audit entry it emits.
func (s *Ship) Attribute(reason string, fn func()) {
	prev := s.reason
	s.reason = reason
	defer func() { s.reason = prev }()
	fn()
}

func (s *Ship) audit(e AuditEntry) {
	s.auditSeq++
	if s.deps.Audit == nil {
		return
	}
	e.Seq = s.auditSeq
	if e.Reason == "" {
		e.Reason = s.reason
	}
	_ = s.deps.Audit.WriteAudit(e)
}

// ForceBuildSection replaces the middle section at index with a frame of type t and
// resets every slot to an EMPTY module. The old section is destroyed first. It does not
// validate anything beyond programming errors: index outside 1..MiddleLength or a
// special or unknown section type panics.
func (s *Ship) ForceBuildSection(index int, t catalogs.SectionType) *Section {
	if !s.layout.IsMiddle(index) {
		panic(fmt.Sprintf("ship: ForceBuildSection index %d outside 1..%d", index, s.layout.MiddleLength))
	}
	def, ok := s.catalog.Section(t)
	if !ok || def.Special {
		panic(fmt.Sprintf("ship: ForceBuildSection with unbuildable type %q", t))
	}

	old := s.sections[index]
	s.destroySection(index)

	sec := s.newSection(index, def)
	s.sections[index] = sec
	empty := s.mustModule(catalogs.ModuleEmpty)
	for _, loc := range s.layout.ModuleSlots(sec.Loc) {
		s.modules[loc] = s.newModule(loc, empty)
	}
	s.audit(AuditEntry{Action: ActionBuildSection, Loc: sec.Loc, From: string(old.Type), To: string(t)})
	return sec
}

// ForceBuildModule destroys the module at loc and installs a new one of type t. Hosting
// and gravity rules are not checked here. loc outside a middle section's module slots, or
// a special or unknown module type, panics.
func (s *Ship) ForceBuildModule(loc shiploc.Loc, t catalogs.ModuleType) *Module {
	if !s.layout.IsValidModule(loc) || !s.layout.IsMiddle(loc.Section) {
		panic(fmt.Sprintf("ship: ForceBuildModule at %s outside middle module slots", loc))
	}
	def, ok := s.catalog.Module(t)
	if !ok || def.Special {
		panic(fmt.Sprintf("ship: ForceBuildModule with unbuildable type %q", t))
	}

	old := s.modules[loc]
	s.destroyModule(old)

	m := s.newModule(loc, def)
	s.modules[loc] = m
	s.audit(AuditEntry{Action: ActionBuildModule, Loc: loc, From: string(old.Type), To: string(t)})
	return m
}

// stock fills the module at loc with its catalog contents.
func (s *Ship) stock(loc shiploc.Loc) {
	m := s.modules[loc]
	if m == nil {
		return
	}
	def, ok := s.catalog.Module(m.Type)
	if !ok {
		return
	}
	m.Cargo = append([]catalogs.Stack(nil), def.Contents...)
}

// Digest hashes section types, module types and held cargo in location order.
func (s *Ship) Digest() string {
	h := sha256.New()
	var tmp [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		h.Write(tmp[:])
	}
	writeStr := func(v string) {
		writeU64(uint64(len(v)))
		h.Write([]byte(v))
	}

	writeU64(uint64(s.layout.MiddleLength))
	writeU64(uint64(s.layout.ModulesPerSection))
	for i, sec := range s.sections {
		writeStr(string(sec.Type))
		for _, m := range s.ModulesIn(i) {
			writeStr(string(m.Type))
			writeU64(uint64(len(m.Cargo)))
			for _, st := range m.Cargo {
				writeStr(st.Item)
				writeU64(uint64(int64(st.Units)))
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Describe renders one line per section: index, frame type and the slot types.
func (s *Ship) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ship middle=%d modules/section=%d\n", s.layout.MiddleLength, s.layout.ModulesPerSection)
	for i, sec := range s.sections {
		fmt.Fprintf(&b, "[%2d] %-14s |", i, sec.Type)
		for _, m := range s.ModulesIn(i) {
			b.WriteByte(' ')
			b.WriteString(string(m.Type))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// View is a serializable picture of the layout for observers and tooling.
type View struct {
	MiddleLength      int           `json:"middle_length"`
	ModulesPerSection int           `json:"modules_per_section"`
	Digest            string        `json:"digest"`
	AuditSeq          uint64        `json:"audit_seq"`
	Sections          []SectionView `json:"sections"`
}

type SectionView struct {
	Index   int      `json:"index"`
	Type    string   `json:"type"`
	Modules []string `json:"modules"`
}

func (s *Ship) Snapshot() View {
	v := View{
		MiddleLength:      s.layout.MiddleLength,
		ModulesPerSection: s.layout.ModulesPerSection,
		Digest:            s.Digest(),
		AuditSeq:          s.auditSeq,
		Sections:          make([]SectionView, 0, len(s.sections)),
	}
	for i, sec := range s.sections {
		sv := SectionView{Index: i, Type: string(sec.Type)}
		for _, m := range s.ModulesIn(i) {
			sv.Modules = append(sv.Modules, string(m.Type))
		}
		v.Sections = append(v.Sections, sv)
	}
	return v
}
