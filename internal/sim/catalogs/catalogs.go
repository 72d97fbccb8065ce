package catalogs

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type SectionType string

const (
	SectionStripped      SectionType = "STRIPPED"
	SectionNormal        SectionType = "NORMAL"
	SectionWheel         SectionType = "WHEEL"
	SectionGravityPlated SectionType = "GRAVITY_PLATED"
	SectionHead          SectionType = "HEAD"
	SectionTail          SectionType = "TAIL"
)

type ModuleType string

const (
	ModuleEmpty       ModuleType = "EMPTY"
	ModuleCargo       ModuleType = "CARGO"
	ModuleHabitat     ModuleType = "HABITAT"
	ModuleBridge      ModuleType = "BRIDGE"
	ModuleEngineering ModuleType = "ENGINEERING"
)

// Stack is a quantity of one cargo item.
type Stack struct {
	Item  string `json:"item"`
	Units int    `json:"units"`
}

type ComponentDef struct {
	ID      string  `json:"id"`
	Salvage []Stack `json:"salvage,omitempty"`
}

type SectionDef struct {
	Type        SectionType    `json:"type"`
	Name        string         `json:"name,omitempty"`
	UsesGravity bool           `json:"uses_gravity,omitempty"`
	Special     bool           `json:"special,omitempty"`
	Hosts       []ModuleType   `json:"hosts"`
	Components  []ComponentDef `json:"components,omitempty"`
	Cost        []Stack        `json:"cost,omitempty"`
}

type WorkplaceDef struct {
	Jobs []int `json:"jobs"`
}

type HousingDef struct {
	Capacity int `json:"capacity"`
}

type ModuleDef struct {
	Type            ModuleType     `json:"type"`
	Name            string         `json:"name,omitempty"`
	RequiresGravity bool           `json:"requires_gravity,omitempty"`
	Special         bool           `json:"special,omitempty"`
	Contents        []Stack        `json:"contents,omitempty"`
	Components      []ComponentDef `json:"components,omitempty"`
	Cost            []Stack        `json:"cost,omitempty"`
	Workplace       *WorkplaceDef  `json:"workplace,omitempty"`
	Housing         *HousingDef    `json:"housing,omitempty"`
}

// Catalog holds every section and module variant the ship can contain.
type Catalog struct {
	Sections map[SectionType]SectionDef
	Modules  map[ModuleType]ModuleDef

	// Declaration order from the source file.
	SectionOrder []SectionType
	ModuleOrder  []ModuleType

	Digest string
}

type catalogFile struct {
	Sections []SectionDef `json:"sections"`
	Modules  []ModuleDef  `json:"modules"`
}

//go:embed catalog.json
var defaultCatalogJSON []byte

//go:embed catalog.schema.json
var catalogSchemaJSON string

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalogJSON)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return c
}

// Load reads catalog.json from configDir.
func Load(configDir string) (*Catalog, error) {
	raw, err := os.ReadFile(filepath.Join(configDir, "catalog.json"))
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog.json: %w", err)
	}
	return c, nil
}

// Parse validates raw against the catalog schema and builds the lookup tables.
func Parse(raw []byte) (*Catalog, error) {
	schema, err := jsonschema.CompileString("catalog.schema.json", catalogSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, err
	}

	var f catalogFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}

	c := &Catalog{
		Sections: make(map[SectionType]SectionDef, len(f.Sections)),
		Modules:  make(map[ModuleType]ModuleDef, len(f.Modules)),
		Digest:   sha256Hex(raw),
	}
	for _, d := range f.Sections {
		if _, dup := c.Sections[d.Type]; dup {
			return nil, fmt.Errorf("duplicate section type %s", d.Type)
		}
		c.Sections[d.Type] = d
		c.SectionOrder = append(c.SectionOrder, d.Type)
	}
	for _, d := range f.Modules {
		if _, dup := c.Modules[d.Type]; dup {
			return nil, fmt.Errorf("duplicate module type %s", d.Type)
		}
		c.Modules[d.Type] = d
		c.ModuleOrder = append(c.ModuleOrder, d.Type)
	}

	for _, t := range []SectionType{SectionStripped, SectionHead, SectionTail} {
		if _, ok := c.Sections[t]; !ok {
			return nil, fmt.Errorf("missing section type %s", t)
		}
	}
	for _, t := range []ModuleType{ModuleEmpty, ModuleBridge, ModuleEngineering} {
		if _, ok := c.Modules[t]; !ok {
			return nil, fmt.Errorf("missing module type %s", t)
		}
	}
	if len(c.Sections[SectionStripped].Hosts) != 0 {
		return nil, fmt.Errorf("section %s cannot host modules", SectionStripped)
	}
	for _, d := range f.Sections {
		for _, m := range d.Hosts {
			md, ok := c.Modules[m]
			if !ok {
				return nil, fmt.Errorf("section %s hosts unknown module %s", d.Type, m)
			}
			if md.Special {
				return nil, fmt.Errorf("section %s hosts special module %s", d.Type, m)
			}
		}
	}
	return c, nil
}

func (c *Catalog) Section(t SectionType) (SectionDef, bool) {
	d, ok := c.Sections[t]
	return d, ok
}

func (c *Catalog) Module(t ModuleType) (ModuleDef, bool) {
	d, ok := c.Modules[t]
	return d, ok
}

// BuildableSection reports whether t is a known section type a player may construct.
func (c *Catalog) BuildableSection(t SectionType) bool {
	d, ok := c.Sections[t]
	return ok && !d.Special
}

func (c *Catalog) BuildableModule(t ModuleType) bool {
	d, ok := c.Modules[t]
	return ok && !d.Special
}

// Hosts reports whether a section of type s lists module type m as buildable.
func (c *Catalog) Hosts(s SectionType, m ModuleType) bool {
	d, ok := c.Sections[s]
	if !ok {
		return false
	}
	for _, h := range d.Hosts {
		if h == m {
			return true
		}
	}
	return false
}

// GravityCompatible is false when the module needs gravity the section does not provide.
func GravityCompatible(s SectionDef, m ModuleDef) bool {
	return !m.RequiresGravity || s.UsesGravity
}

// Units sums the units of every stack.
func Units(stacks []Stack) int {
	n := 0
	for _, s := range stacks {
		if s.Units > 0 {
			n += s.Units
		}
	}
	return n
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
