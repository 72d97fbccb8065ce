package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"homeship.ai/internal/sim/catalogs"
)

type Tuning struct {
	ModulesPerSection int `yaml:"modules_per_section"`

	Generation Generation `yaml:"generation"`
	Refit      Refit      `yaml:"refit"`
}

type Generation struct {
	MinLength int     `yaml:"min_length"`
	MaxLength int     `yaml:"max_length"`
	MinFill   float64 `yaml:"min_fill"`
	MaxFill   float64 `yaml:"max_fill"`

	SectionEmptyChance float64 `yaml:"section_empty_chance"`
	ModuleEmptyChance  float64 `yaml:"module_empty_chance"`

	FirstSection catalogs.SectionType `yaml:"first_section"`
	FirstModule  catalogs.ModuleType  `yaml:"first_module"`
	FirstSlots   []int                `yaml:"first_slots"`
	FillSection  catalogs.SectionType `yaml:"fill_section"`
	FillModule   catalogs.ModuleType  `yaml:"fill_module"`
}

// Refit holds the labour cost of each kind of refit task.
type Refit struct {
	BuildSectionLabour  int `yaml:"build_section_labour"`
	RemoveSectionLabour int `yaml:"remove_section_labour"`
	BuildModuleLabour   int `yaml:"build_module_labour"`
	RemoveModuleLabour  int `yaml:"remove_module_labour"`
}

func Defaults() Tuning {
	return Tuning{
		ModulesPerSection: 6,
		Generation: Generation{
			MinLength:          2,
			MaxLength:          10,
			MinFill:            0,
			MaxFill:            1,
			SectionEmptyChance: 0.3,
			ModuleEmptyChance:  0.6,
			FirstSection:       catalogs.SectionWheel,
			FirstModule:        catalogs.ModuleHabitat,
			FirstSlots:         []int{2, 5},
			FillSection:        catalogs.SectionNormal,
			FillModule:         catalogs.ModuleCargo,
		},
		Refit: Refit{
			BuildSectionLabour:  1000,
			RemoveSectionLabour: 600,
			BuildModuleLabour:   400,
			RemoveModuleLabour:  200,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Normalize fills zero values with defaults and clamps probabilities into [0,1].
func (t *Tuning) Normalize() {
	d := Defaults()
	if t.ModulesPerSection <= 0 {
		t.ModulesPerSection = d.ModulesPerSection
	}
	g := &t.Generation
	if g.MinLength < 2 {
		g.MinLength = 2
	}
	if g.MaxLength < g.MinLength {
		g.MaxLength = g.MinLength
	}
	g.MinFill = clamp01(g.MinFill)
	g.MaxFill = clamp01(g.MaxFill)
	if g.MaxFill < g.MinFill {
		g.MaxFill = g.MinFill
	}
	g.SectionEmptyChance = clamp01(g.SectionEmptyChance)
	g.ModuleEmptyChance = clamp01(g.ModuleEmptyChance)
	if g.FirstSection == "" {
		g.FirstSection = d.Generation.FirstSection
	}
	if g.FirstModule == "" {
		g.FirstModule = d.Generation.FirstModule
	}
	if g.FirstSlots == nil {
		g.FirstSlots = d.Generation.FirstSlots
	}
	if g.FillSection == "" {
		g.FillSection = d.Generation.FillSection
	}
	if g.FillModule == "" {
		g.FillModule = d.Generation.FillModule
	}

	r := &t.Refit
	if r.BuildSectionLabour <= 0 {
		r.BuildSectionLabour = d.Refit.BuildSectionLabour
	}
	if r.RemoveSectionLabour <= 0 {
		r.RemoveSectionLabour = d.Refit.RemoveSectionLabour
	}
	if r.BuildModuleLabour <= 0 {
		r.BuildModuleLabour = d.Refit.BuildModuleLabour
	}
	if r.RemoveModuleLabour <= 0 {
		r.RemoveModuleLabour = d.Refit.RemoveModuleLabour
	}
}

func (t Tuning) Validate() error {
	for _, s := range t.Generation.FirstSlots {
		if s < 1 || s > t.ModulesPerSection {
			return fmt.Errorf("generation.first_slots: slot %d outside 1..%d", s, t.ModulesPerSection)
		}
	}
	return nil
}

// CheckCatalog verifies that every type named by the generation settings exists and can be
// built by the generator.
func (t Tuning) CheckCatalog(c *catalogs.Catalog) error {
	g := t.Generation
	for _, st := range []catalogs.SectionType{g.FirstSection, g.FillSection} {
		if !c.BuildableSection(st) {
			return fmt.Errorf("generation: section %s is not buildable", st)
		}
	}
	if !c.Hosts(g.FirstSection, g.FirstModule) {
		return fmt.Errorf("generation: %s cannot host %s", g.FirstSection, g.FirstModule)
	}
	if !c.Hosts(g.FillSection, g.FillModule) {
		return fmt.Errorf("generation: %s cannot host %s", g.FillSection, g.FillModule)
	}
	return nil
}

// Digest identifies the effective settings, so logged generations can be matched to the
// tuning that produced them.
func (t Tuning) Digest() string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
