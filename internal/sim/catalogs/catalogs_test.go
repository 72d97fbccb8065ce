package catalogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_HasRequiredVariants(t *testing.T) {
	c := Default()
	for _, st := range []SectionType{SectionStripped, SectionNormal, SectionWheel, SectionGravityPlated, SectionHead, SectionTail} {
		if _, ok := c.Section(st); !ok {
			t.Fatalf("missing section %s", st)
		}
	}
	for _, mt := range []ModuleType{ModuleEmpty, ModuleCargo, ModuleHabitat, ModuleBridge, ModuleEngineering} {
		if _, ok := c.Module(mt); !ok {
			t.Fatalf("missing module %s", mt)
		}
	}
	if c.Digest == "" {
		t.Fatalf("expected digest")
	}
	if len(c.SectionOrder) != 6 || c.SectionOrder[0] != SectionStripped {
		t.Fatalf("unexpected section order: %v", c.SectionOrder)
	}
}

func TestDefault_Capabilities(t *testing.T) {
	c := Default()

	if !c.BuildableSection(SectionWheel) || c.BuildableSection(SectionHead) {
		t.Fatalf("buildable section flags wrong")
	}
	if c.BuildableModule(ModuleBridge) || !c.BuildableModule(ModuleHabitat) {
		t.Fatalf("buildable module flags wrong")
	}
	if c.Hosts(SectionNormal, ModuleHabitat) {
		t.Fatalf("normal frame must not host habitats")
	}
	if !c.Hosts(SectionWheel, ModuleHabitat) {
		t.Fatalf("wheel must host habitats")
	}

	normal, _ := c.Section(SectionNormal)
	wheel, _ := c.Section(SectionWheel)
	hab, _ := c.Module(ModuleHabitat)
	cargo, _ := c.Module(ModuleCargo)
	if GravityCompatible(normal, hab) {
		t.Fatalf("habitat needs gravity")
	}
	if !GravityCompatible(wheel, hab) || !GravityCompatible(normal, cargo) {
		t.Fatalf("expected gravity compatibility")
	}
	if hab.Housing == nil || hab.Housing.Capacity != 5 {
		t.Fatalf("habitat housing: %+v", hab.Housing)
	}
	bridge, _ := c.Module(ModuleBridge)
	if bridge.Workplace == nil || len(bridge.Workplace.Jobs) != 2 {
		t.Fatalf("bridge workplace: %+v", bridge.Workplace)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Digest != Default().Digest {
		t.Fatalf("configs/catalog.json drifted from the built-in catalog")
	}
}

func TestParse_RejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown field":  `{"sections":[{"type":"STRIPPED","hosts":[],"colour":"red"}],"modules":[{"type":"EMPTY"}]}`,
		"negative units": `{"sections":[{"type":"STRIPPED","hosts":[],"cost":[{"item":"A","units":-1}]}],"modules":[{"type":"EMPTY"}]}`,
		"lowercase type": `{"sections":[{"type":"stripped","hosts":[]}],"modules":[{"type":"EMPTY"}]}`,
	}
	for name, raw := range cases {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParse_RejectsMissingSpecialParts(t *testing.T) {
	raw := `{"sections":[{"type":"STRIPPED","hosts":[]},{"type":"HEAD","special":true,"hosts":[]}],
	         "modules":[{"type":"EMPTY"},{"type":"BRIDGE","special":true},{"type":"ENGINEERING","special":true}]}`
	_, err := Parse([]byte(raw))
	if err == nil || !strings.Contains(err.Error(), "TAIL") {
		t.Fatalf("expected missing TAIL error, got %v", err)
	}
}

func TestParse_RejectsHostingSpecialModule(t *testing.T) {
	raw := `{"sections":[{"type":"STRIPPED","hosts":[]},{"type":"HEAD","special":true,"hosts":[]},{"type":"TAIL","special":true,"hosts":[]},
	                     {"type":"NORMAL","hosts":["BRIDGE"]}],
	         "modules":[{"type":"EMPTY"},{"type":"BRIDGE","special":true},{"type":"ENGINEERING","special":true}]}`
	if _, err := Parse([]byte(raw)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist, got %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "catalog.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "catalog.json") {
		t.Fatalf("expected wrapped parse error, got %v", err)
	}
}

func TestHelpers(t *testing.T) {
	if Units([]Stack{{"A", 3}, {"B", 4}, {"C", -2}}) != 7 {
		t.Fatalf("Units")
	}
}
