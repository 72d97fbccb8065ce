package ship

import (
	"fmt"
	"math"

	"homeship.ai/internal/sim/catalogs"
	"homeship.ai/internal/sim/mathx"
	"homeship.ai/internal/sim/shiploc"
	"homeship.ai/internal/sim/tuning"
)

// Report summarizes one generated starting ship.
type Report struct {
	Seed         int64   `json:"seed"`
	MiddleLength int     `json:"middle_length"`
	Fill         float64 `json:"fill"`
	Space        int     `json:"space"`
	Target       int     `json:"target"`
	CargoModules int     `json:"cargo_modules"`
	Digest       string  `json:"digest"`
}

// GenerateRange draws the middle length from [MinLength, MaxLength) and the fill fraction
// from [MinFill, MaxFill], then generates.
func GenerateRange(cat *catalogs.Catalog, tune tuning.Tuning, deps Deps, rng *mathx.Rand) (*Ship, Report, error) {
	g := tune.Generation
	length := g.MinLength
	if g.MaxLength > g.MinLength {
		length += rng.Intn(g.MaxLength - g.MinLength)
	}
	fill := g.MinFill + rng.Float64()*(g.MaxFill-g.MinFill)
	return Generate(cat, tune, deps, rng, length, fill)
}

// Generate builds a starting ship with middleLength middle sections (at least 2). Section 1
// gets the configured first section and modules; sections 2..middleLength are filled so
// that exactly round(fill*space) slots hold the fill module, where space is the slot count
// of those sections. Sections and slots are left empty at random only while the target
// stays reachable.
func Generate(cat *catalogs.Catalog, tune tuning.Tuning, deps Deps, rng *mathx.Rand, middleLength int, fill float64) (*Ship, Report, error) {
	if cat == nil {
		cat = catalogs.Default()
	}
	if err := tune.CheckCatalog(cat); err != nil {
		return nil, Report{}, err
	}
	if err := tune.Validate(); err != nil {
		return nil, Report{}, err
	}
	if middleLength < 2 {
		middleLength = 2
	}
	if math.IsNaN(fill) {
		return nil, Report{}, fmt.Errorf("generate: fill is NaN")
	}
	fill = math.Max(0, math.Min(1, fill))

	k := tune.ModulesPerSection
	g := tune.Generation
	s := New(shiploc.NewLayout(middleLength, k), cat, deps)

	space := k * (middleLength - 1)
	target := int(math.Round(float64(space) * fill))
	realized := 0

	s.Attribute("generate", func() {
		s.ForceBuildSection(1, g.FirstSection)
		for _, slot := range g.FirstSlots {
			s.ForceBuildModule(shiploc.Loc{Section: 1, Slot: slot}, g.FirstModule)
		}

		for i := 2; i <= middleLength; i++ {
			later := k * (middleLength - i)
			roll := rng.Float64()
			if realized+later >= target && roll < g.SectionEmptyChance {
				s.ForceBuildSection(i, catalogs.SectionStripped)
				continue
			}
			s.ForceBuildSection(i, g.FillSection)
			for slot := 1; slot <= k; slot++ {
				roll := rng.Float64()
				if realized >= target {
					continue
				}
				if realized+(k-slot)+later >= target && roll < g.ModuleEmptyChance {
					continue
				}
				loc := shiploc.Loc{Section: i, Slot: slot}
				s.ForceBuildModule(loc, g.FillModule)
				s.stock(loc)
				realized++
			}
		}
	})

	return s, Report{
		Seed:         rng.Seed(),
		MiddleLength: middleLength,
		Fill:         fill,
		Space:        space,
		Target:       target,
		CargoModules: realized,
		Digest:       s.Digest(),
	}, nil
}
