// Package model describes one iron-sphere case: the material mixture, the
// three-shell geometry, the point source, the run settings and the tally set.
// Every value here is built fresh per case and never mutated afterwards.
package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/ironsphere/internal/nuclide"
	"github.com/banshee-data/ironsphere/internal/security"
)

// Constituent is one nuclide of a mixture with its atom fraction.
type Constituent struct {
	Nuclide  string
	Fraction float64
}

// Composition is a named isotopic mixture.
type Composition struct {
	Name         string
	Constituents []Constituent
}

var compositions = map[string]Composition{
	"fe56": {
		Name:         "fe56",
		Constituents: []Constituent{{"Fe56", 1.0}},
	},
	"fe": {
		Name: "fe",
		Constituents: []Constituent{
			{"Fe54", 0.05845},
			{"Fe56", 0.91754},
			{"Fe57", 0.02119},
			{"Fe58", 0.00282},
		},
	},
}

// LookupComposition returns a built-in composition by name.
func LookupComposition(name string) (Composition, error) {
	c, ok := compositions[name]
	if !ok {
		return Composition{}, fmt.Errorf("unknown composition %q (known: %s)", name, strings.Join(CompositionNames(), ", "))
	}
	// Copy so callers cannot alter the catalogue.
	c.Constituents = append([]Constituent(nil), c.Constituents...)
	return c, nil
}

// CompositionNames lists the built-in compositions in sorted order.
func CompositionNames() []string {
	names := make([]string, 0, len(compositions))
	for n := range compositions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks every nuclide name parses and fractions are positive.
func (c Composition) Validate() error {
	if len(c.Constituents) == 0 {
		return fmt.Errorf("composition %q has no nuclides", c.Name)
	}
	for _, con := range c.Constituents {
		if _, err := nuclide.Parse(con.Nuclide); err != nil {
			return fmt.Errorf("composition %q: %w", c.Name, err)
		}
		if con.Fraction <= 0 {
			return fmt.Errorf("composition %q: %s fraction must be positive, got %g", c.Name, con.Nuclide, con.Fraction)
		}
	}
	return nil
}

// SourceEnergy is a discrete source energy together with the label used in
// case names ("14MeV").
type SourceEnergy struct {
	Label string
	EV    float64
}

var energyUnits = []struct {
	suffix string
	scale  float64
}{
	{"MeV", 1e6},
	{"keV", 1e3},
	{"eV", 1},
}

// ParseSourceEnergy converts a label such as "14MeV" or "500keV" to eV.
func ParseSourceEnergy(label string) (SourceEnergy, error) {
	for _, u := range energyUnits {
		if !strings.HasSuffix(label, u.suffix) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(label, u.suffix), 64)
		if err != nil {
			return SourceEnergy{}, fmt.Errorf("invalid source energy %q: %w", label, err)
		}
		if v <= 0 {
			return SourceEnergy{}, fmt.Errorf("source energy %q must be positive", label)
		}
		return SourceEnergy{Label: label, EV: v * u.scale}, nil
	}
	return SourceEnergy{}, fmt.Errorf("source energy %q needs a MeV, keV or eV suffix", label)
}

// Library is a nuclear-data library label and the cross_sections.xml the
// solver should load for it.
type Library struct {
	Label         string
	CrossSections string
}

// Case is one (composition, source energy, library) run.
type Case struct {
	Composition Composition
	Energy      SourceEnergy
	Library     Library
}

// Key is the case identity used for the working directory and CSV prefix.
func (c Case) Key() string {
	return c.Composition.Name + "_" + c.Energy.Label + "_" + c.Library.Label
}

func (c Case) String() string { return c.Key() }

// Cases expands the configured axes into the run order: library outermost,
// then composition, then source energy.
func Cases(libraries []Library, compositions, energies []string) ([]Case, error) {
	comps := make([]Composition, 0, len(compositions))
	for _, name := range compositions {
		if err := security.ValidateLabel(name); err != nil {
			return nil, fmt.Errorf("composition: %w", err)
		}
		c, err := LookupComposition(name)
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}

	srcs := make([]SourceEnergy, 0, len(energies))
	for _, label := range energies {
		if err := security.ValidateLabel(label); err != nil {
			return nil, fmt.Errorf("source energy: %w", err)
		}
		e, err := ParseSourceEnergy(label)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, e)
	}

	var cases []Case
	seen := make(map[string]bool)
	for _, lib := range libraries {
		if err := security.ValidateLabel(lib.Label); err != nil {
			return nil, fmt.Errorf("library: %w", err)
		}
		for _, comp := range comps {
			for _, e := range srcs {
				c := Case{Composition: comp, Energy: e, Library: lib}
				c.Composition.Constituents = append([]Constituent(nil), comp.Constituents...)
				if seen[c.Key()] {
					return nil, fmt.Errorf("duplicate case %s", c.Key())
				}
				seen[c.Key()] = true
				cases = append(cases, c)
			}
		}
	}
	return cases, nil
}
