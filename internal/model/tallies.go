package model

import (
	"fmt"

	"github.com/banshee-data/ironsphere/internal/endf"
)

// FilterKind identifies a tally filter type as the solver names it.
type FilterKind string

const (
	FilterParticle       FilterKind = "particle"
	FilterCell           FilterKind = "cell"
	FilterSurface        FilterKind = "surface"
	FilterEnergy         FilterKind = "energy"
	FilterEnergyFunction FilterKind = "energyfunction"
)

// Tally names shared by the run and by extraction.
const (
	TallyNeutronFlux    = "neutron flux"
	TallyPhotonFlux     = "photon flux"
	TallyHeating        = "heating"
	TallyNeutronCurrent = "neutron current"
	TallyPhotonCurrent  = "photon current"
)

// SpectralIndexNuclides are the dosimetry targets, in tally order.
var SpectralIndexNuclides = []string{"Rh103", "In115", "Al27", "S32"}

// HeatingParticles are the particle bins of the heating tally. Row 0 is the
// neutron contribution; the remaining rows make up the photon contribution.
var HeatingParticles = []string{"neutron", "photon", "electron", "positron"}

// SpectralIndexName is the tally name for a dosimetry nuclide.
func SpectralIndexName(nuc string) string { return "Spectral index " + nuc }

// Particle selects which group structure an energy filter uses.
type Particle string

const (
	Neutron Particle = "neutron"
	Photon  Particle = "photon"
)

// Layout is the filter order and score of a tally. The order fixed here is
// the axis order of the flattened results read back from the statepoint.
type Layout struct {
	Name     string
	Filters  []FilterKind
	Score    string
	Particle Particle // energy filter group structure and particle filter
}

// Layouts lists the nine tallies in output order.
func Layouts() []Layout {
	out := []Layout{
		{Name: TallyNeutronFlux, Filters: []FilterKind{FilterParticle, FilterCell, FilterEnergy}, Score: "flux", Particle: Neutron},
		{Name: TallyPhotonFlux, Filters: []FilterKind{FilterParticle, FilterCell, FilterEnergy}, Score: "flux", Particle: Photon},
	}
	for _, nuc := range SpectralIndexNuclides {
		out = append(out, Layout{
			Name:     SpectralIndexName(nuc),
			Filters:  []FilterKind{FilterParticle, FilterEnergyFunction, FilterCell, FilterEnergy},
			Score:    "flux",
			Particle: Neutron,
		})
	}
	return append(out,
		Layout{Name: TallyHeating, Filters: []FilterKind{FilterParticle, FilterCell, FilterEnergy}, Score: "heating", Particle: Neutron},
		Layout{Name: TallyNeutronCurrent, Filters: []FilterKind{FilterParticle, FilterSurface, FilterEnergy}, Score: "current", Particle: Neutron},
		Layout{Name: TallyPhotonCurrent, Filters: []FilterKind{FilterParticle, FilterSurface, FilterEnergy}, Score: "current", Particle: Photon},
	)
}

// LayoutByName returns the layout for a tally name.
func LayoutByName(name string) (Layout, bool) {
	for _, l := range Layouts() {
		if l.Name == name {
			return l, true
		}
	}
	return Layout{}, false
}

// EnergyFunction is a tabulated multiplier applied to the scored flux.
type EnergyFunction struct {
	Energy        []float64
	Y             []float64
	Interpolation string
}

// Filter is one concrete filter of a tally.
type Filter struct {
	Kind      FilterKind
	Particles []string
	IDs       []int     // cell or surface ids
	Edges     []float64 // energy bin edges, eV
	Function  *EnergyFunction
}

// Bins is the number of bins the filter contributes to the results array.
func (f Filter) Bins() int {
	switch f.Kind {
	case FilterParticle:
		return len(f.Particles)
	case FilterCell, FilterSurface:
		return len(f.IDs)
	case FilterEnergy:
		return len(f.Edges) - 1
	case FilterEnergyFunction:
		return 1
	}
	return 0
}

// TallySpec is a named tally ready to be written for the solver.
type TallySpec struct {
	ID      int
	Name    string
	Filters []Filter
	Scores  []string
}

// SpectralResponse is the response function for one spectral-index tally.
type SpectralResponse struct {
	Nuclide string
	Sigma   endf.Tabulated1D
}

func energyFunction(sigma endf.Tabulated1D) (*EnergyFunction, error) {
	law, err := sigma.SingleInterpolation()
	if err != nil {
		return nil, err
	}
	name, err := endf.InterpolationName(law)
	if err != nil {
		return nil, err
	}
	return &EnergyFunction{
		Energy:        append([]float64(nil), sigma.X...),
		Y:             append([]float64(nil), sigma.Y...),
		Interpolation: name,
	}, nil
}

func (m *Model) buildTallies(neutronEdges, photonEdges []float64, responses []SpectralResponse) error {
	byNuclide := make(map[string]SpectralResponse, len(responses))
	for _, r := range responses {
		byNuclide[r.Nuclide] = r
	}
	edges := map[Particle][]float64{Neutron: neutronEdges, Photon: photonEdges}

	id := 0
	for _, layout := range Layouts() {
		var filters []Filter
		skip := false
		for _, kind := range layout.Filters {
			f := Filter{Kind: kind}
			switch kind {
			case FilterParticle:
				f.Particles = []string{string(layout.Particle)}
				if layout.Name == TallyHeating {
					f.Particles = append([]string(nil), HeatingParticles...)
				}
			case FilterCell:
				f.IDs = m.Geometry.cellIDs()
			case FilterSurface:
				f.IDs = m.Geometry.surfaceIDs()
			case FilterEnergy:
				f.Edges = append([]float64(nil), edges[layout.Particle]...)
			case FilterEnergyFunction:
				nuc := layout.Name[len(SpectralIndexName("")):]
				resp, ok := byNuclide[nuc]
				if !ok {
					skip = true
					break
				}
				fn, err := energyFunction(resp.Sigma)
				if err != nil {
					return fmt.Errorf("%s: %w", layout.Name, err)
				}
				f.Function = fn
			}
			filters = append(filters, f)
		}
		if skip {
			continue
		}
		id++
		m.Tallies = append(m.Tallies, TallySpec{
			ID:      id,
			Name:    layout.Name,
			Filters: filters,
			Scores:  []string{layout.Score},
		})
	}
	return nil
}
