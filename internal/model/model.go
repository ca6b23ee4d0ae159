package model

import (
	"fmt"

	"github.com/banshee-data/ironsphere/internal/groups"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultParticles = 10_000_000
	DefaultBatches   = 100
	DefaultDensity   = 7.8 // g/cm3
)

// Material is the homogeneous iron filling every shell.
type Material struct {
	ID          int
	Name        string
	DensityGCm3 float64
	Nuclides    []Constituent
}

// Source is an isotropic point source at the origin with one discrete energy.
type Source struct {
	Position [3]float64
	EnergyEV float64
}

// Settings are the run controls handed to the solver.
type Settings struct {
	RunMode         string
	Particles       int
	Batches         int
	PhotonTransport bool
}

// Options carries everything a case build needs besides the case itself.
type Options struct {
	NeutronGroups groups.Structure
	PhotonGroups  groups.Structure
	Responses     []SpectralResponse
	Particles     int
	Batches       int
	DensityGCm3   float64
}

// Model is a fully specified case.
type Model struct {
	Case          Case
	CrossSections string
	Material      Material
	Geometry      Geometry
	Source        Source
	Settings      Settings
	Tallies       []TallySpec
}

// Build assembles the model for a case. The result shares no slices with
// opts or with any other model.
func Build(c Case, opts Options) (*Model, error) {
	if err := c.Composition.Validate(); err != nil {
		return nil, err
	}
	if c.Energy.EV <= 0 {
		return nil, fmt.Errorf("case %s: source energy must be positive", c.Key())
	}
	if err := opts.NeutronGroups.Validate(); err != nil {
		return nil, fmt.Errorf("neutron groups: %w", err)
	}
	if err := opts.PhotonGroups.Validate(); err != nil {
		return nil, fmt.Errorf("photon groups: %w", err)
	}

	particles := opts.Particles
	if particles <= 0 {
		particles = DefaultParticles
	}
	batches := opts.Batches
	if batches <= 0 {
		batches = DefaultBatches
	}
	density := opts.DensityGCm3
	if density <= 0 {
		density = DefaultDensity
	}

	const ironID = 1
	m := &Model{
		Case:          c,
		CrossSections: c.Library.CrossSections,
		Material: Material{
			ID:          ironID,
			Name:        "iron",
			DensityGCm3: density,
			Nuclides:    append([]Constituent(nil), c.Composition.Constituents...),
		},
		Geometry: ConcentricShells(SphereRadii, ironID),
		Source:   Source{EnergyEV: c.Energy.EV},
		Settings: Settings{
			RunMode:         "fixed source",
			Particles:       particles,
			Batches:         batches,
			PhotonTransport: true,
		},
	}
	if err := m.Geometry.Validate(); err != nil {
		return nil, err
	}
	if err := m.buildTallies(opts.NeutronGroups.Edges, opts.PhotonGroups.Edges, opts.Responses); err != nil {
		return nil, fmt.Errorf("case %s: %w", c.Key(), err)
	}
	return m, nil
}

// Tally returns the tally with the given name.
func (m *Model) Tally(name string) (TallySpec, bool) {
	for _, t := range m.Tallies {
		if t.Name == name {
			return t, true
		}
	}
	return TallySpec{}, false
}
