// Package results turns a statepoint into the typed per-case arrays behind
// the CSV tables and plots. Load validates every tally up front so a broken
// statepoint never yields a partially filled table.
package results

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/ironsphere/internal/groups"
	"github.com/banshee-data/ironsphere/internal/model"
	"github.com/banshee-data/ironsphere/internal/statepoint"
)

// ErrShape is returned when a tally's filters do not have the layout the
// run constructed.
var ErrShape = errors.New("unexpected tally layout")

// edgeTolerance is the relative tolerance when comparing tally energy
// edges with the loaded group structure.
const edgeTolerance = 1e-9

// Results holds one case. Region and surface matrices have one row per
// shell (inner first) and one column per energy group.
type Results struct {
	Neutron groups.Structure
	Photon  groups.Structure

	NeutronFlux    *mat.Dense
	PhotonFlux     *mat.Dense
	SpectralIndex  map[string]*mat.Dense
	NeutronCurrent *mat.Dense
	PhotonCurrent  *mat.Dense
	// Heating has one region matrix per entry of model.HeatingParticles.
	Heating []*mat.Dense
}

// Load validates and extracts every standard tally. All problems found are
// reported together.
func Load(sp *statepoint.File, neutron, photon groups.Structure) (*Results, error) {
	if err := neutron.Validate(); err != nil {
		return nil, fmt.Errorf("neutron groups: %w", err)
	}
	if err := photon.Validate(); err != nil {
		return nil, fmt.Errorf("photon groups: %w", err)
	}

	r := &Results{
		Neutron:       neutron,
		Photon:        photon,
		SpectralIndex: make(map[string]*mat.Dense, len(model.SpectralIndexNuclides)),
	}
	var errs []error
	for _, layout := range model.Layouts() {
		if err := r.extract(sp, layout); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Results) structure(p model.Particle) groups.Structure {
	if p == model.Photon {
		return r.Photon
	}
	return r.Neutron
}

func (r *Results) extract(sp *statepoint.File, layout model.Layout) error {
	tally, err := sp.Tally(layout.Name)
	if err != nil {
		return err
	}
	if err := checkFilters(tally, layout, r.structure(layout.Particle)); err != nil {
		return err
	}

	arr, err := tally.Reshaped()
	if err != nil {
		return err
	}
	keep := []string{string(model.FilterCell), string(model.FilterSurface), string(model.FilterEnergy)}
	if layout.Name == model.TallyHeating {
		keep = append(keep, string(model.FilterParticle))
	}
	arr = arr.Squeeze(keep...)

	nRegions := len(model.SphereRadii)
	nGroups := r.structure(layout.Particle).NumGroups()
	switch layout.Name {
	case model.TallyHeating:
		nParticles := len(model.HeatingParticles)
		if !slices.Equal(arr.Shape, []int{nParticles, nRegions, nGroups}) {
			return fmt.Errorf("%w: %q squeezes to %v", ErrShape, layout.Name, arr.Shape)
		}
		per := nRegions * nGroups
		for p := 0; p < nParticles; p++ {
			data := append([]float64(nil), arr.Data[p*per:(p+1)*per]...)
			r.Heating = append(r.Heating, mat.NewDense(nRegions, nGroups, data))
		}
		return nil
	}

	if !slices.Equal(arr.Shape, []int{nRegions, nGroups}) {
		return fmt.Errorf("%w: %q squeezes to %v, want [%d %d]", ErrShape, layout.Name, arr.Shape, nRegions, nGroups)
	}
	m := mat.NewDense(nRegions, nGroups, append([]float64(nil), arr.Data...))
	switch layout.Name {
	case model.TallyNeutronFlux:
		r.NeutronFlux = m
	case model.TallyPhotonFlux:
		r.PhotonFlux = m
	case model.TallyNeutronCurrent:
		r.NeutronCurrent = m
	case model.TallyPhotonCurrent:
		r.PhotonCurrent = m
	default:
		for _, nuc := range model.SpectralIndexNuclides {
			if layout.Name == model.SpectralIndexName(nuc) {
				r.SpectralIndex[nuc] = m
			}
		}
	}
	return nil
}

// checkFilters mirrors the construction order: filter types, bin counts and
// energy edges must all match what the run wrote.
func checkFilters(t *statepoint.Tally, layout model.Layout, g groups.Structure) error {
	if len(t.Filters) != len(layout.Filters) {
		return fmt.Errorf("%w: %q has %d filters, want %d", ErrShape, t.Name, len(t.Filters), len(layout.Filters))
	}
	for i, want := range layout.Filters {
		f := t.Filters[i]
		if f.Type != string(want) {
			return fmt.Errorf("%w: %q filter %d is %q, want %q", ErrShape, t.Name, i, f.Type, want)
		}
		wantBins := 0
		switch want {
		case model.FilterParticle:
			wantBins = 1
			if layout.Name == model.TallyHeating {
				wantBins = len(model.HeatingParticles)
			}
		case model.FilterCell, model.FilterSurface:
			wantBins = len(model.SphereRadii)
		case model.FilterEnergyFunction:
			wantBins = 1
		case model.FilterEnergy:
			wantBins = g.NumGroups()
			if len(f.Edges) > 0 {
				edges, err := groups.New(t.Name, f.Edges)
				if err != nil {
					return fmt.Errorf("%q energy filter: %w", t.Name, err)
				}
				if err := g.Matches(edges.Edges, edgeTolerance); err != nil {
					return fmt.Errorf("%q energy filter: %w", t.Name, err)
				}
			}
		}
		if f.Bins() != wantBins {
			return fmt.Errorf("%w: %q %s filter has %d bins, want %d", ErrShape, t.Name, f.Type, f.Bins(), wantBins)
		}
	}
	return nil
}

// GroupsFromStatepoint recovers the neutron and photon group structures from
// the energy filters of the two flux tallies, for callers that have no group
// files at hand.
func GroupsFromStatepoint(sp *statepoint.File) (neutron, photon groups.Structure, err error) {
	edges := func(name string) (groups.Structure, error) {
		t, err := sp.Tally(name)
		if err != nil {
			return groups.Structure{}, err
		}
		f, ok := t.Filter(string(model.FilterEnergy))
		if !ok || len(f.Edges) == 0 {
			return groups.Structure{}, fmt.Errorf("%w: %q has no energy edges", ErrShape, name)
		}
		return groups.New(name, f.Edges)
	}
	if neutron, err = edges(model.TallyNeutronFlux); err != nil {
		return neutron, photon, err
	}
	if photon, err = edges(model.TallyPhotonFlux); err != nil {
		return neutron, photon, err
	}
	return neutron, photon, nil
}

// HeatingSplit separates heating per region into the neutron contribution
// (particle row 0), the photon contribution (the sum of the remaining
// particle rows) and their total.
func (r *Results) HeatingSplit() (neutron, photon, total *mat.Dense) {
	rows, cols := r.Heating[0].Dims()
	neutron = mat.DenseCopyOf(r.Heating[0])
	photon = mat.NewDense(rows, cols, nil)
	for _, h := range r.Heating[1:] {
		photon.Add(photon, h)
	}
	total = mat.NewDense(rows, cols, nil)
	total.Add(neutron, photon)
	return neutron, photon, total
}

// RegionSum adds the rows of m, giving the whole-sphere value per group.
func RegionSum(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, cols)
	for i := 0; i < rows; i++ {
		floats.Add(out, m.RawRowView(i))
	}
	return out
}
