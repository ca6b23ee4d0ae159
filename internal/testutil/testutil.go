// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"bytes"
	"testing"

	"github.com/banshee-data/ironsphere/internal/model"
	"github.com/banshee-data/ironsphere/internal/statepoint"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Neutron and photon edges used by the synthetic statepoints: three neutron
// groups and two photon groups, in eV.
var (
	NeutronEdges = []float64{1e-5, 1e3, 1e6, 2e7}
	PhotonEdges  = []float64{1e3, 1e6, 2e7}
)

// ValueFunc gives the mean of a tally bin. idx has one entry per filter in
// the tally's construction order.
type ValueFunc func(tally string, idx []int) float64

// DefaultValue encodes the tally position and the bin index so every bin of
// every tally is distinct: tally*10000 + 1000*idx[0] + 100*idx[1] + ...
func DefaultValue(tally string, idx []int) float64 {
	base := 0
	for i, l := range model.Layouts() {
		if l.Name == tally {
			base = (i + 1) * 10000
		}
	}
	v, scale := 0, 1000
	for _, x := range idx {
		v += x * scale
		scale /= 10
	}
	return float64(base + v + 1)
}

// StatepointBuilder assembles a statepoint holding the nine standard tallies
// laid out the way a run writes them.
type StatepointBuilder struct {
	NeutronEdges   []float64
	PhotonEdges    []float64
	Realizations   int
	Value          ValueFunc
	omit           map[string]bool
	filterOverride map[string][]statepoint.Filter
}

// NewStatepoint returns a builder with the default edges and values.
func NewStatepoint() *StatepointBuilder {
	return &StatepointBuilder{
		NeutronEdges:   NeutronEdges,
		PhotonEdges:    PhotonEdges,
		Realizations:   10,
		Value:          DefaultValue,
		omit:           map[string]bool{},
		filterOverride: map[string][]statepoint.Filter{},
	}
}

// Without drops a tally from the output.
func (b *StatepointBuilder) Without(name string) *StatepointBuilder {
	b.omit[name] = true
	return b
}

// WithFilters replaces the filters written for one tally.
func (b *StatepointBuilder) WithFilters(name string, filters []statepoint.Filter) *StatepointBuilder {
	b.filterOverride[name] = filters
	return b
}

func (b *StatepointBuilder) filters(l model.Layout) []statepoint.Filter {
	edges := b.NeutronEdges
	if l.Particle == model.Photon {
		edges = b.PhotonEdges
	}
	var out []statepoint.Filter
	for _, kind := range l.Filters {
		f := statepoint.Filter{Type: string(kind)}
		switch kind {
		case model.FilterParticle:
			f.Particles = []string{string(l.Particle)}
			if l.Name == model.TallyHeating {
				f.Particles = model.HeatingParticles
			}
		case model.FilterCell, model.FilterSurface:
			f.IDs = []int{1, 2, 3}
		case model.FilterEnergy:
			f.Edges = append([]float64(nil), edges...)
		case model.FilterEnergyFunction:
			f.NBins = 1
		}
		out = append(out, f)
	}
	return out
}

// File builds the statepoint.
func (b *StatepointBuilder) File() *statepoint.File {
	sp := &statepoint.File{
		Format:        statepoint.Format,
		Version:       1,
		NRealizations: b.Realizations,
	}
	n := float64(b.Realizations)
	for i, l := range model.Layouts() {
		if b.omit[l.Name] {
			continue
		}
		filters := b.filters(l)
		if f, ok := b.filterOverride[l.Name]; ok {
			filters = f
		}
		t := statepoint.Tally{
			ID:            i + 1,
			Name:          l.Name,
			Filters:       filters,
			Nuclides:      []string{"total"},
			Scores:        []string{l.Score},
			NRealizations: b.Realizations,
		}
		shape := make([]int, len(filters))
		for j, f := range filters {
			shape[j] = f.Bins()
		}
		forEachIndex(shape, func(idx []int) {
			mean := b.Value(l.Name, idx)
			t.Sum = append(t.Sum, mean*n)
			t.SumSq = append(t.SumSq, mean*mean*n)
		})
		sp.Tallies = append(sp.Tallies, t)
	}
	return sp
}

// JSON encodes the statepoint.
func (b *StatepointBuilder) JSON(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	AssertNoError(t, b.File().Encode(&buf))
	return buf.Bytes()
}

// forEachIndex visits every index of shape in row-major order.
func forEachIndex(shape []int, fn func(idx []int)) {
	idx := make([]int, len(shape))
	for _, n := range shape {
		if n == 0 {
			return
		}
	}
	for {
		fn(append([]int(nil), idx...))
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < shape[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}
