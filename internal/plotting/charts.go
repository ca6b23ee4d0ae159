// Package plotting renders the four diagnostic charts of one statepoint:
// flux spectra, spectral indices, the heating split and surface currents.
// The same chart descriptions feed a static PNG grid (gonum/plot) and an
// interactive HTML page (go-echarts).
package plotting

import (
	"math"

	"github.com/banshee-data/ironsphere/internal/model"
	"github.com/banshee-data/ironsphere/internal/results"
)

// Axis describes one chart axis. Min and Max are optional limits.
type Axis struct {
	Label string
	Log   bool
	Min   *float64
	Max   *float64
}

// Series is a step function: Values[i] holds over [Edges[i], Edges[i+1]).
type Series struct {
	Label  string
	Edges  []float64
	Values []float64
}

// Chart is one panel.
type Chart struct {
	Title  string
	X      Axis
	Y      Axis
	Series []Series
}

func limit(v float64) *float64 { return &v }

// Spectral indices are shown up to 15 MeV on a linear energy axis.
const spectralIndexMaxEV = 15e6

// CurrentFloor is the lower y limit of the current chart.
const CurrentFloor = 1e-6

// Charts builds the four panels. Flux, spectral index and heating are
// summed over the three shells; currents are shown per surface.
func Charts(r *results.Results) []Chart {
	nEdges := r.Neutron.Edges
	pEdges := r.Photon.Edges
	energy := Axis{Label: "Energy [eV]", Log: true}

	flux := Chart{
		Title: "Flux",
		X:     energy,
		Y:     Axis{Label: "Flux", Log: true},
		Series: []Series{
			{Label: "Neutron", Edges: nEdges, Values: results.RegionSum(r.NeutronFlux)},
			{Label: "Photon", Edges: pEdges, Values: results.RegionSum(r.PhotonFlux)},
		},
	}

	spectral := Chart{
		Title: "Spectral index",
		X:     Axis{Label: "Energy [eV]", Min: limit(0), Max: limit(spectralIndexMaxEV)},
		Y:     Axis{Label: "Spectral index", Log: true},
	}
	for _, nuc := range model.SpectralIndexNuclides {
		spectral.Series = append(spectral.Series, Series{
			Label: nuc, Edges: nEdges, Values: results.RegionSum(r.SpectralIndex[nuc]),
		})
	}

	neutron, photon, total := r.HeatingSplit()
	heating := Chart{
		Title: "Heating",
		X:     energy,
		Y:     Axis{Label: "Heating", Log: true},
		Series: []Series{
			{Label: "Neutron", Edges: nEdges, Values: results.RegionSum(neutron)},
			{Label: "Photon", Edges: nEdges, Values: results.RegionSum(photon)},
			{Label: "Total", Edges: nEdges, Values: results.RegionSum(total)},
		},
	}

	current := Chart{
		Title: "Current",
		X:     energy,
		Y:     Axis{Label: "Current", Log: true, Min: limit(CurrentFloor)},
	}
	surfaces := model.ConcentricShells(model.SphereRadii, 1).SurfaceLabels()
	for i, s := range surfaces {
		current.Series = append(current.Series, Series{
			Label: "Neutron, " + s, Edges: nEdges, Values: append([]float64(nil), r.NeutronCurrent.RawRowView(i)...),
		})
	}
	for i, s := range surfaces {
		current.Series = append(current.Series, Series{
			Label: "Photon, " + s, Edges: pEdges, Values: append([]float64(nil), r.PhotonCurrent.RawRowView(i)...),
		})
	}

	return []Chart{flux, spectral, heating, current}
}

// Steps expands a series into the corner points of its stairs: one point
// at every lower edge and a final point at the last upper edge.
func (s Series) Steps() (xs, ys []float64) {
	n := len(s.Values)
	if n == 0 || len(s.Edges) != n+1 {
		return nil, nil
	}
	xs = append([]float64(nil), s.Edges...)
	ys = make([]float64, n+1)
	copy(ys, s.Values)
	ys[n] = s.Values[n-1]
	return xs, ys
}

// floor is the lower bound used when a log axis meets non-positive values:
// the axis minimum when set, otherwise the smallest positive value shown.
func (a Axis) floor(values ...[]float64) float64 {
	if a.Min != nil && *a.Min > 0 {
		return *a.Min
	}
	lo := math.Inf(1)
	for _, vs := range values {
		for _, v := range vs {
			if v > 0 && v < lo {
				lo = v
			}
		}
	}
	if math.IsInf(lo, 1) {
		return 1
	}
	return lo
}

// clamp raises values below floor (including non-positive ones) on log axes.
func (a Axis) clamp(vs []float64, floor float64) []float64 {
	if !a.Log {
		return vs
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		if v < floor || math.IsNaN(v) {
			v = floor
		}
		out[i] = v
	}
	return out
}

// points returns the clamped stairs of every series.
func (c Chart) points() (xs, ys [][]float64) {
	var allX, allY [][]float64
	for _, s := range c.Series {
		x, y := s.Steps()
		allX = append(allX, x)
		allY = append(allY, y)
	}
	xFloor := c.X.floor(allX...)
	yFloor := c.Y.floor(allY...)
	for i := range c.Series {
		xs = append(xs, c.X.clamp(allX[i], xFloor))
		ys = append(ys, c.Y.clamp(allY[i], yFloor))
	}
	return xs, ys
}
