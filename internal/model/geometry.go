package model

import (
	"fmt"
	"strconv"
)

// Sphere is a sphere centred on the origin.
type Sphere struct {
	ID     int
	Radius float64 // cm
	Vacuum bool
}

// Cell is the shell between two spheres. Inner is 0 for the central ball.
type Cell struct {
	ID       int
	Inner    int // surface id, 0 for none
	Outer    int // surface id
	Material int
}

// Geometry is a set of concentric shells, outermost surface a vacuum boundary.
type Geometry struct {
	Surfaces []Sphere
	Cells    []Cell
}

// SphereRadii are the shell boundaries of the benchmark in cm.
var SphereRadii = []float64{10, 20, 30}

// ConcentricShells builds one cell per shell, all filled with material.
func ConcentricShells(radii []float64, material int) Geometry {
	var g Geometry
	for i, r := range radii {
		g.Surfaces = append(g.Surfaces, Sphere{ID: i + 1, Radius: r, Vacuum: i == len(radii)-1})
		g.Cells = append(g.Cells, Cell{ID: i + 1, Inner: i, Outer: i + 1, Material: material})
	}
	return g
}

// Validate checks the shells are non-overlapping and exhaustive: radii
// strictly increase, each cell spans consecutive surfaces starting from
// the origin, and only the outermost surface is a vacuum boundary.
func (g Geometry) Validate() error {
	if len(g.Surfaces) == 0 {
		return fmt.Errorf("geometry has no surfaces")
	}
	if len(g.Cells) != len(g.Surfaces) {
		return fmt.Errorf("geometry has %d cells for %d surfaces", len(g.Cells), len(g.Surfaces))
	}
	prev := 0.0
	for i, s := range g.Surfaces {
		if s.Radius <= prev {
			return fmt.Errorf("surface %d radius %g not greater than %g", s.ID, s.Radius, prev)
		}
		prev = s.Radius
		last := i == len(g.Surfaces)-1
		if s.Vacuum != last {
			if last {
				return fmt.Errorf("outermost surface %d must be a vacuum boundary", s.ID)
			}
			return fmt.Errorf("inner surface %d must not be a vacuum boundary", s.ID)
		}
	}
	for i, c := range g.Cells {
		wantInner := 0
		if i > 0 {
			wantInner = g.Surfaces[i-1].ID
		}
		if c.Inner != wantInner || c.Outer != g.Surfaces[i].ID {
			return fmt.Errorf("cell %d does not span shell %d", c.ID, i)
		}
	}
	return nil
}

// Region returns the half-space expression for a cell, e.g. "1 -2".
func (c Cell) Region() string {
	if c.Inner == 0 {
		return "-" + strconv.Itoa(c.Outer)
	}
	return strconv.Itoa(c.Inner) + " -" + strconv.Itoa(c.Outer)
}

// RegionLabels names each cell by its radial span ("0-10cm").
func (g Geometry) RegionLabels() []string {
	labels := make([]string, len(g.Surfaces))
	inner := 0.0
	for i, s := range g.Surfaces {
		labels[i] = fmt.Sprintf("%s-%scm", formatCm(inner), formatCm(s.Radius))
		inner = s.Radius
	}
	return labels
}

// SurfaceLabels names each surface by its radius ("10cm").
func (g Geometry) SurfaceLabels() []string {
	labels := make([]string, len(g.Surfaces))
	for i, s := range g.Surfaces {
		labels[i] = formatCm(s.Radius) + "cm"
	}
	return labels
}

func (g Geometry) cellIDs() []int {
	ids := make([]int, len(g.Cells))
	for i, c := range g.Cells {
		ids[i] = c.ID
	}
	return ids
}

func (g Geometry) surfaceIDs() []int {
	ids := make([]int, len(g.Surfaces))
	for i, s := range g.Surfaces {
		ids[i] = s.ID
	}
	return ids
}

func formatCm(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
