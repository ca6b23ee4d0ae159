// Package groups loads the fixed neutron and photon energy-group structures.
//
// Group files are plain text holding whitespace-separated bin edges in MeV.
// Edges are converted to eV on load, which is the unit the solver's energy
// filters and the CSV columns use.
package groups

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/ironsphere/internal/fsutil"
)

// MeV is the number of eV in one MeV.
const MeV = 1e6

var (
	// ErrNotMonotonic is returned when bin edges are not strictly increasing.
	ErrNotMonotonic = errors.New("energy group edges are not strictly increasing")
	// ErrTooFewEdges is returned when a structure has fewer than two edges.
	ErrTooFewEdges = errors.New("energy group structure needs at least two edges")
)

// Structure is an ordered set of energy bin edges in eV.
type Structure struct {
	Name  string
	Edges []float64
}

// New validates edges (already in eV) and wraps them in a Structure.
func New(name string, edges []float64) (Structure, error) {
	s := Structure{Name: name, Edges: append([]float64(nil), edges...)}
	if err := s.Validate(); err != nil {
		return Structure{}, err
	}
	return s, nil
}

// Parse reads whitespace-separated MeV values and returns edges in eV.
func Parse(name, text string) (Structure, error) {
	fields := strings.Fields(text)
	edges := make([]float64, 0, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Structure{}, fmt.Errorf("%s: edge %d %q: %w", name, i, f, err)
		}
		edges = append(edges, v*MeV)
	}
	s := Structure{Name: name, Edges: edges}
	if err := s.Validate(); err != nil {
		return Structure{}, fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

// Load reads and parses a group structure file.
func Load(fsys fsutil.FileSystem, path string) (Structure, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return Structure{}, fmt.Errorf("read group structure: %w", err)
	}
	return Parse(path, string(data))
}

// Validate checks the edge count and strict monotonicity.
func (s Structure) Validate() error {
	if len(s.Edges) < 2 {
		return ErrTooFewEdges
	}
	for i := 1; i < len(s.Edges); i++ {
		if !(s.Edges[i] > s.Edges[i-1]) {
			return fmt.Errorf("%w: edge %d (%g) <= edge %d (%g)", ErrNotMonotonic, i, s.Edges[i], i-1, s.Edges[i-1])
		}
	}
	return nil
}

// NumGroups returns the number of bins.
func (s Structure) NumGroups() int {
	if len(s.Edges) == 0 {
		return 0
	}
	return len(s.Edges) - 1
}

// Lower returns the lower edge of every bin.
func (s Structure) Lower() []float64 {
	if s.NumGroups() == 0 {
		return nil
	}
	return append([]float64(nil), s.Edges[:len(s.Edges)-1]...)
}

// Upper returns the upper edge of every bin.
func (s Structure) Upper() []float64 {
	if s.NumGroups() == 0 {
		return nil
	}
	return append([]float64(nil), s.Edges[1:]...)
}

// Matches reports whether other has the same edges within a relative tolerance.
func (s Structure) Matches(other []float64, relTol float64) error {
	if len(other) != len(s.Edges) {
		return fmt.Errorf("%s: %d edges, tally has %d", s.Name, len(s.Edges), len(other))
	}
	for i, e := range s.Edges {
		d := e - other[i]
		if d < 0 {
			d = -d
		}
		scale := e
		if scale < 0 {
			scale = -scale
		}
		if d > relTol*scale {
			return fmt.Errorf("%s: edge %d is %g, tally has %g", s.Name, i, e, other[i])
		}
	}
	return nil
}
