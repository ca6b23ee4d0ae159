// Package statepoint reads tally results from a solver statepoint.
//
// Two encodings are understood. Real solver output is HDF5 and needs the
// binary built with the "hdf5" tag (cgo, libhdf5). The JSON encoding carries
// the same content and is what stub solvers and fixtures write.
package statepoint

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
)

var (
	// ErrTallyNotFound is returned when no tally has the requested name.
	ErrTallyNotFound = errors.New("tally not found")
	// ErrHDF5Unsupported is returned for HDF5 statepoints when the binary
	// was built without the hdf5 tag.
	ErrHDF5Unsupported = errors.New("HDF5 statepoint support not compiled in (build with -tags hdf5)")
	// ErrBadShape is returned when a results array does not match its filters.
	ErrBadShape = errors.New("tally results do not match filter bins")
)

// Format identifies the JSON encoding.
const Format = "ironsphere-statepoint"

var hdf5Magic = []byte("\x89HDF\r\n\x1a\n")

// Filter is one tally filter as stored in the statepoint.
type Filter struct {
	Type      string    `json:"type"`
	NBins     int       `json:"n_bins"`
	Particles []string  `json:"particles,omitempty"`
	IDs       []int     `json:"ids,omitempty"`
	Edges     []float64 `json:"edges,omitempty"`
}

// Bins is the number of bins this filter contributes.
func (f Filter) Bins() int {
	if f.NBins > 0 {
		return f.NBins
	}
	switch {
	case len(f.Particles) > 0:
		return len(f.Particles)
	case len(f.IDs) > 0:
		return len(f.IDs)
	case len(f.Edges) > 1:
		return len(f.Edges) - 1
	}
	return 1
}

// Tally holds the accumulated sums for one tally. Sum and SumSq are
// row-major over filter bins (first filter slowest), then nuclides, then
// scores.
type Tally struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Filters       []Filter  `json:"filters"`
	Nuclides      []string  `json:"nuclides"`
	Scores        []string  `json:"scores"`
	NRealizations int       `json:"n_realizations"`
	Sum           []float64 `json:"sum"`
	SumSq         []float64 `json:"sum_sq"`
}

// File is an opened statepoint.
type File struct {
	Path          string  `json:"-"`
	Format        string  `json:"format"`
	Version       int     `json:"version"`
	NRealizations int     `json:"n_realizations"`
	Tallies       []Tally `json:"tallies"`
}

// Open reads a statepoint, choosing the decoder from the file signature.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open statepoint: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, _ := br.Peek(len(hdf5Magic))
	if bytes.Equal(head, hdf5Magic) {
		sp, err := openHDF5(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		sp.Path = path
		return sp, nil
	}

	sp, err := Decode(br)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sp.Path = path
	return sp, nil
}

// Decode reads the JSON encoding.
func Decode(r io.Reader) (*File, error) {
	var sp File
	dec := json.NewDecoder(r)
	if err := dec.Decode(&sp); err != nil {
		return nil, fmt.Errorf("decode statepoint: %w", err)
	}
	if sp.Format != Format {
		return nil, fmt.Errorf("not a statepoint (format %q)", sp.Format)
	}
	for i := range sp.Tallies {
		if sp.Tallies[i].NRealizations == 0 {
			sp.Tallies[i].NRealizations = sp.NRealizations
		}
	}
	return &sp, nil
}

// Encode writes the JSON encoding with sorted, indented output so equal
// statepoints encode to equal bytes.
func (f *File) Encode(w io.Writer) error {
	out := *f
	out.Format = Format
	if out.Version == 0 {
		out.Version = 1
	}
	sorted := append([]Tally(nil), f.Tallies...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	out.Tallies = sorted

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&out)
}

// Tally returns the tally with the given name.
func (f *File) Tally(name string) (*Tally, error) {
	for i := range f.Tallies {
		if f.Tallies[i].Name == name {
			return &f.Tallies[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrTallyNotFound, name)
}

// Names lists the tally names in file order.
func (f *File) Names() []string {
	names := make([]string, len(f.Tallies))
	for i, t := range f.Tallies {
		names[i] = t.Name
	}
	return names
}

// Shape is the logical shape: one axis per filter, then nuclides, then scores.
func (t *Tally) Shape() []int {
	shape := make([]int, 0, len(t.Filters)+2)
	for _, f := range t.Filters {
		shape = append(shape, f.Bins())
	}
	return append(shape, max(len(t.Nuclides), 1), max(len(t.Scores), 1))
}

// Axes names each axis of Shape: the filter type, then "nuclide" and "score".
func (t *Tally) Axes() []string {
	axes := make([]string, 0, len(t.Filters)+2)
	for _, f := range t.Filters {
		axes = append(axes, f.Type)
	}
	return append(axes, "nuclide", "score")
}

// Filter returns the first filter of the given type.
func (t *Tally) Filter(kind string) (Filter, bool) {
	for _, f := range t.Filters {
		if f.Type == kind {
			return f, true
		}
	}
	return Filter{}, false
}

func (t *Tally) check() error {
	n := 1
	for _, s := range t.Shape() {
		n *= s
	}
	if len(t.Sum) != n {
		return fmt.Errorf("%w: tally %q has %d values, filters imply %d", ErrBadShape, t.Name, len(t.Sum), n)
	}
	if len(t.SumSq) != 0 && len(t.SumSq) != n {
		return fmt.Errorf("%w: tally %q sum_sq has %d values, want %d", ErrBadShape, t.Name, len(t.SumSq), n)
	}
	if t.NRealizations <= 0 {
		return fmt.Errorf("tally %q has no realizations", t.Name)
	}
	return nil
}

// Mean is the per-bin sample mean over realizations.
func (t *Tally) Mean() ([]float64, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	n := float64(t.NRealizations)
	out := make([]float64, len(t.Sum))
	for i, s := range t.Sum {
		out[i] = s / n
	}
	return out, nil
}

// StdDev is the standard deviation of the mean. It is zero with a single
// realization.
func (t *Tally) StdDev() ([]float64, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	out := make([]float64, len(t.Sum))
	if t.NRealizations < 2 || len(t.SumSq) == 0 {
		return out, nil
	}
	n := float64(t.NRealizations)
	for i := range t.Sum {
		mean := t.Sum[i] / n
		v := (t.SumSq[i]/n - mean*mean) / (n - 1)
		if v > 0 {
			out[i] = math.Sqrt(v)
		}
	}
	return out, nil
}

// Reshaped returns the mean as an NDArray labelled by Axes.
func (t *Tally) Reshaped() (NDArray, error) {
	mean, err := t.Mean()
	if err != nil {
		return NDArray{}, err
	}
	return NDArray{Shape: t.Shape(), Axes: t.Axes(), Data: mean}, nil
}

func (t *Tally) String() string {
	return fmt.Sprintf("tally %d %q [%s]", t.ID, t.Name, strings.Join(t.Axes(), ", "))
}
