package statepoint

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heatingTally is a [particle(4), cell(3), energy(2)] tally whose mean at
// (p, c, g) is 100p + 10c + g.
func heatingTally() Tally {
	t := Tally{
		ID:   7,
		Name: "heating",
		Filters: []Filter{
			{Type: "particle", Particles: []string{"neutron", "photon", "electron", "positron"}},
			{Type: "cell", IDs: []int{1, 2, 3}},
			{Type: "energy", Edges: []float64{1, 10, 100}},
		},
		Nuclides:      []string{"total"},
		Scores:        []string{"heating"},
		NRealizations: 4,
	}
	for p := 0; p < 4; p++ {
		for c := 0; c < 3; c++ {
			for g := 0; g < 2; g++ {
				mean := float64(100*p + 10*c + g)
				t.Sum = append(t.Sum, 4*mean)
				t.SumSq = append(t.SumSq, 4*mean*mean)
			}
		}
	}
	return t
}

func TestTally_ShapeAndAxes(t *testing.T) {
	tally := heatingTally()
	assert.Equal(t, []int{4, 3, 2, 1, 1}, tally.Shape())
	assert.Equal(t, []string{"particle", "cell", "energy", "nuclide", "score"}, tally.Axes())

	f, ok := tally.Filter("energy")
	require.True(t, ok)
	assert.Equal(t, 2, f.Bins())
	_, ok = tally.Filter("surface")
	assert.False(t, ok)
}

func TestTally_ReshapedFollowsFilterOrder(t *testing.T) {
	tally := heatingTally()
	arr, err := tally.Reshaped()
	require.NoError(t, err)

	for p := 0; p < 4; p++ {
		for c := 0; c < 3; c++ {
			for g := 0; g < 2; g++ {
				assert.Equal(t, float64(100*p+10*c+g), arr.At(p, c, g, 0, 0))
			}
		}
	}
}

func TestSqueeze(t *testing.T) {
	arr := NDArray{
		Shape: []int{1, 3, 1, 1, 1},
		Axes:  []string{"particle", "cell", "energy", "nuclide", "score"},
		Data:  []float64{1, 2, 3},
	}

	all := arr.Squeeze()
	assert.Equal(t, []int{3}, all.Shape)
	assert.Equal(t, []string{"cell"}, all.Axes)

	kept := arr.Squeeze("cell", "energy")
	assert.Equal(t, []int{3, 1}, kept.Shape)
	rows, err := kept.Rows()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {2}, {3}}, rows)

	_, err = all.Rows()
	assert.True(t, errors.Is(err, ErrBadShape))
	assert.Equal(t, 1, kept.Axis("energy"))
	assert.Equal(t, -1, kept.Axis("particle"))
}

func TestNDArray_AtPanics(t *testing.T) {
	arr := NDArray{Shape: []int{2}, Axes: []string{"cell"}, Data: []float64{1, 2}}
	assert.Panics(t, func() { arr.At(2) })
	assert.Panics(t, func() { arr.At(0, 0) })
}

func TestTally_MeanAndStdDev(t *testing.T) {
	// Two realizations scoring 1 and 3.
	tally := Tally{
		Name:          "x",
		Nuclides:      []string{"total"},
		Scores:        []string{"flux"},
		NRealizations: 2,
		Sum:           []float64{4},
		SumSq:         []float64{10},
	}
	mean, err := tally.Mean()
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, mean)

	sd, err := tally.StdDev()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sd[0], 1e-12)

	tally.NRealizations = 1
	sd, err = tally.StdDev()
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, sd)
}

func TestTally_BadShape(t *testing.T) {
	tally := heatingTally()
	tally.Sum = tally.Sum[:5]
	_, err := tally.Mean()
	assert.True(t, errors.Is(err, ErrBadShape))

	tally = heatingTally()
	tally.NRealizations = 0
	_, err = tally.Reshaped()
	assert.Error(t, err)
}

func TestFile_Tally(t *testing.T) {
	f := &File{Tallies: []Tally{heatingTally()}}
	got, err := f.Tally("heating")
	require.NoError(t, err)
	assert.Equal(t, 7, got.ID)

	_, err = f.Tally("neutron flux")
	assert.True(t, errors.Is(err, ErrTallyNotFound))
	assert.Contains(t, err.Error(), "neutron flux")
	assert.Equal(t, []string{"heating"}, f.Names())
}

func TestEncodeDecode(t *testing.T) {
	f := &File{NRealizations: 4, Tallies: []Tally{heatingTally()}}
	var buf bytes.Buffer
	require.NoError(t, f.Encode(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, Format, got.Format)
	require.Len(t, got.Tallies, 1)
	assert.Equal(t, f.Tallies[0].Sum, got.Tallies[0].Sum)
	assert.Equal(t, 4, got.Tallies[0].NRealizations)
}

func TestDecode_RealizationsInherited(t *testing.T) {
	doc := `{"format":"ironsphere-statepoint","version":1,"n_realizations":5,
		"tallies":[{"id":1,"name":"a","nuclides":["total"],"scores":["flux"],"sum":[10]}]}`
	f, err := Decode(bytes.NewBufferString(doc))
	require.NoError(t, err)
	mean, err := f.Tallies[0].Mean()
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, mean)
}

func TestDecode_RejectsOtherJSON(t *testing.T) {
	_, err := Decode(bytes.NewBufferString(`{"hello":"world"}`))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "statepoint.100.h5")
	var buf bytes.Buffer
	require.NoError(t, (&File{NRealizations: 4, Tallies: []Tally{heatingTally()}}).Encode(&buf))
	require.NoError(t, os.WriteFile(jsonPath, buf.Bytes(), 0644))

	f, err := Open(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, jsonPath, f.Path)

	_, err = Open(filepath.Join(dir, "missing.h5"))
	assert.Error(t, err)
}

func TestOpen_HDF5SignatureWithoutSupport(t *testing.T) {
	if _, err := openHDF5(""); !errors.Is(err, ErrHDF5Unsupported) {
		t.Skip("built with hdf5 support")
	}
	path := filepath.Join(t.TempDir(), "statepoint.100.h5")
	require.NoError(t, os.WriteFile(path, append([]byte("\x89HDF\r\n\x1a\n"), make([]byte, 64)...), 0644))

	_, err := Open(path)
	assert.True(t, errors.Is(err, ErrHDF5Unsupported))
}

func TestFilterBins(t *testing.T) {
	assert.Equal(t, 5, Filter{NBins: 5, Edges: []float64{1, 2}}.Bins())
	assert.Equal(t, 2, Filter{Particles: []string{"a", "b"}}.Bins())
	assert.Equal(t, 1, Filter{Type: "energyfunction"}.Bins())
	assert.Equal(t, 3, Filter{Edges: []float64{1, 2, 3, 4}}.Bins())
	assert.Equal(t, 1, Filter{}.Bins())
}
