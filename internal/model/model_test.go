package model

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ironsphere/internal/endf"
	"github.com/banshee-data/ironsphere/internal/fsutil"
	"github.com/banshee-data/ironsphere/internal/groups"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	n, err := groups.New("neutron", []float64{1e-5, 1e3, 1e6, 2e7})
	require.NoError(t, err)
	p, err := groups.New("photon", []float64{1e3, 1e6, 2e7})
	require.NoError(t, err)

	var responses []SpectralResponse
	for i, nuc := range SpectralIndexNuclides {
		responses = append(responses, SpectralResponse{
			Nuclide: nuc,
			Sigma:   endf.Tabulated1D{X: []float64{1e6, 2e7}, Y: []float64{0, 0.1 * float64(i+1)}, Interpolation: []int{endf.LinLin}, Breakpoints: []int{2}},
		})
	}
	return Options{NeutronGroups: n, PhotonGroups: p, Responses: responses}
}

func testCase(t *testing.T, comp, energy string) Case {
	t.Helper()
	cases, err := Cases([]Library{{Label: "endfb80", CrossSections: "/data/cross_sections.xml"}}, []string{comp}, []string{energy})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	return cases[0]
}

func TestParseSourceEnergy(t *testing.T) {
	tests := []struct {
		label string
		want  float64
		err   bool
	}{
		{"14MeV", 14e6, false},
		{"2MeV", 2e6, false},
		{"2.5MeV", 2.5e6, false},
		{"500keV", 5e5, false},
		{"100eV", 100, false},
		{"14", 0, true},
		{"-2MeV", 0, true},
		{"fastMeV", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseSourceEnergy(tt.label)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.EV)
			assert.Equal(t, tt.label, got.Label)
		})
	}
}

func TestCases_OrderAndKeys(t *testing.T) {
	libs := []Library{{Label: "endfb80"}, {Label: "jeff33"}}
	cases, err := Cases(libs, []string{"fe56", "fe"}, []string{"2MeV", "14MeV"})
	require.NoError(t, err)

	var keys []string
	for _, c := range cases {
		keys = append(keys, c.Key())
	}
	want := []string{
		"fe56_2MeV_endfb80", "fe56_14MeV_endfb80", "fe_2MeV_endfb80", "fe_14MeV_endfb80",
		"fe56_2MeV_jeff33", "fe56_14MeV_jeff33", "fe_2MeV_jeff33", "fe_14MeV_jeff33",
	}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("case keys mismatch (-want +got):\n%s", diff)
	}
}

func TestCases_DoNotShareState(t *testing.T) {
	cases, err := Cases([]Library{{Label: "a"}, {Label: "b"}}, []string{"fe"}, []string{"2MeV"})
	require.NoError(t, err)
	require.Len(t, cases, 2)

	cases[0].Composition.Constituents[0].Fraction = 99
	assert.Equal(t, 0.05845, cases[1].Composition.Constituents[0].Fraction)

	fresh, err := LookupComposition("fe")
	require.NoError(t, err)
	assert.Equal(t, 0.05845, fresh.Constituents[0].Fraction)
}

func TestCases_Errors(t *testing.T) {
	_, err := Cases([]Library{{Label: "lib"}}, []string{"copper"}, []string{"2MeV"})
	assert.Error(t, err)

	_, err = Cases([]Library{{Label: "bad_label"}}, []string{"fe"}, []string{"2MeV"})
	assert.Error(t, err)

	_, err = Cases([]Library{{Label: "lib"}}, []string{"fe", "fe"}, []string{"2MeV"})
	assert.ErrorContains(t, err, "duplicate")
}

func TestGeometry(t *testing.T) {
	g := ConcentricShells(SphereRadii, 1)
	require.NoError(t, g.Validate())

	assert.Equal(t, []string{"0-10cm", "10-20cm", "20-30cm"}, g.RegionLabels())
	assert.Equal(t, []string{"10cm", "20cm", "30cm"}, g.SurfaceLabels())
	assert.Equal(t, "-1", g.Cells[0].Region())
	assert.Equal(t, "1 -2", g.Cells[1].Region())
	assert.Equal(t, "2 -3", g.Cells[2].Region())
	assert.False(t, g.Surfaces[1].Vacuum)
	assert.True(t, g.Surfaces[2].Vacuum)
}

func TestGeometryValidate_Errors(t *testing.T) {
	overlapping := ConcentricShells([]float64{10, 10, 30}, 1)
	assert.Error(t, overlapping.Validate())

	leaky := ConcentricShells(SphereRadii, 1)
	leaky.Surfaces[2].Vacuum = false
	assert.ErrorContains(t, leaky.Validate(), "vacuum")

	gap := ConcentricShells(SphereRadii, 1)
	gap.Cells[2].Inner = 1
	assert.Error(t, gap.Validate())

	assert.Error(t, Geometry{}.Validate())
}

func TestBuild_Tallies(t *testing.T) {
	m, err := Build(testCase(t, "fe56", "14MeV"), testOptions(t))
	require.NoError(t, err)

	var names []string
	for _, tally := range m.Tallies {
		names = append(names, tally.Name)
	}
	want := []string{
		"neutron flux", "photon flux",
		"Spectral index Rh103", "Spectral index In115", "Spectral index Al27", "Spectral index S32",
		"heating", "neutron current", "photon current",
	}
	assert.Equal(t, want, names)

	heating, ok := m.Tally(TallyHeating)
	require.True(t, ok)
	assert.Equal(t, HeatingParticles, heating.Filters[0].Particles)
	assert.Equal(t, 4, heating.Filters[0].Bins())
	assert.Equal(t, 3, heating.Filters[1].Bins())
	assert.Equal(t, 3, heating.Filters[2].Bins())

	pc, _ := m.Tally(TallyPhotonCurrent)
	assert.Equal(t, FilterSurface, pc.Filters[1].Kind)
	assert.Equal(t, 2, pc.Filters[2].Bins())

	si, _ := m.Tally("Spectral index Al27")
	assert.Equal(t, "linear-linear", si.Filters[1].Function.Interpolation)

	for i, tally := range m.Tallies {
		layout, ok := LayoutByName(tally.Name)
		require.True(t, ok)
		var kinds []FilterKind
		for _, f := range tally.Filters {
			kinds = append(kinds, f.Kind)
		}
		assert.Equal(t, layout.Filters, kinds, tally.Name)
		assert.Equal(t, i+1, tally.ID)
	}

	assert.Equal(t, 14e6, m.Source.EnergyEV)
	assert.Equal(t, DefaultParticles, m.Settings.Particles)
	assert.Equal(t, DefaultBatches, m.Settings.Batches)
	assert.True(t, m.Settings.PhotonTransport)
	assert.Equal(t, "/data/cross_sections.xml", m.CrossSections)
}

func TestBuild_MissingResponseOmitsTally(t *testing.T) {
	opts := testOptions(t)
	opts.Responses = opts.Responses[:2]
	m, err := Build(testCase(t, "fe", "2MeV"), opts)
	require.NoError(t, err)
	assert.Len(t, m.Tallies, 7)
	_, ok := m.Tally("Spectral index S32")
	assert.False(t, ok)
}

func TestBuild_MixedInterpolationRejected(t *testing.T) {
	opts := testOptions(t)
	opts.Responses[0].Sigma = endf.Tabulated1D{
		X:             []float64{1, 2, 3},
		Y:             []float64{1, 2, 3},
		Breakpoints:   []int{2, 3},
		Interpolation: []int{endf.LinLin, endf.LogLog},
	}
	_, err := Build(testCase(t, "fe", "2MeV"), opts)
	assert.Error(t, err)
}

func TestWriteXML(t *testing.T) {
	m, err := Build(testCase(t, "fe", "2MeV"), testOptions(t))
	require.NoError(t, err)

	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, m.WriteXML(fsys, "/work/fe_2MeV_endfb80"))
	assert.Equal(t, []string{
		"/work/fe_2MeV_endfb80/geometry.xml",
		"/work/fe_2MeV_endfb80/materials.xml",
		"/work/fe_2MeV_endfb80/settings.xml",
		"/work/fe_2MeV_endfb80/tallies.xml",
	}, fsys.Files("/work/fe_2MeV_endfb80"))

	materials, err := fsys.ReadFile("/work/fe_2MeV_endfb80/materials.xml")
	require.NoError(t, err)
	assert.Contains(t, string(materials), `<cross_sections>/data/cross_sections.xml</cross_sections>`)
	assert.Contains(t, string(materials), `<nuclide name="Fe57" ao="0.02119"></nuclide>`)
	assert.Contains(t, string(materials), `<density units="g/cm3" value="7.8"></density>`)

	geometry, _ := fsys.ReadFile("/work/fe_2MeV_endfb80/geometry.xml")
	assert.Contains(t, string(geometry), `<surface id="3" type="sphere" coeffs="0 0 0 30" boundary="vacuum"></surface>`)
	assert.Contains(t, string(geometry), `<cell id="2" material="1" region="1 -2" universe="0"></cell>`)

	settings, _ := fsys.ReadFile("/work/fe_2MeV_endfb80/settings.xml")
	assert.Contains(t, string(settings), `<parameters>2e+06 1</parameters>`)
	assert.Contains(t, string(settings), `<run_mode>fixed source</run_mode>`)

	var tallies xmlTallies
	data, _ := fsys.ReadFile("/work/fe_2MeV_endfb80/tallies.xml")
	require.NoError(t, xml.Unmarshal(data, &tallies))
	require.Len(t, tallies.Tallies, 9)
	// neutron/photon particle, cell, neutron/photon energy, surface, heating
	// particles and four energy functions.
	assert.Len(t, tallies.Filters, 11)
	assert.Equal(t, "1 2 3", tallies.Tallies[0].Filters)
	assert.Equal(t, "1 6 2 3", tallies.Tallies[2].Filters)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))
}

func TestWriteXML_Deterministic(t *testing.T) {
	write := func() map[string][]byte {
		m, err := Build(testCase(t, "fe", "14MeV"), testOptions(t))
		require.NoError(t, err)
		fsys := fsutil.NewMemoryFileSystem()
		require.NoError(t, m.WriteXML(fsys, "/w"))
		out := map[string][]byte{}
		for _, f := range fsys.Files("/w") {
			out[f], _ = fsys.ReadFile(f)
		}
		return out
	}
	if diff := cmp.Diff(write(), write()); diff != "" {
		t.Errorf("XML output differs between builds:\n%s", diff)
	}
}
