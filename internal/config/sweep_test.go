package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestEmptySweepConfig_Defaults(t *testing.T) {
	cfg := EmptySweepConfig()

	assert.Equal(t, 10_000_000, cfg.GetParticles())
	assert.Equal(t, 100, cfg.GetBatches())
	assert.Equal(t, 7.8, cfg.GetDensity())
	assert.Equal(t, []string{"mpiexec"}, cfg.GetMPIArgs())
	assert.Equal(t, "openmc", cfg.GetOpenMCExec())
	assert.Equal(t, "neutron-366gpr.txt", cfg.GetNeutronGroups())
	assert.Equal(t, "gamma-121gpr.txt", cfg.GetPhotonGroups())
	assert.Equal(t, "cp1250", cfg.GetDosimetryEncoding())
	assert.False(t, cfg.GetAllowPartialDosimetry())
	assert.Equal(t, "", cfg.GetLedgerPath())

	labels := make([]string, 0)
	for _, l := range cfg.GetLibraries() {
		labels = append(labels, l.Label)
	}
	assert.Equal(t, []string{"endfb80", "jeff33", "tendl2021", "jendl5"}, labels)
}

func TestDefaultsFileMatchesBuiltins(t *testing.T) {
	cfg, err := LoadSweepConfig(filepath.Join("..", "..", DefaultConfigPath))
	require.NoError(t, err)

	empty := EmptySweepConfig()
	if diff := cmp.Diff(empty.GetLibraries(), cfg.GetLibraries()); diff != "" {
		t.Errorf("libraries mismatch (-builtin +file):\n%s", diff)
	}
	assert.Equal(t, empty.GetCompositions(), cfg.GetCompositions())
	assert.Equal(t, empty.GetSourceEnergies(), cfg.GetSourceEnergies())
	assert.Equal(t, empty.GetParticles(), cfg.GetParticles())
	assert.Equal(t, empty.GetBatches(), cfg.GetBatches())

	cases, err := cfg.Cases()
	require.NoError(t, err)
	assert.Len(t, cases, 16)
	assert.Equal(t, "fe56_2MeV_endfb80", cases[0].Key())
	assert.Equal(t, "fe_14MeV_jendl5", cases[len(cases)-1].Key())
}

func TestLoadSweepConfig_Partial(t *testing.T) {
	path := writeConfig(t, "sweep.json", `{
  "libraries": [{"label": "local", "cross_sections": "/data/cross_sections.xml"}],
  "compositions": ["fe"],
  "source_energies": ["14MeV"],
  "batches": 5,
  "mpi_args": [],
  "allow_partial_dosimetry": true
}`)

	cfg, err := LoadSweepConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.GetBatches())
	assert.Equal(t, 10_000_000, cfg.GetParticles())
	assert.Empty(t, cfg.GetMPIArgs(), "an explicit empty launcher runs the solver directly")
	assert.True(t, cfg.GetAllowPartialDosimetry())

	cases, err := cfg.Cases()
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "fe_14MeV_local", cases[0].Key())
	assert.Equal(t, "/data/cross_sections.xml", cases[0].Library.CrossSections)
}

func TestLoadSweepConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"extension", "sweep.yaml", `{}`, ".json extension"},
		{"bad json", "sweep.json", `{"batches": }`, "parse config JSON"},
		{"zero batches", "sweep.json", `{"batches": 0}`, "batches must be positive"},
		{"negative particles", "sweep.json", `{"particles": -1}`, "particles must be positive"},
		{"density", "sweep.json", `{"density_g_cm3": 0}`, "density_g_cm3"},
		{"unknown composition", "sweep.json", `{"compositions": ["cu"]}`, "unknown composition"},
		{"bad energy", "sweep.json", `{"source_energies": ["14"]}`, "suffix"},
		{"bad library label", "sweep.json", `{"libraries": [{"label": "../x", "cross_sections": "a"}]}`, "libraries[0]"},
		{"duplicate library", "sweep.json", `{"libraries": [{"label": "a", "cross_sections": "x"}, {"label": "a", "cross_sections": "y"}]}`, "duplicate"},
		{"missing cross sections", "sweep.json", `{"libraries": [{"label": "a"}]}`, "cross_sections is required"},
		{"encoding", "sweep.json", `{"dosimetry_encoding": "ebcdic"}`, "unsupported ENDF encoding"},
		{"empty exec", "sweep.json", `{"openmc_exec": ""}`, "openmc_exec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadSweepConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSweepConfig_TooLarge(t *testing.T) {
	body := `{"output_dir": "` + strings.Repeat("x", 1024*1024) + `"}`
	path := writeConfig(t, "big.json", body)
	_, err := LoadSweepConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoadSweepConfig_Missing(t *testing.T) {
	_, err := LoadSweepConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat")
}
