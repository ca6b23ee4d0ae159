package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/ironsphere/internal/endf"
	"github.com/banshee-data/ironsphere/internal/model"
	"github.com/banshee-data/ironsphere/internal/security"
)

// DefaultConfigPath is the path to the canonical sweep defaults file.
const DefaultConfigPath = "config/sweep.defaults.json"

// LibraryConfig names a nuclear-data library and its cross_sections.xml.
type LibraryConfig struct {
	Label         string `json:"label"`
	CrossSections string `json:"cross_sections"`
}

// SweepConfig is the root configuration shared by sphere-run and sphere-csv.
// Both binaries must see the same case set, batch count and group files, so
// they read the same file.
type SweepConfig struct {
	// Case axes
	Libraries      []LibraryConfig `json:"libraries,omitempty"`
	Compositions   []string        `json:"compositions,omitempty"`
	SourceEnergies []string        `json:"source_energies,omitempty"`

	// Solver settings
	Particles   *int     `json:"particles,omitempty"`
	Batches     *int     `json:"batches,omitempty"`
	DensityGCm3 *float64 `json:"density_g_cm3,omitempty"`
	MPIArgs     []string `json:"mpi_args,omitempty"`
	OpenMCExec  *string  `json:"openmc_exec,omitempty"`

	// Energy group files (MeV, whitespace separated)
	NeutronGroups *string `json:"neutron_groups,omitempty"`
	PhotonGroups  *string `json:"photon_groups,omitempty"`

	// Dosimetry data
	DosimetryENDF         *string `json:"dosimetry_endf,omitempty"`
	DosimetryArchive      *string `json:"dosimetry_archive,omitempty"`
	DosimetryEncoding     *string `json:"dosimetry_encoding,omitempty"`
	AllowPartialDosimetry *bool   `json:"allow_partial_dosimetry,omitempty"`

	// Outputs
	OutputDir  *string `json:"output_dir,omitempty"`
	LedgerPath *string `json:"ledger_path,omitempty"` // empty disables the ledger
}

// EmptySweepConfig returns a SweepConfig with every field unset. The Get*
// methods then return built-in defaults.
func EmptySweepConfig() *SweepConfig {
	return &SweepConfig{}
}

// LoadSweepConfig loads a SweepConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Omitted fields fall
// back to the Get* defaults, so partial configs are safe.
func LoadSweepConfig(path string) (*SweepConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySweepConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the values that are set. It does not touch the filesystem.
func (c *SweepConfig) Validate() error {
	seen := make(map[string]bool)
	for i, lib := range c.Libraries {
		if err := security.ValidateLabel(lib.Label); err != nil {
			return fmt.Errorf("libraries[%d]: %w", i, err)
		}
		if seen[lib.Label] {
			return fmt.Errorf("libraries[%d]: duplicate label %q", i, lib.Label)
		}
		seen[lib.Label] = true
		if lib.CrossSections == "" {
			return fmt.Errorf("libraries[%d] (%s): cross_sections is required", i, lib.Label)
		}
	}

	for _, name := range c.Compositions {
		comp, err := model.LookupComposition(name)
		if err != nil {
			return err
		}
		if err := comp.Validate(); err != nil {
			return err
		}
	}

	for _, label := range c.SourceEnergies {
		if _, err := model.ParseSourceEnergy(label); err != nil {
			return err
		}
	}

	if c.Particles != nil && *c.Particles <= 0 {
		return fmt.Errorf("particles must be positive, got %d", *c.Particles)
	}
	if c.Batches != nil && *c.Batches <= 0 {
		return fmt.Errorf("batches must be positive, got %d", *c.Batches)
	}
	if c.DensityGCm3 != nil && *c.DensityGCm3 <= 0 {
		return fmt.Errorf("density_g_cm3 must be positive, got %g", *c.DensityGCm3)
	}
	if c.DosimetryEncoding != nil {
		if _, err := endf.Encoding(*c.DosimetryEncoding); err != nil {
			return err
		}
	}
	if c.OpenMCExec != nil && *c.OpenMCExec == "" {
		return fmt.Errorf("openmc_exec must not be empty")
	}

	return nil
}

// Cases expands the configured axes into the run order.
func (c *SweepConfig) Cases() ([]model.Case, error) {
	libs := c.GetLibraries()
	out := make([]model.Library, len(libs))
	for i, l := range libs {
		out[i] = model.Library{Label: l.Label, CrossSections: l.CrossSections}
	}
	return model.Cases(out, c.GetCompositions(), c.GetSourceEnergies())
}

// GetLibraries returns the configured libraries or the default set.
func (c *SweepConfig) GetLibraries() []LibraryConfig {
	if len(c.Libraries) == 0 {
		return []LibraryConfig{
			{"endfb80", "/lcrc/project/OpenMCValidation/data/hdf5/endfb-viii.0-hdf5/cross_sections.xml"},
			{"jeff33", "/lcrc/project/OpenMCValidation/data/hdf5/jeff-3.3-hdf5/cross_sections.xml"},
			{"tendl2021", "/lcrc/project/OpenMCValidation/data/hdf5/tendl-2021-hdf5/cross_sections.xml"},
			{"jendl5", "/lcrc/project/OpenMCValidation/data/hdf5/jendl-5.0-hdf5/cross_sections_e8photon.xml"},
		}
	}
	return c.Libraries
}

// GetCompositions returns the configured compositions or the default set.
func (c *SweepConfig) GetCompositions() []string {
	if len(c.Compositions) == 0 {
		return []string{"fe56", "fe"}
	}
	return c.Compositions
}

// GetSourceEnergies returns the configured source energies or the default set.
func (c *SweepConfig) GetSourceEnergies() []string {
	if len(c.SourceEnergies) == 0 {
		return []string{"2MeV", "14MeV"}
	}
	return c.SourceEnergies
}

// GetParticles returns the particles per batch or the default.
func (c *SweepConfig) GetParticles() int {
	if c.Particles == nil {
		return model.DefaultParticles
	}
	return *c.Particles
}

// GetBatches returns the batch count or the default.
func (c *SweepConfig) GetBatches() int {
	if c.Batches == nil {
		return model.DefaultBatches
	}
	return *c.Batches
}

// GetDensity returns the iron density in g/cm3 or the default.
func (c *SweepConfig) GetDensity() float64 {
	if c.DensityGCm3 == nil {
		return model.DefaultDensity
	}
	return *c.DensityGCm3
}

// GetMPIArgs returns the launcher argument list or the default.
func (c *SweepConfig) GetMPIArgs() []string {
	if c.MPIArgs == nil {
		return []string{"mpiexec"}
	}
	return c.MPIArgs
}

// GetOpenMCExec returns the solver executable or the default.
func (c *SweepConfig) GetOpenMCExec() string {
	if c.OpenMCExec == nil {
		return "openmc"
	}
	return *c.OpenMCExec
}

// GetNeutronGroups returns the neutron group file path or the default.
func (c *SweepConfig) GetNeutronGroups() string {
	if c.NeutronGroups == nil {
		return "neutron-366gpr.txt"
	}
	return *c.NeutronGroups
}

// GetPhotonGroups returns the photon group file path or the default.
func (c *SweepConfig) GetPhotonGroups() string {
	if c.PhotonGroups == nil {
		return "gamma-121gpr.txt"
	}
	return *c.PhotonGroups
}

// GetDosimetryENDF returns the dosimetry tape path or the default.
func (c *SweepConfig) GetDosimetryENDF() string {
	if c.DosimetryENDF == nil {
		return "IRDFF-II.endf"
	}
	return *c.DosimetryENDF
}

// GetDosimetryArchive returns the archive the tape is extracted from.
func (c *SweepConfig) GetDosimetryArchive() string {
	if c.DosimetryArchive == nil {
		return "IRDFF-II.tar.xz"
	}
	return *c.DosimetryArchive
}

// GetDosimetryEncoding returns the tape's text encoding or the default.
func (c *SweepConfig) GetDosimetryEncoding() string {
	if c.DosimetryEncoding == nil {
		return "cp1250"
	}
	return *c.DosimetryEncoding
}

// GetAllowPartialDosimetry reports whether a missing reaction is tolerated.
func (c *SweepConfig) GetAllowPartialDosimetry() bool {
	if c.AllowPartialDosimetry == nil {
		return false // default: every reaction is required
	}
	return *c.AllowPartialDosimetry
}

// GetOutputDir returns where case directories and CSVs are written.
func (c *SweepConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return "."
	}
	return *c.OutputDir
}

// GetLedgerPath returns the ledger database path; empty disables it.
func (c *SweepConfig) GetLedgerPath() string {
	if c.LedgerPath == nil {
		return ""
	}
	return *c.LedgerPath
}
