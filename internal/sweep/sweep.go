// Package sweep drives the case loop for the run and extract binaries. Cases
// are processed one at a time in configuration order and the first failure
// stops the loop.
package sweep

import (
	"fmt"
	"strings"

	"github.com/banshee-data/ironsphere/internal/config"
	"github.com/banshee-data/ironsphere/internal/dosimetry"
	"github.com/banshee-data/ironsphere/internal/fsutil"
	"github.com/banshee-data/ironsphere/internal/groups"
	"github.com/banshee-data/ironsphere/internal/ledger"
	"github.com/banshee-data/ironsphere/internal/model"
)

// Recorder receives provenance rows. *ledger.Ledger implements it.
type Recorder interface {
	RecordCaseRun(r *ledger.CaseRun) error
	RecordExtraction(e *ledger.Extraction) error
}

// Select keeps the cases whose key is listed, in sweep order. An empty key
// list keeps everything. Unknown keys are an error.
func Select(cases []model.Case, keys []string) ([]model.Case, error) {
	if len(keys) == 0 {
		return cases, nil
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	var out []model.Case
	for _, c := range cases {
		if want[c.Key()] {
			out = append(out, c)
			delete(want, c.Key())
		}
	}
	if len(want) > 0 {
		var missing []string
		for _, k := range keys {
			if want[k] {
				missing = append(missing, k)
			}
		}
		return nil, fmt.Errorf("unknown case(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// LoadGroups reads both group structures named in the config.
func LoadGroups(fsys fsutil.FileSystem, cfg *config.SweepConfig) (neutron, photon groups.Structure, err error) {
	neutron, err = groups.Load(fsys, cfg.GetNeutronGroups())
	if err != nil {
		return neutron, photon, fmt.Errorf("neutron groups: %w", err)
	}
	photon, err = groups.Load(fsys, cfg.GetPhotonGroups())
	if err != nil {
		return neutron, photon, fmt.Errorf("photon groups: %w", err)
	}
	return neutron, photon, nil
}

// BuildOptions loads the group structures and dosimetry responses and
// returns the shared model options for a run.
func BuildOptions(fsys fsutil.FileSystem, cfg *config.SweepConfig) (model.Options, error) {
	neutron, photon, err := LoadGroups(fsys, cfg)
	if err != nil {
		return model.Options{}, err
	}

	xs, err := dosimetry.Load(dosimetry.Options{
		EndfPath:     cfg.GetDosimetryENDF(),
		ArchivePath:  cfg.GetDosimetryArchive(),
		Encoding:     cfg.GetDosimetryEncoding(),
		AllowPartial: cfg.GetAllowPartialDosimetry(),
	})
	if err != nil {
		return model.Options{}, fmt.Errorf("dosimetry: %w", err)
	}

	return model.Options{
		NeutronGroups: neutron,
		PhotonGroups:  photon,
		Responses:     Responses(xs),
		Particles:     cfg.GetParticles(),
		Batches:       cfg.GetBatches(),
		DensityGCm3:   cfg.GetDensity(),
	}, nil
}

// Responses converts located dosimetry cross sections into tally responses.
func Responses(xs []dosimetry.CrossSection) []model.SpectralResponse {
	out := make([]model.SpectralResponse, len(xs))
	for i, x := range xs {
		out[i] = model.SpectralResponse{Nuclide: x.Reaction.Nuclide, Sigma: x.Sigma}
	}
	return out
}
