package sweep

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/ironsphere/internal/fsutil"
	"github.com/banshee-data/ironsphere/internal/groups"
	"github.com/banshee-data/ironsphere/internal/ledger"
	"github.com/banshee-data/ironsphere/internal/model"
	"github.com/banshee-data/ironsphere/internal/monitoring"
	"github.com/banshee-data/ironsphere/internal/results"
	"github.com/banshee-data/ironsphere/internal/solver"
	"github.com/banshee-data/ironsphere/internal/statepoint"
	"github.com/banshee-data/ironsphere/internal/timeutil"
)

// CSV file suffixes appended to the case key.
const (
	NeutronSuffix = "_neutron.csv"
	PhotonSuffix  = "_photon.csv"
)

// Extractor turns each case's statepoint into a neutron and a photon table.
type Extractor struct {
	Cases   []model.Case
	Batches int
	Neutron groups.Structure
	Photon  groups.Structure
	FS      fsutil.FileSystem
	// InputDir holds the case directories; OutputDir receives the CSVs.
	InputDir  string
	OutputDir string

	Ledger  Recorder
	SweepID string
	Clock   timeutil.Clock
}

// StatepointPath is where a case's statepoint is expected.
func (e *Extractor) StatepointPath(c model.Case) string {
	return filepath.Join(e.InputDir, c.Key(), solver.StatepointName(e.Batches))
}

// Run extracts every case in order and returns the CSV paths written. The
// first failing case stops the loop.
func (e *Extractor) Run(ctx context.Context) ([]string, error) {
	var written []string
	for i, c := range e.Cases {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		monitoring.Logf("Extracting case %s (%d/%d)", c.Key(), i+1, len(e.Cases))
		n, p, err := e.ExtractCase(c)
		if err != nil {
			return written, fmt.Errorf("case %s: %w", c.Key(), err)
		}
		written = append(written, n, p)
	}
	return written, nil
}

// ExtractCase writes both tables for one case. Both tables are fully encoded
// before either file is written, so a failing case leaves no CSV behind.
func (e *Extractor) ExtractCase(c model.Case) (neutronPath, photonPath string, err error) {
	spPath := e.StatepointPath(c)
	sp, err := statepoint.Open(spPath)
	if err != nil {
		return "", "", err
	}
	res, err := results.Load(sp, e.Neutron, e.Photon)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", spPath, err)
	}

	nt, pt := res.NeutronTable(), res.PhotonTable()
	nData, err := nt.MarshalCSV()
	if err != nil {
		return "", "", fmt.Errorf("neutron table: %w", err)
	}
	pData, err := pt.MarshalCSV()
	if err != nil {
		return "", "", fmt.Errorf("photon table: %w", err)
	}

	if err := e.FS.MkdirAll(e.OutputDir, 0755); err != nil {
		return "", "", err
	}
	neutronPath = filepath.Join(e.OutputDir, c.Key()+NeutronSuffix)
	photonPath = filepath.Join(e.OutputDir, c.Key()+PhotonSuffix)
	if err := fsutil.WriteFileAtomic(e.FS, neutronPath, nData, 0644); err != nil {
		return "", "", err
	}
	if err := fsutil.WriteFileAtomic(e.FS, photonPath, pData, 0644); err != nil {
		return "", "", err
	}

	if e.Ledger != nil {
		rec := &ledger.Extraction{
			SweepID:     e.SweepID,
			CaseKey:     c.Key(),
			Statepoint:  spPath,
			NeutronCSV:  neutronPath,
			PhotonCSV:   photonPath,
			NeutronRows: nt.Rows(),
			PhotonRows:  pt.Rows(),
			CreatedAt:   timeutil.OrReal(e.Clock).Now().UnixNano(),
		}
		if err := e.Ledger.RecordExtraction(rec); err != nil {
			monitoring.Logf("WARNING: ledger: %v", err)
		}
	}
	return neutronPath, photonPath, nil
}
