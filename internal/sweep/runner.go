package sweep

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/ironsphere/internal/fsutil"
	"github.com/banshee-data/ironsphere/internal/ledger"
	"github.com/banshee-data/ironsphere/internal/model"
	"github.com/banshee-data/ironsphere/internal/monitoring"
	"github.com/banshee-data/ironsphere/internal/timeutil"
)

// Solver runs one prepared case directory and returns the statepoint path.
// *solver.Executor implements it.
type Solver interface {
	Run(ctx context.Context, workDir, crossSections string) (string, error)
}

// Runner builds, writes and solves every case in order.
type Runner struct {
	Cases     []model.Case
	Options   model.Options
	Solver    Solver
	FS        fsutil.FileSystem
	OutputDir string

	// Ledger is optional.
	Ledger  Recorder
	SweepID string
	// Clock defaults to the real clock.
	Clock timeutil.Clock
}

// Run processes the cases and returns the statepoint paths in case order.
// The first failing case stops the sweep; earlier case directories are left
// in place and a rerun overwrites them.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	var statepoints []string
	for i, c := range r.Cases {
		if err := ctx.Err(); err != nil {
			return statepoints, err
		}
		monitoring.Logf("Running case %s (%d/%d)", c.Key(), i+1, len(r.Cases))
		sp, err := r.runCase(ctx, c)
		if err != nil {
			return statepoints, fmt.Errorf("case %s: %w", c.Key(), err)
		}
		statepoints = append(statepoints, sp)
	}
	return statepoints, nil
}

func (r *Runner) runCase(ctx context.Context, c model.Case) (string, error) {
	clock := timeutil.OrReal(r.Clock)
	start := clock.Now()
	dir := filepath.Join(r.OutputDir, c.Key())
	rec := &ledger.CaseRun{
		SweepID:      r.SweepID,
		CaseKey:      c.Key(),
		Composition:  c.Composition.Name,
		SourceEnergy: c.Energy.Label,
		Library:      c.Library.Label,
		WorkDir:      dir,
		StartedAt:    start.UnixNano(),
	}

	sp, runErr := r.prepareAndSolve(ctx, c, dir)
	rec.FinishedAt = clock.Now().UnixNano()
	rec.Statepoint = sp
	rec.Status = ledger.StatusOK
	if runErr != nil {
		rec.Status = ledger.StatusFailed
		rec.Error = runErr.Error()
	} else {
		monitoring.Logf("Case %s finished in %s", c.Key(), clock.Since(start).Round(time.Millisecond))
	}
	if r.Ledger != nil {
		if err := r.Ledger.RecordCaseRun(rec); err != nil {
			monitoring.Logf("WARNING: ledger: %v", err)
		}
	}
	return sp, runErr
}

func (r *Runner) prepareAndSolve(ctx context.Context, c model.Case, dir string) (string, error) {
	m, err := model.Build(c, r.Options)
	if err != nil {
		return "", err
	}
	if err := r.FS.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	if err := m.WriteXML(r.FS, dir); err != nil {
		return "", err
	}
	return r.Solver.Run(ctx, dir, m.CrossSections)
}
