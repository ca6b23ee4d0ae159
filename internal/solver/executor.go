// Package solver launches the external transport solver for one case
// directory and reports where its statepoint landed.
package solver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/ironsphere/internal/fsutil"
)

// ErrNoStatepoint is returned when the solver exits cleanly but the expected
// statepoint file is missing.
var ErrNoStatepoint = errors.New("solver did not produce a statepoint")

// CrossSectionsEnv is the environment variable the solver reads its data
// library index from.
const CrossSectionsEnv = "OPENMC_CROSS_SECTIONS"

// outputTailLines is how much solver output is kept in error messages.
const outputTailLines = 20

// Logger defines the interface for debug logging.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// nopLogger is a no-op logger implementation.
type nopLogger struct{}

func (n nopLogger) Debugf(format string, args ...interface{}) {}

// StatepointName is the statepoint file the solver writes after batches.
func StatepointName(batches int) string {
	return fmt.Sprintf("statepoint.%d.h5", batches)
}

// Executor runs "<mpi args...> <solver>" inside a case directory.
type Executor struct {
	MPIArgs    []string
	Executable string
	Batches    int
	DryRun     bool
	Logger     Logger
	Builder    CommandBuilder
	FS         fsutil.FileSystem
}

// NewExecutor creates an executor backed by real processes and the OS filesystem.
func NewExecutor(mpiArgs []string, executable string, batches int, dryRun bool) *Executor {
	return &Executor{
		MPIArgs:    append([]string(nil), mpiArgs...),
		Executable: executable,
		Batches:    batches,
		DryRun:     dryRun,
		Logger:     nopLogger{},
		Builder:    NewRealCommandBuilder(),
		FS:         fsutil.OSFileSystem{},
	}
}

// SetLogger sets the debug logger for the executor.
func (e *Executor) SetLogger(logger Logger) {
	if logger != nil {
		e.Logger = logger
	}
}

// Command returns the argument vector that Run launches.
func (e *Executor) Command() []string {
	argv := append([]string(nil), e.MPIArgs...)
	return append(argv, e.Executable)
}

// Run blocks until the solver exits and returns the statepoint path. There is
// no timeout or retry; cancelling ctx kills the launcher. A non-zero exit is
// returned with the tail of the solver output.
func (e *Executor) Run(ctx context.Context, workDir, crossSections string) (string, error) {
	argv := e.Command()
	if len(argv) == 0 || argv[len(argv)-1] == "" {
		return "", fmt.Errorf("no solver executable configured")
	}
	statepoint := filepath.Join(workDir, StatepointName(e.Batches))

	if e.DryRun {
		e.Logger.Debugf("[DRY-RUN] Would execute in %s: %s", workDir, strings.Join(argv, " "))
		return statepoint, nil
	}

	e.Logger.Debugf("Executing in %s: %s", workDir, strings.Join(argv, " "))
	cmd := e.Builder.BuildCommand(ctx, argv[0], argv[1:]...)
	cmd.SetDir(workDir)
	if crossSections != "" {
		cmd.SetEnv(CrossSectionsEnv, crossSections)
	}

	output, err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("solver in %s interrupted: %w", workDir, ctxErr)
		}
		e.Logger.Debugf("Solver failed: %v", err)
		return "", fmt.Errorf("solver in %s failed: %w\n%s", workDir, err, tail(string(output), outputTailLines))
	}

	if !e.FS.Exists(statepoint) {
		return "", fmt.Errorf("%w: %s", ErrNoStatepoint, statepoint)
	}
	return statepoint, nil
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
