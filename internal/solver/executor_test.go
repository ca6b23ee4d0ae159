package solver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ironsphere/internal/fsutil"
)

type testLogger struct {
	logs []string
}

func (l *testLogger) Debugf(format string, args ...interface{}) {
	l.logs = append(l.logs, fmt.Sprintf(format, args...))
}

func newTestExecutor(fsys fsutil.FileSystem, builder CommandBuilder) *Executor {
	e := NewExecutor([]string{"mpiexec", "-n", "4"}, "openmc", 100, false)
	e.Builder = builder
	e.FS = fsys
	return e
}

func TestStatepointName(t *testing.T) {
	assert.Equal(t, "statepoint.100.h5", StatepointName(100))
	assert.Equal(t, "statepoint.7.h5", StatepointName(7))
}

func TestExecutor_Command(t *testing.T) {
	e := NewExecutor([]string{"mpiexec"}, "openmc", 100, false)
	assert.Equal(t, []string{"mpiexec", "openmc"}, e.Command())

	bare := NewExecutor(nil, "openmc", 100, false)
	assert.Equal(t, []string{"openmc"}, bare.Command())
}

func TestExecutor_Run(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	builder := NewMockCommandBuilder()
	builder.ExecutorFactory = func(name string, args []string) *MockCommandExecutor {
		return &MockCommandExecutor{
			Output: []byte("Simulating batch 100\n"),
			OnRun: func(dir string) error {
				return fsys.WriteFile(filepath.Join(dir, "statepoint.100.h5"), []byte("{}"), 0644)
			},
		}
	}
	e := newTestExecutor(fsys, builder)

	sp, err := e.Run(context.Background(), "/runs/fe_2MeV_endfb80", "/data/cross_sections.xml")
	require.NoError(t, err)
	assert.Equal(t, "/runs/fe_2MeV_endfb80/statepoint.100.h5", sp)

	require.Len(t, builder.Commands, 1)
	assert.Equal(t, "mpiexec", builder.Commands[0].Name)
	assert.Equal(t, []string{"-n", "4", "openmc"}, builder.Commands[0].Args)

	mock := builder.Executors[0]
	assert.True(t, mock.RunCalled)
	assert.Equal(t, "/runs/fe_2MeV_endfb80", mock.Dir)
	assert.Equal(t, "/data/cross_sections.xml", mock.Env[CrossSectionsEnv])
}

func TestExecutor_RunFailureCarriesOutputTail(t *testing.T) {
	var out strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&out, "line %d\n", i)
	}
	builder := NewMockCommandBuilder()
	builder.ExecutorFactory = func(string, []string) *MockCommandExecutor {
		return &MockCommandExecutor{Output: []byte(out.String()), Err: errors.New("exit status 1")}
	}
	logger := &testLogger{}
	e := newTestExecutor(fsutil.NewMemoryFileSystem(), builder)
	e.SetLogger(logger)

	_, err := e.Run(context.Background(), "/runs/x", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.Contains(t, err.Error(), "line 49")
	assert.NotContains(t, err.Error(), "line 29\n")
	assert.Nil(t, builder.Executors[0].Env)
	assert.NotEmpty(t, logger.logs)
}

func TestExecutor_MissingStatepoint(t *testing.T) {
	e := newTestExecutor(fsutil.NewMemoryFileSystem(), NewMockCommandBuilder())
	_, err := e.Run(context.Background(), "/runs/x", "")
	assert.True(t, errors.Is(err, ErrNoStatepoint))
}

func TestExecutor_Cancelled(t *testing.T) {
	builder := NewMockCommandBuilder()
	builder.ExecutorFactory = func(string, []string) *MockCommandExecutor {
		return &MockCommandExecutor{Err: errors.New("signal: killed")}
	}
	e := newTestExecutor(fsutil.NewMemoryFileSystem(), builder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Run(ctx, "/runs/x", "")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExecutor_DryRun(t *testing.T) {
	builder := NewMockCommandBuilder()
	logger := &testLogger{}
	e := newTestExecutor(fsutil.NewMemoryFileSystem(), builder)
	e.DryRun = true
	e.SetLogger(logger)

	sp, err := e.Run(context.Background(), "/runs/x", "")
	require.NoError(t, err)
	assert.Equal(t, "/runs/x/statepoint.100.h5", sp)
	assert.Empty(t, builder.Commands)
	require.Len(t, logger.logs, 1)
	assert.Contains(t, logger.logs[0], "[DRY-RUN]")
	assert.Contains(t, logger.logs[0], "mpiexec -n 4 openmc")
}

func TestExecutor_NoExecutable(t *testing.T) {
	e := newTestExecutor(fsutil.NewMemoryFileSystem(), NewMockCommandBuilder())
	e.Executable = ""
	_, err := e.Run(context.Background(), "/runs/x", "")
	assert.Error(t, err)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "b\nc", tail("a\nb\nc\n", 2))
	assert.Equal(t, "a", tail("a", 5))
}

func TestExecutor_SetLoggerIgnoresNil(t *testing.T) {
	e := NewExecutor(nil, "openmc", 1, false)
	e.SetLogger(nil)
	assert.NotNil(t, e.Logger)
}
