package solver

import (
	"context"
	"os"
	"os/exec"
)

// CommandExecutor runs one prepared command.
// This abstraction enables unit testing without launching the solver.
type CommandExecutor interface {
	// Run executes the command and returns the combined output (stdout+stderr).
	Run() ([]byte, error)

	// SetDir sets the working directory of the command.
	SetDir(dir string)

	// SetEnv adds one KEY=value pair on top of the current environment.
	SetEnv(key, value string)
}

// CommandBuilder creates CommandExecutors.
type CommandBuilder interface {
	BuildCommand(ctx context.Context, name string, args ...string) CommandExecutor
}

// RealCommandExecutor wraps exec.Cmd to implement CommandExecutor.
type RealCommandExecutor struct {
	cmd *exec.Cmd
}

// Run executes the command and returns combined output.
func (r *RealCommandExecutor) Run() ([]byte, error) {
	return r.cmd.CombinedOutput()
}

// SetDir sets the working directory.
func (r *RealCommandExecutor) SetDir(dir string) {
	r.cmd.Dir = dir
}

// SetEnv adds an environment variable.
func (r *RealCommandExecutor) SetEnv(key, value string) {
	if r.cmd.Env == nil {
		r.cmd.Env = os.Environ()
	}
	r.cmd.Env = append(r.cmd.Env, key+"="+value)
}

// RealCommandBuilder implements CommandBuilder using exec.CommandContext, so
// cancelling ctx kills the launcher.
type RealCommandBuilder struct{}

// NewRealCommandBuilder creates a new RealCommandBuilder.
func NewRealCommandBuilder() *RealCommandBuilder {
	return &RealCommandBuilder{}
}

// BuildCommand creates a CommandExecutor for the given command and arguments.
func (b *RealCommandBuilder) BuildCommand(ctx context.Context, name string, args ...string) CommandExecutor {
	return &RealCommandExecutor{cmd: exec.CommandContext(ctx, name, args...)}
}

// MockCommandExecutor implements CommandExecutor for testing.
type MockCommandExecutor struct {
	// Output is the output to return from Run.
	Output []byte
	// Err is the error to return from Run.
	Err error
	// OnRun, when set, is called from Run with the configured directory.
	// Stub solvers use it to drop a statepoint into the case directory.
	OnRun func(dir string) error
	// Dir and Env record what was set.
	Dir string
	Env map[string]string
	// RunCalled indicates whether Run was called.
	RunCalled bool
}

// Run returns the configured output and error.
func (m *MockCommandExecutor) Run() ([]byte, error) {
	m.RunCalled = true
	if m.OnRun != nil {
		if err := m.OnRun(m.Dir); err != nil {
			return m.Output, err
		}
	}
	return m.Output, m.Err
}

// SetDir records the working directory.
func (m *MockCommandExecutor) SetDir(dir string) {
	m.Dir = dir
}

// SetEnv records an environment variable.
func (m *MockCommandExecutor) SetEnv(key, value string) {
	if m.Env == nil {
		m.Env = make(map[string]string)
	}
	m.Env[key] = value
}

// MockCommandBuilder implements CommandBuilder for testing.
type MockCommandBuilder struct {
	// Commands records all commands that were built.
	Commands []MockBuiltCommand
	// ExecutorFactory allows creating executors dynamically based on command.
	ExecutorFactory func(name string, args []string) *MockCommandExecutor
	// Executors holds every executor handed out, in order.
	Executors []*MockCommandExecutor
}

// MockBuiltCommand records details of a built command.
type MockBuiltCommand struct {
	Name string
	Args []string
}

// NewMockCommandBuilder creates a new MockCommandBuilder.
func NewMockCommandBuilder() *MockCommandBuilder {
	return &MockCommandBuilder{}
}

// BuildCommand creates a MockCommandExecutor and records the command details.
func (b *MockCommandBuilder) BuildCommand(ctx context.Context, name string, args ...string) CommandExecutor {
	b.Commands = append(b.Commands, MockBuiltCommand{Name: name, Args: args})
	var mock *MockCommandExecutor
	if b.ExecutorFactory != nil {
		mock = b.ExecutorFactory(name, args)
	}
	if mock == nil {
		mock = &MockCommandExecutor{}
	}
	b.Executors = append(b.Executors, mock)
	return mock
}
