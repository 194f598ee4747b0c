package execx

import (
	"context"
	"io"
	"sync"
)

// MockExecutor is a test double that records every command it is asked to
// build. When CommandFunc is set it decides the returned MockCommand per
// spec; otherwise a command succeeding with DefaultOutput is returned.
type MockExecutor struct {
	mu sync.Mutex

	// CommandFunc, when set, returns the MockCommand for a given spec.
	CommandFunc func(Spec) *MockCommand

	// DefaultOutput is returned by Output/CombinedOutput when CommandFunc is nil.
	DefaultOutput []byte

	// Err, when set, fails command creation.
	Err error

	// Commands records every spec passed to Command, in order.
	Commands []Spec
}

func (m *MockExecutor) Command(ctx context.Context, name string, args []string, validators ...Validator) (Command, error) {
	spec := Spec{Name: name, Args: args}
	for _, validate := range validators {
		if err := validate(spec); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.Commands = append(m.Commands, spec)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.CommandFunc != nil {
		cmd := m.CommandFunc(spec)
		if cmd.Args == nil {
			cmd.Args = args
		}
		return cmd, nil
	}
	return &MockCommand{Args: args, OutputData: m.DefaultOutput}, nil
}

// HasCommand reports whether a command with the given binary name was built.
func (m *MockExecutor) HasCommand(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cmd := range m.Commands {
		if cmd.Name == name {
			return true
		}
	}
	return false
}

// LastCommand returns the most recently built command spec.
func (m *MockExecutor) LastCommand() Spec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Commands) == 0 {
		return Spec{}
	}
	return m.Commands[len(m.Commands)-1]
}

// MockCommand is the Command returned by MockExecutor.
type MockCommand struct {
	Args       []string
	OutputData []byte
	RunErr     error

	// RunFunc, when set, replaces the default Run behavior.
	RunFunc func() error

	// Writers and reader wired via SetStdout/SetStderr/SetStdin.
	StdoutW io.Writer
	StderrW io.Writer
	StdinR  io.Reader

	// Env records values passed to SetEnv.
	Env []string
}

func (c *MockCommand) Output() ([]byte, error) {
	if c.RunErr != nil {
		return nil, c.RunErr
	}
	return c.OutputData, nil
}

func (c *MockCommand) CombinedOutput() ([]byte, error) {
	if c.RunErr != nil {
		return c.OutputData, c.RunErr
	}
	return c.OutputData, nil
}

func (c *MockCommand) Run() error {
	if c.RunFunc != nil {
		return c.RunFunc()
	}
	if c.RunErr != nil {
		return c.RunErr
	}
	if c.StdoutW != nil && len(c.OutputData) > 0 {
		_, _ = c.StdoutW.Write(c.OutputData)
	}
	return nil
}

func (c *MockCommand) SetStdout(w io.Writer) { c.StdoutW = w }
func (c *MockCommand) SetStderr(w io.Writer) { c.StderrW = w }
func (c *MockCommand) SetStdin(r io.Reader)  { c.StdinR = r }
func (c *MockCommand) SetEnv(env []string)   { c.Env = append(c.Env, env...) }
