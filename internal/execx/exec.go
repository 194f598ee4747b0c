package execx

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

// execCommandContext is a test seam for stubbing command creation in tests.
var execCommandContext = exec.CommandContext

// lookPath is a test seam for binary discovery.
var lookPath = exec.LookPath

// Command represents a command that can be executed.
type Command interface {
	Output() ([]byte, error)
	CombinedOutput() ([]byte, error)
	Run() error
	SetStdout(w io.Writer)
	SetStderr(w io.Writer)
	SetStdin(r io.Reader)
	SetEnv(env []string)
}

// Executor creates commands for execution.
type Executor interface {
	Command(ctx context.Context, name string, args []string, validators ...Validator) (Command, error)
}

// execCmd wraps exec.Cmd to implement Command interface.
type execCmd struct {
	cmd *exec.Cmd
}

func (c *execCmd) Output() ([]byte, error)         { return c.cmd.Output() }
func (c *execCmd) CombinedOutput() ([]byte, error) { return c.cmd.CombinedOutput() }
func (c *execCmd) Run() error                      { return c.cmd.Run() }
func (c *execCmd) SetStdout(w io.Writer)           { c.cmd.Stdout = w }
func (c *execCmd) SetStderr(w io.Writer)           { c.cmd.Stderr = w }
func (c *execCmd) SetStdin(r io.Reader)            { c.cmd.Stdin = r }

// SetEnv appends variables to the inherited process environment. Entries are
// "KEY=value" pairs; later entries win over inherited ones.
func (c *execCmd) SetEnv(env []string) {
	if len(env) == 0 {
		return
	}
	c.cmd.Env = append(c.cmd.Environ(), env...)
}

// osExecutor is the production implementation using os/exec.
type osExecutor struct{}

func (osExecutor) Command(ctx context.Context, name string, args []string, validators ...Validator) (Command, error) {
	spec := Spec{Name: name, Args: args}
	for _, validate := range validators {
		if err := validate(spec); err != nil {
			return nil, err
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &execCmd{cmd: execCommandContext(ctx, name, args...)}, nil
}

// Default is the package-level production executor.
var Default Executor = osExecutor{}

// Available reports whether the named binary can be found on PATH.
func Available(name string) bool {
	_, err := lookPath(name)
	return err == nil
}

// Spec describes a command to be validated before execution.
type Spec struct {
	Name string
	Args []string
}

// Validator inspects a command spec and rejects it with an error.
type Validator func(Spec) error

// AllowlistBins restricts execution to the named binaries.
func AllowlistBins(allowed ...string) Validator {
	set := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		set[name] = struct{}{}
	}
	return func(spec Spec) error {
		if _, ok := set[spec.Name]; !ok {
			return errors.New("execx: binary not allowed")
		}
		return nil
	}
}

// NoShellMeta rejects arguments containing shell metacharacters.
func NoShellMeta() Validator {
	return func(spec Spec) error {
		for _, arg := range spec.Args {
			if strings.ContainsAny(arg, "&|;<>()$`\\") {
				return errors.New("execx: shell metacharacters not allowed")
			}
		}
		return nil
	}
}

// NoControlChars rejects arguments containing control characters.
func NoControlChars() Validator {
	return func(spec Spec) error {
		for _, arg := range spec.Args {
			if strings.ContainsAny(arg, "\r\n\t") {
				return errors.New("execx: control characters not allowed")
			}
		}
		return nil
	}
}

// PathUnder rejects path-like arguments that escape the given root.
func PathUnder(root string) Validator {
	absRoot := root
	if abs, err := filepath.Abs(root); err == nil {
		absRoot = abs
	}
	return func(spec Spec) error {
		for _, arg := range spec.Args {
			if arg == "-" {
				continue
			}
			candidate := arg
			if !filepath.IsAbs(candidate) {
				candidate = filepath.Join(absRoot, candidate)
			}
			candidate = filepath.Clean(candidate)
			rel, err := filepath.Rel(absRoot, candidate)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return errors.New("execx: path escapes root")
			}
		}
		return nil
	}
}
