package execx

import (
	"context"
	"io"
	"strings"
)

// KindClient wraps kind command execution with validation.
type KindClient struct {
	exec       Executor
	validators []Validator
}

// NewKindClient creates a KindClient with default validators.
func NewKindClient(exec Executor) *KindClient {
	return &KindClient{
		exec: exec,
		validators: []Validator{
			NoControlChars(), // cluster names and paths end up in shell-adjacent contexts
		},
	}
}

// CommandArgs builds a kind command with the given arguments.
// Validates arguments against configured validators before building.
func (c *KindClient) CommandArgs(ctx context.Context, args []string) (Command, error) {
	return c.exec.Command(ctx, "kind", args, c.validators...)
}

// CombinedOutput runs kind with the given arguments and extra environment
// entries, returning combined stdout/stderr.
func (c *KindClient) CombinedOutput(ctx context.Context, args, env []string) ([]byte, error) {
	cmd, err := c.CommandArgs(ctx, args)
	if err != nil {
		return nil, err
	}
	cmd.SetEnv(env)
	return cmd.CombinedOutput()
}

// RunWithOutput runs kind with the given arguments and extra environment,
// piping to the provided writers.
func (c *KindClient) RunWithOutput(ctx context.Context, args, env []string, stdout, stderr io.Writer) error {
	cmd, err := c.CommandArgs(ctx, args)
	if err != nil {
		return err
	}
	cmd.SetEnv(env)
	cmd.SetStdout(stdout)
	cmd.SetStderr(stderr)
	return cmd.Run()
}

// Clusters returns the names of kind clusters known to the local runtime,
// via `kind get clusters`.
func (c *KindClient) Clusters(ctx context.Context) ([]string, error) {
	cmd, err := c.CommandArgs(ctx, []string{"get", "clusters"})
	if err != nil {
		return nil, err
	}
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	var clusters []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			clusters = append(clusters, line)
		}
	}
	return clusters, nil
}

// KubectlClient wraps kubectl command execution with validation.
type KubectlClient struct {
	exec       Executor
	validators []Validator
}

// NewKubectlClient creates a KubectlClient with default validators.
func NewKubectlClient(exec Executor) *KubectlClient {
	return &KubectlClient{
		exec: exec,
		validators: []Validator{
			NoControlChars(), // prevent YAML/command injection via control chars
		},
	}
}

// CommandArgs builds a kubectl command with the given arguments.
func (c *KubectlClient) CommandArgs(ctx context.Context, args []string) (Command, error) {
	return c.exec.Command(ctx, "kubectl", args, c.validators...)
}

// Output runs kubectl with the given arguments and returns stdout.
func (c *KubectlClient) Output(ctx context.Context, args []string) ([]byte, error) {
	cmd, err := c.CommandArgs(ctx, args)
	if err != nil {
		return nil, err
	}
	return cmd.Output()
}

// Run runs kubectl with the given arguments.
func (c *KubectlClient) Run(ctx context.Context, args []string) error {
	cmd, err := c.CommandArgs(ctx, args)
	if err != nil {
		return err
	}
	return cmd.Run()
}

// RunWithOutput runs kubectl with the given arguments, piping to the
// provided writers.
func (c *KubectlClient) RunWithOutput(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd, err := c.CommandArgs(ctx, args)
	if err != nil {
		return err
	}
	cmd.SetStdout(stdout)
	cmd.SetStderr(stderr)
	return cmd.Run()
}
