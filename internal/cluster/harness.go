// Package cluster provisions ephemeral kind clusters around test runs.
// The harness derives a deterministic cluster name from the enclosing
// project, creates the cluster and exports its kubeconfig with KUBECONFIG
// pinned to a project-local path, relocates the generated credentials into
// a caller-supplied directory, and records the final path in shared state
// so teardown can find it again, possibly from another process.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"kindenv/internal/env"
	"kindenv/internal/execx"
)

// Sentinel errors for harness operations.
var (
	ErrKindNotAvailable = errors.New("kind binary not available")
	ErrRootNotFound     = errors.New("module root not found")
	ErrCreateFailed     = errors.New("failed to create kind cluster")
	ErrExportFailed     = errors.New("failed to export kubeconfig")
	ErrDeleteFailed     = errors.New("failed to delete kind cluster")
	ErrMoveFailed       = errors.New("failed to relocate kubeconfig directory")
)

// kindAvailable is a test seam for binary discovery.
var kindAvailable = func() bool { return execx.Available("kind") }

const defaultVariant = "default"

// Harness provisions an ephemeral kind cluster and relocates its kubeconfig
// into a caller-supplied directory. It implements Provider.
type Harness struct {
	root    string
	dir     string
	project string
	variant string

	nameOverride string
	nodeImage    string
	portMappings []PortMapping

	kind   *execx.KindClient
	state  *env.State
	logger *zap.Logger
}

// HarnessOption configures a Harness.
type HarnessOption func(*Harness)

// WithVariant sets the variant segment of the derived cluster name,
// distinguishing parallel environments of the same project.
func WithVariant(variant string) HarnessOption {
	return func(h *Harness) { h.variant = variant }
}

// WithClusterName overrides name derivation entirely.
func WithClusterName(name string) HarnessOption {
	return func(h *Harness) { h.nameOverride = name }
}

// WithNodeImage pins the kind node image (`kind create cluster --image`).
func WithNodeImage(image string) HarnessOption {
	return func(h *Harness) { h.nodeImage = image }
}

// WithPortMappings exposes container ports on the host via a generated kind
// config.
func WithPortMappings(mappings ...PortMapping) HarnessOption {
	return func(h *Harness) { h.portMappings = append(h.portMappings, mappings...) }
}

// WithKindClient injects the kind CLI wrapper, for tests.
func WithKindClient(kind *execx.KindClient) HarnessOption {
	return func(h *Harness) { h.kind = kind }
}

// WithState injects the state store shared between setup and teardown.
func WithState(state *env.State) HarnessOption {
	return func(h *Harness) { h.state = state }
}

// WithLogger sets the harness logger.
func WithLogger(logger *zap.Logger) HarnessOption {
	return func(h *Harness) { h.logger = logger }
}

// NewHarness creates a harness that will place the exported kubeconfig
// under dir. The project segment of the cluster name comes from the base
// name of the enclosing module root, discovered by walking up from the
// working directory.
func NewHarness(dir string, opts ...HarnessOption) (*Harness, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	root, err := findModuleRoot(cwd)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		root:    root,
		dir:     dir,
		project: filepath.Base(root),
		variant: defaultVariant,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.kind == nil {
		h.kind = execx.NewKindClient(execx.Default)
	}
	if h.state == nil {
		h.state = env.NewState(filepath.Join(root, ".kindenv", "state.json"))
	}
	return h, nil
}

// ClusterName returns the deterministic cluster name
// "<project>-<variant>-cluster", or the configured override.
func (h *Harness) ClusterName() string {
	if h.nameOverride != "" {
		return h.nameOverride
	}
	return fmt.Sprintf("%s-%s-cluster", h.project, h.variant)
}

// Kubeconfig returns the recorded kubeconfig path for the running cluster,
// falling back to the harness-local default when no state was recorded. An
// unreadable or corrupt state file also falls back, but gets logged so it is
// distinguishable from a simply missing key.
func (h *Harness) Kubeconfig() string {
	path, err := h.state.Get(env.StateKeyKubeconfig)
	if err == nil {
		return path
	}
	if !errors.Is(err, env.ErrStateKeyNotFound) {
		h.logger.Warn("State read failed, using default kubeconfig path", zap.Error(err))
	}
	return filepath.Join(h.dir, ".kube", "config")
}

// Up creates the kind cluster, exports its kubeconfig, moves the generated
// .kube directory into the harness directory, and records the final path.
func (h *Harness) Up(ctx context.Context) (string, error) {
	if !kindAvailable() {
		return "", ErrKindNotAvailable
	}

	name := h.ClusterName()
	kubeDir := filepath.Join(h.root, ".kube")
	if err := os.MkdirAll(kubeDir, 0o700); err != nil {
		return "", fmt.Errorf("create kubeconfig dir: %w", err)
	}
	kubeEnv := []string{"KUBECONFIG=" + filepath.Join(kubeDir, "config")}

	createArgs := []string{"create", "cluster", "--name", name}
	if h.nodeImage != "" {
		createArgs = append(createArgs, "--image", h.nodeImage)
	}
	if len(h.portMappings) > 0 {
		configPath, cleanup, err := writeKindConfig(h.portMappings)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrCreateFailed, err)
		}
		defer cleanup()
		createArgs = append(createArgs, "--config", configPath)
	}

	h.logger.Info("Creating kind cluster", zap.String("cluster", name))
	if out, err := h.kind.CombinedOutput(ctx, createArgs, kubeEnv); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCreateFailed, string(out), err)
	}

	exportArgs := []string{"export", "kubeconfig", "--name", name}
	if out, err := h.kind.CombinedOutput(ctx, exportArgs, kubeEnv); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExportFailed, string(out), err)
	}

	dst := filepath.Join(h.dir, ".kube")
	if err := moveDir(kubeDir, dst); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMoveFailed, err)
	}

	kubeconfig := filepath.Join(dst, "config")
	if err := h.state.Save(env.StateKeyKubeconfig, kubeconfig); err != nil {
		return "", err
	}
	h.logger.Info("Cluster ready", zap.String("cluster", name), zap.String("kubeconfig", kubeconfig))
	return kubeconfig, nil
}

// Down deletes the kind cluster named by the same derivation Up used, with
// KUBECONFIG pointing at the recorded path, then clears the state slot.
func (h *Harness) Down(ctx context.Context) error {
	if !kindAvailable() {
		return ErrKindNotAvailable
	}

	name := h.ClusterName()
	kubeEnv := []string{"KUBECONFIG=" + h.Kubeconfig()}

	h.logger.Info("Deleting kind cluster", zap.String("cluster", name))
	deleteArgs := []string{"delete", "cluster", "--name", name}
	if out, err := h.kind.CombinedOutput(ctx, deleteArgs, kubeEnv); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDeleteFailed, string(out), err)
	}
	if err := h.state.Delete(env.StateKeyKubeconfig); err != nil {
		// The cluster is already gone; a corrupt state file must not make
		// teardown look failed. Reset it instead.
		h.logger.Warn("State update failed after delete, resetting state", zap.Error(err))
		return h.state.Clear()
	}
	return nil
}

// Run brings the cluster up through the environment runner and returns the
// kubeconfig path plus a teardown function. Callers that find kind missing
// can test for ErrKindNotAvailable and skip.
func (h *Harness) Run(ctx context.Context, opts ...env.Option) (string, env.TeardownFunc, error) {
	if !kindAvailable() {
		return "", nil, ErrKindNotAvailable
	}
	opts = append(opts,
		env.WithClusterName(h.ClusterName()),
		env.WithLogger(h.logger),
	)
	return env.Run(ctx, h.Up, h.Down, opts...)
}

// findModuleRoot walks up from start looking for a go.mod.
func findModuleRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: searched upward from %s", ErrRootNotFound, start)
		}
		dir = parent
	}
}

// moveDir renames src to dst, falling back to copy-and-remove when the
// rename crosses filesystems.
func moveDir(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyTree(src, dst); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}
