package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"

	"kindenv/internal/cluster"
	"kindenv/internal/env"
	"kindenv/internal/reporting"
)

// EnvManager drives environment lifecycle for the CLI commands. Unlike the
// library runner, the CLI splits up and down across separate processes, so
// the manager leans on the shared state file the harness maintains.
type EnvManager struct {
	harness  *cluster.Harness
	printer  *Printer
	logger   *zap.Logger
	recorder reporting.Recorder

	// clientsetFor is a test seam for building a Kubernetes client from a
	// kubeconfig path.
	clientsetFor func(kubeconfig string) (kubernetes.Interface, error)
}

// NewEnvManager creates an EnvManager around a harness. A nil recorder is
// replaced with a no-op sink.
func NewEnvManager(harness *cluster.Harness, recorder reporting.Recorder, logger *zap.Logger) *EnvManager {
	if recorder == nil {
		recorder = reporting.NopRecorder{}
	}
	return &EnvManager{
		harness:  harness,
		printer:  &Printer{},
		logger:   logger,
		recorder: recorder,
		clientsetFor: func(kubeconfig string) (kubernetes.Interface, error) {
			cfg, err := cluster.LoadRestConfig(kubeconfig)
			if err != nil {
				return nil, err
			}
			return cluster.NewClientset(cfg)
		},
	}
}

// UpOptions carries the up command's tunables.
type UpOptions struct {
	Sleep             time.Duration
	Endpoints         []string
	WaitNodes         bool
	ConditionTimeout  time.Duration
	NodesReadyTimeout time.Duration
	Keep              bool
	EnvFile           string
}

// Up provisions the cluster, applies optional environment variables, then
// waits for the configured readiness conditions. On a condition failure the
// cluster is torn down again unless Keep is set.
func (m *EnvManager) Up(ctx context.Context, opts UpOptions) (string, error) {
	if opts.EnvFile != "" {
		vars, err := env.LoadDotenv(opts.EnvFile)
		if err != nil {
			wrappedErr := wrapUserErrorWithContext(ErrEnvFileLoadFailed, err,
				fmt.Sprintf("failed to load env file %s: %v", opts.EnvFile, err),
				map[string]any{"env_file": opts.EnvFile, "component": "up"})
			Error("Failed to load env file")
			logStructuredError(m.logger, wrappedErr, "Failed to load env file")
			return "", wrappedErr
		}
		if _, err := env.SetEnvVars(vars); err != nil {
			wrappedErr := wrapUserError(ErrEnvApplyFailed, err, fmt.Sprintf("failed to apply environment variables: %v", err))
			Error("Failed to apply environment variables")
			logStructuredError(m.logger, wrappedErr, "Failed to apply environment variables")
			return "", wrappedErr
		}
	}

	started := time.Now()
	name := m.harness.ClusterName()

	stop := m.printer.SpinnerStart(fmt.Sprintf("Creating cluster %s", name))
	kubeconfig, err := m.harness.Up(ctx)
	if err != nil {
		stop(false, fmt.Sprintf("Cluster %s failed to come up", name))
		m.record(ctx, reporting.OutcomeUpFailed, name, "", err, started)
		if errors.Is(err, cluster.ErrKindNotAvailable) {
			userErr := newUserError(ErrKindBinaryMissing, "kind binary not found on PATH")
			Error("kind binary not found on PATH")
			logStructuredError(m.logger, userErr, "kind binary not found")
			return "", userErr
		}
		wrappedErr := wrapUserErrorWithContext(ErrClusterUpFailed, err,
			fmt.Sprintf("failed to bring cluster %s up: %v", name, err),
			map[string]any{"cluster": name, "component": "up"})
		Error("Failed to bring cluster up")
		logStructuredError(m.logger, wrappedErr, "Failed to bring cluster up")
		return "", wrappedErr
	}
	stop(true, fmt.Sprintf("Cluster %s created", name))

	if opts.Sleep > 0 {
		m.printer.Step(fmt.Sprintf("Sleeping for %s", opts.Sleep))
		sleepFn(opts.Sleep)
	}

	if err := m.waitReady(ctx, kubeconfig, opts); err != nil {
		m.record(ctx, reporting.OutcomeConditionFailed, name, kubeconfig, err, started)
		if !opts.Keep {
			if downErr := m.harness.Down(ctx); downErr != nil {
				m.logger.Warn("Teardown after failed readiness check also failed", zap.Error(downErr))
			}
		}
		return "", err
	}

	m.record(ctx, reporting.OutcomeSucceeded, name, kubeconfig, nil, started)
	m.printer.Success(fmt.Sprintf("Cluster %s is ready", name))
	m.printer.Printf("Kubeconfig: %s\n", kubeconfig)
	return kubeconfig, nil
}

// waitReady blocks until the configured endpoint and node checks pass.
func (m *EnvManager) waitReady(ctx context.Context, kubeconfig string, opts UpOptions) error {
	if len(opts.Endpoints) > 0 {
		m.printer.Step("Waiting for endpoints")
		if err := env.Wait(ctx, env.CheckEndpoints(opts.Endpoints...), opts.ConditionTimeout); err != nil {
			wrappedErr := wrapUserErrorWithContext(ErrEndpointUnreachable, err,
				fmt.Sprintf("endpoint check failed: %v", err),
				map[string]any{"endpoints": opts.Endpoints, "component": "up"})
			Error("Endpoint check failed")
			logStructuredError(m.logger, wrappedErr, "Endpoint check failed")
			return wrappedErr
		}
	}

	if opts.WaitNodes {
		m.printer.Step("Waiting for nodes to become ready")
		clientset, err := m.clientsetFor(kubeconfig)
		if err != nil {
			wrappedErr := wrapUserError(ErrNodesNotReady, err, fmt.Sprintf("failed to build cluster client: %v", err))
			Error("Failed to build cluster client")
			logStructuredError(m.logger, wrappedErr, "Failed to build cluster client")
			return wrappedErr
		}
		if err := cluster.WaitForNodesReady(ctx, clientset, opts.NodesReadyTimeout); err != nil {
			wrappedErr := wrapUserError(ErrNodesNotReady, err, fmt.Sprintf("cluster nodes did not become ready: %v", err))
			Error("Cluster nodes did not become ready")
			logStructuredError(m.logger, wrappedErr, "Cluster nodes did not become ready")
			return wrappedErr
		}
	}

	return nil
}

// Down tears the cluster down using the kubeconfig recorded during Up.
func (m *EnvManager) Down(ctx context.Context) error {
	started := time.Now()
	name := m.harness.ClusterName()

	stop := m.printer.SpinnerStart(fmt.Sprintf("Deleting cluster %s", name))
	if err := m.harness.Down(ctx); err != nil {
		stop(false, fmt.Sprintf("Cluster %s failed to delete", name))
		m.record(ctx, reporting.OutcomeDownFailed, name, "", err, started)
		if errors.Is(err, cluster.ErrKindNotAvailable) {
			userErr := newUserError(ErrKindBinaryMissing, "kind binary not found on PATH")
			Error("kind binary not found on PATH")
			logStructuredError(m.logger, userErr, "kind binary not found")
			return userErr
		}
		wrappedErr := wrapUserErrorWithContext(ErrClusterDownFailed, err,
			fmt.Sprintf("failed to tear cluster %s down: %v", name, err),
			map[string]any{"cluster": name, "component": "down"})
		Error("Failed to tear cluster down")
		logStructuredError(m.logger, wrappedErr, "Failed to tear cluster down")
		return wrappedErr
	}
	stop(true, fmt.Sprintf("Cluster %s deleted", name))
	return nil
}

// record sends a run record to the sink. Sink errors are logged, never
// returned.
func (m *EnvManager) record(ctx context.Context, outcome, name, kubeconfig string, runErr error, started time.Time) {
	rec := reporting.RunRecord{
		Cluster:    name,
		Outcome:    outcome,
		Kubeconfig: kubeconfig,
		StartedAt:  started,
		Duration:   time.Since(started),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := m.recorder.Record(ctx, rec); err != nil {
		m.logger.Warn("Failed to record run", zap.Error(err))
	}
}

// sleepFn is a test seam for time.Sleep.
var sleepFn = time.Sleep

// buildHarness constructs a harness for the CLI commands from the resolved
// configuration and per-command flags.
func buildHarness(dir string, cfg CLIConfig, logger *zap.Logger, extra ...cluster.HarnessOption) (*cluster.Harness, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			userErr := wrapUserError(ErrGetWorkingDirectoryFailed, err, fmt.Sprintf("failed to get working directory: %v", err))
			Error("Failed to get working directory")
			logStructuredError(logger, userErr, "Failed to get working directory")
			return nil, userErr
		}
		dir = cwd
	}
	if err := ensureWritableDir(dir); err != nil {
		userErr := wrapUserErrorWithContext(ErrDirNotWritable, err,
			fmt.Sprintf("directory %s is not writable: %v", dir, err),
			map[string]any{"dir": dir})
		Error("Target directory is not writable")
		logStructuredError(logger, userErr, "Target directory is not writable")
		return nil, userErr
	}

	opts := []cluster.HarnessOption{
		cluster.WithVariant(cfg.Variant),
		cluster.WithLogger(logger),
	}
	if cfg.ClusterName != "" {
		opts = append(opts, cluster.WithClusterName(cfg.ClusterName))
	}
	if cfg.NodeImage != "" {
		opts = append(opts, cluster.WithNodeImage(cfg.NodeImage))
	}
	if len(cfg.PortMappings) > 0 {
		opts = append(opts, cluster.WithPortMappings(cfg.PortMappings...))
	}
	opts = append(opts, extra...)

	harness, err := cluster.NewHarness(dir, opts...)
	if err != nil {
		wrappedErr := wrapUserError(ErrHarnessInitFailed, err, fmt.Sprintf("failed to initialize harness: %v", err))
		Error("Failed to initialize harness")
		logStructuredError(logger, wrappedErr, "Failed to initialize harness")
		return nil, wrappedErr
	}
	return harness, nil
}

// ensureWritableDir verifies dir exists and accepts writes.
func ensureWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	probe, err := os.CreateTemp(dir, ".kindenv-probe-*")
	if err != nil {
		return err
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// newRecorder builds the run record sink from configuration. A failed sink
// init degrades to the no-op recorder so a broken telemetry endpoint never
// blocks provisioning.
func newRecorder(ctx context.Context, cfg CLIConfig, logger *zap.Logger) reporting.Recorder {
	if cfg.ClickHouseDSN == "" {
		return reporting.NopRecorder{}
	}
	recorder, err := reporting.NewClickHouseRecorder(ctx, cfg.ClickHouseDSN)
	if err != nil {
		wrappedErr := wrapUserError(ErrReporterInitFailed, err, fmt.Sprintf("failed to initialize run reporter: %v", err))
		logStructuredError(logger, wrappedErr, "Failed to initialize run reporter, continuing without telemetry")
		return reporting.NopRecorder{}
	}
	return recorder
}
