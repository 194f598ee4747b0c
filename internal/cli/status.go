package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"

	"kindenv/internal/cluster"
	"kindenv/internal/execx"
)

// StatusManager reports whether the derived cluster exists and whether its
// recorded kubeconfig is usable.
type StatusManager struct {
	harness *cluster.Harness
	kind    *execx.KindClient
	kubectl *execx.KubectlClient
	printer *Printer
	logger  *zap.Logger

	clientsetFor func(kubeconfig string) (kubernetes.Interface, error)
}

// NewStatusManager creates a StatusManager.
func NewStatusManager(harness *cluster.Harness, kind *execx.KindClient, kubectl *execx.KubectlClient, logger *zap.Logger) *StatusManager {
	return &StatusManager{
		harness: harness,
		kind:    kind,
		kubectl: kubectl,
		printer: &Printer{},
		logger:  logger,
		clientsetFor: func(kubeconfig string) (kubernetes.Interface, error) {
			cfg, err := cluster.LoadRestConfig(kubeconfig)
			if err != nil {
				return nil, err
			}
			return cluster.NewClientset(cfg)
		},
	}
}

// ClusterStatus is the snapshot the status command prints.
type ClusterStatus struct {
	Name           string
	Present        bool
	Kubeconfig     string
	KubeconfigOK   bool
	NodesReady     int
	NodesTotal     int
	NodesAvailable bool
}

// CheckStatus queries kind for the cluster list and inspects the recorded
// kubeconfig.
func (m *StatusManager) CheckStatus(ctx context.Context) (ClusterStatus, error) {
	status := ClusterStatus{Name: m.harness.ClusterName()}

	clusters, err := m.kind.Clusters(ctx)
	if err != nil {
		wrappedErr := wrapUserError(ErrClusterStatusFailed, err, fmt.Sprintf("failed to list kind clusters: %v", err))
		Error("Failed to list kind clusters")
		logStructuredError(m.logger, wrappedErr, "Failed to list kind clusters")
		return status, wrappedErr
	}
	for _, name := range clusters {
		if name == status.Name {
			status.Present = true
			break
		}
	}

	status.Kubeconfig = m.harness.Kubeconfig()
	if _, err := os.Stat(status.Kubeconfig); err == nil {
		status.KubeconfigOK = true
	}

	if status.Present && status.KubeconfigOK {
		ready, total, err := m.nodeCounts(ctx, status.Kubeconfig)
		if err == nil {
			status.NodesReady = ready
			status.NodesTotal = total
			status.NodesAvailable = true
		} else {
			m.logger.Warn("Failed to count nodes", zap.Error(err))
		}
	}

	return status, nil
}

// nodeCounts prefers client-go, falling back to `kubectl get nodes` when the
// kubeconfig cannot be loaded as a rest config (stale contexts, partial
// exports).
func (m *StatusManager) nodeCounts(ctx context.Context, kubeconfig string) (ready, total int, err error) {
	clientset, err := m.clientsetFor(kubeconfig)
	if err == nil {
		ready, total, countErr := cluster.NodeCounts(ctx, clientset)
		if countErr == nil {
			return ready, total, nil
		}
		m.logger.Warn("Node count via client-go failed, falling back to kubectl", zap.Error(countErr))
	} else {
		m.logger.Warn("Failed to build cluster client, falling back to kubectl", zap.Error(err))
	}
	return m.kubectlNodeCounts(ctx, kubeconfig)
}

// kubectlNodeCounts shells out to kubectl and parses the plain node table.
func (m *StatusManager) kubectlNodeCounts(ctx context.Context, kubeconfig string) (ready, total int, err error) {
	out, err := m.kubectl.Output(ctx, []string{"get", "nodes", "--kubeconfig", kubeconfig, "--no-headers"})
	if err != nil {
		return 0, 0, fmt.Errorf("kubectl get nodes: %w", err)
	}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		total++
		fields := strings.Fields(line)
		if len(fields) > 1 && fields[1] == "Ready" {
			ready++
		}
	}
	return ready, total, nil
}

// Print renders the status as a table.
func (m *StatusManager) Print(status ClusterStatus) {
	present := Red("no")
	if status.Present {
		present = Green("yes")
	}
	kubeconfigState := Red("missing")
	if status.KubeconfigOK {
		kubeconfigState = Green("ok")
	}
	nodes := Yellow("unknown")
	if status.NodesAvailable {
		nodes = fmt.Sprintf("%s/%s", strconv.Itoa(status.NodesReady), strconv.Itoa(status.NodesTotal))
	}

	Table([][]string{
		{"Cluster", "Present", "Kubeconfig", "Nodes Ready"},
		{status.Name, present, status.Kubeconfig + " (" + kubeconfigState + ")", nodes},
	})
}

// NewStatusCmd creates the `status` command.
func NewStatusCmd(logger *zap.Logger) *cobra.Command {
	var dir string
	var variant string
	var clusterName string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the kind cluster is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := DefaultCLIConfig
			if variant != "" {
				cfg.Variant = variant
			}
			if clusterName != "" {
				cfg.ClusterName = clusterName
			}

			harness, err := buildHarness(dir, cfg, logger)
			if err != nil {
				return err
			}

			mgr := NewStatusManager(harness,
				execx.NewKindClient(execx.Default),
				execx.NewKubectlClient(execx.Default),
				logger)
			status, err := mgr.CheckStatus(cmd.Context())
			if err != nil {
				return err
			}
			if quiet {
				fmt.Fprintln(cmd.OutOrStdout(), quietStatusLine(status))
				return nil
			}
			mgr.Print(status)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory the kubeconfig was placed under")
	cmd.Flags().StringVar(&variant, "variant", "", "Variant segment of the derived cluster name")
	cmd.Flags().StringVar(&clusterName, "cluster-name", "", "Override the derived cluster name")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Print a single present/absent line instead of the table")

	return cmd
}

// quietStatusLine reduces a status to one machine-friendly word.
func quietStatusLine(status ClusterStatus) string {
	if status.Present {
		return "present"
	}
	return "absent"
}
