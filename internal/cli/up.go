// Package cli provides the CLI commands for kindenv.
//
// Example usage:
//
//	kindenv up --dir ./testdata --wait-endpoint http://localhost:8080/healthz
//	kindenv down
//	kindenv status
package cli

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewUpCmd creates the `up` command, which provisions the kind cluster and
// waits for it to become usable.
func NewUpCmd(logger *zap.Logger) *cobra.Command {
	var dir string
	var variant string
	var clusterName string
	var nodeImage string
	var endpoints []string
	var sleep int
	var keep bool
	var envFile string
	var skipNodeWait bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Create the kind cluster and export its kubeconfig",
		Long: `Create a kind cluster with a deterministic name, export its kubeconfig
with KUBECONFIG pinned to a project-local path, and relocate the credentials
into the target directory. The kubeconfig path is recorded so a later
'kindenv down' can find it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := DefaultCLIConfig
			if variant != "" {
				cfg.Variant = variant
			}
			if clusterName != "" {
				cfg.ClusterName = clusterName
			}
			if nodeImage != "" {
				cfg.NodeImage = nodeImage
			}
			if keep {
				cfg.KeepOnFailure = true
			}

			harness, err := buildHarness(dir, cfg, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			recorder := newRecorder(ctx, cfg, logger)
			defer recorder.Close()

			mgr := NewEnvManager(harness, recorder, logger)
			mgr.printer.Quiet = quiet

			_, err = mgr.Up(ctx, UpOptions{
				Sleep:             time.Duration(sleep) * time.Second,
				Endpoints:         endpoints,
				WaitNodes:         !skipNodeWait,
				ConditionTimeout:  cfg.ConditionTimeout,
				NodesReadyTimeout: cfg.NodesReadyTimeout,
				Keep:              cfg.KeepOnFailure,
				EnvFile:           envFile,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to place the kubeconfig under (defaults to the working directory)")
	cmd.Flags().StringVar(&variant, "variant", "", "Variant segment of the derived cluster name")
	cmd.Flags().StringVar(&clusterName, "cluster-name", "", "Override the derived cluster name")
	cmd.Flags().StringVar(&nodeImage, "node-image", "", "Kind node image to use")
	cmd.Flags().StringArrayVar(&endpoints, "wait-endpoint", nil, "Endpoint URL to wait on before declaring the environment ready (repeatable)")
	cmd.Flags().IntVar(&sleep, "sleep", 0, "Seconds to sleep after the cluster comes up")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the cluster when a readiness check fails")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Dotenv file to load into the environment before provisioning")
	cmd.Flags().BoolVar(&skipNodeWait, "skip-node-wait", false, "Skip waiting for cluster nodes to become ready")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress progress output")

	return cmd
}
