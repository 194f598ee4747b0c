package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewDownCmd creates the `down` command, which deletes the cluster created
// by `up`. The cluster name is re-derived the same way, so no arguments are
// needed; the kubeconfig path comes from the recorded state.
func NewDownCmd(logger *zap.Logger) *cobra.Command {
	var dir string
	var variant string
	var clusterName string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Delete the kind cluster created by up",
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

			ctx := cmd.Context()
			recorder := newRecorder(ctx, cfg, logger)
			defer recorder.Close()

			mgr := NewEnvManager(harness, recorder, logger)
			mgr.printer.Quiet = quiet
			return mgr.Down(ctx)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory the kubeconfig was placed under")
	cmd.Flags().StringVar(&variant, "variant", "", "Variant segment of the derived cluster name")
	cmd.Flags().StringVar(&clusterName, "cluster-name", "", "Override the derived cluster name")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress progress output")

	return cmd
}
