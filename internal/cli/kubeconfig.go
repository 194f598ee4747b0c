package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewKubeconfigCmd creates the `kubeconfig` command, which prints the path
// recorded during `up`. The output is already a bare path with no
// decoration, so the command carries no --quiet flag; use it directly in
// command substitution:
//
//	export KUBECONFIG=$(kindenv kubeconfig)
func NewKubeconfigCmd(logger *zap.Logger) *cobra.Command {
	var dir string
	var variant string
	var clusterName string

	cmd := &cobra.Command{
		Use:   "kubeconfig",
		Short: "Print the path of the recorded kubeconfig",
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

			path := harness.Kubeconfig()
			if _, statErr := os.Stat(path); statErr != nil {
				userErr := wrapUserErrorWithContext(ErrKubeconfigNotRecorded, statErr,
					fmt.Sprintf("no kubeconfig at %s; is the environment up?", path),
					map[string]any{"kubeconfig": path})
				Error("No kubeconfig recorded")
				logStructuredError(logger, userErr, "No kubeconfig recorded")
				return userErr
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory the kubeconfig was placed under")
	cmd.Flags().StringVar(&variant, "variant", "", "Variant segment of the derived cluster name")
	cmd.Flags().StringVar(&clusterName, "cluster-name", "", "Override the derived cluster name")

	return cmd
}
