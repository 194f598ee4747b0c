package cluster

import "context"

// Provider manages the lifecycle of a Kubernetes cluster for a test
// environment. Harness provisions ephemeral kind clusters; ExistingProvider
// points at a cluster that is already running.
type Provider interface {
	// Up provisions the cluster and returns the kubeconfig path.
	Up(ctx context.Context) (string, error)

	// Down tears the cluster down. No-op for existing clusters.
	Down(ctx context.Context) error

	// ClusterName returns the name of the managed cluster.
	ClusterName() string
}

// ExistingProvider adapts an already-running cluster to the Provider
// interface. Down never deletes anything.
type ExistingProvider struct {
	Name           string
	KubeconfigPath string
}

func (e *ExistingProvider) Up(ctx context.Context) (string, error) {
	return e.KubeconfigPath, nil
}

func (e *ExistingProvider) Down(ctx context.Context) error {
	return nil
}

func (e *ExistingProvider) ClusterName() string {
	return e.Name
}
