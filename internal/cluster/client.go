package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"kindenv/internal/env"
)

// LoadRestConfig builds a *rest.Config from the exported kubeconfig.
func LoadRestConfig(kubeconfigPath string) (*rest.Config, error) {
	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("load kubeconfig %s: %w", kubeconfigPath, err)
	}
	return cfg, nil
}

// NewClientset creates a typed clientset for the cluster.
func NewClientset(cfg *rest.Config) (*kubernetes.Clientset, error) {
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build clientset: %w", err)
	}
	return clientset, nil
}

// NewControllerClient creates a controller-runtime client with the core
// scheme registered, for operator-style integration tests.
func NewControllerClient(cfg *rest.Config) (client.Client, error) {
	c, err := client.New(cfg, client.Options{Scheme: clientgoscheme.Scheme})
	if err != nil {
		return nil, fmt.Errorf("build controller-runtime client: %w", err)
	}
	return c, nil
}

// ControllerLogger bridges a zap logger into logr for controller-runtime.
func ControllerLogger(logger *zap.Logger) logr.Logger {
	return zapr.NewLogger(logger)
}

// InitControllerLogging routes controller-runtime log output through the
// given zap logger. Call once before creating controller-runtime clients.
func InitControllerLogging(logger *zap.Logger) {
	ctrllog.SetLogger(ControllerLogger(logger))
}

// NodesReady is a readiness condition that holds once every node in the
// cluster reports Ready.
func NodesReady(clientset kubernetes.Interface) env.Condition {
	return func(ctx context.Context) error {
		nodes, err := clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
		if err != nil {
			return fmt.Errorf("list nodes: %w", err)
		}
		if len(nodes.Items) == 0 {
			return fmt.Errorf("no nodes registered yet")
		}
		for _, node := range nodes.Items {
			if !nodeIsReady(node) {
				return fmt.Errorf("node %s not ready", node.Name)
			}
		}
		return nil
	}
}

// WaitForNodesReady polls until every node is Ready or the timeout elapses.
func WaitForNodesReady(ctx context.Context, clientset kubernetes.Interface, timeout time.Duration) error {
	return env.Wait(ctx, NodesReady(clientset), timeout)
}

func nodeIsReady(node corev1.Node) bool {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

// NodeCounts reports ready and total node counts, for status display.
func NodeCounts(ctx context.Context, clientset kubernetes.Interface) (ready, total int, err error) {
	nodes, err := clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("list nodes: %w", err)
	}
	for _, node := range nodes.Items {
		if nodeIsReady(node) {
			ready++
		}
	}
	return ready, len(nodes.Items), nil
}
