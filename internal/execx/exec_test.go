package execx

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExecCommand(t *testing.T) {
	cmd, err := Default.Command(context.Background(), "echo", []string{"hello"})
	if err != nil {
		t.Fatalf("failed to build command: %v", err)
	}
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("failed to execute command: %v", err)
	}
	// echo adds a newline
	if string(out) != "hello\n" {
		t.Fatalf("expected output 'hello\\n', got '%s'", string(out))
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name      string
		validator Validator
		spec      Spec
		wantErr   bool
	}{
		{
			name:      "allowlist permits listed binary",
			validator: AllowlistBins("kind", "kubectl"),
			spec:      Spec{Name: "kind", Args: []string{"get", "clusters"}},
			wantErr:   false,
		},
		{
			name:      "allowlist rejects unlisted binary",
			validator: AllowlistBins("kind"),
			spec:      Spec{Name: "rm", Args: []string{"-rf"}},
			wantErr:   true,
		},
		{
			name:      "shell metacharacters rejected",
			validator: NoShellMeta(),
			spec:      Spec{Name: "kind", Args: []string{"delete; rm -rf /"}},
			wantErr:   true,
		},
		{
			name:      "plain args pass shell meta check",
			validator: NoShellMeta(),
			spec:      Spec{Name: "kind", Args: []string{"create", "cluster"}},
			wantErr:   false,
		},
		{
			name:      "control characters rejected",
			validator: NoControlChars(),
			spec:      Spec{Name: "kind", Args: []string{"name\nother"}},
			wantErr:   true,
		},
		{
			name:      "relative path escape rejected",
			validator: PathUnder("/tmp/root"),
			spec:      Spec{Name: "kind", Args: []string{"../outside"}},
			wantErr:   true,
		},
		{
			name:      "dash arg skipped by path check",
			validator: PathUnder("/tmp/root"),
			spec:      Spec{Name: "kubectl", Args: []string{"-"}},
			wantErr:   false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.validator(test.spec)
			if (err != nil) != test.wantErr {
				t.Errorf("validator error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestMockExecutorRecordsCommands(t *testing.T) {
	mock := &MockExecutor{DefaultOutput: []byte("ok")}

	cmd, err := mock.Command(context.Background(), "kind", []string{"get", "clusters"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, _ := cmd.Output()
	if string(out) != "ok" {
		t.Errorf("Output() = %q, want %q", out, "ok")
	}

	if !mock.HasCommand("kind") {
		t.Error("expected kind to be recorded")
	}
	want := Spec{Name: "kind", Args: []string{"get", "clusters"}}
	if diff := cmp.Diff(want, mock.LastCommand()); diff != "" {
		t.Errorf("LastCommand() mismatch (-want +got):\n%s", diff)
	}
}

func TestMockExecutorRunsValidators(t *testing.T) {
	mock := &MockExecutor{}

	_, err := mock.Command(context.Background(), "rm", []string{"-rf"}, AllowlistBins("kind"))
	if err == nil {
		t.Fatal("expected validator rejection")
	}
	if len(mock.Commands) != 0 {
		t.Errorf("rejected command should not be recorded, got %v", mock.Commands)
	}
}

func TestKindClientClusters(t *testing.T) {
	mock := &MockExecutor{DefaultOutput: []byte("alpha\nbeta\n")}
	kind := NewKindClient(mock)

	clusters, err := kind.Clusters(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"alpha", "beta"}, clusters); diff != "" {
		t.Errorf("Clusters() mismatch (-want +got):\n%s", diff)
	}

	spec := mock.LastCommand()
	if spec.Name != "kind" {
		t.Errorf("expected kind, got %s", spec.Name)
	}
	if diff := cmp.Diff([]string{"get", "clusters"}, spec.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestKindClientClustersEmpty(t *testing.T) {
	mock := &MockExecutor{DefaultOutput: []byte("\n")}
	kind := NewKindClient(mock)

	clusters, err := kind.Clusters(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clusters) != 0 {
		t.Errorf("expected no clusters, got %v", clusters)
	}
}

func TestKindClientCombinedOutputPassesEnv(t *testing.T) {
	var got *MockCommand
	mock := &MockExecutor{
		CommandFunc: func(spec Spec) *MockCommand {
			got = &MockCommand{OutputData: []byte("done")}
			return got
		},
	}
	kind := NewKindClient(mock)

	out, err := kind.CombinedOutput(context.Background(),
		[]string{"create", "cluster", "--name", "test"},
		[]string{"KUBECONFIG=/tmp/kube/config"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "done" {
		t.Errorf("CombinedOutput() = %q, want %q", out, "done")
	}
	if len(got.Env) != 1 || got.Env[0] != "KUBECONFIG=/tmp/kube/config" {
		t.Errorf("env = %v, want KUBECONFIG entry", got.Env)
	}
}

func TestKubectlClientOutput(t *testing.T) {
	mock := &MockExecutor{DefaultOutput: []byte("Kubernetes control plane is running")}
	kubectl := NewKubectlClient(mock)

	out, err := kubectl.Output(context.Background(), []string{"cluster-info"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Error("expected output")
	}
	if mock.LastCommand().Name != "kubectl" {
		t.Errorf("expected kubectl, got %s", mock.LastCommand().Name)
	}
}

func TestKubectlClientRejectsControlChars(t *testing.T) {
	mock := &MockExecutor{}
	kubectl := NewKubectlClient(mock)

	_, err := kubectl.Output(context.Background(), []string{"get\npods"})
	if err == nil {
		t.Fatal("expected control char rejection")
	}
}

func TestAvailable(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()

	lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	if !Available("kind") {
		t.Error("Available() = false, want true")
	}

	lookPath = func(name string) (string, error) { return "", context.DeadlineExceeded }
	if Available("kind") {
		t.Error("Available() = true, want false")
	}
}
