package cluster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kindenv/internal/env"
	"kindenv/internal/execx"
)

// newTestRoot creates a temp module root and chdirs into it so harness name
// derivation sees it.
func newTestRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module testproj\n"), 0o644); err != nil {
		t.Fatalf("write go.mod: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(root); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
	return root
}

func withKindOnPath(t *testing.T) {
	t.Helper()
	orig := kindAvailable
	kindAvailable = func() bool { return true }
	t.Cleanup(func() { kindAvailable = orig })
}

func withoutKindOnPath(t *testing.T) {
	t.Helper()
	orig := kindAvailable
	kindAvailable = func() bool { return false }
	t.Cleanup(func() { kindAvailable = orig })
}

func TestHarness_ClusterName(t *testing.T) {
	root := newTestRoot(t)
	project := filepath.Base(root)

	t.Run("derived from project and variant", func(t *testing.T) {
		h, err := NewHarness(t.TempDir(), WithVariant("py3"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := project + "-py3-cluster"
		if got := h.ClusterName(); got != want {
			t.Errorf("ClusterName() = %q, want %q", got, want)
		}
	})

	t.Run("default variant", func(t *testing.T) {
		h, err := NewHarness(t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := project + "-default-cluster"
		if got := h.ClusterName(); got != want {
			t.Errorf("ClusterName() = %q, want %q", got, want)
		}
	})

	t.Run("override wins", func(t *testing.T) {
		h, err := NewHarness(t.TempDir(), WithClusterName("pinned"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := h.ClusterName(); got != "pinned" {
			t.Errorf("ClusterName() = %q, want %q", got, "pinned")
		}
	})
}

func TestHarness_UpInvokesKind(t *testing.T) {
	newTestRoot(t)
	withKindOnPath(t)
	dir := t.TempDir()

	mock := &execx.MockExecutor{}
	state := env.NewState("")
	h, err := NewHarness(dir,
		WithKindClient(execx.NewKindClient(mock)),
		WithState(state),
		WithVariant("int"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kubeconfig, err := h.Up(context.Background())
	if err != nil {
		t.Fatalf("Up() error: %v", err)
	}

	want := filepath.Join(dir, ".kube", "config")
	if kubeconfig != want {
		t.Errorf("Up() = %q, want %q", kubeconfig, want)
	}

	if len(mock.Commands) != 2 {
		t.Fatalf("expected 2 kind invocations, got %d: %v", len(mock.Commands), mock.Commands)
	}
	create := mock.Commands[0]
	if create.Name != "kind" || !contains(create.Args, "create") || !contains(create.Args, "cluster") {
		t.Errorf("first call = %v, want kind create cluster", create)
	}
	if !contains(create.Args, "--name") || !contains(create.Args, h.ClusterName()) {
		t.Errorf("create args missing cluster name: %v", create.Args)
	}
	export := mock.Commands[1]
	if !contains(export.Args, "export") || !contains(export.Args, "kubeconfig") {
		t.Errorf("second call = %v, want kind export kubeconfig", export)
	}

	// Kubeconfig path recorded for teardown.
	got, err := state.Get(env.StateKeyKubeconfig)
	if err != nil {
		t.Fatalf("state missing kubeconfig path: %v", err)
	}
	if got != want {
		t.Errorf("state kubeconfig = %q, want %q", got, want)
	}
}

func TestHarness_UpPinsKubeconfigEnv(t *testing.T) {
	root := newTestRoot(t)
	withKindOnPath(t)

	var captured []*execx.MockCommand
	mock := &execx.MockExecutor{
		CommandFunc: func(spec execx.Spec) *execx.MockCommand {
			cmd := &execx.MockCommand{}
			captured = append(captured, cmd)
			return cmd
		},
	}
	h, err := NewHarness(t.TempDir(),
		WithKindClient(execx.NewKindClient(mock)),
		WithState(env.NewState("")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := h.Up(context.Background()); err != nil {
		t.Fatalf("Up() error: %v", err)
	}

	wantEnv := "KUBECONFIG=" + filepath.Join(root, ".kube", "config")
	for i, cmd := range captured {
		if len(cmd.Env) != 1 || cmd.Env[0] != wantEnv {
			t.Errorf("command %d env = %v, want [%s]", i, cmd.Env, wantEnv)
		}
	}
}

func TestHarness_UpNodeImageAndConfig(t *testing.T) {
	newTestRoot(t)
	withKindOnPath(t)

	mock := &execx.MockExecutor{}
	h, err := NewHarness(t.TempDir(),
		WithKindClient(execx.NewKindClient(mock)),
		WithState(env.NewState("")),
		WithNodeImage("kindest/node:v1.28.0"),
		WithPortMappings(PortMapping{ContainerPort: 30080, HostPort: 8080}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := h.Up(context.Background()); err != nil {
		t.Fatalf("Up() error: %v", err)
	}

	create := mock.Commands[0]
	if !contains(create.Args, "--image") || !contains(create.Args, "kindest/node:v1.28.0") {
		t.Errorf("create args missing node image: %v", create.Args)
	}
	if !contains(create.Args, "--config") {
		t.Errorf("create args missing --config: %v", create.Args)
	}
}

func TestHarness_UpCreateFailure(t *testing.T) {
	newTestRoot(t)
	withKindOnPath(t)

	mock := &execx.MockExecutor{
		CommandFunc: func(spec execx.Spec) *execx.MockCommand {
			if contains(spec.Args, "create") {
				return &execx.MockCommand{
					OutputData: []byte("ERROR: node image not found"),
					RunErr:     errors.New("exit status 1"),
				}
			}
			return &execx.MockCommand{}
		},
	}
	h, err := NewHarness(t.TempDir(),
		WithKindClient(execx.NewKindClient(mock)),
		WithState(env.NewState("")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = h.Up(context.Background())
	if !errors.Is(err, ErrCreateFailed) {
		t.Fatalf("Up() error = %v, want ErrCreateFailed", err)
	}
	if !strings.Contains(err.Error(), "node image not found") {
		t.Errorf("error should carry kind output: %v", err)
	}
}

func TestHarness_UpWithoutKind(t *testing.T) {
	newTestRoot(t)
	withoutKindOnPath(t)

	h, err := NewHarness(t.TempDir(), WithState(env.NewState("")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := h.Up(context.Background()); !errors.Is(err, ErrKindNotAvailable) {
		t.Fatalf("Up() error = %v, want ErrKindNotAvailable", err)
	}
}

func TestHarness_Down(t *testing.T) {
	newTestRoot(t)
	withKindOnPath(t)
	dir := t.TempDir()

	var captured []*execx.MockCommand
	mock := &execx.MockExecutor{
		CommandFunc: func(spec execx.Spec) *execx.MockCommand {
			cmd := &execx.MockCommand{}
			captured = append(captured, cmd)
			return cmd
		},
	}
	state := env.NewState("")
	recorded := filepath.Join(dir, ".kube", "config")
	if err := state.Save(env.StateKeyKubeconfig, recorded); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	h, err := NewHarness(dir,
		WithKindClient(execx.NewKindClient(mock)),
		WithState(state),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := h.Down(context.Background()); err != nil {
		t.Fatalf("Down() error: %v", err)
	}

	del := mock.LastCommand()
	if !contains(del.Args, "delete") || !contains(del.Args, "cluster") || !contains(del.Args, h.ClusterName()) {
		t.Errorf("delete args = %v", del.Args)
	}
	if len(captured) != 1 || len(captured[0].Env) != 1 || captured[0].Env[0] != "KUBECONFIG="+recorded {
		t.Errorf("delete env = %v, want recorded kubeconfig", captured[0].Env)
	}

	if _, err := state.Get(env.StateKeyKubeconfig); !errors.Is(err, env.ErrStateKeyNotFound) {
		t.Errorf("state should be cleared after Down, got err=%v", err)
	}
}

func TestHarness_DownFallsBackWithoutState(t *testing.T) {
	newTestRoot(t)
	withKindOnPath(t)
	dir := t.TempDir()

	var captured []*execx.MockCommand
	mock := &execx.MockExecutor{
		CommandFunc: func(spec execx.Spec) *execx.MockCommand {
			cmd := &execx.MockCommand{}
			captured = append(captured, cmd)
			return cmd
		},
	}
	h, err := NewHarness(dir,
		WithKindClient(execx.NewKindClient(mock)),
		WithState(env.NewState("")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := h.Down(context.Background()); err != nil {
		t.Fatalf("Down() error: %v", err)
	}
	want := "KUBECONFIG=" + filepath.Join(dir, ".kube", "config")
	if captured[0].Env[0] != want {
		t.Errorf("delete env = %v, want %q", captured[0].Env, want)
	}
}

func TestHarness_CorruptStateFile(t *testing.T) {
	newTestRoot(t)
	withKindOnPath(t)
	dir := t.TempDir()

	statePath := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(statePath, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write state file: %v", err)
	}

	mock := &execx.MockExecutor{}
	h, err := NewHarness(dir,
		WithKindClient(execx.NewKindClient(mock)),
		WithState(env.NewState(statePath)),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("kubeconfig falls back to default path", func(t *testing.T) {
		want := filepath.Join(dir, ".kube", "config")
		if got := h.Kubeconfig(); got != want {
			t.Errorf("Kubeconfig() = %q, want %q", got, want)
		}
	})

	t.Run("down still succeeds and resets the state", func(t *testing.T) {
		if err := h.Down(context.Background()); err != nil {
			t.Fatalf("Down() error: %v", err)
		}
		if !contains(mock.LastCommand().Args, "delete") {
			t.Errorf("expected kind delete, got %v", mock.LastCommand().Args)
		}
		if _, err := os.Stat(statePath); !os.IsNotExist(err) {
			t.Errorf("expected corrupt state file to be removed, stat err = %v", err)
		}
	})
}

func TestHarness_DownDeleteFailure(t *testing.T) {
	newTestRoot(t)
	withKindOnPath(t)

	mock := &execx.MockExecutor{
		CommandFunc: func(spec execx.Spec) *execx.MockCommand {
			return &execx.MockCommand{RunErr: errors.New("exit status 1")}
		},
	}
	h, err := NewHarness(t.TempDir(),
		WithKindClient(execx.NewKindClient(mock)),
		WithState(env.NewState("")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := h.Down(context.Background()); !errors.Is(err, ErrDeleteFailed) {
		t.Fatalf("Down() error = %v, want ErrDeleteFailed", err)
	}
}

func TestHarness_RunSkipsWithoutKind(t *testing.T) {
	newTestRoot(t)
	withoutKindOnPath(t)

	h, err := NewHarness(t.TempDir(), WithState(env.NewState("")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := h.Run(context.Background()); !errors.Is(err, ErrKindNotAvailable) {
		t.Fatalf("Run() error = %v, want ErrKindNotAvailable", err)
	}
}

func TestHarness_RunRoundTrip(t *testing.T) {
	newTestRoot(t)
	withKindOnPath(t)
	dir := t.TempDir()

	mock := &execx.MockExecutor{}
	h, err := NewHarness(dir,
		WithKindClient(execx.NewKindClient(mock)),
		WithState(env.NewState("")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	kubeconfig, teardown, err := h.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if kubeconfig != filepath.Join(dir, ".kube", "config") {
		t.Errorf("Run() kubeconfig = %q", kubeconfig)
	}
	if err := teardown(context.Background()); err != nil {
		t.Fatalf("teardown error: %v", err)
	}
	// create, export, delete
	if len(mock.Commands) != 3 {
		t.Errorf("expected 3 kind invocations, got %d: %v", len(mock.Commands), mock.Commands)
	}
}

func TestFindModuleRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module testproj\n"), 0o644); err != nil {
		t.Fatalf("write go.mod: %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := findModuleRoot(nested)
	if err != nil {
		t.Fatalf("findModuleRoot() error: %v", err)
	}
	// temp dirs may involve symlinks on some platforms; compare base names
	if filepath.Base(got) != filepath.Base(root) {
		t.Errorf("findModuleRoot() = %q, want %q", got, root)
	}
}

func TestMoveDirAcrossDirs(t *testing.T) {
	src := filepath.Join(t.TempDir(), ".kube")
	if err := os.MkdirAll(src, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "config"), []byte("apiVersion: v1\nkind: Config\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	dst := filepath.Join(t.TempDir(), ".kube")
	if err := moveDir(src, dst); err != nil {
		t.Fatalf("moveDir() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dst, "config"))
	if err != nil {
		t.Fatalf("read moved config: %v", err)
	}
	if !strings.Contains(string(data), "kind: Config") {
		t.Errorf("moved config content = %q", data)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source should be gone after move")
	}
}

func contains(args []string, value string) bool {
	for _, arg := range args {
		if arg == value {
			return true
		}
	}
	return false
}
