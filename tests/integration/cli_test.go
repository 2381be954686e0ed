package integration

import (
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// TestMain builds the routenest binary once before running tests.
func TestMain(m *testing.M) {
	root, err := FindProjectRoot()
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	tmpDir, err := os.MkdirTemp("", "routenest-test-*")
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	routenestBin = filepath.Join(tmpDir, "routenest")

	cmd := exec.Command("go", "build", "-o", routenestBin, "./cmd/routenest")
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(out)}
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func TestVersion(t *testing.T) {
	env := NewTestEnv(t)
	r := env.MustRun("version")
	assert.Contains(t, r.Stdout, "routenest v")
}

func TestExitCodes(t *testing.T) {
	env := NewTestEnv(t)
	env.APIURL = "http://127.0.0.1:1"

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown command", []string{"teleport"}, 1},
		{"missing argument", []string{"trips", "show"}, 1},
		{"unreachable api", []string{"trips", "list"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := env.Run(tt.args...)
			assert.Equal(t, tt.want, r.ExitCode, r.Stderr)
			assert.Contains(t, r.Stderr, "Error:")
		})
	}
}

func TestInitThenConfigApplies(t *testing.T) {
	env := NewTestEnv(t)
	r := env.MustRun("init")
	assert.Contains(t, r.Stdout, "config.yaml")

	cfg := filepath.Join(env.Config, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("api:\n  base_url: localhost:8000\n"), 0o644))
	r = env.Run("trips", "list")
	assert.Equal(t, 1, r.ExitCode)
	assert.Contains(t, r.Stderr, "api.base_url")
}

// freeAddr returns a loopback address nothing listens on.
func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestMockServeEndToEnd(t *testing.T) {
	env := NewTestEnv(t)
	addr := freeAddr(t)

	server := env.Command("mock", "serve", "--memory", "--addr", addr)
	require.NoError(t, server.Start())
	done := make(chan error, 1)
	go func() { done <- server.Wait() }()
	t.Cleanup(func() {
		if server.ProcessState == nil {
			server.Process.Kill()
		}
	})

	base := "http://" + addr
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 50*time.Millisecond)

	env.APIURL = base
	trips := ParseJSON[[]types.TripSummary](t, env.MustRun("trips", "list", "--json").Stdout)
	require.NotEmpty(t, trips, "an empty store is seeded")

	created := ParseJSON[types.Trip](t, env.MustRun("trips", "create", "Coastal Drive", "--json").Stdout)
	trip := ParseJSON[types.Trip](t, env.MustRun("stops", "add", created.ID,
		"--name", "Vung Tau", "--lat", "10.3460", "--lng", "107.0843", "--json").Stdout)
	assert.Len(t, trip.Stops, 1)

	r := env.MustRun("trips", "show", created.ID)
	assert.Contains(t, r.Stdout, "Vung Tau")

	require.NoError(t, server.Process.Signal(os.Interrupt))
	select {
	case err := <-done:
		assert.NoError(t, err, "mock serve shuts down cleanly on interrupt")
	case <-time.After(10 * time.Second):
		t.Fatal("mock serve did not stop")
	}
}
