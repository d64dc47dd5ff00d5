//go:build unix

package supervisor

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"camoufox-launcher/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess 不是真正的测试，而是被 ProcessSpawner 启动的假 worker
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM)

	data, _ := io.ReadAll(os.Stdin)
	_ = os.WriteFile(os.Getenv("HELPER_OUT"), data, 0644)

	if os.Getenv("HELPER_EXIT_NOW") == "1" {
		return
	}
	<-sig
}

func helperSpawner(t *testing.T, out string, extraEnv ...string) *ProcessSpawner {
	t.Helper()
	return &ProcessSpawner{
		Executable: os.Args[0],
		Args:       []string{"-test.run=TestHelperProcess", "--"},
		Env:        append([]string{"GO_WANT_HELPER_PROCESS=1", "HELPER_OUT=" + out}, extraEnv...),
	}
}

func TestProcessSpawner_TerminateAndWait(t *testing.T) {
	out := filepath.Join(t.TempDir(), "config.json")
	spawner := helperSpawner(t, out)

	cfg := config.FinalizedConfig{
		HeadlessMode:       "virtual",
		SharedURL:          "https://x.test",
		CredentialFilename: "alice.json",
		CookiePath:         "/data/cookies/alice.json",
	}

	h, err := spawner.Spawn(cfg)
	require.NoError(t, err)
	assert.Equal(t, "alice.json", h.Name())
	assert.Positive(t, h.PID())

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && len(data) > 0
	}, 10*time.Second, 20*time.Millisecond)

	var received config.FinalizedConfig
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &received))
	assert.Equal(t, cfg, received)

	require.NoError(t, h.Terminate())

	select {
	case <-h.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not exit after SIGTERM")
	}
	assert.ErrorIs(t, h.Terminate(), os.ErrProcessDone)
}

func TestProcessSpawner_NaturalExit(t *testing.T) {
	out := filepath.Join(t.TempDir(), "config.json")
	spawner := helperSpawner(t, out, "HELPER_EXIT_NOW=1")

	h, err := spawner.Spawn(config.FinalizedConfig{CredentialFilename: "bob.json", SharedURL: "https://x.test"})
	require.NoError(t, err)

	select {
	case <-h.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not exit")
	}
	assert.NoError(t, h.Err())
}

func TestProcessSpawner_StartFailure(t *testing.T) {
	spawner := &ProcessSpawner{Executable: filepath.Join(t.TempDir(), "missing-binary")}

	_, err := spawner.Spawn(config.FinalizedConfig{CredentialFilename: "alice.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alice.json")
}
