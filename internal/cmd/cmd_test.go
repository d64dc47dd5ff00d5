package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"camoufox-launcher/internal/supervisor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWorkerConfig(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
	}{
		{
			name:  "Complete config",
			input: `{"headless":"virtual","url":"https://x.test","cookie_file":"alice.json","cookie_path":"/tmp/cookies/alice.json"}`,
		},
		{
			name:  "With proxy",
			input: `{"headless":"true","url":"https://x.test","proxy":"127.0.0.1:8080","cookie_file":"bob.json","cookie_path":"/tmp/cookies/bob.json"}`,
		},
		{name: "Empty input", input: "", expectError: true},
		{name: "Not JSON", input: "alice.json", expectError: true},
		{name: "Missing url", input: `{"cookie_file":"alice.json","cookie_path":"/tmp/a.json"}`, expectError: true},
		{name: "Missing cookie path", input: `{"url":"https://x.test","cookie_file":"alice.json"}`, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := readWorkerConfig(strings.NewReader(tt.input))
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://x.test", cfg.SharedURL)
			assert.NotEmpty(t, cfg.CookiePath)
		})
	}
}

func TestRootCommand_HasHiddenWorker(t *testing.T) {
	root := NewRootCommand()

	worker, _, err := root.Find([]string{supervisor.WorkerCommand})
	require.NoError(t, err)
	assert.Equal(t, supervisor.WorkerCommand, worker.Name())
	assert.True(t, worker.Hidden)
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"extra"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.ExecuteContext(context.Background()))
}

func TestWorkerCommand_MissingCookieFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "alice.json")
	stdin := strings.NewReader(`{"headless":"virtual","url":"https://x.test","cookie_file":"alice.json","cookie_path":"` + missing + `"}`)

	var stderr bytes.Buffer
	root := NewRootCommand()
	root.SetArgs([]string{supervisor.WorkerCommand})
	root.SetIn(stdin)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "实例运行失败")
}
