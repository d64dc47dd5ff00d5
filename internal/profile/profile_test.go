package profile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"camoufox-launcher/internal/config"
	"camoufox-launcher/internal/metrics"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSettings = config.GlobalSettings{
	HeadlessMode: "virtual",
	SharedURL:    "https://x.test",
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0644))
	}
}

func TestDiscover(t *testing.T) {
	t.Run("Missing directory", func(t *testing.T) {
		_, err := Discover(filepath.Join(t.TempDir(), "cookies"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrProfilesDirMissing))
		assert.True(t, errors.Is(err, config.ErrConfiguration))
	})

	t.Run("Path is a file", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "cookies")
		_, err := Discover(filepath.Join(dir, "cookies"))
		assert.True(t, errors.Is(err, ErrProfilesDirMissing))
	})

	t.Run("Empty directory", func(t *testing.T) {
		_, err := Discover(t.TempDir())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoCredentialFiles))
		assert.True(t, errors.Is(err, config.ErrConfiguration))
	})

	t.Run("Only non-credential files", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "notes.txt", "alice.json.bak")
		_, err := Discover(dir)
		assert.True(t, errors.Is(err, ErrNoCredentialFiles))
	})

	t.Run("Filters and orders entries", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "bob.json", "alice.json", "CAROL.JSON", "readme.md")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

		profiles, err := Discover(dir)
		require.NoError(t, err)
		assert.Equal(t, []config.ProfileDescriptor{
			{CredentialFilename: "CAROL.JSON"},
			{CredentialFilename: "alice.json"},
			{CredentialFilename: "bob.json"},
		}, profiles)
	})
}

func TestValidator_Validate(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "alice.json", "Bob.JSON")

	v, err := NewValidator(dir, nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		settings config.GlobalSettings
		filename string
		err      error
	}{
		{name: "Plain file", settings: testSettings, filename: "alice.json"},
		{name: "Upper case extension", settings: testSettings, filename: "Bob.JSON"},
		{name: "Not yet on disk", settings: testSettings, filename: "later.json"},
		{name: "Empty name", settings: testSettings, filename: "", err: ErrPathComponent},
		{name: "Nested path", settings: testSettings, filename: "sub/alice.json", err: ErrPathComponent},
		{name: "Parent traversal", settings: testSettings, filename: "../alice.json", err: ErrPathComponent},
		{name: "Absolute path", settings: testSettings, filename: "/etc/passwd.json", err: ErrPathComponent},
		{name: "Backslash separator", settings: testSettings, filename: `..\alice.json`, err: ErrPathComponent},
		{name: "Dot dot", settings: testSettings, filename: "..", err: ErrPathComponent},
		{name: "Wrong extension", settings: testSettings, filename: "alice.txt", err: ErrExtension},
		{name: "Spoofed extension", settings: testSettings, filename: "alice.json.exe", err: ErrExtension},
		{name: "Missing URL", settings: config.GlobalSettings{HeadlessMode: "virtual"}, filename: "alice.json", err: ErrIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := v.Validate(tt.settings, config.ProfileDescriptor{CredentialFilename: tt.filename})
			if tt.err != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.err), "got %v", err)
				assert.False(t, errors.Is(err, config.ErrConfiguration))

				var rejection *RejectionError
				require.True(t, errors.As(err, &rejection))
				assert.Equal(t, tt.filename, rejection.Filename)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.filename, cfg.CredentialFilename)
			assert.Equal(t, tt.settings.SharedURL, cfg.SharedURL)
			assert.Equal(t, filepath.Join(v.Dir(), tt.filename), cfg.CookiePath)
		})
	}
}

func TestValidator_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}

	outside := t.TempDir()
	writeFiles(t, outside, "secret.json")

	dir := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.json"), filepath.Join(dir, "evil.json")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "gone.json"), filepath.Join(dir, "dangling.json")))

	v, err := NewValidator(dir, nil)
	require.NoError(t, err)

	_, err = v.Validate(testSettings, config.ProfileDescriptor{CredentialFilename: "evil.json"})
	assert.True(t, errors.Is(err, ErrOutsideDir), "got %v", err)

	_, err = v.Validate(testSettings, config.ProfileDescriptor{CredentialFilename: "dangling.json"})
	assert.True(t, errors.Is(err, ErrOutsideDir), "got %v", err)
}

func TestValidator_Accept(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "alice.json", "bob.json")

	pc := metrics.NewPrometheusCollector("test")
	v, err := NewValidator(dir, pc)
	require.NoError(t, err)

	accepted := v.Accept(testSettings, []config.ProfileDescriptor{
		{CredentialFilename: "alice.json"},
		{CredentialFilename: "../bob.json"},
		{CredentialFilename: "notes.txt"},
		{CredentialFilename: "bob.json"},
	})

	require.Len(t, accepted, 2)
	assert.Equal(t, "alice.json", accepted[0].CredentialFilename)
	assert.Equal(t, "bob.json", accepted[1].CredentialFilename)

	count, err := testutil.GatherAndCount(pc.Registry(), "test_profiles_rejected_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWithin(t *testing.T) {
	root := filepath.FromSlash("/data/cookies")

	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{name: "Child", path: filepath.FromSlash("/data/cookies/a.json"), expected: true},
		{name: "Root itself", path: root, expected: false},
		{name: "Sibling prefix", path: filepath.FromSlash("/data/cookies-other/a.json"), expected: false},
		{name: "Parent", path: filepath.FromSlash("/data/a.json"), expected: false},
		{name: "Dot dot file name", path: filepath.FromSlash("/data/cookies/..json"), expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, within(root, tt.path))
		})
	}
}
