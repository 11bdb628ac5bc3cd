package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, DefaultServerURL, cfg.Server.URL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, filepath.Join(home, "Downloads"), cfg.Download.Dir)
	assert.True(t, cfg.Download.Auto)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, filepath.Join(home, ".local/share/mapper/journal.db"), cfg.Journal.Path)
	assert.Equal(t, DefaultTheme, cfg.TUI.Theme)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, DefaultStubAddr, cfg.Stub.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MAPPER_SERVER_URL", "https://mapper.internal:8443/")
	t.Setenv("MAPPER_REMOTE_TIMEOUT", "30s")
	t.Setenv("MAPPER_JOURNAL_ENABLED", "false")

	cfg, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, "https://mapper.internal:8443", cfg.Server.URL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.False(t, cfg.Journal.Enabled)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  url: http://10.0.0.5:5000
download:
  dir: /tmp/mapper-downloads
  auto: false
tui:
  theme: catppuccin
`), 0600))

	v := newViper()
	require.NoError(t, ReadFile(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:5000", cfg.Server.URL)
	assert.Equal(t, "/tmp/mapper-downloads", cfg.Download.Dir)
	assert.False(t, cfg.Download.Auto)
	assert.Equal(t, "catppuccin", cfg.TUI.Theme)
}

func TestReadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0600))

	require.Error(t, ReadFile(newViper(), path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		set     map[string]any
		wantErr error
	}{
		{name: "empty url", set: map[string]any{KeyServerURL: ""}, wantErr: common.ErrMissingConfig},
		{name: "bad scheme", set: map[string]any{KeyServerURL: "ftp://host"}, wantErr: common.ErrInvalidConfig},
		{name: "no host", set: map[string]any{KeyServerURL: "http://"}, wantErr: common.ErrInvalidConfig},
		{name: "negative timeout", set: map[string]any{KeyRemoteTimeout: -time.Second}, wantErr: common.ErrInvalidConfig},
		{name: "journal without path", set: map[string]any{KeyJournalPath: ""}, wantErr: common.ErrMissingConfig},
		{name: "bad level", set: map[string]any{KeyLogLevel: "loud"}, wantErr: common.ErrInvalidConfig},
		{name: "bad format", set: map[string]any{KeyLogFormat: "xml"}, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := Load(v)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MAPPER_TEST_DOTENV=from-file\n"), 0600))
	t.Setenv("MAPPER_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("MAPPER_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("MAPPER_TEST_DOTENV"))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("MAPPER_TEST_DIR", "/srv/data")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/exports", filepath.Join(home, "exports")},
		{"$MAPPER_TEST_DIR/out.csv", "/srv/data/out.csv"},
		{"/abs/path", "/abs/path"},
		{"relative/~/path", "relative/~/path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
