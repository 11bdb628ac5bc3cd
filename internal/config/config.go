// Package config loads mapper settings from flags, the config file, MAPPER_
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyServerURL      = "server.url"
	KeyServerCAFile   = "server.ca_file"
	KeyRemoteTimeout  = "remote.timeout"
	KeyDownloadDir    = "download.dir"
	KeyDownloadAuto   = "download.auto"
	KeyJournalPath    = "journal.path"
	KeyJournalEnabled = "journal.enabled"
	KeyTUITheme       = "tui.theme"
	KeyLogLevel       = "logging.level"
	KeyLogFormat      = "logging.format"
	KeyLogFile        = "logging.file"
	KeyStubAddr       = "stub.addr"
	KeyStubDataDir    = "stub.data_dir"
	KeyStubDelay      = "stub.delay"
	KeyStubTLS        = "stub.tls"
)

// Defaults.
const (
	DefaultServerURL = "http://127.0.0.1:5000"
	DefaultTimeout   = 5 * time.Minute
	DefaultTheme     = "default"
	DefaultStubAddr  = "127.0.0.1:5000"
)

// EnvPrefix is prepended to every environment override, e.g.
// MAPPER_SERVER_URL.
const EnvPrefix = "MAPPER"

// Config is the resolved application configuration.
type Config struct {
	Server   ServerConfig
	Download DownloadConfig
	Journal  JournalConfig
	TUI      TUIConfig
	Logging  LoggingConfig
	Stub     StubConfig
	Timeout  time.Duration
}

// ServerConfig locates the pipeline service.
type ServerConfig struct {
	URL string
	// CAFile is an extra PEM trust root, such as the stub's certificate.
	CAFile string
}

// DownloadConfig controls artifact retrieval.
type DownloadConfig struct {
	Dir  string
	Auto bool
}

// JournalConfig controls the local attempt journal.
type JournalConfig struct {
	Path    string
	Enabled bool
}

// TUIConfig holds interface preferences.
type TUIConfig struct {
	Theme string
}

// LoggingConfig holds slog settings. File is used by the TUI, which cannot
// share the terminal with log output.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// StubConfig configures the local stub service.
type StubConfig struct {
	Addr    string
	DataDir string
	Delay   time.Duration
	TLS     bool
}

// SetDefaults registers default values and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerURL, DefaultServerURL)
	v.SetDefault(KeyRemoteTimeout, DefaultTimeout)
	v.SetDefault(KeyDownloadDir, "~/Downloads")
	v.SetDefault(KeyDownloadAuto, true)
	v.SetDefault(KeyJournalPath, "~/.local/share/mapper/journal.db")
	v.SetDefault(KeyJournalEnabled, true)
	v.SetDefault(KeyTUITheme, DefaultTheme)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyLogFile, "~/.local/state/mapper/mapper.log")
	v.SetDefault(KeyStubAddr, DefaultStubAddr)
	v.SetDefault(KeyStubDataDir, "~/.local/share/mapper/stub")
	v.SetDefault(KeyStubDelay, time.Duration(0))
	v.SetDefault(KeyStubTLS, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none)
// into the process environment. Missing files are ignored; existing
// variables are never overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ReadFile reads cfgFile, or searches ~/.config/mapper and the working
// directory for config.yaml when cfgFile is empty. A missing config file is
// not an error.
func ReadFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(ExpandPath(cfgFile))
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".config", "mapper"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Load resolves a Config from v. Paths are expanded.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			URL:    strings.TrimRight(strings.TrimSpace(v.GetString(KeyServerURL)), "/"),
			CAFile: ExpandPath(v.GetString(KeyServerCAFile)),
		},
		Timeout: v.GetDuration(KeyRemoteTimeout),
		Download: DownloadConfig{
			Dir:  ExpandPath(v.GetString(KeyDownloadDir)),
			Auto: v.GetBool(KeyDownloadAuto),
		},
		Journal: JournalConfig{
			Path:    ExpandPath(v.GetString(KeyJournalPath)),
			Enabled: v.GetBool(KeyJournalEnabled),
		},
		TUI: TUIConfig{
			Theme: v.GetString(KeyTUITheme),
		},
		Logging: LoggingConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
			File:   ExpandPath(v.GetString(KeyLogFile)),
		},
		Stub: StubConfig{
			Addr:    v.GetString(KeyStubAddr),
			DataDir: ExpandPath(v.GetString(KeyStubDataDir)),
			Delay:   v.GetDuration(KeyStubDelay),
			TLS:     v.GetBool(KeyStubTLS),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyServerURL)
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an http(s) URL, got %q", common.ErrInvalidConfig, KeyServerURL, c.Server.URL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: %s must not be negative", common.ErrInvalidConfig, KeyRemoteTimeout)
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyJournalPath)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json", "":
	default:
		return fmt.Errorf("%w: %s %q", common.ErrInvalidConfig, KeyLogFormat, c.Logging.Format)
	}
	return nil
}

// ExpandPath expands a leading ~ and $VAR references.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}
