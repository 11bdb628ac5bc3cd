package tui

import (
	"context"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/Veraticus/inventory-mapper/internal/storage"
	"github.com/Veraticus/inventory-mapper/internal/tui/themes"
)

// Downloader retrieves a generated file into a local directory.
type Downloader interface {
	Download(ctx context.Context, rawURL, dir string) (string, error)
}

// DownloadJournal records retrievals.
type DownloadJournal interface {
	RecordDownload(ctx context.Context, d storage.Download) error
}

// Config holds TUI configuration.
type Config struct {
	Orchestrator *pipeline.Orchestrator
	Downloader   Downloader
	Journal      DownloadJournal
	Theme        themes.Theme
	DownloadDir  string
	ExportDir    string
	// RecordDir enables frame recording for debugging when set.
	RecordDir       string
	DownloadTimeout time.Duration
	Width           int
	Height          int
	AutoDownload    bool
}

// Option configures the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:           themes.Default,
		DownloadDir:     ".",
		ExportDir:       ".",
		DownloadTimeout: 2 * time.Minute,
		AutoDownload:    true,
	}
}

// WithOrchestrator sets the pipeline orchestrator the TUI drives.
func WithOrchestrator(o *pipeline.Orchestrator) Option {
	return func(c *Config) {
		c.Orchestrator = o
	}
}

// WithDownloader sets the artifact downloader.
func WithDownloader(d Downloader) Option {
	return func(c *Config) {
		c.Downloader = d
	}
}

// WithJournal records downloads in j.
func WithJournal(j DownloadJournal) Option {
	return func(c *Config) {
		c.Journal = j
	}
}

// WithTheme sets the UI theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithDownloadDir sets where retrieved artifacts are saved.
func WithDownloadDir(dir string) Option {
	return func(c *Config) {
		c.DownloadDir = dir
	}
}

// WithExportDir sets where exports are written.
func WithExportDir(dir string) Option {
	return func(c *Config) {
		c.ExportDir = dir
	}
}

// WithAutoDownload toggles retrieval of the upload report after a
// successful upload.
func WithAutoDownload(enabled bool) Option {
	return func(c *Config) {
		c.AutoDownload = enabled
	}
}

// WithRecording writes every frame to dir.
func WithRecording(dir string) Option {
	return func(c *Config) {
		c.RecordDir = dir
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}
