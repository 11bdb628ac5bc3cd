package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/inventory-mapper/internal/tui"
	"github.com/Veraticus/inventory-mapper/internal/tui/themes"
	"github.com/spf13/cobra"
)

func tuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive pipeline console",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
	cmd.Flags().String("record", "", "write every rendered frame under this directory (debugging)")
	cmd.Flags().String("export-dir", ".", "directory for exports made from the console")
	return cmd
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	// The console owns the terminal; logs go to a file.
	logFile, err := openLogFile(s.cfg.Logging.File)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()
	if err := setupLogging(logFile); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.Info("Starting console", "server", s.cfg.Server.URL)

	opts := []tui.Option{
		tui.WithOrchestrator(s.orch),
		tui.WithDownloader(s.client),
		tui.WithTheme(themes.GetTheme(s.cfg.TUI.Theme)),
		tui.WithDownloadDir(s.cfg.Download.Dir),
		tui.WithAutoDownload(s.cfg.Download.Auto),
	}
	if s.journal != nil {
		opts = append(opts, tui.WithJournal(s.journal))
	}
	if dir, _ := cmd.Flags().GetString("export-dir"); dir != "" {
		opts = append(opts, tui.WithExportDir(dir))
	}
	if dir, _ := cmd.Flags().GetString("record"); dir != "" {
		opts = append(opts, tui.WithRecording(dir))
	}

	return tui.Run(ctx, opts...)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600) // #nosec G304 -- configured path
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
