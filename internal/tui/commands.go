package tui

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/export"
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/Veraticus/inventory-mapper/internal/storage"
	tea "github.com/charmbracelet/bubbletea"
)

// runTicket performs the network call off the event loop.
func runTicket(t *pipeline.Ticket) tea.Cmd {
	return func() tea.Msg {
		return stageResultMsg{result: t.Run()}
	}
}

func statusCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// downloadArtifact saves a into the download directory and journals the
// attempt.
func (m Model) downloadArtifact(a pipeline.DownloadArtifact) tea.Cmd {
	if m.config.Downloader == nil {
		return statusCmd("Downloads are not configured", true)
	}

	parent := m.ctx
	downloader := m.config.Downloader
	journal := m.config.Journal
	dir := m.config.DownloadDir
	timeout := m.config.DownloadTimeout

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		path, err := downloader.Download(ctx, a.DerivedURL, dir)
		if journal != nil {
			entry := storage.Download{
				DownloadedAt: time.Now(),
				FileName:     a.FileName,
				SourceURL:    a.DerivedURL,
				LocalPath:    path,
			}
			if err != nil {
				entry.Error = err.Error()
			}
			// The download context may already be spent.
			jctx, jcancel := context.WithTimeout(context.Background(), 5*time.Second)
			if jErr := journal.RecordDownload(jctx, entry); jErr != nil {
				slog.Warn("Failed to journal download", "file", a.FileName, "error", jErr)
			}
			jcancel()
		}

		return downloadDoneMsg{artifact: a, path: path, err: err}
	}
}

// exportStage writes the active stage's results to a timestamped file.
func (m Model) exportStage(s pipeline.Stage, ext string) tea.Cmd {
	st := m.orch.State(s)
	dir := m.config.ExportDir

	switch {
	case s == pipeline.StageViewMapped && len(st.Records) > 0:
		records := st.Records
		return func() tea.Msg {
			path := filepath.Join(dir, export.DefaultName("mapped_products", ext, time.Now()))
			return exportDoneMsg{stage: s, path: path, err: writeExport(path, func() error {
				return export.WriteRecords(path, records)
			})}
		}
	case s == pipeline.StageCheckAccuracy && st.Accuracy != nil:
		report := *st.Accuracy
		return func() tea.Msg {
			path := filepath.Join(dir, export.DefaultName("accuracy_report", ext, time.Now()))
			return exportDoneMsg{stage: s, path: path, err: writeExport(path, func() error {
				return export.WriteAccuracy(path, report)
			})}
		}
	default:
		return statusCmd("Nothing to export on "+s.Title(), true)
	}
}

func writeExport(path string, write func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return write()
}
