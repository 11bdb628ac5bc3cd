package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/inventory-mapper/internal/certs"
	"github.com/Veraticus/inventory-mapper/internal/cli"
	"github.com/Veraticus/inventory-mapper/internal/common"
	"github.com/Veraticus/inventory-mapper/internal/config"
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/Veraticus/inventory-mapper/internal/remote"
	"github.com/Veraticus/inventory-mapper/internal/storage"
	"github.com/spf13/viper"
)

var errStageFailed = errors.New("stage failed")

// session bundles what every pipeline command needs.
type session struct {
	cfg     *config.Config
	client  *remote.Client
	orch    *pipeline.Orchestrator
	journal *storage.SQLiteStorage
}

// newSession loads configuration and wires the client, journal and
// orchestrator. Close must be called when done.
func newSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	clientOpts := []remote.Option{remote.WithUserAgent("mapper/" + version)}
	if cfg.Server.CAFile != "" {
		pool, err := certs.LoadPool(cfg.Server.CAFile)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, remote.WithRootCAs(pool))
	}

	client, err := remote.New(cfg.Server.URL, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s := &session{cfg: cfg, client: client}

	opts := []pipeline.Option{pipeline.WithTimeout(cfg.Timeout)}
	if cfg.Journal.Enabled {
		journal, err := storage.Open(ctx, cfg.Journal.Path)
		if err != nil {
			// The journal is informational; the pipeline works without it.
			slog.Warn("Journal unavailable, continuing without it", "path", cfg.Journal.Path, "error", err)
		} else {
			s.journal = journal
			opts = append(opts, pipeline.WithRecorder(journal))
		}
	}

	s.orch = pipeline.New(client, client.BaseURL(), opts...)
	return s, nil
}

// Close releases the journal.
func (s *session) Close() {
	if s.journal == nil {
		return
	}
	if err := s.journal.Close(); err != nil {
		slog.Warn("Failed to close journal", "error", err)
	}
}

// download fetches a into the configured download directory and journals
// the attempt.
func (s *session) download(ctx context.Context, a pipeline.DownloadArtifact) (string, error) {
	path, err := s.client.Download(ctx, a.DerivedURL, s.cfg.Download.Dir)

	if s.journal != nil {
		entry := storage.Download{FileName: a.FileName, SourceURL: a.DerivedURL, LocalPath: path}
		if err != nil {
			entry.Error = err.Error()
		}
		if jErr := s.journal.RecordDownload(context.WithoutCancel(ctx), entry); jErr != nil {
			slog.Warn("Failed to journal download", "file", a.FileName, "error", jErr)
		}
	}
	return path, err
}

// runStage runs s to completion and prints its outcome. A failed stage is
// returned as an error carrying the operator-facing message.
func (s *session) runStage(ctx context.Context, w io.Writer, stage pipeline.Stage, in pipeline.Inputs) (pipeline.Completion, error) {
	c, err := s.orch.Run(ctx, stage, in)
	if err != nil && !errors.As(err, new(*pipeline.ValidationError)) {
		return c, err
	}
	return c, printOutcome(w, c.State)
}

func printOutcome(w io.Writer, st pipeline.OperationState) error {
	switch st.Phase {
	case pipeline.PhaseSuccess:
		writeLine(w, cli.FormatOutcome(st))
		return nil
	case pipeline.PhaseError:
		writeLine(w, cli.FormatOutcome(st))
		return common.NewUserError(st.Message, errStageFailed)
	default:
		return fmt.Errorf("%w: stage ended in phase %s", common.ErrUnexpectedResponse, st.Phase)
	}
}

func writeLine(w io.Writer, line string) {
	if _, err := fmt.Fprintln(w, line); err != nil {
		slog.Error("failed to write output", "error", err)
	}
}
