package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// StageProgress shows how far a multi-stage run has come.
type StageProgress struct {
	bar *progressbar.ProgressBar
}

// NewStageProgress creates a bar for total stages writing to w.
func NewStageProgress(w io.Writer, total int) *StageProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan][bold]Starting pipeline...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return &StageProgress{bar: bar}
}

// Begin describes the stage about to run.
func (p *StageProgress) Begin(label string) {
	p.bar.Describe(fmt.Sprintf("[cyan][bold]%s[reset]", label))
}

// Done advances the bar by one stage.
func (p *StageProgress) Done() {
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Abort stops the bar without completing it.
func (p *StageProgress) Abort(w io.Writer) {
	if err := p.bar.Exit(); err != nil {
		slog.Debug("Failed to close progress bar", "error", err)
	}
	_, _ = fmt.Fprintln(w)
}
