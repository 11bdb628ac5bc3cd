package components

import (
	"fmt"

	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/Veraticus/inventory-mapper/internal/tui/themes"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// AccuracySummary shows the score of a check-accuracy run as text and a gauge.
type AccuracySummary struct {
	theme  themes.Theme
	bar    progress.Model
	report pipeline.AccuracyReport
}

// NewAccuracySummary creates a summary for report.
func NewAccuracySummary(theme themes.Theme, report pipeline.AccuracyReport) AccuracySummary {
	bar := progress.New(progress.WithDefaultGradient())
	bar.ShowPercentage = false
	bar.Width = 40

	return AccuracySummary{
		theme:  theme,
		bar:    bar,
		report: report,
	}
}

// Resize limits the gauge to width cells.
func (a *AccuracySummary) Resize(width int) {
	a.bar.Width = max(10, min(width-4, 40))
}

// View renders the summary.
func (a AccuracySummary) View() string {
	score := a.theme.Bold.Render("Accuracy: " + a.report.ScoreText())
	counts := a.theme.Subtitle.Render(fmt.Sprintf("%d/%d correct", a.report.Correct(), len(a.report.Results)))

	percent := a.report.Accuracy / 100
	percent = max(0, min(percent, 1))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, score, "  ", counts),
		a.bar.ViewAs(percent),
	)
}
