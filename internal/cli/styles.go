// Package cli renders stage outcomes, attempt phases and match results for
// the mapper commands.
package cli

import (
	"fmt"

	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/charmbracelet/lipgloss"
)

var (
	// AccentColor frames accuracy summaries.
	AccentColor = lipgloss.Color("#7C3AED")
	// SuccessColor marks finished stages and correct matches.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// PendingColor marks in-flight stages and warnings.
	PendingColor = lipgloss.Color("#FFE66D")
	// ErrorColor marks failed stages and incorrect matches.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// InfoColor is used for notes that need no action.
	InfoColor   = lipgloss.Color("#95E1D3")
	SubtleColor = lipgloss.Color("#666666")

	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	PendingStyle = lipgloss.NewStyle().Foreground(PendingColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)

	// HeaderStyle is applied to table header cells.
	HeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	// CellStyle is applied to table body cells.
	CellStyle = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(2)

	boxTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	PendingIcon = "…"
	IdleIcon    = "·"
	ChartIcon   = "📊"
)

// Status column labels of the accuracy table.
const (
	CorrectLabel   = SuccessIcon + " Correct"
	IncorrectLabel = ErrorIcon + " Incorrect"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return PendingStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// PhaseStyle returns the color of a stage phase.
func PhaseStyle(p pipeline.Phase) lipgloss.Style {
	switch p {
	case pipeline.PhaseSuccess:
		return SuccessStyle
	case pipeline.PhaseError:
		return ErrorStyle
	case pipeline.PhasePending:
		return PendingStyle
	default:
		return SubtleStyle
	}
}

// PhaseIcon returns the icon shown next to a stage phase.
func PhaseIcon(p pipeline.Phase) string {
	switch p {
	case pipeline.PhaseSuccess:
		return SuccessIcon
	case pipeline.PhaseError:
		return ErrorIcon
	case pipeline.PhasePending:
		return PendingIcon
	default:
		return IdleIcon
	}
}

// FormatPhase renders a phase name with its icon and color.
func FormatPhase(p pipeline.Phase) string {
	return PhaseStyle(p).Render(PhaseIcon(p) + " " + p.String())
}

// FormatPhaseName is FormatPhase for a phase stored by name, as the journal
// does. Unknown names render as idle.
func FormatPhaseName(name string) string {
	for _, p := range []pipeline.Phase{pipeline.PhasePending, pipeline.PhaseSuccess, pipeline.PhaseError} {
		if p.String() == name {
			return FormatPhase(p)
		}
	}
	return SubtleStyle.Render(IdleIcon + " " + name)
}

// FormatOutcome renders the line printed after a stage settles: the server
// message and, on success, the time taken. Idle and pending stages have no
// outcome and render as "".
func FormatOutcome(st pipeline.OperationState) string {
	switch st.Phase {
	case pipeline.PhaseSuccess:
		line := FormatSuccess(st.Message)
		if elapsed := st.ElapsedText(); elapsed != "" {
			line += SubtleStyle.Render("  Time taken: " + elapsed + " s")
		}
		return line
	case pipeline.PhaseError:
		return FormatError(st.Message)
	default:
		return ""
	}
}

// MatchLabel returns the status column text for an accuracy row.
func MatchLabel(s pipeline.MatchStatus) string {
	if s.IsCorrect() {
		return CorrectLabel
	}
	return IncorrectLabel
}

// MatchStyle returns the status cell color for an accuracy row.
func MatchStyle(s pipeline.MatchStatus) lipgloss.Style {
	if s.IsCorrect() {
		return SuccessStyle
	}
	return ErrorStyle
}

// FormatAccuracy summarizes a report as "87.5%  (7/8 correct)".
func FormatAccuracy(report pipeline.AccuracyReport) string {
	return fmt.Sprintf("%s  (%d/%d correct)", report.ScoreText(), report.Correct(), len(report.Results))
}

// RenderAccuracyBox frames the accuracy summary in a titled box.
func RenderAccuracyBox(report pipeline.AccuracyReport) string {
	return RenderBox(ChartIcon+" Accuracy", FormatAccuracy(report))
}

// RenderBox renders content under a title in a rounded box.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitleStyle.Render(title), content))
}
