package components

import (
	"fmt"
	"strings"

	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/Veraticus/inventory-mapper/internal/tui/themes"
	"github.com/charmbracelet/lipgloss"
)

// PhaseMarker is the glyph shown next to a stage title for its phase.
func PhaseMarker(p pipeline.Phase) string {
	switch p {
	case pipeline.PhasePending:
		return "…"
	case pipeline.PhaseSuccess:
		return "✓"
	case pipeline.PhaseError:
		return "✗"
	default:
		return ""
	}
}

// TabBar renders the stage navigation row.
type TabBar struct {
	theme   themes.Theme
	phases  map[pipeline.Stage]pipeline.Phase
	active  pipeline.Stage
	width   int
	compact bool
}

// NewTabBar creates a tab bar.
func NewTabBar(theme themes.Theme) TabBar {
	return TabBar{
		theme:  theme,
		phases: make(map[pipeline.Stage]pipeline.Phase, len(pipeline.Stages)),
	}
}

// SetActive marks s as the selected tab.
func (t *TabBar) SetActive(s pipeline.Stage) {
	t.active = s
}

// SetPhase records the phase shown for s.
func (t *TabBar) SetPhase(s pipeline.Stage, p pipeline.Phase) {
	t.phases[s] = p
}

// Resize sets the available width. Narrow widths drop the titles.
func (t *TabBar) Resize(width int) {
	t.width = width
	t.compact = width > 0 && width < 80
}

// View renders the tabs.
func (t TabBar) View() string {
	tabs := make([]string, 0, len(pipeline.Stages))
	for i, s := range pipeline.Stages {
		label := fmt.Sprintf("%d %s", i+1, s.Title())
		if t.compact {
			label = fmt.Sprintf("%d", i+1)
		}
		if marker := PhaseMarker(t.phases[s]); marker != "" {
			label += " " + marker
		}

		style := t.theme.Tab
		if s == t.active {
			style = t.theme.ActiveTab
		}
		tabs = append(tabs, style.Render(label))
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if t.width > 0 {
		rule := lipgloss.NewStyle().Foreground(t.theme.Border).Render(strings.Repeat("─", t.width))
		return lipgloss.JoinVertical(lipgloss.Left, row, rule)
	}
	return row
}
