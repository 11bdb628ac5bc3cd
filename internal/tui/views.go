package tui

import (
	"strings"

	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/charmbracelet/lipgloss"
)

var triggerLabels = map[pipeline.Stage][2]string{
	pipeline.StageUpload:        {"Upload Files", "Processing ..."},
	pipeline.StagePreprocess:    {"Start Preprocessing", "Processing..."},
	pipeline.StageMatch:         {"Start Mapping", "Mapping..."},
	pipeline.StageViewMapped:    {"Fetch Mapped Products", "Fetching..."},
	pipeline.StageCheckAccuracy: {"Upload & Check Accuracy", "Checking..."},
}

var stageHints = map[pipeline.Stage]string{
	pipeline.StageUpload:        "Send the internal and external product lists to the service.",
	pipeline.StagePreprocess:    "Clean both lists and build embeddings.",
	pipeline.StageMatch:         "Map every external product to an internal one.",
	pipeline.StageViewMapped:    "Fetch the mapping results.",
	pipeline.StageCheckAccuracy: "Score the mapping against an answer file.",
}

var inputLabels = [inputCount]string{
	inputInternal: "Internal products CSV",
	inputExternal: "External products CSV",
	inputAnswer:   "Answer file CSV",
}

// TriggerLabel returns the trigger caption for s in its current phase.
func TriggerLabel(s pipeline.Stage, pending bool) string {
	labels := triggerLabels[s]
	if pending {
		return labels[1]
	}
	return labels[0]
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	sections := []string{
		m.theme.Title.Render("Inventory Mapper"),
		m.tabs.View(),
		m.renderStage(m.orch.Active()),
		m.renderStatus(),
		m.help.View(m.keys),
	}
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.width < 80 {
		return content
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(content)
}

func (m Model) renderStage(s pipeline.Stage) string {
	st := m.orch.State(s)

	parts := []string{
		m.theme.Bold.Render(s.Title()),
		m.theme.Subtitle.Render(stageHints[s]),
		"",
	}

	if fields := stageInputs(s); len(fields) > 0 {
		for _, f := range fields {
			parts = append(parts, m.theme.Normal.Render(inputLabels[f]), m.inputs[f].View())
		}
		if !m.editing {
			parts = append(parts, m.theme.Subtitle.Render("press f to edit paths"))
		}
		parts = append(parts, "")
	}

	parts = append(parts, m.renderTrigger(s, st))

	if line := m.renderOutcome(st); line != "" {
		parts = append(parts, "", line)
	}

	if s == pipeline.StageUpload && st.Artifact != nil {
		parts = append(parts, m.renderArtifact(*st.Artifact))
	}

	if tv, ok := m.tables[s]; ok {
		if tv.summary != nil {
			parts = append(parts, "", tv.summary.View())
		}
		parts = append(parts, "", tv.table.View())
	}

	panel := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.width < 80 {
		return panel
	}
	return m.theme.RoundedBox.Width(max(20, m.width-4)).Render(panel)
}

func (m Model) renderTrigger(s pipeline.Stage, st pipeline.OperationState) string {
	if st.Pending() {
		label := m.theme.ButtonBusy.Render(TriggerLabel(s, true))
		return lipgloss.JoinHorizontal(lipgloss.Center, label, " ", m.spinner.View(), m.theme.Subtitle.Render(" x to cancel"))
	}
	return m.theme.Button.Render(TriggerLabel(s, false))
}

func (m Model) renderOutcome(st pipeline.OperationState) string {
	switch st.Phase {
	case pipeline.PhaseSuccess:
		line := m.theme.StatusSuccess.Render(st.Message)
		if elapsed := st.ElapsedText(); elapsed != "" {
			line += m.theme.Subtitle.Render("  Time taken: " + elapsed + " s")
		}
		return line
	case pipeline.PhaseError:
		return m.theme.StatusError.Render(st.Message)
	default:
		return ""
	}
}

func (m Model) renderArtifact(a pipeline.DownloadArtifact) string {
	lines := []string{
		m.theme.Normal.Render("Report: ") + m.theme.Code.Render(a.FileName),
		m.theme.Subtitle.Render(a.DerivedURL),
	}
	if m.lastDownload != "" {
		lines = append(lines, m.theme.Subtitle.Render("Saved to "+m.lastDownload))
	}
	lines = append(lines, m.theme.Subtitle.Render("press d to download again"))
	return strings.Join(lines, "\n")
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return m.theme.StatusError.Render(m.status)
	}
	return m.theme.StatusInfo.Render(m.status)
}
