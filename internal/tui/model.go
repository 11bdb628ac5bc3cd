// Package tui is the interactive pipeline console. It renders one tab per
// stage and drives the pipeline.Orchestrator from the bubbletea event loop;
// network calls run as tea.Cmds and come back as messages.
package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Veraticus/inventory-mapper/internal/common"
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/Veraticus/inventory-mapper/internal/tui/components"
	"github.com/Veraticus/inventory-mapper/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// File input slots.
const (
	inputInternal = iota
	inputExternal
	inputAnswer
	inputCount
)

// Model is the main TUI model.
type Model struct {
	ctx          context.Context
	orch         *pipeline.Orchestrator
	recorder     *Recorder
	tables       map[pipeline.Stage]*tableView
	config       Config
	theme        themes.Theme
	status       string
	lastDownload string
	inputs       []textinput.Model
	keys         KeyMap
	help         help.Model
	spinner      spinner.Model
	tabs         components.TabBar
	focus        int
	width        int
	height       int
	statusErr    bool
	editing      bool
	ticking      bool
	showHelp     bool
	ready        bool
}

// tableView is the rendered result of one attempt.
type tableView struct {
	summary   *components.AccuracySummary
	attemptID string
	table     components.ResultsTable
}

func newModel(ctx context.Context, cfg Config) Model {
	if ctx == nil {
		ctx = context.Background()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = cfg.Theme.StatusPending

	placeholders := [inputCount]string{
		inputInternal: "path/to/internal_products.csv",
		inputExternal: "path/to/external_products.csv",
		inputAnswer:   "path/to/answers.csv",
	}
	inputs := make([]textinput.Model, inputCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 4096
		ti.Width = 60
		ti.Prompt = "› "
		inputs[i] = ti
	}

	m := Model{
		ctx:      ctx,
		orch:     cfg.Orchestrator,
		config:   cfg,
		theme:    cfg.Theme,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  s,
		tabs:     components.NewTabBar(cfg.Theme),
		inputs:   inputs,
		focus:    -1,
		tables:   make(map[pipeline.Stage]*tableView),
		width:    cfg.Width,
		height:   cfg.Height,
		ready:    cfg.Width > 0,
		recorder: NewRecorder(cfg.RecordDir),
	}
	m.syncTabs()
	m.tabs.Resize(m.width)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		textinput.Blink,
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.recorder.RecordState(next, msg)
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			m.orch.CancelAll()
			return m, tea.Quit
		}
		if m.editing {
			return m.handleEditingKeys(msg)
		}
		return m.handleKeys(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case spinner.TickMsg:
		if !m.anyPending() {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stageResultMsg:
		return m.handleResult(msg)

	case downloadDoneMsg:
		if msg.err != nil {
			m.setStatus("Download of "+msg.artifact.FileName+" failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.lastDownload = msg.path
		m.setStatus("Saved "+msg.artifact.FileName+" to "+msg.path, false)
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.setStatus("Export failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setStatus("Exported "+msg.stage.Title()+" to "+msg.path, false)
		return m, nil

	case statusMsg:
		m.setStatus(msg.text, msg.isErr)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	active := m.orch.Active()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.orch.CancelAll()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.NextStage):
		m.orch.Next()
		m.syncTabs()
		return m, nil

	case key.Matches(msg, m.keys.PrevStage):
		m.orch.Prev()
		m.syncTabs()
		return m, nil

	case key.Matches(msg, m.keys.Stage1, m.keys.Stage2, m.keys.Stage3, m.keys.Stage4, m.keys.Stage5):
		idx := int(msg.Runes[0] - '1')
		if err := m.orch.Select(pipeline.Stages[idx]); err != nil {
			slog.Debug("Ignoring stage selection", "error", err)
		}
		m.syncTabs()
		return m, nil

	case key.Matches(msg, m.keys.Trigger):
		return m.trigger(active)

	case key.Matches(msg, m.keys.Cancel):
		if m.orch.Cancel(active) {
			m.refreshStage(active)
			m.setStatus("Cancelled "+active.Title(), false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Download):
		artifact, ok := m.orch.Artifact()
		if !ok {
			m.setStatus("Nothing to download yet. Upload files first.", true)
			return m, nil
		}
		return m, m.downloadArtifact(artifact)

	case key.Matches(msg, m.keys.ExportXLS):
		return m, m.exportStage(active, "xlsx")

	case key.Matches(msg, m.keys.ExportCSV):
		return m, m.exportStage(active, "csv")

	case key.Matches(msg, m.keys.EditFiles):
		if fields := stageInputs(active); len(fields) > 0 {
			m.editing = true
			m.focusInput(fields[0])
			return m, textinput.Blink
		}
		return m, nil

	case key.Matches(msg, m.keys.Up, m.keys.Down):
		if tv, ok := m.tables[active]; ok {
			var cmd tea.Cmd
			tv.table, cmd = tv.table.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m Model) handleEditingKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	fields := stageInputs(m.orch.Active())

	switch {
	case key.Matches(msg, m.keys.Blur):
		m.editing = false
		m.focusInput(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextInput):
		pos := 0
		for i, f := range fields {
			if f == m.focus {
				pos = (i + 1) % len(fields)
			}
		}
		m.focusInput(fields[pos])
		return m, textinput.Blink
	}

	if m.focus < 0 || m.focus >= len(m.inputs) {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// trigger starts the active stage. A disabled trigger ignores the key.
func (m Model) trigger(s pipeline.Stage) (Model, tea.Cmd) {
	if !m.orch.TriggerEnabled(s) {
		return m, nil
	}

	t, err := m.orch.Start(m.ctx, s, m.stageInputs())
	if err != nil {
		if errors.Is(err, common.ErrInFlight) {
			return m, nil
		}
		// Validation failures are already in the stage state.
		m.refreshStage(s)
		return m, nil
	}

	m.refreshStage(s)
	m.setStatus("", false)

	cmds := []tea.Cmd{runTicket(t)}
	if !m.ticking {
		m.ticking = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleResult(msg stageResultMsg) (Model, tea.Cmd) {
	c := m.orch.Complete(msg.result)
	if !c.Applied {
		return m, nil
	}
	m.refreshStage(c.Stage)

	if c.AutoRetrieve != nil && m.config.AutoDownload {
		return m, m.downloadArtifact(*c.AutoRetrieve)
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.help.Width = msg.Width
	m.tabs.Resize(msg.Width)

	for _, tv := range m.tables {
		m.sizeTable(tv)
	}
	return m
}

func (m Model) sizeTable(tv *tableView) {
	width := max(40, m.width-10)
	// Header, tabs, controls, status and help take roughly 14 rows.
	height := max(5, m.height-14)
	if tv.summary != nil {
		height -= 3
		tv.summary.Resize(width)
	}
	tv.table.Resize(width, height)
}

// refreshStage rebuilds the derived view of stage s from its state.
func (m *Model) refreshStage(s pipeline.Stage) {
	st := m.orch.State(s)
	m.tabs.SetPhase(s, st.Phase)

	if st.Pending() {
		delete(m.tables, s)
		return
	}
	if tv, ok := m.tables[s]; ok && tv.attemptID == st.AttemptID {
		return
	}

	switch {
	case s == pipeline.StageViewMapped && len(st.Records) > 0:
		tv := &tableView{attemptID: st.AttemptID, table: components.NewRecordsTable(m.theme, st.Records)}
		m.sizeTable(tv)
		m.tables[s] = tv
	case s == pipeline.StageCheckAccuracy && st.Accuracy != nil:
		summary := components.NewAccuracySummary(m.theme, *st.Accuracy)
		tv := &tableView{
			attemptID: st.AttemptID,
			table:     components.NewAccuracyTable(m.theme, *st.Accuracy),
			summary:   &summary,
		}
		m.sizeTable(tv)
		m.tables[s] = tv
	default:
		delete(m.tables, s)
	}
}

func (m *Model) syncTabs() {
	m.tabs.SetActive(m.orch.Active())
	for _, s := range pipeline.Stages {
		m.tabs.SetPhase(s, m.orch.State(s).Phase)
	}
}

func (m *Model) focusInput(idx int) {
	m.focus = idx
	for i := range m.inputs {
		if i == idx {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m Model) anyPending() bool {
	for _, s := range pipeline.Stages {
		if m.orch.State(s).Pending() {
			return true
		}
	}
	return false
}

func (m Model) stageInputs() pipeline.Inputs {
	return pipeline.Inputs{
		InternalFile: m.inputs[inputInternal].Value(),
		ExternalFile: m.inputs[inputExternal].Value(),
		AnswerFile:   m.inputs[inputAnswer].Value(),
	}
}

// stageInputs lists the file inputs stage s reads.
func stageInputs(s pipeline.Stage) []int {
	switch s {
	case pipeline.StageUpload:
		return []int{inputInternal, inputExternal}
	case pipeline.StageCheckAccuracy:
		return []int{inputAnswer}
	default:
		return nil
	}
}
