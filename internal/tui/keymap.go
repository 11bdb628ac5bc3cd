package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	NextStage key.Binding
	PrevStage key.Binding
	Stage1    key.Binding
	Stage2    key.Binding
	Stage3    key.Binding
	Stage4    key.Binding
	Stage5    key.Binding
	Up        key.Binding
	Down      key.Binding

	// Actions
	Trigger   key.Binding
	Cancel    key.Binding
	Download  key.Binding
	ExportXLS key.Binding
	ExportCSV key.Binding
	EditFiles key.Binding
	NextInput key.Binding
	Blur      key.Binding

	// Application
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextStage: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("Tab/→", "next stage"),
		),
		PrevStage: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("Shift+Tab/←", "previous stage"),
		),
		Stage1: key.NewBinding(key.WithKeys("1"), key.WithHelp("1-5", "jump to stage")),
		Stage2: key.NewBinding(key.WithKeys("2")),
		Stage3: key.NewBinding(key.WithKeys("3")),
		Stage4: key.NewBinding(key.WithKeys("4")),
		Stage5: key.NewBinding(key.WithKeys("5")),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "scroll down"),
		),

		Trigger: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "run stage"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cancel request"),
		),
		Download: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "download report"),
		),
		ExportXLS: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export xlsx"),
		),
		ExportCSV: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "export csv"),
		),
		EditFiles: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "edit file paths"),
		),
		NextInput: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab", "next field"),
		),
		Blur: key.NewBinding(
			key.WithKeys("esc", "enter"),
			key.WithHelp("Esc/Enter", "done editing"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "force quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextStage, k.Trigger, k.EditFiles, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextStage, k.PrevStage, k.Stage1, k.Up, k.Down},
		{k.Trigger, k.Cancel, k.Download, k.EditFiles},
		{k.ExportXLS, k.ExportCSV},
		{k.Help, k.Quit, k.ForceQuit},
	}
}
