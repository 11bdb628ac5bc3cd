package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/pipeline"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Recorder captures TUI state changes and renders for debugging.
type Recorder struct {
	logFile  *os.File
	frameDir string
	frameNum int
	enabled  bool
}

// NewRecorder creates a recorder writing under dir. An empty dir disables it.
func NewRecorder(dir string) *Recorder {
	if dir == "" {
		return &Recorder{}
	}

	recordDir := filepath.Join(dir, fmt.Sprintf("tui-record-%d", time.Now().Unix()))
	if err := os.MkdirAll(recordDir, 0750); err != nil {
		return &Recorder{}
	}

	logFile, err := os.Create(filepath.Join(recordDir, "tui.log")) // #nosec G304 -- constructed path
	if err != nil {
		return &Recorder{}
	}

	r := &Recorder{
		enabled:  true,
		logFile:  logFile,
		frameDir: recordDir,
	}

	r.Log("TUI Recorder started at %s", recordDir)
	return r
}

// Dir returns the recording directory, or "" when disabled.
func (r *Recorder) Dir() string {
	return r.frameDir
}

// RecordState captures the current state.
func (r *Recorder) RecordState(m Model, msg tea.Msg) {
	if r == nil || !r.enabled {
		return
	}

	// Spinner ticks would drown everything else.
	if _, ok := msg.(spinner.TickMsg); ok {
		return
	}

	r.frameNum++
	r.Log("\n=== Frame %d ===", r.frameNum)
	r.Log("Time: %s", time.Now().Format("15:04:05.000"))
	r.Log("Message Type: %T", msg)
	r.Log("Active: %s", m.orch.Active())
	for _, s := range pipeline.Stages {
		st := m.orch.State(s)
		r.Log("  %-15s %-8s %s", s, st.Phase, st.Message)
	}

	view := m.View()
	framePath := filepath.Join(r.frameDir, fmt.Sprintf("frame-%04d.txt", r.frameNum))
	if err := os.WriteFile(framePath, []byte(view), 0600); err != nil {
		r.Log("Error saving frame: %v", err)
	}
}

// Log writes to the log file.
func (r *Recorder) Log(format string, args ...any) {
	if r == nil || !r.enabled || r.logFile == nil {
		return
	}

	if _, err := fmt.Fprintf(r.logFile, format+"\n", args...); err != nil {
		return
	}
	_ = r.logFile.Sync()
}

// Close closes the recorder.
func (r *Recorder) Close() {
	if r == nil || r.logFile == nil {
		return
	}
	r.Log("Recording complete. %d frames captured.", r.frameNum)
	_ = r.logFile.Close()
}
