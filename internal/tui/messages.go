package tui

import (
	"github.com/Veraticus/inventory-mapper/internal/pipeline"
)

// stageResultMsg carries a finished network call back to the event loop.
type stageResultMsg struct {
	result pipeline.Result
}

type downloadDoneMsg struct {
	err      error
	artifact pipeline.DownloadArtifact
	path     string
}

type exportDoneMsg struct {
	err   error
	path  string
	stage pipeline.Stage
}

// statusMsg replaces the status line.
type statusMsg struct {
	text  string
	isErr bool
}
