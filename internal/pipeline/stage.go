// Package pipeline drives the five remote pipeline stages. It owns one
// OperationState per stage, enforces single-flight submission and turns raw
// service responses into view data. Nothing here renders; the TUI and the CLI
// both sit on top of the Orchestrator.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/Veraticus/inventory-mapper/internal/common"
)

// Stage is one discrete step of the remote pipeline.
type Stage int

// Pipeline stages in navigation order.
const (
	StageUpload Stage = iota
	StagePreprocess
	StageMatch
	StageViewMapped
	StageCheckAccuracy
)

// Stages lists every stage in navigation order.
var Stages = []Stage{
	StageUpload,
	StagePreprocess,
	StageMatch,
	StageViewMapped,
	StageCheckAccuracy,
}

var stageNames = map[Stage]string{
	StageUpload:        "upload",
	StagePreprocess:    "preprocess",
	StageMatch:         "match",
	StageViewMapped:    "view-mapped",
	StageCheckAccuracy: "check-accuracy",
}

var stageTitles = map[Stage]string{
	StageUpload:        "Upload",
	StagePreprocess:    "Preprocess & Embed",
	StageMatch:         "Map Products",
	StageViewMapped:    "View Mapped",
	StageCheckAccuracy: "Check Accuracy",
}

// String returns the stable machine name used by the CLI and the journal.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Title returns the human-readable stage name.
func (s Stage) Title() string {
	if title, ok := stageTitles[s]; ok {
		return title
	}
	return s.String()
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// ParseStage resolves a stage by machine name, case-insensitively.
func ParseStage(name string) (Stage, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range Stages {
		if stageNames[s] == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", common.ErrUnknownStage, name)
}
