package pipeline

import (
	"fmt"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/common"
)

// Phase is the lifecycle position of a stage's current attempt.
type Phase int

// Phases.
const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// Outcome is the stage-specific result of a successful attempt.
type Outcome struct {
	Accuracy *AccuracyReport
	Artifact *DownloadArtifact
	Message  string
	Records  []MappedProductRecord
	// Empty marks a valid response with no content to show.
	Empty bool
}

// OperationState tracks one stage's request lifecycle.
//
// No phase is terminal. A new attempt may start from any phase except
// PhasePending.
type OperationState struct {
	StartedAt time.Time
	Elapsed   *float64
	Accuracy  *AccuracyReport
	Artifact  *DownloadArtifact
	Message   string
	AttemptID string
	Records   []MappedProductRecord
	Phase     Phase
	Empty     bool
}

// Pending reports whether a request is in flight.
func (s OperationState) Pending() bool {
	return s.Phase == PhasePending
}

// TriggerEnabled reports whether the stage's trigger control accepts input.
// It is disabled exactly while a request is pending.
func (s OperationState) TriggerEnabled() bool {
	return !s.Pending()
}

// ElapsedText formats the elapsed time with two decimals, or "" when unset.
func (s OperationState) ElapsedText() string {
	if s.Elapsed == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *s.Elapsed)
}

// Begin moves the state into PhasePending for attempt id.
func (s *OperationState) Begin(id string, now time.Time) error {
	if s.Pending() {
		return common.ErrInFlight
	}

	s.clear()
	s.Phase = PhasePending
	s.AttemptID = id
	s.StartedAt = now
	return nil
}

// Succeed applies out if id is the pending attempt. It reports whether the
// result was applied.
func (s *OperationState) Succeed(id string, out Outcome, now time.Time) bool {
	if !s.current(id) {
		return false
	}

	elapsed := now.Sub(s.StartedAt).Seconds()
	s.Phase = PhaseSuccess
	s.Message = out.Message
	s.Elapsed = &elapsed
	s.Records = out.Records
	s.Accuracy = out.Accuracy
	s.Artifact = out.Artifact
	s.Empty = out.Empty
	return true
}

// Fail moves the pending attempt id into PhaseError.
func (s *OperationState) Fail(id, message string) bool {
	if !s.current(id) {
		return false
	}

	s.Phase = PhaseError
	s.Message = message
	return true
}

// Reject records a local validation failure. No attempt is started, so
// results of the previous attempt are kept.
func (s *OperationState) Reject(message string) error {
	if s.Pending() {
		return common.ErrInFlight
	}

	s.Phase = PhaseError
	s.Message = message
	return nil
}

func (s *OperationState) current(id string) bool {
	return s.Pending() && s.AttemptID == id
}

func (s *OperationState) clear() {
	s.Message = ""
	s.Elapsed = nil
	s.Records = nil
	s.Accuracy = nil
	s.Artifact = nil
	s.Empty = false
	s.AttemptID = ""
	s.StartedAt = time.Time{}
}
