package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/inventory-mapper/internal/common"
	"github.com/Veraticus/inventory-mapper/internal/remote"
	"github.com/google/uuid"
)

// DefaultTimeout bounds a single attempt when no timeout is configured.
const DefaultTimeout = 5 * time.Minute

// Sender issues requests against the pipeline service.
type Sender interface {
	Send(ctx context.Context, req remote.Request) (remote.Response, error)
}

// Recorder receives every finished attempt. Implementations must not block
// for long; they run on the caller's goroutine.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Entry describes a finished attempt.
type Entry struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Elapsed    *float64
	AttemptID  string
	Message    string
	Stage      Stage
	Phase      Phase
}

// Ticket is an issued attempt. Run performs the network call and is safe to
// call from any goroutine; it never touches orchestrator state.
type Ticket struct {
	ctx       context.Context
	sender    Sender
	cancel    context.CancelFunc
	AttemptID string
	Request   remote.Request
	Stage     Stage
}

// Result is the raw outcome of Ticket.Run.
type Result struct {
	Err       error
	AttemptID string
	Response  remote.Response
	Stage     Stage
}

// Run sends the ticket's request.
func (t *Ticket) Run() Result {
	resp, err := t.sender.Send(t.ctx, t.Request)
	return Result{
		Stage:     t.Stage,
		AttemptID: t.AttemptID,
		Response:  resp,
		Err:       err,
	}
}

// Completion reports how a Result was applied.
type Completion struct {
	// AutoRetrieve is set once per successful upload that produced an
	// artifact. The caller performs the retrieval.
	AutoRetrieve *DownloadArtifact
	State        OperationState
	Stage        Stage
	// Applied is false when the result belonged to an abandoned attempt.
	Applied bool
}

// Orchestrator sequences the pipeline stages.
//
// All methods except Ticket.Run must be called from a single goroutine (the
// UI event loop or the CLI command).
type Orchestrator struct {
	sender      Sender
	recorder    Recorder
	controllers map[Stage]Controller
	states      map[Stage]*OperationState
	tickets     map[Stage]*Ticket
	now         func() time.Time
	newID       func() string
	timeout     time.Duration
	active      Stage
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout bounds every attempt. Zero or negative disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithRecorder attaches an attempt recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithIDGenerator replaces the attempt id source.
func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) {
		o.newID = gen
	}
}

// WithControllers replaces the stage controllers.
func WithControllers(controllers map[Stage]Controller) Option {
	return func(o *Orchestrator) {
		o.controllers = controllers
	}
}

// New creates an orchestrator. downloadBase is the service root used to
// derive download links.
func New(sender Sender, downloadBase string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sender:      sender,
		controllers: NewControllers(downloadBase),
		states:      make(map[Stage]*OperationState, len(Stages)),
		tickets:     make(map[Stage]*Ticket, len(Stages)),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
		timeout:     DefaultTimeout,
		active:      StageUpload,
	}

	for _, opt := range opts {
		opt(o)
	}

	for _, s := range Stages {
		o.states[s] = &OperationState{}
	}

	return o
}

// Active returns the selected stage.
func (o *Orchestrator) Active() Stage {
	return o.active
}

// Select makes s the active stage. In-flight requests of other stages keep
// running and their state is untouched.
func (o *Orchestrator) Select(s Stage) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", common.ErrUnknownStage, int(s))
	}
	o.active = s
	return nil
}

// Next selects the following stage, wrapping around.
func (o *Orchestrator) Next() Stage {
	o.active = Stages[(int(o.active)+1)%len(Stages)]
	return o.active
}

// Prev selects the preceding stage, wrapping around.
func (o *Orchestrator) Prev() Stage {
	o.active = Stages[(int(o.active)-1+len(Stages))%len(Stages)]
	return o.active
}

// State returns a snapshot of stage s.
func (o *Orchestrator) State(s Stage) OperationState {
	if st, ok := o.states[s]; ok {
		return *st
	}
	return OperationState{}
}

// TriggerEnabled reports whether stage s may start a new attempt.
func (o *Orchestrator) TriggerEnabled(s Stage) bool {
	return o.State(s).TriggerEnabled()
}

// Artifact returns the download artifact of the last successful upload. A
// rejected upload trigger keeps it; a new upload attempt discards it.
func (o *Orchestrator) Artifact() (DownloadArtifact, bool) {
	st := o.State(StageUpload)
	if st.Artifact == nil {
		return DownloadArtifact{}, false
	}
	return *st.Artifact, true
}

// Start validates inputs and issues a new attempt for stage s.
//
// It returns common.ErrInFlight while s is pending and a *ValidationError
// when a precondition fails; in both cases nothing is sent. A validation
// failure is recorded in the stage's state.
func (o *Orchestrator) Start(ctx context.Context, s Stage, in Inputs) (*Ticket, error) {
	ctrl, ok := o.controllers[s]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownStage, s)
	}
	st := o.states[s]

	if st.Pending() {
		return nil, fmt.Errorf("%s: %w", s, common.ErrInFlight)
	}

	req, err := ctrl.Prepare(in)
	if err != nil {
		var vErr *ValidationError
		msg := ctrl.FailureMessage(err)
		if errors.As(err, &vErr) {
			msg = vErr.Message
		}
		_ = st.Reject(msg)
		o.record(s, *st, time.Time{})
		slog.Debug("Rejected stage input", "stage", s.String(), "reason", msg)
		return nil, err
	}

	id := o.newID()
	if err := st.Begin(id, o.now()); err != nil {
		return nil, fmt.Errorf("%s: %w", s, err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	var cancel context.CancelFunc
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	t := &Ticket{
		ctx:       ctx,
		cancel:    cancel,
		sender:    o.sender,
		Stage:     s,
		AttemptID: id,
		Request:   req,
	}
	o.tickets[s] = t

	slog.Info("Started stage", "stage", s.String(), "attempt", id)
	return t, nil
}

// Complete applies a Result. Results of abandoned attempts are dropped.
func (o *Orchestrator) Complete(r Result) Completion {
	st, ok := o.states[r.Stage]
	if !ok {
		return Completion{Stage: r.Stage}
	}
	if !st.Pending() || st.AttemptID != r.AttemptID {
		slog.Debug("Dropping stale result", "stage", r.Stage.String(), "attempt", r.AttemptID)
		return Completion{Stage: r.Stage, State: *st}
	}

	o.release(r.Stage)
	ctrl := o.controllers[r.Stage]

	if r.Err != nil {
		st.Fail(r.AttemptID, ctrl.FailureMessage(r.Err))
		common.LogError(r.Err, "Stage failed", common.Fields{"stage": r.Stage.String(), "attempt": r.AttemptID})
		o.record(r.Stage, *st, st.StartedAt)
		return Completion{Stage: r.Stage, State: *st, Applied: true}
	}

	out, err := ctrl.Interpret(r.Response)
	if err != nil {
		st.Fail(r.AttemptID, ctrl.FailureMessage(err))
		common.LogError(err, "Stage response rejected", common.Fields{"stage": r.Stage.String(), "attempt": r.AttemptID})
		o.record(r.Stage, *st, st.StartedAt)
		return Completion{Stage: r.Stage, State: *st, Applied: true}
	}

	st.Succeed(r.AttemptID, out, o.now())
	common.LogInfo("Stage succeeded", common.Fields{
		"stage":   r.Stage.String(),
		"attempt": r.AttemptID,
		"elapsed": st.ElapsedText(),
	})
	o.record(r.Stage, *st, st.StartedAt)

	c := Completion{Stage: r.Stage, State: *st, Applied: true}
	if r.Stage == StageUpload && st.Artifact != nil {
		artifact := *st.Artifact
		c.AutoRetrieve = &artifact
	}
	return c
}

// Cancel aborts the pending attempt of stage s. Its eventual result is
// dropped. It reports whether anything was cancelled.
func (o *Orchestrator) Cancel(s Stage) bool {
	st, ok := o.states[s]
	if !ok || !st.Pending() {
		return false
	}

	id := st.AttemptID
	o.release(s)
	st.Fail(id, o.controllers[s].FailureMessage(errors.New(MsgRequestCancelled)))
	o.record(s, *st, st.StartedAt)
	slog.Info("Cancelled stage", "stage", s.String(), "attempt", id)
	return true
}

// CancelAll aborts every pending attempt.
func (o *Orchestrator) CancelAll() {
	for _, s := range Stages {
		o.Cancel(s)
	}
}

// Run starts stage s, waits for the response and applies it. It is the
// blocking form used by the CLI.
func (o *Orchestrator) Run(ctx context.Context, s Stage, in Inputs) (Completion, error) {
	t, err := o.Start(ctx, s, in)
	if err != nil {
		return Completion{Stage: s, State: o.State(s)}, err
	}
	return o.Complete(t.Run()), nil
}

func (o *Orchestrator) release(s Stage) {
	if t, ok := o.tickets[s]; ok {
		t.cancel()
		delete(o.tickets, s)
	}
}

func (o *Orchestrator) record(s Stage, st OperationState, started time.Time) {
	if o.recorder == nil {
		return
	}

	entry := Entry{
		AttemptID:  st.AttemptID,
		Stage:      s,
		Phase:      st.Phase,
		Message:    st.Message,
		Elapsed:    st.Elapsed,
		StartedAt:  started,
		FinishedAt: o.now(),
	}
	if entry.AttemptID == "" {
		entry.AttemptID = o.newID()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.recorder.Record(ctx, entry); err != nil {
		slog.Warn("Failed to record attempt", "stage", s.String(), "error", err)
	}
}
