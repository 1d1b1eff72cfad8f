package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"interviewcoach/internal/errors"
	"interviewcoach/internal/events"
	"interviewcoach/internal/oracle"
	"interviewcoach/internal/storage"
	"interviewcoach/internal/transcript"
)

// Config is everything the controller knows about the candidate and the
// call. It is fixed for the lifetime of a session.
type Config struct {
	Name        string
	UserID      string
	InterviewID string
	FeedbackID  string
	Mode        Mode
	Language    string
	Questions   []string
	WorkflowID  string

	PauseThreshold float64
	HomePath       string
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeInterview
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.PauseThreshold <= 0 {
		c.PauseThreshold = transcript.DefaultPauseThreshold
	}
	if c.HomePath == "" {
		c.HomePath = "/"
	}
	return c
}

// FeedbackPath is the page showing stored feedback for an interview.
func FeedbackPath(interviewID string) string {
	return "/interview/" + interviewID + "/feedback"
}

// Transport is the hosted voice call. Subscribe registers the single event
// handler and returns the function that removes it.
type Transport interface {
	Start(ctx context.Context, req StartRequest) error
	Stop() error
	Subscribe(handler func(Event)) (unsubscribe func())
}

// FeedbackStore persists feedback for a known interview and user.
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, params storage.CreateFeedbackParams) (*storage.CreateFeedbackResult, error)
}

// Navigator moves the candidate to another page.
type Navigator interface {
	Navigate(path string)
}

// Observer is told about every visible change of the session.
type Observer interface {
	StateChanged(snapshot Snapshot)
	ResultsReady(results Results)
	StartFailed(err error)
}

// Publisher receives domain events. *events.Publisher implements it.
type Publisher interface {
	PublishSessionFinished(ctx context.Context, event events.SessionFinished) error
	PublishFeedbackCreated(ctx context.Context, event events.FeedbackCreated) error
}

// Dependencies are the collaborators of a Controller. Transport, Tone,
// Navigator and Observer are required; Feedback is required in interview mode.
type Dependencies struct {
	Transport Transport
	Tone      oracle.ToneAnalyzer
	Feedback  oracle.FeedbackAnalyzer
	Store     FeedbackStore
	Navigator Navigator
	Observer  Observer
	Publisher Publisher
	Logger    *errors.Logger
	Now       func() time.Time
}

// Results is the combined analysis of a finished call.
type Results struct {
	Pauses          []transcript.PauseReport `json:"pauses"`
	Tone            oracle.ToneResult        `json:"tone"`
	Feedback        *oracle.FeedbackResult   `json:"feedback,omitempty"`
	Duration        string                   `json:"duration"`
	DurationSeconds float64                  `json:"durationSeconds"`
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Status     Status                `json:"status"`
	Phase      Phase                 `json:"phase"`
	Transcript transcript.Transcript `json:"transcript"`
	StartedAt  time.Time             `json:"startedAt,omitzero"`
	Results    *Results              `json:"results,omitempty"`
}

// Controller owns one session. Transport events and user actions may arrive
// from different goroutines; all state is guarded by mu.
type Controller struct {
	cfg  Config
	deps Dependencies
	log  *errors.Logger

	mu         sync.Mutex
	status     Status
	phase      Phase
	messages   transcript.Transcript
	startedAt  time.Time
	finishedAt time.Time
	starting   bool
	closed     bool
	results    *Results

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	closeOnce   sync.Once
	pipeline    sync.Once
	done        chan struct{}
}

// NewController validates the dependencies and subscribes to the transport.
func NewController(cfg Config, deps Dependencies) (*Controller, error) {
	cfg = cfg.withDefaults()

	switch {
	case deps.Transport == nil:
		return nil, missingDependency("transport")
	case deps.Tone == nil:
		return nil, missingDependency("tone analyzer")
	case deps.Navigator == nil:
		return nil, missingDependency("navigator")
	case deps.Observer == nil:
		return nil, missingDependency("observer")
	case cfg.Mode == ModeInterview && deps.Feedback == nil:
		return nil, missingDependency("feedback analyzer")
	}
	if deps.Logger == nil {
		deps.Logger = errors.NewLogger(slog.LevelInfo)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:      cfg,
		deps:     deps,
		log:      deps.Logger.With("interview_id", cfg.InterviewID, "mode", string(cfg.Mode)),
		status:   StatusInactive,
		messages: transcript.Transcript{},
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	c.unsubscribe = deps.Transport.Subscribe(c.HandleEvent)
	return c, nil
}

func missingDependency(name string) error {
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, "session: missing "+name, nil)
}

// Config returns the session configuration after defaults were applied.
func (c *Controller) Config() Config {
	return c.cfg
}

// Start begins the call. It returns once the status is CONNECTING; the
// transport request runs in the background. If it fails the session goes
// back to INACTIVE and the observer is told.
func (c *Controller) Start() error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrSessionClosed
	case c.starting:
		c.mu.Unlock()
		return ErrStartInFlight
	case c.status != StatusInactive:
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	c.starting = true
	c.startedAt = c.deps.Now()
	c.status = StatusConnecting
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.deps.Observer.StateChanged(snap)

	req := c.startRequest()
	go func() {
		err := c.deps.Transport.Start(c.ctx, req)

		c.mu.Lock()
		c.starting = false
		if err == nil || c.closed || c.status != StatusConnecting {
			c.mu.Unlock()
			return
		}
		c.status = StatusInactive
		c.startedAt = time.Time{}
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.log.LogError(err, "Call start failed")
		c.deps.Observer.StateChanged(snap)
		c.deps.Observer.StartFailed(err)
	}()
	return nil
}

func (c *Controller) startRequest() StartRequest {
	if c.cfg.Mode == ModeGenerate {
		return StartRequest{
			WorkflowID: c.cfg.WorkflowID,
			VariableValues: map[string]string{
				"username": c.cfg.Name,
				"userid":   c.cfg.UserID,
			},
		}
	}
	assistant := AssistantFor(c.cfg.Language, c.cfg.Name)
	return StartRequest{
		Assistant: &assistant,
		VariableValues: map[string]string{
			"questions": FormatQuestions(c.cfg.Questions),
		},
	}
}

// Disconnect ends an ACTIVE call at the candidate's request. In any other
// status it returns ErrInvalidTransition and changes nothing.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if c.status != StatusActive {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	snap := c.finishLocked()
	c.mu.Unlock()

	if err := c.deps.Transport.Stop(); err != nil {
		c.log.LogError(err, "Failed to stop call transport")
	}
	c.afterFinish(snap)
	return nil
}

// HandleEvent applies one transport event. Events that do not fit the
// current status are ignored.
func (c *Controller) HandleEvent(ev Event) {
	switch ev.Type {
	case EventCallStart:
		c.mu.Lock()
		if c.closed || c.status != StatusConnecting {
			c.mu.Unlock()
			return
		}
		c.status = StatusActive
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.deps.Observer.StateChanged(snap)

	case EventCallEnd:
		c.mu.Lock()
		if c.closed || (c.status != StatusActive && c.status != StatusConnecting) {
			c.mu.Unlock()
			return
		}
		snap := c.finishLocked()
		c.mu.Unlock()
		c.afterFinish(snap)

	case EventMessage:
		if !ev.Message.IsFinalTranscript() {
			return
		}
		c.appendMessage(ev.Message)

	case EventSpeechStart, EventSpeechEnd:
		c.log.Debug("Speech event", "event", string(ev.Type))

	case EventError:
		c.log.Warn("Call transport reported an error", "error", ev.Error)

	default:
		c.log.Debug("Ignoring unknown call event", "event", string(ev.Type))
	}
}

func (c *Controller) appendMessage(m *CallMessage) {
	speaker, err := transcript.ParseSpeaker(m.Role)
	if err != nil {
		c.log.Warn("Dropping transcript with unknown role", "role", m.Role)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || (c.status != StatusActive && c.status != StatusConnecting) {
		return
	}
	c.messages = append(c.messages, transcript.NewMessage(speaker, m.Transcript, m.Words, m.OccurredAt()))
}

// finishLocked moves to FINISHED and freezes the transcript.
func (c *Controller) finishLocked() Snapshot {
	c.status = StatusFinished
	c.finishedAt = c.deps.Now()
	return c.snapshotLocked()
}

func (c *Controller) afterFinish(snap Snapshot) {
	c.deps.Observer.StateChanged(snap)
	c.pipeline.Do(func() {
		go c.runPipeline(snap.Transcript)
	})
}

// Close tears the session down: the pipeline is abandoned and the transport
// handler removed. Close is idempotent.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.cancel()
		if c.unsubscribe != nil {
			c.unsubscribe()
		}
	})
}

// Done is closed when the post-call pipeline has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:     c.status,
		Phase:      c.phase,
		Transcript: c.messages.Clone(),
		StartedAt:  c.startedAt,
	}
	if c.results != nil {
		r := *c.results
		snap.Results = &r
	}
	return snap
}

func (c *Controller) duration(t transcript.Transcript) time.Duration {
	c.mu.Lock()
	start, end := c.startedAt, c.finishedAt
	c.mu.Unlock()

	// Runs from start to FINISHED; message timestamps fill in only when
	// the session never reached FINISHED.
	if end.IsZero() {
		end = t.LastOccurredAt()
	}
	if start.IsZero() || end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

func (c *Controller) hasIdentity() bool {
	return strings.TrimSpace(c.cfg.InterviewID) != "" && strings.TrimSpace(c.cfg.UserID) != ""
}
