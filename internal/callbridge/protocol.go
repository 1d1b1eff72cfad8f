// Package callbridge connects a browser running the hosted voice call SDK
// to a server-side session controller over a WebSocket.
package callbridge

import (
	"interviewcoach/internal/oracle"
	"interviewcoach/internal/session"
	"interviewcoach/internal/transcript"
)

// Client frame types
const (
	FrameInit       = "init"
	FrameStart      = "start"
	FrameDisconnect = "disconnect"
	FrameEvent      = "event"
)

// Server frame types
const (
	FrameStartCall = "start-call"
	FrameStopCall  = "stop-call"
	FrameState     = "state"
	FrameResult    = "result"
	FrameNavigate  = "navigate"
	FrameError     = "error"
)

// ClientFrame is a message from the browser
type ClientFrame struct {
	Type    string         `json:"type"`
	Session *SessionInit   `json:"session,omitempty"`
	Event   *session.Event `json:"event,omitempty"`
}

// SessionInit describes the candidate and call; it must be the first frame
type SessionInit struct {
	Name        string   `json:"name"`
	UserID      string   `json:"userId,omitempty"`
	InterviewID string   `json:"interviewId,omitempty"`
	FeedbackID  string   `json:"feedbackId,omitempty"`
	Mode        string   `json:"mode"`
	Language    string   `json:"language,omitempty"`
	Questions   []string `json:"questions,omitempty"`
}

// ServerFrame is a message to the browser. Only the fields of its Type are set.
type ServerFrame struct {
	Type string `json:"type"`

	// start-call
	Assistant      *session.Assistant `json:"assistant,omitempty"`
	WorkflowID     string             `json:"workflowId,omitempty"`
	VariableValues map[string]string  `json:"variableValues,omitempty"`

	// state
	Status session.Status `json:"status,omitempty"`
	Phase  session.Phase  `json:"phase,omitempty"`

	// result
	Pauses   []transcript.PauseReport `json:"pauses,omitempty"`
	Tone     *oracle.ToneResult       `json:"tone,omitempty"`
	Feedback *oracle.FeedbackResult   `json:"feedback,omitempty"`
	Duration string                   `json:"duration,omitempty"`

	// navigate
	Path string `json:"path,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

func resultFrame(r session.Results) ServerFrame {
	tone := r.Tone
	pauses := r.Pauses
	if pauses == nil {
		pauses = []transcript.PauseReport{}
	}
	return ServerFrame{
		Type:     FrameResult,
		Pauses:   pauses,
		Tone:     &tone,
		Feedback: r.Feedback,
		Duration: r.Duration,
	}
}
