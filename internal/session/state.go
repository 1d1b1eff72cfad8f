// Package session coordinates one live interview call: its lifecycle, the
// transcript it accumulates and the analysis run once it ends.
package session

import stderrors "errors"

// Status is the call lifecycle state.
type Status string

const (
	StatusInactive   Status = "INACTIVE"
	StatusConnecting Status = "CONNECTING"
	StatusActive     Status = "ACTIVE"
	StatusFinished   Status = "FINISHED"
)

// Phase is the post-call stage shown to the candidate. It stays empty until
// the call finishes.
type Phase string

const (
	PhaseNone          Phase = ""
	PhaseAnalyzing     Phase = "ANALYZING"
	PhaseFeedbackReady Phase = "FEEDBACK_READY"
	// PhaseRedirected means the pipeline ended by navigating away.
	PhaseRedirected Phase = "REDIRECTED"
)

// Mode selects what the call is for.
type Mode string

const (
	// ModeGenerate is an open-ended screening call driven by a workflow.
	ModeGenerate Mode = "generate"
	// ModeInterview asks a prepared question list for a known interview.
	ModeInterview Mode = "interview"
)

// ParseMode maps an empty or unknown mode to ModeInterview.
func ParseMode(s string) Mode {
	if Mode(s) == ModeGenerate {
		return ModeGenerate
	}
	return ModeInterview
}

var (
	ErrInvalidTransition = stderrors.New("session: invalid state transition")
	ErrStartInFlight     = stderrors.New("session: start already in flight")
	ErrSessionClosed     = stderrors.New("session: closed")
)
