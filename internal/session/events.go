package session

import (
	"strings"
	"time"

	"interviewcoach/internal/transcript"
)

// EventType names a call transport event.
type EventType string

const (
	EventCallStart   EventType = "call-start"
	EventCallEnd     EventType = "call-end"
	EventSpeechStart EventType = "speech-start"
	EventSpeechEnd   EventType = "speech-end"
	EventError       EventType = "error"
	EventMessage     EventType = "message"
)

// Event is one notification from the call transport.
type Event struct {
	Type    EventType    `json:"type"`
	Message *CallMessage `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// CallMessage is the payload of a message event. Only final transcripts
// are recorded.
type CallMessage struct {
	Type           string            `json:"type"`
	TranscriptType string            `json:"transcriptType,omitempty"`
	Role           string            `json:"role,omitempty"`
	Transcript     string            `json:"transcript,omitempty"`
	Words          []transcript.Word `json:"words,omitempty"`
	Timestamp      string            `json:"timestamp,omitempty"`
}

// IsFinalTranscript reports whether the message is a stable recognition result.
func (m *CallMessage) IsFinalTranscript() bool {
	return m != nil && m.Type == "transcript" && m.TranscriptType == "final"
}

// OccurredAt parses Timestamp, returning the zero time when absent or invalid.
func (m *CallMessage) OccurredAt() time.Time {
	ts := strings.TrimSpace(m.Timestamp)
	if ts == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z07:00"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}
