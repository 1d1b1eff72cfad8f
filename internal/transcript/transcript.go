// Package transcript holds the recorded conversation of an interview call and
// the pause analysis computed over its word-level timings.
package transcript

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Speaker identifies who produced a transcript message.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerSystem    Speaker = "system"
	SpeakerAssistant Speaker = "assistant"
)

// ParseSpeaker validates a role string from the call transport.
func ParseSpeaker(role string) (Speaker, error) {
	switch s := Speaker(strings.ToLower(strings.TrimSpace(role))); s {
	case SpeakerUser, SpeakerSystem, SpeakerAssistant:
		return s, nil
	default:
		return "", fmt.Errorf("unknown speaker role: %q", role)
	}
}

// Word is one recognized word with offsets in seconds from the start of the answer.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Message is one final recognition result. Words is only kept for user
// turns with more than one word.
type Message struct {
	Speaker    Speaker   `json:"role"`
	Text       string    `json:"content"`
	Words      []Word    `json:"words,omitempty"`
	OccurredAt time.Time `json:"timestamp,omitzero"`
}

// NewMessage builds a message, dropping word timings that can never
// contribute to pause analysis.
func NewMessage(speaker Speaker, text string, words []Word, occurredAt time.Time) Message {
	msg := Message{Speaker: speaker, Text: text, OccurredAt: occurredAt}
	if speaker == SpeakerUser && len(words) > 1 {
		msg.Words = append([]Word(nil), words...)
	}
	return msg
}

// Transcript is the ordered, append-only list of messages of one session.
type Transcript []Message

// Clone returns a copy that later appends cannot affect.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return Transcript{}
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// UserText joins the text of all user messages with newlines, in order.
func (t Transcript) UserText() string {
	var lines []string
	for _, msg := range t {
		if msg.Speaker == SpeakerUser {
			lines = append(lines, msg.Text)
		}
	}
	return strings.Join(lines, "\n")
}

// RoleText renders every message as "role: text", one per line.
func (t Transcript) RoleText() string {
	lines := make([]string, len(t))
	for i, msg := range t {
		lines[i] = string(msg.Speaker) + ": " + msg.Text
	}
	return strings.Join(lines, "\n")
}

// LastOccurredAt returns the timestamp of the last message, or the zero time.
func (t Transcript) LastOccurredAt() time.Time {
	if len(t) == 0 {
		return time.Time{}
	}
	return t[len(t)-1].OccurredAt
}

// Truncate cuts s to at most maxChars characters. The cut may land mid-word.
// maxChars <= 0 disables truncation.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == maxChars {
			return s[:i]
		}
		count++
	}
	return s
}

// Decode reads a transcript saved either as a bare message array or as an
// object with a "messages" (or "transcript") field.
func Decode(data []byte) (Transcript, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("transcript is empty")
	}

	var t Transcript
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &t); err != nil {
			return nil, fmt.Errorf("failed to decode transcript: %w", err)
		}
	} else {
		var wrapper struct {
			Messages   Transcript `json:"messages"`
			Transcript Transcript `json:"transcript"`
		}
		if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
			return nil, fmt.Errorf("failed to decode transcript: %w", err)
		}
		t = wrapper.Messages
		if len(t) == 0 {
			t = wrapper.Transcript
		}
	}

	for i, msg := range t {
		speaker, err := ParseSpeaker(string(msg.Speaker))
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i+1, err)
		}
		t[i].Speaker = speaker
	}
	return t, nil
}
