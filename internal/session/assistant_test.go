package session

import (
	"strings"
	"testing"
	"time"
)

func TestAssistantFor(t *testing.T) {
	tests := []struct {
		name            string
		language        string
		candidate       string
		wantTranscriber string
		wantVoice       string
		wantVoiceModel  string
		wantGreeting    string
	}{
		{"english", "en", "Jane", "nova-2", "Paige", "", "Hey Jane"},
		{"unknown language falls back to english", "fr", "Jane", "nova-2", "Paige", "", "Hey Jane"},
		{"empty name", "en", "  ", "nova-2", "Paige", "", "Hey Candidate"},
		{"arabic", "ar", "Omar", "scribe_v1", "vgsapVXnlLvlrWNbPs6y", "eleven_turbo_v2_5", "Omar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AssistantFor(tt.language, tt.candidate)
			if a.Transcriber.Model != tt.wantTranscriber {
				t.Errorf("transcriber model = %s, want %s", a.Transcriber.Model, tt.wantTranscriber)
			}
			if a.Voice.VoiceID != tt.wantVoice || a.Voice.Model != tt.wantVoiceModel {
				t.Errorf("voice = %+v", a.Voice)
			}
			if a.Model.Provider != "openai" || a.Model.Model != "gpt-4" {
				t.Errorf("model = %s/%s", a.Model.Provider, a.Model.Model)
			}
			if !strings.Contains(a.FirstMessage, tt.wantGreeting) {
				t.Errorf("first message %q does not contain %q", a.FirstMessage, tt.wantGreeting)
			}
			if len(a.Model.Messages) != 1 || !strings.Contains(a.Model.Messages[0].Content, "{{questions}}") {
				t.Error("system prompt must reference the {{questions}} variable")
			}
		})
	}
}

func TestFormatQuestions(t *testing.T) {
	got := FormatQuestions([]string{"What is Go?", "  ", " Why channels? "})
	if want := "- What is Go?\n- Why channels?"; got != want {
		t.Errorf("FormatQuestions() = %q, want %q", got, want)
	}
	if got := FormatQuestions(nil); got != "" {
		t.Errorf("FormatQuestions(nil) = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0m 0s"},
		{59*time.Second + 900*time.Millisecond, "0m 59s"},
		{95 * time.Second, "1m 35s"},
		{61 * time.Minute, "61m 0s"},
		{-time.Second, "0m 0s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("generate") != ModeGenerate {
		t.Error("generate should parse")
	}
	for _, s := range []string{"", "interview", "other"} {
		if ParseMode(s) != ModeInterview {
			t.Errorf("ParseMode(%q) should default to interview", s)
		}
	}
}

func TestCallMessage(t *testing.T) {
	m := &CallMessage{Type: "transcript", TranscriptType: "final", Timestamp: "2026-03-01T10:00:05.250Z"}
	if !m.IsFinalTranscript() {
		t.Error("expected final transcript")
	}
	want := time.Date(2026, 3, 1, 10, 0, 5, 250_000_000, time.UTC)
	if got := m.OccurredAt(); !got.Equal(want) {
		t.Errorf("OccurredAt() = %v, want %v", got, want)
	}

	m.Timestamp = "yesterday"
	if !m.OccurredAt().IsZero() {
		t.Error("invalid timestamp should give the zero time")
	}

	var nilMsg *CallMessage
	if nilMsg.IsFinalTranscript() {
		t.Error("nil message is not a transcript")
	}
	if (&CallMessage{Type: "transcript", TranscriptType: "partial"}).IsFinalTranscript() {
		t.Error("partial transcript is not final")
	}
}
