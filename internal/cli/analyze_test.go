package cli

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/config"
	"interviewcoach/internal/oracle"
	"interviewcoach/internal/transcript"
	"interviewcoach/internal/types"
)

type stubAnalyzer struct {
	toneText     string
	feedbackText string
}

func (s *stubAnalyzer) RequestTone(_ context.Context, userText string) oracle.ToneResult {
	s.toneText = userText
	return oracle.ToneResult{Text: "calm"}
}

func (s *stubAnalyzer) RequestFeedback(_ context.Context, transcriptText string) oracle.FeedbackResult {
	s.feedbackText = transcriptText
	return oracle.FeedbackResult{Feedback: &oracle.Feedback{FinalAssessment: "Hire"}}
}

func sampleTranscript() transcript.Transcript {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	return transcript.Transcript{
		{Speaker: transcript.SpeakerAssistant, Text: "Why Go?", OccurredAt: start},
		{
			Speaker: transcript.SpeakerUser,
			Text:    "I like it",
			Words: []transcript.Word{
				{Text: "I", Start: 0, End: 0.2},
				{Text: "like", Start: 2.5, End: 2.8},
				{Text: "it", Start: 2.9, End: 3.0},
			},
			OccurredAt: start.Add(65 * time.Second),
		},
	}
}

func TestBuildSessionReport(t *testing.T) {
	analyzer := &stubAnalyzer{}
	report := buildSessionReport(context.Background(), analyzer, types.SessionReportInput{
		Transcript: sampleTranscript(),
		Threshold:  1.5,
		Mode:       "interview",
	})

	if report.Messages != 2 {
		t.Errorf("Expected 2 messages, got %d", report.Messages)
	}
	if report.PauseCount != 1 {
		t.Errorf("Expected 1 pause, got %d", report.PauseCount)
	}
	if report.Duration != "1m 5s" {
		t.Errorf("Expected duration 1m 5s, got %q", report.Duration)
	}
	if report.Tone.Text != "calm" {
		t.Errorf("Expected tone calm, got %+v", report.Tone)
	}
	if analyzer.toneText != "I like it" {
		t.Errorf("Expected tone to see only user answers, got %q", analyzer.toneText)
	}
	if report.Feedback == nil || !report.Feedback.IsStructured() {
		t.Fatalf("Expected structured feedback, got %+v", report.Feedback)
	}
	if analyzer.feedbackText != "assistant: Why Go?\nuser: I like it" {
		t.Errorf("Unexpected feedback transcript %q", analyzer.feedbackText)
	}
}

func TestBuildSessionReportGenerateModeSkipsFeedback(t *testing.T) {
	analyzer := &stubAnalyzer{}
	report := buildSessionReport(context.Background(), analyzer, types.SessionReportInput{
		Transcript: sampleTranscript(),
		Threshold:  5,
		Mode:       "generate",
	})

	if report.Feedback != nil {
		t.Errorf("Expected no feedback in generate mode, got %+v", report.Feedback)
	}
	if analyzer.feedbackText != "" {
		t.Error("Expected feedback analyzer not to be called")
	}
	if report.PauseCount != 0 {
		t.Errorf("Expected no pauses above 5s, got %d", report.PauseCount)
	}
}

func TestPauseThreshold(t *testing.T) {
	cfg := &config.Config{}
	if got := pauseThreshold(0, cfg); got != transcript.DefaultPauseThreshold {
		t.Errorf("Expected default threshold, got %v", got)
	}
	cfg.Interview.PauseThreshold = 2
	if got := pauseThreshold(0, cfg); got != 2 {
		t.Errorf("Expected configured threshold, got %v", got)
	}
	if got := pauseThreshold(0.5, cfg); got != 0.5 {
		t.Errorf("Expected flag threshold, got %v", got)
	}
}

func TestUsageTotals(t *testing.T) {
	totals := &usageTotals{}
	if totals.usage() != nil {
		t.Error("Expected nil usage before any call")
	}
	totals.record(context.Background(), "tone", &ai.TokenUsage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}, nil)
	totals.record(context.Background(), "feedback", nil, nil)
	totals.record(context.Background(), "feedback", &ai.TokenUsage{InputTokens: 4, OutputTokens: 5, TotalTokens: 9}, nil)

	got := totals.usage()
	if got == nil || got.InputTokens != 5 || got.OutputTokens != 7 || got.TotalTokens != 12 {
		t.Errorf("Unexpected totals: %+v", got)
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf, true)
	if buf.String() != Version+"\n" {
		t.Errorf("Expected short version %q, got %q", Version+"\n", buf.String())
	}

	buf.Reset()
	printVersion(&buf, false)
	for _, want := range []string{"interviewcoach version " + Version, "Git commit:", "Go: " + runtime.Version()} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, buf.String())
		}
	}
}
