package oracle

import (
	"reflect"
	"testing"
)

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"tone\":\"nervous\"}\n```", `{"tone":"nervous"}`},
		{"uppercase fence", "```JSON\n{}\n```", "{}"},
		{"bare fence", "```\n[1,2]\n```", "[1,2]"},
		{"json marker only", "json {\"a\":1}", `{"a":1}`},
		{"surrounding whitespace", "  \n plain text \n", "plain text"},
		{"no fence", "Candidate seemed nervous.", "Candidate seemed nervous."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFence(tt.in); got != tt.want {
				t.Errorf("StripFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTone(t *testing.T) {
	tests := []struct {
		name         string
		reply        any
		wantAnalysis *ToneAnalysis
		wantText     string
	}{
		{
			name:         "fenced json string",
			reply:        "```json\n{\"tone\":\"nervous\"}\n```",
			wantAnalysis: &ToneAnalysis{Tone: "nervous"},
		},
		{
			name:     "plain sentence is returned unchanged",
			reply:    "Candidate seemed nervous.",
			wantText: "Candidate seemed nervous.",
		},
		{
			name:         "already parsed object",
			reply:        map[string]any{"confidence": "high", "tone": "enthusiastic", "energy": "high", "summary": "Great."},
			wantAnalysis: &ToneAnalysis{Confidence: "high", Tone: "enthusiastic", Energy: "high", Summary: "Great."},
		},
		{
			name:         "numeric confidence",
			reply:        `{"confidence": 0.8, "tone": "calm"}`,
			wantAnalysis: &ToneAnalysis{Confidence: "0.8", Tone: "calm"},
		},
		{
			name:     "json array is not an analysis",
			reply:    `["calm"]`,
			wantText: `["calm"]`,
		},
		{
			name:     "nil reply",
			reply:    nil,
			wantText: NoToneDetected,
		},
		{
			name:     "unexpected type",
			reply:    42.0,
			wantText: NoToneDetected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTone(tt.reply)
			if !reflect.DeepEqual(got.Analysis, tt.wantAnalysis) {
				t.Errorf("Analysis = %+v, want %+v", got.Analysis, tt.wantAnalysis)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
		})
	}
}

func TestParseFeedback(t *testing.T) {
	got := ParseFeedback("not json at all")
	if got.IsStructured() || got.Raw != "not json at all" {
		t.Errorf("ParseFeedback(non-json) = %+v, want raw", got)
	}

	fenced := "```json\n{\"communication\": \"Clear.\", \"final_assessment\": \"Hire.\"}\n```"
	got = ParseFeedback(fenced)
	if !got.IsStructured() {
		t.Fatalf("expected structured feedback, got raw %q", got.Raw)
	}
	if got.Feedback.Communication != "Clear." || got.Feedback.FinalAssessment != "Hire." {
		t.Errorf("unexpected feedback: %+v", got.Feedback)
	}
	if got.Feedback.Motivation != "" {
		t.Error("missing trait should stay empty")
	}
	if n := len(got.Feedback.Traits()); n != 2 {
		t.Errorf("Traits() returned %d entries, want 2", n)
	}

	got = ParseFeedback(`["a", "b"]`)
	if got.IsStructured() || got.Raw != `["a", "b"]` {
		t.Errorf("array reply should be raw, got %+v", got)
	}
}

func TestParseQuestions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "json array",
			in:   `["Tell me about yourself.", "Why Go?"]`,
			want: []string{"Tell me about yourself.", "Why Go?"},
		},
		{
			name: "fenced array",
			in:   "```json\n[\"One?\", \"  \", \"Two?\"]\n```",
			want: []string{"One?", "Two?"},
		},
		{
			name: "line fallback",
			in:   "1. First question\n\n2. Second question\n",
			want: []string{"1. First question", "2. Second question"},
		},
		{
			name: "question starting with json is kept",
			in:   "JSON or YAML for config?\nWhy?",
			want: []string{"JSON or YAML for config?", "Why?"},
		},
		{
			name: "empty",
			in:   "   ",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseQuestions(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseQuestions() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseCandidate(t *testing.T) {
	const resume = "JANE DOE\nSoftware Engineer"

	got := ParseCandidate("```json\n{\"name\": \"Jane Doe\", \"resume\": \"cleaned\"}\n```", resume)
	if got.Name != "Jane Doe" || got.Resume != "cleaned" {
		t.Errorf("ParseCandidate() = %+v", got)
	}

	got = ParseCandidate(`{"name": ""}`, resume)
	if got.Name != "" || got.Resume != resume {
		t.Errorf("missing resume should fall back, got %+v", got)
	}

	got = ParseCandidate("I could not find a name", resume)
	if got.Name != "" || got.Resume != resume {
		t.Errorf("unparseable reply should fall back, got %+v", got)
	}
}
