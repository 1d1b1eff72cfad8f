package types

import (
	"interviewcoach/internal/oracle"
	"interviewcoach/internal/transcript"
)

// PauseAnalysisInput represents a saved transcript and the pause threshold
type PauseAnalysisInput struct {
	Transcript transcript.Transcript `json:"transcript"`
	Threshold  float64               `json:"threshold"`
}

// PauseAnalysisOutput represents the pauses found in a transcript
type PauseAnalysisOutput struct {
	Threshold  float64                  `json:"threshold"`
	Messages   int                      `json:"messages"`
	PauseCount int                      `json:"pauseCount"`
	Reports    []transcript.PauseReport `json:"reports"`
}

// SessionReportInput represents a finished interview to analyze offline
type SessionReportInput struct {
	Transcript transcript.Transcript `json:"transcript"`
	Threshold  float64               `json:"threshold"`
	Mode       string                `json:"mode"` // "interview" or "generate"
}

// SessionReport represents the combined post-call analysis of an interview
type SessionReport struct {
	Messages   int                      `json:"messages"`
	Duration   string                   `json:"duration,omitempty"`
	PauseCount int                      `json:"pauseCount"`
	Pauses     []transcript.PauseReport `json:"pauses"`
	Tone       oracle.ToneResult        `json:"tone"`
	Feedback   *oracle.FeedbackResult   `json:"feedback,omitempty"`
}

// QuestionsInput represents a resume to generate interview questions for
type QuestionsInput struct {
	Resume   string `json:"resume"`
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// QuestionsOutput represents generated interview questions
type QuestionsOutput struct {
	Language  string   `json:"language"`
	Questions []string `json:"questions"`
}

// ExtractOutput represents the text and candidate name extracted from a resume PDF
type ExtractOutput struct {
	File   string `json:"file"`
	Name   string `json:"name"`
	Resume string `json:"resume"`
}
