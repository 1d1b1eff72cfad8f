// Package events publishes interview domain events to Kafka.
package events

import "time"

// Event types, also sent as the eventType header.
const (
	TypeSessionFinished = "session.finished"
	TypeFeedbackCreated = "feedback.created"
)

// SessionFinished is emitted once per session when its call ends.
type SessionFinished struct {
	InterviewID     string    `json:"interviewId,omitempty"`
	UserID          string    `json:"userId,omitempty"`
	Mode            string    `json:"mode"`
	Language        string    `json:"language"`
	Messages        int       `json:"messages"`
	PauseCount      int       `json:"pauseCount"`
	DurationSeconds float64   `json:"durationSeconds"`
	FinishedAt      time.Time `json:"finishedAt"`
}

// FeedbackCreated is emitted after feedback was persisted.
type FeedbackCreated struct {
	FeedbackID  string `json:"feedbackId"`
	InterviewID string `json:"interviewId"`
	UserID      string `json:"userId"`
}
