// Package storage persists interview feedback.
package storage

import (
	"context"
	"fmt"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
	"interviewcoach/internal/oracle"
	"interviewcoach/internal/transcript"
)

// CreateFeedbackParams is what a finished interview persists. A non-empty
// FeedbackID replaces that earlier feedback instead of creating a new one.
type CreateFeedbackParams struct {
	InterviewID string                 `json:"interviewId"`
	UserID      string                 `json:"userId"`
	Transcript  transcript.Transcript  `json:"transcript"`
	FeedbackID  string                 `json:"feedbackId,omitempty"`
	Tone        *oracle.ToneResult     `json:"tone,omitempty"`
	Feedback    *oracle.FeedbackResult `json:"feedback,omitempty"`
}

// Validate checks that the interview identity is present
func (p CreateFeedbackParams) Validate() error {
	if p.InterviewID == "" || p.UserID == "" {
		return errors.NewValidationError(errors.ErrCodeMissingIdentity,
			"interviewId and userId are required", nil)
	}
	return nil
}

// CreateFeedbackResult reports the outcome of CreateFeedback
type CreateFeedbackResult struct {
	Success    bool   `json:"success"`
	FeedbackID string `json:"feedbackId,omitempty"`
}

// FeedbackRecord is one stored feedback document
type FeedbackRecord struct {
	ID          string                 `json:"id"`
	InterviewID string                 `json:"interviewId"`
	UserID      string                 `json:"userId"`
	Transcript  transcript.Transcript  `json:"transcript"`
	Tone        *oracle.ToneResult     `json:"tone,omitempty"`
	Feedback    *oracle.FeedbackResult `json:"feedback,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// Store is the feedback persistence backend
type Store interface {
	CreateFeedback(ctx context.Context, params CreateFeedbackParams) (*CreateFeedbackResult, error)
	// GetFeedback returns the latest feedback of a user for an interview.
	GetFeedback(ctx context.Context, interviewID, userID string) (*FeedbackRecord, error)
	Ping(ctx context.Context) error
	Driver() string
	Close() error
}

// New opens the store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig, logger *errors.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		logger.Info("Using in-memory feedback store")
		return NewMemoryStore(), nil
	case "postgres":
		return OpenPostgres(ctx, cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported storage driver: %s", cfg.Driver), nil)
	}
}

func notFound(interviewID, userID string) error {
	return errors.NewStorageError(errors.ErrCodeFeedbackNotFound, "Feedback Not Found", nil).
		WithContext("interview_id", interviewID).
		WithContext("user_id", userID)
}

// ownerMismatch rejects a write that reuses a feedback id belonging to a
// different interview or user.
func ownerMismatch(feedbackID, interviewID string) error {
	return errors.NewStorageError(errors.ErrCodePersistFailed, "feedback id belongs to another interview", nil).
		WithContext("feedback_id", feedbackID).
		WithContext("interview_id", interviewID)
}

// IsNotFound reports whether err means no feedback exists
func IsNotFound(err error) bool {
	return errors.HasCode(err, errors.ErrCodeFeedbackNotFound)
}
