package oracle

import (
	"context"
	"strings"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/errors"
	"interviewcoach/internal/transcript"
)

// Generator is the part of ai.Service the local client needs
type Generator interface {
	Run(ctx context.Context, language string, vars ai.PromptVars) (*ai.Completion, error)
}

// UsageRecorder receives token usage for completed oracle calls
type UsageRecorder func(ctx context.Context, operation string, usage *ai.TokenUsage, err error)

// LocalClient runs tone and feedback analysis in-process
type LocalClient struct {
	tone     Generator
	feedback Generator
	maxChars int
	logger   *errors.Logger
	record   UsageRecorder
}

var _ Analyzer = (*LocalClient)(nil)

// NewLocalClient wires the tone and feedback services
func NewLocalClient(tone, feedback Generator, maxChars int, logger *errors.Logger) *LocalClient {
	return &LocalClient{
		tone:     tone,
		feedback: feedback,
		maxChars: maxChars,
		logger:   logger,
	}
}

// WithUsageRecorder sets a callback invoked after every oracle call
func (c *LocalClient) WithUsageRecorder(record UsageRecorder) *LocalClient {
	c.record = record
	return c
}

// RequestTone analyzes the newline-joined user answers
func (c *LocalClient) RequestTone(ctx context.Context, userText string) ToneResult {
	if strings.TrimSpace(userText) == "" {
		return ToneResult{Text: ToneFallback}
	}

	completion, err := c.tone.Run(ctx, "", ai.PromptVars{Text: userText})
	c.observe(ctx, "tone", completion, err)
	if err != nil {
		c.logger.LogError(err, "Tone analysis failed")
		return ToneResult{Text: ToneFallback}
	}
	return NormalizeTone(completion.Text)
}

// RequestFeedback truncates the transcript and parses the structured evaluation
func (c *LocalClient) RequestFeedback(ctx context.Context, transcriptText string) FeedbackResult {
	if strings.TrimSpace(transcriptText) == "" {
		return FeedbackResult{Raw: FeedbackFallback}
	}

	completion, err := c.feedback.Run(ctx, "", ai.PromptVars{
		Transcript: transcript.Truncate(transcriptText, c.maxChars),
	})
	c.observe(ctx, "feedback", completion, err)
	if err != nil {
		c.logger.LogError(err, "Feedback analysis failed")
		return FeedbackResult{Raw: FeedbackFallback}
	}

	result := ParseFeedback(completion.Text)
	if !result.IsStructured() {
		c.logger.Warn("Feedback reply was not valid JSON", "length", len(completion.Text))
	}
	return result
}

func (c *LocalClient) observe(ctx context.Context, operation string, completion *ai.Completion, err error) {
	if c.record == nil {
		return
	}
	var usage *ai.TokenUsage
	if completion != nil {
		usage = completion.Usage
	}
	c.record(ctx, operation, usage, err)
}
