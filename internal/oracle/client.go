package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
	"interviewcoach/internal/transcript"

	"github.com/hashicorp/go-retryablehttp"
)

// ToneAnalyzer classifies the tone of a candidate's answers. It never fails;
// failures come back as ToneFallback.
type ToneAnalyzer interface {
	RequestTone(ctx context.Context, userText string) ToneResult
}

// FeedbackAnalyzer scores a role-prefixed interview transcript. Failures come
// back as a Raw result.
type FeedbackAnalyzer interface {
	RequestFeedback(ctx context.Context, transcriptText string) FeedbackResult
}

// Analyzer is both oracle clients in one
type Analyzer interface {
	ToneAnalyzer
	FeedbackAnalyzer
}

const (
	tonePath     = "/api/analyze-tone"
	feedbackPath = "/api/interview-feedback"
)

// HTTPClient calls the tone and feedback endpoints of an interviewcoach server
type HTTPClient struct {
	baseURL  string
	apiKey   string
	maxChars int
	client   *retryablehttp.Client
	logger   *errors.Logger
}

var _ Analyzer = (*HTTPClient)(nil)

// NewHTTPClient creates a retrying client for the oracle endpoints.
// maxChars bounds the transcript sent for feedback.
func NewHTTPClient(cfg config.OracleConfig, maxChars int, logger *errors.Logger) *HTTPClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = logger
	// Hand the final response back so error bodies can be read.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &HTTPClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		maxChars: maxChars,
		client:   rc,
		logger:   logger,
	}
}

// RequestTone posts {text} and normalizes the tone field of the reply
func (c *HTTPClient) RequestTone(ctx context.Context, userText string) ToneResult {
	status, body, err := c.post(ctx, tonePath, map[string]string{"text": userText})
	if err != nil {
		c.logger.Warn("Tone request failed", "error", err.Error())
		return ToneResult{Text: ToneFallback}
	}
	if status < 200 || status > 299 {
		c.logger.Warn("Tone request returned non-success status", "status", status)
		return ToneResult{Text: ToneFallback}
	}

	var reply struct {
		Tone any `json:"tone"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		c.logger.Warn("Tone reply is not JSON", "error", err.Error())
		return ToneResult{Text: ToneFallback}
	}
	return NormalizeTone(reply.Tone)
}

// RequestFeedback truncates the transcript, posts {transcript} and parses the
// feedback field. An error reply that carries the raw oracle text keeps it.
func (c *HTTPClient) RequestFeedback(ctx context.Context, transcriptText string) FeedbackResult {
	payload := map[string]string{"transcript": transcript.Truncate(transcriptText, c.maxChars)}

	status, body, err := c.post(ctx, feedbackPath, payload)
	if err != nil {
		c.logger.Warn("Feedback request failed", "error", err.Error())
		return FeedbackResult{Raw: FeedbackFallback}
	}

	if status < 200 || status > 299 {
		var failure struct {
			Error string `json:"error"`
			Raw   string `json:"raw"`
		}
		if err := json.Unmarshal(body, &failure); err != nil {
			c.logger.Debug("Feedback error reply is not JSON",
				"status", status,
				"error", err.Error())
		}
		c.logger.Warn("Feedback request returned non-success status",
			"status", status,
			"error", failure.Error)
		if failure.Raw != "" {
			return FeedbackResult{Raw: failure.Raw}
		}
		return FeedbackResult{Raw: FeedbackFallback}
	}

	var reply struct {
		Feedback json.RawMessage `json:"feedback"`
	}
	if err := json.Unmarshal(body, &reply); err != nil || len(reply.Feedback) == 0 {
		return FeedbackResult{Raw: string(body)}
	}

	var result FeedbackResult
	if err := json.Unmarshal(reply.Feedback, &result); err != nil {
		return FeedbackResult{Raw: string(reply.Feedback)}
	}
	return result
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("Failed to close response body", "error", err.Error())
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
