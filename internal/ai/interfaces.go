package ai

import (
	"context"
)

// Provider is a text-generation backend. Replies are returned as raw text;
// shaping them into tone, feedback or question values is left to callers.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Completion, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// Request is a single prompt sent to a provider
type Request struct {
	Operation    string
	SystemPrompt string
	UserPrompt   string
	// JSON asks the provider to constrain the reply to JSON when it supports that.
	JSON bool
}

// Completion is the provider-neutral reply
type Completion struct {
	Text  string
	Model string
	Usage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
