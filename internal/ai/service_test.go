package ai

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
)

// Helper functions to create pointers for test values
func timePtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                      { return &i }
func float32Ptr(f float32) *float32          { return &f }
func boolPtr(b bool) *bool                   { return &b }

var testLogger = errors.NewLogger(slog.LevelDebug)

type fakeProvider struct {
	requests []Request
	reply    string
	err      error
}

func (f *fakeProvider) Generate(_ context.Context, req Request) (*Completion, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &Completion{Text: f.reply, Usage: &TokenUsage{TotalTokens: 42}}, nil
}

func (f *fakeProvider) GetModelInfo(context.Context) *ModelInfo {
	return &ModelInfo{Name: "fake", Available: true}
}

func (f *fakeProvider) Close() error { return nil }

func testOperationConfig() *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "test-model",
		Timeout:          timePtr(30 * time.Second),
		APIKey:           "test-key",
		MaxRetries:       intPtr(0),
		Temperature:      float32Ptr(0.5),
		UseSystemPrompts: boolPtr(true),
	}
}

func TestServiceRunRendersDefaultPrompts(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		language   string
		vars       PromptVars
		contains   []string
		wantJSON   bool
		notContain string
	}{
		{
			name:      "questions in english",
			operation: config.OperationQuestions,
			language:  "en",
			vars:      PromptVars{Resume: "Go developer, 5 years", Count: 7},
			contains:  []string{"Prepare 7 questions", "Go developer, 5 years"},
			wantJSON:  false,
		},
		{
			name:       "questions in arabic",
			operation:  config.OperationQuestions,
			language:   "ar",
			vars:       PromptVars{Resume: "مطور", Count: 5},
			contains:   []string{"السيرة الذاتية", "مطور"},
			notContain: "Prepare",
		},
		{
			name:      "tone",
			operation: config.OperationTone,
			vars:      PromptVars{Text: "um I think so"},
			contains:  []string{`"confidence"`, "Answers:\num I think so"},
			wantJSON:  true,
		},
		{
			name:      "feedback",
			operation: config.OperationFeedback,
			vars:      PromptVars{Transcript: "user: hi"},
			contains:  []string{"final_assessment", "Transcript:\nuser: hi"},
			wantJSON:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeProvider{reply: "{}"}
			svc := NewServiceWithProvider(fake, testOperationConfig(), tt.operation, testLogger)

			if _, err := svc.Run(context.Background(), tt.language, tt.vars); err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if len(fake.requests) != 1 {
				t.Fatalf("expected one request, got %d", len(fake.requests))
			}
			req := fake.requests[0]
			for _, want := range tt.contains {
				if !strings.Contains(req.UserPrompt, want) {
					t.Errorf("user prompt missing %q:\n%s", want, req.UserPrompt)
				}
			}
			if tt.notContain != "" && strings.Contains(req.UserPrompt, tt.notContain) {
				t.Errorf("user prompt should not contain %q", tt.notContain)
			}
			if strings.Contains(req.UserPrompt, "{{") {
				t.Errorf("unrendered placeholder in prompt:\n%s", req.UserPrompt)
			}
			if req.SystemPrompt == "" {
				t.Error("expected default system prompt")
			}
			if req.Operation != tt.operation {
				t.Errorf("Operation = %q, want %q", req.Operation, tt.operation)
			}
			if tt.operation != config.OperationQuestions && req.JSON != tt.wantJSON {
				t.Errorf("JSON = %v, want %v", req.JSON, tt.wantJSON)
			}
		})
	}
}

func TestServiceRunPromptPriority(t *testing.T) {
	cfg := testOperationConfig()
	cfg.Prompts.User = "inline: {{text}}"
	cfg.Prompts.System = "inline system"

	fake := &fakeProvider{reply: "ok"}
	svc := NewServiceWithProvider(fake, cfg, config.OperationTone, testLogger)

	if _, err := svc.Run(context.Background(), "", PromptVars{Text: "hello"}); err != nil {
		t.Fatal(err)
	}
	if got := fake.requests[0].UserPrompt; got != "inline: hello" {
		t.Errorf("inline prompt not used, got %q", got)
	}

	// A prompt file wins over inline configuration.
	dir := t.TempDir()
	userFile := filepath.Join(dir, "tone.user.md")
	if err := os.WriteFile(userFile, []byte("from file: {{text}}"), 0600); err != nil {
		t.Fatal(err)
	}
	appCfg := &config.Config{}
	appCfg.AI.Tone.Prompts.UserFile = userFile
	if err := appCfg.ReloadPrompts(); err != nil {
		t.Fatalf("ReloadPrompts() error: %v", err)
	}
	t.Cleanup(func() {
		_ = (&config.Config{}).ReloadPrompts()
	})

	if _, err := svc.Run(context.Background(), "", PromptVars{Text: "hello"}); err != nil {
		t.Fatal(err)
	}
	if got := fake.requests[1].UserPrompt; got != "from file: hello" {
		t.Errorf("file prompt not used, got %q", got)
	}
	if got := fake.requests[1].SystemPrompt; got != "inline system" {
		t.Errorf("system prompt should still come from config, got %q", got)
	}
}

func TestNewServiceRejectsUnknownProvider(t *testing.T) {
	cfg := testOperationConfig()
	cfg.Provider = "claude"

	if _, err := NewService(cfg, config.OperationTone, testLogger); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestNewServiceBuildsProviders(t *testing.T) {
	cfg := testOperationConfig()
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          45 * time.Second,
		MinRequests:      2,
		FailureThreshold: 0.8,
	}

	for _, provider := range []string{"gemini", "openai"} {
		t.Run(provider, func(t *testing.T) {
			cfg.Provider = provider
			svc, err := NewService(cfg, "test-op", testLogger)
			if err != nil {
				t.Fatalf("NewService() error: %v", err)
			}
			defer svc.Close()

			stats := svc.CircuitBreakerStats()
			aiOps, ok := stats["ai_operations"].(map[string]any)
			if !ok {
				t.Fatal("AI operations stats should exist and be a map")
			}
			if name, _ := aiOps["name"].(string); name != "AI-test-op" {
				t.Errorf("Expected circuit breaker name 'AI-test-op', got '%s'", name)
			}
			modelOps, ok := stats["model_operations"].(map[string]any)
			if !ok {
				t.Fatal("Model operations stats should exist and be a map")
			}
			if name, _ := modelOps["name"].(string); name != "AI-Model-test-op" {
				t.Errorf("Expected model circuit breaker name 'AI-Model-test-op', got '%s'", name)
			}
			if healthy, _ := stats["overall_healthy"].(bool); !healthy {
				t.Error("Circuit breaker should be healthy initially")
			}
		})
	}
}

func TestNewServicesUsesOperationConfig(t *testing.T) {
	appCfg := &config.Config{
		AI: config.AIConfig{
			Provider:         "gemini",
			Model:            "global-model",
			Timeout:          60 * time.Second,
			APIKey:           "global-api-key",
			MaxRetries:       2,
			Temperature:      0.4,
			UseSystemPrompts: true,
			Feedback: config.OperationAIConfig{
				Provider: "openai",
				Model:    "gpt-4o-mini",
			},
		},
	}

	services, err := NewServices(appCfg, testLogger)
	if err != nil {
		t.Fatalf("NewServices() error: %v", err)
	}
	defer services.Close()

	if _, ok := services.Feedback.Provider.(*OpenAIProvider); !ok {
		t.Errorf("feedback provider = %T, want *OpenAIProvider", services.Feedback.Provider)
	}
	if _, ok := services.Tone.Provider.(*GeminiProvider); !ok {
		t.Errorf("tone provider = %T, want *GeminiProvider", services.Tone.Provider)
	}
	for op, svc := range services.ByOperation() {
		if svc.Operation() != op {
			t.Errorf("service for %s reports operation %s", op, svc.Operation())
		}
	}
}
