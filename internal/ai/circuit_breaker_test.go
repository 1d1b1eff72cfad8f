package ai

import (
	"fmt"
	"testing"
	"time"

	"interviewcoach/internal/config"

	"github.com/sony/gobreaker/v2"
)

func TestIndependentCircuitBreakerConfigurations(t *testing.T) {
	toneConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.0-flash-001",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}

	feedbackConfig := &config.OperationAIConfig{
		Provider: "openai",
		Model:    "gpt-4o-mini",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          45 * time.Second,
			MinRequests:      2,
			FailureThreshold: 0.7,
		},
	}

	tone := newGuards("tone", toneConfig, nil)
	feedback := newGuards("feedback", feedbackConfig, nil)

	tests := []struct {
		name     string
		stats    map[string]any
		wantName string
	}{
		{"tone generation", tone.generate.Stats(), "AI-tone"},
		{"tone model", tone.model.Stats(), "AI-Model-tone"},
		{"feedback generation", feedback.generate.Stats(), "AI-feedback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if name, _ := tt.stats["name"].(string); name != tt.wantName {
				t.Errorf("Expected circuit breaker name '%s', got '%s'", tt.wantName, name)
			}
			if state, _ := tt.stats["state"].(string); state != "closed" {
				t.Errorf("Expected initial state 'closed', got '%s'", state)
			}
			if enabled, _ := tt.stats["enabled"].(bool); !enabled {
				t.Error("Circuit breaker should be enabled")
			}
		})
	}

	if healthy, _ := tone.stats()["overall_healthy"].(bool); !healthy {
		t.Error("Fresh breakers should be healthy")
	}
	if tone.generate == feedback.generate {
		t.Error("Tone and feedback circuit breakers should be different instances")
	}
}

func TestCircuitBreakerTripsOnFailures(t *testing.T) {
	cfg := &config.OperationAIConfig{
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			MinRequests:      2,
			FailureThreshold: 0.5,
		},
	}
	g := newGuards("feedback", cfg, testLogger)

	calls := 0
	failing := func() (*Completion, error) {
		calls++
		return nil, fmt.Errorf("upstream unavailable")
	}

	for range 2 {
		if _, err := g.generate.Execute(failing); err == nil {
			t.Fatal("expected error from failing call")
		}
	}
	if g.generate.Healthy() {
		t.Fatal("breaker should be open after two failures")
	}
	if healthy, _ := g.stats()["overall_healthy"].(bool); healthy {
		t.Error("overall health should follow the generation breaker")
	}

	if _, err := g.generate.Execute(failing); err != gobreaker.ErrOpenState {
		t.Fatalf("expected open-state error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("open breaker should not invoke the function, calls = %d", calls)
	}
	if !g.model.Healthy() {
		t.Error("model breaker should be unaffected by generation failures")
	}
}

func TestRatioPolicy(t *testing.T) {
	trip := ratioPolicy(4, 0.5)

	tests := []struct {
		name   string
		counts gobreaker.Counts
		want   bool
	}{
		{"no requests", gobreaker.Counts{}, false},
		{"below minimum", gobreaker.Counts{Requests: 3, TotalFailures: 3}, false},
		{"below threshold", gobreaker.Counts{Requests: 4, TotalFailures: 1}, false},
		{"at threshold", gobreaker.Counts{Requests: 4, TotalFailures: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trip(tt.counts); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	disabledConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "test-model",
	}

	g := newGuards("disabled", disabledConfig, nil)
	if g.generate != nil || g.model != nil {
		t.Fatal("Circuit breakers should be nil when disabled")
	}

	got, err := g.generate.Execute(func() (*Completion, error) {
		return &Completion{Text: "ok"}, nil
	})
	if err != nil || got.Text != "ok" {
		t.Errorf("Execute on nil breaker = %v, %v", got, err)
	}
	if !g.generate.Healthy() {
		t.Error("nil breaker should report healthy")
	}
	if enabled, _ := g.generate.Stats()["enabled"].(bool); enabled {
		t.Error("nil breaker stats should report disabled")
	}

	info, err := g.model.Execute(func() (*ModelInfo, error) {
		return &ModelInfo{Name: "m", Available: true}, nil
	})
	if err != nil || !info.Available {
		t.Errorf("Execute on nil model breaker = %v, %v", info, err)
	}
}
