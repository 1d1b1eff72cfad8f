package ai

import (
	"fmt"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// Breaker guards calls that return T. A nil Breaker runs calls directly, so
// a disabled breaker needs no special casing at call sites.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// tripPolicy decides when a closed breaker opens
type tripPolicy func(counts gobreaker.Counts) bool

// ratioPolicy trips once at least minRequests were seen and the failure
// ratio reached threshold.
func ratioPolicy(minRequests uint32, threshold float64) tripPolicy {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests == 0 || counts.Requests < minRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) >= threshold
	}
}

func newBreaker[T any](name, operation string, cfg config.CircuitBreakerConfig, trip tripPolicy, logger *errors.Logger) *Breaker[T] {
	if !cfg.Enabled {
		return nil
	}
	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: trip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation", operation,
				"from", from.String(),
				"to", to.String())
		},
	})}
}

// NewGenerationBreaker guards content generation for one operation using
// the operation's configured thresholds.
func NewGenerationBreaker(operation string, cfg *config.OperationAIConfig, logger *errors.Logger) *Breaker[*Completion] {
	cb := cfg.CircuitBreaker
	return newBreaker[*Completion](fmt.Sprintf("AI-%s", operation), operation, cb,
		ratioPolicy(cb.MinRequests, cb.FailureThreshold), logger)
}

// NewModelBreaker guards model availability lookups. Lookups only feed the
// health endpoint, so it trips later than the generation breaker.
func NewModelBreaker(operation string, cfg *config.OperationAIConfig, logger *errors.Logger) *Breaker[*ModelInfo] {
	return newBreaker[*ModelInfo](fmt.Sprintf("AI-Model-%s", operation), operation, cfg.CircuitBreaker,
		ratioPolicy(5, 0.8), logger)
}

// Execute runs fn with circuit breaker protection
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats reports name, state and counts; a nil breaker reports enabled=false
func (b *Breaker[T]) Stats() map[string]any {
	if b == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// Healthy reports whether the breaker is closed. A nil breaker is healthy.
func (b *Breaker[T]) Healthy() bool {
	return b == nil || b.cb.State() == gobreaker.StateClosed
}

// guards are the two breakers every provider carries
type guards struct {
	generate *Breaker[*Completion]
	model    *Breaker[*ModelInfo]
}

func newGuards(operation string, cfg *config.OperationAIConfig, logger *errors.Logger) guards {
	return guards{
		generate: NewGenerationBreaker(operation, cfg, logger),
		model:    NewModelBreaker(operation, cfg, logger),
	}
}

func (g guards) stats() map[string]any {
	return map[string]any{
		"ai_operations":    g.generate.Stats(),
		"model_operations": g.model.Stats(),
		"overall_healthy":  g.generate.Healthy() && g.model.Healthy(),
	}
}
