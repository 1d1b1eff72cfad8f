package ai

import (
	"context"
	"fmt"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
)

// Service runs one AI operation with its own provider, breaker and prompts
type Service struct {
	Provider  Provider // Exported for access from server package
	operation string
	config    *config.OperationAIConfig
	logger    *errors.Logger
}

// NewService creates a new AI service instance with configuration for a specific operation
func NewService(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (*Service, error) {
	var provider Provider
	var err error

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, operationType, logger)
	case "openai":
		provider, err = NewOpenAIProvider(cfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	return NewServiceWithProvider(provider, cfg, operationType, logger), nil
}

// NewServiceWithProvider wires an existing provider, mainly for tests
func NewServiceWithProvider(provider Provider, cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) *Service {
	return &Service{
		Provider:  provider,
		operation: operationType,
		config:    cfg,
		logger:    logger,
	}
}

// Operation returns the operation name this service was built for
func (s *Service) Operation() string {
	return s.operation
}

// Run renders the operation's prompts with vars and returns the raw reply text.
// language only selects between built-in prompt variants.
func (s *Service) Run(ctx context.Context, language string, vars PromptVars) (*Completion, error) {
	systemPrompt, userTemplate := resolvePrompts(s.operation, language, s.config)

	return s.Provider.Generate(ctx, Request{
		Operation:    s.operation,
		SystemPrompt: systemPrompt,
		UserPrompt:   renderPrompt(userTemplate, vars),
		JSON:         s.operation != config.OperationQuestions,
	})
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// CircuitBreakerStats returns breaker statistics when the provider exposes them
func (s *Service) CircuitBreakerStats() map[string]any {
	if p, ok := s.Provider.(interface{ GetCircuitBreakerStats() map[string]any }); ok {
		return p.GetCircuitBreakerStats()
	}
	return map[string]any{"enabled": false}
}

// Close releases the provider
func (s *Service) Close() error {
	return s.Provider.Close()
}

// Services holds one Service per configured operation
type Services struct {
	Questions *Service
	Tone      *Service
	Feedback  *Service
	Extract   *Service
}

// NewServices builds a service per operation from the application config.
// Services are long-lived so that breaker state survives across requests.
func NewServices(cfg *config.Config, logger *errors.Logger) (*Services, error) {
	build := func(op string) (*Service, error) {
		opCfg := cfg.GetOperationConfig(op)
		svc, err := NewService(&opCfg, op, logger)
		if err != nil {
			return nil, fmt.Errorf("%s service: %w", op, err)
		}
		return svc, nil
	}

	var s Services
	var err error
	if s.Questions, err = build(config.OperationQuestions); err != nil {
		return nil, err
	}
	if s.Tone, err = build(config.OperationTone); err != nil {
		return nil, err
	}
	if s.Feedback, err = build(config.OperationFeedback); err != nil {
		return nil, err
	}
	if s.Extract, err = build(config.OperationExtract); err != nil {
		return nil, err
	}
	return &s, nil
}

// ByOperation returns every service keyed by operation name
func (s *Services) ByOperation() map[string]*Service {
	return map[string]*Service{
		config.OperationQuestions: s.Questions,
		config.OperationTone:      s.Tone,
		config.OperationFeedback:  s.Feedback,
		config.OperationExtract:   s.Extract,
	}
}

// Close closes every provider
func (s *Services) Close() error {
	var firstErr error
	for _, svc := range s.ByOperation() {
		if svc == nil {
			continue
		}
		if err := svc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
