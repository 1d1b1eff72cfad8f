package ai

import (
	"context"
	"fmt"

	"interviewcoach/internal/config"
	appErrors "interviewcoach/internal/errors"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// OpenAIProvider implements Provider over the OpenAI chat completions API
type OpenAIProvider struct {
	client   openai.Client
	config   *config.OperationAIConfig
	breakers guards
	logger   *appErrors.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates an OpenAI provider for one operation. SDK-level
// retries are disabled; executeWithRetry owns the retry policy.
func NewOpenAIProvider(cfg *config.OperationAIConfig, operationType string, logger *appErrors.Logger, opts ...option.RequestOption) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, appErrors.NewConfigError(appErrors.ErrCodeMissingAPIKey,
			"OpenAI API key is required", nil)
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &OpenAIProvider{
		client:   openai.NewClient(clientOpts...),
		config:   cfg,
		breakers: newGuards(operationType, cfg, logger),
		logger:   logger,
	}, nil
}

// Generate sends one chat completion request
func (o *OpenAIProvider) Generate(ctx context.Context, req Request) (*Completion, error) {
	tracer := otel.Tracer("interviewcoach.ai.openai")
	ctx, span := tracer.Start(ctx, "openai."+req.Operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", o.config.Model),
		attribute.Float64("ai.temperature", float64(*o.config.Temperature)),
		attribute.Int("input.prompt_length", len(req.UserPrompt)),
	)

	params := o.buildParams(req)

	result, err := o.breakers.generate.Execute(func() (*Completion, error) {
		return executeWithRetry(ctx, o.logger, req.Operation, *o.config.MaxRetries, func() (*Completion, error) {
			resp, err := o.client.Chat.Completions.New(ctx, params, option.WithRequestTimeout(*o.config.Timeout))
			if err != nil {
				return nil, err
			}
			if len(resp.Choices) == 0 {
				return nil, fmt.Errorf("openai returned no choices")
			}
			return &Completion{
				Text:  resp.Choices[0].Message.Content,
				Model: resp.Model,
				Usage: &TokenUsage{
					InputTokens:  resp.Usage.PromptTokens,
					OutputTokens: resp.Usage.CompletionTokens,
					TotalTokens:  resp.Usage.TotalTokens,
				},
			}, nil
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to generate content for "+req.Operation, err)
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int64("ai.tokens.total", result.Usage.TotalTokens),
		attribute.Int("output.length", len(result.Text)),
	)
	return result, nil
}

func (o *OpenAIProvider) buildParams(req Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if *o.config.UseSystemPrompts && req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.config.Model),
		Messages: messages,
	}
	if *o.config.Temperature > 0 {
		params.Temperature = openai.Float(float64(*o.config.Temperature))
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

// GetModelInfo looks the configured model up in the models API
func (o *OpenAIProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	info, err := o.breakers.model.Execute(func() (*ModelInfo, error) {
		model, err := o.client.Models.Get(checkCtx, o.config.Model)
		if err != nil {
			return nil, err
		}
		return &ModelInfo{
			Name:        o.config.Model,
			Provider:    "openai",
			DisplayName: model.ID,
			Version:     model.OwnedBy,
			Available:   true,
		}, nil
	})
	if err != nil {
		o.logger.Warn("Model availability check failed",
			"model", o.config.Model,
			"provider", "openai",
			"error", err.Error())
		return &ModelInfo{
			Name:     o.config.Model,
			Provider: "openai",
			Error:    fmt.Sprintf("Failed to get model info: %v", err),
		}
	}
	return info
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (o *OpenAIProvider) GetCircuitBreakerStats() map[string]any {
	return o.breakers.stats()
}

func (o *OpenAIProvider) Close() error {
	return nil
}
