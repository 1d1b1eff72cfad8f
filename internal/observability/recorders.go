package observability

import (
	"context"
	"time"

	"interviewcoach/internal/ai"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RecordAIUsage counts an oracle call made by the session pipeline. Its
// signature matches oracle.UsageRecorder.
func (om *ObservabilityManager) RecordAIUsage(ctx context.Context, operation string, usage *ai.TokenUsage, err error) {
	om.GetMetrics().recordAICall(ctx, []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
		attribute.String("source", "session"),
	}, usage, err)
}

// RecordEventPublish records one domain event write. Its signature matches
// events.PublishRecorder.
func (om *ObservabilityManager) RecordEventPublish(ctx context.Context, eventType string, err error, d time.Duration) {
	m := om.GetMetrics()
	if m.EventsPublished == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.Bool("success", err == nil),
	)
	m.EventsPublished.Add(ctx, 1, attrs)
	m.EventPublishLatency.Record(ctx, d.Seconds(), attrs)
}
