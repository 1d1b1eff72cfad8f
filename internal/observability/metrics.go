package observability

import (
	"context"
	"fmt"
	"slices"
	"time"

	"interviewcoach/internal/ai"
	"interviewcoach/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// MetricSwitches turns metric groups on and off
type MetricSwitches struct {
	AIOperations    bool
	AIDuration      bool
	AITokens        bool
	Business        bool
	RateLimits      bool
	Sessions        bool
	CertificateInfo bool
}

// AllMetrics enables every group
func AllMetrics() MetricSwitches {
	return MetricSwitches{
		AIOperations:    true,
		AIDuration:      true,
		AITokens:        true,
		Business:        true,
		RateLimits:      true,
		Sessions:        true,
		CertificateInfo: true,
	}
}

func switchesFrom(c config.CustomMetricsConfig) MetricSwitches {
	return MetricSwitches{
		AIOperations:    c.AIOperations.Enabled,
		AIDuration:      c.AIOperations.Enabled && c.AIOperations.TrackDuration,
		AITokens:        c.AIOperations.Enabled && c.AIOperations.TrackTokenUsage,
		Business:        c.BusinessMetrics.Enabled && c.BusinessMetrics.TrackSuccessRates,
		RateLimits:      c.Infrastructure.Enabled && c.Infrastructure.TrackRateLimits,
		Sessions:        c.Infrastructure.Enabled && c.Infrastructure.TrackSessions,
		CertificateInfo: c.Infrastructure.Enabled,
	}
}

// BusinessMetric names one of the interview flow counters
type BusinessMetric int

const (
	QuestionsGenerated BusinessMetric = iota
	ToneAnalyzed
	FeedbackGenerated
	FeedbackPersisted
	ResumeExtracted
)

// Metrics holds the interviewcoach instruments. The zero value records nothing.
type Metrics struct {
	switches MetricSwitches
	meter    metric.Meter

	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	business map[BusinessMetric]metric.Int64Counter

	EventsPublished     metric.Int64Counter
	EventPublishLatency metric.Float64Histogram

	CertReloadCount metric.Int64Counter
	RateLimitHits   metric.Int64Counter
	ActiveSessions  metric.Int64ObservableGauge
}

type counterSpec struct {
	target      *metric.Int64Counter
	name        string
	description string
}

func newMetrics(meter metric.Meter, switches MetricSwitches) (*Metrics, error) {
	m := &Metrics{
		switches: switches,
		meter:    meter,
		business: make(map[BusinessMetric]metric.Int64Counter),
	}

	var err error
	m.AIProcessingTime, err = meter.Float64Histogram(
		"interviewcoach_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}
	m.AITokenUsage, err = meter.Int64Histogram(
		"interviewcoach_ai_token_usage_total",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}
	m.EventPublishLatency, err = meter.Float64Histogram(
		"interviewcoach_event_publish_duration_seconds",
		metric.WithDescription("Time spent writing domain events to the broker"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publish latency metric: %w", err)
	}

	business := map[BusinessMetric]counterSpec{
		QuestionsGenerated: {name: "interviewcoach_questions_generated_total", description: "Total number of question sets generated"},
		ToneAnalyzed:       {name: "interviewcoach_tone_analyses_total", description: "Total number of tone analyses"},
		FeedbackGenerated:  {name: "interviewcoach_feedback_generated_total", description: "Total number of interview evaluations generated"},
		FeedbackPersisted:  {name: "interviewcoach_feedback_persisted_total", description: "Total number of feedback records stored"},
		ResumeExtracted:    {name: "interviewcoach_resumes_extracted_total", description: "Total number of uploaded resumes extracted"},
	}
	for kind, spec := range business {
		counter, err := meter.Int64Counter(spec.name, metric.WithDescription(spec.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", spec.name, err)
		}
		m.business[kind] = counter
	}

	counters := []counterSpec{
		{&m.AIRequestCount, "interviewcoach_ai_requests_total", "Total number of AI requests"},
		{&m.AIErrorCount, "interviewcoach_ai_errors_total", "Total number of AI request errors"},
		{&m.EventsPublished, "interviewcoach_events_published_total", "Total number of domain events published"},
		{&m.CertReloadCount, "interviewcoach_cert_reloads_total", "Total number of certificate reloads"},
		{&m.RateLimitHits, "interviewcoach_rate_limit_hits_total", "Total number of rate limit hits"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
		*c.target = counter
	}

	return m, nil
}

// Business returns the counter for kind, or nil before initialization
func (m *Metrics) Business(kind BusinessMetric) metric.Int64Counter {
	return m.business[kind]
}

// TrackAIOperation runs fn inside an "ai.<operation>" span and records
// duration, request, error and token metrics for it.
func (m *Metrics) TrackAIOperation(ctx context.Context, operation string, fn func(context.Context) (*ai.TokenUsage, error)) error {
	if m.AIRequestCount == nil {
		_, err := fn(ctx)
		return err
	}

	ctx, span := otel.Tracer("interviewcoach.ai").Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	usage, err := fn(ctx)
	elapsed := time.Since(start)

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	span.SetAttributes(attrs...)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if m.switches.AIDuration {
		m.AIProcessingTime.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	}
	m.recordAICall(ctx, attrs, usage, err)
	return err
}

func (m *Metrics) recordAICall(ctx context.Context, attrs []attribute.KeyValue, usage *ai.TokenUsage, err error) {
	if !m.switches.AIOperations || m.AIRequestCount == nil {
		return
	}
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if usage == nil || !m.switches.AITokens {
		return
	}
	for _, tokens := range []struct {
		kind  string
		value int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		tokenAttrs := append(slices.Clone(attrs), attribute.String("token_type", tokens.kind))
		m.AITokenUsage.Record(ctx, tokens.value, metric.WithAttributes(tokenAttrs...))
	}
}

// RecordBusiness counts one interview flow outcome
func (m *Metrics) RecordBusiness(ctx context.Context, kind BusinessMetric, success bool, attrs ...attribute.KeyValue) {
	if !m.switches.Business {
		return
	}
	counter := m.business[kind]
	if counter == nil {
		return
	}
	attrs = append([]attribute.KeyValue{attribute.Bool("success", success)}, attrs...)
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitHit counts a rejected API request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, endpoint, method string) {
	if !m.switches.RateLimits || m.RateLimitHits == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("method", method)))
}

// RecordCertReload counts a TLS certificate reload attempt
func (m *Metrics) RecordCertReload(ctx context.Context, success bool) {
	if !m.switches.CertificateInfo || m.CertReloadCount == nil {
		return
	}
	m.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// RegisterSessionGauge reports the number of live call sessions on every
// collection.
func (m *Metrics) RegisterSessionGauge(active func() int64) error {
	if m.meter == nil || active == nil || !m.switches.Sessions {
		return nil
	}
	gauge, err := m.meter.Int64ObservableGauge(
		"interviewcoach_active_sessions",
		metric.WithDescription("Number of connected interview call sessions"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(active())
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create active sessions metric: %w", err)
	}
	m.ActiveSessions = gauge
	return nil
}
