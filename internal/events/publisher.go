package events

import (
	"context"
	"encoding/json"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"

	"github.com/segmentio/kafka-go"
)

// PublishRecorder observes every publish attempt
type PublishRecorder func(ctx context.Context, eventType string, err error, duration time.Duration)

// Publisher writes session and feedback events to their topics. When Kafka
// is disabled it only logs the payloads. A nil *Publisher is a no-op.
type Publisher struct {
	sessionWriter  *kafka.Writer
	feedbackWriter *kafka.Writer
	sessionTopic   string
	feedbackTopic  string
	clientID       string
	enabled        bool
	logger         *errors.Logger
	record         PublishRecorder
}

// NewPublisher creates a publisher from the events config
func NewPublisher(cfg config.EventsConfig, logger *errors.Logger) *Publisher {
	p := &Publisher{
		sessionTopic:  cfg.SessionTopic,
		feedbackTopic: cfg.FeedbackTopic,
		clientID:      cfg.ClientID,
		logger:        logger,
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Info("Kafka disabled, using log-only mode")
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
		ClientID:  cfg.ClientID,
	}
	transport := &kafka.Transport{
		Dial:     dialer.DialFunc,
		ClientID: cfg.ClientID,
	}

	p.sessionWriter = newWriter(cfg.Brokers, cfg.SessionTopic, transport)
	p.feedbackWriter = newWriter(cfg.Brokers, cfg.FeedbackTopic, transport)
	p.enabled = true

	logger.Info("Kafka publisher initialized",
		"brokers", cfg.Brokers,
		"session_topic", cfg.SessionTopic,
		"feedback_topic", cfg.FeedbackTopic)
	return p
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// WithRecorder sets a callback for publish metrics
func (p *Publisher) WithRecorder(record PublishRecorder) *Publisher {
	if p != nil {
		p.record = record
	}
	return p
}

// Enabled reports whether events reach Kafka
func (p *Publisher) Enabled() bool {
	return p != nil && p.enabled
}

// PublishSessionFinished publishes a session.finished event keyed by interview
func (p *Publisher) PublishSessionFinished(ctx context.Context, event SessionFinished) error {
	if p == nil {
		return nil
	}
	key := event.InterviewID
	if key == "" {
		key = event.UserID
	}
	return p.publish(ctx, p.sessionWriter, p.sessionTopic, TypeSessionFinished, key, event)
}

// PublishFeedbackCreated publishes a feedback.created event keyed by feedback id
func (p *Publisher) PublishFeedbackCreated(ctx context.Context, event FeedbackCreated) error {
	if p == nil {
		return nil
	}
	return p.publish(ctx, p.feedbackWriter, p.feedbackTopic, TypeFeedbackCreated, event.FeedbackID, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		appErr := errors.NewInternalError(errors.ErrCodeEventPublishFailed, "failed to encode event", err).
			WithContext("event_type", eventType)
		p.observe(ctx, eventType, appErr, start)
		return appErr
	}

	p.logger.Debug("Publishing event",
		"topic", topic,
		"event_type", eventType,
		"key", key,
		"payload", string(payload))

	if !p.enabled || writer == nil {
		p.observe(ctx, eventType, nil, start)
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "clientId", Value: []byte(p.clientID)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		appErr := errors.NewNetworkError(errors.ErrCodeEventPublishFailed, "failed to write to Kafka", err).
			WithContext("topic", topic)
		p.logger.LogError(appErr, "Event publish failed", "key", key)
		p.observe(ctx, eventType, appErr, start)
		return appErr
	}

	p.observe(ctx, eventType, nil, start)
	return nil
}

func (p *Publisher) observe(ctx context.Context, eventType string, err error, start time.Time) {
	if p.record != nil {
		p.record(ctx, eventType, err, time.Since(start))
	}
}

// Close closes both writers
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var err error
	for _, w := range []*kafka.Writer{p.sessionWriter, p.feedbackWriter} {
		if w == nil {
			continue
		}
		if e := w.Close(); e != nil {
			p.logger.Error("Error closing Kafka writer", "topic", w.Topic, "error", e.Error())
			err = e
		}
	}
	return err
}
