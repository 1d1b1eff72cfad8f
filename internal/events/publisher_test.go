package events

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"interviewcoach/internal/config"
	"interviewcoach/internal/errors"
)

var testLogger = errors.NewLogger(slog.LevelDebug)

func TestNewPublisherDisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.EventsConfig
	}{
		{"disabled", config.EventsConfig{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", config.EventsConfig{Enabled: true, Brokers: []string{}}},
		{"nil brokers", config.EventsConfig{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPublisher(tt.cfg, testLogger)
			if p.Enabled() {
				t.Error("expected publisher to be disabled")
			}
			if p.sessionWriter != nil || p.feedbackWriter != nil {
				t.Error("expected nil writers when disabled")
			}
		})
	}
}

func TestNewPublisherEnabled(t *testing.T) {
	p := NewPublisher(config.EventsConfig{
		Enabled:       true,
		Brokers:       []string{"localhost:9092"},
		SessionTopic:  "test.sessions",
		FeedbackTopic: "test.feedback",
		ClientID:      "test",
	}, testLogger)
	defer func() { _ = p.Close() }()

	if !p.Enabled() {
		t.Fatal("expected publisher to be enabled")
	}
	if p.sessionWriter.Topic != "test.sessions" {
		t.Errorf("session topic = %s", p.sessionWriter.Topic)
	}
	if p.feedbackWriter.Topic != "test.feedback" {
		t.Errorf("feedback topic = %s", p.feedbackWriter.Topic)
	}
}

func TestPublishDisabledRecordsAndLogs(t *testing.T) {
	var recorded []string
	p := NewPublisher(config.EventsConfig{SessionTopic: "s", FeedbackTopic: "f"}, testLogger).
		WithRecorder(func(_ context.Context, eventType string, err error, _ time.Duration) {
			if err != nil {
				t.Errorf("unexpected error for %s: %v", eventType, err)
			}
			recorded = append(recorded, eventType)
		})

	if err := p.PublishSessionFinished(context.Background(), SessionFinished{Mode: "interview", Messages: 3}); err != nil {
		t.Errorf("PublishSessionFinished() error = %v", err)
	}
	if err := p.PublishFeedbackCreated(context.Background(), FeedbackCreated{FeedbackID: "f1"}); err != nil {
		t.Errorf("PublishFeedbackCreated() error = %v", err)
	}

	if len(recorded) != 2 || recorded[0] != TypeSessionFinished || recorded[1] != TypeFeedbackCreated {
		t.Errorf("recorded = %v", recorded)
	}
}

func TestNilPublisher(t *testing.T) {
	var p *Publisher
	if p.Enabled() {
		t.Error("nil publisher should be disabled")
	}
	if err := p.PublishSessionFinished(context.Background(), SessionFinished{}); err != nil {
		t.Errorf("nil publisher returned %v", err)
	}
	if err := p.PublishFeedbackCreated(context.Background(), FeedbackCreated{}); err != nil {
		t.Errorf("nil publisher returned %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil Close returned %v", err)
	}
}
