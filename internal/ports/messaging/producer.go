package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// EventProducer defines the output port for publishing domain events.
type EventProducer interface {
	PublishDecision(ctx context.Context, event DecisionEvent) error
	PublishSummary(ctx context.Context, event ClockOutEvent) error
}

// MessageSender defines the interface for sending raw messages to a messaging system.
type MessageSender interface {
	SendMessage(ctx context.Context, destination string, body []byte) error
}

type Producer struct {
	sender           MessageSender
	decisionQueueURL string
	summaryQueueURL  string
}

func NewProducer(sender MessageSender, decisionQueueURL, summaryQueueURL string) *Producer {
	return &Producer{
		sender:           sender,
		decisionQueueURL: decisionQueueURL,
		summaryQueueURL:  summaryQueueURL,
	}
}

// NewSQSProducer wires the producer to AWS SQS.
func NewSQSProducer(client SQSClient, decisionQueueURL, summaryQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, decisionQueueURL, summaryQueueURL)
}

func (p *Producer) PublishDecision(ctx context.Context, event DecisionEvent) error {
	return p.publish(ctx, p.decisionQueueURL, event)
}

func (p *Producer) PublishSummary(ctx context.Context, event ClockOutEvent) error {
	return p.publish(ctx, p.summaryQueueURL, event)
}

func (p *Producer) publish(ctx context.Context, destination string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	// Enrich the current span with the user id if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		var payload struct {
			UserID int64 `json:"userId"`
		}
		if err := json.Unmarshal(b, &payload); err == nil && payload.UserID != 0 {
			span.SetAttributes(attribute.Int64("app.userId", payload.UserID))
		}
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
