package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"timetrack.service/internal/core/model"
	"timetrack.service/pkg/telemetry"
)

type EmailService interface {
	SendShiftSummary(ctx context.Context, to string, hours float64) error
	SendDecisionNotice(ctx context.Context, to string, action model.DecisionAction, reason string, logCount int) error
}

type SESEmailService struct {
	client *ses.Client
	sender string
}

func NewSESEmailService(client *ses.Client, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

// SendShiftSummary mails the worked-hours recap after a clock-out.
func (s *SESEmailService) SendShiftSummary(ctx context.Context, to string, hours float64) error {
	body := fmt.Sprintf("Hello,\n\nYou have clocked out. Total hours worked this shift: %.2f hours.", hours)
	return s.send(ctx, to, "Work Shift Summary", body)
}

// SendDecisionNotice mails the outcome of an approval decision to the entry
// owner. Rejections always carry the sanitized reason.
func (s *SESEmailService) SendDecisionNotice(ctx context.Context, to string, action model.DecisionAction, reason string, logCount int) error {
	var body string
	if action == model.ActionReject {
		body = fmt.Sprintf("Hello,\n\n%d of your time log entries were rejected.\nReason: %s\n\nPlease edit and resubmit them.", logCount, reason)
	} else {
		body = fmt.Sprintf("Hello,\n\n%d of your time log entries were approved.", logCount)
	}
	return s.send(ctx, to, "Timesheet Review Update", body)
}

func (s *SESEmailService) send(ctx context.Context, to, subject, body string) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if userID := telemetry.GetUserIDFromContext(ctx); userID != 0 {
		span.SetAttributes(attribute.Int64("app.userId", userID))
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}
