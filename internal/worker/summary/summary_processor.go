package summary

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	"timetrack.service/internal/core"
	"timetrack.service/internal/core/model"
	"timetrack.service/internal/ports/messaging"
	"timetrack.service/internal/ports/repository"
	"timetrack.service/internal/worker"
)

// SummaryProcessor handles jobs from the summary queue: mailing the
// worked-hours recap after a clock-out.
type SummaryProcessor struct {
	emailService core.EmailService
	sessions     repository.SessionRepository
	users        repository.UserRepository
}

// NewProcessor sets up a new processor for shift-summary emails.
func NewProcessor(emailService core.EmailService, sessions repository.SessionRepository, users repository.UserRepository) *SummaryProcessor {
	return &SummaryProcessor{
		emailService: emailService,
		sessions:     sessions,
		users:        users,
	}
}

// Process tries to send the summary email and tells the worker to retry if
// something goes wrong.
func (p *SummaryProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.ClockOutEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal clock-out event")
		return false, 0, err // Do not retry on malformed message
	}

	session, err := p.sessions.GetSession(ctx, event.SessionID)
	if err != nil {
		return true, 10, fmt.Errorf("failed to get session from db: %w", err)
	}
	if session == nil {
		log.Ctx(ctx).Error().Int64("session_id", event.SessionID).Msg("Session not found, dropping event")
		return false, 0, nil
	}

	if session.SummaryStatus == model.StatusNotifyCompleted {
		log.Ctx(ctx).Info().Int64("session_id", session.ID).Msg("Summary already sent. Skipping.")
		return false, 0, nil
	}

	owner, err := p.users.GetUser(ctx, event.UserID)
	if err != nil {
		return true, 10, fmt.Errorf("failed to load session owner %d: %w", event.UserID, err)
	}
	if owner == nil {
		log.Ctx(ctx).Error().Int64("user_id", event.UserID).Msg("Session owner not found, dropping event")
		return false, 0, nil
	}

	err = p.emailService.SendShiftSummary(ctx, owner.Email, event.HoursWorked)
	if err != nil {
		newCount := session.SummaryRetryCount + 1
		p.sessions.UpdateSummaryStatus(ctx, session.ID, model.StatusNotifyPending, newCount)

		delay := worker.CalculateBackoff(newCount)
		return true, delay, err
	}

	err = p.sessions.UpdateSummaryStatus(ctx, session.ID, model.StatusNotifyCompleted, 0)
	return false, 0, err
}
