package notify

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

// NotifyProcessor handles jobs from the decision queue: mailing the outcome
// of an approval decision to the entry owner. Rejections must reach the
// owner, so failures are retried with backoff.
type NotifyProcessor struct {
	emailService core.EmailService
	decisions    repository.DecisionRepository
	users        repository.UserRepository
}

// NewProcessor sets up a new processor for decision notifications.
func NewProcessor(emailService core.EmailService, decisions repository.DecisionRepository, users repository.UserRepository) *NotifyProcessor {
	return &NotifyProcessor{
		emailService: emailService,
		decisions:    decisions,
		users:        users,
	}
}

// Process is the main entry point for handling a message from the decision queue.
func (p *NotifyProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.DecisionEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal decision event")
		return false, 0, err // Do not retry on malformed message
	}

	decision, err := p.decisions.GetDecision(ctx, event.DecisionID)
	if err != nil {
		return true, 10, fmt.Errorf("failed to get decision from db: %w", err)
	}
	if decision == nil {
		log.Ctx(ctx).Error().Str("decision_id", event.DecisionID).Msg("Decision not found, dropping event")
		return false, 0, nil
	}

	if decision.NotifyStatus == model.StatusNotifyCompleted {
		log.Ctx(ctx).Info().Str("decision_id", decision.ID).Msg("Notification already sent. Skipping.")
		return false, 0, nil
	}

	owner, err := p.users.GetUser(ctx, event.UserID)
	if err != nil {
		return true, 10, fmt.Errorf("failed to load entry owner %d: %w", event.UserID, err)
	}
	if owner == nil {
		log.Ctx(ctx).Error().Int64("user_id", event.UserID).Msg("Entry owner not found, dropping event")
		return false, 0, nil
	}

	err = p.emailService.SendDecisionNotice(ctx, owner.Email, model.DecisionAction(event.Action), event.Reason, len(event.TlogIDs))
	if err != nil {
		newCount := decision.NotifyRetryCount + 1
		p.decisions.UpdateNotifyStatus(ctx, decision.ID, model.StatusNotifyPending, newCount)

		delay := worker.CalculateBackoff(newCount)
		return true, delay, err
	}

	err = p.decisions.UpdateNotifyStatus(ctx, decision.ID, model.StatusNotifyCompleted, 0)
	return false, 0, err
}
