package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"timetrack.service/internal/core/model"
	"timetrack.service/internal/ports/messaging"
	"timetrack.service/internal/ports/repository"
)

// ApprovalService is the finite-state machine advancing batches of time-log
// rows through the supervisor and manager decision points. Every transition
// is a compare-and-set: a decision that races another one fails with a stale
// state instead of silently overwriting it.
type ApprovalService struct {
	activities repository.ActivityRepository
	decisions  repository.DecisionRepository
	users      repository.UserRepository
	producer   messaging.EventProducer
	// requireManagerTier keeps MANAGER_APPROVED behind a second decision
	// point. When disabled, a supervisor approval is terminal.
	requireManagerTier bool
	now                func() time.Time
}

func NewApprovalService(
	activities repository.ActivityRepository,
	decisions repository.DecisionRepository,
	users repository.UserRepository,
	producer messaging.EventProducer,
	requireManagerTier bool,
) *ApprovalService {
	return &ApprovalService{
		activities:         activities,
		decisions:          decisions,
		users:              users,
		producer:           producer,
		requireManagerTier: requireManagerTier,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// Decide applies one approve/reject decision to a batch of entries
// atomically and writes a single audit row. The approver must hold the
// reporting edge over every affected owner; a mismatch anywhere fails the
// whole call.
func (s *ApprovalService) Decide(ctx context.Context, approverID int64, tlogIDs []int64, action model.DecisionAction, reason string) (*model.ApprovalDecision, error) {
	ids := dedupeIDs(tlogIDs)
	if len(ids) == 0 {
		return nil, model.ErrNoPendingEntries
	}

	var sanitizedReason string
	switch action {
	case model.ActionApprove:
	case model.ActionReject:
		sanitized, err := SanitizeReason(reason, true)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrReasonRequired, err)
		}
		sanitizedReason = sanitized
	default:
		return nil, fmt.Errorf("unknown decision action %q", action)
	}

	entries, err := s.activities.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	if len(entries) != len(ids) {
		// Some ids do not exist (anymore); the client is acting on stale data.
		return nil, model.ErrStaleState
	}

	source := entries[0].ApprovalStatus
	for _, e := range entries[1:] {
		if e.ApprovalStatus != source {
			return nil, model.ErrStaleState
		}
	}

	var target model.ApprovalStatus
	var supervisorTier bool
	switch source {
	case model.StatusSubmitted:
		supervisorTier = true
		target = model.StatusSupervisorApproved
		if !s.requireManagerTier {
			target = model.StatusManagerApproved
		}
	case model.StatusSupervisorApproved:
		target = model.StatusManagerApproved
	default:
		return nil, model.ErrStaleState
	}
	if action == model.ActionReject {
		target = model.StatusRejected
	}

	if err := s.checkAuthority(ctx, approverID, entries, supervisorTier); err != nil {
		return nil, err
	}

	decision := &model.ApprovalDecision{
		ID:           uuid.NewString(),
		TlogIDs:      ids,
		ApproverID:   approverID,
		Action:       action,
		Reason:       sanitizedReason,
		DecidedAt:    s.now(),
		NotifyStatus: model.StatusNotifyPending,
	}

	if err := s.activities.ApplyDecision(ctx, ids, source, target, decision); err != nil {
		return nil, err
	}

	s.publishDecision(ctx, decision, entries)
	return decision, nil
}

// PendingForApprover lists every entry currently waiting at this approver's
// tier, oldest first.
func (s *ApprovalService) PendingForApprover(ctx context.Context, approverID int64) ([]model.ActivityLogEntry, error) {
	entries, err := s.activities.ListAwaitingApprover(ctx, approverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list awaiting entries: %w", err)
	}
	return entries, nil
}

// DecisionHistory returns the approver's audit trail, most recent first.
func (s *ApprovalService) DecisionHistory(ctx context.Context, approverID int64) ([]model.ApprovalDecision, error) {
	decisions, err := s.decisions.ListByApprover(ctx, approverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	return decisions, nil
}

// checkAuthority verifies the approver holds the tier's reporting edge over
// every affected owner.
func (s *ApprovalService) checkAuthority(ctx context.Context, approverID int64, entries []model.ActivityLogEntry, supervisorTier bool) error {
	ownerIDs := make([]int64, 0, len(entries))
	seen := make(map[int64]struct{})
	for _, e := range entries {
		if _, ok := seen[e.UserID]; ok {
			continue
		}
		seen[e.UserID] = struct{}{}
		ownerIDs = append(ownerIDs, e.UserID)
	}

	owners, err := s.users.GetUsers(ctx, ownerIDs)
	if err != nil {
		return fmt.Errorf("failed to load entry owners: %w", err)
	}

	for _, ownerID := range ownerIDs {
		owner, ok := owners[ownerID]
		if !ok {
			return model.ErrForbidden
		}
		edge := owner.ManagerID
		if supervisorTier {
			edge = owner.SupervisorID
		}
		if edge == nil || *edge != approverID {
			return model.ErrForbidden
		}
	}
	return nil
}

// publishDecision emits one notification event per affected owner. The
// decision is already committed; a publish failure only delays the email,
// and the notify worker retries off the queue.
func (s *ApprovalService) publishDecision(ctx context.Context, decision *model.ApprovalDecision, entries []model.ActivityLogEntry) {
	perOwner := make(map[int64][]int64)
	for _, e := range entries {
		perOwner[e.UserID] = append(perOwner[e.UserID], e.ID)
	}

	for ownerID, ownerIDs := range perOwner {
		event := messaging.DecisionEvent{
			DecisionID: decision.ID,
			UserID:     ownerID,
			TlogIDs:    ownerIDs,
			Action:     string(decision.Action),
			Reason:     decision.Reason,
			DecidedAt:  decision.DecidedAt,
		}
		if err := s.producer.PublishDecision(ctx, event); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("decision_id", decision.ID).Msg("Failed to publish decision event")
		}
	}
}
