package core

import (
	"context"
	"fmt"
	"time"

	"timetrack.service/internal/core/model"
	"timetrack.service/internal/ports/repository"
)

// LedgerService records activity switches inside an open session as
// contiguous, non-overlapping intervals. Closing the previous interval at the
// instant the next one starts is the only mechanism that keeps the ledger
// overlap-free, so the amend path re-checks it explicitly.
type LedgerService struct {
	sessions   repository.SessionRepository
	activities repository.ActivityRepository
	locks      *UserLocks
	now        func() time.Time
}

func NewLedgerService(
	sessions repository.SessionRepository,
	activities repository.ActivityRepository,
	locks *UserLocks,
) *LedgerService {
	return &LedgerService{
		sessions:   sessions,
		activities: activities,
		locks:      locks,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SwitchActivity closes the currently active interval (if any) and opens a
// new DRAFT one at the same instant. Switching to the activity that is
// already running is a no-op.
func (s *LedgerService) SwitchActivity(ctx context.Context, userID, activityID int64) (*model.ActivityLogEntry, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	at := s.now()

	open, err := s.sessions.FindOpenSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open session: %w", err)
	}
	if open == nil {
		return nil, model.ErrNotClockedIn
	}

	active, err := s.activities.FindActiveEntry(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active entry: %w", err)
	}
	if active != nil {
		if active.ActivityID == activityID {
			return active, nil
		}
		hours := model.HoursBetween(active.StartTime, at)
		if err := s.activities.CloseEntry(ctx, active.ID, at, hours); err != nil {
			return nil, fmt.Errorf("failed to close active entry: %w", err)
		}
	}

	id, err := s.activities.CreateEntry(ctx, userID, open.ID, activityID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	return &model.ActivityLogEntry{
		ID:             id,
		UserID:         userID,
		SessionID:      open.ID,
		ActivityID:     activityID,
		StartTime:      at,
		ApprovalStatus: model.StatusDraft,
	}, nil
}

// CurrentLedger returns the open session's intervals, newest last, or an
// empty list when the user is not clocked in.
func (s *LedgerService) CurrentLedger(ctx context.Context, userID int64) ([]model.ActivityLogEntry, error) {
	open, err := s.sessions.FindOpenSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open session: %w", err)
	}
	if open == nil {
		return []model.ActivityLogEntry{}, nil
	}

	entries, err := s.activities.ListBySession(ctx, open.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session entries: %w", err)
	}
	return entries, nil
}

// AmendEntry rewrites a closed interval, the employee's edit path in the
// rejection/resubmission loop. Only DRAFT or REJECTED entries may be amended;
// the new interval must stay inside the session and must not overlap any
// sibling. A REJECTED entry comes back to DRAFT.
func (s *LedgerService) AmendEntry(ctx context.Context, userID, tlogID int64, start, end time.Time) (*model.ActivityLogEntry, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	entry, err := s.activities.GetEntry(ctx, tlogID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entry: %w", err)
	}
	if entry == nil {
		return nil, model.ErrEntryNotAmendable
	}
	if entry.UserID != userID {
		return nil, model.ErrForbidden
	}
	if entry.ApprovalStatus != model.StatusDraft && entry.ApprovalStatus != model.StatusRejected {
		return nil, model.ErrEntryNotAmendable
	}
	if entry.EndTime == nil {
		// The running interval is only ever closed by a switch or clock-out.
		return nil, model.ErrEntryNotAmendable
	}

	if !start.Before(end) {
		return nil, model.ErrInvalidAmendWindow
	}

	session, err := s.sessions.GetSession(ctx, entry.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	if session == nil || start.Before(session.ClockInTime) {
		return nil, model.ErrInvalidAmendWindow
	}
	if session.ClockOutTime != nil && end.After(*session.ClockOutTime) {
		return nil, model.ErrInvalidAmendWindow
	}

	siblings, err := s.activities.ListBySession(ctx, entry.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session entries: %w", err)
	}
	for _, sib := range siblings {
		if sib.ID == entry.ID {
			continue
		}
		if sib.EndTime == nil {
			// The running interval is unbounded on the right: anything
			// reaching past its start overlaps it.
			if end.After(sib.StartTime) {
				return nil, model.ErrInvalidAmendWindow
			}
			continue
		}
		if start.Before(*sib.EndTime) && sib.StartTime.Before(end) {
			return nil, model.ErrInvalidAmendWindow
		}
	}

	hours := model.HoursBetween(start, end)
	if err := s.activities.UpdateEntryInterval(ctx, entry.ID, start, end, hours, model.StatusDraft); err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	entry.StartTime = start
	entry.EndTime = &end
	entry.Hours = hours
	entry.ApprovalStatus = model.StatusDraft
	return entry, nil
}
