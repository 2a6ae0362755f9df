package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"timetrack.service/internal/core/model"
	"timetrack.service/internal/ports/messaging"
	"timetrack.service/internal/ports/repository"
)

// ClockService owns the per-user clock session lifecycle: opening sessions,
// closing them through the compliance gate, and recomputing worked duration.
type ClockService struct {
	sessions   repository.SessionRepository
	activities repository.ActivityRepository
	gate       *ComplianceGate
	producer   messaging.EventProducer
	locks      *UserLocks
	now        func() time.Time
}

// NewClockService creates the clock session manager, wiring up the
// repositories, the compliance gate and the message queue producer. The locks
// instance is shared with the ledger service so all per-user mutations
// serialize on the same mutex.
func NewClockService(
	sessions repository.SessionRepository,
	activities repository.ActivityRepository,
	gate *ComplianceGate,
	producer messaging.EventProducer,
	locks *UserLocks,
) *ClockService {
	return &ClockService{
		sessions:   sessions,
		activities: activities,
		gate:       gate,
		producer:   producer,
		locks:      locks,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ClockStatus is the live projection returned to polling clients. The
// accumulated duration is recomputed on every read; clients must not trust a
// locally ticking total.
type ClockStatus struct {
	IsClockedIn   bool                   `json:"isClockedIn"`
	ActiveShift   string                 `json:"activeShift,omitempty"`
	AccumulatedMs int64                  `json:"accumulatedMs"`
	ScheduleToday *model.ShiftAssignment `json:"scheduleToday,omitempty"`
}

// ClockIn opens a session for the user. Clock-in is gated by schedule
// presence: without an assignment for today the request fails.
func (s *ClockService) ClockIn(ctx context.Context, userID int64) (*model.ClockSession, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	currentTime := s.now()

	open, err := s.sessions.FindOpenSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open session: %w", err)
	}
	if open != nil {
		return nil, model.ErrAlreadyClockedIn
	}

	assignment, err := s.gate.ScheduleFor(ctx, userID, currentTime)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, model.ErrNoScheduleToday
	}

	id, err := s.sessions.CreateSession(ctx, userID, currentTime, assignment.ShiftName)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &model.ClockSession{
		ID:          id,
		UserID:      userID,
		ClockInTime: currentTime,
		ShiftName:   assignment.ShiftName,
	}, nil
}

// ClockOut closes the user's open session. When the exit is early relative to
// the scheduled shift end, a valid justification is mandatory. Any still-open
// activity interval is closed at the same instant.
func (s *ClockService) ClockOut(ctx context.Context, userID int64, reason string) (*model.ClockSession, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	currentTime := s.now()

	open, err := s.sessions.FindOpenSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open session: %w", err)
	}
	if open == nil {
		return nil, model.ErrNotClockedIn
	}

	early, err := s.gate.IsEarly(ctx, userID, currentTime)
	if err != nil {
		return nil, err
	}

	var storedReason *string
	if early {
		sanitized, rErr := SanitizeReason(reason, false)
		if rErr != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrJustificationRequired, rErr)
		}
		storedReason = &sanitized
	} else if reason != "" {
		// Not required, but keep a valid reason if the user offered one.
		if sanitized, rErr := SanitizeReason(reason, false); rErr == nil {
			storedReason = &sanitized
		}
	}

	active, err := s.activities.FindActiveEntry(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active entry: %w", err)
	}
	if active != nil {
		// Session and entry close in one transaction, so a failure leaves
		// both open rather than sealing the entry under a running session.
		hours := model.HoursBetween(active.StartTime, currentTime)
		if err := s.sessions.CloseSessionAndEntry(ctx, open.ID, currentTime, storedReason, active.ID, hours); err != nil {
			return nil, fmt.Errorf("failed to close session: %w", err)
		}
	} else if err := s.sessions.CloseSession(ctx, open.ID, currentTime, storedReason); err != nil {
		return nil, fmt.Errorf("failed to close session: %w", err)
	}

	event := messaging.ClockOutEvent{
		SessionID:    open.ID,
		UserID:       userID,
		HoursWorked:  currentTime.Sub(open.ClockInTime).Hours(),
		ClockOutTime: currentTime,
	}
	if err := s.producer.PublishSummary(ctx, event); err != nil {
		// Delivery is retried by the summary worker; losing the event only
		// costs the courtesy email.
		log.Ctx(ctx).Warn().Err(err).Int64("session_id", open.ID).Msg("Failed to publish clock-out summary event")
	}

	open.ClockOutTime = &currentTime
	open.EarlyExitReason = storedReason
	return open, nil
}

// AccumulatedDuration sums the worked time of all of the user's sessions on
// the given calendar date. Open sessions count up to now, so the result is
// monotonically non-decreasing while a session runs and stable once the day
// is fully closed.
func (s *ClockService) AccumulatedDuration(ctx context.Context, userID int64, date time.Time) (time.Duration, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	sessions, err := s.sessions.SessionsBetween(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to query sessions: %w", err)
	}

	currentTime := s.now()
	var total time.Duration
	for _, sess := range sessions {
		switch {
		case sess.ClockOutTime != nil:
			total += sess.ClockOutTime.Sub(sess.ClockInTime)
		case currentTime.After(sess.ClockInTime):
			total += currentTime.Sub(sess.ClockInTime)
		}
	}
	return total, nil
}

// Status assembles the live clock projection for one user.
func (s *ClockService) Status(ctx context.Context, userID int64) (*ClockStatus, error) {
	currentTime := s.now()

	open, err := s.sessions.FindOpenSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query open session: %w", err)
	}

	accumulated, err := s.AccumulatedDuration(ctx, userID, currentTime)
	if err != nil {
		return nil, err
	}

	assignment, err := s.gate.ScheduleFor(ctx, userID, currentTime)
	if err != nil {
		return nil, err
	}

	status := &ClockStatus{
		IsClockedIn:   open.Open(),
		AccumulatedMs: accumulated.Milliseconds(),
		ScheduleToday: assignment,
	}
	if open != nil {
		status.ActiveShift = open.ShiftName
	}
	return status, nil
}
