package repository

import (
	"context"
	"time"

	"timetrack.service/internal/core/model"
)

// SessionRepository is the contract for clock session persistence.
type SessionRepository interface {
	GetSession(ctx context.Context, id int64) (*model.ClockSession, error)
	FindOpenSession(ctx context.Context, userID int64) (*model.ClockSession, error)
	SessionsBetween(ctx context.Context, userID int64, from, to time.Time) ([]model.ClockSession, error)
	CreateSession(ctx context.Context, userID int64, clockIn time.Time, shiftName string) (int64, error)
	CloseSession(ctx context.Context, id int64, clockOut time.Time, earlyExitReason *string) error
	// CloseSessionAndEntry seals the session together with its still-running
	// activity interval in one transaction.
	CloseSessionAndEntry(ctx context.Context, sessionID int64, clockOut time.Time, earlyExitReason *string, entryID int64, entryHours float64) error
	UpdateSummaryStatus(ctx context.Context, id int64, status model.NotifyStatus, retryCount int) error
}

// ActivityRepository is the contract for time-log entry persistence. All
// status changes go through compare-and-set transitions; callers compare the
// affected count against what they expected.
type ActivityRepository interface {
	GetEntry(ctx context.Context, id int64) (*model.ActivityLogEntry, error)
	FindActiveEntry(ctx context.Context, userID int64) (*model.ActivityLogEntry, error)
	CreateEntry(ctx context.Context, userID, sessionID, activityID int64, start time.Time) (int64, error)
	CloseEntry(ctx context.Context, id int64, end time.Time, hours float64) error
	UpdateEntryInterval(ctx context.Context, id int64, start, end time.Time, hours float64, status model.ApprovalStatus) error
	ListBySession(ctx context.Context, sessionID int64) ([]model.ActivityLogEntry, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.ActivityLogEntry, error)
	ListByOwnerAndStatus(ctx context.Context, userID int64, statuses []model.ApprovalStatus) ([]model.ActivityLogEntry, error)
	ListAwaitingApprover(ctx context.Context, approverID int64) ([]model.ActivityLogEntry, error)
	TransitionStatus(ctx context.Context, ids []int64, from, to model.ApprovalStatus) ([]int64, error)
	ApplyDecision(ctx context.Context, ids []int64, from, to model.ApprovalStatus, decision *model.ApprovalDecision) error
}

// DecisionRepository is the contract for the append-only approval audit log.
type DecisionRepository interface {
	GetDecision(ctx context.Context, id string) (*model.ApprovalDecision, error)
	ListByApprover(ctx context.Context, approverID int64) ([]model.ApprovalDecision, error)
	UpdateNotifyStatus(ctx context.Context, id string, status model.NotifyStatus, retryCount int) error
}

// UserRepository reads identity records provisioned by the external admin
// tooling. This service never writes users.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUsers(ctx context.Context, ids []int64) (map[int64]model.User, error)
}
