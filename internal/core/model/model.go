package model

import (
	"time"
)

// Role is the position a user holds in the reporting chain.
type Role string

const (
	RoleEmployee   Role = "EMPLOYEE"
	RoleSupervisor Role = "SUPERVISOR"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
)

// ApprovalStatus is the state of a time-log entry in the approval pipeline.
type ApprovalStatus string

const (
	StatusDraft              ApprovalStatus = "DRAFT"
	StatusSubmitted          ApprovalStatus = "SUBMITTED"
	StatusSupervisorApproved ApprovalStatus = "SUPERVISOR_APPROVED"
	StatusManagerApproved    ApprovalStatus = "MANAGER_APPROVED"
	StatusRejected           ApprovalStatus = "REJECTED"
)

// DecisionAction is what an approver did with a batch.
type DecisionAction string

const (
	ActionApprove DecisionAction = "APPROVE"
	ActionReject  DecisionAction = "REJECT"
)

// NotifyStatus defines the state of an asynchronous email delivery job.
type NotifyStatus string

const (
	StatusNotifyPending   NotifyStatus = "PENDING"
	StatusNotifyCompleted NotifyStatus = "COMPLETED"
	StatusNotifyFailed    NotifyStatus = "FAILED"
)

// User is a read-only projection of the identity provider's user record.
// The supervisor/manager edges are weak references used only for authority
// checks on approval decisions.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	SupervisorID *int64 `json:"supervisorId,omitempty"`
	ManagerID    *int64 `json:"managerId,omitempty"`
}

// ShiftAssignment is the expected shift for a user on one calendar date,
// as reported by the external schedule service.
type ShiftAssignment struct {
	UserID    int64     `json:"userId"`
	ShiftName string    `json:"shiftName"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// ClockSession is one clock-in/clock-out pair. A session with a nil
// ClockOutTime is "open"; at most one open session exists per user.
type ClockSession struct {
	ID                int64        `json:"id"`
	UserID            int64        `json:"userId"`
	ClockInTime       time.Time    `json:"clockInTime"`
	ClockOutTime      *time.Time   `json:"clockOutTime,omitempty"`
	EarlyExitReason   *string      `json:"earlyExitReason,omitempty"`
	ShiftName         string       `json:"shiftName,omitempty"`
	SummaryStatus     NotifyStatus `json:"summaryStatus,omitempty"`
	SummaryRetryCount int          `json:"summaryRetryCount,omitempty"`
}

// Open reports whether the session is still running.
func (s *ClockSession) Open() bool {
	return s != nil && s.ClockOutTime == nil
}

// ActivityLogEntry (tlog) is one contiguous activity interval inside a
// session. At most one entry per user has a nil EndTime while a session is
// open. Hours is derived from the interval and never written directly.
type ActivityLogEntry struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"userId"`
	SessionID      int64          `json:"sessionId"`
	ActivityID     int64          `json:"activityId"`
	StartTime      time.Time      `json:"startTime"`
	EndTime        *time.Time     `json:"endTime,omitempty"`
	Hours          float64        `json:"hours"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	// ShiftName comes from the owning session; populated only by listing
	// queries that join it in.
	ShiftName string `json:"shiftName,omitempty"`
}

// HoursBetween computes the derived hours value for a closed interval.
func HoursBetween(start, end time.Time) float64 {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return d.Hours()
}

// ApprovalDecision is the append-only audit record for one Decide call.
type ApprovalDecision struct {
	ID               string         `json:"id"`
	TlogIDs          []int64        `json:"tlogIds"`
	ApproverID       int64          `json:"approverId"`
	Action           DecisionAction `json:"action"`
	Reason           string         `json:"reason,omitempty"`
	DecidedAt        time.Time      `json:"decidedAt"`
	NotifyStatus     NotifyStatus   `json:"notifyStatus,omitempty"`
	NotifyRetryCount int            `json:"notifyRetryCount,omitempty"`
}
