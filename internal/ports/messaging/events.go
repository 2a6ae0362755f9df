package messaging

import "time"

// ClockOutEvent is the JSON payload sent via SQS for the shift-summary queue.
type ClockOutEvent struct {
	SessionID    int64     `json:"sessionId"`
	UserID       int64     `json:"userId"`
	HoursWorked  float64   `json:"hoursWorked"`
	ClockOutTime time.Time `json:"clockOutTime"`
}

// DecisionEvent is the JSON payload sent via SQS for the decision-notification queue.
type DecisionEvent struct {
	DecisionID string    `json:"decisionId"`
	UserID     int64     `json:"userId"`
	TlogIDs    []int64   `json:"tlogIds"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason,omitempty"`
	DecidedAt  time.Time `json:"decidedAt"`
}
