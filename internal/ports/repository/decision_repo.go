package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"timetrack.service/internal/core/model"
)

// ApprovalDecisionRepository is the concrete implementation for a PostgreSQL database.
// Decision rows are inserted by ActivityLogRepository.ApplyDecision inside the
// same transaction as the status transition; this repository only reads them
// and tracks notification delivery.
type ApprovalDecisionRepository struct {
	DB *sql.DB
}

// NewApprovalDecisionRepository create new instance
func NewApprovalDecisionRepository(db *sql.DB) DecisionRepository {
	return &ApprovalDecisionRepository{DB: db}
}

// GetDecision fetches one audit row by id.
func (r *ApprovalDecisionRepository) GetDecision(ctx context.Context, id string) (*model.ApprovalDecision, error) {
	query := `SELECT id, tlog_ids, approver_id, action, reason, decided_at, notify_status, notify_retry_count
              FROM approval_decisions WHERE id = $1`

	d := &model.ApprovalDecision{}
	var tlogIDs []byte
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &tlogIDs, &d.ApproverID, &d.Action, &d.Reason, &d.DecidedAt, &d.NotifyStatus, &d.NotifyRetryCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tlogIDs, &d.TlogIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tlog ids: %w", err)
	}
	return d, nil
}

// ListByApprover returns the approver's audit trail, most recent decision
// first.
func (r *ApprovalDecisionRepository) ListByApprover(ctx context.Context, approverID int64) ([]model.ApprovalDecision, error) {
	query := `SELECT id, tlog_ids, approver_id, action, reason, decided_at, notify_status, notify_retry_count
              FROM approval_decisions
              WHERE approver_id = $1
              ORDER BY decided_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, approverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []model.ApprovalDecision
	for rows.Next() {
		var d model.ApprovalDecision
		var tlogIDs []byte
		if err := rows.Scan(&d.ID, &tlogIDs, &d.ApproverID, &d.Action, &d.Reason, &d.DecidedAt, &d.NotifyStatus, &d.NotifyRetryCount); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(tlogIDs, &d.TlogIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tlog ids: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// UpdateNotifyStatus updates the status and retry count for the decision notification job.
func (r *ApprovalDecisionRepository) UpdateNotifyStatus(ctx context.Context, id string, status model.NotifyStatus, retryCount int) error {
	query := `UPDATE approval_decisions SET notify_status = $1, notify_retry_count = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, retryCount, id)
	return err
}
