package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"timetrack.service/internal/core/model"
)

// ActivityLogRepository is the concrete implementation for a PostgreSQL database.
type ActivityLogRepository struct {
	DB *sql.DB
}

// NewActivityLogRepository create new instance
func NewActivityLogRepository(db *sql.DB) ActivityRepository {
	return &ActivityLogRepository{DB: db}
}

const entryColumns = `e.id, e.user_id, e.session_id, e.activity_id, e.start_time, e.end_time, e.hours, e.approval_status`

func scanEntry(row interface{ Scan(...any) error }, e *model.ActivityLogEntry) error {
	return row.Scan(&e.ID, &e.UserID, &e.SessionID, &e.ActivityID, &e.StartTime, &e.EndTime, &e.Hours, &e.ApprovalStatus)
}

// inPlaceholders builds "$n, $n+1, ..." for an IN clause starting at position start.
func inPlaceholders(start, n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

// CreateEntry opens a new DRAFT interval for the user inside a session.
func (r *ActivityLogRepository) CreateEntry(ctx context.Context, userID, sessionID, activityID int64, start time.Time) (int64, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.userId", userID))

	var id int64
	query := `INSERT INTO activity_log_entries (user_id, session_id, activity_id, start_time, hours, approval_status)
              VALUES ($1, $2, $3, $4, 0, $5) RETURNING id`

	err := r.DB.QueryRowContext(ctx, query, userID, sessionID, activityID, start, model.StatusDraft).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindActiveEntry returns the user's interval without an end time, or nil.
func (r *ActivityLogRepository) FindActiveEntry(ctx context.Context, userID int64) (*model.ActivityLogEntry, error) {
	query := `SELECT ` + entryColumns + `
              FROM activity_log_entries e
              WHERE e.user_id = $1 AND e.end_time IS NULL
              ORDER BY e.start_time DESC
              LIMIT 1`

	e := &model.ActivityLogEntry{}
	err := scanEntry(r.DB.QueryRowContext(ctx, query, userID), e)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CloseEntry seals an interval. Hours is the derived value, computed by the caller.
func (r *ActivityLogRepository) CloseEntry(ctx context.Context, id int64, end time.Time, hours float64) error {
	query := `UPDATE activity_log_entries
              SET end_time = $1,
                  hours = $2
              WHERE id = $3 AND end_time IS NULL`

	_, err := r.DB.ExecContext(ctx, query, end, hours, id)
	return err
}

// UpdateEntryInterval rewrites a closed interval during an amend, resetting
// the approval status at the same time (REJECTED entries come back to DRAFT).
func (r *ActivityLogRepository) UpdateEntryInterval(ctx context.Context, id int64, start, end time.Time, hours float64, status model.ApprovalStatus) error {
	query := `UPDATE activity_log_entries
              SET start_time = $1,
                  end_time = $2,
                  hours = $3,
                  approval_status = $4
              WHERE id = $5`

	_, err := r.DB.ExecContext(ctx, query, start, end, hours, status, id)
	return err
}

// GetEntry fetches one entry by id.
func (r *ActivityLogRepository) GetEntry(ctx context.Context, id int64) (*model.ActivityLogEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM activity_log_entries e WHERE e.id = $1`

	e := &model.ActivityLogEntry{}
	err := scanEntry(r.DB.QueryRowContext(ctx, query, id), e)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListBySession returns a session's intervals oldest first, so the live
// ledger reads newest last.
func (r *ActivityLogRepository) ListBySession(ctx context.Context, sessionID int64) ([]model.ActivityLogEntry, error) {
	query := `SELECT ` + entryColumns + `
              FROM activity_log_entries e
              WHERE e.session_id = $1
              ORDER BY e.start_time ASC`

	return r.queryEntries(ctx, query, sessionID)
}

// ListByIDs fetches entries by id with the owning session's shift name joined in.
func (r *ActivityLogRepository) ListByIDs(ctx context.Context, ids []int64) ([]model.ActivityLogEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + entryColumns + `, s.shift_name
              FROM activity_log_entries e
              JOIN clock_sessions s ON s.id = e.session_id
              WHERE e.id IN (` + inPlaceholders(1, len(ids)) + `)
              ORDER BY e.start_time ASC`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ActivityLogEntry
	for rows.Next() {
		var e model.ActivityLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.SessionID, &e.ActivityID, &e.StartTime, &e.EndTime, &e.Hours, &e.ApprovalStatus, &e.ShiftName); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListByOwnerAndStatus returns the user's entries in any of the given
// statuses, oldest first, for the pending-timesheet view.
func (r *ActivityLogRepository) ListByOwnerAndStatus(ctx context.Context, userID int64, statuses []model.ApprovalStatus) ([]model.ActivityLogEntry, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	query := `SELECT ` + entryColumns + `
              FROM activity_log_entries e
              WHERE e.user_id = $1 AND e.approval_status IN (` + inPlaceholders(2, len(statuses)) + `)
              ORDER BY e.start_time ASC`

	args := make([]any, 0, len(statuses)+1)
	args = append(args, userID)
	for _, s := range statuses {
		args = append(args, s)
	}

	return r.queryEntries(ctx, query, args...)
}

// ListAwaitingApprover returns every entry currently parked at the given
// approver's tier: SUBMITTED entries of their direct reports plus
// SUPERVISOR_APPROVED entries of the employees they manage.
func (r *ActivityLogRepository) ListAwaitingApprover(ctx context.Context, approverID int64) ([]model.ActivityLogEntry, error) {
	query := `SELECT ` + entryColumns + `
              FROM activity_log_entries e
              JOIN users u ON u.id = e.user_id
              WHERE (e.approval_status = $1 AND u.supervisor_id = $2)
                 OR (e.approval_status = $3 AND u.manager_id = $2)
              ORDER BY e.start_time ASC`

	return r.queryEntries(ctx, query, model.StatusSubmitted, approverID, model.StatusSupervisorApproved)
}

// TransitionStatus is the compare-and-set primitive: only rows still in the
// expected source state move. Returns the ids that actually transitioned, so
// callers report on what happened rather than on their pre-update read.
func (r *ActivityLogRepository) TransitionStatus(ctx context.Context, ids []int64, from, to model.ApprovalStatus) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `UPDATE activity_log_entries
              SET approval_status = $1
              WHERE approval_status = $2 AND id IN (` + inPlaceholders(3, len(ids)) + `)
              RETURNING id`

	args := make([]any, 0, len(ids)+2)
	args = append(args, to, from)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moved []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		moved = append(moved, id)
	}
	return moved, rows.Err()
}

// ApplyDecision performs one approval decision atomically: the batch either
// fully transitions and the audit row is written, or nothing changes. A
// partial compare-and-set match rolls back and surfaces as a stale state.
func (r *ActivityLogRepository) ApplyDecision(ctx context.Context, ids []int64, from, to model.ApprovalStatus, decision *model.ApprovalDecision) error {
	if len(ids) == 0 {
		return model.ErrStaleState
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE activity_log_entries
              SET approval_status = $1
              WHERE approval_status = $2 AND id IN (` + inPlaceholders(3, len(ids)) + `)`

	args := make([]any, 0, len(ids)+2)
	args = append(args, to, from)
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != int64(len(ids)) {
		return model.ErrStaleState
	}

	tlogIDs, err := json.Marshal(decision.TlogIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal tlog ids: %w", err)
	}

	insert := `INSERT INTO approval_decisions (id, tlog_ids, approver_id, action, reason, decided_at, notify_status, notify_retry_count)
               VALUES ($1, $2, $3, $4, $5, $6, $7, 0)`
	_, err = tx.ExecContext(ctx, insert,
		decision.ID, tlogIDs, decision.ApproverID, decision.Action, decision.Reason, decision.DecidedAt, model.StatusNotifyPending)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *ActivityLogRepository) queryEntries(ctx context.Context, query string, args ...any) ([]model.ActivityLogEntry, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ActivityLogEntry
	for rows.Next() {
		var e model.ActivityLogEntry
		if err := scanEntry(rows, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
