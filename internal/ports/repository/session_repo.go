package repository

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"timetrack.service/internal/core/model"
)

// ClockSessionRepository is the concrete implementation for a PostgreSQL database.
type ClockSessionRepository struct {
	DB *sql.DB
}

// NewClockSessionRepository create new instance
func NewClockSessionRepository(db *sql.DB) SessionRepository {
	return &ClockSessionRepository{DB: db}
}

// CreateSession inserts a new open session row for the user.
func (r *ClockSessionRepository) CreateSession(ctx context.Context, userID int64, clockIn time.Time, shiftName string) (int64, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.userId", userID))

	var id int64
	query := `INSERT INTO clock_sessions (user_id, clock_in_time, shift_name, summary_status, summary_retry_count)
              VALUES ($1, $2, $3, $4, 0) RETURNING id`

	err := r.DB.QueryRowContext(ctx, query, userID, clockIn, shiftName, model.StatusNotifyPending).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// FindOpenSession returns the user's session without a clock-out time, or nil.
func (r *ClockSessionRepository) FindOpenSession(ctx context.Context, userID int64) (*model.ClockSession, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("app.userId", userID))

	query := `SELECT id, user_id, clock_in_time, shift_name, summary_status, summary_retry_count
              FROM clock_sessions
              WHERE user_id = $1 AND clock_out_time IS NULL
              ORDER BY clock_in_time DESC
              LIMIT 1`

	s := &model.ClockSession{}
	row := r.DB.QueryRowContext(ctx, query, userID)
	err := row.Scan(&s.ID, &s.UserID, &s.ClockInTime, &s.ShiftName, &s.SummaryStatus, &s.SummaryRetryCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

// CloseSession records the clock-out time and the early-exit reason if one was required.
func (r *ClockSessionRepository) CloseSession(ctx context.Context, id int64, clockOut time.Time, earlyExitReason *string) error {
	query := `UPDATE clock_sessions
              SET clock_out_time = $1,
                  early_exit_reason = $2
              WHERE id = $3 AND clock_out_time IS NULL`

	_, err := r.DB.ExecContext(ctx, query, clockOut, earlyExitReason, id)

	return err
}

// CloseSessionAndEntry closes the session and its still-open activity
// interval at the same instant, in one transaction. Either both rows are
// sealed or neither is, so a failure can never leave a closed entry under an
// open session.
func (r *ClockSessionRepository) CloseSessionAndEntry(ctx context.Context, sessionID int64, clockOut time.Time, earlyExitReason *string, entryID int64, entryHours float64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	entryQuery := `UPDATE activity_log_entries
	               SET end_time = $1,
	                   hours = $2
	               WHERE id = $3 AND end_time IS NULL`
	if _, err := tx.ExecContext(ctx, entryQuery, clockOut, entryHours, entryID); err != nil {
		return err
	}

	sessionQuery := `UPDATE clock_sessions
	                 SET clock_out_time = $1,
	                     early_exit_reason = $2
	                 WHERE id = $3 AND clock_out_time IS NULL`
	if _, err := tx.ExecContext(ctx, sessionQuery, clockOut, earlyExitReason, sessionID); err != nil {
		return err
	}

	return tx.Commit()
}

// SessionsBetween returns all sessions whose clock-in falls inside [from, to),
// oldest first. Used for accumulated-duration recomputes.
func (r *ClockSessionRepository) SessionsBetween(ctx context.Context, userID int64, from, to time.Time) ([]model.ClockSession, error) {
	query := `SELECT id, user_id, clock_in_time, clock_out_time, early_exit_reason, shift_name
              FROM clock_sessions
              WHERE user_id = $1 AND clock_in_time >= $2 AND clock_in_time < $3
              ORDER BY clock_in_time ASC`

	rows, err := r.DB.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ClockSession
	for rows.Next() {
		var s model.ClockSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.ClockInTime, &s.ClockOutTime, &s.EarlyExitReason, &s.ShiftName); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// GetSession fetches one session row by id.
func (r *ClockSessionRepository) GetSession(ctx context.Context, id int64) (*model.ClockSession, error) {
	query := `SELECT id, user_id, clock_in_time, clock_out_time, early_exit_reason, shift_name, summary_status, summary_retry_count
              FROM clock_sessions WHERE id = $1`

	s := &model.ClockSession{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.ClockInTime, &s.ClockOutTime, &s.EarlyExitReason, &s.ShiftName, &s.SummaryStatus, &s.SummaryRetryCount,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateSummaryStatus updates the status and retry count for the shift-summary email job.
func (r *ClockSessionRepository) UpdateSummaryStatus(ctx context.Context, id int64, status model.NotifyStatus, retryCount int) error {
	query := `UPDATE clock_sessions SET summary_status = $1, summary_retry_count = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, retryCount, id)
	return err
}
