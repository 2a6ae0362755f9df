package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"timetrack.service/internal/core"
	"timetrack.service/internal/core/model"
)

// The handler depends on small service contracts rather than the concrete
// core types so route tests can stand in lightweight fakes.

type ClockService interface {
	ClockIn(ctx context.Context, userID int64) (*model.ClockSession, error)
	ClockOut(ctx context.Context, userID int64, reason string) (*model.ClockSession, error)
	Status(ctx context.Context, userID int64) (*core.ClockStatus, error)
}

type LedgerService interface {
	SwitchActivity(ctx context.Context, userID, activityID int64) (*model.ActivityLogEntry, error)
	CurrentLedger(ctx context.Context, userID int64) ([]model.ActivityLogEntry, error)
	AmendEntry(ctx context.Context, userID, tlogID int64, start, end time.Time) (*model.ActivityLogEntry, error)
}

type TimesheetService interface {
	PendingEntries(ctx context.Context, userID int64) ([]core.DayGroup, error)
	SubmitForReview(ctx context.Context, userID int64, tlogIDs []int64) (*core.SubmitResult, error)
}

type ApprovalService interface {
	Decide(ctx context.Context, approverID int64, tlogIDs []int64, action model.DecisionAction, reason string) (*model.ApprovalDecision, error)
	PendingForApprover(ctx context.Context, approverID int64) ([]model.ActivityLogEntry, error)
	DecisionHistory(ctx context.Context, approverID int64) ([]model.ApprovalDecision, error)
}

type TimeTrackHandler struct {
	Clock     ClockService
	Ledger    LedgerService
	Timesheet TimesheetService
	Approvals ApprovalService
}

type clockInRequest struct {
	UserID int64 `json:"userId"`
}

type clockOutRequest struct {
	UserID int64  `json:"userId"`
	Reason string `json:"reason,omitempty"`
}

type switchActivityRequest struct {
	UserID     int64 `json:"userId"`
	ActivityID int64 `json:"activityId"`
}

type amendRequest struct {
	UserID    int64     `json:"userId"`
	TlogID    int64     `json:"tlogId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type submitRequest struct {
	UserID  int64   `json:"userId"`
	TlogIDs []int64 `json:"tlogIds"`
}

type approvalActionRequest struct {
	ApproverID      int64   `json:"approverId"`
	LogIDs          []int64 `json:"logIds"`
	Action          string  `json:"action"`
	RejectionReason string  `json:"rejectionReason,omitempty"`
}

func (h *TimeTrackHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req clockInRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == 0 {
		writeMessage(w, http.StatusBadRequest, "userId is required")
		return
	}

	session, err := h.Clock.ClockIn(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": session})
}

func (h *TimeTrackHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req clockOutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == 0 {
		writeMessage(w, http.StatusBadRequest, "userId is required")
		return
	}

	session, err := h.Clock.ClockOut(r.Context(), req.UserID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

func (h *TimeTrackHandler) ClockStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(w, r, "userId")
	if !ok {
		return
	}

	status, err := h.Clock.Status(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *TimeTrackHandler) SwitchActivity(w http.ResponseWriter, r *http.Request) {
	var req switchActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == 0 || req.ActivityID == 0 {
		writeMessage(w, http.StatusBadRequest, "userId and activityId are required")
		return
	}

	entry, err := h.Ledger.SwitchActivity(r.Context(), req.UserID, req.ActivityID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (h *TimeTrackHandler) CurrentLedger(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(w, r, "userId")
	if !ok {
		return
	}

	entries, err := h.Ledger.CurrentLedger(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *TimeTrackHandler) AmendEntry(w http.ResponseWriter, r *http.Request) {
	var req amendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == 0 || req.TlogID == 0 {
		writeMessage(w, http.StatusBadRequest, "userId and tlogId are required")
		return
	}

	entry, err := h.Ledger.AmendEntry(r.Context(), req.UserID, req.TlogID, req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (h *TimeTrackHandler) PendingTimesheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryUserID(w, r, "userId")
	if !ok {
		return
	}

	groups, err := h.Timesheet.PendingEntries(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": groups})
}

func (h *TimeTrackHandler) SubmitTimesheet(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == 0 {
		writeMessage(w, http.StatusBadRequest, "userId is required")
		return
	}

	result, err := h.Timesheet.SubmitForReview(r.Context(), req.UserID, req.TlogIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *TimeTrackHandler) ApprovalAction(w http.ResponseWriter, r *http.Request) {
	var req approvalActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ApproverID == 0 {
		writeMessage(w, http.StatusBadRequest, "approverId is required")
		return
	}

	decision, err := h.Approvals.Decide(r.Context(), req.ApproverID, req.LogIDs, model.DecisionAction(req.Action), req.RejectionReason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decision": decision})
}

func (h *TimeTrackHandler) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	approverID, ok := queryUserID(w, r, "approverId")
	if !ok {
		return
	}

	entries, err := h.Approvals.PendingForApprover(r.Context(), approverID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *TimeTrackHandler) ApprovalHistory(w http.ResponseWriter, r *http.Request) {
	approverID, ok := queryUserID(w, r, "approverId")
	if !ok {
		return
	}

	decisions, err := h.Approvals.DecisionHistory(r.Context(), approverID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": decisions})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func queryUserID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := r.URL.Query().Get(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		writeMessage(w, http.StatusBadRequest, param+" is required")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps the domain error taxonomy onto HTTP statuses: precondition
// and concurrency failures conflict with current state (409), policy
// failures are correctable input (400), authority failures are 403.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrAlreadyClockedIn),
		errors.Is(err, model.ErrNotClockedIn),
		errors.Is(err, model.ErrNoScheduleToday),
		errors.Is(err, model.ErrNoPendingEntries),
		errors.Is(err, model.ErrEntryNotAmendable),
		errors.Is(err, model.ErrStaleState):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrJustificationRequired),
		errors.Is(err, model.ErrReasonRequired),
		errors.Is(err, model.ErrInvalidAmendWindow):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	default:
		writeMessage(w, http.StatusInternalServerError, "Service error processing request")
	}
}
