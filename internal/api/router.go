package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"timetrack.service/internal/api/handler"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(clock handler.ClockService, ledger handler.LedgerService, timesheet handler.TimesheetService, approvals handler.ApprovalService) *mux.Router {

	h := handler.TimeTrackHandler{
		Clock:     clock,
		Ledger:    ledger,
		Timesheet: timesheet,
		Approvals: approvals,
	}

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/clock/in", h.ClockIn).Methods(http.MethodPost)
	api.HandleFunc("/clock/out", h.ClockOut).Methods(http.MethodPost)
	api.HandleFunc("/clock/status", h.ClockStatus).Methods(http.MethodGet)
	api.HandleFunc("/activity/switch", h.SwitchActivity).Methods(http.MethodPost)
	api.HandleFunc("/activity/ledger", h.CurrentLedger).Methods(http.MethodGet)
	api.HandleFunc("/timesheet/pending", h.PendingTimesheet).Methods(http.MethodGet)
	api.HandleFunc("/timesheet/submit", h.SubmitTimesheet).Methods(http.MethodPost)
	api.HandleFunc("/timesheet/amend", h.AmendEntry).Methods(http.MethodPost)
	api.HandleFunc("/approvals/action", h.ApprovalAction).Methods(http.MethodPost)
	api.HandleFunc("/approvals/pending", h.PendingApprovals).Methods(http.MethodGet)
	api.HandleFunc("/approvals/history", h.ApprovalHistory).Methods(http.MethodGet)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
