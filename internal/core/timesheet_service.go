package core

import (
	"context"
	"fmt"

	"timetrack.service/internal/core/model"
	"timetrack.service/internal/ports/repository"
)

// TimesheetService groups an employee's activity-log rows into a submittable
// batch and moves them into the approval pipeline.
type TimesheetService struct {
	activities repository.ActivityRepository
}

func NewTimesheetService(activities repository.ActivityRepository) *TimesheetService {
	return &TimesheetService{activities: activities}
}

// DayGroup is one calendar day's worth of pending entries.
type DayGroup struct {
	Date    string                   `json:"date"`
	Entries []model.ActivityLogEntry `json:"entries"`
}

// ShiftBreakdown counts submitted logs per shift name.
type ShiftBreakdown struct {
	ShiftName     string `json:"shiftName"`
	LogsSubmitted int    `json:"logsSubmitted"`
}

// SubmitResult is what a submission call reports back.
type SubmitResult struct {
	SubmittedCount int              `json:"submittedCount"`
	ByShift        []ShiftBreakdown `json:"byShift"`
}

// PendingEntries returns the user's DRAFT and REJECTED entries grouped by
// day. REJECTED entries appear here because they re-enter the pipeline
// through submission after an edit.
func (s *TimesheetService) PendingEntries(ctx context.Context, userID int64) ([]DayGroup, error) {
	entries, err := s.activities.ListByOwnerAndStatus(ctx, userID,
		[]model.ApprovalStatus{model.StatusDraft, model.StatusRejected})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}

	var groups []DayGroup
	for _, e := range entries {
		day := e.StartTime.Format("2006-01-02")
		if len(groups) == 0 || groups[len(groups)-1].Date != day {
			groups = append(groups, DayGroup{Date: day})
		}
		groups[len(groups)-1].Entries = append(groups[len(groups)-1].Entries, e)
	}
	return groups, nil
}

// SubmitForReview transitions the user's targeted DRAFT (or REJECTED)
// entries to SUBMITTED via compare-and-set. Already-SUBMITTED ids are a
// no-op rather than an error so client retries are safe; ids owned by other
// users are never touched.
func (s *TimesheetService) SubmitForReview(ctx context.Context, userID int64, tlogIDs []int64) (*SubmitResult, error) {
	ids := dedupeIDs(tlogIDs)
	if len(ids) == 0 {
		return nil, model.ErrNoPendingEntries
	}

	entries, err := s.activities.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	var draftIDs, rejectedIDs []int64
	shiftByID := make(map[int64]string)
	alreadySubmitted := 0

	for _, e := range entries {
		if e.UserID != userID {
			continue
		}
		switch e.ApprovalStatus {
		case model.StatusDraft:
			draftIDs = append(draftIDs, e.ID)
		case model.StatusRejected:
			rejectedIDs = append(rejectedIDs, e.ID)
		case model.StatusSubmitted:
			alreadySubmitted++
			continue
		default:
			continue
		}
		shiftByID[e.ID] = e.ShiftName
	}

	if len(draftIDs) == 0 && len(rejectedIDs) == 0 {
		if alreadySubmitted > 0 {
			// A pure retry of a batch that already went through.
			return &SubmitResult{SubmittedCount: 0, ByShift: []ShiftBreakdown{}}, nil
		}
		return nil, model.ErrNoPendingEntries
	}

	var moved []int64
	if len(draftIDs) > 0 {
		ids, err := s.activities.TransitionStatus(ctx, draftIDs, model.StatusDraft, model.StatusSubmitted)
		if err != nil {
			return nil, fmt.Errorf("failed to submit draft entries: %w", err)
		}
		moved = append(moved, ids...)
	}
	if len(rejectedIDs) > 0 {
		ids, err := s.activities.TransitionStatus(ctx, rejectedIDs, model.StatusRejected, model.StatusSubmitted)
		if err != nil {
			return nil, fmt.Errorf("failed to resubmit rejected entries: %w", err)
		}
		moved = append(moved, ids...)
	}

	// The breakdown counts the rows that actually transitioned, not the
	// pre-update read: a concurrent decision may have stolen ids in between.
	shiftCounts := make(map[string]int)
	var shiftOrder []string
	for _, id := range moved {
		name := shiftByID[id]
		if _, seen := shiftCounts[name]; !seen {
			shiftOrder = append(shiftOrder, name)
		}
		shiftCounts[name]++
	}

	result := &SubmitResult{SubmittedCount: len(moved), ByShift: []ShiftBreakdown{}}
	for _, name := range shiftOrder {
		result.ByShift = append(result.ByShift, ShiftBreakdown{ShiftName: name, LogsSubmitted: shiftCounts[name]})
	}
	return result, nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
