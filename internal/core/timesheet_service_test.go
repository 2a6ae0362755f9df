package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetrack.service/internal/core/model"
)

// seedClosedEntry drops a closed one-hour entry into the store, creating a
// session for the shift name on the fly.
func seedClosedEntry(store *memStore, userID int64, shiftName string, start time.Time, status model.ApprovalStatus) int64 {
	end := start.Add(time.Hour)
	sessionID := store.seedSession(model.ClockSession{
		UserID:       userID,
		ClockInTime:  start,
		ClockOutTime: &end,
		ShiftName:    shiftName,
	})
	return store.seedEntry(model.ActivityLogEntry{
		UserID:         userID,
		SessionID:      sessionID,
		ActivityID:     100,
		StartTime:      start,
		EndTime:        &end,
		Hours:          1,
		ApprovalStatus: status,
	})
}

func TestPendingEntriesGroupsByDay(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewTimesheetService(store)

	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tuesday := monday.Add(24 * time.Hour)

	seedClosedEntry(store, 1, "Day Shift", monday, model.StatusDraft)
	seedClosedEntry(store, 1, "Day Shift", monday.Add(2*time.Hour), model.StatusRejected)
	seedClosedEntry(store, 1, "Day Shift", tuesday, model.StatusDraft)
	// Foreign and already-submitted rows stay out.
	seedClosedEntry(store, 2, "Day Shift", monday, model.StatusDraft)
	seedClosedEntry(store, 1, "Day Shift", tuesday.Add(2*time.Hour), model.StatusSubmitted)

	groups, err := svc.PendingEntries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "2026-03-02", groups[0].Date)
	assert.Len(t, groups[0].Entries, 2)
	assert.Equal(t, "2026-03-03", groups[1].Date)
	assert.Len(t, groups[1].Entries, 1)
}

// stealingActivities flips one entry to SUPERVISOR_APPROVED right after the
// pre-submit read, simulating a concurrent approver deciding on it before the
// compare-and-set runs.
type stealingActivities struct {
	*memStore
	stealID int64
}

func (s *stealingActivities) ListByIDs(ctx context.Context, ids []int64) ([]model.ActivityLogEntry, error) {
	entries, err := s.memStore.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	s.memStore.mu.Lock()
	s.memStore.entries[s.stealID].ApprovalStatus = model.StatusSupervisorApproved
	s.memStore.mu.Unlock()
	return entries, nil
}

func TestSubmitForReview(t *testing.T) {
	ctx := context.Background()
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("drafts and rejected entries move to submitted", func(t *testing.T) {
		store := newMemStore()
		svc := NewTimesheetService(store)

		draft := seedClosedEntry(store, 1, "Day Shift", monday, model.StatusDraft)
		rejected := seedClosedEntry(store, 1, "Night Shift", monday.Add(2*time.Hour), model.StatusRejected)

		result, err := svc.SubmitForReview(ctx, 1, []int64{draft, rejected})
		require.NoError(t, err)
		assert.Equal(t, 2, result.SubmittedCount)
		assert.Equal(t, model.StatusSubmitted, store.entryStatus(draft))
		assert.Equal(t, model.StatusSubmitted, store.entryStatus(rejected))

		require.Len(t, result.ByShift, 2)
		assert.Equal(t, ShiftBreakdown{ShiftName: "Day Shift", LogsSubmitted: 1}, result.ByShift[0])
		assert.Equal(t, ShiftBreakdown{ShiftName: "Night Shift", LogsSubmitted: 1}, result.ByShift[1])
	})

	t.Run("retry of a fully submitted batch succeeds with zero count", func(t *testing.T) {
		store := newMemStore()
		svc := NewTimesheetService(store)

		id := seedClosedEntry(store, 1, "Day Shift", monday, model.StatusDraft)
		_, err := svc.SubmitForReview(ctx, 1, []int64{id})
		require.NoError(t, err)

		result, err := svc.SubmitForReview(ctx, 1, []int64{id})
		require.NoError(t, err)
		assert.Zero(t, result.SubmittedCount)
		assert.Empty(t, result.ByShift)
	})

	t.Run("duplicate ids count once", func(t *testing.T) {
		store := newMemStore()
		svc := NewTimesheetService(store)

		id := seedClosedEntry(store, 1, "Day Shift", monday, model.StatusDraft)
		result, err := svc.SubmitForReview(ctx, 1, []int64{id, id, id})
		require.NoError(t, err)
		assert.Equal(t, 1, result.SubmittedCount)
	})

	t.Run("foreign entries are never touched", func(t *testing.T) {
		store := newMemStore()
		svc := NewTimesheetService(store)

		mine := seedClosedEntry(store, 1, "Day Shift", monday, model.StatusDraft)
		theirs := seedClosedEntry(store, 2, "Day Shift", monday, model.StatusDraft)

		result, err := svc.SubmitForReview(ctx, 1, []int64{mine, theirs})
		require.NoError(t, err)
		assert.Equal(t, 1, result.SubmittedCount)
		assert.Equal(t, model.StatusDraft, store.entryStatus(theirs))
	})

	t.Run("breakdown counts only entries that actually moved", func(t *testing.T) {
		store := newMemStore()
		mine := seedClosedEntry(store, 1, "Day Shift", monday, model.StatusDraft)
		stolen := seedClosedEntry(store, 1, "Night Shift", monday.Add(2*time.Hour), model.StatusDraft)
		svc := NewTimesheetService(&stealingActivities{memStore: store, stealID: stolen})

		result, err := svc.SubmitForReview(ctx, 1, []int64{mine, stolen})
		require.NoError(t, err)
		assert.Equal(t, 1, result.SubmittedCount)
		require.Len(t, result.ByShift, 1)
		assert.Equal(t, ShiftBreakdown{ShiftName: "Day Shift", LogsSubmitted: 1}, result.ByShift[0])

		assert.Equal(t, model.StatusSubmitted, store.entryStatus(mine))
		assert.Equal(t, model.StatusSupervisorApproved, store.entryStatus(stolen))
	})

	t.Run("nothing submittable", func(t *testing.T) {
		store := newMemStore()
		svc := NewTimesheetService(store)

		theirs := seedClosedEntry(store, 2, "Day Shift", monday, model.StatusDraft)
		approved := seedClosedEntry(store, 1, "Day Shift", monday, model.StatusManagerApproved)

		_, err := svc.SubmitForReview(ctx, 1, []int64{theirs, approved})
		assert.ErrorIs(t, err, model.ErrNoPendingEntries)

		_, err = svc.SubmitForReview(ctx, 1, nil)
		assert.ErrorIs(t, err, model.ErrNoPendingEntries)

		_, err = svc.SubmitForReview(ctx, 1, []int64{999})
		assert.ErrorIs(t, err, model.ErrNoPendingEntries)
	})
}
