package core

import (
	"context"
	"sync"
	"time"

	"timetrack.service/internal/core/model"
	"timetrack.service/internal/ports/messaging"
)

// memStore is an in-memory stand-in for the postgres repositories with the
// same compare-and-set semantics, shared by the service tests.
type memStore struct {
	mu            sync.Mutex
	sessions      map[int64]*model.ClockSession
	entries       map[int64]*model.ActivityLogEntry
	decisions     map[string]*model.ApprovalDecision
	users         map[int64]model.User
	nextSessionID int64
	nextEntryID   int64
}

func newMemStore() *memStore {
	return &memStore{
		sessions:  make(map[int64]*model.ClockSession),
		entries:   make(map[int64]*model.ActivityLogEntry),
		decisions: make(map[string]*model.ApprovalDecision),
		users:     make(map[int64]model.User),
	}
}

func (m *memStore) addUser(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// seedEntry inserts a closed entry directly, for pipeline tests that do not
// care about the clock flow.
func (m *memStore) seedEntry(e model.ActivityLogEntry) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextEntryID++
	e.ID = m.nextEntryID
	m.entries[e.ID] = &e
	return e.ID
}

func (m *memStore) seedSession(s model.ClockSession) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSessionID++
	s.ID = m.nextSessionID
	m.sessions[s.ID] = &s
	return s.ID
}

func (m *memStore) entryStatus(id int64) model.ApprovalStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[id].ApprovalStatus
}

// SessionRepository

func (m *memStore) GetSession(ctx context.Context, id int64) (*model.ClockSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) FindOpenSession(ctx context.Context, userID int64) (*model.ClockSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.ClockOutTime == nil {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) SessionsBetween(ctx context.Context, userID int64, from, to time.Time) ([]model.ClockSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ClockSession
	for _, s := range m.sessions {
		if s.UserID == userID && !s.ClockInTime.Before(from) && s.ClockInTime.Before(to) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memStore) CreateSession(ctx context.Context, userID int64, clockIn time.Time, shiftName string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSessionID++
	m.sessions[m.nextSessionID] = &model.ClockSession{
		ID:          m.nextSessionID,
		UserID:      userID,
		ClockInTime: clockIn,
		ShiftName:   shiftName,
	}
	return m.nextSessionID, nil
}

func (m *memStore) CloseSession(ctx context.Context, id int64, clockOut time.Time, earlyExitReason *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.ClockOutTime == nil {
		s.ClockOutTime = &clockOut
		s.EarlyExitReason = earlyExitReason
	}
	return nil
}

func (m *memStore) CloseSessionAndEntry(ctx context.Context, sessionID int64, clockOut time.Time, earlyExitReason *string, entryID int64, entryHours float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[entryID]; ok && e.EndTime == nil {
		end := clockOut
		e.EndTime = &end
		e.Hours = entryHours
	}
	if s, ok := m.sessions[sessionID]; ok && s.ClockOutTime == nil {
		out := clockOut
		s.ClockOutTime = &out
		s.EarlyExitReason = earlyExitReason
	}
	return nil
}

func (m *memStore) UpdateSummaryStatus(ctx context.Context, id int64, status model.NotifyStatus, retryCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.SummaryStatus = status
		s.SummaryRetryCount = retryCount
	}
	return nil
}

// ActivityRepository

func (m *memStore) GetEntry(ctx context.Context, id int64) (*model.ActivityLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) FindActiveEntry(ctx context.Context, userID int64) (*model.ActivityLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.UserID == userID && e.EndTime == nil {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateEntry(ctx context.Context, userID, sessionID, activityID int64, start time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextEntryID++
	m.entries[m.nextEntryID] = &model.ActivityLogEntry{
		ID:             m.nextEntryID,
		UserID:         userID,
		SessionID:      sessionID,
		ActivityID:     activityID,
		StartTime:      start,
		ApprovalStatus: model.StatusDraft,
	}
	return m.nextEntryID, nil
}

func (m *memStore) CloseEntry(ctx context.Context, id int64, end time.Time, hours float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok && e.EndTime == nil {
		e.EndTime = &end
		e.Hours = hours
	}
	return nil
}

func (m *memStore) UpdateEntryInterval(ctx context.Context, id int64, start, end time.Time, hours float64, status model.ApprovalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.StartTime = start
		e.EndTime = &end
		e.Hours = hours
		e.ApprovalStatus = status
	}
	return nil
}

func (m *memStore) ListBySession(ctx context.Context, sessionID int64) ([]model.ActivityLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityLogEntry
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			out = append(out, *e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (m *memStore) ListByIDs(ctx context.Context, ids []int64) ([]model.ActivityLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityLogEntry
	for _, id := range ids {
		if e, ok := m.entries[id]; ok {
			cp := *e
			if s, ok := m.sessions[e.SessionID]; ok {
				cp.ShiftName = s.ShiftName
			}
			out = append(out, cp)
		}
	}
	sortEntries(out)
	return out, nil
}

func (m *memStore) ListByOwnerAndStatus(ctx context.Context, userID int64, statuses []model.ApprovalStatus) ([]model.ActivityLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityLogEntry
	for _, e := range m.entries {
		if e.UserID != userID {
			continue
		}
		for _, st := range statuses {
			if e.ApprovalStatus == st {
				out = append(out, *e)
				break
			}
		}
	}
	sortEntries(out)
	return out, nil
}

func (m *memStore) ListAwaitingApprover(ctx context.Context, approverID int64) ([]model.ActivityLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ActivityLogEntry
	for _, e := range m.entries {
		owner, ok := m.users[e.UserID]
		if !ok {
			continue
		}
		supervisorMatch := e.ApprovalStatus == model.StatusSubmitted &&
			owner.SupervisorID != nil && *owner.SupervisorID == approverID
		managerMatch := e.ApprovalStatus == model.StatusSupervisorApproved &&
			owner.ManagerID != nil && *owner.ManagerID == approverID
		if supervisorMatch || managerMatch {
			out = append(out, *e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (m *memStore) TransitionStatus(ctx context.Context, ids []int64, from, to model.ApprovalStatus) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var moved []int64
	for _, id := range ids {
		if e, ok := m.entries[id]; ok && e.ApprovalStatus == from {
			e.ApprovalStatus = to
			moved = append(moved, id)
		}
	}
	return moved, nil
}

func (m *memStore) ApplyDecision(ctx context.Context, ids []int64, from, to model.ApprovalStatus, decision *model.ApprovalDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		e, ok := m.entries[id]
		if !ok || e.ApprovalStatus != from {
			return model.ErrStaleState
		}
	}
	for _, id := range ids {
		m.entries[id].ApprovalStatus = to
	}
	cp := *decision
	m.decisions[decision.ID] = &cp
	return nil
}

// DecisionRepository

func (m *memStore) GetDecision(ctx context.Context, id string) (*model.ApprovalDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.decisions[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *memStore) ListByApprover(ctx context.Context, approverID int64) ([]model.ApprovalDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ApprovalDecision
	for _, d := range m.decisions {
		if d.ApproverID == approverID {
			out = append(out, *d)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].DecidedAt.After(out[j-1].DecidedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (m *memStore) UpdateNotifyStatus(ctx context.Context, id string, status model.NotifyStatus, retryCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.decisions[id]; ok {
		d.NotifyStatus = status
		d.NotifyRetryCount = retryCount
	}
	return nil
}

// UserRepository

func (m *memStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memStore) GetUsers(ctx context.Context, ids []int64) (map[int64]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]model.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func sortEntries(entries []model.ActivityLogEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].StartTime.Before(entries[j-1].StartTime); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// fakeSchedule returns a fixed assignment per user.
type fakeSchedule struct {
	mu          sync.Mutex
	assignments map[int64]*model.ShiftAssignment
}

func newFakeSchedule() *fakeSchedule {
	return &fakeSchedule{assignments: make(map[int64]*model.ShiftAssignment)}
}

func (f *fakeSchedule) set(userID int64, a *model.ShiftAssignment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignments[userID] = a
}

func (f *fakeSchedule) ShiftFor(ctx context.Context, userID int64, date time.Time) (*model.ShiftAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assignments[userID], nil
}

// fakeProducer records published events.
type fakeProducer struct {
	mu        sync.Mutex
	decisions []messaging.DecisionEvent
	summaries []messaging.ClockOutEvent
}

func (f *fakeProducer) PublishDecision(ctx context.Context, event messaging.DecisionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions = append(f.decisions, event)
	return nil
}

func (f *fakeProducer) PublishSummary(ctx context.Context, event messaging.ClockOutEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, event)
	return nil
}
