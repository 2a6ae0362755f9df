package summary

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timetrack.service/internal/core/model"
	"timetrack.service/internal/ports/messaging"
)

type fakeSessionRepo struct {
	sessions map[int64]*model.ClockSession
}

func (f *fakeSessionRepo) GetSession(ctx context.Context, id int64) (*model.ClockSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionRepo) FindOpenSession(ctx context.Context, userID int64) (*model.ClockSession, error) {
	return nil, nil
}

func (f *fakeSessionRepo) SessionsBetween(ctx context.Context, userID int64, from, to time.Time) ([]model.ClockSession, error) {
	return nil, nil
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, userID int64, clockIn time.Time, shiftName string) (int64, error) {
	return 0, errors.New("not supported")
}

func (f *fakeSessionRepo) CloseSession(ctx context.Context, id int64, clockOut time.Time, earlyExitReason *string) error {
	return errors.New("not supported")
}

func (f *fakeSessionRepo) CloseSessionAndEntry(ctx context.Context, sessionID int64, clockOut time.Time, earlyExitReason *string, entryID int64, entryHours float64) error {
	return errors.New("not supported")
}

func (f *fakeSessionRepo) UpdateSummaryStatus(ctx context.Context, id int64, status model.NotifyStatus, retryCount int) error {
	if s, ok := f.sessions[id]; ok {
		s.SummaryStatus = status
		s.SummaryRetryCount = retryCount
	}
	return nil
}

type fakeUserRepo struct {
	users map[int64]model.User
}

func (f *fakeUserRepo) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUserRepo) GetUsers(ctx context.Context, ids []int64) (map[int64]model.User, error) {
	out := make(map[int64]model.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakeEmailService struct {
	sendErr   error
	sentTo    []string
	lastHours float64
}

func (f *fakeEmailService) SendShiftSummary(ctx context.Context, to string, hours float64) error {
	f.sentTo = append(f.sentTo, to)
	f.lastHours = hours
	return f.sendErr
}

func (f *fakeEmailService) SendDecisionNotice(ctx context.Context, to string, action model.DecisionAction, reason string, logCount int) error {
	return f.sendErr
}

func summaryMessage(t *testing.T, event messaging.ClockOutEvent) types.Message {
	t.Helper()
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return types.Message{Body: aws.String(string(body))}
}

func newSummaryFixture() (*fakeSessionRepo, *fakeEmailService, *SummaryProcessor) {
	sessions := &fakeSessionRepo{sessions: map[int64]*model.ClockSession{
		7: {ID: 7, UserID: 1, SummaryStatus: model.StatusNotifyPending},
	}}
	users := &fakeUserRepo{users: map[int64]model.User{
		1: {ID: 1, Email: "employee@example.com"},
	}}
	email := &fakeEmailService{}
	return sessions, email, NewProcessor(email, sessions, users)
}

func TestSummaryProcessorSendsRecap(t *testing.T) {
	ctx := context.Background()
	sessions, email, proc := newSummaryFixture()

	msg := summaryMessage(t, messaging.ClockOutEvent{SessionID: 7, UserID: 1, HoursWorked: 7.5})

	retry, _, err := proc.Process(ctx, msg)
	require.NoError(t, err)
	assert.False(t, retry)
	assert.Equal(t, []string{"employee@example.com"}, email.sentTo)
	assert.InDelta(t, 7.5, email.lastHours, 1e-9)
	assert.Equal(t, model.StatusNotifyCompleted, sessions.sessions[7].SummaryStatus)
}

func TestSummaryProcessorIdempotent(t *testing.T) {
	ctx := context.Background()
	sessions, email, proc := newSummaryFixture()
	sessions.sessions[7].SummaryStatus = model.StatusNotifyCompleted

	msg := summaryMessage(t, messaging.ClockOutEvent{SessionID: 7, UserID: 1})

	retry, _, err := proc.Process(ctx, msg)
	require.NoError(t, err)
	assert.False(t, retry)
	assert.Empty(t, email.sentTo)
}

func TestSummaryProcessorRetriesWithBackoff(t *testing.T) {
	ctx := context.Background()
	sessions, email, proc := newSummaryFixture()
	email.sendErr = errors.New("ses throttled")

	msg := summaryMessage(t, messaging.ClockOutEvent{SessionID: 7, UserID: 1})

	retry, delay, err := proc.Process(ctx, msg)
	assert.Error(t, err)
	assert.True(t, retry)
	assert.Equal(t, int32(20), delay)
	assert.Equal(t, 1, sessions.sessions[7].SummaryRetryCount)
}

func TestSummaryProcessorDropsUnknownSession(t *testing.T) {
	ctx := context.Background()
	_, email, proc := newSummaryFixture()

	msg := summaryMessage(t, messaging.ClockOutEvent{SessionID: 999, UserID: 1})
	retry, _, err := proc.Process(ctx, msg)
	assert.NoError(t, err)
	assert.False(t, retry)
	assert.Empty(t, email.sentTo)
}
