package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/cache"
	"qc-tracker/backend/internal/testutil"
	"qc-tracker/backend/internal/worker"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) EnqueueEmail(ctx context.Context, to, subject, body string) (string, error) {
	args := m.Called(ctx, to, subject, body)
	return args.String(0), args.Error(1)
}

func (m *mockQueue) Status(ctx context.Context, id string) (*worker.JobRecord, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*worker.JobRecord)
	return rec, args.Error(1)
}

func TestOutboundMail_Queued(t *testing.T) {
	log, _ := test.NewNullLogger()
	queue := new(mockQueue)
	queue.On("EnqueueEmail", mock.Anything, "editor@example.com", "Hi", "Body").Return("job-1", nil)
	sender := &testutil.FakeSender{}
	svc := NewOutboundMailService(queue, sender, time.Second, log)

	dispatch, err := svc.SendEmail(context.Background(), SendEmailInput{To: "editor@example.com", Subject: "Hi", Text: "Body"})
	require.NoError(t, err)
	assert.True(t, dispatch.Queued)
	assert.Equal(t, "job-1", dispatch.JobID)
	assert.Empty(t, sender.Sent())
	queue.AssertExpectations(t)
}

func TestOutboundMail_QueueFailureFallsBackInline(t *testing.T) {
	log, _ := test.NewNullLogger()
	queue := new(mockQueue)
	queue.On("EnqueueEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("redis down"))
	sender := &testutil.FakeSender{}
	svc := NewOutboundMailService(queue, sender, time.Second, log)

	dispatch, err := svc.SendEmail(context.Background(), SendEmailInput{To: "editor@example.com", Subject: "Hi", Text: "Body"})
	require.NoError(t, err)
	assert.False(t, dispatch.Queued)
	assert.Len(t, sender.Sent(), 1)
}

func TestOutboundMail_Inline(t *testing.T) {
	log, _ := test.NewNullLogger()
	sender := &testutil.FakeSender{Err: errors.New("relay refused")}
	svc := NewOutboundMailService(nil, sender, time.Second, log)

	_, err := svc.SendEmail(context.Background(), SendEmailInput{To: "editor@example.com", Subject: "Hi", Text: "Body"})
	assert.True(t, apperrors.IsDelivery(err))
}

func TestOutboundMail_Validation(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := NewOutboundMailService(nil, &testutil.FakeSender{}, time.Second, log)

	_, err := svc.SendEmail(context.Background(), SendEmailInput{To: "editor@example.com", Subject: "Hi"})
	assert.EqualError(t, err, "Please provide to, subject, and text.")

	_, err = svc.SendEmail(context.Background(), SendEmailInput{To: "nope", Subject: "Hi", Text: "x"})
	assert.EqualError(t, err, "to must be a valid email address")
}

func TestOutboundMail_JobStatus(t *testing.T) {
	log, _ := test.NewNullLogger()
	const jobID = "3f0c9a4e-2b7d-4c1e-9a51-6d2e8f4b7c10"

	queue := new(mockQueue)
	queue.On("Status", mock.Anything, jobID).Return(&worker.JobRecord{ID: jobID, Status: worker.JobStatusFailed, Error: "relay down"}, nil).Once()
	queue.On("Status", mock.Anything, jobID).Return(nil, cache.ErrCacheMiss).Once()
	svc := NewOutboundMailService(queue, &testutil.FakeSender{}, time.Second, log)

	rec, err := svc.JobStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, worker.JobStatusFailed, rec.Status)
	assert.Equal(t, "relay down", rec.Error)

	_, err = svc.JobStatus(context.Background(), jobID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.EqualError(t, err, "Email job not found")

	_, err = svc.JobStatus(context.Background(), "job-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidID)
	queue.AssertExpectations(t)
}

func TestOutboundMail_JobStatusWithoutQueue(t *testing.T) {
	log, _ := test.NewNullLogger()
	svc := NewOutboundMailService(nil, &testutil.FakeSender{}, time.Second, log)

	_, err := svc.JobStatus(context.Background(), "3f0c9a4e-2b7d-4c1e-9a51-6d2e8f4b7c10")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
