package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-jobalert-scheduler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAlertUsecase struct{ mock.Mock }

func (m *MockAlertUsecase) Run(ctx context.Context, req domain.RunRequest) (*domain.PassSummary, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*domain.PassSummary)
	return s, args.Error(1)
}

func TestScheduler_RegistersEntries(t *testing.T) {
	alerts := new(MockAlertUsecase)
	s := New(alerts, []Entry{
		{Type: domain.NotificationDailyAlert, Spec: "0 6 * * *"},
		{Type: domain.NotificationWeeklyAlert, Spec: "0 7 * * 1"},
	})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	next := s.Next()
	require.Len(t, next, 2)
	assert.Equal(t, 6, next[domain.NotificationDailyAlert].Hour())
	assert.Equal(t, time.Monday, next[domain.NotificationWeeklyAlert].Weekday())
	assert.Equal(t, time.UTC, next[domain.NotificationDailyAlert].Location())
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := New(new(MockAlertUsecase), []Entry{{Type: domain.NotificationDailyAlert, Spec: "every morning"}})
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_TickRunsPass(t *testing.T) {
	alerts := new(MockAlertUsecase)
	alerts.On("Run", mock.Anything, domain.RunRequest{Type: domain.NotificationSubscriberDigest}).
		Return(&domain.PassSummary{RunID: "r1"}, nil).Once()
	alerts.On("Run", mock.Anything, domain.RunRequest{Type: domain.NotificationSavedAlertMatch}).
		Return(nil, errors.New("db down")).Once()

	s := New(alerts, []Entry{
		{Type: domain.NotificationSubscriberDigest, Spec: "@daily"},
		{Type: domain.NotificationSavedAlertMatch, Spec: "@daily"},
	})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	for _, e := range s.cron.Entries() {
		e.WrappedJob.Run()
	}
	alerts.AssertExpectations(t)
}

func TestScheduler_CancelledContextSkipsPass(t *testing.T) {
	alerts := new(MockAlertUsecase)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(alerts, nil)
	s.runPass(ctx, domain.NotificationDailyAlert)
	alerts.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}
