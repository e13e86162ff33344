package usecase_test

import (
	"context"
	"testing"
	"time"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type passFixture struct {
	recipients *MockRecipientRepo
	jobs       *MockJobRepo
	archive    *MockArchive
	ledger     *memLedger
	queue      *memQueue
	uc         domain.AlertUsecase
	window     domain.Window
}

func newPassFixture(t *testing.T) *passFixture {
	t.Helper()
	end := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := &passFixture{
		recipients: new(MockRecipientRepo),
		jobs:       new(MockJobRepo),
		archive:    new(MockArchive),
		ledger:     newMemLedger(),
		queue:      &memQueue{},
		window:     domain.NotificationDailyAlert.WindowEndingAt(end),
	}

	f.recipients.On("ListEligible", mock.Anything, domain.RecipientUser).Return([]domain.RecipientRef{
		{ID: "java-dev", Kind: domain.RecipientUser},
		{ID: "bounced", Kind: domain.RecipientUser},
		{ID: "ghost", Kind: domain.RecipientUser},
	}, nil)
	f.recipients.On("GetRecipient", mock.Anything, "java-dev", domain.RecipientUser).Return(&domain.RecipientRecord{
		ID: "java-dev", Kind: domain.RecipientUser, Email: "java@example.com", SkillIDs: []int64{1}, OptedIn: true,
	}, nil)
	f.recipients.On("GetRecipient", mock.Anything, "bounced", domain.RecipientUser).Return(&domain.RecipientRecord{
		ID: "bounced", Kind: domain.RecipientUser, Email: "b@example.com", SkillIDs: []int64{1}, OptedIn: true, IsBounce: true,
	}, nil)
	f.recipients.On("GetRecipient", mock.Anything, "ghost", domain.RecipientUser).Return(nil, domain.ErrNotFound)

	published := end.Add(-2 * time.Hour)
	f.jobs.On("FetchByStatusInWindow", mock.Anything, domain.JobLive, f.window).Return([]domain.JobPosting{
		{ID: 1, Title: "Java Developer", Status: domain.JobLive, SkillIDs: []int64{1}, PublishedAt: published},
		{ID: 2, Title: "Python Developer", Status: domain.JobLive, SkillIDs: []int64{2}, PublishedAt: published.Add(-time.Hour)},
		{ID: 3, Title: "Java Lead", Status: domain.JobLive, SkillIDs: []int64{1}, LocationIDs: []int64{9}, PublishedAt: published.Add(-2 * time.Hour)},
	}, nil)
	f.jobs.On("FetchByStatus", mock.Anything, domain.JobLive, 100).Return([]domain.JobPosting{}, nil)
	f.archive.On("Archive", mock.Anything, mock.AnythingOfType("*domain.PassSummary")).Return(nil)

	f.uc = usecase.NewAlertUsecase(usecase.AlertPassDeps{
		Recipients: f.recipients,
		Extractor:  usecase.NewProfileExtractor(f.recipients, nil),
		Pool:       usecase.NewPoolBuilder(f.jobs),
		Dispatcher: usecase.NewDispatcher(f.ledger, f.queue, nil, usecase.NewRenderer("https://jobs.example.com"), nil, usecase.DispatcherConfig{}),
		Archive:    f.archive,
		Config:     usecase.AlertPassConfig{Concurrency: 2},
	})
	return f
}

func TestAlertPass_Run(t *testing.T) {
	f := newPassFixture(t)

	summary, err := f.uc.Run(context.Background(), domain.RunRequest{Type: domain.NotificationDailyAlert, Window: f.window})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Recipients)
	assert.Equal(t, 3, summary.PoolSize)
	assert.Equal(t, 1, summary.Outcomes[domain.OutcomeSent])
	assert.Equal(t, 2, summary.Outcomes[domain.OutcomeSkippedIneligible])
	assert.Zero(t, summary.Errors)
	assert.False(t, summary.Cancelled)
	assert.NotEmpty(t, summary.RunID)

	msgs := f.queue.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"java@example.com"}, msgs[0].To)
	assert.Contains(t, msgs[0].TextBody, "Java Developer")
	assert.Contains(t, msgs[0].TextBody, "Java Lead")
	assert.NotContains(t, msgs[0].TextBody, "Python Developer")

	f.archive.AssertNumberOfCalls(t, "Archive", 1)
}

func TestAlertPass_RerunIsIdempotent(t *testing.T) {
	f := newPassFixture(t)
	req := domain.RunRequest{Type: domain.NotificationDailyAlert, Window: f.window}

	_, err := f.uc.Run(context.Background(), req)
	require.NoError(t, err)
	summary, err := f.uc.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, summary.Outcomes[domain.OutcomeSent])
	assert.Equal(t, 1, summary.Outcomes[domain.OutcomeSkippedDuplicate])
	assert.Len(t, f.queue.sent(), 1)
	assert.Equal(t, 1, f.ledger.count())
}

func TestAlertPass_ExplicitRecipients(t *testing.T) {
	f := newPassFixture(t)

	summary, err := f.uc.Run(context.Background(), domain.RunRequest{
		Type:       domain.NotificationDailyAlert,
		Window:     f.window,
		Recipients: []domain.RecipientRef{{ID: "java-dev"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Recipients)
	assert.Equal(t, 1, summary.Outcomes[domain.OutcomeSent])
	f.recipients.AssertNotCalled(t, "ListEligible", mock.Anything, mock.Anything)
}

func TestAlertPass_DryRun(t *testing.T) {
	f := newPassFixture(t)

	summary, err := f.uc.Run(context.Background(), domain.RunRequest{Type: domain.NotificationDailyAlert, Window: f.window, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Outcomes[domain.OutcomeDryRun])
	assert.Empty(t, f.queue.sent())
	assert.Zero(t, f.ledger.count())
}

func TestAlertPass_Cancelled(t *testing.T) {
	f := newPassFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := f.uc.Run(ctx, domain.RunRequest{Type: domain.NotificationDailyAlert, Window: f.window})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.True(t, summary.Cancelled)
	assert.Empty(t, f.queue.sent())
	f.archive.AssertNumberOfCalls(t, "Archive", 1)
}

func TestAlertPass_RejectsBadRequests(t *testing.T) {
	f := newPassFixture(t)

	_, err := f.uc.Run(context.Background(), domain.RunRequest{Type: "hourly_spam"})
	assert.Error(t, err)

	_, err = f.uc.Run(context.Background(), domain.RunRequest{
		Type:   domain.NotificationDailyAlert,
		Window: domain.Window{From: f.window.To, To: f.window.From},
	})
	assert.Error(t, err)
}

func TestDefaultWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	daily := usecase.DefaultWindow(domain.NotificationDailyAlert, now)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), daily.From)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), daily.To)

	weekly := usecase.DefaultWindow(domain.NotificationWeeklyAlert, now)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), weekly.From)
	assert.Equal(t, daily.To, weekly.To)

	assert.Equal(t, daily, usecase.DefaultWindow(domain.NotificationDailyAlert, now.Add(3*time.Hour)))
}

func TestDefaultWindow_ConsecutiveDaysDoNotOverlap(t *testing.T) {
	midnight := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	before := usecase.DefaultWindow(domain.NotificationDailyAlert, midnight.Add(6*time.Hour))
	after := usecase.DefaultWindow(domain.NotificationDailyAlert, midnight.Add(30*time.Hour))

	assert.False(t, before.Contains(midnight))
	assert.True(t, after.Contains(midnight))
	assert.Equal(t, before.To.Add(time.Nanosecond), after.From)

	for _, ts := range []time.Time{midnight.Add(-time.Nanosecond), midnight, midnight.Add(23 * time.Hour)} {
		assert.NotEqual(t, before.Contains(ts), after.Contains(ts), ts)
	}
}

func TestExportNotifications(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	reader := new(MockLedgerReader)
	reader.On("ListSent", mock.Anything, from, to).Return([]domain.NotificationRecord{{
		Key: domain.NotificationKey{
			RecipientID:   "u1",
			RecipientKind: domain.RecipientUser,
			Type:          domain.NotificationDailyAlert,
			WindowStart:   from,
			Channel:       domain.ChannelEmail,
		},
		JobIDs: []int64{4, 5},
		SentAt: from.Add(time.Hour),
	}}, nil)

	uc := usecase.NewExportUsecase(reader)

	data, name, err := uc.ExportNotifications(context.Background(), domain.ExportRequest{From: from, To: to, Format: "csv"})
	require.NoError(t, err)
	assert.Contains(t, name, ".csv")
	assert.Contains(t, string(data), "RECIPIENT ID,RECIPIENT KIND")
	assert.Contains(t, string(data), "u1,registered_user,daily_job_alert,email,2026-03-01T00:00:00Z,2026-03-01T01:00:00Z,2,4 5")

	data, name, err = uc.ExportNotifications(context.Background(), domain.ExportRequest{From: from, To: to})
	require.NoError(t, err)
	assert.Contains(t, name, ".xlsx")
	assert.Equal(t, "PK", string(data[:2]))

	_, _, err = uc.ExportNotifications(context.Background(), domain.ExportRequest{From: to, To: from})
	assert.Error(t, err)
	_, _, err = uc.ExportNotifications(context.Background(), domain.ExportRequest{From: from, To: to, Format: "pdf"})
	assert.Error(t, err)
}
