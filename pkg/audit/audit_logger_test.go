package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_LevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithZap(zap.New(core), "jobalert-scheduler", "test")
	ctx := context.Background()

	l.NotificationSent(ctx, "user-7", "email", "daily_job_alert", 3)
	l.NotificationSkipped(ctx, "user-8", "no_matches")
	l.NotificationFailed(ctx, "user-9", "sms", errors.New("queue down"))
	l.SocialPost(ctx, EventSocialDeleteFailed, 42, "facebook", "page-1", errors.New("503"))

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[3].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "notification_sent", fields["event"])
	assert.Equal(t, HashValue("user-7"), fields["subject_value"])
	assert.NotContains(t, fields["subject_value"], "user-7")
}

func TestLogger_PersistFunc(t *testing.T) {
	l := NewWithZap(zap.NewNop(), "jobalert-scheduler", "test")

	var mu sync.Mutex
	var got []Event
	l.SetPersistFunc(func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
		return nil
	})

	l.PassCompleted(context.Background(), "run-1", map[string]interface{}{"sent": 2})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, EventPassCompleted, got[0].Event)
	assert.Equal(t, "run-1", got[0].RunID)
	assert.Equal(t, "test", got[0].Environment)
	assert.Equal(t, "info", got[0].Level)
}

func TestLogger_NilIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.NotificationSent(context.Background(), "x", "email", "daily_job_alert", 1)
		l.SetPersistFunc(nil)
		_ = l.Sync()
	})
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", MaskEmail("jane@example.com"))
	assert.Equal(t, "***", MaskEmail("a"))
}
