package email

import (
	"context"
	"errors"
	"net/smtp"
	"sync"
	"testing"
	"time"

	"go-jobalert-scheduler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailService_Send(t *testing.T) {
	svc := NewEmailService(SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "login@example.com", Password: "pw", FromEmail: "alerts@example.com"})
	require.True(t, svc.IsConfigured())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	svc.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := svc.Send(context.Background(), domain.Message{
		ID:       "m1",
		Channel:  domain.ChannelEmail,
		To:       []string{"dev@example.com"},
		Subject:  "3 new jobs matching your profile",
		HTMLBody: "<p>jobs</p>",
		TextBody: "jobs",
		Tag:      domain.NotificationDailyAlert,
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "alerts@example.com", gotFrom)
	assert.Equal(t, []string{"dev@example.com"}, gotTo)
	raw := string(gotMsg)
	assert.Contains(t, raw, "Subject: 3 new jobs matching your profile\r\n")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain; charset=UTF-8")
	assert.Contains(t, raw, "<p>jobs</p>")
	assert.Contains(t, raw, "X-Alert-Tag: daily_job_alert")
}

func TestEmailService_NoRecipients(t *testing.T) {
	svc := NewEmailService(SMTPConfig{Host: "smtp.example.com", Port: "587"})
	assert.Error(t, svc.Send(context.Background(), domain.Message{ID: "m1"}))
}

type sliceSource struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func (s *sliceSource) Dequeue(ctx context.Context, _ time.Duration) (*domain.Message, error) {
	s.mu.Lock()
	if len(s.msgs) == 0 {
		s.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	m := s.msgs[0]
	s.msgs = s.msgs[1:]
	s.mu.Unlock()
	return &m, nil
}

type recordingSender struct {
	mu   sync.Mutex
	ids  []string
	fail bool
}

func (r *recordingSender) Send(_ context.Context, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, msg.ID)
	if r.fail {
		return errors.New("gateway down")
	}
	return nil
}

func (r *recordingSender) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func TestWorker_RoutesByChannel(t *testing.T) {
	src := &sliceSource{msgs: []domain.Message{
		{ID: "e1", Channel: domain.ChannelEmail},
		{ID: "s1", Channel: domain.ChannelSMS},
		{ID: "x1", Channel: "fax"},
		{ID: "e2", Channel: domain.ChannelEmail},
	}}
	mail := &recordingSender{fail: true}
	sms := &recordingSender{}

	w := NewWorker(src, map[domain.Channel]Sender{domain.ChannelEmail: mail, domain.ChannelSMS: sms})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return len(mail.sent()) == 2 && len(sms.sent()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)

	assert.Equal(t, []string{"e1", "e2"}, mail.sent(), "failed deliveries are not retried")
	assert.Equal(t, []string{"s1"}, sms.sent())
}
