package email

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/logger"
)

// Sender delivers one queued message on its channel.
type Sender interface {
	Send(ctx context.Context, msg domain.Message) error
}

type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
}

// EmailService handles sending emails via SMTP
type EmailService struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
	sendMail  func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailService creates a new email service with Brevo SMTP configuration
func NewEmailService(cfg SMTPConfig) *EmailService {
	from := cfg.FromEmail
	if from == "" {
		from = cfg.Username // Brevo accepts the login email as from address
	}
	return &EmailService{
		host:      cfg.Host,
		port:      cfg.Port,
		username:  cfg.Username,
		password:  cfg.Password,
		fromEmail: from,
		sendMail:  smtp.SendMail,
	}
}

// IsConfigured checks if the email service has valid SMTP configuration
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != ""
}

// Send delivers an alert as multipart/alternative with text and html parts.
func (s *EmailService) Send(ctx context.Context, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("message %s has no recipients", msg.ID)
	}

	raw, err := s.buildMIME(msg)
	if err != nil {
		return err
	}

	// Setup SMTP authentication
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.sendMail(addr, auth, s.fromEmail, msg.To, raw); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) buildMIME(msg domain.Message) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=UTF-8", msg.TextBody},
		{"text/html; charset=UTF-8", msg.HTMLBody},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, fmt.Errorf("failed to build email part: %w", err)
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("failed to build email part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build email: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", s.fromEmail)
	fmt.Fprintf(&out, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&out, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&out, "Message-ID: <%s@%s>\r\n", msg.ID, s.host)
	fmt.Fprintf(&out, "X-Alert-Tag: %s\r\n", msg.Tag)
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	out.WriteString("\r\n")
	out.Write(body.Bytes())

	return out.Bytes(), nil
}

// LogSender stands in for a channel without a configured gateway. It logs
// the message and reports success.
type LogSender struct {
	Channel domain.Channel
}

func (l LogSender) Send(_ context.Context, msg domain.Message) error {
	logger.Log.Info("Message delivered to log channel",
		"channel", l.Channel,
		"message_id", msg.ID,
		"recipients", len(msg.To),
		"subject", msg.Subject,
		"tag", msg.Tag)
	return nil
}
