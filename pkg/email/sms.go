package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go-jobalert-scheduler/internal/domain"

	"golang.org/x/time/rate"
)

type SMSConfig struct {
	GatewayURL string
	Token      string
	SenderID   string
	// PerSecond caps gateway calls; zero means 5 per second.
	PerSecond float64
}

// SMSGateway posts text messages to an HTTP SMS provider.
//
//	POST {gateway} {"to": "...", "from": "...", "text": "...", "reference": "..."}
type SMSGateway struct {
	url      string
	token    string
	senderID string
	client   *http.Client
	limiter  *rate.Limiter
}

func NewSMSGateway(cfg SMSConfig) *SMSGateway {
	perSecond := cfg.PerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	return &SMSGateway{
		url:      strings.TrimSpace(cfg.GatewayURL),
		token:    cfg.Token,
		senderID: cfg.SenderID,
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1),
	}
}

// IsConfigured reports whether a gateway endpoint is set.
func (g *SMSGateway) IsConfigured() bool {
	return g.url != ""
}

type smsRequest struct {
	To        string `json:"to"`
	From      string `json:"from,omitempty"`
	Text      string `json:"text"`
	Reference string `json:"reference"`
}

// Send delivers the text body to every number in msg.To. It stops at the
// first rejected number.
func (g *SMSGateway) Send(ctx context.Context, msg domain.Message) error {
	if len(msg.To) == 0 {
		return errors.New("sms has no recipients")
	}
	if msg.TextBody == "" {
		return errors.New("sms has no text")
	}

	for _, to := range msg.To {
		if err := g.sendOne(ctx, smsRequest{To: to, From: g.senderID, Text: msg.TextBody, Reference: msg.ID}); err != nil {
			return err
		}
	}
	return nil
}

func (g *SMSGateway) sendOne(ctx context.Context, payload smsRequest) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode sms: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway error: %s", resp.Status)
	}
	return nil
}
