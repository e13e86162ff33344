package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var (
	_ domain.SocialPlatform = (*LogPlatform)(nil)
	_ domain.SocialPlatform = (*WebhookPlatform)(nil)
)

// LogPlatform records posts in the log only. Used for platforms without a relay.
type LogPlatform struct {
	name string
}

func NewLogPlatform(name string) *LogPlatform {
	return &LogPlatform{name: name}
}

func (p *LogPlatform) Name() string { return p.name }

func (p *LogPlatform) Post(_ context.Context, targetID string, payload domain.SocialPostPayload) (string, error) {
	postID := uuid.NewString()
	logger.Log.Info("Social post (log only)", "platform", p.name, "target_id", targetID, "job_id", payload.JobID, "post_id", postID, "link", payload.Link)
	return postID, nil
}

func (p *LogPlatform) Delete(_ context.Context, targetID, postID string) error {
	logger.Log.Info("Social delete (log only)", "platform", p.name, "target_id", targetID, "post_id", postID)
	return nil
}

// WebhookPlatform relays posts to an HTTP endpoint that owns the platform credentials.
//
//	POST   {endpoint}/targets/{target}/posts        -> {"post_id": "..."}
//	DELETE {endpoint}/targets/{target}/posts/{id}
type WebhookPlatform struct {
	name     string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

type WebhookOption func(*WebhookPlatform)

// WithRateLimit caps outgoing calls per second.
func WithRateLimit(perSecond float64, burst int) WebhookOption {
	return func(p *WebhookPlatform) { p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func WithHTTPClient(c *http.Client) WebhookOption {
	return func(p *WebhookPlatform) { p.client = c }
}

func NewWebhookPlatform(name, endpoint string, opts ...WebhookOption) *WebhookPlatform {
	p := &WebhookPlatform{
		name:     name,
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(2), 4),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *WebhookPlatform) Name() string { return p.name }

type postRequest struct {
	JobID   int64  `json:"job_id"`
	Message string `json:"message"`
	Link    string `json:"link"`
}

type postResponse struct {
	PostID string `json:"post_id"`
}

func (p *WebhookPlatform) Post(ctx context.Context, targetID string, payload domain.SocialPostPayload) (string, error) {
	body, err := json.Marshal(postRequest{JobID: payload.JobID, Message: payload.Message, Link: payload.Link})
	if err != nil {
		return "", fmt.Errorf("encode post: %w", err)
	}

	resp, err := p.do(ctx, http.MethodPost, fmt.Sprintf("%s/targets/%s/posts", p.endpoint, url.PathEscape(targetID)), body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%s post error: %s", p.name, resp.Status)
	}

	var out postResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode %s post response: %w", p.name, err)
	}
	if out.PostID == "" {
		return "", fmt.Errorf("%s post response has no post_id", p.name)
	}
	return out.PostID, nil
}

// Delete treats 404 as success: the post is already gone.
func (p *WebhookPlatform) Delete(ctx context.Context, targetID, postID string) error {
	u := fmt.Sprintf("%s/targets/%s/posts/%s", p.endpoint, url.PathEscape(targetID), url.PathEscape(postID))
	resp, err := p.do(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("%s delete error: %s", p.name, resp.Status)
	}
}

func (p *WebhookPlatform) do(ctx context.Context, method, u string, body []byte) (*http.Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

// Registry builds one client per platform named in targets. Platforms with a
// webhook get a WebhookPlatform; the rest are log only.
func Registry(targets []domain.SocialTarget, webhooks map[string]string) map[string]domain.SocialPlatform {
	out := make(map[string]domain.SocialPlatform)
	for _, t := range targets {
		if _, ok := out[t.Platform]; ok {
			continue
		}
		if endpoint, ok := webhooks[t.Platform]; ok && endpoint != "" {
			out[t.Platform] = NewWebhookPlatform(t.Platform, endpoint)
		} else {
			out[t.Platform] = NewLogPlatform(t.Platform)
		}
	}
	return out
}
