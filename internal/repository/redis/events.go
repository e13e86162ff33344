package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	ChannelJobPublished = "jobs.published"
	ChannelJobRemoved   = "jobs.removed"
)

// JobEventSubscriber turns recruiter-side job lifecycle events into social
// bookkeeping calls.
type JobEventSubscriber struct {
	client *redis.Client
	social domain.SocialUsecase
}

func NewJobEventSubscriber(client *redis.Client, social domain.SocialUsecase) *JobEventSubscriber {
	return &JobEventSubscriber{client: client, social: social}
}

// Run blocks until ctx is cancelled. Handler failures are logged; the event
// is not redelivered.
func (s *JobEventSubscriber) Run(ctx context.Context) error {
	if s.client == nil {
		return domain.ErrQueueUnavailable
	}

	sub := s.client.Subscribe(ctx, ChannelJobPublished, ChannelJobRemoved)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to job events: %w", err)
	}
	logger.Log.Info("Listening for job events", "channels", []string{ChannelJobPublished, ChannelJobRemoved})

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.Handle(ctx, msg.Channel, msg.Payload); err != nil {
				logger.Log.Error("Job event failed",
					"channel", msg.Channel,
					"payload", msg.Payload,
					"error", err,
				)
			}
		}
	}
}

// Handle dispatches one raw event.
func (s *JobEventSubscriber) Handle(ctx context.Context, channel, payload string) error {
	var ev domain.PublishEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return fmt.Errorf("invalid job event payload: %w", err)
	}
	if ev.JobID <= 0 {
		return fmt.Errorf("invalid job event payload: missing job_id")
	}

	switch channel {
	case ChannelJobPublished:
		records, err := s.social.OnPublish(ctx, ev.JobID, ev.Platforms)
		if err != nil {
			return err
		}
		logger.Log.Info("Job published to social targets", "job_id", ev.JobID, "posts", len(records))
		return nil
	case ChannelJobRemoved:
		return s.social.OnRemove(ctx, ev.JobID)
	}
	return fmt.Errorf("unknown job event channel %q", channel)
}

// PublishJobEvent emits an event on the given channel.
func PublishJobEvent(ctx context.Context, client *redis.Client, channel string, ev domain.PublishEvent) error {
	if client == nil {
		return domain.ErrQueueUnavailable
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return client.Publish(ctx, channel, payload).Err()
}
