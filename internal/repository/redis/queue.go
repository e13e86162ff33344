package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-jobalert-scheduler/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MessageQueue is a Redis list of JSON encoded messages. The scheduler
// pushes, the mail worker pops.
type MessageQueue struct {
	client *redis.Client
	key    string
}

func NewMessageQueue(client *redis.Client, key string) *MessageQueue {
	return &MessageQueue{client: client, key: key}
}

// Enqueue returns once Redis has accepted the message.
func (q *MessageQueue) Enqueue(ctx context.Context, msg domain.Message) error {
	if q.client == nil {
		return domain.ErrQueueUnavailable
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}
	return nil
}

// Dequeue blocks up to wait for the next message and returns (nil, nil) on timeout.
func (q *MessageQueue) Dequeue(ctx context.Context, wait time.Duration) (*domain.Message, error) {
	if q.client == nil {
		return nil, domain.ErrQueueUnavailable
	}

	res, err := q.client.BLPop(ctx, wait, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BLPOP replies [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BLPOP reply of %d elements", len(res))
	}

	var msg domain.Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	return &msg, nil
}

// Len reports the backlog for health checks.
func (q *MessageQueue) Len(ctx context.Context) (int64, error) {
	if q.client == nil {
		return 0, domain.ErrQueueUnavailable
	}
	return q.client.LLen(ctx, q.key).Result()
}
