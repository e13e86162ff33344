package email

import (
	"context"
	"errors"
	"time"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/logger"
)

// Source yields queued messages. Dequeue blocks up to wait and returns
// (nil, nil) when nothing arrived.
type Source interface {
	Dequeue(ctx context.Context, wait time.Duration) (*domain.Message, error)
}

// Worker drains the outbound queue. Delivery failures are logged and the
// message is dropped; retries belong to the gateway.
type Worker struct {
	source  Source
	senders map[domain.Channel]Sender
	wait    time.Duration
	backoff time.Duration
}

func NewWorker(source Source, senders map[domain.Channel]Sender) *Worker {
	return &Worker{
		source:  source,
		senders: senders,
		wait:    5 * time.Second,
		backoff: time.Second,
	}
}

// Run consumes until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	logger.Log.Info("Mail worker started")
	for {
		if ctx.Err() != nil {
			logger.Log.Info("Mail worker stopped")
			return nil
		}

		msg, err := w.source.Dequeue(ctx, w.wait)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Log.Error("Failed to read outbound queue", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(w.backoff):
			}
			continue
		}
		if msg == nil {
			continue
		}

		w.deliver(ctx, *msg)
	}
}

func (w *Worker) deliver(ctx context.Context, msg domain.Message) {
	sender, ok := w.senders[msg.Channel]
	if !ok {
		logger.Log.Warn("No sender for channel, dropping message", "channel", msg.Channel, "message_id", msg.ID)
		return
	}
	if err := sender.Send(ctx, msg); err != nil {
		logger.Log.Error("Delivery failed", "channel", msg.Channel, "message_id", msg.ID, "tag", msg.Tag, "error", err)
		return
	}
	logger.Log.Debug("Message delivered", "channel", msg.Channel, "message_id", msg.ID)
}
