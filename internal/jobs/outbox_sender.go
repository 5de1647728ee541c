// Package jobs holds the background tasks: outbox event delivery.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/modcore/shop-backend/internal/config"
	"github.com/modcore/shop-backend/internal/models"
	"github.com/modcore/shop-backend/internal/store"
)

// Sender is the transport the outbox drains into.
type Sender interface {
	Send(topic, key, value string) error
}

// OutboxSender drains pending outbox rows to Kafka on an interval. Rows
// that keep failing past the retry cap are marked FAILED and left for
// inspection.
type OutboxSender struct {
	outbox    store.OutboxStore
	sender    Sender
	interval  time.Duration
	batchSize int
	maxRetry  int
}

func NewOutboxSender(outbox store.OutboxStore, sender Sender, cfg *config.Config) *OutboxSender {
	return &OutboxSender{
		outbox:    outbox,
		sender:    sender,
		interval:  cfg.OutboxInterval,
		batchSize: cfg.OutboxBatchSize,
		maxRetry:  cfg.OutboxMaxRetry,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	slog.Info("outbox sender started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("outbox sender stopped")
			return
		case <-ticker.C:
			s.processPending(ctx)
		}
	}
}

func (s *OutboxSender) processPending(ctx context.Context) {
	msgs, err := s.outbox.FetchPending(ctx, s.batchSize)
	if err != nil {
		slog.Error("outbox fetch failed", "error", err)
		return
	}

	for i := range msgs {
		s.deliver(ctx, &msgs[i])
	}
}

func (s *OutboxSender) deliver(ctx context.Context, msg *models.OutboxMessage) {
	if err := s.sender.Send(msg.Topic, msg.MessageKey, msg.Payload); err != nil {
		slog.Error("outbox delivery failed", "id", msg.ID, "topic", msg.Topic, "error", err)

		if err := s.outbox.IncrementRetry(ctx, msg.ID); err != nil {
			slog.Error("outbox retry increment failed", "id", msg.ID, "error", err)
		}
		if msg.RetryCount+1 >= s.maxRetry {
			if err := s.outbox.MarkFailed(ctx, msg.ID); err != nil {
				slog.Error("outbox mark-failed failed", "id", msg.ID, "error", err)
			} else {
				slog.Warn("outbox message exceeded retry cap", "id", msg.ID, "topic", msg.Topic)
			}
		}
		return
	}

	if err := s.outbox.MarkSent(ctx, msg.ID); err != nil {
		slog.Error("outbox mark-sent failed", "id", msg.ID, "error", err)
	}
}
