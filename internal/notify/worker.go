package notify

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ProcessOutbox polls the notification outbox and ships rows to Kafka.
// Failures mark the row for retry with backoff; delivery is at-least-once.
func ProcessOutbox(
	ctx context.Context,
	repo Repository,
	writer *kafkago.Writer,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	log := logger.Named("notify.worker")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("notification worker started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("notification worker stopped")
			return
		case <-ticker.C:
			if err := processPending(ctx, repo, writer, log); err != nil {
				log.Error("process notification outbox failed", zap.Error(err))
			}
		}
	}
}

func processPending(
	ctx context.Context,
	repo Repository,
	writer *kafkago.Writer,
	logger *zap.Logger,
) error {
	pending, err := repo.ListPending(ctx, 50)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		return nil
	}

	logger.Info("processing pending notifications", zap.Int("count", len(pending)))

	for _, event := range pending {
		if err := publish(ctx, writer, event); err != nil {
			logger.Error("publish notification failed",
				zap.String("outbox_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err),
			)
			_ = repo.MarkFailed(ctx, event.ID, err.Error())
			continue
		}

		if err := repo.MarkSent(ctx, event.ID); err != nil {
			logger.Error("mark notification sent failed",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		logger.Info("notification sent",
			zap.String("outbox_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("recipient_kind", event.RecipientKind),
		)
	}

	return nil
}

func publish(ctx context.Context, writer *kafkago.Writer, event OutboxEvent) error {
	key := event.RecipientID
	if key == "" {
		key = event.RecipientKind
	}
	msg := kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(key),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "recipient_kind", Value: []byte(event.RecipientKind)},
		},
	}

	return writer.WriteMessages(ctx, msg)
}
