package notify

import (
	"context"
	"encoding/json"
	"time"

	"leaveflow/internal/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecipientKind routes a notification to a person or a role inbox.
type RecipientKind string

const (
	RecipientEmployee RecipientKind = "employee"
	RecipientManager  RecipientKind = "manager"
	RecipientHR       RecipientKind = "hr"
)

type Recipient struct {
	Kind RecipientKind
	ID   uuid.UUID // zero for role-wide recipients (hr)
}

// Dispatcher is fire-and-forget: a failed dispatch is logged and
// swallowed so it can never block or fail a state transition.
//
//go:generate mockgen -source=dispatcher.go -destination=mock/dispatcher_mock.go -package=mock
type Dispatcher interface {
	Notify(ctx context.Context, recipient Recipient, eventType string, event events.LeaveNotificationEvent)
}

// outboxDispatcher persists notifications to the outbox table; the
// worker binary ships them to Kafka asynchronously.
type outboxDispatcher struct {
	outbox Repository
	logger *zap.Logger
}

func NewOutboxDispatcher(outbox Repository, logger ...*zap.Logger) Dispatcher {
	l := zap.L().Named("notify.dispatcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notify.dispatcher")
	}
	return &outboxDispatcher{outbox: outbox, logger: l}
}

func (d *outboxDispatcher) Notify(ctx context.Context, recipient Recipient, eventType string, event events.LeaveNotificationEvent) {
	event.EventType = eventType
	event.RecipientKind = string(recipient.Kind)
	if recipient.ID != uuid.Nil {
		event.RecipientID = recipient.ID.String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("encode notification failed",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	row := OutboxEvent{
		ID:            uuid.New().String(),
		RecipientKind: string(recipient.Kind),
		RecipientID:   event.RecipientID,
		EventType:     eventType,
		Topic:         events.LeaveNotificationTopic,
		Payload:       payload,
		Status:        OutboxStatusPending,
	}
	if err := d.outbox.Create(ctx, row); err != nil {
		d.logger.Error("enqueue notification failed",
			zap.String("event_type", eventType),
			zap.String("request_id", event.RequestID),
			zap.Error(err),
		)
		return
	}

	d.logger.Debug("notification enqueued",
		zap.String("event_type", eventType),
		zap.String("recipient_kind", string(recipient.Kind)),
		zap.String("request_id", event.RequestID),
	)
}

// NopDispatcher drops everything. Used in tests and tools.
type NopDispatcher struct{}

func (NopDispatcher) Notify(context.Context, Recipient, string, events.LeaveNotificationEvent) {}
