// Package notifications tells booking parties about lifecycle changes. The
// lifecycle services only see the Dispatcher port; delivery happens after the
// transaction commits and can never undo it.
package notifications

import (
	"context"
	"time"

	"roomly/pkg/kafka"
	"roomly/pkg/logger"
	"roomly/pkg/metrics"
	"roomly/pkg/middleware"
	"roomly/pkg/model"
	"roomly/pkg/retry"

	"github.com/google/uuid"
)

type Dispatcher interface {
	Notify(ctx context.Context, bookingID string, eventType model.EventType, recipientID string, payload map[string]string) error
}

type NoopDispatcher struct{}

func (NoopDispatcher) Notify(context.Context, string, model.EventType, string, map[string]string) error {
	return nil
}

// Notice is a notification queued by a lifecycle flow until its transaction commits.
type Notice struct {
	BookingID   string
	Type        model.EventType
	RecipientID string
	Payload     map[string]string
}

// Send delivers notices after commit. Each gets its own deadline detached from
// the request context. Failures are logged and counted, never returned.
func Send(ctx context.Context, d Dispatcher, log *logger.Logger, timeout time.Duration, notices ...Notice) {
	base := context.WithoutCancel(ctx)
	for _, n := range notices {
		if n.RecipientID == "" {
			continue
		}
		notifyCtx, cancel := context.WithTimeout(base, timeout)
		err := d.Notify(notifyCtx, n.BookingID, n.Type, n.RecipientID, n.Payload)
		cancel()

		metrics.ObserveNotification(string(n.Type), metrics.Result(err))
		if err != nil {
			log.Warn("notification dispatch failed",
				"booking_id", n.BookingID,
				"event_type", n.Type,
				"recipient_id", n.RecipientID,
				"error", err,
			)
		}
	}
}

// Publisher is the part of *kafka.Producer the dispatcher uses.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaDispatcher publishes booking events keyed by booking id so events for
// one booking stay ordered on a partition.
type KafkaDispatcher struct {
	publisher Publisher
	retry     *retry.Config
	source    string
	log       *logger.Logger
}

func NewKafkaDispatcher(publisher Publisher, attempts int, source string, log *logger.Logger) *KafkaDispatcher {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = attempts
	return &KafkaDispatcher{
		publisher: publisher,
		retry:     cfg,
		source:    source,
		log:       log,
	}
}

func (d *KafkaDispatcher) Notify(ctx context.Context, bookingID string, eventType model.EventType, recipientID string, payload map[string]string) error {
	event := model.BookingEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		BookingID:   bookingID,
		RecipientID: recipientID,
		Payload:     payload,
		OccurredAt:  time.Now().UTC(),
	}

	msg, err := kafka.NewMessage().
		WithKey(bookingID).
		WithValue(event).
		WithEventID(event.EventID).
		WithEventType(string(eventType)).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSource(d.source).
		Build()
	if err != nil {
		return err
	}

	return retry.Run(ctx, d.retry, d.log, "publish "+string(eventType), func(ctx context.Context) error {
		err := d.publisher.Publish(ctx, msg)
		if err != nil && kafka.IsPermanent(err) {
			return retry.Permanent(err)
		}
		return err
	})
}
