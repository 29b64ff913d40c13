package service

import (
	"context"
	"errors"
	"fmt"

	notificationserrors "roomly/internal/notifications/errors"
	"roomly/internal/notifications/repository"
	"roomly/pkg/kafka"
	"roomly/pkg/logger"
	"roomly/pkg/model"
)

type template struct {
	title   string
	message string
}

var templates = map[model.EventType]template{
	model.EventBookingApproved:  {"Booking approved", "Your booking for %s was approved."},
	model.EventBookingRejected:  {"Booking rejected", "Your booking for %s was rejected."},
	model.EventBookingCancelled: {"Booking cancelled", "The booking for %s was cancelled."},
	model.EventBookingCheckedIn: {"Checked in", "Check-in for %s is complete."},
	model.EventTenantCheckedOut: {"Checked out", "Your stay in %s has ended."},
	model.EventTenantTerminated: {"Tenancy terminated", "Your tenancy in %s was terminated."},
}

// InboxService turns booking events from Kafka into inbox entries.
type InboxService struct {
	repo repository.NotificationRepository
	log  *logger.Logger
}

func NewInboxService(repo repository.NotificationRepository, log *logger.Logger) *InboxService {
	return &InboxService{repo: repo, log: log}
}

// Handle is a kafka.MessageHandler. Undecodable or unknown events are
// permanent failures and go to the dead letter topic; a redelivered event is
// acknowledged without writing a second entry.
func (s *InboxService) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("failed to decode booking event", err)
	}
	if event.EventID == "" {
		event.EventID = msg.GetEventID()
	}

	n, err := Render(event)
	if err != nil {
		return kafka.NewPermanentError("failed to render booking event", err)
	}

	if err := s.repo.Insert(ctx, n); err != nil {
		if errors.Is(err, notificationserrors.ErrDuplicateEvent) {
			s.log.Debug("duplicate booking event ignored", "event_id", event.EventID)
			return nil
		}
		return err
	}

	s.log.Info("notification stored",
		"event_id", event.EventID,
		"event_type", event.Type,
		"booking_id", event.BookingID,
		"recipient_id", event.RecipientID,
	)
	return nil
}

// Render builds the inbox entry for an event.
func Render(event model.BookingEvent) (*model.Notification, error) {
	tpl, ok := templates[event.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", notificationserrors.ErrUnknownEventType, event.Type)
	}
	if event.EventID == "" || event.RecipientID == "" || event.BookingID == "" {
		return nil, errors.New("event_id, recipient_id and booking_id are required")
	}

	message := fmt.Sprintf(tpl.message, place(event.Payload))
	if reason := event.Payload[model.PayloadReason]; reason != "" {
		message += " Reason: " + reason
	}

	return &model.Notification{
		EventID:     event.EventID,
		RecipientID: event.RecipientID,
		Type:        event.Type,
		BookingID:   event.BookingID,
		Title:       tpl.title,
		Message:     message,
		Payload:     event.Payload,
		CreatedAt:   event.OccurredAt,
	}, nil
}

func place(payload map[string]string) string {
	room, property := payload[model.PayloadRoom], payload[model.PayloadProperty]
	switch {
	case room != "" && property != "":
		return fmt.Sprintf("room %s at %s", room, property)
	case property != "":
		return property
	case room != "":
		return "room " + room
	default:
		return "your room"
	}
}
