package model

import "time"

type EventType string

const (
	EventBookingApproved  EventType = "booking.approved"
	EventBookingRejected  EventType = "booking.rejected"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingCheckedIn EventType = "booking.checked_in"
	EventTenantCheckedOut EventType = "tenant.checked_out"
	EventTenantTerminated EventType = "tenant.terminated"
)

// Payload keys shared by producers and the inbox renderer.
const (
	PayloadRoomID   = "room_id"
	PayloadTenantID = "tenant_id"
	PayloadActorID  = "actor_id"
	PayloadStatus   = "status"
	PayloadReason   = "reason"
	PayloadProperty = "property_name"
	PayloadRoom     = "room_number"
)

// BookingEvent is published after a lifecycle transaction commits. Delivery is
// best effort; RecipientID is the user who should be told about it.
type BookingEvent struct {
	EventID     string            `json:"event_id"`
	Type        EventType         `json:"type"`
	BookingID   string            `json:"booking_id"`
	RecipientID string            `json:"recipient_id"`
	Payload     map[string]string `json:"payload,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// Notification is one inbox entry written by the notifications consumer.
type Notification struct {
	ID          string            `json:"id,omitempty" bson:"_id,omitempty"`
	EventID     string            `json:"event_id" bson:"event_id"`
	RecipientID string            `json:"recipient_id" bson:"recipient_id"`
	Type        EventType         `json:"event_type" bson:"event_type"`
	BookingID   string            `json:"booking_id" bson:"booking_id"`
	Title       string            `json:"title" bson:"title"`
	Message     string            `json:"message" bson:"message"`
	Payload     map[string]string `json:"payload,omitempty" bson:"payload,omitempty"`
	Read        bool              `json:"read" bson:"read"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
}
