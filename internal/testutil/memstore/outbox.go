package memstore

import (
	"context"
	"sync"

	"roomly/pkg/model"
)

type Sent struct {
	BookingID   string
	Type        model.EventType
	RecipientID string
	Payload     map[string]string
}

// Outbox records notifications instead of sending them. Err, when set, is
// returned from every Notify call after recording it.
type Outbox struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (o *Outbox) Notify(_ context.Context, bookingID string, eventType model.EventType, recipientID string, payload map[string]string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, Sent{BookingID: bookingID, Type: eventType, RecipientID: recipientID, Payload: payload})
	return o.Err
}

func (o *Outbox) Sent() []Sent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Sent, len(o.sent))
	copy(out, o.sent)
	return out
}
