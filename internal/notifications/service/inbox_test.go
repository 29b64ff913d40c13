package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	notificationserrors "roomly/internal/notifications/errors"
	"roomly/pkg/kafka"
	"roomly/pkg/logger"
	"roomly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byEvent map[string]*model.Notification
	err     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byEvent: map[string]*model.Notification{}}
}

func (r *fakeRepo) Insert(_ context.Context, n *model.Notification) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.byEvent[n.EventID]; ok {
		return notificationserrors.ErrDuplicateEvent
	}
	r.byEvent[n.EventID] = n
	return nil
}

func (r *fakeRepo) FindByRecipient(_ context.Context, recipientID string, _ int) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range r.byEvent {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func eventMessage(t *testing.T, event model.BookingEvent) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventID(event.EventID).
		WithEventType(string(event.Type)).
		Build()
	require.NoError(t, err)
	return msg
}

func approvedEvent() model.BookingEvent {
	return model.BookingEvent{
		EventID:     "evt-1",
		Type:        model.EventBookingApproved,
		BookingID:   "booking-1",
		RecipientID: "seeker-1",
		Payload: map[string]string{
			model.PayloadRoom:     "B-204",
			model.PayloadProperty: "Maple Co-living",
		},
		OccurredAt: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestHandle_StoresOncePerEvent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewInboxService(repo, logger.Discard())
	msg := eventMessage(t, approvedEvent())

	require.NoError(t, svc.Handle(context.Background(), msg))
	require.NoError(t, svc.Handle(context.Background(), msg), "redelivery is acknowledged")

	stored, err := repo.FindByRecipient(context.Background(), "seeker-1", 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Booking approved", stored[0].Title)
	assert.Equal(t, "Your booking for room B-204 at Maple Co-living was approved.", stored[0].Message)
}

func TestHandle_PermanentFailures(t *testing.T) {
	svc := NewInboxService(newFakeRepo(), logger.Discard())

	bad := kafka.Message{Value: []byte("{not json")}
	err := svc.Handle(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, kafka.IsPermanent(err))

	unknown := approvedEvent()
	unknown.Type = "booking.teleported"
	err = svc.Handle(context.Background(), eventMessage(t, unknown))
	require.Error(t, err)
	assert.True(t, kafka.IsPermanent(err))
	assert.ErrorIs(t, err, notificationserrors.ErrUnknownEventType)
}

func TestHandle_StorageErrorIsRetried(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("connection refused")
	svc := NewInboxService(repo, logger.Discard())

	err := svc.Handle(context.Background(), eventMessage(t, approvedEvent()))
	require.Error(t, err)
	assert.False(t, kafka.IsPermanent(err))
}

func TestHandle_FallsBackToHeaderEventID(t *testing.T) {
	repo := newFakeRepo()
	svc := NewInboxService(repo, logger.Discard())

	event := approvedEvent()
	event.EventID = ""
	value, err := json.Marshal(event)
	require.NoError(t, err)
	msg := kafka.Message{Value: value, Headers: map[string]string{kafka.HeaderEventID: "hdr-7"}}

	require.NoError(t, svc.Handle(context.Background(), msg))
	assert.Contains(t, repo.byEvent, "hdr-7")
}

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]string
		want    string
	}{
		{"room and property", map[string]string{model.PayloadRoom: "C-3", model.PayloadProperty: "Cedar House"}, "The booking for room C-3 at Cedar House was cancelled."},
		{"property only", map[string]string{model.PayloadProperty: "Cedar House"}, "The booking for Cedar House was cancelled."},
		{"room only", map[string]string{model.PayloadRoom: "C-3"}, "The booking for room C-3 was cancelled."},
		{"nothing", nil, "The booking for your room was cancelled."},
		{"with reason", map[string]string{model.PayloadRoom: "C-3", model.PayloadReason: "plans changed"}, "The booking for room C-3 was cancelled. Reason: plans changed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Render(model.BookingEvent{
				EventID:     "evt",
				Type:        model.EventBookingCancelled,
				BookingID:   "booking-1",
				RecipientID: "owner-1",
				Payload:     tt.payload,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.Message)
		})
	}

	_, err := Render(model.BookingEvent{Type: model.EventBookingCancelled, EventID: "evt"})
	assert.Error(t, err)
}
