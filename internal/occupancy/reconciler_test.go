package occupancy

import (
	"context"
	"errors"
	"testing"

	"roomly/internal/testutil/memstore"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/metrics"
	"roomly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		count      int64
		occupancy  int
		wantAvail  bool
		wantStatus model.RoomStatus
	}{
		{"empty room", 0, 2, true, model.RoomAvailable},
		{"one slot left", 1, 2, true, model.RoomAvailable},
		{"exactly full", 2, 2, false, model.RoomFull},
		{"over capacity", 3, 2, false, model.RoomFull},
		{"zero capacity is always full", 0, 0, false, model.RoomFull},
		{"negative capacity is always full", 0, -1, false, model.RoomFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avail, status := Evaluate(tt.count, tt.occupancy)
			assert.Equal(t, tt.wantAvail, avail)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func newReconciler(store *memstore.Store) *Reconciler {
	return NewReconciler(store.Rooms(), store.Bookings(), store, logger.Discard())
}

func addBooking(store *memstore.Store, roomID string, status model.BookingStatus, deleted bool) string {
	return store.AddBooking(model.Booking{RoomID: roomID, Status: status, IsDeleted: deleted})
}

func TestReconcile_RecountsFromScratch(t *testing.T) {
	store := memstore.New()
	roomID := store.AddRoom(model.Room{Occupancy: 2, IsAvailable: true, RoomStatus: model.RoomAvailable})

	addBooking(store, roomID, model.BookingApproved, false)
	addBooking(store, roomID, model.BookingCheckedIn, false)
	addBooking(store, roomID, model.BookingPendingApproval, false)
	addBooking(store, roomID, model.BookingCancelled, true)
	addBooking(store, roomID, model.BookingConfirmed, true)

	r := newReconciler(store)
	result, err := r.Reconcile(context.Background(), roomID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.ActiveCount)
	assert.False(t, result.IsAvailable)
	assert.Equal(t, model.RoomFull, result.RoomStatus)

	room := store.Room(roomID)
	assert.False(t, room.IsAvailable)
	assert.Equal(t, model.RoomFull, room.RoomStatus)
}

func TestReconcile_TransitionIsNotDrift(t *testing.T) {
	store := memstore.New()
	roomID := store.AddRoom(model.Room{Occupancy: 1, IsAvailable: true, RoomStatus: model.RoomAvailable})
	addBooking(store, roomID, model.BookingApproved, false)

	full := metrics.ReconciliationCount(OutcomeFull)
	drifted := metrics.ReconciliationCount(OutcomeDriftRepaired)

	result, err := newReconciler(store).Reconcile(context.Background(), roomID)
	require.NoError(t, err)

	assert.False(t, result.Drift)
	assert.False(t, store.Room(roomID).IsAvailable)
	assert.Equal(t, full+1, metrics.ReconciliationCount(OutcomeFull))
	assert.Equal(t, drifted, metrics.ReconciliationCount(OutcomeDriftRepaired))
}

func TestRepair_ReportsDrift(t *testing.T) {
	store := memstore.New()
	roomID := store.AddRoom(model.Room{Occupancy: 1, IsAvailable: true, RoomStatus: model.RoomAvailable})
	addBooking(store, roomID, model.BookingCheckedIn, false)

	drifted := metrics.ReconciliationCount(OutcomeDriftRepaired)

	r := newReconciler(store)
	result, err := r.Repair(context.Background(), roomID)
	require.NoError(t, err)
	assert.True(t, result.Drift)
	assert.False(t, store.Room(roomID).IsAvailable)
	assert.Equal(t, drifted+1, metrics.ReconciliationCount(OutcomeDriftRepaired))

	result, err = r.Repair(context.Background(), roomID)
	require.NoError(t, err)
	assert.False(t, result.Drift)
	assert.Equal(t, drifted+1, metrics.ReconciliationCount(OutcomeDriftRepaired))
}

func TestReconcile_Idempotent(t *testing.T) {
	store := memstore.New()
	roomID := store.AddRoom(model.Room{Occupancy: 3})
	addBooking(store, roomID, model.BookingApproved, false)

	r := newReconciler(store)
	first, err := r.Reconcile(context.Background(), roomID)
	require.NoError(t, err)
	second, err := r.Reconcile(context.Background(), roomID)
	require.NoError(t, err)

	assert.Equal(t, first.IsAvailable, second.IsAvailable)
	assert.Equal(t, first.RoomStatus, second.RoomStatus)
	assert.False(t, second.Drift)
}

func TestReconcile_KeepsMaintenanceStatus(t *testing.T) {
	store := memstore.New()
	roomID := store.AddRoom(model.Room{Occupancy: 2, RoomStatus: model.RoomMaintenance})
	r := newReconciler(store)

	// IsAvailable follows the count even while the room is in maintenance.
	result, err := r.Reconcile(context.Background(), roomID)
	require.NoError(t, err)
	assert.True(t, result.IsAvailable)
	assert.Equal(t, model.RoomMaintenance, result.RoomStatus)

	addBooking(store, roomID, model.BookingApproved, false)
	addBooking(store, roomID, model.BookingApproved, false)
	result, err = r.Reconcile(context.Background(), roomID)
	require.NoError(t, err)
	assert.False(t, result.IsAvailable)
	assert.Equal(t, model.RoomMaintenance, store.Room(roomID).RoomStatus)
}

func TestReconcile_RoomErrors(t *testing.T) {
	r := newReconciler(memstore.New())

	_, err := r.Reconcile(context.Background(), "not-an-id")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	_, err = r.Reconcile(context.Background(), "64b000000000000000000001")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestInspect_DoesNotWrite(t *testing.T) {
	store := memstore.New()
	roomID := store.AddRoom(model.Room{Occupancy: 1, IsAvailable: true, RoomStatus: model.RoomAvailable})
	addBooking(store, roomID, model.BookingApproved, false)

	result, err := newReconciler(store).Inspect(context.Background(), roomID)
	require.NoError(t, err)

	assert.True(t, result.Drift)
	assert.True(t, store.Room(roomID).IsAvailable)
}

func TestRepair_LocksRoomAndRollsBackOnFailure(t *testing.T) {
	store := memstore.New()
	roomID := store.AddRoom(model.Room{Occupancy: 1, IsAvailable: true, RoomStatus: model.RoomAvailable})
	addBooking(store, roomID, model.BookingApproved, false)

	store.FailOn("rooms.UpdateAvailability", errors.New("write failed"))
	_, err := newReconciler(store).Repair(context.Background(), roomID)
	require.Error(t, err)
	assert.Equal(t, int64(0), store.Room(roomID).Version)
	assert.True(t, store.Room(roomID).IsAvailable)

	store.FailOn("rooms.UpdateAvailability", nil)
	_, err = newReconciler(store).Repair(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), store.Room(roomID).Version)
	assert.False(t, store.Room(roomID).IsAvailable)
}

func TestReconcileAll_ReportsDrift(t *testing.T) {
	store := memstore.New()
	drifted := store.AddRoom(model.Room{Occupancy: 1, IsAvailable: true, RoomStatus: model.RoomAvailable})
	addBooking(store, drifted, model.BookingCheckedIn, false)
	store.AddRoom(model.Room{Occupancy: 2, IsAvailable: true, RoomStatus: model.RoomAvailable})
	store.AddRoom(model.Room{Occupancy: 0, IsAvailable: false, RoomStatus: model.RoomFull})

	report, err := newReconciler(store).ReconcileAll(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Rooms)
	require.Len(t, report.Drifted, 1)
	assert.Equal(t, drifted, report.Drifted[0].RoomID)
	assert.Empty(t, report.Failed)

	for _, id := range []string{drifted} {
		avail, _ := Evaluate(store.ActiveCount(id), store.Room(id).Occupancy)
		assert.Equal(t, avail, store.Room(id).IsAvailable)
	}
}
