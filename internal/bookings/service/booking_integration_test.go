//go:build integration

package service

import (
	"context"
	"sync"
	"testing"

	"roomly/internal/bookings/repository"
	"roomly/internal/bookings/validator"
	"roomly/internal/occupancy"
	roomrepo "roomly/internal/rooms/repository"
	tenantrepo "roomly/internal/tenants/repository"
	tenantservice "roomly/internal/tenants/service"
	"roomly/internal/testutil/memstore"
	"roomly/internal/testutil/mongotest"
	mongotx "roomly/pkg/db/mongo"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func newMongoService(t *testing.T) (*mongotest.Helper, BookingService, *occupancy.Reconciler) {
	t.Helper()
	h := mongotest.New(t)
	cfg := h.Config

	txManager := mongotx.NewTransactionManager(h.Client, cfg.TransactionTimeout)
	bookings := repository.NewMongoBookingRepository(cfg)
	rooms := roomrepo.NewMongoRoomRepository(cfg)
	reconciler := occupancy.NewReconciler(rooms, bookings, txManager, cfg.Log)
	materializer := tenantservice.NewMaterializer(
		tenantrepo.NewMongoTenantRepository(cfg),
		tenantrepo.NewMongoUserDirectory(cfg),
		cfg.Log,
	)

	svc := NewBookingService(bookings, rooms, reconciler, materializer, txManager,
		&memstore.Outbox{}, validator.NewBookingValidator(cfg.Log), cfg)
	return h, svc, reconciler
}

func TestMongo_LifecycleKeepsRoomConsistent(t *testing.T) {
	h, svc, reconciler := newMongoService(t)
	ctx := context.Background()
	roomID := h.InsertRoom(t, 1)

	booking := validBooking(roomID)
	require.NoError(t, svc.Create(ctx, booking))

	_, err := svc.Approve(ctx, booking.ID, ownerID)
	require.NoError(t, err)

	result, err := svc.FinalizeCheckIn(ctx, booking.ID, ownerID)
	require.NoError(t, err)
	require.NotNil(t, result.Tenant)

	_, err = svc.FinalizeCheckIn(ctx, booking.ID, ownerID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyCheckedIn))
	assert.Equal(t, int64(1), h.CountDocuments(t, tenantrepo.CollectionName, bson.M{"booking_id": booking.ID}))

	state, err := reconciler.Inspect(ctx, roomID)
	require.NoError(t, err)
	assert.False(t, state.Drift)
	assert.False(t, state.IsAvailable)
	assert.Equal(t, model.RoomFull, state.RoomStatus)

	_, err = svc.Cancel(ctx, booking.ID, ownerID, "lease breach")
	require.NoError(t, err)

	state, err = reconciler.Inspect(ctx, roomID)
	require.NoError(t, err)
	assert.False(t, state.Drift)
	assert.True(t, state.IsAvailable)
	assert.Equal(t, int64(0), state.ActiveCount)
}

func TestMongo_ConcurrentApprovalsOnLastSlot(t *testing.T) {
	h, svc, reconciler := newMongoService(t)
	ctx := context.Background()
	roomID := h.InsertRoom(t, 1)

	ids := make([]string, 4)
	for i := range ids {
		b := validBooking(roomID)
		require.NoError(t, svc.Create(ctx, b))
		ids[i] = b.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.Approve(ctx, id, ownerID)
		}(i, id)
	}
	wg.Wait()

	var approved int
	for _, err := range errs {
		if err == nil {
			approved++
			continue
		}
		assert.True(t, apperrors.HasCode(err, apperrors.CodeCapacityExceeded), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, approved)

	state, err := reconciler.Inspect(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.ActiveCount)
	assert.False(t, state.Drift)
}
