package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roomly/internal/bookings/validator"
	"roomly/internal/occupancy"
	tenantservice "roomly/internal/tenants/service"
	"roomly/internal/testutil/memstore"
	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/metrics"
	"roomly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID  = "owner-1"
	seekerID = "seeker-1"
)

type fixture struct {
	store  *memstore.Store
	outbox *memstore.Outbox
	svc    BookingService
	roomID string
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()

	store := memstore.New()
	outbox := &memstore.Outbox{}
	cfg := &config.Config{Log: logger.Discard(), NotifyTimeout: time.Second}

	reconciler := occupancy.NewReconciler(store.Rooms(), store.Bookings(), store, cfg.Log)
	materializer := tenantservice.NewMaterializer(store.Tenants(), store.Users(), cfg.Log)
	svc := NewBookingService(
		store.Bookings(),
		store.Rooms(),
		reconciler,
		materializer,
		store,
		outbox,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)

	isAvailable, status := occupancy.Evaluate(0, capacity)
	roomID := store.AddRoom(model.Room{
		PropertyID:  "property-1",
		RoomNumber:  "B-204",
		Occupancy:   capacity,
		IsAvailable: isAvailable,
		RoomStatus:  status,
	})

	return &fixture{store: store, outbox: outbox, svc: svc, roomID: roomID}
}

func (f *fixture) addBooking(status model.BookingStatus) string {
	return f.store.AddBooking(model.Booking{
		UserID:         seekerID,
		OwnerID:        ownerID,
		PropertyID:     "property-1",
		RoomID:         f.roomID,
		Status:         status,
		IsDeleted:      status == model.BookingCancelled,
		CheckInDate:    time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		DurationMonths: 6,
		Payment: model.Payment{
			TotalAmount:     42000,
			SecurityDeposit: 12000,
			MonthlyRent:     5000,
			Status:          "completed",
		},
		UserSnapshot:     model.UserSnapshot{Name: "Asha Rao", Email: "asha@example.com", Phone: "+91 98765 43210"},
		OwnerSnapshot:    model.OwnerSnapshot{Name: "Vikram Shah"},
		PropertySnapshot: model.PropertySnapshot{Name: "Maple Co-living", Address: "12 Residency Rd"},
		RoomSnapshot:     model.RoomSnapshot{RoomNumber: "B-204", Occupancy: 2, MonthlyRent: 5000},
	})
}

// assertOccupancyInvariant checks the stored flag against a fresh count.
func (f *fixture) assertOccupancyInvariant(t *testing.T) {
	t.Helper()
	room := f.store.Room(f.roomID)
	available, _ := occupancy.Evaluate(f.store.ActiveCount(f.roomID), room.Occupancy)
	assert.Equal(t, available, room.IsAvailable, "room availability drifted from active count")
}

func TestApprove_LastSlotMarksRoomFull(t *testing.T) {
	f := newFixture(t, 1)
	bookingID := f.addBooking(model.BookingPendingApproval)

	booking, err := f.svc.Approve(context.Background(), bookingID, ownerID)
	require.NoError(t, err)

	assert.Equal(t, model.BookingApproved, booking.Status)
	assert.Equal(t, ownerID, booking.ApprovedBy)
	assert.NotNil(t, booking.ApprovedAt)

	room := f.store.Room(f.roomID)
	assert.False(t, room.IsAvailable)
	assert.Equal(t, model.RoomFull, room.RoomStatus)
	f.assertOccupancyInvariant(t)

	sent := f.outbox.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, model.EventBookingApproved, sent[0].Type)
	assert.Equal(t, seekerID, sent[0].RecipientID)
}

func TestApprove_LastSlotRecordsFullNotDrift(t *testing.T) {
	f := newFixture(t, 1)
	bookingID := f.addBooking(model.BookingPendingApproval)

	full := metrics.ReconciliationCount(occupancy.OutcomeFull)
	drifted := metrics.ReconciliationCount(occupancy.OutcomeDriftRepaired)

	_, err := f.svc.Approve(context.Background(), bookingID, ownerID)
	require.NoError(t, err)

	assert.Equal(t, full+1, metrics.ReconciliationCount(occupancy.OutcomeFull))
	assert.Equal(t, drifted, metrics.ReconciliationCount(occupancy.OutcomeDriftRepaired))
}

func TestApprove_MissingRoomIsNotFound(t *testing.T) {
	f := newFixture(t, 1)
	bookingID := f.addBooking(model.BookingPendingApproval)
	f.store.RemoveRoom(f.roomID)

	_, err := f.svc.Approve(context.Background(), bookingID, ownerID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "unexpected error: %v", err)
	assert.Equal(t, model.BookingPendingApproval, f.store.Booking(bookingID).Status)
}

func TestCancel_BySeekerFreesRoom(t *testing.T) {
	f := newFixture(t, 1)
	bookingID := f.addBooking(model.BookingPendingApproval)

	_, err := f.svc.Approve(context.Background(), bookingID, ownerID)
	require.NoError(t, err)

	booking, err := f.svc.Cancel(context.Background(), bookingID, seekerID, "  plans changed ")
	require.NoError(t, err)

	assert.Equal(t, model.BookingCancelled, booking.Status)
	assert.True(t, booking.IsDeleted)
	assert.NotNil(t, booking.DeletedAt)
	assert.Equal(t, model.CancelledByUser, booking.CancelledBy)
	assert.Equal(t, "plans changed", booking.CancellationReason)

	room := f.store.Room(f.roomID)
	assert.True(t, room.IsAvailable)
	assert.Equal(t, model.RoomAvailable, room.RoomStatus)
	f.assertOccupancyInvariant(t)

	sent := f.outbox.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, model.EventBookingCancelled, sent[1].Type)
	assert.Equal(t, ownerID, sent[1].RecipientID, "the other party is told about a cancellation")
}

func TestCancel_ByOwnerNotifiesSeeker(t *testing.T) {
	f := newFixture(t, 2)
	bookingID := f.addBooking(model.BookingApproved)

	booking, err := f.svc.Cancel(context.Background(), bookingID, ownerID, "")
	require.NoError(t, err)
	assert.Equal(t, model.CancelledByOwner, booking.CancelledBy)

	sent := f.outbox.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, seekerID, sent[0].RecipientID)
}

func TestFinalizeCheckIn_CreatesExactlyOneTenant(t *testing.T) {
	f := newFixture(t, 2)
	a := f.addBooking(model.BookingApproved)
	f.addBooking(model.BookingApproved)
	_, err := occupancy.NewReconciler(f.store.Rooms(), f.store.Bookings(), f.store, logger.Discard()).
		Repair(context.Background(), f.roomID)
	require.NoError(t, err)
	before := f.store.Room(f.roomID)
	require.False(t, before.IsAvailable)

	result, err := f.svc.FinalizeCheckIn(context.Background(), a, ownerID)
	require.NoError(t, err)

	assert.Equal(t, model.BookingCheckedIn, result.Booking.Status)
	require.NotNil(t, result.Booking.ActualCheckInDate)
	require.NotNil(t, result.Tenant)
	assert.Equal(t, a, result.Tenant.BookingID)
	assert.Equal(t, model.TenantActive, result.Tenant.Status)
	assert.Equal(t, "+919876543210", result.Tenant.Phone)
	assert.Equal(t, "Maple Co-living", result.Tenant.PropertyName)
	assert.Equal(t, 5000.0, result.Tenant.MonthlyRent)
	assert.Equal(t, result.Booking.ActualCheckInDate.AddDate(0, 6, 0), result.Tenant.LeaseEndDate)

	after := f.store.Room(f.roomID)
	assert.False(t, after.IsAvailable)
	assert.Equal(t, model.RoomFull, after.RoomStatus)
	f.assertOccupancyInvariant(t)

	_, err = f.svc.FinalizeCheckIn(context.Background(), a, ownerID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyCheckedIn))
	assert.Equal(t, 1, f.store.TenantCount())
}

func TestApprove_ConcurrentOnOneSlotRoom(t *testing.T) {
	f := newFixture(t, 1)
	a := f.addBooking(model.BookingPendingApproval)
	b := f.addBooking(model.BookingPendingApproval)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{a, b} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.svc.Approve(context.Background(), id, ownerID)
		}(i, id)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t,
			apperrors.HasCode(err, apperrors.CodeCapacityExceeded) || apperrors.HasCode(err, apperrors.CodeInvalidTransition),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1), f.store.ActiveCount(f.roomID))
	f.assertOccupancyInvariant(t)
}

func TestApprove_RoomAtCapacity(t *testing.T) {
	f := newFixture(t, 1)
	f.addBooking(model.BookingCheckedIn)
	pending := f.addBooking(model.BookingPendingApproval)

	_, err := f.svc.Approve(context.Background(), pending, ownerID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeCapacityExceeded))
	assert.Equal(t, model.BookingPendingApproval, f.store.Booking(pending).Status)
}

func TestTransitionClosure(t *testing.T) {
	type action func(svc BookingService, id string) error

	approve := func(svc BookingService, id string) error {
		_, err := svc.Approve(context.Background(), id, ownerID)
		return err
	}
	reject := func(svc BookingService, id string) error {
		_, err := svc.Reject(context.Background(), id, ownerID, "room under repair")
		return err
	}
	checkIn := func(svc BookingService, id string) error {
		_, err := svc.FinalizeCheckIn(context.Background(), id, ownerID)
		return err
	}
	cancel := func(svc BookingService, id string) error {
		_, err := svc.Cancel(context.Background(), id, seekerID, "")
		return err
	}

	tests := []struct {
		name     string
		from     model.BookingStatus
		action   action
		wantCode string
	}{
		{"approve pending", model.BookingPendingApproval, approve, ""},
		{"reject pending", model.BookingPendingApproval, reject, ""},
		{"cancel pending", model.BookingPendingApproval, cancel, ""},
		{"check in pending skips approval", model.BookingPendingApproval, checkIn, apperrors.CodeInvalidTransition},
		{"approve payment completed", model.BookingPaymentCompleted, approve, apperrors.CodeInvalidTransition},
		{"check in payment completed", model.BookingPaymentCompleted, checkIn, ""},
		{"check in confirmed", model.BookingConfirmed, checkIn, ""},
		{"check in approved", model.BookingApproved, checkIn, ""},
		{"approve approved", model.BookingApproved, approve, apperrors.CodeInvalidTransition},
		{"reject approved", model.BookingApproved, reject, apperrors.CodeInvalidTransition},
		{"cancel approved", model.BookingApproved, cancel, ""},
		{"check in checked in", model.BookingCheckedIn, checkIn, apperrors.CodeAlreadyCheckedIn},
		{"approve checked in", model.BookingCheckedIn, approve, apperrors.CodeInvalidTransition},
		{"cancel checked in", model.BookingCheckedIn, cancel, ""},
		{"approve rejected", model.BookingRejected, approve, apperrors.CodeInvalidTransition},
		{"cancel rejected", model.BookingRejected, cancel, apperrors.CodeInvalidTransition},
		{"check in cancelled", model.BookingCancelled, checkIn, apperrors.CodeInvalidTransition},
		{"cancel completed", model.BookingCompleted, cancel, apperrors.CodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 3)
			id := f.addBooking(tt.from)
			before := f.store.Booking(id)

			err := tt.action(f.svc, id)
			if tt.wantCode == "" {
				require.NoError(t, err)
				f.assertOccupancyInvariant(t)
				return
			}

			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
			assert.Equal(t, before, f.store.Booking(id), "a refused transition must not touch the booking")
		})
	}
}

func TestApprove_Forbidden(t *testing.T) {
	f := newFixture(t, 1)
	id := f.addBooking(model.BookingPendingApproval)

	_, err := f.svc.Approve(context.Background(), id, seekerID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.svc.Cancel(context.Background(), id, "stranger", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	assert.Equal(t, model.BookingPendingApproval, f.store.Booking(id).Status)
}

func TestApprove_UnknownBooking(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.Approve(context.Background(), "64b000000000000000000009", ownerID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.svc.Approve(context.Background(), "nope", ownerID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestFailedStepRollsBackEverything(t *testing.T) {
	t.Run("room write fails during approval", func(t *testing.T) {
		f := newFixture(t, 1)
		id := f.addBooking(model.BookingPendingApproval)
		roomBefore := f.store.Room(f.roomID)

		f.store.FailOn("rooms.UpdateAvailability", errors.New("primary stepped down"))
		_, err := f.svc.Approve(context.Background(), id, ownerID)
		require.Error(t, err)

		assert.Equal(t, model.BookingPendingApproval, f.store.Booking(id).Status)
		assert.Equal(t, roomBefore, f.store.Room(f.roomID))
		assert.Empty(t, f.outbox.Sent(), "nothing is announced for a rolled back transition")
	})

	t.Run("tenant insert fails during check-in", func(t *testing.T) {
		f := newFixture(t, 2)
		id := f.addBooking(model.BookingApproved)

		f.store.FailOn("tenants.Create", errors.New("write conflict"))
		_, err := f.svc.FinalizeCheckIn(context.Background(), id, ownerID)
		require.Error(t, err)

		assert.Equal(t, model.BookingApproved, f.store.Booking(id).Status)
		assert.Equal(t, 0, f.store.TenantCount(), "no tenant without a checked-in booking")
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := newFixture(t, 1)
		id := f.addBooking(model.BookingPendingApproval)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.svc.Approve(ctx, id, ownerID)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, model.BookingPendingApproval, f.store.Booking(id).Status)
	})
}

func TestCancel_CheckedInTerminatesTenant(t *testing.T) {
	f := newFixture(t, 1)
	id := f.addBooking(model.BookingApproved)

	result, err := f.svc.FinalizeCheckIn(context.Background(), id, ownerID)
	require.NoError(t, err)
	require.False(t, f.store.Room(f.roomID).IsAvailable)

	_, err = f.svc.Cancel(context.Background(), id, ownerID, "lease breach")
	require.NoError(t, err)

	tenant, ok := f.store.TenantByBooking(id)
	require.True(t, ok)
	assert.Equal(t, result.Tenant.ID, tenant.ID)
	assert.Equal(t, model.TenantTerminated, tenant.Status)
	assert.Equal(t, "lease breach", tenant.TerminationReason)
	assert.NotNil(t, tenant.ActualCheckOutDate)
	assert.True(t, f.store.Room(f.roomID).IsAvailable)
	f.assertOccupancyInvariant(t)
}

func TestNotificationFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, 1)
	f.outbox.Err = errors.New("broker unavailable")
	id := f.addBooking(model.BookingPendingApproval)

	booking, err := f.svc.Approve(context.Background(), id, ownerID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingApproved, booking.Status)
	assert.Len(t, f.outbox.Sent(), 1)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, 2)
	id := f.addBooking(model.BookingPendingApproval)

	_, err := f.svc.UpdateStatus(context.Background(), id, ownerID, &model.StatusUpdateRequest{Status: "checked_in"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	booking, err := f.svc.UpdateStatus(context.Background(), id, ownerID, &model.StatusUpdateRequest{
		Status:          "rejected",
		RejectionReason: "room already promised",
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingRejected, booking.Status)
	assert.Equal(t, model.CancelledByOwner, booking.CancelledBy)
	assert.Equal(t, "room already promised", booking.CancellationReason)
	assert.NotNil(t, booking.RejectedAt)
	assert.False(t, booking.IsDeleted)
}

func validBooking(roomID string) *model.Booking {
	return &model.Booking{
		UserID:         seekerID,
		OwnerID:        ownerID,
		PropertyID:     "property-1",
		RoomID:         roomID,
		Status:         model.BookingApproved,
		CheckInDate:    time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		DurationMonths: 3,
		Payment:        model.Payment{TotalAmount: 20000, MonthlyRent: 5000, Status: "captured"},
		UserSnapshot:   model.UserSnapshot{Name: "  Asha   Rao ", Email: "Asha@Example.com"},
		PropertySnapshot: model.PropertySnapshot{
			Name: "Maple Co-living",
		},
		RoomSnapshot: model.RoomSnapshot{RoomNumber: "B-204", Occupancy: 2},
	}
}

func TestCreate(t *testing.T) {
	t.Run("forces pending approval", func(t *testing.T) {
		f := newFixture(t, 2)
		booking := validBooking(f.roomID)
		booking.IsDeleted = true

		require.NoError(t, f.svc.Create(context.Background(), booking))
		assert.NotEmpty(t, booking.ID)
		assert.Equal(t, model.BookingPendingApproval, booking.Status)
		assert.False(t, booking.IsDeleted)
		assert.Equal(t, "Asha Rao", booking.UserSnapshot.Name)
		assert.Equal(t, "asha@example.com", booking.UserSnapshot.Email)
		assert.Equal(t, int64(0), f.store.ActiveCount(f.roomID))
	})

	t.Run("unknown room", func(t *testing.T) {
		f := newFixture(t, 2)
		err := f.svc.Create(context.Background(), validBooking("64b000000000000000000009"))
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	})

	t.Run("invalid payload", func(t *testing.T) {
		f := newFixture(t, 2)
		booking := validBooking(f.roomID)
		booking.Payment.Status = "pending"
		booking.DurationMonths = 0

		err := f.svc.Create(context.Background(), booking)
		require.Error(t, err)
		appErr := apperrors.AsAppError(err)
		assert.Equal(t, apperrors.CodeValidation, appErr.Code)
		assert.Contains(t, appErr.Details, "DurationMonths")
		assert.Contains(t, appErr.Details, "Status")
	})

	t.Run("seeker owns property", func(t *testing.T) {
		f := newFixture(t, 2)
		booking := validBooking(f.roomID)
		booking.OwnerID = booking.UserID

		err := f.svc.Create(context.Background(), booking)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})
}

func TestGetByID(t *testing.T) {
	f := newFixture(t, 1)
	id := f.addBooking(model.BookingPendingApproval)

	for _, actor := range []string{seekerID, ownerID} {
		booking, err := f.svc.GetByID(context.Background(), id, actor)
		require.NoError(t, err)
		assert.Equal(t, id, booking.ID)
	}

	_, err := f.svc.GetByID(context.Background(), id, "stranger")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
