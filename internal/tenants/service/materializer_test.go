package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"roomly/internal/testutil/memstore"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkedInBooking(store *memstore.Store, snapshot model.UserSnapshot) model.Booking {
	checkIn := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	id := store.AddBooking(model.Booking{
		UserID:            "user-42",
		OwnerID:           ownerID,
		PropertyID:        "property-9",
		RoomID:            "64b000000000000000000001",
		Status:            model.BookingCheckedIn,
		DurationMonths:    12,
		ActualCheckInDate: &checkIn,
		Payment:           model.Payment{TotalAmount: 90000, SecurityDeposit: 15000, Status: "captured"},
		UserSnapshot:      snapshot,
		OwnerSnapshot:     model.OwnerSnapshot{Name: " Vikram  Shah "},
		PropertySnapshot:  model.PropertySnapshot{Name: "Cedar House", Address: "4 Lake View"},
		RoomSnapshot:      model.RoomSnapshot{RoomNumber: "C-3", MonthlyRent: 6500},
	})
	return store.Booking(id)
}

func TestMaterialize_BuildsFromSnapshots(t *testing.T) {
	store := memstore.New()
	m := NewMaterializer(store.Tenants(), store.Users(), logger.Discard())
	booking := checkedInBooking(store, model.UserSnapshot{
		Name:  "Meera Iyer",
		Email: "MEERA@example.com",
		Phone: "098765 43210",
	})

	tenant, err := m.Materialize(context.Background(), &booking)
	require.NoError(t, err)

	assert.NotEmpty(t, tenant.ID)
	assert.Equal(t, booking.ID, tenant.BookingID)
	assert.Equal(t, model.TenantActive, tenant.Status)
	assert.Equal(t, "meera@example.com", tenant.Email)
	assert.Equal(t, "+919876543210", tenant.Phone)
	assert.Equal(t, "Vikram Shah", tenant.OwnerName)
	assert.Equal(t, 6500.0, tenant.MonthlyRent, "falls back to the room snapshot rent")
	assert.Equal(t, 15000.0, tenant.SecurityDeposit)
	assert.Equal(t, *booking.ActualCheckInDate, tenant.CheckInDate)
	assert.Equal(t, time.Date(2027, 3, 15, 10, 0, 0, 0, time.UTC), tenant.LeaseEndDate)
}

func TestMaterialize_FillsContactFromDirectory(t *testing.T) {
	store := memstore.New()
	store.AddUser(model.User{ID: "user-42", Name: "Meera Iyer", Email: "meera@example.com", Phone: "+1 650-253-0000"})
	m := NewMaterializer(store.Tenants(), store.Users(), logger.Discard())
	booking := checkedInBooking(store, model.UserSnapshot{Name: "M. Iyer"})

	tenant, err := m.Materialize(context.Background(), &booking)
	require.NoError(t, err)

	assert.Equal(t, "M. Iyer", tenant.Name, "snapshot values win over the directory")
	assert.Equal(t, "meera@example.com", tenant.Email)
	assert.Equal(t, "+16502530000", tenant.Phone)
}

func TestMaterialize_DirectoryFailureIsTolerated(t *testing.T) {
	store := memstore.New()
	store.FailOn("users.FindByID", errors.New("connection reset"))
	m := NewMaterializer(store.Tenants(), store.Users(), logger.Discard())
	booking := checkedInBooking(store, model.UserSnapshot{Name: "Meera Iyer"})

	tenant, err := m.Materialize(context.Background(), &booking)
	require.NoError(t, err)
	assert.Empty(t, tenant.Email)
	assert.Equal(t, 1, store.TenantCount())
}

func TestMaterialize_Duplicate(t *testing.T) {
	store := memstore.New()
	m := NewMaterializer(store.Tenants(), store.Users(), logger.Discard())
	booking := checkedInBooking(store, model.UserSnapshot{Name: "Meera Iyer", Email: "meera@example.com"})

	_, err := m.Materialize(context.Background(), &booking)
	require.NoError(t, err)

	_, err = m.Materialize(context.Background(), &booking)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateTenant))
	assert.Equal(t, 1, store.TenantCount())
}

func TestEndResidency(t *testing.T) {
	store := memstore.New()
	m := NewMaterializer(store.Tenants(), store.Users(), logger.Discard())
	booking := checkedInBooking(store, model.UserSnapshot{Name: "Meera Iyer", Email: "meera@example.com"})

	tenant, err := m.EndResidency(context.Background(), booking.ID, "cancelled", time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, tenant, "no tenant yet")

	_, err = m.Materialize(context.Background(), &booking)
	require.NoError(t, err)

	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tenant, err = m.EndResidency(context.Background(), booking.ID, "cancelled by owner", at)
	require.NoError(t, err)
	require.NotNil(t, tenant)
	assert.Equal(t, model.TenantTerminated, tenant.Status)
	assert.Equal(t, at, *tenant.ActualCheckOutDate)

	tenant, err = m.EndResidency(context.Background(), booking.ID, "again", at)
	require.NoError(t, err)
	assert.Nil(t, tenant, "already ended")
}
