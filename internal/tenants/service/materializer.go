package service

import (
	"context"
	"errors"
	"time"

	tenantserrors "roomly/internal/tenants/errors"
	"roomly/internal/tenants/repository"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/metrics"
	"roomly/pkg/model"
	"roomly/pkg/sanitizer"
)

// Materializer creates and ends tenant records on behalf of booking
// transitions. Its methods are meant to run inside the caller's transaction.
type Materializer struct {
	repo  repository.TenantRepository
	users repository.UserDirectory
	log   *logger.Logger
}

func NewMaterializer(repo repository.TenantRepository, users repository.UserDirectory, log *logger.Logger) *Materializer {
	return &Materializer{
		repo:  repo,
		users: users,
		log:   log,
	}
}

// Materialize inserts the tenant for a checked-in booking. A second call for
// the same booking fails with a DUPLICATE_TENANT error.
func (m *Materializer) Materialize(ctx context.Context, booking *model.Booking) (*model.Tenant, error) {
	tenant := m.build(ctx, booking)

	if err := m.repo.Create(ctx, tenant); err != nil {
		metrics.ObserveTenantMaterialized(metrics.ResultError)
		if errors.Is(err, tenantserrors.ErrDuplicateBooking) {
			return nil, apperrors.DuplicateTenant(booking.ID)
		}
		return nil, apperrors.Internal("Failed to create tenant", err)
	}

	metrics.ObserveTenantMaterialized(metrics.ResultSuccess)
	m.log.Info("tenant materialized",
		"tenant_id", tenant.ID,
		"booking_id", booking.ID,
		"room_id", booking.RoomID,
		"user_id", booking.UserID,
	)
	return tenant, nil
}

// EndResidency terminates the resident tenant of a booking, if there is one.
// It returns nil without error when the booking never produced a resident.
func (m *Materializer) EndResidency(ctx context.Context, bookingID, reason string, at time.Time) (*model.Tenant, error) {
	tenant, err := m.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, tenantserrors.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("Failed to load tenant", err)
	}
	if !tenant.Status.IsResident() {
		return nil, nil
	}

	from := tenant.Status
	transition := model.TenantTransition{To: model.TenantTerminated, At: at, Reason: reason}
	transition.Apply(tenant)

	if err := m.repo.UpdateStatus(ctx, tenant, from); err != nil {
		if errors.Is(err, tenantserrors.ErrStatusChanged) {
			return nil, apperrors.InvalidTransition("tenant", string(from), string(model.TenantTerminated))
		}
		return nil, apperrors.Internal("Failed to terminate tenant", err)
	}
	return tenant, nil
}

func (m *Materializer) build(ctx context.Context, b *model.Booking) *model.Tenant {
	checkIn := time.Now().UTC()
	if b.ActualCheckInDate != nil {
		checkIn = *b.ActualCheckInDate
	}

	monthlyRent := b.Payment.MonthlyRent
	if monthlyRent == 0 {
		monthlyRent = b.RoomSnapshot.MonthlyRent
	}

	tenant := &model.Tenant{
		BookingID:  b.ID,
		UserID:     b.UserID,
		OwnerID:    b.OwnerID,
		PropertyID: b.PropertyID,
		RoomID:     b.RoomID,
		Status:     model.TenantActive,

		Name:            b.UserSnapshot.Name,
		Email:           b.UserSnapshot.Email,
		Phone:           b.UserSnapshot.Phone,
		OwnerName:       sanitizer.NormalizeName(b.OwnerSnapshot.Name),
		PropertyName:    sanitizer.NormalizeName(b.PropertySnapshot.Name),
		PropertyAddress: sanitizer.TrimAndNormalize(b.PropertySnapshot.Address),
		RoomNumber:      sanitizer.TrimAndNormalize(b.RoomSnapshot.RoomNumber),

		MonthlyRent:     monthlyRent,
		SecurityDeposit: b.Payment.SecurityDeposit,
		TotalAmount:     b.Payment.TotalAmount,

		CheckInDate:  checkIn,
		LeaseEndDate: b.LeaseEnd(checkIn),
	}

	if tenant.Name == "" || tenant.Email == "" || tenant.Phone == "" {
		m.fillFromDirectory(ctx, tenant)
	}

	tenant.Name = sanitizer.NormalizeName(tenant.Name)
	tenant.Email = sanitizer.NormalizeEmail(tenant.Email)
	if phone := sanitizer.NormalizePhone(tenant.Phone); phone != "" {
		tenant.Phone = phone
	}
	return tenant
}

// fillFromDirectory completes missing contact details. A directory failure
// only costs contact data, so it is logged and check-in proceeds. The
// directory reads outside the caller's transaction, so the failure does not
// abort it either.
func (m *Materializer) fillFromDirectory(ctx context.Context, tenant *model.Tenant) {
	user, err := m.users.FindByID(ctx, tenant.UserID)
	if err != nil {
		m.log.Warn("user lookup for tenant contact details failed",
			"user_id", tenant.UserID,
			"booking_id", tenant.BookingID,
			"error", err,
		)
		return
	}
	if tenant.Name == "" {
		tenant.Name = user.Name
	}
	if tenant.Email == "" {
		tenant.Email = user.Email
	}
	if tenant.Phone == "" {
		tenant.Phone = user.Phone
	}
}
