package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "roomly/internal/bookings/errors"
	"roomly/internal/notifications"
	roomserrors "roomly/internal/rooms/errors"
	tenantserrors "roomly/internal/tenants/errors"
	"roomly/internal/tenants/repository"
	"roomly/internal/tenants/validator"
	"roomly/pkg/config"
	mongotx "roomly/pkg/db/mongo"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/metrics"
	"roomly/pkg/model"
	"roomly/pkg/saga"
	"roomly/pkg/sanitizer"
	"roomly/pkg/tracing"
	"roomly/pkg/validation"

	"go.opentelemetry.io/otel/attribute"
)

type TenantService interface {
	GetByID(ctx context.Context, id, actorID string) (*model.Tenant, error)
	Checkout(ctx context.Context, id, ownerID string) (*model.Tenant, error)
	Terminate(ctx context.Context, id, ownerID string, req *model.TerminateRequest) (*model.Tenant, error)
	Extend(ctx context.Context, id, ownerID string, req *model.ExtendRequest) (*model.Tenant, error)
}

// BookingStore is the slice of the booking repository that ending a tenancy needs.
type BookingStore interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, booking *model.Booking, from model.BookingStatus) error
}

type RoomLocker interface {
	Lock(ctx context.Context, id string) (*model.Room, error)
}

type OccupancyReconciler interface {
	Reconcile(ctx context.Context, roomID string) (*model.RoomOccupancy, error)
}

type tenantService struct {
	repo       repository.TenantRepository
	bookings   BookingStore
	rooms      RoomLocker
	reconciler OccupancyReconciler
	txManager  mongotx.TransactionManager
	dispatcher notifications.Dispatcher
	validator  *validator.TenantValidator
	cfg        *config.Config

	checkoutFlow  *saga.Flow[residencyState]
	terminateFlow *saga.Flow[residencyState]
	extendFlow    *saga.Flow[residencyState]
}

func NewTenantService(
	repo repository.TenantRepository,
	bookings BookingStore,
	rooms RoomLocker,
	reconciler OccupancyReconciler,
	txManager mongotx.TransactionManager,
	dispatcher notifications.Dispatcher,
	validator *validator.TenantValidator,
	cfg *config.Config,
) TenantService {
	s := &tenantService{
		repo:       repo,
		bookings:   bookings,
		rooms:      rooms,
		reconciler: reconciler,
		txManager:  txManager,
		dispatcher: dispatcher,
		validator:  validator,
		cfg:        cfg,
	}

	s.checkoutFlow = saga.NewFlow("checkout",
		saga.NewStep("load-tenant", s.loadTenant),
		saga.NewStep("authorize", authorizeOwner),
		saga.NewStep("lock-room", s.lockRoom),
		saga.NewStep("write-tenant", s.writeTenant),
		saga.NewStep("complete-booking", s.completeBooking),
		saga.NewStep("reconcile-room", s.reconcileRoom),
	)
	s.terminateFlow = saga.NewFlow("terminate",
		saga.NewStep("load-tenant", s.loadTenant),
		saga.NewStep("authorize", authorizeOwner),
		saga.NewStep("lock-room", s.lockRoom),
		saga.NewStep("write-tenant", s.writeTenant),
		saga.NewStep("complete-booking", s.completeBooking),
		saga.NewStep("reconcile-room", s.reconcileRoom),
	)
	s.extendFlow = saga.NewFlow("extend",
		saga.NewStep("load-tenant", s.loadTenant),
		saga.NewStep("authorize", authorizeOwner),
		saga.NewStep("validate-lease", s.validateLease),
		saga.NewStep("write-tenant", s.writeTenant),
	)
	return s
}

// residencyState is shared by the steps of one tenant flow. Fields above the
// blank line are inputs; the rest is rebuilt on every attempt.
type residencyState struct {
	tenantID   string
	actorID    string
	transition model.TenantTransition
	extend     *model.ExtendRequest

	tenant *model.Tenant
	from   model.TenantStatus
}

func (s *tenantService) GetByID(ctx context.Context, id, actorID string) (*model.Tenant, error) {
	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapTenantError(id, err)
	}
	if actorID != tenant.UserID && actorID != tenant.OwnerID {
		return nil, apperrors.Forbidden("Only the tenant or the property owner can view this tenancy")
	}
	return tenant, nil
}

func (s *tenantService) Checkout(ctx context.Context, id, ownerID string) (*model.Tenant, error) {
	state := &residencyState{
		tenantID:   id,
		actorID:    ownerID,
		transition: model.TenantTransition{To: model.TenantCompleted},
	}
	if err := s.execute(ctx, s.checkoutFlow, state, true); err != nil {
		return nil, err
	}

	s.notify(ctx, state.tenant, model.EventTenantCheckedOut, "")
	return state.tenant, nil
}

func (s *tenantService) Terminate(ctx context.Context, id, ownerID string, req *model.TerminateRequest) (*model.Tenant, error) {
	req.Reason = sanitizer.NormalizeReason(req.Reason)
	if err := s.validator.ValidateTerminate(req); err != nil {
		s.cfg.Log.Warn("Tenant termination validation failed", "tenant_id", id, "error", err)
		return nil, validation.ToAppError("Invalid termination request", err)
	}

	state := &residencyState{
		tenantID:   id,
		actorID:    ownerID,
		transition: model.TenantTransition{To: model.TenantTerminated, Reason: req.Reason},
	}
	if err := s.execute(ctx, s.terminateFlow, state, true); err != nil {
		return nil, err
	}

	s.notify(ctx, state.tenant, model.EventTenantTerminated, req.Reason)
	return state.tenant, nil
}

// Extend moves the lease end forward. It has no occupancy effect, so it is a
// single conditional write instead of a transaction.
func (s *tenantService) Extend(ctx context.Context, id, ownerID string, req *model.ExtendRequest) (*model.Tenant, error) {
	leaseEnd := req.LeaseEndDate.UTC()
	state := &residencyState{
		tenantID:   id,
		actorID:    ownerID,
		transition: model.TenantTransition{To: model.TenantExtended, LeaseEndDate: &leaseEnd},
		extend:     req,
	}
	if err := s.execute(ctx, s.extendFlow, state, false); err != nil {
		return nil, err
	}
	return state.tenant, nil
}

func (s *tenantService) execute(ctx context.Context, flow *saga.Flow[residencyState], state *residencyState, inTransaction bool) error {
	ctx, span := tracing.Start(ctx, "tenants."+flow.Name,
		attribute.String("tenant.id", state.tenantID),
		attribute.String("tenant.to", string(state.transition.To)),
	)
	start := time.Now()

	var err error
	if inTransaction {
		err = s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
			return flow.Run(txCtx, s.cfg.Log, state)
		})
	} else {
		err = flow.Run(ctx, s.cfg.Log, state)
	}

	metrics.ObserveTransaction(flow.Name, metrics.Result(err), time.Since(start))
	tracing.End(span, err)

	log := s.cfg.Log.ForTenant(state.tenantID)
	if err != nil {
		log.Warn("Tenant transition failed",
			"flow", flow.Name,
			"actor_id", state.actorID,
			"error", err,
		)
		return err
	}

	log.ForBooking(state.tenant.BookingID).ForRoom(state.tenant.RoomID).Info("Tenant transition committed",
		"flow", flow.Name,
		"from", state.from,
		"to", state.tenant.Status,
	)
	return nil
}

func (s *tenantService) loadTenant(ctx context.Context, st *residencyState) error {
	tenant, err := s.repo.FindByID(ctx, st.tenantID)
	if err != nil {
		return mapTenantError(st.tenantID, err)
	}
	st.tenant = tenant
	st.from = tenant.Status
	return nil
}

func authorizeOwner(_ context.Context, st *residencyState) error {
	if st.actorID != st.tenant.OwnerID {
		return apperrors.Forbidden("Only the property owner can change this tenancy")
	}
	return nil
}

func (s *tenantService) lockRoom(ctx context.Context, st *residencyState) error {
	if _, err := s.rooms.Lock(ctx, st.tenant.RoomID); err != nil {
		return roomserrors.ToAppError(st.tenant.RoomID, err, "Failed to lock room")
	}
	return nil
}

func (s *tenantService) validateLease(_ context.Context, st *residencyState) error {
	if err := s.validator.ValidateExtend(st.extend, st.tenant.LeaseEndDate); err != nil {
		return validation.ToAppError("Invalid lease extension", err)
	}
	return nil
}

func (s *tenantService) writeTenant(ctx context.Context, st *residencyState) error {
	if !st.from.IsResident() {
		return apperrors.InvalidTransition("tenant", string(st.from), string(st.transition.To))
	}

	transition := st.transition
	transition.At = time.Now().UTC().Truncate(time.Millisecond)
	transition.Apply(st.tenant)

	if err := s.repo.UpdateStatus(ctx, st.tenant, st.from); err != nil {
		if errors.Is(err, tenantserrors.ErrStatusChanged) {
			return apperrors.InvalidTransition("tenant", string(st.from), string(st.transition.To))
		}
		return apperrors.Internal("Failed to update tenant", err)
	}
	return nil
}

// completeBooking closes the originating booking so its slot is released.
func (s *tenantService) completeBooking(ctx context.Context, st *residencyState) error {
	booking, err := s.bookings.FindByID(ctx, st.tenant.BookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			s.cfg.Log.Warn("Tenant has no booking to complete", "tenant_id", st.tenant.ID, "booking_id", st.tenant.BookingID)
			return nil
		}
		return apperrors.Internal("Failed to load booking", err)
	}
	if !booking.Status.CanTransitionTo(model.BookingCompleted) {
		s.cfg.Log.Warn("Booking not completed on tenancy end",
			"booking_id", booking.ID,
			"status", booking.Status,
		)
		return nil
	}

	from := booking.Status
	transition := model.BookingTransition{To: model.BookingCompleted, At: *st.tenant.ActualCheckOutDate, ActorID: st.actorID}
	transition.Apply(booking)

	if err := s.bookings.UpdateStatus(ctx, booking, from); err != nil {
		metrics.ObserveTransition(string(model.BookingCompleted), metrics.ResultError)
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			return apperrors.InvalidTransition("booking", string(from), string(model.BookingCompleted))
		}
		return apperrors.Internal("Failed to complete booking", err)
	}
	metrics.ObserveTransition(string(model.BookingCompleted), metrics.ResultSuccess)
	return nil
}

func (s *tenantService) reconcileRoom(ctx context.Context, st *residencyState) error {
	_, err := s.reconciler.Reconcile(ctx, st.tenant.RoomID)
	return err
}

func (s *tenantService) notify(ctx context.Context, tenant *model.Tenant, eventType model.EventType, reason string) {
	notifications.Send(ctx, s.dispatcher, s.cfg.Log, s.cfg.NotifyTimeout, notifications.Notice{
		BookingID:   tenant.BookingID,
		Type:        eventType,
		RecipientID: tenant.UserID,
		Payload: map[string]string{
			model.PayloadRoomID:   tenant.RoomID,
			model.PayloadTenantID: tenant.ID,
			model.PayloadActorID:  tenant.OwnerID,
			model.PayloadStatus:   string(tenant.Status),
			model.PayloadReason:   reason,
			model.PayloadProperty: tenant.PropertyName,
			model.PayloadRoom:     tenant.RoomNumber,
		},
	})
}

func mapTenantError(id string, err error) error {
	switch {
	case errors.Is(err, tenantserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Tenant", id)
	case errors.Is(err, tenantserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid tenant ID format")
	default:
		return apperrors.Internal("Failed to retrieve tenant", err)
	}
}
