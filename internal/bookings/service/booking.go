package service

import (
	"context"
	"errors"
	"slices"
	"time"

	bookingserrors "roomly/internal/bookings/errors"
	"roomly/internal/bookings/repository"
	"roomly/internal/bookings/validator"
	"roomly/internal/notifications"
	"roomly/internal/occupancy"
	roomserrors "roomly/internal/rooms/errors"
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

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id, actorID string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id, ownerID string, req *model.StatusUpdateRequest) (*model.Booking, error)
	Approve(ctx context.Context, id, ownerID string) (*model.Booking, error)
	Reject(ctx context.Context, id, ownerID, reason string) (*model.Booking, error)
	Cancel(ctx context.Context, id, actorID, reason string) (*model.Booking, error)
	FinalizeCheckIn(ctx context.Context, id, ownerID string) (*CheckInResult, error)
}

type CheckInResult struct {
	Booking *model.Booking `json:"booking"`
	Tenant  *model.Tenant  `json:"tenant"`
}

type RoomStore interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
	Lock(ctx context.Context, id string) (*model.Room, error)
}

type OccupancyReconciler interface {
	Reconcile(ctx context.Context, roomID string) (*model.RoomOccupancy, error)
}

// TenantLifecycle creates and ends tenancies inside a booking transaction.
type TenantLifecycle interface {
	Materialize(ctx context.Context, booking *model.Booking) (*model.Tenant, error)
	EndResidency(ctx context.Context, bookingID, reason string, at time.Time) (*model.Tenant, error)
}

type bookingService struct {
	repo       repository.BookingRepository
	rooms      RoomStore
	reconciler OccupancyReconciler
	tenants    TenantLifecycle
	txManager  mongotx.TransactionManager
	dispatcher notifications.Dispatcher
	validator  *validator.BookingValidator
	cfg        *config.Config

	approveFlow *saga.Flow[transitionState]
	rejectFlow  *saga.Flow[transitionState]
	cancelFlow  *saga.Flow[transitionState]
	checkInFlow *saga.Flow[transitionState]
}

func NewBookingService(
	repo repository.BookingRepository,
	rooms RoomStore,
	reconciler OccupancyReconciler,
	tenants TenantLifecycle,
	txManager mongotx.TransactionManager,
	dispatcher notifications.Dispatcher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	s := &bookingService{
		repo:       repo,
		rooms:      rooms,
		reconciler: reconciler,
		tenants:    tenants,
		txManager:  txManager,
		dispatcher: dispatcher,
		validator:  validator,
		cfg:        cfg,
	}

	s.approveFlow = saga.NewFlow("approve",
		saga.NewStep("load-booking", s.loadBooking),
		saga.NewStep("authorize", authorizeOwner),
		saga.NewStep("check-transition", checkTransition),
		saga.NewStep("lock-room", s.lockRoom),
		saga.NewStep("check-capacity", s.checkCapacity),
		saga.NewStep("write-booking", s.writeBooking),
		saga.NewStep("reconcile-room", s.reconcileRoom),
	)
	s.rejectFlow = saga.NewFlow("reject",
		saga.NewStep("load-booking", s.loadBooking),
		saga.NewStep("authorize", authorizeOwner),
		saga.NewStep("check-transition", checkTransition),
		saga.NewStep("lock-room", s.lockRoom),
		saga.NewStep("write-booking", s.writeBooking),
		saga.NewStep("reconcile-room", s.reconcileRoom),
	)
	s.cancelFlow = saga.NewFlow("cancel",
		saga.NewStep("load-booking", s.loadBooking),
		saga.NewStep("authorize", authorizeParty),
		saga.NewStep("check-transition", checkTransition),
		saga.NewStep("lock-room", s.lockRoom),
		saga.NewStep("write-booking", s.writeBooking),
		saga.NewStep("end-residency", s.endResidency),
		saga.NewStep("reconcile-room", s.reconcileRoom),
	)
	s.checkInFlow = saga.NewFlow("finalize-check-in",
		saga.NewStep("load-booking", s.loadBooking),
		saga.NewStep("authorize", authorizeOwner),
		saga.NewStep("check-transition", checkTransition),
		saga.NewStep("lock-room", s.lockRoom),
		saga.NewStep("check-capacity", s.checkCapacity),
		saga.NewStep("write-booking", s.writeBooking),
		saga.NewStep("materialize-tenant", s.materializeTenant),
		saga.NewStep("reconcile-room", s.reconcileRoom),
	)
	return s
}

// transitionState is shared by the steps of one booking flow. Fields above the
// blank line are inputs; the rest is rebuilt whenever the transaction retries.
type transitionState struct {
	bookingID   string
	actorID     string
	to          model.BookingStatus
	allowedFrom []model.BookingStatus
	reason      string
	cancelledBy model.CancelledBy // preset for rejections, derived from the actor on cancel

	booking *model.Booking
	from    model.BookingStatus
	room    *model.Room
	tenant  *model.Tenant
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.applyDefaults(booking)
	s.sanitize(booking)
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return validation.ToAppError("Booking validation failed", err)
	}

	if _, err := s.rooms.FindByID(ctx, booking.RoomID); err != nil {
		return roomserrors.ToAppError(booking.RoomID, err, "Failed to load room")
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"booking_id", booking.ID,
		"room_id", booking.RoomID,
		"user_id", booking.UserID,
		"owner_id", booking.OwnerID,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id, actorID string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapBookingError(id, err)
	}
	if actorID != booking.UserID && actorID != booking.OwnerID {
		return nil, apperrors.Forbidden("Only the seeker or the property owner can view this booking")
	}
	return booking, nil
}

// UpdateStatus is the owner's decision on a pending booking.
func (s *bookingService) UpdateStatus(ctx context.Context, id, ownerID string, req *model.StatusUpdateRequest) (*model.Booking, error) {
	if err := s.validator.ValidateStatusUpdate(req); err != nil {
		return nil, validation.ToAppError("Invalid status update", err)
	}

	switch model.BookingStatus(req.Status) {
	case model.BookingApproved:
		return s.Approve(ctx, id, ownerID)
	case model.BookingRejected:
		return s.Reject(ctx, id, ownerID, req.RejectionReason)
	default:
		return nil, apperrors.InvalidInput("status must be approved or rejected")
	}
}

func (s *bookingService) Approve(ctx context.Context, id, ownerID string) (*model.Booking, error) {
	state := &transitionState{
		bookingID:   id,
		actorID:     ownerID,
		to:          model.BookingApproved,
		allowedFrom: []model.BookingStatus{model.BookingPendingApproval},
	}
	if err := s.execute(ctx, s.approveFlow, state); err != nil {
		return nil, err
	}

	s.notify(ctx, state, model.EventBookingApproved, state.booking.UserID)
	return state.booking, nil
}

func (s *bookingService) Reject(ctx context.Context, id, ownerID, reason string) (*model.Booking, error) {
	state := &transitionState{
		bookingID:   id,
		actorID:     ownerID,
		to:          model.BookingRejected,
		allowedFrom: []model.BookingStatus{model.BookingPendingApproval},
		reason:      sanitizer.NormalizeReason(reason),
		cancelledBy: model.CancelledByOwner,
	}
	if err := s.execute(ctx, s.rejectFlow, state); err != nil {
		return nil, err
	}

	s.notify(ctx, state, model.EventBookingRejected, state.booking.UserID)
	return state.booking, nil
}

// Cancel may be called by either party from any non-terminal status. The other
// party is notified.
func (s *bookingService) Cancel(ctx context.Context, id, actorID, reason string) (*model.Booking, error) {
	req := &model.CancelRequest{Reason: sanitizer.NormalizeReason(reason)}
	if err := s.validator.ValidateCancel(req); err != nil {
		return nil, validation.ToAppError("Invalid cancellation", err)
	}

	state := &transitionState{
		bookingID: id,
		actorID:   actorID,
		to:        model.BookingCancelled,
		reason:    req.Reason,
	}
	if err := s.execute(ctx, s.cancelFlow, state); err != nil {
		return nil, err
	}

	recipient := state.booking.OwnerID
	if state.cancelledBy == model.CancelledByOwner {
		recipient = state.booking.UserID
	}
	s.notify(ctx, state, model.EventBookingCancelled, recipient)
	return state.booking, nil
}

// FinalizeCheckIn moves an approved booking to checked_in and creates its
// tenant in the same transaction. A second call fails with ALREADY_CHECKED_IN.
func (s *bookingService) FinalizeCheckIn(ctx context.Context, id, ownerID string) (*CheckInResult, error) {
	state := &transitionState{
		bookingID: id,
		actorID:   ownerID,
		to:        model.BookingCheckedIn,
	}
	if err := s.execute(ctx, s.checkInFlow, state); err != nil {
		return nil, err
	}

	s.notify(ctx, state, model.EventBookingCheckedIn, state.booking.UserID)
	return &CheckInResult{Booking: state.booking, Tenant: state.tenant}, nil
}

// execute runs flow inside one transaction. The driver may run the callback
// more than once; every step re-reads what it depends on.
func (s *bookingService) execute(ctx context.Context, flow *saga.Flow[transitionState], state *transitionState) error {
	ctx, span := tracing.Start(ctx, "bookings."+flow.Name,
		attribute.String("booking.id", state.bookingID),
		attribute.String("booking.to", string(state.to)),
	)
	start := time.Now()

	err := s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		return flow.Run(txCtx, s.cfg.Log, state)
	})

	metrics.ObserveTransaction(flow.Name, metrics.Result(err), time.Since(start))
	metrics.ObserveTransition(string(state.to), metrics.Result(err))
	tracing.End(span, err)

	log := s.cfg.Log.ForBooking(state.bookingID)
	if err != nil {
		log.Warn("Booking transition failed",
			"flow", flow.Name,
			"actor_id", state.actorID,
			"to", state.to,
			"error", err,
		)
		return err
	}

	log.ForRoom(state.booking.RoomID).Info("Booking transition committed",
		"flow", flow.Name,
		"from", state.from,
		"to", state.booking.Status,
		"actor_id", state.actorID,
	)
	return nil
}

func (s *bookingService) loadBooking(ctx context.Context, st *transitionState) error {
	booking, err := s.repo.FindByID(ctx, st.bookingID)
	if err != nil {
		return mapBookingError(st.bookingID, err)
	}
	st.booking = booking
	st.from = booking.Status
	st.room = nil
	st.tenant = nil
	return nil
}

func authorizeOwner(_ context.Context, st *transitionState) error {
	if st.actorID != st.booking.OwnerID {
		return apperrors.Forbidden("Only the property owner can perform this action")
	}
	return nil
}

func authorizeParty(_ context.Context, st *transitionState) error {
	switch st.actorID {
	case st.booking.UserID:
		st.cancelledBy = model.CancelledByUser
	case st.booking.OwnerID:
		st.cancelledBy = model.CancelledByOwner
	default:
		return apperrors.Forbidden("Only the seeker or the property owner can cancel this booking")
	}
	return nil
}

func checkTransition(_ context.Context, st *transitionState) error {
	if st.to == model.BookingCheckedIn && st.from == model.BookingCheckedIn {
		return apperrors.AlreadyCheckedIn(st.booking.ID)
	}
	if st.booking.IsDeleted || !st.from.CanTransitionTo(st.to) {
		return apperrors.InvalidTransition("booking", string(st.from), string(st.to))
	}
	if len(st.allowedFrom) > 0 && !slices.Contains(st.allowedFrom, st.from) {
		return apperrors.InvalidTransition("booking", string(st.from), string(st.to))
	}
	return nil
}

func (s *bookingService) lockRoom(ctx context.Context, st *transitionState) error {
	room, err := s.rooms.Lock(ctx, st.booking.RoomID)
	if err != nil {
		return roomserrors.ToAppError(st.booking.RoomID, err, "Failed to lock room")
	}
	st.room = room
	return nil
}

// checkCapacity refuses to move a booking into the active set when the room
// has no free slot. Bookings already active keep their slot.
func (s *bookingService) checkCapacity(ctx context.Context, st *transitionState) error {
	if st.from.IsActive() || !st.to.IsActive() {
		return nil
	}

	room := st.room
	count, err := s.repo.CountActiveByRoom(ctx, room.ID)
	if err != nil {
		return apperrors.Internal("Failed to count active bookings", err)
	}

	if available, _ := occupancy.Evaluate(count, room.Occupancy); !available {
		return apperrors.CapacityExceeded(room.ID, room.Occupancy, count)
	}
	return nil
}

func (s *bookingService) writeBooking(ctx context.Context, st *transitionState) error {
	transition := model.BookingTransition{
		To:                 st.to,
		At:                 time.Now().UTC().Truncate(time.Millisecond),
		ActorID:            st.actorID,
		CancelledBy:        st.cancelledBy,
		CancellationReason: st.reason,
	}
	transition.Apply(st.booking)

	if err := s.repo.UpdateStatus(ctx, st.booking, st.from); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			return apperrors.InvalidTransition("booking", string(st.from), string(st.to))
		}
		return apperrors.Internal("Failed to update booking", err)
	}
	return nil
}

func (s *bookingService) materializeTenant(ctx context.Context, st *transitionState) error {
	tenant, err := s.tenants.Materialize(ctx, st.booking)
	if err != nil {
		return err
	}
	st.tenant = tenant
	return nil
}

// endResidency terminates the tenant of a checked-in booking being cancelled.
func (s *bookingService) endResidency(ctx context.Context, st *transitionState) error {
	if st.from != model.BookingCheckedIn {
		return nil
	}
	reason := st.reason
	if reason == "" {
		reason = "booking cancelled"
	}
	tenant, err := s.tenants.EndResidency(ctx, st.booking.ID, reason, *st.booking.CancelledAt)
	if err != nil {
		return err
	}
	st.tenant = tenant
	return nil
}

func (s *bookingService) reconcileRoom(ctx context.Context, st *transitionState) error {
	_, err := s.reconciler.Reconcile(ctx, st.booking.RoomID)
	return err
}

func (s *bookingService) notify(ctx context.Context, st *transitionState, eventType model.EventType, recipientID string) {
	b := st.booking
	payload := map[string]string{
		model.PayloadRoomID:   b.RoomID,
		model.PayloadActorID:  st.actorID,
		model.PayloadStatus:   string(b.Status),
		model.PayloadReason:   b.CancellationReason,
		model.PayloadProperty: b.PropertySnapshot.Name,
		model.PayloadRoom:     b.RoomSnapshot.RoomNumber,
	}
	if st.tenant != nil {
		payload[model.PayloadTenantID] = st.tenant.ID
	}

	notifications.Send(ctx, s.dispatcher, s.cfg.Log, s.cfg.NotifyTimeout, notifications.Notice{
		BookingID:   b.ID,
		Type:        eventType,
		RecipientID: recipientID,
		Payload:     payload,
	})
}

// --- Helpers ---

func (s *bookingService) applyDefaults(b *model.Booking) {
	b.ID = ""
	b.Status = model.BookingPendingApproval
	b.IsDeleted = false
	b.DeletedAt = nil
	b.ApprovedAt = nil
	b.ApprovedBy = ""
	b.RejectedAt = nil
	b.CancelledAt = nil
	b.CancelledBy = ""
	b.CancellationReason = ""
	b.ActualCheckInDate = nil
	b.CompletedAt = nil
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.UserSnapshot.Name = sanitizer.NormalizeName(b.UserSnapshot.Name)
	b.UserSnapshot.Email = sanitizer.NormalizeEmail(b.UserSnapshot.Email)
	if phone := sanitizer.NormalizePhone(b.UserSnapshot.Phone); phone != "" {
		b.UserSnapshot.Phone = phone
	}
	b.OwnerSnapshot.Name = sanitizer.NormalizeName(b.OwnerSnapshot.Name)
	b.OwnerSnapshot.Email = sanitizer.NormalizeEmail(b.OwnerSnapshot.Email)
	if phone := sanitizer.NormalizePhone(b.OwnerSnapshot.Phone); phone != "" {
		b.OwnerSnapshot.Phone = phone
	}
	b.PropertySnapshot.Name = sanitizer.NormalizeName(b.PropertySnapshot.Name)
	b.PropertySnapshot.Address = sanitizer.TrimAndNormalize(b.PropertySnapshot.Address)
	b.PropertySnapshot.City = sanitizer.NormalizeName(b.PropertySnapshot.City)
	b.RoomSnapshot.RoomNumber = sanitizer.TrimAndNormalize(b.RoomSnapshot.RoomNumber)
}

func mapBookingError(id string, err error) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		return apperrors.Internal("Failed to retrieve booking", err)
	}
}
