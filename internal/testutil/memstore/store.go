// Package memstore is an in-memory stand-in for the Mongo repositories and
// transaction manager. Transactions are serialized and roll back every map on
// error, which gives tests the same all-or-nothing behaviour as a replica set.
package memstore

import (
	"context"
	"sync"
	"time"

	bookingserrors "roomly/internal/bookings/errors"
	roomserrors "roomly/internal/rooms/errors"
	tenantserrors "roomly/internal/tenants/errors"
	mongotx "roomly/pkg/db/mongo"
	"roomly/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type txKey struct{}

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	bookings map[string]model.Booking
	rooms    map[string]model.Room
	tenants  map[string]model.Tenant
	users    map[string]model.User

	failures map[string]error
	commits  int
}

func New() *Store {
	return &Store{
		bookings: map[string]model.Booking{},
		rooms:    map[string]model.Room{},
		tenants:  map[string]model.Tenant{},
		users:    map[string]model.User{},
		failures: map[string]error{},
	}
}

// ExecuteTransaction runs fn with exclusive access to the store and restores
// the previous state if fn fails. Nested calls join the outer transaction.
func (s *Store) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}

	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

// FailOn makes every call to op return err until cleared with a nil err.
// Op names are "<collection>.<Method>", e.g. "rooms.UpdateAvailability".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

type snapshot struct {
	bookings map[string]model.Booking
	rooms    map[string]model.Room
	tenants  map[string]model.Tenant
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		bookings: cloneMap(s.bookings),
		rooms:    cloneMap(s.rooms),
		tenants:  cloneMap(s.tenants),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = snap.bookings
	s.rooms = snap.rooms
	s.tenants = snap.tenants
}

func cloneMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// fail must be called with s.mu held.
func (s *Store) fail(op string) error {
	return s.failures[op]
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func validID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// Seeding and inspection helpers used by tests.

func (s *Store) AddRoom(room model.Room) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.ID == "" {
		room.ID = newID()
	}
	s.rooms[room.ID] = room
	return room.ID
}

func (s *Store) AddBooking(b model.Booking) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = newID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	s.bookings[b.ID] = b
	return b.ID
}

// RemoveRoom deletes a room while leaving its bookings and tenants behind.
func (s *Store) RemoveRoom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

func (s *Store) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) Room(id string) model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

func (s *Store) Booking(id string) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id]
}

func (s *Store) TenantByBooking(bookingID string) (model.Tenant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.BookingID == bookingID {
			return t, true
		}
	}
	return model.Tenant{}, false
}

func (s *Store) TenantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tenants)
}

// ActiveCount is the ground truth the occupancy invariant is checked against.
func (s *Store) ActiveCount(roomID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countActive(roomID)
}

func (s *Store) countActive(roomID string) int64 {
	var n int64
	for _, b := range s.bookings {
		if b.RoomID == roomID && b.CountsAgainstOccupancy() {
			n++
		}
	}
	return n
}

// Repositories.

func (s *Store) Bookings() *BookingRepo { return &BookingRepo{s: s} }
func (s *Store) Rooms() *RoomRepo       { return &RoomRepo{s: s} }
func (s *Store) Tenants() *TenantRepo   { return &TenantRepo{s: s} }
func (s *Store) Users() *UserRepo       { return &UserRepo{s: s} }

type BookingRepo struct{ s *Store }

func (r *BookingRepo) Create(_ context.Context, booking *model.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bookings.Create"); err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.ID = newID()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *BookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bookings.FindByID"); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, bookingserrors.ErrInvalidID
	}
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return &b, nil
}

func (r *BookingRepo) CountActiveByRoom(_ context.Context, roomID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bookings.CountActiveByRoom"); err != nil {
		return 0, err
	}
	return r.s.countActive(roomID), nil
}

func (r *BookingRepo) UpdateStatus(_ context.Context, booking *model.Booking, from model.BookingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bookings.UpdateStatus"); err != nil {
		return err
	}
	stored, ok := r.s.bookings[booking.ID]
	if !ok || stored.Status != from || stored.IsDeleted {
		return bookingserrors.ErrStatusChanged
	}
	// Snapshots and payment stay as first written.
	updated := *booking
	updated.Payment = stored.Payment
	updated.UserSnapshot = stored.UserSnapshot
	updated.OwnerSnapshot = stored.OwnerSnapshot
	updated.PropertySnapshot = stored.PropertySnapshot
	updated.RoomSnapshot = stored.RoomSnapshot
	r.s.bookings[booking.ID] = updated
	return nil
}

type RoomRepo struct{ s *Store }

func (r *RoomRepo) FindByID(_ context.Context, id string) (*model.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("rooms.FindByID"); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, roomserrors.ErrInvalidID
	}
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, roomserrors.ErrNotFound
	}
	return &room, nil
}

func (r *RoomRepo) ListIDs(context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("rooms.ListIDs"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(r.s.rooms))
	for id := range r.s.rooms {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *RoomRepo) Lock(_ context.Context, id string) (*model.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("rooms.Lock"); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, roomserrors.ErrInvalidID
	}
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, roomserrors.ErrNotFound
	}
	room.Version++
	room.UpdatedAt = time.Now().UTC()
	r.s.rooms[id] = room
	return &room, nil
}

func (r *RoomRepo) UpdateAvailability(_ context.Context, id string, isAvailable bool, status model.RoomStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("rooms.UpdateAvailability"); err != nil {
		return err
	}
	room, ok := r.s.rooms[id]
	if !ok {
		return roomserrors.ErrNotFound
	}
	room.IsAvailable = isAvailable
	room.RoomStatus = status
	room.UpdatedAt = time.Now().UTC()
	r.s.rooms[id] = room
	return nil
}

type TenantRepo struct{ s *Store }

func (r *TenantRepo) Create(_ context.Context, tenant *model.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("tenants.Create"); err != nil {
		return err
	}
	for _, t := range r.s.tenants {
		if t.BookingID == tenant.BookingID {
			return tenantserrors.ErrDuplicateBooking
		}
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	tenant.ID = newID()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	r.s.tenants[tenant.ID] = *tenant
	return nil
}

func (r *TenantRepo) FindByID(_ context.Context, id string) (*model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("tenants.FindByID"); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, tenantserrors.ErrInvalidID
	}
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, tenantserrors.ErrNotFound
	}
	return &t, nil
}

func (r *TenantRepo) FindByBookingID(_ context.Context, bookingID string) (*model.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("tenants.FindByBookingID"); err != nil {
		return nil, err
	}
	for _, t := range r.s.tenants {
		if t.BookingID == bookingID {
			return &t, nil
		}
	}
	return nil, tenantserrors.ErrNotFound
}

func (r *TenantRepo) UpdateStatus(_ context.Context, tenant *model.Tenant, from model.TenantStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("tenants.UpdateStatus"); err != nil {
		return err
	}
	stored, ok := r.s.tenants[tenant.ID]
	if !ok || stored.Status != from {
		return tenantserrors.ErrStatusChanged
	}
	r.s.tenants[tenant.ID] = *tenant
	return nil
}

type UserRepo struct{ s *Store }

func (r *UserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.FindByID"); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, tenantserrors.ErrUserNotFound
	}
	return &u, nil
}
