package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "roomly/internal/bookings/errors"
	"roomly/pkg/config"
	mongotx "roomly/pkg/db/mongo"
	"roomly/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	// CountActiveByRoom counts bookings that hold a slot in the room.
	CountActiveByRoom(ctx context.Context, roomID string) (int64, error)
	// UpdateStatus persists booking's status and lifecycle stamps only if the
	// stored status is still from and the booking is not soft deleted.
	UpdateStatus(ctx context.Context, booking *model.Booking, from model.BookingStatus) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) CountActiveByRoom(ctx context.Context, roomID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"room_id":    roomID,
		"status":     bson.M{"$in": model.ActiveBookingStatuses()},
		"is_deleted": bson.M{"$ne": true},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bookings for room %s: %w", roomID, err)
	}
	return count, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, booking *model.Booking, from model.BookingStatus) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(booking.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, booking.ID)
	}

	filter := bson.M{
		"_id":        objectID,
		"status":     from,
		"is_deleted": bson.M{"$ne": true},
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": lifecycleFields(booking)})
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusChanged
	}
	return nil
}

// lifecycleFields lists the fields a transition may write. Snapshots and
// payment data are never part of an update.
func lifecycleFields(b *model.Booking) bson.M {
	set := bson.M{
		"status":     b.Status,
		"updated_at": b.UpdatedAt,
		"is_deleted": b.IsDeleted,
	}

	optionalTimes := map[string]*time.Time{
		"approved_at":          b.ApprovedAt,
		"rejected_at":          b.RejectedAt,
		"cancelled_at":         b.CancelledAt,
		"actual_check_in_date": b.ActualCheckInDate,
		"completed_at":         b.CompletedAt,
		"deleted_at":           b.DeletedAt,
	}
	for field, value := range optionalTimes {
		if value != nil {
			set[field] = *value
		}
	}

	if b.ApprovedBy != "" {
		set["approved_by"] = b.ApprovedBy
	}
	if b.CancelledBy != "" {
		set["cancelled_by"] = b.CancelledBy
	}
	if b.CancellationReason != "" {
		set["cancellation_reason"] = b.CancellationReason
	}
	return set
}
