package repository

import (
	"context"
	"errors"
	"fmt"
	tenantserrors "roomly/internal/tenants/errors"
	"roomly/pkg/config"
	mongotx "roomly/pkg/db/mongo"
	"roomly/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "Tenants"
)

type TenantRepository interface {
	// Create fails with ErrDuplicateBooking when the booking already has a tenant.
	Create(ctx context.Context, tenant *model.Tenant) error
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
	FindByBookingID(ctx context.Context, bookingID string) (*model.Tenant, error)
	// UpdateStatus writes tenant's status fields if the stored status is still from.
	UpdateStatus(ctx context.Context, tenant *model.Tenant, from model.TenantStatus) error
}

type mongoTenantRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTenantRepository(cfg *config.Config) TenantRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTenantRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, tenant)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", tenantserrors.ErrDuplicateBooking, tenant.BookingID)
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		tenant.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTenantRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tenantserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoTenantRepository) FindByBookingID(ctx context.Context, bookingID string) (*model.Tenant, error) {
	return r.findOne(ctx, bson.M{"booking_id": bookingID})
}

func (r *mongoTenantRepository) findOne(ctx context.Context, filter bson.M) (*model.Tenant, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var tenant model.Tenant
	if err := r.collection.FindOne(ctx, filter).Decode(&tenant); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tenantserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}
	return &tenant, nil
}

func (r *mongoTenantRepository) UpdateStatus(ctx context.Context, tenant *model.Tenant, from model.TenantStatus) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(tenant.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", tenantserrors.ErrInvalidID, tenant.ID)
	}

	set := bson.M{
		"status":         tenant.Status,
		"lease_end_date": tenant.LeaseEndDate,
		"updated_at":     tenant.UpdatedAt,
	}
	if tenant.ActualCheckOutDate != nil {
		set["actual_check_out_date"] = *tenant.ActualCheckOutDate
	}
	if tenant.TerminationReason != "" {
		set["termination_reason"] = tenant.TerminationReason
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID, "status": from}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update tenant status: %w", err)
	}
	if result.MatchedCount == 0 {
		return tenantserrors.ErrStatusChanged
	}
	return nil
}
