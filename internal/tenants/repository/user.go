package repository

import (
	"context"
	"errors"
	"fmt"
	tenantserrors "roomly/internal/tenants/errors"
	"roomly/pkg/config"
	mongotx "roomly/pkg/db/mongo"
	"roomly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollectionName = "Users"
)

// UserDirectory is a read-only view of accounts owned by the identity service.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type mongoUserDirectory struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserDirectory(cfg *config.Config) UserDirectory {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserDirectory{
		cfg:        cfg,
		collection: db.Collection(UsersCollectionName),
	}
}

// FindByID reads outside any session on ctx. Materialization calls it from
// inside the check-in transaction, and a failed read there must not abort it.
func (d *mongoUserDirectory) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := mongotx.Detached(ctx, d.cfg.ReadTimeout)
	defer cancel()

	// Account ids are ObjectIDs upstream but older records store plain strings.
	var filter bson.M
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		filter = bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	} else {
		filter = bson.M{"_id": id}
	}

	opts := options.FindOne().SetProjection(bson.M{"name": 1, "email": 1, "phone": 1})

	var user model.User
	if err := d.collection.FindOne(ctx, filter, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tenantserrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}
