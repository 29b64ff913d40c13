//go:build integration

// Package mongotest connects integration tests to a real MongoDB replica set.
// Every helper gets a database of its own that is dropped on cleanup.
package mongotest

import (
	"context"
	"os"
	"testing"
	"time"

	mongoMigration "roomly/internal/migrations/mongo"
	"roomly/pkg/client"
	"roomly/pkg/config"
	"roomly/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// Transactions need a replica set.
	DefaultMongoURI   = "mongodb://localhost:27017/?replicaSet=rs0"
	ConnectionTimeout = 10 * time.Second
)

type Helper struct {
	Client   *mongo.Client
	Database *mongo.Database
	Config   *config.Config
}

// New connects, migrates a fresh database and registers its cleanup.
func New(t *testing.T) *Helper {
	t.Helper()

	uri := os.Getenv(config.EnvMongoURI)
	if uri == "" {
		uri = DefaultMongoURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	dbName := "roomly_it_" + uuid.NewString()[:8]
	db := mongoClient.Database(dbName)
	if err := mongoMigration.RunMigration(ctx, db, logger.Discard()); err != nil {
		t.Fatalf("failed to migrate %s: %v", dbName, err)
	}

	h := &Helper{
		Client:   mongoClient,
		Database: db,
		Config: &config.Config{
			MongoDatabaseName:  dbName,
			ReadTimeout:        5 * time.Second,
			WriteTimeout:       5 * time.Second,
			TransactionTimeout: 10 * time.Second,
			NotifyTimeout:      time.Second,
			Log:                logger.Discard(),
			Client:             &client.Client{Mongo: mongoClient},
		},
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("warning: failed to drop %s: %v", dbName, err)
		}
		if err := mongoClient.Disconnect(ctx); err != nil {
			t.Logf("warning: failed to disconnect from MongoDB: %v", err)
		}
	})
	return h
}

// InsertRoom seeds a room the way the property service would.
func (h *Helper) InsertRoom(t *testing.T, occupancy int) string {
	t.Helper()
	id := primitive.NewObjectID()
	_, err := h.Database.Collection("Rooms").InsertOne(context.Background(), bson.M{
		"_id":          id,
		"property_id":  "property-1",
		"room_number":  "B-204",
		"occupancy":    occupancy,
		"is_available": occupancy > 0,
		"room_status":  "available",
		"version":      int64(0),
		"updated_at":   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to insert room: %v", err)
	}
	return id.Hex()
}

func (h *Helper) CountDocuments(t *testing.T, collection string, filter bson.M) int64 {
	t.Helper()
	count, err := h.Database.Collection(collection).CountDocuments(context.Background(), filter)
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", collection, err)
	}
	return count
}
