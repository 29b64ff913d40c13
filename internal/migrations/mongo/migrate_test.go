package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func uniqueOn(models []mongo.IndexModel, field string) bool {
	for _, m := range models {
		keys, ok := m.Keys.(bson.D)
		if !ok || len(keys) != 1 || keys[0].Key != field || m.Options == nil {
			continue
		}
		if m.Options.Unique != nil && *m.Options.Unique {
			return true
		}
	}
	return false
}

func TestCollections(t *testing.T) {
	defs := collections()
	for _, name := range []string{"Bookings", "Rooms", "Tenants", "Notifications"} {
		def, ok := defs[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, def.Indexes, name)
		assert.Contains(t, def.Validator, "$jsonSchema", name)
	}

	assert.True(t, uniqueOn(defs["Tenants"].Indexes, "booking_id"), "one tenant per booking")
	assert.True(t, uniqueOn(defs["Notifications"].Indexes, "event_id"), "one inbox entry per event")
}

func TestBookingsRecountIndex(t *testing.T) {
	keys := BookingsIndexes[0].Keys.(bson.D)
	require.Len(t, keys, 3)
	assert.Equal(t, "room_id", keys[0].Key)
	assert.Equal(t, "status", keys[1].Key)
	assert.Equal(t, "is_deleted", keys[2].Key)
}
