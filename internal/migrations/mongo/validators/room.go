package validators

import "go.mongodb.org/mongo-driver/bson"

// Rooms are owned by the property service; only the availability fields
// written by the reconciler are constrained here.
var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"occupancy"},
		"additionalProperties": true,

		"properties": bson.M{
			"occupancy": bson.M{
				"bsonType": bson.A{"int", "long"},
				"minimum":  0,
			},
			"is_available": bson.M{
				"bsonType": "bool",
			},
			"room_status": bson.M{
				"bsonType": "string",
				"enum":     []string{"available", "full", "maintenance"},
			},
			"version": bson.M{
				"bsonType": bson.A{"int", "long"},
			},
		},
	},
}
