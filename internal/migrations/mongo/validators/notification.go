package validators

import "go.mongodb.org/mongo-driver/bson"

var NotificationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"event_id",
			"recipient_id",
			"event_type",
			"booking_id",
			"message",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"event_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"recipient_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"event_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"booking.approved",
					"booking.rejected",
					"booking.cancelled",
					"booking.checked_in",
					"tenant.checked_out",
					"tenant.terminated",
				},
			},
			"read": bson.M{
				"bsonType": "bool",
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
