package validators

import "go.mongodb.org/mongo-driver/bson"

var TenantValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"user_id",
			"owner_id",
			"room_id",
			"status",
			"check_in_date",
			"lease_end_date",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},
			"booking_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},
			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"room_id": bson.M{
				"bsonType": "string",
			},
			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"active", "completed", "terminated", "extended"},
			},
			"check_in_date": bson.M{
				"bsonType": "date",
			},
			"lease_end_date": bson.M{
				"bsonType": "date",
			},
			"actual_check_out_date": nullableDate,
			"termination_reason": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
