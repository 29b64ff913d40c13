package validators

import "go.mongodb.org/mongo-driver/bson"

var nullableDate = bson.M{"bsonType": bson.A{"date", "null"}}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"owner_id",
			"property_id",
			"room_id",
			"status",
			"check_in_date",
			"duration_months",
			"is_deleted",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"property_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending_approval",
					"payment_completed",
					"confirmed",
					"approved",
					"checked_in",
					"rejected",
					"cancelled",
					"completed",
				},
			},

			"check_in_date": bson.M{
				"bsonType": "date",
			},

			"duration_months": bson.M{
				"bsonType": bson.A{"int", "long"},
				"minimum":  1,
				"maximum":  60,
			},

			"payment": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"total_amount":     bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0},
					"security_deposit": bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0},
					"monthly_rent":     bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0},
					"payment_status":   bson.M{"bsonType": "string"},
				},
			},

			"approved_at":          nullableDate,
			"rejected_at":          nullableDate,
			"cancelled_at":         nullableDate,
			"actual_check_in_date": nullableDate,
			"completed_at":         nullableDate,
			"deleted_at":           nullableDate,

			"cancelled_by": bson.M{
				"bsonType": "string",
				"enum":     []string{"user", "owner"},
			},

			"cancellation_reason": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"is_deleted": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
