package validators

import "go.mongodb.org/mongo-driver/bson"

var LeadValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"name",
			"call_date",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"tenant_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 120,
			},

			"phone": bson.M{
				"bsonType": "string",
			},

			"country": bson.M{
				"bsonType":  "string",
				"maxLength": 2,
			},

			"channel": bson.M{
				"bsonType": "string",
			},

			"exam_id": bson.M{
				"bsonType": "long",
			},

			"doctor_id": bson.M{
				"bsonType": "long",
			},

			"call_date": bson.M{
				"bsonType": "date",
			},

			"scheduled": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"deleted_at": bson.M{
				"bsonType": []string{"date", "null"},
			},
		},
	},
}
