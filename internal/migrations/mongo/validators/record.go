package validators

import "go.mongodb.org/mongo-driver/bson"

var RecordValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"patient_id",
			"exam_id",
			"exam_name",
			"status",
			"exam_date",
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

			"patient_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"patient_name": bson.M{
				"bsonType": "string",
			},

			"exam_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"exam_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"exam_type": bson.M{
				"bsonType": "string",
			},

			"price": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},

			"doctor_price": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},

			"doctor_id": bson.M{
				"bsonType": "long",
			},

			"channel": bson.M{
				"bsonType": "string",
			},

			"gender": bson.M{
				"bsonType": "string",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Scheduled",
					"InProgress",
					"Completed",
				},
			},

			"attended": bson.M{
				"bsonType": "string",
			},

			"result_link": bson.M{
				"bsonType": "string",
			},

			"exam_date": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
