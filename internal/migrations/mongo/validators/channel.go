package validators

import "go.mongodb.org/mongo-driver/bson"

var ChannelValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"name",
			"created_at",
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
				"maxLength": 100,
			},

			"name_key": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"budget": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},

			"cost": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},

			"clicks": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"leads": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"created_by": bson.M{
				"bsonType": "long",
			},

			"updated_by": bson.M{
				"bsonType": "long",
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
