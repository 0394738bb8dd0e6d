package validators

import "go.mongodb.org/mongo-driver/bson"

var ReceiptValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"submission_id",
			"identifier_kind",
			"simulated",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"submission_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"request_id": bson.M{
				"bsonType": "string",
			},

			"identifier_kind": bson.M{
				"enum": []string{"nysid", "bookAndCase"},
			},

			"facility": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"preferred_date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"simulated": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
