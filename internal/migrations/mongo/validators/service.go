package validators

import "go.mongodb.org/mongo-driver/bson"

var ServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"description",
			"duration",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"duration": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal", "null"},
				"minimum":  0,
			},

			"category": bson.M{
				"enum": []any{"Massage", "Physiotherapy", "Hydrotherapy", nil},
			},

			"icon_class": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
