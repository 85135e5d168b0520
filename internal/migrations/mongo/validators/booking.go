package validators

import (
	"go.mongodb.org/mongo-driver/bson"

	"venivici/pkg/model"
)

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"first_name",
			"last_name",
			"email",
			"phone",
			"service_id",
			"service_name",
			"selected_date",
			"selected_time_slot",
			"total_amount",
			"payment_option",
			"payment_status",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"first_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"last_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType": "string",
				"pattern":  "^[^@\\s]+@[^@\\s]+$",
			},

			"phone": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 32,
			},

			"service_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"service_name": bson.M{
				"bsonType": "string",
			},

			"selected_date": bson.M{
				"bsonType": "date",
			},

			"selected_time_slot": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},

			"message": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"total_amount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"payment_option": bson.M{
				"bsonType": "string",
				"enum": []string{
					string(model.PaymentOptionPayNow),
					string(model.PaymentOptionPayLater),
				},
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum":     paymentStatuses(),
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					string(model.BookingStatusPending),
					string(model.BookingStatusConfirmed),
					string(model.BookingStatusCancelled),
					string(model.BookingStatusCompleted),
				},
			},

			"provider_reference": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"paid_at": bson.M{
				"bsonType": "date",
			},

			"payment_checked_at": bson.M{
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

func paymentStatuses() []string {
	out := make([]string, 0, len(model.PaymentStatuses))
	for _, s := range model.PaymentStatuses {
		out = append(out, string(s))
	}
	return out
}
