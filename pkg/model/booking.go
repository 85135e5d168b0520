package model

import (
	"time"
)

type PaymentOption string

const (
	PaymentOptionPayNow   PaymentOption = "payNow"
	PaymentOptionPayLater PaymentOption = "payLater"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusFailed   PaymentStatus = "Failed"
	PaymentStatusRefunded PaymentStatus = "Refunded"
	// stored verbatim so existing documents keep their meaning
	PaymentStatusAmountMismatch PaymentStatus = "Amount Mismatch - Manual Review"
)

var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusRefunded,
	PaymentStatusAmountMismatch,
}

func (s PaymentStatus) Valid() bool {
	for _, known := range PaymentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCancelled BookingStatus = "Cancelled"
	BookingStatusCompleted BookingStatus = "Completed"
)

type Booking struct {
	ID                string        `json:"id,omitempty" bson:"_id,omitempty"`
	FirstName         string        `json:"firstName" bson:"first_name"`
	LastName          string        `json:"lastName" bson:"last_name"`
	Email             string        `json:"email" bson:"email"`
	Phone             string        `json:"phone" bson:"phone"`
	ServiceID         string        `json:"serviceId" bson:"service_id"`
	ServiceName       string        `json:"serviceName" bson:"service_name"`
	SelectedDate      time.Time     `json:"selectedDate" bson:"selected_date"`
	SelectedTimeSlot  string        `json:"selectedTimeSlot" bson:"selected_time_slot"`
	Message           string        `json:"message,omitempty" bson:"message,omitempty"`
	TotalAmount       float64       `json:"totalAmount" bson:"total_amount"`
	PaymentOption     PaymentOption `json:"paymentOption" bson:"payment_option"`
	PaymentStatus     PaymentStatus `json:"paymentStatus" bson:"payment_status"`
	Status            BookingStatus `json:"status" bson:"status"`
	ProviderReference string        `json:"providerReference,omitempty" bson:"provider_reference,omitempty"`
	PaidAt            *time.Time    `json:"paidAt,omitempty" bson:"paid_at,omitempty"`
	PaymentCheckedAt  *time.Time    `json:"paymentCheckedAt,omitempty" bson:"payment_checked_at,omitempty"`
	CreatedAt         time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt         time.Time     `json:"updatedAt" bson:"updated_at"`
}

// BookingRequest is the customer-facing booking form.
type BookingRequest struct {
	FirstName        string `json:"firstName" validate:"required,max=100"`
	LastName         string `json:"lastName" validate:"required,max=100"`
	Email            string `json:"email" validate:"required,email,max=254"`
	Phone            string `json:"phone" validate:"required,max=32,phone"`
	ServiceID        string `json:"serviceId" validate:"required,mongodb"`
	SelectedDate     string `json:"selectedDate" validate:"required,booking_date"`
	SelectedTimeSlot string `json:"selectedTimeSlot" validate:"required,max=50"`
	Message          string `json:"message" validate:"max=500"`
	PaymentOption    string `json:"paymentOption" validate:"required,oneof=payNow payLater"`
}

type PaymentRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required,max=100"`
}

// BookingStatusUpdate is the admin overwrite of a booking's states. Notes replace the message.
type BookingStatusUpdate struct {
	PaymentStatus *PaymentStatus `json:"paymentStatus,omitempty" validate:"omitempty,payment_status"`
	Status        *BookingStatus `json:"status,omitempty" validate:"omitempty,oneof=Pending Confirmed Cancelled Completed"`
	Notes         *string        `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (u *BookingStatusUpdate) IsEmpty() bool {
	return u.PaymentStatus == nil && u.Status == nil && u.Notes == nil
}

// PaymentTransition is a payment state change applied only while the booking is still Pending.
type PaymentTransition struct {
	To        PaymentStatus
	Reference string
	PaidAt    *time.Time
	// ConfirmBooking advances Status from Pending to Confirmed in the same write
	ConfirmBooking bool
}

// Receipt describes a verified payment for the customer's receipt.
type Receipt struct {
	Reference  string    `json:"reference"`
	AmountPaid float64   `json:"amountPaid"`
	Currency   string    `json:"currency"`
	PaidAt     time.Time `json:"paidAt"`
}
