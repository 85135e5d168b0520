package paystack

import (
	"fmt"
	"math"
	"time"
)

// ToSubunit converts a major-unit amount (naira) to the integer minor units (kobo) Paystack expects.
func ToSubunit(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromSubunit(amount int64) float64 {
	return float64(amount) / 100
}

// NewReference builds the transaction reference for a booking.
func NewReference(bookingID string, now time.Time) string {
	return fmt.Sprintf("booking_%s_%d", bookingID, now.UnixMilli())
}
