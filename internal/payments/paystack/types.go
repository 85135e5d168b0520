package paystack

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// Transaction statuses reported by /transaction/verify.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusReversed  = "reversed"
	StatusAbandoned = "abandoned"
	StatusOngoing   = "ongoing"
	StatusPending   = "pending"
)

// Outcome is the verified result of a transaction as far as a booking is concerned.
type Outcome int

const (
	// OutcomeIncomplete means the customer has not finished paying yet.
	OutcomeIncomplete Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return "incomplete"
	}
}

// Metadata travels with a transaction and comes back unchanged on verify and webhooks.
type Metadata struct {
	BookingID string `json:"booking_id"`
}

// UnmarshalJSON accepts the object form, a JSON-encoded string, and the empty values
// Paystack uses when no metadata was attached. Arrays carry no booking id and decode as empty.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) || bytes.Equal(data, []byte("0")) || data[0] == '[' {
		*m = Metadata{}
		return nil
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		data = bytes.TrimSpace([]byte(encoded))
		if len(data) == 0 || data[0] == '[' {
			*m = Metadata{}
			return nil
		}
	}

	type plain Metadata
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = Metadata(out)
	return nil
}

type InitializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	Reference   string   `json:"reference,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Channels    []string `json:"channels,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

// Authorization is the handle the customer uses to complete payment.
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type Customer struct {
	Email string `json:"email"`
}

// Transaction is the provider's view of a charge. Amount is in minor units.
type Transaction struct {
	ID              int64      `json:"id"`
	Status          string     `json:"status"`
	Reference       string     `json:"reference"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	PaidAt          *time.Time `json:"paid_at"`
	GatewayResponse string     `json:"gateway_response"`
	Metadata        Metadata   `json:"metadata"`
	Customer        Customer   `json:"customer"`
}

func (t *Transaction) Outcome() Outcome {
	switch t.Status {
	case StatusSuccess:
		return OutcomeSucceeded
	case StatusFailed, StatusReversed:
		return OutcomeFailed
	default:
		return OutcomeIncomplete
	}
}

// Event is the webhook envelope.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
