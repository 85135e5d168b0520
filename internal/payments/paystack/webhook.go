package paystack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedEvent = errors.New("malformed webhook event")

// ParseEvent decodes the webhook envelope. Data stays raw until the event type is known
// to be one we act on; other event types carry payloads of their own shape.
// Signature checks happen before this is called.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.Event == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedEvent)
	}
	return &event, nil
}

// Actionable reports whether the event type can change a booking.
func (e *Event) Actionable() bool {
	return e.Event == EventChargeSuccess || e.Event == EventChargeFailed
}

// Charge decodes the data of a charge event.
func (e *Event) Charge() (*Transaction, error) {
	data := bytes.TrimSpace(e.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedEvent)
	}
	var tx Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return &tx, nil
}

// Reference returns data.reference when it is a string, without decoding anything else.
func (e *Event) Reference() string {
	var fields struct {
		Reference json.RawMessage `json:"reference"`
	}
	if err := json.Unmarshal(e.Data, &fields); err != nil {
		return ""
	}
	var reference string
	if err := json.Unmarshal(fields.Reference, &reference); err != nil {
		return ""
	}
	return reference
}
