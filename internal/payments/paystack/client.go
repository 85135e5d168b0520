package paystack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"venivici/pkg/client"
	"venivici/pkg/config"
	"venivici/pkg/logger"
)

const (
	initializePath = "/transaction/initialize"
	verifyPath     = "/transaction/verify/"
)

// Client talks to the Paystack transaction API. It is safe for concurrent use.
type Client struct {
	http        *client.HttpClient
	currency    string
	callbackURL string
	channels    []string
	log         *logger.Logger
}

func NewClient(cfg config.PaystackConfig, log *logger.Logger) *Client {
	httpClient := client.NewHttpClient(cfg.BaseURL, cfg.Timeout).
		WithHeader("Authorization", "Bearer "+cfg.SecretKey)

	return &Client{
		http:        httpClient,
		currency:    cfg.Currency,
		callbackURL: cfg.CallbackURL,
		channels:    cfg.Channels,
		log:         log,
	}
}

// Initialize starts a transaction. Currency, channels and callback default to the client's
// configuration when the request leaves them empty.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	if req.Email == "" {
		return nil, errors.New("paystack: email is required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("paystack: amount must be positive, got %d", req.Amount)
	}
	if req.Currency == "" {
		req.Currency = c.currency
	}
	if req.CallbackURL == "" {
		req.CallbackURL = c.callbackURL
	}
	if len(req.Channels) == 0 {
		req.Channels = c.channels
	}

	resp, err := c.http.POST(ctx, initializePath, req)
	if err != nil {
		return nil, fmt.Errorf("%w: initialize: %v", ErrUnavailable, err)
	}

	var body envelope[Authorization]
	if err := decode(resp, &body); err != nil {
		return nil, err
	}

	c.log.Debug("Paystack transaction initialized",
		"reference", body.Data.Reference,
		"booking_id", req.Metadata.BookingID,
	)
	return &body.Data, nil
}

// Verify fetches the authoritative state of a transaction.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, errors.New("paystack: reference is required")
	}

	resp, err := c.http.GET(ctx, verifyPath+url.PathEscape(reference))
	if err != nil {
		return nil, fmt.Errorf("%w: verify: %v", ErrUnavailable, err)
	}

	var body envelope[Transaction]
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	if body.Data.Reference == "" {
		body.Data.Reference = reference
	}

	c.log.Debug("Paystack transaction verified",
		"reference", reference,
		"status", body.Data.Status,
		"amount", body.Data.Amount,
	)
	return &body.Data, nil
}

func decode[T any](resp *client.Response, body *envelope[T]) error {
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := resp.DecodeJSON(body); err != nil {
		if !resp.IsSuccess() {
			return &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}

	if !resp.IsSuccess() || !body.Status {
		message := body.Message
		if message == "" {
			message = "request was not successful"
		}
		return &Error{StatusCode: resp.StatusCode, Message: message}
	}
	return nil
}
