package service

import (
	"context"

	"venivici/internal/payments/paystack"
	apperrors "venivici/pkg/errors"
	"venivici/pkg/model"
	"venivici/pkg/sanitizer"
)

// PaymentResult is either a fresh authorization or a signal that the booking is already paid.
type PaymentResult struct {
	AlreadyPaid   bool
	Authorization *paystack.Authorization
}

func (s *bookingService) InitiatePayment(ctx context.Context, id string, req *model.PaymentRequest) (*PaymentResult, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id, "Failed to retrieve booking")
	}

	switch booking.PaymentStatus {
	case model.PaymentStatusPaid:
		s.log.Info("Payment already completed, not re-initiating", "booking_id", id)
		return &PaymentResult{AlreadyPaid: true}, nil
	case model.PaymentStatusAmountMismatch, model.PaymentStatusRefunded:
		return nil, apperrors.InvalidInput("Payment cannot be restarted for a booking in status " + string(booking.PaymentStatus))
	}

	req.Email = sanitizer.NormalizeEmail(req.Email)
	if req.Email == "" {
		return nil, apperrors.Validation("Customer email is required to initiate payment.", nil)
	}
	if err := s.validator.ValidatePayment(req); err != nil {
		return nil, validationError("Invalid payment request", err)
	}

	if paystack.ToSubunit(booking.TotalAmount) <= 0 {
		return nil, fieldError("totalAmount", "online payment is not available for a free booking")
	}

	if booking.PaymentStatus == model.PaymentStatusFailed {
		booking, err = s.repo.ReopenPayment(ctx, id)
		if err != nil {
			return nil, s.translate(err, id, "Failed to reopen booking payment")
		}
		s.log.Info("Failed payment reopened", "booking_id", id)
	}

	auth, err := s.startPayment(ctx, booking, req.Email)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Authorization: auth}, nil
}

// startPayment initializes a transaction tied to booking through its id in the metadata and
// stores the provider reference. On failure the booking payment is marked Failed.
func (s *bookingService) startPayment(ctx context.Context, booking *model.Booking, email string) (*paystack.Authorization, error) {
	reference := paystack.NewReference(booking.ID, s.now())

	auth, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:     email,
		Amount:    paystack.ToSubunit(booking.TotalAmount),
		Reference: reference,
		Metadata:  paystack.Metadata{BookingID: booking.ID},
	})
	if err != nil {
		s.log.Error("Payment initialization failed",
			"booking_id", booking.ID,
			"reference", reference,
			"error", err,
		)
		s.markInitiationFailed(ctx, booking.ID)
		return nil, gatewayError(err, "Failed to initialize payment")
	}

	if auth.Reference == "" {
		auth.Reference = reference
	}

	updated, err := s.repo.SetReference(ctx, booking.ID, auth.Reference)
	if err != nil {
		return nil, s.translate(err, booking.ID, "Failed to store payment reference")
	}
	*booking = *updated

	s.log.Info("Payment initialized",
		"booking_id", booking.ID,
		"reference", auth.Reference,
		"amount", booking.TotalAmount,
	)
	return auth, nil
}

func (s *bookingService) markInitiationFailed(ctx context.Context, id string) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.repo.TransitionPayment(ctx, id, model.PaymentTransition{To: model.PaymentStatusFailed}); err != nil {
		s.log.Error("Failed to mark booking payment as failed", "booking_id", id, "error", err)
	}
}

// gatewayError maps provider errors: unreachable is a 502, a refusal carries the provider's message.
func gatewayError(err error, fallback string) error {
	if paystack.IsUnavailable(err) {
		return apperrors.Gateway("Payment gateway is unavailable, please try again later", err)
	}
	if pe, ok := paystack.AsError(err); ok && pe.Message != "" {
		return apperrors.Payment(pe.Message, err)
	}
	return apperrors.Payment(fallback, err)
}
