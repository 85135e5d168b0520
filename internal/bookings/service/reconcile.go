package service

import (
	"context"
	"errors"
	"strings"

	bookingserrors "venivici/internal/bookings/errors"
	"venivici/internal/payments/paystack"
	apperrors "venivici/pkg/errors"
	"venivici/pkg/model"
)

// Outcome is what a reconciliation did to the booking.
type Outcome string

const (
	OutcomePaid           Outcome = "paid"
	OutcomeAlreadyPaid    Outcome = "already_paid"
	OutcomeAmountMismatch Outcome = "amount_mismatch"
	OutcomeFailed         Outcome = "failed"
	// OutcomeNotCompleted means the provider has no final answer yet. Nothing was written.
	OutcomeNotCompleted Outcome = "not_completed"
	// OutcomeNotPending means the booking was resolved some other way and was left untouched.
	OutcomeNotPending Outcome = "not_pending"
	OutcomeIgnored    Outcome = "ignored"
)

// Trigger names the channel that asked for a reconciliation.
type Trigger string

const (
	TriggerVerify  Trigger = "verify"
	TriggerWebhook Trigger = "webhook"
	TriggerSweep   Trigger = "sweep"
)

type Reconciliation struct {
	Outcome   Outcome
	BookingID string
	Reference string
	Booking   *model.Booking
	Message   string
}

// Settled reports whether the customer's payment is in place after the reconciliation.
func (r *Reconciliation) Settled() bool {
	return r.Outcome == OutcomePaid || r.Outcome == OutcomeAlreadyPaid
}

func (s *bookingService) VerifyPayment(ctx context.Context, reference string) (*Reconciliation, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperrors.Validation("Payment reference is required for verification.", nil)
	}
	if err := s.validator.ValidateVerification(&model.VerifyPaymentRequest{Reference: reference}); err != nil {
		return nil, validationError("Invalid payment reference", err)
	}
	return s.ReconcileReference(ctx, reference, TriggerVerify)
}

func (s *bookingService) HandleWebhook(ctx context.Context, body []byte) (*Reconciliation, error) {
	event, err := paystack.ParseEvent(body)
	if err != nil {
		s.log.Warn("Rejected webhook payload", "error", err)
		return nil, apperrors.InvalidInput("Malformed webhook payload")
	}

	if !event.Actionable() {
		reference := event.Reference()
		s.log.Info("Webhook event ignored", "event", event.Event, "reference", reference)
		return &Reconciliation{
			Outcome:   OutcomeIgnored,
			Reference: reference,
			Message:   "Event not processed",
		}, nil
	}

	charge, err := event.Charge()
	if err != nil {
		s.log.Warn("Rejected webhook payload", "event", event.Event, "error", err)
		return nil, apperrors.InvalidInput("Malformed webhook payload")
	}

	reference := strings.TrimSpace(charge.Reference)
	if reference == "" {
		return nil, apperrors.InvalidInput("Webhook event has no transaction reference")
	}

	s.log.Info("Webhook event received",
		"event", event.Event,
		"reference", reference,
		"claimed_amount", charge.Amount,
		"booking_id", charge.Metadata.BookingID,
	)
	// the event body is only a hint, the verified transaction decides
	return s.ReconcileReference(ctx, reference, TriggerWebhook)
}

// ReconcileReference verifies reference with the provider and applies the result to the booking
// named in the transaction metadata. Every write is conditional on the payment still being
// Pending, so concurrent triggers for the same payment produce one effective transition and
// one set of notifications.
func (s *bookingService) ReconcileReference(ctx context.Context, reference string, trigger Trigger) (*Reconciliation, error) {
	tx, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		s.log.Error("Payment verification failed",
			"reference", reference,
			"trigger", trigger,
			"error", err,
		)
		return nil, gatewayError(err, "Failed to verify payment")
	}
	if tx.Reference == "" {
		tx.Reference = reference
	}

	bookingID := tx.Metadata.BookingID
	if bookingID == "" {
		s.log.Error("Verified transaction carries no booking id",
			"reference", reference,
			"trigger", trigger,
		)
		return nil, apperrors.NotFound("Booking for payment reference " + reference)
	}

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, s.translate(err, bookingID, "Failed to retrieve booking")
	}

	result := &Reconciliation{
		BookingID: booking.ID,
		Reference: tx.Reference,
		Booking:   booking,
	}

	if booking.PaymentStatus == model.PaymentStatusPaid {
		s.log.Info("Payment already processed",
			"booking_id", booking.ID,
			"reference", tx.Reference,
			"trigger", trigger,
		)
		result.Outcome = OutcomeAlreadyPaid
		result.Message = "Payment already processed."
		return result, nil
	}

	switch tx.Outcome() {
	case paystack.OutcomeSucceeded:
		return s.applySuccess(ctx, result, tx, trigger)
	case paystack.OutcomeFailed:
		return s.applyFailure(ctx, result, tx, trigger)
	default:
		s.log.Info("Payment not completed yet",
			"booking_id", booking.ID,
			"reference", tx.Reference,
			"provider_status", tx.Status,
			"trigger", trigger,
		)
		result.Outcome = OutcomeNotCompleted
		result.Message = "Payment not completed"
		return result, nil
	}
}

func (s *bookingService) applySuccess(ctx context.Context, result *Reconciliation, tx *paystack.Transaction, trigger Trigger) (*Reconciliation, error) {
	booking := result.Booking
	if booking.PaymentStatus != model.PaymentStatusPending {
		s.log.Error("Successful charge for a booking that is no longer pending, needs manual review",
			"booking_id", booking.ID,
			"reference", tx.Reference,
			"payment_status", booking.PaymentStatus,
			"trigger", trigger,
		)
		return notPending(result), nil
	}

	now := s.now()
	expected := paystack.ToSubunit(booking.TotalAmount)

	if tx.Amount != expected {
		updated, err := s.repo.TransitionPayment(ctx, booking.ID, model.PaymentTransition{
			To:        model.PaymentStatusAmountMismatch,
			Reference: tx.Reference,
			PaidAt:    &now,
		})
		if err != nil {
			return s.lostRace(ctx, result, err)
		}

		s.log.Error("Payment amount mismatch, booking held for manual review",
			"booking_id", booking.ID,
			"reference", tx.Reference,
			"expected_amount", expected,
			"paid_amount", tx.Amount,
			"trigger", trigger,
		)
		result.Booking = updated
		result.Outcome = OutcomeAmountMismatch
		result.Message = "Amount mismatch."
		return result, nil
	}

	updated, err := s.repo.TransitionPayment(ctx, booking.ID, model.PaymentTransition{
		To:             model.PaymentStatusPaid,
		Reference:      tx.Reference,
		PaidAt:         &now,
		ConfirmBooking: true,
	})
	if err != nil {
		return s.lostRace(ctx, result, err)
	}

	s.log.Info("Payment verified",
		"booking_id", updated.ID,
		"reference", tx.Reference,
		"status", updated.Status,
		"trigger", trigger,
	)

	receipt := model.Receipt{
		Reference:  tx.Reference,
		AmountPaid: paystack.FromSubunit(tx.Amount),
		Currency:   tx.Currency,
		PaidAt:     now,
	}
	if tx.PaidAt != nil {
		receipt.PaidAt = *tx.PaidAt
	}
	s.notifyPaid(ctx, updated, receipt)

	result.Booking = updated
	result.Outcome = OutcomePaid
	result.Message = "Payment verified and booking updated."
	return result, nil
}

func (s *bookingService) applyFailure(ctx context.Context, result *Reconciliation, tx *paystack.Transaction, trigger Trigger) (*Reconciliation, error) {
	booking := result.Booking
	if booking.PaymentStatus != model.PaymentStatusPending {
		s.log.Info("Failed charge for a resolved booking left untouched",
			"booking_id", booking.ID,
			"reference", tx.Reference,
			"payment_status", booking.PaymentStatus,
			"trigger", trigger,
		)
		return notPending(result), nil
	}

	updated, err := s.repo.TransitionPayment(ctx, booking.ID, model.PaymentTransition{
		To:        model.PaymentStatusFailed,
		Reference: tx.Reference,
	})
	if err != nil {
		return s.lostRace(ctx, result, err)
	}

	s.log.Warn("Payment failed",
		"booking_id", booking.ID,
		"reference", tx.Reference,
		"gateway_response", tx.GatewayResponse,
		"trigger", trigger,
	)

	result.Booking = updated
	result.Outcome = OutcomeFailed
	result.Message = "Payment failed"
	if tx.GatewayResponse != "" {
		result.Message += ": " + tx.GatewayResponse
	}
	return result, nil
}

// lostRace handles a conditional write that matched nothing because another trigger resolved
// the payment between our read and our write.
func (s *bookingService) lostRace(ctx context.Context, result *Reconciliation, err error) (*Reconciliation, error) {
	if !errors.Is(err, bookingserrors.ErrNotPending) {
		return nil, s.translate(err, result.BookingID, "Failed to update booking payment")
	}

	current, err := s.repo.FindByID(ctx, result.BookingID)
	if err != nil {
		return nil, s.translate(err, result.BookingID, "Failed to retrieve booking")
	}
	result.Booking = current

	if current.PaymentStatus == model.PaymentStatusPaid {
		s.log.Info("Payment processed concurrently", "booking_id", current.ID, "reference", result.Reference)
		result.Outcome = OutcomeAlreadyPaid
		result.Message = "Payment already processed."
		return result, nil
	}
	return notPending(result), nil
}

func notPending(result *Reconciliation) *Reconciliation {
	result.Outcome = OutcomeNotPending
	result.Message = "Booking payment is no longer pending (" + string(result.Booking.PaymentStatus) + ")"
	return result
}
