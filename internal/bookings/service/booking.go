package service

import (
	"context"
	"errors"
	"strings"
	"time"

	bookingserrors "venivici/internal/bookings/errors"
	"venivici/internal/bookings/repository"
	"venivici/internal/bookings/validator"
	"venivici/internal/notifications"
	"venivici/internal/payments/paystack"
	apperrors "venivici/pkg/errors"
	"venivici/pkg/logger"
	"venivici/pkg/model"
	"venivici/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*CreateResult, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error)
	Delete(ctx context.Context, id string) error

	InitiatePayment(ctx context.Context, id string, req *model.PaymentRequest) (*PaymentResult, error)
	VerifyPayment(ctx context.Context, reference string) (*Reconciliation, error)
	HandleWebhook(ctx context.Context, body []byte) (*Reconciliation, error)
	ReconcileReference(ctx context.Context, reference string, trigger Trigger) (*Reconciliation, error)
}

// ServiceCatalog resolves the service a booking is made for. Errors are expected to be AppErrors.
type ServiceCatalog interface {
	GetByID(ctx context.Context, id string) (*model.Service, error)
}

// PaymentGateway is the remote payment provider.
type PaymentGateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error)
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// CreateResult carries the stored booking and, for payNow, the handle to complete payment.
type CreateResult struct {
	Booking       *model.Booking
	Authorization *paystack.Authorization
}

func (r *CreateResult) PaymentRequired() bool {
	return r.Authorization != nil
}

type bookingService struct {
	repo      repository.BookingRepository
	catalog   ServiceCatalog
	gateway   PaymentGateway
	sink      notifications.Sink
	validator *validator.BookingValidator
	log       *logger.Logger
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	catalog ServiceCatalog,
	gateway PaymentGateway,
	sink notifications.Sink,
	validator *validator.BookingValidator,
	log *logger.Logger,
) BookingService {
	return &bookingService{
		repo:      repo,
		catalog:   catalog,
		gateway:   gateway,
		sink:      sink,
		validator: validator,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*CreateResult, error) {
	sanitize(req)
	if err := s.validator.Validate(req); err != nil {
		s.log.Warn("Booking validation failed", "email", req.Email, "error", err)
		return nil, validationError("Invalid booking input", err)
	}

	svc, err := s.catalog.GetByID(ctx, req.ServiceID)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to load service", err)
	}

	price, ok := svc.BookablePrice()
	if !ok {
		return nil, fieldError("serviceId", "selected service has no price configured")
	}

	option := model.PaymentOption(req.PaymentOption)
	// checked before persisting so a rejected payNow request leaves no orphan booking
	if option == model.PaymentOptionPayNow && paystack.ToSubunit(price) <= 0 {
		return nil, fieldError("paymentOption", "online payment is not available for a free service")
	}

	date, err := validator.ParseBookingDate(req.SelectedDate)
	if err != nil {
		return nil, fieldError("selectedDate", "must be a date in YYYY-MM-DD format")
	}

	booking := &model.Booking{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Phone:            req.Phone,
		ServiceID:        svc.ID,
		ServiceName:      svc.Name,
		SelectedDate:     date,
		SelectedTimeSlot: req.SelectedTimeSlot,
		Message:          req.Message,
		TotalAmount:      price,
		PaymentOption:    option,
		PaymentStatus:    model.PaymentStatusPending,
		Status:           model.BookingStatusPending,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, s.translate(err, "", "Failed to create booking")
	}

	s.log.Info("Booking created",
		"booking_id", booking.ID,
		"service", booking.ServiceName,
		"payment_option", booking.PaymentOption,
		"total_amount", booking.TotalAmount,
	)

	if option == model.PaymentOptionPayLater {
		s.notifyPendingPayment(ctx, booking)
		return &CreateResult{Booking: booking}, nil
	}

	auth, err := s.startPayment(ctx, booking, booking.Email)
	if err != nil {
		return nil, err
	}
	return &CreateResult{Booking: booking, Authorization: auth}, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	bookings, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.log.Error("Failed to list bookings", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.log.Error("Failed to count bookings", "error", err)
		return nil, 0, apperrors.Internal("Failed to count bookings", err)
	}
	return bookings, total, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if update.Notes != nil {
		*update.Notes = sanitizer.NormalizeMessage(*update.Notes)
	}
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		return nil, validationError("Invalid status update", err)
	}

	booking, err := s.repo.UpdateStatus(ctx, id, update)
	if err != nil {
		return nil, s.translate(err, id, "Failed to update booking status")
	}

	s.log.Info("Booking status overwritten",
		"booking_id", id,
		"payment_status", booking.PaymentStatus,
		"status", booking.Status,
	)
	return booking, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(err, id, "Failed to delete booking")
	}

	s.log.Info("Booking deleted", "booking_id", id)
	return nil
}

func (s *bookingService) translate(err error, id, message string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, bookingserrors.ErrDuplicateReference):
		return apperrors.Conflict("Payment reference is already attached to another booking")
	case errors.Is(err, bookingserrors.ErrNotPending):
		return apperrors.Conflict("Booking payment is no longer pending")
	}
	s.log.Error(message, "booking_id", id, "error", err)
	return apperrors.Internal(message, err)
}

// Notification failures never reach the caller. The payment state is already committed.
func (s *bookingService) notifyPendingPayment(ctx context.Context, booking *model.Booking) {
	ctx = context.WithoutCancel(ctx)
	if err := s.sink.SendPendingPayment(ctx, booking.Email, booking); err != nil {
		s.log.Error("Failed to send pending payment notification", "booking_id", booking.ID, "error", err)
	}
}

func (s *bookingService) notifyPaid(ctx context.Context, booking *model.Booking, receipt model.Receipt) {
	ctx = context.WithoutCancel(ctx)
	if err := s.sink.SendBookingConfirmation(ctx, booking.Email, booking); err != nil {
		s.log.Error("Failed to send booking confirmation", "booking_id", booking.ID, "error", err)
	}
	if err := s.sink.SendPaymentReceipt(ctx, booking.Email, booking, receipt); err != nil {
		s.log.Error("Failed to send payment receipt", "booking_id", booking.ID, "reference", receipt.Reference, "error", err)
	}
}

func sanitize(req *model.BookingRequest) {
	req.FirstName = sanitizer.NormalizeName(req.FirstName)
	req.LastName = sanitizer.NormalizeName(req.LastName)
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if phone := sanitizer.NormalizePhone(req.Phone); phone != "" {
		req.Phone = phone
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.SelectedDate = strings.TrimSpace(req.SelectedDate)
	req.SelectedTimeSlot = sanitizer.TrimAndNormalize(req.SelectedTimeSlot)
	req.Message = sanitizer.NormalizeMessage(req.Message)
	req.PaymentOption = strings.TrimSpace(req.PaymentOption)
}

func validationError(message string, err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return apperrors.Validation(message, map[string]any{"fields": errs})
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func fieldError(field, message string) error {
	return apperrors.Validation("Invalid booking input", map[string]any{
		"fields": validator.ValidationErrors{{Field: field, Message: message}},
	})
}
