package handler

import (
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"venivici/internal/bookings/service"
	apperrors "venivici/pkg/errors"
	httputil "venivici/pkg/http"
	"venivici/pkg/logger"
	"venivici/pkg/middleware"
	"venivici/pkg/model"
)

const (
	bookingsPath      = "/api/v1/bookings"
	bookingIDPath     = bookingsPath + "/id/:id"
	bookingStatusPath = bookingIDPath + "/status"
	bookingPayPath    = bookingIDPath + "/pay"
	verifyPaymentPath = bookingsPath + "/verify-payment"
	WebhookPath       = bookingsPath + "/webhook"
)

const (
	verificationSuccess = "success"
	verificationFailure = "failure"
)

type CreateBookingResponse struct {
	Message            string  `json:"message"`
	BookingID          string  `json:"bookingId"`
	TotalAmount        float64 `json:"totalAmount"`
	CustomerEmail      string  `json:"customerEmail"`
	PaystackAuthURL    string  `json:"paystackAuthUrl,omitempty"`
	PaystackAccessCode string  `json:"paystackAccessCode,omitempty"`
	PaystackReference  string  `json:"paystackReference,omitempty"`
	PaymentRequired    bool    `json:"paymentRequired"`
}

type InitiatePaymentResponse struct {
	Message          string `json:"message"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
	AccessCode       string `json:"access_code,omitempty"`
	Reference        string `json:"reference,omitempty"`
}

type VerificationResponse struct {
	Status    string `json:"status"`
	BookingID string `json:"bookingId,omitempty"`
	Message   string `json:"message"`
}

type BookingHandler struct {
	service       service.BookingService
	webhookSecret string
	log           *logger.Logger
}

func NewBookingHandler(service service.BookingService, webhookSecret string, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service:       service,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(bookingsPath, h.Create)
	router.GET(bookingsPath, h.GetAll)
	router.GET(bookingIDPath, h.GetByID)
	router.DELETE(bookingIDPath, h.Delete)
	router.PUT(bookingStatusPath, h.UpdateStatus)
	router.POST(bookingPayPath, h.InitiatePayment)
	router.POST(verifyPaymentPath, h.VerifyPayment)

	webhook := middleware.PaystackSignatureVerification(h.webhookSecret, h.log)(http.HandlerFunc(h.Webhook))
	router.Handler(http.MethodPost, WebhookPath, webhook)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	result, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	resp := CreateBookingResponse{
		BookingID:       result.Booking.ID,
		TotalAmount:     result.Booking.TotalAmount,
		CustomerEmail:   result.Booking.Email,
		PaymentRequired: result.PaymentRequired(),
	}
	status := http.StatusCreated
	if result.PaymentRequired() {
		status = http.StatusOK
		resp.Message = "Booking created, redirect to payment gateway."
		resp.PaystackAuthURL = result.Authorization.AuthorizationURL
		resp.PaystackAccessCode = result.Authorization.AccessCode
		resp.PaystackReference = result.Authorization.Reference
	} else {
		resp.Message = "Booking created successfully with payment pending (pay at location)."
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, booking); err != nil {
		h.log.Error("failed to write JSON response", "handler", "GetByID", "operation", "WriteJSON", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BookingStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, booking); err != nil {
		h.log.Error("failed to write JSON response", "handler", "UpdateStatus", "operation", "WriteJSON", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) InitiatePayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.PaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "InitiatePayment", err)
		return
	}

	result, err := h.service.InitiatePayment(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "InitiatePayment", err)
		return
	}

	resp := InitiatePaymentResponse{Message: "Payment already completed for this booking."}
	if !result.AlreadyPaid {
		resp = InitiatePaymentResponse{
			Message:          "Payment initiated",
			AuthorizationURL: result.Authorization.AuthorizationURL,
			AccessCode:       result.Authorization.AccessCode,
			Reference:        result.Authorization.Reference,
		}
	}

	if err := httputil.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "InitiatePayment", "operation", "WriteJSON", "error", err)
	}
}

func (h *BookingHandler) VerifyPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.VerifyPaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "VerifyPayment", err)
		return
	}

	result, err := h.service.VerifyPayment(r.Context(), req.Reference)
	if err != nil {
		h.writeError(w, "VerifyPayment", err)
		return
	}

	status := http.StatusOK
	resp := VerificationResponse{
		Status:    verificationSuccess,
		BookingID: result.BookingID,
		Message:   result.Message,
	}
	if !result.Settled() {
		status = http.StatusBadRequest
		resp.Status = verificationFailure
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "VerifyPayment", "operation", "WriteJSON", "error", err)
	}
}

// Webhook answers 200 for every event it has durably handled or deliberately ignored, so the
// provider stops retrying. Only unverifiable or unprocessable requests get another status.
func (h *BookingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, "Webhook", apperrors.InvalidInput("Failed to read webhook body"))
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), body)
	if err != nil {
		h.writeError(w, "Webhook", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, webhookMessage(result.Outcome)); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Webhook", "operation", "WriteMessage", "error", err)
	}
}

func webhookMessage(outcome service.Outcome) string {
	switch outcome {
	case service.OutcomePaid:
		return "OK"
	case service.OutcomeAlreadyPaid:
		return "OK - Already paid"
	case service.OutcomeAmountMismatch:
		return "OK - Amount mismatch recorded"
	case service.OutcomeFailed:
		return "OK - Charge failed event processed"
	case service.OutcomeNotPending:
		return "OK - Booking already resolved"
	case service.OutcomeNotCompleted:
		return "OK - Payment not completed"
	default:
		return "OK - Event not processed"
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
