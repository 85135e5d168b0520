package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"venivici/internal/bookings/service"
	"venivici/internal/payments/paystack"
	apperrors "venivici/pkg/errors"
	"venivici/pkg/logger"
	"venivici/pkg/middleware"
	"venivici/pkg/model"
)

const testWebhookSecret = "sk_test_secret"

type mockBookingService struct {
	createFunc          func(ctx context.Context, req *model.BookingRequest) (*service.CreateResult, error)
	getByIDFunc         func(ctx context.Context, id string) (*model.Booking, error)
	getAllFunc          func(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	updateStatusFunc    func(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error)
	deleteFunc          func(ctx context.Context, id string) error
	initiatePaymentFunc func(ctx context.Context, id string, req *model.PaymentRequest) (*service.PaymentResult, error)
	verifyPaymentFunc   func(ctx context.Context, reference string) (*service.Reconciliation, error)
	handleWebhookFunc   func(ctx context.Context, body []byte) (*service.Reconciliation, error)
}

func (m *mockBookingService) Create(ctx context.Context, req *model.BookingRequest) (*service.CreateResult, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &service.CreateResult{Booking: &model.Booking{ID: "b1"}}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, limit, offset)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, update)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingService) InitiatePayment(ctx context.Context, id string, req *model.PaymentRequest) (*service.PaymentResult, error) {
	if m.initiatePaymentFunc != nil {
		return m.initiatePaymentFunc(ctx, id, req)
	}
	return &service.PaymentResult{AlreadyPaid: true}, nil
}

func (m *mockBookingService) VerifyPayment(ctx context.Context, reference string) (*service.Reconciliation, error) {
	if m.verifyPaymentFunc != nil {
		return m.verifyPaymentFunc(ctx, reference)
	}
	return &service.Reconciliation{Outcome: service.OutcomePaid}, nil
}

func (m *mockBookingService) HandleWebhook(ctx context.Context, body []byte) (*service.Reconciliation, error) {
	if m.handleWebhookFunc != nil {
		return m.handleWebhookFunc(ctx, body)
	}
	return &service.Reconciliation{Outcome: service.OutcomeIgnored}, nil
}

func (m *mockBookingService) ReconcileReference(ctx context.Context, reference string, trigger service.Trigger) (*service.Reconciliation, error) {
	return nil, errors.New("not used by handlers")
}

func newRouter(svc service.BookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, testWebhookSecret, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestCreate_PayLater(t *testing.T) {
	router := newRouter(&mockBookingService{
		createFunc: func(_ context.Context, req *model.BookingRequest) (*service.CreateResult, error) {
			return &service.CreateResult{Booking: &model.Booking{ID: "b1", TotalAmount: 25000, Email: req.Email}}, nil
		},
	})

	rec := serve(router, http.MethodPost, "/api/v1/bookings", `{"email":"ada@example.com","paymentOption":"payLater"}`, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["paymentRequired"] != false || body["bookingId"] != "b1" || body["customerEmail"] != "ada@example.com" {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := body["paystackAuthUrl"]; ok {
		t.Error("payLater must not carry an authorization url")
	}
}

func TestCreate_PayNow(t *testing.T) {
	router := newRouter(&mockBookingService{
		createFunc: func(context.Context, *model.BookingRequest) (*service.CreateResult, error) {
			return &service.CreateResult{
				Booking: &model.Booking{ID: "b1", TotalAmount: 25000},
				Authorization: &paystack.Authorization{
					AuthorizationURL: "https://checkout.paystack.com/x",
					AccessCode:       "code",
					Reference:        "booking_b1_1",
				},
			}, nil
		},
	})

	rec := serve(router, http.MethodPost, "/api/v1/bookings", `{}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["paymentRequired"] != true || body["paystackAuthUrl"] != "https://checkout.paystack.com/x" || body["paystackReference"] != "booking_b1_1" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "malformed json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "validation", body: `{}`, err: apperrors.Validation("Invalid booking input", nil), wantStatus: http.StatusBadRequest},
		{name: "unknown service", body: `{}`, err: apperrors.NotFoundWithID("Service", "x"), wantStatus: http.StatusNotFound},
		{name: "gateway down", body: `{}`, err: apperrors.Gateway("down", nil), wantStatus: http.StatusBadGateway},
		{name: "gateway refusal", body: `{}`, err: apperrors.Payment("Invalid key", nil), wantStatus: http.StatusBadRequest},
		{name: "store down", body: `{}`, err: apperrors.Internal("Failed to create booking", nil), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockBookingService{
				createFunc: func(context.Context, *model.BookingRequest) (*service.CreateResult, error) {
					return nil, tt.err
				},
			})
			rec := serve(router, http.MethodPost, "/api/v1/bookings", tt.body, nil)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestInitiatePayment(t *testing.T) {
	var gotID, gotEmail string
	router := newRouter(&mockBookingService{
		initiatePaymentFunc: func(_ context.Context, id string, req *model.PaymentRequest) (*service.PaymentResult, error) {
			gotID, gotEmail = id, req.Email
			return &service.PaymentResult{Authorization: &paystack.Authorization{
				AuthorizationURL: "https://checkout.paystack.com/y",
				AccessCode:       "ac",
				Reference:        "booking_b2_1",
			}}, nil
		},
	})

	rec := serve(router, http.MethodPost, "/api/v1/bookings/id/b2/pay", `{"email":"a@b.co"}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != "b2" || gotEmail != "a@b.co" {
		t.Errorf("unexpected call %q %q", gotID, gotEmail)
	}
	body := decode(t, rec)
	if body["authorization_url"] != "https://checkout.paystack.com/y" || body["reference"] != "booking_b2_1" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestInitiatePayment_AlreadyPaid(t *testing.T) {
	router := newRouter(&mockBookingService{})

	rec := serve(router, http.MethodPost, "/api/v1/bookings/id/b2/pay", `{"email":"a@b.co"}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if msg := decode(t, rec)["message"]; msg != "Payment already completed for this booking." {
		t.Errorf("unexpected message %v", msg)
	}
}

func TestVerifyPayment(t *testing.T) {
	tests := []struct {
		name       string
		result     *service.Reconciliation
		wantStatus int
		wantState  string
	}{
		{
			name:       "paid",
			result:     &service.Reconciliation{Outcome: service.OutcomePaid, BookingID: "b1", Message: "Payment verified and booking updated."},
			wantStatus: http.StatusOK,
			wantState:  "success",
		},
		{
			name:       "already paid",
			result:     &service.Reconciliation{Outcome: service.OutcomeAlreadyPaid, BookingID: "b1", Message: "Payment already processed."},
			wantStatus: http.StatusOK,
			wantState:  "success",
		},
		{
			name:       "amount mismatch",
			result:     &service.Reconciliation{Outcome: service.OutcomeAmountMismatch, BookingID: "b1", Message: "Amount mismatch."},
			wantStatus: http.StatusBadRequest,
			wantState:  "failure",
		},
		{
			name:       "not completed",
			result:     &service.Reconciliation{Outcome: service.OutcomeNotCompleted, BookingID: "b1", Message: "Payment not completed"},
			wantStatus: http.StatusBadRequest,
			wantState:  "failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockBookingService{
				verifyPaymentFunc: func(_ context.Context, reference string) (*service.Reconciliation, error) {
					if reference != "ref_1" {
						t.Errorf("unexpected reference %q", reference)
					}
					return tt.result, nil
				},
			})

			rec := serve(router, http.MethodPost, "/api/v1/bookings/verify-payment", `{"reference":"ref_1"}`, nil)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			body := decode(t, rec)
			if body["status"] != tt.wantState || body["bookingId"] != "b1" || body["message"] != tt.result.Message {
				t.Errorf("unexpected body %v", body)
			}
		})
	}
}

func TestWebhook_Signature(t *testing.T) {
	called := false
	router := newRouter(&mockBookingService{
		handleWebhookFunc: func(_ context.Context, body []byte) (*service.Reconciliation, error) {
			called = true
			if !strings.Contains(string(body), "charge.success") {
				t.Errorf("handler did not receive the raw body: %s", body)
			}
			return &service.Reconciliation{Outcome: service.OutcomePaid}, nil
		},
	})
	payload := `{"event":"charge.success","data":{"reference":"ref_1"}}`

	rec := serve(router, http.MethodPost, WebhookPath, payload, map[string]string{
		middleware.PaystackSignatureHeader: "deadbeef",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad signature, got %d", rec.Code)
	}
	if called {
		t.Fatal("service must not run for an unauthenticated webhook")
	}

	rec = serve(router, http.MethodPost, WebhookPath, payload, nil)
	if rec.Code != http.StatusUnauthorized || called {
		t.Fatalf("expected 401 for a missing signature, got %d", rec.Code)
	}

	rec = serve(router, http.MethodPost, WebhookPath, payload, map[string]string{
		middleware.PaystackSignatureHeader: middleware.SignPaystackPayload([]byte(payload), testWebhookSecret),
	})
	if rec.Code != http.StatusOK || !called {
		t.Fatalf("expected 200 for a valid signature, got %d", rec.Code)
	}
	if msg := decode(t, rec)["message"]; msg != "OK" {
		t.Errorf("unexpected message %v", msg)
	}
}

func TestWebhook_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		result     *service.Reconciliation
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "already paid", result: &service.Reconciliation{Outcome: service.OutcomeAlreadyPaid}, wantStatus: http.StatusOK, wantMsg: "OK - Already paid"},
		{name: "mismatch", result: &service.Reconciliation{Outcome: service.OutcomeAmountMismatch}, wantStatus: http.StatusOK, wantMsg: "OK - Amount mismatch recorded"},
		{name: "failed", result: &service.Reconciliation{Outcome: service.OutcomeFailed}, wantStatus: http.StatusOK, wantMsg: "OK - Charge failed event processed"},
		{name: "ignored", result: &service.Reconciliation{Outcome: service.OutcomeIgnored}, wantStatus: http.StatusOK, wantMsg: "OK - Event not processed"},
		{name: "malformed", err: apperrors.InvalidInput("Malformed webhook payload"), wantStatus: http.StatusBadRequest},
		{name: "unknown booking", err: apperrors.NotFound("Booking"), wantStatus: http.StatusNotFound},
		{name: "verification unavailable", err: apperrors.Gateway("down", nil), wantStatus: http.StatusBadGateway},
	}

	payload := `{"event":"charge.success","data":{"reference":"ref_1"}}`
	signature := middleware.SignPaystackPayload([]byte(payload), testWebhookSecret)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockBookingService{
				handleWebhookFunc: func(context.Context, []byte) (*service.Reconciliation, error) {
					return tt.result, tt.err
				},
			})

			rec := serve(router, http.MethodPost, WebhookPath, payload, map[string]string{
				middleware.PaystackSignatureHeader: signature,
			})
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantMsg != "" && decode(t, rec)["message"] != tt.wantMsg {
				t.Errorf("expected %q, got %s", tt.wantMsg, rec.Body.String())
			}
		})
	}
}

func TestAdminRoutes(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	var deleted string
	router := newRouter(&mockBookingService{
		getAllFunc: func(_ context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
			gotLimit, gotOffset = limit, offset
			return []*model.Booking{{ID: "b1"}}, 7, nil
		},
		deleteFunc: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
		getByIDFunc: func(_ context.Context, id string) (*model.Booking, error) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		},
		updateStatusFunc: func(_ context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
			return &model.Booking{ID: id, Status: *update.Status}, nil
		},
	})

	rec := serve(router, http.MethodGet, "/api/v1/bookings?limit=5&offset=10", "", nil)
	if rec.Code != http.StatusOK || gotLimit != 5 || gotOffset != 10 {
		t.Fatalf("unexpected list call: %d limit=%d offset=%d", rec.Code, gotLimit, gotOffset)
	}
	if total := decode(t, rec)["total"]; total != float64(7) {
		t.Errorf("expected total 7, got %v", total)
	}

	if rec := serve(router, http.MethodGet, "/api/v1/bookings?limit=abc", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", rec.Code)
	}

	if rec := serve(router, http.MethodGet, "/api/v1/bookings/id/missing", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = serve(router, http.MethodPut, "/api/v1/bookings/id/b1/status", `{"status":"Completed"}`, nil)
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "Completed" {
		t.Errorf("unexpected status update response %d %s", rec.Code, rec.Body.String())
	}

	if rec := serve(router, http.MethodDelete, "/api/v1/bookings/id/b1", "", nil); rec.Code != http.StatusNoContent || deleted != "b1" {
		t.Errorf("expected 204 deleting b1, got %d %q", rec.Code, deleted)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context, *readpref.ReadPref) error { return p.err }

func TestHealth(t *testing.T) {
	router := httprouter.New()
	NewHealthHandler(stubPinger{}, logger.Discard()).RegisterRoutes(router)

	if rec := serve(router, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/ready", "", nil); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	down := httprouter.New()
	NewHealthHandler(stubPinger{err: errors.New("no reachable servers")}, logger.Discard()).RegisterRoutes(down)
	rec := serve(down, http.MethodGet, "/ready", "", nil)
	if rec.Code != http.StatusServiceUnavailable || decode(t, rec)["database"] != "error" {
		t.Errorf("expected 503, got %d %s", rec.Code, rec.Body.String())
	}
}
