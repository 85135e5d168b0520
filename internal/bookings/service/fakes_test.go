package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	bookingserrors "venivici/internal/bookings/errors"
	"venivici/internal/bookings/validator"
	"venivici/internal/payments/paystack"
	apperrors "venivici/pkg/errors"
	"venivici/pkg/logger"
	"venivici/pkg/model"
)

// memoryRepository mirrors the Mongo repository's conditional writes under a mutex.
type memoryRepository struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*model.Booking

	createErr error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{bookings: make(map[string]*model.Booking)}
}

func (m *memoryRepository) Create(_ context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	booking.ID = fmt.Sprintf("%024x", m.seq)
	booking.CreatedAt = time.Now().UTC()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	m.bookings[booking.ID] = &stored
	return nil
}

func (m *memoryRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	out := *b
	return &out, nil
}

func (m *memoryRepository) FindAll(_ context.Context, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*model.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out := *b
		all = append(all, &out)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if offset >= int64(len(all)) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *memoryRepository) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.bookings)), nil
}

func (m *memoryRepository) FindAwaitingPayment(_ context.Context, olderThan time.Time, limit int) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Booking, 0)
	for _, b := range m.bookings {
		if b.PaymentOption == model.PaymentOptionPayNow && b.PaymentStatus == model.PaymentStatusPending &&
			b.ProviderReference != "" && b.CreatedAt.Before(olderThan) {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].PaymentCheckedAt, out[j].PaymentCheckedAt
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].ID < out[j].ID
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepository) MarkPaymentChecked(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok && b.PaymentStatus == model.PaymentStatusPending {
		checked := at
		b.PaymentCheckedAt = &checked
	}
	return nil
}

func (m *memoryRepository) conditional(id string, from model.PaymentStatus, apply func(b *model.Booking)) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	if b.PaymentStatus != from {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotPending, id)
	}
	apply(b)
	b.UpdatedAt = time.Now().UTC()
	out := *b
	return &out, nil
}

func (m *memoryRepository) SetReference(_ context.Context, id string, reference string) (*model.Booking, error) {
	return m.conditional(id, model.PaymentStatusPending, func(b *model.Booking) {
		b.ProviderReference = reference
	})
}

func (m *memoryRepository) TransitionPayment(_ context.Context, id string, t model.PaymentTransition) (*model.Booking, error) {
	return m.conditional(id, model.PaymentStatusPending, func(b *model.Booking) {
		b.PaymentStatus = t.To
		if t.Reference != "" {
			b.ProviderReference = t.Reference
		}
		if t.PaidAt != nil {
			paidAt := *t.PaidAt
			b.PaidAt = &paidAt
		}
		if t.ConfirmBooking && b.Status == model.BookingStatusPending {
			b.Status = model.BookingStatusConfirmed
		}
	})
}

func (m *memoryRepository) ReopenPayment(_ context.Context, id string) (*model.Booking, error) {
	return m.conditional(id, model.PaymentStatusFailed, func(b *model.Booking) {
		b.PaymentStatus = model.PaymentStatusPending
		b.ProviderReference = ""
	})
}

func (m *memoryRepository) UpdateStatus(_ context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	if update.PaymentStatus != nil {
		b.PaymentStatus = *update.PaymentStatus
	}
	if update.Status != nil {
		b.Status = *update.Status
	}
	if update.Notes != nil {
		b.Message = *update.Notes
	}
	out := *b
	return &out, nil
}

func (m *memoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	delete(m.bookings, id)
	return nil
}

// set overwrites fields of a stored booking directly, as an admin or earlier event would have.
func (m *memoryRepository) set(id string, fn func(b *model.Booking)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.bookings[id])
}

func (m *memoryRepository) get(id string) model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.bookings[id]
}

type fakeCatalog struct {
	mu       sync.Mutex
	services map[string]*model.Service
}

func newFakeCatalog(services ...*model.Service) *fakeCatalog {
	c := &fakeCatalog{services: make(map[string]*model.Service)}
	for _, svc := range services {
		c.services[svc.ID] = svc
	}
	return c
}

func (c *fakeCatalog) GetByID(_ context.Context, id string) (*model.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	svc, ok := c.services[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("Service", id)
	}
	out := *svc
	if svc.Price != nil {
		price := *svc.Price
		out.Price = &price
	}
	return &out, nil
}

func (c *fakeCatalog) setPrice(id string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[id].Price = &price
}

type mockGateway struct {
	mu          sync.Mutex
	initialized []paystack.InitializeRequest

	initializeFunc func(ctx context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error)
	verifyFunc     func(ctx context.Context, reference string) (*paystack.Transaction, error)
}

func (g *mockGateway) Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error) {
	g.mu.Lock()
	g.initialized = append(g.initialized, req)
	g.mu.Unlock()
	if g.initializeFunc != nil {
		return g.initializeFunc(ctx, req)
	}
	return &paystack.Authorization{
		AuthorizationURL: "https://checkout.paystack.com/" + req.Reference,
		AccessCode:       "access_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (g *mockGateway) Verify(ctx context.Context, reference string) (*paystack.Transaction, error) {
	if g.verifyFunc != nil {
		return g.verifyFunc(ctx, reference)
	}
	return nil, fmt.Errorf("%w: no verify configured", paystack.ErrUnavailable)
}

func (g *mockGateway) initializeCalls() []paystack.InitializeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]paystack.InitializeRequest(nil), g.initialized...)
}

// recordingSink counts notifications per kind.
type recordingSink struct {
	mu    sync.Mutex
	sent  map[string]int
	fails bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{sent: make(map[string]int)}
}

func (s *recordingSink) record(kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[kind]++
	if s.fails {
		return fmt.Errorf("smtp: connection refused")
	}
	return nil
}

func (s *recordingSink) SendBookingConfirmation(_ context.Context, _ string, _ *model.Booking) error {
	return s.record("confirmation")
}

func (s *recordingSink) SendPaymentReceipt(_ context.Context, _ string, _ *model.Booking, _ model.Receipt) error {
	return s.record("receipt")
}

func (s *recordingSink) SendPendingPayment(_ context.Context, _ string, _ *model.Booking) error {
	return s.record("pending")
}

func (s *recordingSink) count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[kind]
}

func (s *recordingSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.sent {
		n += c
	}
	return n
}

const testServiceID = "65f1c2a3b4d5e6f708192a3b"

type fixture struct {
	repo    *memoryRepository
	catalog *fakeCatalog
	gateway *mockGateway
	sink    *recordingSink
	service BookingService
}

func newFixture(price float64) *fixture {
	f := &fixture{
		repo: newMemoryRepository(),
		catalog: newFakeCatalog(&model.Service{
			ID:       testServiceID,
			Name:     "Acupuncture",
			Duration: "30 min",
			Price:    &price,
		}),
		gateway: &mockGateway{},
		sink:    newRecordingSink(),
	}
	log := logger.Discard()
	f.service = NewBookingService(f.repo, f.catalog, f.gateway, f.sink, validator.NewBookingValidator(log), log)
	return f
}

func bookingRequest(option model.PaymentOption) *model.BookingRequest {
	return &model.BookingRequest{
		FirstName:        "  Ada ",
		LastName:         "Obi",
		Email:            "Ada@Example.com",
		Phone:            "08031234567",
		ServiceID:        testServiceID,
		SelectedDate:     "2025-04-12",
		SelectedTimeSlot: "10:00 AM",
		PaymentOption:    string(option),
	}
}

// verifiedAs makes the gateway report a transaction for bookingID with the given status and amount.
func (f *fixture) verifiedAs(bookingID, status string, amount int64) {
	f.gateway.verifyFunc = func(_ context.Context, reference string) (*paystack.Transaction, error) {
		return &paystack.Transaction{
			Status:    status,
			Reference: reference,
			Amount:    amount,
			Currency:  "NGN",
			Metadata:  paystack.Metadata{BookingID: bookingID},
		}, nil
	}
}
