//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "venivici/internal/bookings/errors"
	"venivici/internal/bookings/repository"
	mongoMigration "venivici/internal/migrations/mongo"
	"venivici/pkg/client"
	"venivici/pkg/config"
	"venivici/pkg/logger"
	"venivici/pkg/model"
)

const defaultTestMongoURI = "mongodb://localhost:27017"

// newIntegrationRepository connects to TEST_MONGO_URI, migrates a throwaway database and drops it on cleanup.
func newIntegrationRepository(t *testing.T) repository.BookingRepository {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		uri = defaultTestMongoURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := mc.Ping(ctx, nil); err != nil {
		t.Skipf("MongoDB not reachable at %s: %v", uri, err)
	}

	dbName := fmt.Sprintf("venivici_it_%d", time.Now().UnixNano())
	if err := mongoMigration.RunMigration(ctx, mc.Database(dbName), logger.Discard()); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mc.Database(dbName).Drop(ctx); err != nil {
			t.Logf("warning: failed to drop %s: %v", dbName, err)
		}
		if err := mc.Disconnect(ctx); err != nil {
			t.Logf("warning: failed to disconnect from MongoDB: %v", err)
		}
	})

	cfg := &config.Config{
		MongoDatabaseName: dbName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Client:            &client.Client{Mongo: mc},
	}
	return repository.NewMongoBookingRepository(cfg)
}

func createPayNow(t *testing.T, repo repository.BookingRepository) *model.Booking {
	t.Helper()
	booking := &model.Booking{
		FirstName:        "Ada",
		LastName:         "Obi",
		Email:            "ada@example.com",
		Phone:            "+2348031234567",
		ServiceID:        "6650f1a2b3c4d5e6f7a8b9c0",
		ServiceName:      "Acupuncture",
		SelectedDate:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		SelectedTimeSlot: "10:00 AM",
		TotalAmount:      60000,
		PaymentOption:    model.PaymentOptionPayNow,
		PaymentStatus:    model.PaymentStatusPending,
		Status:           model.BookingStatusPending,
	}
	if err := repo.Create(context.Background(), booking); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return booking
}

func TestIntegration_TransitionPayment_SingleWinner(t *testing.T) {
	repo := newIntegrationRepository(t)
	booking := createPayNow(t, repo)
	ctx := context.Background()

	if _, err := repo.SetReference(ctx, booking.ID, "ref_race"); err != nil {
		t.Fatalf("set reference failed: %v", err)
	}

	paidAt := time.Now().UTC()
	transition := model.PaymentTransition{
		To:             model.PaymentStatusPaid,
		Reference:      "ref_race",
		PaidAt:         &paidAt,
		ConfirmBooking: true,
	}

	const writers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		won      int
		rejected int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.TransitionPayment(ctx, booking.ID, transition)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, bookingserrors.ErrNotPending):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if won != 1 || rejected != writers-1 {
		t.Fatalf("expected exactly one winner, got won=%d rejected=%d", won, rejected)
	}

	stored, err := repo.FindByID(ctx, booking.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if stored.PaymentStatus != model.PaymentStatusPaid || stored.Status != model.BookingStatusConfirmed {
		t.Errorf("unexpected state %s/%s", stored.PaymentStatus, stored.Status)
	}
}

func TestIntegration_ReopenPayment(t *testing.T) {
	repo := newIntegrationRepository(t)
	booking := createPayNow(t, repo)
	ctx := context.Background()

	if _, err := repo.TransitionPayment(ctx, booking.ID, model.PaymentTransition{To: model.PaymentStatusFailed, Reference: "ref_failed"}); err != nil {
		t.Fatalf("fail transition failed: %v", err)
	}

	reopened, err := repo.ReopenPayment(ctx, booking.ID)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if reopened.PaymentStatus != model.PaymentStatusPending || reopened.ProviderReference != "" {
		t.Errorf("expected pending without reference, got %s %q", reopened.PaymentStatus, reopened.ProviderReference)
	}

	if _, err := repo.ReopenPayment(ctx, booking.ID); !errors.Is(err, bookingserrors.ErrNotPending) {
		t.Errorf("reopening a pending payment must be rejected, got %v", err)
	}
}

func TestIntegration_DuplicateReference(t *testing.T) {
	repo := newIntegrationRepository(t)
	first := createPayNow(t, repo)
	second := createPayNow(t, repo)
	ctx := context.Background()

	if _, err := repo.SetReference(ctx, first.ID, "ref_shared"); err != nil {
		t.Fatalf("set reference failed: %v", err)
	}
	if _, err := repo.SetReference(ctx, second.ID, "ref_shared"); !errors.Is(err, bookingserrors.ErrDuplicateReference) {
		t.Errorf("expected ErrDuplicateReference, got %v", err)
	}
}

func TestIntegration_FindAwaitingPayment(t *testing.T) {
	repo := newIntegrationRepository(t)
	withRef := createPayNow(t, repo)
	createPayNow(t, repo)
	ctx := context.Background()

	if _, err := repo.SetReference(ctx, withRef.ID, "ref_waiting"); err != nil {
		t.Fatalf("set reference failed: %v", err)
	}

	found, err := repo.FindAwaitingPayment(ctx, time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != withRef.ID {
		t.Fatalf("expected only the booking with a reference, got %d", len(found))
	}

	found, err = repo.FindAwaitingPayment(ctx, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("fresh bookings must not be swept, got %d", len(found))
	}
}

func TestIntegration_FindAwaitingPayment_RotatesChecked(t *testing.T) {
	repo := newIntegrationRepository(t)
	older := createPayNow(t, repo)
	newer := createPayNow(t, repo)
	ctx := context.Background()

	for i, b := range []*model.Booking{older, newer} {
		if _, err := repo.SetReference(ctx, b.ID, fmt.Sprintf("ref_rotate_%d", i)); err != nil {
			t.Fatalf("set reference failed: %v", err)
		}
	}
	if err := repo.MarkPaymentChecked(ctx, older.ID, time.Now().UTC()); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	found, err := repo.FindAwaitingPayment(ctx, time.Now().Add(time.Minute), 1)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != newer.ID {
		t.Fatalf("expected the unchecked booking first, got %+v", found)
	}

	if _, err := repo.TransitionPayment(ctx, newer.ID, model.PaymentTransition{To: model.PaymentStatusFailed}); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if err := repo.MarkPaymentChecked(ctx, newer.ID, time.Now().UTC()); err != nil {
		t.Fatalf("marking a resolved booking must be a no-op, got %v", err)
	}
	stored, err := repo.FindByID(ctx, newer.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if stored.PaymentCheckedAt != nil {
		t.Error("a resolved booking must not be marked checked")
	}
}

func TestIntegration_NotFound(t *testing.T) {
	repo := newIntegrationRepository(t)

	_, err := repo.TransitionPayment(context.Background(), "6650f1a2b3c4d5e6f7a8b9c0", model.PaymentTransition{To: model.PaymentStatusPaid})
	if !errors.Is(err, bookingserrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
