package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "venivici/internal/bookings/errors"
	"venivici/pkg/config"
	mongodb "venivici/pkg/db/mongo"
	"venivici/pkg/model"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)

	// FindAwaitingPayment returns payNow bookings still Pending with a provider reference, created before olderThan.
	// Bookings never checked come first, then the ones checked longest ago.
	FindAwaitingPayment(ctx context.Context, olderThan time.Time, limit int) ([]*model.Booking, error)
	// MarkPaymentChecked records a sweep check on a booking whose payment is still Pending.
	// A booking resolved in the meantime is left alone.
	MarkPaymentChecked(ctx context.Context, id string, at time.Time) error

	// SetReference attaches a provider reference while the payment is Pending.
	SetReference(ctx context.Context, id string, reference string) (*model.Booking, error)
	// TransitionPayment applies t only if the payment is still Pending and returns the updated booking.
	// ErrNotPending means another writer resolved the payment first.
	TransitionPayment(ctx context.Context, id string, t model.PaymentTransition) (*model.Booking, error)
	// ReopenPayment moves a Failed payment back to Pending and clears its reference.
	ReopenPayment(ctx context.Context, id string) (*model.Booking, error)

	UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.Now()
	booking.ID = ""
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", bookingserrors.ErrDuplicateReference, booking.ProviderReference)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.ID = mongodb.InsertedHex(result)
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) FindAwaitingPayment(ctx context.Context, olderThan time.Time, limit int) ([]*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(AwaitingPaymentSort())

	cursor, err := r.collection.Find(ctx, AwaitingPaymentFilter(olderThan), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings awaiting payment: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings awaiting payment: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) MarkPaymentChecked(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, ok := mongodb.ObjectID(id)
	if !ok {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{"payment_checked_at": at}}
	if _, err := r.collection.UpdateOne(ctx, PaymentStatusFilter(objectID, model.PaymentStatusPending), update); err != nil {
		return fmt.Errorf("failed to mark booking payment checked: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) SetReference(ctx context.Context, id string, reference string) (*model.Booking, error) {
	update := bson.M{"$set": bson.M{
		"provider_reference": reference,
		"updated_at":         mongodb.Now(),
	}}
	booking, err := r.conditionalUpdate(ctx, id, model.PaymentStatusPending, update)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrDuplicateReference, reference)
		}
		return nil, err
	}
	return booking, nil
}

func (r *mongoBookingRepository) TransitionPayment(ctx context.Context, id string, t model.PaymentTransition) (*model.Booking, error) {
	booking, err := r.conditionalUpdate(ctx, id, model.PaymentStatusPending, PaymentTransitionPipeline(t, mongodb.Now()))
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrDuplicateReference, t.Reference)
		}
		return nil, err
	}
	return booking, nil
}

func (r *mongoBookingRepository) ReopenPayment(ctx context.Context, id string) (*model.Booking, error) {
	update := bson.M{
		"$set": bson.M{
			"payment_status": model.PaymentStatusPending,
			"updated_at":     mongodb.Now(),
		},
		"$unset": bson.M{"provider_reference": ""},
	}
	return r.conditionalUpdate(ctx, id, model.PaymentStatusFailed, update)
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, StatusUpdateDocument(update, mongodb.Now()), opts).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, ok := mongodb.ObjectID(id)
	if !ok {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	return nil
}

// conditionalUpdate applies update only while payment_status equals from.
// A miss is reported as ErrNotFound or ErrNotPending depending on whether the booking exists.
func (r *mongoBookingRepository) conditionalUpdate(ctx context.Context, id string, from model.PaymentStatus, update any) (*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var booking model.Booking
	err := r.collection.FindOneAndUpdate(ctx, PaymentStatusFilter(objectID, from), update, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking payment: %w", err)
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to check booking: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotPending, id)
}

func PaymentStatusFilter(id primitive.ObjectID, status model.PaymentStatus) bson.M {
	return bson.M{
		"_id":            id,
		"payment_status": status,
	}
}

// PaymentTransitionPipeline builds the update pipeline for t. The pipeline form lets the booking
// status advance to Confirmed only when it is still Pending, inside the same write.
func PaymentTransitionPipeline(t model.PaymentTransition, now time.Time) mongo.Pipeline {
	set := bson.D{
		{Key: "payment_status", Value: bson.M{"$literal": t.To}},
		{Key: "updated_at", Value: now},
	}
	if t.Reference != "" {
		set = append(set, bson.E{Key: "provider_reference", Value: bson.M{"$literal": t.Reference}})
	}
	if t.PaidAt != nil {
		set = append(set, bson.E{Key: "paid_at", Value: *t.PaidAt})
	}
	if t.ConfirmBooking {
		set = append(set, bson.E{Key: "status", Value: bson.M{
			"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", model.BookingStatusPending}},
				model.BookingStatusConfirmed,
				"$status",
			},
		}})
	}
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

func AwaitingPaymentFilter(olderThan time.Time) bson.M {
	return bson.M{
		"payment_option":     model.PaymentOptionPayNow,
		"payment_status":     model.PaymentStatusPending,
		"provider_reference": bson.M{"$exists": true, "$ne": ""},
		"created_at":         bson.M{"$lt": olderThan},
	}
}

// AwaitingPaymentSort orders unchecked bookings first (a missing field sorts before any date),
// then the least recently checked.
func AwaitingPaymentSort() bson.D {
	return bson.D{
		{Key: "payment_checked_at", Value: 1},
		{Key: "created_at", Value: 1},
	}
}

// StatusUpdateDocument builds the admin overwrite. Notes replace the customer message.
func StatusUpdateDocument(update *model.BookingStatusUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if update.PaymentStatus != nil {
		set["payment_status"] = *update.PaymentStatus
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.Notes != nil {
		set["message"] = *update.Notes
	}
	return bson.M{"$set": set}
}
