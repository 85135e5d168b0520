package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	catalogerrors "venivici/internal/catalog/errors"
	"venivici/pkg/config"
	mongodb "venivici/pkg/db/mongo"
	"venivici/pkg/model"
)

const CollectionName = "Services"

type ServiceRepository interface {
	Create(ctx context.Context, svc *model.Service) error
	FindByID(ctx context.Context, id string) (*model.Service, error)
	FindAll(ctx context.Context) ([]*model.Service, error)
	Update(ctx context.Context, id string, update *model.ServiceUpdate) (*model.Service, error)
	Delete(ctx context.Context, id string) error

	// UpsertByName inserts svc or replaces the editable fields of the service with the same name.
	UpsertByName(ctx context.Context, svc *model.Service) (created bool, err error)
	DeleteAll(ctx context.Context) (int64, error)
}

type mongoServiceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoServiceRepository(cfg *config.Config) ServiceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoServiceRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoServiceRepository) Create(ctx context.Context, svc *model.Service) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.Now()
	svc.ID = ""
	svc.CreatedAt = now
	svc.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, svc)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", catalogerrors.ErrDuplicateName, svc.Name)
		}
		return fmt.Errorf("failed to create service: %w", err)
	}

	svc.ID = mongodb.InsertedHex(result)
	return nil
}

func (r *mongoServiceRepository) FindByID(ctx context.Context, id string) (*model.Service, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
	}

	var svc model.Service
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&svc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", catalogerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find service: %w", err)
	}
	return &svc, nil
}

func (r *mongoServiceRepository) FindAll(ctx context.Context) ([]*model.Service, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer cursor.Close(ctx)

	services := make([]*model.Service, 0)
	if err := cursor.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}
	return services, nil
}

func (r *mongoServiceRepository) Update(ctx context.Context, id string, update *model.ServiceUpdate) (*model.Service, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, ok := mongodb.ObjectID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var svc model.Service
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, BuildUpdate(update, mongodb.Now()), opts).Decode(&svc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, fmt.Errorf("%w: %s", catalogerrors.ErrNotFound, id)
		case mongodb.IsDuplicateKey(err):
			return nil, fmt.Errorf("%w: %s", catalogerrors.ErrDuplicateName, *update.Name)
		}
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	return &svc, nil
}

func (r *mongoServiceRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, ok := mongodb.ObjectID(id)
	if !ok {
		return fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", catalogerrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoServiceRepository) UpsertByName(ctx context.Context, svc *model.Service) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.Now()
	update := bson.M{
		"$set": bson.M{
			"description": svc.Description,
			"duration":    svc.Duration,
			"price":       svc.Price,
			"category":    svc.Category,
			"icon_class":  svc.IconClass,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"name":       svc.Name,
			"created_at": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"name": svc.Name}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("failed to upsert service %q: %w", svc.Name, err)
	}
	return result.UpsertedCount > 0, nil
}

func (r *mongoServiceRepository) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to clear services: %w", err)
	}
	return result.DeletedCount, nil
}

// BuildUpdate turns a partial update into a $set document. Only provided fields are written.
func BuildUpdate(update *model.ServiceUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Duration != nil {
		set["duration"] = *update.Duration
	}
	if update.Price != nil {
		set["price"] = *update.Price
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.IconClass != nil {
		set["icon_class"] = *update.IconClass
	}
	return bson.M{"$set": set}
}
