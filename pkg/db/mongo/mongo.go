package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithTimeout bounds ctx by timeout, keeping an earlier caller deadline when there is one.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

// ObjectID parses a hex id. ok is false for anything that is not a 24 character hex string.
func ObjectID(id string) (oid primitive.ObjectID, ok bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// InsertedHex returns the hex form of an inserted ObjectID, or "" for other id types.
func InsertedHex(result *mongo.InsertOneResult) string {
	if result == nil {
		return ""
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}

func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// Now is the timestamp stored on documents. Mongo keeps millisecond precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
