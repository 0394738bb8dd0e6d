package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Submission_receipts"

// Receipt records that a submission was forwarded. It holds routing facts
// only; the attorney's contact details and message stay with the workflow.
type Receipt struct {
	ID             string    `bson:"_id,omitempty"`
	SubmissionID   string    `bson:"submission_id"`
	RequestID      string    `bson:"request_id,omitempty"`
	IdentifierKind string    `bson:"identifier_kind"`
	Facility       string    `bson:"facility,omitempty"`
	PreferredDate  string    `bson:"preferred_date,omitempty"`
	Simulated      bool      `bson:"simulated"`
	CreatedAt      time.Time `bson:"created_at"`
}

type Repository interface {
	Record(ctx context.Context, receipt *Receipt) error
	Ping(ctx context.Context) error
}

type mongoRepository struct {
	client       *mongo.Client
	collection   *mongo.Collection
	writeTimeout time.Duration
}

func NewMongoRepository(client *mongo.Client, databaseName string, writeTimeout time.Duration) Repository {
	return &mongoRepository{
		client:       client,
		collection:   client.Database(databaseName).Collection(CollectionName),
		writeTimeout: writeTimeout,
	}
}

func (r *mongoRepository) Record(ctx context.Context, receipt *Receipt) error {
	ctx, cancel := withTimeout(ctx, r.writeTimeout)
	defer cancel()

	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	result, err := r.collection.InsertOne(ctx, receipt)
	if err != nil {
		return fmt.Errorf("failed to record receipt: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		receipt.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.writeTimeout)
	defer cancel()
	return r.client.Ping(ctx, nil)
}

// withTimeout bounds ctx by timeout without extending an earlier deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}
