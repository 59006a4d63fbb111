package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gaminghub/portal/internal/database"
	"github.com/gaminghub/portal/internal/models"
	"github.com/gaminghub/portal/internal/pkg/ulid"
)

// LoginEventRepository defines the interface for login history operations.
type LoginEventRepository interface {
	// Create inserts a new login event. A missing ID is generated.
	Create(ctx context.Context, event *models.LoginEvent) error

	// Close sets the logout timestamp on the event with the given ID.
	// Closing an unknown event is not an error.
	Close(ctx context.Context, id string, at time.Time) error

	// ListAll returns every login event ordered by login time, newest first.
	ListAll(ctx context.Context) ([]*models.LoginEvent, error)
}

type loginEventRepo struct {
	coll *mongo.Collection
}

// NewLoginEventRepository creates a new login event repository.
func NewLoginEventRepository(db *mongo.Database) LoginEventRepository {
	return &loginEventRepo{coll: db.Collection(database.LoginEventsCollection)}
}

// Create inserts a new login event.
func (r *loginEventRepo) Create(ctx context.Context, event *models.LoginEvent) error {
	if event.ID == "" {
		event.ID = ulid.New()
	}
	_, err := r.coll.InsertOne(ctx, event)
	return err
}

// Close records the logout time on an event.
func (r *loginEventRepo) Close(ctx context.Context, id string, at time.Time) error {
	update := bson.M{"$set": bson.M{"logout_at": at}}
	_, err := r.coll.UpdateByID(ctx, id, update)
	return err
}

// ListAll retrieves all login events, newest first.
func (r *loginEventRepo) ListAll(ctx context.Context) ([]*models.LoginEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "login_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*models.LoginEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Compile-time check to ensure loginEventRepo implements LoginEventRepository.
var _ LoginEventRepository = (*loginEventRepo)(nil)
