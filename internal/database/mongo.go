// Package database provides database connection utilities.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gaminghub/portal/internal/config"
)

// Collection names for the three document collections.
const (
	UsersCollection       = "users"
	CodesCollection       = "otps"
	LoginEventsCollection = "login_logs"
)

// Mongo wraps a MongoDB client scoped to the application database.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(cfg config.MongoConfig) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Mongo{client: client, db: client.Database(cfg.Database)}, nil
}

// Database returns the underlying database handle.
func (m *Mongo) Database() *mongo.Database {
	return m.db
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Ping verifies the MongoDB connection is alive.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// EnsureIndexes creates the indexes the collections rely on. Mongo index
// creation is idempotent, so this is safe to run on every startup.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	// users: one record per email
	_, err := m.db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", UsersCollection, err)
	}

	// otps: at most one live code per email
	_, err = m.db.Collection(CodesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", CodesCollection, err)
	}

	// login_logs: dashboard reads newest-first
	_, err = m.db.Collection(LoginEventsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "login_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", LoginEventsCollection, err)
	}

	return nil
}
