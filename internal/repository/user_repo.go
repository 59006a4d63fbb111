// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gaminghub/portal/internal/database"
	"github.com/gaminghub/portal/internal/models"
)

// UserRepository defines the interface for user record operations.
type UserRepository interface {
	// FindByEmail returns the user with the given email, or nil if none exists.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindOrCreateByEmail returns the user with the given email, creating
	// the record if it does not exist. The unique index on email guarantees
	// at most one record per email even under concurrent calls.
	FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error)
}

type userRepo struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepo{coll: db.Collection(database.UsersCollection)}
}

// FindByEmail retrieves a user by email.
func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreateByEmail upserts a user keyed by email and returns the record.
func (r *userRepo) FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	update := bson.M{
		"$setOnInsert": bson.M{
			"email":      email,
			"created_at": time.Now().UTC(),
		},
	}

	var user models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Compile-time check to ensure userRepo implements UserRepository.
var _ UserRepository = (*userRepo)(nil)
