package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gaminghub/portal/internal/database"
	"github.com/gaminghub/portal/internal/models"
)

// CodeRepository defines the interface for one-time code operations.
type CodeRepository interface {
	// Upsert stores the code for the email, replacing any prior record.
	// Last writer wins: a re-issue silently invalidates any code in flight.
	Upsert(ctx context.Context, code *models.OneTimeCode) error

	// Get returns the live code record for the email, or nil if none exists.
	Get(ctx context.Context, email string) (*models.OneTimeCode, error)

	// Delete removes the code record for the email. Deleting a missing
	// record is not an error.
	Delete(ctx context.Context, email string) error
}

type codeRepo struct {
	coll *mongo.Collection
}

// NewCodeRepository creates a new one-time code repository.
func NewCodeRepository(db *mongo.Database) CodeRepository {
	return &codeRepo{coll: db.Collection(database.CodesCollection)}
}

// Upsert stores or replaces the code record keyed by email.
func (r *codeRepo) Upsert(ctx context.Context, code *models.OneTimeCode) error {
	update := bson.M{
		"$set": bson.M{
			"email":      code.Email,
			"code":       code.Code,
			"expires_at": code.ExpiresAt,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.coll.UpdateOne(ctx, bson.M{"email": code.Email}, update, opts)
	return err
}

// Get retrieves the code record for an email.
func (r *codeRepo) Get(ctx context.Context, email string) (*models.OneTimeCode, error) {
	var code models.OneTimeCode
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&code)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// Delete removes the code record for an email.
func (r *codeRepo) Delete(ctx context.Context, email string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"email": email})
	return err
}

// Compile-time check to ensure codeRepo implements CodeRepository.
var _ CodeRepository = (*codeRepo)(nil)
