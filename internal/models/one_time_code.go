package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OneTimeCode is a pending login code for one email address.
// At most one live record exists per email: a re-issue overwrites the
// previous record (last writer wins). The record is deleted on successful
// verification, or when its expiry is detected at verify time.
type OneTimeCode struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Code      string             `bson:"code" json:"-"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
}

// Expired tells if the code's validity window has passed.
func (c *OneTimeCode) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}
