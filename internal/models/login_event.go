package models

import "time"

// LoginEvent records one authenticated session: who logged in, when,
// and when (if ever) they logged out. Events are never deleted.
//
// The ID is a ULID so event keys sort chronologically.
type LoginEvent struct {
	ID       string     `bson:"_id" json:"id"`
	Email    string     `bson:"email" json:"email"`
	LoginAt  time.Time  `bson:"login_at" json:"login_at"`
	LogoutAt *time.Time `bson:"logout_at,omitempty" json:"logout_at,omitempty"`
}

// Open tells if the session behind this event has not logged out yet.
func (e *LoginEvent) Open() bool {
	return e.LogoutAt == nil
}
