package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VerificationSession is a short-lived pending registration, keyed by an
// opaque session identifier. At most one live session exists per email: a
// repeated signup replaces the session in place instead of duplicating it.
// Expired sessions are removed by a TTL index on expires_at; callers still
// check the deadline explicitly because Mongo TTL sweeps are not immediate.
type VerificationSession struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PhoneNumber  string             `bson:"phone_number" json:"phone_number"`
	SessionID    string             `bson:"session_id" json:"session_id"`
	OTP          string             `bson:"otp" json:"-"`

	// Pending registration payload, persisted so the user document can be
	// created at verification time without a second submission.
	FirstName    string `bson:"first_name" json:"first_name"`
	LastName     string `bson:"last_name" json:"last_name"`
	PasswordHash string `bson:"password" json:"-"`
	Gender       string `bson:"gender,omitempty" json:"gender,omitempty"`
	SponsorBy    string `bson:"sponsor_by" json:"sponsor_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

// Expired reports whether the session window has passed at the given time.
func (s *VerificationSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
