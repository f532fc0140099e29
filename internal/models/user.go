package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role values a user can hold after onboarding
const (
	RoleCustomer = "customer"
	RoleDriver   = "driver"
)

// KYC levels in ascending order of trust
const (
	KYCLevelNone     = 0
	KYCLevelIdentity = 1
	KYCLevelLicense  = 2
)

// SponsorRoot marks a user that joined without a referral code
const SponsorRoot = "root"

// MaxSponsorLevel caps the referral rank regardless of subtree size
const MaxSponsorLevel = 4

// User represents an onboarded account. The document is created only after
// OTP verification succeeds, so every persisted user is verified.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName   string             `bson:"first_name" json:"first_name"`
	LastName    string             `bson:"last_name" json:"last_name"`
	Email       string             `bson:"email" json:"email"`
	PhoneNumber string             `bson:"phone_number" json:"phone_number"`
	Password    string             `bson:"password" json:"-"`
	Gender      string             `bson:"gender,omitempty" json:"gender,omitempty"`
	Country     string             `bson:"country,omitempty" json:"country,omitempty"`

	IsVerified      bool       `bson:"is_verified" json:"is_verified"`
	ResetOTP        string     `bson:"reset_otp,omitempty" json:"-"`
	ResetOTPExpires *time.Time `bson:"reset_otp_expires,omitempty" json:"-"`

	KYCLevel int    `bson:"kyc_level" json:"kyc_level"`
	Role     string `bson:"role" json:"role"`

	// Artifact URLs returned by the blob storage collaborator
	DocFrontURL string `bson:"doc_front_url,omitempty" json:"doc_front_url,omitempty"`
	DocBackURL  string `bson:"doc_back_url,omitempty" json:"doc_back_url,omitempty"`
	SelfieURL   string `bson:"selfie_url,omitempty" json:"selfie_url,omitempty"`
	LicenseURL  string `bson:"license_url,omitempty" json:"license_url,omitempty"`

	// Referral network state. SponsorID is this user's own referral code;
	// SponsorBy is the code of the referring user (or SponsorRoot).
	// SponsorTree caches the IDs of directly referred users and must stay
	// consistent with the SponsorBy edges pointing at this user.
	SponsorID   string               `bson:"sponsor_id" json:"sponsor_id"`
	SponsorBy   string               `bson:"sponsor_by" json:"sponsor_by"`
	SponsorTree []primitive.ObjectID `bson:"sponsor_tree" json:"sponsor_tree"`
	Level       int                  `bson:"level" json:"level"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName joins the stored name parts for display purposes.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// JWTClaims represents the claims we read back from an access token
type JWTClaims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	TokenID string `json:"jti"`
}
