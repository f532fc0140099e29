package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle is a driver's vehicle submission. Every descriptive field is
// optional: a driver may register an empty placeholder record and fill in
// details later through the update flow, which accepts the same shape.
// A second registration call creates a new record rather than updating the
// first; updates go through the vehicle update endpoint.
type Vehicle struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	PlateNumber   *string `bson:"plate_number,omitempty" json:"plate_number,omitempty"`
	Make          *string `bson:"make,omitempty" json:"make,omitempty"`
	Model         *string `bson:"model,omitempty" json:"model,omitempty"`
	ChassisNumber *string `bson:"chassis_number,omitempty" json:"chassis_number,omitempty"`
	Color         *string `bson:"color,omitempty" json:"color,omitempty"`
	VehicleType   *string `bson:"vehicle_type,omitempty" json:"vehicle_type,omitempty"`

	ExteriorImageURL   *string `bson:"exterior_image_url,omitempty" json:"exterior_image_url,omitempty"`
	InteriorImageURL   *string `bson:"interior_image_url,omitempty" json:"interior_image_url,omitempty"`
	InsuranceDocURL    *string `bson:"insurance_doc_url,omitempty" json:"insurance_doc_url,omitempty"`
	RegistrationDocURL *string `bson:"registration_doc_url,omitempty" json:"registration_doc_url,omitempty"`

	RegistrationExpiry *time.Time `bson:"registration_expiry,omitempty" json:"registration_expiry,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
