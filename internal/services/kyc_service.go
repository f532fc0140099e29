package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/ridelinkhq/onboarding-api/internal/observability"
	"github.com/ridelinkhq/onboarding-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// KYC1Input carries the textual fields of a level-1 submission. The three
// document artifacts travel separately as multipart files.
type KYC1Input struct {
	FullName string
	Country  string
}

// VehicleInput carries the fields of a vehicle registration or update. Every
// field is optional; a driver may register a placeholder vehicle and fill
// details in later.
type VehicleInput struct {
	PlateNumber        *string
	Make               *string
	Model              *string
	ChassisNumber      *string
	Color              *string
	VehicleType        *string
	RegistrationExpiry *time.Time

	ExteriorImage   *multipart.FileHeader
	InteriorImage   *multipart.FileHeader
	InsuranceDoc    *multipart.FileHeader
	RegistrationDoc *multipart.FileHeader
}

// KYCService drives the progressive identity state machine: document and
// selfie capture at level 1, license capture at level 2, then the
// driver/customer role decision and vehicle registration behind the level-2
// gate.
type KYCService struct {
	database  *mongo.Database
	artifacts *ArtifactStore
	logger    *logging.SafeLogger
}

// NewKYCService creates a new KYC service instance
func NewKYCService(database *mongo.Database, artifacts *ArtifactStore, logger *logging.SafeLogger) *KYCService {
	return &KYCService{
		database:  database,
		artifacts: artifacts,
		logger:    logger,
	}
}

// Global KYC service instance
var KYCServiceInstance *KYCService

// InitKYCService initializes the global KYC service instance
func InitKYCService() {
	logger := logging.NewSafeLogger(logging.Logger.Unwrap().Named("kyc_service"))

	KYCServiceInstance = NewKYCService(config.MongoDB, ArtifactStoreInstance, logger)

	logger.Info("kyc service initialized successfully")
}

func (s *KYCService) users() *mongo.Collection {
	return s.database.Collection(config.AppConfig.UserCollection)
}

func (s *KYCService) vehicles() *mongo.Collection {
	return s.database.Collection(config.AppConfig.VehicleCollection)
}

func (s *KYCService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, models.ErrUserNotFound
	}

	var user models.User
	if err := utils.FindOneWithTimeout(ctx, s.users(), bson.M{"_id": oid}, &user, utils.DefaultQueryTimeout); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// SubmitKYC1 advances a verified user to KYC level 1. All three artifacts
// must upload before anything is written, so a mid-upload failure leaves the
// user's trust state untouched.
func (s *KYCService) SubmitKYC1(ctx context.Context, userID string, input KYC1Input, front, back, selfie *multipart.FileHeader) (*models.User, error) {
	logger := s.logger.With(zap.String("user_id", userID))

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	first, last, ok := utils.SplitFullName(input.FullName)
	if !ok {
		return nil, models.NewValidationError("full_name", "full name must include first and last name")
	}
	country := strings.TrimSpace(input.Country)
	if country == "" {
		return nil, models.NewValidationError("country", "country is required")
	}
	if front == nil || back == nil || selfie == nil {
		return nil, models.NewValidationError("documents", "front document, back document and selfie are all required")
	}

	frontURL, err := s.artifacts.Upload(ctx, userID, ArtifactKindDocFront, front)
	if err != nil {
		observability.KYCTransitions.WithLabelValues("kyc1", "upload_failed").Inc()
		return nil, err
	}
	backURL, err := s.artifacts.Upload(ctx, userID, ArtifactKindDocBack, back)
	if err != nil {
		observability.KYCTransitions.WithLabelValues("kyc1", "upload_failed").Inc()
		return nil, err
	}
	selfieURL, err := s.artifacts.Upload(ctx, userID, ArtifactKindSelfie, selfie)
	if err != nil {
		observability.KYCTransitions.WithLabelValues("kyc1", "upload_failed").Inc()
		return nil, err
	}

	update := bson.M{
		"$set": bson.M{
			"first_name":    first,
			"last_name":     last,
			"country":       country,
			"doc_front_url": frontURL,
			"doc_back_url":  backURL,
			"selfie_url":    selfieURL,
			"updated_at":    time.Now(),
		},
		// Resubmissions refresh artifacts without ever lowering trust
		"$max": bson.M{"kyc_level": models.KYCLevelIdentity},
	}

	if _, err := s.users().UpdateOne(ctx, bson.M{"_id": user.ID}, update); err != nil {
		return nil, fmt.Errorf("failed to record kyc level 1: %w", err)
	}

	if err := utils.InvalidateUserCache(ctx, userID); err != nil {
		logger.Warn("failed to invalidate user cache", zap.Error(err))
	}

	observability.KYCTransitions.WithLabelValues("kyc1", "success").Inc()
	logger.Info("kyc level 1 recorded")

	return s.loadUser(ctx, userID)
}

// UploadLicense advances a level-1 user to KYC level 2
func (s *KYCService) UploadLicense(ctx context.Context, userID string, license *multipart.FileHeader) (*models.User, error) {
	logger := s.logger.With(zap.String("user_id", userID))

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.KYCLevel < models.KYCLevelIdentity {
		observability.KYCTransitions.WithLabelValues("kyc2", "denied").Inc()
		return nil, models.ErrPermissionDenied
	}
	if license == nil {
		return nil, models.NewValidationError("license", "license document is required")
	}

	licenseURL, err := s.artifacts.Upload(ctx, userID, ArtifactKindLicense, license)
	if err != nil {
		observability.KYCTransitions.WithLabelValues("kyc2", "upload_failed").Inc()
		return nil, err
	}

	update := bson.M{
		"$set": bson.M{
			"license_url": licenseURL,
			"updated_at":  time.Now(),
		},
		"$max": bson.M{"kyc_level": models.KYCLevelLicense},
	}

	if _, err := s.users().UpdateOne(ctx, bson.M{"_id": user.ID}, update); err != nil {
		return nil, fmt.Errorf("failed to record kyc level 2: %w", err)
	}

	if err := utils.InvalidateUserCache(ctx, userID); err != nil {
		logger.Warn("failed to invalidate user cache", zap.Error(err))
	}

	observability.KYCTransitions.WithLabelValues("kyc2", "success").Inc()
	logger.Info("kyc level 2 recorded")

	return s.loadUser(ctx, userID)
}

// VehicleDecision records the caller's vehicle-ownership declaration behind
// the level-2 gate. Without a vehicle the user becomes a driver immediately;
// with one, no state changes and the caller is directed to vehicle
// registration.
func (s *KYCService) VehicleDecision(ctx context.Context, userID string, hasVehicle *bool) (needsVehicle bool, err error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return false, err
	}

	if user.KYCLevel < models.KYCLevelLicense {
		observability.KYCTransitions.WithLabelValues("decision", "denied").Inc()
		return false, models.ErrPermissionDenied
	}
	if hasVehicle == nil {
		return false, models.NewValidationError("has_vehicle", "has_vehicle must be true or false")
	}

	if *hasVehicle {
		observability.KYCTransitions.WithLabelValues("decision", "needs_vehicle").Inc()
		return true, nil
	}

	if err := s.setRoleDriver(ctx, user.ID, userID); err != nil {
		return false, err
	}

	observability.KYCTransitions.WithLabelValues("decision", "driver").Inc()
	return false, nil
}

// RegisterVehicle creates a vehicle record for a level-2 user and makes them
// a driver. Every field may be absent; an empty placeholder vehicle is a
// valid registration. A repeat call creates an independent record, updates go
// through UpdateVehicle.
func (s *KYCService) RegisterVehicle(ctx context.Context, userID string, input VehicleInput) (*models.Vehicle, error) {
	logger := s.logger.With(zap.String("user_id", userID))

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.KYCLevel < models.KYCLevelLicense {
		observability.KYCTransitions.WithLabelValues("vehicle", "denied").Inc()
		return nil, models.ErrPermissionDenied
	}

	now := time.Now()
	vehicle := &models.Vehicle{
		UserID:             user.ID,
		PlateNumber:        input.PlateNumber,
		Make:               input.Make,
		Model:              input.Model,
		ChassisNumber:      input.ChassisNumber,
		Color:              input.Color,
		VehicleType:        input.VehicleType,
		RegistrationExpiry: input.RegistrationExpiry,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.uploadVehicleArtifacts(ctx, userID, &input, vehicle); err != nil {
		observability.KYCTransitions.WithLabelValues("vehicle", "upload_failed").Inc()
		return nil, err
	}

	result, err := s.vehicles().InsertOne(ctx, vehicle)
	if err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}
	vehicle.ID = result.InsertedID.(primitive.ObjectID)

	if err := s.setRoleDriver(ctx, user.ID, userID); err != nil {
		return nil, err
	}

	observability.KYCTransitions.WithLabelValues("vehicle", "success").Inc()
	logger.Info("vehicle registered", zap.String("vehicle_id", vehicle.ID.Hex()))

	return vehicle, nil
}

// UpdateVehicle applies a partial update to a vehicle owned by the caller
func (s *KYCService) UpdateVehicle(ctx context.Context, userID, vehicleID string, input VehicleInput) (*models.Vehicle, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	vid, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return nil, models.ErrVehicleNotFound
	}

	var vehicle models.Vehicle
	if err := s.vehicles().FindOne(ctx, bson.M{"_id": vid, "user_id": user.ID}).Decode(&vehicle); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}

	staged := models.Vehicle{}
	if err := s.uploadVehicleArtifacts(ctx, userID, &input, &staged); err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now()}
	setIfPresent := func(field string, value *string) {
		if value != nil {
			set[field] = *value
		}
	}
	setIfPresent("plate_number", input.PlateNumber)
	setIfPresent("make", input.Make)
	setIfPresent("model", input.Model)
	setIfPresent("chassis_number", input.ChassisNumber)
	setIfPresent("color", input.Color)
	setIfPresent("vehicle_type", input.VehicleType)
	setIfPresent("exterior_image_url", staged.ExteriorImageURL)
	setIfPresent("interior_image_url", staged.InteriorImageURL)
	setIfPresent("insurance_doc_url", staged.InsuranceDocURL)
	setIfPresent("registration_doc_url", staged.RegistrationDocURL)
	if input.RegistrationExpiry != nil {
		set["registration_expiry"] = *input.RegistrationExpiry
	}

	if _, err := s.vehicles().UpdateOne(ctx, bson.M{"_id": vid}, bson.M{"$set": set}); err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	if err := utils.InvalidateUserCache(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate user cache", zap.Error(err))
	}

	if err := s.vehicles().FindOne(ctx, bson.M{"_id": vid}).Decode(&vehicle); err != nil {
		return nil, fmt.Errorf("failed to reload vehicle: %w", err)
	}
	return &vehicle, nil
}

// uploadVehicleArtifacts uploads whichever vehicle documents are present,
// writing the resulting URLs onto dst. Any failure aborts before persistence.
func (s *KYCService) uploadVehicleArtifacts(ctx context.Context, userID string, input *VehicleInput, dst *models.Vehicle) error {
	upload := func(kind string, file *multipart.FileHeader, target **string) error {
		if file == nil {
			return nil
		}
		url, err := s.artifacts.Upload(ctx, userID, kind, file)
		if err != nil {
			return err
		}
		*target = &url
		return nil
	}

	if err := upload(ArtifactKindVehicleExterior, input.ExteriorImage, &dst.ExteriorImageURL); err != nil {
		return err
	}
	if err := upload(ArtifactKindVehicleInterior, input.InteriorImage, &dst.InteriorImageURL); err != nil {
		return err
	}
	if err := upload(ArtifactKindInsuranceDoc, input.InsuranceDoc, &dst.InsuranceDocURL); err != nil {
		return err
	}
	if err := upload(ArtifactKindRegistrationDoc, input.RegistrationDoc, &dst.RegistrationDocURL); err != nil {
		return err
	}
	return nil
}

func (s *KYCService) setRoleDriver(ctx context.Context, oid primitive.ObjectID, userID string) error {
	_, err := s.users().UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"role": models.RoleDriver, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set driver role: %w", err)
	}

	if err := utils.InvalidateUserCache(ctx, userID); err != nil {
		s.logger.Warn("failed to invalidate user cache", zap.Error(err))
	}
	return nil
}
