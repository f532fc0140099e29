package services

import (
	"context"
	"testing"
	"time"

	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newTestKYCService wires a service whose artifact store is never reached;
// every case here either fails validation first or carries no files.
func newTestKYCService() *KYCService {
	return NewKYCService(config.MongoDB, &ArtifactStore{logger: &logging.SafeLogger{}}, &logging.SafeLogger{})
}

func insertKYCUser(t *testing.T, kycLevel int) *models.User {
	t.Helper()

	user := insertNetworkUser(t, models.SponsorRoot, 0)
	if kycLevel != models.KYCLevelNone {
		_, err := config.MongoDB.Collection(config.AppConfig.UserCollection).UpdateOne(
			context.Background(),
			bson.M{"_id": user.ID},
			bson.M{"$set": bson.M{"kyc_level": kycLevel}})
		require.NoError(t, err)
		user.KYCLevel = kycLevel
	}
	return user
}

func TestSubmitKYC1_Validation(t *testing.T) {
	cleanup := swapTestCollections(t)
	defer cleanup()

	service := newTestKYCService()
	ctx := context.Background()
	user := insertKYCUser(t, models.KYCLevelNone)

	cases := []struct {
		name  string
		input KYC1Input
		field string
	}{
		{"single name", KYC1Input{FullName: "Cher", Country: "NG"}, "full_name"},
		{"blank name", KYC1Input{FullName: "   ", Country: "NG"}, "full_name"},
		{"missing country", KYC1Input{FullName: "Ada Obi", Country: " "}, "country"},
		{"missing documents", KYC1Input{FullName: "Ada Obi", Country: "NG"}, "documents"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.SubmitKYC1(ctx, user.ID.Hex(), tc.input, nil, nil, nil)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestSubmitKYC1_UnknownUser(t *testing.T) {
	cleanup := swapTestCollections(t)
	defer cleanup()

	service := newTestKYCService()

	_, err := service.SubmitKYC1(context.Background(), primitive.NewObjectID().Hex(),
		KYC1Input{FullName: "Ada Obi", Country: "NG"}, nil, nil, nil)
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	_, err = service.SubmitKYC1(context.Background(), "not-an-object-id",
		KYC1Input{FullName: "Ada Obi", Country: "NG"}, nil, nil, nil)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestUploadLicense_RequiresIdentityLevel(t *testing.T) {
	cleanup := swapTestCollections(t)
	defer cleanup()

	service := newTestKYCService()
	user := insertKYCUser(t, models.KYCLevelNone)

	_, err := service.UploadLicense(context.Background(), user.ID.Hex(), nil)
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
}

func TestUploadLicense_MissingFile(t *testing.T) {
	cleanup := swapTestCollections(t)
	defer cleanup()

	service := newTestKYCService()
	user := insertKYCUser(t, models.KYCLevelIdentity)

	_, err := service.UploadLicense(context.Background(), user.ID.Hex(), nil)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "license", verr.Field)
}

func TestVehicleDecision(t *testing.T) {
	cleanup := swapTestCollections(t)
	defer cleanup()

	service := newTestKYCService()
	ctx := context.Background()
	boolPtr := func(b bool) *bool { return &b }

	t.Run("gated below license level", func(t *testing.T) {
		user := insertKYCUser(t, models.KYCLevelIdentity)
		_, err := service.VehicleDecision(ctx, user.ID.Hex(), boolPtr(false))
		assert.ErrorIs(t, err, models.ErrPermissionDenied)
	})

	t.Run("declaration required", func(t *testing.T) {
		user := insertKYCUser(t, models.KYCLevelLicense)
		_, err := service.VehicleDecision(ctx, user.ID.Hex(), nil)
		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("has vehicle directs to registration", func(t *testing.T) {
		user := insertKYCUser(t, models.KYCLevelLicense)
		needsVehicle, err := service.VehicleDecision(ctx, user.ID.Hex(), boolPtr(true))
		require.NoError(t, err)
		assert.True(t, needsVehicle)

		refreshed, err := service.loadUser(ctx, user.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.RoleCustomer, refreshed.Role, "role unchanged until a vehicle exists")
	})

	t.Run("no vehicle grants driver immediately", func(t *testing.T) {
		user := insertKYCUser(t, models.KYCLevelLicense)
		needsVehicle, err := service.VehicleDecision(ctx, user.ID.Hex(), boolPtr(false))
		require.NoError(t, err)
		assert.False(t, needsVehicle)

		refreshed, err := service.loadUser(ctx, user.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.RoleDriver, refreshed.Role)
	})
}

func TestRegisterVehicle(t *testing.T) {
	cleanup := swapTestCollections(t)
	defer cleanup()

	service := newTestKYCService()
	ctx := context.Background()
	strPtr := func(s string) *string { return &s }

	t.Run("gated below license level", func(t *testing.T) {
		user := insertKYCUser(t, models.KYCLevelIdentity)
		_, err := service.RegisterVehicle(ctx, user.ID.Hex(), VehicleInput{})
		assert.ErrorIs(t, err, models.ErrPermissionDenied)
	})

	t.Run("empty placeholder vehicle is valid", func(t *testing.T) {
		user := insertKYCUser(t, models.KYCLevelLicense)

		vehicle, err := service.RegisterVehicle(ctx, user.ID.Hex(), VehicleInput{})
		require.NoError(t, err)
		assert.False(t, vehicle.ID.IsZero())
		assert.Equal(t, user.ID, vehicle.UserID)
		assert.Nil(t, vehicle.PlateNumber)

		refreshed, err := service.loadUser(ctx, user.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.RoleDriver, refreshed.Role)
	})

	t.Run("fields persist", func(t *testing.T) {
		user := insertKYCUser(t, models.KYCLevelLicense)
		expiry := time.Now().AddDate(1, 0, 0).Truncate(time.Millisecond)

		vehicle, err := service.RegisterVehicle(ctx, user.ID.Hex(), VehicleInput{
			PlateNumber:        strPtr("LAG-123-XY"),
			Make:               strPtr("Toyota"),
			Model:              strPtr("Corolla"),
			VehicleType:        strPtr("sedan"),
			RegistrationExpiry: &expiry,
		})
		require.NoError(t, err)

		var stored models.Vehicle
		require.NoError(t, config.MongoDB.Collection(config.AppConfig.VehicleCollection).
			FindOne(ctx, bson.M{"_id": vehicle.ID}).Decode(&stored))
		require.NotNil(t, stored.PlateNumber)
		assert.Equal(t, "LAG-123-XY", *stored.PlateNumber)
		require.NotNil(t, stored.RegistrationExpiry)
		assert.WithinDuration(t, expiry, *stored.RegistrationExpiry, time.Second)
	})

	t.Run("repeat registration creates a second record", func(t *testing.T) {
		user := insertKYCUser(t, models.KYCLevelLicense)

		_, err := service.RegisterVehicle(ctx, user.ID.Hex(), VehicleInput{})
		require.NoError(t, err)
		_, err = service.RegisterVehicle(ctx, user.ID.Hex(), VehicleInput{})
		require.NoError(t, err)

		count, err := config.MongoDB.Collection(config.AppConfig.VehicleCollection).
			CountDocuments(ctx, bson.M{"user_id": user.ID})
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})
}

func TestUpdateVehicle(t *testing.T) {
	cleanup := swapTestCollections(t)
	defer cleanup()

	service := newTestKYCService()
	ctx := context.Background()
	strPtr := func(s string) *string { return &s }

	owner := insertKYCUser(t, models.KYCLevelLicense)
	vehicle, err := service.RegisterVehicle(ctx, owner.ID.Hex(), VehicleInput{
		PlateNumber: strPtr("ABC-001-AA"),
		Color:       strPtr("blue"),
	})
	require.NoError(t, err)

	t.Run("partial update leaves other fields alone", func(t *testing.T) {
		updated, err := service.UpdateVehicle(ctx, owner.ID.Hex(), vehicle.ID.Hex(), VehicleInput{
			Color: strPtr("black"),
		})
		require.NoError(t, err)
		require.NotNil(t, updated.Color)
		assert.Equal(t, "black", *updated.Color)
		require.NotNil(t, updated.PlateNumber)
		assert.Equal(t, "ABC-001-AA", *updated.PlateNumber)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		_, err := service.UpdateVehicle(ctx, owner.ID.Hex(), primitive.NewObjectID().Hex(), VehicleInput{})
		assert.ErrorIs(t, err, models.ErrVehicleNotFound)

		_, err = service.UpdateVehicle(ctx, owner.ID.Hex(), "bad-id", VehicleInput{})
		assert.ErrorIs(t, err, models.ErrVehicleNotFound)
	})

	t.Run("another user's vehicle is invisible", func(t *testing.T) {
		stranger := insertKYCUser(t, models.KYCLevelLicense)
		_, err := service.UpdateVehicle(ctx, stranger.ID.Hex(), vehicle.ID.Hex(), VehicleInput{
			Color: strPtr("red"),
		})
		assert.ErrorIs(t, err, models.ErrVehicleNotFound)
	})
}
