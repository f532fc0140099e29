package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"github.com/ridelinkhq/onboarding-api/internal/models"
	"github.com/ridelinkhq/onboarding-api/internal/utils/httpclient"
	"go.uber.org/zap"
)

// Artifact kinds accepted by the storage service
const (
	ArtifactKindDocFront        = "doc_front"
	ArtifactKindDocBack         = "doc_back"
	ArtifactKindSelfie          = "selfie"
	ArtifactKindLicense         = "license"
	ArtifactKindVehicleExterior = "vehicle_exterior"
	ArtifactKindVehicleInterior = "vehicle_interior"
	ArtifactKindInsuranceDoc    = "insurance_doc"
	ArtifactKindRegistrationDoc = "registration_doc"
)

type uploadResponse struct {
	URL string `json:"url"`
}

// ArtifactStore uploads identity and vehicle documents to the blob storage
// service and returns their durable URLs. Upload failures surface as
// UpstreamError so callers abort the mutation instead of committing a
// half-complete submission.
type ArtifactStore struct {
	pool   *httpclient.Pool
	logger *logging.SafeLogger
}

// NewArtifactStore creates a new artifact store instance
func NewArtifactStore(logger *logging.SafeLogger) *ArtifactStore {
	return &ArtifactStore{
		pool:   httpclient.NewPool(10, config.AppConfig.StorageTimeout),
		logger: logger,
	}
}

// Global artifact store instance
var ArtifactStoreInstance *ArtifactStore

// InitArtifactStore initializes the global artifact store instance
func InitArtifactStore() {
	logger := logging.NewSafeLogger(logging.Logger.Unwrap().Named("artifact_store"))

	ArtifactStoreInstance = NewArtifactStore(logger)

	logger.Info("artifact store initialized successfully")
}

// Upload streams a single file to the storage service under the given kind
// and owner, returning the stored artifact URL.
func (s *ArtifactStore) Upload(ctx context.Context, userID, kind string, file *multipart.FileHeader) (string, error) {
	logger := s.logger.With(
		zap.String("user_id", userID),
		zap.String("kind", kind),
		zap.String("filename", file.Filename),
	)

	ctx, cancel := context.WithTimeout(ctx, config.AppConfig.StorageTimeout)
	defer cancel()

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(file.Filename))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := writer.WriteField("kind", kind); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := writer.WriteField("owner_id", userID); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	url := fmt.Sprintf("%s/artifacts", config.AppConfig.StorageBaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", config.AppConfig.StorageAPIKey))
	req.Header.Set("Content-Type", writer.FormDataContentType())

	client := s.pool.Get()
	defer s.pool.Put(client)

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("failed to send upload request", zap.Error(err))
		return "", &models.UpstreamError{Collaborator: "storage", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.UpstreamError{Collaborator: "storage", Err: err}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		logger.Error("upload request failed", zap.Int("status_code", resp.StatusCode))
		return "", &models.UpstreamError{
			Collaborator: "storage",
			Err:          fmt.Errorf("upload failed with status %d", resp.StatusCode),
		}
	}

	var uploadResp uploadResponse
	if err := json.Unmarshal(body, &uploadResp); err != nil {
		return "", &models.UpstreamError{Collaborator: "storage", Err: err}
	}
	if uploadResp.URL == "" {
		return "", &models.UpstreamError{
			Collaborator: "storage",
			Err:          fmt.Errorf("upload response missing url"),
		}
	}

	logger.Debug("artifact uploaded", zap.String("url", uploadResp.URL))
	return uploadResp.URL, nil
}
