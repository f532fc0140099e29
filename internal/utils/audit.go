package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridelinkhq/onboarding-api/internal/config"
	"github.com/ridelinkhq/onboarding-api/internal/logging"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Action     string             `bson:"action" json:"action"`
	Resource   string             `bson:"resource" json:"resource"`
	ResourceID string             `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	IPAddress  string             `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent  string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	RequestID  string             `bson:"request_id,omitempty" json:"request_id,omitempty"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
	Metadata   map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// Audit constants
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
	AuditActionLogin  = "LOGIN"
	AuditActionLogout = "LOGOUT"

	AuditResourceSession    = "verification_session"
	AuditResourceAccount    = "account"
	AuditResourceKYC        = "kyc"
	AuditResourceVehicle    = "vehicle"
	AuditResourceCredential = "credential"
)

// AuditContext contains context information for audit logging
type AuditContext struct {
	UserID    string
	IPAddress string
	UserAgent string
	RequestID string
}

// GetAuditContextFromGin builds an audit context from the request
func GetAuditContextFromGin(c *gin.Context, userID string) AuditContext {
	requestID, _ := c.Get("RequestID")
	requestIDStr, _ := requestID.(string)

	return AuditContext{
		UserID:    userID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: requestIDStr,
	}
}

// AuditWorker manages asynchronous audit logging
type AuditWorker struct {
	auditChan chan AuditLog
	workers   int
	wg        sync.WaitGroup
}

var (
	auditWorker     *AuditWorker
	auditWorkerOnce sync.Once
)

// InitAuditWorker initializes the audit worker
func InitAuditWorker(workers int, bufferSize int) {
	auditWorkerOnce.Do(func() {
		auditWorker = &AuditWorker{
			auditChan: make(chan AuditLog, bufferSize),
			workers:   workers,
		}
		auditWorker.start()
	})
}

func (aw *AuditWorker) start() {
	aw.wg.Add(aw.workers)

	for i := 0; i < aw.workers; i++ {
		go func() {
			defer aw.wg.Done()
			aw.processAuditLogs()
		}()
	}

	logging.Logger.Info("audit worker started",
		zap.Int("workers", aw.workers),
		zap.Int("buffer_size", cap(aw.auditChan)))
}

// processAuditLogs drains the channel in batches so bursts of writes become
// a handful of bulk inserts.
func (aw *AuditWorker) processAuditLogs() {
	batchTicker := time.NewTicker(100 * time.Millisecond)
	defer batchTicker.Stop()

	var batch []AuditLog
	batchSize := 100

	for {
		select {
		case auditLog, ok := <-aw.auditChan:
			if !ok {
				if len(batch) > 0 {
					aw.flushBatch(batch)
				}
				return
			}
			batch = append(batch, auditLog)

			if len(batch) >= batchSize {
				aw.flushBatch(batch)
				batch = batch[:0]
			}
		case <-batchTicker.C:
			if len(batch) > 0 {
				aw.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (aw *AuditWorker) flushBatch(batch []AuditLog) {
	if len(batch) == 0 {
		return
	}

	logger := logging.Logger.With(
		zap.Int("batch_size", len(batch)),
		zap.String("operation", "audit_batch_insert"),
	)

	var operations []mongo.WriteModel
	for _, log := range batch {
		operations = append(operations, mongo.NewInsertOneModel().SetDocument(log))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.BulkWrite().SetOrdered(false)

	result, err := config.MongoDB.Collection(config.AppConfig.AuditLogCollection).BulkWrite(ctx, operations, opts)
	if err != nil {
		logger.Error("failed to insert audit log batch", zap.Error(err))
		return
	}

	logger.Debug("audit log batch inserted", zap.Int64("inserted", result.InsertedCount))
}

// Stop closes the intake channel and waits for the workers to drain it
func (aw *AuditWorker) Stop() {
	if aw != nil {
		close(aw.auditChan)
		aw.wg.Wait()
	}
}

// GetAuditWorker returns the global audit worker instance
func GetAuditWorker() *AuditWorker {
	return auditWorker
}

// LogAuditEvent logs an audit event to the audit collection asynchronously
func LogAuditEvent(ctx context.Context, auditCtx AuditContext, action, resource, resourceID string, metadata map[string]string) error {
	if !config.AppConfig.AuditLogsEnabled {
		return nil
	}

	if auditWorker == nil {
		return logAuditEventSync(ctx, auditCtx, action, resource, resourceID, metadata)
	}

	auditLog := AuditLog{
		UserID:     auditCtx.UserID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  auditCtx.IPAddress,
		UserAgent:  auditCtx.UserAgent,
		RequestID:  auditCtx.RequestID,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}

	select {
	case auditWorker.auditChan <- auditLog:
		return nil
	default:
		logging.Logger.Warn("audit channel full, falling back to synchronous logging",
			zap.String("action", action))
		return logAuditEventSync(ctx, auditCtx, action, resource, resourceID, metadata)
	}
}

func logAuditEventSync(ctx context.Context, auditCtx AuditContext, action, resource, resourceID string, metadata map[string]string) error {
	auditLog := AuditLog{
		UserID:     auditCtx.UserID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  auditCtx.IPAddress,
		UserAgent:  auditCtx.UserAgent,
		RequestID:  auditCtx.RequestID,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}

	dbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := config.MongoDB.Collection(config.AppConfig.AuditLogCollection).InsertOne(dbCtx, auditLog)
	if err != nil {
		logging.Logger.Error("failed to insert audit log", zap.Error(err))
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}
