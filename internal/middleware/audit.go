package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ridelinkhq/onboarding-api/internal/observability"
	"github.com/ridelinkhq/onboarding-api/internal/utils"
	"go.uber.org/zap"
)

// AuditMiddleware records every successful write operation in the audit
// trail. Request bodies are never captured; signup and KYC payloads carry
// passwords and identity documents.
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method

		if method != "POST" && method != "PUT" && method != "DELETE" && method != "PATCH" {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/metrics") {
			c.Next()
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		userID := ""
		if claims := ClaimsFromContext(c); claims != nil {
			userID = claims.UserID
		}

		auditCtx := utils.GetAuditContextFromGin(c, userID)
		metadata := map[string]string{
			"endpoint":        path,
			"method":          method,
			"response_status": strconv.Itoa(status),
		}

		action, resource := classifyMutation(method, path)

		if err := utils.LogAuditEvent(c.Request.Context(), auditCtx, action, resource, c.Param("id"), metadata); err != nil {
			observability.Logger().Warn("failed to log audit event",
				zap.Error(err),
				zap.String("endpoint", path),
				zap.String("method", method),
			)
		}
	}
}

// classifyMutation maps a write request onto the audit action and resource
func classifyMutation(method, path string) (action, resource string) {
	switch method {
	case "POST":
		action = utils.AuditActionCreate
	case "PUT", "PATCH":
		action = utils.AuditActionUpdate
	case "DELETE":
		action = utils.AuditActionDelete
	default:
		action = utils.AuditActionUpdate
	}

	trimmed := strings.TrimPrefix(path, "/v1/")
	switch {
	case strings.HasPrefix(trimmed, "auth/login"):
		action = utils.AuditActionLogin
		resource = utils.AuditResourceCredential
	case strings.HasPrefix(trimmed, "auth/logout"):
		action = utils.AuditActionLogout
		resource = utils.AuditResourceCredential
	case strings.HasPrefix(trimmed, "auth/signup"),
		strings.HasPrefix(trimmed, "auth/resend-otp"),
		strings.HasPrefix(trimmed, "auth/verify-otp"):
		resource = utils.AuditResourceSession
	case strings.HasPrefix(trimmed, "auth/"):
		resource = utils.AuditResourceAccount
	case strings.HasPrefix(trimmed, "kyc/"):
		resource = utils.AuditResourceKYC
	case strings.HasPrefix(trimmed, "vehicles"):
		resource = utils.AuditResourceVehicle
	default:
		parts := strings.Split(trimmed, "/")
		resource = parts[0]
	}

	return action, resource
}
