// audit.go provides Gin middleware that records authenticated write operations
// to the audit log.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/config"
	"github.com/member-portal/member-portal/internal/db/models"
	"github.com/member-portal/member-portal/internal/db/repositories"
	"github.com/member-portal/member-portal/internal/safego"
)

// AuditMiddleware logs authenticated actions with default settings (successful
// write operations only)
func AuditMiddleware(auditRepo *repositories.AuditRepository) gin.HandlerFunc {
	return AuditMiddlewareWithConfig(auditRepo, nil)
}

// AuditMiddlewareWithConfig logs authenticated actions per the audit config
func AuditMiddlewareWithConfig(auditRepo *repositories.AuditRepository, auditCfg *config.AuditConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request first
		c.Next()

		// Skip OPTIONS always
		if c.Request.Method == "OPTIONS" {
			return
		}

		// Determine what to log based on config
		logReadOps := auditCfg != nil && auditCfg.LogReadOperations
		logFailedReqs := auditCfg != nil && auditCfg.LogFailedRequests

		isReadOp := c.Request.Method == "GET"
		isFailed := c.Writer.Status() >= 400

		// Default behavior: only log successful write operations
		if auditCfg == nil {
			if isReadOp || isFailed {
				return
			}
		} else {
			if isReadOp && !logReadOps {
				return
			}
			if isFailed && !logFailedReqs {
				return
			}
		}

		userID, _ := c.Get("user_id")
		authMethod, _ := c.Get("auth_method")

		action := fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path)
		ipAddress := c.ClientIP()

		auditLog := &models.AuditLog{
			Action:       action,
			ResourceType: resourceTypeForPath(c.Request.URL.Path),
			IPAddress:    &ipAddress,
			CreatedAt:    time.Now(),
		}

		if userID != nil {
			if uid, ok := userID.(string); ok {
				auditLog.UserID = &uid
			}
		}

		if id := c.Param("id"); id != "" {
			auditLog.ResourceID = &id
		}

		metadata := make(map[string]interface{})
		if authMethod != nil {
			metadata["auth_method"] = authMethod
		}
		metadata["status_code"] = c.Writer.Status()
		auditLog.Metadata = metadata

		// Async log creation (non-blocking)
		safego.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if auditRepo != nil {
				if err := auditRepo.CreateAuditLog(ctx, auditLog); err != nil {
					slog.Warn("failed to create audit log", "action", auditLog.Action, "error", err)
				}
			}
		})
	}
}

// resourceTypeForPath classifies a request path into the audit resource
// vocabulary. Responses sit under /queries/:id/responses so the responses
// check must run first.
func resourceTypeForPath(path string) string {
	switch {
	case strings.Contains(path, "/responses") || strings.Contains(path, "/moderation"):
		return "forum_response"
	case strings.Contains(path, "/queries"):
		return "forum_query"
	case strings.Contains(path, "/publications"):
		return "publication"
	case strings.Contains(path, "/events"):
		return "event"
	case strings.Contains(path, "/announcements"):
		return "announcement"
	case strings.Contains(path, "/tickets"):
		return "helpdesk_ticket"
	case strings.Contains(path, "/users") || strings.Contains(path, "/roles") || strings.Contains(path, "/profile"):
		return "user"
	case strings.Contains(path, "/auth"):
		return "session"
	default:
		return "other"
	}
}
