package admin

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/db/repositories"
)

// AuditHandlers serves the audit trail
type AuditHandlers struct {
	auditRepo *repositories.AuditRepository
}

// NewAuditHandlers creates a new AuditHandlers instance
func NewAuditHandlers(db *sql.DB) *AuditHandlers {
	return &AuditHandlers{
		auditRepo: repositories.NewAuditRepository(db),
	}
}

// @Summary      List audit logs
// @Description  Query the audit trail with optional filters. Dates are RFC3339. Requires audit:read scope.
// @Tags         Audit
// @Security     Bearer
// @Produce      json
// @Param        user_id        query  string  false  "Filter by acting user"
// @Param        action         query  string  false  "Filter by action, e.g. POST /queries"
// @Param        resource_type  query  string  false  "Filter by resource type"
// @Param        start_date     query  string  false  "Only entries at or after this time (RFC3339)"
// @Param        end_date       query  string  false  "Only entries at or before this time (RFC3339)"
// @Param        page           query  int     false  "Page number (default 1)"
// @Param        per_page       query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "logs: []models.AuditLog, pagination: map"
// @Failure      400  {object}  map[string]interface{}  "Invalid date filter"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/admin/audit-logs [get]
// ListAuditLogsHandler lists audit log entries with filters and pagination
// GET /v1/admin/audit-logs?user_id=&action=&resource_type=&start_date=&end_date=
func (h *AuditHandlers) ListAuditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}
		offset := (page - 1) * perPage

		var filters repositories.AuditFilters
		if v := c.Query("user_id"); v != "" {
			filters.UserID = &v
		}
		if v := c.Query("action"); v != "" {
			filters.Action = &v
		}
		if v := c.Query("resource_type"); v != "" {
			filters.ResourceType = &v
		}
		if v := c.Query("start_date"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Invalid start_date, expected RFC3339",
				})
				return
			}
			filters.StartDate = &t
		}
		if v := c.Query("end_date"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Invalid end_date, expected RFC3339",
				})
				return
			}
			filters.EndDate = &t
		}

		logs, total, err := h.auditRepo.ListAuditLogs(c.Request.Context(), filters, perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list audit logs",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"logs": logs,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Get audit log
// @Description  Get a single audit log entry by ID. Requires audit:read scope.
// @Tags         Audit
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Audit log ID"
// @Success      200  {object}  map[string]interface{}  "log: models.AuditLog"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Audit log not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/admin/audit-logs/{id} [get]
// GetAuditLogHandler returns a single audit log entry
// GET /v1/admin/audit-logs/:id
func (h *AuditHandlers) GetAuditLogHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logID := c.Param("id")

		log, err := h.auditRepo.GetAuditLog(c.Request.Context(), logID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve audit log",
			})
			return
		}
		if log == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Audit log not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"log": log,
		})
	}
}
