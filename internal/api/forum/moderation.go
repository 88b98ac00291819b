// moderation.go implements the moderation workflow: the pending-response queue,
// approve/reject decisions, and query escalation.
package forum

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/db/models"
	"github.com/member-portal/member-portal/internal/db/repositories"
	"github.com/member-portal/member-portal/internal/telemetry"
)

// @Summary      Moderation queue
// @Description  List all responses awaiting moderation across queries. Requires forum:moderate scope.
// @Tags         Moderation
// @Security     Bearer
// @Produce      json
// @Param        page      query  int  false  "Page number (default 1)"
// @Param        per_page  query  int  false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "responses: []models.Response, pagination: map"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/moderation/responses [get]
// ListPendingResponsesHandler lists responses awaiting a moderation decision
// GET /v1/moderation/responses?page=1&per_page=20
func (h *Handlers) ListPendingResponsesHandler() gin.HandlerFunc {
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

		responses, total, err := h.forumRepo.ListPendingResponses(c.Request.Context(), perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list pending responses",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"responses": responses,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// ModerationRequest carries the optional (approve) or required (reject)
// moderator notes.
type ModerationRequest struct {
	Notes string `json:"notes"`
}

// @Summary      Approve response
// @Description  Approve a pending response. The response and its query move to approved in one transaction. Requires forum:moderate scope.
// @Tags         Moderation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true   "Response ID"
// @Param        body  body  ModerationRequest  false  "Optional moderator notes"
// @Success      200  {object}  map[string]interface{}  "response: models.Response"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Response not found"
// @Failure      409  {object}  map[string]interface{}  "Response is not pending moderation"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/moderation/responses/{id}/approve [post]
// ApproveResponseHandler approves a pending expert response
// POST /v1/moderation/responses/:id/approve
func (h *Handlers) ApproveResponseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		responseID := c.Param("id")

		var req ModerationRequest
		// Body is optional on approve
		_ = c.ShouldBindJSON(&req)

		var notes *string
		if strings.TrimSpace(req.Notes) != "" {
			notes = &req.Notes
		}

		moderatorID := c.GetString("user_id")
		err := h.forumRepo.ApproveResponse(c.Request.Context(), responseID, moderatorID, notes)
		if errors.Is(err, repositories.ErrResponseNotPending) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Response is not pending moderation",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to approve response",
			})
			return
		}

		telemetry.ForumResponsesModeratedTotal.WithLabelValues("approved").Inc()

		resp, err := h.forumRepo.GetResponseByID(c.Request.Context(), responseID)
		if err != nil || resp == nil {
			// The decision is committed; return a minimal body
			c.JSON(http.StatusOK, gin.H{"status": models.ResponseStatusApproved})
			return
		}

		h.notifyQueryOwner(c.Request.Context(), resp)

		c.JSON(http.StatusOK, gin.H{
			"response": resp,
		})
	}
}

// @Summary      Reject response
// @Description  Reject a pending response with mandatory moderator notes. The query is left untouched so the expert can respond again. Requires forum:moderate scope.
// @Tags         Moderation
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "Response ID"
// @Param        body  body  ModerationRequest  true  "Moderator notes (required)"
// @Success      200  {object}  map[string]interface{}  "response: models.Response"
// @Failure      400  {object}  map[string]interface{}  "Notes are required"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      409  {object}  map[string]interface{}  "Response is not pending moderation"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/moderation/responses/{id}/reject [post]
// RejectResponseHandler rejects a pending expert response
// POST /v1/moderation/responses/:id/reject
func (h *Handlers) RejectResponseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		responseID := c.Param("id")

		var req ModerationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}
		if strings.TrimSpace(req.Notes) == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Moderator notes are required when rejecting a response",
			})
			return
		}

		moderatorID := c.GetString("user_id")
		err := h.forumRepo.RejectResponse(c.Request.Context(), responseID, moderatorID, req.Notes)
		if errors.Is(err, repositories.ErrResponseNotPending) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Response is not pending moderation",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to reject response",
			})
			return
		}

		telemetry.ForumResponsesModeratedTotal.WithLabelValues("rejected").Inc()

		resp, err := h.forumRepo.GetResponseByID(c.Request.Context(), responseID)
		if err != nil || resp == nil {
			c.JSON(http.StatusOK, gin.H{"status": models.ResponseStatusRejected})
			return
		}

		h.notifyExpert(c.Request.Context(), resp)

		c.JSON(http.StatusOK, gin.H{
			"response": resp,
		})
	}
}

// @Summary      Escalate query
// @Description  Escalate a query to committee review. Increments the escalation count. Requires forum:moderate scope.
// @Tags         Moderation
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Query ID"
// @Success      200  {object}  map[string]interface{}  "query: models.Query"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Query not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/queries/{id}/escalate [post]
// EscalateQueryHandler escalates a query for committee attention
// POST /v1/queries/:id/escalate
func (h *Handlers) EscalateQueryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		queryID := c.Param("id")

		err := h.forumRepo.EscalateQuery(c.Request.Context(), queryID)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Query not found",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to escalate query",
			})
			return
		}

		query, err := h.forumRepo.GetQueryByID(c.Request.Context(), queryID)
		if err != nil || query == nil {
			c.JSON(http.StatusOK, gin.H{"status": models.QueryStatusEscalated})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"query": query,
		})
	}
}

// notifyQueryOwner writes an in-portal notification to the owner of the query
// an approved response belongs to. Notification failures never fail the
// moderation request.
func (h *Handlers) notifyQueryOwner(ctx context.Context, resp *models.Response) {
	query, err := h.forumRepo.GetQueryByID(ctx, resp.QueryID)
	if err != nil || query == nil {
		slog.Warn("could not resolve query for approval notification", "query_id", resp.QueryID, "error", err)
		return
	}
	n := &models.Notification{
		UserID:    query.MemberID,
		Type:      models.NotificationResponseApproved,
		Title:     "Your query has been answered",
		Message:   "An expert response to your query \"" + query.Subject + "\" has been approved.",
		RelatedID: &resp.QueryID,
	}
	if err := h.notificationRepo.CreateNotification(ctx, n); err != nil {
		slog.Warn("failed to create approval notification", "user_id", query.MemberID, "error", err)
	}
}

// notifyExpert tells the responding expert their answer was rejected.
func (h *Handlers) notifyExpert(ctx context.Context, resp *models.Response) {
	n := &models.Notification{
		UserID:    resp.ExpertID,
		Type:      models.NotificationResponseRejected,
		Title:     "Your response was returned",
		Message:   "A moderator returned your response for rework. See the moderator notes on the query.",
		RelatedID: &resp.QueryID,
	}
	if err := h.notificationRepo.CreateNotification(ctx, n); err != nil {
		slog.Warn("failed to create rejection notification", "user_id", resp.ExpertID, "error", err)
	}
}
