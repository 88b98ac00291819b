// Package forum implements the members' tax query forum endpoints: query
// submission and listing, expert responses, and the moderation workflow.
package forum

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/auth"
	"github.com/member-portal/member-portal/internal/db/models"
	"github.com/member-portal/member-portal/internal/db/repositories"
	"github.com/member-portal/member-portal/internal/telemetry"
)

// Handlers handles forum query and response endpoints
type Handlers struct {
	forumRepo        *repositories.ForumRepository
	notificationRepo *repositories.NotificationRepository
}

// NewHandlers creates a new forum Handlers instance
func NewHandlers(db *sql.DB) *Handlers {
	return &Handlers{
		forumRepo:        repositories.NewForumRepository(db),
		notificationRepo: repositories.NewNotificationRepository(db),
	}
}

// canSeeAllQueries reports whether the request's scope set grants visibility
// over other members' queries (experts, moderators, admins).
func canSeeAllQueries(c *gin.Context) bool {
	scopesVal, _ := c.Get("scopes")
	scopes, _ := scopesVal.([]string)
	return auth.HasAnyScope(scopes, []auth.Scope{auth.ScopeForumRespond, auth.ScopeForumModerate})
}

// canModerate reports whether the request's scope set includes forum:moderate.
func canModerate(c *gin.Context) bool {
	scopesVal, _ := c.Get("scopes")
	scopes, _ := scopesVal.([]string)
	return auth.HasScope(scopes, auth.ScopeForumModerate)
}

// SubmitQueryRequest represents a new tax query submission
type SubmitQueryRequest struct {
	Category string `json:"category" binding:"required"`
	Subject  string `json:"subject" binding:"required"`
	Question string `json:"question" binding:"required"`
}

// @Summary      Submit query
// @Description  Submit a new tax query. Requires forum:write scope.
// @Tags         Forum
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  SubmitQueryRequest  true  "Query submission"
// @Success      201  {object}  map[string]interface{}  "query: models.Query"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/queries [post]
// SubmitQueryHandler submits a new tax query for the authenticated member
// POST /v1/queries
func (h *Handlers) SubmitQueryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitQueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		if !models.ValidCategory(req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid category: " + req.Category,
			})
			return
		}

		userID := c.GetString("user_id")
		query := &models.Query{
			MemberID: userID,
			Category: req.Category,
			Subject:  req.Subject,
			Question: req.Question,
		}
		if err := h.forumRepo.CreateQuery(c.Request.Context(), query); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to submit query",
			})
			return
		}

		telemetry.ForumQueriesSubmittedTotal.WithLabelValues(query.Category).Inc()

		c.JSON(http.StatusCreated, gin.H{
			"query": query,
		})
	}
}

// @Summary      List queries
// @Description  List tax queries. Members see only their own queries; experts, moderators, and admins see all. Requires forum:read scope.
// @Tags         Forum
// @Security     Bearer
// @Produce      json
// @Param        status    query  string  false  "Filter by status"
// @Param        category  query  string  false  "Filter by category"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        per_page  query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "queries: []models.Query, pagination: map"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/queries [get]
// ListQueriesHandler lists queries with role-scoped visibility
// GET /v1/queries?status=&category=&page=1&per_page=20
func (h *Handlers) ListQueriesHandler() gin.HandlerFunc {
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

		var filters repositories.QueryFilters
		if status := c.Query("status"); status != "" {
			// under_review is a display label for queries awaiting moderation;
			// the stored status is responded.
			if status == models.QueryStatusUnderReview {
				status = models.QueryStatusResponded
			}
			filters.Status = &status
		}
		if category := c.Query("category"); category != "" {
			filters.Category = &category
		}

		// Members are pinned to their own queries regardless of filters
		if !canSeeAllQueries(c) {
			userID := c.GetString("user_id")
			filters.MemberID = &userID
		}

		queries, total, err := h.forumRepo.ListQueries(c.Request.Context(), filters, perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list queries",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"queries": queries,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Get query
// @Description  Get a query with its responses. Members see only approved responses on their own queries; moderators also see pending ones. Requires forum:read scope.
// @Tags         Forum
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Query ID"
// @Success      200  {object}  models.QueryWithResponses
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Query not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/queries/{id} [get]
// GetQueryHandler returns a query with its visible responses
// GET /v1/queries/:id
func (h *Handlers) GetQueryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		queryID := c.Param("id")

		query, err := h.forumRepo.GetQueryByID(c.Request.Context(), queryID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve query",
			})
			return
		}
		if query == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Query not found",
			})
			return
		}

		// Members may only open their own queries; a foreign ID reads as absent
		if !canSeeAllQueries(c) && query.MemberID != c.GetString("user_id") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Query not found",
			})
			return
		}

		approvedOnly := !canModerate(c)
		responses, err := h.forumRepo.ListResponsesForQuery(c.Request.Context(), queryID, approvedOnly)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve responses",
			})
			return
		}

		c.JSON(http.StatusOK, models.QueryWithResponses{
			Query:     *query,
			Responses: responses,
		})
	}
}

// SubmitResponseRequest represents an expert's answer to a query
type SubmitResponseRequest struct {
	Response string `json:"response" binding:"required"`
}

// @Summary      Submit response
// @Description  Submit an expert response to a query. The query is marked responded and assigned to the responding expert in the same transaction. Requires forum:respond scope.
// @Tags         Forum
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "Query ID"
// @Param        body  body  SubmitResponseRequest  true  "Response submission"
// @Success      201  {object}  map[string]interface{}  "response: models.Response"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Query not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/queries/{id}/responses [post]
// SubmitResponseHandler submits an expert response to a query
// POST /v1/queries/:id/responses
func (h *Handlers) SubmitResponseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		queryID := c.Param("id")

		var req SubmitResponseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		query, err := h.forumRepo.GetQueryByID(c.Request.Context(), queryID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve query",
			})
			return
		}
		if query == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Query not found",
			})
			return
		}

		resp := &models.Response{
			QueryID:  queryID,
			ExpertID: c.GetString("user_id"),
			Response: req.Response,
		}
		if err := h.forumRepo.SubmitResponse(c.Request.Context(), resp); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to submit response",
			})
			return
		}

		telemetry.ForumResponsesSubmittedTotal.Inc()

		c.JSON(http.StatusCreated, gin.H{
			"response": resp,
		})
	}
}
