// Package content implements the publishing endpoints for publications,
// events, and announcements, all sharing the draft/published lifecycle.
package content

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/member-portal/member-portal/internal/auth"
	"github.com/member-portal/member-portal/internal/db/models"
	"github.com/member-portal/member-portal/internal/db/repositories"
	"github.com/member-portal/member-portal/internal/telemetry"
)

// Handlers handles content publishing endpoints
type Handlers struct {
	pubRepo          *repositories.PublicationRepository
	eventRepo        *repositories.EventRepository
	annRepo          *repositories.AnnouncementRepository
	notificationRepo *repositories.NotificationRepository
}

// NewHandlers creates a new content Handlers instance. Events carry a JSONB
// speakers column so the event repository runs over sqlx.
func NewHandlers(db *sql.DB, sqlxDB *sqlx.DB) *Handlers {
	return &Handlers{
		pubRepo:          repositories.NewPublicationRepository(db),
		eventRepo:        repositories.NewEventRepository(sqlxDB),
		annRepo:          repositories.NewAnnouncementRepository(db),
		notificationRepo: repositories.NewNotificationRepository(db),
	}
}

// canEditContent reports whether the request's scope set grants content:write.
// Editors see the full lifecycle; everyone else sees published items only.
func canEditContent(c *gin.Context) bool {
	scopesVal, _ := c.Get("scopes")
	scopes, _ := scopesVal.([]string)
	return auth.HasScope(scopes, auth.ScopeContentWrite)
}

// pagination parses page/per_page query params with the portal defaults.
func pagination(c *gin.Context) (page, perPage, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage, (page - 1) * perPage
}

// committeeFilter parses the optional committee query param.
func committeeFilter(c *gin.Context) (*string, bool) {
	committee := c.Query("committee")
	if committee == "" {
		return nil, true
	}
	if !models.ValidCommittee(committee) {
		return nil, false
	}
	return &committee, true
}

// PublicationRequest represents a publication create/update request
type PublicationRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  *string `json:"description"`
	Content      *string `json:"content"`
	Category     *string `json:"category"`
	FileURL      *string `json:"file_url"`
	ThumbnailURL *string `json:"thumbnail_url"`
	Committee    string  `json:"committee" binding:"required"`
}

// @Summary      List publications
// @Description  List publications. Without content:write scope only published items are returned.
// @Tags         Content
// @Produce      json
// @Param        committee  query  string  false  "Filter by committee (DTC, CITAX, BOTH)"
// @Param        page       query  int     false  "Page number (default 1)"
// @Param        per_page   query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "publications: []models.Publication, pagination: map"
// @Failure      400  {object}  map[string]interface{}  "Invalid committee"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/publications [get]
// ListPublicationsHandler lists publications with lifecycle-scoped visibility
// GET /v1/publications?committee=&page=1&per_page=20
func (h *Handlers) ListPublicationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, perPage, offset := pagination(c)
		committee, ok := committeeFilter(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid committee filter",
			})
			return
		}

		publishedOnly := !canEditContent(c)
		pubs, total, err := h.pubRepo.ListPublications(c.Request.Context(), publishedOnly, committee, perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list publications",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"publications": pubs,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Get publication
// @Description  Get a publication by ID. Unpublished items are visible only with content:write scope.
// @Tags         Content
// @Produce      json
// @Param        id  path  string  true  "Publication ID"
// @Success      200  {object}  map[string]interface{}  "publication: models.Publication"
// @Failure      404  {object}  map[string]interface{}  "Publication not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/publications/{id} [get]
// GetPublicationHandler returns a single publication
// GET /v1/publications/:id
func (h *Handlers) GetPublicationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pub, err := h.pubRepo.GetPublicationByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve publication",
			})
			return
		}
		if pub == nil || (pub.Status != models.ContentStatusPublished && !canEditContent(c)) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Publication not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"publication": pub,
		})
	}
}

// @Summary      Create publication
// @Description  Create a publication draft. Requires content:write scope.
// @Tags         Content
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  PublicationRequest  true  "Publication"
// @Success      201  {object}  map[string]interface{}  "publication: models.Publication"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/publications [post]
// CreatePublicationHandler creates a new publication draft
// POST /v1/publications
func (h *Handlers) CreatePublicationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PublicationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}
		if !models.ValidCommittee(req.Committee) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid committee: " + req.Committee,
			})
			return
		}

		pub := &models.Publication{
			Title:        req.Title,
			Description:  req.Description,
			Content:      req.Content,
			Category:     req.Category,
			FileURL:      req.FileURL,
			ThumbnailURL: req.ThumbnailURL,
			Committee:    req.Committee,
			CreatedBy:    c.GetString("user_id"),
		}
		if err := h.pubRepo.CreatePublication(c.Request.Context(), pub); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create publication",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"publication": pub,
		})
	}
}

// @Summary      Update publication
// @Description  Update a publication's editable fields. The lifecycle status is changed via publish/unpublish, not here. Requires content:write scope.
// @Tags         Content
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "Publication ID"
// @Param        body  body  PublicationRequest  true  "Publication"
// @Success      200  {object}  map[string]interface{}  "publication: models.Publication"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Publication not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/publications/{id} [put]
// UpdatePublicationHandler updates a publication's editable fields
// PUT /v1/publications/:id
func (h *Handlers) UpdatePublicationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PublicationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}
		if !models.ValidCommittee(req.Committee) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid committee: " + req.Committee,
			})
			return
		}

		pub, err := h.pubRepo.GetPublicationByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve publication",
			})
			return
		}
		if pub == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Publication not found",
			})
			return
		}

		pub.Title = req.Title
		pub.Description = req.Description
		pub.Content = req.Content
		pub.Category = req.Category
		pub.FileURL = req.FileURL
		pub.ThumbnailURL = req.ThumbnailURL
		pub.Committee = req.Committee

		if err := h.pubRepo.UpdatePublication(c.Request.Context(), pub); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update publication",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"publication": pub,
		})
	}
}

// @Summary      Publish publication
// @Description  Publish a publication, stamping published_at. Requires content:publish scope.
// @Tags         Content
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Publication ID"
// @Success      200  {object}  map[string]interface{}  "publication: models.Publication"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Publication not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/publications/{id}/publish [post]
// PublishPublicationHandler publishes a publication
// POST /v1/publications/:id/publish
func (h *Handlers) PublishPublicationHandler() gin.HandlerFunc {
	return h.setPublicationStatus(models.ContentStatusPublished)
}

// @Summary      Unpublish publication
// @Description  Withdraw a publication from the published listing, clearing published_at and leaving the body intact. Requires content:publish scope.
// @Tags         Content
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Publication ID"
// @Success      200  {object}  map[string]interface{}  "publication: models.Publication"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Publication not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/publications/{id}/unpublish [post]
// UnpublishPublicationHandler withdraws a publication from the public listing
// POST /v1/publications/:id/unpublish
func (h *Handlers) UnpublishPublicationHandler() gin.HandlerFunc {
	return h.setPublicationStatus(models.ContentStatusUnpublished)
}

func (h *Handlers) setPublicationStatus(status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		err := h.pubRepo.SetPublicationStatus(c.Request.Context(), id, status)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Publication not found",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update publication status",
			})
			return
		}

		if status == models.ContentStatusPublished {
			telemetry.ContentPublishedTotal.WithLabelValues("publication").Inc()
		}

		pub, err := h.pubRepo.GetPublicationByID(c.Request.Context(), id)
		if err != nil || pub == nil {
			c.JSON(http.StatusOK, gin.H{"status": status})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"publication": pub,
		})
	}
}

// @Summary      Delete publication
// @Description  Permanently delete a publication. Requires content:publish scope.
// @Tags         Content
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Publication ID"
// @Success      200  {object}  map[string]interface{}  "deleted: true"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Publication not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/publications/{id} [delete]
// DeletePublicationHandler permanently deletes a publication
// DELETE /v1/publications/:id
func (h *Handlers) DeletePublicationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		pub, err := h.pubRepo.GetPublicationByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve publication",
			})
			return
		}
		if pub == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Publication not found",
			})
			return
		}

		if err := h.pubRepo.DeletePublication(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete publication",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"deleted": true,
		})
	}
}
