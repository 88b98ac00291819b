// announcements.go implements the announcement endpoints. Announcements are
// time-boxed: published ones with a past expires_at are dropped from the
// member listing and later archived by the expiry job.
package content

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/db/models"
	"github.com/member-portal/member-portal/internal/telemetry"
)

// AnnouncementRequest represents an announcement create/update request
type AnnouncementRequest struct {
	Title     string     `json:"title" binding:"required"`
	Content   string     `json:"content" binding:"required"`
	Committee string     `json:"committee" binding:"required"`
	Priority  string     `json:"priority"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (r *AnnouncementRequest) validate() string {
	if !models.ValidCommittee(r.Committee) {
		return "Invalid committee: " + r.Committee
	}
	if r.Priority != "" && !models.ValidPriority(r.Priority) {
		return "Invalid priority: " + r.Priority
	}
	return ""
}

// @Summary      List announcements
// @Description  List announcements, urgent first. Without content:write scope only live published announcements are returned.
// @Tags         Content
// @Produce      json
// @Param        committee  query  string  false  "Filter by committee (DTC, CITAX, BOTH)"
// @Param        page       query  int     false  "Page number (default 1)"
// @Param        per_page   query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "announcements: []models.Announcement, pagination: map"
// @Failure      400  {object}  map[string]interface{}  "Invalid committee"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/announcements [get]
// ListAnnouncementsHandler lists announcements with lifecycle-scoped visibility
// GET /v1/announcements?committee=&page=1&per_page=20
func (h *Handlers) ListAnnouncementsHandler() gin.HandlerFunc {
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
		anns, total, err := h.annRepo.ListAnnouncements(c.Request.Context(), publishedOnly, committee, perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list announcements",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"announcements": anns,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Get announcement
// @Description  Get an announcement by ID. Unpublished announcements are visible only with content:write scope.
// @Tags         Content
// @Produce      json
// @Param        id  path  string  true  "Announcement ID"
// @Success      200  {object}  map[string]interface{}  "announcement: models.Announcement"
// @Failure      404  {object}  map[string]interface{}  "Announcement not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/announcements/{id} [get]
// GetAnnouncementHandler returns a single announcement
// GET /v1/announcements/:id
func (h *Handlers) GetAnnouncementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ann, err := h.annRepo.GetAnnouncementByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve announcement",
			})
			return
		}
		if ann == nil || (ann.Status != models.ContentStatusPublished && !canEditContent(c)) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Announcement not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"announcement": ann,
		})
	}
}

// @Summary      Create announcement
// @Description  Create an announcement draft. Requires content:write scope.
// @Tags         Content
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  AnnouncementRequest  true  "Announcement"
// @Success      201  {object}  map[string]interface{}  "announcement: models.Announcement"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/announcements [post]
// CreateAnnouncementHandler creates a new announcement draft
// POST /v1/announcements
func (h *Handlers) CreateAnnouncementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AnnouncementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}
		if msg := req.validate(); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}

		ann := &models.Announcement{
			Title:     req.Title,
			Content:   req.Content,
			Committee: req.Committee,
			Priority:  req.Priority,
			ExpiresAt: req.ExpiresAt,
			CreatedBy: c.GetString("user_id"),
		}
		if err := h.annRepo.CreateAnnouncement(c.Request.Context(), ann); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create announcement",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"announcement": ann,
		})
	}
}

// @Summary      Update announcement
// @Description  Update an announcement's editable fields. Requires content:write scope.
// @Tags         Content
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "Announcement ID"
// @Param        body  body  AnnouncementRequest  true  "Announcement"
// @Success      200  {object}  map[string]interface{}  "announcement: models.Announcement"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Announcement not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/announcements/{id} [put]
// UpdateAnnouncementHandler updates an announcement's editable fields
// PUT /v1/announcements/:id
func (h *Handlers) UpdateAnnouncementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AnnouncementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}
		if msg := req.validate(); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}

		ann, err := h.annRepo.GetAnnouncementByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve announcement",
			})
			return
		}
		if ann == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Announcement not found",
			})
			return
		}

		ann.Title = req.Title
		ann.Content = req.Content
		ann.Committee = req.Committee
		if req.Priority != "" {
			ann.Priority = req.Priority
		}
		ann.ExpiresAt = req.ExpiresAt

		if err := h.annRepo.UpdateAnnouncement(c.Request.Context(), ann); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update announcement",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"announcement": ann,
		})
	}
}

// @Summary      Publish announcement
// @Description  Publish an announcement. Requires content:publish scope.
// @Tags         Content
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Announcement ID"
// @Success      200  {object}  map[string]interface{}  "announcement: models.Announcement"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Announcement not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/announcements/{id}/publish [post]
// PublishAnnouncementHandler publishes an announcement
// POST /v1/announcements/:id/publish
func (h *Handlers) PublishAnnouncementHandler() gin.HandlerFunc {
	return h.setAnnouncementStatus(models.ContentStatusPublished)
}

// @Summary      Unpublish announcement
// @Description  Withdraw an announcement from the member listing. Requires content:publish scope.
// @Tags         Content
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Announcement ID"
// @Success      200  {object}  map[string]interface{}  "announcement: models.Announcement"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Announcement not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/announcements/{id}/unpublish [post]
// UnpublishAnnouncementHandler withdraws an announcement from the member listing
// POST /v1/announcements/:id/unpublish
func (h *Handlers) UnpublishAnnouncementHandler() gin.HandlerFunc {
	return h.setAnnouncementStatus(models.ContentStatusUnpublished)
}

func (h *Handlers) setAnnouncementStatus(status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		err := h.annRepo.SetAnnouncementStatus(c.Request.Context(), id, status)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Announcement not found",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update announcement status",
			})
			return
		}

		if status == models.ContentStatusPublished {
			telemetry.ContentPublishedTotal.WithLabelValues("announcement").Inc()
		}

		ann, err := h.annRepo.GetAnnouncementByID(c.Request.Context(), id)
		if err != nil || ann == nil {
			c.JSON(http.StatusOK, gin.H{"status": status})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"announcement": ann,
		})
	}
}

// @Summary      Delete announcement
// @Description  Permanently delete an announcement. Requires content:publish scope.
// @Tags         Content
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Announcement ID"
// @Success      200  {object}  map[string]interface{}  "deleted: true"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Announcement not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/announcements/{id} [delete]
// DeleteAnnouncementHandler permanently deletes an announcement
// DELETE /v1/announcements/:id
func (h *Handlers) DeleteAnnouncementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		ann, err := h.annRepo.GetAnnouncementByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve announcement",
			})
			return
		}
		if ann == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Announcement not found",
			})
			return
		}

		if err := h.annRepo.DeleteAnnouncement(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete announcement",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"deleted": true,
		})
	}
}
