// Package helpdesk implements the helpdesk ticket endpoints: ticket creation
// by any authenticated user, and triage (assignment, status, priority) by
// helpdesk staff.
package helpdesk

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/auth"
	"github.com/member-portal/member-portal/internal/db/models"
	"github.com/member-portal/member-portal/internal/db/repositories"
	"github.com/member-portal/member-portal/internal/telemetry"
)

// Handlers handles helpdesk ticket endpoints
type Handlers struct {
	ticketRepo       *repositories.TicketRepository
	notificationRepo *repositories.NotificationRepository
}

// NewHandlers creates a new helpdesk Handlers instance
func NewHandlers(db *sql.DB) *Handlers {
	return &Handlers{
		ticketRepo:       repositories.NewTicketRepository(db),
		notificationRepo: repositories.NewNotificationRepository(db),
	}
}

// canManageTickets reports whether the request's scope set grants tickets:manage.
func canManageTickets(c *gin.Context) bool {
	scopesVal, _ := c.Get("scopes")
	scopes, _ := scopesVal.([]string)
	return auth.HasScope(scopes, auth.ScopeTicketsManage)
}

// CreateTicketRequest represents a new helpdesk ticket
type CreateTicketRequest struct {
	Subject     string  `json:"subject" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Category    *string `json:"category"`
	Priority    string  `json:"priority"`
}

// @Summary      Create ticket
// @Description  Open a helpdesk ticket. Requires tickets:create scope.
// @Tags         Helpdesk
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  CreateTicketRequest  true  "Ticket"
// @Success      201  {object}  map[string]interface{}  "ticket: models.Ticket"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/tickets [post]
// CreateTicketHandler opens a new helpdesk ticket for the authenticated user
// POST /v1/tickets
func (h *Handlers) CreateTicketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}
		if req.Priority != "" && !models.ValidPriority(req.Priority) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid priority: " + req.Priority,
			})
			return
		}

		ticket := &models.Ticket{
			UserID:      c.GetString("user_id"),
			Subject:     req.Subject,
			Description: req.Description,
			Category:    req.Category,
			Priority:    req.Priority,
		}
		if err := h.ticketRepo.CreateTicket(c.Request.Context(), ticket); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create ticket",
			})
			return
		}

		telemetry.HelpdeskTicketsOpenedTotal.WithLabelValues(ticket.Priority).Inc()

		c.JSON(http.StatusCreated, gin.H{
			"ticket": ticket,
		})
	}
}

// @Summary      List tickets
// @Description  List helpdesk tickets. Owners see their own; tickets:manage scope sees all with filters.
// @Tags         Helpdesk
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "Filter by status"
// @Param        priority     query  string  false  "Filter by priority"
// @Param        assigned_to  query  string  false  "Filter by assignee (staff only)"
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        per_page     query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "tickets: []models.Ticket, pagination: map"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/tickets [get]
// ListTicketsHandler lists tickets with owner-or-staff visibility
// GET /v1/tickets?status=&priority=&page=1&per_page=20
func (h *Handlers) ListTicketsHandler() gin.HandlerFunc {
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

		var filters repositories.TicketFilters
		if status := c.Query("status"); status != "" {
			filters.Status = &status
		}
		if priority := c.Query("priority"); priority != "" {
			filters.Priority = &priority
		}

		if canManageTickets(c) {
			if assignedTo := c.Query("assigned_to"); assignedTo != "" {
				filters.AssignedTo = &assignedTo
			}
		} else {
			userID := c.GetString("user_id")
			filters.UserID = &userID
		}

		tickets, total, err := h.ticketRepo.ListTickets(c.Request.Context(), filters, perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list tickets",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"tickets": tickets,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Get ticket
// @Description  Get a ticket by ID. Only the owner or tickets:manage scope may view it.
// @Tags         Helpdesk
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Ticket ID"
// @Success      200  {object}  map[string]interface{}  "ticket: models.Ticket"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Ticket not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/tickets/{id} [get]
// GetTicketHandler returns a single ticket
// GET /v1/tickets/:id
func (h *Handlers) GetTicketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ticket, err := h.ticketRepo.GetTicketByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve ticket",
			})
			return
		}
		if ticket == nil || (!canManageTickets(c) && ticket.UserID != c.GetString("user_id")) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Ticket not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ticket": ticket,
		})
	}
}

// UpdateStatusRequest carries a ticket status transition
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// @Summary      Update ticket status
// @Description  Advance a ticket's status. Entering resolved or closed stamps resolved_at; closed is terminal. Requires tickets:manage scope.
// @Tags         Helpdesk
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "Ticket ID"
// @Param        body  body  UpdateStatusRequest  true  "New status"
// @Success      200  {object}  map[string]interface{}  "ticket: models.Ticket"
// @Failure      400  {object}  map[string]interface{}  "Invalid status"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Ticket not found"
// @Failure      409  {object}  map[string]interface{}  "Ticket is closed"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/tickets/{id}/status [put]
// UpdateStatusHandler advances a ticket's status
// PUT /v1/tickets/:id/status
func (h *Handlers) UpdateStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}
		if !models.ValidTicketStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid status: " + req.Status,
			})
			return
		}

		id := c.Param("id")
		err := h.ticketRepo.UpdateTicketStatus(c.Request.Context(), id, req.Status)
		if errors.Is(err, repositories.ErrTicketClosed) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Ticket is closed",
			})
			return
		}
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Ticket not found",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update ticket status",
			})
			return
		}

		ticket, err := h.ticketRepo.GetTicketByID(c.Request.Context(), id)
		if err != nil || ticket == nil {
			c.JSON(http.StatusOK, gin.H{"status": req.Status})
			return
		}

		h.notifyRequester(c.Request.Context(), ticket, "Ticket status changed to "+req.Status)

		c.JSON(http.StatusOK, gin.H{
			"ticket": ticket,
		})
	}
}

// AssignTicketRequest carries the assignee for a ticket
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id" binding:"required"`
}

// @Summary      Assign ticket
// @Description  Assign a ticket to a helpdesk user and move it to in_progress. Requires tickets:manage scope.
// @Tags         Helpdesk
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "Ticket ID"
// @Param        body  body  AssignTicketRequest  true  "Assignee"
// @Success      200  {object}  map[string]interface{}  "ticket: models.Ticket"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Ticket not found"
// @Failure      409  {object}  map[string]interface{}  "Ticket is closed"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/tickets/{id}/assign [put]
// AssignTicketHandler assigns a ticket to a helpdesk user
// PUT /v1/tickets/:id/assign
func (h *Handlers) AssignTicketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AssignTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		id := c.Param("id")
		err := h.ticketRepo.AssignTicket(c.Request.Context(), id, req.AssigneeID)
		if errors.Is(err, repositories.ErrTicketClosed) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Ticket is closed",
			})
			return
		}
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Ticket not found",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to assign ticket",
			})
			return
		}

		ticket, err := h.ticketRepo.GetTicketByID(c.Request.Context(), id)
		if err != nil || ticket == nil {
			c.JSON(http.StatusOK, gin.H{"assigned": true})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ticket": ticket,
		})
	}
}

// UpdatePriorityRequest carries a ticket priority change
type UpdatePriorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

// @Summary      Update ticket priority
// @Description  Change a ticket's priority. Requires tickets:manage scope.
// @Tags         Helpdesk
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "Ticket ID"
// @Param        body  body  UpdatePriorityRequest  true  "New priority"
// @Success      200  {object}  map[string]interface{}  "ticket: models.Ticket"
// @Failure      400  {object}  map[string]interface{}  "Invalid priority"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Ticket not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/tickets/{id}/priority [put]
// UpdatePriorityHandler changes a ticket's priority
// PUT /v1/tickets/:id/priority
func (h *Handlers) UpdatePriorityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdatePriorityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}
		if !models.ValidPriority(req.Priority) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid priority: " + req.Priority,
			})
			return
		}

		id := c.Param("id")
		err := h.ticketRepo.UpdateTicketPriority(c.Request.Context(), id, req.Priority)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Ticket not found",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update ticket priority",
			})
			return
		}

		ticket, err := h.ticketRepo.GetTicketByID(c.Request.Context(), id)
		if err != nil || ticket == nil {
			c.JSON(http.StatusOK, gin.H{"priority": req.Priority})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ticket": ticket,
		})
	}
}

// notifyRequester writes an in-portal notification to the ticket owner.
// Failures are logged, never surfaced to the caller.
func (h *Handlers) notifyRequester(ctx context.Context, ticket *models.Ticket, message string) {
	n := &models.Notification{
		UserID:    ticket.UserID,
		Type:      models.NotificationTicketUpdated,
		Title:     "Ticket updated: " + ticket.Subject,
		Message:   message,
		RelatedID: &ticket.ID,
	}
	if err := h.notificationRepo.CreateNotification(ctx, n); err != nil {
		slog.Warn("failed to create ticket notification", "user_id", ticket.UserID, "error", err)
	}
}
