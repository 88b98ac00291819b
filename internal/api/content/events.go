// events.go implements the event endpoints: CRUD and lifecycle for webinars,
// seminars, conferences, and workshops, plus member registration with capacity
// enforcement.
package content

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/db/models"
	"github.com/member-portal/member-portal/internal/db/repositories"
	"github.com/member-portal/member-portal/internal/telemetry"
)

// EventRequest represents an event create/update request
type EventRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  *string    `json:"description"`
	EventType    string     `json:"event_type" binding:"required"`
	Committee    string     `json:"committee" binding:"required"`
	StartDate    time.Time  `json:"start_date" binding:"required"`
	EndDate      *time.Time `json:"end_date"`
	Location     *string    `json:"location"`
	OnlineLink   *string    `json:"online_link"`
	Speakers     []string   `json:"speakers"`
	MaxAttendees *int       `json:"max_attendees"`
}

func (r *EventRequest) validate() string {
	if !models.ValidEventType(r.EventType) {
		return "Invalid event type: " + r.EventType
	}
	if !models.ValidCommittee(r.Committee) {
		return "Invalid committee: " + r.Committee
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return "End date must not be before start date"
	}
	if r.MaxAttendees != nil && *r.MaxAttendees < 1 {
		return "Max attendees must be at least 1"
	}
	return ""
}

// @Summary      List events
// @Description  List events with registration counts. Without content:write scope only published events are returned, ordered by start date.
// @Tags         Events
// @Produce      json
// @Param        committee  query  string  false  "Filter by committee (DTC, CITAX, BOTH)"
// @Param        page       query  int     false  "Page number (default 1)"
// @Param        per_page   query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "events: []models.Event, pagination: map"
// @Failure      400  {object}  map[string]interface{}  "Invalid committee"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/events [get]
// ListEventsHandler lists events with lifecycle-scoped visibility
// GET /v1/events?committee=&page=1&per_page=20
func (h *Handlers) ListEventsHandler() gin.HandlerFunc {
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
		events, total, err := h.eventRepo.ListEvents(c.Request.Context(), publishedOnly, committee, perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list events",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"events": events,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Get event
// @Description  Get an event by ID with its registration count. Unpublished events are visible only with content:write scope.
// @Tags         Events
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "event: models.Event"
// @Failure      404  {object}  map[string]interface{}  "Event not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/events/{id} [get]
// GetEventHandler returns a single event
// GET /v1/events/:id
func (h *Handlers) GetEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := h.eventRepo.GetEventByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve event",
			})
			return
		}
		if event == nil || (event.Status != models.ContentStatusPublished && !canEditContent(c)) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Event not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"event": event,
		})
	}
}

// @Summary      Create event
// @Description  Create an event draft. Requires content:write scope.
// @Tags         Events
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  EventRequest  true  "Event"
// @Success      201  {object}  map[string]interface{}  "event: models.Event"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/events [post]
// CreateEventHandler creates a new event draft
// POST /v1/events
func (h *Handlers) CreateEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EventRequest
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

		event := &models.Event{
			Title:        req.Title,
			Description:  req.Description,
			EventType:    req.EventType,
			Committee:    req.Committee,
			StartDate:    req.StartDate,
			EndDate:      req.EndDate,
			Location:     req.Location,
			OnlineLink:   req.OnlineLink,
			Speakers:     req.Speakers,
			MaxAttendees: req.MaxAttendees,
			CreatedBy:    c.GetString("user_id"),
		}
		if err := h.eventRepo.CreateEvent(c.Request.Context(), event); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create event",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"event": event,
		})
	}
}

// @Summary      Update event
// @Description  Update an event's editable fields. Requires content:write scope.
// @Tags         Events
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string        true  "Event ID"
// @Param        body  body  EventRequest  true  "Event"
// @Success      200  {object}  map[string]interface{}  "event: models.Event"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Event not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/events/{id} [put]
// UpdateEventHandler updates an event's editable fields
// PUT /v1/events/:id
func (h *Handlers) UpdateEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EventRequest
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

		event, err := h.eventRepo.GetEventByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve event",
			})
			return
		}
		if event == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Event not found",
			})
			return
		}

		event.Title = req.Title
		event.Description = req.Description
		event.EventType = req.EventType
		event.Committee = req.Committee
		event.StartDate = req.StartDate
		event.EndDate = req.EndDate
		event.Location = req.Location
		event.OnlineLink = req.OnlineLink
		event.Speakers = req.Speakers
		event.MaxAttendees = req.MaxAttendees

		if err := h.eventRepo.UpdateEvent(c.Request.Context(), event); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update event",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"event": event,
		})
	}
}

// @Summary      Publish event
// @Description  Publish an event, opening it for registration. Requires content:publish scope.
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "event: models.Event"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Event not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/events/{id}/publish [post]
// PublishEventHandler publishes an event
// POST /v1/events/:id/publish
func (h *Handlers) PublishEventHandler() gin.HandlerFunc {
	return h.setEventStatus(models.ContentStatusPublished)
}

// @Summary      Unpublish event
// @Description  Withdraw an event from the published listing, closing registration. Requires content:publish scope.
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "event: models.Event"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Event not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/events/{id}/unpublish [post]
// UnpublishEventHandler withdraws an event from the public listing
// POST /v1/events/:id/unpublish
func (h *Handlers) UnpublishEventHandler() gin.HandlerFunc {
	return h.setEventStatus(models.ContentStatusUnpublished)
}

func (h *Handlers) setEventStatus(status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		err := h.eventRepo.SetEventStatus(c.Request.Context(), id, status)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Event not found",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update event status",
			})
			return
		}

		if status == models.ContentStatusPublished {
			telemetry.ContentPublishedTotal.WithLabelValues("event").Inc()
		}

		event, err := h.eventRepo.GetEventByID(c.Request.Context(), id)
		if err != nil || event == nil {
			c.JSON(http.StatusOK, gin.H{"status": status})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"event": event,
		})
	}
}

// @Summary      Delete event
// @Description  Permanently delete an event. Requires content:publish scope.
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "deleted: true"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Event not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/events/{id} [delete]
// DeleteEventHandler permanently deletes an event
// DELETE /v1/events/:id
func (h *Handlers) DeleteEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		event, err := h.eventRepo.GetEventByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve event",
			})
			return
		}
		if event == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Event not found",
			})
			return
		}

		if err := h.eventRepo.DeleteEvent(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete event",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"deleted": true,
		})
	}
}

// @Summary      Register for event
// @Description  Register the authenticated member for a published event. Registration is refused when the event is full or the member is already registered. Requires events:register scope.
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      201  {object}  map[string]interface{}  "registration: models.EventRegistration"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Event not found"
// @Failure      409  {object}  map[string]interface{}  "Already registered, event full, or not open"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/events/{id}/register [post]
// RegisterHandler registers the authenticated user for an event
// POST /v1/events/:id/register
func (h *Handlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID := c.Param("id")
		userID := c.GetString("user_id")

		reg, err := h.eventRepo.RegisterForEvent(c.Request.Context(), eventID, userID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Event not found",
			})
			return
		case errors.Is(err, repositories.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, gin.H{
				"error": "You are already registered for this event",
			})
			return
		case errors.Is(err, repositories.ErrEventFull):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Event is at capacity",
			})
			return
		case errors.Is(err, repositories.ErrEventNotOpen):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Event is not open for registration",
			})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to register for event",
			})
			return
		}

		telemetry.EventRegistrationsTotal.Inc()

		c.JSON(http.StatusCreated, gin.H{
			"registration": reg,
		})
	}
}

// @Summary      Cancel registration
// @Description  Cancel the authenticated member's registration for an event.
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "cancelled: true"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Registration not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/events/{id}/register [delete]
// CancelRegistrationHandler cancels the authenticated user's registration
// DELETE /v1/events/:id/register
func (h *Handlers) CancelRegistrationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID := c.Param("id")
		userID := c.GetString("user_id")

		err := h.eventRepo.CancelRegistration(c.Request.Context(), eventID, userID)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Registration not found",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to cancel registration",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"cancelled": true,
		})
	}
}

// @Summary      My registrations
// @Description  List the authenticated member's event registrations.
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "registrations: []models.EventRegistration"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/events/registrations [get]
// MyRegistrationsHandler lists the authenticated user's registrations
// GET /v1/events/registrations
func (h *Handlers) MyRegistrationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		regs, err := h.eventRepo.ListRegistrationsForUser(c.Request.Context(), c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list registrations",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"registrations": regs,
		})
	}
}

// @Summary      Event registrations
// @Description  List all registrations for an event. Requires content:write scope.
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "registrations: []models.EventRegistration"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/events/{id}/registrations [get]
// ListEventRegistrationsHandler lists all registrations for an event
// GET /v1/events/:id/registrations
func (h *Handlers) ListEventRegistrationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		regs, err := h.eventRepo.ListRegistrationsForEvent(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list registrations",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"registrations": regs,
		})
	}
}
