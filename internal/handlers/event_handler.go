package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type EventHandler struct {
	BaseHandler
	eventService services.EventService
}

func NewEventHandler(eventService services.EventService, logger utils.Logger) *EventHandler {
	return &EventHandler{
		BaseHandler:  NewBaseHandler(logger),
		eventService: eventService,
	}
}

// CreateEvent creates a calendar event
// @Summary Create event
// @Tags events
// @Accept json
// @Produce json
// @Param event body services.EventRequest true "Event data"
// @Success 201 {object} models.Event
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /events [post]
func (h *EventHandler) CreateEvent(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req services.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Event created", "event_id", event.ID)
	c.JSON(http.StatusCreated, event)
}

// GetEvent retrieves an event by ID
// @Summary Get event
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.Event
// @Failure 404 {object} ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.eventService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// UpdateEvent replaces an event
// @Summary Update event
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param event body services.EventRequest true "Event data"
// @Success 200 {object} models.Event
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /events/{id} [put]
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req services.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err)
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// DeleteEvent deletes an event
// @Summary Delete event
// @Tags events
// @Param id path string true "Event ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /events/{id} [delete]
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.eventService.Delete(c.Request.Context(), sess, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Event deleted", "event_id", id)
	c.Status(http.StatusNoContent)
}

// ListUpcoming lists events that have not ended
// @Summary Upcoming events
// @Tags events
// @Produce json
// @Success 200 {array} models.Event
// @Router /events/upcoming [get]
func (h *EventHandler) ListUpcoming(c *gin.Context) {
	events, err := h.eventService.ListUpcoming(c.Request.Context(), h.filters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// ListPast lists events that have ended
// @Summary Past events
// @Tags events
// @Produce json
// @Success 200 {array} models.Event
// @Router /events/past [get]
func (h *EventHandler) ListPast(c *gin.Context) {
	events, err := h.eventService.ListPast(c.Request.Context(), h.filters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// SearchEvents searches events by title
// @Summary Search events
// @Tags events
// @Produce json
// @Param q query string true "Title contains"
// @Success 200 {array} models.Event
// @Router /events/search [get]
func (h *EventHandler) SearchEvents(c *gin.Context) {
	events, err := h.eventService.Search(c.Request.Context(), h.filters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) filters(c *gin.Context) repositories.EventFilters {
	limit, offset := h.pagination(c)
	return repositories.EventFilters{Query: c.Query("q"), Limit: limit, Offset: offset}
}
