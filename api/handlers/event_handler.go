package handlers

import (
	"net/http"

	"example.com/geomap/command-control/internal/models"
	"example.com/geomap/command-control/internal/repository"
	"example.com/geomap/command-control/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EventHandler handles the append-only event log
type EventHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewEventHandler creates a new EventHandler instance
func NewEventHandler(svc service.Service, log *logrus.Logger) *EventHandler {
	return &EventHandler{
		service: svc,
		log:     log,
	}
}

// EventRequest is the payload for recording an event
type EventRequest struct {
	AssetID      *uuid.UUID           `json:"asset_id"`
	EngagementID *uuid.UUID           `json:"engagement_id"`
	EventType    string               `json:"event_type" binding:"required"`
	Details      models.JSONMap       `json:"details"`
	Severity     models.EventSeverity `json:"severity"`
}

// CreateEvent handles appending an event
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Warn("Invalid event format")
		respondError(c, h.log, NewValidationError("invalid event payload"))
		return
	}

	event := models.Event{
		AssetID:      req.AssetID,
		EngagementID: req.EngagementID,
		EventType:    req.EventType,
		Details:      req.Details,
		Severity:     req.Severity,
	}
	if event.Severity == "" {
		event.Severity = models.SeverityInfo
	}

	if err := h.service.CreateEvent(c.Request.Context(), &event); err != nil {
		h.log.WithError(err).Error("Failed to create event")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// ListEvents handles listing events, newest first
func (h *EventHandler) ListEvents(c *gin.Context) {
	filter := repository.EventFilter{
		EventType: c.Query("event_type"),
		Severity:  c.Query("severity"),
		Limit:     intQuery(c, "limit", 100),
		Offset:    intQuery(c, "offset", 0),
	}
	if id, ok := uuidQuery(c, "asset_id"); ok {
		filter.AssetID = &id
	}
	if id, ok := uuidQuery(c, "engagement_id"); ok {
		filter.EngagementID = &id
	}

	events, err := h.service.ListEvents(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list events")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(events, len(events)))
}

// ListEventsByAsset handles listing the events recorded against one asset
func (h *EventHandler) ListEventsByAsset(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	events, err := h.service.ListEvents(c.Request.Context(), repository.EventFilter{
		AssetID: &id,
		Limit:   intQuery(c, "limit", 100),
		Offset:  intQuery(c, "offset", 0),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(events, len(events)))
}

// ListEventsByEngagement handles listing the events of one engagement
func (h *EventHandler) ListEventsByEngagement(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	events, err := h.service.ListEvents(c.Request.Context(), repository.EventFilter{
		EngagementID: &id,
		Limit:        intQuery(c, "limit", 100),
		Offset:       intQuery(c, "offset", 0),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(events, len(events)))
}
