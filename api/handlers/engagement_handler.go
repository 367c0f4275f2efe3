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

// EngagementHandler handles engagement lifecycle requests
type EngagementHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewEngagementHandler creates a new EngagementHandler instance
func NewEngagementHandler(svc service.Service, log *logrus.Logger) *EngagementHandler {
	return &EngagementHandler{
		service: svc,
		log:     log,
	}
}

// EngagementRequest is the payload for creating an engagement
type EngagementRequest struct {
	Name       string         `json:"name" binding:"required"`
	FriendlyID *uuid.UUID     `json:"friendly_id"`
	EnemyID    *uuid.UUID     `json:"enemy_id"`
	Details    models.JSONMap `json:"details"`
}

// EngagementUpdateRequest is the payload for a partial engagement update.
// Status is deliberately absent, transitions go through the action endpoints.
type EngagementUpdateRequest struct {
	Name     *string        `json:"name"`
	Progress *float64       `json:"progress"`
	Details  models.JSONMap `json:"details"`
}

// CreateEngagement handles engagement creation
func (h *EngagementHandler) CreateEngagement(c *gin.Context) {
	var req EngagementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Warn("Invalid engagement format")
		respondError(c, h.log, NewValidationError("invalid engagement payload"))
		return
	}

	engagement := models.Engagement{
		Name:       req.Name,
		FriendlyID: req.FriendlyID,
		EnemyID:    req.EnemyID,
		Details:    req.Details,
	}

	if err := h.service.CreateEngagement(c.Request.Context(), &engagement); err != nil {
		h.log.WithError(err).Error("Failed to create engagement")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, engagement)
}

// GetEngagement handles engagement retrieval
func (h *EngagementHandler) GetEngagement(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	engagement, err := h.service.GetEngagement(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, engagement)
}

// ListEngagements handles listing engagements with optional filters
func (h *EngagementHandler) ListEngagements(c *gin.Context) {
	filter := repository.EngagementFilter{
		Status: c.Query("status"),
		Limit:  intQuery(c, "limit", 100),
		Offset: intQuery(c, "offset", 0),
	}
	if id, ok := uuidQuery(c, "friendly_id"); ok {
		filter.FriendlyID = &id
	}
	if id, ok := uuidQuery(c, "enemy_id"); ok {
		filter.EnemyID = &id
	}

	engagements, err := h.service.ListEngagements(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list engagements")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(engagements, len(engagements)))
}

// UpdateEngagement handles a partial engagement update
func (h *EngagementHandler) UpdateEngagement(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req EngagementUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, NewValidationError("invalid engagement payload"))
		return
	}
	if req.Progress != nil && (*req.Progress < 0 || *req.Progress > 100) {
		respondError(c, h.log, NewValidationError("progress must be between 0 and 100"))
		return
	}

	engagement, err := h.service.GetEngagement(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if req.Name != nil {
		engagement.Name = *req.Name
	}
	if req.Progress != nil {
		engagement.Progress = *req.Progress
	}
	if req.Details != nil {
		engagement.Details = req.Details
	}

	if err := h.service.UpdateEngagement(c.Request.Context(), engagement); err != nil {
		h.log.WithError(err).Error("Failed to update engagement")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, engagement)
}

// DeleteEngagement handles engagement removal
func (h *EngagementHandler) DeleteEngagement(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.service.DeleteEngagement(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Action returns a handler that applies the given lifecycle action
func (h *EngagementHandler) Action(action service.EngagementAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			respondError(c, h.log, err)
			return
		}

		engagement, err := h.service.ApplyEngagementAction(c.Request.Context(), id, action)
		if err != nil {
			respondError(c, h.log, err)
			return
		}

		c.JSON(http.StatusOK, engagement)
	}
}

func uuidQuery(c *gin.Context, name string) (uuid.UUID, bool) {
	raw, exists := c.GetQuery(name)
	if !exists {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
