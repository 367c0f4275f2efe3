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

// CommandHandler handles command dispatch and lifecycle requests
type CommandHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewCommandHandler creates a new CommandHandler instance
func NewCommandHandler(svc service.Service, log *logrus.Logger) *CommandHandler {
	return &CommandHandler{
		service: svc,
		log:     log,
	}
}

// CommandRequest is the payload for dispatching a command
type CommandRequest struct {
	AssetID      *uuid.UUID         `json:"asset_id"`
	EngagementID *uuid.UUID         `json:"engagement_id"`
	CommandType  models.CommandType `json:"command_type" binding:"required"`
	Payload      models.JSONMap     `json:"payload"`
}

// FailCommandRequest carries the failure reason
type FailCommandRequest struct {
	ErrorMessage string `json:"error_message" binding:"required"`
}

// DispatchCommand handles creating and publishing a command
func (h *CommandHandler) DispatchCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Warn("Invalid command format")
		respondError(c, h.log, NewValidationError("invalid command payload"))
		return
	}

	if !models.ValidCommandType(req.CommandType) {
		respondError(c, h.log, NewValidationError("unknown command_type"))
		return
	}

	command := models.Command{
		AssetID:      req.AssetID,
		EngagementID: req.EngagementID,
		CommandType:  req.CommandType,
		Payload:      req.Payload,
	}

	if err := h.service.DispatchCommand(c.Request.Context(), &command); err != nil {
		h.log.WithError(err).Error("Failed to dispatch command")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, command)
}

// GetCommand handles command retrieval
func (h *CommandHandler) GetCommand(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	command, err := h.service.GetCommand(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, command)
}

// ListCommands handles listing commands, newest first
func (h *CommandHandler) ListCommands(c *gin.Context) {
	filter := repository.CommandFilter{
		Status: c.Query("status"),
		Limit:  intQuery(c, "limit", 100),
		Offset: intQuery(c, "offset", 0),
	}
	if id, ok := uuidQuery(c, "asset_id"); ok {
		filter.AssetID = &id
	}
	if id, ok := uuidQuery(c, "engagement_id"); ok {
		filter.EngagementID = &id
	}

	commands, err := h.service.ListCommands(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list commands")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(commands, len(commands)))
}

// ListCommandsByAsset handles listing the commands issued to one asset
func (h *CommandHandler) ListCommandsByAsset(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	commands, err := h.service.ListCommands(c.Request.Context(), repository.CommandFilter{
		AssetID: &id,
		Limit:   intQuery(c, "limit", 100),
		Offset:  intQuery(c, "offset", 0),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(commands, len(commands)))
}

// ListCommandsByEngagement handles listing the commands of one engagement
func (h *CommandHandler) ListCommandsByEngagement(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	commands, err := h.service.ListCommands(c.Request.Context(), repository.CommandFilter{
		EngagementID: &id,
		Limit:        intQuery(c, "limit", 100),
		Offset:       intQuery(c, "offset", 0),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(commands, len(commands)))
}

// AcknowledgeCommand handles a delivery acknowledgement from the field
func (h *CommandHandler) AcknowledgeCommand(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	command, err := h.service.AcknowledgeCommand(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, command)
}

// FailCommand handles a delivery failure report
func (h *CommandHandler) FailCommand(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req FailCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, NewValidationError("error_message is required"))
		return
	}

	command, err := h.service.FailCommand(c.Request.Context(), id, req.ErrorMessage)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, command)
}
