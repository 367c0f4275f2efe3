package handlers

import (
	"net/http"

	"example.com/geomap/command-control/internal/models"
	"example.com/geomap/command-control/internal/repository"
	"example.com/geomap/command-control/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DeviceHandler handles device-related requests. Devices are the
// older-generation contract kept alive for clients that still speak it.
type DeviceHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewDeviceHandler creates a new DeviceHandler instance
func NewDeviceHandler(svc service.Service, log *logrus.Logger) *DeviceHandler {
	return &DeviceHandler{
		service: svc,
		log:     log,
	}
}

// DeviceRequest is the payload for creating a device
type DeviceRequest struct {
	Name        string               `json:"name" binding:"required"`
	DeviceType  models.AssetType     `json:"device_type" binding:"required"`
	Status      *models.DeviceStatus `json:"status"`
	LocationLat *float64             `json:"location_lat"`
	LocationLon *float64             `json:"location_lon"`
	ExtraData   models.JSONMap       `json:"extra_data"`
	Zone        string               `json:"zone"`
}

// DeviceUpdateRequest is the payload for a partial device update
type DeviceUpdateRequest struct {
	Name        *string              `json:"name"`
	DeviceType  *models.AssetType    `json:"device_type"`
	Status      *models.DeviceStatus `json:"status"`
	LocationLat *float64             `json:"location_lat"`
	LocationLon *float64             `json:"location_lon"`
	ExtraData   models.JSONMap       `json:"extra_data"`
	Zone        *string              `json:"zone"`
}

// CreateDevice handles device registration
func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var req DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Warn("Invalid device format")
		respondError(c, h.log, NewValidationError("invalid device payload"))
		return
	}

	if !models.ValidAssetType(req.DeviceType) {
		respondError(c, h.log, NewValidationError("unknown device_type"))
		return
	}
	if err := validateCoordinates(req.LocationLat, req.LocationLon); err != nil {
		respondError(c, h.log, err)
		return
	}

	device := models.Device{
		Name:        req.Name,
		DeviceType:  req.DeviceType,
		Status:      models.DeviceStatusOnline,
		LocationLat: req.LocationLat,
		LocationLon: req.LocationLon,
		ExtraData:   req.ExtraData,
		Zone:        req.Zone,
		IsActive:    true,
	}
	if req.Status != nil {
		device.Status = *req.Status
	}

	if err := h.service.CreateDevice(c.Request.Context(), &device); err != nil {
		h.log.WithError(err).Error("Failed to create device")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, device)
}

// GetDevice handles device retrieval
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	device, err := h.service.GetDevice(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

// ListDevices handles listing devices with optional filters
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	filter := repository.DeviceFilter{
		Zone:   c.Query("zone"),
		Status: c.Query("status"),
		Limit:  intQuery(c, "limit", 100),
		Offset: intQuery(c, "offset", 0),
	}
	if v, ok := boolQuery(c, "is_active"); ok {
		filter.IsActive = &v
	}

	devices, err := h.service.ListDevices(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list devices")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(devices, len(devices)))
}

// UpdateDevice handles a partial device update
func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req DeviceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, NewValidationError("invalid device payload"))
		return
	}
	if req.DeviceType != nil && !models.ValidAssetType(*req.DeviceType) {
		respondError(c, h.log, NewValidationError("unknown device_type"))
		return
	}
	if err := validateCoordinates(req.LocationLat, req.LocationLon); err != nil {
		respondError(c, h.log, err)
		return
	}

	device, err := h.service.GetDevice(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if req.Name != nil {
		device.Name = *req.Name
	}
	if req.DeviceType != nil {
		device.DeviceType = *req.DeviceType
	}
	if req.Status != nil {
		device.Status = *req.Status
	}
	if req.LocationLat != nil {
		device.LocationLat = req.LocationLat
	}
	if req.LocationLon != nil {
		device.LocationLon = req.LocationLon
	}
	if req.ExtraData != nil {
		device.ExtraData = req.ExtraData
	}
	if req.Zone != nil {
		device.Zone = *req.Zone
	}

	if err := h.service.UpdateDevice(c.Request.Context(), device); err != nil {
		h.log.WithError(err).Error("Failed to update device")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, device)
}

// DeleteDevice handles device deactivation
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.service.DeleteDevice(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}
