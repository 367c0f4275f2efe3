package handlers

import (
	"net/http"

	"example.com/geomap/command-control/internal/geo"
	"example.com/geomap/command-control/internal/models"
	"example.com/geomap/command-control/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LocationHandler handles location-related requests
type LocationHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewLocationHandler creates a new LocationHandler instance
func NewLocationHandler(svc service.Service, log *logrus.Logger) *LocationHandler {
	return &LocationHandler{
		service: svc,
		log:     log,
	}
}

// LocationRequest is the payload for creating a location
type LocationRequest struct {
	Name        string         `json:"name" binding:"required"`
	Address     string         `json:"address"`
	LocationLat *float64       `json:"location_lat" binding:"required"`
	LocationLon *float64       `json:"location_lon" binding:"required"`
	AreaType    string         `json:"area_type"`
	Zone        string         `json:"zone"`
	Metadata    models.JSONMap `json:"metadata"`
}

// LocationUpdateRequest is the payload for a partial location update
type LocationUpdateRequest struct {
	Name        *string        `json:"name"`
	Address     *string        `json:"address"`
	LocationLat *float64       `json:"location_lat"`
	LocationLon *float64       `json:"location_lon"`
	AreaType    *string        `json:"area_type"`
	Zone        *string        `json:"zone"`
	Metadata    models.JSONMap `json:"metadata"`
}

// CreateLocation handles location creation
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Warn("Invalid location format")
		respondError(c, h.log, NewValidationError("invalid location payload"))
		return
	}
	if !geo.ValidLat(*req.LocationLat) || !geo.ValidLon(*req.LocationLon) {
		respondError(c, h.log, NewValidationError("location_lat/location_lon out of range"))
		return
	}

	location := models.Location{
		Name:        req.Name,
		Address:     req.Address,
		LocationLat: *req.LocationLat,
		LocationLon: *req.LocationLon,
		AreaType:    req.AreaType,
		Zone:        req.Zone,
		Metadata:    req.Metadata,
	}

	if err := h.service.CreateLocation(c.Request.Context(), &location); err != nil {
		h.log.WithError(err).Error("Failed to create location")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, location)
}

// GetLocation handles location retrieval
func (h *LocationHandler) GetLocation(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	location, err := h.service.GetLocation(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, location)
}

// ListLocations handles listing locations
func (h *LocationHandler) ListLocations(c *gin.Context) {
	locations, err := h.service.ListLocations(c.Request.Context(), intQuery(c, "limit", 100), intQuery(c, "offset", 0))
	if err != nil {
		h.log.WithError(err).Error("Failed to list locations")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(locations, len(locations)))
}

// UpdateLocation handles a partial location update
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, NewValidationError("invalid location payload"))
		return
	}
	if err := validateCoordinates(req.LocationLat, req.LocationLon); err != nil {
		respondError(c, h.log, err)
		return
	}

	location, err := h.service.GetLocation(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if req.Name != nil {
		location.Name = *req.Name
	}
	if req.Address != nil {
		location.Address = *req.Address
	}
	if req.LocationLat != nil {
		location.LocationLat = *req.LocationLat
	}
	if req.LocationLon != nil {
		location.LocationLon = *req.LocationLon
	}
	if req.AreaType != nil {
		location.AreaType = *req.AreaType
	}
	if req.Zone != nil {
		location.Zone = *req.Zone
	}
	if req.Metadata != nil {
		location.Metadata = req.Metadata
	}

	if err := h.service.UpdateLocation(c.Request.Context(), location); err != nil {
		h.log.WithError(err).Error("Failed to update location")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, location)
}

// DeleteLocation handles location removal
func (h *LocationHandler) DeleteLocation(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.service.DeleteLocation(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}
