package handlers

import (
	"net/http"
	"strconv"

	"example.com/geomap/command-control/internal/geo"
	"example.com/geomap/command-control/internal/models"
	"example.com/geomap/command-control/internal/repository"
	"example.com/geomap/command-control/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AssetHandler handles asset-related requests
type AssetHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewAssetHandler creates a new AssetHandler instance
func NewAssetHandler(svc service.Service, log *logrus.Logger) *AssetHandler {
	return &AssetHandler{
		service: svc,
		log:     log,
	}
}

// AssetRequest is the payload for creating an asset
type AssetRequest struct {
	Name       string              `json:"name" binding:"required"`
	AssetType  models.AssetType    `json:"asset_type" binding:"required"`
	Status     *models.AssetStatus `json:"status"`
	Lat        *float64            `json:"lat"`
	Lon        *float64            `json:"lon"`
	ExtraData  models.JSONMap      `json:"extra_data"`
	Zone       string              `json:"zone"`
	IsFriendly *bool               `json:"is_friendly"`
}

// AssetUpdateRequest is the payload for a partial asset update. Absent fields
// leave the stored value untouched.
type AssetUpdateRequest struct {
	Name      *string             `json:"name"`
	AssetType *models.AssetType   `json:"asset_type"`
	Status    *models.AssetStatus `json:"status"`
	Lat       *float64            `json:"lat"`
	Lon       *float64            `json:"lon"`
	ExtraData models.JSONMap      `json:"extra_data"`
	Zone      *string             `json:"zone"`
}

func validateCoordinates(lat, lon *float64) error {
	if lat != nil && !geo.ValidLat(*lat) {
		return NewValidationError("lat must be between -90 and 90")
	}
	if lon != nil && !geo.ValidLon(*lon) {
		return NewValidationError("lon must be between -180 and 180")
	}
	return nil
}

// CreateAsset handles asset creation
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var req AssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Warn("Invalid asset format")
		respondError(c, h.log, NewValidationError("invalid asset payload"))
		return
	}

	if !models.ValidAssetType(req.AssetType) {
		respondError(c, h.log, NewValidationError("unknown asset_type"))
		return
	}
	if err := validateCoordinates(req.Lat, req.Lon); err != nil {
		respondError(c, h.log, err)
		return
	}

	asset := models.Asset{
		Name:       req.Name,
		AssetType:  req.AssetType,
		Status:     models.AssetStatusAvailable,
		Lat:        req.Lat,
		Lon:        req.Lon,
		ExtraData:  req.ExtraData,
		Zone:       req.Zone,
		IsActive:   true,
		IsFriendly: true,
	}
	if req.Status != nil {
		asset.Status = *req.Status
	}
	if req.IsFriendly != nil {
		asset.IsFriendly = *req.IsFriendly
	}

	if err := h.service.CreateAsset(c.Request.Context(), &asset); err != nil {
		h.log.WithError(err).Error("Failed to create asset")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, asset)
}

// GetAsset handles asset retrieval
func (h *AssetHandler) GetAsset(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	asset, err := h.service.GetAsset(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

// ListAssets handles listing assets with optional filters
func (h *AssetHandler) ListAssets(c *gin.Context) {
	filter := repository.AssetFilter{
		Zone:   c.Query("zone"),
		Status: c.Query("status"),
		Limit:  intQuery(c, "limit", 100),
		Offset: intQuery(c, "offset", 0),
	}
	if v, ok := boolQuery(c, "is_friendly"); ok {
		filter.IsFriendly = &v
	}
	if v, ok := boolQuery(c, "is_active"); ok {
		filter.IsActive = &v
	}

	assets, err := h.service.ListAssets(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list assets")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, newListResponse(assets, len(assets)))
}

// NearbyAssets handles proximity queries around a point
func (h *AssetHandler) NearbyAssets(c *gin.Context) {
	lat, err := floatQuery(c, "lat")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	lon, err := floatQuery(c, "lon")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	radius := 100.0
	if raw, exists := c.GetQuery("radius_km"); exists {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, h.log, NewValidationError("radius_km must be a number"))
			return
		}
	}
	if !geo.ValidLat(lat) || !geo.ValidLon(lon) {
		respondError(c, h.log, NewValidationError("lat/lon out of range"))
		return
	}
	if radius < 0 {
		respondError(c, h.log, NewValidationError("radius_km must not be negative"))
		return
	}

	var isFriendly *bool
	if v, ok := boolQuery(c, "is_friendly"); ok {
		isFriendly = &v
	}

	assets, err := h.service.NearbyAssets(c.Request.Context(), lat, lon, radius, isFriendly)
	if err != nil {
		h.log.WithError(err).Error("Failed to query nearby assets")
		respondError(c, h.log, err)
		return
	}

	// nearby answers with a bare array, unlike the paginated listings
	c.JSON(http.StatusOK, assets)
}

// UpdateAsset handles a partial asset update
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req AssetUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, NewValidationError("invalid asset payload"))
		return
	}
	if req.AssetType != nil && !models.ValidAssetType(*req.AssetType) {
		respondError(c, h.log, NewValidationError("unknown asset_type"))
		return
	}
	if err := validateCoordinates(req.Lat, req.Lon); err != nil {
		respondError(c, h.log, err)
		return
	}

	asset, err := h.service.GetAsset(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if req.Name != nil {
		asset.Name = *req.Name
	}
	if req.AssetType != nil {
		asset.AssetType = *req.AssetType
	}
	if req.Status != nil {
		asset.Status = *req.Status
	}
	if req.Lat != nil {
		asset.Lat = req.Lat
	}
	if req.Lon != nil {
		asset.Lon = req.Lon
	}
	if req.ExtraData != nil {
		asset.ExtraData = req.ExtraData
	}
	if req.Zone != nil {
		asset.Zone = *req.Zone
	}

	if err := h.service.UpdateAsset(c.Request.Context(), asset); err != nil {
		h.log.WithError(err).Error("Failed to update asset")
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

// DeleteAsset handles asset deactivation
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.service.DeleteAsset(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func boolQuery(c *gin.Context, name string) (bool, bool) {
	raw, exists := c.GetQuery(name)
	if !exists {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func floatQuery(c *gin.Context, name string) (float64, error) {
	raw, exists := c.GetQuery(name)
	if !exists {
		return 0, NewValidationError(name + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, NewValidationError(name + " must be a number")
	}
	return v, nil
}
