package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"example.com/geomap/command-control/internal/cache"
	"example.com/geomap/command-control/internal/geo"
	"example.com/geomap/command-control/internal/messaging"
	"example.com/geomap/command-control/internal/models"
	"example.com/geomap/command-control/internal/repository"
	"example.com/geomap/command-control/internal/ws"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const assetCacheTTL = 30 * time.Second

// Service defines the business logic operations
type Service interface {
	// Asset operations
	CreateAsset(ctx context.Context, asset *models.Asset) error
	GetAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	UpdateAsset(ctx context.Context, asset *models.Asset) error
	ListAssets(ctx context.Context, filter repository.AssetFilter) ([]*models.Asset, error)
	DeleteAsset(ctx context.Context, id uuid.UUID) error
	NearbyAssets(ctx context.Context, lat, lon, radiusKm float64, isFriendly *bool) ([]*models.Asset, error)

	// Device operations (older schema generation)
	CreateDevice(ctx context.Context, device *models.Device) error
	GetDevice(ctx context.Context, id uuid.UUID) (*models.Device, error)
	UpdateDevice(ctx context.Context, device *models.Device) error
	ListDevices(ctx context.Context, filter repository.DeviceFilter) ([]*models.Device, error)
	DeleteDevice(ctx context.Context, id uuid.UUID) error

	// Location operations
	CreateLocation(ctx context.Context, location *models.Location) error
	GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error)
	UpdateLocation(ctx context.Context, location *models.Location) error
	ListLocations(ctx context.Context, limit, offset int) ([]*models.Location, error)
	DeleteLocation(ctx context.Context, id uuid.UUID) error

	// Engagement operations
	CreateEngagement(ctx context.Context, engagement *models.Engagement) error
	GetEngagement(ctx context.Context, id uuid.UUID) (*models.Engagement, error)
	UpdateEngagement(ctx context.Context, engagement *models.Engagement) error
	ListEngagements(ctx context.Context, filter repository.EngagementFilter) ([]*models.Engagement, error)
	DeleteEngagement(ctx context.Context, id uuid.UUID) error
	ApplyEngagementAction(ctx context.Context, id uuid.UUID, action EngagementAction) (*models.Engagement, error)

	// Event operations
	CreateEvent(ctx context.Context, event *models.Event) error
	ListEvents(ctx context.Context, filter repository.EventFilter) ([]*models.Event, error)

	// Command operations
	DispatchCommand(ctx context.Context, command *models.Command) error
	GetCommand(ctx context.Context, id uuid.UUID) (*models.Command, error)
	ListCommands(ctx context.Context, filter repository.CommandFilter) ([]*models.Command, error)
	AcknowledgeCommand(ctx context.Context, id uuid.UUID) (*models.Command, error)
	FailCommand(ctx context.Context, id uuid.UUID, errorMessage string) (*models.Command, error)
}

// service is an implementation of the Service interface
type service struct {
	repo      repository.Repository
	cache     cache.RedisClient
	messaging messaging.ServiceBusClient
	registry  *ws.Registry
	log       *logrus.Logger

	// engagementLocks serializes read-modify-write per engagement record
	engagementLocks sync.Map
}

// ServiceConfig holds the dependencies for the service
type ServiceConfig struct {
	Repository repository.Repository
	Cache      cache.RedisClient
	Messaging  messaging.ServiceBusClient
	Registry   *ws.Registry
	Logger     *logrus.Logger
}

// NewService creates a new service instance
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &service{
		repo:      cfg.Repository,
		cache:     cfg.Cache,
		messaging: cfg.Messaging,
		registry:  cfg.Registry,
		log:       cfg.Logger,
	}, nil
}

// Asset operations

func (s *service) CreateAsset(ctx context.Context, asset *models.Asset) error {
	if asset.Zone == "" && asset.Lat != nil && asset.Lon != nil {
		asset.Zone = geo.ZoneFor(*asset.Lat, *asset.Lon)
	}
	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		return err
	}
	s.broadcastUpdate("asset_created", asset)
	return nil
}

func (s *service) GetAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	key := "asset:" + id.String()
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err == nil {
			var asset models.Asset
			if err := json.Unmarshal([]byte(cached), &asset); err == nil {
				return &asset, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WithError(err).Debug("Cache get failed")
		}
	}

	asset, err := s.repo.FindAssetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, asset)
	return asset, nil
}

func (s *service) UpdateAsset(ctx context.Context, asset *models.Asset) error {
	if err := s.repo.UpdateAsset(ctx, asset); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, "asset:"+asset.ID.String())
	s.broadcastUpdate("asset_updated", asset)
	return nil
}

func (s *service) ListAssets(ctx context.Context, filter repository.AssetFilter) ([]*models.Asset, error) {
	return s.repo.ListAssets(ctx, filter)
}

// DeleteAsset soft-deletes by flipping the active flag. There is no
// idempotence guard: deleting twice flips the flag twice, both calls succeed.
func (s *service) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	asset, err := s.repo.FindAssetByID(ctx, id)
	if err != nil {
		return err
	}
	asset.IsActive = false
	if err := s.repo.UpdateAsset(ctx, asset); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, "asset:"+id.String())
	s.broadcastUpdate("asset_deleted", asset)
	return nil
}

// NearbyAssets runs the planar proximity filter over a flat scan of the
// asset table. Assets without coordinates never match.
func (s *service) NearbyAssets(ctx context.Context, lat, lon, radiusKm float64, isFriendly *bool) ([]*models.Asset, error) {
	assets, err := s.repo.ListAssets(ctx, repository.AssetFilter{IsFriendly: isFriendly, Limit: repository.NoLimit})
	if err != nil {
		return nil, err
	}

	nearby := make([]*models.Asset, 0)
	for _, asset := range assets {
		if geo.Within(geo.Point{Lat: asset.Lat, Lon: asset.Lon}, lat, lon, radiusKm) {
			nearby = append(nearby, asset)
		}
	}
	return nearby, nil
}

// Device operations

func (s *service) CreateDevice(ctx context.Context, device *models.Device) error {
	if device.Zone == "" && device.LocationLat != nil && device.LocationLon != nil {
		device.Zone = geo.ZoneFor(*device.LocationLat, *device.LocationLon)
	}
	if err := s.repo.CreateDevice(ctx, device); err != nil {
		return err
	}
	s.broadcastUpdate("device_created", device)
	return nil
}

func (s *service) GetDevice(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	key := "device:" + id.String()
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err == nil {
			var device models.Device
			if err := json.Unmarshal([]byte(cached), &device); err == nil {
				return &device, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WithError(err).Debug("Cache get failed")
		}
	}

	device, err := s.repo.FindDeviceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, device)
	return device, nil
}

func (s *service) UpdateDevice(ctx context.Context, device *models.Device) error {
	if err := s.repo.UpdateDevice(ctx, device); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, "device:"+device.ID.String())
	s.broadcastUpdate("device_updated", device)
	s.broadcastTo(ws.DeviceChannel(device.ID.String()), "device_updated", device)
	return nil
}

func (s *service) ListDevices(ctx context.Context, filter repository.DeviceFilter) ([]*models.Device, error) {
	return s.repo.ListDevices(ctx, filter)
}

// DeleteDevice mirrors DeleteAsset: a flag flip with no idempotence guard.
func (s *service) DeleteDevice(ctx context.Context, id uuid.UUID) error {
	device, err := s.repo.FindDeviceByID(ctx, id)
	if err != nil {
		return err
	}
	device.IsActive = false
	if err := s.repo.UpdateDevice(ctx, device); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, "device:"+id.String())
	s.broadcastUpdate("device_deleted", device)
	return nil
}

// Location operations

func (s *service) CreateLocation(ctx context.Context, location *models.Location) error {
	if location.Zone == "" {
		location.Zone = geo.ZoneFor(location.LocationLat, location.LocationLon)
	}
	return s.repo.CreateLocation(ctx, location)
}

func (s *service) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	return s.repo.FindLocationByID(ctx, id)
}

func (s *service) UpdateLocation(ctx context.Context, location *models.Location) error {
	return s.repo.UpdateLocation(ctx, location)
}

func (s *service) ListLocations(ctx context.Context, limit, offset int) ([]*models.Location, error) {
	return s.repo.ListLocations(ctx, limit, offset)
}

func (s *service) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindLocationByID(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteLocation(ctx, id)
}

// Event operations

func (s *service) CreateEvent(ctx context.Context, event *models.Event) error {
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return err
	}
	s.broadcastUpdate("event", event)
	return nil
}

func (s *service) ListEvents(ctx context.Context, filter repository.EventFilter) ([]*models.Event, error) {
	return s.repo.ListEvents(ctx, filter)
}

// Helpers

func (s *service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(data), assetCacheTTL); err != nil {
		s.log.WithError(err).Debug("Cache set failed")
	}
}

func (s *service) cacheInvalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.WithError(err).Debug("Cache delete failed")
	}
}

// broadcastUpdate pushes a typed payload to the firehose channel.
// Fan-out is best-effort; failures never reach the API caller.
func (s *service) broadcastUpdate(eventType string, payload interface{}) {
	s.broadcastTo(ws.ChannelAll, eventType, payload)
}

func (s *service) broadcastTo(channel, eventType string, payload interface{}) {
	if s.registry == nil {
		return
	}
	if err := s.registry.Broadcast(channel, map[string]interface{}{
		"type": eventType,
		"data": payload,
	}); err != nil {
		s.log.WithError(err).WithField("channel", channel).Warn("Broadcast failed")
	}
}
