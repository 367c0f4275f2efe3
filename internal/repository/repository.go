package repository

import (
	"context"
	"errors"

	"example.com/geomap/command-control/internal/database"
	"example.com/geomap/command-control/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NoLimit disables paging on a listing. The proximity scan needs the whole
// table as its candidate set, not the first page.
const NoLimit = -1

// AssetFilter narrows asset listings. Nil pointer fields are not applied.
type AssetFilter struct {
	Zone       string
	Status     string
	IsFriendly *bool
	IsActive   *bool
	Limit      int
	Offset     int
}

// DeviceFilter narrows device listings
type DeviceFilter struct {
	Zone     string
	Status   string
	IsActive *bool
	Limit    int
	Offset   int
}

// EngagementFilter narrows engagement listings
type EngagementFilter struct {
	Status     string
	FriendlyID *uuid.UUID
	EnemyID    *uuid.UUID
	Limit      int
	Offset     int
}

// EventFilter narrows event listings
type EventFilter struct {
	EventType    string
	Severity     string
	AssetID      *uuid.UUID
	EngagementID *uuid.UUID
	Limit        int
	Offset       int
}

// CommandFilter narrows command listings
type CommandFilter struct {
	Status       string
	AssetID      *uuid.UUID
	EngagementID *uuid.UUID
	Limit        int
	Offset       int
}

// Repository provides data access methods for all entity kinds
type Repository interface {
	// Asset operations
	CreateAsset(ctx context.Context, asset *models.Asset) error
	UpdateAsset(ctx context.Context, asset *models.Asset) error
	FindAssetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	ListAssets(ctx context.Context, filter AssetFilter) ([]*models.Asset, error)

	// Device operations
	CreateDevice(ctx context.Context, device *models.Device) error
	UpdateDevice(ctx context.Context, device *models.Device) error
	FindDeviceByID(ctx context.Context, id uuid.UUID) (*models.Device, error)
	ListDevices(ctx context.Context, filter DeviceFilter) ([]*models.Device, error)

	// Location operations
	CreateLocation(ctx context.Context, location *models.Location) error
	UpdateLocation(ctx context.Context, location *models.Location) error
	FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	ListLocations(ctx context.Context, limit, offset int) ([]*models.Location, error)
	DeleteLocation(ctx context.Context, id uuid.UUID) error

	// Engagement operations
	CreateEngagement(ctx context.Context, engagement *models.Engagement) error
	UpdateEngagement(ctx context.Context, engagement *models.Engagement) error
	FindEngagementByID(ctx context.Context, id uuid.UUID) (*models.Engagement, error)
	ListEngagements(ctx context.Context, filter EngagementFilter) ([]*models.Engagement, error)
	DeleteEngagement(ctx context.Context, id uuid.UUID) error

	// Event operations
	CreateEvent(ctx context.Context, event *models.Event) error
	ListEvents(ctx context.Context, filter EventFilter) ([]*models.Event, error)

	// Command operations
	CreateCommand(ctx context.Context, command *models.Command) error
	UpdateCommand(ctx context.Context, command *models.Command) error
	FindCommandByID(ctx context.Context, id uuid.UUID) (*models.Command, error)
	ListCommands(ctx context.Context, filter CommandFilter) ([]*models.Command, error)
}

// repo is an implementation of the Repository interface
type repo struct {
	db database.DB
}

// NewRepository creates a new repository instance
func NewRepository(db database.DB) Repository {
	return &repo{db: db}
}

// translate maps gorm sentinel errors onto repository errors
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func paginate(query *gorm.DB, limit, offset int) *gorm.DB {
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit < 0 {
		return query
	}
	if limit == 0 {
		limit = 100
	}
	return query.Limit(limit)
}

// Asset operations implementation

func (r *repo) CreateAsset(ctx context.Context, asset *models.Asset) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(asset).Error
}

func (r *repo) UpdateAsset(ctx context.Context, asset *models.Asset) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Save(asset).Error
}

func (r *repo) FindAssetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var asset models.Asset
	if err := gormDB.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &asset, nil
}

func (r *repo) ListAssets(ctx context.Context, filter AssetFilter) ([]*models.Asset, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	query := gormDB.WithContext(ctx).Model(&models.Asset{})
	if filter.Zone != "" {
		query = query.Where("zone = ?", filter.Zone)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.IsFriendly != nil {
		query = query.Where("is_friendly = ?", *filter.IsFriendly)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var assets []*models.Asset
	if err := paginate(query, filter.Limit, filter.Offset).Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

// Device operations implementation

func (r *repo) CreateDevice(ctx context.Context, device *models.Device) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(device).Error
}

func (r *repo) UpdateDevice(ctx context.Context, device *models.Device) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Save(device).Error
}

func (r *repo) FindDeviceByID(ctx context.Context, id uuid.UUID) (*models.Device, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var device models.Device
	if err := gormDB.WithContext(ctx).First(&device, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &device, nil
}

func (r *repo) ListDevices(ctx context.Context, filter DeviceFilter) ([]*models.Device, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	query := gormDB.WithContext(ctx).Model(&models.Device{})
	if filter.Zone != "" {
		query = query.Where("zone = ?", filter.Zone)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var devices []*models.Device
	if err := paginate(query, filter.Limit, filter.Offset).Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// Location operations implementation

func (r *repo) CreateLocation(ctx context.Context, location *models.Location) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(location).Error
}

func (r *repo) UpdateLocation(ctx context.Context, location *models.Location) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Save(location).Error
}

func (r *repo) FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var location models.Location
	if err := gormDB.WithContext(ctx).First(&location, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &location, nil
}

func (r *repo) ListLocations(ctx context.Context, limit, offset int) ([]*models.Location, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var locations []*models.Location
	query := gormDB.WithContext(ctx).Model(&models.Location{})
	if err := paginate(query, limit, offset).Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *repo) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Delete(&models.Location{}, "id = ?", id).Error
}

// Engagement operations implementation

func (r *repo) CreateEngagement(ctx context.Context, engagement *models.Engagement) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(engagement).Error
}

func (r *repo) UpdateEngagement(ctx context.Context, engagement *models.Engagement) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Save(engagement).Error
}

func (r *repo) FindEngagementByID(ctx context.Context, id uuid.UUID) (*models.Engagement, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var engagement models.Engagement
	if err := gormDB.WithContext(ctx).First(&engagement, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &engagement, nil
}

func (r *repo) ListEngagements(ctx context.Context, filter EngagementFilter) ([]*models.Engagement, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	query := gormDB.WithContext(ctx).Model(&models.Engagement{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.FriendlyID != nil {
		query = query.Where("friendly_id = ?", *filter.FriendlyID)
	}
	if filter.EnemyID != nil {
		query = query.Where("enemy_id = ?", *filter.EnemyID)
	}

	var engagements []*models.Engagement
	if err := paginate(query, filter.Limit, filter.Offset).Find(&engagements).Error; err != nil {
		return nil, err
	}
	return engagements, nil
}

func (r *repo) DeleteEngagement(ctx context.Context, id uuid.UUID) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Delete(&models.Engagement{}, "id = ?", id).Error
}

// Event operations implementation

func (r *repo) CreateEvent(ctx context.Context, event *models.Event) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(event).Error
}

func (r *repo) ListEvents(ctx context.Context, filter EventFilter) ([]*models.Event, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	query := gormDB.WithContext(ctx).Model(&models.Event{}).Order("created_at DESC")
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.AssetID != nil {
		query = query.Where("asset_id = ?", *filter.AssetID)
	}
	if filter.EngagementID != nil {
		query = query.Where("engagement_id = ?", *filter.EngagementID)
	}

	var events []*models.Event
	if err := paginate(query, filter.Limit, filter.Offset).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Command operations implementation

func (r *repo) CreateCommand(ctx context.Context, command *models.Command) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(command).Error
}

func (r *repo) UpdateCommand(ctx context.Context, command *models.Command) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Save(command).Error
}

func (r *repo) FindCommandByID(ctx context.Context, id uuid.UUID) (*models.Command, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var command models.Command
	if err := gormDB.WithContext(ctx).First(&command, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &command, nil
}

func (r *repo) ListCommands(ctx context.Context, filter CommandFilter) ([]*models.Command, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	query := gormDB.WithContext(ctx).Model(&models.Command{}).Order("created_at DESC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AssetID != nil {
		query = query.Where("asset_id = ?", *filter.AssetID)
	}
	if filter.EngagementID != nil {
		query = query.Where("engagement_id = ?", *filter.EngagementID)
	}

	var commands []*models.Command
	if err := paginate(query, filter.Limit, filter.Offset).Find(&commands).Error; err != nil {
		return nil, err
	}
	return commands, nil
}
