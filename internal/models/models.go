package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONMap is a free-form metadata payload stored as a JSON column.
type JSONMap map[string]interface{}

// AssetType is an enum for the kinds of tracked units
type AssetType string

const (
	AssetTypeDrone   AssetType = "drone"
	AssetTypeSensor  AssetType = "sensor"
	AssetTypeCamera  AssetType = "camera"
	AssetTypeVehicle AssetType = "vehicle"
)

// ValidAssetType reports whether t is a recognized asset type
func ValidAssetType(t AssetType) bool {
	switch t {
	case AssetTypeDrone, AssetTypeSensor, AssetTypeCamera, AssetTypeVehicle:
		return true
	}
	return false
}

// AssetStatus is an enum for asset availability
type AssetStatus string

const (
	AssetStatusAvailable   AssetStatus = "available"
	AssetStatusInUse       AssetStatus = "in_use"
	AssetStatusMaintenance AssetStatus = "maintenance"
	AssetStatusOffline     AssetStatus = "offline"
)

// Asset represents a friendly or enemy unit in the simulation
type Asset struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	Name       string      `gorm:"size:100;not null" json:"name"`
	AssetType  AssetType   `gorm:"size:50;not null" json:"asset_type"`
	Status     AssetStatus `gorm:"size:20;not null;default:available" json:"status"`
	Lat        *float64    `json:"lat"`
	Lon        *float64    `json:"lon"`
	LastSeen   *time.Time  `json:"last_seen"`
	ExtraData  JSONMap     `gorm:"serializer:json" json:"extra_data"`
	Zone       string      `gorm:"size:50" json:"zone"`
	IsActive   bool        `gorm:"default:true" json:"is_active"`
	IsFriendly bool        `gorm:"default:true" json:"is_friendly"`
}

// BeforeCreate assigns a fresh UUID when none was supplied
func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// DeviceStatus is an enum for device connectivity
type DeviceStatus string

const (
	DeviceStatusOnline      DeviceStatus = "online"
	DeviceStatusOffline     DeviceStatus = "offline"
	DeviceStatusMaintenance DeviceStatus = "maintenance"
)

// Device is the older-generation schema for tracked units. It is kept as its
// own entity for wire compatibility with clients still speaking the
// device-centric contract (location_lat/location_lon field names).
type Device struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
	Name        string       `gorm:"size:100;not null" json:"name"`
	DeviceType  AssetType    `gorm:"size:50;not null" json:"device_type"`
	Status      DeviceStatus `gorm:"size:20;not null;default:online" json:"status"`
	LocationLat *float64     `json:"location_lat"`
	LocationLon *float64     `json:"location_lon"`
	LastSeen    *time.Time   `json:"last_seen"`
	ExtraData   JSONMap      `gorm:"serializer:json" json:"extra_data"`
	Zone        string       `gorm:"size:50" json:"zone"`
	IsActive    bool         `gorm:"default:true" json:"is_active"`
}

// BeforeCreate assigns a fresh UUID when none was supplied
func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Location represents a named point of interest
type Location struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Address     string    `gorm:"size:255" json:"address"`
	LocationLat float64   `gorm:"not null" json:"location_lat"`
	LocationLon float64   `gorm:"not null" json:"location_lon"`
	AreaType    string    `gorm:"size:20" json:"area_type"`
	Zone        string    `gorm:"size:50" json:"zone"`
	Metadata    JSONMap   `gorm:"serializer:json" json:"metadata"`
}

// BeforeCreate assigns a fresh UUID when none was supplied
func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// EngagementStatus is an enum for the engagement lifecycle
type EngagementStatus string

const (
	EngagementStatusPending         EngagementStatus = "pending"
	EngagementStatusActive          EngagementStatus = "active"
	EngagementStatusEngaging        EngagementStatus = "engaging"
	EngagementStatusMissileInFlight EngagementStatus = "missile_in_flight"
	EngagementStatusCompleted       EngagementStatus = "completed"
	EngagementStatusCancelled       EngagementStatus = "cancelled"
)

// Engagement tracks a friendly/enemy interaction through its lifecycle
type Engagement struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt           time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	Name                string           `gorm:"size:100;not null" json:"name"`
	FriendlyID          *uuid.UUID       `gorm:"type:uuid" json:"friendly_id"`
	EnemyID             *uuid.UUID       `gorm:"type:uuid" json:"enemy_id"`
	Status              EngagementStatus `gorm:"size:20;not null;default:pending" json:"status"`
	Progress            float64          `gorm:"default:0" json:"progress"`
	EstimatedCompletion *time.Time       `json:"estimated_completion"`
	Details             JSONMap          `gorm:"serializer:json" json:"details"`
}

// BeforeCreate assigns a fresh UUID when none was supplied
func (e *Engagement) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EventSeverity is an enum for event severity levels
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event records something that happened to an asset or engagement.
// Events are append-only; nothing in the system updates them.
type Event struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
	AssetID      *uuid.UUID    `gorm:"type:uuid" json:"asset_id"`
	EngagementID *uuid.UUID    `gorm:"type:uuid" json:"engagement_id"`
	EventType    string        `gorm:"size:50;not null" json:"event_type"`
	Details      JSONMap       `gorm:"serializer:json" json:"details"`
	Timestamp    time.Time     `json:"timestamp"`
	Severity     EventSeverity `gorm:"size:20" json:"severity"`
	Resolved     string        `gorm:"size:20;default:pending" json:"resolved"`
}

// BeforeCreate assigns a fresh UUID and stamps the event time if unset
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return nil
}

// CommandType is an enum for the orders an asset can receive
type CommandType string

const (
	CommandPatrol    CommandType = "patrol"
	CommandSurvey    CommandType = "survey"
	CommandReturn    CommandType = "return"
	CommandStop      CommandType = "stop"
	CommandResume    CommandType = "resume"
	CommandEngage    CommandType = "engage"
	CommandDisengage CommandType = "disengage"
)

// ValidCommandType reports whether t is a recognized command type
func ValidCommandType(t CommandType) bool {
	switch t {
	case CommandPatrol, CommandSurvey, CommandReturn, CommandStop, CommandResume, CommandEngage, CommandDisengage:
		return true
	}
	return false
}

// CommandStatus is an enum for the command delivery lifecycle
type CommandStatus string

const (
	CommandStatusPending      CommandStatus = "pending"
	CommandStatusSent         CommandStatus = "sent"
	CommandStatusAcknowledged CommandStatus = "acknowledged"
	CommandStatusFailed       CommandStatus = "failed"
)

// Command represents an order issued to an asset
type Command struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	AssetID        *uuid.UUID    `gorm:"type:uuid" json:"asset_id"`
	EngagementID   *uuid.UUID    `gorm:"type:uuid" json:"engagement_id"`
	CommandType    CommandType   `gorm:"size:50;not null" json:"command_type"`
	Payload        JSONMap       `gorm:"serializer:json" json:"payload"`
	Status         CommandStatus `gorm:"size:20;not null;default:pending" json:"status"`
	ErrorMessage   string        `gorm:"size:255" json:"error_message"`
	AcknowledgedAt *time.Time    `json:"acknowledged_at"`
	FailedAt       *time.Time    `json:"failed_at"`
}

// BeforeCreate assigns a fresh UUID when none was supplied
func (c *Command) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
