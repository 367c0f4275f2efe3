// Package simulator produces randomized sample entities for seeding demo
// environments.
package simulator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"example.com/geomap/command-control/internal/geo"
	"example.com/geomap/command-control/internal/models"

	"github.com/google/uuid"
)

// Area identifies one of the coordinate boxes the simulation runs in.
type Area string

const (
	AreaLA       Area = "la"
	AreaSanDiego Area = "san_diego"
)

var assetTypes = []models.AssetType{
	models.AssetTypeDrone,
	models.AssetTypeSensor,
	models.AssetTypeCamera,
	models.AssetTypeVehicle,
}

// weighted toward healthy states so the demo map looks alive
var assetStatuses = []models.AssetStatus{
	models.AssetStatusAvailable,
	models.AssetStatusAvailable,
	models.AssetStatusAvailable,
	models.AssetStatusInUse,
	models.AssetStatusMaintenance,
	models.AssetStatusOffline,
}

var deviceStatuses = []models.DeviceStatus{
	models.DeviceStatusOnline,
	models.DeviceStatusOnline,
	models.DeviceStatusOnline,
	models.DeviceStatusOffline,
	models.DeviceStatusMaintenance,
}

var addresses = map[string][]string{
	"LA":        {"Downtown LA", "Santa Monica", "Long Beach", "Hollywood", "Beverly Hills"},
	"San Diego": {"Downtown SD", "La Jolla", "Coronado", "San Diego International Airport", "Gaslamp Quarter"},
}

var areaTypes = []string{"urban", "suburban", "industrial"}

// Generator produces randomized sample entities. It is not safe for
// concurrent use.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator seeded from the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed creates a Generator with a fixed seed for reproducible output.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Coordinates returns a random point inside the area's bounding box.
func (g *Generator) Coordinates(area Area) (float64, float64) {
	switch area {
	case AreaSanDiego:
		return g.uniform(32.5, 33.2), g.uniform(-117.5, -116.8)
	default:
		return g.uniform(33.7, 34.5), g.uniform(-118.5, -117.5)
	}
}

// Asset generates a simulated asset inside the given area.
func (g *Generator) Asset(area Area, isFriendly bool) *models.Asset {
	assetType := assetTypes[g.rng.Intn(len(assetTypes))]
	lat, lon := g.Coordinates(area)
	zone := geo.ZoneFor(lat, lon)

	side := "Friendly"
	if !isFriendly {
		side = "Enemy"
	}

	return &models.Asset{
		Name:       fmt.Sprintf("%s-%s-%s-%d", side, title(string(assetType)), zonePrefix(zone), g.rng.Intn(900)+100),
		AssetType:  assetType,
		Status:     assetStatuses[g.rng.Intn(len(assetStatuses))],
		Lat:        &lat,
		Lon:        &lon,
		Zone:       zone,
		IsActive:   true,
		IsFriendly: isFriendly,
		ExtraData:  g.telemetryData(),
	}
}

// Device generates a simulated older-generation device inside the given area.
func (g *Generator) Device(area Area) *models.Device {
	deviceType := assetTypes[g.rng.Intn(len(assetTypes))]
	lat, lon := g.Coordinates(area)
	zone := geo.ZoneFor(lat, lon)

	return &models.Device{
		Name:        fmt.Sprintf("%s-%s-%d", title(string(deviceType)), zonePrefix(zone), g.rng.Intn(900)+100),
		DeviceType:  deviceType,
		Status:      deviceStatuses[g.rng.Intn(len(deviceStatuses))],
		LocationLat: &lat,
		LocationLon: &lon,
		Zone:        zone,
		IsActive:    true,
		ExtraData:   g.telemetryData(),
	}
}

// Location generates a simulated named location in the given zone.
func (g *Generator) Location(zone string) *models.Location {
	area := AreaLA
	if zone == "San Diego" {
		area = AreaSanDiego
	}
	lat, lon := g.Coordinates(area)

	areaType := areaTypes[g.rng.Intn(len(areaTypes))]
	pool, ok := addresses[zone]
	if !ok {
		pool = []string{"Unknown Location"}
	}

	return &models.Location{
		Name:        fmt.Sprintf("%s %s Zone %d", zone, title(areaType), g.rng.Intn(20)+1),
		Address:     pool[g.rng.Intn(len(pool))],
		LocationLat: lat,
		LocationLon: lon,
		AreaType:    areaType,
		Zone:        zone,
	}
}

// Engagement generates a pending engagement pairing a friendly against an
// enemy asset.
func (g *Generator) Engagement(friendly, enemy *models.Asset) *models.Engagement {
	engagementTypes := []string{"missile", "surveillance", "interception"}

	var friendlyID, enemyID *uuid.UUID
	friendlyName, enemyName := "???", "???"
	if friendly != nil {
		id := friendly.ID
		friendlyID = &id
		friendlyName = truncate(friendly.Name, 8)
	}
	if enemy != nil {
		id := enemy.ID
		enemyID = &id
		enemyName = truncate(enemy.Name, 8)
	}

	return &models.Engagement{
		Name:       fmt.Sprintf("Engagement-%s-to-%s", friendlyName, enemyName),
		FriendlyID: friendlyID,
		EnemyID:    enemyID,
		Status:     models.EngagementStatusPending,
		Progress:   0,
		Details: models.JSONMap{
			"engagement_type":              engagementTypes[g.rng.Intn(len(engagementTypes))],
			"estimated_completion_minutes": g.rng.Intn(56) + 5,
		},
	}
}

// Command generates a simulated command for an asset with random waypoints.
func (g *Generator) Command(assetID uuid.UUID) *models.Command {
	commandTypes := []models.CommandType{
		models.CommandPatrol,
		models.CommandSurvey,
		models.CommandReturn,
		models.CommandStop,
		models.CommandResume,
	}

	waypoints := make([]map[string]float64, g.rng.Intn(4)+2)
	for i := range waypoints {
		lat, lon := g.Coordinates(AreaLA)
		waypoints[i] = map[string]float64{"lat": lat, "lon": lon}
	}

	id := assetID
	return &models.Command{
		AssetID:     &id,
		CommandType: commandTypes[g.rng.Intn(len(commandTypes))],
		Payload: models.JSONMap{
			"duration_minutes": g.rng.Intn(116) + 5,
			"waypoints":        waypoints,
		},
	}
}

func (g *Generator) telemetryData() models.JSONMap {
	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	return models.JSONMap{
		"battery_level":    g.rng.Intn(91) + 10,
		"signal_strength":  g.rng.Intn(100) + 1,
		"firmware_version": fmt.Sprintf("%d.%d.%d", g.rng.Intn(3)+1, g.rng.Intn(10), g.rng.Intn(100)),
		"last_maintenance": midnight.Format(time.RFC3339),
	}
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// zonePrefix shortens a zone name to the two-letter tag used in unit names
func zonePrefix(zone string) string {
	return strings.ToUpper(truncate(zone, 2))
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
