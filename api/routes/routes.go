package routes

import (
	"time"

	"example.com/geomap/command-control/api/handlers"
	"example.com/geomap/command-control/internal/service"
	"example.com/geomap/command-control/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, svc service.Service, registry *ws.Registry, heartbeat time.Duration, log *logrus.Logger) {
	r.GET("/", handlers.Root)
	r.GET("/health", handlers.HealthCheck)

	api := r.Group("/api/v1")

	// Asset routes
	assetHandler := handlers.NewAssetHandler(svc, log)
	assets := api.Group("/assets")
	{
		assets.POST("", assetHandler.CreateAsset)
		assets.GET("", assetHandler.ListAssets)
		assets.GET("/nearby", assetHandler.NearbyAssets)
		assets.GET("/:id", assetHandler.GetAsset)
		assets.PUT("/:id", assetHandler.UpdateAsset)
		assets.DELETE("/:id", assetHandler.DeleteAsset)
	}

	// Device routes (older schema generation)
	deviceHandler := handlers.NewDeviceHandler(svc, log)
	devices := api.Group("/devices")
	{
		devices.POST("", deviceHandler.CreateDevice)
		devices.GET("", deviceHandler.ListDevices)
		devices.GET("/:id", deviceHandler.GetDevice)
		devices.PUT("/:id", deviceHandler.UpdateDevice)
		devices.DELETE("/:id", deviceHandler.DeleteDevice)
	}

	// Location routes
	locationHandler := handlers.NewLocationHandler(svc, log)
	locations := api.Group("/locations")
	{
		locations.POST("", locationHandler.CreateLocation)
		locations.GET("", locationHandler.ListLocations)
		locations.GET("/:id", locationHandler.GetLocation)
		locations.PUT("/:id", locationHandler.UpdateLocation)
		locations.DELETE("/:id", locationHandler.DeleteLocation)
	}

	// Engagement routes
	engagementHandler := handlers.NewEngagementHandler(svc, log)
	engagements := api.Group("/engagements")
	{
		engagements.POST("", engagementHandler.CreateEngagement)
		engagements.GET("", engagementHandler.ListEngagements)
		engagements.GET("/:id", engagementHandler.GetEngagement)
		engagements.PUT("/:id", engagementHandler.UpdateEngagement)
		engagements.DELETE("/:id", engagementHandler.DeleteEngagement)

		engagements.POST("/:id/confirm", engagementHandler.Action(service.ActionConfirm))
		engagements.POST("/:id/abort", engagementHandler.Action(service.ActionAbort))
		engagements.POST("/:id/engage", engagementHandler.Action(service.ActionEngage))
		engagements.POST("/:id/missile-launch", engagementHandler.Action(service.ActionLaunchMissile))
		engagements.POST("/:id/complete", engagementHandler.Action(service.ActionComplete))
	}

	// Event routes
	eventHandler := handlers.NewEventHandler(svc, log)
	events := api.Group("/events")
	{
		events.POST("", eventHandler.CreateEvent)
		events.GET("", eventHandler.ListEvents)
		events.GET("/asset/:id", eventHandler.ListEventsByAsset)
		events.GET("/engagement/:id", eventHandler.ListEventsByEngagement)
	}

	// Command routes
	commandHandler := handlers.NewCommandHandler(svc, log)
	commands := api.Group("/commands")
	{
		commands.POST("", commandHandler.DispatchCommand)
		commands.GET("", commandHandler.ListCommands)
		commands.GET("/asset/:id", commandHandler.ListCommandsByAsset)
		commands.GET("/engagement/:id", commandHandler.ListCommandsByEngagement)
		commands.GET("/:id", commandHandler.GetCommand)
		commands.POST("/:id/acknowledge", commandHandler.AcknowledgeCommand)
		commands.POST("/:id/fail", commandHandler.FailCommand)
	}

	// WebSocket routes
	wsHandler := handlers.NewWSHandler(registry, heartbeat, log)
	r.GET("/ws/devices/:device_id", wsHandler.DeviceSocket)
	r.GET("/ws/all", wsHandler.AllSocket)
	// GET with a JSON body mirrors the wire contract dashboards already use
	r.GET("/ws/broadcast", wsHandler.Broadcast)
}
