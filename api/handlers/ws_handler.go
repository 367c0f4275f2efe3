package handlers

import (
	"fmt"
	"net/http"
	"time"

	"example.com/geomap/command-control/internal/models"
	"example.com/geomap/command-control/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Dashboard clients connect from arbitrary origins
		return true
	},
}

// WSHandler handles WebSocket subscriptions
type WSHandler struct {
	registry  *ws.Registry
	heartbeat time.Duration
	log       *logrus.Logger
}

// NewWSHandler creates a new WSHandler instance
func NewWSHandler(registry *ws.Registry, heartbeat time.Duration, log *logrus.Logger) *WSHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &WSHandler{
		registry:  registry,
		heartbeat: heartbeat,
		log:       log,
	}
}

// DeviceSocket upgrades the connection and scopes it to a single device
// channel. Incoming text frames are echoed back to the sender.
func (h *WSHandler) DeviceSocket(c *gin.Context) {
	deviceID := c.Param("device_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	// All writes go through the client so echo replies cannot collide
	// with a broadcast fan-out on the same connection.
	client := ws.NewClient(conn)
	channel := ws.DeviceChannel(deviceID)
	h.registry.Subscribe(client, channel)
	defer func() {
		h.registry.Unsubscribe(client, channel)
		client.Close()
	}()

	h.log.WithField("device_id", deviceID).Info("Device WebSocket client connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).WithField("device_id", deviceID).Warn("WebSocket read error")
			}
			return
		}
		reply := fmt.Sprintf("Received: %s", data)
		if err := client.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
			return
		}
	}
}

// AllSocket upgrades the connection and joins the firehose channel. The
// server sends a heartbeat frame on a fixed interval until the client
// disconnects.
func (h *WSHandler) AllSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	// Heartbeats and broadcast fan-out share this client's write lock.
	client := ws.NewClient(conn)
	h.registry.Subscribe(client, ws.ChannelAll)
	defer func() {
		h.registry.Unsubscribe(client, ws.ChannelAll)
		client.Close()
	}()

	h.log.Info("Firehose WebSocket client connected")

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				beat := map[string]interface{}{
					"type":      "heartbeat",
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				}
				if err := client.WriteJSON(beat); err != nil {
					return
				}
			}
		}
	}()

	// Read pump to detect disconnections
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).Warn("WebSocket read error")
			}
			return
		}
	}
}

// BroadcastRequest is the payload for a manual broadcast
type BroadcastRequest struct {
	Channel string         `json:"channel"`
	Message models.JSONMap `json:"message" binding:"required"`
}

// Broadcast handles pushing an arbitrary message to a channel over HTTP
func (h *WSHandler) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, NewValidationError("message is required"))
		return
	}
	if req.Channel == "" {
		req.Channel = ws.ChannelAll
	}

	if err := h.registry.Broadcast(req.Channel, req.Message); err != nil {
		h.log.WithError(err).Error("Failed to broadcast message")
		respondError(c, h.log, ErrInternalServer)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "broadcasted",
		"channel":    req.Channel,
		"recipients": h.registry.Count(req.Channel),
	})
}
