package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ChannelAll is the firehose channel every client may join.
const ChannelAll = "all"

// DeviceChannel returns the scoped channel name for a single device.
func DeviceChannel(deviceID string) string {
	return "device:" + deviceID
}

// Conn is the subset of *websocket.Conn a Client needs. Tests inject
// fakes; handlers pass the upgraded gorilla connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Registry tracks which live clients are subscribed to which named channel
// and fans messages out to them. It is owned by the server process and
// handed to every connection handler; there is no package-level instance.
type Registry struct {
	mu           sync.RWMutex
	channels     map[string]map[*Client]struct{}
	writeTimeout time.Duration
	log          *logrus.Logger
}

// NewRegistry creates an empty connection registry.
func NewRegistry(log *logrus.Logger, writeTimeout time.Duration) *Registry {
	if log == nil {
		log = logrus.New()
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Registry{
		channels:     make(map[string]map[*Client]struct{}),
		writeTimeout: writeTimeout,
		log:          log,
	}
}

// Subscribe adds client to the channel's membership, creating the channel if
// needed. Subscribing twice is a no-op.
func (r *Registry) Subscribe(client *Client, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[channel]
	if !ok {
		members = make(map[*Client]struct{})
		r.channels[channel] = members
	}
	members[client] = struct{}{}

	r.log.WithFields(logrus.Fields{
		"channel": channel,
		"count":   len(members),
	}).Debug("WebSocket client subscribed")
}

// Unsubscribe removes client from the channel's membership; no-op when the
// client or channel is absent.
func (r *Registry) Unsubscribe(client *Client, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[channel]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(r.channels, channel)
	}
}

// Broadcast serializes message once and delivers it to every client
// subscribed to the channel at the moment the fan-out starts. A client
// whose write fails is closed and dropped from the channel; the remaining
// members still receive the message. The only returned error is a
// serialization failure.
func (r *Registry) Broadcast(channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	// Stable snapshot: members added mid-broadcast are not delivered to,
	// members removed mid-broadcast cause no errors.
	r.mu.RLock()
	members := make([]*Client, 0, len(r.channels[channel]))
	for client := range r.channels[channel] {
		members = append(members, client)
	}
	r.mu.RUnlock()

	for _, client := range members {
		if err := client.writeWithDeadline(data, time.Now().Add(r.writeTimeout)); err != nil {
			r.log.WithError(err).WithField("channel", channel).Warn("WebSocket write failed, dropping connection")
			r.Unsubscribe(client, channel)
			client.Close()
		}
	}

	return nil
}

// Count returns the number of clients subscribed to a channel.
func (r *Registry) Count(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[channel])
}
