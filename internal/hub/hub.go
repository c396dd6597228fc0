// internal/hub/hub.go
// The Hub ties the registry, the broadcaster and the websocket transport
// together and implements the connect, message and disconnect protocol.
package hub

import (
	"io"
	"time"

	"github.com/erilali/webchat/internal/logger"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

// TransportConfig controls the websocket side of the hub.
type TransportConfig struct {
	MaxMessageSize int64         // bytes accepted per inbound frame
	SendBufferSize int           // queued outbound envelopes per client
	WriteTimeout   time.Duration // deadline for a single frame write
	PongTimeout    time.Duration // read deadline, extended by every pong
	PingPeriod     time.Duration // must be less than PongTimeout
	AllowedOrigins []string      // "*" admits any origin
}

// DefaultTransportConfig mirrors the config package defaults.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxMessageSize: 8192,
		SendBufferSize: 256,
		WriteTimeout:   10 * time.Second,
		PongTimeout:    60 * time.Second,
		PingPeriod:     54 * time.Second,
		AllowedOrigins: []string{"*"},
	}
}

// Hub represents the chat room: every connection that joins is a member and
// receives every broadcast.
type Hub struct {
	registry    *Registry
	broadcaster *Broadcaster
	events      EventSink
	clock       clockwork.Clock
	transport   TransportConfig
	origins     originPolicy
	upgrader    websocket.Upgrader
	Logger      *logger.Logger
	StartTime   time.Time
}

// NewHub creates a Hub. events may be nil when no event feed is configured;
// clock defaults to the real clock.
func NewHub(transport TransportConfig, events EventSink, clock clockwork.Clock, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	if events == nil {
		events = noopEvents{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	registry := NewRegistry()
	h := &Hub{
		registry:    registry,
		broadcaster: NewBroadcaster(registry, log),
		events:      events,
		clock:       clock,
		transport:   transport,
		origins:     newOriginPolicy(transport.AllowedOrigins, log),
		Logger:      log,
		StartTime:   clock.Now(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.origins.check,
	}
	return h
}

// Users returns the display names of everyone connected, in join order.
func (h *Hub) Users() []string {
	return h.registry.Snapshot().Names()
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	return h.registry.Len()
}

// Shutdown closes every registered connection that can be closed. The read
// pumps notice and run the normal disconnect path.
func (h *Hub) Shutdown() {
	members := h.registry.Snapshot()
	closed := 0
	for _, m := range members {
		closer, ok := m.Conn.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && !isExpectedCloseError(err) {
			h.Logger.WithField("conn", m.Conn.ID()).WithError(err).Warn("Error closing connection")
			continue
		}
		closed++
	}
	h.Logger.Infof("Closed %d client connections", closed)
}
