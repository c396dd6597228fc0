// internal/hub/nats.go
package hub

import (
	"encoding/json"

	"github.com/erilali/webchat/internal/logger"
	"github.com/nats-io/nats.go"
)

// Event kinds published on the event feed.
const (
	EventJoined = "joined"
	EventLeft   = "left"
	EventChat   = "chat"
)

// Event is a room activity notice for outside observers.
type Event struct {
	Kind      string `json:"kind"`
	User      string `json:"user"`
	Content   string `json:"content,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Online    int    `json:"online,omitempty"`
}

// EventSink receives activity notices. Publish must not block the caller for
// long and must not fail loudly; the feed is best effort.
type EventSink interface {
	Publish(Event)
}

type noopEvents struct{}

func (noopEvents) Publish(Event) {}

// NATSEvents publishes events to core NATS subjects "<prefix>.<kind>".
// Nothing is persisted and nothing is read back.
type NATSEvents struct {
	conn   *nats.Conn
	prefix string
	logger *logger.Logger
}

// NewNATSEvents returns a sink on nc. A nil nc yields a sink that drops
// everything, which is how the server runs without NATS.
func NewNATSEvents(nc *nats.Conn, prefix string, log *logger.Logger) *NATSEvents {
	if log == nil {
		log = logger.Nop()
	}
	return &NATSEvents{conn: nc, prefix: prefix, logger: log}
}

// Subject returns the subject an event kind is published on.
func (n *NATSEvents) Subject(kind string) string {
	if n.prefix == "" {
		return kind
	}
	return n.prefix + "." + kind
}

func (n *NATSEvents) Publish(evt Event) {
	if n == nil || n.conn == nil {
		return
	}

	data, err := json.Marshal(evt)
	if err != nil {
		n.logger.Errorf("Failed to marshal %s event: %v", evt.Kind, err)
		return
	}

	if err := n.conn.Publish(n.Subject(evt.Kind), data); err != nil {
		n.logger.Errorf("Failed to publish %s event to NATS: %v", evt.Kind, err)
	}
}
