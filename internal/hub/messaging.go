// internal/hub/messaging.go
package hub

import (
	"github.com/erilali/webchat/internal/message"
	"github.com/erilali/webchat/internal/metrics"
)

// OnConnect registers a freshly accepted connection. The new member gets a
// private welcome, everyone else is told they joined, and then the whole room
// (new member included) receives the updated user list.
func (h *Hub) OnConnect(c Conn) string {
	name := h.registry.Join(c)
	metrics.JoinsTotal.Inc()
	metrics.ConnectedClients.Inc()
	h.Logger.WithField("conn", c.ID()).LogEvent("info", "client_connected", name, "")

	h.sendTo(Member{Conn: c, Name: name}, message.Welcome(name))
	h.broadcast(message.Joined(name), Except(c))
	online := h.broadcastUserList()

	h.events.Publish(Event{Kind: EventJoined, User: name, Timestamp: h.clock.Now().UnixMilli(), Online: online})
	return name
}

// OnMessage handles one raw payload from c. Malformed payloads are logged and
// dropped; only chat envelopes are relayed, to everyone but the sender.
func (h *Hub) OnMessage(c Conn, raw []byte) {
	sender, _ := h.registry.NameOf(c)
	log := h.Logger.WithField("conn", c.ID())

	in, err := message.Parse(raw)
	if err != nil {
		metrics.ParseErrorsTotal.Inc()
		log.LogEvent("warn", "parse_error", sender, err.Error())
		return
	}
	if !in.IsChat() {
		log.Debugf("Ignoring %q envelope", in.Type)
		return
	}

	chat := message.NewChat(sender, in.Content, h.clock.Now())
	metrics.MessagesTotal.Inc()
	log.LogEvent("debug", "message_received", sender, in.Content)

	h.broadcast(chat, Except(c))
	h.events.Publish(Event{Kind: EventChat, User: sender, Content: chat.Content, Timestamp: chat.Timestamp})
}

// OnDisconnect removes c and tells the remaining members. Calling it for a
// connection that already left, or never joined, does nothing.
func (h *Hub) OnDisconnect(c Conn) {
	name, ok := h.registry.Leave(c)
	if !ok {
		return
	}
	metrics.LeavesTotal.Inc()
	metrics.ConnectedClients.Dec()
	h.Logger.WithField("conn", c.ID()).LogEvent("info", "client_disconnected", name, "")

	h.broadcast(message.Left(name), Everyone)
	online := h.broadcastUserList()

	h.events.Publish(Event{Kind: EventLeft, User: name, Timestamp: h.clock.Now().UnixMilli(), Online: online})
}

// broadcastUserList sends the current names to everyone and returns how many
// names were listed.
func (h *Hub) broadcastUserList() int {
	users := h.registry.Snapshot().Names()
	h.broadcast(message.NewUserList(users), Everyone)
	return len(users)
}

func (h *Hub) broadcast(envelope interface{}, filter Filter) {
	payload, err := message.Encode(envelope)
	if err != nil {
		h.Logger.WithError(err).Error("Dropping broadcast")
		return
	}
	h.broadcaster.Broadcast(payload, filter)
}

func (h *Hub) sendTo(m Member, envelope interface{}) {
	payload, err := message.Encode(envelope)
	if err != nil {
		h.Logger.WithError(err).Error("Dropping direct message")
		return
	}
	_ = h.broadcaster.Deliver(m, payload)
}
