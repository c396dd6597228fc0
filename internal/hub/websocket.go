// internal/hub/websocket.go
package hub

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ServeWs upgrades the request to a websocket and runs the connection through
// the join protocol. The write pump starts first so the welcome message has
// somewhere to go; the read pump starts after the join so no chat line can
// arrive from an unregistered connection.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}

	client := newClient(conn, h.transport.SendBufferSize, r.RemoteAddr)
	go h.WritePump(client)
	h.OnConnect(client)
	go h.ReadPump(client)
}

// ReadPump reads frames from the client until the connection fails or closes,
// then runs the disconnect path exactly once.
func (h *Hub) ReadPump(client *Client) {
	defer func() {
		h.OnDisconnect(client)
		client.finish()
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			h.Logger.Warnf("Error closing connection for %s: %v", client.remoteAddr, err)
		}
	}()

	client.conn.SetReadLimit(h.transport.MaxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(h.transport.PongTimeout))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(h.transport.PongTimeout))
	})

	for {
		messageType, payload, err := client.conn.ReadMessage()
		if err != nil {
			h.logReadError(client, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		h.OnMessage(client, payload)
	}
}

func (h *Hub) logReadError(client *Client, err error) {
	log := h.Logger.WithFields(map[string]interface{}{"conn": client.id, "addr": client.remoteAddr})
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Warnf("Message exceeded maximum size of %d bytes", h.transport.MaxMessageSize)
	case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		log.WithError(err).LogEvent("error", "read_error", "", err.Error())
	default:
		log.Debugf("Connection closed: %v", err)
	}
}

// WritePump writes queued envelopes, one text frame each, and pings the
// client every PingPeriod.
func (h *Hub) WritePump(client *Client) {
	ticker := time.NewTicker(h.transport.PingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(h.transport.WriteTimeout))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !isExpectedCloseError(err) {
					h.Logger.Warnf("Error writing to %s: %v", client.remoteAddr, err)
				}
				return
			}

		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(h.transport.WriteTimeout))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
