package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/couchpilot/internal/playback"
)

// EventMessage is the wire shape pushed to connected remotes.
type EventMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Hub fans playback notifications out to WebSocket clients. It implements
// playback.Notifier; notifications must not block playback, so every client
// gets a buffered queue and messages to a saturated client are dropped.
type Hub struct {
	logger hclog.Logger

	mu      sync.Mutex
	clients map[*hubClient]struct{}
	closed  bool
}

type hubClient struct {
	conn *websocket.Conn
	send chan EventMessage
}

// NewHub creates an empty hub.
func NewHub(logger hclog.Logger) *Hub {
	return &Hub{
		logger:  logger.Named("events"),
		clients: make(map[*hubClient]struct{}),
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	c := &hubClient{conn: conn, send: make(chan EventMessage, 64)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("event client connected", "clients", n)
	go c.writeLoop(h)
	go c.readLoop(h)
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}

// Close disconnects every client. New connections are refused afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*hubClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*hubClient]struct{})
	for _, c := range clients {
		close(c.send)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(msgType string, data interface{}) {
	msg := EventMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}

	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Do not let a stalled client hold up playback events.
			h.logger.Warn("dropping event for slow client", "type", msgType)
		}
	}
	h.mu.Unlock()
}

func (c *hubClient) writeLoop(h *Hub) {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			h.remove(c)
			return
		}
	}
}

func (c *hubClient) readLoop(h *Hub) {
	// Clients only listen; reads exist to detect disconnects.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

// --- playback.Notifier -----------------------------------------------------

func (h *Hub) StateChanged(state playback.LoadingState) {
	h.Broadcast("state", map[string]interface{}{"state": state})
}

func (h *Hub) PositionChanged(seconds float64) {
	h.Broadcast("position", map[string]interface{}{"seconds": seconds})
}

func (h *Hub) TracksChanged(tracks playback.TrackSelection) {
	h.Broadcast("tracks", tracks)
}

func (h *Hub) SkipAffordanceChanged(a playback.SkipAffordance) {
	h.Broadcast("skip", a)
}

func (h *Hub) PlaybackError(err error) {
	h.Broadcast("error", map[string]interface{}{"message": err.Error()})
}
