package notificator

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"table-service/internal/common/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans notifications out to the websocket clients of a channel.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	log     *logger.Logger
}

type client struct {
	hub     *Hub
	channel string
	conn    *websocket.Conn
	send    chan []byte
	once    sync.Once
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{clients: make(map[string]map[*client]struct{}), log: log}
}

// Handler upgrades the request and subscribes the connection to channel.
func (h *Hub) Handler(channel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Error("websocket_upgrade_failed", err, map[string]any{"channel": channel})
			return
		}
		c := &client{hub: h, channel: channel, conn: conn, send: make(chan []byte, sendBuffer)}
		h.register(c)
		go c.writePump()
		go c.readPump()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.channel]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.channel] = set
	}
	set[c] = struct{}{}
	h.log.Info("websocket_client_connected", map[string]any{"channel": c.channel, "clients": len(set)})
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[c.channel]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			c.close()
		}
	}
}

// Broadcast queues msg for every client of channel and returns how many received it.
// Clients whose buffer is full miss the message.
func (h *Hub) Broadcast(channel string, msg []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients[channel] {
		select {
		case c.send <- msg:
			n++
		default:
			h.log.Warn("websocket_buffer_full", map[string]any{"channel": channel})
		}
	}
	return n
}

// Count returns the connected clients of channel.
func (h *Hub) Count(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[channel])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, set := range h.clients {
		for c := range set {
			c.close()
		}
		delete(h.clients, ch)
	}
}

func (c *client) close() { c.once.Do(func() { close(c.send) }) }

// readPump only keeps the connection alive; clients do not send commands.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket_closed", map[string]any{"channel": c.channel, "error": err.Error()})
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
