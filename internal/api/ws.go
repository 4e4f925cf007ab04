package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/miradorstack/mirador-clusterview/internal/models"
	"github.com/miradorstack/mirador-clusterview/internal/projection"
)

// Stream message types.
const (
	MessageInitial = "initial"
	MessageUpdate  = "update"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	sendBuffer   = 16
	maxReadBytes = 512
)

// StreamMessage is the envelope pushed to websocket clients.
type StreamMessage struct {
	Type string               `json:"type"`
	Data projection.Dashboard `json:"data"`
}

// DashboardSource builds the dashboard pushed to clients.
type DashboardSource interface {
	Dashboard() projection.Dashboard
}

// Hub fans dashboard updates out to websocket clients. Slow clients are dropped
// rather than allowed to stall the sampler.
type Hub struct {
	logger   *slog.Logger
	source   DashboardSource
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *streamClient) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// NewHub constructs a Hub.
func NewHub(logger *slog.Logger, source DashboardSource) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 8192,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*streamClient]struct{}),
	}
}

// ServeHTTP upgrades the request and streams dashboards until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &streamClient{conn: conn, send: make(chan []byte, sendBuffer)}
	if payload, err := encode(MessageInitial, h.source.Dashboard()); err == nil {
		client.send <- payload
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", slog.String("remote", r.RemoteAddr))

	go h.writePump(client)
	h.readPump(client)
}

// OnTick is a sampler listener that pushes the refreshed dashboard.
func (h *Hub) OnTick(models.ClusterMetrics) {
	h.Broadcast()
}

// Broadcast pushes the current dashboard to every client.
func (h *Hub) Broadcast() {
	payload, err := encode(MessageUpdate, h.source.Dashboard())
	if err != nil {
		h.logger.Error("encode dashboard", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping slow websocket client")
			delete(h.clients, c)
			c.close()
		}
	}
}

// Clients reports how many clients are connected.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

func (h *Hub) remove(c *streamClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// readPump only services control frames; client payloads are ignored.
func (h *Hub) readPump(c *streamClient) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", slog.Any("error", err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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

func encode(kind string, d projection.Dashboard) ([]byte, error) {
	return json.Marshal(StreamMessage{Type: kind, Data: d})
}
