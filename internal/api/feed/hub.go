package feed

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Envelope is one message on the score stream
type Envelope struct {
	Type    string                   `json:"type"` // "score"
	Initial bool                     `json:"initial,omitempty"`
	Score   contracts.CompositeScore `json:"score"`
}

// Hub fans composite scores out to websocket clients
// ⭐ SSOT: 실시간 점수 스트림은 이 Hub에서만
type Hub struct {
	logger *logger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  map[string]contracts.CompositeScore
}

var _ contracts.ScorePublisher = (*Hub)(nil)

// NewHub creates an empty hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:  log,
		clients: make(map[*client]struct{}),
		latest:  make(map[string]contracts.CompositeScore),
	}
}

// Publish implements contracts.ScorePublisher. Slow clients drop messages.
func (h *Hub) Publish(score contracts.CompositeScore) {
	msg, err := json.Marshal(Envelope{Type: "score", Score: score})
	if err != nil {
		h.logger.WithError(err).Warn("Failed to encode score")
		return
	}

	h.mu.Lock()
	h.latest[score.Symbol] = score
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(score.Symbol) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.logger.WithField("symbol", score.Symbol).Debug("Client buffer full, dropping score")
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request. ?symbols=A,B limits the stream.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		symbols: parseSymbols(r.URL.Query().Get("symbols")),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	for _, score := range h.latest {
		if !c.wants(score.Symbol) {
			continue
		}
		if msg, err := json.Marshal(Envelope{Type: "score", Initial: true, Score: score}); err == nil {
			select {
			case c.send <- msg:
			default:
			}
		}
	}
	h.mu.Unlock()

	h.logger.WithField("clients", h.ClientCount()).Debug("Score feed client connected")

	go c.writePump()
	go c.readPump()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func parseSymbols(raw string) map[string]struct{} {
	if raw == "" {
		return nil
	}
	out := make(map[string]struct{})
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}

type client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	symbols map[string]struct{} // nil = 전체
}

func (c *client) wants(symbol string) bool {
	if c.symbols == nil {
		return true
	}
	_, ok := c.symbols[symbol]
	return ok
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

// readPump only services control frames; clients never send data
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
