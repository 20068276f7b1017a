package realtime

import (
	"context"
	"sync"
	"time"

	"profile-service/internal/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 5 * time.Second
	// queued messages per viewer before it is considered stalled
	sendBuffer = 16
)

// Connection wraps a gallery viewer's websocket. Messages are queued and
// written by the connection's own goroutine.
type Connection struct {
	Conn *websocket.Conn

	send     chan interface{}
	done     chan struct{}
	writeMu  sync.Mutex
	seenMu   sync.Mutex
	lastSeen time.Time
	once     sync.Once
}

// Touch records liveness, usually from the pong handler.
func (c *Connection) Touch() {
	c.seenMu.Lock()
	c.lastSeen = time.Now()
	c.seenMu.Unlock()
}

func (c *Connection) idle() time.Duration {
	c.seenMu.Lock()
	defer c.seenMu.Unlock()
	return time.Since(c.lastSeen)
}

// enqueue reports false when the viewer's queue is full or it is gone.
func (c *Connection) enqueue(v interface{}) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- v:
		return true
	default:
		return false
	}
}

func (c *Connection) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(v)
}

func (c *Connection) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
}

// Hub fans newly created profiles out to every open gallery.
type Hub struct {
	mu          sync.RWMutex
	connections map[*Connection]struct{}
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[*Connection]struct{}),
		logger:      logger,
	}
}

// Add registers a connection.
func (h *Hub) Add(conn *websocket.Conn) *Connection {
	c := &Connection{
		Conn:     conn,
		send:     make(chan interface{}, sendBuffer),
		done:     make(chan struct{}),
		lastSeen: time.Now(),
	}

	h.mu.Lock()
	h.connections[c] = struct{}{}
	total := len(h.connections)
	h.mu.Unlock()

	go h.writeLoop(c)

	h.logger.Debug("gallery viewer connected", zap.Int("total", total))
	return c
}

// Remove closes and forgets a connection. Safe to call more than once.
func (h *Hub) Remove(c *Connection) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.connections, c)
		h.mu.Unlock()
		close(c.done)
		_ = c.Conn.Close()
		h.logger.Debug("gallery viewer disconnected")
	})
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) snapshot() []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Connection, 0, len(h.connections))
	for c := range h.connections {
		out = append(out, c)
	}
	return out
}

func (h *Hub) writeLoop(c *Connection) {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.writeJSON(msg); err != nil {
				h.logger.Warn("gallery write failed", zap.Error(err))
				h.Remove(c)
				return
			}
		}
	}
}

// Broadcast queues message for every connection without waiting on the
// network. Viewers whose queue is full are dropped.
func (h *Hub) Broadcast(message interface{}) {
	for _, c := range h.snapshot() {
		if !c.enqueue(message) {
			h.logger.Warn("gallery viewer stalled, dropping")
			h.Remove(c)
		}
	}
}

func (h *Hub) PublishProfileCreated(_ context.Context, p *domain.Profile) error {
	h.Broadcast(domain.ProfileEvent{Type: domain.EventProfileCreated, Profile: p})
	return nil
}

// Heartbeat pings connections every interval until ctx is done and drops
// the ones that stopped answering.
func (h *Hub) Heartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for _, c := range h.snapshot() {
			if c.idle() > 2*interval {
				h.Remove(c)
				continue
			}
			if err := c.ping(); err != nil {
				h.Remove(c)
			}
		}
	}
}

// CloseAll drops every connection, used on shutdown.
func (h *Hub) CloseAll() {
	for _, c := range h.snapshot() {
		h.Remove(c)
	}
}
