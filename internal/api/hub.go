package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/kalshi-analyzer/internal/metrics"
	"github.com/yourusername/kalshi-analyzer/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
	sendBufferSize = 16

	messageTypeSnapshot = "snapshot"
)

// Hub pushes every new snapshot to connected websocket clients
type Hub struct {
	analyzer Analyzer
	upgrader websocket.Upgrader
	logger   *logrus.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID]*streamClient
}

type streamClient struct {
	id   uuid.UUID
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan StreamMessage
	closed bool
}

// trySend queues msg without blocking. It reports false when the buffer is full or the client is closed.
func (c *streamClient) trySend(msg StreamMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close closes the send channel once and reports whether this call closed it
func (c *streamClient) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.send)
	return true
}

// NewHub creates a hub. checkOrigin nil accepts every origin.
func NewHub(analyzer Analyzer, logger *logrus.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		analyzer: analyzer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger:  logger,
		clients: make(map[uuid.UUID]*streamClient),
	}
}

// Run forwards snapshots from the analyzer until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	subID, snapshots := h.analyzer.Subscribe()
	defer h.analyzer.Unsubscribe(subID)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case snapshot, ok := <-snapshots:
			if !ok {
				h.shutdown()
				return
			}
			h.Broadcast(snapshot)
		}
	}
}

// Broadcast sends a snapshot to every client, dropping clients whose buffer is full
func (h *Hub) Broadcast(snapshot *models.Snapshot) {
	msg := StreamMessage{
		Type:      messageTypeSnapshot,
		Payload:   newEventsResponse(snapshot.Events, snapshot),
		Timestamp: time.Now().UTC(),
	}

	h.mu.RLock()
	clients := make([]*streamClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(msg) {
			h.logf(c.id, "Stream client too slow, disconnecting")
			h.unregister(c)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams snapshots to the client.
// The current snapshot is sent immediately after connecting.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &streamClient{
		id:   uuid.New(),
		conn: conn,
		send: make(chan StreamMessage, sendBufferSize),
	}
	if events, snapshot, err := h.analyzer.Events(r.Context(), ""); err == nil {
		c.trySend(StreamMessage{
			Type:      messageTypeSnapshot,
			Payload:   newEventsResponse(events, snapshot),
			Timestamp: time.Now().UTC(),
		})
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *streamClient) {
	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebsocketConnected()
	if h.logger != nil {
		h.logger.WithFields(logrus.Fields{"client_id": c.id.String(), "clients": count}).Info("Stream client connected")
	}
}

func (h *Hub) unregister(c *streamClient) {
	if !c.close() {
		return
	}

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()

	metrics.WebsocketDisconnected()
	h.logf(c.id, "Stream client disconnected")
}

func (h *Hub) shutdown() {
	h.mu.RLock()
	clients := make([]*streamClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

// readPump discards client messages and detects disconnects
func (h *Hub) readPump(c *streamClient) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
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

func (h *Hub) writePump(c *streamClient) {
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
			if err := c.conn.WriteJSON(msg); err != nil {
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

func (h *Hub) logf(id uuid.UUID, msg string) {
	if h.logger != nil {
		h.logger.WithField("client_id", id.String()).Info(msg)
	}
}
