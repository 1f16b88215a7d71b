package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/logging"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/progress"
)

// updateBuffer bounds how many progress updates can queue per client
// before publishers block.
const updateBuffer = 64

// Hub tracks connected WebSocket clients and routes progress updates
// to them. Each client gets its own update channel drained by a write
// pump, so trackers publish without touching the connection directly.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*hubClient
	log     *logging.Logger
}

type hubClient struct {
	id      string
	conn    *websocket.Conn
	updates chan progress.Update
	done    chan struct{}

	// writeMu serializes writes: the pump and direct sends share the
	// connection.
	writeMu sync.Mutex
}

func (c *hubClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*hubClient),
		log:     logging.New("hub"),
	}
}

// progressFrame is the wire envelope for one progress update.
type progressFrame struct {
	Type string          `json:"type"`
	Data progress.Update `json:"data"`
}

// Register adds a client connection and starts its write pump. A
// previous client with the same ID is dropped first.
func (h *Hub) Register(clientID string, conn *websocket.Conn) {
	h.mu.Lock()
	if old, exists := h.clients[clientID]; exists {
		close(old.done)
	}
	client := &hubClient{
		id:      clientID,
		conn:    conn,
		updates: make(chan progress.Update, updateBuffer),
		done:    make(chan struct{}),
	}
	h.clients[clientID] = client
	h.mu.Unlock()

	h.log.Infow("client connected", "client_id", clientID)
	go h.writePump(client)
}

// Unregister removes a client and stops its write pump.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, exists := h.clients[clientID]
	if !exists {
		return
	}
	close(client.done)
	delete(h.clients, clientID)
	h.log.Infow("client disconnected", "client_id", clientID)
}

// clientSink feeds one client's update channel for as long as that
// client lives. Once the client's done channel closes, updates are
// dropped instead of queued so a run bound to a disconnected client
// still finishes.
type clientSink struct {
	client *hubClient
}

func (s clientSink) Publish(u progress.Update) error {
	select {
	case <-s.client.done:
		return nil
	case s.client.updates <- u:
		return nil
	}
}

// Sink returns a progress sink feeding the named client, or nil when
// the client is not connected. A sink outlives the client it was
// taken from: publishes after disconnect are silently dropped.
func (h *Hub) Sink(clientID string) progress.Sink {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[clientID]
	if !exists {
		return nil
	}
	return clientSink{client: client}
}

// Send writes an arbitrary JSON message to the named client, sharing
// the write lock with the progress pump.
func (h *Hub) Send(clientID string, v any) error {
	h.mu.RLock()
	client, exists := h.clients[clientID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("client %s not connected", clientID)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return client.write(data)
}

// Connected reports whether the named client has an open connection.
func (h *Hub) Connected(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.clients[clientID]
	return exists
}

func (h *Hub) writePump(client *hubClient) {
	for {
		select {
		case <-client.done:
			return
		case update := <-client.updates:
			frame, err := json.Marshal(progressFrame{Type: "progress", Data: update})
			if err != nil {
				h.log.Errorw("failed to encode progress frame", "error", err)
				continue
			}
			if err := client.write(frame); err != nil {
				h.log.Warnw("client write failed", "client_id", client.id, "error", err)
				h.Unregister(client.id)
				return
			}
		}
	}
}
