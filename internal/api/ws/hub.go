package ws

import (
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lovstudio/lovcode/backend/internal/events"
	"github.com/lovstudio/lovcode/backend/internal/infrastructure/monitoring"
)

const DefaultClientBuffer = 256

// Hub fans terminal events out to every connected client
type Hub struct {
	logger  *zap.Logger
	metrics *monitoring.Metrics
	buffer  int

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// NewHub creates a hub whose clients queue up to buffer frames each
func NewHub(logger *zap.Logger, metrics *monitoring.Metrics, buffer int) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Hub{
		logger:  logger,
		metrics: metrics,
		buffer:  buffer,
		clients: make(map[*client]struct{}),
	}
}

// EmitData implements events.Sink
func (h *Hub) EmitData(e events.DataEvent) {
	h.broadcast(events.PtyData, Frame{
		Event:   events.PtyData,
		Payload: DataPayload{ID: e.ID, Data: e.Data},
	})
}

// EmitExit implements events.Sink
func (h *Hub) EmitExit(e events.ExitEvent) {
	h.broadcast(events.PtyExit, Frame{
		Event:   events.PtyExit,
		Payload: ExitPayload{ID: e.ID},
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
		h.metrics.DecWSConnections()
	}
}

func (h *Hub) broadcast(event string, frame Frame) {
	msg, err := sonic.ConfigStd.Marshal(frame)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
			h.metrics.RecordWSEvent(event, "sent")
		default:
			h.metrics.RecordWSEvent(event, "dropped")
		}
	}
}

func (h *Hub) register(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, h.buffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.IncWSConnections()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	c.close()
	if ok {
		h.metrics.DecWSConnections()
	}
}
