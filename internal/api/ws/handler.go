package ws

import (
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lovstudio/lovcode/backend/internal/infrastructure/tracing"
	"github.com/lovstudio/lovcode/backend/internal/shared/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 16 * 1024,
	// The server binds to loopback and serves a desktop webview whose origin
	// is a custom scheme.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Terminal is the subset of the PTY registry reachable from a socket
type Terminal interface {
	Write(id string, data []byte) error
	Resize(id string, cols, rows uint16) error
}

// Handler upgrades requests and serves one client per connection
type Handler struct {
	hub      *Hub
	terminal Terminal
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, terminal Terminal, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub:      hub,
		terminal: terminal,
		logger:   logger,
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	traceID := tracing.GetTraceID(c.Request.Context())
	log := h.logger.With(zap.String("trace_id", string(traceID)))

	cl := h.hub.register(conn)
	log.Debug("WebSocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.writePump(cl, log)
	h.readPump(cl, log)

	h.hub.unregister(cl)
	log.Debug("WebSocket client disconnected")
}

// readPump handles client messages until the connection fails or the hub
// closes the client.
func (h *Handler) readPump(cl *client, log *zap.Logger) {
	conn := cl.conn
	conn.SetReadLimit(utils.MaxWriteSize * 2)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := sonic.ConfigStd.Unmarshal(raw, &msg); err != nil {
			h.reply(cl, Reply{Type: "error", Message: "malformed message"})
			continue
		}

		switch msg.Type {
		case "ping":
			h.reply(cl, Reply{Type: "pong"})
		case "write":
			h.handleWrite(cl, msg)
		case "resize":
			h.handleResize(cl, msg)
		default:
			h.reply(cl, Reply{Type: "error", Message: "unknown message type"})
		}
	}
}

func (h *Handler) handleWrite(cl *client, msg ClientMessage) {
	if err := utils.ValidateID(msg.ID, "id", true); err != nil {
		h.replyError(cl, msg.ID, err)
		return
	}
	if err := utils.ValidateSize(msg.Data, utils.MaxWriteSize, "data"); err != nil {
		h.replyError(cl, msg.ID, err)
		return
	}
	if err := h.terminal.Write(msg.ID, msg.Data); err != nil {
		h.replyError(cl, msg.ID, err)
	}
}

func (h *Handler) handleResize(cl *client, msg ClientMessage) {
	if err := utils.ValidateID(msg.ID, "id", true); err != nil {
		h.replyError(cl, msg.ID, err)
		return
	}
	if err := utils.ValidateDimensions(msg.Cols, msg.Rows); err != nil {
		h.replyError(cl, msg.ID, err)
		return
	}
	if err := h.terminal.Resize(msg.ID, uint16(msg.Cols), uint16(msg.Rows)); err != nil {
		h.replyError(cl, msg.ID, err)
	}
}

func (h *Handler) replyError(cl *client, id string, err error) {
	h.reply(cl, Reply{Type: "error", ID: id, Message: err.Error()})
}

// reply queues a direct response. Replies share the event queue so that
// only writePump ever writes to the connection.
func (h *Handler) reply(cl *client, r Reply) {
	r.Timestamp = time.Now().Unix()
	msg, err := sonic.ConfigStd.Marshal(r)
	if err != nil {
		return
	}
	select {
	case cl.send <- msg:
	case <-cl.done:
	default:
		h.logger.Debug("Dropping reply for slow client", zap.String("type", r.Type))
	}
}

// writePump is the only writer on the connection.
func (h *Handler) writePump(cl *client, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case msg := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("WebSocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-cl.done:
			cl.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
