package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mait-chat/backend/internal/model/chat"
	chatService "github.com/mait-chat/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 25 * time.Second
)

// Handler drives a chat session over a WebSocket.
type Handler struct {
	chatSvc  *chatService.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New creates the WebSocket handler. checkOrigin may be nil to accept all.
func New(chatSvc *chatService.Service, checkOrigin func(*http.Request) bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the socket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// InboundMessage is a frame sent by the widget.
type InboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// OutboundMessage is a frame sent to the widget.
type OutboundMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Inbound frame types.
const (
	TypeActivate = "activate"
	TypeDraft    = "draft"
	TypeSubmit   = "submit"
)

// Outbound frame types.
const (
	TypeState = "state"
	TypeError = "error"
)

type conn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	logger *zap.Logger
}

func (c *conn) send(msgType string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(OutboundMessage{Type: msgType, Data: data, Timestamp: time.Now().UnixMilli()})
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	logger := h.logger.With(zap.String("session", sessionID))
	logger.Debug("websocket connected")

	c := &conn{ws: ws, logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.writeLoop(ctx, c, updates, cancel)
	}()
	go func() {
		defer wg.Done()
		h.pingLoop(ctx, c)
	}()

	ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	var submits sync.WaitGroup
	h.readLoop(ctx, c, session, &submits)

	cancel()
	wg.Wait()
	submits.Wait()
	logger.Debug("websocket disconnected")
}

func (h *Handler) readLoop(ctx context.Context, c *conn, session *chatService.Session, submits *sync.WaitGroup) {
	for {
		if ctx.Err() != nil {
			return
		}

		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(readTimeout))

		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("invalid websocket frame", zap.Error(err))
			c.send(TypeError, "invalid frame")
			continue
		}

		switch msg.Type {
		case TypeActivate:
			session.Activate()
		case TypeDraft:
			session.UpdateDraft(msg.Text)
		case TypeSubmit:
			if msg.Text != "" {
				session.UpdateDraft(msg.Text)
			}
			// Submit blocks until the reply arrives; keep reading meanwhile.
			submits.Add(1)
			go func() {
				defer submits.Done()
				session.Submit(context.Background())
			}()
		default:
			c.send(TypeError, "unsupported message type: "+msg.Type)
		}
	}
}

// writeLoop forwards session snapshots. A closed session ends the connection.
func (h *Handler) writeLoop(ctx context.Context, c *conn, updates <-chan chat.State, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				c.closeWith(websocket.CloseNormalClosure, "session closed")
				c.ws.SetReadDeadline(time.Now().Add(time.Second))
				cancel()
				return
			}
			if err := c.send(TypeState, state); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				cancel()
				return
			}
		}
	}
}

func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

func (c *conn) closeWith(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeTimeout))
}
