package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/k2-chat/backend/internal/model/chat"
	"github.com/zhouzirui/k2-chat/backend/internal/model/profile"
	"github.com/zhouzirui/k2-chat/backend/internal/render"
	chatService "github.com/zhouzirui/k2-chat/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
	eventBuffer  = 32
)

// Handler drives a chat session over a WebSocket.
type Handler struct {
	chatSvc   *chatService.Service
	profiles  profile.Store
	formatter *render.Formatter
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

// New creates a WebSocket handler.
func New(chatSvc *chatService.Service, profiles profile.Store, formatter *render.Formatter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc:   chatSvc,
		profiles:  profiles,
		formatter: formatter,
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the WebSocket route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage carries a user turn.
type TextMessage struct {
	Text string `json:"text"`
}

// QuickActionMessage picks a 1-based quick action of the session profile.
type QuickActionMessage struct {
	Index int `json:"index"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// conn serialises writes; gorilla allows one concurrent writer.
type conn struct {
	ws        *websocket.Conn
	sessionID string
	logger    *zap.Logger
	mu        sync.Mutex
}

func (c *conn) write(msg outgoingMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg.Timestamp = time.Now().Unix()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteJSON(msg); err != nil {
		c.logger.Debug("websocket write failed", zap.String("session", c.sessionID), zap.Error(err))
	}
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// close sends a close frame with reason and drops the connection, which
// ends the read loop.
func (c *conn) close(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
	_ = c.ws.Close()
}

func (c *conn) sendResult(data map[string]any) {
	c.write(outgoingMessage{Type: "result", SessionID: c.sessionID, Data: data})
}

func (c *conn) sendError(message string) {
	c.write(outgoingMessage{Type: "error", SessionID: c.sessionID, Data: map[string]string{"message": message}})
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

	c := &conn{ws: ws, sessionID: sessionID, logger: h.logger}
	h.logger.Info("websocket connected", zap.String("session", sessionID))

	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	events, unsubscribe := session.Subscribe(eventBuffer)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.pingLoop(ctx, c)
	go h.pumpEvents(ctx, c, events)

	c.sendResult(map[string]any{
		"type":    "connected",
		"profile": session.Info().ProfileID,
		"typing":  session.Typing(),
		"welcome": session.Welcome(),
	})

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("session", sessionID), zap.Error(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			c.sendError("session mismatch")
			continue
		}
		h.handleMessage(c, session, &msg)
	}
}

func (h *Handler) handleMessage(c *conn, session *chatService.Session, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			c.sendError("invalid text payload")
			return
		}
		h.submit(c, session, text.Text)
	case "quick":
		var quick QuickActionMessage
		if err := json.Unmarshal(msg.Data, &quick); err != nil {
			c.sendError("invalid quick action payload")
			return
		}
		p, ok := h.profiles.FindByID(session.Info().ProfileID)
		if !ok {
			c.sendError("profile not found")
			return
		}
		text, ok := p.QuickActionMessage(quick.Index)
		if !ok {
			c.sendError("unknown quick action")
			return
		}
		h.submit(c, session, text)
	case "clear":
		session.Clear()
		c.sendResult(map[string]any{"type": "clear"})
	case "export":
		transcript := session.Export()
		c.sendResult(map[string]any{
			"type":       "export",
			"filename":   transcript.Filename(),
			"transcript": transcript,
		})
	case "load":
		transcript, err := chat.UnmarshalTranscript(msg.Data)
		if err == nil {
			err = session.Load(transcript)
		}
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.sendResult(map[string]any{
			"type":     "load",
			"messages": h.formatter.Messages(session.History()),
		})
	default:
		c.sendError("unsupported message type: " + msg.Type)
	}
}

func (h *Handler) submit(c *conn, session *chatService.Session, text string) {
	_, accepted := session.Submit(text)
	c.sendResult(map[string]any{
		"type":     "submit",
		"accepted": accepted,
	})
}

// pumpEvents forwards session events until ctx ends or the session closes.
func (h *Handler) pumpEvents(ctx context.Context, c *conn, events <-chan chatService.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				c.write(outgoingMessage{Type: "closed", SessionID: c.sessionID})
				c.close("session closed")
				return
			}
			c.write(outgoingMessage{Type: "event", SessionID: c.sessionID, Data: h.formatter.Event(ev)})
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
