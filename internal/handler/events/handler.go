package events

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/k2-chat/backend/internal/render"
	chatService "github.com/zhouzirui/k2-chat/backend/internal/service/chat"
	"github.com/zhouzirui/k2-chat/backend/pkg/utils"
)

const (
	defaultHeartbeat = 15 * time.Second
	eventBuffer      = 32
)

// Handler streams session events via Server-Sent Events.
type Handler struct {
	chatSvc   *chatService.Service
	formatter *render.Formatter
	logger    *zap.Logger
	heartbeat time.Duration
}

// New creates an event stream handler.
func New(chatSvc *chatService.Service, formatter *render.Formatter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc:   chatSvc,
		formatter: formatter,
		logger:    logger,
		heartbeat: defaultHeartbeat,
	}
}

// RegisterRoutes mounts the stream route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session/{sessionID}/events", h.handleEvents)
}

type statusPayload struct {
	SessionID string `json:"sessionId"`
	Typing    bool   `json:"typing"`
	Welcome   bool   `json:"welcome"`
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	events, unsubscribe := session.Subscribe(eventBuffer)
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	ctx := r.Context()
	h.logger.Debug("opening event stream", zap.String("session", sessionID))

	if err := utils.SendSSEEvent(w, flusher, "status", statusPayload{
		SessionID: sessionID,
		Typing:    session.Typing(),
		Welcome:   session.Welcome(),
	}); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("closing event stream", zap.String("session", sessionID))
			return
		case ev, ok := <-events:
			if !ok {
				_ = utils.SendSSEEvent(w, flusher, "closed", statusPayload{SessionID: sessionID})
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(ev.Type), h.formatter.Event(ev)); err != nil {
				h.logger.Debug("event stream write failed", zap.String("session", sessionID), zap.Error(err))
				return
			}
		case t := <-ticker.C:
			if err := utils.SendSSEEvent(w, flusher, "heartbeat", map[string]string{
				"time": t.UTC().Format(time.RFC3339),
			}); err != nil {
				return
			}
		}
	}
}
