package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/k2-chat/backend/internal/analysis/keyword"
	"github.com/zhouzirui/k2-chat/backend/internal/model/chat"
	"github.com/zhouzirui/k2-chat/backend/internal/model/profile"
	"github.com/zhouzirui/k2-chat/backend/internal/render"
	chatService "github.com/zhouzirui/k2-chat/backend/internal/service/chat"
	"github.com/zhouzirui/k2-chat/backend/pkg/utils"
)

const (
	maxImportBytes = 1 << 20
	maxUploadBytes = 10 << 20
)

// Handler serves the chat session HTTP API.
type Handler struct {
	chatSvc   *chatService.Service
	profiles  profile.Store
	table     keyword.Table
	formatter *render.Formatter
	logger    *zap.Logger
}

// New creates a chat handler.
func New(chatSvc *chatService.Service, profiles profile.Store, table keyword.Table, formatter *render.Formatter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc:   chatSvc,
		profiles:  profiles,
		table:     table,
		formatter: formatter,
		logger:    logger,
	}
}

// RegisterRoutes mounts the chat routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Delete("/session/{sessionID}", h.handleDeleteSession)
	r.Post("/session/{sessionID}/messages", h.handleSubmit)
	r.Delete("/session/{sessionID}/messages", h.handleClear)
	r.Get("/session/{sessionID}/export", h.handleExport)
	r.Post("/session/{sessionID}/import", h.handleImport)
	r.Post("/session/{sessionID}/upload", h.handleUpload)
}

type sessionView struct {
	ID        string               `json:"id"`
	ProfileID string               `json:"profileId"`
	CreatedAt time.Time            `json:"createdAt"`
	Typing    bool                 `json:"typing"`
	Welcome   bool                 `json:"welcome"`
	Messages  []render.MessageView `json:"messages"`
}

func (h *Handler) view(session *chatService.Session) sessionView {
	info := session.Info()
	return sessionView{
		ID:        info.ID,
		ProfileID: info.ProfileID,
		CreatedAt: info.CreatedAt,
		Typing:    session.Typing(),
		Welcome:   session.Welcome(),
		Messages:  h.formatter.Messages(session.History()),
	}
}

// handleChat answers a single message from the keyword table. It is the
// endpoint the remote responder talks to by default.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"response": h.table.Generate(payload.Message)})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProfileID string `json:"profileId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, ok := h.profiles.Resolve(payload.ProfileID)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "profile not found")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), p.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, h.view(session))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.view(session))
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmit records a user message. Blank input or a send while a reply
// is pending is reported as accepted=false, never as an error. With
// ?wait=true the response carries the bot reply.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, accepted := session.Submit(payload.Text)
	if !accepted || r.URL.Query().Get("wait") != "true" {
		utils.RespondJSON(w, http.StatusAccepted, map[string]bool{
			"accepted": accepted,
			"typing":   session.Typing(),
		})
		return
	}

	msg, err := reply.Wait(r.Context())
	if err != nil {
		if errors.Is(err, chatService.ErrReplyCancelled) {
			utils.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Warn("waiting for reply failed", zap.String("session", session.ID()), zap.Error(err))
		utils.RespondError(w, http.StatusGatewayTimeout, "reply not ready")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"accepted": true,
		"reply":    h.formatter.Messages([]chat.Message{msg})[0],
	})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	session.Clear()
	utils.RespondJSON(w, http.StatusOK, h.view(session))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	transcript := session.Export()
	data, err := chat.MarshalTranscript(transcript)
	if err != nil {
		h.logger.Error("export failed", zap.String("session", session.ID()), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+transcript.Filename()+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("write export failed", zap.Error(err))
	}
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	transcript, err := chat.UnmarshalTranscript(data)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if err := session.Load(transcript); err != nil {
		h.respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.view(session))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	h.logger.Info("file upload",
		zap.String("session", session.ID()),
		zap.String("name", header.Filename),
		zap.Int64("size", header.Size))

	msg := session.AcknowledgeUpload(header.Filename)
	utils.RespondJSON(w, http.StatusCreated, h.formatter.Messages([]chat.Message{msg})[0])
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*chatService.Session, bool) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return nil, false
	}
	return session, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatService.ErrProfileRequired), errors.Is(err, chat.ErrInvalidTranscript):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("chat request failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
