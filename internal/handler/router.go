package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/k2-chat/backend/internal/analysis/keyword"
	"github.com/zhouzirui/k2-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/k2-chat/backend/internal/handler/events"
	"github.com/zhouzirui/k2-chat/backend/internal/handler/profile"
	"github.com/zhouzirui/k2-chat/backend/internal/handler/socket"
	middlewarePkg "github.com/zhouzirui/k2-chat/backend/internal/middleware"
	profileModel "github.com/zhouzirui/k2-chat/backend/internal/model/profile"
	"github.com/zhouzirui/k2-chat/backend/internal/render"
	chatService "github.com/zhouzirui/k2-chat/backend/internal/service/chat"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(profiles profileModel.Store, chatSvc *chatService.Service, table keyword.Table, formatter *render.Formatter, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	profileHandler := profile.New(profiles)
	chatHandler := chat.New(chatSvc, profiles, table, formatter, logger.Named("chat"))
	eventsHandler := events.New(chatSvc, formatter, logger.Named("events"))
	socketHandler := socket.New(chatSvc, profiles, formatter, logger.Named("websocket"))

	r.Route("/api", func(api chi.Router) {
		profileHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		eventsHandler.RegisterRoutes(api)
		socketHandler.RegisterRoutes(api)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
