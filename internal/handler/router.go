package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bagesh/luna-chat/backend/internal/config"
	"github.com/bagesh/luna-chat/backend/internal/handler/chat"
	"github.com/bagesh/luna-chat/backend/internal/handler/persona"
	"github.com/bagesh/luna-chat/backend/internal/handler/stream"
	"github.com/bagesh/luna-chat/backend/internal/handler/ws"
	middlewarePkg "github.com/bagesh/luna-chat/backend/internal/middleware"
	personaModel "github.com/bagesh/luna-chat/backend/internal/model/persona"
	chatService "github.com/bagesh/luna-chat/backend/internal/service/chat"
	"github.com/bagesh/luna-chat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, chatSvc *chatService.Service, serverCfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(serverCfg.AllowedOrigins))

	limiter := middlewarePkg.NewRateLimiter(serverCfg.RatePerMinute, serverCfg.RateBurst)

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":   "ok",
				"sessions": chatSvc.Len(),
			})
		})

		persona.New(personas).RegisterRoutes(api)

		// Routes that reach the model are limited. A WebSocket pays once for
		// the upgrade and again for every text frame.
		api.Group(func(limited chi.Router) {
			limited.Use(limiter.Handler)
			chat.New(chatSvc).RegisterRoutes(limited)
			stream.New(chatSvc).RegisterRoutes(limited)
			ws.New(chatSvc, ws.Options{
				CheckOrigin: middlewarePkg.CheckOrigin(serverCfg.AllowedOrigins),
				Limiter:     limiter,
			}).RegisterRoutes(limited)
		})
	})

	return r
}
