package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	queryHandler "github.com/parentpass/adminchat/backend/internal/handler/query"
	sessionHandler "github.com/parentpass/adminchat/backend/internal/handler/session"
	wsHandler "github.com/parentpass/adminchat/backend/internal/handler/ws"
	middlewarePkg "github.com/parentpass/adminchat/backend/internal/middleware"
	chatservice "github.com/parentpass/adminchat/backend/internal/service/chat"
	sessionservice "github.com/parentpass/adminchat/backend/internal/service/session"
	"github.com/parentpass/adminchat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(apiKey string, store *sessionservice.Store, engine *chatservice.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)
	r.Use(middlewarePkg.Auth(apiKey))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		sessionHandler.New(store).RegisterRoutes(api)
		queryHandler.New(engine).RegisterRoutes(api)
		wsHandler.New(engine).RegisterRoutes(api)
	})

	return r
}
