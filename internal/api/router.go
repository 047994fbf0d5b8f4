package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/arcade/internal/api/handler"
	"github.com/mcoot/arcade/internal/api/middleware"
	"github.com/mcoot/arcade/internal/api/response"
)

// SessionCounter reports how many game sessions are open
type SessionCounter interface {
	Count() int
}

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger   *slog.Logger
	Resolver middleware.Resolver
	Game     handler.HandReader
	Sessions SessionCounter
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler()
	handHandler := handler.NewHandHandler(cfg.Game, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.Resolver)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler(cfg.Sessions)).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	protected.HandleFunc("/hand", handHandler.Get).Methods(http.MethodGet)

	return r
}

func healthHandler(sessions SessionCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := response.Health{Status: "ok"}
		if sessions != nil {
			resp.Sessions = sessions.Count()
		}
		response.JSON(w, http.StatusOK, resp)
	}
}
