package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/arcade/internal/dependencies/random"
	"github.com/mcoot/arcade/internal/services/login"
	"github.com/mcoot/arcade/internal/web/handler"
	"github.com/mcoot/arcade/internal/web/middleware"
)

// Authenticator is everything the web routes need from the auth service
type Authenticator interface {
	middleware.Resolver
	handler.Credentials
}

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger       *slog.Logger
	Auth         Authenticator
	Provider     login.Provider
	Auditor      handler.Auditor
	Random       random.Random
	Game         http.Handler
	CookieSecure bool
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.Auth)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	homeHandler := handler.NewHomeHandler()
	authHandler := handler.NewAuthHandler(cfg.Auth, cfg.Provider, cfg.Auditor, cfg.Random, cfg.CookieSecure, cfg.Logger)

	// The session handler authenticates from the handshake itself
	r.Handle(handler.GamePath, cfg.Game).Methods(http.MethodGet)

	public := r.NewRoute().Subrouter()
	public.Use(optionalAuthMiddleware)
	public.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	public.HandleFunc("/login", authHandler.Login).Methods(http.MethodGet)
	public.HandleFunc("/auth", authHandler.Callback).Methods(http.MethodGet)
	public.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodGet, http.MethodPost)

	return r
}
