package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/arcade/internal/middleware"
)

// Recovery creates panic recovery middleware for the web routes
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, middleware.DefaultPanicHandler)
}
