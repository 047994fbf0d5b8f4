package handler

import (
	"net/http"

	"github.com/mcoot/arcade/internal/api/middleware"
	"github.com/mcoot/arcade/internal/api/response"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct{}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler() *PlayerHandler {
	return &PlayerHandler{}
}

// GetMe handles GET /api/v1/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(user))
}
