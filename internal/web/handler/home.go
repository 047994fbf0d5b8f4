package handler

import (
	"net/http"

	"github.com/mcoot/arcade/internal/api/response"
	"github.com/mcoot/arcade/internal/web/middleware"
)

// HomeHandler handles the landing route
type HomeHandler struct{}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

type homeResponse struct {
	Authenticated bool             `json:"authenticated"`
	Player        *response.Player `json:"player,omitempty"`
	GamePath      string           `json:"game_path"`
}

// Home reports who is logged in and where to play
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	resp := homeResponse{GamePath: GamePath}
	if user := middleware.GetUser(r.Context()); user != nil {
		p := response.PlayerFromModel(user)
		resp.Authenticated = true
		resp.Player = &p
	}
	response.JSON(w, http.StatusOK, resp)
}
