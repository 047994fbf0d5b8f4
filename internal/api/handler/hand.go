package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mcoot/arcade/internal/api/middleware"
	"github.com/mcoot/arcade/internal/api/response"
	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/services/game"
)

// HandReader loads a player's hand
type HandReader interface {
	Hand(ctx context.Context, playerID model.PlayerID) (*game.HandView, error)
}

// HandHandler handles hand endpoints
type HandHandler struct {
	game   HandReader
	logger *slog.Logger
}

// NewHandHandler creates a new hand handler
func NewHandHandler(game HandReader, logger *slog.Logger) *HandHandler {
	return &HandHandler{game: game, logger: logger}
}

// Get handles GET /api/v1/hand
func (h *HandHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	view, err := h.game.Hand(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load hand",
			slog.String("player_id", string(user.ID)),
			slog.String("error", err.Error()),
		)
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HandFromView(view))
}
