package response

import (
	"time"

	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/services/game"
)

// Health is the response for the health endpoint
type Health struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// Player represents a player in API responses
type Player struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerFromModel converts a model.User to a response Player
func PlayerFromModel(u *model.User) Player {
	return Player{
		ID:        string(u.ID),
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// Draw represents one drawn card
type Draw struct {
	ID      string    `json:"id"`
	Card    string    `json:"card"`
	DrawnAt time.Time `json:"drawn_at"`
}

// DrawFromModel converts a model.CardDraw
func DrawFromModel(d *model.CardDraw) Draw {
	return Draw{
		ID:      string(d.ID),
		Card:    d.Card.String(),
		DrawnAt: d.DrawnAt,
	}
}

// Hand represents a player's hand and draw history
type Hand struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
	Status   string `json:"status"`
	Round    int    `json:"round"`
	Draws    []Draw `json:"draws"`
}

// HandFromView converts a game.HandView
func HandFromView(v *game.HandView) Hand {
	draws := make([]Draw, len(v.Draws))
	for i, d := range v.Draws {
		draws[i] = DrawFromModel(d)
	}
	return Hand{
		PlayerID: string(v.Hand.PlayerID),
		Score:    v.Hand.Score,
		Status:   string(v.Hand.Status),
		Round:    v.Hand.Round,
		Draws:    draws,
	}
}
