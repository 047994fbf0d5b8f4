package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/uuid/v5"

	"github.com/mcoot/arcade/internal/dependencies/clock"
	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/services/cards"
	"github.com/mcoot/arcade/internal/storage"
)

// Game actions, also used as audit action names
const (
	ActionJoin  = "join"
	ActionHit   = "hit"
	ActionStand = "stand"
)

// Auditor records player actions. Implementations must not block.
type Auditor interface {
	Record(playerID model.PlayerID, action string, payload map[string]any)
}

// HitResult is the outcome of a single hit
type HitResult struct {
	Card  model.Card
	Delta int
	Score int
}

// HandView is a hand together with the cards drawn into it
type HandView struct {
	Hand  *model.Hand
	Draws []*model.CardDraw
}

// Controller applies blackjack actions to a player's hand
type Controller struct {
	storage storage.Storage
	engine  *cards.Engine
	auditor Auditor
	clock   clock.Clock
	ids     *uuid.Gen
	logger  *slog.Logger
}

// NewController creates a new game Controller
func NewController(
	storage storage.Storage,
	engine *cards.Engine,
	auditor Auditor,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		engine:  engine,
		auditor: auditor,
		clock:   clock,
		ids:     uuid.NewGenWithOptions(uuid.WithEpochFunc(clock.Now)),
		logger:  logger.With(slog.String("component", "game")),
	}
}

// Join resets the player's hand to an empty waiting hand
func (c *Controller) Join(ctx context.Context, playerID model.PlayerID) error {
	c.auditor.Record(playerID, ActionJoin, nil)

	if err := c.storage.ResetHand(ctx, playerID); err != nil {
		c.logger.Error("failed to reset hand",
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("reset hand: %w", err)
	}
	return nil
}

// Hit draws a card and adds its value to the player's hand
func (c *Controller) Hit(ctx context.Context, playerID model.PlayerID) (*HitResult, error) {
	card := c.engine.Draw()
	c.auditor.Record(playerID, ActionHit, map[string]any{"card": card.String()})

	id, err := c.ids.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate draw id: %w", err)
	}
	draw := &model.CardDraw{
		ID:       model.DrawID(id.String()),
		PlayerID: playerID,
		Card:     card,
		DrawnAt:  c.clock.Now(),
	}

	// The score update and the draw record commit together
	before, after, err := c.storage.AddScore(ctx, playerID, func(scoreBefore int) int {
		return cards.ScoreDelta(card.Rank, scoreBefore)
	}, draw)
	if err != nil {
		c.logger.Error("failed to update score",
			slog.String("player_id", string(playerID)),
			slog.String("card", card.String()),
			slog.String("draw_id", string(draw.ID)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("update score: %w", err)
	}

	c.logger.Debug("card drawn",
		slog.String("player_id", string(playerID)),
		slog.String("card", card.String()),
		slog.Int("score", after),
	)

	return &HitResult{Card: card, Delta: after - before, Score: after}, nil
}

// Stand acknowledges the player standing. The hand is left unchanged.
func (c *Controller) Stand(_ context.Context, playerID model.PlayerID) error {
	c.auditor.Record(playerID, ActionStand, nil)
	return nil
}

// Hand returns the player's current hand and draw history.
// A player who never joined gets an empty waiting hand.
func (c *Controller) Hand(ctx context.Context, playerID model.PlayerID) (*HandView, error) {
	hand, err := c.storage.GetHand(ctx, playerID)
	if errors.Is(err, model.ErrHandNotFound) {
		hand = model.NewHand(playerID)
	} else if err != nil {
		return nil, fmt.Errorf("get hand: %w", err)
	}

	draws, err := c.storage.ListDraws(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("list draws: %w", err)
	}

	return &HandView{Hand: hand, Draws: draws}, nil
}
