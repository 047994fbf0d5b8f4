package cards

import (
	"strconv"

	"github.com/mcoot/arcade/internal/dependencies/random"
	"github.com/mcoot/arcade/internal/model"
)

// Blackjack is the score an ace may not push a hand past when counted high
const Blackjack = 21

// Engine draws cards with replacement and scores them.
// It never touches storage.
type Engine struct {
	random random.Random
}

// New creates a new Engine
func New(random random.Random) *Engine {
	return &Engine{random: random}
}

// Draw returns a uniformly random card, independent of previous draws
func (e *Engine) Draw() model.Card {
	suit := model.Suits[e.random.Intn(len(model.Suits))]
	rank := model.Ranks[e.random.Intn(len(model.Ranks))]
	return model.Card{Suit: suit, Rank: rank}
}

// ScoreDelta returns how much rank adds to a hand currently worth scoreBefore.
// An ace counts 11 unless that would exceed 21, in which case it counts 1.
func ScoreDelta(rank string, scoreBefore int) int {
	switch rank {
	case "A":
		if scoreBefore+11 <= Blackjack {
			return 11
		}
		return 1
	case "J", "Q", "K":
		return 10
	}
	value, err := strconv.Atoi(rank)
	if err != nil || value < 2 || value > 10 {
		return 0
	}
	return value
}
