package model

import (
	"fmt"
	"slices"
	"time"
)

// Suits in draw order
var Suits = []string{"C", "D", "H", "S"}

// Ranks in draw order
var Ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Card is a single playing card
type Card struct {
	Suit string
	Rank string
}

// String renders the card as suit followed by rank, e.g. "HA" or "S10"
func (c Card) String() string {
	return c.Suit + c.Rank
}

// ParseCard parses the "<suit><rank>" form produced by Card.String
func ParseCard(s string) (Card, error) {
	if len(s) < 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	c := Card{Suit: s[:1], Rank: s[1:]}
	if !slices.Contains(Suits, c.Suit) || !slices.Contains(Ranks, c.Rank) {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	return c, nil
}

// DrawID uniquely identifies a card draw
type DrawID string

// CardDraw records one card issued to a player. Draws are never mutated.
// Round is the hand round the card was drawn into, stamped by the store.
type CardDraw struct {
	ID       DrawID
	PlayerID PlayerID
	Card     Card
	DrawnAt  time.Time
	Round    int
}
