package model

// HandStatus is the lifecycle state of a player's hand
type HandStatus string

const (
	HandStatusWaiting HandStatus = "waiting"
	HandStatusActive  HandStatus = "active"
	// HandStatusStood is reserved for a stand rule that finalizes the round.
	// Nothing writes it yet: stand only acknowledges.
	HandStatusStood  HandStatus = "stood"
	HandStatusBusted HandStatus = "busted"
)

// Hand is a player's accumulated score for the current round.
// It is a projection of the draws since the last reset, updated incrementally.
// Round counts resets; a player who never joined is in round 0.
type Hand struct {
	PlayerID PlayerID
	Score    int
	Status   HandStatus
	Round    int
}

// NewHand returns a freshly reset hand
func NewHand(playerID PlayerID) *Hand {
	return &Hand{
		PlayerID: playerID,
		Score:    0,
		Status:   HandStatusWaiting,
	}
}
