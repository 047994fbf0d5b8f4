package storage

import (
	"context"
	"errors"

	"github.com/mcoot/arcade/internal/model"
)

// ErrUnavailable wraps failures of the connection to the backing store itself,
// as opposed to a single failed operation. Sessions cannot keep serving after it.
var ErrUnavailable = errors.New("storage unavailable")

// DeltaFunc computes a score increment from the score read inside an atomic update
type DeltaFunc func(scoreBefore int) int

// Storage defines the interface for data persistence
type Storage interface {
	// User operations
	// CreateUserIfAbsent inserts the user unless one with the same ID exists.
	// Existing users are never modified.
	CreateUserIfAbsent(ctx context.Context, user *model.User) (bool, error)
	GetUser(ctx context.Context, id model.PlayerID) (*model.User, error)

	// Credential operations
	// PutCredential replaces any credential previously bound to the player
	PutCredential(ctx context.Context, cred *model.Credential) error
	GetCredentialByHash(ctx context.Context, tokenHash string) (*model.Credential, error)
	DeleteCredential(ctx context.Context, playerID model.PlayerID) error

	// Hand operations
	// ResetHand zeroes the score and starts a new round
	ResetHand(ctx context.Context, playerID model.PlayerID) error
	// GetScore returns 0 for a player without a hand
	GetScore(ctx context.Context, playerID model.PlayerID) (int, error)
	GetHand(ctx context.Context, playerID model.PlayerID) (*model.Hand, error)
	// AddScore atomically reads the current score, applies delta and writes
	// the result. Concurrent calls for one player never lose an update.
	// Any draws are stamped with the hand's round and stored in the same
	// atomic step, so a failed call leaves neither score nor history changed.
	AddScore(ctx context.Context, playerID model.PlayerID, delta DeltaFunc, draws ...*model.CardDraw) (before, after int, err error)

	// Draw operations
	// ListDraws returns the draws of the player's current round, oldest first
	ListDraws(ctx context.Context, playerID model.PlayerID) ([]*model.CardDraw, error)

	// Audit operations
	AppendAudit(ctx context.Context, entry *model.AuditEntry) error

	// Close releases the store's connections
	Close() error
}
