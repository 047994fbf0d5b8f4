package redis

import (
	"fmt"

	"github.com/mcoot/arcade/internal/model"
)

// Key prefix for all arcade data
const keyPrefix = "arcade"

// userKey returns the Redis key for a User
func userKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// credentialKey returns the Redis key for the credential bound to a player
func credentialKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:credential:%s", keyPrefix, playerID)
}

// tokenHashIndexKey returns the Redis key for the token hash -> player_id index
func tokenHashIndexKey(tokenHash string) string {
	return fmt.Sprintf("%s:idx:token_hash:%s", keyPrefix, tokenHash)
}

// handKey returns the Redis key for a player's hand HASH (score, status, round)
func handKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:hand:%s", keyPrefix, playerID)
}

// drawsKey returns the Redis key for the LIST of a player's draws in one hand round
func drawsKey(playerID model.PlayerID, round int) string {
	return fmt.Sprintf("%s:draws:%s:%d", keyPrefix, playerID, round)
}

// auditStreamKey returns the Redis key for the audit STREAM
func auditStreamKey() string {
	return fmt.Sprintf("%s:audit", keyPrefix)
}

// Hand hash fields
const (
	handFieldScore  = "score"
	handFieldStatus = "status"
	handFieldRound  = "round"
)
