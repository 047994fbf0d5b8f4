package model

import "time"

// PlayerID uniquely identifies a player across the system.
// It is the identity provider's stable subject id.
type PlayerID string

// User is a player identity registered through the external identity provider
type User struct {
	ID        PlayerID
	Email     string
	CreatedAt time.Time
}

// Credential binds a session token (stored only as a hash) to a user.
// A user holds at most one credential; issuing a new one replaces the old.
type Credential struct {
	PlayerID  PlayerID
	TokenHash string
	IssuedAt  time.Time
}
