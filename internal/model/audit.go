package model

import "time"

// Audit actions recorded outside the game loop
const (
	AuditActionLoginSuccess = "login_success"
	AuditActionAutoRegister = "auto_register"
	AuditActionLogout       = "logout"
	AuditActionAuthFailed   = "auth_failed"
)

// AuditEntry is an append-only record of something a player did.
// The game never reads these back.
type AuditEntry struct {
	PlayerID  PlayerID       `json:"player_id"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
