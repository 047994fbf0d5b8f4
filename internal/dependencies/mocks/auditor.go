package mocks

import (
	"sync"

	"github.com/mcoot/arcade/internal/model"
)

// RecordedAction is a single call to MockAuditor.Record
type RecordedAction struct {
	PlayerID model.PlayerID
	Action   string
	Payload  map[string]any
}

// MockAuditor captures recorded actions in memory.
// Safe for use from multiple goroutines.
type MockAuditor struct {
	mu      sync.Mutex
	actions []RecordedAction
}

// NewMockAuditor creates a new MockAuditor
func NewMockAuditor() *MockAuditor {
	return &MockAuditor{}
}

// Record stores the action
func (a *MockAuditor) Record(playerID model.PlayerID, action string, payload map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, RecordedAction{PlayerID: playerID, Action: action, Payload: payload})
}

// Actions returns a copy of everything recorded so far
func (a *MockAuditor) Actions() []RecordedAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]RecordedAction, len(a.actions))
	copy(out, a.actions)
	return out
}

// ActionsFor returns the recorded action names for one player, in order
func (a *MockAuditor) ActionsFor(playerID model.PlayerID) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, r := range a.actions {
		if r.PlayerID == playerID {
			out = append(out, r.Action)
		}
	}
	return out
}
