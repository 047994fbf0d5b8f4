package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/arcade/internal/model"
)

// connection is a live session tracked for shutdown
type connection struct {
	conn     *websocket.Conn
	playerID model.PlayerID
	cancel   context.CancelFunc
}

// Registry tracks open sessions. Hijacked connections are invisible to
// http.Server.Shutdown, so the registry is how they get closed.
type Registry struct {
	mu       sync.Mutex
	conns    map[*connection]struct{}
	draining bool
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{conns: make(map[*connection]struct{})}
}

// add tracks c, or reports false once the registry is draining
func (r *Registry) add(c *connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.draining {
		return false
	}
	r.conns[c] = struct{}{}
	return true
}

func (r *Registry) remove(c *connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c)
}

// Count returns the number of open sessions
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// CountFor returns the number of open sessions for one player
func (r *Registry) CountFor(playerID model.PlayerID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for c := range r.conns {
		if c.playerID == playerID {
			n++
		}
	}
	return n
}

// CloseAll sends a going-away close frame to every session and closes its
// transport, which unblocks the session's pending read. New sessions are refused afterwards.
func (r *Registry) CloseAll(writeWait time.Duration) int {
	r.mu.Lock()
	r.draining = true
	conns := make([]*connection, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	msg := websocket.FormatCloseMessage(CloseShutdown, ReasonShutdown)
	for _, c := range conns {
		c.cancel()
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = c.conn.Close()
	}
	return len(conns)
}
