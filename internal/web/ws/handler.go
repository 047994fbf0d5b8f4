// Package ws serves the blackjack session protocol over WebSocket.
//
// A session authenticates once, from the handshake request, and then answers
// each inbound message with exactly one response, strictly in order.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/services/game"
	"github.com/mcoot/arcade/internal/storage"
	"github.com/mcoot/arcade/internal/web/session"
)

// Resolver maps a session credential to a user
type Resolver interface {
	Resolve(ctx context.Context, token string) (*model.User, bool)
}

// Game applies player actions
type Game interface {
	Join(ctx context.Context, playerID model.PlayerID) error
	Hit(ctx context.Context, playerID model.PlayerID) (*game.HitResult, error)
	Stand(ctx context.Context, playerID model.PlayerID) error
}

// Config holds configuration for the handler
type Config struct {
	// PingInterval is how often the server pings an idle peer
	PingInterval time.Duration
	// PongWait is how long the server waits for any frame before giving up on the peer
	PongWait time.Duration
	// WriteWait bounds every write
	WriteWait time.Duration
	// MaxMessageSize caps inbound frames
	MaxMessageSize int64
	// CheckOrigin overrides the same-origin check. Nil keeps the gorilla default.
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns default handler configuration
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
	}
}

// Handler upgrades requests and runs one session per connection
type Handler struct {
	resolver Resolver
	game     Game
	registry *Registry
	upgrader websocket.Upgrader
	cfg      Config
	logger   *slog.Logger
}

// NewHandler creates a new Handler
func NewHandler(resolver Resolver, game Game, cfg Config, logger *slog.Logger) *Handler {
	defaults := DefaultConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaults.PingInterval
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = defaults.PongWait
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaults.WriteWait
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaults.MaxMessageSize
	}

	return &Handler{
		resolver: resolver,
		game:     game,
		registry: NewRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
		cfg:    cfg,
		logger: logger.With(slog.String("component", "ws")),
	}
}

// Registry returns the handler's open-session registry
func (h *Handler) Registry() *Registry {
	return h.registry
}

// Shutdown closes every open session with a going-away frame
func (h *Handler) Shutdown() {
	if n := h.registry.CloseAll(h.cfg.WriteWait); n > 0 {
		h.logger.Info("closed sessions for shutdown", slog.Int("sessions", n))
	}
}

// ServeHTTP upgrades the request and runs the session until the peer leaves
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only the handshake carries the credential
	token := session.Token(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error
		h.logger.Debug("upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	if token == "" {
		h.closeWith(conn, CloseUnauthenticated, ReasonMissingCredential)
		return
	}
	user, ok := h.resolver.Resolve(r.Context(), token)
	if !ok {
		h.closeWith(conn, CloseUnauthenticated, ReasonInvalidCredential)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	c := &connection{conn: conn, playerID: user.ID, cancel: cancel}
	if !h.registry.add(c) {
		h.closeWith(conn, CloseShutdown, ReasonShutdown)
		return
	}
	defer h.registry.remove(c)

	h.serve(ctx, conn, user.ID)
}

// serve runs the message loop for an authenticated player
func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, playerID model.PlayerID) {
	logger := h.logger.With(slog.String("player_id", string(playerID)))
	start := time.Now()
	sessions := h.registry.CountFor(playerID)
	logger.Info("session opened", slog.Int("sessions", sessions))
	if sessions > 1 {
		logger.Info("player has several open sessions", slog.Int("sessions", sessions))
	}
	defer func() {
		logger.Info("session closed", slog.Duration("duration", time.Since(start)))
	}()

	conn.SetReadLimit(h.cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepalive(conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
				logger.Debug("session read ended", slog.String("error", err.Error()))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))

		resp, fatal := h.handle(ctx, logger, playerID, data)

		_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
		if err := conn.WriteJSON(resp); err != nil {
			logger.Debug("session write failed", slog.String("error", err.Error()))
			return
		}

		if fatal != nil {
			logger.Error("store unavailable, closing session", slog.String("error", fatal.Error()))
			h.closeWith(conn, CloseStoreUnavailable, ReasonStoreUnavailable)
			return
		}
	}
}

// handle turns one inbound message into one response. A non-nil fatal error
// means the session cannot continue after the response is sent.
func (h *Handler) handle(ctx context.Context, logger *slog.Logger, playerID model.PlayerID, data []byte) (resp Response, fatal error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic handling message",
				slog.Any("error", rec),
				slog.String("stack", string(debug.Stack())),
			)
			resp, fatal = failure(MessageInternal), nil
		}
	}()

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(MessageInvalid), nil
	}

	var err error
	switch req.Action {
	case game.ActionJoin:
		err = h.game.Join(ctx, playerID)
		if err == nil {
			return success(), nil
		}
	case game.ActionHit:
		var result *game.HitResult
		result, err = h.game.Hit(ctx, playerID)
		if err == nil {
			resp = success()
			resp.Card = result.Card.String()
			resp.Score = &result.Score
			return resp, nil
		}
	case game.ActionStand:
		err = h.game.Stand(ctx, playerID)
		if err == nil {
			return success(), nil
		}
	default:
		return failure(MessageUnknownAction), nil
	}

	if errors.Is(err, storage.ErrUnavailable) {
		return failure(err.Error()), err
	}
	return failure(err.Error()), nil
}

// keepalive pings the peer until done is closed or a ping cannot be written
func (h *Handler) keepalive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.cfg.WriteWait)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.cfg.WriteWait))
}
