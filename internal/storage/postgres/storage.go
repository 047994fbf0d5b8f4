// Package postgres is the relational storage backend, built on a pgx connection pool.
// All queries use parameterized statements.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/storage"
)

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// New creates a verified connection pool. The returned store is safe for concurrent use.
func New(ctx context.Context, databaseURL string, logger *slog.Logger) (*Storage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, wrapErr(err)
	}

	return &Storage{pool: pool, logger: logger}, nil
}

// Close shuts down the connection pool
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// wrapErr marks connection-level failures with storage.ErrUnavailable
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		(errors.As(err, &netErr) && !netErr.Timeout()) {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return err
}

// User operations

func (s *Storage) CreateUserIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		"INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING",
		string(user.ID), user.Email, user.CreatedAt)
	if err != nil {
		return false, wrapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Storage) GetUser(ctx context.Context, id model.PlayerID) (*model.User, error) {
	var u model.User
	var rawID string
	err := s.pool.QueryRow(ctx,
		"SELECT id, email, created_at FROM users WHERE id = $1", string(id),
	).Scan(&rawID, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, wrapErr(err)
	}
	u.ID = model.PlayerID(rawID)
	return &u, nil
}

// Credential operations

func (s *Storage) PutCredential(ctx context.Context, cred *model.Credential) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO credentials (player_id, token_hash, issued_at) VALUES ($1, $2, $3)
		ON CONFLICT (player_id) DO UPDATE SET token_hash = EXCLUDED.token_hash, issued_at = EXCLUDED.issued_at`,
		string(cred.PlayerID), cred.TokenHash, cred.IssuedAt)
	return wrapErr(err)
}

func (s *Storage) GetCredentialByHash(ctx context.Context, tokenHash string) (*model.Credential, error) {
	var c model.Credential
	var playerID string
	err := s.pool.QueryRow(ctx,
		"SELECT player_id, token_hash, issued_at FROM credentials WHERE token_hash = $1", tokenHash,
	).Scan(&playerID, &c.TokenHash, &c.IssuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCredentialNotFound
		}
		return nil, wrapErr(err)
	}
	c.PlayerID = model.PlayerID(playerID)
	return &c, nil
}

func (s *Storage) DeleteCredential(ctx context.Context, playerID model.PlayerID) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM credentials WHERE player_id = $1", string(playerID))
	return wrapErr(err)
}

// Hand operations

func (s *Storage) ResetHand(ctx context.Context, playerID model.PlayerID) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hands (player_id, score, status, round) VALUES ($1, 0, $2, 1)
		ON CONFLICT (player_id) DO UPDATE SET score = 0, status = EXCLUDED.status, round = hands.round + 1`,
		string(playerID), string(model.HandStatusWaiting))
	return wrapErr(err)
}

func (s *Storage) GetScore(ctx context.Context, playerID model.PlayerID) (int, error) {
	var score int
	err := s.pool.QueryRow(ctx, "SELECT score FROM hands WHERE player_id = $1", string(playerID)).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, wrapErr(err)
	}
	return score, nil
}

func (s *Storage) GetHand(ctx context.Context, playerID model.PlayerID) (*model.Hand, error) {
	hand := model.NewHand(playerID)
	var status string
	err := s.pool.QueryRow(ctx,
		"SELECT score, status, round FROM hands WHERE player_id = $1", string(playerID),
	).Scan(&hand.Score, &status, &hand.Round)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrHandNotFound
		}
		return nil, wrapErr(err)
	}
	hand.Status = model.HandStatus(status)
	return hand, nil
}

// AddScore locks the hand row for the duration of the read-modify-write.
// Draws are inserted in the same transaction.
func (s *Storage) AddScore(ctx context.Context, playerID model.PlayerID, delta storage.DeltaFunc, draws ...*model.CardDraw) (int, int, error) {
	var before, after, round int
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			"INSERT INTO hands (player_id, score, status) VALUES ($1, 0, $2) ON CONFLICT (player_id) DO NOTHING",
			string(playerID), string(model.HandStatusWaiting)); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx,
			"SELECT score, round FROM hands WHERE player_id = $1 FOR UPDATE", string(playerID),
		).Scan(&before, &round); err != nil {
			return err
		}
		after = before + delta(before)
		if _, err := tx.Exec(ctx, "UPDATE hands SET score = $2 WHERE player_id = $1", string(playerID), after); err != nil {
			return err
		}
		for _, draw := range draws {
			if _, err := tx.Exec(ctx,
				"INSERT INTO cards (id, player_id, card, drawn_at, round) VALUES ($1, $2, $3, $4, $5)",
				string(draw.ID), string(playerID), draw.Card.String(), draw.DrawnAt, round); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, wrapErr(err)
	}
	for _, draw := range draws {
		draw.Round = round
	}
	return before, after, nil
}

// Draw operations

func (s *Storage) ListDraws(ctx context.Context, playerID model.PlayerID) ([]*model.CardDraw, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, player_id, card, drawn_at, round FROM cards
		WHERE player_id = $1
		  AND round = COALESCE((SELECT round FROM hands WHERE player_id = $1), 0)
		ORDER BY seq`, string(playerID))
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	draws := make([]*model.CardDraw, 0)
	for rows.Next() {
		var id, pid, rawCard string
		var drawnAt time.Time
		var round int
		if err := rows.Scan(&id, &pid, &rawCard, &drawnAt, &round); err != nil {
			return nil, err
		}
		card, err := model.ParseCard(rawCard)
		if err != nil {
			s.logger.Warn("skipping unparseable draw", slog.String("draw_id", id), slog.String("error", err.Error()))
			continue
		}
		draws = append(draws, &model.CardDraw{
			ID:       model.DrawID(id),
			PlayerID: model.PlayerID(pid),
			Card:     card,
			DrawnAt:  drawnAt,
			Round:    round,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return draws, nil
}

// Audit operations

func (s *Storage) AppendAudit(ctx context.Context, entry *model.AuditEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		"INSERT INTO move_log (player_id, action, payload, ts) VALUES ($1, $2, $3, $4)",
		string(entry.PlayerID), entry.Action, payload, entry.Timestamp)
	return wrapErr(err)
}
