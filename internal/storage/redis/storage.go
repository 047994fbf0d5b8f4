package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/storage"
)

// ErrTooManyRetries is returned when an optimistic transaction keeps conflicting
var ErrTooManyRetries = errors.New("redis transaction retries exhausted")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, wrapErr(err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Client exposes the underlying client for components sharing the connection
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// stringGetter and hashGetter are satisfied by both *redis.Client and *redis.Tx
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

type hashGetter interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
}

// wrapErr marks connection-level failures with storage.ErrUnavailable.
// Timeouts stay unwrapped since the connection may still be usable.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, redis.ErrClosed) || errors.Is(err, io.EOF) ||
		(errors.As(err, &netErr) && !netErr.Timeout()) {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return err
}

// User operations

type userRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Storage) CreateUserIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	data, err := json.Marshal(userRecord{ID: string(user.ID), Email: user.Email, CreatedAt: user.CreatedAt})
	if err != nil {
		return false, err
	}
	created, err := s.client.SetNX(ctx, userKey(user.ID), data, 0).Result()
	if err != nil {
		return false, wrapErr(err)
	}
	return created, nil
}

func (s *Storage) GetUser(ctx context.Context, id model.PlayerID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, wrapErr(err)
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &model.User{ID: model.PlayerID(rec.ID), Email: rec.Email, CreatedAt: rec.CreatedAt}, nil
}

// Credential operations

type credentialRecord struct {
	PlayerID  string    `json:"player_id"`
	TokenHash string    `json:"token_hash"`
	IssuedAt  time.Time `json:"issued_at"`
}

func (s *Storage) PutCredential(ctx context.Context, cred *model.Credential) error {
	data, err := json.Marshal(credentialRecord{
		PlayerID:  string(cred.PlayerID),
		TokenHash: cred.TokenHash,
		IssuedAt:  cred.IssuedAt,
	})
	if err != nil {
		return err
	}

	cKey := credentialKey(cred.PlayerID)
	return s.withRetries(ctx, func(tx *redis.Tx) error {
		old, err := s.loadCredential(ctx, tx, cKey)
		if err != nil && !errors.Is(err, model.ErrCredentialNotFound) {
			return err
		}

		// Replace the credential and its index atomically; the old token stops resolving
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if old != nil {
				pipe.Del(ctx, tokenHashIndexKey(old.TokenHash))
			}
			pipe.Set(ctx, cKey, data, 0)
			pipe.Set(ctx, tokenHashIndexKey(cred.TokenHash), string(cred.PlayerID), 0)
			return nil
		})
		return err
	}, cKey)
}

func (s *Storage) GetCredentialByHash(ctx context.Context, tokenHash string) (*model.Credential, error) {
	playerID, err := s.client.Get(ctx, tokenHashIndexKey(tokenHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCredentialNotFound
		}
		return nil, wrapErr(err)
	}

	cred, err := s.loadCredential(ctx, s.client, credentialKey(model.PlayerID(playerID)))
	if err != nil {
		return nil, err
	}
	// A stale index entry left behind by a concurrent replace must not resolve
	if cred.TokenHash != tokenHash {
		return nil, model.ErrCredentialNotFound
	}
	return cred, nil
}

func (s *Storage) DeleteCredential(ctx context.Context, playerID model.PlayerID) error {
	cKey := credentialKey(playerID)
	return s.withRetries(ctx, func(tx *redis.Tx) error {
		old, err := s.loadCredential(ctx, tx, cKey)
		if errors.Is(err, model.ErrCredentialNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, cKey, tokenHashIndexKey(old.TokenHash))
			return nil
		})
		return err
	}, cKey)
}

func (s *Storage) loadCredential(ctx context.Context, c stringGetter, key string) (*model.Credential, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCredentialNotFound
		}
		return nil, wrapErr(err)
	}
	var rec credentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &model.Credential{
		PlayerID:  model.PlayerID(rec.PlayerID),
		TokenHash: rec.TokenHash,
		IssuedAt:  rec.IssuedAt,
	}, nil
}

// Hand operations

func (s *Storage) ResetHand(ctx context.Context, playerID model.PlayerID) error {
	key := handKey(playerID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, handFieldRound, 1)
		pipe.HSet(ctx, key,
			handFieldScore, 0,
			handFieldStatus, string(model.HandStatusWaiting),
		)
		return nil
	})
	return wrapErr(err)
}

func (s *Storage) GetScore(ctx context.Context, playerID model.PlayerID) (int, error) {
	return s.readScore(ctx, s.client, handKey(playerID))
}

func (s *Storage) GetHand(ctx context.Context, playerID model.PlayerID) (*model.Hand, error) {
	fields, err := s.client.HGetAll(ctx, handKey(playerID)).Result()
	if err != nil {
		return nil, wrapErr(err)
	}
	if len(fields) == 0 {
		return nil, model.ErrHandNotFound
	}

	hand := model.NewHand(playerID)
	if raw, ok := fields[handFieldScore]; ok {
		score, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing hand score: %w", err)
		}
		hand.Score = score
	}
	if raw, ok := fields[handFieldRound]; ok {
		round, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing hand round: %w", err)
		}
		hand.Round = round
	}
	if status, ok := fields[handFieldStatus]; ok {
		hand.Status = model.HandStatus(status)
	}
	return hand, nil
}

// AddScore runs a WATCH/MULTI transaction on the hand key, so the delta is
// always computed against the score that ends up being replaced. Draws are
// pushed in the same MULTI, onto the list of the round read under WATCH.
func (s *Storage) AddScore(ctx context.Context, playerID model.PlayerID, delta storage.DeltaFunc, draws ...*model.CardDraw) (int, int, error) {
	key := handKey(playerID)
	var before, after int

	err := s.withRetries(ctx, func(tx *redis.Tx) error {
		score, round, err := s.readCounters(ctx, tx, key)
		if err != nil {
			return err
		}
		before = score
		after = score + delta(score)

		records := make([]any, 0, len(draws))
		for _, draw := range draws {
			data, err := json.Marshal(newDrawRecord(draw, round))
			if err != nil {
				return err
			}
			records = append(records, data)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, handFieldScore, after)
			pipe.HSetNX(ctx, key, handFieldStatus, string(model.HandStatusWaiting))
			if len(records) > 0 {
				pipe.RPush(ctx, drawsKey(playerID, round), records...)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, draw := range draws {
			draw.Round = round
		}
		return nil
	}, key)
	if err != nil {
		return 0, 0, err
	}
	return before, after, nil
}

// readCounters reads the score and round of a hand, both 0 when absent
func (s *Storage) readCounters(ctx context.Context, c hashGetter, key string) (score, round int, err error) {
	values, err := c.HMGet(ctx, key, handFieldScore, handFieldRound).Result()
	if err != nil {
		return 0, 0, wrapErr(err)
	}
	counters := make([]int, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // Missing field
		}
		if counters[i], err = strconv.Atoi(raw); err != nil {
			return 0, 0, fmt.Errorf("parsing hand field: %w", err)
		}
	}
	return counters[0], counters[1], nil
}

func (s *Storage) readScore(ctx context.Context, c hashGetter, key string) (int, error) {
	score, err := c.HGet(ctx, key, handFieldScore).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, wrapErr(err)
	}
	return score, nil
}

// withRetries runs fn inside WATCH on keys, retrying when another client
// modified a watched key before EXEC
func (s *Storage) withRetries(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < s.cfg.MaxTxRetries; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return wrapErr(err)
	}
	return ErrTooManyRetries
}

// Draw operations

type drawRecord struct {
	ID       string    `json:"id"`
	PlayerID string    `json:"player_id"`
	Card     string    `json:"card"`
	DrawnAt  time.Time `json:"drawn_at"`
	Round    int       `json:"round"`
}

func newDrawRecord(draw *model.CardDraw, round int) drawRecord {
	return drawRecord{
		ID:       string(draw.ID),
		PlayerID: string(draw.PlayerID),
		Card:     draw.Card.String(),
		DrawnAt:  draw.DrawnAt,
		Round:    round,
	}
}

func (s *Storage) ListDraws(ctx context.Context, playerID model.PlayerID) ([]*model.CardDraw, error) {
	_, round, err := s.readCounters(ctx, s.client, handKey(playerID))
	if err != nil {
		return nil, err
	}

	values, err := s.client.LRange(ctx, drawsKey(playerID, round), 0, -1).Result()
	if err != nil {
		return nil, wrapErr(err)
	}

	draws := make([]*model.CardDraw, 0, len(values))
	for _, val := range values {
		var rec drawRecord
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			continue // Skip invalid data
		}
		card, err := model.ParseCard(rec.Card)
		if err != nil {
			continue
		}
		draws = append(draws, &model.CardDraw{
			ID:       model.DrawID(rec.ID),
			PlayerID: model.PlayerID(rec.PlayerID),
			Card:     card,
			DrawnAt:  rec.DrawnAt,
			Round:    rec.Round,
		})
	}
	return draws, nil
}

// Audit operations

func (s *Storage) AppendAudit(ctx context.Context, entry *model.AuditEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return err
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: auditStreamKey(),
		MaxLen: s.cfg.AuditStreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"player_id": string(entry.PlayerID),
			"action":    entry.Action,
			"payload":   string(payload),
			"ts":        entry.Timestamp.Format(time.RFC3339Nano),
		},
	}).Err()
	return wrapErr(err)
}
