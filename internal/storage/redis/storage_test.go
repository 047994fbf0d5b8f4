package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/storage"
	"github.com/mcoot/arcade/internal/storage/storagetest"
)

func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:     mini.Addr(),
		PoolSize: 30,
	})
	return NewWithClient(client, DefaultConfig()), mini
}

func TestStorageContractSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		Factory: func(t *testing.T) storage.Storage {
			s, _ := newTestStorage(t)
			return s
		},
		Concurrency: 20,
	})
}

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage, s.mini = newTestStorage(s.T())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *StorageSuite) TestResetHandWritesHashFields() {
	s.Require().NoError(s.storage.ResetHand(s.ctx, "player-1"))

	s.Equal("0", s.mini.HGet("arcade:hand:player-1", "score"))
	s.Equal("waiting", s.mini.HGet("arcade:hand:player-1", "status"))
	s.Equal("1", s.mini.HGet("arcade:hand:player-1", "round"))

	s.Require().NoError(s.storage.ResetHand(s.ctx, "player-1"))
	s.Equal("2", s.mini.HGet("arcade:hand:player-1", "round"))
}

func (s *StorageSuite) TestAddScorePreservesStatus() {
	s.mini.HSet("arcade:hand:player-1", "score", "3", "status", "active")

	_, after, err := s.storage.AddScore(s.ctx, "player-1", func(int) int { return 5 })
	s.Require().NoError(err)
	s.Equal(8, after)
	s.Equal("active", s.mini.HGet("arcade:hand:player-1", "status"))
}

func (s *StorageSuite) TestReplacedTokenIndexIsRemoved() {
	s.Require().NoError(s.storage.PutCredential(s.ctx, &model.Credential{PlayerID: "player-1", TokenHash: "old", IssuedAt: time.Now().UTC()}))
	s.Require().NoError(s.storage.PutCredential(s.ctx, &model.Credential{PlayerID: "player-1", TokenHash: "new", IssuedAt: time.Now().UTC()}))

	s.False(s.mini.Exists("arcade:idx:token_hash:old"))
	s.True(s.mini.Exists("arcade:idx:token_hash:new"))
}

func (s *StorageSuite) TestStaleIndexEntryDoesNotResolve() {
	s.Require().NoError(s.storage.PutCredential(s.ctx, &model.Credential{PlayerID: "player-1", TokenHash: "current", IssuedAt: time.Now().UTC()}))
	s.Require().NoError(s.mini.Set("arcade:idx:token_hash:stale", "player-1"))

	_, err := s.storage.GetCredentialByHash(s.ctx, "stale")
	s.ErrorIs(err, model.ErrCredentialNotFound)
}

func (s *StorageSuite) TestAppendAuditWritesStream() {
	err := s.storage.AppendAudit(s.ctx, &model.AuditEntry{
		PlayerID:  "player-1",
		Action:    "hit",
		Payload:   map[string]any{"card": "SK"},
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	entries, err := s.storage.Client().XRange(s.ctx, "arcade:audit", "-", "+").Result()
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("hit", entries[0].Values["action"])
	s.Equal("player-1", entries[0].Values["player_id"])
	s.JSONEq(`{"card":"SK"}`, entries[0].Values["payload"].(string))
}

func (s *StorageSuite) TestListDrawsSkipsCorruptEntries() {
	s.Require().NoError(s.storage.ResetHand(s.ctx, "player-1"))
	_, err := s.mini.RPush("arcade:draws:player-1:1", "not json")
	s.Require().NoError(err)
	_, _, err = s.storage.AddScore(s.ctx, "player-1", func(int) int { return 10 }, &model.CardDraw{
		ID: "d1", PlayerID: "player-1", Card: model.Card{Suit: "D", Rank: "Q"}, DrawnAt: time.Now().UTC(),
	})
	s.Require().NoError(err)

	draws, err := s.storage.ListDraws(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Require().Len(draws, 1)
	s.Equal("DQ", draws[0].Card.String())
}

func (s *StorageSuite) TestDrawsAreKeptPerRound() {
	s.Require().NoError(s.storage.ResetHand(s.ctx, "player-1"))
	_, _, err := s.storage.AddScore(s.ctx, "player-1", func(int) int { return 10 }, &model.CardDraw{
		ID: "d1", PlayerID: "player-1", Card: model.Card{Suit: "S", Rank: "K"}, DrawnAt: time.Now().UTC(),
	})
	s.Require().NoError(err)
	s.Require().NoError(s.storage.ResetHand(s.ctx, "player-1"))

	// Earlier rounds stay as history under their own key
	old, err := s.mini.List("arcade:draws:player-1:1")
	s.Require().NoError(err)
	s.Len(old, 1)
	s.False(s.mini.Exists("arcade:draws:player-1:2"))
}

func (s *StorageSuite) TestAddScoreWithCorruptRoundWritesNothing() {
	s.mini.HSet("arcade:hand:player-1", "score", "3", "round", "x")

	_, _, err := s.storage.AddScore(s.ctx, "player-1", func(int) int { return 5 }, &model.CardDraw{
		ID: "d1", PlayerID: "player-1", Card: model.Card{Suit: "S", Rank: "5"}, DrawnAt: time.Now().UTC(),
	})
	s.Require().Error(err)
	s.Equal("3", s.mini.HGet("arcade:hand:player-1", "score"))
	s.False(s.mini.Exists("arcade:draws:player-1:0"))
}

func (s *StorageSuite) TestLostConnectionIsUnavailable() {
	s.mini.Close()

	_, err := s.storage.GetScore(s.ctx, "player-1")
	s.ErrorIs(err, storage.ErrUnavailable)

	_, _, err = s.storage.AddScore(s.ctx, "player-1", func(int) int { return 1 })
	s.ErrorIs(err, storage.ErrUnavailable)
}

func (s *StorageSuite) TestNewFailsWithUnreachableServer() {
	cfg := DefaultConfig()
	cfg.URL = "redis://127.0.0.1:1"
	_, err := New(cfg)
	s.Error(err)
}

func (s *StorageSuite) TestNewConnectsToServer() {
	cfg := DefaultConfig()
	cfg.URL = "redis://" + s.mini.Addr()
	store, err := New(cfg)
	s.Require().NoError(err)
	s.NoError(store.Close())
}
