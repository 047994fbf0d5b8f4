// Package storagetest holds the behavioural test suite every storage backend must pass.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/storage"
)

// Suite runs the storage contract against a backend produced by Factory
type Suite struct {
	suite.Suite

	// Factory returns an empty store for each test
	Factory func(t *testing.T) storage.Storage

	// Concurrency is the number of parallel writers in race tests
	Concurrency int

	storage storage.Storage
	ctx     context.Context
}

func (s *Suite) SetupTest() {
	s.storage = s.Factory(s.T())
	s.ctx = context.Background()
	if s.Concurrency == 0 {
		s.Concurrency = 20
	}
}

func (s *Suite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *Suite) newUser(id string) *model.User {
	return &model.User{
		ID:        model.PlayerID(id),
		Email:     id + "@example.com",
		CreatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// User tests

func (s *Suite) TestCreateAndGetUser() {
	created, err := s.storage.CreateUserIfAbsent(s.ctx, s.newUser("user-1"))
	s.Require().NoError(err)
	s.True(created)

	user, err := s.storage.GetUser(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("user-1"), user.ID)
	s.Equal("user-1@example.com", user.Email)
}

func (s *Suite) TestCreateUserIfAbsentDoesNotOverwrite() {
	_, err := s.storage.CreateUserIfAbsent(s.ctx, s.newUser("user-1"))
	s.Require().NoError(err)

	changed := s.newUser("user-1")
	changed.Email = "other@example.com"
	created, err := s.storage.CreateUserIfAbsent(s.ctx, changed)
	s.Require().NoError(err)
	s.False(created)

	user, err := s.storage.GetUser(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("user-1@example.com", user.Email)
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.storage.GetUser(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrUserNotFound)
}

// Credential tests

func (s *Suite) TestPutAndGetCredential() {
	_, _ = s.storage.CreateUserIfAbsent(s.ctx, s.newUser("user-1"))
	err := s.storage.PutCredential(s.ctx, &model.Credential{PlayerID: "user-1", TokenHash: "hash-a", IssuedAt: time.Now().UTC()})
	s.Require().NoError(err)

	cred, err := s.storage.GetCredentialByHash(s.ctx, "hash-a")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("user-1"), cred.PlayerID)
}

func (s *Suite) TestPutCredentialReplacesPrevious() {
	_, _ = s.storage.CreateUserIfAbsent(s.ctx, s.newUser("user-1"))
	s.Require().NoError(s.storage.PutCredential(s.ctx, &model.Credential{PlayerID: "user-1", TokenHash: "hash-a", IssuedAt: time.Now().UTC()}))
	s.Require().NoError(s.storage.PutCredential(s.ctx, &model.Credential{PlayerID: "user-1", TokenHash: "hash-b", IssuedAt: time.Now().UTC()}))

	_, err := s.storage.GetCredentialByHash(s.ctx, "hash-a")
	s.ErrorIs(err, model.ErrCredentialNotFound)

	cred, err := s.storage.GetCredentialByHash(s.ctx, "hash-b")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("user-1"), cred.PlayerID)
}

func (s *Suite) TestDeleteCredential() {
	_, _ = s.storage.CreateUserIfAbsent(s.ctx, s.newUser("user-1"))
	s.Require().NoError(s.storage.PutCredential(s.ctx, &model.Credential{PlayerID: "user-1", TokenHash: "hash-a", IssuedAt: time.Now().UTC()}))

	s.Require().NoError(s.storage.DeleteCredential(s.ctx, "user-1"))

	_, err := s.storage.GetCredentialByHash(s.ctx, "hash-a")
	s.ErrorIs(err, model.ErrCredentialNotFound)
}

func (s *Suite) TestDeleteMissingCredentialSucceeds() {
	s.NoError(s.storage.DeleteCredential(s.ctx, "nobody"))
}

func (s *Suite) TestGetCredentialNotFound() {
	_, err := s.storage.GetCredentialByHash(s.ctx, "unknown")
	s.ErrorIs(err, model.ErrCredentialNotFound)
}

// Hand tests

func (s *Suite) TestGetScoreWithoutHandIsZero() {
	score, err := s.storage.GetScore(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(0, score)
}

func (s *Suite) TestGetHandNotFound() {
	_, err := s.storage.GetHand(s.ctx, "user-1")
	s.ErrorIs(err, model.ErrHandNotFound)
}

func (s *Suite) TestResetHandClearsScore() {
	_, _, err := s.storage.AddScore(s.ctx, "user-1", constDelta(15))
	s.Require().NoError(err)

	s.Require().NoError(s.storage.ResetHand(s.ctx, "user-1"))

	score, err := s.storage.GetScore(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(0, score)

	hand, err := s.storage.GetHand(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(model.HandStatusWaiting, hand.Status)
	s.Equal(0, hand.Score)
}

func (s *Suite) TestResetHandIsIdempotent() {
	s.Require().NoError(s.storage.ResetHand(s.ctx, "user-1"))
	s.Require().NoError(s.storage.ResetHand(s.ctx, "user-1"))

	score, err := s.storage.GetScore(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(0, score)
}

func (s *Suite) TestAddScoreReturnsBeforeAndAfter() {
	s.Require().NoError(s.storage.ResetHand(s.ctx, "user-1"))

	before, after, err := s.storage.AddScore(s.ctx, "user-1", constDelta(7))
	s.Require().NoError(err)
	s.Equal(0, before)
	s.Equal(7, after)

	before, after, err = s.storage.AddScore(s.ctx, "user-1", constDelta(10))
	s.Require().NoError(err)
	s.Equal(7, before)
	s.Equal(17, after)

	score, err := s.storage.GetScore(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(17, score)
}

func (s *Suite) TestAddScoreSeesScoreBefore() {
	s.Require().NoError(s.storage.ResetHand(s.ctx, "user-1"))
	_, _, err := s.storage.AddScore(s.ctx, "user-1", constDelta(12))
	s.Require().NoError(err)

	var seen int
	_, after, err := s.storage.AddScore(s.ctx, "user-1", func(before int) int {
		seen = before
		if before+11 <= 21 {
			return 11
		}
		return 1
	})
	s.Require().NoError(err)
	s.Equal(12, seen)
	s.Equal(13, after)
}

func (s *Suite) TestAddScoreWithoutHandCreatesWaitingHand() {
	_, after, err := s.storage.AddScore(s.ctx, "user-1", constDelta(4))
	s.Require().NoError(err)
	s.Equal(4, after)

	hand, err := s.storage.GetHand(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(4, hand.Score)
	s.Equal(model.HandStatusWaiting, hand.Status)
}

func (s *Suite) TestConcurrentAddScoreLosesNoUpdates() {
	s.Require().NoError(s.storage.ResetHand(s.ctx, "user-1"))

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0
	errs := make([]error, 0)

	for i := 0; i < s.Concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			before, after, err := s.storage.AddScore(s.ctx, "user-1", func(before int) int {
				// Ace-like: depends on the score read inside the update
				if i%3 == 0 && before+11 <= 21 {
					return 11
				}
				return i%10 + 1
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			total += after - before
		}(i)
	}
	wg.Wait()

	s.Require().Empty(errs)
	score, err := s.storage.GetScore(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(total, score)
}

func (s *Suite) TestConcurrentAddScoreIsolatedPerPlayer() {
	var wg sync.WaitGroup
	for p := 0; p < 3; p++ {
		playerID := model.PlayerID(fmt.Sprintf("user-%d", p))
		s.Require().NoError(s.storage.ResetHand(s.ctx, playerID))
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, _ = s.storage.AddScore(s.ctx, playerID, constDelta(2))
			}()
		}
	}
	wg.Wait()

	for p := 0; p < 3; p++ {
		score, err := s.storage.GetScore(s.ctx, model.PlayerID(fmt.Sprintf("user-%d", p)))
		s.Require().NoError(err)
		s.Equal(10, score)
	}
}

// Draw tests

func (s *Suite) TestAddScoreStoresDraws() {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.ResetHand(s.ctx, "user-1"))
	cards := []model.Card{{Suit: "H", Rank: "A"}, {Suit: "S", Rank: "10"}}
	for i, c := range cards {
		_, _, err := s.storage.AddScore(s.ctx, "user-1", constDelta(1), newDraw(fmt.Sprintf("draw-%d", i), "user-1", c, base.Add(time.Duration(i)*time.Second)))
		s.Require().NoError(err)
	}
	_, _, err := s.storage.AddScore(s.ctx, "user-2", constDelta(2), newDraw("draw-other", "user-2", model.Card{Suit: "C", Rank: "2"}, base))
	s.Require().NoError(err)

	draws, err := s.storage.ListDraws(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(draws, 2)
	s.Equal(model.DrawID("draw-0"), draws[0].ID)
	s.Equal("HA", draws[0].Card.String())
	s.Equal("S10", draws[1].Card.String())
	s.True(draws[1].DrawnAt.Equal(base.Add(time.Second)))
	s.Equal(1, draws[0].Round)
}

func (s *Suite) TestAddScoreStampsDrawRound() {
	s.Require().NoError(s.storage.ResetHand(s.ctx, "user-1"))
	s.Require().NoError(s.storage.ResetHand(s.ctx, "user-1"))

	draw := newDraw("draw-1", "user-1", model.Card{Suit: "D", Rank: "7"}, time.Now().UTC())
	_, _, err := s.storage.AddScore(s.ctx, "user-1", constDelta(7), draw)
	s.Require().NoError(err)
	s.Equal(2, draw.Round)

	hand, err := s.storage.GetHand(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(2, hand.Round)
}

func (s *Suite) TestListDrawsOnlyCurrentRound() {
	now := time.Now().UTC()
	s.Require().NoError(s.storage.ResetHand(s.ctx, "user-1"))
	_, _, err := s.storage.AddScore(s.ctx, "user-1", constDelta(10), newDraw("draw-1", "user-1", model.Card{Suit: "S", Rank: "K"}, now))
	s.Require().NoError(err)

	s.Require().NoError(s.storage.ResetHand(s.ctx, "user-1"))
	draws, err := s.storage.ListDraws(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Empty(draws)

	_, _, err = s.storage.AddScore(s.ctx, "user-1", constDelta(5), newDraw("draw-2", "user-1", model.Card{Suit: "H", Rank: "5"}, now))
	s.Require().NoError(err)

	draws, err = s.storage.ListDraws(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(draws, 1)
	s.Equal("H5", draws[0].Card.String())
	s.Equal(2, draws[0].Round)

	score, err := s.storage.GetScore(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(5, score)
}

func (s *Suite) TestListDrawsEmpty() {
	draws, err := s.storage.ListDraws(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Empty(draws)
}

// Audit tests

func (s *Suite) TestAppendAudit() {
	err := s.storage.AppendAudit(s.ctx, &model.AuditEntry{
		PlayerID:  "user-1",
		Action:    "hit",
		Payload:   map[string]any{"card": "HA"},
		Timestamp: time.Now().UTC(),
	})
	s.NoError(err)
}

func newDraw(id string, playerID model.PlayerID, card model.Card, at time.Time) *model.CardDraw {
	return &model.CardDraw{ID: model.DrawID(id), PlayerID: playerID, Card: card, DrawnAt: at}
}

func constDelta(n int) storage.DeltaFunc {
	return func(int) int { return n }
}
