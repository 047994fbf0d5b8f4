package factory

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/services/auth"
	"github.com/mcoot/arcade/internal/services/game"
	redisstorage "github.com/mcoot/arcade/internal/storage/redis"
)

// Indexes into model.Suits / model.Ranks
const (
	hearts = 2
	spades = 3
	ace    = 0
	seven  = 6
	king   = 12
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

// auditActions waits for n audit entries to land and returns their actions
func (s *IntegrationSuite) auditActions(n int) []string {
	s.Require().Eventually(func() bool {
		return len(s.app.MemoryStorage.ListAudit()) >= n
	}, 2*time.Second, 5*time.Millisecond)

	var actions []string
	for _, e := range s.app.MemoryStorage.ListAudit() {
		actions = append(actions, e.Action)
	}
	return actions
}

// Test: login, play a round, and read it back
func (s *IntegrationSuite) TestCompleteRound() {
	// Step 1: Register and issue a credential
	created, err := s.app.AuthService.RegisterUser(s.ctx, &model.User{ID: "alice", Email: "alice@example.com"})
	s.Require().NoError(err)
	s.True(created)

	s.app.MockRandom.QueueBytes(bytes.Repeat([]byte{0x07}, auth.TokenBytes))
	token, err := s.app.AuthService.Issue(s.ctx, "alice")
	s.Require().NoError(err)

	user, ok := s.app.AuthService.Resolve(s.ctx, token)
	s.Require().True(ok)

	// Step 2: Join and draw K, 7, A (ace counts 1 at 17)
	s.Require().NoError(s.app.GameController.Join(s.ctx, user.ID))
	s.app.MockRandom.QueueCard(spades, king)
	s.app.MockRandom.QueueCard(hearts, seven)
	s.app.MockRandom.QueueCard(hearts, ace)

	var last *game.HitResult
	for _, want := range []int{10, 17, 18} {
		last, err = s.app.GameController.Hit(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(want, last.Score)
	}
	s.Equal("HA", last.Card.String())
	s.Require().NoError(s.app.GameController.Stand(s.ctx, user.ID))

	// Step 3: Read the hand back
	view, err := s.app.GameController.Hand(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(18, view.Hand.Score)
	s.Require().Len(view.Draws, 3)
	s.Equal("SK", view.Draws[0].Card.String())

	// Step 4: Audit entries arrive asynchronously, in no guaranteed order
	actions := s.auditActions(5)
	s.ElementsMatch([]string{"join", "hit", "hit", "hit", "stand"}, actions)

	// Step 5: A new round starts from zero
	s.Require().NoError(s.app.GameController.Join(s.ctx, user.ID))
	score, err := s.app.Storage.GetScore(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(0, score)
}

func (s *IntegrationSuite) TestAuditEntriesCarryClockTime() {
	s.Require().NoError(s.app.GameController.Join(s.ctx, "bob"))
	s.auditActions(1)

	entry := s.app.MemoryStorage.ListAudit()[0]
	s.Equal(model.PlayerID("bob"), entry.PlayerID)
	s.Equal(s.app.MockClock.Now(), entry.Timestamp)
}

func TestNewDefaultsToMemory(t *testing.T) {
	app, err := New(context.Background(), Config{})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	assert.NotNil(t, app.WSHandler)
	assert.Nil(t, app.LoginProvider)
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mr.Addr()

	app, err := New(context.Background(), Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	ctx := context.Background()
	require.NoError(t, app.GameController.Join(ctx, "alice"))
	_, err = app.GameController.Hit(ctx, "alice")
	require.NoError(t, err)

	view, err := app.GameController.Hand(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, view.Draws, 1)
	assert.Positive(t, view.Hand.Score)
}

func TestNewRejectsBadConfig(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{StorageType: StorageTypeRedis})
	assert.ErrorContains(t, err, "RedisConfig")

	_, err = New(ctx, Config{StorageType: StorageTypePostgres})
	assert.ErrorContains(t, err, "DatabaseURL")

	_, err = New(ctx, Config{StorageType: "mongo"})
	assert.ErrorContains(t, err, "invalid StorageType")
}
