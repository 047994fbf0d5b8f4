package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/arcade/internal/model"
	"github.com/mcoot/arcade/internal/storage"
	"github.com/mcoot/arcade/internal/storage/storagetest"
)

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		Factory:     func(t *testing.T) storage.Storage { return New() },
		Concurrency: 100,
	})
}

func TestListAuditReturnsEntriesInOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendAudit(ctx, &model.AuditEntry{PlayerID: "p1", Action: "join", Timestamp: now}))
	require.NoError(t, s.AppendAudit(ctx, &model.AuditEntry{PlayerID: "p1", Action: "hit", Payload: map[string]any{"card": "D7"}, Timestamp: now}))

	entries := s.ListAudit()
	require.Len(t, entries, 2)
	assert.Equal(t, "join", entries[0].Action)
	assert.Equal(t, "hit", entries[1].Action)
	assert.Equal(t, "D7", entries[1].Payload["card"])
}

func TestGetUserReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.CreateUserIfAbsent(ctx, &model.User{ID: "p1", Email: "a@example.com"})
	require.NoError(t, err)

	u, err := s.GetUser(ctx, "p1")
	require.NoError(t, err)
	u.Email = "changed@example.com"

	again, err := s.GetUser(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", again.Email)
}
