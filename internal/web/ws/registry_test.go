package ws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryTracksConnections(t *testing.T) {
	r := NewRegistry()
	a := &connection{playerID: "alice", cancel: func() {}}
	b := &connection{playerID: "alice", cancel: func() {}}
	c := &connection{playerID: "bob", cancel: func() {}}

	assert.True(t, r.add(a))
	assert.True(t, r.add(b))
	assert.True(t, r.add(c))
	assert.Equal(t, 3, r.Count())
	assert.Equal(t, 2, r.CountFor("alice"))

	r.remove(a)
	r.remove(a)
	assert.Equal(t, 2, r.Count())
	assert.Equal(t, 1, r.CountFor("alice"))
}

func TestRegistryRefusesWhileDraining(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.CloseAll(0))

	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.False(t, r.add(&connection{playerID: "alice", cancel: cancel}))
	assert.Equal(t, 0, r.Count())
}
