package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := New()
	joined := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	_, ok := r.Get("c1")
	assert.False(t, ok)

	r.Put("c1", Session{Username: "alice", RoomID: "r1", JoinedAt: joined})
	s, ok := r.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, "r1", s.RoomID)
	assert.Equal(t, joined, s.JoinedAt)
	assert.Equal(t, 1, r.Len())

	// Re-binding a connection overwrites its session.
	r.Put("c1", Session{Username: "alice", RoomID: "r2", JoinedAt: joined})
	s, _ = r.Get("c1")
	assert.Equal(t, "r2", s.RoomID)
	assert.Equal(t, 1, r.Len())

	removed, ok := r.Remove("c1")
	require.True(t, ok)
	assert.Equal(t, "alice", removed.Username)
	assert.Equal(t, 0, r.Len())

	_, ok = r.Remove("c1")
	assert.False(t, ok, "second remove is a no-op")
}
