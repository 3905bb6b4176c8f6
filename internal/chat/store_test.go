package chat

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/app"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := app.Config{DefaultCapacity: 2, MaxCapacity: 16, RoomTTL: time.Minute}
	return NewStore(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStoreCreateRoom(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name    string
		request int
		want    int
	}{
		{"explicit capacity", 4, 4},
		{"zero falls back to default", 0, 2},
		{"negative falls back to default", -3, 2},
		{"oversized is capped", 500, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm, err := s.CreateRoom(tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rm.Capacity)
			assert.Len(t, rm.Code, CodeLength)

			got, ok := s.Get(rm.Code)
			require.True(t, ok)
			assert.Same(t, rm, got)
		})
	}
	assert.Equal(t, len(tests), s.Len())
}

func TestStoreJoinUnknownRoom(t *testing.T) {
	s := newTestStore(t)
	rm, err := s.CreateRoom(2)
	require.NoError(t, err)

	err = s.Join("ZZZZZ", "c1", "alice", &recordSink{})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// Nothing anywhere was mutated by the failed join.
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, rm.Len())
}

func TestStoreLeaveEvictsEmptyRoom(t *testing.T) {
	s := newTestStore(t)
	rm, err := s.CreateRoom(2)
	require.NoError(t, err)

	require.NoError(t, s.Join(rm.Code, "c1", "alice", &recordSink{}))
	require.NoError(t, s.Join(rm.Code, "c2", "bob", &recordSink{}))

	require.True(t, s.Leave(rm.Code, "c2"))
	_, ok := s.Get(rm.Code)
	assert.True(t, ok, "room with a remaining member must survive")

	require.True(t, s.Leave(rm.Code, "c1"))
	_, ok = s.Get(rm.Code)
	assert.False(t, ok, "empty room must be evicted")
	assert.Equal(t, 0, s.Len())

	// Leave is a no-op once the room is gone.
	assert.False(t, s.Leave(rm.Code, "c1"))
}

func TestStoreRemoveIdempotent(t *testing.T) {
	s := newTestStore(t)
	rm, err := s.CreateRoom(2)
	require.NoError(t, err)

	s.Remove(rm.Code)
	s.Remove(rm.Code)
	assert.Equal(t, 0, s.Len())
}

func TestStoreBroadcast(t *testing.T) {
	s := newTestStore(t)
	rm, err := s.CreateRoom(2)
	require.NoError(t, err)

	alice := &recordSink{}
	require.NoError(t, s.Join(rm.Code, "c1", "alice", alice))

	assert.False(t, s.Broadcast("ZZZZZ", "alice", "hi"), "missing room is a silent no-op")
	assert.False(t, s.Broadcast(rm.Code, "alice", "  "), "empty text is a silent no-op")
	assert.True(t, s.Broadcast(rm.Code, "alice", "hi"))

	events := alice.all()
	require.Len(t, events, 1)
	assert.Equal(t, "hi", events[0].Msg.Body)
}

func TestStoreSweepNeverJoinedRooms(t *testing.T) {
	cfg := app.Config{DefaultCapacity: 2, MaxCapacity: 16, RoomTTL: 10 * time.Millisecond}
	s := NewStore(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	stale, err := s.CreateRoom(2)
	require.NoError(t, err)

	occupied, err := s.CreateRoom(2)
	require.NoError(t, err)
	require.NoError(t, s.Join(occupied.Code, "c1", "alice", &recordSink{}))

	s.sweep(time.Now().Add(time.Second))

	_, ok := s.Get(stale.Code)
	assert.False(t, ok, "never-joined room past TTL must be swept")
	_, ok = s.Get(occupied.Code)
	assert.True(t, ok, "room that admitted a member must not be swept")

	// A join racing the sweep sees the closed room as gone.
	assert.ErrorIs(t, stale.Admit("c2", "bob", &recordSink{}), ErrRoomNotFound)
}

func TestStoreSweepKeepsFreshRooms(t *testing.T) {
	s := newTestStore(t)
	rm, err := s.CreateRoom(2)
	require.NoError(t, err)

	s.sweep(time.Now())
	_, ok := s.Get(rm.Code)
	assert.True(t, ok)
}

func TestStoreConcurrentJoinsAcrossConnections(t *testing.T) {
	s := newTestStore(t)
	rm, err := s.CreateRoom(3)
	require.NoError(t, err)

	const attempts = 30
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Join(rm.Code, fmt.Sprintf("c%d", i), fmt.Sprintf("user%d", i), &recordSink{})
		}(i)
	}
	wg.Wait()

	var admitted int
	for _, err := range results {
		if err == nil {
			admitted++
		}
	}
	assert.Equal(t, 3, admitted)
	assert.Equal(t, 3, rm.Len())
}
