package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chat-relay/internal/app"
	"chat-relay/pkg/metrics"
)

// maxCodeAttempts bounds collision retries before creation is reported as
// exhausted. With a ~33M code space this is effectively unreachable.
const maxCodeAttempts = 64

// Store maps live room codes to rooms. It holds its lock only for map
// access; per-room work runs under each room's own lock.
type Store struct {
	log *slog.Logger

	defaultCap int
	maxCap     int
	roomTTL    time.Duration

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewStore builds the room store from config.
func NewStore(cfg app.Config, logger *slog.Logger) *Store {
	return &Store{
		log:        logger,
		defaultCap: cfg.DefaultCapacity,
		maxCap:     cfg.MaxCapacity,
		roomTTL:    cfg.RoomTTL,
		rooms:      map[string]*Room{},
	}
}

// CreateRoom allocates an empty room under a fresh code. A non-positive
// capacity falls back to the configured default; oversized requests are
// capped.
func (s *Store) CreateRoom(capacity int) (*Room, error) {
	if capacity <= 0 {
		capacity = s.defaultCap
	}
	if capacity > s.maxCap {
		capacity = s.maxCap
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < maxCodeAttempts; i++ {
		code := NewCode()
		if _, taken := s.rooms[code]; taken {
			continue
		}
		rm := &Room{Code: code, Capacity: capacity, createdAt: time.Now()}
		s.rooms[code] = rm
		metrics.RoomsActive.Inc()
		return rm, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// Get is a pure lookup.
func (s *Store) Get(code string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rm, ok := s.rooms[code]
	return rm, ok
}

// Remove deletes a room. Idempotent; no-op if absent.
func (s *Store) Remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; ok {
		delete(s.rooms, code)
		metrics.RoomsActive.Dec()
	}
}

// Join admits a connection into the room under code. A failed join leaves
// the member set exactly as it was.
func (s *Store) Join(code, connID, username string, sink Sink) error {
	s.mu.RLock()
	rm := s.rooms[code]
	s.mu.RUnlock()

	if rm == nil {
		return ErrRoomNotFound
	}
	// A racing eviction marks the room closed; Admit then reports it gone.
	return rm.Admit(connID, username, sink)
}

// Leave removes connID's membership, notifies the remaining members, and
// evicts the room once it is empty.
func (s *Store) Leave(code, connID string) bool {
	s.mu.RLock()
	rm := s.rooms[code]
	s.mu.RUnlock()

	if rm == nil {
		return false
	}
	removed, empty := rm.Leave(connID)
	if empty {
		s.Remove(code)
		s.log.Debug("room.evicted", "room", code)
	}
	return removed
}

// Broadcast relays user content to every member of the room. A missing
// room or empty text is a silent no-op toward the sender.
func (s *Store) Broadcast(code, username, body string) bool {
	s.mu.RLock()
	rm := s.rooms[code]
	s.mu.RUnlock()

	if rm == nil {
		return false
	}
	if !rm.Broadcast(username, body) {
		return false
	}
	metrics.MessagesRelayed.Inc()
	return true
}

// Len returns the number of live rooms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Run sweeps rooms that were created but never joined. Rooms that had
// members are evicted the moment the last one leaves; this janitor only
// covers codes nobody ever redeemed.
func (s *Store) Run(ctx context.Context) {
	interval := s.roomTTL
	if interval > time.Minute {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Store) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, rm := range s.rooms {
		if rm.expire(now, s.roomTTL) {
			delete(s.rooms, code)
			metrics.RoomsActive.Dec()
			s.log.Debug("room.swept", "room", code)
		}
	}
}
