package chat

import (
	"strings"
	"sync"
	"time"
)

// EventKind discriminates what a Sink is being handed.
type EventKind int

const (
	KindMessage EventKind = iota
	KindUserJoined
	KindUserLeft
)

// Message is user content as relayed: the timestamp is assigned by the
// relay at receipt, never taken from the client.
type Message struct {
	Username  string
	Body      string
	Timestamp time.Time
	System    bool
}

// Event is what a room pushes at its members.
type Event struct {
	Kind EventKind
	Msg  Message // set for KindMessage
	User string  // set for KindUserJoined
}

// Sink is the outbound side of a member's connection. Deliver must never
// block; a sink that cannot keep up disconnects itself and re-enters the
// room through Leave.
type Sink interface {
	Deliver(Event)
}

// Member ties a live connection to a username within one room.
type Member struct {
	ConnID   string
	Username string
	sink     Sink
}

// Room is a capacity-bounded chat session. All membership mutation and
// broadcast enumeration happens under the room's own lock, never a
// store-wide one.
type Room struct {
	Code     string
	Capacity int

	mu         sync.Mutex
	members    []*Member // insertion order, iterated for broadcasts
	everJoined bool
	closed     bool
	createdAt  time.Time
}

// Admit validates a join request and, on success, announces the newcomer
// to the members that were already present. First failing check wins.
func (r *Room) Admit(connID, username string, sink Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if strings.TrimSpace(username) == "" {
		return ErrInvalidUsername
	}
	for _, m := range r.members {
		if m.Username == username {
			return ErrUsernameTaken
		}
	}
	if len(r.members) >= r.Capacity {
		return ErrRoomFull
	}

	// Announce before appending so the joiner never sees its own notice.
	for _, m := range r.members {
		m.sink.Deliver(Event{Kind: KindUserJoined, User: username})
	}

	r.members = append(r.members, &Member{ConnID: connID, Username: username, sink: sink})
	r.everJoined = true
	return nil
}

// Leave removes the member owned by connID and notifies the remaining
// members. The leaver is already gone before the notice goes out, so no
// exclusion is needed. empty reports that the room should be evicted.
func (r *Room) Leave(connID string) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, m := range r.members {
		if m.ConnID == connID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, false
	}

	r.members = append(r.members[:idx], r.members[idx+1:]...)
	if len(r.members) == 0 {
		r.closed = true
		return true, true
	}

	for _, m := range r.members {
		m.sink.Deliver(Event{Kind: KindUserLeft})
	}
	return true, false
}

// Broadcast relays user content to every member, sender included (the
// client matches usernames to render its own messages). Empty text after
// trimming is dropped.
func (r *Room) Broadcast(username, body string) bool {
	if strings.TrimSpace(body) == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	msg := Message{Username: username, Body: body, Timestamp: time.Now().UTC()}
	for _, m := range r.members {
		m.sink.Deliver(Event{Kind: KindMessage, Msg: msg})
	}
	return true
}

// Len returns the current member count.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Usernames returns member names in join order.
func (r *Room) Usernames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.members))
	for _, m := range r.members {
		names = append(names, m.Username)
	}
	return names
}

// expire closes a room that never admitted anyone and has outlived ttl.
// Closing under the room lock fences racing joins, which see closed and
// report the room as gone.
func (r *Room) expire(now time.Time, ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.everJoined || r.closed {
		return false
	}
	if now.Sub(r.createdAt) < ttl {
		return false
	}
	r.closed = true
	return true
}
