package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"log/slog"

	"chat-relay/internal/app"
	"chat-relay/internal/chat"
	"chat-relay/pkg/metrics"
)

// membership records which room a connection has joined, and as whom.
type membership struct {
	room     string
	username string
}

// Hub is the connection registry: it owns the websocket endpoint, tracks
// each live connection's room membership, and routes protocol events into
// the room store.
type Hub struct {
	log    *slog.Logger
	store  *chat.Store
	buffer int

	mu      sync.Mutex
	members map[string]membership // connID -> joined room
}

// NewHub sets up the hub with the room store + logger.
func NewHub(logger *slog.Logger, store *chat.Store, cfg app.Config) *Hub {
	return &Hub{
		log:     logger,
		store:   store,
		buffer:  cfg.SendBuffer,
		members: map[string]membership{},
	}
}

// ServeWS handles a new /ws connection for its whole lifetime. Transport
// disconnect, however abrupt, is an implicit leave.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wsc, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	c := NewConn(wsc, h.buffer)
	metrics.ConnectionsActive.Inc()
	h.log.Debug("ws.connect", "conn", c.ID())

	// Outbound writer
	go c.WriteLoop(ctx)

	for {
		payload, ok := c.Read(ctx)
		if !ok {
			break
		}
		h.dispatch(c, payload)
	}

	h.teardown(c)
	_ = c.Close()
	metrics.ConnectionsActive.Dec()
	h.log.Debug("ws.disconnect", "conn", c.ID())
}

func (h *Hub) dispatch(c *Conn, payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		h.log.Debug("ws.frame.malformed", "conn", c.ID(), "err", err)
		return
	}

	switch env.Event {
	case evtCreateRoom:
		h.createRoom(c, env.Data)
	case evtJoinRoom:
		h.joinRoom(c, env.Data)
	case evtSendMessage:
		h.sendMessage(c, env.Data)
	default:
		h.log.Debug("ws.event.unknown", "conn", c.ID(), "event", env.Event)
	}
}

// createRoom allocates a room and hands the code back. The creator is not
// auto-joined: it redeems the code with join_room like anyone else.
func (h *Hub) createRoom(c *Conn, data json.RawMessage) {
	var capacity int
	_ = json.Unmarshal(data, &capacity) // the client sends a bare integer

	rm, err := h.store.CreateRoom(capacity)
	if err != nil {
		h.log.Error("room.create", "err", err)
		return
	}

	h.log.Info("room.created", "room", rm.Code, "capacity", rm.Capacity)
	c.send(encode(evtRoomCreated, roomCreatedData{RoomID: rm.Code}))
}

func (h *Hub) joinRoom(c *Conn, data json.RawMessage) {
	var req joinRoomData
	_ = json.Unmarshal(data, &req)
	code := strings.ToUpper(strings.TrimSpace(req.RoomID))

	// One room per connection.
	h.mu.Lock()
	_, joined := h.members[c.ID()]
	h.mu.Unlock()
	if joined {
		c.send(encode(evtJoinError, joinErrorData{Message: "already in a room"}))
		return
	}

	if err := h.store.Join(code, c.ID(), req.Username, c); err != nil {
		metrics.JoinsRejected.WithLabelValues(rejectReason(err)).Inc()
		h.log.Debug("room.join.rejected", "room", code, "conn", c.ID(), "err", err)
		c.send(encode(evtJoinError, joinErrorData{Message: err.Error()}))
		return
	}

	h.mu.Lock()
	h.members[c.ID()] = membership{room: code, username: req.Username}
	h.mu.Unlock()

	h.log.Info("room.join", "room", code, "user", req.Username, "conn", c.ID())
	c.send(encode(evtJoinSuccess, nil))
}

func (h *Hub) sendMessage(c *Conn, data json.RawMessage) {
	var req sendMessageData
	_ = json.Unmarshal(data, &req)
	code := strings.ToUpper(strings.TrimSpace(req.RoomID))

	// Missing room or empty text is a client-error condition, dropped
	// without an error toward the sender.
	if !h.store.Broadcast(code, req.Username, req.Message) {
		metrics.MessagesDropped.Inc()
		h.log.Debug("message.dropped", "room", code, "conn", c.ID())
	}
}

// teardown runs once per connection, after its read loop exits. A
// connection that never joined a room has nothing to undo.
func (h *Hub) teardown(c *Conn) {
	h.mu.Lock()
	mem, ok := h.members[c.ID()]
	delete(h.members, c.ID())
	h.mu.Unlock()

	if !ok {
		return
	}
	if h.store.Leave(mem.room, c.ID()) {
		h.log.Info("room.leave", "room", mem.room, "user", mem.username)
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, chat.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, chat.ErrInvalidUsername):
		return "invalid_username"
	case errors.Is(err, chat.ErrUsernameTaken):
		return "username_taken"
	case errors.Is(err, chat.ErrRoomFull):
		return "room_full"
	default:
		return "other"
	}
}
