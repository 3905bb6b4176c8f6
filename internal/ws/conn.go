package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"chat-relay/internal/chat"
)

// Conn wraps a websocket with an identity and a bounded outbound queue.
type Conn struct {
	id  string
	ws  *websocket.Conn
	out chan []byte
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps a WS connection with a fresh connection id.
func NewConn(wsc *websocket.Conn, buffer int) *Conn {
	return &Conn{
		id:  uuid.New().String(),
		ws:  wsc,
		out: make(chan []byte, buffer),
	}
}

// ID returns the connection's identity.
func (c *Conn) ID() string { return c.id }

// send queues a frame without blocking. A connection that cannot drain
// its queue is unreachable: it gets closed here, its read loop errors
// out, and teardown runs through the normal leave path. CloseNow skips
// the close handshake; an unresponsive peer would never answer it, and
// send may be running under a room lock.
func (c *Conn) send(b []byte) {
	select {
	case c.out <- b:
	default:
		_ = c.ws.CloseNow()
	}
}

// Deliver maps a room event onto the wire.
func (c *Conn) Deliver(ev chat.Event) {
	switch ev.Kind {
	case chat.KindMessage:
		c.send(encode(evtReceiveMessage, receiveMessageData{
			Username:  ev.Msg.Username,
			Message:   ev.Msg.Body,
			Timestamp: ev.Msg.Timestamp.Format(time.RFC3339),
			System:    ev.Msg.System,
		}))
	case chat.KindUserJoined:
		c.send(encode(evtUserJoined, userJoinedData{Username: ev.User}))
	case chat.KindUserLeft:
		c.send(encode(evtUserLeft, nil))
	}
}

// Read blocks until it receives a text/binary message
// Returns false if connection is closed
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// WriteLoop sends outbound frames + periodic pings
// Exits when ctx is cancelled
func (c *Conn) WriteLoop(ctx context.Context) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Close closes the WS connection normally
func (c *Conn) Close() error { return c.ws.Close(websocket.StatusNormalClosure, "bye") }
