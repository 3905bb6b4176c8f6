package ws

import "encoding/json"

// Envelope is the wire frame: an event name plus its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client → server events.
const (
	evtCreateRoom  = "create_room"
	evtJoinRoom    = "join_room"
	evtSendMessage = "send_message"
)

// Server → client events.
const (
	evtRoomCreated    = "room_created"
	evtJoinSuccess    = "join_success"
	evtJoinError      = "join_error"
	evtUserJoined     = "user_joined"
	evtUserLeft       = "user_left"
	evtReceiveMessage = "receive_message"
)

type joinRoomData struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type sendMessageData struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type roomCreatedData struct {
	RoomID string `json:"roomId"`
}

type joinErrorData struct {
	Message string `json:"message"`
}

type userJoinedData struct {
	Username string `json:"username"`
}

type receiveMessageData struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	System    bool   `json:"system,omitempty"`
}

// encode marshals an event frame. Payload types here are all
// marshal-safe, so errors cannot occur.
func encode(event string, data any) []byte {
	var raw json.RawMessage
	if data != nil {
		raw, _ = json.Marshal(data)
	}
	b, _ := json.Marshal(Envelope{Event: event, Data: raw})
	return b
}
