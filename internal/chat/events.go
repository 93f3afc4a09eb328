package chat

import (
	"encoding/json"
)

// Client event names consumed over the socket.
const (
	EventAuthenticate = "authenticate"
	EventJoin         = "join"
	EventSendMessage  = "sendMessage"
)

// Server event names emitted toward clients.
const (
	EventMessage  = "message"
	EventRoomData = "roomData"
	EventError    = "error"
)

// systemUser is the sender name attached to system notices.
const systemUser = "admin"

// ClientMessage is the wire envelope for events sent by clients.
type ClientMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage is the wire envelope for events emitted to clients.
type ServerMessage struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// MessagePayload is chat content or a system notice.
type MessagePayload struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// RoomDataPayload is the full occupant roster of a room.
type RoomDataPayload struct {
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

func encode(event string, payload any) []byte {
	msg, err := json.Marshal(ServerMessage{Event: event, Payload: payload})
	if err != nil {
		// payload types above are all trivially marshalable
		panic("chat: unmarshalable server event: " + err.Error())
	}
	return msg
}
