// Package collab implements the real-time collaborative room engine: the
// per-room session actor, the process-wide session registry, the connection
// bind/unbind protocol, and the fanout of live events to bound connections.
package collab

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nwesha/Zcoder/internal/domain"
)

// Inbound event names.
const (
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
	EventCodeChange   = "code-change"
	EventCursorChange = "cursor-change"
	EventChatMessage  = "chat-message"
)

// Outbound event names.
const (
	EventRoomJoined    = "room-joined"
	EventUserJoined    = "user-joined"
	EventUserLeft      = "user-left"
	EventActiveUsers   = "active-users"
	EventCodeUpdate    = "code-update"
	EventCursorUpdate  = "cursor-update"
	EventChatBroadcast = EventChatMessage // same name both directions
	EventError         = "error"
)

// Envelope frames every message on the live connection.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CursorPosition is an opaque editor cursor location, relayed verbatim.
type CursorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// JoinRoomData binds the connection to a room the user has durably joined.
type JoinRoomData struct {
	RoomID uint `json:"roomId"`
	UserID uint `json:"userId"`
}

// LeaveRoomData unbinds the connection. Durable membership is untouched.
type LeaveRoomData struct {
	RoomID uint `json:"roomId"`
}

// CodeChangeData replaces the shared buffer (last-writer-wins).
type CodeChangeData struct {
	RoomID         uint            `json:"roomId"`
	Code           string          `json:"code"`
	Language       string          `json:"language"`
	CursorPosition *CursorPosition `json:"cursorPosition,omitempty"`
}

// CursorChangeData relays a cursor move; nothing is persisted.
type CursorChangeData struct {
	RoomID         uint           `json:"roomId"`
	CursorPosition CursorPosition `json:"cursorPosition"`
}

// ChatMessageData appends to the room's chat log.
type ChatMessageData struct {
	RoomID  uint            `json:"roomId"`
	Message string          `json:"message"`
	Type    domain.ChatType `json:"type"`
}

// RoomJoinedData is the authoritative snapshot returned on a successful bind.
type RoomJoinedData struct {
	Room        *domain.Room          `json:"room"`
	SharedCode  domain.SharedDocument `json:"sharedCode"`
	ChatHistory []ChatEntry           `json:"chatHistory"`
}

// ChatEntry is a chat message decorated with its author for the wire.
type ChatEntry struct {
	Message   string          `json:"message"`
	Type      domain.ChatType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	User      domain.UserRef  `json:"user"`
}

// UserEventData announces one user joining or leaving the live session.
type UserEventData struct {
	User domain.UserRef `json:"user"`
}

// ActiveUsersData is the full presence snapshot: distinct connected users,
// never a diff.
type ActiveUsersData struct {
	Users []domain.UserRef `json:"users"`
}

// CodeUpdateData broadcasts an accepted document update to the other
// connections.
type CodeUpdateData struct {
	Code           string          `json:"code"`
	Language       string          `json:"language"`
	CursorPosition *CursorPosition `json:"cursorPosition,omitempty"`
	User           domain.UserRef  `json:"user"`
}

// CursorUpdateData broadcasts a cursor move to the other connections.
type CursorUpdateData struct {
	CursorPosition CursorPosition `json:"cursorPosition"`
	User           domain.UserRef `json:"user"`
}

// ErrorData is sent to the offending connection only.
type ErrorData struct {
	Message string `json:"message"`
}

// EncodeEvent marshals an envelope with the given payload.
func EncodeEvent(event string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", event, err)
		}
		raw = b
	}
	out, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", event, err)
	}
	return out, nil
}
