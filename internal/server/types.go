// Package server defines the JSON envelopes exchanged with WebSocket clients
// and utility helpers that are reused across client and hub logic.
package server

import (
	"encoding/json"
	"strings"

	"github.com/Tyrowin/scrumpoker/internal/room"
)

// Inbound action types sent by clients.
const (
	ActionCreateRoom = "create-room"
	ActionJoinRoom   = "join-room"
	ActionLeaveRoom  = "leave-room"
	ActionVote       = "vote"
	ActionReveal     = "reveal"
	ActionClear      = "clear"
)

// Outbound event types pushed to clients.
const (
	EventRoomCreated = "room-created"
	EventRoomJoined  = "room-joined"
	EventRoomUpdate  = "room-update"
	EventError       = "error"
)

// ErrMsgRoomNotFound is the user-visible reply to a join against an unknown code.
const ErrMsgRoomNotFound = "Room not found"

// Inbound is a client action. RequestID is optional and echoed back on the
// direct reply to create-room and join-room.
type Inbound struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Name      string          `json:"name,omitempty"`
	Code      string          `json:"code,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
}

// Outbound is a message pushed to a client, either as a direct reply or as a
// room-wide room-update.
type Outbound struct {
	Type      string      `json:"type"`
	RequestID string      `json:"requestId,omitempty"`
	Code      room.Code   `json:"code,omitempty"`
	State     *room.State `json:"state,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// voteValue decodes the vote payload. A missing value or JSON null withdraws
// the vote; numbers are kept as their literal text.
func (m Inbound) voteValue() (*string, bool) {
	raw := strings.TrimSpace(string(m.Value))
	if raw == "" || raw == "null" {
		return nil, true
	}

	var s string
	if err := json.Unmarshal(m.Value, &s); err == nil {
		return &s, true
	}

	var n json.Number
	if err := json.Unmarshal(m.Value, &n); err == nil {
		s = n.String()
		return &s, true
	}
	return nil, false
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
