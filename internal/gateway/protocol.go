package gateway

import "github.com/sf-hacks-2025-project/foresight/internal/state"

// Client event types accepted on the websocket.
const (
	EventContactStart = "contact_start"
	EventContactMove  = "contact_move"
	EventContactEnd   = "contact_end"
	EventPlay         = "play"
	EventPause        = "pause"
	EventSeek         = "seek"
	EventInteraction  = "interaction"
	EventReset        = "reset"
)

// ClientEvent is one inbound frame from the UI surface.
type ClientEvent struct {
	Type     string  `json:"type"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	OffsetMS int64   `json:"offset_ms,omitempty"`
}

// StateFrame pushes the full session snapshot to the client.
type StateFrame struct {
	Type  string         `json:"type"`
	State state.Snapshot `json:"state"`
}

// ErrorFrame reports a failed client command without closing the socket.
type ErrorFrame struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Error string `json:"error"`
}
