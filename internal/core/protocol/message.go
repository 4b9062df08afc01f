// Package protocol defines the JSON messages exchanged between the scene
// server and its viewers over WebSocket and server-sent events.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeusync/vectorlab/internal/core/form"
	"github.com/zeusync/vectorlab/internal/core/scene"
	"github.com/zeusync/vectorlab/internal/core/xr"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrUnknownAction  = errors.New("unknown action")
)

// Client to server actions.
const (
	ActionApplyForm    = "apply_form"
	ActionSetGrid      = "set_grid"
	ActionNudgeOffset  = "nudge_offset"
	ActionSetScale     = "set_scale"
	ActionCapabilities = "capabilities"
	ActionEnterSession = "enter_session"
	ActionPing         = "ping"
)

// Server to client message types.
const (
	TypeScene   = "scene"
	TypeError   = "error"
	TypeSession = "session"
	TypePong    = "pong"
)

// ControlMessage is a client command.
type ControlMessage struct {
	Action string          `json:"action"`
	ID     string          `json:"id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// NewControl builds a ControlMessage carrying data.
func NewControl(action, id string, data any) (ControlMessage, error) {
	msg := ControlMessage{Action: action, ID: id}
	if data == nil {
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return ControlMessage{}, err
	}
	msg.Data = raw
	return msg, nil
}

// Decode unmarshals Data into v. A missing payload is an error.
func (m ControlMessage) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%w: %s needs data", ErrInvalidMessage, m.Action)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidMessage, m.Action, err)
	}
	return nil
}

// GridCommand toggles one grid plane.
type GridCommand struct {
	Axis    string `json:"axis"`
	Enabled bool   `json:"enabled"`
}

// NudgeCommand moves the scene group by one offset step.
type NudgeCommand struct {
	Axis  string  `json:"axis"`
	Delta float64 `json:"delta"`
}

// ScaleCommand sets the scene group scale.
type ScaleCommand struct {
	Scale float64 `json:"scale"`
}

// SessionCommand asks to enter a viewing mode.
type SessionCommand struct {
	Mode string `json:"mode"`
}

// Reply is a server message. Data is one of the payloads below.
type Reply struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewReply builds a Reply carrying data.
func NewReply(typ, id string, data any) (Reply, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Type: typ, ID: id, Data: raw}, nil
}

// Decode unmarshals Data into v.
func (r Reply) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidMessage, r.Type, err)
	}
	return nil
}

// ScenePayload is the full scene of a room plus the matching form prefill.
type ScenePayload struct {
	Room     string         `json:"room"`
	Source   string         `json:"source,omitempty"`
	Form     form.Fields    `json:"form"`
	Snapshot scene.Snapshot `json:"snapshot"`
}

// ErrorPayload reports a rejected command. Fields is set for form errors.
type ErrorPayload struct {
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Error codes.
const (
	CodeBadRequest     = "bad_request"
	CodeInvalidForm    = "invalid_form"
	CodeInvalidValue   = "invalid_value"
	CodeUnsupported    = "unsupported"
	CodeUnknownAction  = "unknown_action"
	CodeInternal       = "internal"
	CodeMessageTooLong = "message_too_long"
)

// SessionPayload describes the viewer's capabilities and current mode.
type SessionPayload struct {
	Mode         xr.Mode         `json:"mode"`
	Capabilities xr.Capabilities `json:"capabilities"`
	Actions      xr.Actions      `json:"actions"`
}

// PongPayload answers a ping.
type PongPayload struct {
	Version uint64 `json:"version"`
}
