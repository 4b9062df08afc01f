package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestControlMessage(t *testing.T) {
	t.Run("Data is carried as raw json", func(t *testing.T) {
		msg, err := NewControl(ActionSetScale, "7", ScaleCommand{Scale: 1.5})
		require.NoError(t, err)
		require.JSONEq(t, `{"scale":1.5}`, string(msg.Data))

		var cmd ScaleCommand
		require.NoError(t, msg.Decode(&cmd))
		require.Equal(t, 1.5, cmd.Scale)
	})

	t.Run("Nil data leaves the payload empty", func(t *testing.T) {
		msg, err := NewControl(ActionPing, "", nil)
		require.NoError(t, err)
		raw, err := json.Marshal(msg)
		require.NoError(t, err)
		require.JSONEq(t, `{"action":"ping"}`, string(raw))
	})

	t.Run("Missing data fails to decode", func(t *testing.T) {
		var cmd GridCommand
		err := ControlMessage{Action: ActionSetGrid}.Decode(&cmd)
		require.True(t, errors.Is(err, ErrInvalidMessage))
	})

	t.Run("Malformed data fails to decode", func(t *testing.T) {
		var cmd NudgeCommand
		msg := ControlMessage{Action: ActionNudgeOffset, Data: json.RawMessage(`{"delta":"x"}`)}
		require.ErrorIs(t, msg.Decode(&cmd), ErrInvalidMessage)
	})
}

func TestReply(t *testing.T) {
	reply, err := NewReply(TypeError, "3", ErrorPayload{Code: CodeInvalidForm, Message: "bad", Fields: map[string]string{"ax": "not a number"}})
	require.NoError(t, err)

	raw, err := json.Marshal(reply)
	require.NoError(t, err)

	var decoded Reply
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, TypeError, decoded.Type)
	require.Equal(t, "3", decoded.ID)

	var payload ErrorPayload
	require.NoError(t, decoded.Decode(&payload))
	require.Equal(t, CodeInvalidForm, payload.Code)
	require.Equal(t, "not a number", payload.Fields["ax"])

	require.ErrorIs(t, Reply{Type: TypePong, Data: json.RawMessage(`[`)}.Decode(&PongPayload{}), ErrInvalidMessage)
}
