package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeusync/vectorlab/internal/core/form"
	"github.com/zeusync/vectorlab/internal/core/observability/log"
	"github.com/zeusync/vectorlab/internal/core/primitive"
	"github.com/zeusync/vectorlab/internal/core/protocol"
	"github.com/zeusync/vectorlab/internal/core/scene"
	"github.com/zeusync/vectorlab/internal/core/xr"
)

type transition = func(scene.State) (scene.State, error)

// handleMessage decodes and executes one client command.
func (s *Server) handleMessage(c *Client, data []byte) {
	var msg protocol.ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.replyError(c, msg, fmt.Errorf("%w: %w", protocol.ErrInvalidMessage, err))
		return
	}

	if err := s.dispatch(c, msg); err != nil {
		s.replyError(c, msg, err)
	}
}

func (s *Server) dispatch(c *Client, msg protocol.ControlMessage) error {
	limits := s.renderer.Options().Limits

	switch msg.Action {
	case protocol.ActionApplyForm:
		var fields form.Fields
		if err := msg.Decode(&fields); err != nil {
			return err
		}
		vectors, err := form.Parse(fields)
		if err != nil {
			return err
		}
		return s.apply(c, msg, func(st scene.State) (scene.State, error) {
			return st.WithVectors(vectors)
		})

	case protocol.ActionSetGrid:
		var cmd protocol.GridCommand
		if err := msg.Decode(&cmd); err != nil {
			return err
		}
		axis, err := primitive.ParseAxis(cmd.Axis)
		if err != nil {
			return err
		}
		return s.apply(c, msg, func(st scene.State) (scene.State, error) {
			return st.WithGrid(axis, cmd.Enabled)
		})

	case protocol.ActionNudgeOffset:
		var cmd protocol.NudgeCommand
		if err := msg.Decode(&cmd); err != nil {
			return err
		}
		axis, err := primitive.ParseAxis(cmd.Axis)
		if err != nil {
			return err
		}
		return s.apply(c, msg, func(st scene.State) (scene.State, error) {
			return st.WithOffsetNudge(axis, cmd.Delta, limits)
		})

	case protocol.ActionSetScale:
		var cmd protocol.ScaleCommand
		if err := msg.Decode(&cmd); err != nil {
			return err
		}
		return s.apply(c, msg, func(st scene.State) (scene.State, error) {
			return st.WithScale(cmd.Scale, limits)
		})

	case protocol.ActionCapabilities:
		var caps xr.Capabilities
		if err := msg.Decode(&caps); err != nil {
			return err
		}
		c.setCapabilities(caps)
		c.logger.Debug("Capabilities reported", log.Bool("vr", caps.VR), log.Bool("ar", caps.AR))
		return s.replySession(c, msg.ID)

	case protocol.ActionEnterSession:
		var cmd protocol.SessionCommand
		if err := msg.Decode(&cmd); err != nil {
			return err
		}
		mode, err := xr.ParseMode(cmd.Mode)
		if err != nil {
			return err
		}
		if err = c.enter(mode); err != nil {
			return err
		}
		c.logger.Info("Entered session", log.String("mode", string(mode)))
		return s.replySession(c, msg.ID)

	case protocol.ActionPing:
		data, err := s.encode(protocol.TypePong, msg.ID, protocol.PongPayload{Version: c.room.store.Version()})
		if err != nil {
			return err
		}
		return c.enqueue(data)

	default:
		return fmt.Errorf("%w: %q", protocol.ErrUnknownAction, msg.Action)
	}
}

// apply runs fn on the room state. Accepted changes reach every client via
// the room broadcast; an unchanged state is echoed to the caller only.
func (s *Server) apply(c *Client, msg protocol.ControlMessage, fn transition) error {
	change, err := c.room.store.Apply(c.id, fn)
	if err != nil && !change.Changed() {
		return err
	}
	if err != nil {
		c.logger.Warn("State change delivered with errors", log.String("action", msg.Action), log.Error(err))
	}
	if change.Changed() {
		c.logger.Debug("State changed",
			log.String("action", msg.Action),
			log.Uint64("version", change.Version),
			log.Float64("scale", change.Current.Scale))
		return nil
	}

	data, err := c.room.scene(change.Current, change.Version, c.id, msg.ID)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (s *Server) replySession(c *Client, id string) error {
	caps, mode := c.session()
	data, err := s.encode(protocol.TypeSession, id, protocol.SessionPayload{
		Mode:         mode,
		Capabilities: caps,
		Actions:      xr.ActionsFor(caps),
	})
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (s *Server) replyError(c *Client, msg protocol.ControlMessage, err error) {
	payload := errorPayload(msg.Action, err)
	if payload.Code == protocol.CodeInternal {
		c.logger.Error("Command failed", log.String("action", msg.Action), log.Error(err))
	}

	data, encErr := s.encode(protocol.TypeError, msg.ID, payload)
	if encErr != nil {
		c.logger.Error("Failed to encode error reply", log.Error(encErr))
		return
	}
	if qErr := c.enqueue(data); qErr != nil {
		c.logger.Debug("Error reply dropped", log.Error(qErr))
	}
}

// errorPayload maps a command error onto the wire error codes.
func errorPayload(action string, err error) protocol.ErrorPayload {
	p := protocol.ErrorPayload{Action: action, Code: protocol.CodeInternal, Message: err.Error()}

	var formErr *form.ValidationError
	switch {
	case errors.As(err, &formErr):
		p.Code = protocol.CodeInvalidForm
		p.Fields = formErr.Fields
	case errors.Is(err, protocol.ErrInvalidMessage):
		p.Code = protocol.CodeBadRequest
	case errors.Is(err, protocol.ErrUnknownAction):
		p.Code = protocol.CodeUnknownAction
	case errors.Is(err, xr.ErrModeUnsupported):
		p.Code = protocol.CodeUnsupported
	case errors.Is(err, primitive.ErrInvalidAxis),
		errors.Is(err, scene.ErrInvalidScale),
		errors.Is(err, scene.ErrInvalidOffsetStep),
		errors.Is(err, scene.ErrNonFiniteVector),
		errors.Is(err, form.ErrInvalidNumber),
		errors.Is(err, xr.ErrUnknownMode):
		p.Code = protocol.CodeInvalidValue
	}
	return p
}
