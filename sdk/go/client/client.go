// Package client is a Go SDK for the vectorlab scene server. It joins a room
// over WebSocket, exposes the stream of scene snapshots and sends the same
// commands a browser viewer does.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/vectorlab/internal/core/form"
	"github.com/zeusync/vectorlab/internal/core/geometry"
	"github.com/zeusync/vectorlab/internal/core/observability/log"
	"github.com/zeusync/vectorlab/internal/core/primitive"
	"github.com/zeusync/vectorlab/internal/core/protocol"
	"github.com/zeusync/vectorlab/internal/core/scene"
	"github.com/zeusync/vectorlab/internal/core/xr"
)

// Config holds configuration for the client
type Config struct {
	// ServerURL is the server base address, http(s):// or ws(s)://.
	ServerURL        string
	Room             string
	Token            string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// BufferSize bounds each of the Frames, Errors and Sessions channels.
	// When a channel is full the oldest value is dropped.
	BufferSize int
	Logger     log.Log
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		ServerURL:        "ws://127.0.0.1:8080",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       16,
	}
}

// Client is a connected viewer.
type Client struct {
	conn   *websocket.Conn
	config Config
	logger log.Log

	writeMu sync.Mutex

	frames   chan protocol.ScenePayload
	errors   chan protocol.ErrorPayload
	sessions chan protocol.SessionPayload
	pongs    chan protocol.PongPayload

	latestMu sync.RWMutex
	latest   protocol.ScenePayload
	version  atomic.Uint64

	closed atomic.Bool
	done   chan struct{}
}

// Dial connects to the server and starts reading. The first frame on Frames
// is the room's current scene.
func Dial(ctx context.Context, config Config) (*Client, error) {
	endpoint, err := endpointURL(config)
	if err != nil {
		return nil, err
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultClientConfig().BufferSize
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultClientConfig().WriteTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Nop()
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: config.HandshakeTimeout,
	}
	var header http.Header
	if config.Token != "" {
		header = http.Header{"Authorization": {"Bearer " + config.Token}}
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", endpoint, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c := &Client{
		conn:     conn,
		config:   config,
		logger:   logger.With(log.String("component", "client"), log.String("room", config.Room)),
		frames:   make(chan protocol.ScenePayload, config.BufferSize),
		errors:   make(chan protocol.ErrorPayload, config.BufferSize),
		sessions: make(chan protocol.SessionPayload, config.BufferSize),
		pongs:    make(chan protocol.PongPayload, 1),
		done:     make(chan struct{}),
	}
	go c.readLoop()

	c.logger.Info("Connected", log.String("url", endpoint))
	return c, nil
}

func endpointURL(config Config) (string, error) {
	u, err := url.Parse(config.ServerURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: server url %q", ErrInvalidConfig, config.ServerURL)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"

	q := u.Query()
	if config.Room != "" {
		q.Set("room", config.Room)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Frames delivers scenes in version order. Stale broadcasts are skipped.
// The channel is closed when the connection ends.
func (c *Client) Frames() <-chan protocol.ScenePayload { return c.frames }

// Errors delivers command rejections.
func (c *Client) Errors() <-chan protocol.ErrorPayload { return c.errors }

// Sessions delivers session updates.
func (c *Client) Sessions() <-chan protocol.SessionPayload { return c.sessions }

// Done is closed once the connection has ended.
func (c *Client) Done() <-chan struct{} { return c.done }

// Latest returns the newest scene received so far.
func (c *Client) Latest() (protocol.ScenePayload, bool) {
	c.latestMu.RLock()
	defer c.latestMu.RUnlock()
	return c.latest, c.version.Load() > 0
}

// ApplyForm submits the raw form text. Invalid fields come back on Errors.
func (c *Client) ApplyForm(fields form.Fields) error {
	return c.send(protocol.ActionApplyForm, fields)
}

// ApplyVectors submits a and b through the form path.
func (c *Client) ApplyVectors(a, b geometry.Vector3) error {
	return c.ApplyForm(form.FieldsOf(scene.Vectors{A: a, B: b}))
}

// SetGrid shows or hides the grid plane of axis.
func (c *Client) SetGrid(axis primitive.Axis, enabled bool) error {
	return c.send(protocol.ActionSetGrid, protocol.GridCommand{Axis: string(axis), Enabled: enabled})
}

// NudgeOffset moves the scene group along axis by delta.
func (c *Client) NudgeOffset(axis primitive.Axis, delta float64) error {
	return c.send(protocol.ActionNudgeOffset, protocol.NudgeCommand{Axis: string(axis), Delta: delta})
}

// SetScale sets the uniform scene scale.
func (c *Client) SetScale(scale float64) error {
	return c.send(protocol.ActionSetScale, protocol.ScaleCommand{Scale: scale})
}

// ReportCapabilities tells the server what the device supports.
func (c *Client) ReportCapabilities(caps xr.Capabilities) error {
	return c.send(protocol.ActionCapabilities, caps)
}

// EnterSession asks to switch viewing mode.
func (c *Client) EnterSession(mode xr.Mode) error {
	return c.send(protocol.ActionEnterSession, protocol.SessionCommand{Mode: string(mode)})
}

// Ping round-trips to the server and returns the room state version.
func (c *Client) Ping(ctx context.Context) (uint64, error) {
	if err := c.send(protocol.ActionPing, nil); err != nil {
		return 0, err
	}
	select {
	case pong := <-c.pongs:
		return pong.Version, nil
	case <-c.done:
		return 0, ErrClientClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Close ends the connection. Multiple calls are safe.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.config.WriteTimeout))
	c.writeMu.Unlock()

	err := c.conn.Close()
	<-c.done
	c.logger.Info("Disconnected")
	return err
}

func (c *Client) send(action string, data any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	msg, err := protocol.NewControl(action, uuid.NewString(), data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop() {
	defer func() {
		close(c.frames)
		close(c.errors)
		close(c.sessions)
		close(c.done)
	}()

	for {
		var reply protocol.Reply
		if err := c.conn.ReadJSON(&reply); err != nil {
			if !c.closed.Load() {
				c.logger.Warn("Connection lost", log.Error(err))
			}
			return
		}
		if err := c.dispatch(reply); err != nil {
			c.logger.Warn("Dropping reply", log.String("type", reply.Type), log.Error(err))
		}
	}
}

func (c *Client) dispatch(reply protocol.Reply) error {
	switch reply.Type {
	case protocol.TypeScene:
		var payload protocol.ScenePayload
		if err := reply.Decode(&payload); err != nil {
			return err
		}
		if payload.Snapshot.Version < c.version.Load() {
			return nil
		}
		c.latestMu.Lock()
		c.latest = payload
		c.version.Store(payload.Snapshot.Version)
		c.latestMu.Unlock()
		offer(c.frames, payload)

	case protocol.TypeError:
		var payload protocol.ErrorPayload
		if err := reply.Decode(&payload); err != nil {
			return err
		}
		offer(c.errors, payload)

	case protocol.TypeSession:
		var payload protocol.SessionPayload
		if err := reply.Decode(&payload); err != nil {
			return err
		}
		offer(c.sessions, payload)

	case protocol.TypePong:
		var payload protocol.PongPayload
		if err := reply.Decode(&payload); err != nil {
			return err
		}
		offer(c.pongs, payload)

	default:
		return fmt.Errorf("%w: type %q", ErrInvalidMessage, reply.Type)
	}
	return nil
}

// offer sends v, discarding the oldest queued value when ch is full.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
