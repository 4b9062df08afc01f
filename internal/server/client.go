package server

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/vectorlab/internal/core/observability/log"
	"github.com/zeusync/vectorlab/internal/core/xr"
)

// Client is one WebSocket viewer. All writes go through the send queue and
// a single writer goroutine.
type Client struct {
	id   string
	conn *websocket.Conn
	room *Room

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu           sync.Mutex
	capabilities xr.Capabilities
	mode         xr.Mode

	connectedAt time.Time
	lastSeen    atomic.Int64
	logger      log.Log
}

func newClient(conn *websocket.Conn, room *Room, queueSize int) *Client {
	id := uuid.NewString()
	c := &Client{
		id:          id,
		conn:        conn,
		room:        room,
		send:        make(chan []byte, queueSize),
		done:        make(chan struct{}),
		mode:        xr.Desktop,
		connectedAt: time.Now(),
		logger:      room.logger.With(log.String("client", id)),
	}
	c.lastSeen.Store(c.connectedAt.Unix())
	return c
}

// ID returns the client id.
func (c *Client) ID() string {
	return c.id
}

// enqueue queues data without blocking.
func (c *Client) enqueue(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// session returns the current capabilities and mode.
func (c *Client) session() (xr.Capabilities, xr.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capabilities, c.mode
}

// setCapabilities records the device report. A mode that is no longer
// supported falls back to desktop.
func (c *Client) setCapabilities(caps xr.Capabilities) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capabilities = caps
	if !caps.Supports(c.mode) {
		c.mode = xr.Desktop
	}
}

func (c *Client) enter(mode xr.Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := xr.Check(c.capabilities, mode); err != nil {
		return err
	}
	c.mode = mode
	return nil
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump(writeTimeout, pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("Write failed", log.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		}
	}
}

// readPump feeds incoming frames to handle until the connection fails.
func (c *Client) readPump(maxMessageSize int64, pingInterval time.Duration, handle func(*Client, []byte)) {
	defer c.close()

	readTimeout := 2 * pingInterval
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.lastSeen.Store(time.Now().Unix())
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				c.logger.Warn("Message too large", log.Int64("limit", maxMessageSize))
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("Connection closed unexpectedly", log.Error(err))
			}
			return
		}
		c.lastSeen.Store(time.Now().Unix())
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))

		if messageType != websocket.TextMessage {
			continue
		}
		handle(c, data)
	}
}
