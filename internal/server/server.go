package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/vectorlab/internal/config"
	"github.com/zeusync/vectorlab/internal/core/events/bus"
	"github.com/zeusync/vectorlab/internal/core/observability/log"
	"github.com/zeusync/vectorlab/internal/core/scene"
	"github.com/zeusync/vectorlab/pkg/concurrent"
	"github.com/zeusync/vectorlab/pkg/generic"
	"github.com/zeusync/vectorlab/pkg/sequence"
)

const maxRoomNameLength = 64

// Server serves the shared vector scene of every room over HTTP, WebSocket
// and server-sent events.
type Server struct {
	config   config.ServerConfig
	initial  scene.State
	renderer *scene.Renderer
	bus      bus.EventBus
	auth     Authenticator
	logger   log.Log

	roomsMu sync.Mutex
	rooms   map[string]*Room

	clientCount atomic.Int64

	running atomic.Bool
	closed  atomic.Bool

	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader
	buffers    *generic.Pool[*bytes.Buffer]

	workerGroup sync.WaitGroup
	stopChan    chan struct{}
}

// Stats is a point-in-time view of the server.
type Stats struct {
	Rooms         int                 `json:"rooms"`
	Clients       int64               `json:"clients"`
	Subscriptions int                 `json:"subscriptions"`
	Renderer      scene.RendererStats `json:"renderer"`
	Bus           bus.Metrics         `json:"bus"`
}

// NewServer builds a server for cfg. Rooms start from the configured initial
// state and render through renderer.
func NewServer(cfg *config.Config, logger log.Log, renderer *scene.Renderer, eventBus bus.EventBus) (*Server, error) {
	if cfg == nil || renderer == nil || eventBus == nil {
		return nil, fmt.Errorf("%w: config, renderer and event bus are required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	initial, err := cfg.Scene.InitialState(renderer.Options().Limits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	s := &Server{
		config:   cfg.Server,
		initial:  initial,
		renderer: renderer,
		bus:      eventBus,
		auth:     TokenAuthenticator{Token: cfg.Server.Token},
		logger:   logger.With(log.String("component", "server")),
		rooms:    make(map[string]*Room),
		buffers: generic.NewResettingPool(func() *bytes.Buffer {
			return bytes.NewBuffer(make([]byte, 0, 4096))
		}, (*bytes.Buffer).Reset),
		stopChan: make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	eventBus.AddObserver(&busObserver{logger: s.logger})

	s.logger.Info("Server created",
		log.String("listen_addr", cfg.Server.ListenAddr),
		log.Int("max_clients", cfg.Server.MaxClients),
		log.Int("max_rooms", cfg.Server.MaxRooms),
		log.Strings("allowed_origins", cfg.Server.AllowedOrigins),
		log.Bool("token_auth", cfg.Server.Token != ""))

	return s, nil
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	s.logger.Info("Starting server")

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.config.ListenAddr)
	if err != nil {
		s.running.Store(false)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.workerGroup.Add(2)
	go func() {
		defer s.workerGroup.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", log.Error(err))
		}
	}()
	go func() {
		defer s.workerGroup.Done()
		s.healthMonitor()
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the HTTP server down, disconnects every client and waits for the
// background workers. The server cannot be restarted.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.Load() {
		return ErrServerNotRunning
	}
	if !s.closed.CompareAndSwap(false, true) {
		return ErrServerClosed
	}

	s.logger.Info("Stopping server")
	close(s.stopChan)

	err := s.httpServer.Shutdown(ctx)

	_ = concurrent.Concurrent(sequence.From(s.roomList()), func(room *Room) error {
		room.closeClients()
		return nil
	})

	done := make(chan struct{})
	go func() {
		s.workerGroup.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = errors.Join(err, ctx.Err())
	}

	s.running.Store(false)
	s.logger.Info("Server stopped")
	return err
}

// Stats returns current counters.
func (s *Server) Stats() Stats {
	s.roomsMu.Lock()
	rooms := len(s.rooms)
	s.roomsMu.Unlock()

	subs := 0
	for _, topic := range s.bus.Topics() {
		subs += topic.Subs
	}

	return Stats{
		Rooms:         rooms,
		Clients:       s.clientCount.Load(),
		Subscriptions: subs,
		Renderer:      s.renderer.Stats(),
		Bus:           s.bus.Metrics(),
	}
}

// room returns the named room, creating it on first use. The empty name is
// the default room.
func (s *Server) room(name string) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.config.DefaultRoom
	}
	if len(name) > maxRoomNameLength {
		return nil, fmt.Errorf("%w: longer than %d characters", ErrInvalidRoom, maxRoomNameLength)
	}

	s.roomsMu.Lock()
	defer s.roomsMu.Unlock()

	if room, ok := s.rooms[name]; ok {
		return room, nil
	}
	if len(s.rooms) >= s.config.MaxRooms {
		return nil, ErrMaxRoomsReached
	}

	room, err := newRoom(s, name)
	if err != nil {
		return nil, err
	}
	s.rooms[name] = room
	s.logger.Debug("Room created", log.String("room", name))
	return room, nil
}

// join looks up the named room and registers with it. A room pruned between
// the lookup and register is replaced by a fresh one.
func (s *Server) join(name string, register func(*Room) bool) (*Room, error) {
	for {
		room, err := s.room(name)
		if err != nil {
			return nil, err
		}
		if register(room) {
			return room, nil
		}
	}
}

func (s *Server) roomList() []*Room {
	s.roomsMu.Lock()
	defer s.roomsMu.Unlock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// pruneRooms drops idle rooms other than the default one.
func (s *Server) pruneRooms() {
	s.roomsMu.Lock()
	defer s.roomsMu.Unlock()

	for name, room := range s.rooms {
		if name == s.config.DefaultRoom || !room.closeIfIdle() {
			continue
		}
		delete(s.rooms, name)
		if err := s.bus.DropTopic(name); err != nil {
			s.logger.Warn("Failed to drop room topic", log.String("room", name), log.Error(err))
		}
		s.logger.Debug("Room closed", log.String("room", name))
	}
}

// healthMonitor periodically prunes idle rooms and logs server stats.
func (s *Server) healthMonitor() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.pruneRooms()
			stats := s.Stats()
			s.logger.Debug("Server stats",
				log.Int("rooms", stats.Rooms),
				log.Int64("clients", stats.Clients),
				log.Int("subscriptions", stats.Subscriptions),
				log.Uint64("render_hits", stats.Renderer.Hits),
				log.Uint64("render_misses", stats.Renderer.Misses))
		case <-s.stopChan:
			return
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	allowed := s.config.AllowedOrigins
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(allowed, origin)
}

// busObserver logs failed deliveries of state changes.
type busObserver struct {
	logger log.Log
}

func (o *busObserver) OnPublish(string, string, bus.Event) {}

func (o *busObserver) OnDelivered(topic, eventType string, handlers int, err error, duration time.Duration) {
	if err == nil {
		return
	}
	o.logger.Warn("Event delivery failed",
		log.String("topic", topic),
		log.String("event", eventType),
		log.Int("handlers", handlers),
		log.Duration("duration", duration),
		log.Error(err))
}
