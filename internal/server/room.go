package server

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/zeusync/vectorlab/internal/core/events/bus"
	"github.com/zeusync/vectorlab/internal/core/form"
	"github.com/zeusync/vectorlab/internal/core/observability/log"
	"github.com/zeusync/vectorlab/internal/core/protocol"
	"github.com/zeusync/vectorlab/internal/core/scene"
	"github.com/zeusync/vectorlab/internal/core/state"
	"github.com/zeusync/vectorlab/pkg/concurrent"
	"github.com/zeusync/vectorlab/pkg/sequence"
)

// Room is one shared scene. Every client in a room sees the same state.
type Room struct {
	name   string
	server *Server
	store  *state.Store
	sub    bus.Subscription
	logger log.Log

	mu        sync.RWMutex
	clients   map[string]*Client
	closed    bool
	listeners atomic.Int32

	// broadcastMu orders broadcasts; a change older than the last one sent
	// is skipped since the newer scene already supersedes it.
	broadcastMu   sync.Mutex
	lastBroadcast uint64
}

func newRoom(s *Server, name string) (*Room, error) {
	if err := s.bus.CreateTopic(name); err != nil {
		return nil, err
	}

	r := &Room{
		name:    name,
		server:  s,
		store:   state.NewStore(s.initial, state.WithBus(s.bus, name)),
		logger:  s.logger.With(log.String("room", name)),
		clients: make(map[string]*Client),
	}

	sub, err := s.bus.SubscribeTopic(name, state.EventChanged, func(e bus.Event) error {
		change, ok := e.Data().(state.Change)
		if !ok {
			return protocol.ErrInvalidMessage
		}
		return r.broadcast(context.Background(), change)
	})
	if err != nil {
		return nil, err
	}
	r.sub = sub
	return r, nil
}

// add registers c unless the room was closed concurrently.
func (r *Room) add(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.clients[c.id] = c
	return true
}

// listen registers a server-sent events listener unless the room was closed
// concurrently.
func (r *Room) listen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.listeners.Add(1)
	return true
}

func (r *Room) unlisten() {
	r.listeners.Add(-1)
}

func (r *Room) remove(c *Client) {
	r.mu.Lock()
	delete(r.clients, c.id)
	r.mu.Unlock()
}

func (r *Room) clientList() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Len returns the number of connected WebSocket clients.
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// closeIfIdle marks the room closed when nobody is connected.
func (r *Room) closeIfIdle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.clients) > 0 || r.listeners.Load() > 0 {
		return false
	}
	r.closed = true
	return true
}

func (r *Room) closeClients() {
	for _, c := range r.clientList() {
		c.close()
	}
}

// scene renders st and encodes it as a scene reply.
func (r *Room) scene(st scene.State, version uint64, source, id string) ([]byte, error) {
	frame, err := r.server.renderer.Render(st)
	if err != nil {
		return nil, err
	}
	return r.server.encode(protocol.TypeScene, id, protocol.ScenePayload{
		Room:     r.name,
		Source:   source,
		Form:     form.FieldsOf(st.Vectors),
		Snapshot: scene.NewSnapshot(frame, version),
	})
}

// current encodes the room's present scene.
func (r *Room) current(id string) ([]byte, error) {
	st, version := r.store.Get()
	return r.scene(st, version, "", id)
}

// broadcast sends the scene of change to every client. Clients whose queue
// is full are disconnected.
func (r *Room) broadcast(ctx context.Context, change state.Change) error {
	r.broadcastMu.Lock()
	defer r.broadcastMu.Unlock()

	if change.Version <= r.lastBroadcast {
		return nil
	}
	r.lastBroadcast = change.Version

	data, err := r.scene(change.Current, change.Version, change.Source, "")
	if err != nil {
		return err
	}

	return concurrent.ForEach(ctx, sequence.From(r.clientList()), r.server.config.BroadcastWorkers,
		func(_ context.Context, c *Client) error {
			if err := c.enqueue(data); err != nil {
				r.logger.Warn("Dropping slow client", log.String("client", c.id), log.Error(err))
				c.close()
			}
			return nil
		})
}

// encode wraps payload in a Reply and returns its JSON form.
func (s *Server) encode(typ, id string, payload any) ([]byte, error) {
	reply, err := protocol.NewReply(typ, id, payload)
	if err != nil {
		return nil, err
	}

	buf := s.buffers.Get()
	defer s.buffers.Put(buf)
	if err = json.NewEncoder(buf).Encode(reply); err != nil {
		return nil, err
	}
	return bytes.Clone(bytes.TrimSpace(buf.Bytes())), nil
}
