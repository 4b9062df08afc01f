package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/vectorlab/internal/core/events/bus"
	"github.com/zeusync/vectorlab/internal/core/form"
	"github.com/zeusync/vectorlab/internal/core/observability/log"
	"github.com/zeusync/vectorlab/internal/core/primitive"
	"github.com/zeusync/vectorlab/internal/core/scene"
	"github.com/zeusync/vectorlab/internal/core/state"
	"github.com/zeusync/vectorlab/pkg/encoding"
)

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /scene", s.requireAuth(s.handleScene))
	mux.HandleFunc("GET /render", s.handleRender)
	mux.HandleFunc("GET /events", s.requireAuth(s.handleEvents))
	mux.HandleFunc("GET /ws", s.requireAuth(s.handleWebSocket))
	mux.HandleFunc("GET /log/level", s.requireAuth(s.handleLogLevel))
	mux.HandleFunc("PUT /log/level", s.requireAuth(s.handleSetLogLevel))
	return s.withRequestLog(mux)
}

const maxLevelBodySize = 1024

type levelPayload struct {
	Level string `json:"level"`
}

func (s *Server) handleLogLevel(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, encoding.JSON, levelPayload{Level: s.logger.GetLevel().String()})
}

// handleSetLogLevel changes the level of the process-wide logger at runtime.
func (s *Server) handleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var body levelPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLevelBodySize)).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.Level == "" {
		http.Error(w, "level is required", http.StatusBadRequest)
		return
	}
	level, err := log.ParseLevel(body.Level)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	previous := s.logger.GetLevel()
	s.logger.SetLevel(level)
	s.logger.WithContext(r.Context()).Info("Log level changed",
		log.String("from", previous.String()),
		log.String("to", level.String()))
	s.write(w, http.StatusOK, encoding.JSON, levelPayload{Level: level.String()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if s.closed.Load() {
		status = "closing"
	}
	s.write(w, http.StatusOK, encoding.JSON, map[string]any{
		"status": status,
		"stats":  s.Stats(),
	})
}

// handleScene serves the current snapshot of a room. The state digest is the
// ETag, so polling viewers get 304 until something changes.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	room, err := s.room(r.URL.Query().Get("room"))
	if err != nil {
		s.roomError(w, err)
		return
	}

	st, version := room.store.Get()
	etag := fmt.Sprintf(`"%016x"`, st.Digest())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	frame, err := s.renderer.Render(st)
	if err != nil {
		s.logger.Error("Render failed", log.String("room", room.name), log.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.write(w, http.StatusOK, format, scene.NewSnapshot(frame, version))
}

// handleRender renders an ad-hoc state without touching any room:
// /render?a=1,2,3&b=3,2,1&grid=xz&scale=0.05&offset=0,1,0
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format, err := requestFormat(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := ParseRenderQuery(r.URL.Query(), s.initial, s.renderer.Options().Limits)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	frame, err := s.renderer.Render(st)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.write(w, http.StatusOK, format, scene.NewSnapshot(frame, 0))
}

// ParseRenderQuery builds a state from the a, b, grid, scale and offset
// parameters, defaulting each to base. An empty grid value disables every
// plane.
func ParseRenderQuery(q url.Values, base scene.State, limits scene.Limits) (scene.State, error) {
	st := base
	vectors := st.Vectors
	var err error

	if raw := q.Get("a"); raw != "" {
		if vectors.A, err = form.ParseVector(raw); err != nil {
			return st, fmt.Errorf("a: %w", err)
		}
	}
	if raw := q.Get("b"); raw != "" {
		if vectors.B, err = form.ParseVector(raw); err != nil {
			return st, fmt.Errorf("b: %w", err)
		}
	}
	if st, err = st.WithVectors(vectors); err != nil {
		return st, err
	}

	if q.Has("grid") {
		if st, err = applyGridLetters(st, q.Get("grid")); err != nil {
			return st, err
		}
	}
	if raw := q.Get("scale"); raw != "" {
		scale, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return st, fmt.Errorf("%w: %q", scene.ErrInvalidScale, raw)
		}
		if st, err = st.WithScale(scale, limits); err != nil {
			return st, err
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if st.Offset, err = form.ParseVector(raw); err != nil {
			return st, fmt.Errorf("offset: %w", err)
		}
	}
	return st, nil
}

// applyGridLetters enables exactly the axes named in letters ("xz", "none").
func applyGridLetters(st scene.State, letters string) (scene.State, error) {
	letters = strings.ToLower(strings.TrimSpace(letters))
	if letters == "none" {
		letters = ""
	}
	for _, ch := range letters {
		if !primitive.Axis(ch).Valid() {
			return st, fmt.Errorf("%w: %q", primitive.ErrInvalidAxis, string(ch))
		}
	}

	var err error
	for _, axis := range primitive.Axes {
		if st, err = st.WithGrid(axis, strings.ContainsRune(letters, rune(axis[0]))); err != nil {
			return st, err
		}
	}
	return st, nil
}

// handleEvents streams the scene of a room as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	room, err := s.join(r.URL.Query().Get("room"), (*Room).listen)
	if err != nil {
		s.roomError(w, err)
		return
	}
	defer room.unlisten()

	updates := make(chan []byte, s.config.SendQueueSize)
	sub, err := s.bus.SubscribeTopic(room.name, state.EventChanged, func(e bus.Event) error {
		change, ok := e.Data().(state.Change)
		if !ok {
			return nil
		}
		data, err := room.scene(change.Current, change.Version, change.Source, "")
		if err != nil {
			return err
		}
		select {
		case updates <- data:
		default:
		}
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer func() { _ = s.bus.Unsubscribe(sub) }()

	initial, err := room.current("")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeEvent := func(data []byte) bool {
		if _, err := fmt.Fprintf(w, "event: scene\ndata: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !writeEvent(initial) {
		return
	}
	for {
		select {
		case data := <-updates:
			if !writeEvent(data) {
				return
			}
		case <-r.Context().Done():
			return
		case <-s.stopChan:
			return
		}
	}
}

// handleWebSocket upgrades the connection, joins the room and sends the
// current scene.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	if n := s.clientCount.Add(1); n > int64(s.config.MaxClients) {
		s.clientCount.Add(-1)
		s.logger.Warn("Rejecting client", log.Error(ErrMaxClientsReached))
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}
	defer s.clientCount.Add(-1)

	name := r.URL.Query().Get("room")
	room, err := s.room(name)
	if err != nil {
		s.roomError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("Upgrade failed", log.Error(err))
		return
	}

	client := newClient(conn, room, s.config.SendQueueSize)
	room, err = s.join(name, func(candidate *Room) bool {
		client.room = candidate
		return candidate.add(client)
	})
	if err != nil {
		_ = conn.Close()
		return
	}
	defer room.remove(client)

	client.logger.Info("Client connected", log.String("remote_addr", conn.RemoteAddr().String()))
	defer client.logger.Info("Client disconnected", log.Duration("connected_for", time.Since(client.connectedAt)))

	if data, err := room.current(""); err == nil {
		_ = client.enqueue(data)
	}
	_ = s.replySession(client, "")

	go client.writePump(s.config.WriteTimeout, s.config.PingInterval)
	client.readPump(s.config.MaxMessageSize, s.config.PingInterval, s.handleMessage)
}

func (s *Server) roomError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMaxRoomsReached):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, ErrInvalidRoom):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func requestFormat(r *http.Request) (encoding.Format, error) {
	if f := r.URL.Query().Get("format"); f != "" {
		return encoding.ParseFormat(f)
	}
	if strings.Contains(r.Header.Get("Accept"), "yaml") {
		return encoding.YAML, nil
	}
	return encoding.JSON, nil
}

func (s *Server) write(w http.ResponseWriter, status int, format encoding.Format, v any) {
	codec, err := encoding.For(format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	buf := s.buffers.Get()
	defer s.buffers.Put(buf)
	if err = codec.Encode(buf, v); err != nil {
		s.logger.Error("Failed to encode response", log.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// withRequestLog tags each request with an id and logs its outcome.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(log.ContextWithRequestID(r.Context(), id))

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.WithContext(r.Context()).Debug("HTTP request",
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.Int("status", rec.status),
			log.Duration("duration", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
