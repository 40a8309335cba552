// Package devtools serves a development inspector over HTTP: a JSON
// snapshot of watched reactive state plus a WebSocket stream of updates.
// It builds on pulse.Inspect, so the runtime must be created with
// pulse.WithDevMode(true); against a production runtime every watch is a
// silent no-op.
package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/pulse-dev/pulse/pkg/pulse"
)

// Event is one watched-state change, as streamed to /live.
type Event struct {
	// Name is the watch name given to Watch.
	Name string `json:"name"`

	// Kind is "init" for the first observation, "update" afterwards.
	Kind string `json:"kind"`

	// Values are the watched sources' current values, in Watch order.
	Values []any `json:"values"`

	// Time is when the change was observed.
	Time time.Time `json:"time"`
}

// snapshotResponse is the /snapshot payload.
type snapshotResponse struct {
	Watches map[string][]any   `json:"watches"`
	Stats   pulse.RuntimeStats `json:"stats"`
}

// watchEntry tracks one named observation.
type watchEntry struct {
	values []any
	stop   func()
}

// Server is the inspector. Mount Handler on any HTTP mux.
type Server struct {
	rt       *pulse.Runtime
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	watches map[string]*watchEntry
	clients map[*websocket.Conn]struct{}
	closed  bool
}

// New creates an inspector for rt.
func New(rt *pulse.Runtime) *Server {
	return &Server{
		rt: rt,
		upgrader: websocket.Upgrader{
			// The inspector is a development tool bound to localhost;
			// cross-origin access from local tooling is expected.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  slog.Default().With("component", "devtools"),
		watches: make(map[string]*watchEntry),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Watch observes the given sources under name. Every change is recorded
// for /snapshot and streamed to /live clients. Watching an existing name
// replaces the previous watch.
func (s *Server) Watch(name string, sources ...pulse.Source) {
	s.mu.Lock()
	if prev, ok := s.watches[name]; ok {
		prev.stop()
	}
	entry := &watchEntry{}
	s.watches[name] = entry
	s.mu.Unlock()

	entry.stop = pulse.Inspect(s.rt, func(kind string, values ...any) {
		ev := Event{
			Name:   name,
			Kind:   kind,
			Values: values,
			Time:   time.Now(),
		}

		s.mu.Lock()
		entry.values = values
		conns := make([]*websocket.Conn, 0, len(s.clients))
		for c := range s.clients {
			conns = append(conns, c)
		}
		s.mu.Unlock()

		for _, c := range conns {
			if err := c.WriteJSON(ev); err != nil {
				s.dropClient(c)
			}
		}
	}, sources...)
}

// Unwatch stops the named watch.
func (s *Server) Unwatch(name string) {
	s.mu.Lock()
	entry, ok := s.watches[name]
	if ok {
		delete(s.watches, name)
	}
	s.mu.Unlock()

	if ok {
		entry.stop()
	}
}

// Handler returns the inspector's HTTP routes:
//   - GET /snapshot: JSON of all watched values plus runtime stats
//   - GET /stats: JSON runtime stats only
//   - GET /live: WebSocket stream of Event JSON frames
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/snapshot", s.handleSnapshot)
	r.Get("/stats", s.handleStats)
	r.Get("/live", s.handleLive)
	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	resp := snapshotResponse{
		Watches: make(map[string][]any),
		Stats:   s.rt.Stats(),
	}

	s.mu.Lock()
	for name, entry := range s.watches {
		resp.Watches[name] = entry.values
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("snapshot encode failed", "error", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.rt.Stats()); err != nil {
		s.logger.Warn("stats encode failed", "error", err)
	}
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	// Read loop only to observe the close; the stream is one-way.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.dropClient(conn)
				return
			}
		}
	}()
}

// dropClient removes and closes a client connection.
func (s *Server) dropClient(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[conn]
	if ok {
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	if ok {
		conn.Close()
	}
}

// Close stops all watches and disconnects all clients. Idempotent.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	watches := s.watches
	s.watches = make(map[string]*watchEntry)
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	for _, entry := range watches {
		entry.stop()
	}
	for _, c := range conns {
		c.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		c.Close()
	}
}
