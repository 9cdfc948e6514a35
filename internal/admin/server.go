// Package admin implements the observability server of spec §4.12: a
// small HTTP + WebSocket surface, separate from the paint protocol,
// grounded on the teacher's api/room_handlers.go JSON conventions and
// websocket/hub.go client registry.
package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/paintmesh/server/internal/audit"
	"github.com/paintmesh/server/internal/canvas"
	"github.com/paintmesh/server/internal/presence"
	"github.com/paintmesh/server/internal/spatial"
)

// defaultTimelineLimit bounds the /api/timeline response when the caller
// does not specify one.
const defaultTimelineLimit = 50

// RoomSnapshot is one row of the /api/rooms response.
type RoomSnapshot struct {
	CanvasID   int  `json:"canvas_id"`
	LayerCount int  `json:"layer_count"`
	UserCount  int  `json:"user_count"`
	Dirty      bool `json:"dirty"`
	Active     bool `json:"active"`
}

// Server is the admin HTTP+WebSocket surface. Its failure (port in use,
// client disconnect) never affects the core reliable/unreliable
// protocol (spec §4.12, §7).
type Server struct {
	Registry *canvas.Registry
	Index    *spatial.Index
	AuditLog *audit.Log
	Presence *presence.Presence

	upgrader websocket.Upgrader
	batcher  *Batcher

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewServer builds a Server over registry, optionally backed by an
// activity index for /api/activity, an activity log for /api/timeline,
// and a presence cache for /api/presence. auditLog and presenceCache may
// be nil, in which case those endpoints report empty results.
func NewServer(registry *canvas.Registry, index *spatial.Index, auditLog *audit.Log, presenceCache *presence.Presence) *Server {
	s := &Server{
		Registry: registry,
		Index:    index,
		AuditLog: auditLog,
		Presence: presenceCache,
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.batcher = NewBatcher(s.broadcast)
	return s
}

// Notify enqueues a lifecycle event for the live feed (spec §4.12).
func (s *Server) Notify(canvasID int, kind string, roomUID uint8) {
	s.batcher.Add(Notice{CanvasID: canvasID, Kind: kind, RoomUID: roomUID, At: time.Now().Unix()})
}

// Handler returns the admin HTTP mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/rooms", s.handleRooms)
	mux.HandleFunc("/api/activity", s.handleActivity)
	mux.HandleFunc("/api/timeline", s.handleTimeline)
	mux.HandleFunc("/api/presence", s.handlePresence)
	mux.HandleFunc("/ws/events", s.handleEvents)
	return mux
}

// Run starts the batcher's timeout-driven flush and blocks serving HTTP
// on addr until stop is closed.
func (s *Server) Run(addr string, stop <-chan struct{}) error {
	go s.batcher.Run(stop)

	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-stop
		srv.Close()
	}()
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.Registry.All()
	out := make([]RoomSnapshot, 0, len(rooms))
	for id, rm := range rooms {
		out = append(out, RoomSnapshot{
			CanvasID:   id,
			LayerCount: rm.LayerCount(),
			UserCount:  rm.UserCount(),
			Dirty:      rm.Dirty(),
			Active:     rm.Active(),
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if s.Index == nil {
		writeJSON(w, []spatial.BoundingBox{})
		return
	}
	q := r.URL.Query()
	canvasID, err := strconv.Atoi(q.Get("canvas"))
	if err != nil {
		http.Error(w, "missing or invalid canvas", http.StatusBadRequest)
		return
	}
	viewport := spatial.BoundingBox{
		X1: parseFloat(q.Get("x1")),
		Y1: parseFloat(q.Get("y1")),
		X2: parseFloat(q.Get("x2")),
		Y2: parseFloat(q.Get("y2")),
	}
	writeJSON(w, s.Index.Query(canvasID, viewport))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if s.AuditLog == nil {
		writeJSON(w, []audit.Event{})
		return
	}
	canvasID, err := strconv.Atoi(r.URL.Query().Get("canvas"))
	if err != nil {
		http.Error(w, "missing or invalid canvas", http.StatusBadRequest)
		return
	}
	limit := defaultTimelineLimit
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	events, err := s.AuditLog.RecentEvents(r.Context(), canvasID, limit)
	if err != nil {
		http.Error(w, "timeline query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	if s.Presence == nil {
		writeJSON(w, map[string]string{})
		return
	}
	canvasID, err := strconv.Atoi(r.URL.Query().Get("canvas"))
	if err != nil {
		http.Error(w, "missing or invalid canvas", http.StatusBadRequest)
		return
	}
	members, err := s.Presence.Members(r.Context(), canvasID)
	if err != nil {
		http.Error(w, "presence query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, members)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	// drain inbound frames (ping/close) until the client disconnects;
	// this connection is push-only otherwise.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) broadcast(batch []Notice) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.Close()
			delete(s.clients, c)
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
