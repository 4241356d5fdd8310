package mapsurface

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Message is the wire format exchanged with a connected map client.
// Inbound: click, drag. Outbound: init, marker, dispose, navigate.
type Message struct {
	Type string  `json:"type"`
	Lat  float64 `json:"lat,omitempty"`
	Lng  float64 `json:"lng,omitempty"`
	Zoom int     `json:"zoom,omitempty"`
	Path string  `json:"path,omitempty"`
}

// Hub tracks the map client connected to each edit session. A session has at
// most one live connection; the picker acquires a handle against it via
// Surface(sessionID).Init.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*mapConn
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{conns: make(map[string]*mapConn)}
}

type mapConn struct {
	sessionID string
	conn      *websocket.Conn
	writeMu   sync.Mutex

	mu     sync.Mutex
	handle *wsHandle
}

// Attach binds a websocket connection as the session's map surface and
// blocks reading it until the client disconnects. A previous connection for
// the same session is replaced.
func (h *Hub) Attach(sessionID string, conn *websocket.Conn) {
	mc := &mapConn{sessionID: sessionID, conn: conn}

	h.mu.Lock()
	if old := h.conns[sessionID]; old != nil {
		old.conn.Close()
	}
	h.conns[sessionID] = mc
	h.mu.Unlock()

	slog.Info("map surface connected", "session_id", sessionID)
	h.readLoop(mc)

	h.mu.Lock()
	if h.conns[sessionID] == mc {
		delete(h.conns, sessionID)
	}
	h.mu.Unlock()

	slog.Info("map surface disconnected", "session_id", sessionID)
}

// readLoop dispatches inbound click/drag events to the live handle, if any
func (h *Hub) readLoop(mc *mapConn) {
	for {
		_, raw, err := mc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("map websocket read error", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.Debug("invalid map message", "error", err)
			continue
		}

		mc.mu.Lock()
		handle := mc.handle
		mc.mu.Unlock()
		if handle == nil {
			// No picker editing right now; event belongs to a closed cycle
			slog.Debug("map event without live handle", "type", msg.Type, "session_id", mc.sessionID)
			continue
		}

		switch msg.Type {
		case "click":
			handle.dispatchClick(msg.Lat, msg.Lng)
		case "drag":
			handle.dispatchDrag(msg.Lat, msg.Lng)
		}
	}
}

// PushNavigate tells the session's connected client to change routes.
// Without a connection the instruction is dropped silently; polling clients
// pick the redirect up from the session snapshot instead.
func (h *Hub) PushNavigate(sessionID, path string) {
	h.mu.Lock()
	mc := h.conns[sessionID]
	h.mu.Unlock()

	if mc == nil {
		return
	}
	if err := mc.send(Message{Type: "navigate", Path: path}); err != nil {
		slog.Debug("navigate push failed", "error", err, "session_id", sessionID)
	}
}

// Surface returns the Surface bound to a session id
func (h *Hub) Surface(sessionID string) Surface {
	return &wsSurface{hub: h, sessionID: sessionID}
}

type wsSurface struct {
	hub       *Hub
	sessionID string
}

// Init acquires a handle over the session's connected client
func (s *wsSurface) Init(lat, lng float64, zoom int) (Handle, error) {
	s.hub.mu.Lock()
	mc := s.hub.conns[s.sessionID]
	s.hub.mu.Unlock()

	if mc == nil {
		return nil, ErrUnavailable
	}

	handle := &wsHandle{mc: mc}

	mc.mu.Lock()
	mc.handle = handle
	mc.mu.Unlock()

	if err := mc.send(Message{Type: "init", Lat: lat, Lng: lng, Zoom: zoom}); err != nil {
		mc.detach(handle)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return handle, nil
}

func (mc *mapConn) send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	mc.writeMu.Lock()
	defer mc.writeMu.Unlock()
	return mc.conn.WriteMessage(websocket.TextMessage, data)
}

// detach clears the live handle if it is still the given one
func (mc *mapConn) detach(h *wsHandle) {
	mc.mu.Lock()
	if mc.handle == h {
		mc.handle = nil
	}
	mc.mu.Unlock()
}

type wsHandle struct {
	mc *mapConn

	mu       sync.Mutex
	disposed bool
	click    Callback
	drag     Callback
}

// PlaceMarker pushes the marker position to the client
func (h *wsHandle) PlaceMarker(lat, lng float64) error {
	h.mu.Lock()
	disposed := h.disposed
	h.mu.Unlock()
	if disposed {
		return ErrUnavailable
	}

	return h.mc.send(Message{Type: "marker", Lat: lat, Lng: lng})
}

// OnClick registers the click listener
func (h *wsHandle) OnClick(cb Callback) {
	h.mu.Lock()
	h.click = cb
	h.mu.Unlock()
}

// OnMarkerDrag registers the drag-release listener
func (h *wsHandle) OnMarkerDrag(cb Callback) {
	h.mu.Lock()
	h.drag = cb
	h.mu.Unlock()
}

// Dispose detaches listeners and tells the client to drop the surface
func (h *wsHandle) Dispose() error {
	h.mu.Lock()
	if h.disposed {
		h.mu.Unlock()
		return nil
	}
	h.disposed = true
	h.click = nil
	h.drag = nil
	h.mu.Unlock()

	h.mc.detach(h)
	return h.mc.send(Message{Type: "dispose"})
}

func (h *wsHandle) dispatchClick(lat, lng float64) {
	h.mu.Lock()
	cb := h.click
	h.mu.Unlock()
	if cb != nil {
		cb(lat, lng)
	}
}

func (h *wsHandle) dispatchDrag(lat, lng float64) {
	h.mu.Lock()
	cb := h.drag
	h.mu.Unlock()
	if cb != nil {
		cb(lat, lng)
	}
}
