package mapsurface

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newHubServer(t *testing.T, hub *Hub, sessionID string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		hub.Attach(sessionID, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// Attach runs in the server handler; give it a beat to register
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.Lock()
		_, ok := hub.conns[sessionID]
		hub.mu.Unlock()
		if ok {
			return conn
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("connection never registered with the hub")
	return nil
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func TestSurfaceInitAndMarker(t *testing.T) {
	hub := NewHub()
	conn := newHubServer(t, hub, "sess-1")

	handle, err := hub.Surface("sess-1").Init(18.5204, 73.8567, 13)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Type != "init" || msg.Lat != 18.5204 || msg.Zoom != 13 {
		t.Errorf("unexpected init message: %+v", msg)
	}

	if err := handle.PlaceMarker(18.1, 73.2); err != nil {
		t.Fatalf("PlaceMarker failed: %v", err)
	}
	msg = readMessage(t, conn)
	if msg.Type != "marker" || msg.Lat != 18.1 || msg.Lng != 73.2 {
		t.Errorf("unexpected marker message: %+v", msg)
	}
}

func TestSurfaceDispatchesClickAndDrag(t *testing.T) {
	hub := NewHub()
	conn := newHubServer(t, hub, "sess-1")

	handle, err := hub.Surface("sess-1").Init(0, 0, 13)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	readMessage(t, conn) // init

	clicks := make(chan [2]float64, 1)
	drags := make(chan [2]float64, 1)
	handle.OnClick(func(lat, lng float64) { clicks <- [2]float64{lat, lng} })
	handle.OnMarkerDrag(func(lat, lng float64) { drags <- [2]float64{lat, lng} })

	if err := conn.WriteJSON(Message{Type: "click", Lat: 1.5, Lng: 2.5}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	select {
	case got := <-clicks:
		if got != [2]float64{1.5, 2.5} {
			t.Errorf("unexpected click position %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("click never dispatched")
	}

	if err := conn.WriteJSON(Message{Type: "drag", Lat: 3.5, Lng: 4.5}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	select {
	case got := <-drags:
		if got != [2]float64{3.5, 4.5} {
			t.Errorf("unexpected drag position %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("drag never dispatched")
	}
}

func TestHandleDispose(t *testing.T) {
	hub := NewHub()
	conn := newHubServer(t, hub, "sess-1")

	handle, err := hub.Surface("sess-1").Init(0, 0, 13)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	readMessage(t, conn) // init

	fired := make(chan struct{}, 1)
	handle.OnClick(func(lat, lng float64) { fired <- struct{}{} })

	if err := handle.Dispose(); err != nil {
		t.Fatalf("Dispose failed: %v", err)
	}
	msg := readMessage(t, conn)
	if msg.Type != "dispose" {
		t.Errorf("expected dispose message, got %+v", msg)
	}

	// Disposed handles reject pushes and drop events
	if err := handle.PlaceMarker(1, 2); err != ErrUnavailable {
		t.Errorf("PlaceMarker after dispose: got %v, want ErrUnavailable", err)
	}
	conn.WriteJSON(Message{Type: "click", Lat: 1, Lng: 2})
	select {
	case <-fired:
		t.Error("disposed handle still dispatched a click")
	case <-time.After(50 * time.Millisecond):
	}

	// Idempotent
	if err := handle.Dispose(); err != nil {
		t.Errorf("second Dispose must be a no-op, got %v", err)
	}
}

func TestInitWithoutConnection(t *testing.T) {
	hub := NewHub()

	if _, err := hub.Surface("nobody-home").Init(0, 0, 13); err != ErrUnavailable {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}

func TestPushNavigate(t *testing.T) {
	hub := NewHub()
	conn := newHubServer(t, hub, "sess-1")

	hub.PushNavigate("sess-1", "/")
	msg := readMessage(t, conn)
	if msg.Type != "navigate" || msg.Path != "/" {
		t.Errorf("unexpected navigate message: %+v", msg)
	}

	// No connection: dropped silently
	hub.PushNavigate("sess-2", "/")
}
