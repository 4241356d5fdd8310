package api

import (
	"context"
	"log/slog"
	"sync"

	"github.com/propdesk/listing-engine/internal/mapsurface"
	"github.com/propdesk/listing-engine/internal/session"
)

// Navigation moves a headless front end between routes. When the session's
// map widget is connected over websocket the instruction is pushed there;
// otherwise the route change is only logged and the client discovers it via
// the snapshot's redirect_to field on its next poll.
type hubNavigator struct {
	hub       *mapsurface.Hub
	sessionID string
}

// NewNavigatorFactory builds per-session navigators bound to the map hub's
// websocket connections.
func NewNavigatorFactory(hub *mapsurface.Hub) func(sessionID string) session.Navigator {
	return func(sessionID string) session.Navigator {
		return &hubNavigator{hub: hub, sessionID: sessionID}
	}
}

// GoTo pushes a navigate instruction to the connected client, if any
func (n *hubNavigator) GoTo(ctx context.Context, path string) error {
	slog.Info("navigating client", "session_id", n.sessionID, "path", path)
	n.hub.PushNavigate(n.sessionID, path)
	return nil
}

// RecordingNavigator remembers the last path per session. It backs tests and
// deployments without a connected websocket client.
type RecordingNavigator struct {
	mu   sync.Mutex
	path string
}

// GoTo records the path
func (n *RecordingNavigator) GoTo(ctx context.Context, path string) error {
	n.mu.Lock()
	n.path = path
	n.mu.Unlock()
	return nil
}

// Path returns the last recorded path
func (n *RecordingNavigator) Path() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}
