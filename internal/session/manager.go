package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/propdesk/listing-engine/internal/catalog"
	"github.com/propdesk/listing-engine/internal/mapsurface"
	"github.com/propdesk/listing-engine/internal/preview"
	"github.com/propdesk/listing-engine/internal/storage"
)

// ManagerConfig holds the session lifecycle knobs
type ManagerConfig struct {
	TTL           time.Duration
	LoadDelay     time.Duration
	RedirectDelay time.Duration
	ListPath      string

	DefaultLat float64
	DefaultLng float64
	Zoom       int
}

// Manager owns all live edit sessions and the collaborators they share
type Manager struct {
	cfg      ManagerConfig
	repo     storage.Repository
	previews preview.Store
	surfaces mapsurface.Provider
	notifier Notifier
	catalog  *catalog.Catalog

	// navFactory builds the navigator for a new session, letting the
	// transport layer surface per-session redirects.
	navFactory func(sessionID string) Navigator

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager
func NewManager(
	cfg ManagerConfig,
	repo storage.Repository,
	previews preview.Store,
	surfaces mapsurface.Provider,
	notifier Notifier,
	cat *catalog.Catalog,
	navFactory func(sessionID string) Navigator,
) *Manager {
	if cfg.ListPath == "" {
		cfg.ListPath = "/"
	}
	return &Manager{
		cfg:        cfg,
		repo:       repo,
		previews:   previews,
		surfaces:   surfaces,
		notifier:   notifier,
		catalog:    cat,
		navFactory: navFactory,
		sessions:   make(map[string]*Session),
	}
}

// Open starts an edit session for a project id. The session comes back in
// the loading state; the record fetch resolves it to editing or not-found.
func (m *Manager) Open(projectID string) *Session {
	id := uuid.New().String()

	var surface mapsurface.Surface
	if m.surfaces != nil {
		surface = m.surfaces.Surface(id)
	}
	picker := NewPicker(surface, m.cfg.DefaultLat, m.cfg.DefaultLng, m.cfg.Zoom)

	s := NewSession(SessionParams{
		ID:             id,
		ProjectID:      projectID,
		TTL:            m.cfg.TTL,
		LoadDelay:      m.cfg.LoadDelay,
		RedirectDelay:  m.cfg.RedirectDelay,
		ListPath:       m.cfg.ListPath,
		Repo:           m.repo,
		Previews:       m.previews,
		Notifier:       m.notifier,
		Navigator:      m.navFactory(id),
		AmenityOptions: m.catalog.Amenities(),
		Picker:         picker,
	})

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	slog.Info("edit session opened", "session_id", id, "project_id", projectID)
	return s
}

// Get resolves a live session by id
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close tears down one session and forgets it
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	return s.Close(ctx)
}

// CloseExpired tears down every session past its TTL and returns how many
// were closed. Called periodically by the cleanup worker.
func (m *Manager) CloseExpired(ctx context.Context) int {
	now := time.Now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.Expired(now) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		if err := s.Close(ctx); err != nil {
			slog.Warn("failed to close expired session", "error", err, "session_id", s.ID)
		}
	}

	if len(expired) > 0 {
		slog.Info("closed expired edit sessions", "count", len(expired))
	}
	return len(expired)
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every live session
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	remaining := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		remaining = append(remaining, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range remaining {
		if err := s.Close(ctx); err != nil {
			slog.Warn("failed to close session on shutdown", "error", err, "session_id", s.ID)
		}
	}
}
