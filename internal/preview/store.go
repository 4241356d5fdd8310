// Package preview manages transient, revocable preview handles for uploaded
// media binaries. A handle is minted when an asset is created and released
// exactly once, either when the asset is removed or when its session is torn
// down. Handles are display references only; they are not durable storage.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrHandleNotFound is returned when a preview handle has been released or
// never existed.
var ErrHandleNotFound = errors.New("preview handle not found")

// Store defines the interface for preview handle storage
type Store interface {
	// Put registers the preview payload for an asset and returns its handle
	Put(ctx context.Context, sessionID, assetID string, contentType string, data []byte) (string, error)

	// Get fetches the payload behind a handle
	Get(ctx context.Context, handle string) (contentType string, data []byte, err error)

	// Release revokes a single handle
	Release(ctx context.Context, handle string) error

	// ReleaseSession revokes every handle minted for a session
	ReleaseSession(ctx context.Context, sessionID string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

func handleKey(sessionID, assetID string) string {
	return fmt.Sprintf("preview:%s:%s", sessionID, assetID)
}

func sessionPrefix(sessionID string) string {
	return fmt.Sprintf("preview:%s:", sessionID)
}

type entry struct {
	contentType string
	data        []byte
}

// MemoryStore implements Store in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryStore creates an empty in-memory preview store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

// Put registers a preview payload
func (s *MemoryStore) Put(ctx context.Context, sessionID, assetID string, contentType string, data []byte) (string, error) {
	handle := handleKey(sessionID, assetID)

	copied := make([]byte, len(data))
	copy(copied, data)

	s.mu.Lock()
	s.entries[handle] = entry{contentType: contentType, data: copied}
	s.mu.Unlock()

	return handle, nil
}

// Get fetches a preview payload
func (s *MemoryStore) Get(ctx context.Context, handle string) (string, []byte, error) {
	s.mu.RLock()
	e, ok := s.entries[handle]
	s.mu.RUnlock()

	if !ok {
		return "", nil, ErrHandleNotFound
	}
	return e.contentType, e.data, nil
}

// Release revokes a single handle
func (s *MemoryStore) Release(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[handle]; !ok {
		return ErrHandleNotFound
	}
	delete(s.entries, handle)
	return nil
}

// ReleaseSession revokes every handle for the session
func (s *MemoryStore) ReleaseSession(ctx context.Context, sessionID string) error {
	prefix := sessionPrefix(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	for handle := range s.entries {
		if len(handle) >= len(prefix) && handle[:len(prefix)] == prefix {
			delete(s.entries, handle)
		}
	}
	return nil
}

// Ping always succeeds for the in-memory store
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}
