package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/propdesk/listing-engine/internal/models"
)

// MemoryRepository implements Repository in process memory. It replaces the
// ambient demo-data arrays of the legacy dashboard: the seed is injected at
// construction time and no module-level mutable state exists.
type MemoryRepository struct {
	mu       sync.RWMutex
	projects map[string]*models.ProjectRecord
	order    []string
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		projects: make(map[string]*models.ProjectRecord),
	}
}

// NewSeededRepository creates an in-memory repository preloaded with the
// demo projects the back office ships with.
func NewSeededRepository() *MemoryRepository {
	r := NewMemoryRepository()
	now := time.Now()
	for _, p := range []models.ProjectRecord{
		{ID: "1", Name: "Serenity Heights", Code: "SH7625AE4", Completion: 81},
		{ID: "2", Name: "Urban Oasis Towers", Code: "UO123F67", Completion: 45},
		{ID: "3", Name: "Riverside Residences", Code: "RR567D89", Completion: 92},
		{ID: "4", Name: "Golden Valley Estates", Code: "GV890E12", Completion: 32},
		{ID: "5", Name: "Skyline Apartments", Code: "SA456F78", Completion: 67},
	} {
		record := p
		record.CreatedAt = now
		r.projects[record.ID] = &record
		r.order = append(r.order, record.ID)
	}
	return r
}

// FindProject resolves a project by id
func (r *MemoryRepository) FindProject(ctx context.Context, id string) (*models.ProjectRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}

	copied := *record
	return &copied, nil
}

// CreateProject stores a new record and returns its id
func (r *MemoryRepository) CreateProject(ctx context.Context, record *models.ProjectRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *record
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	if _, exists := r.projects[stored.ID]; !exists {
		r.order = append(r.order, stored.ID)
	}
	r.projects[stored.ID] = &stored

	return stored.ID, nil
}

// ListProjects returns records in insertion order
func (r *MemoryRepository) ListProjects(ctx context.Context, limit, offset int) ([]*models.ProjectRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)

	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([]*models.ProjectRecord, 0, len(ids))
	for _, id := range ids {
		copied := *r.projects[id]
		out = append(out, &copied)
	}
	return out, nil
}

// Ping always succeeds for the in-memory repository
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory repository
func (r *MemoryRepository) Close() error {
	return nil
}
