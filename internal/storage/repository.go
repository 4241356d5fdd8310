package storage

import (
	"context"
	"errors"

	"github.com/propdesk/listing-engine/internal/models"
)

// ErrProjectNotFound is returned when a project id cannot be resolved
var ErrProjectNotFound = errors.New("project not found")

// Repository defines the interface for project record persistence
type Repository interface {
	// FindProject resolves a project by id. Returns ErrProjectNotFound
	// when no record matches.
	FindProject(ctx context.Context, id string) (*models.ProjectRecord, error)

	// CreateProject stores a new record and returns its id
	CreateProject(ctx context.Context, record *models.ProjectRecord) (string, error)

	// ListProjects returns all project records in insertion order
	ListProjects(ctx context.Context, limit, offset int) ([]*models.ProjectRecord, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
