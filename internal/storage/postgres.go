package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propdesk/listing-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// FindProject resolves a project by id
func (r *PostgresRepository) FindProject(ctx context.Context, id string) (*models.ProjectRecord, error) {
	query := `
		SELECT id, name, code, completion, type, created_at
		FROM projects
		WHERE id = $1
	`

	var record models.ProjectRecord
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&record.ID,
		&record.Name,
		&record.Code,
		&record.Completion,
		&record.Type,
		&record.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &record, nil
}

// CreateProject stores a new record and returns its id
func (r *PostgresRepository) CreateProject(ctx context.Context, record *models.ProjectRecord) (string, error) {
	id := record.ID
	if id == "" {
		id = uuid.New().String()
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO projects (id, name, code, completion, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, code = EXCLUDED.code,
		    completion = EXCLUDED.completion, type = EXCLUDED.type
	`

	_, err := r.pool.Exec(ctx, query,
		id,
		record.Name,
		record.Code,
		record.Completion,
		record.Type,
		createdAt,
	)

	if err != nil {
		return "", fmt.Errorf("failed to create project: %w", err)
	}

	return id, nil
}

// ListProjects returns records ordered by creation time
func (r *PostgresRepository) ListProjects(ctx context.Context, limit, offset int) ([]*models.ProjectRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, name, code, completion, type, created_at
		FROM projects
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var records []*models.ProjectRecord
	for rows.Next() {
		var record models.ProjectRecord
		if err := rows.Scan(
			&record.ID,
			&record.Name,
			&record.Code,
			&record.Completion,
			&record.Type,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}
