package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskforge-hq/taskforge/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, title, description, visibility, created_at, updated_at`

// Create inserts a new project.
func (r *Repository) Create(ctx context.Context, title, description string, visibility Visibility) (Project, error) {
	var project Project
	err := r.pool.QueryRow(ctx, `
		INSERT INTO projects (title, description, visibility, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING `+projectColumns, title, description, string(visibility)).
		Scan(&project.ID, &project.Title, &project.Description, &project.Visibility, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	return project, nil
}

// GetByID fetches a project.
func (r *Repository) GetByID(ctx context.Context, id int64) (Project, error) {
	var project Project
	err := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id).
		Scan(&project.ID, &project.Title, &project.Description, &project.Visibility, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, shared.ErrNotFound
		}
		return Project{}, err
	}
	return project, nil
}

// List returns projects filtered to the given tiers. A nil tier slice means no
// filter; an empty non-nil slice matches nothing.
func (r *Repository) List(ctx context.Context, tiers []Visibility) ([]Project, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if tiers == nil {
		rows, err = r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	} else {
		values := make([]string, len(tiers))
		for i, tier := range tiers {
			values[i] = string(tier)
		}
		rows, err = r.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects WHERE visibility = ANY($1) ORDER BY id`, values)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Project
	for rows.Next() {
		var project Project
		if err := rows.Scan(&project.ID, &project.Title, &project.Description, &project.Visibility, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, project)
	}
	return result, rows.Err()
}
