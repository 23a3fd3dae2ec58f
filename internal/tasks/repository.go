package tasks

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

const taskColumns = `id, project_id, assigned_to, title, description, status, created_at, updated_at`

func scanTask(row pgx.Row) (Task, error) {
	var task Task
	err := row.Scan(&task.ID, &task.ProjectID, &task.AssignedTo, &task.Title, &task.Description, &task.Status, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, shared.ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

// Create inserts a task in PENDING state.
func (r *Repository) Create(ctx context.Context, projectID, assignedTo int64, title, description string) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO tasks (project_id, assigned_to, title, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING `+taskColumns, projectID, assignedTo, title, description, string(StatusPending)))
}

// GetByID fetches a task.
func (r *Repository) GetByID(ctx context.Context, id int64) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

// ListByAssignee returns all tasks assigned to the user.
func (r *Repository) ListByAssignee(ctx context.Context, userID int64) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE assigned_to = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Task
	for rows.Next() {
		var task Task
		if err := rows.Scan(&task.ID, &task.ProjectID, &task.AssignedTo, &task.Title, &task.Description, &task.Status, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}

// UpdateStatus sets a task's status and returns the updated row.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+taskColumns, id, string(status)))
}

// UpsertReview creates or replaces the review for a task. The task_id unique
// constraint is the safety net for concurrent submissions; last writer wins.
func (r *Repository) UpsertReview(ctx context.Context, taskID int64, grade Grade, comments string) (Review, error) {
	var review Review
	err := r.pool.QueryRow(ctx, `
		INSERT INTO task_reviews (task_id, grade, comments, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (task_id) DO UPDATE
		SET grade = EXCLUDED.grade, comments = EXCLUDED.comments, updated_at = NOW()
		RETURNING id, task_id, grade, comments, created_at, updated_at`,
		taskID, string(grade), comments).
		Scan(&review.ID, &review.TaskID, &review.Grade, &review.Comments, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return Review{}, err
	}
	return review, nil
}

// ListReviews returns all reviews joined with task and assignee context.
func (r *Repository) ListReviews(ctx context.Context) ([]ReviewDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tr.id, tr.task_id, tr.grade, tr.comments, tr.created_at, tr.updated_at,
		       t.title, u.name, u.email
		FROM task_reviews tr
		JOIN tasks t ON t.id = tr.task_id
		JOIN users u ON u.id = t.assigned_to
		ORDER BY tr.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ReviewDetail
	for rows.Next() {
		var detail ReviewDetail
		if err := rows.Scan(&detail.ID, &detail.TaskID, &detail.Grade, &detail.Comments, &detail.CreatedAt, &detail.UpdatedAt,
			&detail.TaskTitle, &detail.AssigneeName, &detail.AssigneeEmail); err != nil {
			return nil, err
		}
		result = append(result, detail)
	}
	return result, rows.Err()
}

// ReviewsForTasks returns (taskID, grade) pairs for the given tasks in task
// order. Used by dashboard aggregation.
func (r *Repository) ReviewsForTasks(ctx context.Context, taskIDs []int64) ([]Review, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, grade, comments, created_at, updated_at
		FROM task_reviews WHERE task_id = ANY($1) ORDER BY id`, taskIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Review
	for rows.Next() {
		var review Review
		if err := rows.Scan(&review.ID, &review.TaskID, &review.Grade, &review.Comments, &review.CreatedAt, &review.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, review)
	}
	return result, rows.Err()
}

// CountByStatus returns global task counts. Used by the admin dashboard.
func (r *Repository) CountByStatus(ctx context.Context) (total, completed, pending int64, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $1),
		       COUNT(*) FILTER (WHERE status = $2)
		FROM tasks`, string(StatusCompleted), string(StatusPending)).
		Scan(&total, &completed, &pending)
	return total, completed, pending, err
}
