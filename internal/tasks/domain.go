package tasks

import (
	"fmt"
	"time"

	"github.com/taskforge-hq/taskforge/internal/shared"
)

// Status is a task's lifecycle state. Tasks are created PENDING; the
// transition to COMPLETED is not one-way, reverting is allowed by the same
// ownership rule that permits advancing.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// ParseStatus validates a status value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusCompleted:
		return Status(raw), nil
	}
	return "", fmt.Errorf("%w: invalid status %q", shared.ErrValidation, raw)
}

// Grade is the letter outcome of a review. The set is a persisted contract.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeX Grade = "X"
)

// ParseGrade validates a grade value.
func ParseGrade(raw string) (Grade, error) {
	switch Grade(raw) {
	case GradeA, GradeB, GradeC, GradeD, GradeX:
		return Grade(raw), nil
	}
	return "", fmt.Errorf("%w: invalid grade %q", shared.ErrValidation, raw)
}

// Task is a gradable unit of work. It belongs to exactly one project and is
// assigned to exactly one principal.
type Task struct {
	ID          int64
	ProjectID   int64
	AssignedTo  int64
	Title       string
	Description string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Review is a graded outcome, at most one per task.
type Review struct {
	ID        int64
	TaskID    int64
	Grade     Grade
	Comments  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReviewDetail is a review joined with task and assignee context for listings.
type ReviewDetail struct {
	Review
	TaskTitle     string
	AssigneeName  string
	AssigneeEmail string
}
