package dashboard

import (
	"context"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/taskforge-hq/taskforge/internal/shared"
	"github.com/taskforge-hq/taskforge/internal/tasks"
	"github.com/taskforge-hq/taskforge/internal/users"
)

// TaskSource supplies task and review data for aggregation.
type TaskSource interface {
	ListByAssignee(ctx context.Context, userID int64) ([]tasks.Task, error)
	ReviewsForTasks(ctx context.Context, taskIDs []int64) ([]tasks.Review, error)
	CountByStatus(ctx context.Context) (total, completed, pending int64, err error)
}

// UserSource supplies the user directory for the admin view.
type UserSource interface {
	ListUsers(ctx context.Context) ([]users.User, error)
}

// TaskSummary holds task counts by lifecycle state.
type TaskSummary struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}

// GradeEntry is a single reviewed task in a user's breakdown.
type GradeEntry struct {
	TaskID    int64  `json:"taskId"`
	TaskTitle string `json:"taskTitle"`
	Grade     string `json:"grade"`
	Points    int    `json:"points"`
}

// UserDashboard is what a principal sees about their own work.
type UserDashboard struct {
	Tasks        TaskSummary  `json:"tasks"`
	Grades       []GradeEntry `json:"grades"`
	AverageGrade string       `json:"averageGrade"`
}

// LeaderboardEntry ranks one user by review average.
type LeaderboardEntry struct {
	UserID       int64  `json:"userId"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ReviewCount  int    `json:"reviewCount"`
	AverageGrade string `json:"averageGrade"`

	average float64
}

// AdminDashboard is the org wide view.
type AdminDashboard struct {
	Tasks       TaskSummary        `json:"tasks"`
	TotalUsers  int                `json:"totalUsers"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// Service aggregates grades and task counts into dashboard views.
type Service struct {
	taskSource TaskSource
	userSource UserSource
	cache      *Cache
	group      singleflight.Group

	// adminConcurrency bounds the per-user aggregation fan-out.
	adminConcurrency int
}

// NewService builds a Service instance. A nil cache disables caching.
func NewService(taskSource TaskSource, userSource UserSource, cache *Cache) *Service {
	return &Service{
		taskSource:       taskSource,
		userSource:       userSource,
		cache:            cache,
		adminConcurrency: 8,
	}
}

// ForUser builds the dashboard for the principal's own tasks and grades.
func (s *Service) ForUser(ctx context.Context, principal *shared.Principal) (UserDashboard, error) {
	if principal == nil {
		return UserDashboard{}, shared.ErrUnauthenticated
	}
	key, err := s.cache.BuildKey(ctx, "dashboard", "user", formatID(principal.ID))
	if err != nil {
		return UserDashboard{}, err
	}
	var result UserDashboard
	err = s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (interface{}, error) {
		return s.buildUserDashboard(ctx, principal.ID)
	})
	return result, err
}

func (s *Service) buildUserDashboard(ctx context.Context, userID int64) (UserDashboard, error) {
	assigned, err := s.taskSource.ListByAssignee(ctx, userID)
	if err != nil {
		return UserDashboard{}, err
	}

	summary := TaskSummary{Total: int64(len(assigned))}
	taskIDs := make([]int64, 0, len(assigned))
	titles := make(map[int64]string, len(assigned))
	for _, task := range assigned {
		taskIDs = append(taskIDs, task.ID)
		titles[task.ID] = task.Title
		switch task.Status {
		case tasks.StatusCompleted:
			summary.Completed++
		case tasks.StatusPending:
			summary.Pending++
		}
	}

	reviews, err := s.taskSource.ReviewsForTasks(ctx, taskIDs)
	if err != nil {
		return UserDashboard{}, err
	}

	entries := make([]GradeEntry, 0, len(reviews))
	grades := make([]tasks.Grade, 0, len(reviews))
	for _, review := range reviews {
		grades = append(grades, review.Grade)
		entries = append(entries, GradeEntry{
			TaskID:    review.TaskID,
			TaskTitle: titles[review.TaskID],
			Grade:     string(review.Grade),
			Points:    GradePoints[review.Grade],
		})
	}

	return UserDashboard{
		Tasks:        summary,
		Grades:       entries,
		AverageGrade: FormatAverage(grades),
	}, nil
}

// ForAdmin builds the org wide dashboard. Concurrent callers share one
// computation; the per-user fan-out is bounded.
func (s *Service) ForAdmin(ctx context.Context) (AdminDashboard, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "admin")
	if err != nil {
		return AdminDashboard{}, err
	}

	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		var result AdminDashboard
		err := s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (interface{}, error) {
			return s.buildAdminDashboard(ctx)
		})
		return result, err
	})
	select {
	case <-ctx.Done():
		return AdminDashboard{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return AdminDashboard{}, res.Err
		}
		return res.Val.(AdminDashboard), nil
	}
}

func (s *Service) buildAdminDashboard(ctx context.Context) (AdminDashboard, error) {
	directory, err := s.userSource.ListUsers(ctx)
	if err != nil {
		return AdminDashboard{}, err
	}

	var summary TaskSummary
	summary.Total, summary.Completed, summary.Pending, err = s.taskSource.CountByStatus(ctx)
	if err != nil {
		return AdminDashboard{}, err
	}

	entries := make([]LeaderboardEntry, len(directory))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.adminConcurrency)
	for i, user := range directory {
		g.Go(func() error {
			board, err := s.buildUserDashboard(gctx, user.ID)
			if err != nil {
				return err
			}
			entry := LeaderboardEntry{
				UserID:       user.ID,
				Name:         user.Name,
				Email:        user.Email,
				ReviewCount:  len(board.Grades),
				AverageGrade: board.AverageGrade,
			}
			grades := make([]tasks.Grade, 0, len(board.Grades))
			for _, item := range board.Grades {
				grades = append(grades, tasks.Grade(item.Grade))
			}
			entry.average, _ = AveragePoints(grades)
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return AdminDashboard{}, err
	}

	leaderboard := make([]LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.ReviewCount == 0 {
			continue
		}
		leaderboard = append(leaderboard, entry)
	}
	sort.SliceStable(leaderboard, func(i, j int) bool {
		if leaderboard[i].average != leaderboard[j].average {
			return leaderboard[i].average > leaderboard[j].average
		}
		return leaderboard[i].UserID < leaderboard[j].UserID
	})

	return AdminDashboard{
		Tasks:       summary,
		TotalUsers:  len(directory),
		Leaderboard: leaderboard,
	}, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Refresh invalidates all cached dashboards and recomputes the admin view.
// Used by the scheduled warmup job.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		return err
	}
	_, err := s.ForAdmin(ctx)
	return err
}
