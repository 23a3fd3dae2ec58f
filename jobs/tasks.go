package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup refreshes the cached dashboards.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskRBACIntegrity scans the role graph for dangling edges.
	TaskRBACIntegrity = "rbac:integrity"
)

// NewDashboardWarmupTask constructs the warmup task. It carries no payload.
func NewDashboardWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardWarmup, nil)
}

// NewRBACIntegrityTask constructs the integrity scan task.
func NewRBACIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskRBACIntegrity, nil)
}
