package jobs

import (
	"context"

	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/taskforge-hq/taskforge/internal/observability"
)

// DashboardRefresher recomputes and caches the dashboard views.
type DashboardRefresher interface {
	Refresh(ctx context.Context) error
}

// NewDashboardWarmupHandler builds the asynq handler for TaskDashboardWarmup.
func NewDashboardWarmupHandler(refresher DashboardRefresher, logger *slog.Logger, metrics *observability.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		err := refresher.Refresh(ctx)
		metrics.ObserveJob(TaskDashboardWarmup, err)
		if err != nil {
			if logger != nil {
				logger.Error("dashboard warmup failed", slog.Any("error", err))
			}
			return err
		}
		if logger != nil {
			logger.Info("dashboard warmup completed")
		}
		return nil
	}
}
