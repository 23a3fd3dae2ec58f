package jobs

import (
	"context"

	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/taskforge-hq/taskforge/internal/observability"
)

// EdgeScanner counts assignments and grants that reference missing rows.
type EdgeScanner interface {
	DanglingEdges(ctx context.Context) (roleEdges, permissionEdges int64, err error)
}

// NewRBACIntegrityHandler builds the asynq handler for TaskRBACIntegrity. The
// evaluator already tolerates dangling edges at read time; this scan surfaces
// them so operators can clean up the graph.
func NewRBACIntegrityHandler(scanner EdgeScanner, logger *slog.Logger, metrics *observability.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		roleEdges, permissionEdges, err := scanner.DanglingEdges(ctx)
		metrics.ObserveJob(TaskRBACIntegrity, err)
		if err != nil {
			if logger != nil {
				logger.Error("rbac integrity scan failed", slog.Any("error", err))
			}
			return err
		}
		if logger == nil {
			return nil
		}
		if roleEdges == 0 && permissionEdges == 0 {
			logger.Info("rbac integrity scan clean")
			return nil
		}
		logger.Warn("rbac integrity scan found dangling edges",
			slog.Int64("role_edges", roleEdges),
			slog.Int64("permission_edges", permissionEdges))
		return nil
	}
}
