package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/taskforge-hq/taskforge/internal/observability"
	"github.com/taskforge-hq/taskforge/internal/rbac"
	"github.com/taskforge-hq/taskforge/internal/shared"
	_ "github.com/taskforge-hq/taskforge/testing"
)

type stubRefresher struct {
	calls int
	err   error
}

func (s *stubRefresher) Refresh(context.Context) error {
	s.calls++
	return s.err
}

func TestDashboardWarmupHandler(t *testing.T) {
	refresher := &stubRefresher{}
	handler := NewDashboardWarmupHandler(refresher, nil, observability.NewMetrics())

	if err := handler(context.Background(), NewDashboardWarmupTask()); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if refresher.calls != 1 {
		t.Fatalf("refresh calls = %d, want 1", refresher.calls)
	}

	refresher.err = errors.New("redis down")
	if err := handler(context.Background(), NewDashboardWarmupTask()); err == nil {
		t.Fatal("expected error to propagate for retry")
	}
}

type stubScanner struct {
	roleEdges, permEdges int64
	err                  error
}

func (s stubScanner) DanglingEdges(context.Context) (int64, int64, error) {
	return s.roleEdges, s.permEdges, s.err
}

func TestRBACIntegrityHandler(t *testing.T) {
	handler := NewRBACIntegrityHandler(stubScanner{roleEdges: 2, permEdges: 1}, nil, observability.NewMetrics())
	if err := handler(context.Background(), NewRBACIntegrityTask()); err != nil {
		t.Fatalf("dangling edges are reported, not an error: %v", err)
	}

	handler = NewRBACIntegrityHandler(stubScanner{err: errors.New("db down")}, nil, observability.NewMetrics())
	if err := handler(context.Background(), NewRBACIntegrityTask()); err == nil {
		t.Fatal("expected scan failure to propagate")
	}
}

func TestTaskTypes(t *testing.T) {
	if got := NewDashboardWarmupTask().Type(); got != TaskDashboardWarmup {
		t.Fatalf("warmup task type = %q", got)
	}
	if got := NewRBACIntegrityTask().Type(); got != TaskRBACIntegrity {
		t.Fatalf("integrity task type = %q", got)
	}
}

type stubEnqueuer struct {
	last string
	err  error
}

func (s *stubEnqueuer) EnqueueDashboardWarmup(context.Context) (*asynq.TaskInfo, error) {
	s.last = TaskDashboardWarmup
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "job-1"}, nil
}

func (s *stubEnqueuer) EnqueueRBACIntegrity(context.Context) (*asynq.TaskInfo, error) {
	s.last = TaskRBACIntegrity
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "job-2"}, nil
}

type stubRoleResolver struct {
	grants []rbac.RoleGrant
}

func (s stubRoleResolver) AssignedRoles(context.Context, int64) ([]rbac.RoleGrant, error) {
	return s.grants, nil
}

type stubPermResolver struct {
	grants []rbac.PermissionGrant
}

func (s stubPermResolver) RolePermissions(context.Context, int64) ([]rbac.PermissionGrant, error) {
	return s.grants, nil
}

func newTriggerRouter(enqueue Enqueuer, permissions ...string) chi.Router {
	roles := stubRoleResolver{grants: []rbac.RoleGrant{
		{UserID: 1, RoleID: 1, Role: &rbac.Role{ID: 1, Name: "Admin"}},
	}}
	var perms stubPermResolver
	for i, name := range permissions {
		perms.grants = append(perms.grants, rbac.PermissionGrant{
			RoleID:       1,
			PermissionID: int64(i + 1),
			Permission:   &rbac.Permission{ID: int64(i + 1), Name: name},
		})
	}
	guard := rbac.Middleware{Service: rbac.NewService(roles, perms, nil)}
	handler := NewHandler(nil, enqueue, guard, slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	r.Route("/jobs", handler.MountRoutes)
	return r
}

func triggerRequest(target string, authenticated bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	if authenticated {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{ID: 1}))
	}
	return req
}

func TestTriggerEndpointsEnqueue(t *testing.T) {
	enqueue := &stubEnqueuer{}
	router := newTriggerRouter(enqueue, shared.PermViewDashboard)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, triggerRequest("/jobs/warmup", true))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("warmup status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if enqueue.last != TaskDashboardWarmup {
		t.Fatalf("enqueued task = %q", enqueue.last)
	}
	if !strings.Contains(rec.Body.String(), "job-1") {
		t.Fatalf("body = %q, want task id", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, triggerRequest("/jobs/rbac-scan", true))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("rbac-scan status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if enqueue.last != TaskRBACIntegrity {
		t.Fatalf("enqueued task = %q", enqueue.last)
	}
}

func TestTriggerEndpointsRequireAuthorization(t *testing.T) {
	enqueue := &stubEnqueuer{}

	router := newTriggerRouter(enqueue, shared.PermViewDashboard)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, triggerRequest("/jobs/warmup", false))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous warmup status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	router = newTriggerRouter(enqueue)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, triggerRequest("/jobs/rbac-scan", true))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("ungranted rbac-scan status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	if enqueue.last != "" {
		t.Fatalf("job %q enqueued despite denial", enqueue.last)
	}
}

func TestTriggerEndpointsUnavailable(t *testing.T) {
	router := newTriggerRouter(&stubEnqueuer{err: errors.New("redis down")}, shared.PermViewDashboard)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, triggerRequest("/jobs/warmup", true))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	router = newTriggerRouter(nil, shared.PermViewDashboard)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, triggerRequest("/jobs/rbac-scan", true))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestWorkerRegistersCron(t *testing.T) {
	worker, err := NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:6379"},
		Handlers: []TaskHandler{
			{Type: TaskDashboardWarmup, Handler: func(context.Context, *asynq.Task) error { return nil }},
		},
		Cron: []CronRegistration{
			{Spec: "*/15 * * * *", Task: NewDashboardWarmupTask()},
		},
	})
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	if worker.scheduler == nil {
		t.Fatal("expected scheduler to be configured")
	}
}
