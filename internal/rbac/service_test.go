package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/taskforge-hq/taskforge/internal/shared"
)

type fakeGraph struct {
	roles    map[int64][]RoleGrant
	perms    map[int64][]PermissionGrant
	rolesErr error
	permsErr error
}

func (f *fakeGraph) AssignedRoles(ctx context.Context, userID int64) ([]RoleGrant, error) {
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return f.roles[userID], nil
}

func (f *fakeGraph) RolePermissions(ctx context.Context, roleID int64) ([]PermissionGrant, error) {
	if f.permsErr != nil {
		return nil, f.permsErr
	}
	return f.perms[roleID], nil
}

type recordingDiag struct {
	danglingRoles int
	danglingPerms int
	missingRoles  int
	denied        int
}

func (d *recordingDiag) DanglingRole(context.Context, int64, int64)       { d.danglingRoles++ }
func (d *recordingDiag) DanglingPermission(context.Context, int64, int64) { d.danglingPerms++ }
func (d *recordingDiag) MissingRoles(context.Context, int64)              { d.missingRoles++ }
func (d *recordingDiag) PermissionDenied(context.Context, int64, string)  { d.denied++ }

func role(id int64, name string) *Role {
	return &Role{ID: id, Name: name}
}

func perm(id int64, name string) *Permission {
	return &Permission{ID: id, Name: name}
}

func TestAuthorizeNoRolesDenies(t *testing.T) {
	diag := &recordingDiag{}
	svc := NewService(&fakeGraph{}, &fakeGraph{}, diag)

	for _, p := range shared.CoreScopes() {
		decision, err := svc.Authorize(context.Background(), 7, p)
		if err != nil {
			t.Fatalf("Authorize(%s) error = %v", p, err)
		}
		if decision.Allowed {
			t.Fatalf("expected DENY for user without roles, permission %s", p)
		}
		if decision.Reason != DenyNoRoles {
			t.Fatalf("expected reason %q got %q", DenyNoRoles, decision.Reason)
		}
	}
	if diag.missingRoles == 0 {
		t.Fatal("expected missing-roles diagnostic")
	}
}

func TestAuthorizeUnionAcrossRoles(t *testing.T) {
	graph := &fakeGraph{
		roles: map[int64][]RoleGrant{
			1: {
				{UserID: 1, RoleID: 10, Role: role(10, "Employee")},
				{UserID: 1, RoleID: 11, Role: role(11, "Intern")},
			},
		},
		perms: map[int64][]PermissionGrant{
			10: {{RoleID: 10, PermissionID: 100, Permission: perm(100, "CREATE_TASK")}},
			11: {{RoleID: 11, PermissionID: 101, Permission: perm(101, "VIEW_DASHBOARD")}},
		},
	}
	svc := NewService(graph, graph, nil)

	for _, tc := range []struct {
		permission string
		want       bool
	}{
		{"CREATE_TASK", true},
		{"VIEW_DASHBOARD", true},
		{"CREATE_PROJECT", false},
	} {
		decision, err := svc.Authorize(context.Background(), 1, tc.permission)
		if err != nil {
			t.Fatalf("Authorize(%s) error = %v", tc.permission, err)
		}
		if decision.Allowed != tc.want {
			t.Fatalf("Authorize(%s) = %v, want %v", tc.permission, decision.Allowed, tc.want)
		}
	}
}

func TestAuthorizeSkipsDanglingEdges(t *testing.T) {
	graph := &fakeGraph{
		roles: map[int64][]RoleGrant{
			1: {
				{UserID: 1, RoleID: 99}, // role row deleted
				{UserID: 1, RoleID: 10, Role: role(10, "Employee")},
			},
		},
		perms: map[int64][]PermissionGrant{
			10: {
				{RoleID: 10, PermissionID: 999}, // permission row deleted
				{RoleID: 10, PermissionID: 100, Permission: perm(100, "CREATE_TASK")},
			},
		},
	}
	diag := &recordingDiag{}
	svc := NewService(graph, graph, diag)

	decision, err := svc.Authorize(context.Background(), 1, "CREATE_TASK")
	if err != nil {
		t.Fatalf("Authorize error = %v", err)
	}
	if !decision.Allowed {
		t.Fatal("expected ALLOW despite dangling edges")
	}
	if diag.danglingRoles != 1 {
		t.Fatalf("expected 1 dangling role event, got %d", diag.danglingRoles)
	}
	if diag.danglingPerms != 1 {
		t.Fatalf("expected 1 dangling permission event, got %d", diag.danglingPerms)
	}

	// Dangling edges only remove grants, never add them.
	decision, err = svc.Authorize(context.Background(), 1, "REVIEW_TASK")
	if err != nil {
		t.Fatalf("Authorize error = %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected DENY for permission only reachable through dangling edge")
	}
}

func TestAuthorizeFailsClosedOnResolverError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(&fakeGraph{rolesErr: boom}, &fakeGraph{}, nil)

	decision, err := svc.Authorize(context.Background(), 1, "CREATE_TASK")
	if err == nil {
		t.Fatal("expected error from failing resolver")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped resolver error, got %v", err)
	}
	if decision.Allowed {
		t.Fatal("evaluation failure must never yield ALLOW")
	}

	graph := &fakeGraph{
		roles: map[int64][]RoleGrant{
			1: {{UserID: 1, RoleID: 10, Role: role(10, "Employee")}},
		},
		permsErr: boom,
	}
	svc = NewService(graph, graph, nil)
	decision, err = svc.Authorize(context.Background(), 1, "CREATE_TASK")
	if err == nil || decision.Allowed {
		t.Fatal("permission resolver failure must propagate and deny")
	}
}

func TestEffectivePermissionsDeduplicates(t *testing.T) {
	graph := &fakeGraph{
		roles: map[int64][]RoleGrant{
			1: {
				{UserID: 1, RoleID: 10, Role: role(10, "Admin")},
				{UserID: 1, RoleID: 11, Role: role(11, "Employee")},
			},
		},
		perms: map[int64][]PermissionGrant{
			10: {
				{RoleID: 10, PermissionID: 100, Permission: perm(100, "CREATE_TASK")},
				{RoleID: 10, PermissionID: 101, Permission: perm(101, "CREATE_PROJECT")},
			},
			11: {
				{RoleID: 11, PermissionID: 100, Permission: perm(100, "CREATE_TASK")},
			},
		},
	}
	svc := NewService(graph, graph, nil)

	perms, err := svc.EffectivePermissions(context.Background(), 1)
	if err != nil {
		t.Fatalf("EffectivePermissions error = %v", err)
	}
	want := []string{"CREATE_PROJECT", "CREATE_TASK"}
	if len(perms) != len(want) {
		t.Fatalf("expected %v got %v", want, perms)
	}
	for i := range want {
		if perms[i] != want[i] {
			t.Fatalf("expected %v got %v", want, perms)
		}
	}
}

func visibilityGraph(roleNames ...string) *fakeGraph {
	graph := &fakeGraph{roles: map[int64][]RoleGrant{}, perms: map[int64][]PermissionGrant{}}
	for i, name := range roleNames {
		id := int64(10 + i)
		graph.roles[1] = append(graph.roles[1], RoleGrant{UserID: 1, RoleID: id, Role: role(id, name)})
	}
	return graph
}

func TestVisibilityLattice(t *testing.T) {
	cases := []struct {
		name  string
		roles []string
		want  Scope
	}{
		{"admin", []string{"Admin"}, ScopeAll},
		{"employee", []string{"Employee"}, ScopeEmployee},
		{"intern", []string{"Intern"}, ScopeIntern},
		{"admin wins over employee", []string{"Intern", "Employee", "Admin"}, ScopeAll},
		{"employee wins over intern", []string{"Intern", "Employee"}, ScopeEmployee},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			graph := visibilityGraph(tc.roles...)
			svc := NewService(graph, graph, nil)
			scope, err := svc.VisibilityFor(context.Background(), 1)
			if err != nil {
				t.Fatalf("VisibilityFor error = %v", err)
			}
			if scope != tc.want {
				t.Fatalf("VisibilityFor = %v, want %v", scope, tc.want)
			}
		})
	}
}

func TestVisibilityNoRecognizedRole(t *testing.T) {
	graph := visibilityGraph("Contractor")
	svc := NewService(graph, graph, nil)

	if _, err := svc.VisibilityFor(context.Background(), 1); !errors.Is(err, shared.ErrNoAccess) {
		t.Fatalf("expected ErrNoAccess, got %v", err)
	}

	empty := &fakeGraph{}
	svc = NewService(empty, empty, nil)
	if _, err := svc.VisibilityFor(context.Background(), 1); !errors.Is(err, shared.ErrNoAccess) {
		t.Fatalf("expected ErrNoAccess for empty role set, got %v", err)
	}
}
