package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskforge-hq/taskforge/internal/auth"
	"github.com/taskforge-hq/taskforge/internal/rbac"
	"github.com/taskforge-hq/taskforge/internal/shared"
	_ "github.com/taskforge-hq/taskforge/testing"
)

type stubRepo struct {
	users     map[string]*auth.User
	byID      map[int64]*auth.User
	nextID    int64
	sessions  map[string]int64
	createErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:    map[string]*auth.User{},
		byID:     map[int64]*auth.User{},
		nextID:   1,
		sessions: map[string]int64{},
	}
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func (s *stubRepo) CreateUser(ctx context.Context, name, email, passwordHash string) (*auth.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, exists := s.users[email]; exists {
		return nil, shared.ErrDuplicate
	}
	user := &auth.User{ID: s.nextID, Email: email, Name: name, PasswordHash: passwordHash, IsActive: true}
	s.nextID++
	s.users[email] = user
	s.byID[user.ID] = user
	return user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type stubRoles struct {
	roles     map[string]rbac.Role
	assigned  map[int64][]int64
	roleNames map[int64][]string
	perms     map[int64][]string
}

func newStubRoles() *stubRoles {
	return &stubRoles{
		roles: map[string]rbac.Role{
			"Admin":    {ID: 1, Name: "Admin"},
			"Employee": {ID: 2, Name: "Employee"},
			"Intern":   {ID: 3, Name: "Intern"},
		},
		assigned:  map[int64][]int64{},
		roleNames: map[int64][]string{},
		perms:     map[int64][]string{},
	}
}

func (s *stubRoles) FindRoleByName(ctx context.Context, name string) (rbac.Role, error) {
	role, ok := s.roles[name]
	if !ok {
		return rbac.Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (s *stubRoles) AssignRole(ctx context.Context, userID, roleID int64) error {
	s.assigned[userID] = append(s.assigned[userID], roleID)
	return nil
}

func (s *stubRoles) RoleNames(ctx context.Context, userID int64) ([]string, error) {
	return s.roleNames[userID], nil
}

func (s *stubRoles) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.perms[userID], nil
}

func newService(repo *stubRepo, roles *stubRoles) *auth.Service {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return auth.NewService(repo, roles, roles, tokens)
}

func TestRegisterClampsAdminToIntern(t *testing.T) {
	repo := newStubRepo()
	roles := newStubRoles()
	svc := newService(repo, roles)

	reg, err := svc.Register(context.Background(), "Mallory", "mallory@test.local", "password123", "Admin")
	if err != nil {
		t.Fatalf("Register error = %v", err)
	}
	if reg.AssignedRole != "Intern" {
		t.Fatalf("expected Admin request downgraded to Intern, got %s", reg.AssignedRole)
	}
	assigned := roles.assigned[reg.User.ID]
	if len(assigned) != 1 || assigned[0] != roles.roles["Intern"].ID {
		t.Fatalf("expected exactly one Intern assignment, got %v", assigned)
	}
}

func TestRegisterRoleClamping(t *testing.T) {
	cases := []struct {
		requested string
		want      string
	}{
		{"Employee", "Employee"},
		{"Intern", "Intern"},
		{"Admin", "Intern"},
		{"", "Intern"},
		{"SuperUser", "Intern"},
	}
	for _, tc := range cases {
		if got := auth.ClampRegistrationRole(tc.requested); got != tc.want {
			t.Fatalf("ClampRegistrationRole(%q) = %q, want %q", tc.requested, got, tc.want)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubRepo()
	roles := newStubRoles()
	svc := newService(repo, roles)

	if _, err := svc.Register(context.Background(), "A", "a@test.local", "password123", "Employee"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), "B", "a@test.local", "password123", "Employee")
	if !errors.Is(err, shared.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestAuthenticateIssuesVerifiableToken(t *testing.T) {
	repo := newStubRepo()
	roles := newStubRoles()
	svc := newService(repo, roles)

	reg, err := svc.Register(context.Background(), "Dana", "dana@test.local", "password123", "Employee")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	roles.roleNames[reg.User.ID] = []string{"Employee"}
	roles.perms[reg.User.ID] = []string{"CREATE_TASK", "UPDATE_TASK_STATUS", "VIEW_DASHBOARD"}

	login, err := svc.Authenticate(context.Background(), "dana@test.local", "password123", "127.0.0.1", "go-test")
	if err != nil {
		t.Fatalf("Authenticate error = %v", err)
	}
	if login.Token == "" {
		t.Fatal("expected token")
	}
	if len(login.Permissions) != 3 || login.Permissions[0] != "CREATE_TASK" {
		t.Fatalf("login permissions = %v, want the effective permission set", login.Permissions)
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("expected session audit record, got %d", len(repo.sessions))
	}

	principal, err := svc.ResolvePrincipal(context.Background(), login.Token)
	if err != nil {
		t.Fatalf("ResolvePrincipal error = %v", err)
	}
	if principal.ID != reg.User.ID || principal.Email != "dana@test.local" {
		t.Fatalf("unexpected principal %+v", principal)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newStubRepo()
	roles := newStubRoles()
	svc := newService(repo, roles)

	hash, _ := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	user := &auth.User{ID: 9, Email: "u@test.local", PasswordHash: string(hash), IsActive: true}
	repo.users[user.Email] = user
	repo.byID[user.ID] = user

	if _, err := svc.Authenticate(context.Background(), "u@test.local", "wrongpass", "", ""); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ghost@test.local", "whatever1", "", ""); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestResolvePrincipalRejectsGarbage(t *testing.T) {
	repo := newStubRepo()
	roles := newStubRoles()
	svc := newService(repo, roles)

	if _, err := svc.ResolvePrincipal(context.Background(), "not-a-token"); !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestResolvePrincipalInactiveUser(t *testing.T) {
	repo := newStubRepo()
	roles := newStubRoles()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := auth.NewService(repo, roles, roles, tokens)

	user := &auth.User{ID: 4, Email: "gone@test.local", IsActive: false}
	repo.byID[user.ID] = user

	token, _, _, err := tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.ResolvePrincipal(context.Background(), token); !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for inactive user, got %v", err)
	}
}

func TestLogoutRemovesSession(t *testing.T) {
	repo := newStubRepo()
	roles := newStubRoles()
	svc := newService(repo, roles)

	if _, err := svc.Register(context.Background(), "Dana", "dana@test.local", "password123", "Employee"); err != nil {
		t.Fatalf("register: %v", err)
	}
	login, err := svc.Authenticate(context.Background(), "dana@test.local", "password123", "", "")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(repo.sessions))
	}

	if err := svc.Logout(context.Background(), login.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(repo.sessions) != 0 {
		t.Fatalf("session not removed, %d left", len(repo.sessions))
	}

	if err := svc.Logout(context.Background(), "garbage"); !errors.Is(err, shared.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for bad token, got %v", err)
	}
}
