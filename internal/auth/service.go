package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskforge-hq/taskforge/internal/rbac"
	"github.com/taskforge-hq/taskforge/internal/shared"
)

// RoleDirectory covers the role assignment surface registration needs.
type RoleDirectory interface {
	FindRoleByName(ctx context.Context, name string) (rbac.Role, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
}

// RoleReader resolves role names and the effective permission set for login
// responses.
type RoleReader interface {
	RoleNames(ctx context.Context, userID int64) ([]string, error)
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	roles  RoleDirectory
	reader RoleReader
	tokens *TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, roles RoleDirectory, reader RoleReader, tokens *TokenManager) *Service {
	return &Service{repo: repo, roles: roles, reader: reader, tokens: tokens}
}

// Registration is the outcome of a successful Register call.
type Registration struct {
	User         *User
	AssignedRole string
}

// Register creates a user with a bcrypt-hashed password and exactly one role
// assignment. The requested role is clamped to the allowed set; "Admin" (or
// any unknown role) silently becomes the default.
func (s *Service) Register(ctx context.Context, name, email, password, requestedRole string) (*Registration, error) {
	assignedRole := ClampRegistrationRole(requestedRole)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, name, email, string(hash))
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			return nil, fmt.Errorf("%w: user already exists", shared.ErrDuplicate)
		}
		return nil, err
	}

	role, err := s.roles.FindRoleByName(ctx, assignedRole)
	if err != nil {
		// The role catalog is seeded at bootstrap; a missing default role is
		// an infrastructure problem, not a user error.
		return nil, fmt.Errorf("auth: resolve registration role %q: %w", assignedRole, err)
	}
	if err := s.roles.AssignRole(ctx, user.ID, role.ID); err != nil {
		return nil, fmt.Errorf("auth: assign registration role: %w", err)
	}

	return &Registration{User: user, AssignedRole: assignedRole}, nil
}

// Login is the outcome of a successful Authenticate call.
type Login struct {
	User        *User
	Roles       []string
	Permissions []string
	Token       string
	ExpiresAt   time.Time
}

// Authenticate validates credentials and issues a bearer token. Credential
// failures are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password, ip, ua string) (*Login, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	token, jti, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateSession(ctx, jti, user.ID, expiresAt, ip, ua); err != nil {
		return nil, fmt.Errorf("auth: record session: %w", err)
	}

	roles, err := s.reader.RoleNames(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	permissions, err := s.reader.EffectivePermissions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Login{User: user, Roles: roles, Permissions: permissions, Token: token, ExpiresAt: expiresAt}, nil
}

// ResolvePrincipal verifies a bearer token and loads the matching account.
// Unknown or inactive users yield ErrUnauthenticated; a token is only as good
// as the account behind it.
func (s *Service) ResolvePrincipal(ctx context.Context, token string) (*shared.Principal, error) {
	userID, _, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrUnauthenticated
	}
	return &shared.Principal{ID: user.ID, Email: user.Email, Name: user.Name}, nil
}

// Logout verifies the bearer token and removes its session audit record. The
// token itself stays valid until expiry; sessions exist for auditing, not
// revocation.
func (s *Service) Logout(ctx context.Context, token string) error {
	_, jti, err := s.tokens.Verify(token)
	if err != nil {
		return err
	}
	return s.repo.DeleteSession(ctx, jti)
}
