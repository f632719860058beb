package usersrv

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/iam/rbac"
	"github.com/konnected/identity/pkg/iam/user"
	"github.com/konnected/identity/pkg/kernel"
)

// CreateUserInput is the admin direct-creation request.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	RoleIDs  []kernel.RoleID
}

// UpdateUserInput carries the optional fields of an admin profile edit.
type UpdateUserInput struct {
	Name          *string
	IsActive      *bool
	EmailVerified *bool
}

// Service implements admin user management within one tenant. Users created
// directly by an admin skip email verification; they are active and
// verified from the start.
type Service struct {
	users       user.Repository
	roles       rbac.RoleRepository
	assignments rbac.AssignmentRepository
	passwords   auth.PasswordService
	audit       auth.AuditService
}

func NewService(users user.Repository, roles rbac.RoleRepository, assignments rbac.AssignmentRepository, passwords auth.PasswordService, audit auth.AuditService) *Service {
	return &Service{
		users:       users,
		roles:       roles,
		assignments: assignments,
		passwords:   passwords,
		audit:       audit,
	}
}

// Create adds a user to the tenant. When no roles are requested the tenant's
// "user" role is assigned, the same default the invitation flow applies.
func (s *Service) Create(ctx context.Context, tenantID kernel.TenantID, input CreateUserInput) (*user.Public, error) {
	email := user.NormalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, user.ErrInvalidEmail().WithDetail("email", input.Email)
	}
	if input.Name == "" {
		return nil, user.ErrInvalidName()
	}
	if len(input.Password) < 10 {
		return nil, user.ErrWeakPassword()
	}

	roles, err := s.resolveRoles(ctx, tenantID, input.RoleIDs)
	if err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := user.User{
		ID:            kernel.UserID(uuid.New().String()),
		TenantID:      tenantID,
		Email:         email,
		Name:          input.Name,
		PasswordHash:  hash,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	roleNames := make([]string, 0, len(roles))
	for _, role := range roles {
		if err := s.assignments.AssignRole(ctx, u.ID, role.ID); err != nil {
			return nil, err
		}
		roleNames = append(roleNames, role.Name)
	}

	s.audit.LogAccountCreated(ctx, u.ID, tenantID, "admin_created")

	pub := u.ToPublic()
	pub.Roles = roleNames
	return &pub, nil
}

// Get returns one user with their role names.
func (s *Service) Get(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID) (*user.Public, error) {
	u, err := s.users.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	roles, err := s.assignments.RoleNamesForUser(ctx, tenantID, u.ID)
	if err != nil {
		return nil, err
	}

	pub := u.ToPublic()
	pub.Roles = roles
	return &pub, nil
}

// List returns a page of the tenant's users.
func (s *Service) List(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) (kernel.Paginated[user.Public], error) {
	page, err := s.users.List(ctx, tenantID, opts)
	if err != nil {
		return kernel.Paginated[user.Public]{}, err
	}

	items := make([]user.Public, len(page.Items))
	for i := range page.Items {
		items[i] = page.Items[i].ToPublic()
	}
	return kernel.Paginated[user.Public]{Items: items, Page: page.Page}, nil
}

// Update edits a user's profile fields. An admin cannot deactivate their
// own account, which would lock the tenant out one admin at a time.
func (s *Service) Update(ctx context.Context, authCtx kernel.AuthContext, id kernel.UserID, input UpdateUserInput) (*user.Public, error) {
	if input.IsActive != nil && !*input.IsActive && id == authCtx.UserID {
		return nil, user.ErrCannotDeactivateSelf()
	}
	if input.Name != nil && *input.Name == "" {
		return nil, user.ErrInvalidName()
	}

	u, err := s.users.Update(ctx, authCtx.TenantID, id, user.Update{
		Name:          input.Name,
		IsActive:      input.IsActive,
		EmailVerified: input.EmailVerified,
	})
	if err != nil {
		return nil, err
	}

	pub := u.ToPublic()
	return &pub, nil
}

// Delete removes a user and, via cascade, their role links and sessions.
func (s *Service) Delete(ctx context.Context, authCtx kernel.AuthContext, id kernel.UserID) error {
	if id == authCtx.UserID {
		return user.ErrCannotDeactivateSelf().WithDetail("operation", "delete")
	}
	return s.users.Delete(ctx, authCtx.TenantID, id)
}

// resolveRoles loads the requested roles, verifying every one belongs to
// the tenant. No IDs requested resolves to the builtin "user" role.
func (s *Service) resolveRoles(ctx context.Context, tenantID kernel.TenantID, roleIDs []kernel.RoleID) ([]rbac.Role, error) {
	if len(roleIDs) == 0 {
		def, err := s.roles.FindByName(ctx, tenantID, kernel.RoleUser)
		if err != nil {
			return nil, errx.Wrap(err, "tenant is missing its default role", errx.TypeInternal)
		}
		return []rbac.Role{*def}, nil
	}

	roles, err := s.roles.FindByIDs(ctx, tenantID, roleIDs)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(roleIDs) {
		return nil, rbac.ErrCrossTenant().WithDetail("requested", len(roleIDs)).WithDetail("found", len(roles))
	}
	return roles, nil
}
