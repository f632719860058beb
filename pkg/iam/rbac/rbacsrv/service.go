package rbacsrv

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/konnected/identity/pkg/iam/rbac"
	"github.com/konnected/identity/pkg/iam/user"
	"github.com/konnected/identity/pkg/kernel"
)

// UpdateRoleInput carries the optional fields of a role edit.
type UpdateRoleInput struct {
	Name        *string
	Description *string
}

// UpdatePermissionInput carries the optional fields of a permission edit.
type UpdatePermissionInput struct {
	Name        *string
	Description *string
}

// Service implements role and permission management. Every mutation checks
// tenant ownership of each referenced entity explicitly before touching a
// join row; a cross-tenant pair is rejected, never silently ignored.
type Service struct {
	roles       rbac.RoleRepository
	permissions rbac.PermissionRepository
	assignments rbac.AssignmentRepository
	users       user.Repository
}

func NewService(roles rbac.RoleRepository, permissions rbac.PermissionRepository, assignments rbac.AssignmentRepository, users user.Repository) *Service {
	return &Service{
		roles:       roles,
		permissions: permissions,
		assignments: assignments,
		users:       users,
	}
}

// ===== Roles =====

func (s *Service) CreateRole(ctx context.Context, tenantID kernel.TenantID, name, description string) (*rbac.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, rbac.ErrInvalidRoleName()
	}

	role := rbac.Role{
		ID:          kernel.RoleID(uuid.New().String()),
		TenantID:    tenantID,
		Name:        name,
		Description: description,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *Service) GetRole(ctx context.Context, tenantID kernel.TenantID, id kernel.RoleID) (*rbac.Role, error) {
	return s.roles.FindByID(ctx, tenantID, id)
}

func (s *Service) ListRoles(ctx context.Context, tenantID kernel.TenantID) ([]rbac.Role, error) {
	return s.roles.List(ctx, tenantID)
}

// UpdateRole applies the provided fields only; an omitted field keeps its
// stored value.
func (s *Service) UpdateRole(ctx context.Context, tenantID kernel.TenantID, id kernel.RoleID, input UpdateRoleInput) (*rbac.Role, error) {
	role, err := s.roles.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if role.IsBuiltin() {
		return nil, rbac.ErrBuiltinRole().WithDetail("role", role.Name)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, rbac.ErrInvalidRoleName()
		}
		role.Name = name
	}
	if input.Description != nil {
		role.Description = *input.Description
	}

	if err := s.roles.Update(ctx, *role); err != nil {
		return nil, err
	}
	return role, nil
}

func (s *Service) DeleteRole(ctx context.Context, tenantID kernel.TenantID, id kernel.RoleID) error {
	role, err := s.roles.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if role.IsBuiltin() {
		return rbac.ErrBuiltinRole().WithDetail("role", role.Name)
	}
	return s.roles.Delete(ctx, tenantID, id)
}

// ===== Permissions =====

func (s *Service) CreatePermission(ctx context.Context, tenantID kernel.TenantID, name, description string) (*rbac.Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, rbac.ErrInvalidRoleName().WithDetail("entity", "permission")
	}

	perm := rbac.Permission{
		ID:          kernel.PermissionID(uuid.New().String()),
		TenantID:    tenantID,
		Name:        name,
		Description: description,
	}
	if err := s.permissions.Create(ctx, perm); err != nil {
		return nil, err
	}
	return &perm, nil
}

func (s *Service) GetPermission(ctx context.Context, tenantID kernel.TenantID, id kernel.PermissionID) (*rbac.Permission, error) {
	return s.permissions.FindByID(ctx, tenantID, id)
}

func (s *Service) ListPermissions(ctx context.Context, tenantID kernel.TenantID) ([]rbac.Permission, error) {
	return s.permissions.List(ctx, tenantID)
}

// UpdatePermission applies the provided fields only, like UpdateRole.
func (s *Service) UpdatePermission(ctx context.Context, tenantID kernel.TenantID, id kernel.PermissionID, input UpdatePermissionInput) (*rbac.Permission, error) {
	perm, err := s.permissions.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, rbac.ErrInvalidRoleName().WithDetail("entity", "permission")
		}
		perm.Name = name
	}
	if input.Description != nil {
		perm.Description = *input.Description
	}

	if err := s.permissions.Update(ctx, *perm); err != nil {
		return nil, err
	}
	return perm, nil
}

func (s *Service) DeletePermission(ctx context.Context, tenantID kernel.TenantID, id kernel.PermissionID) error {
	return s.permissions.Delete(ctx, tenantID, id)
}

// ===== User-Role Assignment =====

// AssignRole links a role to a user after verifying both belong to the
// acting tenant. The join insert itself is idempotent.
func (s *Service) AssignRole(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, roleID kernel.RoleID) error {
	if _, err := s.users.FindByID(ctx, tenantID, userID); err != nil {
		return err
	}
	role, err := s.roles.FindByID(ctx, tenantID, roleID)
	if err != nil {
		return err
	}
	if role.TenantID != tenantID {
		return rbac.ErrCrossTenant()
	}
	return s.assignments.AssignRole(ctx, userID, roleID)
}

func (s *Service) RevokeRole(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID, roleID kernel.RoleID) error {
	if _, err := s.users.FindByID(ctx, tenantID, userID); err != nil {
		return err
	}
	if _, err := s.roles.FindByID(ctx, tenantID, roleID); err != nil {
		return err
	}
	return s.assignments.RevokeRole(ctx, userID, roleID)
}

func (s *Service) RolesForUser(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID) ([]rbac.Role, error) {
	if _, err := s.users.FindByID(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	return s.assignments.RolesForUser(ctx, tenantID, userID)
}

// ===== Role-Permission Assignment =====

// GrantPermission links a permission to a role, both tenant-checked.
func (s *Service) GrantPermission(ctx context.Context, tenantID kernel.TenantID, roleID kernel.RoleID, permID kernel.PermissionID) error {
	role, err := s.roles.FindByID(ctx, tenantID, roleID)
	if err != nil {
		return err
	}
	perm, err := s.permissions.FindByID(ctx, tenantID, permID)
	if err != nil {
		return err
	}
	if role.TenantID != perm.TenantID {
		return rbac.ErrCrossTenant()
	}
	return s.assignments.GrantPermission(ctx, roleID, permID)
}

func (s *Service) RevokePermission(ctx context.Context, tenantID kernel.TenantID, roleID kernel.RoleID, permID kernel.PermissionID) error {
	if _, err := s.roles.FindByID(ctx, tenantID, roleID); err != nil {
		return err
	}
	if _, err := s.permissions.FindByID(ctx, tenantID, permID); err != nil {
		return err
	}
	return s.assignments.RevokePermission(ctx, roleID, permID)
}

func (s *Service) PermissionsForRole(ctx context.Context, tenantID kernel.TenantID, roleID kernel.RoleID) ([]rbac.Permission, error) {
	if _, err := s.roles.FindByID(ctx, tenantID, roleID); err != nil {
		return nil, err
	}
	return s.assignments.PermissionsForRole(ctx, tenantID, roleID)
}
