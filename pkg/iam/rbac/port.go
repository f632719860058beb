package rbac

import (
	"context"

	"github.com/konnected/identity/pkg/kernel"
)

// RoleRepository defines the contract for role persistence. All queries are
// tenant-scoped at the storage level.
type RoleRepository interface {
	Create(ctx context.Context, role Role) error
	FindByID(ctx context.Context, tenantID kernel.TenantID, id kernel.RoleID) (*Role, error)
	FindByName(ctx context.Context, tenantID kernel.TenantID, name string) (*Role, error)
	FindByIDs(ctx context.Context, tenantID kernel.TenantID, ids []kernel.RoleID) ([]Role, error)
	List(ctx context.Context, tenantID kernel.TenantID) ([]Role, error)
	Update(ctx context.Context, role Role) error
	Delete(ctx context.Context, tenantID kernel.TenantID, id kernel.RoleID) error
}

// PermissionRepository defines the contract for permission persistence.
type PermissionRepository interface {
	Create(ctx context.Context, perm Permission) error
	FindByID(ctx context.Context, tenantID kernel.TenantID, id kernel.PermissionID) (*Permission, error)
	List(ctx context.Context, tenantID kernel.TenantID) ([]Permission, error)
	Update(ctx context.Context, perm Permission) error
	Delete(ctx context.Context, tenantID kernel.TenantID, id kernel.PermissionID) error
}

// AssignmentRepository manages the user-role and role-permission joins.
// Assignments are idempotent; assigning an existing pair is a no-op.
type AssignmentRepository interface {
	AssignRole(ctx context.Context, userID kernel.UserID, roleID kernel.RoleID) error
	RevokeRole(ctx context.Context, userID kernel.UserID, roleID kernel.RoleID) error
	RolesForUser(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID) ([]Role, error)
	RoleNamesForUser(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID) ([]string, error)

	GrantPermission(ctx context.Context, roleID kernel.RoleID, permID kernel.PermissionID) error
	RevokePermission(ctx context.Context, roleID kernel.RoleID, permID kernel.PermissionID) error
	PermissionsForRole(ctx context.Context, tenantID kernel.TenantID, roleID kernel.RoleID) ([]Permission, error)
}
