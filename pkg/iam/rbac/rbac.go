package rbac

import (
	"net/http"
	"time"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/kernel"
)

// ============================================================================
// Domain Types
// ============================================================================

// Role is a named set of permissions within one tenant. Role names are
// unique per tenant; "admin" and "user" exist from tenant onboarding.
type Role struct {
	ID          kernel.RoleID   `db:"id" json:"id"`
	TenantID    kernel.TenantID `db:"tenant_id" json:"tenant_id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// IsBuiltin reports whether the role is one of the two seeded at tenant
// onboarding. Builtin roles cannot be renamed or deleted.
func (r *Role) IsBuiltin() bool {
	return r.Name == kernel.RoleAdmin || r.Name == kernel.RoleUser
}

// Permission is a named capability within one tenant.
type Permission struct {
	ID          kernel.PermissionID `db:"id" json:"id"`
	TenantID    kernel.TenantID     `db:"tenant_id" json:"tenant_id"`
	Name        string              `db:"name" json:"name"`
	Description string              `db:"description" json:"description"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("RBAC")

var (
	CodeRoleNotFound        = ErrRegistry.Register("ROLE_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Role not found")
	CodePermissionNotFound  = ErrRegistry.Register("PERMISSION_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Permission not found")
	CodeRoleNameTaken       = ErrRegistry.Register("ROLE_NAME_TAKEN", errx.TypeConflict, http.StatusConflict, "A role with this name already exists")
	CodePermissionNameTaken = ErrRegistry.Register("PERMISSION_NAME_TAKEN", errx.TypeConflict, http.StatusConflict, "A permission with this name already exists")
	CodeCrossTenant         = ErrRegistry.Register("CROSS_TENANT", errx.TypeValidation, http.StatusBadRequest, "Entities belong to different tenants")
	CodeBuiltinRole         = ErrRegistry.Register("BUILTIN_ROLE", errx.TypeValidation, http.StatusBadRequest, "Builtin roles cannot be modified")
	CodeInvalidRoleName     = ErrRegistry.Register("INVALID_ROLE_NAME", errx.TypeValidation, http.StatusBadRequest, "Role name is required")
)

// Helper functions
func ErrRoleNotFound() *errx.Error {
	return ErrRegistry.New(CodeRoleNotFound)
}

func ErrPermissionNotFound() *errx.Error {
	return ErrRegistry.New(CodePermissionNotFound)
}

func ErrRoleNameTaken() *errx.Error {
	return ErrRegistry.New(CodeRoleNameTaken)
}

func ErrPermissionNameTaken() *errx.Error {
	return ErrRegistry.New(CodePermissionNameTaken)
}

func ErrCrossTenant() *errx.Error {
	return ErrRegistry.New(CodeCrossTenant)
}

func ErrBuiltinRole() *errx.Error {
	return ErrRegistry.New(CodeBuiltinRole)
}

func ErrInvalidRoleName() *errx.Error {
	return ErrRegistry.New(CodeInvalidRoleName)
}
