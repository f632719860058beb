package rbacinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/rbac"
	"github.com/konnected/identity/pkg/kernel"
	"github.com/konnected/identity/pkg/storex"
)

const roleColumns = `id, tenant_id, name, description, created_at, updated_at`
const permColumns = `id, tenant_id, name, description, created_at, updated_at`

// ===== Roles =====

// PostgresRoleRepository is the postgres implementation of the role
// repository.
type PostgresRoleRepository struct {
	db *sqlx.DB
}

var _ rbac.RoleRepository = (*PostgresRoleRepository)(nil)

func NewPostgresRoleRepository(db *sqlx.DB) *PostgresRoleRepository {
	return &PostgresRoleRepository{db: db}
}

func (r *PostgresRoleRepository) Create(ctx context.Context, role rbac.Role) error {
	query := `
		INSERT INTO roles (` + roleColumns + `)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query, role.ID, role.TenantID, role.Name, role.Description)
	if err != nil {
		if storex.IsUniqueViolation(err) {
			return rbac.ErrRoleNameTaken().WithDetail("name", role.Name).WithCause(err)
		}
		return errx.Wrap(err, "failed to create role", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresRoleRepository) FindByID(ctx context.Context, tenantID kernel.TenantID, id kernel.RoleID) (*rbac.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 AND id = $2`

	var role rbac.Role
	err := r.db.GetContext(ctx, &role, query, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, rbac.ErrRoleNotFound().WithDetail("role_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find role by id", errx.TypeInternal)
	}

	return &role, nil
}

func (r *PostgresRoleRepository) FindByName(ctx context.Context, tenantID kernel.TenantID, name string) (*rbac.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 AND name = $2`

	var role rbac.Role
	err := r.db.GetContext(ctx, &role, query, tenantID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, rbac.ErrRoleNotFound().WithDetail("name", name)
		}
		return nil, errx.Wrap(err, "failed to find role by name", errx.TypeInternal)
	}

	return &role, nil
}

func (r *PostgresRoleRepository) FindByIDs(ctx context.Context, tenantID kernel.TenantID, ids []kernel.RoleID) ([]rbac.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 AND id = ANY($2)`

	var roles []rbac.Role
	err := r.db.SelectContext(ctx, &roles, query, tenantID, pq.Array(raw))
	if err != nil {
		return nil, errx.Wrap(err, "failed to find roles by ids", errx.TypeInternal)
	}

	return roles, nil
}

func (r *PostgresRoleRepository) List(ctx context.Context, tenantID kernel.TenantID) ([]rbac.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 ORDER BY name`

	var roles []rbac.Role
	err := r.db.SelectContext(ctx, &roles, query, tenantID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list roles", errx.TypeInternal)
	}

	return roles, nil
}

func (r *PostgresRoleRepository) Update(ctx context.Context, role rbac.Role) error {
	query := `
		UPDATE roles SET name = $3, description = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2`

	res, err := r.db.ExecContext(ctx, query, role.TenantID, role.ID, role.Name, role.Description)
	if err != nil {
		if storex.IsUniqueViolation(err) {
			return rbac.ErrRoleNameTaken().WithDetail("name", role.Name).WithCause(err)
		}
		return errx.Wrap(err, "failed to update role", errx.TypeInternal)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rbac.ErrRoleNotFound().WithDetail("role_id", role.ID.String())
	}
	return nil
}

func (r *PostgresRoleRepository) Delete(ctx context.Context, tenantID kernel.TenantID, id kernel.RoleID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM roles WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return errx.Wrap(err, "failed to delete role", errx.TypeInternal)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rbac.ErrRoleNotFound().WithDetail("role_id", id.String())
	}
	return nil
}

// ===== Permissions =====

// PostgresPermissionRepository is the postgres implementation of the
// permission repository.
type PostgresPermissionRepository struct {
	db *sqlx.DB
}

var _ rbac.PermissionRepository = (*PostgresPermissionRepository)(nil)

func NewPostgresPermissionRepository(db *sqlx.DB) *PostgresPermissionRepository {
	return &PostgresPermissionRepository{db: db}
}

func (r *PostgresPermissionRepository) Create(ctx context.Context, perm rbac.Permission) error {
	query := `
		INSERT INTO permissions (` + permColumns + `)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query, perm.ID, perm.TenantID, perm.Name, perm.Description)
	if err != nil {
		if storex.IsUniqueViolation(err) {
			return rbac.ErrPermissionNameTaken().WithDetail("name", perm.Name).WithCause(err)
		}
		return errx.Wrap(err, "failed to create permission", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresPermissionRepository) FindByID(ctx context.Context, tenantID kernel.TenantID, id kernel.PermissionID) (*rbac.Permission, error) {
	query := `SELECT ` + permColumns + ` FROM permissions WHERE tenant_id = $1 AND id = $2`

	var perm rbac.Permission
	err := r.db.GetContext(ctx, &perm, query, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, rbac.ErrPermissionNotFound().WithDetail("permission_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find permission by id", errx.TypeInternal)
	}

	return &perm, nil
}

func (r *PostgresPermissionRepository) List(ctx context.Context, tenantID kernel.TenantID) ([]rbac.Permission, error) {
	query := `SELECT ` + permColumns + ` FROM permissions WHERE tenant_id = $1 ORDER BY name`

	var perms []rbac.Permission
	err := r.db.SelectContext(ctx, &perms, query, tenantID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list permissions", errx.TypeInternal)
	}

	return perms, nil
}

func (r *PostgresPermissionRepository) Update(ctx context.Context, perm rbac.Permission) error {
	query := `
		UPDATE permissions SET name = $3, description = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2`

	res, err := r.db.ExecContext(ctx, query, perm.TenantID, perm.ID, perm.Name, perm.Description)
	if err != nil {
		if storex.IsUniqueViolation(err) {
			return rbac.ErrPermissionNameTaken().WithDetail("name", perm.Name).WithCause(err)
		}
		return errx.Wrap(err, "failed to update permission", errx.TypeInternal)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rbac.ErrPermissionNotFound().WithDetail("permission_id", perm.ID.String())
	}
	return nil
}

func (r *PostgresPermissionRepository) Delete(ctx context.Context, tenantID kernel.TenantID, id kernel.PermissionID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM permissions WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return errx.Wrap(err, "failed to delete permission", errx.TypeInternal)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rbac.ErrPermissionNotFound().WithDetail("permission_id", id.String())
	}
	return nil
}

// ===== Assignments =====

// PostgresAssignmentRepository manages the user_roles and role_permissions
// joins. Inserts use ON CONFLICT DO NOTHING so repeated assignments are
// idempotent.
type PostgresAssignmentRepository struct {
	db *sqlx.DB
}

var _ rbac.AssignmentRepository = (*PostgresAssignmentRepository)(nil)

func NewPostgresAssignmentRepository(db *sqlx.DB) *PostgresAssignmentRepository {
	return &PostgresAssignmentRepository{db: db}
}

func (r *PostgresAssignmentRepository) AssignRole(ctx context.Context, userID kernel.UserID, roleID kernel.RoleID) error {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, userID, roleID)
	if err != nil {
		return errx.Wrap(err, "failed to assign role", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresAssignmentRepository) RevokeRole(ctx context.Context, userID kernel.UserID, roleID kernel.RoleID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return errx.Wrap(err, "failed to revoke role", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresAssignmentRepository) RolesForUser(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID) ([]rbac.Role, error) {
	query := `
		SELECT r.id, r.tenant_id, r.name, r.description, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE r.tenant_id = $1 AND ur.user_id = $2
		ORDER BY r.name`

	var roles []rbac.Role
	err := r.db.SelectContext(ctx, &roles, query, tenantID, userID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to load user roles", errx.TypeInternal)
	}

	return roles, nil
}

func (r *PostgresAssignmentRepository) RoleNamesForUser(ctx context.Context, tenantID kernel.TenantID, userID kernel.UserID) ([]string, error) {
	query := `
		SELECT r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE r.tenant_id = $1 AND ur.user_id = $2
		ORDER BY r.name`

	var names []string
	err := r.db.SelectContext(ctx, &names, query, tenantID, userID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to load user role names", errx.TypeInternal)
	}

	return names, nil
}

func (r *PostgresAssignmentRepository) GrantPermission(ctx context.Context, roleID kernel.RoleID, permID kernel.PermissionID) error {
	query := `
		INSERT INTO role_permissions (role_id, permission_id)
		VALUES ($1, $2)
		ON CONFLICT (role_id, permission_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, roleID, permID)
	if err != nil {
		return errx.Wrap(err, "failed to grant permission", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresAssignmentRepository) RevokePermission(ctx context.Context, roleID kernel.RoleID, permID kernel.PermissionID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permID)
	if err != nil {
		return errx.Wrap(err, "failed to revoke permission", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresAssignmentRepository) PermissionsForRole(ctx context.Context, tenantID kernel.TenantID, roleID kernel.RoleID) ([]rbac.Permission, error) {
	query := `
		SELECT p.id, p.tenant_id, p.name, p.description, p.created_at, p.updated_at
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE p.tenant_id = $1 AND rp.role_id = $2
		ORDER BY p.name`

	var perms []rbac.Permission
	err := r.db.SelectContext(ctx, &perms, query, tenantID, roleID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to load role permissions", errx.TypeInternal)
	}

	return perms, nil
}
