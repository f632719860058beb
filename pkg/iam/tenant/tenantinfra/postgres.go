package tenantinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/tenant"
	"github.com/konnected/identity/pkg/iam/user"
	"github.com/konnected/identity/pkg/kernel"
	"github.com/konnected/identity/pkg/storex"
)

// PostgresTenantRepository is the postgres implementation of the tenant
// repository.
type PostgresTenantRepository struct {
	db *sqlx.DB
}

var _ tenant.Repository = (*PostgresTenantRepository)(nil)

func NewPostgresTenantRepository(db *sqlx.DB) *PostgresTenantRepository {
	return &PostgresTenantRepository{db: db}
}

// CreateOrganization seeds a tenant, its builtin roles, the first admin
// user, and the admin role link in one transaction. The unique indexes on
// tenant slug and (tenant_id, email) are the arbiters under concurrency; a
// violation rolls the whole seed back.
func (r *PostgresTenantRepository) CreateOrganization(ctx context.Context, seed tenant.OrganizationSeed) error {
	err := storex.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tenants (id, name, slug, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			seed.Tenant.ID, seed.Tenant.Name, seed.Tenant.Slug,
			seed.Tenant.IsActive, seed.Tenant.CreatedAt, seed.Tenant.UpdatedAt)
		if err != nil {
			return err
		}

		for _, role := range []struct {
			ID          kernel.RoleID
			Name        string
			Description string
		}{
			{seed.AdminRole.ID, seed.AdminRole.Name, seed.AdminRole.Description},
			{seed.UserRole.ID, seed.UserRole.Name, seed.UserRole.Description},
		} {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO roles (id, tenant_id, name, description, created_at, updated_at)
				VALUES ($1, $2, $3, $4, NOW(), NOW())`,
				role.ID, seed.Tenant.ID, role.Name, role.Description)
			if err != nil {
				return err
			}
		}

		u := seed.AdminUser
		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (id, tenant_id, email, name, password_hash,
				is_active, email_verified, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			u.ID, u.TenantID, u.Email, u.Name, u.PasswordHash,
			u.IsActive, u.EmailVerified, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			VALUES ($1, $2)`,
			u.ID, seed.AdminRole.ID)
		return err
	})
	if err != nil {
		switch storex.UniqueConstraint(err) {
		case "tenants_slug_key":
			return tenant.ErrSlugTaken().WithDetail("slug", seed.Tenant.Slug).WithCause(err)
		case "users_tenant_id_email_key":
			return user.ErrEmailTaken().WithDetail("email", seed.AdminUser.Email).WithCause(err)
		}
		if storex.IsUniqueViolation(err) {
			return tenant.ErrSlugTaken().WithCause(err)
		}
		return errx.Wrap(err, "failed to create organization", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresTenantRepository) FindByID(ctx context.Context, id kernel.TenantID) (*tenant.Tenant, error) {
	query := `
		SELECT id, name, slug, is_active, created_at, updated_at
		FROM tenants
		WHERE id = $1`

	var t tenant.Tenant
	err := r.db.GetContext(ctx, &t, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenant.ErrNotFound().WithDetail("tenant_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find tenant by id", errx.TypeInternal)
	}

	return &t, nil
}

func (r *PostgresTenantRepository) FindBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	query := `
		SELECT id, name, slug, is_active, created_at, updated_at
		FROM tenants
		WHERE slug = $1`

	var t tenant.Tenant
	err := r.db.GetContext(ctx, &t, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenant.ErrNotFound().WithDetail("slug", slug)
		}
		return nil, errx.Wrap(err, "failed to find tenant by slug", errx.TypeInternal)
	}

	return &t, nil
}

func (r *PostgresTenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM tenants WHERE slug = $1)`, slug)
	if err != nil {
		return false, errx.Wrap(err, "failed to check tenant slug", errx.TypeInternal)
	}
	return exists, nil
}
