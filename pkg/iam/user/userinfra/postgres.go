package userinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/user"
	"github.com/konnected/identity/pkg/kernel"
	"github.com/konnected/identity/pkg/storex"
)

const userColumns = `id, tenant_id, email, name, password_hash, is_active, email_verified, created_at, updated_at`

// PostgresUserRepository is the postgres implementation of the user
// repository. Every query carries the tenant in its WHERE clause; rows of
// other tenants are structurally unreachable.
type PostgresUserRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*PostgresUserRepository)(nil)

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u user.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.TenantID, u.Email, u.Name, u.PasswordHash,
		u.IsActive, u.EmailVerified, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if storex.IsUniqueViolation(err) {
			return user.ErrEmailTaken().WithDetail("email", u.Email).WithCause(err)
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND id = $2`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound().WithDetail("user_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find user by id", errx.TypeInternal)
	}

	return &u, nil
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, tenantID kernel.TenantID, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND email = $2`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, tenantID, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound().WithDetail("email", email)
		}
		return nil, errx.Wrap(err, "failed to find user by email", errx.TypeInternal)
	}

	return &u, nil
}

func (r *PostgresUserRepository) List(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) (kernel.Paginated[user.User], error) {
	opts = opts.Normalize()

	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM users WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return kernel.Paginated[user.User]{}, errx.Wrap(err, "failed to count users", errx.TypeInternal)
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var users []user.User
	err = r.db.SelectContext(ctx, &users, query, tenantID, opts.PageSize, opts.Offset())
	if err != nil {
		return kernel.Paginated[user.User]{}, errx.Wrap(err, "failed to list users", errx.TypeInternal)
	}

	return kernel.NewPaginated(users, opts.Page, opts.PageSize, total), nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID, update user.Update) (*user.User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{tenantID, id}

	add := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.IsActive != nil {
		add("is_active", *update.IsActive)
	}
	if update.EmailVerified != nil {
		add("email_verified", *update.EmailVerified)
	}

	query := `
		UPDATE users SET ` + strings.Join(sets, ", ") + `
		WHERE tenant_id = $1 AND id = $2
		RETURNING ` + userColumns

	var u user.User
	err := r.db.GetContext(ctx, &u, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrNotFound().WithDetail("user_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to update user", errx.TypeInternal)
	}

	return &u, nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return errx.Wrap(err, "failed to delete user", errx.TypeInternal)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound().WithDetail("user_id", id.String())
	}
	return nil
}

func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, tenantID kernel.TenantID, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE tenant_id = $1 AND email = $2)`,
		tenantID, user.NormalizeEmail(email))
	if err != nil {
		return false, errx.Wrap(err, "failed to check user email", errx.TypeInternal)
	}
	return exists, nil
}
