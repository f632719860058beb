package invitationinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/invitation"
	"github.com/konnected/identity/pkg/iam/user"
	"github.com/konnected/identity/pkg/kernel"
	"github.com/konnected/identity/pkg/storex"
)

// invitationRow is the storage shape of an invitation. Role IDs live in a
// uuid[] column and need pq.StringArray to scan.
type invitationRow struct {
	ID        string         `db:"id"`
	TenantID  string         `db:"tenant_id"`
	Email     string         `db:"email"`
	Token     string         `db:"token"`
	RoleIDs   pq.StringArray `db:"role_ids"`
	Status    string         `db:"status"`
	InvitedBy string         `db:"invited_by"`
	ExpiresAt sql.NullTime   `db:"expires_at"`
	CreatedAt sql.NullTime   `db:"created_at"`
	UpdatedAt sql.NullTime   `db:"updated_at"`
}

func (r invitationRow) toDomain() invitation.Invitation {
	inv := invitation.Invitation{
		ID:        r.ID,
		TenantID:  kernel.TenantID(r.TenantID),
		Email:     r.Email,
		Token:     r.Token,
		Status:    invitation.Status(r.Status),
		InvitedBy: kernel.UserID(r.InvitedBy),
	}
	inv.RoleIDs = make([]kernel.RoleID, len(r.RoleIDs))
	for i, id := range r.RoleIDs {
		inv.RoleIDs[i] = kernel.RoleID(id)
	}
	if r.ExpiresAt.Valid {
		inv.ExpiresAt = r.ExpiresAt.Time
	}
	if r.CreatedAt.Valid {
		inv.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		inv.UpdatedAt = r.UpdatedAt.Time
	}
	return inv
}

func roleArray(ids []kernel.RoleID) pq.StringArray {
	arr := make(pq.StringArray, len(ids))
	for i, id := range ids {
		arr[i] = id.String()
	}
	return arr
}

const invitationColumns = `id, tenant_id, email, token, role_ids, status, invited_by, expires_at, created_at, updated_at`

// PostgresInvitationRepository is the postgres implementation of the
// invitation repository.
type PostgresInvitationRepository struct {
	db *sqlx.DB
}

var _ invitation.Repository = (*PostgresInvitationRepository)(nil)

func NewPostgresInvitationRepository(db *sqlx.DB) *PostgresInvitationRepository {
	return &PostgresInvitationRepository{db: db}
}

// Upsert leans on the unique (tenant_id, email) index: a second invite for
// the same address refreshes the existing row back to PENDING with a new
// token instead of inserting a duplicate.
func (r *PostgresInvitationRepository) Upsert(ctx context.Context, inv invitation.Invitation) error {
	query := `
		INSERT INTO invitations (` + invitationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (tenant_id, email) DO UPDATE SET
			token      = EXCLUDED.token,
			role_ids   = EXCLUDED.role_ids,
			status     = EXCLUDED.status,
			invited_by = EXCLUDED.invited_by,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.TenantID, inv.Email, inv.Token, roleArray(inv.RoleIDs),
		string(inv.Status), inv.InvitedBy, inv.ExpiresAt)
	if err != nil {
		return errx.Wrap(err, "failed to upsert invitation", errx.TypeInternal).
			WithDetail("email", inv.Email)
	}
	return nil
}

func (r *PostgresInvitationRepository) FindByToken(ctx context.Context, token string) (*invitation.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token = $1`

	var row invitationRow
	err := r.db.GetContext(ctx, &row, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invitation.ErrNotFound()
		}
		return nil, errx.Wrap(err, "failed to find invitation by token", errx.TypeInternal)
	}

	inv := row.toDomain()
	return &inv, nil
}

func (r *PostgresInvitationRepository) FindByEmail(ctx context.Context, tenantID kernel.TenantID, email string) (*invitation.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE tenant_id = $1 AND email = $2`

	var row invitationRow
	err := r.db.GetContext(ctx, &row, query, tenantID, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invitation.ErrNotFound().WithDetail("email", email)
		}
		return nil, errx.Wrap(err, "failed to find invitation by email", errx.TypeInternal)
	}

	inv := row.toDomain()
	return &inv, nil
}

func (r *PostgresInvitationRepository) ListByTenant(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) (kernel.Paginated[invitation.Invitation], error) {
	opts = opts.Normalize()

	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM invitations WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return kernel.Paginated[invitation.Invitation]{}, errx.Wrap(err, "failed to count invitations", errx.TypeInternal)
	}

	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var rows []invitationRow
	err = r.db.SelectContext(ctx, &rows, query, tenantID, opts.PageSize, opts.Offset())
	if err != nil {
		return kernel.Paginated[invitation.Invitation]{}, errx.Wrap(err, "failed to list invitations", errx.TypeInternal)
	}

	items := make([]invitation.Invitation, len(rows))
	for i, row := range rows {
		items[i] = row.toDomain()
	}
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}

func (r *PostgresInvitationRepository) HasPending(ctx context.Context, tenantID kernel.TenantID, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM invitations
			WHERE tenant_id = $1 AND email = $2 AND status = 'PENDING' AND expires_at > NOW()
		)`, tenantID, email)
	if err != nil {
		return false, errx.Wrap(err, "failed to check pending invitation", errx.TypeInternal)
	}
	return exists, nil
}

// AcceptWithUser claims the invitation with a conditional UPDATE before
// touching anything else; whichever transaction flips PENDING to ACCEPTED
// first wins, and the loser rolls back having created nothing.
func (r *PostgresInvitationRepository) AcceptWithUser(ctx context.Context, invitationID string, u user.User, roleIDs []kernel.RoleID) error {
	err := storex.RunInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE invitations SET status = 'ACCEPTED', updated_at = NOW()
			WHERE id = $1 AND status = 'PENDING'`, invitationID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return invitation.ErrNotPending()
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (id, tenant_id, email, name, password_hash,
				is_active, email_verified, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			u.ID, u.TenantID, u.Email, u.Name, u.PasswordHash,
			u.IsActive, u.EmailVerified, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return err
		}

		for _, roleID := range roleIDs {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO user_roles (user_id, role_id)
				VALUES ($1, $2)
				ON CONFLICT (user_id, role_id) DO NOTHING`, u.ID, roleID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var coded *errx.Error
		if errx.As(err, &coded) {
			return err
		}
		if storex.IsUniqueViolation(err) {
			return user.ErrEmailTaken().WithDetail("email", u.Email).WithCause(err)
		}
		return errx.Wrap(err, "failed to accept invitation", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresInvitationRepository) MarkCancelled(ctx context.Context, invitationID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invitations SET status = 'CANCELLED', updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`, invitationID)
	if err != nil {
		return errx.Wrap(err, "failed to cancel invitation", errx.TypeInternal)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return invitation.ErrNotPending()
	}
	return nil
}

func (r *PostgresInvitationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM invitations WHERE status = 'PENDING' AND expires_at < NOW()`)
	if err != nil {
		return 0, errx.Wrap(err, "failed to delete expired invitations", errx.TypeInternal)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
