package invitation

import (
	"context"

	"github.com/konnected/identity/pkg/iam/user"
	"github.com/konnected/identity/pkg/kernel"
)

// Repository defines the contract for invitation persistence.
type Repository interface {
	// Upsert inserts the invitation or, when a row for (tenant, email)
	// already exists, replaces its token, roles, expiry, and status in one
	// atomic statement. Re-inviting therefore reissues rather than
	// duplicates.
	Upsert(ctx context.Context, inv Invitation) error

	FindByToken(ctx context.Context, token string) (*Invitation, error)
	FindByEmail(ctx context.Context, tenantID kernel.TenantID, email string) (*Invitation, error)
	ListByTenant(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) (kernel.Paginated[Invitation], error)

	// HasPending reports whether a live PENDING invitation exists for the
	// email in the tenant.
	HasPending(ctx context.Context, tenantID kernel.TenantID, email string) (bool, error)

	// AcceptWithUser atomically marks the invitation ACCEPTED, creates the
	// user, and links the invitation's roles to it. A concurrent acceptance
	// of the same token leaves exactly one winner.
	AcceptWithUser(ctx context.Context, invitationID string, u user.User, roleIDs []kernel.RoleID) error

	// MarkCancelled moves a PENDING invitation to CANCELLED.
	MarkCancelled(ctx context.Context, invitationID string) error

	// DeleteExpired purges expired PENDING invitations.
	DeleteExpired(ctx context.Context) (int64, error)
}
