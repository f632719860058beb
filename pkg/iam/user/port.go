package user

import (
	"context"

	"github.com/konnected/identity/pkg/kernel"
)

// Update carries the optional fields of a profile edit. Nil means leave
// unchanged.
type Update struct {
	Name          *string
	IsActive      *bool
	EmailVerified *bool
}

// Repository defines the contract for user persistence. Every read and
// write is tenant-scoped; there is no cross-tenant lookup.
type Repository interface {
	Create(ctx context.Context, u User) error
	FindByID(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID) (*User, error)
	FindByEmail(ctx context.Context, tenantID kernel.TenantID, email string) (*User, error)
	List(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) (kernel.Paginated[User], error)
	Update(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID, update Update) (*User, error)
	Delete(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID) error
	ExistsByEmail(ctx context.Context, tenantID kernel.TenantID, email string) (bool, error)
}
