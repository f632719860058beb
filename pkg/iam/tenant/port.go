package tenant

import (
	"context"

	"github.com/konnected/identity/pkg/iam/rbac"
	"github.com/konnected/identity/pkg/iam/user"
	"github.com/konnected/identity/pkg/kernel"
)

// OrganizationSeed is everything created atomically at onboarding: the
// tenant, its two builtin roles, the first admin user, and the admin role
// assignment. Either all rows land or none do.
type OrganizationSeed struct {
	Tenant    Tenant
	AdminRole rbac.Role
	UserRole  rbac.Role
	AdminUser user.User
}

// Repository defines the contract for tenant persistence.
type Repository interface {
	// CreateOrganization persists the whole seed in one transaction. A slug
	// or admin-email uniqueness violation aborts the operation leaving no
	// partial tenant behind.
	CreateOrganization(ctx context.Context, seed OrganizationSeed) error

	FindByID(ctx context.Context, id kernel.TenantID) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}
