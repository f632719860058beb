package tenantsrv

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/iam/auth/authsrv"
	"github.com/konnected/identity/pkg/iam/rbac"
	"github.com/konnected/identity/pkg/iam/tenant"
	"github.com/konnected/identity/pkg/iam/user"
	"github.com/konnected/identity/pkg/kernel"
	"github.com/konnected/identity/pkg/logx"
)

// MinAdminPasswordLength applies to the first admin created at onboarding.
const MinAdminPasswordLength = 10

// RegisterOrganizationInput is the onboarding request.
type RegisterOrganizationInput struct {
	OrganizationName string
	OrganizationSlug string
	AdminEmail       string
	AdminPassword    string
	AdminName        string
}

// RegisterOrganizationResult is returned on successful onboarding. The new
// admin is logged in immediately.
type RegisterOrganizationResult struct {
	TenantID    kernel.TenantID `json:"tenantId"`
	AdminUserID kernel.UserID   `json:"adminUserId"`
	Tokens      auth.TokenPair  `json:"tokens"`
}

// Service orchestrates tenant onboarding and lookup.
type Service struct {
	tenants   tenant.Repository
	passwords auth.PasswordService
	sessions  *authsrv.Service
	audit     auth.AuditService
}

func NewService(tenants tenant.Repository, passwords auth.PasswordService, sessions *authsrv.Service, audit auth.AuditService) *Service {
	return &Service{
		tenants:   tenants,
		passwords: passwords,
		sessions:  sessions,
		audit:     audit,
	}
}

// RegisterOrganization creates a tenant with its builtin roles and first
// admin user, then issues tokens for the admin. The slug pre-check is a
// fast path only; the unique index decides races.
func (s *Service) RegisterOrganization(ctx context.Context, input RegisterOrganizationInput) (*RegisterOrganizationResult, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	slug := input.OrganizationSlug
	if slug == "" {
		slug = tenant.DeriveSlug(input.OrganizationName)
	}
	if !tenant.ValidSlug(slug) {
		return nil, tenant.ErrInvalidSlug().WithDetail("slug", slug)
	}

	taken, err := s.tenants.ExistsBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, tenant.ErrSlugTaken().WithDetail("slug", slug)
	}

	hash, err := s.passwords.Hash(input.AdminPassword)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	seed := tenant.OrganizationSeed{
		Tenant: tenant.Tenant{
			ID:        kernel.TenantID(uuid.New().String()),
			Name:      input.OrganizationName,
			Slug:      slug,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		AdminRole: rbac.Role{
			ID:          kernel.RoleID(uuid.New().String()),
			Name:        kernel.RoleAdmin,
			Description: "Full administrative access",
		},
		UserRole: rbac.Role{
			ID:          kernel.RoleID(uuid.New().String()),
			Name:        kernel.RoleUser,
			Description: "Standard member access",
		},
		AdminUser: user.User{
			ID:            kernel.UserID(uuid.New().String()),
			Email:         user.NormalizeEmail(input.AdminEmail),
			Name:          input.AdminName,
			PasswordHash:  hash,
			IsActive:      true,
			EmailVerified: true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
	seed.AdminRole.TenantID = seed.Tenant.ID
	seed.UserRole.TenantID = seed.Tenant.ID
	seed.AdminUser.TenantID = seed.Tenant.ID

	if err := s.tenants.CreateOrganization(ctx, seed); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"tenant_id": seed.Tenant.ID.String(),
		"slug":      slug,
	}).Info("Organization registered")
	s.audit.LogAccountCreated(ctx, seed.AdminUser.ID, seed.Tenant.ID, "onboarding")

	pair, err := s.sessions.IssueTokens(ctx, &seed.AdminUser, []string{kernel.RoleAdmin})
	if err != nil {
		return nil, err
	}

	return &RegisterOrganizationResult{
		TenantID:    seed.Tenant.ID,
		AdminUserID: seed.AdminUser.ID,
		Tokens:      *pair,
	}, nil
}

// Get returns a tenant by ID.
func (s *Service) Get(ctx context.Context, id kernel.TenantID) (*tenant.Tenant, error) {
	return s.tenants.FindByID(ctx, id)
}

// GetBySlug returns a tenant by slug, used by clients resolving a login
// page to a tenant ID. Deactivated organizations do not resolve.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	t, err := s.tenants.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, tenant.ErrInactive().WithDetail("slug", slug)
	}
	return t, nil
}

func validateInput(input *RegisterOrganizationInput) error {
	if input.OrganizationName == "" {
		return tenant.ErrInvalidName()
	}
	email := user.NormalizeEmail(input.AdminEmail)
	if email == "" || !validEmail(email) {
		return user.ErrInvalidEmail()
	}
	input.AdminEmail = email
	if len(input.AdminPassword) < MinAdminPasswordLength {
		return user.ErrWeakPassword()
	}
	if input.AdminName == "" {
		return user.ErrInvalidName()
	}
	return nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
