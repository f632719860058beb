package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/kernel"
)

// ============================================================================
// Domain Types
// ============================================================================

// User is a member of exactly one tenant. Email is unique per tenant, not
// globally; the same address may exist in any number of tenants.
type User struct {
	ID            kernel.UserID   `db:"id" json:"id"`
	TenantID      kernel.TenantID `db:"tenant_id" json:"tenant_id"`
	Email         string          `db:"email" json:"email"`
	Name          string          `db:"name" json:"name"`
	PasswordHash  string          `db:"password_hash" json:"-"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	EmailVerified bool            `db:"email_verified" json:"email_verified"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// CanLogin reports whether the account is allowed to authenticate.
func (u *User) CanLogin() bool {
	return u.IsActive && u.EmailVerified
}

// Public is the representation safe to return to API clients.
type Public struct {
	ID            kernel.UserID   `json:"id"`
	TenantID      kernel.TenantID `json:"tenant_id"`
	Email         string          `json:"email"`
	Name          string          `json:"name"`
	IsActive      bool            `json:"is_active"`
	EmailVerified bool            `json:"email_verified"`
	Roles         []string        `json:"roles,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToPublic strips the credential hash from the entity.
func (u *User) ToPublic() Public {
	return Public{
		ID:            u.ID,
		TenantID:      u.TenantID,
		Email:         u.Email,
		Name:          u.Name,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// NormalizeEmail lowercases and trims an address so lookups and uniqueness
// behave case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeNotFound             = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeEmailTaken           = ErrRegistry.Register("EMAIL_TAKEN", errx.TypeConflict, http.StatusConflict, "A user with this email already exists")
	CodeInvalidEmail         = ErrRegistry.Register("INVALID_EMAIL", errx.TypeValidation, http.StatusBadRequest, "Invalid email address")
	CodeInvalidName          = ErrRegistry.Register("INVALID_NAME", errx.TypeValidation, http.StatusBadRequest, "Name is required")
	CodeWeakPassword         = ErrRegistry.Register("WEAK_PASSWORD", errx.TypeValidation, http.StatusBadRequest, "Password must be at least 10 characters")
	CodeCannotDeactivateSelf = ErrRegistry.Register("CANNOT_DEACTIVATE_SELF", errx.TypeValidation, http.StatusBadRequest, "Cannot deactivate your own account")
)

// Helper functions
func ErrNotFound() *errx.Error {
	return ErrRegistry.New(CodeNotFound)
}

func ErrEmailTaken() *errx.Error {
	return ErrRegistry.New(CodeEmailTaken)
}

func ErrInvalidEmail() *errx.Error {
	return ErrRegistry.New(CodeInvalidEmail)
}

func ErrInvalidName() *errx.Error {
	return ErrRegistry.New(CodeInvalidName)
}

func ErrWeakPassword() *errx.Error {
	return ErrRegistry.New(CodeWeakPassword)
}

func ErrCannotDeactivateSelf() *errx.Error {
	return ErrRegistry.New(CodeCannotDeactivateSelf)
}
