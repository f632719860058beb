package invitation

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/kernel"
)

// ============================================================================
// Domain Types
// ============================================================================

// Status is the lifecycle state of an invitation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusCancelled Status = "CANCELLED"
)

// Invitation is a pending offer for an email address to join a tenant.
// At most one invitation exists per (tenant, email); re-inviting replaces
// the token and expiry in place.
type Invitation struct {
	ID        string          `db:"id" json:"id"`
	TenantID  kernel.TenantID `db:"tenant_id" json:"tenant_id"`
	Email     string          `db:"email" json:"email"`
	Token     string          `db:"token" json:"-"`
	RoleIDs   []kernel.RoleID `db:"-" json:"role_ids"`
	Status    Status          `db:"status" json:"status"`
	InvitedBy kernel.UserID   `db:"invited_by" json:"invited_by"`
	ExpiresAt time.Time       `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// IsExpired checks if the invitation has passed its expiry.
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsAcceptable reports whether the invitation can still be redeemed.
func (i *Invitation) IsAcceptable() bool {
	return i.Status == StatusPending && !i.IsExpired()
}

// NewToken mints a URL-safe random invitation token of n bytes of entropy.
func NewToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to generate invitation token", errx.TypeInternal)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("INVITATION")

var (
	CodeNotFound       = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Invitation not found")
	CodeNotPending     = ErrRegistry.Register("NOT_PENDING", errx.TypeValidation, http.StatusBadRequest, "Invitation is no longer pending")
	CodeExpired        = ErrRegistry.Register("EXPIRED", errx.TypeValidation, http.StatusBadRequest, "Invitation has expired")
	CodeAlreadyMember  = ErrRegistry.Register("ALREADY_MEMBER", errx.TypeConflict, http.StatusConflict, "This email already belongs to a member")
	CodeAlreadyInvited = ErrRegistry.Register("ALREADY_INVITED", errx.TypeConflict, http.StatusConflict, "A pending invitation already exists for this email")
	CodeInvalidEmail   = ErrRegistry.Register("INVALID_EMAIL", errx.TypeValidation, http.StatusBadRequest, "Invalid email address")
)

// Helper functions
func ErrNotFound() *errx.Error {
	return ErrRegistry.New(CodeNotFound)
}

func ErrNotPending() *errx.Error {
	return ErrRegistry.New(CodeNotPending)
}

func ErrExpired() *errx.Error {
	return ErrRegistry.New(CodeExpired)
}

func ErrAlreadyMember() *errx.Error {
	return ErrRegistry.New(CodeAlreadyMember)
}

func ErrAlreadyInvited() *errx.Error {
	return ErrRegistry.New(CodeAlreadyInvited)
}

func ErrInvalidEmail() *errx.Error {
	return ErrRegistry.New(CodeInvalidEmail)
}
