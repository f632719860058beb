package auth

import (
	"net/http"
	"time"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/kernel"
)

// ============================================================================
// Token Types
// ============================================================================

// Claims is the identity baked into every signed token. Both token classes
// carry the same claim set; only lifetime, secret, and audience differ.
type Claims struct {
	UserID   kernel.UserID   `json:"user_id"`
	TenantID kernel.TenantID `json:"tenant_id"`
	Email    string          `json:"email"`
	Roles    []string        `json:"roles"`
}

// Validate rejects tokens whose payload doesn't match the expected shape.
func (c *Claims) Validate() bool {
	return !c.UserID.IsEmpty() && !c.TenantID.IsEmpty()
}

// RefreshToken is the server-side record of an issued refresh token. The
// signed token string itself is the lookup key; the row is deleted the first
// time the token is presented, making it single-use.
type RefreshToken struct {
	ID        string        `db:"id" json:"id"`
	Token     string        `db:"token" json:"-"`
	UserID    kernel.UserID `db:"user_id" json:"user_id"`
	ExpiresAt time.Time     `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// IsExpired checks if the refresh token has expired.
func (r *RefreshToken) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// TokenPair is a freshly issued access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeMissingTenantHeader   = ErrRegistry.Register("MISSING_TENANT_HEADER", errx.TypeValidation, http.StatusBadRequest, "x-tenant-id header is required")
	CodeInvalidCredentials    = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthentication, http.StatusUnauthorized, "Invalid credentials")
	CodeAccountInactive       = ErrRegistry.Register("ACCOUNT_INACTIVE", errx.TypeForbidden, http.StatusForbidden, "Account is inactive")
	CodeEmailNotVerified      = ErrRegistry.Register("EMAIL_NOT_VERIFIED", errx.TypeForbidden, http.StatusForbidden, "Please verify your email address")
	CodeInvalidAccessToken    = ErrRegistry.Register("INVALID_ACCESS_TOKEN", errx.TypeAuthentication, http.StatusUnauthorized, "Invalid or missing access token")
	CodeInvalidRefreshToken   = ErrRegistry.Register("INVALID_REFRESH_TOKEN", errx.TypeAuthentication, http.StatusUnauthorized, "Invalid or expired refresh token")
	CodeTenantMismatch        = ErrRegistry.Register("TENANT_MISMATCH", errx.TypeForbidden, http.StatusForbidden, "Access denied: token tenant mismatch")
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Token generation failed")
	CodeTooManyAttempts       = ErrRegistry.Register("TOO_MANY_ATTEMPTS", errx.TypeAuthentication, http.StatusTooManyRequests, "Too many login attempts, try again later")
)

// Helper functions
func ErrMissingTenantHeader() *errx.Error {
	return ErrRegistry.New(CodeMissingTenantHeader)
}

func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

func ErrAccountInactive() *errx.Error {
	return ErrRegistry.New(CodeAccountInactive)
}

func ErrEmailNotVerified() *errx.Error {
	return ErrRegistry.New(CodeEmailNotVerified)
}

func ErrInvalidAccessToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidAccessToken)
}

func ErrInvalidRefreshToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidRefreshToken)
}

func ErrTenantMismatch() *errx.Error {
	return ErrRegistry.New(CodeTenantMismatch)
}

func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}

func ErrTooManyAttempts() *errx.Error {
	return ErrRegistry.New(CodeTooManyAttempts)
}
