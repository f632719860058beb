package auth

import (
	"context"

	"github.com/konnected/identity/pkg/kernel"
)

// TokenService defines the contract for signing and verifying session tokens.
// Verification checks signature, expiry, audience, and claim shape in one
// step; every failure collapses to a single invalid-token error so callers
// cannot distinguish a bad signature from an expired token.
type TokenService interface {
	GenerateAccessToken(claims Claims) (string, error)
	GenerateRefreshToken(claims Claims) (string, error)
	ValidateAccessToken(token string) (*Claims, error)
	ValidateRefreshToken(token string) (*Claims, error)
}

// TokenRepository defines the contract for the server-side refresh-token
// store.
type TokenRepository interface {
	// Save persists a newly issued refresh token.
	Save(ctx context.Context, token RefreshToken) error

	// Consume atomically looks up and deletes the stored token in a single
	// operation. The record is gone regardless of what the caller does with
	// the result, so a refresh token can never be presented twice.
	Consume(ctx context.Context, token string) (*RefreshToken, error)

	// ConsumeForUser is Consume scoped to one owner; a token held by a
	// different user is left untouched.
	ConsumeForUser(ctx context.Context, token string, userID kernel.UserID) (*RefreshToken, error)

	// RevokeAllForUser deletes every stored refresh token for a user.
	RevokeAllForUser(ctx context.Context, userID kernel.UserID) error

	// DeleteExpired purges expired rows and returns how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// PasswordService defines the contract for credential hashing. Verify
// reports only a boolean outcome; a malformed hash is indistinguishable from
// a wrong password.
type PasswordService interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// LoginThrottle limits login attempts per (tenant, email). Implementations
// fail open: an unavailable backend must not lock every user out.
type LoginThrottle interface {
	Allow(ctx context.Context, tenantID kernel.TenantID, email string) bool
	RecordFailure(ctx context.Context, tenantID kernel.TenantID, email string)
	Reset(ctx context.Context, tenantID kernel.TenantID, email string)
}

// AuditService defines the contract for authentication audit logging.
type AuditService interface {
	LogLoginAttempt(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID, email string, success bool)
	LogLogout(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID)
	LogTokenRefresh(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID)
	LogAccountCreated(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID, method string)
}
