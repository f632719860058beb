package authsrv

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/iam/rbac"
	"github.com/konnected/identity/pkg/iam/user"
	"github.com/konnected/identity/pkg/kernel"
	"github.com/konnected/identity/pkg/logx"
)

// LoginResult is the outcome of a successful authentication.
type LoginResult struct {
	Tokens auth.TokenPair `json:"tokens"`
	User   user.Public    `json:"user"`
}

// Profile is the authenticated caller's own view of their account.
type Profile struct {
	User  user.Public `json:"user"`
	Roles []string    `json:"roles"`
}

// Service orchestrates the login/refresh/logout token lifecycle.
type Service struct {
	users       user.Repository
	assignments rbac.AssignmentRepository
	tokens      auth.TokenService
	tokenRepo   auth.TokenRepository
	passwords   auth.PasswordService
	throttle    auth.LoginThrottle
	audit       auth.AuditService
	refreshTTL  time.Duration
}

type ServiceOptions struct {
	Users       user.Repository
	Assignments rbac.AssignmentRepository
	Tokens      auth.TokenService
	TokenRepo   auth.TokenRepository
	Passwords   auth.PasswordService
	Throttle    auth.LoginThrottle
	Audit       auth.AuditService
	RefreshTTL  time.Duration
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		users:       opts.Users,
		assignments: opts.Assignments,
		tokens:      opts.Tokens,
		tokenRepo:   opts.TokenRepo,
		passwords:   opts.Passwords,
		throttle:    opts.Throttle,
		audit:       opts.Audit,
		refreshTTL:  opts.RefreshTTL,
	}
}

// ===== Login =====

// Login authenticates a user within a tenant. Account flags are checked
// before the password so a suspended or unverified account reads as 403
// rather than as bad credentials.
func (s *Service) Login(ctx context.Context, tenantID kernel.TenantID, email, password string) (*LoginResult, error) {
	email = user.NormalizeEmail(email)

	if s.throttle != nil && !s.throttle.Allow(ctx, tenantID, email) {
		return nil, auth.ErrTooManyAttempts()
	}

	u, err := s.users.FindByEmail(ctx, tenantID, email)
	if err != nil {
		if errx.Is(err, user.ErrNotFound()) {
			s.recordFailure(ctx, "", tenantID, email)
			return nil, auth.ErrInvalidCredentials()
		}
		return nil, err
	}

	if !u.IsActive {
		return nil, auth.ErrAccountInactive()
	}
	if !u.EmailVerified {
		return nil, auth.ErrEmailNotVerified()
	}
	if !s.passwords.Verify(password, u.PasswordHash) {
		s.recordFailure(ctx, u.ID, tenantID, email)
		return nil, auth.ErrInvalidCredentials()
	}

	roles, err := s.assignments.RoleNamesForUser(ctx, tenantID, u.ID)
	if err != nil {
		return nil, err
	}

	pair, err := s.IssueTokens(ctx, u, roles)
	if err != nil {
		return nil, err
	}

	if s.throttle != nil {
		s.throttle.Reset(ctx, tenantID, email)
	}
	s.audit.LogLoginAttempt(ctx, u.ID, tenantID, email, true)

	pub := u.ToPublic()
	pub.Roles = roles
	return &LoginResult{Tokens: *pair, User: pub}, nil
}

// IssueTokens signs a fresh access/refresh pair for the user and persists
// the refresh token. It is shared by login, refresh, and onboarding.
func (s *Service) IssueTokens(ctx context.Context, u *user.User, roles []string) (*auth.TokenPair, error) {
	claims := auth.Claims{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Email:    u.Email,
		Roles:    roles,
	}

	accessToken, err := s.tokens.GenerateAccessToken(claims)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(claims)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.tokenRepo.Save(ctx, auth.RefreshToken{
		ID:        uuid.New().String(),
		Token:     refreshToken,
		UserID:    u.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	return &auth.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ===== Refresh =====

// Refresh rotates a refresh token: the presented token is verified, checked
// against the request tenant, consumed, and replaced by a fresh pair. Every
// failure mode reads the same to the caller.
func (s *Service) Refresh(ctx context.Context, tenantID kernel.TenantID, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, auth.ErrInvalidRefreshToken()
	}
	if claims.TenantID != tenantID {
		return nil, auth.ErrInvalidRefreshToken()
	}

	stored, err := s.tokenRepo.Consume(ctx, refreshToken)
	if err != nil {
		return nil, auth.ErrInvalidRefreshToken()
	}
	if stored.IsExpired() {
		return nil, auth.ErrInvalidRefreshToken()
	}
	if stored.UserID != claims.UserID {
		logx.WithFields(logx.Fields{
			"stored_user": stored.UserID.String(),
			"claim_user":  claims.UserID.String(),
		}).Warn("Refresh token owner mismatch")
		return nil, auth.ErrInvalidRefreshToken()
	}

	u, err := s.users.FindByID(ctx, tenantID, claims.UserID)
	if err != nil {
		return nil, auth.ErrInvalidRefreshToken()
	}
	if !u.CanLogin() {
		return nil, auth.ErrInvalidRefreshToken()
	}

	roles, err := s.assignments.RoleNamesForUser(ctx, tenantID, u.ID)
	if err != nil {
		return nil, err
	}

	pair, err := s.IssueTokens(ctx, u, roles)
	if err != nil {
		return nil, err
	}

	s.audit.LogTokenRefresh(ctx, u.ID, tenantID)
	return pair, nil
}

// ===== Logout =====

// Logout invalidates the presented refresh token. The consume is scoped to
// the caller, so a token belonging to another user is neither revoked nor
// revealed. An unknown token is not an error; logout is idempotent.
func (s *Service) Logout(ctx context.Context, authCtx kernel.AuthContext, refreshToken string) error {
	if refreshToken != "" {
		if _, err := s.tokenRepo.ConsumeForUser(ctx, refreshToken, authCtx.UserID); err != nil {
			logx.WithField("user_id", authCtx.UserID.String()).Debug("Logout with unknown refresh token")
		}
	}
	s.audit.LogLogout(ctx, authCtx.UserID, authCtx.TenantID)
	return nil
}

// LogoutAll revokes every session the user holds.
func (s *Service) LogoutAll(ctx context.Context, authCtx kernel.AuthContext) error {
	if err := s.tokenRepo.RevokeAllForUser(ctx, authCtx.UserID); err != nil {
		return err
	}
	s.audit.LogLogout(ctx, authCtx.UserID, authCtx.TenantID)
	return nil
}

// ===== Profile =====

// Me returns the caller's profile with their current role names.
func (s *Service) Me(ctx context.Context, authCtx kernel.AuthContext) (*Profile, error) {
	u, err := s.users.FindByID(ctx, authCtx.TenantID, authCtx.UserID)
	if err != nil {
		return nil, err
	}

	roles, err := s.assignments.RoleNamesForUser(ctx, authCtx.TenantID, u.ID)
	if err != nil {
		return nil, err
	}

	pub := u.ToPublic()
	pub.Roles = roles
	return &Profile{User: pub, Roles: roles}, nil
}

func (s *Service) recordFailure(ctx context.Context, userID kernel.UserID, tenantID kernel.TenantID, email string) {
	if s.throttle != nil {
		s.throttle.RecordFailure(ctx, tenantID, email)
	}
	s.audit.LogLoginAttempt(ctx, userID, tenantID, email, false)
}
