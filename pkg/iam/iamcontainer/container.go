package iamcontainer

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/konnected/identity/pkg/config"
	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/iam/auth/authapi"
	"github.com/konnected/identity/pkg/iam/auth/authinfra"
	"github.com/konnected/identity/pkg/iam/auth/authsrv"
	"github.com/konnected/identity/pkg/iam/invitation/invitationapi"
	"github.com/konnected/identity/pkg/iam/invitation/invitationinfra"
	"github.com/konnected/identity/pkg/iam/invitation/invitationsrv"
	"github.com/konnected/identity/pkg/iam/rbac/rbacapi"
	"github.com/konnected/identity/pkg/iam/rbac/rbacinfra"
	"github.com/konnected/identity/pkg/iam/rbac/rbacsrv"
	"github.com/konnected/identity/pkg/iam/tenant/tenantapi"
	"github.com/konnected/identity/pkg/iam/tenant/tenantinfra"
	"github.com/konnected/identity/pkg/iam/tenant/tenantsrv"
	"github.com/konnected/identity/pkg/iam/user/userapi"
	"github.com/konnected/identity/pkg/iam/user/userinfra"
	"github.com/konnected/identity/pkg/iam/user/usersrv"
	"github.com/konnected/identity/pkg/logx"
	"github.com/konnected/identity/pkg/notifx"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// No hidden globals, no ambient state — everything comes through here.
// ---------------------------------------------------------------------------

type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
	Cfg   *config.Config

	// Mailer is injected so the IAM module has zero knowledge of which
	// email provider backs it. Nil disables invitation emails.
	Mailer *notifx.Client
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// Only expose what cmd/ actually needs; repos and infra stay private.
// ---------------------------------------------------------------------------

type Container struct {
	// Services
	AuthService       *authsrv.Service
	TenantService     *tenantsrv.Service
	UserService       *usersrv.Service
	RBACService       *rbacsrv.Service
	InvitationService *invitationsrv.Service
	TokenService      auth.TokenService

	// API handlers — needed by cmd/ to register routes
	AuthHandlers       *authapi.Handler
	TenantHandlers     *tenantapi.Handler
	UserHandlers       *userapi.Handler
	RBACHandlers       *rbacapi.Handler
	InvitationHandlers *invitationapi.Handler

	// Middleware — needed by cmd/ to protect route groups
	AuthMiddleware *auth.TokenMiddleware

	// Background services
	TokenCleanup *authinfra.TokenCleanup
}

// ---------------------------------------------------------------------------
// New: constructs the entire IAM dependency graph.
// Order matters: infra → repos → services → handlers → middleware.
// ---------------------------------------------------------------------------

func New(deps Deps) *Container {
	logx.Info("🔧 Initializing IAM container...")

	cfg := deps.Cfg
	c := &Container{}

	// ── Repositories ─────────────────────────────────────────────────────

	tenantRepo := tenantinfra.NewPostgresTenantRepository(deps.DB)
	userRepo := userinfra.NewPostgresUserRepository(deps.DB)
	tokenRepo := authinfra.NewPostgresTokenRepository(deps.DB)
	roleRepo := rbacinfra.NewPostgresRoleRepository(deps.DB)
	permRepo := rbacinfra.NewPostgresPermissionRepository(deps.DB)
	assignmentRepo := rbacinfra.NewPostgresAssignmentRepository(deps.DB)
	invitationRepo := invitationinfra.NewPostgresInvitationRepository(deps.DB)

	// ── Infrastructure services ──────────────────────────────────────────

	passwordSvc := authinfra.NewBcryptPasswordService(cfg.Auth.Password.BcryptCost)
	auditSvc := authinfra.NewLogxAuditService()

	c.TokenService = auth.NewJWTService(
		cfg.Auth.JWT.AccessSecret,
		cfg.Auth.JWT.RefreshSecret,
		cfg.Auth.JWT.AccessTTL,
		cfg.Auth.JWT.RefreshTTL,
		cfg.Auth.JWT.Issuer,
	)

	var throttle auth.LoginThrottle
	if cfg.Auth.Throttle.Enabled {
		throttle = authinfra.NewRedisLoginThrottle(
			deps.Redis, cfg.Auth.Throttle.MaxAttempts, cfg.Auth.Throttle.Window)
		logx.Info("  ✅ Login throttle enabled")
	} else {
		logx.Warn("  ⚠️  Login throttle disabled")
	}

	// ── Domain services ──────────────────────────────────────────────────

	c.AuthService = authsrv.NewService(authsrv.ServiceOptions{
		Users:       userRepo,
		Assignments: assignmentRepo,
		Tokens:      c.TokenService,
		TokenRepo:   tokenRepo,
		Passwords:   passwordSvc,
		Throttle:    throttle,
		Audit:       auditSvc,
		RefreshTTL:  cfg.Auth.JWT.RefreshTTL,
	})

	c.TenantService = tenantsrv.NewService(tenantRepo, passwordSvc, c.AuthService, auditSvc)
	c.UserService = usersrv.NewService(userRepo, roleRepo, assignmentRepo, passwordSvc, auditSvc)
	c.RBACService = rbacsrv.NewService(roleRepo, permRepo, assignmentRepo, userRepo)

	c.InvitationService = invitationsrv.NewService(
		invitationRepo, userRepo, roleRepo, tenantRepo, passwordSvc, auditSvc, deps.Mailer,
		invitationsrv.Options{
			TTL:         cfg.Auth.Invitation.TTL,
			TokenLength: cfg.Auth.Invitation.TokenLength,
			FrontendURL: cfg.Server.FrontendURL,
			FromAddress: cfg.Notifx.FromAddress,
		})

	// ── Middleware ───────────────────────────────────────────────────────

	c.AuthMiddleware = auth.NewTokenMiddleware(c.TokenService)

	// ── API handlers ─────────────────────────────────────────────────────

	c.AuthHandlers = authapi.NewHandler(c.AuthService)
	c.TenantHandlers = tenantapi.NewHandler(c.TenantService)
	c.UserHandlers = userapi.NewHandler(c.UserService)
	c.RBACHandlers = rbacapi.NewHandler(c.RBACService)
	c.InvitationHandlers = invitationapi.NewHandler(c.InvitationService)

	// ── Background services ──────────────────────────────────────────────

	c.TokenCleanup = authinfra.NewTokenCleanup(tokenRepo, cfg.Auth.TokenCleanupInterval)

	logx.Info("✅ IAM container initialized")
	return c
}
