package invitationsrv

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/konnected/identity/pkg/asyncx"
	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/iam/invitation"
	"github.com/konnected/identity/pkg/iam/rbac"
	"github.com/konnected/identity/pkg/iam/tenant"
	"github.com/konnected/identity/pkg/iam/user"
	"github.com/konnected/identity/pkg/kernel"
	"github.com/konnected/identity/pkg/logx"
	"github.com/konnected/identity/pkg/notifx"
)

// Bulk invite per-item outcomes.
const (
	OutcomeInvited       = "invited"
	OutcomeAlreadyExists = "already_exists"
	OutcomeFailed        = "failed"
)

// bulkInviteWorkers bounds concurrent invitee processing so a large batch
// cannot exhaust the connection pool.
const bulkInviteWorkers = 4

// InviteInput is a single invitation request.
type InviteInput struct {
	Email   string
	RoleIDs []kernel.RoleID
}

// BulkResult is the per-email outcome of a bulk invite.
type BulkResult struct {
	Email   string `json:"email"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// AcceptInput redeems an invitation token into a new account.
type AcceptInput struct {
	Token    string
	Name     string
	Password string
}

// Options configures invitation issuance.
type Options struct {
	TTL         time.Duration
	TokenLength int
	FrontendURL string
	FromAddress string
}

// Service orchestrates the invitation lifecycle. Invitation emails are sent
// only after the row is safely stored; a failed send is logged and surfaced
// but never rolls the invitation back.
type Service struct {
	invitations invitation.Repository
	users       user.Repository
	roles       rbac.RoleRepository
	tenants     tenant.Repository
	passwords   auth.PasswordService
	audit       auth.AuditService
	mailer      *notifx.Client
	opts        Options
}

func NewService(invitations invitation.Repository, users user.Repository, roles rbac.RoleRepository, tenants tenant.Repository, passwords auth.PasswordService, audit auth.AuditService, mailer *notifx.Client, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if opts.TokenLength <= 0 {
		opts.TokenLength = 32
	}
	return &Service{
		invitations: invitations,
		users:       users,
		roles:       roles,
		tenants:     tenants,
		passwords:   passwords,
		audit:       audit,
		mailer:      mailer,
		opts:        opts,
	}
}

// ===== Invite =====

// Invite issues or reissues an invitation for one email address.
func (s *Service) Invite(ctx context.Context, authCtx kernel.AuthContext, input InviteInput) (*invitation.Invitation, error) {
	email := user.NormalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invitation.ErrInvalidEmail().WithDetail("email", input.Email)
	}

	if err := s.validateRoles(ctx, authCtx.TenantID, input.RoleIDs); err != nil {
		return nil, err
	}

	inv, err := s.issue(ctx, authCtx, email, input.RoleIDs)
	if err != nil {
		return nil, err
	}

	if err := s.sendInviteEmail(ctx, authCtx.TenantID, inv); err != nil {
		logx.WithError(err).WithField("email", email).Error("Invitation stored but email delivery failed")
		return inv, errx.Wrap(err, "invitation created but the email could not be sent", errx.TypeExternal)
	}
	return inv, nil
}

// BulkInvite validates the union of all requested roles once, then
// processes invitees independently. One bad address never blocks the rest.
func (s *Service) BulkInvite(ctx context.Context, authCtx kernel.AuthContext, inputs []InviteInput) ([]BulkResult, error) {
	union := map[kernel.RoleID]struct{}{}
	for _, in := range inputs {
		for _, id := range in.RoleIDs {
			union[id] = struct{}{}
		}
	}
	ids := make([]kernel.RoleID, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	if err := s.validateRoles(ctx, authCtx.TenantID, ids); err != nil {
		return nil, err
	}

	// inviteOne reports failures in its result, so the pool never sees an
	// error and every invitee gets an outcome.
	return asyncx.Pool(ctx, bulkInviteWorkers, inputs,
		func(ctx context.Context, in InviteInput) (BulkResult, error) {
			return s.inviteOne(ctx, authCtx, in), nil
		})
}

func (s *Service) inviteOne(ctx context.Context, authCtx kernel.AuthContext, input InviteInput) BulkResult {
	email := user.NormalizeEmail(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return BulkResult{Email: input.Email, Outcome: OutcomeFailed, Error: "invalid email address"}
	}

	inv, err := s.issue(ctx, authCtx, email, input.RoleIDs)
	if err != nil {
		// A standing invitation reads the same as a standing member to the
		// inviter: the address is already taken care of.
		if errx.Is(err, invitation.ErrAlreadyMember()) || errx.Is(err, invitation.ErrAlreadyInvited()) {
			return BulkResult{Email: email, Outcome: OutcomeAlreadyExists}
		}
		return BulkResult{Email: email, Outcome: OutcomeFailed, Error: err.Error()}
	}

	if err := s.sendInviteEmail(ctx, authCtx.TenantID, inv); err != nil {
		logx.WithError(err).WithField("email", email).Error("Invitation stored but email delivery failed")
		return BulkResult{Email: email, Outcome: OutcomeFailed, Error: "email delivery failed"}
	}
	return BulkResult{Email: email, Outcome: OutcomeInvited}
}

// issue stores a fresh PENDING invitation for the email. A live PENDING
// invitation blocks reissue; an expired or cancelled one is overwritten.
func (s *Service) issue(ctx context.Context, authCtx kernel.AuthContext, email string, roleIDs []kernel.RoleID) (*invitation.Invitation, error) {
	exists, err := s.users.ExistsByEmail(ctx, authCtx.TenantID, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invitation.ErrAlreadyMember().WithDetail("email", email)
	}

	pending, err := s.invitations.HasPending(ctx, authCtx.TenantID, email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, invitation.ErrAlreadyInvited().WithDetail("email", email)
	}

	token, err := invitation.NewToken(s.opts.TokenLength)
	if err != nil {
		return nil, err
	}

	inv := invitation.Invitation{
		ID:        uuid.New().String(),
		TenantID:  authCtx.TenantID,
		Email:     email,
		Token:     token,
		RoleIDs:   roleIDs,
		Status:    invitation.StatusPending,
		InvitedBy: authCtx.UserID,
		ExpiresAt: time.Now().Add(s.opts.TTL),
	}
	if err := s.invitations.Upsert(ctx, inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ===== Accept / Decline =====

// Accept redeems a PENDING, unexpired token into a new verified account.
// The invitation's roles are linked to the user; when none were requested
// the tenant's "user" role applies.
func (s *Service) Accept(ctx context.Context, input AcceptInput) (*user.Public, error) {
	inv, err := s.invitations.FindByToken(ctx, input.Token)
	if err != nil {
		return nil, err
	}
	if inv.Status != invitation.StatusPending {
		return nil, invitation.ErrNotPending()
	}
	if inv.IsExpired() {
		return nil, invitation.ErrExpired()
	}

	if input.Name == "" {
		return nil, user.ErrInvalidName()
	}
	if len(input.Password) < 10 {
		return nil, user.ErrWeakPassword()
	}

	roleIDs := inv.RoleIDs
	if len(roleIDs) == 0 {
		def, err := s.roles.FindByName(ctx, inv.TenantID, kernel.RoleUser)
		if err != nil {
			return nil, errx.Wrap(err, "tenant is missing its default role", errx.TypeInternal)
		}
		roleIDs = []kernel.RoleID{def.ID}
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := user.User{
		ID:            kernel.UserID(uuid.New().String()),
		TenantID:      inv.TenantID,
		Email:         inv.Email,
		Name:          input.Name,
		PasswordHash:  hash,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.invitations.AcceptWithUser(ctx, inv.ID, u, roleIDs); err != nil {
		return nil, err
	}

	s.audit.LogAccountCreated(ctx, u.ID, inv.TenantID, "invitation")

	pub := u.ToPublic()
	return &pub, nil
}

// Decline marks a PENDING, unexpired invitation CANCELLED. The guards match
// Accept: a stale token cannot be redeemed or declined.
func (s *Service) Decline(ctx context.Context, token string) error {
	inv, err := s.invitations.FindByToken(ctx, token)
	if err != nil {
		return err
	}
	if inv.Status != invitation.StatusPending {
		return invitation.ErrNotPending()
	}
	if inv.IsExpired() {
		return invitation.ErrExpired()
	}
	return s.invitations.MarkCancelled(ctx, inv.ID)
}

// ===== Admin =====

// List returns a page of the tenant's invitations.
func (s *Service) List(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) (kernel.Paginated[invitation.Invitation], error) {
	return s.invitations.ListByTenant(ctx, tenantID, opts)
}

// Cancel withdraws a PENDING invitation by email.
func (s *Service) Cancel(ctx context.Context, tenantID kernel.TenantID, email string) error {
	inv, err := s.invitations.FindByEmail(ctx, tenantID, user.NormalizeEmail(email))
	if err != nil {
		return err
	}
	return s.invitations.MarkCancelled(ctx, inv.ID)
}

// ===== Helpers =====

func (s *Service) validateRoles(ctx context.Context, tenantID kernel.TenantID, roleIDs []kernel.RoleID) error {
	if len(roleIDs) == 0 {
		return nil
	}
	roles, err := s.roles.FindByIDs(ctx, tenantID, roleIDs)
	if err != nil {
		return err
	}
	if len(roles) != len(roleIDs) {
		return rbac.ErrCrossTenant().WithDetail("requested", len(roleIDs)).WithDetail("found", len(roles))
	}
	return nil
}

func (s *Service) sendInviteEmail(ctx context.Context, tenantID kernel.TenantID, inv *invitation.Invitation) error {
	if s.mailer == nil {
		logx.WithField("email", inv.Email).Debug("No mailer configured, skipping invitation email")
		return nil
	}

	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}

	inviteURL := fmt.Sprintf("%s/invitations/accept?token=%s",
		s.opts.FrontendURL, url.QueryEscape(inv.Token))

	return asyncx.Retry(ctx, 3, time.Second, func(ctx context.Context) error {
		return s.mailer.SendTemplatedEmail(ctx, notifx.TemplateInviteUser,
			notifx.InviteUserData{
				OrgName:   t.Name,
				InviteURL: inviteURL,
			},
			notifx.EmailMessage{
				From:    s.opts.FromAddress,
				To:      []string{inv.Email},
				Subject: fmt.Sprintf("You're invited to join %s", t.Name),
			})
	})
}
