package invitationsrv_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/invitation"
	"github.com/konnected/identity/pkg/iam/invitation/invitationsrv"
	"github.com/konnected/identity/pkg/iam/rbac"
	"github.com/konnected/identity/pkg/iam/tenant"
	"github.com/konnected/identity/pkg/iam/user"
	"github.com/konnected/identity/pkg/kernel"
)

// ===== Mocks =====

// memInvitations mirrors the storage semantics the service relies on:
// upsert keyed by (tenant, email) and a single-winner accept.
type memInvitations struct {
	mu   sync.Mutex
	rows map[string]*invitation.Invitation // key: tenant|email
	byID map[string]*invitation.Invitation

	users *memUsers
	links map[kernel.UserID][]kernel.RoleID
}

func newMemInvitations(users *memUsers) *memInvitations {
	return &memInvitations{
		rows:  map[string]*invitation.Invitation{},
		byID:  map[string]*invitation.Invitation{},
		users: users,
		links: map[kernel.UserID][]kernel.RoleID{},
	}
}

func (m *memInvitations) Upsert(ctx context.Context, inv invitation.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := inv.TenantID.String() + "|" + inv.Email
	if old, ok := m.rows[key]; ok {
		delete(m.byID, old.ID)
	}
	row := inv
	m.rows[key] = &row
	m.byID[row.ID] = &row
	return nil
}

func (m *memInvitations) FindByToken(ctx context.Context, token string) (*invitation.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.rows {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, invitation.ErrNotFound()
}

func (m *memInvitations) FindByEmail(ctx context.Context, tenantID kernel.TenantID, email string) (*invitation.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.rows[tenantID.String()+"|"+email]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, invitation.ErrNotFound()
}

func (m *memInvitations) ListByTenant(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) (kernel.Paginated[invitation.Invitation], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []invitation.Invitation
	for _, inv := range m.rows {
		if inv.TenantID == tenantID {
			items = append(items, *inv)
		}
	}
	opts = opts.Normalize()
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, len(items)), nil
}

func (m *memInvitations) HasPending(ctx context.Context, tenantID kernel.TenantID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.rows[tenantID.String()+"|"+email]
	return ok && inv.Status == invitation.StatusPending && !inv.IsExpired(), nil
}

func (m *memInvitations) AcceptWithUser(ctx context.Context, invitationID string, u user.User, roleIDs []kernel.RoleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[invitationID]
	if !ok || inv.Status != invitation.StatusPending {
		return invitation.ErrNotPending()
	}
	inv.Status = invitation.StatusAccepted
	m.users.add(u)
	m.links[u.ID] = roleIDs
	return nil
}

func (m *memInvitations) MarkCancelled(ctx context.Context, invitationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[invitationID]
	if !ok || inv.Status != invitation.StatusPending {
		return invitation.ErrNotPending()
	}
	inv.Status = invitation.StatusCancelled
	return nil
}

func (m *memInvitations) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

func (m *memInvitations) byEmail(tenantID kernel.TenantID, email string) *invitation.Invitation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[tenantID.String()+"|"+email]
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]user.User // key: tenant|email
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]user.User{}}
}

func (m *memUsers) add(u user.User) {
	m.users[u.TenantID.String()+"|"+u.Email] = u
}

func (m *memUsers) Create(ctx context.Context, u user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(u)
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.TenantID == tenantID && u.ID == id {
			return &u, nil
		}
	}
	return nil, user.ErrNotFound()
}

func (m *memUsers) FindByEmail(ctx context.Context, tenantID kernel.TenantID, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[tenantID.String()+"|"+email]; ok {
		return &u, nil
	}
	return nil, user.ErrNotFound()
}

func (m *memUsers) List(ctx context.Context, tenantID kernel.TenantID, opts kernel.PaginationOptions) (kernel.Paginated[user.User], error) {
	return kernel.Paginated[user.User]{}, nil
}

func (m *memUsers) Update(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID, update user.Update) (*user.User, error) {
	return nil, user.ErrNotFound()
}

func (m *memUsers) Delete(ctx context.Context, tenantID kernel.TenantID, id kernel.UserID) error {
	return nil
}

func (m *memUsers) ExistsByEmail(ctx context.Context, tenantID kernel.TenantID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[tenantID.String()+"|"+email]
	return ok, nil
}

type memRoles struct {
	roles map[kernel.RoleID]rbac.Role
}

func (m *memRoles) Create(ctx context.Context, role rbac.Role) error { return nil }

func (m *memRoles) FindByID(ctx context.Context, tenantID kernel.TenantID, id kernel.RoleID) (*rbac.Role, error) {
	if r, ok := m.roles[id]; ok && r.TenantID == tenantID {
		return &r, nil
	}
	return nil, rbac.ErrRoleNotFound()
}

func (m *memRoles) FindByName(ctx context.Context, tenantID kernel.TenantID, name string) (*rbac.Role, error) {
	for _, r := range m.roles {
		if r.TenantID == tenantID && r.Name == name {
			return &r, nil
		}
	}
	return nil, rbac.ErrRoleNotFound()
}

func (m *memRoles) FindByIDs(ctx context.Context, tenantID kernel.TenantID, ids []kernel.RoleID) ([]rbac.Role, error) {
	var found []rbac.Role
	for _, id := range ids {
		if r, ok := m.roles[id]; ok && r.TenantID == tenantID {
			found = append(found, r)
		}
	}
	return found, nil
}

func (m *memRoles) List(ctx context.Context, tenantID kernel.TenantID) ([]rbac.Role, error) {
	return nil, nil
}

func (m *memRoles) Update(ctx context.Context, role rbac.Role) error { return nil }

func (m *memRoles) Delete(ctx context.Context, tenantID kernel.TenantID, id kernel.RoleID) error {
	return nil
}

type memTenants struct{}

func (memTenants) CreateOrganization(ctx context.Context, seed tenant.OrganizationSeed) error {
	return nil
}

func (memTenants) FindByID(ctx context.Context, id kernel.TenantID) (*tenant.Tenant, error) {
	return &tenant.Tenant{ID: id, Name: "Acme Inc", Slug: "acme-inc", IsActive: true}, nil
}

func (memTenants) FindBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return nil, tenant.ErrNotFound()
}

func (memTenants) ExistsBySlug(ctx context.Context, slug string) (bool, error) { return false, nil }

type fakePasswords struct{}

func (fakePasswords) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakePasswords) Verify(plain, hash string) bool    { return hash == "hashed:"+plain }

type nopAudit struct{}

func (nopAudit) LogLoginAttempt(context.Context, kernel.UserID, kernel.TenantID, string, bool) {}
func (nopAudit) LogLogout(context.Context, kernel.UserID, kernel.TenantID)                     {}
func (nopAudit) LogTokenRefresh(context.Context, kernel.UserID, kernel.TenantID)               {}
func (nopAudit) LogAccountCreated(context.Context, kernel.UserID, kernel.TenantID, string)     {}

// ===== Fixtures =====

const tenantID = kernel.TenantID("tenant-1")

var (
	memberRole = rbac.Role{ID: "role-user", TenantID: tenantID, Name: kernel.RoleUser}
	editorRole = rbac.Role{ID: "role-editor", TenantID: tenantID, Name: "editor"}
	alienRole  = rbac.Role{ID: "role-alien", TenantID: "tenant-2", Name: "ops"}
)

type fixture struct {
	svc         *invitationsrv.Service
	invitations *memInvitations
	users       *memUsers
}

// newFixture wires the service without a mailer; email delivery has its
// own tests at the notifx level.
func newFixture() *fixture {
	users := newMemUsers()
	invitations := newMemInvitations(users)
	roles := &memRoles{roles: map[kernel.RoleID]rbac.Role{
		memberRole.ID: memberRole,
		editorRole.ID: editorRole,
		alienRole.ID:  alienRole,
	}}

	svc := invitationsrv.NewService(invitations, users, roles, memTenants{}, fakePasswords{}, nopAudit{}, nil, invitationsrv.Options{
		TTL:         time.Hour,
		TokenLength: 32,
		FrontendURL: "https://app.example.com",
	})
	return &fixture{svc: svc, invitations: invitations, users: users}
}

func inviterCtx() kernel.AuthContext {
	return kernel.AuthContext{UserID: "admin-1", TenantID: tenantID, Roles: []string{kernel.RoleAdmin}}
}

// ===== Invite =====

func TestInvite_CreatesPending(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{
		Email:   "New@Acme.IO",
		RoleIDs: []kernel.RoleID{editorRole.ID},
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if inv.Email != "new@acme.io" {
		t.Fatalf("email not normalized: %q", inv.Email)
	}
	if inv.Status != invitation.StatusPending {
		t.Fatalf("expected PENDING, got %q", inv.Status)
	}
	if inv.Token == "" {
		t.Fatal("expected a token")
	}
	if inv.InvitedBy != "admin-1" {
		t.Fatalf("unexpected inviter %q", inv.InvitedBy)
	}
	if inv.IsExpired() {
		t.Fatal("fresh invitation must not be expired")
	}
}

func TestInvite_LivePendingRejected(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"}); err != nil {
		t.Fatalf("first invite: %v", err)
	}
	_, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"})
	if !errx.Is(err, invitation.ErrAlreadyInvited()) {
		t.Fatalf("expected already invited while pending, got %v", err)
	}
}

func TestInvite_ReissueAfterExpiry(t *testing.T) {
	f := newFixture()

	first, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"})
	if err != nil {
		t.Fatalf("first invite: %v", err)
	}
	f.invitations.byEmail(tenantID, "new@acme.io").ExpiresAt = time.Now().Add(-time.Minute)

	second, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"})
	if err != nil {
		t.Fatalf("reissue after expiry: %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("reissue must rotate the token")
	}

	stored := f.invitations.byEmail(tenantID, "new@acme.io")
	if stored == nil || stored.Token != second.Token || stored.Status != invitation.StatusPending {
		t.Fatalf("store must hold the fresh PENDING invitation, got %+v", stored)
	}
}

func TestInvite_ReissueAfterDecline(t *testing.T) {
	f := newFixture()

	first, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"})
	if err != nil {
		t.Fatalf("first invite: %v", err)
	}
	if err := f.svc.Decline(context.Background(), first.Token); err != nil {
		t.Fatalf("decline: %v", err)
	}

	second, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"})
	if err != nil {
		t.Fatalf("reissue after decline: %v", err)
	}
	if second.Token == first.Token {
		t.Fatal("reissue must rotate the token")
	}
}

func TestInvite_ExistingMemberRejected(t *testing.T) {
	f := newFixture()
	f.users.add(user.User{ID: "user-1", TenantID: tenantID, Email: "taken@acme.io"})

	_, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "taken@acme.io"})
	if !errx.Is(err, invitation.ErrAlreadyMember()) {
		t.Fatalf("expected already member, got %v", err)
	}
}

func TestInvite_InvalidEmail(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "not-an-email"})
	if !errx.Is(err, invitation.ErrInvalidEmail()) {
		t.Fatalf("expected invalid email, got %v", err)
	}
}

func TestInvite_ForeignRoleRejected(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{
		Email:   "new@acme.io",
		RoleIDs: []kernel.RoleID{alienRole.ID},
	})
	if !errx.Is(err, rbac.ErrCrossTenant()) {
		t.Fatalf("expected cross-tenant error, got %v", err)
	}
}

// ===== Bulk invite =====

func TestBulkInvite_PerItemOutcomes(t *testing.T) {
	f := newFixture()
	f.users.add(user.User{ID: "user-1", TenantID: tenantID, Email: "member@acme.io"})
	if _, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "pending@acme.io"}); err != nil {
		t.Fatalf("seed pending invite: %v", err)
	}

	results, err := f.svc.BulkInvite(context.Background(), inviterCtx(), []invitationsrv.InviteInput{
		{Email: "one@acme.io"},
		{Email: "member@acme.io"},
		{Email: "broken"},
		{Email: "pending@acme.io"},
		{Email: "two@acme.io"},
	})
	if err != nil {
		t.Fatalf("bulk invite: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}

	want := []string{
		invitationsrv.OutcomeInvited,
		invitationsrv.OutcomeAlreadyExists,
		invitationsrv.OutcomeFailed,
		invitationsrv.OutcomeAlreadyExists,
		invitationsrv.OutcomeInvited,
	}
	for i, outcome := range want {
		if results[i].Outcome != outcome {
			t.Errorf("result %d (%s): got %q, want %q", i, results[i].Email, results[i].Outcome, outcome)
		}
	}
}

func TestBulkInvite_UnionRoleValidation(t *testing.T) {
	f := newFixture()

	_, err := f.svc.BulkInvite(context.Background(), inviterCtx(), []invitationsrv.InviteInput{
		{Email: "one@acme.io", RoleIDs: []kernel.RoleID{editorRole.ID}},
		{Email: "two@acme.io", RoleIDs: []kernel.RoleID{alienRole.ID}},
	})
	if !errx.Is(err, rbac.ErrCrossTenant()) {
		t.Fatalf("expected cross-tenant error for the whole batch, got %v", err)
	}
}

// ===== Accept =====

func acceptInput(token string) invitationsrv.AcceptInput {
	return invitationsrv.AcceptInput{Token: token, Name: "Newcomer", Password: "supersecret1"}
}

func TestAccept_CreatesVerifiedUser(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{
		Email:   "new@acme.io",
		RoleIDs: []kernel.RoleID{editorRole.ID},
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	pub, err := f.svc.Accept(context.Background(), acceptInput(inv.Token))
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if pub.Email != "new@acme.io" || pub.Name != "Newcomer" {
		t.Fatalf("unexpected user: %+v", pub)
	}

	created, err := f.users.FindByEmail(context.Background(), tenantID, "new@acme.io")
	if err != nil {
		t.Fatalf("created user not found: %v", err)
	}
	if !created.IsActive || !created.EmailVerified {
		t.Fatal("invited users must land active and verified")
	}
	if created.PasswordHash != "hashed:supersecret1" {
		t.Fatalf("password not hashed: %q", created.PasswordHash)
	}

	links := f.invitations.links[created.ID]
	if len(links) != 1 || links[0] != editorRole.ID {
		t.Fatalf("unexpected role links: %v", links)
	}
}

func TestAccept_DefaultsToUserRole(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	pub, err := f.svc.Accept(context.Background(), acceptInput(inv.Token))
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	links := f.invitations.links[pub.ID]
	if len(links) != 1 || links[0] != memberRole.ID {
		t.Fatalf("expected default member role, got %v", links)
	}
}

func TestAccept_ReplayRejected(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := f.svc.Accept(context.Background(), acceptInput(inv.Token)); err != nil {
		t.Fatalf("first accept: %v", err)
	}

	_, err = f.svc.Accept(context.Background(), acceptInput(inv.Token))
	if !errx.Is(err, invitation.ErrNotPending()) {
		t.Fatalf("expected not pending on replay, got %v", err)
	}
}

func TestAccept_Expired(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	stored := f.invitations.byEmail(tenantID, "new@acme.io")
	stored.ExpiresAt = time.Now().Add(-time.Minute)

	_, err = f.svc.Accept(context.Background(), acceptInput(inv.Token))
	if !errx.Is(err, invitation.ErrExpired()) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestAccept_WeakPassword(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	input := acceptInput(inv.Token)
	input.Password = "short"
	if _, err := f.svc.Accept(context.Background(), input); !errx.Is(err, user.ErrWeakPassword()) {
		t.Fatalf("expected weak password, got %v", err)
	}
}

func TestAccept_UnknownToken(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Accept(context.Background(), acceptInput("no-such-token"))
	if !errx.Is(err, invitation.ErrNotFound()) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// ===== Decline / Cancel =====

func TestDecline(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := f.svc.Decline(context.Background(), inv.Token); err != nil {
		t.Fatalf("decline: %v", err)
	}

	stored := f.invitations.byEmail(tenantID, "new@acme.io")
	if stored.Status != invitation.StatusCancelled {
		t.Fatalf("expected CANCELLED, got %q", stored.Status)
	}
}

// A stale token cannot be declined either; the invitation stays PENDING so
// a later reissue overwrites it rather than reviving a cancelled row.
func TestDecline_Expired(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	stored := f.invitations.byEmail(tenantID, "new@acme.io")
	stored.ExpiresAt = time.Now().Add(-time.Minute)

	if err := f.svc.Decline(context.Background(), inv.Token); !errx.Is(err, invitation.ErrExpired()) {
		t.Fatalf("expected expired, got %v", err)
	}
	if stored.Status != invitation.StatusPending {
		t.Fatalf("decline of an expired invitation must not change status, got %q", stored.Status)
	}
}

func TestDecline_AlreadyCancelled(t *testing.T) {
	f := newFixture()

	inv, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := f.svc.Decline(context.Background(), inv.Token); err != nil {
		t.Fatalf("decline: %v", err)
	}

	if err := f.svc.Decline(context.Background(), inv.Token); !errx.Is(err, invitation.ErrNotPending()) {
		t.Fatalf("expected not pending, got %v", err)
	}
}

func TestCancel_ByEmail(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Invite(context.Background(), inviterCtx(), invitationsrv.InviteInput{Email: "new@acme.io"}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if err := f.svc.Cancel(context.Background(), tenantID, "New@Acme.IO"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	stored := f.invitations.byEmail(tenantID, "new@acme.io")
	if stored.Status != invitation.StatusCancelled {
		t.Fatalf("expected CANCELLED, got %q", stored.Status)
	}
}
