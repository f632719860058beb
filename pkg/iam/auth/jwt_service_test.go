package auth_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/kernel"
)

func newTestService() *auth.JWTService {
	return auth.NewJWTService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour, "test-issuer")
}

func testClaims() auth.Claims {
	return auth.Claims{
		UserID:   "user-1",
		TenantID: "tenant-1",
		Email:    "a@acme.io",
		Roles:    []string{"admin", "user"},
	}
}

func TestJWTService_AccessRoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateAccessToken(testClaims())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "user-1" || claims.TenantID != "tenant-1" || claims.Email != "a@acme.io" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "admin" {
		t.Fatalf("roles mismatch: %v", claims.Roles)
	}
}

// The payload uses snake_case claim names alongside the registered ones.
func TestJWTService_ClaimNamesAreSnakeCase(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateAccessToken(testClaims())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("malformed token: %q", token)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !strings.Contains(string(payload), `"tenant_id":"tenant-1"`) {
		t.Fatalf("tenant claim not serialized as tenant_id: %s", payload)
	}
}

func TestJWTService_RefreshRoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateRefreshToken(testClaims())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateRefreshToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.TenantID != "tenant-1" {
		t.Fatalf("tenant mismatch: %+v", claims)
	}
}

func TestJWTService_TokenClassesAreNotInterchangeable(t *testing.T) {
	svc := newTestService()

	access, _ := svc.GenerateAccessToken(testClaims())
	refresh, _ := svc.GenerateRefreshToken(testClaims())

	if _, err := svc.ValidateAccessToken(refresh); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
	if _, err := svc.ValidateRefreshToken(access); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}

func TestJWTService_WrongSecretRejected(t *testing.T) {
	svc := newTestService()
	other := auth.NewJWTService("another-secret", "refresh-secret", 15*time.Minute, time.Hour, "test-issuer")

	token, _ := svc.GenerateAccessToken(testClaims())
	if _, err := other.ValidateAccessToken(token); err == nil {
		t.Fatal("token signed with different secret accepted")
	}
}

func TestJWTService_ExpiredTokenRejected(t *testing.T) {
	svc := auth.NewJWTService("access-secret", "refresh-secret", -time.Minute, time.Hour, "test-issuer")

	token, _ := svc.GenerateAccessToken(testClaims())
	if _, err := svc.ValidateAccessToken(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestJWTService_GarbageRejected(t *testing.T) {
	svc := newTestService()

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.ValidateAccessToken(tok); err == nil {
			t.Fatalf("malformed token %q accepted", tok)
		}
	}
}

func TestJWTService_IncompleteClaimsRejected(t *testing.T) {
	svc := newTestService()

	if _, err := svc.GenerateAccessToken(auth.Claims{Email: "a@acme.io"}); err == nil {
		t.Fatal("claims without user and tenant accepted")
	}
}

func TestClaims_Validate(t *testing.T) {
	c := testClaims()
	if !c.Validate() {
		t.Fatal("complete claims rejected")
	}

	c.TenantID = ""
	if c.Validate() {
		t.Fatal("claims without tenant accepted")
	}

	c = testClaims()
	c.UserID = kernel.UserID("")
	if c.Validate() {
		t.Fatal("claims without user accepted")
	}
}

func TestRefreshToken_IsExpired(t *testing.T) {
	rt := auth.RefreshToken{ExpiresAt: time.Now().Add(time.Hour)}
	if rt.IsExpired() {
		t.Fatal("future token reported expired")
	}

	rt.ExpiresAt = time.Now().Add(-time.Second)
	if !rt.IsExpired() {
		t.Fatal("past token reported live")
	}
}
