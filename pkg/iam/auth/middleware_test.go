package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/auth"
)

func newGatedApp(t *testing.T, svc auth.TokenService, requiredRoles ...string) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{ErrorHandler: errx.FiberErrorHandler})
	mw := auth.NewTokenMiddleware(svc)

	handlers := []fiber.Handler{auth.TenantResolver(), mw.Authenticate()}
	if len(requiredRoles) > 0 {
		handlers = append(handlers, mw.RequireRoles(requiredRoles...))
	}
	handlers = append(handlers, func(c *fiber.Ctx) error {
		authCtx, _ := auth.AuthFromLocals(c)
		return c.JSON(fiber.Map{"user_id": authCtx.UserID})
	})

	app.Get("/protected", handlers...)
	return app
}

func doRequest(t *testing.T, app *fiber.App, tenantHeader, bearer string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if tenantHeader != "" {
		req.Header.Set("x-tenant-id", tenantHeader)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestMiddleware_MissingTenantHeader(t *testing.T) {
	svc := newTestService()
	app := newGatedApp(t, svc)

	token, _ := svc.GenerateAccessToken(testClaims())
	resp := doRequest(t, app, "", token)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMiddleware_MissingToken(t *testing.T) {
	app := newGatedApp(t, newTestService())

	resp := doRequest(t, app, "tenant-1", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMiddleware_InvalidToken(t *testing.T) {
	app := newGatedApp(t, newTestService())

	resp := doRequest(t, app, "tenant-1", "not-a-token")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMiddleware_TenantMismatch(t *testing.T) {
	svc := newTestService()
	app := newGatedApp(t, svc)

	token, _ := svc.GenerateAccessToken(testClaims())
	resp := doRequest(t, app, "tenant-2", token)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for token of another tenant, got %d", resp.StatusCode)
	}
}

func TestMiddleware_Success(t *testing.T) {
	svc := newTestService()
	app := newGatedApp(t, svc)

	token, _ := svc.GenerateAccessToken(testClaims())
	resp := doRequest(t, app, "tenant-1", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestMiddleware_RoleGate(t *testing.T) {
	svc := newTestService()
	app := newGatedApp(t, svc, "superuser")

	token, _ := svc.GenerateAccessToken(testClaims())
	resp := doRequest(t, app, "tenant-1", token)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without required role, got %d", resp.StatusCode)
	}

	appAdmin := newGatedApp(t, svc, "admin")
	resp = doRequest(t, appAdmin, "tenant-1", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with admin role, got %d", resp.StatusCode)
	}
}

func TestMiddleware_CookieFallback(t *testing.T) {
	svc := newTestService()
	app := newGatedApp(t, svc)

	token, _ := svc.GenerateAccessToken(testClaims())
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("x-tenant-id", "tenant-1")
	req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: token})

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 via cookie, got %d", resp.StatusCode)
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	expired := auth.NewJWTService("access-secret", "refresh-secret", -time.Minute, time.Hour, "test-issuer")
	app := newGatedApp(t, expired)

	token, _ := expired.GenerateAccessToken(testClaims())
	resp := doRequest(t, app, "tenant-1", token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", resp.StatusCode)
	}
}
