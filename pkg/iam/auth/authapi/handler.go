package authapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/iam/auth/authsrv"
)

// Handler exposes the session lifecycle over HTTP.
type Handler struct {
	service *authsrv.Service
}

func NewHandler(service *authsrv.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the auth routes. Login and refresh need only the
// tenant header; logout and me require an authenticated caller.
func (h *Handler) RegisterRoutes(router fiber.Router, mw *auth.TokenMiddleware) {
	grp := router.Group("/auth", auth.TenantResolver())

	grp.Post("/login", h.Login)
	grp.Post("/refresh-token", h.Refresh)
	grp.Post("/logout", mw.Authenticate(), h.Logout)
	grp.Get("/me", mw.Authenticate(), h.Me)
}

// ===== Requests =====

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
	Everywhere   bool   `json:"everywhere"`
}

// ===== Handlers =====

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return errx.New("email and password are required", errx.TypeValidation)
	}

	result, err := h.service.Login(c.Context(), auth.TenantFromLocals(c), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
		"user":         result.User,
	})
}

func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	if req.RefreshToken == "" {
		return errx.New("refreshToken is required", errx.TypeValidation)
	}

	pair, err := h.service.Refresh(c.Context(), auth.TenantFromLocals(c), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(pair)
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	authCtx, ok := auth.AuthFromLocals(c)
	if !ok {
		return auth.ErrInvalidAccessToken()
	}

	var req logoutRequest
	// Body is optional. A bare logout ends every session; presenting a
	// refresh token ends only that one.
	_ = c.BodyParser(&req)

	var err error
	if req.RefreshToken != "" && !req.Everywhere {
		err = h.service.Logout(c.Context(), authCtx, req.RefreshToken)
	} else {
		err = h.service.LogoutAll(c.Context(), authCtx)
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	authCtx, ok := auth.AuthFromLocals(c)
	if !ok {
		return auth.ErrInvalidAccessToken()
	}

	profile, err := h.service.Me(c.Context(), authCtx)
	if err != nil {
		return err
	}

	return c.JSON(profile)
}
