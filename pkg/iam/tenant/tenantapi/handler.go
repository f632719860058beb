package tenantapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/tenant/tenantsrv"
)

// Handler exposes tenant onboarding and lookup over HTTP.
type Handler struct {
	service *tenantsrv.Service
}

func NewHandler(service *tenantsrv.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the onboarding routes. Registration is open; no
// auth or tenant header is required yet.
func (h *Handler) RegisterRoutes(router fiber.Router) {
	grp := router.Group("/onboarding")

	grp.Post("/register-organization", h.RegisterOrganization)
	grp.Get("/organizations/:slug", h.GetBySlug)
}

type registerOrganizationRequest struct {
	OrganizationName string `json:"organizationName"`
	OrganizationSlug string `json:"organizationSlug"`
	AdminEmail       string `json:"adminEmail"`
	AdminPassword    string `json:"adminPassword"`
	AdminName        string `json:"adminName"`
}

func (h *Handler) RegisterOrganization(c *fiber.Ctx) error {
	var req registerOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}

	result, err := h.service.RegisterOrganization(c.Context(), tenantsrv.RegisterOrganizationInput{
		OrganizationName: req.OrganizationName,
		OrganizationSlug: req.OrganizationSlug,
		AdminEmail:       req.AdminEmail,
		AdminPassword:    req.AdminPassword,
		AdminName:        req.AdminName,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Organization registered successfully",
		"tenantId":     result.TenantID,
		"adminUserId":  result.AdminUserID,
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
	})
}

func (h *Handler) GetBySlug(c *fiber.Ctx) error {
	t, err := h.service.GetBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return err
	}

	// Only the fields a login page needs to resolve the tenant.
	return c.JSON(fiber.Map{
		"id":   t.ID,
		"name": t.Name,
		"slug": t.Slug,
	})
}
