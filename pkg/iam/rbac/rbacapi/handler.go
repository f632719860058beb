package rbacapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/iam/rbac/rbacsrv"
	"github.com/konnected/identity/pkg/kernel"
)

// Handler exposes role and permission management over HTTP.
type Handler struct {
	service *rbacsrv.Service
}

func NewHandler(service *rbacsrv.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the RBAC routes on an already admin-gated router
// group.
func (h *Handler) RegisterRoutes(admin fiber.Router) {
	roles := admin.Group("/roles")
	roles.Post("/", h.CreateRole)
	roles.Get("/", h.ListRoles)
	roles.Get("/:id", h.GetRole)
	roles.Patch("/:id", h.UpdateRole)
	roles.Delete("/:id", h.DeleteRole)
	roles.Get("/:roleId/permissions", h.PermissionsForRole)
	roles.Post("/:roleId/permissions", h.GrantPermission)
	roles.Delete("/:roleId/permissions/:permissionId", h.RevokePermission)

	perms := admin.Group("/permissions")
	perms.Post("/", h.CreatePermission)
	perms.Get("/", h.ListPermissions)
	perms.Get("/:id", h.GetPermission)
	perms.Patch("/:id", h.UpdatePermission)
	perms.Delete("/:id", h.DeletePermission)

	users := admin.Group("/users")
	users.Get("/:userId/roles", h.RolesForUser)
	users.Post("/:userId/roles", h.AssignRole)
	users.Delete("/:userId/roles/:roleId", h.RevokeRole)
}

type nameDescriptionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// patchRequest distinguishes an omitted field from an empty one.
type patchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// ===== Roles =====

func (h *Handler) CreateRole(c *fiber.Ctx) error {
	var req nameDescriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}

	role, err := h.service.CreateRole(c.Context(), auth.TenantFromLocals(c), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(role)
}

func (h *Handler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.service.ListRoles(c.Context(), auth.TenantFromLocals(c))
	if err != nil {
		return err
	}
	return c.JSON(roles)
}

func (h *Handler) GetRole(c *fiber.Ctx) error {
	role, err := h.service.GetRole(c.Context(), auth.TenantFromLocals(c), kernel.RoleID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(role)
}

func (h *Handler) UpdateRole(c *fiber.Ctx) error {
	var req patchRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}

	role, err := h.service.UpdateRole(c.Context(), auth.TenantFromLocals(c), kernel.RoleID(c.Params("id")), rbacsrv.UpdateRoleInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(role)
}

func (h *Handler) DeleteRole(c *fiber.Ctx) error {
	if err := h.service.DeleteRole(c.Context(), auth.TenantFromLocals(c), kernel.RoleID(c.Params("id"))); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ===== Permissions =====

func (h *Handler) CreatePermission(c *fiber.Ctx) error {
	var req nameDescriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}

	perm, err := h.service.CreatePermission(c.Context(), auth.TenantFromLocals(c), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(perm)
}

func (h *Handler) ListPermissions(c *fiber.Ctx) error {
	perms, err := h.service.ListPermissions(c.Context(), auth.TenantFromLocals(c))
	if err != nil {
		return err
	}
	return c.JSON(perms)
}

func (h *Handler) GetPermission(c *fiber.Ctx) error {
	perm, err := h.service.GetPermission(c.Context(), auth.TenantFromLocals(c), kernel.PermissionID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(perm)
}

func (h *Handler) UpdatePermission(c *fiber.Ctx) error {
	var req patchRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}

	perm, err := h.service.UpdatePermission(c.Context(), auth.TenantFromLocals(c), kernel.PermissionID(c.Params("id")), rbacsrv.UpdatePermissionInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(perm)
}

func (h *Handler) DeletePermission(c *fiber.Ctx) error {
	if err := h.service.DeletePermission(c.Context(), auth.TenantFromLocals(c), kernel.PermissionID(c.Params("id"))); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ===== Assignments =====

type assignRoleRequest struct {
	RoleID string `json:"roleId"`
}

type grantPermissionRequest struct {
	PermissionID string `json:"permissionId"`
}

func (h *Handler) RolesForUser(c *fiber.Ctx) error {
	roles, err := h.service.RolesForUser(c.Context(), auth.TenantFromLocals(c), kernel.UserID(c.Params("userId")))
	if err != nil {
		return err
	}
	return c.JSON(roles)
}

func (h *Handler) AssignRole(c *fiber.Ctx) error {
	var req assignRoleRequest
	if err := c.BodyParser(&req); err != nil || req.RoleID == "" {
		return errx.New("roleId is required", errx.TypeValidation)
	}

	err := h.service.AssignRole(c.Context(), auth.TenantFromLocals(c),
		kernel.UserID(c.Params("userId")), kernel.RoleID(req.RoleID))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Role assigned"})
}

func (h *Handler) RevokeRole(c *fiber.Ctx) error {
	err := h.service.RevokeRole(c.Context(), auth.TenantFromLocals(c),
		kernel.UserID(c.Params("userId")), kernel.RoleID(c.Params("roleId")))
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) PermissionsForRole(c *fiber.Ctx) error {
	perms, err := h.service.PermissionsForRole(c.Context(), auth.TenantFromLocals(c), kernel.RoleID(c.Params("roleId")))
	if err != nil {
		return err
	}
	return c.JSON(perms)
}

func (h *Handler) GrantPermission(c *fiber.Ctx) error {
	var req grantPermissionRequest
	if err := c.BodyParser(&req); err != nil || req.PermissionID == "" {
		return errx.New("permissionId is required", errx.TypeValidation)
	}

	err := h.service.GrantPermission(c.Context(), auth.TenantFromLocals(c),
		kernel.RoleID(c.Params("roleId")), kernel.PermissionID(req.PermissionID))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Permission granted"})
}

func (h *Handler) RevokePermission(c *fiber.Ctx) error {
	err := h.service.RevokePermission(c.Context(), auth.TenantFromLocals(c),
		kernel.RoleID(c.Params("roleId")), kernel.PermissionID(c.Params("permissionId")))
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
