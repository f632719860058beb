package userapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/iam/user/usersrv"
	"github.com/konnected/identity/pkg/kernel"
)

// Handler exposes admin user management over HTTP.
type Handler struct {
	service *usersrv.Service
}

func NewHandler(service *usersrv.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the user management routes on an already
// admin-gated router group.
func (h *Handler) RegisterRoutes(admin fiber.Router) {
	grp := admin.Group("/users")

	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Patch("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
}

type createUserRequest struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	RoleIDs  []string `json:"roleIds"`
}

type updateUserRequest struct {
	Name          *string `json:"name"`
	IsActive      *bool   `json:"isActive"`
	EmailVerified *bool   `json:"emailVerified"`
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}

	roleIDs := make([]kernel.RoleID, len(req.RoleIDs))
	for i, id := range req.RoleIDs {
		roleIDs[i] = kernel.RoleID(id)
	}

	pub, err := h.service.Create(c.Context(), auth.TenantFromLocals(c), usersrv.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		RoleIDs:  roleIDs,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(pub)
}

func (h *Handler) List(c *fiber.Ctx) error {
	opts := kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 50),
	}

	page, err := h.service.List(c.Context(), auth.TenantFromLocals(c), opts)
	if err != nil {
		return err
	}

	return c.JSON(page)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	pub, err := h.service.Get(c.Context(), auth.TenantFromLocals(c), kernel.UserID(c.Params("id")))
	if err != nil {
		return err
	}

	return c.JSON(pub)
}

func (h *Handler) Update(c *fiber.Ctx) error {
	authCtx, ok := auth.AuthFromLocals(c)
	if !ok {
		return auth.ErrInvalidAccessToken()
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}

	pub, err := h.service.Update(c.Context(), authCtx, kernel.UserID(c.Params("id")), usersrv.UpdateUserInput{
		Name:          req.Name,
		IsActive:      req.IsActive,
		EmailVerified: req.EmailVerified,
	})
	if err != nil {
		return err
	}

	return c.JSON(pub)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	authCtx, ok := auth.AuthFromLocals(c)
	if !ok {
		return auth.ErrInvalidAccessToken()
	}

	if err := h.service.Delete(c.Context(), authCtx, kernel.UserID(c.Params("id"))); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
