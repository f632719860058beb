package invitationapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/konnected/identity/pkg/errx"
	"github.com/konnected/identity/pkg/iam/auth"
	"github.com/konnected/identity/pkg/iam/invitation/invitationsrv"
	"github.com/konnected/identity/pkg/kernel"
)

// Handler exposes the invitation lifecycle over HTTP.
type Handler struct {
	service *invitationsrv.Service
}

func NewHandler(service *invitationsrv.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public invitation routes. Accept and decline
// need no auth; the token itself is the credential.
func (h *Handler) RegisterRoutes(router fiber.Router) {
	grp := router.Group("/invitations")

	grp.Post("/accept", h.Accept)
	grp.Post("/decline", h.Decline)
}

// RegisterAdminRoutes mounts invitation management on the admin surface.
func (h *Handler) RegisterAdminRoutes(admin fiber.Router) {
	admin.Post("/users/invite", h.Invite)
	admin.Post("/users/bulk-invite", h.BulkInvite)
	admin.Get("/invitations", h.List)
	admin.Delete("/invitations", h.Cancel)
}

// ===== Requests =====

type inviteRequest struct {
	Email   string   `json:"email"`
	RoleIDs []string `json:"roleIds"`
}

type bulkInviteRequest struct {
	Invitations []inviteRequest `json:"invitations"`
}

type acceptRequest struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type declineRequest struct {
	Token string `json:"token"`
}

type cancelRequest struct {
	Email string `json:"email"`
}

func (r inviteRequest) toInput() invitationsrv.InviteInput {
	roleIDs := make([]kernel.RoleID, len(r.RoleIDs))
	for i, id := range r.RoleIDs {
		roleIDs[i] = kernel.RoleID(id)
	}
	return invitationsrv.InviteInput{Email: r.Email, RoleIDs: roleIDs}
}

// ===== Handlers =====

func (h *Handler) Invite(c *fiber.Ctx) error {
	authCtx, ok := auth.AuthFromLocals(c)
	if !ok {
		return auth.ErrInvalidAccessToken()
	}

	var req inviteRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}

	inv, err := h.service.Invite(c.Context(), authCtx, req.toInput())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(inv)
}

func (h *Handler) BulkInvite(c *fiber.Ctx) error {
	authCtx, ok := auth.AuthFromLocals(c)
	if !ok {
		return auth.ErrInvalidAccessToken()
	}

	var req bulkInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	if len(req.Invitations) == 0 {
		return errx.New("invitations must not be empty", errx.TypeValidation)
	}

	inputs := make([]invitationsrv.InviteInput, len(req.Invitations))
	for i, r := range req.Invitations {
		inputs[i] = r.toInput()
	}

	results, err := h.service.BulkInvite(c.Context(), authCtx, inputs)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"results": results})
}

func (h *Handler) Accept(c *fiber.Ctx) error {
	var req acceptRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.New("invalid request body", errx.TypeValidation)
	}
	if req.Token == "" {
		return errx.New("token is required", errx.TypeValidation)
	}

	pub, err := h.service.Accept(c.Context(), invitationsrv.AcceptInput{
		Token:    req.Token,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(pub)
}

func (h *Handler) Decline(c *fiber.Ctx) error {
	var req declineRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return errx.New("token is required", errx.TypeValidation)
	}

	if err := h.service.Decline(c.Context(), req.Token); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Invitation declined"})
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

func (h *Handler) Cancel(c *fiber.Ctx) error {
	var req cancelRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return errx.New("email is required", errx.TypeValidation)
	}

	if err := h.service.Cancel(c.Context(), auth.TenantFromLocals(c), req.Email); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
