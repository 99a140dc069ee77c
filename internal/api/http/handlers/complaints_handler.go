package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/service"
)

// ComplaintsHandler exposes citizen-facing complaint endpoints.
type ComplaintsHandler struct {
	complaints *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaints *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaints}
}

// Create handles POST /complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return fiber.NewError(http.StatusUnauthorized, "citizen account required")
	}

	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	complaint, err := h.complaints.Create(c.Context(), principal.User.ID, service.ComplaintCreateInput{
		Category:    req.Category,
		Priority:    req.Priority,
		Subject:     req.Subject,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromComplaint(complaint)})
}

// List handles GET /complaints, scoped to the caller's own complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return fiber.NewError(http.StatusUnauthorized, "citizen account required")
	}

	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 50)
	complaints, err := h.complaints.ListForCitizen(c.Context(), principal.User.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}

	resp := make([]dto.ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		resp = append(resp, dto.FromComplaint(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return fiber.NewError(http.StatusUnauthorized, "citizen account required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	complaint, err := h.complaints.GetForCitizen(c.Context(), principal.User.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromComplaint(complaint)})
}
