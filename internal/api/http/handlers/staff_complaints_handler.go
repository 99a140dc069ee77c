package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
)

// StaffComplaintsHandler exposes the staff console: queue listing,
// assignment, lifecycle and priority changes.
type StaffComplaintsHandler struct {
	complaints *service.ComplaintService
	assigner   *service.AssignmentService
}

// NewStaffComplaintsHandler constructs handler.
func NewStaffComplaintsHandler(complaints *service.ComplaintService, assigner *service.AssignmentService) *StaffComplaintsHandler {
	return &StaffComplaintsHandler{complaints: complaints, assigner: assigner}
}

// List handles GET /staff/complaints.
func (h *StaffComplaintsHandler) List(c *fiber.Ctx) error {
	filter := parseComplaintFilter(c)
	complaints, err := h.complaints.ListWithFilter(c.Context(), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		resp = append(resp, dto.FromComplaint(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /staff/complaints/:id.
func (h *StaffComplaintsHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	complaint, err := h.complaints.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromComplaint(complaint)})
}

// Assign handles POST /staff/complaints/:id/assign. With a staff_id in the
// body the complaint goes to that member; without one the engine picks the
// least-loaded available member of the routed department.
func (h *StaffComplaintsHandler) Assign(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid payload")
		}
	}

	if req.StaffID != nil {
		complaint, err := h.assigner.AssignToStaff(c.Context(), id, *req.StaffID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.FromComplaint(complaint)})
	}

	complaint, assignee, err := h.assigner.AutoAssign(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"complaint": dto.FromComplaint(complaint),
			"assignee":  staffResponse(assignee),
		},
	})
}

// UpdateStatus handles PUT /staff/complaints/:id/status.
func (h *StaffComplaintsHandler) UpdateStatus(c *fiber.Ctx) error {
	staffID, err := staffPrincipalID(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	complaint, err := h.complaints.UpdateStatus(c.Context(), staffID, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromComplaint(complaint)})
}

// ChangePriority handles PUT /staff/complaints/:id/priority.
func (h *StaffComplaintsHandler) ChangePriority(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.ChangePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	complaint, err := h.complaints.ChangePriority(c.Context(), id, req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromComplaint(complaint)})
}

func staffPrincipalID(c *fiber.Ctx) (int64, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return 0, fiber.NewError(http.StatusUnauthorized, "staff required")
	}
	return principal.Staff.ID, nil
}

func parseComplaintFilter(c *fiber.Ctx) repository.ComplaintFilter {
	var filter repository.ComplaintFilter
	if val := c.Query("citizen_id"); val != "" {
		if id, err := strconv.ParseInt(val, 10, 64); err == nil {
			filter.CitizenID = &id
		}
	}
	if val := c.Query("assigned_to"); val != "" {
		if id, err := strconv.ParseInt(val, 10, 64); err == nil {
			filter.AssignedTo = &id
		}
	}
	for _, s := range splitQuery(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.ComplaintStatus(s))
	}
	for _, p := range splitQuery(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.ComplaintPriority(p))
	}
	for _, cat := range splitQuery(c.Query("category")) {
		filter.Categories = append(filter.Categories, domain.ComplaintCategory(cat))
	}
	if val := c.Query("escalated"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			filter.Escalated = &parsed
		}
	}
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func splitQuery(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.ToUpper(strings.TrimSpace(p)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
