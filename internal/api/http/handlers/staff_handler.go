package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
)

// StaffHandler exposes staff auth and directory endpoints.
type StaffHandler struct {
	authService  *service.AuthService
	staffService *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService, staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{authService: authService, staffService: staffService}
}

// Login handles POST /auth/staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	staff, token, exp, err := h.authService.LoginStaff(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": staffResponse(staff),
			"auth":  dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *StaffHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	token, err := h.authService.RequestPasswordReset(c.Context(), req.Email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": fiber.Map{
			"reset_token": token.Token,
			"expires_at":  token.ExpiresAt,
		},
	})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *StaffHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Token == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "token and new password required")
	}

	if err := h.authService.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_reset"}})
}

// ChangePassword handles POST /auth/password/change.
func (h *StaffHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "current and new password required")
	}

	subject := service.AuthSubject{Type: principal.SubjectType}
	switch principal.SubjectType {
	case domain.SubjectTypeUser:
		subject.ID = principal.User.ID
	case domain.SubjectTypeStaff:
		subject.ID = principal.Staff.ID
	default:
		return fiber.NewError(http.StatusUnauthorized, "unknown subject")
	}

	if err := h.authService.ChangePassword(c.Context(), subject, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

// CreateStaff handles POST /staff/members.
func (h *StaffHandler) CreateStaff(c *fiber.Ctx) error {
	var req dto.StaffCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}

	member, err := h.staffService.CreateStaffMember(c.Context(), service.StaffCreateInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		Department:   req.Department,
		Availability: req.Availability,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(member)})
}

// ListStaff handles GET /staff/members.
func (h *StaffHandler) ListStaff(c *fiber.Ctx) error {
	filter := parseStaffFilter(c)
	list, err := h.staffService.ListStaffMembers(c.Context(), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, 0, len(list))
	for i := range list {
		resp = append(resp, staffResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetStaff handles GET /staff/members/:id.
func (h *StaffHandler) GetStaff(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	member, err := h.staffService.GetStaffMember(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(member)})
}

// UpdateAvailability handles PUT /staff/members/:id/availability.
func (h *StaffHandler) UpdateAvailability(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.StaffAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	member, err := h.staffService.SetAvailability(c.Context(), id, req.Availability)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(member)})
}

func parseStaffFilter(c *fiber.Ctx) repository.StaffFilter {
	var filter repository.StaffFilter
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.StaffRole(roleStr)
		filter.Role = &role
	}
	if deptStr := c.Query("department"); deptStr != "" {
		dept := domain.Department(deptStr)
		filter.Department = &dept
	}
	if availStr := c.Query("availability"); availStr != "" {
		avail := domain.StaffAvailability(availStr)
		filter.Availability = &avail
	}
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

func parseIDParam(c *fiber.Ctx, key string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func staffResponse(member *domain.StaffMember) dto.StaffResponse {
	return dto.StaffResponse{
		ID:               member.ID,
		Name:             member.Name,
		Email:            member.Email,
		Role:             member.Role,
		Department:       member.Department,
		Availability:     member.Availability,
		ActiveComplaints: member.ActiveComplaints,
	}
}
