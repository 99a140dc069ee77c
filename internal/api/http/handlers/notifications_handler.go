package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
)

// NotificationsHandler serves the per-user notification feed for both
// citizens and staff.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List handles GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	userID, err := principalUserID(c)
	if err != nil {
		return err
	}

	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 50)
	items, err := h.notifications.ListForUser(c.Context(), userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}

	resp := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.FromNotification(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// UnreadCount handles GET /notifications/unread-count.
func (h *NotificationsHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := principalUserID(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.UnreadCount(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unread": count}})
}

// MarkRead handles POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := principalUserID(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.Context(), id, userID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "read"}})
}

func principalUserID(c *fiber.Ctx) (int64, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return 0, fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	switch principal.SubjectType {
	case domain.SubjectTypeUser:
		if principal.User != nil {
			return principal.User.ID, nil
		}
	case domain.SubjectTypeStaff:
		if principal.Staff != nil {
			return principal.Staff.ID, nil
		}
	}
	return 0, fiber.NewError(http.StatusUnauthorized, "unknown subject")
}
