package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// NotificationResponse is the notification view returned by the API.
type NotificationResponse struct {
	ID          int64                       `json:"id"`
	ComplaintID *int64                      `json:"complaint_id"`
	Category    domain.NotificationCategory `json:"category"`
	Message     string                      `json:"message"`
	IsRead      bool                        `json:"is_read"`
	CreatedAt   time.Time                   `json:"created_at"`
}

// FromNotification maps the domain model to its API view.
func FromNotification(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID,
		ComplaintID: n.ComplaintID,
		Category:    n.Category,
		Message:     n.Message,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
}
