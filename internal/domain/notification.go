package domain

import "time"

// NotificationCategory tags why a notification was produced.
type NotificationCategory string

const (
	NotificationEscalation   NotificationCategory = "ESCALATION"
	NotificationReminder     NotificationCategory = "REMINDER"
	NotificationAssigned     NotificationCategory = "ASSIGNED"
	NotificationSLABreach    NotificationCategory = "SLA_BREACH"
	NotificationStatusChange NotificationCategory = "STATUS_CHANGE"
)

// Notification is a per-user message produced by the engine or other
// services. The engine never mutates a notification after creation;
// read-tracking belongs to the notifications API.
type Notification struct {
	ID          int64
	UserID      int64
	ComplaintID *int64
	Category    NotificationCategory
	Message     string
	IsRead      bool
	CreatedAt   time.Time
}
