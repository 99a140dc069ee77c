package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	Category    domain.ComplaintCategory `json:"category"`
	Priority    domain.ComplaintPriority `json:"priority"`
	Subject     string                   `json:"subject"`
	Description string                   `json:"description"`
}

// UpdateStatusRequest moves a complaint through its lifecycle.
type UpdateStatusRequest struct {
	Status domain.ComplaintStatus `json:"status"`
}

// ChangePriorityRequest rewrites priority before resolution.
type ChangePriorityRequest struct {
	Priority domain.ComplaintPriority `json:"priority"`
}

// AssignRequest targets a specific staff member. Empty means auto-assign.
type AssignRequest struct {
	StaffID *int64 `json:"staff_id"`
}

// ComplaintResponse is the complaint view returned by the API.
type ComplaintResponse struct {
	ID          int64                    `json:"id"`
	CitizenID   int64                    `json:"citizen_id"`
	Category    domain.ComplaintCategory `json:"category"`
	Priority    domain.ComplaintPriority `json:"priority"`
	Status      domain.ComplaintStatus   `json:"status"`
	Subject     string                   `json:"subject"`
	Description string                   `json:"description"`
	AssignedTo  *int64                   `json:"assigned_to"`
	SLADeadline time.Time                `json:"sla_deadline"`
	IsOverdue   bool                     `json:"is_overdue"`
	IsEscalated bool                     `json:"is_escalated"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	ResolvedAt  *time.Time               `json:"resolved_at"`
}

// FromComplaint maps the domain model to its API view.
func FromComplaint(c *domain.Complaint) ComplaintResponse {
	return ComplaintResponse{
		ID:          c.ID,
		CitizenID:   c.CitizenID,
		Category:    c.Category,
		Priority:    c.Priority,
		Status:      c.Status,
		Subject:     c.Subject,
		Description: c.Description,
		AssignedTo:  c.AssignedTo,
		SLADeadline: c.SLADeadline,
		IsOverdue:   c.IsOverdue,
		IsEscalated: c.IsEscalated,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		ResolvedAt:  c.ResolvedAt,
	}
}
