package events

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintAssigned      EventType = "complaint_assigned"
	EventComplaintEscalated     EventType = "complaint_escalated"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventComplaintResolved      EventType = "complaint_resolved"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID int64       `json:"complaint_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	CitizenID   int64                    `json:"citizen_id"`
	Category    domain.ComplaintCategory `json:"category"`
	Priority    domain.ComplaintPriority `json:"priority"`
	SLADeadline time.Time                `json:"sla_deadline"`
}

// ComplaintAssignedPayload payload.
type ComplaintAssignedPayload struct {
	StaffID    int64             `json:"staff_id"`
	Department domain.Department `json:"department"`
	Workload   int               `json:"workload"`
}

// ComplaintEscalatedPayload payload.
type ComplaintEscalatedPayload struct {
	Reason   string                   `json:"reason"`
	Priority domain.ComplaintPriority `json:"priority"`
	Overdue  bool                     `json:"overdue"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
}

// ComplaintResolvedPayload payload.
type ComplaintResolvedPayload struct {
	ResolvedBy int64     `json:"resolved_by"`
	ResolvedAt time.Time `json:"resolved_at"`
	MetSLA     bool      `json:"met_sla"`
}
