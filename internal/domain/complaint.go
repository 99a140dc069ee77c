package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "OPEN"
	ComplaintStatusAssigned   ComplaintStatus = "ASSIGNED"
	ComplaintStatusInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintStatusResolved   ComplaintStatus = "RESOLVED"
)

// NonTerminalStatuses lists the states a complaint can still be worked in.
var NonTerminalStatuses = []ComplaintStatus{
	ComplaintStatusOpen,
	ComplaintStatusAssigned,
	ComplaintStatusInProgress,
}

// IsTerminal reports whether the status ends the complaint lifecycle.
func (s ComplaintStatus) IsTerminal() bool {
	return s == ComplaintStatusResolved
}

// ComplaintPriority enumerates SLA urgency.
type ComplaintPriority string

const (
	ComplaintPriorityLow      ComplaintPriority = "LOW"
	ComplaintPriorityMedium   ComplaintPriority = "MEDIUM"
	ComplaintPriorityHigh     ComplaintPriority = "HIGH"
	ComplaintPriorityCritical ComplaintPriority = "CRITICAL"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p ComplaintPriority) bool {
	switch p {
	case ComplaintPriorityLow, ComplaintPriorityMedium, ComplaintPriorityHigh, ComplaintPriorityCritical:
		return true
	}
	return false
}

// ComplaintCategory tags the kind of issue being reported.
type ComplaintCategory string

const (
	ComplaintCategoryPlumbing   ComplaintCategory = "PLUMBING"
	ComplaintCategoryElectrical ComplaintCategory = "ELECTRICAL"
	ComplaintCategoryFacility   ComplaintCategory = "FACILITY"
	ComplaintCategoryIT         ComplaintCategory = "IT"
	ComplaintCategoryOther      ComplaintCategory = "OTHER"
)

// ValidCategory reports whether c is a known category value.
func ValidCategory(c ComplaintCategory) bool {
	switch c {
	case ComplaintCategoryPlumbing, ComplaintCategoryElectrical, ComplaintCategoryFacility, ComplaintCategoryIT, ComplaintCategoryOther:
		return true
	}
	return false
}

// Complaint is the aggregate for citizen-reported issues.
//
// SLADeadline is derived from CreatedAt plus the per-priority SLA budget and is
// recomputed only when priority changes before resolution. IsEscalated is
// monotonic: once true it never reverts.
type Complaint struct {
	ID          int64
	CitizenID   int64
	Category    ComplaintCategory
	Priority    ComplaintPriority
	Status      ComplaintStatus
	Subject     string
	Description string
	AssignedTo  *int64
	SLADeadline time.Time
	IsOverdue   bool
	IsEscalated bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time
}
