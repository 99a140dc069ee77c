// Package sla holds the pure time-budget arithmetic behind complaint
// deadlines. Nothing here performs I/O or reads the wall clock; callers
// always pass "now" explicitly.
package sla

import (
	"fmt"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// DefaultHours maps each priority to its allotted resolution budget.
var DefaultHours = map[domain.ComplaintPriority]int{
	domain.ComplaintPriorityCritical: 4,
	domain.ComplaintPriorityHigh:     12,
	domain.ComplaintPriorityMedium:   24,
	domain.ComplaintPriorityLow:      48,
}

// Policy resolves deadlines from priority. The hour table is fixed at
// construction; a zero-value Policy is not usable.
type Policy struct {
	hours map[domain.ComplaintPriority]int
}

// NewPolicy validates the hour table and builds a policy. Every known
// priority must have a positive budget.
func NewPolicy(hours map[domain.ComplaintPriority]int) (Policy, error) {
	for _, p := range []domain.ComplaintPriority{
		domain.ComplaintPriorityLow,
		domain.ComplaintPriorityMedium,
		domain.ComplaintPriorityHigh,
		domain.ComplaintPriorityCritical,
	} {
		h, ok := hours[p]
		if !ok {
			return Policy{}, fmt.Errorf("sla: missing hours for priority %s", p)
		}
		if h <= 0 {
			return Policy{}, fmt.Errorf("sla: non-positive hours (%d) for priority %s", h, p)
		}
	}
	copied := make(map[domain.ComplaintPriority]int, len(hours))
	for p, h := range hours {
		copied[p] = h
	}
	return Policy{hours: copied}, nil
}

// MustDefaultPolicy returns a policy over DefaultHours.
func MustDefaultPolicy() Policy {
	p, err := NewPolicy(DefaultHours)
	if err != nil {
		panic(err)
	}
	return p
}

// Hours returns the budget for a priority in whole hours.
func (p Policy) Hours(priority domain.ComplaintPriority) int {
	return p.hours[priority]
}

// Deadline computes createdAt plus the priority's budget.
func (p Policy) Deadline(priority domain.ComplaintPriority, createdAt time.Time) time.Time {
	return createdAt.Add(time.Duration(p.hours[priority]) * time.Hour)
}

// PercentElapsed reports how much of the budget between createdAt and
// deadline has passed at now, as a percentage. Clamped to 0 when the
// deadline does not lie after createdAt.
func PercentElapsed(createdAt, deadline, now time.Time) float64 {
	total := deadline.Sub(createdAt)
	if total <= 0 {
		return 0
	}
	return float64(now.Sub(createdAt)) / float64(total) * 100
}

// IsOverdue reports whether now is strictly past the deadline.
func IsOverdue(deadline, now time.Time) bool {
	return now.After(deadline)
}

// IsApproaching reports whether the deadline is ahead of now by at most
// window. A deadline already passed is not approaching.
func IsApproaching(deadline, now time.Time, window time.Duration) bool {
	remaining := deadline.Sub(now)
	return remaining > 0 && remaining <= window
}

// HoursOverdue returns the whole hours elapsed past the deadline,
// floored; zero when not overdue.
func HoursOverdue(deadline, now time.Time) int {
	if !now.After(deadline) {
		return 0
	}
	return int(now.Sub(deadline) / time.Hour)
}
