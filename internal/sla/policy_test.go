package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
)

var base = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func TestDeadlinePerPriority(t *testing.T) {
	policy := MustDefaultPolicy()

	cases := []struct {
		priority domain.ComplaintPriority
		hours    int
	}{
		{domain.ComplaintPriorityCritical, 4},
		{domain.ComplaintPriorityHigh, 12},
		{domain.ComplaintPriorityMedium, 24},
		{domain.ComplaintPriorityLow, 48},
	}
	for _, tc := range cases {
		got := policy.Deadline(tc.priority, base)
		assert.Equal(t, time.Duration(tc.hours)*time.Hour, got.Sub(base), "priority %s", tc.priority)
	}
}

func TestNewPolicyRejectsBadTables(t *testing.T) {
	_, err := NewPolicy(map[domain.ComplaintPriority]int{
		domain.ComplaintPriorityLow:    48,
		domain.ComplaintPriorityMedium: 24,
		domain.ComplaintPriorityHigh:   12,
		// CRITICAL missing
	})
	require.Error(t, err)

	_, err = NewPolicy(map[domain.ComplaintPriority]int{
		domain.ComplaintPriorityLow:      0,
		domain.ComplaintPriorityMedium:   24,
		domain.ComplaintPriorityHigh:     12,
		domain.ComplaintPriorityCritical: 4,
	})
	require.Error(t, err)
}

func TestPercentElapsed(t *testing.T) {
	deadline := base.Add(4 * time.Hour)

	assert.Equal(t, 0.0, PercentElapsed(base, deadline, base))
	assert.Equal(t, 50.0, PercentElapsed(base, deadline, base.Add(2*time.Hour)))
	assert.Equal(t, 100.0, PercentElapsed(base, deadline, deadline))
	assert.Greater(t, PercentElapsed(base, deadline, deadline.Add(time.Hour)), 100.0)

	// Degenerate window clamps to zero.
	assert.Equal(t, 0.0, PercentElapsed(base, base, base.Add(time.Hour)))
}

func TestIsOverdueStrictlyAfterDeadline(t *testing.T) {
	deadline := base.Add(12 * time.Hour)

	assert.False(t, IsOverdue(deadline, deadline))
	assert.False(t, IsOverdue(deadline, deadline.Add(-time.Second)))
	assert.True(t, IsOverdue(deadline, deadline.Add(time.Second)))
}

func TestIsApproaching(t *testing.T) {
	deadline := base.Add(12 * time.Hour)
	window := 2 * time.Hour

	assert.False(t, IsApproaching(deadline, base, window), "far from deadline")
	assert.True(t, IsApproaching(deadline, deadline.Add(-2*time.Hour), window), "exactly at window edge")
	assert.True(t, IsApproaching(deadline, deadline.Add(-time.Minute), window))
	assert.False(t, IsApproaching(deadline, deadline, window), "no time remaining")
	assert.False(t, IsApproaching(deadline, deadline.Add(time.Minute), window), "already past")
}

func TestHoursOverdueFloors(t *testing.T) {
	deadline := base

	assert.Equal(t, 0, HoursOverdue(deadline, deadline))
	assert.Equal(t, 0, HoursOverdue(deadline, deadline.Add(59*time.Minute)))
	assert.Equal(t, 1, HoursOverdue(deadline, deadline.Add(60*time.Minute)))
	assert.Equal(t, 3, HoursOverdue(deadline, deadline.Add(3*time.Hour+59*time.Minute)))
}
