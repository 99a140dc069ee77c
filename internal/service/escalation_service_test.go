package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
)

var sweepBase = time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)

func newEscalationFixture(t *testing.T, now time.Time) (*EscalationService, *fakeComplaintRepo, *fakeStaffRepo, *fakeNotifier) {
	t.Helper()
	complaints := newFakeComplaintRepo()
	staff := &fakeStaffRepo{staff: []domain.StaffMember{
		{ID: 1, Name: "Ada", Role: domain.StaffRoleAdmin, Department: domain.DepartmentGeneral, Availability: domain.StaffAvailable},
		{ID: 2, Name: "Bert", Role: domain.StaffRoleAdmin, Department: domain.DepartmentGeneral, Availability: domain.StaffAvailable},
		{ID: 3, Name: "Cleo", Role: domain.StaffRoleStaff, Department: domain.DepartmentPlumbing, Availability: domain.StaffAvailable},
	}}
	notifier := &fakeNotifier{}
	svc := NewEscalationService(EscalationDependencies{
		ComplaintRepo: complaints,
		StaffRepo:     staff,
		Notifier:      notifier,
		Metrics:       observability.NewMetrics(),
		Logger:        zap.NewNop(),
		Now:           func() time.Time { return now },
	})
	return svc, complaints, staff, notifier
}

func openComplaint(priority domain.ComplaintPriority, createdAt time.Time, budget time.Duration) domain.Complaint {
	return domain.Complaint{
		CitizenID:   100,
		Category:    domain.ComplaintCategoryPlumbing,
		Priority:    priority,
		Status:      domain.ComplaintStatusOpen,
		Subject:     "leaking pipe",
		Description: "water everywhere",
		CreatedAt:   createdAt,
		SLADeadline: createdAt.Add(budget),
	}
}

func TestSweepEscalatesOverdueComplaint(t *testing.T) {
	now := sweepBase.Add(27*time.Hour + 30*time.Minute) // 3.5h past a 24h budget
	svc, complaints, _, notifier := newEscalationFixture(t, now)
	stored := complaints.add(openComplaint(domain.ComplaintPriorityMedium, sweepBase, 24*time.Hour))

	require.NoError(t, svc.Sweep(context.Background()))

	updated, err := complaints.GetByID(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsEscalated)
	assert.True(t, updated.IsOverdue)

	breaches := notifier.forCategory(domain.NotificationSLABreach)
	require.Len(t, breaches, 2, "one notification per administrator")
	assert.Contains(t, breaches[0].Message, "overdue by 3 hour(s)")
}

func TestSweepNotifiesAssigneeDistinctly(t *testing.T) {
	now := sweepBase.Add(30 * time.Hour)
	svc, complaints, _, notifier := newEscalationFixture(t, now)
	c := openComplaint(domain.ComplaintPriorityMedium, sweepBase, 24*time.Hour)
	c.Status = domain.ComplaintStatusAssigned
	c.AssignedTo = int64Ptr(3)
	complaints.add(c)

	require.NoError(t, svc.Sweep(context.Background()))

	all := notifier.all()
	require.Len(t, all, 3, "two admins plus the assignee")
	var assigneeMessages int
	for _, n := range all {
		if n.UserID == 3 {
			assigneeMessages++
			assert.Contains(t, n.Message, "assigned to you")
		}
	}
	assert.Equal(t, 1, assigneeMessages)
}

func TestSweepCriticalTierBoundary(t *testing.T) {
	// Exactly 50% elapsed must not escalate; just past it must.
	exactHalf := sweepBase.Add(2 * time.Hour)
	svc, complaints, _, notifier := newEscalationFixture(t, exactHalf)
	stored := complaints.add(openComplaint(domain.ComplaintPriorityCritical, sweepBase, 4*time.Hour))

	require.NoError(t, svc.Sweep(context.Background()))
	updated, _ := complaints.GetByID(context.Background(), stored.ID)
	assert.False(t, updated.IsEscalated, "50.0%% elapsed is not past the threshold")
	assert.Empty(t, notifier.all())

	justPast := sweepBase.Add(2*time.Hour + 2*time.Minute)
	svc2, complaints2, _, notifier2 := newEscalationFixture(t, justPast)
	stored2 := complaints2.add(openComplaint(domain.ComplaintPriorityCritical, sweepBase, 4*time.Hour))

	require.NoError(t, svc2.Sweep(context.Background()))
	updated2, _ := complaints2.GetByID(context.Background(), stored2.ID)
	assert.True(t, updated2.IsEscalated)
	assert.False(t, updated2.IsOverdue)
	msgs := notifier2.forCategory(domain.NotificationEscalation)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[0].Message, "Critical complaint has exceeded 50% of SLA time")
}

func TestSweepHighPriorityTier(t *testing.T) {
	// High with a 12h budget at T+9h01m: 75.14% elapsed, not overdue.
	now := sweepBase.Add(9*time.Hour + time.Minute)
	svc, complaints, _, notifier := newEscalationFixture(t, now)
	stored := complaints.add(openComplaint(domain.ComplaintPriorityHigh, sweepBase, 12*time.Hour))

	require.NoError(t, svc.Sweep(context.Background()))

	updated, _ := complaints.GetByID(context.Background(), stored.ID)
	assert.True(t, updated.IsEscalated)
	assert.False(t, updated.IsOverdue)
	msgs := notifier.forCategory(domain.NotificationEscalation)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[0].Message, "High priority complaint has exceeded 75% of SLA time")
}

func TestSweepIgnoresLowerPrioritiesBeforeDeadline(t *testing.T) {
	svc, complaints, _, notifier := newEscalationFixture(t, sweepBase.Add(47*time.Hour))
	complaints.add(openComplaint(domain.ComplaintPriorityLow, sweepBase, 48*time.Hour))    // 97.9%
	complaints.add(openComplaint(domain.ComplaintPriorityMedium, sweepBase, 48*time.Hour)) // long budget, not overdue

	require.NoError(t, svc.Sweep(context.Background()))
	assert.Empty(t, notifier.all())
}

func TestSweepIsIdempotent(t *testing.T) {
	now := sweepBase.Add(30 * time.Hour)
	svc, complaints, _, notifier := newEscalationFixture(t, now)
	complaints.add(openComplaint(domain.ComplaintPriorityMedium, sweepBase, 24*time.Hour))

	require.NoError(t, svc.Sweep(context.Background()))
	require.NoError(t, svc.Sweep(context.Background()))

	assert.Len(t, notifier.forCategory(domain.NotificationSLABreach), 2,
		"second sweep must not re-notify an escalated complaint")
}

func TestSweepSkipsAlreadyFlaggedAtStore(t *testing.T) {
	// Simulates losing the flag race to a concurrent writer: the store
	// reports alreadyEscalated and no notification goes out.
	now := sweepBase.Add(30 * time.Hour)
	svc, complaints, _, notifier := newEscalationFixture(t, now)
	complaints.add(openComplaint(domain.ComplaintPriorityMedium, sweepBase, 24*time.Hour))
	complaints.markEscalatedErr = func(int64) error {
		return repository.ErrAlreadyEscalated
	}

	require.NoError(t, svc.Sweep(context.Background()))
	assert.Empty(t, notifier.all())
}

func TestSweepContinuesPastPerComplaintFailures(t *testing.T) {
	now := sweepBase.Add(30 * time.Hour)
	svc, complaints, _, notifier := newEscalationFixture(t, now)
	first := complaints.add(openComplaint(domain.ComplaintPriorityMedium, sweepBase, 24*time.Hour))
	second := complaints.add(openComplaint(domain.ComplaintPriorityMedium, sweepBase, 24*time.Hour))

	boom := errors.New("connection reset")
	complaints.markEscalatedErr = func(id int64) error {
		if id == first.ID {
			return boom
		}
		return nil
	}

	require.NoError(t, svc.Sweep(context.Background()), "one bad complaint must not abort the sweep")

	failed, _ := complaints.GetByID(context.Background(), first.ID)
	ok, _ := complaints.GetByID(context.Background(), second.ID)
	assert.False(t, failed.IsEscalated, "failed complaint stays eligible for the next tick")
	assert.True(t, ok.IsEscalated)
	assert.Len(t, notifier.forCategory(domain.NotificationSLABreach), 2)

	// Next tick retries the failed one.
	complaints.markEscalatedErr = nil
	require.NoError(t, svc.Sweep(context.Background()))
	retried, _ := complaints.GetByID(context.Background(), first.ID)
	assert.True(t, retried.IsEscalated)
}

func TestSweepFlagStandsWhenNotificationBatchFails(t *testing.T) {
	now := sweepBase.Add(30 * time.Hour)
	svc, complaints, _, notifier := newEscalationFixture(t, now)
	stored := complaints.add(openComplaint(domain.ComplaintPriorityMedium, sweepBase, 24*time.Hour))
	notifier.err = errors.New("sink unavailable")

	require.NoError(t, svc.Sweep(context.Background()))

	updated, _ := complaints.GetByID(context.Background(), stored.ID)
	assert.True(t, updated.IsEscalated, "primary mutation is not rolled back on batch failure")
}

func TestSweepSkipsResolvedComplaints(t *testing.T) {
	now := sweepBase.Add(72 * time.Hour)
	svc, complaints, _, notifier := newEscalationFixture(t, now)
	c := openComplaint(domain.ComplaintPriorityCritical, sweepBase, 4*time.Hour)
	c.Status = domain.ComplaintStatusResolved
	resolved := sweepBase.Add(3 * time.Hour)
	c.ResolvedAt = &resolved
	complaints.add(c)

	require.NoError(t, svc.Sweep(context.Background()))
	assert.Empty(t, notifier.all())
}
