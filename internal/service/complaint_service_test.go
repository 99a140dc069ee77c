package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/sla"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

func newComplaintFixture(t *testing.T, now time.Time) (*ComplaintService, *fakeComplaintRepo, *fakeNotifier) {
	t.Helper()
	complaints := newFakeComplaintRepo()
	notifier := &fakeNotifier{}
	svc := NewComplaintService(ComplaintDependencies{
		ComplaintRepo: complaints,
		Policy:        sla.MustDefaultPolicy(),
		Notifier:      notifier,
		Logger:        zap.NewNop(),
		Now:           func() time.Time { return now },
	})
	return svc, complaints, notifier
}

func TestCreateDerivesDeadlineFromPriority(t *testing.T) {
	svc, _, _ := newComplaintFixture(t, sweepBase)

	cases := map[domain.ComplaintPriority]time.Duration{
		domain.ComplaintPriorityCritical: 4 * time.Hour,
		domain.ComplaintPriorityHigh:     12 * time.Hour,
		domain.ComplaintPriorityMedium:   24 * time.Hour,
		domain.ComplaintPriorityLow:      48 * time.Hour,
	}
	for priority, budget := range cases {
		c, err := svc.Create(context.Background(), 100, ComplaintCreateInput{
			Category:    domain.ComplaintCategoryElectrical,
			Priority:    priority,
			Subject:     "sparking outlet",
			Description: "outlet in hallway sparks when used",
		})
		require.NoError(t, err)
		assert.Equal(t, c.CreatedAt.Add(budget), c.SLADeadline)
		assert.Equal(t, domain.ComplaintStatusOpen, c.Status)
		assert.Nil(t, c.AssignedTo)
		assert.False(t, c.IsEscalated)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _, _ := newComplaintFixture(t, sweepBase)

	_, err := svc.Create(context.Background(), 100, ComplaintCreateInput{
		Category: "GARDENING", Priority: domain.ComplaintPriorityLow,
		Subject: "s", Description: "d",
	})
	var derr *apperrors.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "VALIDATION_FAILED", derr.Code)

	_, err = svc.Create(context.Background(), 100, ComplaintCreateInput{
		Category: domain.ComplaintCategoryOther, Priority: "URGENT",
		Subject: "s", Description: "d",
	})
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "VALIDATION_FAILED", derr.Code)

	_, err = svc.Create(context.Background(), 100, ComplaintCreateInput{
		Category: domain.ComplaintCategoryOther, Priority: domain.ComplaintPriorityLow,
		Subject: "   ", Description: "d",
	})
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "VALIDATION_FAILED", derr.Code)
}

func TestGetForCitizenEnforcesOwnership(t *testing.T) {
	svc, complaints, _ := newComplaintFixture(t, sweepBase)
	stored := complaints.add(openComplaint(domain.ComplaintPriorityLow, sweepBase, 48*time.Hour))

	got, err := svc.GetForCitizen(context.Background(), stored.CitizenID, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)

	_, err = svc.GetForCitizen(context.Background(), stored.CitizenID+1, stored.ID)
	var derr *apperrors.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "FORBIDDEN", derr.Code)
}

func TestUpdateStatusResolveStampsResolvedAt(t *testing.T) {
	now := sweepBase.Add(3 * time.Hour)
	svc, complaints, notifier := newComplaintFixture(t, now)
	c := openComplaint(domain.ComplaintPriorityMedium, sweepBase, 24*time.Hour)
	c.Status = domain.ComplaintStatusInProgress
	c.AssignedTo = int64Ptr(3)
	stored := complaints.add(c)

	updated, err := svc.UpdateStatus(context.Background(), 3, stored.ID, domain.ComplaintStatusResolved)
	require.NoError(t, err)
	require.NotNil(t, updated.ResolvedAt)
	assert.Equal(t, now, *updated.ResolvedAt)

	changes := notifier.forCategory(domain.NotificationStatusChange)
	require.Len(t, changes, 1)
	assert.Equal(t, stored.CitizenID, changes[0].UserID)
}

func TestUpdateStatusRejectsInvalidTransitions(t *testing.T) {
	svc, complaints, _ := newComplaintFixture(t, sweepBase)

	c := openComplaint(domain.ComplaintPriorityMedium, sweepBase, 24*time.Hour)
	c.Status = domain.ComplaintStatusInProgress
	stored := complaints.add(c)

	_, err := svc.UpdateStatus(context.Background(), 3, stored.ID, domain.ComplaintStatusOpen)
	var derr *apperrors.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "VALIDATION_FAILED", derr.Code)

	resolved := openComplaint(domain.ComplaintPriorityMedium, sweepBase, 24*time.Hour)
	resolved.Status = domain.ComplaintStatusResolved
	storedResolved := complaints.add(resolved)

	_, err = svc.UpdateStatus(context.Background(), 3, storedResolved.ID, domain.ComplaintStatusInProgress)
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "CONFLICT", derr.Code, "resolution is terminal")
}

func TestChangePriorityRecomputesDeadlineFromCreation(t *testing.T) {
	// Raising priority two hours in must shrink the deadline relative to
	// the original creation time, not from the moment of the change.
	now := sweepBase.Add(2 * time.Hour)
	svc, complaints, _ := newComplaintFixture(t, now)
	stored := complaints.add(openComplaint(domain.ComplaintPriorityLow, sweepBase, 48*time.Hour))

	updated, err := svc.ChangePriority(context.Background(), stored.ID, domain.ComplaintPriorityCritical)
	require.NoError(t, err)
	assert.Equal(t, sweepBase.Add(4*time.Hour), updated.SLADeadline)
	assert.Equal(t, domain.ComplaintPriorityCritical, updated.Priority)
}

func TestChangePriorityRejectedAfterResolution(t *testing.T) {
	svc, complaints, _ := newComplaintFixture(t, sweepBase)
	c := openComplaint(domain.ComplaintPriorityLow, sweepBase, 48*time.Hour)
	c.Status = domain.ComplaintStatusResolved
	stored := complaints.add(c)

	_, err := svc.ChangePriority(context.Background(), stored.ID, domain.ComplaintPriorityHigh)
	var derr *apperrors.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "CONFLICT", derr.Code)
}
