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
)

func newReminderFixture(t *testing.T, now time.Time) (*ReminderService, *fakeComplaintRepo, *fakeNotifier) {
	t.Helper()
	complaints := newFakeComplaintRepo()
	notifier := &fakeNotifier{}
	svc := NewReminderService(ReminderDependencies{
		ComplaintRepo: complaints,
		Notifier:      notifier,
		Metrics:       observability.NewMetrics(),
		Logger:        zap.NewNop(),
		Window:        2 * time.Hour,
		Now:           func() time.Time { return now },
	})
	return svc, complaints, notifier
}

func TestReminderWithinWindow(t *testing.T) {
	now := sweepBase.Add(10*time.Hour + 30*time.Minute) // 1.5h before a 12h deadline
	svc, complaints, notifier := newReminderFixture(t, now)
	c := openComplaint(domain.ComplaintPriorityHigh, sweepBase, 12*time.Hour)
	c.Status = domain.ComplaintStatusInProgress
	c.AssignedTo = int64Ptr(7)
	complaints.add(c)

	require.NoError(t, svc.Sweep(context.Background()))

	reminders := notifier.forCategory(domain.NotificationReminder)
	require.Len(t, reminders, 1)
	assert.Equal(t, int64(7), reminders[0].UserID)
	assert.Contains(t, reminders[0].Message, "approaching its SLA deadline")
}

func TestReminderIgnoresUnassignedComplaints(t *testing.T) {
	// An open complaint nobody owns is never reminded, however close the
	// deadline is.
	now := sweepBase.Add(47 * time.Hour)
	svc, complaints, notifier := newReminderFixture(t, now)
	complaints.add(openComplaint(domain.ComplaintPriorityLow, sweepBase, 48*time.Hour))

	require.NoError(t, svc.Sweep(context.Background()))
	assert.Empty(t, notifier.all())
}

func TestReminderIgnoresComplaintsOutsideWindow(t *testing.T) {
	now := sweepBase.Add(time.Hour)
	svc, complaints, notifier := newReminderFixture(t, now)

	far := openComplaint(domain.ComplaintPriorityLow, sweepBase, 48*time.Hour)
	far.AssignedTo = int64Ptr(4)
	far.Status = domain.ComplaintStatusAssigned
	complaints.add(far)

	past := openComplaint(domain.ComplaintPriorityCritical, sweepBase.Add(-6*time.Hour), 4*time.Hour)
	past.AssignedTo = int64Ptr(4)
	past.Status = domain.ComplaintStatusAssigned
	complaints.add(past)

	require.NoError(t, svc.Sweep(context.Background()))
	assert.Empty(t, notifier.all(), "neither far-future nor already-breached complaints are reminded")
}

func TestReminderRepeatsAcrossTicks(t *testing.T) {
	// No flag suppresses repeats; a complaint sitting in the window is
	// reminded again on the next tick. Documented best-effort behavior.
	now := sweepBase.Add(10*time.Hour + 30*time.Minute)
	svc, complaints, notifier := newReminderFixture(t, now)
	c := openComplaint(domain.ComplaintPriorityHigh, sweepBase, 12*time.Hour)
	c.Status = domain.ComplaintStatusAssigned
	c.AssignedTo = int64Ptr(7)
	complaints.add(c)

	require.NoError(t, svc.Sweep(context.Background()))
	require.NoError(t, svc.Sweep(context.Background()))
	assert.Len(t, notifier.forCategory(domain.NotificationReminder), 2)
}

func TestReminderBatchFailureSurfaces(t *testing.T) {
	now := sweepBase.Add(11 * time.Hour)
	svc, complaints, notifier := newReminderFixture(t, now)
	c := openComplaint(domain.ComplaintPriorityHigh, sweepBase, 12*time.Hour)
	c.Status = domain.ComplaintStatusAssigned
	c.AssignedTo = int64Ptr(7)
	complaints.add(c)
	notifier.err = errors.New("sink unavailable")

	assert.Error(t, svc.Sweep(context.Background()))
}
