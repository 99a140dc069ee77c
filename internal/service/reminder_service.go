package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/sla"
)

// ReminderService warns assignees whose complaints are approaching their
// SLA deadline. It carries no idempotency flag: a complaint sitting in the
// window across several ticks is reminded again each tick, an accepted
// limitation bounded by the sweep interval.
type ReminderService struct {
	complaints repository.ComplaintRepository
	notifier   notificationSink
	metrics    *observability.Metrics
	logger     *zap.Logger
	window     time.Duration
	nowFn      func() time.Time
}

// ReminderDependencies bundles collaborators.
type ReminderDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Notifier      notificationSink
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Window        time.Duration
	Now           func() time.Time
}

// NewReminderService creates the service.
func NewReminderService(deps ReminderDependencies) *ReminderService {
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	window := deps.Window
	if window <= 0 {
		window = 2 * time.Hour
	}
	return &ReminderService{
		complaints: deps.ComplaintRepo,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		window:     window,
		nowFn:      nowFn,
	}
}

// Sweep collects assigned complaints due within the window and enqueues
// one reminder per complaint to its assignee, as a single batch per tick.
func (s *ReminderService) Sweep(ctx context.Context) error {
	now := s.nowFn()

	complaints, err := s.complaints.ListAssignedDueWithin(ctx, now, s.window)
	if err != nil {
		return fmt.Errorf("list complaints due within window: %w", err)
	}

	batch := make([]domain.Notification, 0, len(complaints))
	for i := range complaints {
		complaint := &complaints[i]
		if complaint.AssignedTo == nil {
			continue
		}
		// The store query already bounds the deadline; re-check here so a
		// stale read cannot remind about an already-breached complaint.
		if !sla.IsApproaching(complaint.SLADeadline, now, s.window) {
			continue
		}
		remaining := complaint.SLADeadline.Sub(now).Round(time.Minute)
		batch = append(batch, domain.Notification{
			UserID:      *complaint.AssignedTo,
			ComplaintID: &complaint.ID,
			Category:    domain.NotificationReminder,
			Message: fmt.Sprintf("Complaint #%d is approaching its SLA deadline: %s remaining",
				complaint.ID, remaining),
		})
	}

	if len(batch) == 0 {
		return nil
	}

	if err := s.notifier.Append(ctx, batch); err != nil {
		// Not retried this tick; still-eligible complaints are regenerated
		// on the next tick.
		s.logger.Error("reminder notification batch failed", zap.Error(err))
		return err
	}

	for range batch {
		s.metrics.RecordReminder()
	}
	s.logger.Info("reminder sweep finished", zap.Int("reminders", len(batch)))
	return nil
}
