package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/sla"
)

// EscalationService re-evaluates open complaints against their SLA budget
// and escalates breaches through the tiered policy. A complaint escalates
// at most once in its lifetime; the is_escalated flag is the guard and the
// store enforces it with a conditional write.
type EscalationService struct {
	complaints repository.ComplaintRepository
	staff      repository.StaffRepository
	notifier   notificationSink
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	nowFn      func() time.Time
}

// EscalationDependencies bundles collaborators.
type EscalationDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	StaffRepo     repository.StaffRepository
	Notifier      notificationSink
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Now           func() time.Time
}

// NewEscalationService creates the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &EscalationService{
		complaints: deps.ComplaintRepo,
		staff:      deps.StaffRepo,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		nowFn:      nowFn,
	}
}

// Sweep runs one escalation pass over every non-terminal, not-yet-escalated
// complaint. A failure on one complaint is logged and the pass continues;
// the complaint stays eligible for the next tick.
func (s *EscalationService) Sweep(ctx context.Context) error {
	now := s.nowFn()

	complaints, err := s.complaints.ListNonTerminal(ctx, domain.NonTerminalStatuses)
	if err != nil {
		return fmt.Errorf("list non-terminal complaints: %w", err)
	}

	admins, err := s.staff.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("list administrators: %w", err)
	}

	var escalated, failed int
	for i := range complaints {
		complaint := &complaints[i]
		if complaint.IsEscalated {
			continue
		}

		reason, overdue, matched := evaluateTiers(complaint, now)
		if !matched {
			continue
		}

		if err := s.escalateOne(ctx, complaint, admins, reason, overdue); err != nil {
			if errors.Is(err, repository.ErrAlreadyEscalated) {
				continue
			}
			failed++
			s.logger.Warn("escalation failed, will retry next tick",
				zap.Int64("complaint_id", complaint.ID), zap.Error(err))
			continue
		}
		escalated++
	}

	s.logger.Info("escalation sweep finished",
		zap.Int("evaluated", len(complaints)),
		zap.Int("escalated", escalated),
		zap.Int("failed", failed))
	return nil
}

// evaluateTiers applies the tiers in priority order; the first match wins.
func evaluateTiers(complaint *domain.Complaint, now time.Time) (reason string, overdue, matched bool) {
	if sla.IsOverdue(complaint.SLADeadline, now) {
		hours := sla.HoursOverdue(complaint.SLADeadline, now)
		return fmt.Sprintf("Complaint is overdue by %d hour(s)", hours), true, true
	}

	elapsed := sla.PercentElapsed(complaint.CreatedAt, complaint.SLADeadline, now)
	switch {
	case complaint.Priority == domain.ComplaintPriorityCritical && elapsed > 50:
		return "Critical complaint has exceeded 50% of SLA time", false, true
	case complaint.Priority == domain.ComplaintPriorityHigh && elapsed > 75:
		return "High priority complaint has exceeded 75% of SLA time", false, true
	}
	return "", false, false
}

// escalateOne sets the flag first, then notifies. The flag write happens
// before the notification batch: if the batch fails the complaint is at
// least flagged, and the loss is logged rather than rolled back.
func (s *EscalationService) escalateOne(ctx context.Context, complaint *domain.Complaint, admins []domain.StaffMember, reason string, overdue bool) error {
	if err := s.complaints.MarkEscalated(ctx, complaint.ID, overdue); err != nil {
		return err
	}
	complaint.IsEscalated = true
	if overdue {
		complaint.IsOverdue = true
	}
	s.metrics.RecordEscalation()

	category := domain.NotificationEscalation
	if overdue {
		category = domain.NotificationSLABreach
	}

	batch := make([]domain.Notification, 0, len(admins)+1)
	for _, admin := range admins {
		batch = append(batch, domain.Notification{
			UserID:      admin.ID,
			ComplaintID: &complaint.ID,
			Category:    category,
			Message:     fmt.Sprintf("Complaint #%d escalated: %s", complaint.ID, reason),
		})
	}
	if complaint.AssignedTo != nil {
		batch = append(batch, domain.Notification{
			UserID:      *complaint.AssignedTo,
			ComplaintID: &complaint.ID,
			Category:    category,
			Message:     fmt.Sprintf("Complaint #%d assigned to you was escalated and must be acted upon: %s", complaint.ID, reason),
		})
	}

	if err := s.notifier.Append(ctx, batch); err != nil {
		s.logger.Error("escalation notification batch failed; flag already set",
			zap.Int64("complaint_id", complaint.ID), zap.Error(err))
	}

	s.publishEscalated(ctx, complaint, reason, overdue)
	return nil
}

func (s *EscalationService) publishEscalated(ctx context.Context, complaint *domain.Complaint, reason string, overdue bool) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventComplaintEscalated,
		ComplaintID: complaint.ID,
		Timestamp:   s.nowFn(),
		Payload: events.ComplaintEscalatedPayload{
			Reason:   reason,
			Priority: complaint.Priority,
			Overdue:  overdue,
		},
	})
}
