package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/sla"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ComplaintService coordinates complaint intake and lifecycle workflows.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	policy     sla.Policy
	notifier   notificationSink
	dispatcher events.Dispatcher
	logger     *zap.Logger
	nowFn      func() time.Time
}

// ComplaintDependencies bundles collaborators.
type ComplaintDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Policy        sla.Policy
	Notifier      notificationSink
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Now           func() time.Time
}

// ComplaintCreateInput describes complaint submission payload.
type ComplaintCreateInput struct {
	Category    domain.ComplaintCategory
	Priority    domain.ComplaintPriority
	Subject     string
	Description string
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &ComplaintService{
		complaints: deps.ComplaintRepo,
		policy:     deps.Policy,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		nowFn:      nowFn,
	}
}

// Create files a complaint for a citizen, deriving the SLA deadline from
// the priority budget at creation time.
func (s *ComplaintService) Create(ctx context.Context, citizenID int64, input ComplaintCreateInput) (*domain.Complaint, error) {
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	if strings.TrimSpace(input.Subject) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("subject and description required", nil)
	}

	now := s.nowFn()
	complaint := &domain.Complaint{
		CitizenID:   citizenID,
		Category:    input.Category,
		Priority:    input.Priority,
		Status:      domain.ComplaintStatusOpen,
		Subject:     input.Subject,
		Description: input.Description,
		SLADeadline: s.policy.Deadline(input.Priority, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventComplaintCreated, complaint.ID, events.ComplaintCreatedPayload{
		CitizenID:   complaint.CitizenID,
		Category:    complaint.Category,
		Priority:    complaint.Priority,
		SLADeadline: complaint.SLADeadline,
	})
	return complaint, nil
}

// GetForCitizen returns a complaint only to its submitter.
func (s *ComplaintService) GetForCitizen(ctx context.Context, citizenID, complaintID int64) (*domain.Complaint, error) {
	complaint, err := s.get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.CitizenID != citizenID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return complaint, nil
}

// Get returns a complaint for staff callers.
func (s *ComplaintService) Get(ctx context.Context, complaintID int64) (*domain.Complaint, error) {
	return s.get(ctx, complaintID)
}

// ListForCitizen returns the citizen's own complaints.
func (s *ComplaintService) ListForCitizen(ctx context.Context, citizenID int64, limit, offset int) ([]domain.Complaint, error) {
	filter := repository.ComplaintFilter{CitizenID: &citizenID, Limit: limit, Offset: offset}
	complaints, err := s.complaints.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return complaints, nil
}

// ListWithFilter returns complaints for the staff console.
func (s *ComplaintService) ListWithFilter(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	complaints, err := s.complaints.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return complaints, nil
}

// UpdateStatus moves a complaint through its lifecycle. Resolution is
// terminal: resolved_at is stamped and the complaint leaves all sweeps.
func (s *ComplaintService) UpdateStatus(ctx context.Context, staffID, complaintID int64, status domain.ComplaintStatus) (*domain.Complaint, error) {
	complaint, err := s.get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.Status.IsTerminal() {
		return nil, apperrors.NewConflict("complaint already resolved", map[string]any{"complaint_id": complaintID})
	}
	if !validTransition(complaint.Status, status) {
		return nil, apperrors.NewValidationError("invalid status transition",
			map[string]any{"from": complaint.Status, "to": status})
	}

	oldStatus := complaint.Status
	var resolvedAt *time.Time
	if status == domain.ComplaintStatusResolved {
		now := s.nowFn()
		resolvedAt = &now
	}
	if err := s.complaints.UpdateStatus(ctx, complaintID, status, resolvedAt); err != nil {
		return nil, apperrors.MapError(err)
	}
	complaint.Status = status
	complaint.ResolvedAt = resolvedAt

	s.notifyStatusChange(ctx, complaint, oldStatus)

	if status == domain.ComplaintStatusResolved {
		s.publish(ctx, events.EventComplaintResolved, complaint.ID, events.ComplaintResolvedPayload{
			ResolvedBy: staffID,
			ResolvedAt: *resolvedAt,
			MetSLA:     !resolvedAt.After(complaint.SLADeadline),
		})
	} else {
		s.publish(ctx, events.EventComplaintStatusChanged, complaint.ID, events.ComplaintStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
		})
	}
	return complaint, nil
}

// ChangePriority rewrites priority before resolution and recomputes the
// SLA deadline from the original creation time.
func (s *ComplaintService) ChangePriority(ctx context.Context, complaintID int64, priority domain.ComplaintPriority) (*domain.Complaint, error) {
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	complaint, err := s.get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.Status.IsTerminal() {
		return nil, apperrors.NewConflict("complaint already resolved", map[string]any{"complaint_id": complaintID})
	}
	if complaint.Priority == priority {
		return complaint, nil
	}

	deadline := s.policy.Deadline(priority, complaint.CreatedAt)
	if err := s.complaints.UpdatePriority(ctx, complaintID, priority, deadline); err != nil {
		return nil, apperrors.MapError(err)
	}
	complaint.Priority = priority
	complaint.SLADeadline = deadline
	return complaint, nil
}

func (s *ComplaintService) get(ctx context.Context, complaintID int64) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}
	return complaint, nil
}

func validTransition(from, to domain.ComplaintStatus) bool {
	switch from {
	case domain.ComplaintStatusOpen:
		return to == domain.ComplaintStatusAssigned || to == domain.ComplaintStatusInProgress || to == domain.ComplaintStatusResolved
	case domain.ComplaintStatusAssigned:
		return to == domain.ComplaintStatusInProgress || to == domain.ComplaintStatusResolved
	case domain.ComplaintStatusInProgress:
		return to == domain.ComplaintStatusResolved
	}
	return false
}

func (s *ComplaintService) notifyStatusChange(ctx context.Context, complaint *domain.Complaint, oldStatus domain.ComplaintStatus) {
	batch := []domain.Notification{{
		UserID:      complaint.CitizenID,
		ComplaintID: &complaint.ID,
		Category:    domain.NotificationStatusChange,
		Message: fmt.Sprintf("Your complaint #%d moved from %s to %s",
			complaint.ID, oldStatus, complaint.Status),
	}}
	if err := s.notifier.Append(ctx, batch); err != nil {
		s.logger.Error("status change notification failed",
			zap.Int64("complaint_id", complaint.ID), zap.Error(err))
	}
}

func (s *ComplaintService) publish(ctx context.Context, eventType events.EventType, complaintID int64, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		ComplaintID: complaintID,
		Timestamp:   s.nowFn(),
		Payload:     payload,
	})
}
