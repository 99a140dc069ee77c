package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// AssignmentService routes complaints to the least-loaded available staff
// member of the matching department. The store write is a conditional
// update, so two racing assigners can never both succeed.
type AssignmentService struct {
	complaints repository.ComplaintRepository
	staff      repository.StaffRepository
	routing    config.RoutingConfig
	notifier   notificationSink
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	StaffRepo     repository.StaffRepository
	Routing       config.RoutingConfig
	Notifier      notificationSink
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		complaints: deps.ComplaintRepo,
		staff:      deps.StaffRepo,
		routing:    deps.Routing,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// AutoAssign selects the best-fit staff member for an unassigned complaint
// and records the assignment.
func (s *AssignmentService) AutoAssign(ctx context.Context, complaintID int64) (*domain.Complaint, *domain.StaffMember, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if complaint.Status.IsTerminal() {
		return nil, nil, apperrors.NewConflict("complaint already resolved", map[string]any{"complaint_id": complaintID})
	}
	if complaint.AssignedTo != nil {
		return nil, nil, apperrors.NewAlreadyAssigned(complaintID)
	}

	dept := s.routing.DepartmentFor(complaint.Category)
	candidates, err := s.staff.ListAvailableByDepartment(ctx, dept)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if len(candidates) == 0 {
		return nil, nil, apperrors.NewNoEligibleStaff(string(dept))
	}

	// The repository orders by workload already; sort again so selection is
	// deterministic regardless of the backing implementation.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].ActiveComplaints != candidates[j].ActiveComplaints {
			return candidates[i].ActiveComplaints < candidates[j].ActiveComplaints
		}
		return candidates[i].ID < candidates[j].ID
	})
	assignee := candidates[0]

	if err := s.complaints.AssignStaff(ctx, complaint.ID, assignee.ID); err != nil {
		if errors.Is(err, repository.ErrAssignmentConflict) {
			return nil, nil, apperrors.NewAlreadyAssigned(complaintID)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, nil, apperrors.MapError(err)
	}

	complaint.AssignedTo = &assignee.ID
	if complaint.Status == domain.ComplaintStatusOpen {
		complaint.Status = domain.ComplaintStatusAssigned
	}
	s.metrics.RecordAssignment()

	s.notifyAssigned(ctx, complaint, &assignee)
	s.publishAssigned(ctx, complaint, &assignee)

	s.logger.Info("complaint auto-assigned",
		zap.Int64("complaint_id", complaint.ID),
		zap.Int64("staff_id", assignee.ID),
		zap.String("department", string(assignee.Department)),
		zap.Int("workload", assignee.ActiveComplaints))
	return complaint, &assignee, nil
}

// AssignToStaff records a manual assignment to a specific staff member.
// Unassigned complaints use the same conditional write as auto-assign;
// already-assigned ones are moved with a write conditioned on the current
// owner, so a concurrent reassignment surfaces as a conflict.
func (s *AssignmentService) AssignToStaff(ctx context.Context, complaintID, staffID int64) (*domain.Complaint, error) {
	assignee, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": staffID})
		}
		return nil, apperrors.MapError(err)
	}
	if assignee.Availability == domain.StaffOnLeave {
		return nil, apperrors.NewConflict("staff member on leave", map[string]any{"staff_id": staffID})
	}

	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}
	if complaint.Status.IsTerminal() {
		return nil, apperrors.NewConflict("complaint already resolved", map[string]any{"complaint_id": complaintID})
	}

	if complaint.AssignedTo == nil {
		err = s.complaints.AssignStaff(ctx, complaint.ID, assignee.ID)
	} else {
		if *complaint.AssignedTo == assignee.ID {
			return complaint, nil
		}
		err = s.complaints.ReassignStaff(ctx, complaint.ID, *complaint.AssignedTo, assignee.ID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrAssignmentConflict) {
			return nil, apperrors.NewAlreadyAssigned(complaintID)
		}
		return nil, apperrors.MapError(err)
	}

	complaint.AssignedTo = &assignee.ID
	if complaint.Status == domain.ComplaintStatusOpen {
		complaint.Status = domain.ComplaintStatusAssigned
	}

	s.notifyAssigned(ctx, complaint, assignee)
	s.publishAssigned(ctx, complaint, assignee)
	return complaint, nil
}

// notifyAssigned enqueues one batch covering the submitter and the new
// assignee. Batch failure is logged; the assignment itself stands.
func (s *AssignmentService) notifyAssigned(ctx context.Context, complaint *domain.Complaint, assignee *domain.StaffMember) {
	batch := []domain.Notification{
		{
			UserID:      complaint.CitizenID,
			ComplaintID: &complaint.ID,
			Category:    domain.NotificationAssigned,
			Message:     fmt.Sprintf("Your complaint #%d has been assigned to %s", complaint.ID, assignee.Name),
		},
		{
			UserID:      assignee.ID,
			ComplaintID: &complaint.ID,
			Category:    domain.NotificationAssigned,
			Message:     fmt.Sprintf("Complaint #%d has been assigned to you", complaint.ID),
		},
	}
	if err := s.notifier.Append(ctx, batch); err != nil {
		s.logger.Error("assignment notification batch failed",
			zap.Int64("complaint_id", complaint.ID), zap.Error(err))
	}
}

func (s *AssignmentService) publishAssigned(ctx context.Context, complaint *domain.Complaint, assignee *domain.StaffMember) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventComplaintAssigned,
		ComplaintID: complaint.ID,
		Timestamp:   time.Now(),
		Payload: events.ComplaintAssignedPayload{
			StaffID:    assignee.ID,
			Department: assignee.Department,
			Workload:   assignee.ActiveComplaints,
		},
	})
}
