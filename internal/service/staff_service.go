package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// StaffService manages the staff directory.
type StaffService struct {
	staff      repository.StaffRepository
	bcryptCost int
}

// NewStaffService creates the service.
func NewStaffService(staff repository.StaffRepository, bcryptCost int) *StaffService {
	return &StaffService{staff: staff, bcryptCost: bcryptCost}
}

// StaffCreateInput describes a new staff member.
type StaffCreateInput struct {
	Name         string
	Email        string
	Password     string
	Role         domain.StaffRole
	Department   domain.Department
	Availability domain.StaffAvailability
}

// CreateStaffMember onboards a staff member into a department.
func (s *StaffService) CreateStaffMember(ctx context.Context, input StaffCreateInput) (*domain.StaffMember, error) {
	if input.Role != domain.StaffRoleStaff && input.Role != domain.StaffRoleAdmin {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	if !domain.ValidDepartment(input.Department) {
		return nil, apperrors.NewValidationError("unknown department", map[string]any{"department": input.Department})
	}
	if input.Availability == "" {
		input.Availability = domain.StaffAvailable
	}

	if _, err := s.staff.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	member := &domain.StaffMember{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		Department:   input.Department,
		Availability: input.Availability,
	}
	if err := s.staff.Create(ctx, member); err != nil {
		return nil, apperrors.MapError(err)
	}
	return member, nil
}

// GetStaffMember returns one member by id.
func (s *StaffService) GetStaffMember(ctx context.Context, id int64) (*domain.StaffMember, error) {
	member, err := s.staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return member, nil
}

// ListStaffMembers returns the directory filtered by role, department or
// availability.
func (s *StaffService) ListStaffMembers(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	members, err := s.staff.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return members, nil
}

// SetAvailability updates whether a member accepts new assignments. A
// member going ON_LEAVE keeps their current complaints; only auto-assign
// stops considering them.
func (s *StaffService) SetAvailability(ctx context.Context, id int64, availability domain.StaffAvailability) (*domain.StaffMember, error) {
	switch availability {
	case domain.StaffAvailable, domain.StaffBusy, domain.StaffOnLeave:
	default:
		return nil, apperrors.NewValidationError("unknown availability", map[string]any{"availability": availability})
	}
	if err := s.staff.UpdateAvailability(ctx, id, availability); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return s.GetStaffMember(ctx, id)
}
