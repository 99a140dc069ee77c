package dto

import "github.com/spec-kit/complaint-service/internal/domain"

// StaffLoginRequest payload for staff login.
type StaffLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StaffCreateRequest payload for onboarding a staff member.
type StaffCreateRequest struct {
	Name         string                   `json:"name"`
	Email        string                   `json:"email"`
	Password     string                   `json:"password"`
	Role         domain.StaffRole         `json:"role"`
	Department   domain.Department        `json:"department"`
	Availability domain.StaffAvailability `json:"availability"`
}

// StaffAvailabilityRequest updates a member's availability.
type StaffAvailabilityRequest struct {
	Availability domain.StaffAvailability `json:"availability"`
}

// StaffResponse is the staff member view returned by the API.
type StaffResponse struct {
	ID               int64                    `json:"id"`
	Name             string                   `json:"name"`
	Email            string                   `json:"email"`
	Role             domain.StaffRole         `json:"role"`
	Department       domain.Department        `json:"department"`
	Availability     domain.StaffAvailability `json:"availability"`
	ActiveComplaints int                      `json:"active_complaints"`
}
