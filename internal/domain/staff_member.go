package domain

import "time"

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleStaff StaffRole = "STAFF"
	StaffRoleAdmin StaffRole = "ADMIN"
)

// Department identifies the organizational unit a staff member works in.
// Complaints are routed to departments through the configured category map.
type Department string

const (
	DepartmentPlumbing   Department = "PLUMBING"
	DepartmentElectrical Department = "ELECTRICAL"
	DepartmentFacility   Department = "FACILITY_MANAGEMENT"
	DepartmentITSupport  Department = "IT_SUPPORT"
	DepartmentGeneral    Department = "GENERAL"
)

// ValidDepartment reports whether d is a known department value.
func ValidDepartment(d Department) bool {
	switch d {
	case DepartmentPlumbing, DepartmentElectrical, DepartmentFacility, DepartmentITSupport, DepartmentGeneral:
		return true
	}
	return false
}

// StaffAvailability enumerates whether a staff member can take new work.
type StaffAvailability string

const (
	StaffAvailable StaffAvailability = "AVAILABLE"
	StaffBusy      StaffAvailability = "BUSY"
	StaffOnLeave   StaffAvailability = "ON_LEAVE"
)

// StaffMember models a resolver or administrator.
// ActiveComplaints is derived at read time: the count of non-terminal
// complaints currently assigned to this member.
type StaffMember struct {
	ID               int64
	Name             string
	Email            string
	PasswordHash     string
	Role             StaffRole
	Department       Department
	Availability     StaffAvailability
	ActiveComplaints int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
