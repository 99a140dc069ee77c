package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/sla"
)

// fakeComplaintRepo is an in-memory ComplaintRepository with the same
// conditional-write semantics as the Postgres implementation.
type fakeComplaintRepo struct {
	mu         sync.Mutex
	complaints map[int64]*domain.Complaint
	nextID     int64

	markEscalatedErr func(id int64) error
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{complaints: make(map[int64]*domain.Complaint)}
}

func (f *fakeComplaintRepo) add(c domain.Complaint) *domain.Complaint {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == 0 {
		f.nextID++
		c.ID = f.nextID
	} else if c.ID > f.nextID {
		f.nextID = c.ID
	}
	stored := c
	f.complaints[stored.ID] = &stored
	return &stored
}

func (f *fakeComplaintRepo) Create(_ context.Context, c *domain.Complaint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	stored := *c
	f.complaints[c.ID] = &stored
	return nil
}

func (f *fakeComplaintRepo) GetByID(_ context.Context, id int64) (*domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (f *fakeComplaintRepo) ListWithFilter(_ context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Complaint
	for _, c := range f.sortedLocked() {
		if filter.CitizenID != nil && c.CitizenID != *filter.CitizenID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeComplaintRepo) ListNonTerminal(_ context.Context, statuses []domain.ComplaintStatus) ([]domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	allowed := make(map[domain.ComplaintStatus]struct{}, len(statuses))
	for _, s := range statuses {
		allowed[s] = struct{}{}
	}
	var out []domain.Complaint
	for _, c := range f.sortedLocked() {
		if _, ok := allowed[c.Status]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeComplaintRepo) ListAssignedDueWithin(_ context.Context, now time.Time, window time.Duration) ([]domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Complaint
	for _, c := range f.sortedLocked() {
		if c.Status.IsTerminal() || c.AssignedTo == nil {
			continue
		}
		if sla.IsApproaching(c.SLADeadline, now, window) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeComplaintRepo) sortedLocked() []domain.Complaint {
	out := make([]domain.Complaint, 0, len(f.complaints))
	for id := int64(1); id <= f.nextID; id++ {
		if c, ok := f.complaints[id]; ok {
			out = append(out, *c)
		}
	}
	return out
}

func (f *fakeComplaintRepo) UpdateStatus(_ context.Context, id int64, status domain.ComplaintStatus, resolvedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.complaints[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.Status = status
	c.ResolvedAt = resolvedAt
	return nil
}

func (f *fakeComplaintRepo) UpdatePriority(_ context.Context, id int64, priority domain.ComplaintPriority, deadline time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.complaints[id]
	if !ok || c.Status.IsTerminal() {
		return pgx.ErrNoRows
	}
	c.Priority = priority
	c.SLADeadline = deadline
	return nil
}

func (f *fakeComplaintRepo) MarkEscalated(_ context.Context, id int64, overdue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markEscalatedErr != nil {
		if err := f.markEscalatedErr(id); err != nil {
			return err
		}
	}
	c, ok := f.complaints[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if c.IsEscalated {
		return repository.ErrAlreadyEscalated
	}
	c.IsEscalated = true
	if overdue {
		c.IsOverdue = true
	}
	return nil
}

func (f *fakeComplaintRepo) AssignStaff(_ context.Context, id, staffID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.complaints[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if c.AssignedTo != nil || c.Status.IsTerminal() {
		return repository.ErrAssignmentConflict
	}
	c.AssignedTo = &staffID
	if c.Status == domain.ComplaintStatusOpen {
		c.Status = domain.ComplaintStatusAssigned
	}
	return nil
}

func (f *fakeComplaintRepo) ReassignStaff(_ context.Context, id, fromStaffID, toStaffID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.complaints[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if c.AssignedTo == nil || *c.AssignedTo != fromStaffID || c.Status.IsTerminal() {
		return repository.ErrAssignmentConflict
	}
	c.AssignedTo = &toStaffID
	return nil
}

// fakeStaffRepo serves a fixed staff directory.
type fakeStaffRepo struct {
	mu    sync.Mutex
	staff []domain.StaffMember
}

func (f *fakeStaffRepo) Create(_ context.Context, s *domain.StaffMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = int64(len(f.staff) + 1)
	f.staff = append(f.staff, *s)
	return nil
}

func (f *fakeStaffRepo) Update(_ context.Context, s *domain.StaffMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.staff {
		if f.staff[i].ID == s.ID {
			f.staff[i] = *s
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeStaffRepo) UpdateAvailability(_ context.Context, id int64, availability domain.StaffAvailability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.staff {
		if f.staff[i].ID == id {
			f.staff[i].Availability = availability
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeStaffRepo) GetByID(_ context.Context, id int64) (*domain.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.staff {
		if f.staff[i].ID == id {
			copied := f.staff[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStaffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.staff {
		if f.staff[i].Email == email {
			copied := f.staff[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStaffRepo) ListAvailableByDepartment(_ context.Context, dept domain.Department) ([]domain.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StaffMember
	for _, s := range f.staff {
		if s.Availability == domain.StaffAvailable && s.Department == dept {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStaffRepo) ListAdmins(_ context.Context) ([]domain.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StaffMember
	for _, s := range f.staff {
		if s.Role == domain.StaffRoleAdmin {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStaffRepo) List(_ context.Context, _ repository.StaffFilter) ([]domain.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.StaffMember(nil), f.staff...), nil
}

// fakeNotifier records appended batches.
type fakeNotifier struct {
	mu      sync.Mutex
	batches [][]domain.Notification
	err     error
}

func (f *fakeNotifier) Append(_ context.Context, batch []domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, append([]domain.Notification(nil), batch...))
	return nil
}

func (f *fakeNotifier) all() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

func (f *fakeNotifier) forCategory(cat domain.NotificationCategory) []domain.Notification {
	var out []domain.Notification
	for _, n := range f.all() {
		if n.Category == cat {
			out = append(out, n)
		}
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }
