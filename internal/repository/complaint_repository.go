package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ErrAssignmentConflict reports that a conditional assignment write found
// the complaint already owned by another staff member.
var ErrAssignmentConflict = errors.New("complaint already assigned")

// ErrAlreadyEscalated reports that the escalation flag was already set
// when a conditional flag write ran.
var ErrAlreadyEscalated = errors.New("complaint already escalated")

// ComplaintFilter captures staff search parameters.
type ComplaintFilter struct {
	CitizenID   *int64
	AssignedTo  *int64
	Statuses    []domain.ComplaintStatus
	Priorities  []domain.ComplaintPriority
	Categories  []domain.ComplaintCategory
	Escalated   *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id int64) (*domain.Complaint, error)
	ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	// ListNonTerminal returns every complaint in the given states ordered
	// by ascending id, the stable order the sweeps iterate in.
	ListNonTerminal(ctx context.Context, statuses []domain.ComplaintStatus) ([]domain.Complaint, error)
	// ListAssignedDueWithin returns assigned, non-terminal complaints whose
	// deadline lies in (now, now+window].
	ListAssignedDueWithin(ctx context.Context, now time.Time, window time.Duration) ([]domain.Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ComplaintStatus, resolvedAt *time.Time) error
	// UpdatePriority rewrites priority together with the recomputed deadline.
	UpdatePriority(ctx context.Context, id int64, priority domain.ComplaintPriority, deadline time.Time) error
	// MarkEscalated sets the escalation flag in a single conditional write.
	// Returns ErrAlreadyEscalated when the flag was already set, so the
	// caller can tell a lost race from a first escalation.
	MarkEscalated(ctx context.Context, id int64, overdue bool) error
	// AssignStaff records the assignment only while assigned_to is still
	// NULL, promoting OPEN to ASSIGNED in the same statement. Returns
	// ErrAssignmentConflict when another writer got there first.
	AssignStaff(ctx context.Context, id, staffID int64) error
	// ReassignStaff moves ownership conditioned on the current assignee.
	ReassignStaff(ctx context.Context, id, fromStaffID, toStaffID int64) error
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintColumns = `id, citizen_id, category, priority, status, subject, description,
       assigned_to, sla_deadline, is_overdue, is_escalated, created_at, updated_at, resolved_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (citizen_id, category, priority, status, subject, description, sla_deadline, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		complaint.CitizenID,
		complaint.Category,
		complaint.Priority,
		complaint.Status,
		complaint.Subject,
		complaint.Description,
		complaint.SLADeadline,
		complaint.CreatedAt,
	).Scan(&complaint.ID)
}

func (r *complaintRepository) GetByID(ctx context.Context, id int64) (*domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id=$1`, complaintColumns)
	var complaint domain.Complaint
	if err := scanComplaint(r.pool.QueryRow(ctx, query, id), &complaint); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) ListNonTerminal(ctx context.Context, statuses []domain.ComplaintStatus) ([]domain.Complaint, error) {
	if len(statuses) == 0 {
		statuses = domain.NonTerminalStatuses
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE status IN (%s) ORDER BY id ASC`,
		complaintColumns, strings.Join(placeholders, ","))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) ListAssignedDueWithin(ctx context.Context, now time.Time, window time.Duration) ([]domain.Complaint, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM complaints
        WHERE status IN ('OPEN','ASSIGNED','IN_PROGRESS')
          AND assigned_to IS NOT NULL
          AND sla_deadline > $1
          AND sla_deadline <= $2
        ORDER BY id ASC`, complaintColumns)

	rows, err := r.pool.Query(ctx, query, now, now.Add(window))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	base := fmt.Sprintf(`SELECT %s FROM complaints`, complaintColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CitizenID != nil {
		args = append(args, *filter.CitizenID)
		clauses = append(clauses, fmt.Sprintf("citizen_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, cat := range filter.Categories {
			args = append(args, cat)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Escalated != nil {
		args = append(args, *filter.Escalated)
		clauses = append(clauses, fmt.Sprintf("is_escalated=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) UpdateStatus(ctx context.Context, id int64, status domain.ComplaintStatus, resolvedAt *time.Time) error {
	const query = `
        UPDATE complaints SET status=$1, resolved_at=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, status, resolvedAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) UpdatePriority(ctx context.Context, id int64, priority domain.ComplaintPriority, deadline time.Time) error {
	const query = `
        UPDATE complaints SET priority=$1, sla_deadline=$2, updated_at=NOW()
        WHERE id=$3 AND status <> 'RESOLVED'`
	cmd, err := r.pool.Exec(ctx, query, priority, deadline, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) MarkEscalated(ctx context.Context, id int64, overdue bool) error {
	const query = `
        UPDATE complaints SET is_escalated=TRUE, is_overdue=(is_overdue OR $1), updated_at=NOW()
        WHERE id=$2 AND is_escalated=FALSE`
	cmd, err := r.pool.Exec(ctx, query, overdue, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// Either the row is gone or the flag was already set; tell them apart.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id=$1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrAlreadyEscalated
	}
	return nil
}

func (r *complaintRepository) AssignStaff(ctx context.Context, id, staffID int64) error {
	// Single conditional statement so two racing assigners cannot both
	// succeed. Status is promoted only from OPEN.
	const query = `
        UPDATE complaints
        SET assigned_to=$1,
            status=CASE WHEN status='OPEN' THEN 'ASSIGNED' ELSE status END,
            updated_at=NOW()
        WHERE id=$2 AND assigned_to IS NULL AND status <> 'RESOLVED'`
	cmd, err := r.pool.Exec(ctx, query, staffID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id=$1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrAssignmentConflict
	}
	return nil
}

func (r *complaintRepository) ReassignStaff(ctx context.Context, id, fromStaffID, toStaffID int64) error {
	const query = `
        UPDATE complaints SET assigned_to=$1, updated_at=NOW()
        WHERE id=$2 AND assigned_to=$3 AND status <> 'RESOLVED'`
	cmd, err := r.pool.Exec(ctx, query, toStaffID, id, fromStaffID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id=$1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrAssignmentConflict
	}
	return nil
}

func scanComplaint(row pgx.Row, complaint *domain.Complaint) error {
	return row.Scan(
		&complaint.ID,
		&complaint.CitizenID,
		&complaint.Category,
		&complaint.Priority,
		&complaint.Status,
		&complaint.Subject,
		&complaint.Description,
		&complaint.AssignedTo,
		&complaint.SLADeadline,
		&complaint.IsOverdue,
		&complaint.IsEscalated,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
		&complaint.ResolvedAt,
	)
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var complaint domain.Complaint
		if err := scanComplaint(rows, &complaint); err != nil {
			return nil, err
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}
