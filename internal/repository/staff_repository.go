package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// StaffRepository handles persistence for staff members.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.StaffMember) error
	Update(ctx context.Context, staff *domain.StaffMember) error
	UpdateAvailability(ctx context.Context, id int64, availability domain.StaffAvailability) error
	GetByID(ctx context.Context, id int64) (*domain.StaffMember, error)
	GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error)
	// ListAvailableByDepartment returns AVAILABLE members of a department
	// with their live count of non-terminal assigned complaints, ordered by
	// ascending workload then ascending id.
	ListAvailableByDepartment(ctx context.Context, dept domain.Department) ([]domain.StaffMember, error)
	ListAdmins(ctx context.Context) ([]domain.StaffMember, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Role         *domain.StaffRole
	Department   *domain.Department
	Availability *domain.StaffAvailability
	Limit        int
	Offset       int
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffColumns = `s.id, s.name, s.email, s.password_hash, s.role, s.department, s.availability, s.created_at, s.updated_at`

func (r *staffRepository) Create(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        INSERT INTO staff_members (name, email, password_hash, role, department, availability)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		staff.Name,
		staff.Email,
		staff.PasswordHash,
		staff.Role,
		staff.Department,
		staff.Availability,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        UPDATE staff_members
        SET name=$1, email=$2, password_hash=$3, role=$4, department=$5, availability=$6, updated_at=NOW()
        WHERE id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		staff.Name,
		staff.Email,
		staff.PasswordHash,
		staff.Role,
		staff.Department,
		staff.Availability,
		staff.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) UpdateAvailability(ctx context.Context, id int64, availability domain.StaffAvailability) error {
	const query = `UPDATE staff_members SET availability=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, availability, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) GetByID(ctx context.Context, id int64) (*domain.StaffMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_members s WHERE s.id=$1`, staffColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_members s WHERE s.email=$1`, staffColumns)
	return r.fetchSingle(ctx, query, email)
}

func (r *staffRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.StaffMember, error) {
	var staff domain.StaffMember
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.PasswordHash,
		&staff.Role,
		&staff.Department,
		&staff.Availability,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) ListAvailableByDepartment(ctx context.Context, dept domain.Department) ([]domain.StaffMember, error) {
	query := fmt.Sprintf(`
        SELECT %s, COUNT(c.id) AS active_complaints
        FROM staff_members s
        LEFT JOIN complaints c
          ON c.assigned_to = s.id AND c.status IN ('OPEN','ASSIGNED','IN_PROGRESS')
        WHERE s.availability='AVAILABLE' AND s.department=$1
        GROUP BY s.id
        ORDER BY active_complaints ASC, s.id ASC`, staffColumns)

	rows, err := r.pool.Query(ctx, query, dept)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffMember
	for rows.Next() {
		var staff domain.StaffMember
		if err := rows.Scan(
			&staff.ID,
			&staff.Name,
			&staff.Email,
			&staff.PasswordHash,
			&staff.Role,
			&staff.Department,
			&staff.Availability,
			&staff.CreatedAt,
			&staff.UpdatedAt,
			&staff.ActiveComplaints,
		); err != nil {
			return nil, err
		}
		result = append(result, staff)
	}
	return result, rows.Err()
}

func (r *staffRepository) ListAdmins(ctx context.Context) ([]domain.StaffMember, error) {
	role := domain.StaffRoleAdmin
	return r.List(ctx, StaffFilter{Role: &role, Limit: 1000})
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM staff_members s`, staffColumns)
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("s.role=$%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("s.department=$%d", len(args)))
	}
	if filter.Availability != nil {
		args = append(args, *filter.Availability)
		clauses = append(clauses, fmt.Sprintf("s.availability=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY s.id ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffMember
	for rows.Next() {
		var staff domain.StaffMember
		if err := rows.Scan(
			&staff.ID,
			&staff.Name,
			&staff.Email,
			&staff.PasswordHash,
			&staff.Role,
			&staff.Department,
			&staff.Availability,
			&staff.CreatedAt,
			&staff.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, staff)
	}
	return result, rows.Err()
}
