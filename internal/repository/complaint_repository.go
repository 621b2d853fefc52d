package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civic-desk/complaint-service/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	Update(ctx context.Context, complaint *domain.Complaint) error
	// UpdateWithHistory stores a triage change and its audit entries in one
	// transaction. Nothing is written when any step fails.
	UpdateWithHistory(ctx context.Context, complaint *domain.Complaint, entries []*domain.ComplaintHistory) error
	GetByID(ctx context.Context, id int64) (*domain.Complaint, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Complaint, error)
	// List returns one page of matching complaints and the total number of matches.
	List(ctx context.Context, query domain.ComplaintQuery) ([]domain.Complaint, int, error)
	// Stats counts over the visibility scope of query only; its filters are ignored.
	Stats(ctx context.Context, query domain.ComplaintQuery) (domain.ComplaintStats, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintSelect = `
        SELECT c.id, c.user_id, u.username, u.name, c.category, c.title, c.description, c.location,
               COALESCE(c.photo, ''), c.priority, c.assigned_department, c.status, c.created_at, c.updated_at
        FROM complaints c JOIN users u ON u.id = c.user_id`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (user_id, category, title, description, location, photo, priority, assigned_department, status)
        VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		complaint.OwnerID,
		complaint.Category,
		complaint.Title,
		complaint.Description,
		complaint.Location,
		complaint.PhotoPath,
		complaint.Priority,
		departmentArg(complaint.AssignedDepartment),
		complaint.Status,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt)
}

// rowQuerier is satisfied by both the pool and a transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *complaintRepository) Update(ctx context.Context, complaint *domain.Complaint) error {
	return updateComplaint(ctx, r.pool, complaint)
}

func (r *complaintRepository) UpdateWithHistory(ctx context.Context, complaint *domain.Complaint, entries []*domain.ComplaintHistory) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := updateComplaint(ctx, tx, complaint); err != nil {
			return err
		}
		for _, entry := range entries {
			entry.ComplaintID = complaint.ID
			if err := insertHistory(ctx, tx, entry); err != nil {
				return fmt.Errorf("insert %s history: %w", entry.ChangeType, err)
			}
		}
		return nil
	})
}

func updateComplaint(ctx context.Context, q rowQuerier, complaint *domain.Complaint) error {
	const query = `
        UPDATE complaints SET status=$1, priority=$2, assigned_department=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return q.QueryRow(ctx, query,
		complaint.Status,
		complaint.Priority,
		departmentArg(complaint.AssignedDepartment),
		complaint.ID,
	).Scan(&complaint.UpdatedAt)
}

func (r *complaintRepository) GetByID(ctx context.Context, id int64) (*domain.Complaint, error) {
	rows, err := r.pool.Query(ctx, complaintSelect+` WHERE c.id=$1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	complaints, err := scanComplaints(rows)
	if err != nil {
		return nil, err
	}
	if len(complaints) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &complaints[0], nil
}

func (r *complaintRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Complaint, error) {
	rows, err := r.pool.Query(ctx, complaintSelect+` WHERE c.user_id=$1 ORDER BY c.created_at DESC, c.id DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) List(ctx context.Context, query domain.ComplaintQuery) ([]domain.Complaint, int, error) {
	where, args := buildComplaintWhere(query)

	var total int
	countSQL := `SELECT COUNT(*) FROM complaints c JOIN users u ON u.id = c.user_id WHERE ` + where
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(query)
	listSQL := fmt.Sprintf(`%s WHERE %s ORDER BY c.created_at DESC, c.id DESC LIMIT %d OFFSET %d`,
		complaintSelect, where, limit, offset)
	rows, err := r.pool.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	complaints, err := scanComplaints(rows)
	if err != nil {
		return nil, 0, err
	}
	return complaints, total, nil
}

func (r *complaintRepository) Stats(ctx context.Context, query domain.ComplaintQuery) (domain.ComplaintStats, error) {
	where, args := buildComplaintWhere(query.Unfiltered())
	sql := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE c.status = 'pending'),
               COUNT(*) FILTER (WHERE c.status = 'in_progress'),
               COUNT(*) FILTER (WHERE c.status = 'resolved'),
               COUNT(*) FILTER (WHERE c.assigned_department IS NOT NULL AND c.assigned_department <> 'admin')
        FROM complaints c JOIN users u ON u.id = c.user_id WHERE ` + where

	var stats domain.ComplaintStats
	err := r.pool.QueryRow(ctx, sql, args...).Scan(
		&stats.Total,
		&stats.Pending,
		&stats.InProgress,
		&stats.Resolved,
		&stats.Forwarded,
	)
	return stats, err
}

// buildComplaintWhere renders the visibility rule and filters of q as a SQL predicate.
func buildComplaintWhere(q domain.ComplaintQuery) (string, []any) {
	clauses := []string{}
	args := []any{}

	switch {
	case q.Viewer.IsAdmin():
		clauses = append(clauses, "1=1")
	case q.Viewer.IsSet():
		args = append(args, q.Viewer.Code())
		clauses = append(clauses, fmt.Sprintf("(c.assigned_department = $%d OR c.assigned_department IS NULL)", len(args)))
	default:
		clauses = append(clauses, "1=0")
	}

	if q.Status != "" {
		args = append(args, string(q.Status))
		clauses = append(clauses, fmt.Sprintf("c.status = $%d", len(args)))
	}
	if q.Priority != "" {
		args = append(args, string(q.Priority))
		clauses = append(clauses, fmt.Sprintf("c.priority = $%d", len(args)))
	}
	switch q.Assignment.Kind {
	case domain.AssignmentUnassigned:
		clauses = append(clauses, "c.assigned_department IS NULL")
	case domain.AssignmentExact:
		args = append(args, q.Assignment.Department.Code())
		clauses = append(clauses, fmt.Sprintf("c.assigned_department = $%d", len(args)))
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(term))+"%")
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(c.title) LIKE %[1]s OR LOWER(c.description) LIKE %[1]s OR LOWER(c.location) LIKE %[1]s OR LOWER(u.name) LIKE %[1]s OR LOWER(u.username) LIKE %[1]s)", p))
	}

	return strings.Join(clauses, " AND "), args
}

func pageBounds(q domain.ComplaintQuery) (int, int) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var (
			complaint domain.Complaint
			dept      *string
		)
		if err := rows.Scan(
			&complaint.ID,
			&complaint.OwnerID,
			&complaint.OwnerUsername,
			&complaint.OwnerName,
			&complaint.Category,
			&complaint.Title,
			&complaint.Description,
			&complaint.Location,
			&complaint.PhotoPath,
			&complaint.Priority,
			&dept,
			&complaint.Status,
			&complaint.CreatedAt,
			&complaint.UpdatedAt,
		); err != nil {
			return nil, err
		}
		parsed, err := parseDepartmentColumn(dept)
		if err != nil {
			return nil, fmt.Errorf("complaint %d: %w", complaint.ID, err)
		}
		complaint.AssignedDepartment = parsed
		result = append(result, complaint)
	}
	return result, rows.Err()
}
