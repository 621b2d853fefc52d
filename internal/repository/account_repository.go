package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civic-desk/complaint-service/internal/domain"
)

// ErrUsernameTaken is returned when creating an account with an existing username.
var ErrUsernameTaken = errors.New("username already registered")

// AccountRepository defines persistence access for citizen and staff accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountColumns = `id, username, name, contact, address, password_hash, is_staff, is_active, department, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO users (username, name, contact, address, password_hash, is_staff, is_active, department)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.Username,
		account.Name,
		account.Contact,
		account.Address,
		account.PasswordHash,
		account.IsStaff,
		account.IsActive,
		departmentArg(account.Department),
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}
	return err
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE users SET name=$1, contact=$2, address=$3, password_hash=$4, is_staff=$5,
            is_active=$6, department=$7, updated_at=NOW()
        WHERE id=$8`

	cmd, err := r.pool.Exec(ctx, query,
		account.Name,
		account.Contact,
		account.Address,
		account.PasswordHash,
		account.IsStaff,
		account.IsActive,
		departmentArg(account.Department),
		account.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id=$1`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE username=$1`
	return scanAccount(r.pool.QueryRow(ctx, query, username))
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		dept    *string
	)
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Name,
		&account.Contact,
		&account.Address,
		&account.PasswordHash,
		&account.IsStaff,
		&account.IsActive,
		&dept,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := parseDepartmentColumn(dept)
	if err != nil {
		return nil, fmt.Errorf("account %d: %w", account.ID, err)
	}
	account.Department = parsed
	return &account, nil
}

// departmentArg stores DepartmentNone as NULL.
func departmentArg(d domain.Department) any {
	if !d.IsSet() {
		return nil
	}
	return d.Code()
}

func parseDepartmentColumn(value *string) (domain.Department, error) {
	if value == nil {
		return domain.DepartmentNone, nil
	}
	dept, ok := domain.ParseDepartment(*value)
	if !ok {
		return domain.DepartmentNone, &domain.UnknownDepartmentError{Code: *value}
	}
	return dept, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
