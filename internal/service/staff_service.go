package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/config"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/repository"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

// StaffService manages staff flags and department membership from the operator CLI.
// Sessions minted before a change stop working on the next guarded request.
type StaffService struct {
	accounts   repository.AccountRepository
	logger     *zap.Logger
	bcryptCost int
}

// StaffInput describes a staff account to create.
type StaffInput struct {
	Username   string
	Name       string
	Password   string
	Department string
}

// NewStaffService builds the service.
func NewStaffService(cfg config.AuthConfig, accounts repository.AccountRepository, logger *zap.Logger) *StaffService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{accounts: accounts, logger: logger, bcryptCost: cfg.BcryptCost}
}

// CreateStaff creates an active staff account. The department may be empty.
func (s *StaffService) CreateStaff(ctx context.Context, in StaffInput) (*domain.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, apperrors.NewValidationError("username and password are required", nil)
	}
	dept, err := parseStaffDepartment(in.Department)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	account := &domain.Account{
		Username:     in.Username,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		IsStaff:      true,
		IsActive:     true,
		Department:   dept,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, apperrors.NewValidationError("username already registered", map[string]any{"username": in.Username})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("staff account created",
		zap.Int64("user_id", account.ID),
		zap.String("department", dept.String()))
	return account, nil
}

// SetDepartment promotes username to staff and moves it to code. An empty code clears the department.
func (s *StaffService) SetDepartment(ctx context.Context, username, code string) (*domain.Account, error) {
	dept, err := parseStaffDepartment(code)
	if err != nil {
		return nil, err
	}
	account, err := s.lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	previous := account.Department
	account.IsStaff = true
	account.Department = dept
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("staff department changed",
		zap.Int64("user_id", account.ID),
		zap.String("from", previous.String()),
		zap.String("to", dept.String()))
	return account, nil
}

// RevokeStaff removes the staff flag and the department.
func (s *StaffService) RevokeStaff(ctx context.Context, username string) (*domain.Account, error) {
	account, err := s.lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	account.IsStaff = false
	account.Department = domain.DepartmentNone
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("staff access revoked", zap.Int64("user_id", account.ID))
	return account, nil
}

func (s *StaffService) lookup(ctx context.Context, username string) (*domain.Account, error) {
	account, err := s.accounts.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("account", map[string]any{"username": username})
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return account, nil
}

func parseStaffDepartment(code string) (domain.Department, error) {
	dept, ok := domain.ParseDepartment(strings.ToLower(strings.TrimSpace(code)))
	if !ok {
		return domain.DepartmentNone, apperrors.NewUnknownDepartment(code)
	}
	return dept, nil
}
