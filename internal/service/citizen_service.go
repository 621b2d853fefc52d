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
	"github.com/civic-desk/complaint-service/internal/events"
	"github.com/civic-desk/complaint-service/internal/repository"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

// CitizenService coordinates registration, citizen login and complaint intake.
type CitizenService struct {
	accounts   repository.AccountRepository
	complaints repository.ComplaintRepository
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// CitizenDependencies encapsulates repo requirements for the citizen service.
type CitizenDependencies struct {
	AccountRepo   repository.AccountRepository
	ComplaintRepo repository.ComplaintRepository
	Tokens        *auth.TokenManager
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// RegisterInput describes a new citizen.
type RegisterInput struct {
	Username string
	Name     string
	Contact  string
	Address  string
	Password string
}

// ComplaintInput describes a submitted complaint.
type ComplaintInput struct {
	Category    string
	Title       string
	Description string
	Location    string
	Priority    string
	PhotoPath   string
}

// NewCitizenService builds the service.
func NewCitizenService(cfg config.AuthConfig, deps CitizenDependencies) *CitizenService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CitizenService{
		accounts:   deps.AccountRepo,
		complaints: deps.ComplaintRepo,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a non-staff account and starts its citizen session.
func (s *CitizenService) Register(ctx context.Context, in RegisterInput) (*domain.Account, auth.IssuedToken, error) {
	in.Username = strings.TrimSpace(in.Username)
	missing := []string{}
	for _, field := range [][2]string{{"username", in.Username}, {"name", in.Name}, {"password", in.Password}} {
		if strings.TrimSpace(field[1]) == "" {
			missing = append(missing, field[0])
		}
	}
	if len(missing) > 0 {
		return nil, auth.IssuedToken{}, apperrors.NewValidationError("required fields missing", map[string]any{"fields": missing})
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, auth.IssuedToken{}, apperrors.NewInternalError(err)
	}
	account := &domain.Account{
		Username:     in.Username,
		Name:         strings.TrimSpace(in.Name),
		Contact:      strings.TrimSpace(in.Contact),
		Address:      strings.TrimSpace(in.Address),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, auth.IssuedToken{}, apperrors.NewValidationError("username already registered", map[string]any{"username": in.Username})
		}
		return nil, auth.IssuedToken{}, apperrors.MapError(err)
	}

	token, err := s.tokens.IssueCitizen(account)
	if err != nil {
		return nil, auth.IssuedToken{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("citizen registered", zap.Int64("user_id", account.ID))
	return account, token, nil
}

// Login authenticates a citizen. It never touches authority credentials.
func (s *CitizenService) Login(ctx context.Context, username, password string) (*domain.Account, auth.IssuedToken, error) {
	account, err := s.accounts.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, pgx.ErrNoRows) {
		auth.BurnPasswordCheck(password)
		return nil, auth.IssuedToken{}, apperrors.NewInvalidCredentials()
	}
	if err != nil {
		return nil, auth.IssuedToken{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil || !account.IsActive {
		return nil, auth.IssuedToken{}, apperrors.NewInvalidCredentials()
	}
	token, err := s.tokens.IssueCitizen(account)
	if err != nil {
		return nil, auth.IssuedToken{}, apperrors.NewInternalError(err)
	}
	return account, token, nil
}

// SubmitComplaint files a new unassigned, pending complaint for owner.
func (s *CitizenService) SubmitComplaint(ctx context.Context, owner *domain.Account, in ComplaintInput) (*domain.Complaint, error) {
	complaint := &domain.Complaint{
		OwnerID:     owner.ID,
		Category:    domain.ComplaintCategory(strings.TrimSpace(in.Category)),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		PhotoPath:   strings.TrimSpace(in.PhotoPath),
		Priority:    domain.ComplaintPriority(strings.TrimSpace(in.Priority)),
		Status:      domain.ComplaintStatusPending,
	}
	if complaint.Priority == "" {
		complaint.Priority = domain.ComplaintPriorityMedium
	}

	details := map[string]any{}
	if !complaint.Category.Valid() {
		details["category"] = in.Category
	}
	if !complaint.Priority.Valid() {
		details["priority"] = in.Priority
	}
	if complaint.Title == "" {
		details["title"] = "required"
	}
	if complaint.Description == "" {
		details["description"] = "required"
	}
	if complaint.Location == "" {
		details["location"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid complaint", details)
	}

	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, apperrors.MapError(err)
	}
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:        events.EventComplaintSubmitted,
		ComplaintID: complaint.ID,
		Actor:       events.Actor{UserID: owner.ID},
		Payload: events.ComplaintSubmittedPayload{
			Category: complaint.Category,
			Priority: complaint.Priority,
			Title:    complaint.Title,
		},
	})
	return complaint, nil
}

// MyComplaints lists the complaints filed by owner, newest first.
func (s *CitizenService) MyComplaints(ctx context.Context, owner *domain.Account) ([]domain.Complaint, error) {
	complaints, err := s.complaints.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return complaints, nil
}
