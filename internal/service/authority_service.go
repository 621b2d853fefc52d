package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/directory"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/observability"
	"github.com/civic-desk/complaint-service/internal/repository"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

// sessionEndpoints are authority paths that must never be a post-login redirect.
var sessionEndpoints = map[string]bool{"login": true, "logout": true, "refresh": true}

// AuthorityService runs the staff login, refresh and logout flows.
type AuthorityService struct {
	accounts   repository.AccountRepository
	tokens     *auth.TokenManager
	guard      *auth.AuthorityGuard
	revocation auth.RevocationList
	directory  *directory.Directory
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AuthorityDependencies bundles collaborators for the authority service.
type AuthorityDependencies struct {
	AccountRepo repository.AccountRepository
	Tokens      *auth.TokenManager
	Guard       *auth.AuthorityGuard
	Revocation  auth.RevocationList
	Directory   *directory.Directory
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// AuthorityLoginInput carries the submitted login form.
type AuthorityLoginInput struct {
	Username string
	Password string
	Next     string
}

// AuthorityLoginResult is returned only when a session was established.
type AuthorityLoginResult struct {
	Account  *domain.Account
	Tokens   auth.TokenPair
	Redirect string
}

// NewAuthorityService constructs the service.
func NewAuthorityService(deps AuthorityDependencies) *AuthorityService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthorityService{
		accounts:   deps.AccountRepo,
		tokens:     deps.Tokens,
		guard:      deps.Guard,
		revocation: deps.Revocation,
		directory:  deps.Directory,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// Login authenticates a staff member against the destination they asked for.
// On any error no token is minted.
func (s *AuthorityService) Login(ctx context.Context, in AuthorityLoginInput) (*AuthorityLoginResult, error) {
	result, err := s.login(ctx, in)
	if err != nil {
		outcome := loginOutcome(err)
		s.metrics.RecordLogin(outcome)
		s.logger.Info("authority login rejected",
			zap.String("username", in.Username),
			zap.String("outcome", outcome),
			zap.String("next", in.Next),
		)
		return nil, err
	}
	s.metrics.RecordLogin(observability.LoginSucceeded)
	s.logger.Info("authority login",
		zap.Int64("user_id", result.Account.ID),
		zap.String("department", result.Account.Department.Code()),
		zap.String("redirect", result.Redirect),
	)
	return result, nil
}

func (s *AuthorityService) login(ctx context.Context, in AuthorityLoginInput) (*AuthorityLoginResult, error) {
	account, err := s.verifyCredentials(ctx, strings.TrimSpace(in.Username), in.Password)
	if err != nil {
		return nil, err
	}
	if !account.IsStaff {
		return nil, apperrors.NewInsufficientRole()
	}

	redirect, err := s.destinationFor(account, auth.ResolveDestination(in.Next))
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssueAuthority(sessionFor(account))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthorityLoginResult{Account: account, Tokens: pair, Redirect: redirect}, nil
}

func (s *AuthorityService) verifyCredentials(ctx context.Context, username, password string) (*domain.Account, error) {
	if username == "" || password == "" {
		return nil, apperrors.NewInvalidCredentials()
	}
	account, err := s.accounts.GetByUsername(ctx, username)
	if errors.Is(err, pgx.ErrNoRows) {
		auth.BurnPasswordCheck(password)
		return nil, apperrors.NewInvalidCredentials()
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, apperrors.NewInvalidCredentials()
	}
	if !account.IsActive {
		return nil, apperrors.NewInvalidCredentials()
	}
	return account, nil
}

// destinationFor checks the account against the resolved destination and
// returns the local path to redirect to.
func (s *AuthorityService) destinationFor(account *domain.Account, dest auth.Destination) (string, error) {
	switch dest.Kind {
	case auth.DestinationAdmin:
		if !account.Department.IsAdmin() {
			return "", apperrors.NewDepartmentMismatch(fmt.Sprintf(
				"You are not authorised to access the %s dashboard.", s.directory.DisplayName(domain.DepartmentAdmin)))
		}
		return dest.Path, nil
	case auth.DestinationDepartment:
		target, ok := s.directory.Lookup(dest.Code)
		if !ok {
			// Not a department route; the account's own department decides.
			home, err := DashboardPath(account.Department)
			if err != nil {
				return "", err
			}
			if sessionEndpoints[dest.Code] {
				return home, nil
			}
			return dest.Path, nil
		}
		if account.Department != target {
			return "", apperrors.NewDepartmentMismatch(fmt.Sprintf(
				"You are not authorised to access the %s dashboard.", s.directory.DisplayName(target)))
		}
		return dest.Path, nil
	default:
		return DashboardPath(account.Department)
	}
}

// DashboardPath is the landing dashboard of a department.
func DashboardPath(dept domain.Department) (string, error) {
	switch {
	case dept.IsAdmin():
		return auth.AuthorityPrefix + "/" + auth.DashboardAlias + "/", nil
	case dept.IsSet():
		return auth.AuthorityPrefix + "/" + dept.Code() + "/", nil
	default:
		return "", apperrors.NewNoDepartmentAssigned()
	}
}

// Refresh exchanges a refresh token for a new access token after the same
// live-account checks the guard applies.
func (s *AuthorityService) Refresh(ctx context.Context, refreshToken string) (auth.IssuedToken, error) {
	principal, err := s.guard.Verify(ctx, refreshToken, domain.ScopeAuthorityRefresh)
	if err == nil {
		err = s.guard.Authorize(principal, auth.AnyDepartment())
	}
	if err != nil {
		return auth.IssuedToken{}, err
	}
	token, err := s.tokens.IssueAccess(sessionFor(principal.Account))
	if err != nil {
		return auth.IssuedToken{}, apperrors.NewInternalError(err)
	}
	return token, nil
}

// Logout revokes whichever of the presented tokens still verify.
// Revocation failures are logged and otherwise ignored.
func (s *AuthorityService) Logout(ctx context.Context, accessToken, refreshToken string) {
	if s.revocation == nil {
		return
	}
	presented := []struct {
		raw   string
		scope domain.CredentialScope
	}{
		{accessToken, domain.ScopeAuthorityAccess},
		{refreshToken, domain.ScopeAuthorityRefresh},
	}
	for _, p := range presented {
		if p.raw == "" {
			continue
		}
		claims, err := s.tokens.Parse(p.raw, p.scope)
		if err != nil || claims.ExpiresAt == nil {
			continue
		}
		if err := s.revocation.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			s.logger.Warn("token revocation failed", zap.String("jti", claims.ID), zap.Error(err))
		}
	}
}

func sessionFor(account *domain.Account) domain.SessionClaims {
	return domain.SessionClaims{
		UserID:     account.ID,
		Username:   account.Username,
		Department: account.Department,
		IsStaff:    account.IsStaff,
	}
}

func loginOutcome(err error) string {
	switch {
	case apperrors.HasCode(err, apperrors.CodeInvalidCredentials):
		return observability.LoginInvalidCredentials
	case apperrors.HasCode(err, apperrors.CodeInsufficientRole):
		return observability.LoginNotStaff
	case apperrors.HasCode(err, apperrors.CodeDepartmentMismatch):
		return observability.LoginDepartmentMismatch
	case apperrors.HasCode(err, apperrors.CodeNoDepartmentAssigned):
		return observability.LoginNoDepartment
	}
	return "error"
}
