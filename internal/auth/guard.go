package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/civic-desk/complaint-service/internal/directory"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/observability"
	"github.com/civic-desk/complaint-service/internal/repository"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

const authorityLocalsKey = "authority_principal"

type requirementKind uint8

const (
	requireAny requirementKind = iota
	requireAdmin
	requireExact
)

// Requirement is the department condition a guarded route imposes.
type Requirement struct {
	kind       requirementKind
	department domain.Department
}

// AnyDepartment accepts any staff account that holds a department.
func AnyDepartment() Requirement { return Requirement{kind: requireAny} }

// AdminDepartment accepts only the central administration.
func AdminDepartment() Requirement { return Requirement{kind: requireAdmin} }

// ExactDepartment accepts only dept.
func ExactDepartment(dept domain.Department) Requirement {
	if dept.IsAdmin() {
		return AdminDepartment()
	}
	return Requirement{kind: requireExact, department: dept}
}

// AuthorityPrincipal is the verified caller of an authority route.
type AuthorityPrincipal struct {
	Account    *domain.Account
	Department domain.Department
	TokenID    string
	ExpiresAt  time.Time
}

// AuthorityGuard verifies authority tokens against live account state.
type AuthorityGuard struct {
	tokens    *TokenManager
	accounts  repository.AccountRepository
	revoked   RevocationList
	directory *directory.Directory
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// GuardDependencies bundles collaborators for the guard.
type GuardDependencies struct {
	Tokens     *TokenManager
	Accounts   repository.AccountRepository
	Revocation RevocationList
	Directory  *directory.Directory
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewAuthorityGuard builds the guard. Revocation may be nil.
func NewAuthorityGuard(deps GuardDependencies) *AuthorityGuard {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthorityGuard{
		tokens:    deps.Tokens,
		accounts:  deps.Accounts,
		revoked:   deps.Revocation,
		directory: deps.Directory,
		logger:    logger,
		metrics:   deps.Metrics,
	}
}

// Verify checks the token signature, expiry, scope and revocation, then
// re-reads the account and requires it to agree with the embedded claims.
func (g *AuthorityGuard) Verify(ctx context.Context, raw string, scope domain.CredentialScope) (*AuthorityPrincipal, error) {
	claims, err := g.tokens.Parse(raw, scope)
	if err != nil {
		return nil, apperrors.NewTokenInvalid(err)
	}
	session, err := claims.Session()
	if err != nil {
		return nil, apperrors.NewTokenInvalid(err)
	}
	if g.isRevoked(ctx, claims.ID) {
		return nil, apperrors.NewTokenInvalid(errors.New("token revoked"))
	}

	account, err := g.accounts.GetByID(ctx, session.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewTokenInvalid(fmt.Errorf("account %d not found", session.UserID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !account.IsActive {
		return nil, apperrors.NewTokenInvalid(fmt.Errorf("account %d inactive", account.ID))
	}
	if !session.MatchesAccount(account) {
		return nil, apperrors.NewStaleClaims()
	}
	if !account.IsStaff {
		return nil, apperrors.NewInsufficientRole()
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &AuthorityPrincipal{
		Account:    account,
		Department: session.Department,
		TokenID:    claims.ID,
		ExpiresAt:  expiresAt,
	}, nil
}

// Authorize applies the department requirement to a verified principal.
func (g *AuthorityGuard) Authorize(principal *AuthorityPrincipal, req Requirement) error {
	switch req.kind {
	case requireAdmin:
		if !principal.Department.IsAdmin() {
			return apperrors.NewDepartmentMismatch(fmt.Sprintf(
				"You are not authorised for the %s dashboard.", g.directory.DisplayName(domain.DepartmentAdmin)))
		}
	case requireExact:
		if principal.Department != req.department {
			return apperrors.NewDepartmentMismatch(fmt.Sprintf(
				"You are not authorised for the %s dashboard.", g.directory.DisplayName(req.department)))
		}
	default:
		if !principal.Department.IsSet() {
			return apperrors.NewNoDepartmentAssigned()
		}
	}
	return nil
}

// Require returns middleware that admits only principals satisfying req.
func (g *AuthorityGuard) Require(req Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := g.Verify(c.UserContext(), AuthorityAccessToken(c), domain.ScopeAuthorityAccess)
		if err == nil {
			err = g.Authorize(principal, req)
		}
		if err != nil {
			g.reject(c, err)
			return err
		}
		c.Locals(authorityLocalsKey, principal)
		return c.Next()
	}
}

func (g *AuthorityGuard) reject(c *fiber.Ctx, err error) {
	domainErr := apperrors.ToDomainError(err)
	g.metrics.RecordGuardRejection(domainErr.Code)
	g.logger.Info("authority request rejected",
		zap.String("path", c.Path()),
		zap.String("code", domainErr.Code),
		zap.Error(err),
	)
}

func (g *AuthorityGuard) isRevoked(ctx context.Context, tokenID string) bool {
	if g.revoked == nil {
		return false
	}
	revoked, err := g.revoked.IsRevoked(ctx, tokenID)
	if err != nil {
		g.logger.Warn("revocation lookup failed; accepting token", zap.String("jti", tokenID), zap.Error(err))
		return false
	}
	return revoked
}

// AuthorityFromContext returns the principal stored by Require.
func AuthorityFromContext(c *fiber.Ctx) (*AuthorityPrincipal, bool) {
	principal, ok := c.Locals(authorityLocalsKey).(*AuthorityPrincipal)
	return principal, ok && principal != nil
}
