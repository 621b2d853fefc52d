package auth

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/repository"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

const citizenLocalsKey = "citizen_account"

// CitizenSession guards the citizen portal. It reads only the citizen cookie
// and accepts only citizen-scoped tokens.
type CitizenSession struct {
	tokens   *TokenManager
	accounts repository.AccountRepository
}

// NewCitizenSession builds the middleware.
func NewCitizenSession(tokens *TokenManager, accounts repository.AccountRepository) *CitizenSession {
	return &CitizenSession{tokens: tokens, accounts: accounts}
}

// Handle loads the signed-in citizen account into the request.
func (s *CitizenSession) Handle(c *fiber.Ctx) error {
	claims, err := s.tokens.Parse(c.Cookies(CitizenCookieName), domain.ScopeCitizen)
	if err != nil {
		return apperrors.NewTokenInvalid(err)
	}
	account, err := s.accounts.GetByID(c.UserContext(), claims.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewTokenInvalid(fmt.Errorf("account %d not found", claims.UserID))
	}
	if err != nil {
		return err
	}
	if !account.IsActive {
		return apperrors.NewTokenInvalid(fmt.Errorf("account %d inactive", account.ID))
	}
	c.Locals(citizenLocalsKey, account)
	return c.Next()
}

// CitizenFromContext returns the account stored by Handle.
func CitizenFromContext(c *fiber.Ctx) (*domain.Account, bool) {
	account, ok := c.Locals(citizenLocalsKey).(*domain.Account)
	return account, ok && account != nil
}
