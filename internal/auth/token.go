package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/civic-desk/complaint-service/internal/domain"
)

// ErrScopeMismatch is returned when a token was minted for another credential scope.
var ErrScopeMismatch = errors.New("token scope mismatch")

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	citizenTTL time.Duration
	now        func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, refreshTTL, citizenTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 8 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	if citizenTTL <= 0 {
		citizenTTL = 24 * time.Hour
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		citizenTTL: citizenTTL,
		now:        time.Now,
	}
}

// Claims describes JWT payload.
type Claims struct {
	UserID     int64                  `json:"user_id"`
	Username   string                 `json:"username"`
	Department string                 `json:"department"`
	IsStaff    bool                   `json:"is_staff"`
	Scope      domain.CredentialScope `json:"scope"`
	jwt.RegisteredClaims
}

// Session converts the payload into the domain snapshot.
func (c *Claims) Session() (domain.SessionClaims, error) {
	dept, ok := domain.ParseDepartment(c.Department)
	if !ok {
		return domain.SessionClaims{}, &domain.UnknownDepartmentError{Code: c.Department}
	}
	return domain.SessionClaims{
		UserID:     c.UserID,
		Username:   c.Username,
		Department: dept,
		IsStaff:    c.IsStaff,
	}, nil
}

// IssuedToken is a signed token with its id and expiry.
type IssuedToken struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// TokenPair holds the authority access and refresh tokens minted together.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// IssueAuthority mints the access/refresh pair for a verified staff snapshot.
func (tm *TokenManager) IssueAuthority(session domain.SessionClaims) (TokenPair, error) {
	access, err := tm.sign(session, domain.ScopeAuthorityAccess, tm.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := tm.sign(session, domain.ScopeAuthorityRefresh, tm.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess mints a single access token, used when refreshing.
func (tm *TokenManager) IssueAccess(session domain.SessionClaims) (IssuedToken, error) {
	return tm.sign(session, domain.ScopeAuthorityAccess, tm.accessTTL)
}

// IssueCitizen mints a citizen portal session token.
func (tm *TokenManager) IssueCitizen(account *domain.Account) (IssuedToken, error) {
	return tm.sign(domain.SessionClaims{
		UserID:   account.ID,
		Username: account.Username,
	}, domain.ScopeCitizen, tm.citizenTTL)
}

func (tm *TokenManager) sign(session domain.SessionClaims, scope domain.CredentialScope, ttl time.Duration) (IssuedToken, error) {
	now := tm.now()
	expiresAt := now.Add(ttl)
	id := uuid.NewString()
	claims := &Claims{
		UserID:     session.UserID,
		Username:   session.Username,
		Department: session.Department.Code(),
		IsStaff:    session.IsStaff,
		Scope:      scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   strconv.FormatInt(session.UserID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Value: tokenString, ID: id, ExpiresAt: expiresAt}, nil
}

// Parse validates signature, expiry and scope and returns the claims.
func (tm *TokenManager) Parse(tokenStr string, scope domain.CredentialScope) (*Claims, error) {
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Scope != scope {
		return nil, ErrScopeMismatch
	}
	return claims, nil
}
