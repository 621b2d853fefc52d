package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-desk/complaint-service/internal/domain"
)

func newTestTokens() *TokenManager {
	return NewTokenManager("test-secret", 8*time.Hour, 24*time.Hour, 24*time.Hour)
}

func TestIssueAuthorityRoundTrip(t *testing.T) {
	tm := newTestTokens()
	session := domain.SessionClaims{UserID: 42, Username: "ravi", Department: domain.DepartmentPower, IsStaff: true}

	pair, err := tm.IssueAuthority(session)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access.ID, pair.Refresh.ID)
	assert.True(t, pair.Refresh.ExpiresAt.After(pair.Access.ExpiresAt))

	claims, err := tm.Parse(pair.Access.Value, domain.ScopeAuthorityAccess)
	require.NoError(t, err)
	assert.Equal(t, pair.Access.ID, claims.ID)

	got, err := claims.Session()
	require.NoError(t, err)
	assert.Equal(t, session, got)

	_, err = tm.Parse(pair.Refresh.Value, domain.ScopeAuthorityRefresh)
	assert.NoError(t, err)
}

func TestParseRejectsOtherScopes(t *testing.T) {
	tm := newTestTokens()
	pair, err := tm.IssueAuthority(domain.SessionClaims{UserID: 1, Department: domain.DepartmentAdmin, IsStaff: true})
	require.NoError(t, err)
	citizen, err := tm.IssueCitizen(&domain.Account{ID: 1, Username: "asha"})
	require.NoError(t, err)

	_, err = tm.Parse(pair.Refresh.Value, domain.ScopeAuthorityAccess)
	assert.ErrorIs(t, err, ErrScopeMismatch)
	_, err = tm.Parse(pair.Access.Value, domain.ScopeCitizen)
	assert.ErrorIs(t, err, ErrScopeMismatch)
	_, err = tm.Parse(citizen.Value, domain.ScopeAuthorityAccess)
	assert.ErrorIs(t, err, ErrScopeMismatch)
}

func TestParseRejectsExpiredTamperedAndForeignTokens(t *testing.T) {
	tm := newTestTokens()
	issuedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return issuedAt }
	token, err := tm.IssueAccess(domain.SessionClaims{UserID: 5, Department: domain.DepartmentWorks, IsStaff: true})
	require.NoError(t, err)

	tm.now = func() time.Time { return issuedAt.Add(8*time.Hour + time.Second) }
	_, err = tm.Parse(token.Value, domain.ScopeAuthorityAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	tm.now = func() time.Time { return issuedAt.Add(time.Hour) }
	_, err = tm.Parse(token.Value, domain.ScopeAuthorityAccess)
	require.NoError(t, err)

	_, err = tm.Parse(token.Value+"x", domain.ScopeAuthorityAccess)
	assert.Error(t, err)

	other := NewTokenManager("another-secret", time.Hour, time.Hour, time.Hour)
	other.now = tm.now
	_, err = other.Parse(token.Value, domain.ScopeAuthorityAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = tm.Parse("", domain.ScopeAuthorityAccess)
	assert.Error(t, err)
	_, err = tm.Parse("not.a.jwt", domain.ScopeAuthorityAccess)
	assert.Error(t, err)
}

func TestClaimsWithUnknownDepartment(t *testing.T) {
	claims := &Claims{UserID: 1, Department: "parks"}
	_, err := claims.Session()
	var unknown *domain.UnknownDepartmentError
	assert.ErrorAs(t, err, &unknown)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret-pass"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}
