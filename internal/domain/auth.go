package domain

// CredentialScope separates the citizen session from the authority token.
// A token minted for one scope is never accepted by the other.
type CredentialScope string

const (
	ScopeCitizen          CredentialScope = "citizen"
	ScopeAuthorityAccess  CredentialScope = "authority_access"
	ScopeAuthorityRefresh CredentialScope = "authority_refresh"
)

// SessionClaims is the login-time snapshot embedded in an authority token.
type SessionClaims struct {
	UserID     int64
	Username   string
	Department Department
	IsStaff    bool
}

// MatchesAccount reports whether the snapshot still agrees with live account state.
func (c SessionClaims) MatchesAccount(account *Account) bool {
	return account != nil &&
		account.ID == c.UserID &&
		account.IsStaff == c.IsStaff &&
		account.Department == c.Department
}
