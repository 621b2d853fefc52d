package domain

import "time"

// Account is a citizen or staff identity.
type Account struct {
	ID           int64
	Username     string
	Name         string
	Contact      string
	Address      string
	PasswordHash string
	IsStaff      bool
	IsActive     bool
	Department   Department
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName prefers the full name and falls back to the username.
func (a *Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Username
}
