package domain

import "time"

// Account is the stored identity behind a Principal. Role and team
// membership are read from here on every request, never from token claims,
// so permission changes take effect without re-issuing credentials.
type Account struct {
	ID           UserID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         Role
	TeamID       TeamID // empty when not in a team
	Active       bool
	CreatedAt    time.Time
}

func (a *Account) Principal() *Principal {
	return &Principal{
		ID:     a.ID,
		Role:   a.Role,
		TeamID: a.TeamID,
	}
}
