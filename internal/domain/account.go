package domain

import "time"

// AccountStatus represents lifecycle states for an account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
)

// Account is the domain model for a registered identity. PasswordHash is
// opaque to every layer except the hasher and never crosses the API boundary.
type Account struct {
	ID           int64
	RoleID       int64
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Address      string
	Avatar       string
	PasswordHash string
	Status       AccountStatus
	Role         *Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the account may authenticate.
func (a *Account) Active() bool {
	return a.Status == AccountStatusActive
}
