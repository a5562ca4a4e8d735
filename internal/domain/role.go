package domain

// Role is a named permission class referenced by accounts. Read-only from
// this service's perspective; many accounts share one role.
type Role struct {
	ID          int64
	Name        string
	Description string
}
