package domain

import "time"

// AuthToken is issuance metadata for an opaque bearer token. The raw bearer
// value itself is returned to the caller exactly once and is never persisted;
// the store keeps only a digest of its secret half.
type AuthToken struct {
	ID        string
	AccountID int64
	IssuedAt  time.Time
}
