package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered EventType = "account_registered"
	EventLoginSucceeded    EventType = "login_succeeded"
	EventLoginFailed       EventType = "login_failed"
	EventLoggedOut         EventType = "logged_out"
)

// Event represents an authentication event emitted by the auth service.
// AccountID is zero when the actor could not be resolved (failed logins).
// Events never carry passwords or raw tokens.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID int64       `json:"account_id,omitempty"`
	Email     string      `json:"email,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// AccountRegisteredPayload payload.
type AccountRegisteredPayload struct {
	RoleID int64 `json:"role_id"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	TokenID string `json:"token_id"`
}

// LoggedOutPayload payload.
type LoggedOutPayload struct {
	TokenID string `json:"token_id,omitempty"`
}
