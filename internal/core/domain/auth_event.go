package domain

import "time"

// AuthEventType names an entry in the authentication audit trail.
type AuthEventType string

const (
	AuthEventRegistered     AuthEventType = "registered"
	AuthEventLoginSucceeded AuthEventType = "login_succeeded"
	AuthEventLoginFailed    AuthEventType = "login_failed"
	AuthEventLogout         AuthEventType = "logout"
	AuthEventTokenRejected  AuthEventType = "token_rejected"
)

// AuthEvent records an authentication outcome. UserID is zero when the
// actor could not be identified.
type AuthEvent struct {
	Type       AuthEventType
	Username   string
	UserID     int64
	Reason     string
	OccurredAt time.Time
}
