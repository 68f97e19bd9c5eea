// Package models defines the core data structures shared by the chat client:
// credentials, form state, notifications and connection state.
package models

// Credentials is the payload of both the login and the registration request.
type Credentials struct {
	// Email identifies the account.
	Email string `json:"email"`
	// Password is sent as typed; no format rules are enforced client-side.
	Password string `json:"password"`
}

// Field names understood by the credential forms.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// FieldValues maps a field name to its current value. A field whose key is
// absent has never been supplied and counts as missing.
type FieldValues map[string]string

// FieldErrors maps a field name to a human-readable validation message.
// Fields without an entry are valid.
type FieldErrors map[string]string

// Credentials builds the request payload from the collected values.
func (v FieldValues) Credentials() Credentials {
	return Credentials{
		Email:    v[FieldEmail],
		Password: v[FieldPassword],
	}
}

// NotificationKind distinguishes success and error notifications.
type NotificationKind string

const (
	// NotifySuccess marks a completed action.
	NotifySuccess NotificationKind = "success"
	// NotifyError marks a failed action.
	NotifyError NotificationKind = "error"
)

// Notification is the plain-data form of a toast shown to the user.
type Notification struct {
	Kind        NotificationKind
	Title       string
	Description string
}

// ConnState is the state of a chat session.
type ConnState string

const (
	// Disconnected is both the initial and the terminal state.
	Disconnected ConnState = "disconnected"
	// Connected means a transport is open and the username has been sent.
	Connected ConnState = "connected"
)

// Screens the client can navigate to.
const (
	RouteLogin    = "/login"
	RouteRegister = "/register"
	RouteChat     = "/chat"
)

// SessionCookie is the name of the cookie carrying the bearer token issued
// by the authentication service.
const SessionCookie = "auth_token"
