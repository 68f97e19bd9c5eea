package autherr

import (
	"encoding/json"
)

// Message is the classified, user-facing form of a failure.
type Message struct {
	Title       string
	Description string
}

// Kind selects the table of known server error codes.
type Kind int

const (
	// KindLogin classifies failures of POST /authorize.
	KindLogin Kind = iota
	// KindRegistration classifies failures of POST /register.
	KindRegistration
)

const genericDescription = "An unexpected error occurred. Please try again."

var serviceUnavailable = Message{
	Title:       "Service Unavailable",
	Description: "We're experiencing technical difficulties. Please try again later.",
}

var loginCodes = map[string]Message{
	"Wrong credentials": {
		Title:       "Invalid Credentials",
		Description: "The email or password you entered is incorrect. Please try again.",
	},
	"Missing credentials": {
		Title:       "Missing Information",
		Description: "Please provide both email and password.",
	},
	"Invalid token": {
		Title:       "Authentication Failed",
		Description: "There was a problem with your login. Please try again.",
	},
	"Database error": serviceUnavailable,
}

var registrationCodes = map[string]Message{
	"User already exists": {
		Title:       "Account Exists",
		Description: "An account with this email already exists. Please try logging in instead.",
	},
	"Missing credentials": {
		Title:       "Missing Information",
		Description: "Please fill in all required fields.",
	},
	"Password processing error": {
		Title:       "Invalid Password",
		Description: "Please choose a different password that meets our requirements.",
	},
	"Database error": serviceUnavailable,
}

type table struct {
	title string
	codes map[string]Message
}

var tables = map[Kind]table{
	KindLogin:        {title: "Login Failed", codes: loginCodes},
	KindRegistration: {title: "Registration Failed", codes: registrationCodes},
}

// Classify maps err to a title and description using the code table of kind.
//
// A message that is a JSON object with a string "error" field is looked up
// in the table; unknown codes keep the generic title and show the code
// itself. Any other message becomes the description verbatim. A nil error
// yields the fully generic pair.
func Classify(kind Kind, err error) Message {
	t, ok := tables[kind]
	if !ok {
		t = tables[KindLogin]
	}
	msg := Message{Title: t.title, Description: genericDescription}
	if err == nil {
		return msg
	}

	raw := err.Error()
	var payload struct {
		Error *string `json:"error"`
	}
	if jsonErr := json.Unmarshal([]byte(raw), &payload); jsonErr != nil || payload.Error == nil {
		msg.Description = raw
		return msg
	}

	if known, ok := t.codes[*payload.Error]; ok {
		return known
	}
	msg.Description = *payload.Error
	return msg
}

// Login classifies a failed login request.
func Login(err error) Message {
	return Classify(KindLogin, err)
}

// Registration classifies a failed registration request.
func Registration(err error) Message {
	return Classify(KindRegistration, err)
}
