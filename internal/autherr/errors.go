// Package autherr classifies failures of authentication API calls into
// user-facing titles and descriptions.
package autherr

import (
	"fmt"
)

// GenericTransportMessage is shown when the service could not be reached or
// answered with something that is not a valid response.
const GenericTransportMessage = "Unable to reach the authentication service. Please try again."

// APIError is returned for a non-success HTTP response. Body holds the raw
// response body, normally a JSON object such as {"error":"Wrong credentials"}.
type APIError struct {
	Status int
	Body   string
}

// Error returns the raw body so the classifier can inspect the server code.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server responded with status %d", e.Status)
	}
	return e.Body
}

// TransportError wraps network failures and malformed success responses.
// Its message stays generic; the cause is kept for logging.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return GenericTransportMessage
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
