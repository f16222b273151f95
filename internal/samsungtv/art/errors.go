package art

import "errors"

// Domain errors for the art package. They are logged by the Client and
// visible to tests through the request helpers.
var (
	// ErrRequestTimeout is returned when no correlated response arrives
	// within the request timeout.
	ErrRequestTimeout = errors.New("art: request timed out")

	// ErrRequestFailed is returned when the TV answers a request with an
	// error sub-event.
	ErrRequestFailed = errors.New("art: request failed")

	// ErrUnavailable is returned when the connection cannot be established.
	ErrUnavailable = errors.New("art: tv unavailable")

	// ErrMissingValue is returned when a response lacks the expected field.
	ErrMissingValue = errors.New("art: response missing value")
)
