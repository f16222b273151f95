package frame

import "errors"

// Domain errors for the Frame bridge package.
var (
	// ErrUnknownCommand is returned for a command name the bridge does not handle.
	ErrUnknownCommand = errors.New("frame: unknown command")

	// ErrInvalidParameters is returned when a command's parameters are missing or malformed.
	ErrInvalidParameters = errors.New("frame: invalid parameters")

	// ErrTVUnavailable is returned when the TV could not be reached.
	ErrTVUnavailable = errors.New("frame: tv unavailable")

	// ErrUnknownTV is returned for a command addressed to another TV.
	ErrUnknownTV = errors.New("frame: unknown tv")
)
