package samsungtv

import (
	"errors"
	"fmt"
)

// Domain errors for the samsungtv package.
var (
	// ErrUnauthorized is returned when the TV rejects the pairing request
	// or the presented token.
	ErrUnauthorized = errors.New("samsungtv: unauthorized")

	// ErrConnectionFailed is returned when the transport cannot be
	// established or the handshake ends with an unexpected event.
	ErrConnectionFailed = errors.New("samsungtv: connection failed")

	// ErrTimeout is returned when no definitive handshake event arrives
	// within the endpoint timeout.
	ErrTimeout = errors.New("samsungtv: operation timed out")

	// ErrMalformedFrame is returned when an inbound frame is not a JSON object.
	ErrMalformedFrame = errors.New("samsungtv: malformed frame")

	// ErrNotConnected is returned when a send is attempted without an open
	// transport.
	ErrNotConnected = errors.New("samsungtv: not connected")

	// ErrNotEncodable is returned when a command has no wire representation.
	ErrNotEncodable = errors.New("samsungtv: command cannot be encoded")

	// ErrTokenPersist is returned when a token cannot be written to its
	// backing store.
	ErrTokenPersist = errors.New("samsungtv: token persistence failed")

	// ErrTransportClosed is returned by a Transport read or write after the
	// socket has been closed by either side.
	ErrTransportClosed = errors.New("samsungtv: transport closed")
)

// UnauthorizedError carries the handshake frame the TV sent when it
// rejected the connection.
type UnauthorizedError struct {
	Response Response
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnauthorized, e.Response.Raw)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match.
func (e *UnauthorizedError) Unwrap() error {
	return ErrUnauthorized
}

// HandshakeError carries the frame that ended the handshake when it was
// neither a connect nor an unauthorized event.
type HandshakeError struct {
	Response Response
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("%v: unexpected handshake event %q", ErrConnectionFailed, e.Response.Event)
}

// Unwrap lets errors.Is(err, ErrConnectionFailed) match.
func (e *HandshakeError) Unwrap() error {
	return ErrConnectionFailed
}
