package samsungtv

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// closeWriteTimeout bounds the close frame sent on Close.
const closeWriteTimeout = time.Second

// Transport is one message-oriented socket to the TV.
//
// ReadMessage is called by one goroutine at a time. WriteMessage and Close
// are safe to call concurrently with ReadMessage.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	SetReadDeadline(t time.Time) error
	Close() error
	IsOpen() bool
}

// Dialer opens transports.
type Dialer interface {
	Dial(ctx context.Context, url string) (Transport, error)
}

// WebSocketDialer dials the TV with gorilla/websocket.
type WebSocketDialer struct {
	// HandshakeTimeout bounds the HTTP upgrade. Zero uses the context deadline only.
	HandshakeTimeout time.Duration
}

// Dial opens a WebSocket. For wss URLs certificate verification is
// disabled because the TV presents a self-signed certificate.
func (d WebSocketDialer) Dial(ctx context.Context, url string) (Transport, error) {
	dialer := websocket.Dialer{
		Proxy:            nil,
		HandshakeTimeout: d.HandshakeTimeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // TV certificates are self-signed
			MinVersion:         tls.VersionTLS12,
		},
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close() //nolint:errcheck // upgrade response body carries nothing we need
	}
	if err != nil {
		return nil, err
	}
	return newWSTransport(conn), nil
}

// wsTransport adapts a *websocket.Conn to Transport.
type wsTransport struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		// A gorilla connection is unusable after any read error.
		wasClosed := t.closed.Swap(true)
		return nil, mapTransportError(err, wasClosed)
	}
	return data, nil
}

func (t *wsTransport) WriteMessage(data []byte) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		wasClosed := t.closed.Swap(true)
		return mapTransportError(err, wasClosed)
	}
	return nil
}

func (t *wsTransport) SetReadDeadline(deadline time.Time) error {
	return t.conn.SetReadDeadline(deadline)
}

// Close sends a normal close frame when possible and closes the socket,
// which unblocks a pending ReadMessage.
func (t *wsTransport) Close() error {
	t.closeOnce.Do(func() {
		if !t.closed.Swap(true) {
			t.writeMu.Lock()
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout)) //nolint:errcheck // best effort
			t.writeMu.Unlock()
		}
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

func (t *wsTransport) IsOpen() bool {
	return !t.closed.Load()
}

// mapTransportError folds close conditions into ErrTransportClosed and
// deadlines into ErrTimeout.
func mapTransportError(err error, closedLocally bool) error {
	switch {
	case closedLocally, errors.Is(err, net.ErrClosed):
		return fmt.Errorf("%w: %w", ErrTransportClosed, err)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure):
		return fmt.Errorf("%w: %w", ErrTransportClosed, err)
	case isTimeout(err):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return err
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
