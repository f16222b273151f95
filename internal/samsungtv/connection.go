package samsungtv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Protocol defaults.
const (
	// DefaultSecurePort is the TV's wss port.
	DefaultSecurePort = 8002

	// DefaultPort is the TV's plain ws port.
	DefaultPort = 8001

	// DefaultTimeout bounds dial plus handshake.
	DefaultTimeout = 10 * time.Second

	// DefaultCommandDelay is the pause after each transmitted command.
	DefaultCommandDelay = time.Second

	// DefaultName is the client name shown on the TV's pairing prompt.
	DefaultName = "SamsungTvRemote"

	// RemoteControlAppName is the channel for key presses.
	RemoteControlAppName = "samsung.remote.control"

	// ArtAppName is the art-mode channel.
	ArtAppName = "com.samsung.art-app"
)

// Endpoint identifies one TV and its protocol parameters.
type Endpoint struct {
	Host   string
	Port   int
	Secure bool

	// Name is shown on the TV when pairing.
	Name string

	// AppName is the channel path, RemoteControlAppName when empty.
	AppName string

	// Timeout bounds dial and handshake. DefaultTimeout when zero.
	Timeout time.Duration

	// CommandDelay follows every transmitted command. DefaultCommandDelay
	// when zero. Use a negative value for no delay.
	CommandDelay time.Duration

	// WaitForReady makes the handshake also wait for ms.channel.ready,
	// which the art channel sends once it accepts requests.
	WaitForReady bool
}

func (e Endpoint) port() int {
	switch {
	case e.Port > 0:
		return e.Port
	case e.Secure:
		return DefaultSecurePort
	default:
		return DefaultPort
	}
}

func (e Endpoint) timeout() time.Duration {
	if e.Timeout <= 0 {
		return DefaultTimeout
	}
	return e.Timeout
}

func (e Endpoint) commandDelay() time.Duration {
	switch {
	case e.CommandDelay < 0:
		return 0
	case e.CommandDelay == 0:
		return DefaultCommandDelay
	default:
		return e.CommandDelay
	}
}

func (e Endpoint) appName() string {
	if e.AppName == "" {
		return RemoteControlAppName
	}
	return e.AppName
}

func (e Endpoint) name() string {
	if e.Name == "" {
		return DefaultName
	}
	return e.Name
}

// URL returns the channel URL with token as the token query parameter.
// An empty token requests first-time pairing.
func (e Endpoint) URL(token string) string {
	scheme := "ws"
	if e.Secure {
		scheme = "wss"
	}

	q := url.Values{}
	q.Set("name", base64.StdEncoding.EncodeToString([]byte(e.name())))
	q.Set("token", token)

	u := url.URL{
		Scheme:   scheme,
		Host:     net.JoinHostPort(e.Host, strconv.Itoa(e.port())),
		Path:     "/api/v2/channels/" + e.appName(),
		RawQuery: q.Encode(),
	}
	return u.String()
}

// State is the connection lifecycle state.
type State int

const (
	StateClosed State = iota
	StateHandshaking
	StateOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHandshaking:
		return "handshaking"
	case StateOpen:
		return "open"
	}
	return "unknown"
}

// Option configures a Connection.
type Option func(*Connection)

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Connection) { c.dialer = d }
}

// WithLogger sets the connection logger.
func WithLogger(l Logger) Option {
	return func(c *Connection) { c.logger = orNop(l) }
}

// Connection owns one transport to one TV endpoint.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Close must not be called from an Observer; it waits for the
//     receive loop that is running the observer.
type Connection struct {
	endpoint Endpoint
	tokens   TokenStore
	dialer   Dialer
	logger   Logger

	// openMu serialises handshakes.
	openMu sync.Mutex

	// sendMu keeps one SendCommands sequence from interleaving with another.
	sendMu sync.Mutex

	// mu guards the fields below.
	mu         sync.Mutex
	state      State
	transport  Transport
	listening  bool
	listenDone chan struct{}
}

// NewConnection returns a Closed connection. A nil store keeps the token
// in memory.
func NewConnection(ep Endpoint, tokens TokenStore, opts ...Option) *Connection {
	if tokens == nil {
		tokens = NewMemoryTokenStore("")
	}
	c := &Connection{
		endpoint: ep,
		tokens:   tokens,
		dialer:   WebSocketDialer{HandshakeTimeout: ep.timeout()},
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the endpoint the connection was created with.
func (c *Connection) Endpoint() Endpoint {
	return c.endpoint
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsAlive reports whether the handshake completed and the transport is open.
func (c *Connection) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aliveLocked()
}

func (c *Connection) aliveLocked() bool {
	return c.state == StateOpen && c.transport != nil && c.transport.IsOpen()
}

// Open dials the TV and runs the handshake. It returns nil without a
// second handshake when the connection is already alive.
//
// Errors wrap ErrUnauthorized, ErrConnectionFailed or ErrTimeout.
func (c *Connection) Open(ctx context.Context) error {
	c.openMu.Lock()
	defer c.openMu.Unlock()

	c.mu.Lock()
	if c.aliveLocked() {
		c.mu.Unlock()
		return nil
	}
	stale := c.transport
	staleDone := c.listenDone
	c.transport = nil
	c.state = StateHandshaking
	c.mu.Unlock()

	// A transport that failed under us still needs closing, and its
	// receive loop must be gone before a new one can start.
	if stale != nil {
		stale.Close() //nolint:errcheck // already failed
	}
	if staleDone != nil {
		<-staleDone
	}

	c.logger.Debug("opening tv connection", "host", c.endpoint.Host, "app", c.endpoint.appName())

	t, err := c.handshake(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateClosed
		return err
	}
	c.transport = t
	c.state = StateOpen
	c.logger.Info("tv connection open", "host", c.endpoint.Host, "app", c.endpoint.appName())
	return nil
}

// handshake dials and waits for the definitive connect event.
func (c *Connection) handshake(parent context.Context) (Transport, error) {
	ctx, cancel := context.WithTimeout(parent, c.endpoint.timeout())
	defer cancel()

	token, _ := c.tokens.Load(ctx)

	t, err := c.dialer.Dial(ctx, c.endpoint.URL(token))
	if err != nil {
		if isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: dial %s: %w", ErrTimeout, c.endpoint.Host, err)
		}
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, c.endpoint.Host, err)
	}

	// Cancelling ctx unblocks a pending read by closing the socket.
	stop := context.AfterFunc(ctx, func() { t.Close() }) //nolint:errcheck // unblocks read
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		if err := t.SetReadDeadline(deadline); err != nil {
			t.Close() //nolint:errcheck // error path
			return nil, fmt.Errorf("%w: set read deadline: %w", ErrConnectionFailed, err)
		}
	}

	resp, err := c.awaitEvent(ctx, t, func(event string) bool { return !ignoredAtStartup(event) })
	if err != nil {
		t.Close() //nolint:errcheck // error path
		return nil, err
	}

	switch resp.Event {
	case EventChannelUnauthorized:
		t.Close() //nolint:errcheck // error path
		c.logger.Warn("tv rejected connection", "host", c.endpoint.Host)
		return nil, &UnauthorizedError{Response: resp}
	case EventChannelConnect:
	default:
		t.Close() //nolint:errcheck // error path
		return nil, &HandshakeError{Response: resp}
	}

	if tok, ok := resp.Token(); ok {
		c.logger.Info("tv issued token", "host", c.endpoint.Host, "token_prefix", tokenPrefix(tok))
		if err := c.tokens.Save(ctx, tok); err != nil {
			c.logger.Warn("token not persisted", "host", c.endpoint.Host, "error", err)
		}
	}

	if c.endpoint.WaitForReady {
		if _, err := c.awaitEvent(ctx, t, func(event string) bool { return event == EventChannelReady }); err != nil {
			t.Close() //nolint:errcheck // error path
			return nil, err
		}
	}

	if err := t.SetReadDeadline(time.Time{}); err != nil {
		t.Close() //nolint:errcheck // error path
		return nil, fmt.Errorf("%w: clear read deadline: %w", ErrConnectionFailed, err)
	}

	return t, nil
}

// awaitEvent reads frames until accept returns true for one. Malformed
// frames and rejected events are skipped.
func (c *Connection) awaitEvent(ctx context.Context, t Transport, accept func(string) bool) (Response, error) {
	for {
		data, err := t.ReadMessage()
		if err != nil {
			if isTimeout(err) || errors.Is(err, ErrTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return Response{}, fmt.Errorf("%w: waiting for handshake: %w", ErrTimeout, err)
			}
			if ctx.Err() != nil {
				return Response{}, fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
			}
			return Response{}, fmt.Errorf("%w: read handshake: %w", ErrConnectionFailed, err)
		}

		resp, err := Decode(data)
		if err != nil {
			c.logger.Warn("dropping malformed handshake frame", "error", err)
			continue
		}

		if accept(resp.Event) {
			return resp, nil
		}
		c.logger.Debug("skipping handshake event", "event", resp.Event)
	}
}

// Close closes the transport and waits for the receive loop to exit.
// Calling Close on a closed connection is a no-op.
func (c *Connection) Close() error {
	c.mu.Lock()
	t := c.transport
	done := c.listenDone
	c.transport = nil
	c.state = StateClosed
	c.mu.Unlock()

	var err error
	if t != nil {
		err = t.Close()
	}
	if done != nil {
		<-done
	}

	if t != nil {
		c.logger.Debug("tv connection closed", "host", c.endpoint.Host)
	}
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("closing transport: %w", err)
	}
	return nil
}

// currentTransport returns the open transport or ErrNotConnected.
func (c *Connection) currentTransport() (Transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.aliveLocked() {
		return nil, ErrNotConnected
	}
	return c.transport, nil
}
