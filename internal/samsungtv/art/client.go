package art

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-frameart/internal/samsungtv"
)

// DefaultRequestTimeout bounds the wait for a correlated response.
const DefaultRequestTimeout = 5 * time.Second

// Brightness and colour temperature ranges.
const (
	MinBrightness       = 0
	MaxBrightness       = 100
	MinColorTemperature = -5
	MaxColorTemperature = 5

	// brightnessScale converts the TV's 0..10 scale to percent.
	brightnessScale = 10
)

// Conn is the connection surface the Client needs. *samsungtv.Connection
// satisfies it.
type Conn interface {
	IsAlive() bool
	StartListening(ctx context.Context, obs samsungtv.Observer) (bool, error)
	SendCommand(ctx context.Context, cmd samsungtv.Command) error
	Close() error
}

var _ Conn = (*samsungtv.Connection)(nil)

// Event is an unsolicited art service event such as art_mode_changed.
type Event struct {
	Name string
	Data map[string]any
}

// EventHandler receives unsolicited events. It runs on the connection's
// receive loop and must return quickly.
type EventHandler func(Event)

// SlideshowStatus is the answer to get_slideshow_status.
type SlideshowStatus struct {
	// Value is "off" or the rotation interval in minutes.
	Value      string
	CategoryID string
	Type       string
}

// Enabled reports whether the slideshow is rotating.
func (s SlideshowStatus) Enabled() bool {
	return s.Value != "" && s.Value != "off"
}

// Artwork is the answer to get_current_artwork.
type Artwork struct {
	ContentID  string
	CategoryID string
	MatteID    string
}

// Options configures a Client.
type Options struct {
	// RequestTimeout bounds each request. DefaultRequestTimeout when zero.
	RequestTimeout time.Duration

	// Logger is optional.
	Logger samsungtv.Logger

	// OnEvent receives unsolicited events. Optional.
	OnEvent EventHandler
}

type result struct {
	data map[string]any
	err  error
}

type pendingRequest struct {
	name string
	ch   chan result
}

// Client is the art-mode facade over one Connection.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	conn           Conn
	requestTimeout time.Duration
	logger         samsungtv.Logger

	// ensureMu serialises reconnects.
	ensureMu sync.Mutex

	mu      sync.Mutex
	pending map[string]*pendingRequest
	onEvent EventHandler
}

// New returns a Client. It does not connect; the first operation or Start does.
func New(conn Conn, opts Options) *Client {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = discard{}
	}
	return &Client{
		conn:           conn,
		requestTimeout: timeout,
		logger:         logger,
		pending:        make(map[string]*pendingRequest),
		onEvent:        opts.OnEvent,
	}
}

// SetEventHandler replaces the unsolicited event handler.
func (c *Client) SetEventHandler(h EventHandler) {
	c.mu.Lock()
	c.onEvent = h
	c.mu.Unlock()
}

// Start opens the connection and starts the receive loop.
func (c *Client) Start(ctx context.Context) error {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	if _, err := c.conn.StartListening(ctx, c); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Close closes the connection and fails outstanding requests.
func (c *Client) Close() error {
	err := c.conn.Close()
	c.failAll(ErrUnavailable)
	return err
}

// IsAlive reports whether the connection is open.
func (c *Client) IsAlive() bool {
	return c.conn.IsAlive()
}

// ensure reconnects when the connection has dropped.
func (c *Client) ensure(ctx context.Context) error {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()

	if c.conn.IsAlive() {
		// A live connection with a stopped loop would never answer.
		if _, err := c.conn.StartListening(ctx, c); err != nil {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil
	}

	c.logger.Warn("tv not connected, reconnecting")
	c.conn.Close() //nolint:errcheck // clearing a dead connection
	c.failAll(ErrUnavailable)

	if _, err := c.conn.StartListening(ctx, c); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// request sends one art request and waits for its response data.
func (c *Client) request(ctx context.Context, name string, fields map[string]any) (map[string]any, error) {
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	cmd, err := newRequest(name, id, fields)
	if err != nil {
		return nil, err
	}

	p := &pendingRequest{name: name, ch: make(chan result, 1)}
	c.mu.Lock()
	c.pending[id] = p
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	if err := c.conn.SendCommand(ctx, cmd); err != nil {
		return nil, fmt.Errorf("sending %s: %w", name, err)
	}

	select {
	case r := <-p.ch:
		return r.data, r.err
	case <-ctx.Done():
		// The response may have landed while the send delay expired the context.
		select {
		case r := <-p.ch:
			return r.data, r.err
		default:
		}
		return nil, fmt.Errorf("%w: %s", ErrRequestTimeout, name)
	}
}

// send transmits a request without waiting for an answer. Set operations
// report success once the request is on the wire; an error sub-event for
// it is logged by OnEvent.
func (c *Client) send(ctx context.Context, name string, fields map[string]any) error {
	if err := c.ensure(ctx); err != nil {
		return err
	}
	cmd, err := newRequest(name, uuid.NewString(), fields)
	if err != nil {
		return err
	}
	if err := c.conn.SendCommand(ctx, cmd); err != nil {
		return fmt.Errorf("sending %s: %w", name, err)
	}
	return nil
}

// OnEvent routes d2d_service_message frames to waiting requests or the
// event handler. It implements samsungtv.Observer.
func (c *Client) OnEvent(resp samsungtv.Response) {
	if resp.Event == samsungtv.EventError {
		c.logger.Warn("tv reported channel error", "raw", string(resp.Raw))
		return
	}
	if resp.Event != samsungtv.EventD2DServiceMessage || resp.Data == nil {
		c.logger.Debug("ignoring tv event", "event", resp.Event)
		return
	}

	data := resp.Data
	sub, _ := data["event"].(string)

	if sub == SubEventError {
		id := failedRequestID(data)
		code, _ := stringValue(data["error_code"])
		err := fmt.Errorf("%w: error_code %s", ErrRequestFailed, code)
		if !c.resolve(id, "", result{err: err}) {
			c.logger.Warn("tv reported art error", "error_code", code, "request_id", id)
		}
		return
	}

	if c.resolve(responseID(data), sub, result{data: data}) {
		return
	}

	c.mu.Lock()
	h := c.onEvent
	c.mu.Unlock()
	if h != nil {
		h(Event{Name: sub, Data: data})
		return
	}
	c.logger.Debug("unsolicited art event", "event", sub)
}

// resolve hands r to the request with id, or when id is empty to the
// first pending request the sub-event answers.
func (c *Client) resolve(id, sub string, r result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id != "" {
		p, ok := c.pending[id]
		if !ok {
			return false
		}
		delete(c.pending, id)
		p.ch <- r
		return true
	}

	for key, p := range c.pending {
		if answers(sub, p.name) {
			delete(c.pending, key)
			p.ch <- r
			return true
		}
	}
	return false
}

func (c *Client) failAll(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, p := range c.pending {
		delete(c.pending, id)
		p.ch <- result{err: err}
	}
}

// logFailure records why an operation produced no result.
func (c *Client) logFailure(op string, err error) {
	switch {
	case errors.Is(err, ErrUnavailable):
		c.logger.Warn("tv unavailable", "operation", op, "error", err)
	default:
		c.logger.Error("art request failed", "operation", op, "error", err)
	}
}

type discard struct{}

func (discard) Debug(string, ...any) {}
func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}
