package samsungtv

import (
	"context"
	"errors"
	"fmt"
)

// Observer receives application events from the receive loop.
type Observer interface {
	OnEvent(resp Response)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(resp Response)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(resp Response) { f(resp) }

// StartListening opens the connection if needed and starts the receive
// loop. It returns false without error when a loop is already running.
//
// The loop delivers application events to obs, which may be nil, in
// arrival order and waits for each call to return before reading the next
// frame. It stops when the transport closes or a read fails.
func (c *Connection) StartListening(ctx context.Context, obs Observer) (bool, error) {
	c.mu.Lock()
	if c.listening {
		c.mu.Unlock()
		return false, nil
	}
	c.listening = true
	c.mu.Unlock()

	if !c.IsAlive() {
		if err := c.Open(ctx); err != nil {
			c.clearListening()
			return false, err
		}
	}

	c.mu.Lock()
	if !c.aliveLocked() {
		c.listening = false
		c.mu.Unlock()
		return false, fmt.Errorf("%w: closed before listening started", ErrNotConnected)
	}
	t := c.transport
	done := make(chan struct{})
	c.listenDone = done
	c.mu.Unlock()

	go c.listen(t, obs, done)

	c.logger.Debug("tv listener started", "host", c.endpoint.Host)
	return true, nil
}

// Listening reports whether the receive loop is running.
func (c *Connection) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

func (c *Connection) clearListening() {
	c.mu.Lock()
	c.listening = false
	c.mu.Unlock()
}

// listen is the receive loop. It is the only reader of t.
func (c *Connection) listen(t Transport, obs Observer, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.listening = false
		if c.listenDone == done {
			c.listenDone = nil
		}
		if c.transport == t {
			c.transport = nil
			c.state = StateClosed
		}
		c.mu.Unlock()

		t.Close() //nolint:errcheck // already closed or failed
		close(done)
	}()

	for {
		data, err := t.ReadMessage()
		if err != nil {
			if errors.Is(err, ErrTransportClosed) {
				c.logger.Debug("tv listener stopped, transport closed", "host", c.endpoint.Host)
			} else {
				c.logger.Warn("tv listener stopped", "host", c.endpoint.Host, "error", err)
			}
			return
		}

		resp, err := Decode(data)
		if err != nil {
			c.logger.Warn("dropping malformed frame", "host", c.endpoint.Host, "error", err)
			continue
		}

		kind := Classify(resp.Event)
		if !kind.Delivered() {
			c.logControl(resp)
			continue
		}

		if obs != nil {
			c.deliver(obs, resp)
		}
	}
}

func (c *Connection) logControl(resp Response) {
	switch resp.Event {
	case EventChannelUnauthorized:
		c.logger.Warn("tv sent unauthorized after handshake", "host", c.endpoint.Host)
	case EventClientConnect, EventClientDisconnect:
		c.logger.Info("tv client change", "host", c.endpoint.Host, "event", resp.Event)
	default:
		c.logger.Debug("tv control event", "host", c.endpoint.Host, "event", resp.Event)
	}
}

// deliver calls the observer, recovering a panic so the loop keeps running.
func (c *Connection) deliver(obs Observer, resp Response) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("observer panicked", "event", resp.Event, "panic", r)
		}
	}()
	obs.OnEvent(resp)
}
