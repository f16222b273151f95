package samsungtv

import (
	"context"
	"fmt"
	"time"
)

// SendCommands transmits cmds in order, pausing for the endpoint's command
// delay after each one. Sleep commands pause without transmitting. The
// connection is opened first when it is not alive.
func (c *Connection) SendCommands(ctx context.Context, cmds []Command) error {
	return c.SendCommandsWithDelay(ctx, cmds, c.endpoint.commandDelay())
}

// SendCommandsWithDelay is SendCommands with delay in place of the
// endpoint's command delay.
func (c *Connection) SendCommandsWithDelay(ctx context.Context, cmds []Command, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.IsAlive() {
		if err := c.Open(ctx); err != nil {
			return err
		}
	}

	return c.sendLocked(ctx, cmds, delay)
}

// SendCommand transmits one command. A Batch is forwarded to SendCommands
// with a deprecation warning.
func (c *Connection) SendCommand(ctx context.Context, cmd Command) error {
	if batch, ok := cmd.(Batch); ok {
		c.logger.Warn("sending a batch through SendCommand is deprecated, use SendCommands")
		return c.SendCommands(ctx, batch)
	}
	return c.SendCommands(ctx, []Command{cmd})
}

func (c *Connection) sendLocked(ctx context.Context, cmds []Command, delay time.Duration) error {
	for _, cmd := range cmds {
		switch v := cmd.(type) {
		case Sleep:
			if err := sleepContext(ctx, v.Duration); err != nil {
				return err
			}
		case Batch:
			if err := c.sendLocked(ctx, v, delay); err != nil {
				return err
			}
		case Request, RawCommand:
			if err := c.transmit(v); err != nil {
				return err
			}
			if err := sleepContext(ctx, delay); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %T", ErrNotEncodable, cmd)
		}
	}
	return nil
}

func (c *Connection) transmit(cmd Command) error {
	payload, err := Encode(cmd)
	if err != nil {
		return err
	}

	t, err := c.currentTransport()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c.logger.Debug("sending tv command", "host", c.endpoint.Host, "payload", string(payload))
	if err := t.WriteMessage(payload); err != nil {
		return fmt.Errorf("%w: write: %w", ErrConnectionFailed, err)
	}
	return nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
