package samsungtv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeTransport is an in-memory Transport. Frames queued with push are
// returned by ReadMessage; remoteClose ends the stream as if the TV hung up.
type fakeTransport struct {
	inbound chan []byte
	closed  chan struct{}

	closeOnce  sync.Once
	remoteOnce sync.Once

	mu         sync.Mutex
	deadline   time.Time
	writes     [][]byte
	writeTimes []time.Time
	writeErr   error
	closeCalls int
}

func newFakeTransport(frames ...[]byte) *fakeTransport {
	t := &fakeTransport{
		inbound: make(chan []byte, 64),
		closed:  make(chan struct{}),
	}
	for _, f := range frames {
		t.inbound <- f
	}
	return t
}

func (t *fakeTransport) push(frame []byte) {
	t.inbound <- frame
}

func (t *fakeTransport) remoteClose() {
	t.remoteOnce.Do(func() { close(t.inbound) })
}

func (t *fakeTransport) ReadMessage() ([]byte, error) {
	t.mu.Lock()
	deadline := t.deadline
	t.mu.Unlock()

	var timeout <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-t.closed:
		return nil, ErrTransportClosed
	default:
	}

	select {
	case data, ok := <-t.inbound:
		if !ok {
			t.Close() //nolint:errcheck // fake
			return nil, fmt.Errorf("%w: remote closed", ErrTransportClosed)
		}
		return data, nil
	case <-t.closed:
		return nil, ErrTransportClosed
	case <-timeout:
		return nil, fmt.Errorf("%w: read deadline", ErrTimeout)
	}
}

func (t *fakeTransport) WriteMessage(data []byte) error {
	if !t.IsOpen() {
		return ErrTransportClosed
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeErr != nil {
		return t.writeErr
	}
	t.writes = append(t.writes, append([]byte(nil), data...))
	t.writeTimes = append(t.writeTimes, time.Now())
	return nil
}

func (t *fakeTransport) SetReadDeadline(d time.Time) error {
	t.mu.Lock()
	t.deadline = d
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	t.closeCalls++
	t.mu.Unlock()
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

func (t *fakeTransport) IsOpen() bool {
	select {
	case <-t.closed:
		return false
	default:
		return true
	}
}

func (t *fakeTransport) written() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]byte(nil), t.writes...)
}

func (t *fakeTransport) times() []time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Time(nil), t.writeTimes...)
}

// fakeDialer hands out transports in order.
type fakeDialer struct {
	mu         sync.Mutex
	transports []*fakeTransport
	urls       []string
	err        error
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.err != nil {
		return nil, d.err
	}
	if len(d.transports) == 0 {
		return nil, errors.New("no transport available")
	}
	t := d.transports[0]
	d.transports = d.transports[1:]
	return t, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func frame(event string, data any) []byte {
	m := map[string]any{}
	if event != "" {
		m["event"] = event
	}
	if data != nil {
		m["data"] = data
	}
	b, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return b
}

func connectFrame(token string) []byte {
	if token == "" {
		return frame(EventChannelConnect, map[string]any{"clients": []any{}})
	}
	return frame(EventChannelConnect, map[string]any{"token": token})
}

// testLogger records messages so tests can assert on warnings.
type testLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *testLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, level+": "+msg)
}

func (l *testLogger) Debug(msg string, _ ...any) { l.record("debug", msg) }
func (l *testLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l *testLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l *testLogger) Error(msg string, _ ...any) { l.record("error", msg) }

func (l *testLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.msgs {
		if len(m) > len(level) && m[:len(level)+1] == level+":" {
			n++
		}
	}
	return n
}

func newTestConnection(d Dialer, store TokenStore, mutate func(*Endpoint)) *Connection {
	ep := Endpoint{
		Host:         "192.168.1.50",
		Secure:       true,
		Name:         "FrameArt",
		Timeout:      time.Second,
		CommandDelay: -1,
	}
	if mutate != nil {
		mutate(&ep)
	}
	return NewConnection(ep, store, WithDialer(d))
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
