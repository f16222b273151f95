package frame

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-frameart/internal/samsungtv/art"
)

// MockMQTTClient implements MQTTClient for testing.
type MockMQTTClient struct {
	mu         sync.Mutex
	published  []mockPublish
	handlers   map[string]mqtt.MessageHandler
	connected  bool
	publishErr error
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{
		connected: true,
		handlers:  make(map[string]mqtt.MessageHandler),
	}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, mockPublish{Topic: topic, Payload: payload, QoS: qos, Retained: retained})
	return nil
}

func (m *MockMQTTClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) setConnected(v bool) {
	m.mu.Lock()
	m.connected = v
	m.mu.Unlock()
}

func (m *MockMQTTClient) setPublishErr(err error) {
	m.mu.Lock()
	m.publishErr = err
	m.mu.Unlock()
}

// SimulateMessage delivers payload to the handler subscribed to pattern.
func (m *MockMQTTClient) SimulateMessage(pattern, topic string, payload []byte) error {
	m.mu.Lock()
	handler, ok := m.handlers[pattern]
	m.mu.Unlock()
	if !ok {
		return errors.New("no subscription for " + pattern)
	}
	return handler(topic, payload)
}

// OnTopic returns the payloads published to topic, oldest first.
func (m *MockMQTTClient) OnTopic(topic string) []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mockPublish
	for _, p := range m.published {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// StubArtClient implements ArtClient with canned values.
type StubArtClient struct {
	mu sync.Mutex

	alive    bool
	startErr error
	starts   int

	artMode    *bool
	brightness *int
	colorTemp  *int
	slideshow  *art.SlideshowStatus
	artwork    *art.Artwork
	setFails   bool

	handler art.EventHandler
	calls   []string
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func NewStubArtClient() *StubArtClient {
	return &StubArtClient{
		alive:      true,
		artMode:    boolPtr(true),
		brightness: intPtr(50),
		colorTemp:  intPtr(0),
		slideshow:  &art.SlideshowStatus{Value: "off"},
		artwork:    &art.Artwork{ContentID: "MY_F0001"},
	}
}

func (s *StubArtClient) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *StubArtClient) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *StubArtClient) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	if s.startErr != nil {
		return s.startErr
	}
	s.alive = true
	return nil
}

func (s *StubArtClient) IsAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

func (s *StubArtClient) SetEventHandler(h art.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Emit delivers an unsolicited art event to the registered handler.
func (s *StubArtClient) Emit(ev art.Event) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

func (s *StubArtClient) GetArtMode(context.Context) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("get_artmode_status")
	if s.artMode == nil {
		return false, false
	}
	return *s.artMode, true
}

func (s *StubArtClient) SetArtMode(_ context.Context, on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("set_artmode_status")
	if s.setFails {
		return false
	}
	s.artMode = &on
	return true
}

func (s *StubArtClient) GetBrightness(context.Context) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("get_brightness")
	if s.brightness == nil {
		return 0, false
	}
	return *s.brightness, true
}

func (s *StubArtClient) SetBrightness(_ context.Context, percent int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("set_brightness")
	if s.setFails {
		return false
	}
	v := (percent + 5) / 10 * 10
	s.brightness = &v
	return true
}

func (s *StubArtClient) GetColorTemperature(context.Context) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("get_color_temperature")
	if s.colorTemp == nil {
		return 0, false
	}
	return *s.colorTemp, true
}

func (s *StubArtClient) SetColorTemperature(_ context.Context, value int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("set_color_temperature")
	if s.setFails {
		return false
	}
	s.colorTemp = &value
	return true
}

func (s *StubArtClient) GetSlideshowStatus(context.Context) (art.SlideshowStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("get_slideshow_status")
	if s.slideshow == nil {
		return art.SlideshowStatus{}, false
	}
	return *s.slideshow, true
}

func (s *StubArtClient) GetCurrentArtwork(context.Context) (art.Artwork, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("get_current_artwork")
	if s.artwork == nil {
		return art.Artwork{}, false
	}
	return *s.artwork, true
}

func (s *StubArtClient) update(fn func(s *StubArtClient)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// recordingMetrics implements MetricsWriter.
type recordingMetrics struct {
	mu      sync.Mutex
	samples []influxdb.TVSample
}

func (r *recordingMetrics) WriteTVSample(s influxdb.TVSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

func (r *recordingMetrics) Samples() []influxdb.TVSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]influxdb.TVSample(nil), r.samples...)
}

// decodeState parses a published state message.
func decodeState(t *testing.T, p mockPublish) StateMessage {
	t.Helper()
	var msg StateMessage
	if err := json.Unmarshal(p.Payload, &msg); err != nil {
		t.Fatalf("decoding state message: %v", err)
	}
	return msg
}

// waitFor polls cond until it holds or a second has passed.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
