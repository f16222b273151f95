package frame

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-frameart/internal/samsungtv/art"
)

const testTV = "living-room"

func newTestBridge(t *testing.T) (*Bridge, *MockMQTTClient, *StubArtClient, *recordingMetrics) {
	t.Helper()
	mq := NewMockMQTTClient()
	tv := NewStubArtClient()
	metrics := &recordingMetrics{}

	b, err := NewBridge(Options{
		TVID:           testTV,
		Host:           "192.168.1.20",
		Version:        "test",
		Art:            tv,
		MQTT:           mq,
		Metrics:        metrics,
		PollInterval:   time.Hour,
		HealthInterval: time.Hour,
		CommandTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewBridge() error = %v", err)
	}
	t.Cleanup(b.Stop)
	return b, mq, tv, metrics
}

func startBridge(t *testing.T, b *Bridge, mq *MockMQTTClient) {
	t.Helper()
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// The loop polls once on start.
	waitFor(t, "initial state", func() bool { return len(mq.OnTopic(mqtt.StateTopic(testTV))) > 0 })
}

func sendCommand(t *testing.T, mq *MockMQTTClient, tvID string, cmd CommandMessage) error {
	t.Helper()
	payload, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("encoding command: %v", err)
	}
	return mq.SimulateMessage(mqtt.CommandSubscribeTopic(), mqtt.CommandTopic(tvID), payload)
}

func lastAck(t *testing.T, mq *MockMQTTClient) AckMessage {
	t.Helper()
	acks := mq.OnTopic(mqtt.AckTopic(testTV))
	if len(acks) == 0 {
		t.Fatal("no ack published")
	}
	p := acks[len(acks)-1]
	if p.Retained {
		t.Error("acks must not be retained")
	}
	var ack AckMessage
	if err := json.Unmarshal(p.Payload, &ack); err != nil {
		t.Fatalf("decoding ack: %v", err)
	}
	return ack
}

func TestNewBridge_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing tv id", Options{Art: NewStubArtClient(), MQTT: NewMockMQTTClient()}},
		{"missing art client", Options{TVID: testTV, MQTT: NewMockMQTTClient()}},
		{"missing mqtt client", Options{TVID: testTV, Art: NewStubArtClient()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBridge(tt.opts); err == nil {
				t.Error("NewBridge() should fail")
			}
		})
	}
}

func TestNewBridge_InitialStateUnavailable(t *testing.T) {
	b, _, _, _ := newTestBridge(t)

	st := b.State()
	if st.Available || st.PlayerState != PlayerUnavailable || st.ConnectionStatus != ConnectionDisconnected {
		t.Errorf("initial state = %+v", st)
	}
}

func TestRefresh_PublishesRetainedState(t *testing.T) {
	b, mq, tv, metrics := newTestBridge(t)

	st := b.Refresh(context.Background())

	if !st.Available || st.PlayerState != PlayerOn || st.ConnectionStatus != ConnectionConnected {
		t.Errorf("state = %+v", st)
	}
	if st.Brightness == nil || *st.Brightness != 50 || st.CurrentImage != "MY_F0001" || st.SlideshowStatus != "off" {
		t.Errorf("state values = %+v", st)
	}

	states := mq.OnTopic(mqtt.StateTopic(testTV))
	if len(states) != 1 {
		t.Fatalf("published %d states, want 1", len(states))
	}
	if !states[0].Retained || states[0].QoS != 1 {
		t.Errorf("state publish retained=%v qos=%d", states[0].Retained, states[0].QoS)
	}
	msg := decodeState(t, states[0])
	if msg.TVID != testTV || msg.Protocol != "frameart" || msg.State.PlayerState != PlayerOn {
		t.Errorf("state message = %+v", msg)
	}

	wantCalls := []string{"get_artmode_status", "get_brightness", "get_color_temperature", "get_slideshow_status", "get_current_artwork"}
	if got := tv.Calls(); !slices.Equal(got, wantCalls) {
		t.Errorf("calls = %v, want %v", got, wantCalls)
	}

	samples := metrics.Samples()
	if len(samples) != 1 || samples[0].TVID != testTV || !samples[0].Available || *samples[0].Brightness != 50 {
		t.Errorf("samples = %+v", samples)
	}
}

func TestRefresh_UnchangedStateNotRepublished(t *testing.T) {
	b, mq, tv, metrics := newTestBridge(t)

	b.Refresh(context.Background())
	b.Refresh(context.Background())

	if n := len(mq.OnTopic(mqtt.StateTopic(testTV))); n != 1 {
		t.Errorf("published %d states for identical polls, want 1", n)
	}
	if n := len(metrics.Samples()); n != 2 {
		t.Errorf("wrote %d samples, want one per poll", n)
	}

	tv.update(func(s *StubArtClient) { s.slideshow = &art.SlideshowStatus{Value: "3"} })
	st := b.Refresh(context.Background())
	if st.PlayerState != PlayerPlaying {
		t.Errorf("PlayerState = %v, want playing", st.PlayerState)
	}
	if n := len(mq.OnTopic(mqtt.StateTopic(testTV))); n != 2 {
		t.Errorf("published %d states after change, want 2", n)
	}
}

func TestRefresh_Unreachable(t *testing.T) {
	b, mq, tv, _ := newTestBridge(t)
	tv.update(func(s *StubArtClient) {
		s.alive = false
		s.startErr = art.ErrUnavailable
	})

	st := b.Refresh(context.Background())

	if st.Available || st.PlayerState != PlayerUnavailable || st.ArtMode != nil {
		t.Errorf("state = %+v", st)
	}
	if len(tv.Calls()) != 0 {
		t.Errorf("no reads expected when unreachable, got %v", tv.Calls())
	}
	if h := b.TVHealth(); h.Status != ConnectionDisconnected || h.LastSeen != nil {
		t.Errorf("TVHealth() = %+v", h)
	}
	if n := len(mq.OnTopic(mqtt.StateTopic(testTV))); n != 1 {
		t.Errorf("published %d states, want 1", n)
	}
}

func TestRefresh_ReconnectsDeadConnection(t *testing.T) {
	b, _, tv, _ := newTestBridge(t)
	tv.update(func(s *StubArtClient) { s.alive = false })

	st := b.Refresh(context.Background())

	if !st.Available {
		t.Errorf("state = %+v, want available after reconnect", st)
	}
	tv.mu.Lock()
	starts := tv.starts
	tv.mu.Unlock()
	if starts != 1 {
		t.Errorf("Start called %d times, want 1", starts)
	}
	if h := b.TVHealth(); h.Status != ConnectionConnected || h.LastSeen == nil || h.Host != "192.168.1.20" {
		t.Errorf("TVHealth() = %+v", h)
	}
}

func TestRefresh_CancelledKeepsState(t *testing.T) {
	b, _, _, _ := newTestBridge(t)
	before := b.Refresh(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	after := b.Refresh(ctx)

	if after.PlayerState != before.PlayerState || !after.Available {
		t.Errorf("cancelled refresh changed state: %+v", after)
	}
}

func TestRefresh_PublishFailureRetried(t *testing.T) {
	b, mq, _, _ := newTestBridge(t)

	mq.setPublishErr(errors.New("broker gone"))
	b.Refresh(context.Background())
	mq.setPublishErr(nil)
	b.Refresh(context.Background())

	if n := len(mq.OnTopic(mqtt.StateTopic(testTV))); n != 1 {
		t.Errorf("published %d states, want the unchanged state retried once", n)
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name       string
		cmd        CommandMessage
		setFails   bool
		wantStatus AckStatus
		wantCode   string
		check      func(t *testing.T, b *Bridge, tv *StubArtClient)
	}{
		{
			name:       "art mode off",
			cmd:        CommandMessage{ID: "c1", Command: CommandArtModeOff},
			wantStatus: AckAccepted,
			check: func(t *testing.T, b *Bridge, tv *StubArtClient) {
				if st := b.State(); st.ArtMode == nil || *st.ArtMode || st.PlayerState != PlayerOff {
					t.Errorf("state = %+v", st)
				}
			},
		},
		{
			name:       "art mode on",
			cmd:        CommandMessage{ID: "c2", Command: CommandArtModeOn},
			wantStatus: AckAccepted,
		},
		{
			name:       "set brightness",
			cmd:        CommandMessage{ID: "c3", Command: CommandSetBrightness, Parameters: map[string]any{"brightness": 74}},
			wantStatus: AckAccepted,
			check: func(t *testing.T, b *Bridge, tv *StubArtClient) {
				if st := b.State(); st.Brightness == nil || *st.Brightness != 70 {
					t.Errorf("brightness = %v, want 70", st.Brightness)
				}
			},
		},
		{
			name:       "set color temperature",
			cmd:        CommandMessage{ID: "c4", Command: CommandSetColorTemperature, Parameters: map[string]any{"color_temperature": -3}},
			wantStatus: AckAccepted,
			check: func(t *testing.T, b *Bridge, tv *StubArtClient) {
				if st := b.State(); st.ColorTemperature == nil || *st.ColorTemperature != -3 {
					t.Errorf("color temperature = %v, want -3", st.ColorTemperature)
				}
			},
		},
		{
			name:       "refresh",
			cmd:        CommandMessage{ID: "c5", Command: CommandRefresh},
			wantStatus: AckAccepted,
		},
		{
			name:       "brightness out of range",
			cmd:        CommandMessage{ID: "c6", Command: CommandSetBrightness, Parameters: map[string]any{"brightness": 150}},
			wantStatus: AckFailed,
			wantCode:   ErrCodeInvalidParameters,
		},
		{
			name:       "brightness missing",
			cmd:        CommandMessage{ID: "c7", Command: CommandSetBrightness},
			wantStatus: AckFailed,
			wantCode:   ErrCodeInvalidParameters,
		},
		{
			name:       "brightness not a number",
			cmd:        CommandMessage{ID: "c8", Command: CommandSetBrightness, Parameters: map[string]any{"brightness": "high"}},
			wantStatus: AckFailed,
			wantCode:   ErrCodeInvalidParameters,
		},
		{
			name:       "color temperature fractional",
			cmd:        CommandMessage{ID: "c9", Command: CommandSetColorTemperature, Parameters: map[string]any{"color_temperature": 1.5}},
			wantStatus: AckFailed,
			wantCode:   ErrCodeInvalidParameters,
		},
		{
			name:       "unknown command",
			cmd:        CommandMessage{ID: "c10", Command: "power_off"},
			wantStatus: AckFailed,
			wantCode:   ErrCodeInvalidCommand,
		},
		{
			name:       "tv unreachable",
			cmd:        CommandMessage{ID: "c11", Command: CommandArtModeOn},
			setFails:   true,
			wantStatus: AckFailed,
			wantCode:   ErrCodeTVUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, mq, tv, _ := newTestBridge(t)
			startBridge(t, b, mq)
			tv.update(func(s *StubArtClient) { s.setFails = tt.setFails })

			err := sendCommand(t, mq, testTV, tt.cmd)
			if (err != nil) != (tt.wantStatus == AckFailed) {
				t.Errorf("handler error = %v", err)
			}

			ack := lastAck(t, mq)
			if ack.CommandID != tt.cmd.ID || ack.Status != tt.wantStatus || ack.TVID != testTV {
				t.Errorf("ack = %+v", ack)
			}
			if tt.wantCode != "" && (ack.Error == nil || ack.Error.Code != tt.wantCode) {
				t.Errorf("ack error = %+v, want code %s", ack.Error, tt.wantCode)
			}
			if tt.check != nil {
				tt.check(t, b, tv)
			}
		})
	}
}

func TestCommand_StatePublishedAfterChange(t *testing.T) {
	b, mq, _, _ := newTestBridge(t)
	startBridge(t, b, mq)

	if err := sendCommand(t, mq, testTV, CommandMessage{ID: "c1", Command: CommandArtModeOff}); err != nil {
		t.Fatalf("command error = %v", err)
	}

	waitFor(t, "off state", func() bool {
		states := mq.OnTopic(mqtt.StateTopic(testTV))
		return decodeState(t, states[len(states)-1]).State.PlayerState == PlayerOff
	})
}

func TestCommand_OtherTVIgnored(t *testing.T) {
	b, mq, tv, _ := newTestBridge(t)
	startBridge(t, b, mq)
	before := len(tv.Calls())

	if err := sendCommand(t, mq, "bedroom", CommandMessage{ID: "c1", Command: CommandArtModeOff}); err != nil {
		t.Errorf("handler error = %v", err)
	}

	if n := len(mq.OnTopic(mqtt.AckTopic(testTV))) + len(mq.OnTopic(mqtt.AckTopic("bedroom"))); n != 0 {
		t.Errorf("published %d acks for another tv", n)
	}
	if len(tv.Calls()) != before {
		t.Error("command for another tv reached the art client")
	}
}

func TestCommand_MalformedPayload(t *testing.T) {
	b, mq, _, _ := newTestBridge(t)
	startBridge(t, b, mq)

	err := mq.SimulateMessage(mqtt.CommandSubscribeTopic(), mqtt.CommandTopic(testTV), []byte("{not json"))
	if err == nil {
		t.Error("handler should report malformed payload")
	}
	if ack := lastAck(t, mq); ack.Status != AckFailed || ack.Error.Code != ErrCodeInvalidCommand {
		t.Errorf("ack = %+v", ack)
	}
}

func TestArtModeChangedEvent(t *testing.T) {
	b, mq, tv, _ := newTestBridge(t)
	startBridge(t, b, mq)
	tv.update(func(s *StubArtClient) { s.slideshow = &art.SlideshowStatus{Value: "15"} })
	b.Refresh(context.Background())

	tv.Emit(art.Event{Name: art.SubEventArtModeChanged, Data: map[string]any{"status": "off"}})
	waitFor(t, "art mode off", func() bool { return b.State().PlayerState == PlayerOff })

	tv.Emit(art.Event{Name: art.SubEventArtModeChanged, Data: map[string]any{"status": "on"}})
	waitFor(t, "art mode on with slideshow", func() bool { return b.State().PlayerState == PlayerPlaying })

	waitFor(t, "republished playing state", func() bool {
		states := mq.OnTopic(mqtt.StateTopic(testTV))
		return decodeState(t, states[len(states)-1]).State.PlayerState == PlayerPlaying
	})
}

func TestImageSelectedEventTriggersRefresh(t *testing.T) {
	b, mq, tv, _ := newTestBridge(t)
	startBridge(t, b, mq)

	tv.update(func(s *StubArtClient) { s.artwork = &art.Artwork{ContentID: "MY_F0002"} })
	tv.Emit(art.Event{Name: art.SubEventImageSelected, Data: map[string]any{"content_id": "MY_F0002"}})

	waitFor(t, "new image", func() bool { return b.State().CurrentImage == "MY_F0002" })
}

func TestStartStop(t *testing.T) {
	b, mq, _, _ := newTestBridge(t)
	startBridge(t, b, mq)

	waitFor(t, "healthy", func() bool {
		for _, p := range mq.OnTopic(mqtt.HealthTopic()) {
			var msg HealthMessage
			if json.Unmarshal(p.Payload, &msg) == nil && msg.Status == HealthHealthy {
				return true
			}
		}
		return false
	})

	b.Stop()
	b.Stop()

	health := mq.OnTopic(mqtt.HealthTopic())
	var first, last HealthMessage
	if err := json.Unmarshal(health[0].Payload, &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(health[len(health)-1].Payload, &last); err != nil {
		t.Fatal(err)
	}
	if first.Status != HealthStarting {
		t.Errorf("first health = %v, want starting", first.Status)
	}
	if last.Status != HealthStopping {
		t.Errorf("last health = %v, want stopping", last.Status)
	}
	stopping := 0
	for _, p := range health {
		var msg HealthMessage
		if json.Unmarshal(p.Payload, &msg) == nil && msg.Status == HealthStopping {
			stopping++
		}
	}
	if stopping != 1 {
		t.Errorf("published stopping %d times, want 1", stopping)
	}
}

func TestStartContextCancelStopsLoop(t *testing.T) {
	b, mq, _, _ := newTestBridge(t)
	ctx, cancel := context.WithCancel(context.Background())
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "initial state", func() bool { return len(mq.OnTopic(mqtt.StateTopic(testTV))) > 0 })

	cancel()
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on context cancel")
	}
}
