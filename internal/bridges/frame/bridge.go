package frame

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-frameart/internal/samsungtv/art"
)

const (
	defaultPollInterval   = 30 * time.Second
	defaultCommandTimeout = 10 * time.Second

	brightnessStep = 10
)

// ArtClient is the art-mode surface the bridge drives. *art.Client
// satisfies it.
type ArtClient interface {
	Start(ctx context.Context) error
	IsAlive() bool
	SetEventHandler(h art.EventHandler)
	GetArtMode(ctx context.Context) (bool, bool)
	SetArtMode(ctx context.Context, on bool) bool
	GetBrightness(ctx context.Context) (int, bool)
	SetBrightness(ctx context.Context, percent int) bool
	GetColorTemperature(ctx context.Context) (int, bool)
	SetColorTemperature(ctx context.Context, value int) bool
	GetSlideshowStatus(ctx context.Context) (art.SlideshowStatus, bool)
	GetCurrentArtwork(ctx context.Context) (art.Artwork, bool)
}

var _ ArtClient = (*art.Client)(nil)

// MQTTClient is the interface for MQTT operations. *mqtt.Client satisfies it.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

var _ MQTTClient = (*mqtt.Client)(nil)

// MetricsWriter records each poll. *influxdb.Client satisfies it.
type MetricsWriter interface {
	WriteTVSample(s influxdb.TVSample)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// TVID names the TV in topics. Required.
	TVID string

	// Host is reported in health messages.
	Host string

	// BridgeID identifies the bridge in health messages. Defaults to "frameart".
	BridgeID string

	Version string

	Art  ArtClient
	MQTT MQTTClient

	// Metrics is optional.
	Metrics MetricsWriter

	PollInterval   time.Duration
	HealthInterval time.Duration

	// CommandTimeout bounds each MQTT command. Default: 10 seconds.
	CommandTimeout time.Duration

	Logger Logger
}

// Bridge polls one Frame TV and mirrors its art-mode state onto MQTT.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	tvID           string
	host           string
	art            ArtClient
	mqtt           MQTTClient
	metrics        MetricsWriter
	health         *HealthReporter
	pollInterval   time.Duration
	commandTimeout time.Duration
	logger         Logger

	// pollMu serialises polls from the loop and from callers of Refresh.
	pollMu sync.Mutex

	stateMu  sync.RWMutex
	state    TVState
	lastSeen time.Time

	// publishMu orders state publishes; lastPublished holds the state JSON
	// last accepted by the broker.
	publishMu     sync.Mutex
	lastPublished []byte

	refreshCh chan struct{}
	changedCh chan struct{}

	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc
}

// NewBridge creates a new bridge instance. Call Start to begin operation.
func NewBridge(opts Options) (*Bridge, error) {
	if opts.TVID == "" {
		return nil, fmt.Errorf("tv id is required")
	}
	if opts.Art == nil {
		return nil, fmt.Errorf("art client is required")
	}
	if opts.MQTT == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	commandTimeout := opts.CommandTimeout
	if commandTimeout <= 0 {
		commandTimeout = defaultCommandTimeout
	}
	bridgeID := opts.BridgeID
	if bridgeID == "" {
		bridgeID = mqtt.Protocol
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bridge{
		tvID:           opts.TVID,
		host:           opts.Host,
		art:            opts.Art,
		mqtt:           opts.MQTT,
		metrics:        opts.Metrics,
		pollInterval:   pollInterval,
		commandTimeout: commandTimeout,
		logger:         orNop(opts.Logger),
		state:          BuildState(Snapshot{}),
		refreshCh:      make(chan struct{}, 1),
		changedCh:      make(chan struct{}, 1),
		ctx:            ctx,
		ctxCancel:      cancel,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:  bridgeID,
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTT,
		TV:        b,
		Logger:    opts.Logger,
	})

	return b, nil
}

// Start subscribes to commands, registers for art events and starts the
// poll loop and health reporting. The loop ends when ctx is cancelled or
// Stop is called.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logger.Warn("failed to publish starting status", "error", err)
	}

	b.art.SetEventHandler(b.handleArtEvent)

	topic := mqtt.CommandSubscribeTopic()
	if err := b.mqtt.Subscribe(topic, 1, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logger.Info("subscribed to commands", "topic", topic)

	context.AfterFunc(ctx, b.ctxCancel)

	b.health.Start(b.ctx)

	b.wg.Add(1)
	go b.run()

	b.logger.Info("bridge started", "tv_id", b.tvID, "poll_interval", b.pollInterval)
	return nil
}

// Stop gracefully shuts down the bridge. Safe to call multiple times.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.ctxCancel()
		b.wg.Wait()

		// Publishes "stopping".
		b.health.Stop()

		b.logger.Info("bridge stopped")
	})
}

// State returns the last known TV state.
func (b *Bridge) State() TVState {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.state
}

// Health returns the bridge health status and its reason.
func (b *Bridge) Health() (HealthStatus, string) {
	return b.health.Status()
}

// TVHealth implements TVMonitor.
func (b *Bridge) TVHealth() TVHealth {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()

	h := TVHealth{ID: b.tvID, Host: b.host, Status: b.state.ConnectionStatus}
	if !b.lastSeen.IsZero() {
		seen := b.lastSeen
		h.LastSeen = &seen
	}
	return h
}

func (b *Bridge) run() {
	defer b.wg.Done()

	b.Refresh(b.ctx)
	if err := b.health.PublishNow(); err != nil {
		b.logger.Warn("failed to publish health", "error", err)
	}

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.Refresh(b.ctx)
		case <-b.refreshCh:
			b.Refresh(b.ctx)
		case <-b.changedCh:
			b.publishState()
		}
	}
}

// Refresh polls the TV now, publishes the result if it changed and
// returns it.
func (b *Bridge) Refresh(ctx context.Context) TVState {
	b.pollMu.Lock()
	defer b.pollMu.Unlock()

	snap := b.poll(ctx)
	if ctx.Err() != nil {
		// A cancelled poll leaves the state unchanged.
		return b.State()
	}
	st := BuildState(snap)

	b.stateMu.Lock()
	b.state = st
	if st.Available {
		b.lastSeen = time.Now().UTC()
	}
	b.stateMu.Unlock()

	b.publishState()
	b.writeMetrics(st)
	return st
}

// poll reads everything the state is built from. A TV that cannot be
// reached is reconnected once, the way a fresh session would be.
func (b *Bridge) poll(ctx context.Context) Snapshot {
	if ctx.Err() != nil {
		return Snapshot{}
	}
	if !b.art.IsAlive() {
		if err := b.art.Start(ctx); err != nil {
			b.logger.Debug("tv unreachable", "tv_id", b.tvID, "error", err)
			return Snapshot{}
		}
		b.logger.Info("tv connected", "tv_id", b.tvID)
	}

	s := Snapshot{Alive: true}
	if v, ok := b.art.GetArtMode(ctx); ok {
		s.ArtMode = &v
	}
	if v, ok := b.art.GetBrightness(ctx); ok {
		s.Brightness = &v
	}
	if v, ok := b.art.GetColorTemperature(ctx); ok {
		s.ColorTemperature = &v
	}
	if v, ok := b.art.GetSlideshowStatus(ctx); ok {
		s.Slideshow = &v
	}
	if v, ok := b.art.GetCurrentArtwork(ctx); ok {
		s.Artwork = &v
	}

	// The connection may have dropped during the reads.
	if !b.art.IsAlive() {
		return Snapshot{}
	}
	return s
}

// publishState publishes the cached state, retained, unless the broker
// already holds an identical one.
func (b *Bridge) publishState() {
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	st := b.State()
	stateJSON, err := json.Marshal(st)
	if err != nil {
		b.logger.Error("failed to encode state", "error", err)
		return
	}
	if bytes.Equal(stateJSON, b.lastPublished) {
		return
	}

	payload, err := json.Marshal(NewStateMessage(b.tvID, st))
	if err != nil {
		b.logger.Error("failed to encode state message", "error", err)
		return
	}
	if err := b.mqtt.Publish(mqtt.StateTopic(b.tvID), payload, 1, true); err != nil {
		b.logger.Warn("failed to publish state", "tv_id", b.tvID, "error", err)
		return
	}
	b.lastPublished = stateJSON
	b.logger.Debug("state published", "tv_id", b.tvID, "player_state", st.PlayerState)
}

func (b *Bridge) writeMetrics(st TVState) {
	if b.metrics == nil {
		return
	}
	b.metrics.WriteTVSample(influxdb.TVSample{
		TVID:             b.tvID,
		Available:        st.Available,
		ArtMode:          st.ArtMode,
		Brightness:       st.Brightness,
		ColorTemperature: st.ColorTemperature,
	})
}

// updateState applies fn to the cached state and schedules a publish.
func (b *Bridge) updateState(fn func(TVState) TVState) {
	b.stateMu.Lock()
	b.state = fn(b.state)
	b.stateMu.Unlock()
	signal(b.changedCh)
}

func (b *Bridge) requestRefresh() {
	signal(b.refreshCh)
}

// signal does a non-blocking send on a one-slot channel.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// handleArtEvent runs on the TV receive loop. It must not issue art
// requests, whose responses arrive on that same loop.
func (b *Bridge) handleArtEvent(ev art.Event) {
	switch ev.Name {
	case art.SubEventArtModeChanged:
		status, _ := ev.Data["status"].(string)
		if status != "on" && status != "off" {
			b.logger.Warn("art_mode_changed without status", "data", ev.Data)
			b.requestRefresh()
			return
		}
		b.logger.Info("art mode changed", "tv_id", b.tvID, "status", status)
		b.updateState(func(st TVState) TVState { return st.withArtMode(status == "on") })
	case art.SubEventImageSelected:
		b.requestRefresh()
	default:
		b.logger.Debug("ignoring art event", "event", ev.Name)
	}
}

// SetArtMode turns art mode on or off.
func (b *Bridge) SetArtMode(ctx context.Context, on bool) error {
	if !b.art.SetArtMode(ctx, on) {
		return fmt.Errorf("%w: set art mode", ErrTVUnavailable)
	}
	b.updateState(func(st TVState) TVState { return st.withArtMode(on) })
	b.requestRefresh()
	return nil
}

// SetBrightness sets brightness in percent, 0..100. The TV stores it in
// steps of ten.
func (b *Bridge) SetBrightness(ctx context.Context, percent int) error {
	if percent < art.MinBrightness || percent > art.MaxBrightness {
		return fmt.Errorf("%w: brightness %d outside %d..%d",
			ErrInvalidParameters, percent, art.MinBrightness, art.MaxBrightness)
	}
	if !b.art.SetBrightness(ctx, percent) {
		return fmt.Errorf("%w: set brightness", ErrTVUnavailable)
	}
	stored := (percent + brightnessStep/2) / brightnessStep * brightnessStep
	b.updateState(func(st TVState) TVState {
		st.Brightness = &stored
		return st
	})
	b.requestRefresh()
	return nil
}

// SetColorTemperature sets the colour temperature offset, -5..5.
func (b *Bridge) SetColorTemperature(ctx context.Context, value int) error {
	if value < art.MinColorTemperature || value > art.MaxColorTemperature {
		return fmt.Errorf("%w: color temperature %d outside %d..%d",
			ErrInvalidParameters, value, art.MinColorTemperature, art.MaxColorTemperature)
	}
	if !b.art.SetColorTemperature(ctx, value) {
		return fmt.Errorf("%w: set color temperature", ErrTVUnavailable)
	}
	b.updateState(func(st TVState) TVState {
		st.ColorTemperature = &value
		return st
	})
	b.requestRefresh()
	return nil
}

// handleMQTTMessage routes commands for this bridge's TV.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) error {
	category, tvID, ok := mqtt.ParseTopic(topic)
	if !ok || category != "command" {
		return fmt.Errorf("unexpected topic %s", topic)
	}
	if tvID != b.tvID {
		b.logger.Debug("ignoring command for other tv", "tv_id", tvID)
		return nil
	}

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.publishAck(NewAckError(b.tvID, CommandMessage{}, ErrCodeInvalidCommand, "malformed command payload"))
		return fmt.Errorf("parsing command: %w", err)
	}

	b.logger.Info("received command", "command_id", cmd.ID, "command", cmd.Command, "source", cmd.Source)

	ctx, cancel := context.WithTimeout(b.ctx, b.commandTimeout)
	defer cancel()

	if err := b.executeCommand(ctx, cmd); err != nil {
		b.publishAck(NewAckError(b.tvID, cmd, errorCode(err), err.Error()))
		return err
	}
	b.publishAck(NewAckMessage(b.tvID, cmd, AckAccepted))
	return nil
}

func (b *Bridge) executeCommand(ctx context.Context, cmd CommandMessage) error {
	switch cmd.Command {
	case CommandArtModeOn:
		return b.SetArtMode(ctx, true)
	case CommandArtModeOff:
		return b.SetArtMode(ctx, false)
	case CommandSetBrightness:
		v, err := cmd.intParam("brightness")
		if err != nil {
			return err
		}
		return b.SetBrightness(ctx, v)
	case CommandSetColorTemperature:
		v, err := cmd.intParam("color_temperature")
		if err != nil {
			return err
		}
		return b.SetColorTemperature(ctx, v)
	case CommandRefresh:
		b.requestRefresh()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Command)
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return ErrCodeInvalidCommand
	case errors.Is(err, ErrInvalidParameters):
		return ErrCodeInvalidParameters
	case errors.Is(err, ErrTVUnavailable):
		return ErrCodeTVUnreachable
	default:
		return ErrCodeBridgeError
	}
}

func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logger.Error("failed to encode ack", "error", err)
		return
	}
	if err := b.mqtt.Publish(mqtt.AckTopic(b.tvID), payload, 1, false); err != nil {
		b.logger.Warn("failed to publish ack", "command_id", ack.CommandID, "error", err)
	}
}
