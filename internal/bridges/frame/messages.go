package frame

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/mqtt"
)

// Command names accepted on the command topic.
const (
	CommandArtModeOn           = "art_mode_on"
	CommandArtModeOff          = "art_mode_off"
	CommandSetBrightness       = "set_brightness"
	CommandSetColorTemperature = "set_color_temperature"
	CommandRefresh             = "refresh"
)

// CommandMessage is sent from Core to the bridge.
// Topic: graylogic/command/frameart/{tv_id}
type CommandMessage struct {
	// ID correlates the command with its acknowledgement.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`

	// Command is one of the Command* names.
	Command string `json:"command"`

	// Parameters holds command values, e.g. {"brightness": 50}.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Source indicates where the command originated ("api", "automation", ...).
	Source string `json:"source,omitempty"`
}

// intParam reads an integral number parameter.
func (m CommandMessage) intParam(key string) (int, error) {
	raw, ok := m.Parameters[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidParameters, key)
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidParameters, key)
		}
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrInvalidParameters, key, err)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidParameters, key)
	}
}

// AckStatus represents the acknowledgment status of a command.
type AckStatus string

const (
	// AckAccepted indicates the command was sent to the TV.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command could not be executed.
	AckFailed AckStatus = "failed"
)

// AckMessage acknowledges a command.
// Topic: graylogic/ack/frameart/{tv_id}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	TVID      string    `json:"tv_id"`
	Command   string    `json:"command"`
	Status    AckStatus `json:"status"`
	Protocol  string    `json:"protocol"`
	Error     *AckError `json:"error,omitempty"`
}

// AckError contains error details for failed commands.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for command failures.
const (
	ErrCodeTVUnreachable     = "TV_UNREACHABLE"
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodeBridgeError       = "BRIDGE_ERROR"
)

// NewAckMessage builds an acknowledgement for cmd.
func NewAckMessage(tvID string, cmd CommandMessage, status AckStatus) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		TVID:      tvID,
		Command:   cmd.Command,
		Status:    status,
		Protocol:  mqtt.Protocol,
	}
}

// NewAckError builds a failed acknowledgement.
func NewAckError(tvID string, cmd CommandMessage, code, message string) AckMessage {
	ack := NewAckMessage(tvID, cmd, AckFailed)
	ack.Error = &AckError{Code: code, Message: message}
	return ack
}

// StateMessage carries the TV state.
// Topic: graylogic/state/frameart/{tv_id}
// QoS: 1, Retained: Yes
type StateMessage struct {
	TVID      string    `json:"tv_id"`
	Timestamp time.Time `json:"timestamp"`
	State     TVState   `json:"state"`
	Protocol  string    `json:"protocol"`
}

// NewStateMessage wraps st for publishing.
func NewStateMessage(tvID string, st TVState) StateMessage {
	return StateMessage{
		TVID:      tvID,
		Timestamp: time.Now().UTC(),
		State:     st,
		Protocol:  mqtt.Protocol,
	}
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"

	// HealthOffline is only ever published by the broker, from the LWT.
	HealthOffline HealthStatus = "offline"

	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports bridge status.
// Topic: graylogic/health/frameart
// QoS: 1, Retained: Yes
type HealthMessage struct {
	Bridge        string       `json:"bridge"`
	Timestamp     time.Time    `json:"timestamp"`
	Status        HealthStatus `json:"status"`
	Version       string       `json:"version,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	TV            *TVHealth    `json:"tv,omitempty"`
	Reason        string       `json:"reason,omitempty"`
}

// TVHealth describes the TV connection in a health message.
type TVHealth struct {
	ID       string     `json:"id"`
	Host     string     `json:"host"`
	Status   string     `json:"status"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// NewLWTMessage returns the message the broker publishes if the bridge
// disconnects without a clean shutdown.
func NewLWTMessage(bridgeID string) HealthMessage {
	return HealthMessage{
		Bridge:    bridgeID,
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Reason:    "unexpected_disconnect",
	}
}

// LWT returns the Last Will for bridgeID, ready for mqtt.WithWill.
func LWT(bridgeID string) (mqtt.Will, error) {
	payload, err := json.Marshal(NewLWTMessage(bridgeID))
	if err != nil {
		return mqtt.Will{}, fmt.Errorf("encoding lwt: %w", err)
	}
	return mqtt.Will{Topic: mqtt.HealthTopic(), Payload: payload, QoS: 1}, nil
}
