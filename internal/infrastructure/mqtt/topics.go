package mqtt

import (
	"fmt"
	"strings"
)

// Topic layout for the frame art bridge. It follows the flat bridge scheme
// graylogic/{category}/{protocol}/{tv_id} shared by every Gray Logic bridge.
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "graylogic"

	// Protocol is the protocol segment used by this bridge.
	Protocol = "frameart"
)

// StateTopic returns the retained TV state topic.
//
// Example: graylogic/state/frameart/living-room
func StateTopic(tvID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, Protocol, tvID)
}

// CommandTopic returns the topic commands for a TV arrive on.
//
// Example: graylogic/command/frameart/living-room
func CommandTopic(tvID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, Protocol, tvID)
}

// AckTopic returns the topic command acknowledgements are published on.
//
// Example: graylogic/ack/frameart/living-room
func AckTopic(tvID string) string {
	return fmt.Sprintf("%s/ack/%s/%s", TopicPrefix, Protocol, tvID)
}

// HealthTopic returns the bridge health topic, also used for the LWT.
//
// Example: graylogic/health/frameart
func HealthTopic() string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, Protocol)
}

// CommandSubscribeTopic matches commands for every TV.
//
// Pattern: graylogic/command/frameart/+
func CommandSubscribeTopic() string {
	return fmt.Sprintf("%s/command/%s/+", TopicPrefix, Protocol)
}

// ParseTopic splits a bridge topic into its category and TV id.
// It reports false for topics outside this bridge's namespace.
func ParseTopic(topic string) (category, tvID string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[2] != Protocol {
		return "", "", false
	}
	if parts[1] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[1], parts[3], true
}
