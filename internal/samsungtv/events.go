package samsungtv

// Event names sent by the TV.
const (
	EventChannelConnect      = "ms.channel.connect"
	EventChannelReady        = "ms.channel.ready"
	EventChannelUnauthorized = "ms.channel.unauthorized"
	EventClientConnect       = "ms.channel.clientConnect"
	EventClientDisconnect    = "ms.channel.clientDisconnect"
	EventError               = "ms.error"
	EventEdenTVUpdate        = "ed.edenTV.update"
	EventVoiceAppHide        = "ms.voiceApp.hide"
	EventAppsLaunch          = "ed.apps.launch"
	EventInstalledApps       = "ed.installedApp.get"
	EventD2DServiceMessage   = "d2d_service_message"

	// EventWildcard is substituted when a frame carries no event field.
	EventWildcard = "*"
)

// EventKind is the closed classification of inbound events.
type EventKind int

const (
	// EventUnknown is an event name this package has no rule for. It is
	// delivered to observers like any application event.
	EventUnknown EventKind = iota

	// EventControl covers connection lifecycle and startup noise. Control
	// events are logged by the receive loop and never reach observers.
	EventControl

	// EventApplication covers service messages, errors and app events.
	EventApplication

	// EventAny is the wildcard classification for frames without an event.
	EventAny
)

// String returns the kind name for logging.
func (k EventKind) String() string {
	switch k {
	case EventControl:
		return "control"
	case EventApplication:
		return "application"
	case EventAny:
		return "wildcard"
	case EventUnknown:
		return "unknown"
	}
	return "unknown"
}

// Delivered reports whether events of this kind are passed to observers.
func (k EventKind) Delivered() bool {
	switch k {
	case EventControl:
		return false
	case EventApplication, EventAny, EventUnknown:
		return true
	}
	return true
}

// Classify maps an event name to its kind.
func Classify(event string) EventKind {
	switch event {
	case EventChannelConnect, EventChannelReady, EventChannelUnauthorized,
		EventClientConnect, EventClientDisconnect,
		EventEdenTVUpdate, EventVoiceAppHide:
		return EventControl
	case EventError, EventAppsLaunch, EventInstalledApps, EventD2DServiceMessage:
		return EventApplication
	case EventWildcard:
		return EventAny
	default:
		return EventUnknown
	}
}

// ignoredAtStartup reports whether the handshake should skip this event
// while waiting for the definitive connect or unauthorized frame.
func ignoredAtStartup(event string) bool {
	return event == EventEdenTVUpdate || event == EventVoiceAppHide
}
