// Package frame bridges a Samsung Frame TV's art mode onto the Gray Logic
// MQTT bus.
//
// # Architecture
//
//	┌─────────────────┐          ┌─────────────────┐  WebSocket
//	│   Gray Logic    │   MQTT   │  Frame Bridge   │◄──────────► Frame TV
//	│      Core       │◄────────►│   (this pkg)    │  art channel
//	└─────────────────┘          └─────────────────┘
//
// # Key Responsibilities
//
//   - Poll the TV and publish retained state on graylogic/state/frameart/{tv}
//   - Execute commands from graylogic/command/frameart/{tv} and acknowledge
//     them on graylogic/ack/frameart/{tv}
//   - Republish immediately when the TV reports art_mode_changed
//   - Report bridge health on graylogic/health/frameart
//   - Optionally record each poll as telemetry
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
package frame
