// Package api implements the HTTP REST API and WebSocket stream for the
// Frame art bridge.
//
// This package provides:
//   - REST endpoints to read the TV state and change art mode, brightness
//     and colour temperature
//   - WebSocket hub that pushes state changes to subscribed clients
//   - Optional HS256 bearer token checks on mutating routes
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The server sits beside the MQTT bridge. Requests go straight to the
// Controller (the bridge) rather than over the bus, and state changes
// published by the bridge are relayed from MQTT to WebSocket clients.
//
// # Graceful Degradation
//
// The server operates without MQTT. REST endpoints keep working and the
// WebSocket stream simply carries no events.
package api
