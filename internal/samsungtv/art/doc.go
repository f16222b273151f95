// Package art is the request/response client for the Frame TV art
// channel (com.samsung.art-app).
//
// Requests are ms.channel.emit commands carrying an art_app_request whose
// data is a JSON string with the request name and a request id. The TV
// answers with a d2d_service_message whose data echoes the id. The Client
// correlates the two through the connection's receive loop.
//
// Every getter returns (value, ok). ok is false when the TV is unreachable,
// the request failed or no answer arrived in time; failures are logged and
// never returned to the caller.
package art
