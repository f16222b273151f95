// Package samsungtv implements the client side of the Samsung Smart TV
// WebSocket remote-control API used by the Frame art-mode channel.
//
// The package is layered, leaves first:
//
//   - TokenStore persists the pairing token the TV issues on first connect
//   - Encode/Decode translate Commands and inbound frames
//   - Connection owns one WebSocket to one TV and runs the handshake
//   - StartListening runs the single background receive loop
//   - SendCommands serialises outbound commands with inter-command delays
//
// # Handshake
//
// The TV accepts connections on
//
//	ws://<host>:8001/api/v2/channels/<app>?name=<base64 name>&token=<token>
//	wss://<host>:8002/api/v2/channels/<app>?name=<base64 name>&token=<token>
//
// and answers with ms.channel.connect (carrying data.token on first pairing)
// or ms.channel.unauthorized when the user rejects the pairing prompt. Startup
// noise events are skipped before the definitive event. The art channel also
// sends ms.channel.ready once the art service is usable.
//
// # Thread Safety
//
// Connection methods are safe for concurrent use. At most one receive loop
// runs per Connection and it is the only reader of the transport once
// started. Observers are invoked from the receive loop one event at a time
// in arrival order.
//
// # Usage
//
//	conn := samsungtv.NewConnection(samsungtv.Endpoint{
//	    Host:    "192.168.1.50",
//	    Secure:  true,
//	    Name:    "FrameArt",
//	    AppName: samsungtv.ArtAppName,
//	}, samsungtv.NewFileTokenStore("./data", "192.168.1.50", logger))
//	defer conn.Close()
//
//	started, err := conn.StartListening(ctx, samsungtv.ObserverFunc(func(r samsungtv.Response) {
//	    logger.Info("tv event", "event", r.Event)
//	}))
package samsungtv
