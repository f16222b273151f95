// Package mqtt provides MQTT client connectivity for the frame art bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions, restored after reconnect
//   - Last Will and Testament (LWT) for offline detection
//   - The bridge topic layout (graylogic/{category}/frameart/{tv_id})
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, mqtt.WithWill(mqtt.Will{
//	    Topic:   mqtt.HealthTopic(),
//	    Payload: lwt,
//	    QoS:     1,
//	}))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(mqtt.StateTopic("living-room"), state, 1, true)
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS) outside the local network
//   - Anonymous access is only for local development
package mqtt
