// Package mqtt provides MQTT client connectivity for doorcore.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// doorcore uses MQTT as its integration surface for home-automation
// systems. The controller publishes the door's status and accepts
// commands over the broker, so any MQTT-capable system can drive the
// door without knowing about the controller's internals.
//
//	doorcore ↔ MQTT Broker ↔ Home Automation / Dashboards
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to incoming door commands
//	err = client.Subscribe(mqtt.Topics{}.DoorCommand(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish the current status (retained for late subscribers)
//	client.Publish(mqtt.Topics{}.DoorStatus(), []byte("open"), 1, true)
package mqtt
