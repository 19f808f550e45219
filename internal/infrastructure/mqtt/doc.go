// Package mqtt provides MQTT client connectivity for the ckb daemon.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The daemon uses MQTT as its control surface: clients publish command
// lines to per-device topics and receive notification output on numbered
// per-device channels. The broker decouples clients from the USB layer.
//
//	Clients ↔ MQTT Broker ↔ ckb daemon ↔ USB devices
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
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to every device's command topic
//	err = client.Subscribe(mqtt.Topics{}.AllCommandLines(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish notification output
//	topic := mqtt.Topics{}.Notify("0F022014AA782", 0)
//	client.Publish(topic, []byte("mode 1 switch"), 1, false)
package mqtt
