// Package notify delivers device event notifications to clients.
//
// Each device owns up to device.MaxNotifyNodes numbered notification
// channels. Clients open and close channels with the notifyon/notifyoff
// commands and subscribe to the matching MQTT topic to receive events
// (key presses, mode switches, setting changes).
//
// # Channel Semantics
//
//   - Channel 0 is open from device attach and can never be closed.
//   - Channels 1-9 are opened on demand and closed when no longer
//     needed.
//   - Events sent to a closed channel are discarded silently.
//
// # Topic Layout
//
// One topic per channel:
//
//	ckb/notify/{serial}/{n}
//
// # Usage
//
//	broker := notify.NewBroker(dev.Serial, mqttClient, 0)
//	broker.Open(1)
//	broker.Send(1, "mode 2 switch")
//
// # Thread Safety
//
// All Broker methods are safe for concurrent use from multiple
// goroutines.
package notify
