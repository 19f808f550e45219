// Package daemon manages device sessions for the ckb daemon.
//
// The Service owns every attached device. For each one it runs a single
// dispatch goroutine that consumes command lines in arrival order, so
// per-device command semantics stay strictly sequential while separate
// devices process in parallel.
//
// # Data Flow
//
//	MQTT ckb/cmd/{serial} -> per-device queue -> command.Engine.Execute
//
// Attach loads the stored profile (SQLite), creates the device's
// notification broker and engine, and publishes a retained status
// message on ckb/device/{serial}/status. Detach saves the profile,
// closes the transport, and publishes the detached status.
//
// An engine error wrapping device.ErrFatal means the device stopped
// responding and could not be recovered by a USB reset; the session
// detaches itself.
//
// # Telemetry
//
// When an InfluxDB client is supplied, the service records per-line
// dispatch latency and attach/detach events.
package daemon
