package mqtt

import "fmt"

// Topic prefixes for the ckb MQTT surface.
//
// Device topics are keyed by serial number, which is stable across
// reattaches: ckb/{category}/{serial}[/...]
const (
	// TopicPrefix is the base for all ckb topics.
	TopicPrefix = "ckb"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "ckb/system"
)

// Topics provides builders for ckb MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.CommandLine("0F022014AA782")
//	// Returns: "ckb/cmd/0F022014AA782"
type Topics struct{}

// CommandLine returns the topic carrying command lines for one device.
// Payloads are newline-separated command lines.
//
// Example: ckb/cmd/0F022014AA782
func (Topics) CommandLine(serial string) string {
	return fmt.Sprintf("%s/cmd/%s", TopicPrefix, serial)
}

// Notify returns the topic for one of a device's notification channels.
//
// Example: ckb/notify/0F022014AA782/0
func (Topics) Notify(serial string, node int) string {
	return fmt.Sprintf("%s/notify/%s/%d", TopicPrefix, serial, node)
}

// DeviceStatus returns the attach/detach status topic for a device.
//
// Example: ckb/device/0F022014AA782/status
func (Topics) DeviceStatus(serial string) string {
	return fmt.Sprintf("%s/device/%s/status", TopicPrefix, serial)
}

// SystemStatus returns the daemon status topic.
//
// Example: ckb/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: ckb/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}

// AllCommandLines returns a pattern matching every device's command topic.
//
// Pattern: ckb/cmd/+
func (Topics) AllCommandLines() string {
	return fmt.Sprintf("%s/cmd/+", TopicPrefix)
}

// AllDeviceStatus returns a pattern matching every device status topic.
//
// Pattern: ckb/device/+/status
func (Topics) AllDeviceStatus() string {
	return fmt.Sprintf("%s/device/+/status", TopicPrefix)
}
