package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteCommandLatency records how long one command line took to process.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - serial: Device serial number
//   - tokens: Number of whitespace-separated tokens in the line
//   - elapsed: Wall-clock processing time for the line
//
// Example:
//
//	client.WriteCommandLatency("0F022014AA782", 12, 3*time.Millisecond)
func (c *Client) WriteCommandLatency(serial string, tokens int, elapsed time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"command_stream",
		map[string]string{
			"serial": serial,
		},
		map[string]interface{}{
			"tokens":     tokens,
			"elapsed_us": float64(elapsed.Microseconds()),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteFrameInterval records the spacing between consecutive rate-limited
// lighting frames, for observing effective frame rate per device.
//
// Parameters:
//   - serial: Device serial number
//   - interval: Time since the previous lighting frame
func (c *Client) WriteFrameInterval(serial string, interval time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"frame_interval",
		map[string]string{
			"serial": serial,
		},
		map[string]interface{}{
			"interval_us": float64(interval.Microseconds()),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDeviceEvent records an attach or detach event for a device.
//
// Parameters:
//   - serial: Device serial number
//   - event: "attach" or "detach"
func (c *Client) WriteDeviceEvent(serial string, event string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_events",
		map[string]string{
			"serial": serial,
			"event":  event,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "ckb-01"},
//	    map[string]interface{}{"devices": 3, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
