package notify

import (
	"fmt"
	"sync"

	"github.com/john-yian/ckb-next/internal/device"
	"github.com/john-yian/ckb-next/internal/infrastructure/mqtt"
)

// Publisher is the narrow MQTT surface the broker needs. Satisfied by
// *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger is the narrow logging interface the broker needs. Compatible
// with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Broker manages one device's numbered notification channels and
// delivers event lines to subscribers over MQTT.
//
// Channel 0 is open from creation and can never be closed; channels
// 1 through device.MaxNotifyNodes-1 are opened and closed on demand by
// the notifyon/notifyoff commands. Events sent to a closed channel are
// silently discarded, matching the semantics of writing to a fifo with
// no reader.
//
// Topic layout (one topic per channel):
//
//	ckb/notify/{serial}/{n}
//
// Thread Safety:
//   - All methods are safe for concurrent use. The command stream
//     opens and closes channels while the input path sends events.
type Broker struct {
	serial string
	pub    Publisher
	qos    byte

	mu   sync.Mutex
	open [device.MaxNotifyNodes]bool

	log Logger
}

// NewBroker creates a notification broker for one device. Channel 0
// starts open.
//
// Parameters:
//   - serial: Device serial number, used in topic names
//   - pub: The MQTT publisher; may not be nil
//   - qos: QoS level for notification publishes (0 recommended)
func NewBroker(serial string, pub Publisher, qos byte) *Broker {
	b := &Broker{
		serial: serial,
		pub:    pub,
		qos:    qos,
	}
	b.open[0] = true
	return b
}

// SetLogger sets an optional logger for delivery diagnostics. If not
// set, the broker stays silent.
func (b *Broker) SetLogger(log Logger) {
	b.log = log
}

// Open marks a notification channel open. Opening an already-open
// channel is a no-op.
//
// Returns:
//   - error: ErrInvalidNode if node is out of range
func (b *Broker) Open(node int) error {
	if node < 0 || node >= device.MaxNotifyNodes {
		return fmt.Errorf("%w: %d", ErrInvalidNode, node)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open[node] {
		b.open[node] = true
		if b.log != nil {
			b.log.Debug("notification channel opened", "serial", b.serial, "node", node)
		}
	}
	return nil
}

// Close marks a notification channel closed. Closing an already-closed
// channel is a no-op.
//
// Returns:
//   - error: ErrNodeZero for channel 0, ErrInvalidNode if out of range
func (b *Broker) Close(node int) error {
	if node == 0 {
		return ErrNodeZero
	}
	if node < 0 || node >= device.MaxNotifyNodes {
		return fmt.Errorf("%w: %d", ErrInvalidNode, node)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open[node] {
		b.open[node] = false
		if b.log != nil {
			b.log.Debug("notification channel closed", "serial", b.serial, "node", node)
		}
	}
	return nil
}

// IsOpen reports whether a channel is currently open. Out-of-range
// channels report false.
func (b *Broker) IsOpen(node int) bool {
	if node < 0 || node >= device.MaxNotifyNodes {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open[node]
}

// Send delivers one event line to a single channel. Events to closed or
// out-of-range channels are discarded without error; a broker delivery
// failure is reported but leaves the channel open.
//
// Parameters:
//   - node: Target channel number
//   - event: The event line, without trailing newline
//
// Example:
//
//	broker.Send(0, "key +w")
func (b *Broker) Send(node int, event string) error {
	if !b.IsOpen(node) {
		return nil
	}

	topic := mqtt.Topics{}.Notify(b.serial, node)
	if err := b.pub.Publish(topic, []byte(event), b.qos, false); err != nil {
		if b.log != nil {
			b.log.Warn("notification delivery failed",
				"serial", b.serial,
				"node", node,
				"error", err,
			)
		}
		return fmt.Errorf("%w: node %d: %w", ErrPublishFailed, node, err)
	}
	return nil
}

// Broadcast delivers one event line to every open channel. Delivery
// failures on individual channels do not stop the remaining channels;
// the first failure is returned.
func (b *Broker) Broadcast(event string) error {
	b.mu.Lock()
	var targets []int
	for node, isOpen := range b.open {
		if isOpen {
			targets = append(targets, node)
		}
	}
	b.mu.Unlock()

	var firstErr error
	for _, node := range targets {
		if err := b.Send(node, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenNodes returns the currently open channel numbers in ascending
// order. Intended for status reporting.
func (b *Broker) OpenNodes() []int {
	b.mu.Lock()
	defer b.mu.Unlock()

	var nodes []int
	for node, isOpen := range b.open {
		if isOpen {
			nodes = append(nodes, node)
		}
	}
	return nodes
}
