package notify

import "errors"

// Domain errors for the notify package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, notify.ErrInvalidNode) {
//	    // reject the channel number
//	}
var (
	// ErrInvalidNode is returned when a channel number is outside the
	// valid range [0, device.MaxNotifyNodes).
	ErrInvalidNode = errors.New("notify: invalid channel number")

	// ErrNodeZero is returned when attempting to close channel 0, which
	// stays open for the device's lifetime.
	ErrNodeZero = errors.New("notify: channel 0 cannot be closed")

	// ErrPublishFailed is returned when a notification could not be
	// delivered to the broker.
	ErrPublishFailed = errors.New("notify: publish failed")
)
