package daemon

import "errors"

// Domain errors for the daemon package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, daemon.ErrTooManyDevices) {
//	    // refuse the attach
//	}
var (
	// ErrAlreadyAttached is returned when attaching a serial number that
	// already has a session.
	ErrAlreadyAttached = errors.New("daemon: device already attached")

	// ErrNotAttached is returned when an operation names a serial number
	// with no session.
	ErrNotAttached = errors.New("daemon: device not attached")

	// ErrTooManyDevices is returned when the configured device limit is
	// reached.
	ErrTooManyDevices = errors.New("daemon: device limit reached")
)
