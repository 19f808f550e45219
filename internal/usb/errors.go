package usb

import "errors"

// Domain errors for the usb package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, usb.ErrResetFailed) {
//	    // treat the device as disconnected
//	}
var (
	// ErrEnumerateFailed is returned when the HID library could not list
	// devices.
	ErrEnumerateFailed = errors.New("usb: enumeration failed")

	// ErrOpenFailed is returned when a device interface could not be
	// opened.
	ErrOpenFailed = errors.New("usb: open failed")

	// ErrIOFailed is returned when a report transfer failed.
	ErrIOFailed = errors.New("usb: i/o failed")

	// ErrResetFailed is returned when the close/reopen recovery cycle
	// could not restore the connection.
	ErrResetFailed = errors.New("usb: reset failed")

	// ErrClosed is returned for any operation on a closed transport.
	ErrClosed = errors.New("usb: transport closed")
)
