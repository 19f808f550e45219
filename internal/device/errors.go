package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrFatal) {
//	    // disconnect the device
//	}
var (
	// ErrFatal marks an unrecoverable device fault: a USB reset failed,
	// or a firmware transfer failed mid-flight. The device must be
	// treated as disconnected and no further operations attempted.
	ErrFatal = errors.New("device: unrecoverable fault")

	// ErrProfileNotFound is returned when no stored profile exists for a
	// serial number.
	ErrProfileNotFound = errors.New("device: profile not found")

	// ErrInvalidProfile is returned when a stored profile fails to
	// decode.
	ErrInvalidProfile = errors.New("device: invalid stored profile")
)
