package command

import (
	"fmt"

	"github.com/john-yian/ckb-next/internal/device"
)

// tryWithReset invokes a fallible device operation, forcing a USB reset
// and retrying for as long as the operation keeps failing. The loop is
// unbounded: it ends when the operation succeeds or when a reset itself
// fails, which is escalated as an error wrapping device.ErrFatal. The
// caller must then abandon the line and treat the device as
// disconnected.
//
// Callers must not hold the device mutex (or any other lock) across this
// call; both the operation and the reset block on USB I/O.
func (e *Engine) tryWithReset(op func() error) error {
	for {
		opErr := op()
		if opErr == nil {
			return nil
		}
		if resetErr := e.dev.Transport.Reset(); resetErr != nil {
			return fmt.Errorf("%w: usb reset failed after %v: %w", device.ErrFatal, opErr, resetErr)
		}
	}
}
