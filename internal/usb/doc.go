// Package usb provides raw HID connectivity for attached peripherals.
//
// It wraps the go-hid library (hidapi bindings) with the daemon's
// transport semantics: serial-keyed enumeration, serialised report I/O,
// and a close/reopen reset cycle used as the recovery step when a
// device stops responding.
//
// # Usage
//
//	if err := usb.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	defer usb.Exit()
//
//	devices, err := usb.Enumerate(0x1b1c)
//	for _, info := range devices {
//	    transport, err := usb.Open(info)
//	    // hand transport to the device layer
//	}
//
// # Reset Semantics
//
// Reset closes and reopens the device handle. If the reopen fails the
// transport is marked closed and the error must be treated as a
// disconnect; there is no further recovery.
//
// # Thread Safety
//
// Transport methods are safe for concurrent use. Init and Exit are not;
// call them once from the daemon's main goroutine.
package usb
