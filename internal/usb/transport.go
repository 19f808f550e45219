package usb

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sstallion/go-hid"
)

// handle is the subset of *hid.Device the transport uses. Swappable for
// tests.
type handle interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	SendFeatureReport(b []byte) (int, error)
	GetFeatureReport(b []byte) (int, error)
	Close() error
}

// openPath opens a HID device by platform path. Swappable for tests.
var openPath = func(path string) (handle, error) {
	return hid.OpenPath(path)
}

// Init initialises the HID library. Call once at daemon startup before
// any enumeration or open.
func Init() error {
	return hid.Init()
}

// Exit releases the HID library. Call once at daemon shutdown after all
// transports are closed.
func Exit() error {
	return hid.Exit()
}

// DeviceInfo describes one enumerated HID interface.
type DeviceInfo struct {
	// Path is the platform device path used to open the interface.
	Path string

	// VendorID and ProductID identify the model.
	VendorID  uint16
	ProductID uint16

	// Serial is the device serial number, upper-cased. Empty when the
	// interface doesn't report one.
	Serial string

	// Product is the human-readable product string.
	Product string

	// UsagePage and Usage identify the interface's HID usage. The
	// vendor-specific page carries the control endpoint.
	UsagePage uint16
	Usage     uint16
}

// Enumerate lists HID interfaces for one vendor. Interfaces without a
// serial number are skipped; the daemon keys all state by serial.
//
// Parameters:
//   - vendorID: USB vendor ID to match (0x1b1c for Corsair)
//
// Returns:
//   - []DeviceInfo: One entry per matching interface
//   - error: Enumeration failure from the HID library
func Enumerate(vendorID uint16) ([]DeviceInfo, error) {
	var found []DeviceInfo

	err := hid.Enumerate(vendorID, hid.ProductIDAny, func(info *hid.DeviceInfo) error {
		if info.SerialNbr == "" {
			return nil
		}
		found = append(found, DeviceInfo{
			Path:      info.Path,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
			Serial:    strings.ToUpper(info.SerialNbr),
			Product:   info.ProductStr,
			UsagePage: info.UsagePage,
			Usage:     info.Usage,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumerateFailed, err)
	}

	return found, nil
}

// Transport is an open HID connection to one device interface. It
// implements the device package's Transport interface.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Packet I/O and reset
//     serialise on an internal mutex.
type Transport struct {
	path string

	mu     sync.Mutex
	dev    handle
	closed bool
}

// Open opens a transport for an enumerated interface.
//
// Returns:
//   - *Transport: Open connection ready for I/O
//   - error: ErrOpenFailed if the interface could not be opened
func Open(info DeviceInfo) (*Transport, error) {
	dev, err := openPath(info.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, info.Path, err)
	}
	return &Transport{path: info.Path, dev: dev}, nil
}

// Write sends one output report to the device.
func (t *Transport) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}
	n, err := t.dev.Write(b)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrIOFailed, err)
	}
	return n, nil
}

// Read receives one input report from the device.
func (t *Transport) Read(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}
	n, err := t.dev.Read(b)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrIOFailed, err)
	}
	return n, nil
}

// SendFeature sends one feature report to the device.
func (t *Transport) SendFeature(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}
	n, err := t.dev.SendFeatureReport(b)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrIOFailed, err)
	}
	return n, nil
}

// GetFeature reads one feature report from the device.
func (t *Transport) GetFeature(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}
	n, err := t.dev.GetFeatureReport(b)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrIOFailed, err)
	}
	return n, nil
}

// Reset drops and reopens the connection. HID gives no portable port
// reset, so a close/reopen cycle is the strongest recovery available;
// if the reopen fails the device is gone and the caller must treat it
// as disconnected.
func (t *Transport) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}

	// Best effort: the old handle may already be dead.
	_ = t.dev.Close()

	dev, err := openPath(t.path)
	if err != nil {
		t.closed = true
		t.dev = nil
		return fmt.Errorf("%w: reopen %s: %w", ErrResetFailed, t.path, err)
	}

	t.dev = dev
	return nil
}

// Close releases the underlying handle. Safe to call more than once.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	err := t.dev.Close()
	t.dev = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", t.path, err)
	}
	return nil
}

// Path returns the platform device path this transport was opened on.
func (t *Transport) Path() string {
	return t.path
}
