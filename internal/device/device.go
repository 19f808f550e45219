package device

import (
	"sync"
	"time"
)

// KeysExtended is the size of the extended key range: every addressable
// key slot including mouse zones. Key indices handed to the capability
// table are always in [0, KeysExtended).
const KeysExtended = 198

// MaxNotifyNodes bounds the per-device notification channel selector.
// Channel numbers in commands and @n selectors must be below this.
const MaxNotifyNodes = 10

// Scroll rate bounds for the darwin-only scrollspeed command.
const (
	// ScrollAccelerated selects OS-accelerated scrolling.
	ScrollAccelerated = 0
	// ScrollMin and ScrollMax bound fixed per-tick scroll rates.
	ScrollMin = 1
	ScrollMax = 10
)

// Feature is a bitmask of optional device capabilities. Commands that
// depend on a feature are silently dropped when the device lacks it.
type Feature uint32

// Feature flags.
const (
	// FeatRGB indicates per-key RGB lighting support.
	FeatRGB Feature = 1 << iota

	// FeatBind enables the bind/unbind/rebind/macro command family.
	FeatBind

	// FeatNotify enables the notify command.
	FeatNotify

	// FeatAdjRate enables the pollrate command.
	FeatAdjRate

	// FeatANSI and FeatISO record the selected physical layout.
	FeatANSI
	FeatISO

	// FeatMouseAccel records the darwin mouse acceleration toggle.
	FeatMouseAccel
)

// FeatLayoutMask covers the mutually exclusive layout flags.
const FeatLayoutMask = FeatANSI | FeatISO

// Has reports whether all bits of want are set.
func (f Feature) Has(want Feature) bool {
	return f&want == want
}

// Class identifies the broad device family. It determines how many USB
// messages one lighting frame costs, which feeds the fps command's
// inter-command delay calculation.
type Class uint8

// Device classes.
const (
	// ClassKeyboard is a standard keyboard (5 messages per frame).
	ClassKeyboard Class = iota

	// ClassFullRange is a keyboard with full-range LEDs (14 messages per frame).
	ClassFullRange

	// ClassMouse is a pointing device (2 messages per frame).
	ClassMouse
)

// SubFrames returns the number of USB messages one lighting frame costs
// for this device class.
func (c Class) SubFrames() int {
	switch c {
	case ClassMouse:
		return 2
	case ClassFullRange:
		return 14
	default:
		return 5
	}
}

// Transport is the raw USB connection owned by a device. The dispatch
// engine only ever asks it to reset; packet I/O belongs to the capability
// table implementations.
type Transport interface {
	// Reset forces a USB reset of the device. A reset failure is
	// unrecoverable: the caller must treat the device as disconnected.
	Reset() error

	// Close releases the underlying handle.
	Close() error
}

// Device is one attached peripheral. Created by the USB layer on attach,
// destroyed on detach; everything in between is mutation.
type Device struct {
	// Serial identifies the device across attaches. Immutable.
	Serial string

	// Name is the human-readable product name. Immutable.
	Name string

	// Class is the device family. Immutable.
	Class Class

	// Features is the capability bitmask. Mostly static, but the layout
	// and mouse-acceleration bits are toggled by commands.
	Features Feature

	// Active reports whether the device has been switched from hardware
	// (idle) mode into software control. Capability table implementations
	// maintain this from Active/Idle calls.
	Active bool

	// NeedsFWUpdate marks a device with damaged firmware. While set,
	// every command except fwupdate/notifyon/notifyoff/reset is dropped.
	NeedsFWUpdate bool

	// Profile is the owned profile. Replaced wholesale by eraseprofile.
	Profile *Profile

	// USBDelay is the delay inserted between consecutive USB commands.
	// Kept within [2ms, 10ms] by the fps command; hwload/hwsave raise it
	// to at least 10ms for their duration.
	USBDelay time.Duration

	// Dither selects lighting dither mode: 0 none, 1 ordered.
	Dither uint8

	// PollRate and MaxPollRate are the current setting and the fastest
	// rate the hardware advertises.
	PollRate    PollRate
	MaxPollRate PollRate

	// ScrollRate is the darwin-only scroll speed setting.
	ScrollRate int

	// LastRGB is the monotonic timestamp of the last rate-limited RGB
	// frame, maintained by the dispatch engine.
	LastRGB time.Time

	// Keymap maps symbolic key names to indices.
	Keymap Keymap

	// Table is the capability table for this model. Selected once at
	// attach time and invariant for the device's lifetime.
	Table Table

	// Transport is the raw USB connection, used for reset and teardown.
	Transport Transport

	// mu guards Profile.Current and the macro Triggered flags, which the
	// render path reads concurrently with the command stream.
	mu sync.Mutex
}

// Lock acquires the mode mutex. Hold it only around reads or writes of
// the current-mode reference and macro Triggered flags, never across USB
// calls.
func (d *Device) Lock() { d.mu.Lock() }

// Unlock releases the mode mutex.
func (d *Device) Unlock() { d.mu.Unlock() }

// CurrentMode returns the current mode reference under the mode mutex.
// Render-path callers should prefer this over reading Profile.Current
// directly.
func (d *Device) CurrentMode() *Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Profile.Current
}
