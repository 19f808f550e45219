package device

// Table is the capability table: the fixed set of operations the command
// dispatch engine calls to effect changes on a device. One implementation
// exists per device model/class; it is selected at attach time and stored
// on the Device for its lifetime.
//
// Methods returning error are fallible USB operations. The dispatch
// engine wraps most of them in its retry-with-reset policy; FWUpdate is
// the exception and is attempted exactly once. Methods without an error
// return are best-effort: failures are the implementation's problem and
// must not abort line processing.
//
// The node parameter selects the notification channel that receives any
// status output, except where a negative sentinel disables duplicate-key
// diagnostics (see SetRGB).
type Table interface {
	// Get writes report data for the raw token arg to notification
	// channel node.
	Get(d *Device, m *Mode, node int, key int, arg string)

	// Reset performs an immediate device reset command.
	Reset(d *Device, m *Mode, node int, key int, arg string)

	// Active switches the device into software control. On success the
	// implementation sets d.Active.
	Active(d *Device, m *Mode, node int) error

	// Idle returns the device to hardware control. On success the
	// implementation clears d.Active.
	Idle(d *Device, m *Mode, node int) error

	// SetModeIndex informs the hardware of the new current mode's
	// positional index (mode lights on non-RGB models).
	SetModeIndex(d *Device, index int)

	// HWLoad and HWSave round-trip the hardware profile.
	HWLoad(d *Device, m *Mode, node int) error
	HWSave(d *Device, m *Mode, node int) error

	// UpdateRGB flushes pending lighting state to the device. force
	// pushes a full frame even if nothing changed.
	UpdateRGB(d *Device, force bool) error

	// UpdateDPI flushes pending DPI state to the device.
	UpdateDPI(d *Device, force bool) error

	// FWUpdate transfers a firmware image; arg is the whole command
	// token, treated as opaque. Never retried: failure is fatal.
	FWUpdate(d *Device, m *Mode, node int, arg string) error

	// SetPollRate applies a poll rate the caller has already checked
	// against d.MaxPollRate.
	SetPollRate(d *Device, rate PollRate) error

	// EraseProfile clears the current profile. Implementations may
	// replace d.Profile with a fresh allocation; callers must re-read
	// profile and mode references afterwards.
	EraseProfile(d *Device, m *Mode, node int)

	// Command dispatches a per-key command. name is the keyword (for
	// example "bind" or "ioff") and arg the shared right-hand value.
	Command(d *Device, m *Mode, node int, key int, name string, arg string)

	// MacroCommand dispatches a composite-key command (macro, dpi):
	// keys is the whole unsplit left-hand side.
	MacroCommand(d *Device, m *Mode, node int, name string, keys string, arg string)

	// SetRGB applies a 6-digit hex colour to one key. A negative node
	// disables duplicate-scancode diagnostics (used for all-key fills).
	SetRGB(d *Device, m *Mode, node int, key int, arg string)

	// ClearMacros removes every macro from the mode's binding table.
	ClearMacros(d *Device, m *Mode, node int)
}
