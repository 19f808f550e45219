package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/john-yian/ckb-next/internal/device"
)

// noDupCheckNode is the sentinel notification node passed to SetRGB when
// filling every key at once; a negative node disables duplicate-scancode
// diagnostics in the capability table.
const noDupCheckNode = -1

// Notifier opens and closes a device's numbered notification channels.
// Implementations enforce the channel bound and the rule that channel 0
// can never be closed.
type Notifier interface {
	Open(node int) error
	Close(node int) error
}

// Logger is the narrow logging interface the engine needs. Compatible
// with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Engine interprets command lines for a single device. It runs
// synchronously on whatever goroutine owns the device's command stream
// and has no internal concurrency; the only shared state it touches
// under lock is the current-mode reference and macro trigger flags (see
// the device package).
type Engine struct {
	dev    *device.Device
	notify Notifier
	log    Logger

	// Clock and sleep are swappable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// New creates an engine for a device. The notifier handles the
// notifyon/notifyoff channel commands; it may not be nil.
func New(dev *device.Device, notify Notifier) *Engine {
	return &Engine{
		dev:    dev,
		notify: notify,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// SetLogger sets an optional logger for throttle and rejection
// diagnostics. If not set, the engine stays silent.
func (e *Engine) SetLogger(log Logger) {
	e.log = log
}

// Execute interprets one line of whitespace-separated tokens against the
// engine's device. It returns nil on ordinary completion - including
// lines where every token was dropped - and an error wrapping
// device.ErrFatal when the device must be treated as disconnected (a USB
// reset failed, or a firmware transfer failed). After a fatal error the
// remaining tokens of the line are not processed.
func (e *Engine) Execute(line string) error {
	kb := e.dev
	vt := kb.Table
	profile := kb.Profile
	mode := profile.Current

	// Line-scoped parser state.
	active := CmdNone
	node := 0
	sawRGB := false

	for _, word := range strings.Fields(line) {
		// Check for a command word.
		if c := Lookup(word); c != CmdNone {
			active = c
			if c == CmdRGB {
				sawRGB = true
			}
			// Most commands require parameters, but a few are actions
			// in and of themselves and are processed immediately.
			if !c.standalone() {
				continue
			}
		}

		// Select the notification node when given @number. This never
		// changes the active command.
		if n, ok := parseNodeSelector(word); ok {
			node = n
			continue
		}

		// Reject unrecognised tokens, and feature-gated commands the
		// device doesn't support.
		if active == CmdNone ||
			(active.bindFamily() && !kb.Features.Has(device.FeatBind)) ||
			(active == CmdNotify && !kb.Features.Has(device.FeatNotify)) {
			continue
		}
		// A device with damaged firmware accepts almost nothing.
		if kb.NeedsFWUpdate && !active.allowedDuringFWFault() {
			continue
		}

		// Commands available even while the device is idle.
		switch active {
		case CmdNotifyOn:
			if n, err := strconv.Atoi(word); err == nil {
				_ = e.notify.Open(n)
			}
			continue
		case CmdNotifyOff:
			// Channel 0 can never be closed.
			if n, err := strconv.Atoi(word); err == nil && n != 0 {
				_ = e.notify.Close(n)
			}
			continue
		case CmdGet:
			vt.Get(kb, mode, node, 0, word)
			continue
		case CmdLayout:
			switch word {
			case "ansi":
				kb.Features = (kb.Features &^ device.FeatLayoutMask) | device.FeatANSI
			case "iso":
				kb.Features = (kb.Features &^ device.FeatLayoutMask) | device.FeatISO
			}
			continue
		case CmdAccel:
			switch word {
			case "on":
				kb.Features |= device.FeatMouseAccel
			case "off":
				kb.Features &^= device.FeatMouseAccel
			}
			continue
		case CmdScrollSpeed:
			if n, err := strconv.Atoi(word); err == nil {
				if n < device.ScrollMin {
					n = device.ScrollAccelerated
				} else if n > device.ScrollMax {
					n = device.ScrollMax
				}
				kb.ScrollRate = n
			}
			continue
		case CmdMode:
			// Select a mode number (1-based); out of range is ignored.
			if n, err := strconv.Atoi(word); err == nil && n > 0 && n <= len(profile.Modes) {
				mode = profile.Modes[n-1]
			}
			continue
		case CmdFPS:
			if fps, err := strconv.Atoi(word); err == nil && fps > 0 {
				kb.USBDelay = delayForFramerate(fps, kb.Class)
			}
			continue
		case CmdDither:
			if n, err := strconv.Atoi(word); err == nil && n >= 0 && n <= 1 {
				kb.Dither = uint8(n)
				// Re-render with the new dither mode.
				profile.Current.Light.ForceUpdate = true
				mode.Light.ForceUpdate = true
			}
			continue
		case CmdDelay:
			// Recognised but deliberately a no-op.
			continue
		case CmdReset:
			vt.Reset(kb, mode, node, 0, word)
			continue
		}

		// An idle device must be activated before anything else.
		if !kb.Active {
			if active == CmdActive {
				if err := e.tryWithReset(func() error { return vt.Active(kb, mode, node) }); err != nil {
					return err
				}
			}
			continue
		}

		// Commands only available while the device is active.
		switch active {
		case CmdIdle:
			if err := e.tryWithReset(func() error { return vt.Idle(kb, mode, node) }); err != nil {
				return err
			}
			continue
		case CmdSwitch:
			if err := e.switchMode(profile, mode); err != nil {
				return err
			}
			continue
		case CmdHWLoad, CmdHWSave:
			if err := e.hardwareIO(active, mode, node); err != nil {
				return err
			}
			continue
		case CmdFWUpdate:
			// A failed transfer makes a reset unsafe: one attempt,
			// fatal on failure.
			if err := vt.FWUpdate(kb, mode, node, word); err != nil {
				return fmt.Errorf("%w: firmware update failed: %w", device.ErrFatal, err)
			}
			continue
		case CmdPollRate:
			if kb.Features.Has(device.FeatAdjRate) {
				rate, ok := device.ParsePollRate(word)
				if !ok {
					continue
				}
				if rate > kb.MaxPollRate {
					if e.log != nil {
						e.log.Warn("poll rate not supported by this device",
							"serial", kb.Serial,
							"rate", word,
						)
					}
					continue
				}
				if err := e.tryWithReset(func() error { return vt.SetPollRate(kb, rate) }); err != nil {
					return err
				}
			}
			continue
		case CmdEraseProfile:
			vt.EraseProfile(kb, mode, node)
			// Erasure may have replaced the profile allocation.
			profile = kb.Profile
			mode = profile.Current
			continue
		case CmdErase, CmdName, CmdIOff, CmdIOn, CmdIAuto, CmdINotify,
			CmdProfileName, CmdID, CmdProfileID, CmdDPISel, CmdLift, CmdSnap:
			// All of the above just parse the whole token.
			vt.Command(kb, mode, node, 0, active.String(), word)
			continue
		case CmdRGB:
			// A bare hex constant paints every key.
			if isHexColor(word) {
				for i := 0; i < device.KeysExtended; i++ {
					vt.SetRGB(kb, mode, noDupCheckNode, i, word)
				}
				continue
			}
		case CmdMacro:
			if word == "clear" {
				vt.ClearMacros(kb, mode, node)
				continue
			}
		}

		// For anything else, split the token at the colon.
		left, right, ok := splitParam(word)
		if !ok {
			continue
		}
		// Macros and DPI operate on composite keys and take the whole
		// left side.
		if active == CmdMacro || active == CmdDPI {
			vt.MacroCommand(kb, mode, node, active.String(), left, right)
			continue
		}
		// Scan the left side for key names and run the command per key.
		cmd := active
		resolveKeys(left, kb.Keymap, func(index int) {
			vt.Command(kb, mode, node, index, cmd.String(), right)
		})
	}

	// Finish up: converge the on-device state unless the firmware is
	// damaged.
	if !kb.NeedsFWUpdate {
		if sawRGB {
			e.throttleRGB()
		}
		if err := e.tryWithReset(func() error { return vt.UpdateRGB(kb, false) }); err != nil {
			return err
		}
		if err := e.tryWithReset(func() error { return vt.UpdateDPI(kb, false) }); err != nil {
			return err
		}
	}

	return nil
}

// switchMode makes target the current mode if it isn't already. The mode
// mutex covers clearing the outgoing mode's macro trigger flags and the
// pointer swap, and nothing else; the capability table is notified after
// the lock is released.
func (e *Engine) switchMode(profile *device.Profile, target *device.Mode) error {
	kb := e.dev
	if profile.Current == target {
		return nil
	}

	kb.Lock()
	outgoing := profile.Current
	for i := range outgoing.Bind.Macros {
		outgoing.Bind.Macros[i].Triggered = false
	}
	profile.Current = target
	kb.Unlock()

	// Set the mode light on models that have one.
	kb.Table.SetModeIndex(kb, profile.IndexOf(target))
	return nil
}

// hardwareIO runs hwload/hwsave with the inter-command delay raised to
// at least 10ms, then re-flushes RGB state since it can get scrambled by
// the hardware round-trip.
func (e *Engine) hardwareIO(cmd Command, mode *device.Mode, node int) error {
	kb := e.dev
	vt := kb.Table

	prevDelay := kb.USBDelay
	if prevDelay < hardwareIODelay {
		kb.USBDelay = hardwareIODelay
	}

	op := func() error { return vt.HWLoad(kb, mode, node) }
	if cmd == CmdHWSave {
		op = func() error { return vt.HWSave(kb, mode, node) }
	}
	if err := e.tryWithReset(op); err != nil {
		return err
	}
	if err := e.tryWithReset(func() error { return vt.UpdateRGB(kb, true) }); err != nil {
		return err
	}

	kb.USBDelay = prevDelay
	return nil
}

// Inter-command delay bounds. The fps command computes a delay within
// [minUSBDelay, maxUSBDelay]; hardware profile I/O temporarily needs at
// least hardwareIODelay or the device gets overwhelmed.
const (
	minUSBDelay     = 2 * time.Millisecond
	maxUSBDelay     = 10 * time.Millisecond
	hardwareIODelay = 10 * time.Millisecond
)

// delayForFramerate converts a requested frame rate into an
// inter-command delay, accounting for how many USB messages one frame
// costs on this device class.
func delayForFramerate(fps int, class device.Class) time.Duration {
	delay := time.Second / time.Duration(fps*class.SubFrames())
	delay -= delay % time.Millisecond
	if delay < minUSBDelay {
		return minUSBDelay
	}
	if delay > maxUSBDelay {
		return maxUSBDelay
	}
	return delay
}

// parseNodeSelector matches the @<n> notification-node selector. ok is
// false unless n is a valid channel number.
func parseNodeSelector(word string) (n int, ok bool) {
	rest, found := strings.CutPrefix(word, "@")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 || n >= device.MaxNotifyNodes {
		return 0, false
	}
	return n, true
}

// isHexColor reports whether the token is exactly six hex digits.
func isHexColor(word string) bool {
	if len(word) != 6 {
		return false
	}
	for i := 0; i < len(word); i++ {
		c := word[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
