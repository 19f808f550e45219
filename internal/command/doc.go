// Package command implements the dispatch core of the daemon: it turns
// one line of control-channel text into capability-table calls against a
// live device.
//
// # Architecture
//
//	line ──▶ tokenizer ──▶ vocabulary lookup ──▶ gating ──▶ key resolver
//	                                                            │
//	             retry-with-reset ◀── capability table call ◀───┘
//	                    │
//	              RGB rate limiter ──▶ finalization flushes
//
// The Engine walks the line token by token, carrying a sticky active
// command: a recognised keyword sets the command, and subsequent
// non-keyword tokens are its parameters until the next keyword or end of
// line. Tokens are dropped silently when malformed or denied by
// device-state, feature, or firmware gating; the protocol favours
// best-effort tolerance over hard failure.
//
// Hard failure is reserved for unrecoverable hardware state: a failed USB
// reset inside the retry policy, or a failed firmware transfer. Both
// surface as an error wrapping device.ErrFatal from Execute, after which
// the caller must treat the device as disconnected.
//
// Every processed line ends with an RGB and DPI flush so the on-device
// state converges even when individual tokens were dropped. Lines that
// carried an RGB command are first throttled to ~60.5 Hz to keep the USB
// link from saturating.
package command
