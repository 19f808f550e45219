// Package device holds the shared data model for connected RGB peripherals.
//
// A Device is one attached keyboard or mouse. It owns a Profile (an ordered
// set of Modes, exactly one of which is current), a symbolic Keymap, a
// feature bitmask, and the capability Table selected for its model at
// attach time. The command dispatch engine (internal/command) mutates
// devices; it never creates or destroys them - that is the USB layer's job.
//
// # Key Types
//
//   - Device: one attached peripheral and its mutable state
//   - Profile / Mode: saved lighting and binding configurations
//   - Table: the per-model capability table the dispatch engine calls
//   - Transport: the raw USB connection (write, reset, close)
//   - Feature / Class / PollRate: capability flags and device classification
//
// # Thread Safety
//
// Device fields are owned by the goroutine driving that device's command
// stream, with one exception: the current-mode reference and the per-macro
// Triggered flags are also read by the lighting render path. Both sides
// must hold the device mutex (Device.Lock/Unlock) around those accesses.
// No USB calls may be issued while the mutex is held.
//
// # Related Documentation
//
//   - migrations/20260215_120000_profile_schema.up.sql — persistence schema
package device
