package daemon

import (
	"sync"

	"github.com/john-yian/ckb-next/internal/device"
)

// Model describes one supported hardware model: the static identity the
// scanner needs to turn an enumerated USB interface into a Device.
type Model struct {
	// VendorID and ProductID identify the model on the bus.
	VendorID  uint16
	ProductID uint16

	// Name is the human-readable product name.
	Name string

	// Class determines lighting frame cost and render behaviour.
	Class device.Class

	// Features is the model's capability bitmask.
	Features device.Feature

	// MaxPollRate is the fastest poll rate the hardware supports.
	MaxPollRate device.PollRate

	// Keymap is the model's symbolic key layout.
	Keymap device.Keymap

	// NewTable builds the model's capability table. Called once per
	// attach.
	NewTable func() device.Table
}

var (
	modelMu sync.RWMutex
	models  = make(map[uint32]Model)
)

func modelKey(vendorID, productID uint16) uint32 {
	return uint32(vendorID)<<16 | uint32(productID)
}

// RegisterModel adds a model to the scanner's lookup table. Model
// packages call this from init; a later registration for the same
// vendor/product pair replaces the earlier one.
func RegisterModel(m Model) {
	modelMu.Lock()
	defer modelMu.Unlock()
	models[modelKey(m.VendorID, m.ProductID)] = m
}

// LookupModel returns the registered model for a vendor/product pair.
func LookupModel(vendorID, productID uint16) (Model, bool) {
	modelMu.RLock()
	defer modelMu.RUnlock()
	m, ok := models[modelKey(vendorID, productID)]
	return m, ok
}
