package device

// Key is one slot in a device's symbolic keymap. Slots without a name
// (dead zones, model gaps) are addressable numerically but never match
// by name.
type Key struct {
	Name string
}

// Keymap is the ordered list of named key slots for a device. Indices
// into the keymap are the key indices handed to the capability table.
// A keymap may be shorter than KeysExtended; indices beyond its length
// are still valid numerically.
type Keymap []Key

// Index returns the index of the first slot whose name equals name
// exactly, or -1 if no slot matches.
func (km Keymap) Index(name string) int {
	if name == "" {
		return -1
	}
	for i := range km {
		if km[i].Name == name {
			return i
		}
	}
	return -1
}
