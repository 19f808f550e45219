package device

// ModeCount is the number of modes a profile carries.
const ModeCount = 6

// Macro is one stored macro binding. Triggered is runtime debounce state
// maintained by the input path; it is cleared when the mode is switched
// away from and is never persisted.
type Macro struct {
	Keys      string `json:"keys"`
	Value     string `json:"value"`
	Triggered bool   `json:"-"`
}

// BindTable holds a mode's macro bindings.
type BindTable struct {
	Macros []Macro `json:"macros,omitempty"`
}

// LightState is a mode's lighting block. Colors maps key names to 6-digit
// hex colours. ForceUpdate asks the render path to push a full frame even
// if nothing appears to have changed (set after dither changes and
// hardware round-trips).
type LightState struct {
	Colors      map[string]string `json:"colors,omitempty"`
	ForceUpdate bool              `json:"-"`
}

// Mode is one saved lighting/binding configuration.
type Mode struct {
	Name  string     `json:"name"`
	Bind  BindTable  `json:"bind"`
	Light LightState `json:"light"`
}

// Profile is an ordered set of modes plus the current-mode reference.
// Exactly one mode is current at any time.
type Profile struct {
	Name string
	ID   string

	Modes   []*Mode
	Current *Mode
}

// NewProfile returns a profile with ModeCount empty modes, the first of
// which is current.
func NewProfile() *Profile {
	p := &Profile{Modes: make([]*Mode, ModeCount)}
	for i := range p.Modes {
		p.Modes[i] = &Mode{}
	}
	p.Current = p.Modes[0]
	return p
}

// IndexOf returns the positional index of m within the profile, or -1 if
// m does not belong to it.
func (p *Profile) IndexOf(m *Mode) int {
	for i, mode := range p.Modes {
		if mode == m {
			return i
		}
	}
	return -1
}
